package idcodec_test

import (
	"testing"

	"github.com/globaltype/gts/idcodec"
)

func TestParse_Valid(t *testing.T) {
	cases := []struct {
		name string
		id   string
	}{
		{"type", "gts.vendor.pkg.ns.thing.v1~"},
		{"instance", "gts.vendor.pkg.ns.thing.v1"},
		{"instance with minor", "gts.vendor.pkg.ns.thing.v1.2"},
		{"chained instance", "gts.x.core.events.type.v1~ven.app._.custom_event.v1"},
		{"uri form", "gts://gts.vendor.pkg.ns.thing.v1"},
		{"wildcard tail", "gts.vendor.pkg.*"},
		{"namespace placeholder", "gts.vendor.pkg._.thing.v1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, err := idcodec.Parse(tc.id)
			if err != nil {
				t.Fatalf("Parse(%q): unexpected error: %v", tc.id, err)
			}
			if len(id.Segments) == 0 {
				t.Fatalf("Parse(%q): no segments", tc.id)
			}
		})
	}
}

func TestParse_ChainedTypeSegments(t *testing.T) {
	id, err := idcodec.Parse("gts.x.core.events.type.v1~ven.app._.custom_event.v1~")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(id.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(id.Segments))
	}
	if id.Segments[1].Namespace != "_" {
		t.Fatalf("expected namespace '_', got %q", id.Segments[1].Namespace)
	}
	if !id.Segments[0].IsType || !id.Segments[1].IsType {
		t.Fatalf("expected both segments to be type segments")
	}
	if !id.IsType {
		t.Fatalf("expected whole identifier to be a type identifier")
	}
}

func TestParse_WildcardSegmentFlag(t *testing.T) {
	id, err := idcodec.Parse("gts.vendor.pkg.*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !id.Segments[0].IsWildcard {
		t.Fatalf("expected segments[0].IsWildcard true")
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := []struct {
		name string
		id   string
	}{
		{"mixed case", "gts.Vendor.pkg.ns.thing.v1"},
		{"contains dash", "gts.vendor-co.pkg.ns.thing.v1"},
		{"missing prefix", "vendor.pkg.ns.thing.v1"},
		{"double dot", "gts.vendor..pkg.ns.thing.v1"},
		{"trailing dot", "gts.vendor.pkg.ns.thing.v1."},
		{"double tilde", "gts.vendor.pkg.ns.thing.v1~~more"},
		{"bare gts.", "gts."},
		{"bare gts.~", "gts.~"},
		{"too few tokens no wildcard", "gts.vendor.pkg.ns"},
		{"bad major", "gts.vendor.pkg.ns.thing.1"},
		{"bad minor leading zero", "gts.vendor.pkg.ns.thing.v1.01"},
		{"wildcard not at tail of segment", "gts.vendor.*.ns"},
		{"wildcard not in final segment", "gts.vendor.pkg.*~rest.a.b.c.v1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := idcodec.Parse(tc.id); err == nil {
				t.Fatalf("Parse(%q): expected error, got nil", tc.id)
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	if !idcodec.IsValid("gts.vendor.pkg.ns.thing.v1~") {
		t.Fatalf("expected valid")
	}
	if idcodec.IsValid("not-a-gts-id") {
		t.Fatalf("expected invalid")
	}
}

// TestIDRoundTrip pins the universal property from spec §8: concatenating
// segment texts at their recorded offsets reconstructs the original text.
func TestIDRoundTrip(t *testing.T) {
	ids := []string{
		"gts.vendor.pkg.ns.thing.v1~",
		"gts.vendor.pkg.ns.thing.v1",
		"gts.x.core.events.type.v1~ven.app._.custom_event.v1~",
		"gts.vendor.pkg.*",
	}
	for _, raw := range ids {
		id, err := idcodec.Parse(raw)
		if err != nil {
			t.Fatalf("Parse(%q): %v", raw, err)
		}
		for _, seg := range id.Segments {
			got := id.Text[seg.Offset : seg.Offset+len(seg.Raw)]
			if got != seg.Raw {
				t.Fatalf("%q: segment %d offset mismatch: got %q want %q", raw, seg.Ordinal, got, seg.Raw)
			}
		}
	}
}

func TestMatchPattern_MinorAbsentIsWildcard(t *testing.T) {
	ok, err := idcodec.MatchPattern(
		"gts.v.p.n.t.v1~v.p.n.i.v1.0",
		"gts.v.p.n.t.v1~v.p.n.i.v1",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected match: pattern with absent minor should wildcard the candidate's minor")
	}
}

func TestMatchPattern_MinorPresentMustEqual(t *testing.T) {
	ok, err := idcodec.MatchPattern(
		"gts.v.p.n.t.v1~v.p.n.i.v1.0",
		"gts.v.p.n.t.v1~v.p.n.i.v1.1",
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected no match: explicit minor mismatch")
	}
}

func TestMatchPattern_Wildcard(t *testing.T) {
	ok, err := idcodec.MatchPattern("gts.vendor.pkg.ns.thing.v1", "gts.vendor.pkg.*")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected wildcard match")
	}
}

// TestPatternSubset pins the monotonicity property from spec §8: refining a
// tail wildcard to a concrete token present in the candidate preserves the
// match.
func TestPatternSubset(t *testing.T) {
	candidate := "gts.vendor.pkg.ns.thing.v1"
	loose := "gts.vendor.*"
	ok, err := idcodec.MatchPattern(candidate, loose)
	if err != nil || !ok {
		t.Fatalf("expected loose pattern to match, err=%v ok=%v", err, ok)
	}
	tighter := "gts.vendor.pkg.*"
	ok, err = idcodec.MatchPattern(candidate, tighter)
	if err != nil || !ok {
		t.Fatalf("expected tighter pattern to still match, err=%v ok=%v", err, ok)
	}
}

func TestSchemaIDOf(t *testing.T) {
	id, err := idcodec.Parse("gts.x.core.events.type.v1~ven.app._.custom_event.v1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	schemaID, ok := idcodec.SchemaIDOf(id)
	if !ok {
		t.Fatalf("expected schema id")
	}
	if schemaID != "gts.x.core.events.type.v1~" {
		t.Fatalf("unexpected schema id: %q", schemaID)
	}
}

func TestSchemaIDOf_DerivedType(t *testing.T) {
	id, err := idcodec.Parse("gts.a.b.c.d.v1~e.f.g.h.v1~")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	parent, ok := idcodec.SchemaIDOf(id)
	if !ok {
		t.Fatalf("expected parent type")
	}
	if parent != "gts.a.b.c.d.v1~" {
		t.Fatalf("unexpected parent type: %q", parent)
	}
}

func TestSchemaIDOf_SingleSegment(t *testing.T) {
	id, err := idcodec.Parse("gts.a.b.c.d.v1~")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := idcodec.SchemaIDOf(id); ok {
		t.Fatalf("expected no schema id for a single-segment identifier")
	}
}
