package compat_test

import (
	"testing"

	"github.com/globaltype/gts/compat"
	"github.com/globaltype/gts/jsonval"
	"github.com/globaltype/gts/registry"
)

func decode(t *testing.T, s string) jsonval.Value {
	t.Helper()
	v, err := jsonval.Decode([]byte(s), jsonval.DecodeOptions{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func register(t *testing.T, r *registry.Registry, id, content string) {
	t.Helper()
	if err := r.Register(registry.Entity{ID: id, IsSchema: true, Content: decode(t, content)}); err != nil {
		t.Fatalf("register %s: %v", id, err)
	}
}

// TestCheck_BreakingRename models scenario 5 from spec §8: V2 drops the
// "name" property's required status in favor of a new required "fullName".
func TestCheck_BreakingRename(t *testing.T) {
	r := registry.New(registry.Options{})
	v1 := "gts.test.pkg.ns.person.v1~"
	v2 := "gts.test.pkg.ns.person.v2~"
	register(t, r, v1, `{"type":"object","required":["name"],"properties":{"name":{"type":"string"}}}`)
	register(t, r, v2, `{"type":"object","required":["fullName"],"properties":{"fullName":{"type":"string"}}}`)

	res, err := compat.Check(r, v1, v2)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.IsBackwardCompatible {
		t.Fatalf("expected backward-incompatible, got %+v", res)
	}
	if len(res.BackwardReasons) == 0 {
		t.Fatalf("expected at least one backward reason")
	}
}

// TestCheck_Monotonicity is spec §8's "compatibility monotonicity" property:
// an optional property with a default is compatible both ways; the same
// property without a default, made required, is not backward-compatible.
func TestCheck_Monotonicity(t *testing.T) {
	r := registry.New(registry.Options{})
	a := "gts.test.pkg.ns.widget.v1~"
	bOptionalDefault := "gts.test.pkg.ns.widget.v2~"
	register(t, r, a, `{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`)
	register(t, r, bOptionalDefault, `{"type":"object","properties":{"name":{"type":"string"},"email":{"type":"string","default":""}},"required":["name"]}`)

	res, err := compat.Check(r, a, bOptionalDefault)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !res.IsBackwardCompatible || !res.IsForwardCompatible {
		t.Fatalf("expected a fully-compatible optional addition, got %+v", res)
	}

	c := "gts.test.pkg.ns.other.v1~"
	dRequiredNoDefault := "gts.test.pkg.ns.other.v2~"
	register(t, r, c, `{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}`)
	register(t, r, dRequiredNoDefault, `{"type":"object","properties":{"name":{"type":"string"},"email":{"type":"string"}},"required":["name","email"]}`)

	res2, err := compat.Check(r, c, dRequiredNoDefault)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res2.IsBackwardCompatible {
		t.Fatalf("expected a required addition without a default to break backward compatibility, got %+v", res2)
	}
}

func TestCheck_DirectionInference(t *testing.T) {
	r := registry.New(registry.Options{})
	v10 := "gts.test.pkg.ns.thing.v1.0"
	v11 := "gts.test.pkg.ns.thing.v1.1"
	register(t, r, v10, `{"type":"object"}`)
	register(t, r, v11, `{"type":"object"}`)

	res, err := compat.Check(r, v10, v11)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Direction != "up" {
		t.Fatalf("expected direction 'up', got %q", res.Direction)
	}
}
