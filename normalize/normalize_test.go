package normalize_test

import (
	"testing"

	"github.com/globaltype/gts/jsonval"
	"github.com/globaltype/gts/normalize"
)

func decode(t *testing.T, s string) jsonval.Value {
	t.Helper()
	v, err := jsonval.Decode([]byte(s), jsonval.DecodeOptions{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestNormalize_RenamesAndStripsPrefix(t *testing.T) {
	in := decode(t, `{"$$id":"gts://a.b.c.d.v1~","$$schema":"gts.meta.schema.v1~","$$ref":"#/$$defs/x","$$defs":{"x":{}}}`)
	out := normalize.Normalize(in)
	obj, _ := out.Object()

	idVal, _ := obj.Get("$id")
	idStr, _ := idVal.Str()
	if idStr != "a.b.c.d.v1~" {
		t.Fatalf("unexpected $id: %q", idStr)
	}
	if !obj.Has("$schema") || !obj.Has("$defs") {
		t.Fatalf("expected $$schema/$$defs renamed")
	}
	refVal, ok := obj.Get("$ref")
	if !ok {
		t.Fatalf("expected $$ref renamed to $ref")
	}
	refStr, _ := refVal.Str()
	if refStr != "#/$defs/x" {
		t.Fatalf("unexpected $ref: %q", refStr)
	}
}

func TestNormalize_StripsXGtsRef(t *testing.T) {
	in := decode(t, `{"type":"string","x-gts-ref":"gts.test.pkg.ns.*"}`)
	out := normalize.Normalize(in)
	obj, _ := out.Object()
	if obj.Has("x-gts-ref") {
		t.Fatalf("expected x-gts-ref stripped from engine-facing copy")
	}
}

func TestNormalize_DropsRefOnlyBranchKeepsEmptyBranch(t *testing.T) {
	in := decode(t, `{"oneOf":[{"x-gts-ref":"gts.a.b.c.d.*"},{},{"type":"number"}]}`)
	out := normalize.Normalize(in)
	obj, _ := out.Object()
	oneOf, _ := obj.Get("oneOf")
	items, _ := oneOf.Items()
	if len(items) != 2 {
		t.Fatalf("expected ref-only branch dropped, kept 2, got %d", len(items))
	}
	first, _ := items[0].Object()
	if first.Len() != 0 {
		t.Fatalf("expected the intentionally-empty branch preserved, got %+v", first.Keys())
	}
}

func TestNormalize_DropsCombinatorWhenEmptied(t *testing.T) {
	in := decode(t, `{"type":"string","allOf":[{"x-gts-ref":"gts.a.b.c.d.*"}]}`)
	out := normalize.Normalize(in)
	obj, _ := out.Object()
	if obj.Has("allOf") {
		t.Fatalf("expected allOf dropped once its only branch was removed")
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	in := decode(t, `{"$$id":"gts://a.b.c.d.v1~","oneOf":[{"x-gts-ref":"gts.a.b.c.d.*"},{"type":"number"}]}`)
	once := normalize.Normalize(in)
	twice := normalize.Normalize(once)
	onceBytes, _ := jsonval.Marshal(once)
	twiceBytes, _ := jsonval.Marshal(twice)
	if string(onceBytes) != string(twiceBytes) {
		t.Fatalf("normalize is not idempotent:\n%s\nvs\n%s", onceBytes, twiceBytes)
	}
}

func TestCanonicalizeDialect_KeepsXGtsRefAndBranches(t *testing.T) {
	in := decode(t, `{"$$id":"gts://a.b.c.d.v1~","oneOf":[{"x-gts-ref":"gts.a.b.c.d.*"},{"type":"number"}]}`)
	out := normalize.CanonicalizeDialect(in)
	obj, _ := out.Object()
	oneOf, _ := obj.Get("oneOf")
	items, _ := oneOf.Items()
	if len(items) != 2 {
		t.Fatalf("expected both branches preserved, got %d", len(items))
	}
	branch0, _ := items[0].Object()
	if !branch0.Has("x-gts-ref") {
		t.Fatalf("expected x-gts-ref preserved in xref-facing copy")
	}
}
