package validate_test

import (
	"strings"
	"testing"

	"github.com/globaltype/gts/jsonval"
	"github.com/globaltype/gts/registry"
	"github.com/globaltype/gts/validate"
)

func decode(t *testing.T, s string) jsonval.Value {
	t.Helper()
	v, err := jsonval.Decode([]byte(s), jsonval.DecodeOptions{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

// TestValidate_RequiredPropertyMissing models scenario 4 from spec §8: a
// schema requiring "name", validated against an instance carrying only
// "age".
func TestValidate_RequiredPropertyMissing(t *testing.T) {
	r := registry.New(registry.Options{})
	schemaID := "gts.test.pkg.ns.person.v1~"
	if err := r.Register(registry.Entity{
		ID:       schemaID,
		IsSchema: true,
		Content:  decode(t, `{"type":"object","required":["name"],"properties":{"name":{"type":"string"},"age":{"type":"number"}}}`),
	}); err != nil {
		t.Fatalf("register schema: %v", err)
	}

	instID := "gts.test.pkg.ns.person.v1.0"
	if err := r.Register(registry.Entity{
		ID:       instID,
		SchemaID: schemaID,
		Content:  decode(t, `{"age":30}`),
	}); err != nil {
		t.Fatalf("register instance: %v", err)
	}

	res := validate.Instance(r, instID)
	if !res.Ok || res.Valid {
		t.Fatalf("expected a validity failure, got %+v", res)
	}
	if !strings.Contains(res.Error, "required") {
		t.Fatalf("expected error to mention 'required', got %q", res.Error)
	}
}

func TestValidate_ValidInstancePasses(t *testing.T) {
	r := registry.New(registry.Options{})
	schemaID := "gts.test.pkg.ns.person.v1~"
	if err := r.Register(registry.Entity{
		ID:       schemaID,
		IsSchema: true,
		Content:  decode(t, `{"type":"object","required":["name"],"properties":{"name":{"type":"string"}}}`),
	}); err != nil {
		t.Fatalf("register schema: %v", err)
	}
	instID := "gts.test.pkg.ns.person.v1.0"
	if err := r.Register(registry.Entity{
		ID:       instID,
		SchemaID: schemaID,
		Content:  decode(t, `{"name":"ada"}`),
	}); err != nil {
		t.Fatalf("register instance: %v", err)
	}

	res := validate.Instance(r, instID)
	if !res.Ok || !res.Valid || res.Error != "" {
		t.Fatalf("expected a clean pass, got %+v", res)
	}
}

func TestValidate_XRefViolation(t *testing.T) {
	r := registry.New(registry.Options{})
	schemaID := "gts.test.pkg.ns.widget.v1~"
	if err := r.Register(registry.Entity{
		ID:       schemaID,
		IsSchema: true,
		Content:  decode(t, `{"type":"object","properties":{"owner":{"type":"string","x-gts-ref":"gts.test.pkg.ns.person.*"}}}`),
	}); err != nil {
		t.Fatalf("register schema: %v", err)
	}
	instID := "gts.test.pkg.ns.widget.v1.0"
	if err := r.Register(registry.Entity{
		ID:       instID,
		SchemaID: schemaID,
		Content:  decode(t, `{"owner":"gts.test.pkg.ns.person.v1~"}`),
	}); err != nil {
		t.Fatalf("register instance: %v", err)
	}

	res := validate.Instance(r, instID)
	if res.Valid {
		t.Fatalf("expected xref violation since owner is not registered, got %+v", res)
	}

	if err := r.Register(registry.Entity{ID: "gts.test.pkg.ns.person.v1~", IsSchema: true, Content: decode(t, `{}`)}); err != nil {
		t.Fatalf("register person schema: %v", err)
	}
	res = validate.Instance(r, instID)
	if !res.Valid {
		t.Fatalf("expected pass once owner is registered, got %+v", res)
	}
}

func TestValidate_EntityNotFound(t *testing.T) {
	r := registry.New(registry.Options{})
	res := validate.Instance(r, "gts.test.pkg.ns.person.v1.0")
	if res.Ok || res.Error != "entity-not-found" {
		t.Fatalf("expected entity-not-found, got %+v", res)
	}
}
