package gts_test

import (
	"testing"

	"github.com/globaltype/gts"
	"github.com/globaltype/gts/jsonval"
	"github.com/globaltype/gts/registry"
	"github.com/globaltype/gts/relate"
)

func decode(t *testing.T, s string) jsonval.Value {
	t.Helper()
	v, err := jsonval.Decode([]byte(s), jsonval.DecodeOptions{})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

// TestParseID_WildcardScenario models scenario 1 from spec §8.
func TestParseID_WildcardScenario(t *testing.T) {
	res := gts.ParseID("gts.vendor.pkg.*")
	if !res.Ok {
		t.Fatalf("expected ok, got %+v", res)
	}
	if len(res.Segments) == 0 || !res.Segments[0].IsWildcard {
		t.Fatalf("expected segments[0].IsWildcard, got %+v", res.Segments)
	}
}

// TestParseID_ChainedType models scenario 2 from spec §8.
func TestParseID_ChainedType(t *testing.T) {
	res := gts.ParseID("gts.x.core.events.type.v1~ven.app._.custom_event.v1~")
	if !res.Ok {
		t.Fatalf("expected ok, got %+v", res)
	}
	if len(res.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(res.Segments))
	}
	if res.Segments[1].Namespace != "_" {
		t.Fatalf("expected segments[1].Namespace == \"_\", got %q", res.Segments[1].Namespace)
	}
	if !res.Segments[0].IsType || !res.Segments[1].IsType {
		t.Fatalf("expected both segments to be type segments, got %+v", res.Segments)
	}
}

// TestMatchIDPattern_MinorWildcard models scenario 3 from spec §8.
func TestMatchIDPattern_MinorWildcard(t *testing.T) {
	res := gts.MatchIDPattern(
		"gts.v.p.n.t.v1~v.p.n.i.v1.0",
		"gts.v.p.n.t.v1~v.p.n.i.v1",
	)
	if res.Error != "" {
		t.Fatalf("unexpected error: %s", res.Error)
	}
	if !res.Match {
		t.Fatalf("expected a minor-absent pattern to match any minor, got %+v", res)
	}
}

func TestIDToUUID_Deterministic(t *testing.T) {
	id := "gts.test.pkg.ns.thing.v1~"
	a := gts.IDToUUID(id)
	b := gts.IDToUUID(id)
	if a.Error != "" || b.Error != "" {
		t.Fatalf("unexpected error: %+v / %+v", a, b)
	}
	if a.UUID != b.UUID {
		t.Fatalf("expected deterministic uuid, got %q vs %q", a.UUID, b.UUID)
	}
	other := gts.IDToUUID("gts.test.pkg.ns.other.v1~")
	if other.UUID == a.UUID {
		t.Fatalf("expected distinct ids to map to distinct uuids")
	}
}

func TestSystem_RegisterGetQuery(t *testing.T) {
	s := gts.New(registry.Options{ValidateRefs: true})

	schemaRes := s.Register(decode(t, `{
		"$id": "gts.test.pkg.ns.person.v1~",
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"required": ["name"],
		"properties": {"name": {"type": "string"}}
	}`))
	if !schemaRes.Ok {
		t.Fatalf("expected schema registration to succeed, got %+v", schemaRes)
	}

	instRes := s.Register(decode(t, `{
		"id": "gts.test.pkg.ns.person.v1.0",
		"schema": "gts.test.pkg.ns.person.v1~",
		"name": "ada"
	}`))
	if !instRes.Ok {
		t.Fatalf("expected instance registration to succeed, got %+v", instRes)
	}

	entity, ok := s.Get("gts.test.pkg.ns.person.v1.0")
	if !ok || entity.SchemaID != "gts.test.pkg.ns.person.v1~" {
		t.Fatalf("unexpected entity: %+v", entity)
	}

	ids, err := s.Query("gts.test.pkg.ns.person.v1.*", 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(ids) != 1 || ids[0] != "gts.test.pkg.ns.person.v1.0" {
		t.Fatalf("expected the instance id alone, got %+v", ids)
	}

	vres := s.ValidateInstance("gts.test.pkg.ns.person.v1.0")
	if !vres.Ok || !vres.Valid {
		t.Fatalf("expected a clean validation, got %+v", vres)
	}
}

func TestSystem_RegisterRejectsUnresolvedSchemaRef(t *testing.T) {
	s := gts.New(registry.Options{ValidateRefs: true})
	res := s.Register(decode(t, `{
		"id": "gts.test.pkg.ns.person.v1.0",
		"schema": "gts.test.pkg.ns.person.v1~",
		"name": "ada"
	}`))
	if res.Ok {
		t.Fatalf("expected registration to fail since the schema is not yet registered")
	}
}

func TestSystem_GetAttribute(t *testing.T) {
	s := gts.New(registry.Options{})
	s.Register(decode(t, `{
		"id": "gts.test.pkg.ns.widget.v1.0",
		"schema": "gts.test.pkg.ns.widget.v1~",
		"tags": ["a", "b", "c"]
	}`))

	res := s.GetAttribute("gts.test.pkg.ns.widget.v1.0", "tags[1]")
	if !res.Resolved {
		t.Fatalf("expected path to resolve, got %+v", res)
	}
	if s, isStr := res.Value.Str(); !isStr || s != "b" {
		t.Fatalf("expected \"b\", got %+v", res.Value)
	}

	combined := s.GetAttributeCombined("gts.test.pkg.ns.widget.v1.0@tags[2]")
	if val, isStr := combined.Value.Str(); !isStr || val != "c" {
		t.Fatalf("expected \"c\" via combined syntax, got %+v", combined.Value)
	}
}

func TestSystem_CheckCompatibility(t *testing.T) {
	s := gts.New(registry.Options{})
	s.Register(decode(t, `{
		"$id": "gts.test.pkg.ns.person.v1~",
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"required": ["name"],
		"properties": {"name": {"type": "string"}}
	}`))
	s.Register(decode(t, `{
		"$id": "gts.test.pkg.ns.person.v1.1~",
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"required": ["name"],
		"properties": {"name": {"type": "string"}, "nickname": {"type": "string"}}
	}`))

	res, err := s.CheckCompatibility("gts.test.pkg.ns.person.v1~", "gts.test.pkg.ns.person.v1.1~", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsBackwardCompatible {
		t.Fatalf("expected adding an optional property to be backward compatible, got %+v", res)
	}
}

func TestSystem_CastInstance(t *testing.T) {
	s := gts.New(registry.Options{})
	s.Register(decode(t, `{
		"$id": "gts.test.pkg.ns.person.v1~",
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"required": ["name"],
		"properties": {"name": {"type": "string"}}
	}`))
	s.Register(decode(t, `{
		"$id": "gts.test.pkg.ns.person.v1.1~",
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"required": ["name"],
		"properties": {
			"name": {"type": "string"},
			"nickname": {"type": "string", "default": "n/a"}
		}
	}`))
	s.Register(decode(t, `{
		"id": "gts.test.pkg.ns.person.v1.0",
		"schema": "gts.test.pkg.ns.person.v1~",
		"name": "ada"
	}`))

	res, err := s.CastInstance("gts.test.pkg.ns.person.v1.0", "gts.test.pkg.ns.person.v1.1~")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Ok {
		t.Fatalf("expected cast to succeed, got %+v", res)
	}
	nickname, _ := attrpathValue(t, res.Instance, "nickname").Str()
	if nickname != "n/a" {
		t.Fatalf("expected the target schema's default to be filled in, got %+v", res.Instance)
	}
}

func TestSystem_RelationshipsAndGraph(t *testing.T) {
	s := gts.New(registry.Options{})
	s.Register(decode(t, `{
		"$id": "gts.test.pkg.ns.team.v1~",
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object"
	}`))
	s.Register(decode(t, `{
		"$id": "gts.test.pkg.ns.person.v1~",
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object"
	}`))
	s.Register(decode(t, `{
		"id": "gts.test.pkg.ns.team.v1.0",
		"schema": "gts.test.pkg.ns.team.v1~",
		"lead": "gts.test.pkg.ns.person.v1.0"
	}`))
	s.Register(decode(t, `{
		"id": "gts.test.pkg.ns.person.v1.0",
		"schema": "gts.test.pkg.ns.person.v1~",
		"name": "ada"
	}`))

	rres, err := s.ResolveRelationships("gts.test.pkg.ns.team.v1.0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rres.Relationships) == 0 {
		t.Fatalf("expected at least one relationship, got %+v", rres)
	}
	if len(rres.Broken) != 0 {
		t.Fatalf("expected no broken relationships, got %+v", rres.Broken)
	}

	graph := s.RelationshipGraph("gts.test.pkg.ns.team.v1.0")
	if graph == nil || graph.ID != "gts.test.pkg.ns.team.v1.0" {
		t.Fatalf("unexpected graph root: %+v", graph)
	}
	var personEdge *relate.Edge
	for i := range graph.Edges {
		if graph.Edges[i].Target != nil && graph.Edges[i].Target.ID == "gts.test.pkg.ns.person.v1.0" {
			personEdge = &graph.Edges[i]
		}
	}
	if personEdge == nil || personEdge.Target.Broken {
		t.Fatalf("expected a resolved edge into the person entity, got %+v", graph.Edges)
	}
}

// attrpathValue is a small test helper wrapping GetAttribute for readability
// in TestSystem_CastInstance.
func attrpathValue(t *testing.T, doc jsonval.Value, field string) jsonval.Value {
	t.Helper()
	obj, ok := doc.Object()
	if !ok {
		t.Fatalf("expected an object, got %+v", doc)
	}
	v, ok := obj.Get(field)
	if !ok {
		t.Fatalf("expected field %q to be present in %+v", field, doc)
	}
	return v
}
