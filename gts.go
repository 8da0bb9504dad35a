// Package gts implements the Global Type System core: a library API over
// the identifier grammar, entity registry, instance validation, relationship
// resolution, compatibility analysis, and schema-evolution casting described
// by the component packages it composes. System is the single entry point.
// Most exported methods report failures inside their result record; Query,
// ResolveRelationships, CheckCompatibility and CastInstance also return a
// Go error alongside their result.
package gts

import (
	"github.com/globaltype/gts/attrpath"
	"github.com/globaltype/gts/cast"
	"github.com/globaltype/gts/compat"
	"github.com/globaltype/gts/extractor"
	"github.com/globaltype/gts/idcodec"
	"github.com/globaltype/gts/jsonval"
	"github.com/globaltype/gts/registry"
	"github.com/globaltype/gts/relate"
	"github.com/globaltype/gts/validate"
)

// System is the registry plus every operation layered on top of it. The
// zero value is not usable; construct one with New.
type System struct {
	registry *registry.Registry
}

// New returns an empty System backed by a fresh Registry.
func New(opts registry.Options) *System {
	return &System{registry: registry.New(opts)}
}

// ValidateIDResult is the validateId operation's output.
type ValidateIDResult struct {
	ID         string
	Ok         bool
	Valid      bool
	Error      string
	IsWildcard bool
}

// ValidateID reports whether id is a well-formed GTS identifier.
func ValidateID(id string) ValidateIDResult {
	parsed, err := idcodec.Parse(id)
	if err != nil {
		return ValidateIDResult{ID: id, Ok: true, Valid: false, Error: err.Error()}
	}
	return ValidateIDResult{ID: id, Ok: true, Valid: true, IsWildcard: parsed.IsWildcard}
}

// ParseIDResult is the parseId operation's output.
type ParseIDResult struct {
	Ok         bool
	Error      string
	Segments   []idcodec.Segment
	IsSchema   bool
	IsWildcard bool
}

// ParseID decomposes id into its chain segments.
func ParseID(id string) ParseIDResult {
	parsed, err := idcodec.Parse(id)
	if err != nil {
		return ParseIDResult{Error: err.Error()}
	}
	return ParseIDResult{
		Ok:         true,
		Segments:   parsed.Segments,
		IsSchema:   parsed.IsType,
		IsWildcard: parsed.IsWildcard,
	}
}

// MatchIDPatternResult is the matchIdPattern operation's output.
type MatchIDPatternResult struct {
	Match     bool
	Pattern   string
	Candidate string
	Error     string
}

// MatchIDPattern reports whether candidate is matched by pattern.
func MatchIDPattern(candidate, pattern string) MatchIDPatternResult {
	m, err := idcodec.MatchPattern(candidate, pattern)
	if err != nil {
		return MatchIDPatternResult{Pattern: pattern, Candidate: candidate, Error: err.Error()}
	}
	return MatchIDPatternResult{Match: m, Pattern: pattern, Candidate: candidate}
}

// IDToUUIDResult is the idToUuid operation's output.
type IDToUUIDResult struct {
	ID    string
	UUID  string
	Error string
}

// IDToUUID derives the deterministic UUIDv5 for id.
func IDToUUID(id string) IDToUUIDResult {
	u, err := idcodec.ToUUID(id)
	if err != nil {
		return IDToUUIDResult{ID: id, Error: err.Error()}
	}
	return IDToUUIDResult{ID: id, UUID: u.String()}
}

// ExtractID inspects doc and classifies it, optionally falling back to a
// companion schema document's own id when doc carries no schema reference of
// its own (e.g. an instance submitted alongside the schema that governs it).
func ExtractID(doc jsonval.Value, schemaDoc *jsonval.Value) extractor.Result {
	res := extractor.Extract(doc)
	if res.SchemaID == "" && schemaDoc != nil {
		if schemaRes := extractor.Extract(*schemaDoc); schemaRes.ID != "" {
			res.SchemaID = schemaRes.ID
			res.SelectedSchemaIDField = "schema-doc"
		}
	}
	return res
}

// RegisterResult is the register operation's output.
type RegisterResult struct {
	ID    string
	Ok    bool
	Error string
}

// Register extracts doc's identifier and schema reference and stores it.
func (s *System) Register(doc jsonval.Value) RegisterResult {
	res := extractor.Extract(doc)
	if res.ID == "" {
		return RegisterResult{Error: "no usable identifier field found in document"}
	}
	var refs []string
	if !res.IsSchema && res.SchemaID != "" {
		refs = []string{res.SchemaID}
	}
	entity := registry.Entity{
		ID:         res.ID,
		SchemaID:   res.SchemaID,
		Content:    doc,
		IsSchema:   res.IsSchema,
		References: refs,
	}
	if err := s.registry.Register(entity); err != nil {
		return RegisterResult{ID: res.ID, Error: err.Error()}
	}
	return RegisterResult{ID: res.ID, Ok: true}
}

// Get returns the entity stored under id.
func (s *System) Get(id string) (registry.Entity, bool) {
	return s.registry.Get(id)
}

// GetAll returns every registered entity, in insertion order.
func (s *System) GetAll() []registry.Entity {
	return s.registry.GetAll()
}

// Query enumerates registered ids matching pattern.
func (s *System) Query(pattern string, limit int) ([]string, error) {
	return s.registry.Query(pattern, limit)
}

// ValidateInstance validates the entity stored under id against its
// registered schema, including x-gts-ref cross-reference checks.
func (s *System) ValidateInstance(id string) validate.Result {
	return validate.Instance(s.registry, id)
}

// ResolveRelationships returns the flat relationship view for id.
func (s *System) ResolveRelationships(id string) (relate.Result, error) {
	return relate.Resolve(s.registry, id)
}

// RelationshipGraph returns the recursive reference graph rooted at id.
func (s *System) RelationshipGraph(id string) *relate.Node {
	return relate.Graph(s.registry, id)
}

// CheckCompatibility diffs oldID against newID. mode is accepted for
// interface parity with the external operation table but does not change
// the computation: Result already reports both the backward and forward
// verdicts, since computing one is no cheaper than computing both.
func (s *System) CheckCompatibility(oldID, newID, mode string) (compat.Result, error) {
	return compat.Check(s.registry, oldID, newID)
}

// CastInstance projects the instance registered under instanceID toward
// targetSchemaID.
func (s *System) CastInstance(instanceID, targetSchemaID string) (cast.Result, error) {
	return cast.Cast(s.registry, instanceID, targetSchemaID)
}

// AttributeResult is the getAttribute operation's output.
type AttributeResult struct {
	GTSID    string
	Path     string
	Resolved bool
	Value    jsonval.Value
	Error    string
}

// GetAttribute resolves path against the entity registered under id.
func (s *System) GetAttribute(id, path string) AttributeResult {
	entity, ok := s.registry.Get(id)
	if !ok {
		return AttributeResult{GTSID: id, Path: path, Error: "entity-not-found"}
	}
	tokens, err := attrpath.Parse(path)
	if err != nil {
		return AttributeResult{GTSID: id, Path: path, Error: err.Error()}
	}
	val, resolved := attrpath.Get(entity.Content, tokens)
	return AttributeResult{GTSID: id, Path: path, Resolved: resolved, Value: val}
}

// GetAttributeCombined accepts the "id@path" combined syntax, splitting on
// the first '@' before delegating to GetAttribute.
func (s *System) GetAttributeCombined(idAndPath string) AttributeResult {
	id, path := attrpath.SplitIDAndPath(idAndPath)
	return s.GetAttribute(id, path)
}

