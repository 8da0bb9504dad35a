// Package registry implements the owning, single-writer/many-reader
// in-memory store keyed by GTS identifier. It enforces referential
// integrity at registration time and compiles schema entities into the
// dynamic JSON-Schema engine so validate.InstanceValidator never recompiles
// a schema on the hot path.
package registry

import (
	"fmt"
	"sync"

	"github.com/globaltype/gts/idcodec"
	"github.com/globaltype/gts/internal/jsonschema"
	"github.com/globaltype/gts/jsonval"
	"github.com/globaltype/gts/normalize"
)

// Entity is an in-memory record keyed by GTS identifier, constructed by the
// extractor from raw JSON and never mutated in place once registered.
type Entity struct {
	ID         string
	SchemaID   string
	Content    jsonval.Value
	IsSchema   bool
	References []string
}

// Options configures a Registry's registration-time checks. StrictMode is
// reserved for future use; it has no observable behavior beyond ValidateRefs
// today.
type Options struct {
	ValidateRefs bool
	StrictMode   bool
}

// Registry is a single-writer, many-reader id->entity map, guarded the same
// way the teacher's UserStore guards its map: one sync.RWMutex, writers take
// the full lock, readers take a read lock.
type Registry struct {
	opts Options

	mu       sync.RWMutex
	entities map[string]Entity
	order    []string
	schemas  map[string]*jsonschema.Schema
}

// New returns an empty Registry configured by opts.
func New(opts Options) *Registry {
	return &Registry{
		opts:     opts,
		entities: make(map[string]Entity),
		schemas:  make(map[string]*jsonschema.Schema),
	}
}

// Register inserts e into the registry. Overwrite-on-duplicate is
// permitted; enumeration order is governed by first insertion. When
// ValidateRefs is set, every id in e.References must already be present.
// Schema entities are additionally normalized and compiled into the
// JSON-Schema engine under their canonical id.
func (r *Registry) Register(e Entity) error {
	if e.ID == "" || !idcodec.IsValid(e.ID) {
		return fmt.Errorf("registry: entity id %q is not a valid gts identifier", e.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.opts.ValidateRefs {
		for _, ref := range e.References {
			if _, ok := r.entities[ref]; !ok {
				return fmt.Errorf("registry: unresolved reference %q", ref)
			}
		}
	}

	var compiled *jsonschema.Schema
	if e.IsSchema {
		normalized := normalize.Normalize(e.Content)
		c, err := jsonschema.Compile(normalized, jsonschema.CompileOptions{Root: normalized})
		if err != nil {
			return fmt.Errorf("registry: compiling schema %q: %w", e.ID, err)
		}
		compiled = c
	}

	if _, exists := r.entities[e.ID]; !exists {
		r.order = append(r.order, e.ID)
	}
	r.entities[e.ID] = e
	if compiled != nil {
		r.schemas[e.ID] = compiled
	}

	return nil
}

// Get returns the entity stored under id.
func (r *Registry) Get(id string) (Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entities[id]
	return e, ok
}

// GetAll returns an insertion-ordered snapshot of every entity.
func (r *Registry) GetAll() []Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entity, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entities[id])
	}
	return out
}

// Query enumerates registered ids in insertion order, emitting each id
// IdCodec.matchPattern reports a match for, stopping once limit results have
// been collected (limit <= 0 means unbounded).
func (r *Registry) Query(pattern string, limit int) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for _, id := range r.order {
		matched, err := idcodec.MatchPattern(id, pattern)
		if err != nil {
			return nil, err
		}
		if !matched {
			continue
		}
		out = append(out, id)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// Schema returns the compiled JSON-Schema engine form of a registered schema
// entity, consumed by validate.Instance.
func (r *Registry) Schema(id string) (*jsonschema.Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.schemas[id]
	return s, ok
}

// Has reports whether id is present, implementing xref.Resolver.
func (r *Registry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}
