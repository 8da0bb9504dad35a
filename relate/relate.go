// Package relate implements RelationshipResolver: it walks an entity's
// content collecting every embedded GTS reference, and can build a
// recursive reference graph rooted at a given id.
package relate

import (
	"fmt"
	"strings"

	"github.com/globaltype/gts/idcodec"
	"github.com/globaltype/gts/jsonval"
	"github.com/globaltype/gts/registry"
)

const metaSchemaMarker = "json-schema.org"

// Store is the subset of *registry.Registry the resolver needs.
type Store interface {
	Get(id string) (registry.Entity, bool)
	Has(id string) bool
}

// Relationship is a single GTS reference discovered inside an entity's
// content, at a dotted + bracketed path relative to the content root.
type Relationship struct {
	ID   string
	Path string
}

// Result is the flat view of resolveRelationships: every relationship found,
// plus the subset of target ids not present in the store.
type Result struct {
	ID            string
	Relationships []Relationship
	Broken        []string
}

// Resolve walks id's content and returns the flat relationship view.
func Resolve(store Store, id string) (Result, error) {
	entity, ok := store.Get(id)
	if !ok {
		return Result{}, fmt.Errorf("relate: entity %q not found", id)
	}

	var found []Relationship
	walk(entity.Content, "", &found)
	rels := dedup(found)

	var broken []string
	brokenSeen := map[string]bool{}
	for _, r := range rels {
		if !store.Has(r.ID) && !brokenSeen[r.ID] {
			brokenSeen[r.ID] = true
			broken = append(broken, r.ID)
		}
	}

	return Result{ID: id, Relationships: rels, Broken: broken}, nil
}

// Node is one vertex of the recursive reference graph: a resolved id plus
// the edges reached from each relationship found in its content.
type Node struct {
	ID     string
	Broken bool // id is not present in the store.
	Cycle  bool // visiting id would revisit an ancestor; traversal stopped here.
	Edges  []Edge
}

// Edge is one outgoing reference from a Node, labeled by the path it was
// found at.
type Edge struct {
	Path   string
	Target *Node
}

// Graph builds the recursive node tree rooted at id, descending through
// every reference's target and detecting cycles via a visited set carried
// down each branch of the traversal (the graph itself is read only, so no
// back-edge ownership problem arises from copying the set per branch).
func Graph(store Store, id string) *Node {
	return buildNode(store, id, map[string]bool{})
}

func buildNode(store Store, id string, visited map[string]bool) *Node {
	if visited[id] {
		return &Node{ID: id, Cycle: true}
	}
	entity, ok := store.Get(id)
	if !ok {
		return &Node{ID: id, Broken: true}
	}

	next := make(map[string]bool, len(visited)+1)
	for k := range visited {
		next[k] = true
	}
	next[id] = true

	var found []Relationship
	walk(entity.Content, "", &found)
	rels := dedup(found)

	node := &Node{ID: id}
	for _, r := range rels {
		node.Edges = append(node.Edges, Edge{Path: r.Path, Target: buildNode(store, r.ID, next)})
	}
	return node
}

// walk descends v, recording a Relationship for every string value that
// parses as a valid GTS identifier (in canonical form) at any position:
// a bare string element, a "$ref" property, or an "x-gts-ref" property all
// reach this same check since each is itself a string-valued JSON node.
// JSON-Schema meta-schema URLs are excluded.
func walk(v jsonval.Value, path string, out *[]Relationship) {
	switch v.Kind() {
	case jsonval.KindString:
		str, _ := v.Str()
		if str == "" || strings.Contains(str, metaSchemaMarker) {
			return
		}
		if !idcodec.IsValid(str) {
			return
		}
		*out = append(*out, Relationship{ID: idcodec.Canonicalize(str), Path: path})
	case jsonval.KindObject:
		obj, _ := v.Object()
		for _, key := range obj.Keys() {
			val, _ := obj.Get(key)
			walk(val, appendField(path, key), out)
		}
	case jsonval.KindArray:
		items, _ := v.Items()
		for i, item := range items {
			walk(item, appendIndex(path, i), out)
		}
	}
}

func appendField(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func appendIndex(path string, idx int) string {
	return fmt.Sprintf("%s[%d]", path, idx)
}

// dedup removes duplicate (ID, Path) pairs, preserving first-seen order.
func dedup(in []Relationship) []Relationship {
	seen := map[Relationship]bool{}
	var out []Relationship
	for _, r := range in {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}
