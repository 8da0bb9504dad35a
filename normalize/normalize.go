// Package normalize translates between the externally authored GTS schema
// dialect ("$$"-prefixed keys, "gts://" URI form, the x-gts-ref keyword) and
// the dialect a standard JSON-Schema validator accepts.
//
// Normalize produces the engine-facing copy: x-gts-ref is stripped entirely,
// ref-only combinator branches are dropped, and a combinator left with no
// branches is removed, so the result is safe to
// feed directly to the dynamic JSON-Schema engine. CanonicalizeDialect
// produces the lighter xref-facing copy: it performs the same key renames
// and gts:// stripping but leaves x-gts-ref and every combinator branch
// intact, since XRefValidator needs both to enforce reference semantics.
package normalize

import (
	"strings"

	"github.com/globaltype/gts/idcodec"
	"github.com/globaltype/gts/jsonval"
)

const xGtsRefKey = "x-gts-ref"

var keyRenames = map[string]string{
	"$$id":     "$id",
	"$$schema": "$schema",
	"$$ref":    "$ref",
	"$$defs":   "$defs",
}

var combinatorKeys = []string{"allOf", "anyOf", "oneOf"}

// Normalize rewrites schema into the engine-facing dialect.
func Normalize(schema jsonval.Value) jsonval.Value {
	return rewrite(schema, true)
}

// CanonicalizeDialect rewrites schema into the xref-facing dialect: keys are
// renamed and gts:// prefixes stripped, but x-gts-ref and every combinator
// branch are preserved verbatim.
func CanonicalizeDialect(schema jsonval.Value) jsonval.Value {
	return rewrite(schema, false)
}

func rewrite(v jsonval.Value, stripRefs bool) jsonval.Value {
	switch v.Kind() {
	case jsonval.KindArray:
		items, _ := v.Items()
		out := make([]jsonval.Value, len(items))
		for i, item := range items {
			out[i] = rewrite(item, stripRefs)
		}
		return jsonval.Array(out)
	case jsonval.KindObject:
		obj, _ := v.Object()
		out := jsonval.NewObject()
		for _, key := range obj.Keys() {
			val, _ := obj.Get(key)

			if stripRefs && key == xGtsRefKey {
				continue
			}

			outKey := key
			if renamed, ok := keyRenames[key]; ok {
				outKey = renamed
			}

			if (outKey == "$id" || outKey == "$ref") && val.Kind() == jsonval.KindString {
				str, _ := val.Str()
				str = idcodec.Canonicalize(str)
				if outKey == "$ref" {
					// $$defs keys are renamed to $defs, so pointers into them follow.
					str = strings.ReplaceAll(str, "/$$defs/", "/$defs/")
				}
				val = jsonval.String(str)
			} else if isCombinatorKey(outKey) && val.Kind() == jsonval.KindArray {
				val = rewriteCombinator(val, stripRefs)
				if items, _ := val.Items(); stripRefs && len(items) == 0 {
					continue
				}
			} else {
				val = rewrite(val, stripRefs)
			}

			out.Set(outKey, val)
		}
		return jsonval.FromObject(out)
	default:
		return v
	}
}

func isCombinatorKey(key string) bool {
	for _, k := range combinatorKeys {
		if k == key {
			return true
		}
	}
	return false
}

// rewriteCombinator rewrites a combinator array, dropping branches that
// were (before rewriting) exactly a single-keyword {"x-gts-ref": ...}
// object. Branches whose emptiness is intentional ({}) are preserved.
func rewriteCombinator(v jsonval.Value, stripRefs bool) jsonval.Value {
	items, _ := v.Items()
	var out []jsonval.Value
	for _, item := range items {
		if stripRefs && isRefOnlyBranch(item) {
			continue
		}
		out = append(out, rewrite(item, stripRefs))
	}
	return jsonval.Array(out)
}

func isRefOnlyBranch(v jsonval.Value) bool {
	if v.Kind() != jsonval.KindObject {
		return false
	}
	obj, _ := v.Object()
	if obj.Len() != 1 {
		return false
	}
	return obj.Has(xGtsRefKey)
}
