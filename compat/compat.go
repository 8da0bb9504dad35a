// Package compat implements CompatibilityAnalyzer: a structural diff of two
// registered schemas producing backward/forward verdicts, per-direction
// reasons, and the inferred version direction between them.
package compat

import (
	"fmt"

	"github.com/globaltype/gts/idcodec"
	"github.com/globaltype/gts/issue"
	"github.com/globaltype/gts/jsonval"
	"github.com/globaltype/gts/normalize"
	"github.com/globaltype/gts/registry"
)

// Store is the subset of *registry.Registry the analyzer needs.
type Store interface {
	Get(id string) (registry.Entity, bool)
}

// Result is the checkCompatibility verdict. Issues carries the same reasons
// as BackwardReasons/ForwardReasons, converted into the closed issue.Issues
// currency (CodeCastIncompatible, tagged with a "direction" param) so
// callers that want the shared error surface don't have to re-parse the
// reason strings.
type Result struct {
	IsBackwardCompatible bool
	IsForwardCompatible  bool
	IsFullyCompatible    bool
	BackwardReasons      []string
	ForwardReasons       []string
	Direction            string // "up", "down", "none", or "unknown"
	Issues               issue.Issues
}

// reasonsToIssues converts a compat reason list into the shared issue
// currency, tagging each with which compatibility direction it broke.
func reasonsToIssues(reasons []string, direction string) issue.Issues {
	var out issue.Issues
	for _, r := range reasons {
		out = issue.AppendIssues(out, issue.Issue{
			Code:    issue.CodeCastIncompatible,
			Message: r,
			Params:  map[string]any{"direction": direction},
		})
	}
	return out
}

// Check diffs oldID against newID, both of which must already be registered
// schema entities.
func Check(store Store, oldID, newID string) (Result, error) {
	oldEntity, ok := store.Get(oldID)
	if !ok || !oldEntity.IsSchema {
		return Result{}, fmt.Errorf("compat: %q is not a registered schema", oldID)
	}
	newEntity, ok := store.Get(newID)
	if !ok || !newEntity.IsSchema {
		return Result{}, fmt.Errorf("compat: %q is not a registered schema", newID)
	}

	oldFlat := flatten(normalize.Normalize(oldEntity.Content))
	newFlat := flatten(normalize.Normalize(newEntity.Content))

	backward := diffBackward(oldFlat, newFlat, "")
	forward := diffForward(oldFlat, newFlat, "")

	issues := issue.AppendIssues(nil, reasonsToIssues(backward, "backward")...)
	issues = issue.AppendIssues(issues, reasonsToIssues(forward, "forward")...)

	return Result{
		IsBackwardCompatible: len(backward) == 0,
		IsForwardCompatible:  len(forward) == 0,
		IsFullyCompatible:    len(backward) == 0 && len(forward) == 0,
		BackwardReasons:      backward,
		ForwardReasons:       forward,
		Direction:            inferDirection(oldID, newID),
		Issues:               issues,
	}, nil
}

func inferDirection(oldID, newID string) string {
	op, err := idcodec.Parse(oldID)
	if err != nil {
		return "unknown"
	}
	np, err := idcodec.Parse(newID)
	if err != nil {
		return "unknown"
	}
	oldSeg := op.Segments[len(op.Segments)-1]
	newSeg := np.Segments[len(np.Segments)-1]
	if !oldSeg.HasMinor || !newSeg.HasMinor {
		return "unknown"
	}
	switch {
	case newSeg.Minor > oldSeg.Minor:
		return "up"
	case newSeg.Minor < oldSeg.Minor:
		return "down"
	default:
		return "none"
	}
}

// flat is the union of properties/required across a schema's own fields and
// any allOf subschemas; top-level additionalProperties wins over any
// allOf-nested value.
type flat struct {
	typ                  string
	properties           map[string]jsonval.Value
	required             map[string]bool
	additionalProperties *bool
}

func flatten(schema jsonval.Value) flat {
	f := flat{properties: map[string]jsonval.Value{}, required: map[string]bool{}}
	collect(schema, &f, true)
	return f
}

func collect(schema jsonval.Value, f *flat, topLevel bool) {
	obj, ok := schema.Object()
	if !ok {
		return
	}
	if topLevel {
		if tv, ok := obj.Get("type"); ok {
			if s, isStr := tv.Str(); isStr {
				f.typ = s
			}
		}
		if apv, ok := obj.Get("additionalProperties"); ok {
			if b, isBool := apv.Bool(); isBool {
				val := b
				f.additionalProperties = &val
			} else {
				allowed := true
				f.additionalProperties = &allowed
			}
		}
	}
	if pv, ok := obj.Get("properties"); ok {
		if po, ok2 := pv.Object(); ok2 {
			for _, k := range po.Keys() {
				if _, exists := f.properties[k]; exists {
					continue
				}
				v, _ := po.Get(k)
				f.properties[k] = v
			}
		}
	}
	if rv, ok := obj.Get("required"); ok {
		if items, ok2 := rv.Items(); ok2 {
			for _, item := range items {
				if s, isStr := item.Str(); isStr {
					f.required[s] = true
				}
			}
		}
	}
	if av, ok := obj.Get("allOf"); ok {
		if items, ok2 := av.Items(); ok2 {
			for _, sub := range items {
				collect(sub, f, false)
			}
		}
	}
}

// diffBackward reports every way new fails to accept data that validated
// against old (per spec §4.8's literal backward rules).
func diffBackward(old, new flat, prefix string) []string {
	var out []string

	for name := range new.required {
		if !old.required[name] {
			out = append(out, prefixed(prefix, fmt.Sprintf("required property %q added", name)))
		}
	}

	for name, newProp := range new.properties {
		oldProp, ok := old.properties[name]
		if !ok {
			continue
		}
		out = append(out, diffProperty(name, oldProp, newProp, prefix, true)...)
	}

	return out
}

// diffForward is the mirror of diffBackward: it reports every way old fails
// to accept data that validates against new.
func diffForward(old, new flat, prefix string) []string {
	var out []string

	for name := range old.required {
		if !new.required[name] {
			out = append(out, prefixed(prefix, fmt.Sprintf("required property %q removed", name)))
		}
	}

	for name, newProp := range new.properties {
		oldProp, ok := old.properties[name]
		if !ok {
			continue
		}
		out = append(out, diffProperty(name, oldProp, newProp, prefix, false)...)
	}

	return out
}

func diffProperty(name string, oldProp, newProp jsonval.Value, prefix string, backward bool) []string {
	path := prefixed(prefix, name)
	oldObj, _ := oldProp.Object()
	newObj, _ := newProp.Object()

	var out []string

	oldType := strField(oldObj, "type")
	newType := strField(newObj, "type")
	if oldType != "" && newType != "" && oldType != newType && !(oldType == "integer" && newType == "number") {
		out = append(out, fmt.Sprintf("%s: type changed from %q to %q", path, oldType, newType))
	}

	if backward {
		out = append(out, diffEnumAdded(path, oldObj, newObj)...)
		out = append(out, diffBoundTightenedOrIntroduced(path, oldObj, newObj, "minimum", false)...)
		out = append(out, diffBoundTightenedOrIntroduced(path, oldObj, newObj, "maximum", true)...)
		out = append(out, diffBoundTightenedOrIntroduced(path, oldObj, newObj, "minLength", false)...)
		out = append(out, diffBoundTightenedOrIntroduced(path, oldObj, newObj, "maxLength", true)...)
		out = append(out, diffBoundTightenedOrIntroduced(path, oldObj, newObj, "minItems", false)...)
		out = append(out, diffBoundTightenedOrIntroduced(path, oldObj, newObj, "maxItems", true)...)
	} else {
		out = append(out, diffEnumRemoved(path, oldObj, newObj)...)
		out = append(out, diffBoundRelaxedOrRemoved(path, oldObj, newObj, "minimum", false)...)
		out = append(out, diffBoundRelaxedOrRemoved(path, oldObj, newObj, "maximum", true)...)
		out = append(out, diffBoundRelaxedOrRemoved(path, oldObj, newObj, "minLength", false)...)
		out = append(out, diffBoundRelaxedOrRemoved(path, oldObj, newObj, "maxLength", true)...)
		out = append(out, diffBoundRelaxedOrRemoved(path, oldObj, newObj, "minItems", false)...)
		out = append(out, diffBoundRelaxedOrRemoved(path, oldObj, newObj, "maxItems", true)...)
	}

	if oldType == "object" && newType == "object" {
		oldFlat := flatten(oldProp)
		newFlat := flatten(newProp)
		if backward {
			out = append(out, diffBackward(oldFlat, newFlat, path)...)
		} else {
			out = append(out, diffForward(oldFlat, newFlat, path)...)
		}
	}

	if oldType == "array" && newType == "array" {
		oldItems, _ := oldObj.Get("items")
		newItems, _ := newObj.Get("items")
		oldItemsObj, oldOK := oldItems.Object()
		newItemsObj, newOK := newItems.Object()
		if oldOK && newOK && strField(oldItemsObj, "type") == "object" && strField(newItemsObj, "type") == "object" {
			oldFlat := flatten(oldItems)
			newFlat := flatten(newItems)
			if backward {
				out = append(out, diffBackward(oldFlat, newFlat, path+"[]")...)
			} else {
				out = append(out, diffForward(oldFlat, newFlat, path+"[]")...)
			}
		}
	}

	return out
}

func diffEnumAdded(path string, oldObj, newObj *jsonval.Object) []string {
	oldEnum, oldHas := enumSet(oldObj)
	newEnum, newHas := enumSet(newObj)
	if !newHas {
		return nil
	}
	var out []string
	for lit := range newEnum {
		if !oldHas || !oldEnum[lit] {
			out = append(out, fmt.Sprintf("%s: enum value %s added", path, lit))
		}
	}
	return out
}

func diffEnumRemoved(path string, oldObj, newObj *jsonval.Object) []string {
	oldEnum, oldHas := enumSet(oldObj)
	newEnum, newHas := enumSet(newObj)
	if !oldHas {
		return nil
	}
	var out []string
	for lit := range oldEnum {
		if !newHas || !newEnum[lit] {
			out = append(out, fmt.Sprintf("%s: enum value %s removed", path, lit))
		}
	}
	return out
}

func enumSet(obj *jsonval.Object) (map[string]bool, bool) {
	v, ok := obj.Get("enum")
	if !ok {
		return nil, false
	}
	items, ok := v.Items()
	if !ok {
		return nil, false
	}
	set := make(map[string]bool, len(items))
	for _, item := range items {
		b, _ := jsonval.Marshal(item)
		set[string(b)] = true
	}
	return set, true
}

// diffBoundTightenedOrIntroduced flags a min/max-shaped keyword when new
// narrows the accepted range beyond what old declared, or introduces a
// bound old never had. isMax controls which direction counts as tighter.
func diffBoundTightenedOrIntroduced(path string, oldObj, newObj *jsonval.Object, key string, isMax bool) []string {
	oldBound, oldHas := floatField(oldObj, key)
	newBound, newHas := floatField(newObj, key)
	if !newHas {
		return nil
	}
	if !oldHas {
		return []string{fmt.Sprintf("%s: %s introduced", path, key)}
	}
	if isMax && newBound < oldBound {
		return []string{fmt.Sprintf("%s: %s tightened from %v to %v", path, key, oldBound, newBound)}
	}
	if !isMax && newBound > oldBound {
		return []string{fmt.Sprintf("%s: %s tightened from %v to %v", path, key, oldBound, newBound)}
	}
	return nil
}

// diffBoundRelaxedOrRemoved is the forward-direction mirror.
func diffBoundRelaxedOrRemoved(path string, oldObj, newObj *jsonval.Object, key string, isMax bool) []string {
	oldBound, oldHas := floatField(oldObj, key)
	newBound, newHas := floatField(newObj, key)
	if !oldHas {
		return nil
	}
	if !newHas {
		return []string{fmt.Sprintf("%s: %s removed", path, key)}
	}
	if isMax && newBound > oldBound {
		return []string{fmt.Sprintf("%s: %s relaxed from %v to %v", path, key, oldBound, newBound)}
	}
	if !isMax && newBound < oldBound {
		return []string{fmt.Sprintf("%s: %s relaxed from %v to %v", path, key, oldBound, newBound)}
	}
	return nil
}

func strField(obj *jsonval.Object, key string) string {
	if obj == nil {
		return ""
	}
	v, ok := obj.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.Str()
	return s
}

func floatField(obj *jsonval.Object, key string) (float64, bool) {
	if obj == nil {
		return 0, false
	}
	v, ok := obj.Get(key)
	if !ok {
		return 0, false
	}
	return v.Float64()
}

func prefixed(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
