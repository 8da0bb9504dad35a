// Package cast implements the Caster: it projects an instance registered
// under one schema into the shape a target schema requires, filling
// defaults, pruning unknown properties, and migrating version-bearing
// identifier fields, then validates the result.
package cast

import (
	"fmt"
	"sort"

	"github.com/globaltype/gts/compat"
	"github.com/globaltype/gts/idcodec"
	"github.com/globaltype/gts/internal/jsonschema"
	"github.com/globaltype/gts/issue"
	"github.com/globaltype/gts/jsonval"
	"github.com/globaltype/gts/normalize"
	"github.com/globaltype/gts/registry"
)

// Store is the subset of *registry.Registry the caster needs. It also
// satisfies compat.Store, since the cast result carries the
// CompatibilityAnalyzer verdict for informational symmetry.
type Store interface {
	Get(id string) (registry.Entity, bool)
}

// Result is the castInstance verdict. Issues carries the same failures as
// IncompatibilityReasons, converted into the closed issue.Issues currency:
// the manual reasons (missing required property, no default) as
// CodeCastIncompatible, and the weakened-target-schema validation failures
// via the JSON-Schema engine's own Code mapping.
type Result struct {
	Ok                     bool
	Direction              string
	Added                  []string
	Removed                []string
	BackwardCompatible     bool
	ForwardCompatible      bool
	IncompatibilityReasons []string
	Instance               jsonval.Value
	Issues                 issue.Issues
}

// Cast projects the instance registered under instanceID toward the schema
// registered under targetSchemaID.
func Cast(store Store, instanceID, targetSchemaID string) (Result, error) {
	inst, ok := store.Get(instanceID)
	if !ok {
		return Result{}, fmt.Errorf("cast: entity %q not found", instanceID)
	}
	if inst.IsSchema {
		return Result{}, fmt.Errorf("cast: %q is a schema, not an instance", instanceID)
	}
	if inst.SchemaID == "" {
		return Result{}, fmt.Errorf("cast: entity %q has no schema_id", instanceID)
	}
	sourceSchema, ok := store.Get(inst.SchemaID)
	if !ok || !sourceSchema.IsSchema {
		return Result{}, fmt.Errorf("cast: source schema %q is not registered", inst.SchemaID)
	}
	targetSchema, ok := store.Get(targetSchemaID)
	if !ok || !targetSchema.IsSchema {
		return Result{}, fmt.Errorf("cast: target schema %q is not registered", targetSchemaID)
	}

	targetNormalized := normalize.Normalize(targetSchema.Content)
	targetFlat := flattenUnion(targetNormalized)

	content := jsonval.Clone(inst.Content)
	obj, ok := content.Object()
	if !ok {
		return Result{}, fmt.Errorf("cast: instance %q content is not an object", instanceID)
	}

	added := map[string]bool{}
	removed := map[string]bool{}
	var incompat []string

	applyCast(obj, targetFlat, "", added, removed, &incompat)

	var issues issue.Issues
	for _, r := range incompat {
		issues = issue.AppendIssues(issues, issue.Issue{Code: issue.CodeCastIncompatible, Message: r})
	}

	weak := weakenConsts(targetNormalized)
	compiled, err := jsonschema.Compile(weak, jsonschema.CompileOptions{Root: weak})
	if err != nil {
		return Result{}, fmt.Errorf("cast: compiling weakened target schema: %w", err)
	}
	schemaIssues := compiled.Validate(content)
	for _, it := range schemaIssues {
		incompat = append(incompat, fmt.Sprintf("%s %s", it.InstancePath, it.Message))
	}
	issues = issue.AppendIssues(issues, schemaIssues.ToIssue()...)

	compatRes, _ := compat.Check(store, inst.SchemaID, targetSchemaID)

	res := Result{
		Direction:              compatRes.Direction,
		Added:                  sortedKeys(added),
		Removed:                sortedKeys(removed),
		BackwardCompatible:     compatRes.IsBackwardCompatible,
		ForwardCompatible:      compatRes.IsForwardCompatible,
		IncompatibilityReasons: incompat,
		Issues:                 issues,
	}
	if len(incompat) == 0 {
		res.Ok = true
		res.Instance = content
	}
	return res, nil
}

// objectSchema is the flattened view of a schema's object shape used during
// casting: its declared properties, required names, and whether additional
// properties are disallowed.
type objectSchema struct {
	properties                map[string]jsonval.Value
	required                  map[string]bool
	additionalPropertiesFalse bool
}

// flattenUnion implements the target-schema flatten of spec §4.9 step 2:
// union properties/required across the schema's own fields and any allOf
// subschemas, with top-level additionalProperties winning.
func flattenUnion(schema jsonval.Value) objectSchema {
	os := objectSchema{properties: map[string]jsonval.Value{}, required: map[string]bool{}}
	collectUnion(schema, &os, true)
	return os
}

func collectUnion(schema jsonval.Value, os *objectSchema, topLevel bool) {
	obj, ok := schema.Object()
	if !ok {
		return
	}
	if topLevel {
		if apv, ok := obj.Get("additionalProperties"); ok {
			if b, isBool := apv.Bool(); isBool && !b {
				os.additionalPropertiesFalse = true
			}
		}
	}
	if pv, ok := obj.Get("properties"); ok {
		if po, ok2 := pv.Object(); ok2 {
			for _, k := range po.Keys() {
				if _, exists := os.properties[k]; exists {
					continue
				}
				v, _ := po.Get(k)
				os.properties[k] = v
			}
		}
	}
	if rv, ok := obj.Get("required"); ok {
		if items, ok2 := rv.Items(); ok2 {
			for _, item := range items {
				if s, isStr := item.Str(); isStr {
					os.required[s] = true
				}
			}
		}
	}
	if av, ok := obj.Get("allOf"); ok {
		if items, ok2 := av.Items(); ok2 {
			for _, sub := range items {
				collectUnion(sub, os, false)
			}
		}
	}
}

// effectiveObject implements spec §4.9 step 7's "effective object schema":
// a property's own direct properties/required win; only when it declares
// neither does the first allOf subschema's direct shape apply.
func effectiveObject(schema jsonval.Value) objectSchema {
	obj, ok := schema.Object()
	if !ok {
		return objectSchema{properties: map[string]jsonval.Value{}, required: map[string]bool{}}
	}
	if obj.Has("properties") || obj.Has("required") {
		return directObject(obj)
	}
	if av, ok := obj.Get("allOf"); ok {
		if items, ok2 := av.Items(); ok2 && len(items) > 0 {
			return effectiveObject(items[0])
		}
	}
	return objectSchema{properties: map[string]jsonval.Value{}, required: map[string]bool{}}
}

func directObject(obj *jsonval.Object) objectSchema {
	os := objectSchema{properties: map[string]jsonval.Value{}, required: map[string]bool{}}
	if pv, ok := obj.Get("properties"); ok {
		if po, ok2 := pv.Object(); ok2 {
			for _, k := range po.Keys() {
				v, _ := po.Get(k)
				os.properties[k] = v
			}
		}
	}
	if rv, ok := obj.Get("required"); ok {
		if items, ok2 := rv.Items(); ok2 {
			for _, item := range items {
				if s, isStr := item.Str(); isStr {
					os.required[s] = true
				}
			}
		}
	}
	if apv, ok := obj.Get("additionalProperties"); ok {
		if b, isBool := apv.Bool(); isBool && !b {
			os.additionalPropertiesFalse = true
		}
	}
	return os
}

// applyCast performs steps 3-7 of spec §4.9 at one object level, then
// recurses into nested object/array properties using the effective object
// schema of each.
func applyCast(obj *jsonval.Object, os objectSchema, path string, added, removed map[string]bool, incompat *[]string) {
	for _, name := range sortedPropertyNames(os.properties) {
		propSchema := os.properties[name]
		if obj.Has(name) {
			continue
		}
		if def, hasDefault := defaultOf(propSchema); hasDefault {
			obj.Set(name, jsonval.Clone(def))
			added[joinPath(path, name)] = true
			continue
		}
		if os.required[name] {
			*incompat = append(*incompat, fmt.Sprintf("%s: missing required property %q with no default", path, name))
		}
	}

	for _, name := range sortedPropertyNames(os.properties) {
		propSchema := os.properties[name]
		constVal, hasConst := constOf(propSchema)
		if !hasConst {
			continue
		}
		constStr, isStr := constVal.Str()
		if !isStr || !idcodec.IsValid(constStr) {
			continue
		}
		cur, ok := obj.Get(name)
		if !ok {
			continue
		}
		curStr, isStr2 := cur.Str()
		if !isStr2 || !idcodec.IsValid(curStr) || curStr == constStr {
			continue
		}
		obj.Set(name, jsonval.String(constStr))
	}

	if os.additionalPropertiesFalse {
		for _, key := range obj.Keys() {
			if _, ok := os.properties[key]; ok {
				continue
			}
			obj.Delete(key)
			removed[joinPath(path, key)] = true
		}
	}

	for _, name := range sortedPropertyNames(os.properties) {
		propSchema := os.properties[name]
		val, exists := obj.Get(name)
		if !exists {
			continue
		}
		switch strField(propSchema, "type") {
		case "object":
			if childObj, ok := val.Object(); ok {
				applyCast(childObj, effectiveObject(propSchema), joinPath(path, name), added, removed, incompat)
			}
		case "array":
			itemsSchema, hasItems := getItems(propSchema)
			if !hasItems || strField(itemsSchema, "type") != "object" {
				continue
			}
			items, ok := val.Items()
			if !ok {
				continue
			}
			itemOS := effectiveObject(itemsSchema)
			for i, item := range items {
				if itemObj, ok := item.Object(); ok {
					applyCast(itemObj, itemOS, fmt.Sprintf("%s[%d]", joinPath(path, name), i), added, removed, incompat)
				}
			}
		}
	}
}

// weakenConsts rewrites schema so that any subschema whose const value is a
// valid GTS identifier is replaced with {"type": "string"}, matching spec
// §4.9 step 8's validation variant.
func weakenConsts(v jsonval.Value) jsonval.Value {
	obj, ok := v.Object()
	if !ok {
		return v
	}
	if cv, ok := obj.Get("const"); ok {
		if s, isStr := cv.Str(); isStr && idcodec.IsValid(s) {
			out := jsonval.NewObject()
			out.Set("type", jsonval.String("string"))
			return jsonval.FromObject(out)
		}
	}
	out := jsonval.NewObject()
	for _, key := range obj.Keys() {
		val, _ := obj.Get(key)
		switch {
		case key == "properties" && val.Kind() == jsonval.KindObject:
			po, _ := val.Object()
			npo := jsonval.NewObject()
			for _, k := range po.Keys() {
				pv, _ := po.Get(k)
				npo.Set(k, weakenConsts(pv))
			}
			out.Set(key, jsonval.FromObject(npo))
		case key == "items":
			out.Set(key, weakenConsts(val))
		case (key == "allOf" || key == "anyOf" || key == "oneOf") && val.Kind() == jsonval.KindArray:
			items, _ := val.Items()
			nitems := make([]jsonval.Value, len(items))
			for i, item := range items {
				nitems[i] = weakenConsts(item)
			}
			out.Set(key, jsonval.Array(nitems))
		default:
			out.Set(key, val)
		}
	}
	return jsonval.FromObject(out)
}

func defaultOf(schema jsonval.Value) (jsonval.Value, bool) {
	obj, ok := schema.Object()
	if !ok {
		return jsonval.Value{}, false
	}
	return obj.Get("default")
}

func constOf(schema jsonval.Value) (jsonval.Value, bool) {
	obj, ok := schema.Object()
	if !ok {
		return jsonval.Value{}, false
	}
	return obj.Get("const")
}

func getItems(schema jsonval.Value) (jsonval.Value, bool) {
	obj, ok := schema.Object()
	if !ok {
		return jsonval.Value{}, false
	}
	return obj.Get("items")
}

func strField(schema jsonval.Value, key string) string {
	obj, ok := schema.Object()
	if !ok {
		return ""
	}
	v, ok := obj.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.Str()
	return s
}

func sortedPropertyNames(m map[string]jsonval.Value) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
