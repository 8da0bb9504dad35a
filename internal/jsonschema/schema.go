// Package jsonschema is a dynamic compile/validate engine for the subset of
// JSON Schema that GTS instance validation needs: type, properties,
// required, additionalProperties, items, minItems/maxItems, enum, const,
// the numeric and string keywords, format (date-time only), local $ref
// resolution against $defs, and the allOf/anyOf/oneOf combinators.
//
// Unlike the teacher's schema.go (a fixed Go struct mirrored one-to-one onto
// a handful of JSON Schema fields for export), schemas here are authored at
// runtime as arbitrary jsonval.Value documents, so compilation walks a
// dynamic tree rather than unmarshaling into a known shape.
package jsonschema

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/globaltype/gts/internal/i18n"
	"github.com/globaltype/gts/internal/jptr"
	"github.com/globaltype/gts/issue"
	"github.com/globaltype/gts/jsonval"
)

// codeForKeyword maps a JSON Schema keyword to the i18n dictionary code whose
// default message body best describes the failure. Keywords with no
// dedicated dictionary entry fall back to the nearest family (the min/max
// bound keywords all read as "too small"/"too big"/"too short"/"too long";
// the combinators read as "union_mismatch").
func codeForKeyword(keyword string) string {
	switch keyword {
	case "type":
		return "invalid_type"
	case "const":
		return "invalid_enum"
	case "enum":
		return "invalid_enum"
	case "required":
		return "required"
	case "additionalProperties":
		return "unknown_key"
	case "minItems", "minLength":
		return "too_short"
	case "maxItems", "maxLength":
		return "too_long"
	case "minimum", "exclusiveMinimum":
		return "too_small"
	case "maximum", "exclusiveMaximum":
		return "too_big"
	case "multipleOf":
		return "too_big"
	case "pattern":
		return "pattern"
	case "format":
		return "invalid_format"
	case "anyOf", "oneOf":
		return "union_mismatch"
	default:
		return "parse_error"
	}
}

// Issue is a single validation failure, reported at an instance-relative
// JSON Pointer path. Keyword and Params follow the vocabulary a JSON Schema
// validator conventionally reports (e.g. Keyword=="required",
// Params["missingProperty"]).
type Issue struct {
	InstancePath string
	Keyword      string
	Message      string
	Params       map[string]any
}

// Issues is an ordered collection of Issue.
type Issues []Issue

// ToIssue converts the engine's own Issues into the shared issue.Issues
// currency, mapping each keyword onto the closed Code enumeration via
// codeForKeyword so callers composing several subsystems' diagnostics (e.g.
// validate.Instance) can merge them into one list.
func (iss Issues) ToIssue() issue.Issues {
	if len(iss) == 0 {
		return nil
	}
	out := make(issue.Issues, len(iss))
	for i, it := range iss {
		out[i] = issue.Issue{
			Path:    it.InstancePath,
			Code:    codeForKeyword(it.Keyword),
			Message: it.Message,
			Keyword: it.Keyword,
			Params:  it.Params,
		}
	}
	return out
}

// Schema is the compiled form of a schema document.
type Schema struct {
	never bool // compiled from the boolean schema `false`.

	types []string // JSON Schema "type", normalized to a slice (possibly empty: no constraint).

	properties           map[string]*Schema
	required             []string
	additionalProperties *additionalPropertiesRule
	patternProperties    []patternProperty

	items *Schema

	minItems *int
	maxItems *int

	hasEnum bool
	enum    []jsonval.Value

	hasConst bool
	constVal jsonval.Value

	minimum          *float64
	maximum          *float64
	exclusiveMinimum *float64
	exclusiveMaximum *float64
	multipleOf       *float64

	minLength *int
	maxLength *int
	pattern   *regexp.Regexp

	format string

	allOf []*Schema
	anyOf []*Schema
	oneOf []*Schema
}

type patternProperty struct {
	re     *regexp.Regexp
	schema *Schema
}

// additionalPropertiesRule models the three legal shapes of
// "additionalProperties": absent (allowed, no constraint), false (rejected),
// or a schema (each additional value must validate against it).
type additionalPropertiesRule struct {
	allowed bool
	schema  *Schema // nil when allowed with no sub-schema constraint.
}

// CompileOptions controls $ref resolution during Compile.
type CompileOptions struct {
	// Root is the document $ref pointers are resolved against. When a
	// schema is compiled standalone (no surrounding document), pass the
	// same value as the schema being compiled.
	Root jsonval.Value
}

// Compile walks a schema document (as decoded by jsonval.Decode) and builds
// a Schema ready for repeated Validate calls.
func Compile(schema jsonval.Value, opts CompileOptions) (*Schema, error) {
	c := &compiler{root: opts.Root, seen: map[string]*Schema{}}
	return c.compile(schema)
}

type compiler struct {
	root jsonval.Value
	seen map[string]*Schema // by $ref pointer, guards against infinite recursion.
}

func (c *compiler) compile(v jsonval.Value) (*Schema, error) {
	if v.Kind() == jsonval.KindBool {
		b, _ := v.Bool()
		if b {
			return &Schema{}, nil
		}
		return &Schema{never: true}, nil
	}
	if v.Kind() != jsonval.KindObject {
		return nil, fmt.Errorf("jsonschema: schema must be an object or boolean, got %s", v.TypeName())
	}
	obj, _ := v.Object()

	if refVal, ok := obj.Get("$ref"); ok {
		if ref, isStr := refVal.Str(); isStr {
			return c.compileRef(ref)
		}
	}

	s := &Schema{}

	if tv, ok := obj.Get("type"); ok {
		s.types = typesOf(tv)
	}

	if pv, ok := obj.Get("properties"); ok && pv.Kind() == jsonval.KindObject {
		po, _ := pv.Object()
		s.properties = map[string]*Schema{}
		for _, key := range po.Keys() {
			pval, _ := po.Get(key)
			sub, err := c.compile(pval)
			if err != nil {
				return nil, fmt.Errorf("properties/%s: %w", key, err)
			}
			s.properties[key] = sub
		}
	}

	if rv, ok := obj.Get("required"); ok && rv.Kind() == jsonval.KindArray {
		items, _ := rv.Items()
		for _, item := range items {
			if str, isStr := item.Str(); isStr {
				s.required = append(s.required, str)
			}
		}
	}

	if apv, ok := obj.Get("additionalProperties"); ok {
		switch apv.Kind() {
		case jsonval.KindBool:
			b, _ := apv.Bool()
			s.additionalProperties = &additionalPropertiesRule{allowed: b}
		case jsonval.KindObject:
			sub, err := c.compile(apv)
			if err != nil {
				return nil, fmt.Errorf("additionalProperties: %w", err)
			}
			s.additionalProperties = &additionalPropertiesRule{allowed: true, schema: sub}
		}
	}

	if ppv, ok := obj.Get("patternProperties"); ok && ppv.Kind() == jsonval.KindObject {
		ppo, _ := ppv.Object()
		for _, pat := range ppo.Keys() {
			sv, _ := ppo.Get(pat)
			re, err := regexp.Compile(pat)
			if err != nil {
				return nil, fmt.Errorf("patternProperties/%s: %w", pat, err)
			}
			sub, err := c.compile(sv)
			if err != nil {
				return nil, fmt.Errorf("patternProperties/%s: %w", pat, err)
			}
			s.patternProperties = append(s.patternProperties, patternProperty{re: re, schema: sub})
		}
	}

	if iv, ok := obj.Get("items"); ok {
		sub, err := c.compile(iv)
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		s.items = sub
	}

	s.minItems = intPtr(obj, "minItems")
	s.maxItems = intPtr(obj, "maxItems")
	s.minLength = intPtr(obj, "minLength")
	s.maxLength = intPtr(obj, "maxLength")

	s.minimum = floatPtr(obj, "minimum")
	s.maximum = floatPtr(obj, "maximum")
	s.exclusiveMinimum = floatPtr(obj, "exclusiveMinimum")
	s.exclusiveMaximum = floatPtr(obj, "exclusiveMaximum")
	s.multipleOf = floatPtr(obj, "multipleOf")

	if pv, ok := obj.Get("pattern"); ok {
		if str, isStr := pv.Str(); isStr {
			re, err := regexp.Compile(str)
			if err != nil {
				return nil, fmt.Errorf("pattern: %w", err)
			}
			s.pattern = re
		}
	}

	if fv, ok := obj.Get("format"); ok {
		if str, isStr := fv.Str(); isStr {
			s.format = str
		}
	}

	if ev, ok := obj.Get("enum"); ok && ev.Kind() == jsonval.KindArray {
		s.hasEnum = true
		s.enum, _ = ev.Items()
	}

	if cv, ok := obj.Get("const"); ok {
		s.hasConst = true
		s.constVal = cv
	}

	var err error
	if s.allOf, err = c.compileList(obj, "allOf"); err != nil {
		return nil, err
	}
	if s.anyOf, err = c.compileList(obj, "anyOf"); err != nil {
		return nil, err
	}
	if s.oneOf, err = c.compileList(obj, "oneOf"); err != nil {
		return nil, err
	}

	return s, nil
}

func (c *compiler) compileList(obj *jsonval.Object, key string) ([]*Schema, error) {
	v, ok := obj.Get(key)
	if !ok || v.Kind() != jsonval.KindArray {
		return nil, nil
	}
	items, _ := v.Items()
	var out []*Schema
	for i, item := range items {
		sub, err := c.compile(item)
		if err != nil {
			return nil, fmt.Errorf("%s/%d: %w", key, i, err)
		}
		out = append(out, sub)
	}
	return out, nil
}

// compileRef resolves a local JSON Pointer $ref (e.g. "#/$defs/address")
// against the compiler's root document. Non-local refs are out of scope:
// normalization is expected to have already inlined or stripped anything
// the engine cannot resolve on its own.
func (c *compiler) compileRef(ref string) (*Schema, error) {
	if cached, ok := c.seen[ref]; ok {
		return cached, nil
	}
	if !strings.HasPrefix(ref, "#/") && ref != "#" {
		return nil, fmt.Errorf("jsonschema: unsupported $ref %q (only local pointers are resolved)", ref)
	}
	target := c.root
	if ref != "#" {
		for _, tok := range strings.Split(ref[2:], "/") {
			tok = unescapePointerToken(tok)
			if target.Kind() != jsonval.KindObject {
				return nil, fmt.Errorf("jsonschema: cannot resolve $ref %q: not an object at %q", ref, tok)
			}
			obj, _ := target.Object()
			next, ok := obj.Get(tok)
			if !ok {
				return nil, fmt.Errorf("jsonschema: $ref %q: no such member %q", ref, tok)
			}
			target = next
		}
	}
	placeholder := &Schema{}
	c.seen[ref] = placeholder
	resolved, err := c.compile(target)
	if err != nil {
		return nil, err
	}
	*placeholder = *resolved
	return placeholder, nil
}

func unescapePointerToken(tok string) string {
	tok = strings.ReplaceAll(tok, "~1", "/")
	tok = strings.ReplaceAll(tok, "~0", "~")
	return tok
}

func typesOf(v jsonval.Value) []string {
	switch v.Kind() {
	case jsonval.KindString:
		str, _ := v.Str()
		return []string{str}
	case jsonval.KindArray:
		items, _ := v.Items()
		var out []string
		for _, item := range items {
			if str, isStr := item.Str(); isStr {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

func intPtr(obj *jsonval.Object, key string) *int {
	v, ok := obj.Get(key)
	if !ok {
		return nil
	}
	f, isNum := v.Float64()
	if !isNum {
		return nil
	}
	n := int(f)
	return &n
}

func floatPtr(obj *jsonval.Object, key string) *float64 {
	v, ok := obj.Get(key)
	if !ok {
		return nil
	}
	f, isNum := v.Float64()
	if !isNum {
		return nil
	}
	return &f
}

// Validate checks instance against the compiled schema, returning every
// Issue found (it does not stop at the first failure), except that a type
// mismatch at a node is reported alone and that node's other keywords are
// not checked.
func (s *Schema) Validate(instance jsonval.Value) Issues {
	return s.validateAt(instance, jptr.Root())
}

func (s *Schema) validateAt(v jsonval.Value, path jptr.Ref) Issues {
	var iss Issues

	if s.never {
		return Issues{{InstancePath: path.String(), Keyword: "false", Message: i18n.T(codeForKeyword("false"), nil)}}
	}

	if len(s.types) > 0 && !typeMatches(s.types, v) {
		return Issues{{
			InstancePath: path.String(),
			Keyword:      "type",
			Message:      i18n.T(codeForKeyword("type"), map[string]string{"expected": strings.Join(s.types, "|"), "actual": v.TypeName()}),
			Params:       map[string]any{"expected": s.types, "actual": v.TypeName()},
		}}
	}

	if s.hasConst {
		if !jsonval.Equal(s.constVal, v) {
			iss = append(iss, Issue{InstancePath: path.String(), Keyword: "const", Message: i18n.T(codeForKeyword("const"), nil)})
		}
	}

	if s.hasEnum {
		ok := false
		for _, e := range s.enum {
			if jsonval.Equal(e, v) {
				ok = true
				break
			}
		}
		if !ok {
			iss = append(iss, Issue{InstancePath: path.String(), Keyword: "enum", Message: i18n.T(codeForKeyword("enum"), nil)})
		}
	}

	switch v.Kind() {
	case jsonval.KindObject:
		obj, _ := v.Object()
		iss = append(iss, s.validateObject(obj, path)...)
	case jsonval.KindArray:
		items, _ := v.Items()
		iss = append(iss, s.validateArray(items, path)...)
	case jsonval.KindString:
		str, _ := v.Str()
		iss = append(iss, s.validateString(str, path)...)
	case jsonval.KindNumber:
		iss = append(iss, s.validateNumber(v, path)...)
	}

	iss = append(iss, s.validateCombinators(v, path)...)

	return iss
}

func (s *Schema) validateObject(obj *jsonval.Object, path jptr.Ref) Issues {
	var iss Issues
	for _, req := range s.required {
		if !obj.Has(req) {
			iss = append(iss, Issue{
				InstancePath: path.String(),
				Keyword:      "required",
				Message:      i18n.T(codeForKeyword("required"), map[string]string{"missingProperty": req}),
				Params:       map[string]any{"missingProperty": req},
			})
		}
	}

	for _, key := range obj.Keys() {
		val, _ := obj.Get(key)
		childPath := path.Field(key)

		if sub, ok := s.properties[key]; ok {
			iss = append(iss, sub.validateAt(val, childPath)...)
			continue
		}

		matchedPattern := false
		for _, pp := range s.patternProperties {
			if pp.re.MatchString(key) {
				matchedPattern = true
				iss = append(iss, pp.schema.validateAt(val, childPath)...)
			}
		}
		if matchedPattern {
			continue
		}

		if s.additionalProperties != nil {
			if !s.additionalProperties.allowed {
				iss = append(iss, Issue{
					InstancePath: path.String(),
					Keyword:      "additionalProperties",
					Message:      i18n.T(codeForKeyword("additionalProperties"), map[string]string{"additionalProperty": key}),
					Params:       map[string]any{"additionalProperty": key},
				})
				continue
			}
			if s.additionalProperties.schema != nil {
				iss = append(iss, s.additionalProperties.schema.validateAt(val, childPath)...)
			}
		}
	}
	return iss
}

func (s *Schema) validateArray(items []jsonval.Value, path jptr.Ref) Issues {
	var iss Issues
	if s.minItems != nil && len(items) < *s.minItems {
		iss = append(iss, Issue{InstancePath: path.String(), Keyword: "minItems", Message: i18n.T(codeForKeyword("minItems"), nil)})
	}
	if s.maxItems != nil && len(items) > *s.maxItems {
		iss = append(iss, Issue{InstancePath: path.String(), Keyword: "maxItems", Message: i18n.T(codeForKeyword("maxItems"), nil)})
	}
	if s.items != nil {
		for i, item := range items {
			iss = append(iss, s.items.validateAt(item, path.Index(i))...)
		}
	}
	return iss
}

func (s *Schema) validateString(str string, path jptr.Ref) Issues {
	var iss Issues
	n := len([]rune(str))
	if s.minLength != nil && n < *s.minLength {
		iss = append(iss, Issue{InstancePath: path.String(), Keyword: "minLength", Message: i18n.T(codeForKeyword("minLength"), nil)})
	}
	if s.maxLength != nil && n > *s.maxLength {
		iss = append(iss, Issue{InstancePath: path.String(), Keyword: "maxLength", Message: i18n.T(codeForKeyword("maxLength"), nil)})
	}
	if s.pattern != nil && !s.pattern.MatchString(str) {
		iss = append(iss, Issue{InstancePath: path.String(), Keyword: "pattern", Message: i18n.T(codeForKeyword("pattern"), nil)})
	}
	if s.format == "date-time" {
		if _, err := time.Parse(time.RFC3339, str); err != nil {
			iss = append(iss, Issue{InstancePath: path.String(), Keyword: "format", Message: i18n.T(codeForKeyword("format"), nil)})
		}
	}
	return iss
}

func (s *Schema) validateNumber(v jsonval.Value, path jptr.Ref) Issues {
	var iss Issues
	f, isNum := v.Float64()
	if !isNum {
		return Issues{{InstancePath: path.String(), Keyword: "type", Message: i18n.T(codeForKeyword("type"), nil)}}
	}
	if s.minimum != nil && f < *s.minimum {
		iss = append(iss, Issue{InstancePath: path.String(), Keyword: "minimum", Message: i18n.T(codeForKeyword("minimum"), nil)})
	}
	if s.maximum != nil && f > *s.maximum {
		iss = append(iss, Issue{InstancePath: path.String(), Keyword: "maximum", Message: i18n.T(codeForKeyword("maximum"), nil)})
	}
	if s.exclusiveMinimum != nil && f <= *s.exclusiveMinimum {
		iss = append(iss, Issue{InstancePath: path.String(), Keyword: "exclusiveMinimum", Message: i18n.T(codeForKeyword("exclusiveMinimum"), nil)})
	}
	if s.exclusiveMaximum != nil && f >= *s.exclusiveMaximum {
		iss = append(iss, Issue{InstancePath: path.String(), Keyword: "exclusiveMaximum", Message: i18n.T(codeForKeyword("exclusiveMaximum"), nil)})
	}
	if s.multipleOf != nil && *s.multipleOf != 0 {
		ratio := f / *s.multipleOf
		if ratio != float64(int64(ratio)) {
			iss = append(iss, Issue{InstancePath: path.String(), Keyword: "multipleOf", Message: i18n.T(codeForKeyword("multipleOf"), nil)})
		}
	}
	return iss
}

func (s *Schema) validateCombinators(v jsonval.Value, path jptr.Ref) Issues {
	var iss Issues
	for _, sub := range s.allOf {
		iss = append(iss, sub.validateAt(v, path)...)
	}
	if len(s.anyOf) > 0 {
		ok := false
		for _, sub := range s.anyOf {
			if len(sub.validateAt(v, path)) == 0 {
				ok = true
				break
			}
		}
		if !ok {
			iss = append(iss, Issue{InstancePath: path.String(), Keyword: "anyOf", Message: i18n.T(codeForKeyword("anyOf"), nil)})
		}
	}
	if len(s.oneOf) > 0 {
		matches := 0
		for _, sub := range s.oneOf {
			if len(sub.validateAt(v, path)) == 0 {
				matches++
			}
		}
		if matches != 1 {
			iss = append(iss, Issue{
				InstancePath: path.String(),
				Keyword:      "oneOf",
				Message:      i18n.T(codeForKeyword("oneOf"), map[string]string{"matchCount": fmt.Sprintf("%d", matches)}),
				Params:       map[string]any{"matchCount": matches},
			})
		}
	}
	return iss
}

func typeMatches(types []string, v jsonval.Value) bool {
	for _, t := range types {
		switch t {
		case "object":
			if v.Kind() == jsonval.KindObject {
				return true
			}
		case "array":
			if v.Kind() == jsonval.KindArray {
				return true
			}
		case "string":
			if v.Kind() == jsonval.KindString {
				return true
			}
		case "boolean":
			if v.Kind() == jsonval.KindBool {
				return true
			}
		case "null":
			if v.Kind() == jsonval.KindNull {
				return true
			}
		case "number":
			if v.Kind() == jsonval.KindNumber {
				return true
			}
		case "integer":
			if v.Kind() == jsonval.KindNumber {
				if f, isNum := v.Float64(); isNum && f == float64(int64(f)) {
					return true
				}
			}
		}
	}
	return false
}
