// Package xref enforces the x-gts-ref keyword: a string-valued schema node
// annotated with x-gts-ref constrains the instance at that node to a GTS
// identifier matching a resolved pattern, optionally present in a registry.
package xref

import (
	"fmt"
	"strings"

	"github.com/globaltype/gts/idcodec"
	"github.com/globaltype/gts/internal/i18n"
	"github.com/globaltype/gts/internal/jptr"
	"github.com/globaltype/gts/issue"
	"github.com/globaltype/gts/jsonval"
)

const xGtsRefKey = "x-gts-ref"

// Resolver reports whether an identifier is present in a registry. A nil
// Resolver disables the registry-membership check (schema-only validation,
// or validation against a registry the caller chooses not to consult).
type Resolver interface {
	Has(id string) bool
}

// Issue mirrors the shape the instance validator expects: an
// instance-relative path plus a message.
type Issue struct {
	InstancePath string
	Code         string
	Message      string
}

// Issues is an ordered collection of Issue.
type Issues []Issue

// ToIssue converts the validator's own Issues into the shared issue.Issues
// currency so callers composing several subsystems' diagnostics (e.g.
// validate.Instance) can merge them into one list.
func (iss Issues) ToIssue() issue.Issues {
	if len(iss) == 0 {
		return nil
	}
	out := make(issue.Issues, len(iss))
	for i, it := range iss {
		out[i] = issue.Issue{Path: it.InstancePath, Code: it.Code, Message: it.Message}
	}
	return out
}

// Validate walks schema (the xref-facing copy, with x-gts-ref intact) in
// lockstep with instance and reports every x-gts-ref violation found.
func Validate(schema, instance, root jsonval.Value, resolver Resolver) Issues {
	return validateNode(schema, instance, root, resolver, jptr.Root())
}

func validateNode(schema, instance, root jsonval.Value, resolver Resolver, path jptr.Ref) Issues {
	if schema.Kind() != jsonval.KindObject {
		return nil
	}
	obj, _ := schema.Object()

	var iss Issues

	if refVal, ok := obj.Get(xGtsRefKey); ok {
		if patternText, isStr := refVal.Str(); isStr {
			if str, isStr := instance.Str(); isStr {
				pattern, err := resolvePattern(patternText, root)
				if err != nil {
					iss = append(iss, Issue{InstancePath: path.String(), Code: issue.CodeXRefPatternMalformed, Message: fmt.Sprintf("%s: %v", i18n.T("xref_pattern_malformed", nil), err)})
				} else if err := checkValue(str, pattern, resolver); err != nil {
					code := codeForXRefError(err)
					iss = append(iss, Issue{InstancePath: path.String(), Code: code, Message: fmt.Sprintf("%s: %v", i18n.T(code, nil), err)})
				}
			}
		}
	}

	if pv, ok := obj.Get("properties"); ok && pv.Kind() == jsonval.KindObject && instance.Kind() == jsonval.KindObject {
		po, _ := pv.Object()
		io, _ := instance.Object()
		for _, key := range po.Keys() {
			if !io.Has(key) {
				continue
			}
			subSchema, _ := po.Get(key)
			subInstance, _ := io.Get(key)
			iss = append(iss, validateNode(subSchema, subInstance, root, resolver, path.Field(key))...)
		}
	}

	if iv, ok := obj.Get("items"); ok && instance.Kind() == jsonval.KindArray {
		items, _ := instance.Items()
		for i, item := range items {
			iss = append(iss, validateNode(iv, item, root, resolver, path.Index(i))...)
		}
	}

	iss = append(iss, validateCombinator(obj, "allOf", schema, instance, root, resolver, path)...)
	iss = append(iss, validateAnyOf(obj, instance, root, resolver, path)...)
	iss = append(iss, validateOneOf(obj, instance, root, resolver, path)...)

	return iss
}

func validateCombinator(obj *jsonval.Object, key string, schema, instance, root jsonval.Value, resolver Resolver, path jptr.Ref) Issues {
	if key != "allOf" {
		return nil
	}
	v, ok := obj.Get(key)
	if !ok || v.Kind() != jsonval.KindArray {
		return nil
	}
	items, _ := v.Items()
	var iss Issues
	for _, branch := range items {
		iss = append(iss, validateNode(branch, instance, root, resolver, path)...)
	}
	return iss
}

func validateAnyOf(obj *jsonval.Object, instance, root jsonval.Value, resolver Resolver, path jptr.Ref) Issues {
	v, ok := obj.Get("anyOf")
	if !ok || v.Kind() != jsonval.KindArray {
		return nil
	}
	branches, _ := v.Items()
	if !allRefBearing(branches) {
		return nil
	}
	var union Issues
	for _, branch := range branches {
		branchIss := validateNode(branch, instance, root, resolver, path)
		if len(branchIss) == 0 {
			return nil
		}
		union = append(union, branchIss...)
	}
	return Issues{{InstancePath: path.String(), Code: issue.CodeUnionMismatch, Message: fmt.Sprintf("anyOf: %s; %s", i18n.T("union_mismatch", nil), union.summarize())}}
}

func validateOneOf(obj *jsonval.Object, instance, root jsonval.Value, resolver Resolver, path jptr.Ref) Issues {
	v, ok := obj.Get("oneOf")
	if !ok || v.Kind() != jsonval.KindArray {
		return nil
	}
	branches, _ := v.Items()
	if !allRefBearing(branches) {
		return nil
	}
	matches := 0
	var union Issues
	for _, branch := range branches {
		branchIss := validateNode(branch, instance, root, resolver, path)
		if len(branchIss) == 0 {
			matches++
		} else {
			union = append(union, branchIss...)
		}
	}
	switch {
	case matches == 0:
		return Issues{{InstancePath: path.String(), Code: issue.CodeUnionMismatch, Message: fmt.Sprintf("oneOf: %s; %s", i18n.T("union_mismatch", nil), union.summarize())}}
	case matches > 1:
		return Issues{{InstancePath: path.String(), Code: issue.CodeUnionMismatch, Message: fmt.Sprintf("oneOf: %s (%d branches matched, expected 1)", i18n.T("union_mismatch", nil), matches)}}
	default:
		return nil
	}
}

func (iss Issues) summarize() string {
	parts := make([]string, len(iss))
	for i, it := range iss {
		parts[i] = it.Message
	}
	return strings.Join(parts, "; ")
}

func allRefBearing(branches []jsonval.Value) bool {
	if len(branches) == 0 {
		return false
	}
	for _, b := range branches {
		if b.Kind() != jsonval.KindObject {
			return false
		}
		obj, _ := b.Object()
		if !obj.Has(xGtsRefKey) {
			return false
		}
	}
	return true
}

// codeForXRefError picks the i18n dictionary code that best describes a
// checkValue failure: a value that never resolves to a valid identifier or
// never matches the pattern is a violation, while a well-formed identifier
// simply absent from the registry is an unresolved reference.
func codeForXRefError(err error) string {
	if strings.Contains(err.Error(), "not present in the registry") {
		return "unresolved_reference"
	}
	return "xref_violation"
}

// checkValue implements the value-check rule from spec §4.4.
func checkValue(value, pattern string, resolver Resolver) error {
	if !idcodec.IsValid(value) {
		return fmt.Errorf("value %q is not a valid gts identifier", value)
	}
	switch {
	case pattern == "gts.*":
		// any valid identifier matches.
	case strings.HasSuffix(pattern, "*"):
		prefix := pattern[:len(pattern)-1]
		if !strings.HasPrefix(value, prefix) {
			return fmt.Errorf("value %q does not match pattern %q", value, pattern)
		}
	default:
		if !strings.HasPrefix(value, pattern) {
			return fmt.Errorf("value %q does not match pattern %q", value, pattern)
		}
	}
	if resolver != nil && !resolver.Has(value) {
		return fmt.Errorf("referenced identifier %q is not present in the registry", value)
	}
	return nil
}

// resolvePattern implements the pattern resolution rule from spec §4.4: a
// relative pointer is resolved against root, following at most one further
// indirection through another pointer string or an object's own
// x-gts-ref/$id.
func resolvePattern(pattern string, root jsonval.Value) (string, error) {
	if !strings.HasPrefix(pattern, "/") {
		return pattern, nil
	}
	resolved, err := resolvePointer(root, pattern)
	if err != nil {
		return "", err
	}
	return resolveIndirection(resolved, root, pattern, false)
}

// resolveIndirection interprets the value a pointer resolved to. spentIndirection
// is true once one indirection has already been spent, capping resolution
// at the "at most one further indirection" the spec allows.
func resolveIndirection(resolved jsonval.Value, root jsonval.Value, originalPointer string, spentIndirection bool) (string, error) {
	switch resolved.Kind() {
	case jsonval.KindString:
		str, _ := resolved.Str()
		if strings.HasPrefix(str, "/") {
			if spentIndirection {
				return "", fmt.Errorf("x-gts-ref pointer %q requires more than one indirection", originalPointer)
			}
			next, err := resolvePointer(root, str)
			if err != nil {
				return "", err
			}
			return resolveIndirection(next, root, originalPointer, true)
		}
		return strings.TrimPrefix(str, "gts://"), nil
	case jsonval.KindObject:
		obj, _ := resolved.Object()
		if idVal, ok := obj.Get("$id"); ok {
			if str, isStr := idVal.Str(); isStr {
				return strings.TrimPrefix(str, "gts://"), nil
			}
		}
		if refVal, ok := obj.Get(xGtsRefKey); ok {
			if str, isStr := refVal.Str(); isStr {
				return str, nil
			}
		}
		return "", fmt.Errorf("x-gts-ref pointer %q resolves to an object with neither $id nor x-gts-ref", originalPointer)
	default:
		return "", fmt.Errorf("x-gts-ref pointer %q resolves to an unusable %s value", originalPointer, resolved.TypeName())
	}
}

func resolvePointer(root jsonval.Value, pointer string) (jsonval.Value, error) {
	if pointer == "" || pointer == "/" {
		return root, nil
	}
	target := root
	for _, tok := range strings.Split(strings.TrimPrefix(pointer, "/"), "/") {
		tok = unescapeToken(tok)
		if target.Kind() != jsonval.KindObject {
			return jsonval.Value{}, fmt.Errorf("cannot resolve pointer %q: not an object at %q", pointer, tok)
		}
		obj, _ := target.Object()
		next, ok := obj.Get(tok)
		if !ok {
			return jsonval.Value{}, fmt.Errorf("cannot resolve pointer %q: no such member %q", pointer, tok)
		}
		target = next
	}
	return target, nil
}

func unescapeToken(tok string) string {
	tok = strings.ReplaceAll(tok, "~1", "/")
	tok = strings.ReplaceAll(tok, "~0", "~")
	return tok
}

// ValidateSchema walks every schema subtree checking that each x-gts-ref
// pattern is itself well-formed: either a syntactically valid identifier or
// pattern, or a pointer that resolves against root.
func ValidateSchema(schema, root jsonval.Value) Issues {
	return validateSchemaNode(schema, root, jptr.Root())
}

func validateSchemaNode(schema, root jsonval.Value, path jptr.Ref) Issues {
	if schema.Kind() != jsonval.KindObject {
		return nil
	}
	obj, _ := schema.Object()
	var iss Issues

	if refVal, ok := obj.Get(xGtsRefKey); ok {
		if patternText, isStr := refVal.Str(); isStr {
			if err := checkPatternWellFormed(patternText, root); err != nil {
				iss = append(iss, Issue{InstancePath: path.String(), Code: issue.CodeXRefPatternMalformed, Message: fmt.Sprintf("%s: %v", i18n.T("xref_pattern_malformed", nil), err)})
			}
		} else {
			iss = append(iss, Issue{InstancePath: path.String(), Code: issue.CodeXRefPatternMalformed, Message: i18n.T("xref_pattern_malformed", nil) + ": value must be a string"})
		}
	}

	for _, key := range obj.Keys() {
		val, _ := obj.Get(key)
		switch {
		case key == "properties" && val.Kind() == jsonval.KindObject:
			po, _ := val.Object()
			for _, pkey := range po.Keys() {
				pv, _ := po.Get(pkey)
				iss = append(iss, validateSchemaNode(pv, root, path.Field(pkey))...)
			}
		case key == "items":
			iss = append(iss, validateSchemaNode(val, root, path.Field("items"))...)
		case (key == "allOf" || key == "anyOf" || key == "oneOf") && val.Kind() == jsonval.KindArray:
			items, _ := val.Items()
			for i, item := range items {
				iss = append(iss, validateSchemaNode(item, root, path.Field(key).Index(i))...)
			}
		}
	}

	return iss
}

func checkPatternWellFormed(pattern string, root jsonval.Value) error {
	if strings.HasPrefix(pattern, "/") {
		resolved, err := resolvePointer(root, pattern)
		if err != nil {
			return err
		}
		_, err = resolveIndirection(resolved, root, pattern, false)
		return err
	}
	if pattern == "gts.*" {
		return nil
	}
	if !idcodec.IsValid(pattern) {
		return fmt.Errorf("%q is not a valid gts identifier or pattern", pattern)
	}
	return nil
}
