// Package jsonval implements the single variant JSON value type used across
// the GTS core: null | bool | number | string | array | object, with object
// keys unique and insertion-order preserved so that re-serialized documents
// are stable.
package jsonval

import "sort"

// Kind enumerates the possible shapes of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is an immutable-by-convention JSON value. Object and Array values
// carry a pointer/slice, so callers that need isolation should Clone.
type Value struct {
	kind Kind
	b    bool
	num  string // canonical decimal text, e.g. "30", "1.5", "-2e10"
	str  string
	arr  []Value
	obj  *Object
}

// Null returns the JSON null value.
func Null() Value { return Value{kind: KindNull} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a canonical numeric literal, as it would appear in JSON text.
func Number(text string) Value { return Value{kind: KindNumber, num: text} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Array wraps a slice of values, taking ownership of the given slice.
func Array(items []Value) Value { return Value{kind: KindArray, arr: items} }

// FromObject wraps an *Object as an object-kind Value.
func FromObject(o *Object) Value {
	if o == nil {
		o = NewObject()
	}
	return Value{kind: KindObject, obj: o}
}

// Kind reports the dynamic shape of v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is JSON null (or the zero Value).
func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean payload and whether v is a boolean.
func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// NumberText returns the raw numeric literal and whether v is a number.
func (v Value) NumberText() (string, bool) {
	if v.kind != KindNumber {
		return "", false
	}
	return v.num, true
}

// Str returns the string payload and whether v is a string.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// Items returns the array payload and whether v is an array.
func (v Value) Items() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

// Object returns the object payload and whether v is an object.
func (v Value) Object() (*Object, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.obj, true
}

// TypeName returns the JSON-Schema type name for v ("null","boolean",
// "number","string","array","object").
func (v Value) TypeName() string { return v.kind.String() }

// Object is an ordered string-keyed map: lookups are O(1), enumeration
// follows first-insertion order.
type Object struct {
	keys []string
	vals map[string]Value
}

// NewObject returns an empty, ready-to-use Object.
func NewObject() *Object {
	return &Object{vals: make(map[string]Value)}
}

// Get returns the value stored under key.
func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	v, ok := o.vals[key]
	return v, ok
}

// Has reports whether key is present.
func (o *Object) Has(key string) bool {
	if o == nil {
		return false
	}
	_, ok := o.vals[key]
	return ok
}

// Set inserts or overwrites key. New keys are appended to the end of the
// insertion order; existing keys keep their original position.
func (o *Object) Set(key string, v Value) {
	if _, exists := o.vals[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// Delete removes key, if present, preserving the order of remaining keys.
func (o *Object) Delete(key string) {
	if _, exists := o.vals[key]; !exists {
		return
	}
	delete(o.vals, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// Keys returns a copy of the insertion-ordered key list.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// SortedKeys returns the keys in lexical order, for callers that need
// deterministic-but-not-insertion-order enumeration (set-like comparisons).
func (o *Object) SortedKeys() []string {
	out := o.Keys()
	sort.Strings(out)
	return out
}

// Len returns the number of keys.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Range calls fn for each key in insertion order, stopping early if fn
// returns false.
func (o *Object) Range(fn func(key string, v Value) bool) {
	if o == nil {
		return
	}
	for _, k := range o.keys {
		if !fn(k, o.vals[k]) {
			return
		}
	}
}

// Clone deep-copies v.
func Clone(v Value) Value {
	switch v.kind {
	case KindArray:
		out := make([]Value, len(v.arr))
		for i, e := range v.arr {
			out[i] = Clone(e)
		}
		return Array(out)
	case KindObject:
		return FromObject(CloneObject(v.obj))
	default:
		return v
	}
}

// CloneObject deep-copies an *Object.
func CloneObject(o *Object) *Object {
	if o == nil {
		return NewObject()
	}
	out := NewObject()
	for _, k := range o.keys {
		out.Set(k, Clone(o.vals[k]))
	}
	return out
}

// Equal reports deep structural equality. Number equality compares the
// canonical text, matching JSON-Schema const/enum's "same literal" semantics
// rather than numeric equivalence.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.num == b.num
	case KindString:
		return a.str == b.str
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if a.obj.Len() != b.obj.Len() {
			return false
		}
		match := true
		a.obj.Range(func(k string, av Value) bool {
			bv, ok := b.obj.Get(k)
			if !ok || !Equal(av, bv) {
				match = false
				return false
			}
			return true
		})
		return match
	default:
		return false
	}
}
