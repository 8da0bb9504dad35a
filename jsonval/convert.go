package jsonval

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// FromAny converts a native Go value (as produced by encoding/json.Unmarshal
// into interface{}, or built by hand with map[string]any/[]any literals) into
// a Value. Because Go's map[string]any has no memory of source key order,
// object keys are emitted in lexical order; callers that need to preserve
// authored order must go through Decode instead.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(t)
	case string:
		return String(t)
	case json.Number:
		return Number(t.String())
	case float64:
		return Number(strconv.FormatFloat(t, 'g', -1, 64))
	case int:
		return Number(strconv.Itoa(t))
	case int64:
		return Number(strconv.FormatInt(t, 10))
	case []any:
		items := make([]Value, len(t))
		for i, e := range t {
			items[i] = FromAny(e)
		}
		return Array(items)
	case []Value:
		return Array(t)
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, k := range keys {
			obj.Set(k, FromAny(t[k]))
		}
		return FromObject(obj)
	case *Object:
		return FromObject(t)
	case Value:
		return t
	default:
		// Best-effort: round-trip through JSON so struct-tagged Go values work.
		enc, err := json.Marshal(t)
		if err != nil {
			return Null()
		}
		val, err := Decode(enc, DecodeOptions{})
		if err != nil {
			return Null()
		}
		return val
	}
}

// ToAny converts a Value into the native map[string]any/[]any/... shape
// consumed by callers that don't care about key order (for example, handing
// a cast result to an HTTP JSON encoder).
func ToAny(v Value) any {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		return json.Number(v.num)
	case KindString:
		return v.str
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = ToAny(e)
		}
		return out
	case KindObject:
		out := make(map[string]any, v.obj.Len())
		v.obj.Range(func(k string, ev Value) bool {
			out[k] = ToAny(ev)
			return true
		})
		return out
	default:
		return nil
	}
}

// Float64 returns the numeric payload as a float64.
func (v Value) Float64() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.num, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// String implements fmt.Stringer for debugging; it is not the JSON
// serialization (use Marshal for that).
func (v Value) String() string {
	b, err := Marshal(v)
	if err != nil {
		return fmt.Sprintf("<jsonval error: %v>", err)
	}
	return string(b)
}
