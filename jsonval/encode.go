package jsonval

import (
	"bytes"
	"fmt"

	gojson "github.com/goccy/go-json"
)

// Marshal serializes v to compact JSON text, preserving object key order.
// Scalar leaves (strings) are escaped via goccy/go-json, the same fast JSON
// encoder the teacher package uses in its gojson source driver; only the
// structural walk (which must respect Object's insertion order, something no
// map[string]any-based encoder can do) is hand-written.
func Marshal(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		if v.num == "" {
			buf.WriteString("0")
		} else {
			buf.WriteString(v.num)
		}
	case KindString:
		enc, err := gojson.Marshal(v.str)
		if err != nil {
			return err
		}
		buf.Write(enc)
	case KindArray:
		buf.WriteByte('[')
		for i, e := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeValue(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		first := true
		v.obj.Range(func(k string, ev Value) bool {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			keyEnc, err := gojson.Marshal(k)
			if err != nil {
				// Range has no error channel; keys are always valid UTF-8
				// strings produced by our own decoder or callers, so this
				// path is unreachable in practice.
				buf.WriteString(`""`)
				return true
			}
			buf.Write(keyEnc)
			buf.WriteByte(':')
			_ = writeValue(buf, ev)
			return true
		})
		buf.WriteByte('}')
	default:
		return fmt.Errorf("jsonval: cannot marshal kind %v", v.kind)
	}
	return nil
}
