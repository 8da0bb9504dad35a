package jsonval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// DuplicateKeyPolicy controls what Decode does when an object literal repeats
// a key. It follows the teacher's engine.DuplicateStrictness split between
// ignoring and rejecting duplicate keys while decoding; there is no warning
// mode.
type DuplicateKeyPolicy int

const (
	// DuplicateKeepLast silently keeps the last occurrence's value (Go's own
	// encoding/json behavior for map[string]any).
	DuplicateKeepLast DuplicateKeyPolicy = iota
	// DuplicateReject fails decoding as soon as a repeated key is seen.
	DuplicateReject
)

// DecodeOptions configures Decode.
type DecodeOptions struct {
	OnDuplicateKey DuplicateKeyPolicy
}

// Decode parses JSON text into an order-preserving Value tree using
// encoding/json's token stream, so that object key order in the source text
// survives into the Value and any subsequent re-encoding.
//
// This intentionally does not use encoding/json.Unmarshal into map[string]any,
// which would discard key order.
func Decode(data []byte, opt DecodeOptions) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec, opt)
	if err != nil {
		return Value{}, err
	}
	// Reject trailing garbage the way encoding/json.Unmarshal does.
	if _, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("jsonval: trailing data after top-level value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder, opt DecodeOptions) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return decodeFromToken(tok, dec, opt)
}

func decodeFromToken(tok json.Token, dec *json.Decoder, opt DecodeOptions) (Value, error) {
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec, opt)
		case '[':
			return decodeArray(dec, opt)
		default:
			return Value{}, fmt.Errorf("jsonval: unexpected delimiter %q", t)
		}
	case string:
		return String(t), nil
	case json.Number:
		return Number(t.String()), nil
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	default:
		return Value{}, fmt.Errorf("jsonval: unexpected token %T", tok)
	}
}

func decodeObject(dec *json.Decoder, opt DecodeOptions) (Value, error) {
	obj := NewObject()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return Value{}, fmt.Errorf("jsonval: expected object key, got %T", keyTok)
		}
		val, err := decodeValue(dec, opt)
		if err != nil {
			return Value{}, err
		}
		if obj.Has(key) && opt.OnDuplicateKey == DuplicateReject {
			return Value{}, fmt.Errorf("jsonval: duplicate key %q", key)
		}
		obj.Set(key, val)
	}
	if _, err := dec.Token(); err != nil { // consume '}'
		return Value{}, err
	}
	return FromObject(obj), nil
}

func decodeArray(dec *json.Decoder, opt DecodeOptions) (Value, error) {
	var items []Value
	for dec.More() {
		val, err := decodeValue(dec, opt)
		if err != nil {
			return Value{}, err
		}
		items = append(items, val)
	}
	if _, err := dec.Token(); err != nil { // consume ']'
		return Value{}, err
	}
	return Array(items), nil
}
