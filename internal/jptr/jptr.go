// Package jptr builds RFC 6901 JSON Pointers incrementally, the way the
// teacher's root-package ref_pathref.go builds PathRef chains for issue
// reporting. It backs every "instancePath" produced by the JSON-Schema
// engine and the x-gts-ref validator.
package jptr

import (
	"strconv"
	"strings"
)

// Ref is an immutable JSON Pointer path builder. The zero value is the root
// pointer ("").
type Ref struct {
	parts []string
}

// Root returns the empty (document root) pointer.
func Root() Ref { return Ref{} }

// Field appends an object member name, escaping '~' and '/' per RFC 6901.
func (r Ref) Field(name string) Ref {
	esc := strings.ReplaceAll(strings.ReplaceAll(name, "~", "~0"), "/", "~1")
	return Ref{parts: append(append([]string{}, r.parts...), esc)}
}

// Index appends an array index.
func (r Ref) Index(i int) Ref {
	return Ref{parts: append(append([]string{}, r.parts...), strconv.Itoa(i))}
}

// String renders the pointer text, e.g. "" for root, "/a/0/b" otherwise.
func (r Ref) String() string {
	if len(r.parts) == 0 {
		return ""
	}
	return "/" + strings.Join(r.parts, "/")
}
