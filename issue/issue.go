// Package issue holds the single closed error currency every subsystem
// reports through: Issue/Issues and the Code enumeration. It is its own
// package (rather than living in the root gts package, where the teacher
// keeps the equivalent type) so that validate, cast, compat, xref, and the
// dynamic JSON-Schema engine can all build Issues of their own without a
// dependency back on the root package that composes them.
package issue

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes. The structural codes mirror what the dynamic JSON-Schema
// engine reports for a failed keyword; the remaining codes (invalid_identifier
// onward) are specific to the identifier, reference, and cast semantics
// layered on top of it.
const (
	CodeInvalidType   = "invalid_type"
	CodeRequired      = "required"
	CodeUnknownKey    = "unknown_key"
	CodeDuplicateKey  = "duplicate_key"
	CodeTooSmall      = "too_small"
	CodeTooBig        = "too_big"
	CodeTooShort      = "too_short"
	CodeTooLong       = "too_long"
	CodePattern       = "pattern"
	CodeInvalidEnum   = "invalid_enum"
	CodeInvalidConst  = "invalid_const"
	CodeInvalidFormat = "invalid_format"
	CodeUnionMismatch = "union_mismatch"
	CodeParseError    = "parse_error"

	CodeInvalidIdentifier    = "invalid_identifier"
	CodeUnresolvedReference  = "unresolved_reference"
	CodeXRefPatternMalformed = "xref_pattern_malformed"
	CodeXRefViolation        = "xref_violation"
	CodeCastIncompatible     = "cast_incompatible"
	CodeCycleDetected        = "cycle_detected"
)

// Issue represents a single validation entry, reported against a JSON
// Pointer path within the instance or schema under examination.
type Issue struct {
	Path    string // JSON Pointer, e.g. "/items/2/price".
	Code    string
	Message string
	Keyword string // the schema keyword that produced this issue, when applicable.

	// Params carries structured parameters (e.g. {"missingProperty": "id"})
	// for i18n and programmatic consumers.
	Params map[string]any

	Cause error
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice
// when needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	return append(dst, more...)
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}
