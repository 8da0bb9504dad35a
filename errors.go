package gts

import "github.com/globaltype/gts/issue"

// Issue codes. The structural codes mirror what the dynamic JSON-Schema
// engine reports for a failed keyword; the remaining codes (invalid_identifier
// onward) are specific to the identifier, reference, and cast semantics
// layered on top of it. These are
// re-exports of the issue package's own constants, kept here so callers can
// spell them gts.CodeInvalidType etc. without importing issue directly.
const (
	CodeInvalidType   = issue.CodeInvalidType
	CodeRequired      = issue.CodeRequired
	CodeUnknownKey    = issue.CodeUnknownKey
	CodeDuplicateKey  = issue.CodeDuplicateKey
	CodeTooSmall      = issue.CodeTooSmall
	CodeTooBig        = issue.CodeTooBig
	CodeTooShort      = issue.CodeTooShort
	CodeTooLong       = issue.CodeTooLong
	CodePattern       = issue.CodePattern
	CodeInvalidEnum   = issue.CodeInvalidEnum
	CodeInvalidConst  = issue.CodeInvalidConst
	CodeInvalidFormat = issue.CodeInvalidFormat
	CodeUnionMismatch = issue.CodeUnionMismatch
	CodeParseError    = issue.CodeParseError

	CodeInvalidIdentifier    = issue.CodeInvalidIdentifier
	CodeUnresolvedReference  = issue.CodeUnresolvedReference
	CodeXRefPatternMalformed = issue.CodeXRefPatternMalformed
	CodeXRefViolation        = issue.CodeXRefViolation
	CodeCastIncompatible     = issue.CodeCastIncompatible
	CodeCycleDetected        = issue.CodeCycleDetected
)

// Issue is the single closed error currency used across every subsystem:
// validate, cast, and compat results all carry Issues built from this type,
// rather than raw error strings. It is an alias for issue.Issue so that
// those packages (which the root package composes, and so cannot import
// back) can build values of the exact same type.
type Issue = issue.Issue

// Issues is a collection of Issue that implements error.
type Issues = issue.Issues

// AppendIssues appends issues to the destination, initializing the slice
// when needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	return issue.AppendIssues(dst, more...)
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	return issue.AsIssues(err)
}
