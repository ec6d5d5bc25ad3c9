// Package cardmodel holds the shared types that flow between pipeline
// stages: the persisted Card, the per-stage outputs, and the error
// taxonomy stages use to signal failure kinds to the orchestrator.
package cardmodel

import "fmt"

// ErrorKind is a closed taxonomy of the failure categories a stage can
// report. The orchestrator branches on kind, not on error string.
type ErrorKind string

const (
	KindInvalidInput       ErrorKind = "invalid_input"
	KindContentRejected    ErrorKind = "content_rejected"
	KindSourceUnavailable  ErrorKind = "source_unavailable"
	KindSchemaViolation    ErrorKind = "schema_violation"
	KindStorageConflict    ErrorKind = "storage_conflict"
	KindNotFound           ErrorKind = "not_found"
	KindForbidden          ErrorKind = "forbidden"
	KindInappropriate      ErrorKind = "inappropriate_content"
	KindInvalidCardImage   ErrorKind = "invalid_card_image"
	KindExtractionFailed   ErrorKind = "extraction_failed"
	KindSourcesUnavailable ErrorKind = "sources_unavailable"
)

// Error wraps an underlying cause with a taxonomy kind so call sites can
// branch with errors.As instead of string matching.
type Error struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds a taxonomy error, optionally wrapping a cause.
func NewError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// IsKind reports whether err (or anything it wraps) carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	for err != nil {
		if ce, ok := err.(*Error); ok {
			e = ce
			break
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return e != nil && e.Kind == kind
}
