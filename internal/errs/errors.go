// Package errs provides the unified error type used across all of datame.
//
// Every subsystem (parser, writers, sinks, database, filestore, …) wraps its
// native errors into *errs.Error before returning them to callers. Callers use
// the Is* predicates to decide how to react without importing driver-specific
// packages.
//
// Usage:
//
//	// In the parser, wrap the syntax error:
//	return nil, errs.Wrap(errs.ErrKindParse, "invalid schema", synErr)
//
//	// In the CLI, decide the exit path:
//	if errs.IsCapability(err) {
//	    fmt.Fprintln(os.Stderr, "pick a format that supports nested data")
//	}
package errs

import (
	"errors"
	"fmt"
)

// ErrKind categorises an error without exposing subsystem-specific codes.
type ErrKind int

const (
	ErrKindUnknown          ErrKind = iota
	ErrKindNotFound                 // no rows, no object, no bucket
	ErrKindConnectionFailed         // cannot reach the backend
	ErrKindTimeout                  // context deadline / cancellation
	ErrKindQueryFailed              // SQL or storage operation error
	ErrKindInvalidInput             // bad arguments from the caller
	ErrKindPermissionDenied         // access denied / auth failure
	ErrKindParse                    // malformed schema text
	ErrKindCapability               // writer cannot represent the schema's shape
	ErrKindIO                       // writing to or flushing a sink failed
	ErrKindInvariant                // a value reached a writer path the gate should have excluded
)

func (k ErrKind) String() string {
	switch k {
	case ErrKindNotFound:
		return "not_found"
	case ErrKindConnectionFailed:
		return "connection_failed"
	case ErrKindTimeout:
		return "timeout"
	case ErrKindQueryFailed:
		return "query_failed"
	case ErrKindInvalidInput:
		return "invalid_input"
	case ErrKindPermissionDenied:
		return "permission_denied"
	case ErrKindParse:
		return "parse"
	case ErrKindCapability:
		return "capability"
	case ErrKindIO:
		return "io"
	case ErrKindInvariant:
		return "invariant_violation"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all datame subsystems.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original error, preserved for logging
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is / errors.As to traverse the cause chain.
func (e *Error) Unwrap() error {
	return e.Cause
}

// --- Constructors ---

// New creates an *Error with the given kind and message and no cause.
func New(kind ErrKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Newf is New with a format string.
func Newf(kind ErrKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsNotFound reports whether err represents a "not found" result.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrKindNotFound
}

// IsTimeout reports whether err was caused by a deadline or context cancellation.
func IsTimeout(err error) bool {
	return KindOf(err) == ErrKindTimeout
}

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool {
	return KindOf(err) == ErrKindConnectionFailed
}

// IsQueryFailed reports whether err is a backend operation failure.
func IsQueryFailed(err error) bool {
	return KindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return KindOf(err) == ErrKindInvalidInput
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return KindOf(err) == ErrKindPermissionDenied
}

// IsParse reports whether err came from malformed schema text.
func IsParse(err error) bool {
	return KindOf(err) == ErrKindParse
}

// IsCapability reports whether err is a capability gate rejection.
func IsCapability(err error) bool {
	return KindOf(err) == ErrKindCapability
}

// IsIO reports whether err is a sink write or flush failure.
func IsIO(err error) bool {
	return KindOf(err) == ErrKindIO
}

// IsInvariant reports whether err signals a gate/writer implementation bug.
func IsInvariant(err error) bool {
	return KindOf(err) == ErrKindInvariant
}

// KindOf extracts the ErrKind of the outermost *Error in the chain.
func KindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
