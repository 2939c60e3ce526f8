// Package errs provides the unified error type used across streamdb.
//
// Every layer (wire, database, …) wraps its native errors into *errs.Error
// before returning them to callers. Callers use the Is* predicates to
// handle errors without importing driver-specific packages.
//
// Usage:
//
//	// In a driver — wrap native errors:
//	return errs.Wrap(errs.ErrKindTimeout, "query timed out", mysqlErr)
//
//	// In a handler — check error kind:
//	if errs.IsNotFound(err) {
//	    http.Error(w, "not found", http.StatusNotFound)
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
	ErrKindNotFound                 // no rows matched
	ErrKindConnectionFailed         // cannot reach or authenticate to the backend
	ErrKindTimeout                  // timeout; context deadlines and cancellations are ErrKindCanceled
	ErrKindQueryFailed              // SQL syntax or runtime execution error
	ErrKindInvalidInput             // bad arguments from the caller
	ErrKindPermissionDenied         // access denied / auth failure

	// ErrKindDriverError wraps an error reported by the wire driver that
	// does not fit one of the more specific kinds above.
	ErrKindDriverError
	// ErrKindCanceled marks a context cancellation or deadline honored
	// locally (a pool acquire or wire call abandoned because its context
	// ended), not surfaced as a driver error.
	ErrKindCanceled
	// ErrKindInterruptedExpected marks the ER_QUERY_INTERRUPTED error that
	// follows a KILL QUERY issued by this layer — swallowed, never surfaced.
	ErrKindInterruptedExpected
	// ErrKindNotReady is returned when Columns/ColumnTypes/Result is read
	// before Ready() has resolved.
	ErrKindNotReady
	// ErrKindClosed is returned when a surface method is called on an
	// already-closed Pool, Conn, or Txn.
	ErrKindClosed
	// ErrKindInvalidState marks a caller violation of the state machine
	// (e.g. reading Result() on a row-producing statement).
	ErrKindInvalidState
	// ErrKindUnsupportedIsolation marks an isolation level outside the
	// discrete set this layer knows how to translate to SQL.
	ErrKindUnsupportedIsolation
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
	case ErrKindDriverError:
		return "driver_error"
	case ErrKindCanceled:
		return "canceled"
	case ErrKindInterruptedExpected:
		return "interrupted_expected"
	case ErrKindNotReady:
		return "not_ready"
	case ErrKindClosed:
		return "closed"
	case ErrKindInvalidState:
		return "invalid_state"
	case ErrKindUnsupportedIsolation:
		return "unsupported_isolation"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by all streamdb subsystems.
// Drivers produce it; callers inspect it via the Is* predicates below.
type Error struct {
	Kind    ErrKind
	Message string
	Cause   error // original driver-level error, preserved for logging
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

// Wrap creates an *Error with the given kind, message, and an underlying cause.
func Wrap(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// --- Predicates ---

// IsNotFound reports whether err represents a "not found" result.
func IsNotFound(err error) bool {
	return kindOf(err) == ErrKindNotFound
}

// IsTimeout reports whether err is of kind ErrKindTimeout. Context deadline
// and cancellation errors are ErrKindCanceled and do not match.
func IsTimeout(err error) bool {
	return kindOf(err) == ErrKindTimeout
}

// IsConnectionFailed reports whether err is a connectivity or auth failure.
func IsConnectionFailed(err error) bool {
	return kindOf(err) == ErrKindConnectionFailed
}

// IsQueryFailed reports whether err is a SQL execution error.
func IsQueryFailed(err error) bool {
	return kindOf(err) == ErrKindQueryFailed
}

// IsInvalidInput reports whether err was caused by bad input from the caller.
func IsInvalidInput(err error) bool {
	return kindOf(err) == ErrKindInvalidInput
}

// IsPermissionDenied reports whether err is an access control failure.
func IsPermissionDenied(err error) bool {
	return kindOf(err) == ErrKindPermissionDenied
}

// IsCanceled reports whether err is a locally-honored context cancellation.
func IsCanceled(err error) bool {
	return kindOf(err) == ErrKindCanceled
}

// IsNotReady reports whether err was caused by reading ready-gated state
// (Columns, ColumnTypes, Result) before Ready() resolved.
func IsNotReady(err error) bool {
	return kindOf(err) == ErrKindNotReady
}

// IsClosed reports whether err was caused by calling a surface method on an
// already-closed Pool, Conn, or Txn.
func IsClosed(err error) bool {
	return kindOf(err) == ErrKindClosed
}

// IsInvalidState reports whether err was caused by violating the streaming
// query state machine's contract.
func IsInvalidState(err error) bool {
	return kindOf(err) == ErrKindInvalidState
}

// IsUnsupportedIsolation reports whether err was caused by requesting an
// isolation level outside the supported discrete set.
func IsUnsupportedIsolation(err error) bool {
	return kindOf(err) == ErrKindUnsupportedIsolation
}

// IsInterruptedExpected reports whether err is the ER_QUERY_INTERRUPTED
// error that follows a KILL QUERY issued by this layer itself.
func IsInterruptedExpected(err error) bool {
	return kindOf(err) == ErrKindInterruptedExpected
}

// IsDriverError reports whether err is an unclassified wire-driver error.
func IsDriverError(err error) bool {
	return kindOf(err) == ErrKindDriverError
}

func kindOf(err error) ErrKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrKindUnknown
}
