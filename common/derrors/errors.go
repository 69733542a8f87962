package derrors

import (
	"errors"
	"fmt"
)

// Kind classifies a ledger failure so callers can map it to behavior
// (retry, fix input, surface to operator).
type Kind int

const (
	// KindValidation marks malformed or missing input. Not retryable.
	KindValidation Kind = iota
	// KindInvalidTransfer marks a business-rule violation, e.g. the new owner
	// already holds the parcel. Not retryable without changed input.
	KindInvalidTransfer
	// KindNotFound marks a missing parcel or owner reference.
	KindNotFound
	// KindConflict marks a concurrent-transfer loss: the parcel's current owner
	// changed between read and update. Retryable with a fresh read.
	KindConflict
	// KindPersistence marks a store call that failed or timed out. Retryable.
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindInvalidTransfer:
		return "invalid_transfer"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Error is a kinded domain error. It wraps an underlying cause when one exists.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a domain error without a cause
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a domain error with a formatted message
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: err}
}

// KindOf extracts the kind of err, or KindPersistence when err carries none.
// Unclassified errors come from the store path, so treating them as
// persistence failures keeps the retry decision conservative.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindPersistence
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind == kind
	}
	return false
}

// Retryable reports whether the failure may succeed on a retry
func Retryable(err error) bool {
	k := KindOf(err)
	return k == KindConflict || k == KindPersistence
}
