// Package fault defines the error kinds surfaced by the persistence core.
// The transport layer maps kinds to its own wire format; nothing in this
// package knows about transports.
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to branch on outcome.
type Kind string

const (
	// Validation means the input was malformed before any mutation began.
	Validation Kind = "validation"
	// NotFound means a referenced entity does not exist.
	NotFound Kind = "not_found"
	// PermissionDenied means the caller lacks the required membership,
	// role or ownership.
	PermissionDenied Kind = "permission_denied"
	// Conflict means a uniqueness constraint was violated and surfaced.
	Conflict Kind = "conflict"
	// StoreBusy means the write lock is contended; the operation had no
	// effect and may be retried by the caller.
	StoreBusy Kind = "store_busy"
	// Internal means an unexpected store failure.
	Internal Kind = "internal"
)

// Error carries a kind, a message and an optional wrapped cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error of the given kind.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying error.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or Internal when err carries none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Internal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
