// Package apperr defines the application error taxonomy. Every failure a
// handler can surface falls into one of four kinds, each carrying a
// human-readable message for the initiating actor.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error.
type Kind int

const (
	// KindUnknown is any error that is not an *apperr.Error.
	KindUnknown Kind = iota
	// KindForbidden: the actor's role lacks rights for the requested mutation.
	KindForbidden
	// KindPreconditionFailed: a transition or required-field invariant was
	// violated, or a conditional update lost a version race.
	KindPreconditionFailed
	// KindNotFound: a referenced report, worker, or principal is absent.
	KindNotFound
	// KindExternal: a store, blob, or geocode call failed.
	KindExternal
)

// Error is a classified application error.
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

// Forbidden builds a rights-violation error.
func Forbidden(format string, args ...any) error {
	return &Error{Kind: KindForbidden, Msg: fmt.Sprintf(format, args...)}
}

// PreconditionFailed builds an invariant-violation error.
func PreconditionFailed(format string, args ...any) error {
	return &Error{Kind: KindPreconditionFailed, Msg: fmt.Sprintf(format, args...)}
}

// NotFound builds a missing-entity error.
func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

// External wraps a failed call to an external collaborator.
func External(err error, format string, args ...any) error {
	return &Error{Kind: KindExternal, Msg: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind from err, unwrapping as needed.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// Message returns the actor-facing message for err.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Msg
	}
	return "internal error"
}
