// Package apperr classifies errors so HTTP handlers can pick a status code
// without string matching.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindRemote Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
	KindRateLimited
)

var (
	ErrUnauthorized = New(KindUnauthorized, "unauthorized")
	ErrForbidden    = New(KindForbidden, "forbidden")
	ErrNotFound     = New(KindNotFound, "not found")
)

// Error carries a Kind, a client-safe message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound) works
// for wrapped not-found errors with a different message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && t.Err == nil
}

func New(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(entity string) *Error {
	return &Error{Kind: KindNotFound, Message: entity + " not found"}
}

func Conflict(msg string) *Error { return &Error{Kind: KindConflict, Message: msg} }

// Remote wraps a downstream failure; its message is never shown to clients.
func Remote(op string, err error) *Error {
	return &Error{Kind: KindRemote, Message: op, Err: err}
}

// KindOf returns the Kind of err, KindRemote for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindRemote
}
