package domain

import (
	"errors"
	"fmt"
)

// Kind is the closed set of failure categories the service reports. Transport
// adapters map kinds, never message text, to protocol-level statuses.
type Kind string

const (
	KindValidation    Kind = "VALIDATION"
	KindNotFound      Kind = "NOT_FOUND"
	KindLimitExceeded Kind = "LIMIT_EXCEEDED"
	KindConflict      Kind = "CONFLICT"
	KindInternal      Kind = "INTERNAL"
)

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

func (e *Error) Unwrap() error {
	return e.Err
}

func E(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Ef(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf classifies err. Errors produced outside the taxonomy count as internal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// MessageOf returns the taxonomy message of err, or a generic fallback for
// untagged errors so storage details never leak to clients.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "unable to process request right now"
}
