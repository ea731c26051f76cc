package service

import (
	"errors"
	"fmt"
)

// Kind classifies a business error so the transport can pick a status code.
type Kind int

const (
	// KindInvalidRequest covers bad client input and business-rule violations.
	KindInvalidRequest Kind = iota + 1
	// KindNotFound means a referenced reservation or table does not exist.
	KindNotFound
)

// Sentinels for errors.Is.  They carry no message of their own.
var (
	ErrInvalidRequest = &Error{Kind: KindInvalidRequest}
	ErrNotFound       = &Error{Kind: KindNotFound}
)

// Error is a business error whose Message is safe to show to the caller.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches any *Error of the same Kind, so errors.Is(err, ErrNotFound)
// works regardless of the message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func invalid(format string, args ...any) error {
	return &Error{Kind: KindInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}
