package services

import (
	"errors"
	"fmt"
)

// Kind classifies a service error for the transport layer.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
	KindInternal        Kind = "internal"
)

// Error is a business-rule failure with a short user-facing message. Err,
// when set, is the underlying cause and is never shown to callers.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func validationErr(msg string) error { return &Error{Kind: KindValidation, Msg: msg} }
func forbiddenErr(msg string) error  { return &Error{Kind: KindForbidden, Msg: msg} }
func notFoundErr(msg string) error   { return &Error{Kind: KindNotFound, Msg: msg} }
func conflictErr(msg string) error   { return &Error{Kind: KindConflict, Msg: msg} }

func unauthenticatedErr(msg string) error {
	return &Error{Kind: KindUnauthenticated, Msg: msg}
}

func internalErr(msg string, err error) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

// KindOf returns the kind of err, or KindInternal for errors that carry none.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

// Message returns the user-facing message for err.
func Message(err error) string {
	var se *Error
	if errors.As(err, &se) && se.Kind != KindInternal {
		return se.Msg
	}
	return "internal error"
}
