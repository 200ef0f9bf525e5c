package api

import (
	"errors"
	"fmt"
)

var (
	ErrAuth       = errors.New("authentication failed")
	ErrValidation = errors.New("validation failed")
	ErrNetwork    = errors.New("network error")
	ErrServer     = errors.New("server error")
)

// Error carries the kind of failure (one of the sentinels above) together
// with the operation and, for HTTP failures, the status and server message.
type Error struct {
	Kind    error
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Message != "" {
		msg = e.Message
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func validationError(op, message string) *Error {
	return &Error{Kind: ErrValidation, Op: op, Message: message}
}
