package errs

import (
	"context"
	"errors"
)

// Code is a harness error code.
type Code string

const (
	InvalidArgument    Code = "invalid_argument"
	NotFound           Code = "not_found"
	FailedPrecondition Code = "failed_precondition"
	Unavailable        Code = "unavailable"
	DeadlineExceeded   Code = "deadline_exceeded"
	Internal           Code = "internal"
)

// Class groups codes into the failure taxonomy used in test reports.
type Class string

const (
	// ClassPrecondition means a fixture could not establish required state.
	ClassPrecondition Class = "precondition"
	// ClassTimeout means an element or condition that should exist never appeared.
	ClassTimeout Class = "timeout"
	// ClassExternal means an external tool or service was unavailable.
	ClassExternal Class = "external"
	// ClassInternal is everything else.
	ClassInternal Class = "internal"
)

// Error is a coded harness error.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		if e.Err != nil {
			return e.Message + ": " + e.Err.Error()
		}
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a coded error with message.
func New(code Code, message string) error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a coded error with message and cause.
func Wrap(code Code, message string, cause error) error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     cause,
	}
}

// CodeOf returns the error code, defaulting to internal.
// A bare context deadline is reported as DeadlineExceeded.
func CodeOf(err error) Code {
	if err == nil {
		return Internal
	}
	var coded *Error
	if errors.As(err, &coded) {
		if coded.Code == "" {
			return Internal
		}
		return coded.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return DeadlineExceeded
	}
	return Internal
}

// MessageOf returns the outermost typed message, or "internal error".
func MessageOf(err error) string {
	if err == nil {
		return string(Internal)
	}
	var coded *Error
	if errors.As(err, &coded) && coded.Message != "" {
		return coded.Message
	}
	return "internal error"
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	return err != nil && CodeOf(err) == code
}

// ClassOf maps an error code to its failure class.
func ClassOf(code Code) Class {
	switch code {
	case FailedPrecondition, NotFound, InvalidArgument:
		return ClassPrecondition
	case DeadlineExceeded:
		return ClassTimeout
	case Unavailable:
		return ClassExternal
	default:
		return ClassInternal
	}
}

// Classify returns the failure class of err.
func Classify(err error) Class {
	return ClassOf(CodeOf(err))
}
