// Package errs defines coded errors shared across the storage, index,
// and pipeline layers.
package errs

import (
	"errors"
	"fmt"
)

// Code is a stable, namespaced error code.
type Code string

const (
	// InvalidArgument means the caller passed input that fails validation.
	InvalidArgument Code = "INVALID_ARGUMENT"
	// NotFound means the requested record does not exist.
	NotFound Code = "NOT_FOUND"
	// Persistence means the record store rejected or failed an operation.
	Persistence Code = "PERSISTENCE"
	// Index means the vector index rejected or failed an operation.
	Index Code = "INDEX"
	// ExternalService means an upstream provider (embedder, LLM) failed.
	ExternalService Code = "EXTERNAL_SERVICE"
	// Config means the environment configuration is unusable.
	Config Code = "CONFIG"
)

// Error is a structured error carrying a code, a message, and an
// optional cause. It renders as "[CODE] message: cause".
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error by code, so sentinel comparisons like
// errors.Is(err, errs.New(errs.NotFound, "")) work across wrapping.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Code == other.Code
	}
	return false
}

// New creates an Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error that wraps cause. A nil cause is allowed and
// behaves like New.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the code from err, or "" when err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsNotFound reports whether err carries the NotFound code.
func IsNotFound(err error) bool {
	return CodeOf(err) == NotFound
}

// IsInvalidArgument reports whether err carries the InvalidArgument code.
func IsInvalidArgument(err error) bool {
	return CodeOf(err) == InvalidArgument
}
