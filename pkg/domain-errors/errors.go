// Package domainerrors provides coded errors for the domain layer.
//
// Services attach a Code to every error they return so transports can map
// failures to protocol responses without string matching. Stores return
// sentinel errors (pkg/platform/sentinel); services translate those into
// coded errors at the boundary.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// CodeNotFound indicates the requested entity does not exist, or the
	// caller is not allowed to learn that it exists.
	CodeNotFound Code = "not_found"

	// CodeForbidden indicates the actor is authenticated but not permitted
	// to perform the operation. Includes cross-tenant access denials.
	CodeForbidden Code = "forbidden"

	// CodeUnauthorized indicates a missing or unusable identity assertion.
	CodeUnauthorized Code = "unauthorized"

	// CodeInvalidState indicates the entity is in a state that does not
	// admit the attempted transition.
	CodeInvalidState Code = "invalid_state"

	// CodeValidation indicates a field-level input failure.
	CodeValidation Code = "validation_error"

	// CodeBadRequest indicates a structurally unusable request.
	CodeBadRequest Code = "bad_request"

	// CodeConflict indicates a uniqueness or concurrency conflict.
	CodeConflict Code = "conflict"

	// CodeRateLimited indicates the caller exceeded a request quota.
	CodeRateLimited Code = "rate_limited"

	// CodeInvariantViolation indicates a domain invariant would be broken.
	// Services usually translate these into more specific codes.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeInternal indicates an infrastructure failure. Details are logged,
	// never returned to callers.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error. It optionally wraps a cause.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, defaulting to CodeInternal for
// uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the caller-safe message from err. Uncoded errors get a
// generic message so internals never leak through transports.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}
