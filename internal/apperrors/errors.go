// Package apperrors defines the error taxonomy shared by every devboard service.
//
// Services return *Error values; the HTTP layer is the only place that turns a
// Severity into a status code.
package apperrors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeValidation        Code = "VALIDATION"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeForbidden         Code = "FORBIDDEN"
	CodeNotFound          Code = "NOT_FOUND"
	CodeConflict          Code = "CONFLICT"
	CodeInvalidAssignment Code = "INVALID_ASSIGNMENT"
	CodeInvalidOrExpired  Code = "INVALID_OR_EXPIRED"
	CodeMismatch          Code = "MISMATCH"
	CodeInternal          Code = "INTERNAL"
)

// Severity is the transport-agnostic class of an error.
type Severity int

const (
	SeverityInternal Severity = iota
	SeverityBadRequest
	SeverityUnauthorized
	SeverityForbidden
	SeverityNotFound
	SeverityConflict
)

func (s Severity) String() string {
	switch s {
	case SeverityBadRequest:
		return "BadRequest"
	case SeverityUnauthorized:
		return "Unauthorized"
	case SeverityForbidden:
		return "Forbidden"
	case SeverityNotFound:
		return "NotFound"
	case SeverityConflict:
		return "Conflict"
	default:
		return "Internal"
	}
}

// Severity maps a code to its severity class.
func (c Code) Severity() Severity {
	switch c {
	case CodeValidation, CodeInvalidAssignment, CodeInvalidOrExpired, CodeMismatch:
		return SeverityBadRequest
	case CodeUnauthorized:
		return SeverityUnauthorized
	case CodeForbidden:
		return SeverityForbidden
	case CodeNotFound:
		return SeverityNotFound
	case CodeConflict:
		return SeverityConflict
	default:
		return SeverityInternal
	}
}

// FieldError describes one rejected input field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// Error is the domain error type.
type Error struct {
	Code    Code
	Message string
	Fields  []FieldError
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// Severity returns the severity of the error's code.
func (e *Error) Severity() Severity {
	return e.Code.Severity()
}

// New creates an error with a code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an error that keeps cause for logging.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Validation creates a VALIDATION error listing the rejected fields.
func Validation(message string, fields ...FieldError) *Error {
	return &Error{Code: CodeValidation, Message: message, Fields: fields}
}

// Internal wraps an unexpected failure. The message callers see stays generic.
func Internal(cause error) *Error {
	return &Error{Code: CodeInternal, Message: "Internal server error", Cause: cause}
}

func NotFound(message string) *Error     { return New(CodeNotFound, message) }
func Forbidden(message string) *Error    { return New(CodeForbidden, message) }
func Conflict(message string) *Error     { return New(CodeConflict, message) }
func Unauthorized(message string) *Error { return New(CodeUnauthorized, message) }

// Sentinels for errors.Is checks.
var (
	ErrValidation        = New(CodeValidation, "validation failed")
	ErrUnauthorized      = New(CodeUnauthorized, "unauthorized")
	ErrForbidden         = New(CodeForbidden, "forbidden")
	ErrNotFound          = New(CodeNotFound, "not found")
	ErrConflict          = New(CodeConflict, "conflict")
	ErrInvalidAssignment = New(CodeInvalidAssignment, "invalid assignment")
	ErrInvalidOrExpired  = New(CodeInvalidOrExpired, "invalid or expired token")
	ErrMismatch          = New(CodeMismatch, "mismatch")
	ErrInternal          = New(CodeInternal, "internal error")
)

// CodeOf returns the code carried by err, or CodeInternal when err is not an *Error.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

// As extracts an *Error from err. Anything else is wrapped as Internal.
func As(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
