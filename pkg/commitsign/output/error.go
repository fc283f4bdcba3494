package output

import (
	"fmt"
)

// Error represents a structured error with code, message, and an optional
// remediation hint. It implements the standard error interface and supports
// error chaining.
type Error struct {
	Code        Code
	Message     string
	Remediation string
	Cause       error
}

// NewError creates a new structured error with the given code and message.
func NewError(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// NewErrorf creates a new structured error with a formatted message.
func NewErrorf(code Code, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithRemediation attaches a remediation suggestion and returns the error
// for chaining. Fatal errors presented to the user should carry one.
func (e *Error) WithRemediation(hint string) *Error {
	e.Remediation = hint
	return e
}

// WithCause wraps an underlying error for error chaining.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode returns the process exit code for CLI use.
func (e *Error) ExitCode() ExitCode {
	return ExitFailure
}
