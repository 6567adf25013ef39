package errors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrConflict           = errors.New("conflict")
	ErrTooManyRequests    = errors.New("too many requests")
	ErrUpstream           = errors.New("upstream unavailable")
	ErrServiceUnavailable = errors.New("service unavailable")
)

const (
	CodeValidation = "validation"
	CodeUpstream   = "upstream"
	CodeStorage    = "storage"
)

// Error represents a custom error type
type Error struct {
	Code    string
	Message string
	Err     error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap wraps an error with additional message
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Message: message,
		Err:     err,
	}
}

// WrapWithCode wraps an error with a code and message
func WrapWithCode(err error, code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Validation reports a violated request constraint. The message is safe to
// show to the caller.
func Validation(message string) error {
	return &Error{
		Code:    CodeValidation,
		Message: message,
		Err:     ErrInvalidInput,
	}
}

// Upstream wraps a failure of every external source the request depended on.
func Upstream(err error) error {
	return WrapWithCode(errors.Join(ErrUpstream, err), CodeUpstream, "all upstream sources failed")
}

// Storage wraps a failure of the durable store.
func Storage(err error) error {
	return WrapWithCode(errors.Join(ErrServiceUnavailable, err), CodeStorage, "storage unavailable")
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// GetCode returns the error code if it exists
func GetCode(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// GetMessage returns the error message
func GetMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// IsNotFound returns true if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation returns true if the error describes a rejected request
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsUpstream returns true if every upstream source failed
func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstream)
}
