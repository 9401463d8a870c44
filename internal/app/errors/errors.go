package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a failure so each front end can map it to its own wire convention
type Kind string

const (
	KindValidation Kind = "validation"
	KindConfig     Kind = "config"
	KindAuth       Kind = "auth"
	KindRateLimit  Kind = "rate_limit"
	KindProvider   Kind = "provider"
	KindStorage    Kind = "storage"
)

// Common error types
var (
	// Input errors
	ErrEmptyAudio       = New(KindValidation, "audio data is required")
	ErrUnsupportedMedia = New(KindValidation, "unsupported media type")
	ErrInvalidEncoding  = New(KindValidation, "audio data is not valid base64")
	ErrInvalidFileName  = New(KindValidation, "invalid file name")
	ErrFileNotFound     = New(KindValidation, "file not found")

	// Configuration errors
	ErrMissingAPIKey = New(KindConfig, "OpenAI API key is not configured")

	// Provider errors
	ErrUnauthorized = New(KindAuth, "invalid OpenAI API key")
	ErrRateLimited  = New(KindRateLimit, "OpenAI API rate limit exceeded, please try again later")

	// File errors
	ErrFileWriteFailed  = New(KindStorage, "file write failed")
	ErrFileDeleteFailed = New(KindStorage, "file delete failed")
)

// Error represents a standardized, kind-tagged error
type Error struct {
	kind    Kind
	message string
	cause   error
}

// New creates a new error
func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

// Newf creates a new formatted error
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with additional context under the given kind
func Wrap(kind Kind, err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		kind:    kind,
		message: message,
		cause:   err,
	}
}

// Wrapf wraps an error with formatted context
func Wrapf(kind Kind, err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &Error{
		kind:    kind,
		message: fmt.Sprintf(format, args...),
		cause:   err,
	}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Message returns the error text without the cause chain
func (e *Error) Message() string {
	return e.message
}

// Kind returns the error classification
func (e *Error) Kind() Kind {
	return e.kind
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.cause
}

// Is checks if the error matches target
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.kind == t.kind && e.message == t.message
}

// KindOf reports the kind of the outermost *Error in err's chain.
// Errors that carry no kind are provider failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.kind
	}
	return KindProvider
}

// IsKind reports whether err is classified as kind
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Helper functions for common patterns

// Validation returns a validation error with a plain message
func Validation(message string) error {
	return New(KindValidation, message)
}

// Validationf returns a formatted validation error
func Validationf(format string, args ...interface{}) error {
	return Newf(KindValidation, format, args...)
}

// Provider returns a provider error carrying the upstream message
func Provider(message string) error {
	return New(KindProvider, message)
}
