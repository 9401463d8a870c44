package errors

import (
	"net/http"

	apperrors "whisper-relay/internal/app/errors"
	"whisper-relay/internal/app/model"
)

// APIError is the JSON error body returned by every endpoint. Clients only
// rely on the error field.
type APIError struct {
	Kind      apperrors.Kind `json:"kind,omitempty" swaggertype:"string"`
	Message   string         `json:"error"`
	RequestID string         `json:"request_id,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// HTTPStatus returns the appropriate HTTP status code for the error kind
func (e *APIError) HTTPStatus() int {
	return StatusFor(e.Kind)
}

// StatusFor maps an error kind to its HTTP status
func StatusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return http.StatusBadRequest
	case apperrors.KindAuth:
		return http.StatusUnauthorized
	case apperrors.KindRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// FromError converts any error into an APIError, keeping its message
func FromError(err error) *APIError {
	if apiErr, ok := err.(*APIError); ok {
		return apiErr
	}
	return &APIError{
		Kind:    apperrors.KindOf(err),
		Message: err.Error(),
	}
}

// FromResult converts a failed transcription result
func FromResult(result model.TranscriptionResult) *APIError {
	return &APIError{
		Kind:    result.ErrorKind,
		Message: result.Message,
	}
}

// NewBadRequestError creates a validation error
func NewBadRequestError(message string) *APIError {
	return &APIError{
		Kind:    apperrors.KindValidation,
		Message: message,
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *APIError {
	return &APIError{
		Kind:    apperrors.KindProvider,
		Message: message,
	}
}
