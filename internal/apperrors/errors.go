package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain sentinels. Repositories and services wrap these so callers can
// branch with errors.Is regardless of the storage engine underneath.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("resource conflict")
)

// ErrorCode is the machine-readable code rendered in error envelopes.
type ErrorCode string

const (
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeForbidden    ErrorCode = "FORBIDDEN"
	CodeConflict     ErrorCode = "CONFLICT"
	CodeValidation   ErrorCode = "VALIDATION_ERROR"
	CodeBadRequest   ErrorCode = "BAD_REQUEST"
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
)

// APIError is an error carrying the HTTP status and code it renders as.
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Status  int       `json:"-"`
	cause   error
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// NotFound creates a NOT_FOUND error for resource.
func NotFound(resource string) *APIError {
	return &APIError{Code: CodeNotFound, Message: resource + " not found", Status: http.StatusNotFound, cause: ErrNotFound}
}

func Unauthorized(message string) *APIError {
	return &APIError{Code: CodeUnauthorized, Message: message, Status: http.StatusUnauthorized, cause: ErrUnauthorized}
}

func Forbidden(message string) *APIError {
	return &APIError{Code: CodeForbidden, Message: message, Status: http.StatusForbidden, cause: ErrForbidden}
}

// Conflict creates a CONFLICT error for resource.
func Conflict(resource string) *APIError {
	return &APIError{Code: CodeConflict, Message: resource + " already exists", Status: http.StatusConflict, cause: ErrConflict}
}

func BadRequest(message string) *APIError {
	return &APIError{Code: CodeBadRequest, Message: message, Status: http.StatusBadRequest, cause: ErrInvalidInput}
}

// Validation creates a VALIDATION_ERROR for a single field.
func Validation(field, message string) *APIError {
	return &APIError{Code: CodeValidation, Message: message, Field: field, Status: http.StatusBadRequest, cause: ErrInvalidInput}
}

func Internal(message string) *APIError {
	return &APIError{Code: CodeInternal, Message: message, Status: http.StatusInternalServerError}
}

// From converts any error into an APIError. Typed errors pass through,
// sentinels map to their status and anything else becomes a generic 500.
// The second return is false for that last case so callers can log it.
func From(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return NotFound("resource"), true
	case errors.Is(err, ErrUnauthorized):
		return Unauthorized("authentication is required"), true
	case errors.Is(err, ErrForbidden):
		return Forbidden("you do not have permission to perform this action"), true
	case errors.Is(err, ErrInvalidInput):
		return BadRequest(err.Error()), true
	case errors.Is(err, ErrConflict):
		return Conflict("resource"), true
	}
	return Internal("internal server error"), false
}
