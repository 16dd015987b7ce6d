package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a non-2xx API response.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	Field      string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%d] %s: %s (field %s)", e.StatusCode, e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%d] %s: %s", e.StatusCode, e.Code, e.Message)
}

func IsUnauthorized(err error) bool { return hasStatus(err, http.StatusUnauthorized) }

func IsNotFound(err error) bool { return hasStatus(err, http.StatusNotFound) }

func hasStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
