// Package apperror defines errors that carry a client-facing status and message.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is an error that is safe to surface to API callers.
// Err holds the underlying cause, which is logged but never sent to clients.
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *APIError) Unwrap() error { return e.Err }

// As extracts an APIError from err's chain.
func As(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// StatusOf returns the HTTP status for err, defaulting to 500.
func StatusOf(err error) int {
	if apiErr, ok := As(err); ok {
		return apiErr.Status
	}
	return http.StatusInternalServerError
}

func NewErrValidation(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Message: message}
}

func NewErrUnauthorized(message string) *APIError {
	return &APIError{Status: http.StatusUnauthorized, Message: message}
}

func NewErrNotFound(message string) *APIError {
	return &APIError{Status: http.StatusNotFound, Message: message}
}

func NewErrConflict(message string) *APIError {
	return &APIError{Status: http.StatusConflict, Message: message}
}

// NewErrInternal hides err behind a generic message.
func NewErrInternal(err error) *APIError {
	return &APIError{Status: http.StatusInternalServerError, Message: "something went wrong", Err: err}
}

func NewErrAccountNotFound() *APIError {
	return NewErrNotFound("account does not exist")
}

func NewErrInvalidCredentials() *APIError {
	return NewErrUnauthorized("invalid account credentials")
}

func NewErrInvalidRefreshToken() *APIError {
	return NewErrUnauthorized("refresh token is expired or used")
}

func NewErrMissingAuthorizationToken() *APIError {
	return NewErrUnauthorized("unauthorized request")
}

func NewErrInvalidAuthorizationToken() *APIError {
	return NewErrUnauthorized("invalid access token")
}
