package utils

import (
	"fmt"
	"net/http"
)

// AppError represents an application error
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap implements the unwrap interface
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationAppError creates a 400 error for a malformed request.
func ValidationAppError(message string, err error) *AppError {
	return NewAppError(http.StatusBadRequest, message, err)
}

// NotFoundAppError creates a 404 Not Found error
func NotFoundAppError(message string, err error) *AppError {
	return NewAppError(http.StatusNotFound, message, err)
}

// ConflictAppError creates a 409 error for a lost optimistic-concurrency
// race; the caller should re-read and retry.
func ConflictAppError(message string, err error) *AppError {
	return NewAppError(http.StatusConflict, message, err)
}

// InvalidTransitionAppError creates a 422 error for a state-machine
// rejection. Interactive callers surface it; webhook callers log and ack.
func InvalidTransitionAppError(message string, err error) *AppError {
	return NewAppError(http.StatusUnprocessableEntity, message, err)
}

// ExternalUnavailableAppError creates a 503 error for a gateway or carrier
// outage on a path with no safe fallback.
func ExternalUnavailableAppError(message string, err error) *AppError {
	return NewAppError(http.StatusServiceUnavailable, message, err)
}

// GetAppError returns the AppError if the error is an AppError
func GetAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return nil
}

// IsConflictError checks if an error is a lost-race conflict
func IsConflictError(err error) bool {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code == http.StatusConflict
	}
	return false
}

// IsInvalidTransitionError checks if an error is a state-machine rejection
func IsInvalidTransitionError(err error) bool {
	if appErr := GetAppError(err); appErr != nil {
		return appErr.Code == http.StatusUnprocessableEntity
	}
	return false
}

// WrapError wraps an error with additional context
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
