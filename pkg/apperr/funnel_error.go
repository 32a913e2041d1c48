// Package apperr carries the error codes and statuses the API reports.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	CodeUnauthorized = "UNAUTHORIZED"
	CodeInvalidToken = "INVALID_TOKEN"
	CodeTokenExpired = "TOKEN_EXPIRED"
	CodeForbidden    = "FORBIDDEN"

	CodeValidationFailed = "VALIDATION_FAILED"
	CodeBadRequest       = "BAD_REQUEST"
	CodeMissingField     = "MISSING_FIELD"
	CodeInvalidAction    = "INVALID_ACTION"

	CodeNotFound    = "NOT_FOUND"
	CodeRateLimited = "RATE_LIMITED"

	CodeExternalError = "EXTERNAL_ERROR"
	CodeStorageError  = "STORAGE_ERROR"

	CodeInternalError = "INTERNAL_ERROR"
	CodeConfigError   = "CONFIG_ERROR"
)

// AppError is an error with a stable code and the HTTP status to answer with.
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Status  int            `json:"-"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

func newError(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

// 401

func Unauthorized(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return newError(http.StatusUnauthorized, CodeUnauthorized, message)
}

func InvalidToken(message string) *AppError {
	return newError(http.StatusUnauthorized, CodeInvalidToken, message)
}

// 400

func BadRequest(message string) *AppError {
	return newError(http.StatusBadRequest, CodeBadRequest, message)
}

func MissingField(field string) *AppError {
	return newError(http.StatusBadRequest, CodeMissingField, "missing required field: "+field).
		WithDetail("field", field)
}

// InvalidAction is returned for feedback actions the preference store does not know.
func InvalidAction(action string) *AppError {
	return newError(http.StatusBadRequest, CodeInvalidAction, "Invalid action").
		WithDetail("action", action)
}

// 429

func RateLimited(retryAfter int) *AppError {
	return newError(http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded").
		WithDetail("retry_after", retryAfter)
}

// 5xx

// ExternalError reports a failed upstream platform call.
func ExternalError(service string, err error) *AppError {
	return newError(http.StatusBadGateway, CodeExternalError, "external service error: "+service).
		WithDetail("service", service).
		WithError(err)
}

func StorageError(operation string, err error) *AppError {
	return newError(http.StatusInternalServerError, CodeStorageError, "storage error: "+operation).
		WithError(err)
}

func Internal(message string) *AppError {
	if message == "" {
		message = "internal server error"
	}
	return newError(http.StatusInternalServerError, CodeInternalError, message)
}

// ConfigError marks a feature that cannot run with the current settings.
func ConfigError(message string) *AppError {
	return newError(http.StatusInternalServerError, CodeConfigError, message)
}

// AsAppError unwraps err to an AppError. Anything else becomes an internal error.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("").WithError(err)
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
