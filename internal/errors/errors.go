// Package errors defines the service error taxonomy. Every failure surfaced
// to a caller carries a stable code, a human-readable message and the HTTP
// status it maps to.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a class of failure.
type Code string

const (
	CodeValidation       Code = "validation_error"
	CodeNotFound         Code = "not_found"
	CodeUnauthorized     Code = "unauthorized"
	CodeConflict         Code = "conflict"
	CodeDataUnavailable  Code = "data_unavailable"
	CodeUpstreamProvider Code = "upstream_provider_error"
	CodeInternal         Code = "internal_error"
)

// ServiceError is the structured error returned across the API boundary.
type ServiceError struct {
	Code       Code                   `json:"code"`
	Message    string                 `json:"message"`
	HTTPStatus int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	cause      error
}

func (e *ServiceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is/As.
func (e *ServiceError) Unwrap() error { return e.cause }

// WithDetails attaches a key/value pair and returns the error for chaining.
func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func newError(code Code, status int, message string, cause error) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: status, cause: cause}
}

// Validation reports a malformed or missing required field.
func Validation(message string) *ServiceError {
	return newError(CodeValidation, http.StatusBadRequest, message, nil)
}

// NotFound reports an absent entity. Cross-user access deliberately maps here
// rather than to a 403, so the existence of another user's records is never
// confirmed.
func NotFound(entity string) *ServiceError {
	return newError(CodeNotFound, http.StatusNotFound, entity+" not found", nil)
}

// Unauthorized reports a missing or invalid credential.
func Unauthorized(message string) *ServiceError {
	if message == "" {
		message = "authentication required"
	}
	return newError(CodeUnauthorized, http.StatusUnauthorized, message, nil)
}

// Conflict reports a unique-constraint violation.
func Conflict(message string) *ServiceError {
	return newError(CodeConflict, http.StatusConflict, message, nil)
}

// DataUnavailable reports an unreachable store. Callers must be able to
// distinguish this from "no data yet", so it is never downgraded to an empty
// result.
func DataUnavailable(cause error) *ServiceError {
	return newError(CodeDataUnavailable, http.StatusServiceUnavailable, "data store unavailable", cause)
}

// UpstreamProvider reports a failure or timeout from the external AI provider.
func UpstreamProvider(cause error) *ServiceError {
	return newError(CodeUpstreamProvider, http.StatusBadGateway, "upstream provider request failed", cause)
}

// Internal reports an unexpected failure.
func Internal(message string, cause error) *ServiceError {
	if message == "" {
		message = "internal error"
	}
	return newError(CodeInternal, http.StatusInternalServerError, message, cause)
}

// GetServiceError extracts a *ServiceError from an error chain, or nil.
func GetServiceError(err error) *ServiceError {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return nil
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	if svcErr := GetServiceError(err); svcErr != nil {
		return svcErr.Code == code
	}
	return false
}
