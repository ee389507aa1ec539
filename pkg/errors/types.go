package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode represents a structured error code
type ErrorCode string

const (
	// Validation errors
	ErrCodeValidation   ErrorCode = "VALIDATION"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"

	// Resource errors
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
	ErrCodeConflict      ErrorCode = "CONFLICT"

	// Filesystem and persistence errors
	ErrCodeIO          ErrorCode = "IO"
	ErrCodeConsistency ErrorCode = "CONSISTENCY"
	ErrCodeDatabase    ErrorCode = "DATABASE"

	// Remote fetch errors
	ErrCodeNetwork    ErrorCode = "NETWORK"
	ErrCodeFeedParse  ErrorCode = "FEED_PARSE"
	ErrCodeAPITimeout ErrorCode = "API_TIMEOUT"

	// External tool errors (ffmpeg, ffprobe, ssh, mpc)
	ErrCodeExternalTool ErrorCode = "EXTERNAL_TOOL"

	// Batch errors
	ErrCodePartialBatch ErrorCode = "PARTIAL_BATCH"

	// Internal errors
	ErrCodeInternal ErrorCode = "INTERNAL"

	// Authentication errors
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
)

// AppError represents a structured application error
type AppError struct {
	Code     ErrorCode              `json:"code"`
	Message  string                 `json:"message"`
	Details  map[string]interface{} `json:"details,omitempty"`
	Cause    error                  `json:"-"`
	HTTPCode int                    `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying cause
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// GetHTTPCode returns the appropriate HTTP status code
func (e *AppError) GetHTTPCode() int {
	if e.HTTPCode != 0 {
		return e.HTTPCode
	}
	return getDefaultHTTPCode(e.Code)
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		HTTPCode: getDefaultHTTPCode(code),
	}
}

// Newf creates a new AppError with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		HTTPCode: getDefaultHTTPCode(code),
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(cause error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Cause:    cause,
		HTTPCode: getDefaultHTTPCode(code),
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(cause error, code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Cause:    cause,
		HTTPCode: getDefaultHTTPCode(code),
	}
}

// getDefaultHTTPCode returns the default HTTP status code for an error code
func getDefaultHTTPCode(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeAlreadyExists, ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeValidation, ErrCodeInvalidInput, ErrCodeMissingField:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeAPITimeout:
		return http.StatusRequestTimeout
	case ErrCodeNetwork, ErrCodeFeedParse:
		return http.StatusBadGateway
	case ErrCodePartialBatch:
		return http.StatusMultiStatus
	default:
		return http.StatusInternalServerError
	}
}

// Common error constructors

// NotFound creates a not found error
func NotFound(resource string, id interface{}) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

// AlreadyExists creates an already exists error
func AlreadyExists(resource string, id interface{}) *AppError {
	return New(ErrCodeAlreadyExists, fmt.Sprintf("%s already exists", resource)).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

// ValidationError creates a validation error
func ValidationError(field string, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("validation failed for field '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

// MissingFieldError creates a missing field error
func MissingFieldError(field string) *AppError {
	return New(ErrCodeMissingField, fmt.Sprintf("required field '%s' is missing", field)).
		WithDetail("field", field)
}

// IOError creates a filesystem error
func IOError(operation string, path string, cause error) *AppError {
	return Wrap(cause, ErrCodeIO, fmt.Sprintf("filesystem %s failed", operation)).
		WithDetail("operation", operation).
		WithDetail("path", path)
}

// NetworkError creates a remote fetch error
func NetworkError(url string, cause error) *AppError {
	return Wrap(cause, ErrCodeNetwork, "remote fetch failed").
		WithDetail("url", url)
}

// ExternalToolError creates an external tool error
func ExternalToolError(tool string, cause error) *AppError {
	return Wrap(cause, ErrCodeExternalTool, fmt.Sprintf("external tool '%s' failed", tool)).
		WithDetail("tool", tool)
}

// DatabaseError creates a database error
func DatabaseError(operation string, cause error) *AppError {
	return Wrap(cause, ErrCodeDatabase, fmt.Sprintf("database %s failed", operation)).
		WithDetail("operation", operation)
}

// ConsistencyError creates an error for state that contradicts persisted records
func ConsistencyError(what string, reason string) *AppError {
	return New(ErrCodeConsistency, fmt.Sprintf("inconsistent state in %s: %s", what, reason)).
		WithDetail("subject", what).
		WithDetail("reason", reason)
}

// PartialBatchError creates an error for a batch where some items failed
func PartialBatchError(operation string, failed, total int) *AppError {
	return Newf(ErrCodePartialBatch, "%s completed with %d of %d items failed", operation, failed, total).
		WithDetail("operation", operation).
		WithDetail("failed", failed).
		WithDetail("total", total)
}

// Is checks if an error is of a specific type
func Is(err error, code ErrorCode) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}

// GetHTTPCode extracts the HTTP status code from an error
func GetHTTPCode(err error) int {
	if appErr, ok := err.(*AppError); ok {
		return appErr.GetHTTPCode()
	}
	return http.StatusInternalServerError
}
