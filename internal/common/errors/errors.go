// Package errors provides standardized error handling for the HTTP surface.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidRequest   ErrorCode = "INVALID_REQUEST"

	ErrCodeExtractionFailed ErrorCode = "EXTRACTION_FAILED"
	ErrCodeLLMFailed        ErrorCode = "LLM_FAILED"
	ErrCodeLLMTimeout       ErrorCode = "LLM_TIMEOUT"

	ErrCodeRemoteServiceError ErrorCode = "REMOTE_SERVICE_ERROR"
	ErrCodeCSRFFetchFailed    ErrorCode = "CSRF_FETCH_FAILED"
	ErrCodeRemoteTimeout      ErrorCode = "REMOTE_TIMEOUT"

	ErrCodeRateLimited   ErrorCode = "RATE_LIMITED"
	ErrCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata attaches a key to the error metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationError reports the required fields missing from an entity map.
func NewValidationError(missing []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   fmt.Sprintf("Missing required field(s): %s", strings.Join(missing, ", ")),
		Retryable: false,
		Metadata:  map[string]interface{}{"missing": missing},
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidRequestError is returned for malformed request bodies.
func NewInvalidRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidRequest,
		Message:   "Invalid request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewExtractionError is returned when model output carries no parseable JSON object.
func NewExtractionError(domain string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeExtractionFailed,
		Message:   "invalid upstream response",
		Details:   fmt.Sprintf("domain: %s, error: %s", domain, errString(err)),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewLLMError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMFailed,
		Message:   "Language model request failed",
		Details:   errString(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewLLMTimeoutError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLLMTimeout,
		Message:   "Language model request timed out",
		Details:   errString(err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRemoteServiceError carries the remote status and body of a failed call.
func NewRemoteServiceError(operation string, status int, body string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRemoteServiceError,
		Message:   fmt.Sprintf("SAP %s failed with status %d", operation, status),
		Details:   body,
		Retryable: status >= 500,
		Metadata: map[string]interface{}{
			"operation":    operation,
			"remoteStatus": status,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewRemoteTransportError wraps a failure that produced no HTTP response.
func NewRemoteTransportError(operation string, err error) *StandardError {
	if IsTimeout(err) {
		return &StandardError{
			Code:      ErrCodeRemoteTimeout,
			Message:   fmt.Sprintf("SAP %s timed out", operation),
			Details:   errString(err),
			Retryable: true,
			Metadata:  map[string]interface{}{"operation": operation},
			Timestamp: time.Now().UTC(),
		}
	}
	return &StandardError{
		Code:      ErrCodeRemoteServiceError,
		Message:   fmt.Sprintf("SAP %s request failed", operation),
		Details:   errString(err),
		Retryable: true,
		Metadata:  map[string]interface{}{"operation": operation},
		Timestamp: time.Now().UTC(),
	}
}

func NewCSRFFetchError(status int, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCSRFFetchFailed,
		Message:   "Failed to fetch CSRF token",
		Details:   details,
		Retryable: true,
		Metadata:  map[string]interface{}{"remoteStatus": status},
		Timestamp: time.Now().UTC(),
	}
}

func NewRateLimitedError() *StandardError {
	return &StandardError{
		Code:      ErrCodeRateLimited,
		Message:   "Too many requests",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternalError,
		Message:   "Internal server error",
		Details:   errString(err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. HTTP Mapping
// ==========================

// HTTPStatus returns the response status for an error code.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeValidationFailed, ErrCodeInvalidRequest, ErrCodeExtractionFailed:
		return http.StatusBadRequest
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeRemoteServiceError, ErrCodeCSRFFetchFailed, ErrCodeLLMFailed:
		return http.StatusBadGateway
	case ErrCodeRemoteTimeout, ErrCodeLLMTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// ==========================
// 4. Utility Functions
// ==========================

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// IsCode reports whether err is a StandardError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return stderrors.As(err, &stdErr) && stdErr.Code == code
}

// IsTimeout reports whether err is a context deadline or network timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	case strings.Contains(codeStr, "EXTRACTION") || strings.Contains(codeStr, "LLM"):
		return "AI"
	case strings.Contains(codeStr, "REMOTE") || strings.Contains(codeStr, "CSRF"):
		return "SAP"
	case strings.Contains(codeStr, "RATE"):
		return "THROTTLE"
	default:
		return "OTHER"
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
