package core

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const (
	// ErrCodeInvalidResourceType is returned when a resource type is unknown.
	ErrCodeInvalidResourceType = "INVALID_RESOURCE_TYPE"
	// ErrCodeMissingSearchField is returned when a search type lacks a required parameter.
	ErrCodeMissingSearchField = "MISSING_SEARCH_FIELD"
	// ErrCodeFieldCollision is returned when multiple aliases target the same attribute.
	ErrCodeFieldCollision = "FIELD_COLLISION"
	// ErrCodeStageMismatch is returned in strict mode when a stage value matches no option.
	ErrCodeStageMismatch = "STAGE_MISMATCH"
	// ErrCodeVerificationFailed is returned in strict mode when post-write values diverge.
	ErrCodeVerificationFailed = "VERIFICATION_FAILED"
	// ErrCodeNotFound is returned when a record ID is known to be invalid.
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeUpstreamFailure is returned for non-success upstream responses.
	ErrCodeUpstreamFailure = "UPSTREAM_FAILURE"
	// ErrCodeInvalidConfig is returned for malformed configuration.
	ErrCodeInvalidConfig = "INVALID_CONFIG"
)

// AdapterError is a structured adapter-layer error that carries a
// machine-readable code, user-facing message, and optional suggestion
// details without losing the wrapped cause.
type AdapterError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
	Cause   error          `json:"-"`
}

func (e *AdapterError) Error() string {
	if e == nil {
		return ""
	}
	code := strings.TrimSpace(e.Code)
	msg := strings.TrimSpace(e.Message)
	switch {
	case code == "" && msg == "":
		return ErrCodeUpstreamFailure
	case code == "":
		return msg
	case msg == "":
		return code
	default:
		return fmt.Sprintf("%s: %s", code, msg)
	}
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *AdapterError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewAdapterError creates an AdapterError with the given code and message.
func NewAdapterError(code, format string, args ...any) *AdapterError {
	return &AdapterError{
		Code:    strings.TrimSpace(code),
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetails attaches suggestion/context details and returns the error.
func (e *AdapterError) WithDetails(details map[string]any) *AdapterError {
	if e == nil || len(details) == 0 {
		return e
	}
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithCause attaches a wrapped cause and returns the error.
func (e *AdapterError) WithCause(cause error) *AdapterError {
	if e == nil {
		return nil
	}
	e.Cause = cause
	return e
}

// AdapterErrorCode extracts the code from an error chain, or "".
func AdapterErrorCode(err error) string {
	var ae *AdapterError
	if errors.As(err, &ae) && ae != nil {
		return ae.Code
	}
	return ""
}

// APIError is a status-coded error returned by executor, writer, and
// fetcher collaborators. The adapter layer uses the status to split
// downstream failures into recoverable and unrecoverable.
type APIError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewAPIError creates an APIError with the given HTTP status and message.
func NewAPIError(status int, format string, args ...any) *APIError {
	return &APIError{
		StatusCode: status,
		Message:    fmt.Sprintf(format, args...),
	}
}

// IsNotFound reports whether the error chain contains a 404 APIError.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsRecoverableSearchError reports whether a downstream search failure
// should degrade to an empty result set. Missing or unsupported endpoints
// vary per deployment; search stays best-effort for those.
func IsRecoverableSearchError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.StatusCode {
	case http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusNotImplemented:
		return true
	}
	return false
}
