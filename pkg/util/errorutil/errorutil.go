package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

// NewUnauthorized reports an authentication-stage failure. cause keeps the
// failure kind available to errors.Is; message is what the caller sees.
func NewUnauthorized(message string, cause error) error {
	return &DomainError{
		Code:       "UNAUTHORIZED",
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
		Err:        cause,
	}
}

// NewForbidden reports an authorization-stage failure.
func NewForbidden(cause error) error {
	return &DomainError{
		Code:       "FORBIDDEN",
		Message:    http.StatusText(http.StatusForbidden),
		HTTPStatus: http.StatusForbidden,
		Err:        cause,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ErrorBody is the JSON shape returned for failed requests.
type ErrorBody struct {
	Timestamp string         `json:"timestamp"`
	Status    int            `json:"status"`
	Error     string         `json:"error"`
	Message   string         `json:"message"`
	Path      string         `json:"path"`
	Details   map[string]any `json:"details,omitempty"`
}

// NewErrorBody renders err for the given request path. It returns nil for 403,
// which is answered with the status alone.
func NewErrorBody(err *DomainError, path string, now time.Time) *ErrorBody {
	if err == nil || err.HTTPStatus == http.StatusForbidden {
		return nil
	}
	return &ErrorBody{
		Timestamp: now.UTC().Format(time.RFC3339),
		Status:    err.HTTPStatus,
		Error:     http.StatusText(err.HTTPStatus),
		Message:   err.Message,
		Path:      path,
		Details:   err.Details,
	}
}
