package errorx

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryValidation     ErrorCategory = "validation"
	CategoryAuthentication ErrorCategory = "authentication"
	CategoryAuthorization  ErrorCategory = "authorization"
	CategoryNotFound       ErrorCategory = "not_found"
	CategoryConfiguration  ErrorCategory = "configuration"
	CategoryInternal       ErrorCategory = "internal"
)

// Severity represents the severity level of an error
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// APIError represents a structured error with enough information for the
// transport layer to produce a response without leaking internals.
type APIError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Category   ErrorCategory  `json:"category"`
	Severity   Severity       `json:"severity"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	TraceID    string         `json:"trace_id,omitempty"`
	Timestamp  string         `json:"timestamp,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Category, e.Message)
}

// JSON returns the error as a JSON string
func (e *APIError) JSON() string {
	out, _ := json.Marshal(e)
	return string(out)
}

// WithDetail adds a detail to the error
func (e *APIError) WithDetail(key string, value any) *APIError {
	clone := *e
	if clone.Details == nil {
		clone.Details = make(map[string]any, 1)
	} else {
		clone.Details = make(map[string]any, len(e.Details)+1)
		for k, v := range e.Details {
			clone.Details[k] = v
		}
	}
	clone.Details[key] = value
	return &clone
}

// WithTraceID adds a trace ID to the error
func (e *APIError) WithTraceID(traceID string) *APIError {
	clone := *e
	clone.TraceID = traceID
	return &clone
}

// Common errors. Authentication failures deliberately share one generic
// message so callers cannot distinguish a bad password from an expired token.
var (
	// Validation (E1000-E1999)
	ErrInvalidInput = &APIError{
		Code:       "E1001",
		Message:    "invalid input provided",
		Category:   CategoryValidation,
		Severity:   SeverityError,
		HTTPStatus: http.StatusBadRequest,
	}

	ErrScoreOutOfRange = &APIError{
		Code:       "E1002",
		Message:    "score must be an integer between 1 and 10",
		Category:   CategoryValidation,
		Severity:   SeverityError,
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidLimit = &APIError{
		Code:       "E1003",
		Message:    "limit must be between 1 and 100",
		Category:   CategoryValidation,
		Severity:   SeverityError,
		HTTPStatus: http.StatusBadRequest,
	}

	// Authentication (E2000-E2999)
	ErrUnauthorized = &APIError{
		Code:       "E2001",
		Message:    "unauthorized",
		Category:   CategoryAuthentication,
		Severity:   SeverityError,
		HTTPStatus: http.StatusUnauthorized,
	}

	// Authorization (E3000-E3999)
	ErrForbidden = &APIError{
		Code:       "E3001",
		Message:    "access denied",
		Category:   CategoryAuthorization,
		Severity:   SeverityError,
		HTTPStatus: http.StatusForbidden,
	}

	ErrScholarshipForbidden = &APIError{
		Code:       "E3002",
		Message:    "scholarship is not in the user's scope",
		Category:   CategoryAuthorization,
		Severity:   SeverityError,
		HTTPStatus: http.StatusForbidden,
	}

	// Not found (E4000-E4999)
	ErrResourceNotFound = &APIError{
		Code:       "E4001",
		Message:    "requested resource not found",
		Category:   CategoryNotFound,
		Severity:   SeverityError,
		HTTPStatus: http.StatusNotFound,
	}

	// Internal (E5000-E5999)
	ErrInternalServer = &APIError{
		Code:       "E5001",
		Message:    "internal server error occurred",
		Category:   CategoryInternal,
		Severity:   SeverityCritical,
		HTTPStatus: http.StatusInternalServerError,
	}

	// Configuration (E6000-E6999)
	ErrInvalidConfiguration = &APIError{
		Code:       "E6001",
		Message:    "configuration source is missing or structurally invalid",
		Category:   CategoryConfiguration,
		Severity:   SeverityCritical,
		HTTPStatus: http.StatusInternalServerError,
	}
)
