package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError represents validation errors
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors represents multiple validation errors
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Error codes.
const (
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeInvalidWindow    = "INVALID_WINDOW"
	CodeUnknownKind      = "UNKNOWN_SOURCE_KIND"
	CodeNotFound         = "NOT_FOUND"
	CodeSessionNotFound  = "SESSION_NOT_FOUND"
	CodeMissingData      = "MISSING_DATA"
	CodeNoUsableFiles    = "NO_USABLE_FILES"
	CodePayloadTooLarge  = "PAYLOAD_TOO_LARGE"
	CodeRateLimit        = "RATE_LIMIT_EXCEEDED"
	CodeInternal         = "INTERNAL_SERVER_ERROR"
)

// InvalidRequestWithError creates an invalid request error with details
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", err.Error())
}

// ErrValidation creates a validation error with field details
func ErrValidation(field, message string) *APIError {
	return NewValidationErrors([]ValidationError{{Field: field, Message: message}})
}

// NewValidationErrors creates validation errors from multiple fields
func NewValidationErrors(errors []ValidationError) *APIError {
	return NewWithDetails(
		http.StatusBadRequest,
		CodeValidationFailed,
		"Request validation failed",
		ValidationErrors{Errors: errors},
	)
}

// InvalidWindow reports a selection window that cannot be used.
func InvalidWindow(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidWindow, "Invalid selection window", err.Error())
}

// UnknownSourceKind reports a data type other than GGSN or IX.
func UnknownSourceKind(kind string) *APIError {
	return New(http.StatusBadRequest, CodeUnknownKind, fmt.Sprintf("Unknown data type %q, expected GGSN or IX", kind))
}

// SessionNotFound reports an unknown or expired session.
func SessionNotFound(id string) *APIError {
	return NewWithDetails(http.StatusNotFound, CodeSessionNotFound, "Session not found or expired", id)
}

// MissingData reports that the requested data type was never uploaded.
func MissingData(message string) *APIError {
	return New(http.StatusUnprocessableEntity, CodeMissingData, message)
}

// NoUsableFiles reports an upload from which no dataset could be loaded.
func NoUsableFiles(warnings []string) *APIError {
	return NewWithDetails(http.StatusUnprocessableEntity, CodeNoUsableFiles, "None of the uploaded files could be used", warnings)
}

// PayloadTooLarge reports an upload over the size limit.
func PayloadTooLarge(limit int64) *APIError {
	return NewWithDetails(http.StatusRequestEntityTooLarge, CodePayloadTooLarge,
		"Request body exceeds maximum allowed size", map[string]interface{}{"max_size": limit})
}

// NewInternalError creates a simple internal server error
func NewInternalError(message string) *APIError {
	return New(http.StatusInternalServerError, CodeInternal, message)
}
