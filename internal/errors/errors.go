package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/aashari/go-selection-relay/internal/logger"
)

// ErrorType represents different types of errors
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation_error"
	ErrorTypeNotFound      ErrorType = "not_found_error"
	ErrorTypeMethod        ErrorType = "method_not_allowed"
	ErrorTypeInternal      ErrorType = "internal_error"
	ErrorTypeExternal      ErrorType = "external_error"
	ErrorTypeConfiguration ErrorType = "configuration_error"
	ErrorTypeStorage       ErrorType = "storage_error"
	ErrorTypeAuthorization ErrorType = "authorization_error"
)

// APIError represents a structured API error
type APIError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Details string    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// ErrorResponse represents the JSON error response format
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// NewAPIError creates a new APIError
func NewAPIError(errorType ErrorType, message string) *APIError {
	return &APIError{
		Type:    errorType,
		Message: message,
	}
}

// NewAuthorizationError creates an error for rejected callers
func NewAuthorizationError(message string) *APIError {
	return NewAPIError(ErrorTypeAuthorization, message)
}

// NewFieldError creates a validation error bound to a request field
func NewFieldError(field, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeValidation,
		Message: message,
		Field:   field,
	}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *APIError {
	return NewAPIError(ErrorTypeValidation, message)
}

// NewInternalError creates an internal error
func NewInternalError(message string) *APIError {
	return NewAPIError(ErrorTypeInternal, message)
}

// NewExternalError creates an external service error
func NewExternalError(message string) *APIError {
	return NewAPIError(ErrorTypeExternal, message)
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(message string) *APIError {
	return NewAPIError(ErrorTypeConfiguration, message)
}

// NewStorageError creates a configuration store error
func NewStorageError(message string) *APIError {
	return NewAPIError(ErrorTypeStorage, message)
}

// HandleError writes a standardized error response to the HTTP response writer
func HandleError(w http.ResponseWriter, err error, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	var apiError *APIError
	if !stderrors.As(err, &apiError) {
		apiError = inferErrorType(err, statusCode)
	}

	response := ErrorResponse{Error: *apiError}

	if jsonBytes, jsonErr := json.Marshal(response); jsonErr == nil {
		w.Write(jsonBytes)
	} else {
		logger.Error("Error marshaling error response", "error", jsonErr)
		w.Write([]byte(`{"error":{"type":"internal_error","message":"Internal server error"}}`))
	}

	logger.Error("API Error",
		"status_code", statusCode,
		"error_type", string(apiError.Type),
		"message", apiError.Message,
	)
}

// inferErrorType attempts to infer the error type based on the status code
func inferErrorType(err error, statusCode int) *APIError {
	message := err.Error()

	switch statusCode {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return NewAPIError(ErrorTypeValidation, message)
	case http.StatusUnauthorized, http.StatusForbidden:
		return NewAPIError(ErrorTypeAuthorization, message)
	case http.StatusNotFound:
		return NewAPIError(ErrorTypeNotFound, message)
	case http.StatusMethodNotAllowed:
		return NewAPIError(ErrorTypeMethod, message)
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return NewAPIError(ErrorTypeExternal, message)
	default:
		return NewAPIError(ErrorTypeInternal, message)
	}
}
