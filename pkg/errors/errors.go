package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"gorm.io/gorm"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeInvalidConstraint ErrorType = "invalid_constraint"
	ErrorTypeValidation        ErrorType = "validation"
	ErrorTypeNotFound          ErrorType = "not_found"
	ErrorTypeConflict          ErrorType = "conflict"
	ErrorTypeConflictInvariant ErrorType = "conflict_invariant"
	ErrorTypeUnauthorized      ErrorType = "unauthorized"
	ErrorTypeForbidden         ErrorType = "forbidden"
	ErrorTypeInternal          ErrorType = "internal"
	ErrorTypeDatabase          ErrorType = "database"
)

// Messages surfaced to API clients for auth failures
const (
	MessageForbidden       = "You do not have permission to perform this action."
	MessageUnauthenticated = "Authentication credentials were not provided."
)

// APIError represents a structured API error
type APIError struct {
	Type        ErrorType `json:"type"`
	Code        string    `json:"code"`
	Message     string    `json:"message"`
	Details     string    `json:"details,omitempty"`
	HTTPStatus  int       `json:"-"`
	InternalErr error     `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Message, e.Details, e.Code)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Unwrap returns the underlying error
func (e *APIError) Unwrap() error {
	return e.InternalErr
}

// Is reports whether target is an APIError of the same type and code
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// NewAPIError creates a new API error
func NewAPIError(errorType ErrorType, code, message string, httpStatus int) *APIError {
	return &APIError{
		Type:       errorType,
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// NewAPIErrorWithDetails creates a new API error with details
func NewAPIErrorWithDetails(errorType ErrorType, code, message, details string, httpStatus int) *APIError {
	return &APIError{
		Type:       errorType,
		Code:       code,
		Message:    message,
		Details:    details,
		HTTPStatus: httpStatus,
	}
}

// NewAPIErrorWithCause creates a new API error with an underlying cause
func NewAPIErrorWithCause(errorType ErrorType, code, message string, httpStatus int, cause error) *APIError {
	return &APIError{
		Type:        errorType,
		Code:        code,
		Message:     message,
		HTTPStatus:  httpStatus,
		InternalErr: cause,
	}
}

// Sentinels usable with errors.Is
var (
	ErrInvalidConstraint = NewAPIError(ErrorTypeInvalidConstraint, "INVALID_CONSTRAINT", "", http.StatusBadRequest)
	ErrForbidden         = NewAPIError(ErrorTypeForbidden, "FORBIDDEN", "", http.StatusForbidden)
	ErrNotFound          = NewAPIError(ErrorTypeNotFound, "RESOURCE_NOT_FOUND", "", http.StatusNotFound)
	ErrConflictInvariant = NewAPIError(ErrorTypeConflictInvariant, "CONFLICT_INVARIANT", "", http.StatusConflict)
)

// InvalidConstraintError reports a malformed filter or pagination parameter.
// The parameter name is carried in Details so clients can see what to fix.
func InvalidConstraintError(param, message string) *APIError {
	return NewAPIErrorWithDetails(ErrorTypeInvalidConstraint, "INVALID_CONSTRAINT", message, param, http.StatusBadRequest)
}

// ValidationError creates a validation error
func ValidationError(code, message string) *APIError {
	return NewAPIError(ErrorTypeValidation, code, message, http.StatusBadRequest)
}

// ValidationErrorWithDetails creates a validation error with details
func ValidationErrorWithDetails(code, message, details string) *APIError {
	return NewAPIErrorWithDetails(ErrorTypeValidation, code, message, details, http.StatusBadRequest)
}

// NotFoundError creates a not found error
func NotFoundError(resource string) *APIError {
	return NewAPIError(ErrorTypeNotFound, "RESOURCE_NOT_FOUND", fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// ConflictError creates a conflict error
func ConflictError(message string) *APIError {
	return NewAPIError(ErrorTypeConflict, "RESOURCE_CONFLICT", message, http.StatusConflict)
}

// ConflictInvariantError is returned when a mutation would break a catalog invariant
func ConflictInvariantError(message string) *APIError {
	return NewAPIError(ErrorTypeConflictInvariant, "CONFLICT_INVARIANT", message, http.StatusConflict)
}

// UnauthorizedError creates an unauthorized error
func UnauthorizedError(message string) *APIError {
	return NewAPIError(ErrorTypeUnauthorized, "UNAUTHORIZED", message, http.StatusUnauthorized)
}

// ForbiddenError creates a forbidden error
func ForbiddenError() *APIError {
	return NewAPIError(ErrorTypeForbidden, "FORBIDDEN", MessageForbidden, http.StatusForbidden)
}

// InternalError creates an internal server error
func InternalError(message string) *APIError {
	return NewAPIError(ErrorTypeInternal, "INTERNAL_ERROR", message, http.StatusInternalServerError)
}

// InternalErrorWithCause creates an internal server error with cause
func InternalErrorWithCause(message string, cause error) *APIError {
	return NewAPIErrorWithCause(ErrorTypeInternal, "INTERNAL_ERROR", message, http.StatusInternalServerError, cause)
}

// DatabaseError creates a database error
func DatabaseError(operation string, cause error) *APIError {
	return NewAPIErrorWithCause(ErrorTypeDatabase, "DATABASE_ERROR",
		fmt.Sprintf("Database operation failed: %s", operation),
		http.StatusInternalServerError, cause)
}

// IsAPIError checks if an error is or wraps an APIError
func IsAPIError(err error) bool {
	return GetAPIError(err) != nil
}

// GetAPIError extracts APIError from an error chain
func GetAPIError(err error) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}

// HandleDatabaseError maps storage errors onto API errors
func HandleDatabaseError(err error, resource, operation string) *APIError {
	if err == nil {
		return nil
	}
	if apiErr := GetAPIError(err); apiErr != nil {
		return apiErr
	}
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return NotFoundError(resource)
	}
	if stderrors.Is(err, gorm.ErrDuplicatedKey) {
		return ConflictError(fmt.Sprintf("%s already exists", resource))
	}
	if stderrors.Is(err, gorm.ErrForeignKeyViolated) {
		return ConflictError(fmt.Sprintf("%s references a record that no longer exists", resource))
	}
	return DatabaseError(operation, err)
}

// ErrorResponse represents the JSON structure for error responses
type ErrorResponse struct {
	Error     *APIError `json:"error"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp string    `json:"timestamp"`
}

// NewErrorResponse creates a new error response
func NewErrorResponse(apiErr *APIError, requestID string) *ErrorResponse {
	return &ErrorResponse{
		Error:     apiErr,
		RequestID: requestID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
