// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes following domain-driven design
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"
	CodeTimeout  = "TIMEOUT_ERROR"

	// Validation errors (400)
	CodeValidation       = "VALIDATION_ERROR"
	CodeInvalidQuantity  = "INVALID_QUANTITY"
	CodeEmptyOperation   = "EMPTY_OPERATION"
	CodeInvalidDateRange = "INVALID_DATE_RANGE"

	// Business rule violations (422)
	CodeInvalidState            = "INVALID_STATE"
	CodeInvalidSRNState         = "INVALID_SRN_STATE"
	CodeInsufficientAvailable   = "INSUFFICIENT_AVAILABLE"
	CodeInsufficientBlocked     = "INSUFFICIENT_BLOCKED"
	CodeImmutableField          = "IMMUTABLE_FIELD"
	CodeMaterialInactive        = "MATERIAL_INACTIVE"
	CodeReceivedExceedsExpected = "RECEIVED_EXCEEDS_EXPECTED"
	CodeNoActiveAssignment      = "NO_ACTIVE_ASSIGNMENT"
	CodeConcurrentModification  = "CONCURRENT_MODIFICATION"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict           = "CONFLICT"
	CodeDuplicateReference = "DUPLICATE_REFERENCE"
	CodeLockNotObtained    = "LOCK_NOT_OBTAINED"
)

// AppError is the standard error type for the platform.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidQuantity is returned when a quantity argument is negative.
func NewInvalidQuantity(field string, value int64) *AppError {
	return &AppError{
		Code:       CodeInvalidQuantity,
		Message:    fmt.Sprintf("%s must not be negative", field),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"field": field, "value": value},
	}
}

// NewEmptyOperation is returned when every quantity of a mutation is zero.
func NewEmptyOperation(operation string) *AppError {
	return &AppError{
		Code:       CodeEmptyOperation,
		Message:    "at least one of packets or loose units must be positive",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"operation": operation},
	}
}

// NewInvalidDateRange creates a date ordering error (400)
func NewInvalidDateRange(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidDateRange,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewInvalidState is returned when a transition is not allowed from the current status.
func NewInvalidState(entity, current, action string) *AppError {
	return &AppError{
		Code:       CodeInvalidState,
		Message:    fmt.Sprintf("cannot %s %s in status %s", action, entity, current),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"entity": entity, "status": current, "action": action},
	}
}

// NewInsufficientAvailable creates an over-allocation error.
func NewInsufficientAvailable(materialID string, requestedPackets, requestedLoose, availablePackets, availableLoose int64) *AppError {
	return &AppError{
		Code:       CodeInsufficientAvailable,
		Message:    "Insufficient available stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"material_id":       materialID,
			"requested_packets": requestedPackets,
			"requested_loose":   requestedLoose,
			"available_packets": availablePackets,
			"available_loose":   availableLoose,
		},
	}
}

// NewInsufficientBlocked is returned when an unblock or dispatch exceeds reserved stock.
func NewInsufficientBlocked(materialID string, requestedPackets, requestedLoose, blockedPackets, blockedLoose int64) *AppError {
	return &AppError{
		Code:       CodeInsufficientBlocked,
		Message:    "Insufficient blocked stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"material_id":       materialID,
			"requested_packets": requestedPackets,
			"requested_loose":   requestedLoose,
			"blocked_packets":   blockedPackets,
			"blocked_loose":     blockedLoose,
		},
	}
}

// NewImmutableField creates an error for attempts to change a locked field.
func NewImmutableField(entity, field string) *AppError {
	return &AppError{
		Code:       CodeImmutableField,
		Message:    fmt.Sprintf("%s.%s cannot be changed", entity, field),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"entity": entity, "field": field},
	}
}

// NewConcurrentModification creates an optimistic locking error
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified by another user. Please refresh and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate reference error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicateReference,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// NewLockNotObtained is returned when a keyed lock could not be acquired in time.
func NewLockNotObtained(key string) *AppError {
	return &AppError{
		Code:       CodeLockNotObtained,
		Message:    "Resource is busy, retry the operation",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"key": key},
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// Is reports whether err carries an AppError with the given code.
func Is(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return Is(err, CodeNotFound)
}

// IsConcurrentModification checks if error is CodeConcurrentModification
func IsConcurrentModification(err error) bool {
	return Is(err, CodeConcurrentModification)
}
