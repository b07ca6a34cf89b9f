// Package apperror provides structured error handling following RFC 7807 Problem Details.
// Every failure leaving the ledger core is an AppError with a machine-readable code.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes of the ledger taxonomy.
const (
	// Infrastructure errors (5xx)
	CodeInternal          = "INTERNAL_ERROR"
	CodeTransactionFailed = "TRANSACTION_FAILED"

	// Validation errors (400)
	CodeValidation      = "VALIDATION_ERROR"
	CodeInvalidCode     = "INVALID_CODE"
	CodeInvalidQuantity = "INVALID_QUANTITY"
	CodeSameLocation    = "SAME_LOCATION"

	// Business rule violations (422)
	CodeUnknownSource      = "UNKNOWN_SOURCE"
	CodeUnknownDestination = "UNKNOWN_DESTINATION"
	CodeInsufficientStock  = "INSUFFICIENT_STOCK"
	CodeSchemaMismatch     = "SCHEMA_MISMATCH"
	CodeRowProcessing      = "ROW_PROCESSING_ERROR"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeDuplicateCode = "DUPLICATE_CODE"
	CodeHasHistory    = "HAS_HISTORY"

	CodeDuplicateReport  = "DUPLICATE_REPORT"
	CodeIngestInProgress = "INGEST_IN_PROGRESS"
)

// AppError is the standard error type for the ledger.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (codes, quantities, etc.)
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

// --- Factory functions ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidCode is returned for empty, short or reserved location codes.
func NewInvalidCode(code, reason string) *AppError {
	return &AppError{
		Code:       CodeInvalidCode,
		Message:    reason,
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"code": code},
	}
}

// NewInvalidQuantity is returned when a movement quantity is not positive.
func NewInvalidQuantity(quantity int64) *AppError {
	return &AppError{
		Code:       CodeInvalidQuantity,
		Message:    "Quantity must be positive",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"quantity": quantity},
	}
}

// NewQuantityOverflow is returned when applying a quantity would leave an
// account balance outside the int64 range.
func NewQuantityOverflow(code string, quantity int64) *AppError {
	return &AppError{
		Code:       CodeInvalidQuantity,
		Message:    fmt.Sprintf("Quantity %d exceeds the balance range at %s", quantity, code),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"quantity": quantity, "location": code},
	}
}

// NewSameLocation is returned when source and destination resolve to one account.
func NewSameLocation(code string) *AppError {
	return &AppError{
		Code:       CodeSameLocation,
		Message:    "Source and destination cannot be the same",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"location": code},
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

// NewUnknownSource is returned when the debited location has no balance row.
func NewUnknownSource(code string) *AppError {
	return &AppError{
		Code:       CodeUnknownSource,
		Message:    fmt.Sprintf("Source location %s not found", code),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"location": code},
	}
}

// NewUnknownDestination is returned when the credited location is not registered.
func NewUnknownDestination(code string) *AppError {
	return &AppError{
		Code:       CodeUnknownDestination,
		Message:    fmt.Sprintf("Destination location %s not found", code),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"location": code},
	}
}

// NewInsufficientStock creates a stock shortage error
func NewInsufficientStock(code string, requested, available int64) *AppError {
	return &AppError{
		Code:       CodeInsufficientStock,
		Message:    fmt.Sprintf("Insufficient stock at %s. Available: %d", code, available),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"location":  code,
			"requested": requested,
			"available": available,
		},
	}
}

// NewDuplicateCode creates a duplicate location code error (409)
func NewDuplicateCode(code string) *AppError {
	return &AppError{
		Code:       CodeDuplicateCode,
		Message:    fmt.Sprintf("Location code %s already exists", code),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"code": code},
	}
}

// NewHasHistory is returned when removing a location that movements reference.
func NewHasHistory(code string, movements int64) *AppError {
	return &AppError{
		Code:       CodeHasHistory,
		Message:    fmt.Sprintf("Location %s has %d historical movements and cannot be removed", code, movements),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"code": code, "movements": movements},
	}
}

// NewDuplicateReport is returned when a report for the same file hash exists.
func NewDuplicateReport(fileHash string) *AppError {
	return &AppError{
		Code:       CodeDuplicateReport,
		Message:    "Source file was already ingested",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"file_hash": fileHash},
	}
}

// NewIngestInProgress is returned while another run holds the claim on a file hash.
func NewIngestInProgress(fileHash string) *AppError {
	return &AppError{
		Code:       CodeIngestInProgress,
		Message:    "Source file is already being ingested",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"file_hash": fileHash},
	}
}

// NewSchemaMismatch is returned when the ingestion header lacks required fields.
func NewSchemaMismatch(missing []string) *AppError {
	return &AppError{
		Code:       CodeSchemaMismatch,
		Message:    fmt.Sprintf("Missing required columns: %v", missing),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"missing": missing},
	}
}

// NewRowProcessing wraps a failure of one ingestion row.
func NewRowProcessing(row int, message string) *AppError {
	return &AppError{
		Code:       CodeRowProcessing,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"row": row},
	}
}

// NewTransactionFailed hides a storage failure of an atomic step.
func NewTransactionFailed(err error) *AppError {
	return &AppError{
		Code:       CodeTransactionFailed,
		Message:    "Transaction failed and was rolled back",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
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

// IsCode reports whether err carries the given AppError code.
func IsCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return IsCode(err, CodeNotFound)
}

// Message returns the client-facing message of err.
func Message(err error) string {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Message
	}
	return err.Error()
}
