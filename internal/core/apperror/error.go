// Package apperror defines the error taxonomy shared by the tag engine, the
// stores and the HTTP layer. Each code maps to one HTTP status, so handlers
// can pass engine errors through unchanged.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Request problems (400)
	CodeValidation = "VALIDATION_ERROR"

	// Tag generation (422, 409, 500)
	CodeTagValidation        = "TAG_VALIDATION_FAILED"
	CodeTagUniqueness        = "TAG_UNIQUENESS_CONFLICT"
	CodeTagGenerationFailure = "TAG_GENERATION_FAILED"

	// Scan payloads (422)
	CodePayloadInvalid = "PAYLOAD_INVALID"
	CodePayloadExpired = "PAYLOAD_EXPIRED"

	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
)

// AppError is a coded error with client-safe Message and Details. Err holds
// the cause for logs and errors.Is/As; it is never rendered.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Details    map[string]any `json:"details,omitempty"`
	HTTPStatus int            `json:"-"`
	Err        error          `json:"-"`
}

// Error renders code, message and cause for logs.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail sets one client-visible detail.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause attaches err as the logged cause.
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// NewValidation rejects a malformed request or settings document.
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound reports a missing farm setting, tag or similar record.
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal wraps err behind a generic message.
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewDatabase wraps a store failure.
func NewDatabase(op string, err error) *AppError {
	return &AppError{
		Code:       CodeDatabase,
		Message:    fmt.Sprintf("database operation %s failed", op),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"operation": op},
		Err:        err,
	}
}

// NewTagValidation is raised when a generated candidate breaks structural
// or symbology rules. Problems lists every rule the candidate failed.
func NewTagValidation(candidate string, problems []string) *AppError {
	return &AppError{
		Code:       CodeTagValidation,
		Message:    "generated tag failed validation",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"candidate": candidate, "problems": problems},
	}
}

// NewTagUniqueness is raised when a candidate already exists for the farm.
func NewTagUniqueness(farmID, candidate string) *AppError {
	return &AppError{
		Code:       CodeTagUniqueness,
		Message:    "tag number already in use",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"farm_id": farmID, "candidate": candidate},
	}
}

// NewTagGenerationFailure covers every other generation error: missing
// settings, unreachable store, malformed configuration.
func NewTagGenerationFailure(message string, err error) *AppError {
	return &AppError{
		Code:       CodeTagGenerationFailure,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewPayloadInvalid rejects a scan payload that does not parse.
func NewPayloadInvalid(message string) *AppError {
	return &AppError{
		Code:       CodePayloadInvalid,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewPayloadExpired rejects a payload older than the configured window.
func NewPayloadExpired(age string) *AppError {
	return &AppError{
		Code:       CodePayloadExpired,
		Message:    "scan payload is too old",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"age": age},
	}
}

// NewUnauthorized reports a missing or invalid token.
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden reports a role or farm mismatch.
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// AsAppError finds the first AppError in the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns the status for err: its AppError status, or 500 for
// anything else.
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok && appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound is HasCode for its code.
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsTagValidation is HasCode for its code.
func IsTagValidation(err error) bool {
	return HasCode(err, CodeTagValidation)
}

// IsTagUniqueness is HasCode for its code.
func IsTagUniqueness(err error) bool {
	return HasCode(err, CodeTagUniqueness)
}

// IsTagGenerationFailure is HasCode for its code.
func IsTagGenerationFailure(err error) bool {
	return HasCode(err, CodeTagGenerationFailure)
}
