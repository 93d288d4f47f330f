// Package errors provides custom error types for the TallyTalk API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// Authentication & authorization errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid email or password", StatusCode: http.StatusUnauthorized}
	ErrForbidden          = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// User errors.
var (
	ErrUserNotFound   = &AppError{Code: "USER_NOT_FOUND", Message: "User not found", StatusCode: http.StatusNotFound}
	ErrDuplicateEmail = &AppError{Code: "DUPLICATE_EMAIL", Message: "A user with this email already exists", StatusCode: http.StatusConflict}
)

// Category errors.
var (
	ErrCategoryNotFound = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrCategoryReadOnly = &AppError{Code: "CATEGORY_READ_ONLY", Message: "Default categories cannot be modified", StatusCode: http.StatusForbidden}
	ErrCategoryInUse    = &AppError{Code: "CATEGORY_IN_USE", Message: "Category is used by existing transactions", StatusCode: http.StatusConflict}
)

// Transaction errors.
var (
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidAmount       = &AppError{Code: "INVALID_AMOUNT", Message: "Amount must be greater than zero", StatusCode: http.StatusBadRequest}
	ErrEmptyBatch          = &AppError{Code: "EMPTY_BATCH", Message: "Nothing to save", StatusCode: http.StatusBadRequest}
)

// Voice pipeline errors. TranscriptionFailed and ExtractionFailed cover the
// case where the speech service was reachable but returned an application
// error; TransportFailure covers the service being unreachable entirely.
var (
	ErrPayloadTooLarge     = &AppError{Code: "PAYLOAD_TOO_LARGE", Message: "Recording is too large. Please record a shorter message", StatusCode: http.StatusRequestEntityTooLarge}
	ErrInvalidAudioPayload = &AppError{Code: "INVALID_AUDIO_PAYLOAD", Message: "Audio payload is missing or not valid base64", StatusCode: http.StatusBadRequest}
	ErrTransportFailure    = &AppError{Code: "TRANSPORT_FAILURE", Message: "Speech service is unreachable. Please try again", StatusCode: http.StatusBadGateway}
	ErrTranscriptionFailed = &AppError{Code: "TRANSCRIPTION_FAILED", Message: "Could not understand audio. Please speak more clearly", StatusCode: http.StatusBadRequest}
	ErrExtractionFailed    = &AppError{Code: "EXTRACTION_FAILED", Message: "Could not extract transactions from the recording", StatusCode: http.StatusBadRequest}
)

// Audio capture errors.
var (
	ErrPermissionDenied = &AppError{Code: "PERMISSION_DENIED", Message: "Microphone access was denied", StatusCode: http.StatusForbidden}
	ErrNoActiveSession  = &AppError{Code: "NO_ACTIVE_SESSION", Message: "No recording in progress", StatusCode: http.StatusConflict}
)

// Review session errors.
var (
	ErrReviewNotFound     = &AppError{Code: "REVIEW_NOT_FOUND", Message: "Review session not found or expired", StatusCode: http.StatusNotFound}
	ErrReviewConflict     = &AppError{Code: "REVIEW_CONFLICT", Message: "Review session is not in a reviewable state", StatusCode: http.StatusConflict}
	ErrReviewItemNotFound = &AppError{Code: "REVIEW_ITEM_NOT_FOUND", Message: "Review item index out of range", StatusCode: http.StatusNotFound}
	ErrParseInFlight      = &AppError{Code: "PARSE_IN_FLIGHT", Message: "A voice parse is already being processed", StatusCode: http.StatusConflict}
)
