package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies an application error for the request handler
type Kind string

const (
	KindValidation         Kind = "validation"
	KindDuplicateEmail     Kind = "duplicate_email"
	KindNotFound           Kind = "not_found"
	KindStorageUnavailable Kind = "storage_unavailable"
	KindInvalidRequest     Kind = "invalid_request"
)

// GenericMessage is shown to users when the underlying cause must stay hidden
const GenericMessage = "Something went wrong. Please try again later."

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    int    `json:"code"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	// Err is the internal cause. It is never rendered unless debug output is enabled.
	Err error `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// ErrInvalidMethod rejects a form submission that did not arrive as POST
var ErrInvalidMethod = &AppError{Code: http.StatusMethodNotAllowed, Kind: KindInvalidRequest, Message: "Invalid request method."}

// NewValidationError creates a user-correctable field error
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    http.StatusUnprocessableEntity,
		Kind:    KindValidation,
		Message: message,
	}
}

// NewDuplicateEmailError creates a uniqueness conflict error
func NewDuplicateEmailError(message string) *AppError {
	return &AppError{
		Code:    http.StatusConflict,
		Kind:    KindDuplicateEmail,
		Message: message,
	}
}

// NewNotFoundError creates a not found error with a custom message
func NewNotFoundError(resource string) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Kind:    KindNotFound,
		Message: resource + " not found.",
	}
}

// NewInvalidRequestError creates a malformed request error
func NewInvalidRequestError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Kind:    KindInvalidRequest,
		Message: message,
	}
}

// NewStorageError hides a storage failure behind the generic message
func NewStorageError(cause error) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Kind:    KindStorageUnavailable,
		Message: GenericMessage,
		Err:     cause,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// IsKind reports whether err is an AppError of the given kind
func IsKind(err error, kind Kind) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind == kind
	}
	return false
}

// GetAppError converts an error to AppError if possible.
// Anything without a narrower mapping is treated as storage unavailable.
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewStorageError(err)
}

// Detail returns the message, followed by the internal cause when debug is set
func Detail(err error, debug bool) string {
	appErr := GetAppError(err)
	if !debug || appErr.Err == nil {
		return appErr.Message
	}
	return appErr.Message + " (" + appErr.Err.Error() + ")"
}
