package apperrors

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ErrorCode represents application-specific error codes
type ErrorCode string

const (
	// Authentication & Authorization
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeInvalidCreds ErrorCode = "INVALID_CREDENTIALS"

	// User Management
	ErrCodeUserNotFound          ErrorCode = "USER_NOT_FOUND"
	ErrCodeUserExists            ErrorCode = "USER_EXISTS"
	ErrCodeInvalidUsername       ErrorCode = "INVALID_USERNAME"
	ErrCodeInvalidRole           ErrorCode = "INVALID_ROLE"
	ErrCodeImmutableAdmin        ErrorCode = "IMMUTABLE_ADMIN"
	ErrCodeUsernameChangeBlocked ErrorCode = "USERNAME_CHANGE_NOT_ALLOWED"

	// Chat
	ErrCodeMessageEmpty    ErrorCode = "MESSAGE_EMPTY"
	ErrCodeTurnInFlight    ErrorCode = "TURN_IN_FLIGHT"
	ErrCodeInvalidImage    ErrorCode = "INVALID_IMAGE"
	ErrCodeExternalService ErrorCode = "EXTERNAL_SERVICE_FAILURE"

	// Storage
	ErrCodeStorageError ErrorCode = "STORAGE_ERROR"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"

	// Rate Limiting
	ErrCodeRateLimited ErrorCode = "RATE_LIMITED"

	// Validation
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"

	// Internal Errors
	ErrCodeInternal       ErrorCode = "INTERNAL_ERROR"
	ErrCodeServiceUnavail ErrorCode = "SERVICE_UNAVAILABLE"
)

// AppError represents a structured application error
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	StatusCode int                    `json:"-"`
	Internal   error                  `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Operation  string                 `json:"-"`
	Context    map[string]interface{} `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Internal)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Internal
}

// Is matches another AppError by code, so sentinel-style comparisons work
// with errors.Is.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithDetails adds contextual details to the error
func (e *AppError) WithDetails(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithInternal wraps an internal error
func (e *AppError) WithInternal(err error) *AppError {
	e.Internal = err
	return e
}

// WithOperation records which operation produced the error
func (e *AppError) WithOperation(op string) *AppError {
	e.Operation = op
	return e
}

// WithContext adds log-only context that is never sent to clients
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// LogFields flattens the error into structured logger fields
func (e *AppError) LogFields() map[string]interface{} {
	fields := map[string]interface{}{
		"error_code": string(e.Code),
		"status":     e.StatusCode,
	}
	if e.Operation != "" {
		fields["operation"] = e.Operation
	}
	if e.Internal != nil {
		fields["internal_error"] = e.Internal.Error()
	}
	for k, v := range e.Details {
		fields["detail_"+k] = v
	}
	for k, v := range e.Context {
		fields[k] = v
	}
	return fields
}

// New creates a new AppError
func New(code ErrorCode, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// HasCode reports whether err is an AppError carrying code
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// FromError converts a standard error to AppError if possible
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	// Convert known library errors
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		switch fiberErr.Code {
		case fiber.StatusUnauthorized:
			return NewUnauthorized("")
		case fiber.StatusForbidden:
			return New(ErrCodeForbidden, "Not authorized to perform action", fiber.StatusForbidden)
		case fiber.StatusNotFound:
			return NewNotFound("Resource")
		case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
			return NewValidationError("Invalid request")
		default:
			return New(ErrCodeInternal, fiberErr.Message, fiberErr.Code)
		}
	}

	// Default to internal error
	return NewInternalError("").WithInternal(err)
}
