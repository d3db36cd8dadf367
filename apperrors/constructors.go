package apperrors

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Storage error helpers
func NewStorageError(operation string, key string, err error) *AppError {
	return New(ErrCodeStorageError, "Storage operation failed", fiber.StatusInternalServerError).
		WithOperation(operation).
		WithContext("store_key", key).
		WithContext("subsystem", "store").
		WithInternal(err)
}

func NewCorruptRecordError(key string, err error) *AppError {
	return New(ErrCodeStorageError, "Stored record could not be decoded", fiber.StatusInternalServerError).
		WithOperation("record_decode").
		WithContext("store_key", key).
		WithContext("subsystem", "store").
		WithInternal(err)
}

// Circuit breaker errors
func NewCircuitBreakerError(service string, state string) *AppError {
	return New(ErrCodeServiceUnavail, "Service temporarily unavailable", fiber.StatusServiceUnavailable).
		WithOperation("circuit_breaker_check").
		WithDetails("service", service).
		WithDetails("breaker_state", state).
		WithContext("subsystem", "circuit_breaker")
}

// Authentication errors
func NewAuthenticationError(username string, reason string) *AppError {
	return NewInvalidCredentials().
		WithOperation("user_authentication").
		WithContext("username", username).
		WithContext("reason", reason).
		WithContext("subsystem", "auth")
}

func NewAuthorizationError(username string, resource string, action string) *AppError {
	return New(ErrCodeForbidden, "Not authorized to perform action", fiber.StatusForbidden).
		WithOperation("authorization_check").
		WithDetails("resource", resource).
		WithDetails("action", action).
		WithContext("username", username).
		WithContext("subsystem", "auth")
}

// Identity errors
func NewImmutableAdmin(action string) *AppError {
	msg := "Cannot change the main Administrator's role."
	if action == "delete" {
		msg = "Cannot delete the main Administrator."
	}
	return New(ErrCodeImmutableAdmin, msg, fiber.StatusForbidden).
		WithOperation("admin_"+action).
		WithContext("subsystem", "identity")
}

func NewUsernameChangeNotAllowed() *AppError {
	return New(ErrCodeUsernameChangeBlocked, "Cannot change username.", fiber.StatusBadRequest).
		WithContext("subsystem", "identity")
}

func NewInvalidUsername(username string) *AppError {
	return New(ErrCodeInvalidUsername, "Username must be 3-30 characters of letters, digits, '_' or '-'", fiber.StatusBadRequest).
		WithDetails("username", username)
}

func NewInvalidRole(role string) *AppError {
	return New(ErrCodeInvalidRole, "Unknown role", fiber.StatusBadRequest).
		WithDetails("role", role)
}

// Chat errors
func NewExternalServiceFailure(service string, err error) *AppError {
	return New(ErrCodeExternalService, "External service call failed", fiber.StatusBadGateway).
		WithOperation("external_call").
		WithDetails("service", service).
		WithContext("subsystem", "assistant").
		WithInternal(err)
}

func NewMessageEmpty() *AppError {
	return New(ErrCodeMessageEmpty, "Message needs text or an image", fiber.StatusBadRequest)
}

func NewTurnInFlight() *AppError {
	return New(ErrCodeTurnInFlight, "A reply is still being generated", fiber.StatusConflict)
}

func NewInvalidImage(reason string) *AppError {
	return New(ErrCodeInvalidImage, "Invalid image attachment", fiber.StatusBadRequest).
		WithDetails("reason", reason)
}

// Generic constructors

func NewUnauthorized(message string) *AppError {
	if message == "" {
		message = "Authentication required"
	}
	return New(ErrCodeUnauthorized, message, fiber.StatusUnauthorized)
}

func NewInvalidCredentials() *AppError {
	return New(ErrCodeInvalidCreds, "Invalid credentials", fiber.StatusUnauthorized)
}

func NewUserNotFound() *AppError {
	return New(ErrCodeUserNotFound, "User not found", fiber.StatusNotFound)
}

func NewUserExists(username string) *AppError {
	return New(ErrCodeUserExists, "Username already exists", fiber.StatusConflict).
		WithDetails("username", username)
}

func NewNotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource), fiber.StatusNotFound)
}

func NewValidationError(message string) *AppError {
	return New(ErrCodeValidationFailed, message, fiber.StatusBadRequest)
}

func NewBadRequest(message string) *AppError {
	if message == "" {
		message = "Bad request"
	}
	return New(ErrCodeInvalidInput, message, fiber.StatusBadRequest)
}

func NewInternalError(message string) *AppError {
	if message == "" {
		message = "An internal error occurred"
	}
	return New(ErrCodeInternal, message, fiber.StatusInternalServerError)
}

func NewRateLimitError() *AppError {
	return New(ErrCodeRateLimited, "Too many requests. Please try again later.", http.StatusTooManyRequests)
}
