package apperrors

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// HandlerConfig configures the error handler
type HandlerConfig struct {
	// Logger for error logging
	Logger *log.Logger

	// ShowInternalErrors shows internal error details in responses (dev only)
	ShowInternalErrors bool

	// OnError is called for each error (useful for metrics/monitoring)
	OnError func(c *fiber.Ctx, err *AppError)
}

// DefaultHandlerConfig logs to the standard logger and hides internal errors
func DefaultHandlerConfig() HandlerConfig {
	return HandlerConfig{
		Logger:             log.Default(),
		ShowInternalErrors: false,
	}
}

// Handler creates a Fiber error handler that renders AppErrors as JSON
func Handler(config HandlerConfig) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		appErr := FromError(err)

		if config.Logger != nil {
			logError(config.Logger, c, appErr)
		}

		if config.OnError != nil {
			config.OnError(c, appErr)
		}

		return writeJSON(c, appErr, config.ShowInternalErrors)
	}
}

func writeJSON(c *fiber.Ctx, err *AppError, showInternal bool) error {
	body := fiber.Map{
		"code":    err.Code,
		"message": err.Message,
	}
	if len(err.Details) > 0 {
		body["details"] = err.Details
	}
	if showInternal && err.Internal != nil {
		body["internal"] = err.Internal.Error()
	}

	return c.Status(err.StatusCode).JSON(fiber.Map{"error": body})
}

// logError logs the error with request context
func logError(logger *log.Logger, c *fiber.Ctx, err *AppError) {
	// Don't log expected errors at error level
	if err.StatusCode < 500 {
		logger.Printf("[WARN] %s %s | %s | Status: %d | User: %v",
			c.Method(), c.Path(), err.Error(), err.StatusCode, c.Locals("username"))
		return
	}

	logger.Printf("[ERROR] %s %s | %s | Status: %d | IP: %s | User: %v",
		c.Method(), c.Path(), err.Error(), err.StatusCode, c.IP(), c.Locals("username"))

	if err.Internal != nil {
		logger.Printf("[ERROR] Internal error: %+v", err.Internal)
	}
}
