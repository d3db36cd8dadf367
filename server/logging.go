package server

import (
	"io"
	"log"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
)

// setupLogging configures the HTTP request logger middleware. Access lines
// share the application log's destination (and its rotation).
func setupLogging(app *fiber.App, out io.Writer) {
	app.Use(fiberlogger.New(fiberlogger.Config{
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/healthz" || c.Path() == "/metrics"
		},
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
		Output:     out,
	}))
}

// setupErrorLogging creates the logger the error handler writes to
func setupErrorLogging(out io.Writer) *log.Logger {
	return log.New(out, "", log.LstdFlags)
}
