package metrics

import (
	"strconv"
	"strings"
	"time"

	"droidfolio/apperrors"

	"github.com/gofiber/fiber/v2"
)

// HTTPMetricsMiddleware tracks HTTP request metrics
func HTTPMetricsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		HTTPRequestsInFlight.Inc()
		defer HTTPRequestsInFlight.Dec()

		err := c.Next()

		duration := time.Since(start).Seconds()

		// The error handler has not run yet, so derive the status from err
		status := c.Response().StatusCode()
		if err != nil {
			status = apperrors.FromError(err).StatusCode
		}
		statusStr := strconv.Itoa(status)

		method := c.Method()
		path := sanitizePath(c.Path())

		HTTPRequestDuration.WithLabelValues(method, path, statusStr).Observe(duration)
		HTTPRequestsTotal.WithLabelValues(method, path, statusStr).Inc()

		return err
	}
}

// sanitizePath removes dynamic segments to avoid high cardinality
// Example: /api/v1/projects/42 -> /api/v1/projects/:id
func sanitizePath(path string) string {
	switch path {
	case "/healthz", "/readyz", "/metrics", "/ws/chat",
		"/api/v1/status", "/api/v1/auth/login", "/api/v1/auth/logout", "/api/v1/auth/me",
		"/api/v1/projects", "/api/v1/projects/describe", "/api/v1/technologies",
		"/api/v1/users", "/api/v1/preferences":
		return path
	}

	patterns := []struct {
		prefix     string
		normalized string
	}{
		{"/api/v1/projects/", "/api/v1/projects/:id"},
		{"/api/v1/technologies/", "/api/v1/technologies/:id"},
	}
	for _, p := range patterns {
		if strings.HasPrefix(path, p.prefix) {
			return p.normalized
		}
	}

	if strings.HasPrefix(path, "/api/v1/users/") {
		if strings.HasSuffix(path, "/role") {
			return "/api/v1/users/:username/role"
		}
		return "/api/v1/users/:username"
	}

	return "/other"
}
