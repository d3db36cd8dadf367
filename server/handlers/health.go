package handlers

import (
	"context"
	"time"

	"droidfolio/services/sessions"
	"droidfolio/store"

	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker"
)

const version = "1.0.0"

// HealthCheckHandler provides health and readiness checks
type HealthCheckHandler struct {
	store    store.Store
	sessions *sessions.Manager
	model    *gobreaker.CircuitBreaker
	aiReady  bool
}

func NewHealthCheckHandler(st store.Store, smngr *sessions.Manager, cb *gobreaker.CircuitBreaker, aiEnabled bool) *HealthCheckHandler {
	return &HealthCheckHandler{
		store:    st,
		sessions: smngr,
		model:    cb,
		aiReady:  aiEnabled,
	}
}

// HealthCheckResponse represents the health status
type HealthCheckResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Version   string                 `json:"version"`
	Uptime    float64                `json:"uptime_seconds"`
	Checks    map[string]CheckStatus `json:"checks"`
	Metrics   map[string]any         `json:"metrics,omitempty"`
}

// CheckStatus represents individual component status
type CheckStatus struct {
	Status      string  `json:"status"`
	Message     string  `json:"message,omitempty"`
	Latency     float64 `json:"latency_ms,omitempty"`
	LastChecked string  `json:"last_checked"`
}

var startTime = time.Now()

func (h *HealthCheckHandler) HandleStatus() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "operational",
			"version": version,
			"service": "droidfolio API",
		})
	}
}

// HandleHealthCheck is the liveness probe
func (h *HealthCheckHandler) HandleHealthCheck() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(HealthCheckResponse{
			Status:    "healthy",
			Timestamp: time.Now().Format(time.RFC3339),
			Version:   version,
			Uptime:    time.Since(startTime).Seconds(),
			Checks: map[string]CheckStatus{
				"server": {
					Status:      "up",
					Message:     "Server is running",
					LastChecked: time.Now().Format(time.RFC3339),
				},
			},
		})
	}
}

// HandleReadinessCheck fails when the record store is unreachable. The
// assistant is reported but never fails readiness; chat degrades to the
// fallback reply instead.
func (h *HealthCheckHandler) HandleReadinessCheck() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
		defer cancel()

		response := HealthCheckResponse{
			Status:    "ready",
			Timestamp: time.Now().Format(time.RFC3339),
			Version:   version,
			Uptime:    time.Since(startTime).Seconds(),
			Checks:    make(map[string]CheckStatus),
			Metrics:   make(map[string]any),
		}

		storeStatus := h.checkStore(ctx)
		response.Checks["store"] = storeStatus
		response.Checks["assistant"] = h.checkAssistant()

		if h.sessions != nil {
			response.Metrics["sessions_cached"] = h.sessions.Cached()
		}

		if storeStatus.Status != "healthy" {
			response.Status = "degraded"
			return c.Status(fiber.StatusServiceUnavailable).JSON(response)
		}
		return c.JSON(response)
	}
}

func (h *HealthCheckHandler) checkStore(ctx context.Context) CheckStatus {
	start := time.Now()
	err := store.Ping(ctx, h.store)
	latency := float64(time.Since(start).Microseconds()) / 1000

	if err != nil {
		return CheckStatus{
			Status:      "unhealthy",
			Message:     err.Error(),
			Latency:     latency,
			LastChecked: time.Now().Format(time.RFC3339),
		}
	}
	return CheckStatus{
		Status:      "healthy",
		Latency:     latency,
		LastChecked: time.Now().Format(time.RFC3339),
	}
}

func (h *HealthCheckHandler) checkAssistant() CheckStatus {
	status := CheckStatus{Status: "healthy", LastChecked: time.Now().Format(time.RFC3339)}

	switch {
	case !h.aiReady:
		status.Status = "disabled"
		status.Message = "No API key configured; chat answers with the fallback reply"
	case h.model != nil && h.model.State() != gobreaker.StateClosed:
		status.Status = "degraded"
		status.Message = "Circuit breaker " + h.model.State().String()
	}
	return status
}
