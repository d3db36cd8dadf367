package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
	)

	// Chat Assistant Metrics
	ChatTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Total number of chat turns by outcome",
		},
		[]string{"outcome"}, // success, fallback, rejected
	)

	ChatTurnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chat_turn_duration_seconds",
			Help:    "Time from sending a chat turn to the end of its stream",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	ChatDeltasStreamed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_deltas_streamed_total",
			Help: "Total number of streamed reply fragments relayed",
		},
	)

	ChatSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_sessions_active",
			Help: "Current number of open chat sessions",
		},
	)

	DescriptionsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "project_descriptions_generated_total",
			Help: "Total number of generated project descriptions by outcome",
		},
		[]string{"outcome"},
	)

	// Browser Session Metrics
	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sessions_created_total",
			Help: "Total number of browser sessions created",
		},
	)

	// Store Metrics
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "store_operation_duration_seconds",
			Help:    "Record store operation execution time",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"backend", "operation", "status"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// Rate Limiting Metrics
	RateLimitExceeded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_exceeded_total",
			Help: "Total number of rate limit violations",
		},
		[]string{"endpoint"},
	)

	// Authentication Metrics
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"status"}, // success, failed
	)

	// Error Metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors by type",
		},
		[]string{"type", "code"},
	)

	// System Metrics
	SystemInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "system_info",
			Help: "System information",
		},
		[]string{"version", "go_version", "start_time"},
	)
)

// Chat Helpers
func RecordChatTurn(outcome string, seconds float64) {
	ChatTurnsTotal.WithLabelValues(outcome).Inc()
	if seconds > 0 {
		ChatTurnDuration.Observe(seconds)
	}
}

func IncrementChatDeltas() {
	ChatDeltasStreamed.Inc()
}

func IncrementChatSessions() {
	ChatSessionsActive.Inc()
}

func DecrementChatSessions() {
	ChatSessionsActive.Dec()
}

func RecordDescription(success bool) {
	outcome := "success"
	if !success {
		outcome = "failed"
	}
	DescriptionsGenerated.WithLabelValues(outcome).Inc()
}

// Session Helpers
func IncrementSessionsCreated() {
	SessionsCreated.Inc()
}

// Store Helpers
func RecordStoreOperation(backend, operation string, duration float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	StoreOperationDuration.WithLabelValues(backend, operation, status).Observe(duration)
}

// Circuit Breaker Helpers
func SetCircuitBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// Rate Limiting Helpers
func IncrementRateLimitExceeded(endpoint string) {
	RateLimitExceeded.WithLabelValues(endpoint).Inc()
}

// Auth Helpers
func RecordLoginAttempt(success bool) {
	status := "success"
	if !success {
		status = "failed"
	}
	LoginAttemptsTotal.WithLabelValues(status).Inc()
}

// Error Helpers
func RecordError(errorType, errorCode string) {
	ErrorsTotal.WithLabelValues(errorType, errorCode).Inc()
}
