package breaker

import (
	"context"
	"errors"
	"time"

	"droidfolio/apperrors"
	"droidfolio/pkg/logger"
	"droidfolio/pkg/metrics"

	"github.com/sony/gobreaker"
)

// Config allows custom settings for specific breakers
type Config struct {
	Name        string
	MaxRequests uint32
	Interval    time.Duration
	Timeout     time.Duration

	// MinRequests is how many calls must be seen before the breaker may trip
	MinRequests uint32
	// Threshold is the failure ratio that trips the breaker
	Threshold float64

	// IsSuccessful lets callers exclude expected errors (e.g. not found)
	// from the failure count
	IsSuccessful func(err error) bool
}

// New creates a new CircuitBreaker with sensible defaults
func New(cfg Config) *gobreaker.CircuitBreaker {
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 5
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = 0.5
	}

	settings := gobreaker.Settings{
		Name:         cfg.Name,
		MaxRequests:  cfg.MaxRequests,
		Interval:     cfg.Interval,
		Timeout:      cfg.Timeout,
		IsSuccessful: cfg.IsSuccessful,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.Threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("circuit breaker '%s' changed state from %s to %s", name, from.String(), to.String())
			metrics.SetCircuitBreakerState(name, int(to))
		},
	}

	if settings.MaxRequests == 0 {
		settings.MaxRequests = 5 // Half-open max requests
	}
	if settings.Interval == 0 {
		settings.Interval = 60 * time.Second // Clear counts interval
	}
	if settings.Timeout == 0 {
		settings.Timeout = 30 * time.Second // Open state duration
	}

	metrics.SetCircuitBreakerState(cfg.Name, int(gobreaker.StateClosed))
	return gobreaker.NewCircuitBreaker(settings)
}

// ExecuteCtx runs fn through cb. A context that is already done short-circuits
// without touching the breaker. An open breaker is reported as a
// SERVICE_UNAVAILABLE AppError.
func ExecuteCtx[T any](ctx context.Context, cb *gobreaker.CircuitBreaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	res, err := cb.Execute(func() (interface{}, error) {
		return fn(ctx)
	})
	v, _ := res.(T)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, apperrors.NewCircuitBreakerError(cb.Name(), cb.State().String()).WithInternal(err)
		}
		// fn's partial result is kept alongside its error
		return v, err
	}

	return v, nil
}
