package limiter

import (
	"net/http/httptest"
	"testing"
	"time"

	"droidfolio/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucketRefillsWholePeriods(t *testing.T) {
	tb := NewTokenBucket(3, 1, time.Second)
	start := tb.LastRefill

	for i := 0; i < 3; i++ {
		assert.True(t, tb.Take(1))
	}
	assert.False(t, tb.Take(1))

	tb.refill(start.Add(2500 * time.Millisecond))
	assert.Equal(t, int64(2), tb.Tokens)
	assert.Equal(t, start.Add(2*time.Second), tb.LastRefill)

	tb.refill(start.Add(time.Hour))
	assert.Equal(t, int64(3), tb.Tokens, "refill is capped")
}

func TestMiddlewareRejectsOverCapacity(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: apperrors.Handler(apperrors.HandlerConfig{})})
	app.Use(New(Config{Capacity: 2, RefillRate: 1, RefillPeriod: time.Hour}))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestMiddlewareNextSkips(t *testing.T) {
	app := fiber.New()
	app.Use(New(Config{
		Capacity:     1,
		RefillPeriod: time.Hour,
		Next:         func(c *fiber.Ctx) bool { return c.Path() == "/healthz" },
	}))
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })

	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/healthz", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}
