package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"droidfolio/apperrors"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend down")

func TestExecuteCtxReturnsValue(t *testing.T) {
	cb := New(Config{Name: "test-ok"})

	got, err := ExecuteCtx(context.Background(), cb, func(ctx context.Context) (string, error) {
		return "pong", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "pong", got)
}

func TestBreakerTripsAfterMinRequests(t *testing.T) {
	cb := New(Config{Name: "test-trip", MinRequests: 3, Timeout: time.Minute})
	fail := func(ctx context.Context) (int, error) { return 0, errBackend }

	for i := 0; i < 2; i++ {
		_, err := ExecuteCtx(context.Background(), cb, fail)
		assert.ErrorIs(t, err, errBackend)
		assert.Equal(t, gobreaker.StateClosed, cb.State())
	}

	_, err := ExecuteCtx(context.Background(), cb, fail)
	assert.ErrorIs(t, err, errBackend)
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	called := false
	_, err = ExecuteCtx(context.Background(), cb, func(ctx context.Context) (int, error) {
		called = true
		return 1, nil
	})
	assert.False(t, called)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeServiceUnavail))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestIsSuccessfulExcludesExpectedErrors(t *testing.T) {
	expected := errors.New("not found")
	cb := New(Config{
		Name:         "test-expected",
		MinRequests:  1,
		IsSuccessful: func(err error) bool { return err == nil || errors.Is(err, expected) },
	})

	for i := 0; i < 5; i++ {
		_, err := ExecuteCtx(context.Background(), cb, func(ctx context.Context) (int, error) {
			return 0, expected
		})
		assert.ErrorIs(t, err, expected)
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestExecuteCtxHonoursCancelledContext(t *testing.T) {
	cb := New(Config{Name: "test-cancel"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ExecuteCtx(ctx, cb, func(ctx context.Context) (int, error) {
		t.Fatal("fn must not run")
		return 0, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
