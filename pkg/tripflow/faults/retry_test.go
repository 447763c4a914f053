package faults

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastRetry keeps backoff out of test runtime.
func fastRetry(maxAttempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    maxAttempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		BackoffFactor:  2.0,
	}
}

func TestWithRetryContextSucceedsFirstAttempt(t *testing.T) {
	result := WithRetryContext(context.Background(), fastRetry(3), func(ctx context.Context) (string, error) {
		return "ok", nil
	})

	require.NoError(t, result.Err)
	assert.Equal(t, "ok", result.Value)
	assert.Equal(t, 1, result.Attempts)
}

func TestWithRetryContextRecoversWithinBudget(t *testing.T) {
	calls := 0
	result := WithRetryContext(context.Background(), fastRetry(3), func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, &TimeoutError{Operation: "generate-plan"}
		}
		return 42, nil
	})

	require.NoError(t, result.Err)
	assert.Equal(t, 42, result.Value)
	assert.Equal(t, 3, result.Attempts)
}

func TestWithRetryContextExhaustsBudget(t *testing.T) {
	calls := 0
	cause := &TimeoutError{Operation: "generate-plan"}
	result := WithRetryContext(context.Background(), fastRetry(3), func(ctx context.Context) (int, error) {
		calls++
		return 0, cause
	})

	require.Error(t, result.Err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, result.Attempts)

	var timeout *TimeoutError
	assert.True(t, errors.As(result.Err, &timeout))
}

func TestWithRetryContextStopsOnPermanentError(t *testing.T) {
	calls := 0
	result := WithRetryContext(context.Background(), fastRetry(5), func(ctx context.Context) (int, error) {
		calls++
		return 0, &ValidationError{Field: "name", Message: "cannot be empty"}
	})

	require.Error(t, result.Err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryContextHonorsRetryableFunc(t *testing.T) {
	calls := 0
	cfg := fastRetry(5)
	cfg.RetryableFunc = func(error) bool { return false }

	result := WithRetryContext(context.Background(), cfg, func(ctx context.Context) (int, error) {
		calls++
		return 0, &TimeoutError{Operation: "generate-plan"}
	})

	require.Error(t, result.Err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryContextRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	result := WithRetryContext(ctx, fastRetry(3), func(ctx context.Context) (int, error) {
		calls++
		return 0, nil
	})

	require.ErrorIs(t, result.Err, context.Canceled)
	assert.Equal(t, 0, calls)
}

func TestCalculateBackoff(t *testing.T) {
	base := 100 * time.Millisecond

	assert.Equal(t, base, calculateBackoff(base, 0))

	for i := 0; i < 20; i++ {
		got := calculateBackoff(base, 0.1)
		assert.InDelta(t, float64(base), float64(got), float64(base)*0.1)
	}
}
