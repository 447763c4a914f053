package faults

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{
			name: "validation is permanent",
			err:  &ValidationError{Field: "name", Message: "cannot be empty"},
			want: CategoryPermanent,
		},
		{
			name: "not found is permanent",
			err:  &NotFoundError{Kind: "trip", ID: "trip-1"},
			want: CategoryPermanent,
		},
		{
			name: "already started is permanent",
			err:  &AlreadyStartedError{InstanceID: "trip-1"},
			want: CategoryPermanent,
		},
		{
			name: "configuration is permanent",
			err:  &ConfigurationError{Message: "unknown event kind"},
			want: CategoryPermanent,
		},
		{
			name: "conflict is transient",
			err:  &ConflictError{AggregateID: "user-1", Expected: 2, Actual: 3},
			want: CategoryTransient,
		},
		{
			name: "parse is transient",
			err:  &ParseError{Message: "unexpected end of input"},
			want: CategoryTransient,
		},
		{
			name: "timeout is transient",
			err:  &TimeoutError{Operation: "generate-plan", Duration: "120s"},
			want: CategoryTransient,
		},
		{
			name: "wrapped errors categorize through the chain",
			err:  fmt.Errorf("executing step: %w", &ParseError{Message: "bad json"}),
			want: CategoryTransient,
		},
		{
			name: "context cancellation is permanent",
			err:  context.Canceled,
			want: CategoryPermanent,
		},
		{
			name: "unknown errors default to transient",
			err:  errors.New("connection reset by peer"),
			want: CategoryTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.err))
		})
	}
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&TimeoutError{Operation: "generate-plan"}))
	assert.True(t, IsRetryable(errors.New("flaky upstream")))
	assert.False(t, IsRetryable(&ValidationError{Field: "email"}))
	assert.False(t, IsRetryable(nil))
}

func TestStepFailureUnwrap(t *testing.T) {
	cause := &TimeoutError{Operation: "generate-plan", Duration: "120s"}
	err := &StepFailureError{Step: "generate-plan", Attempt: 3, Err: cause}

	var timeout *TimeoutError
	require.True(t, errors.As(err, &timeout))
	assert.Equal(t, "generate-plan", timeout.Operation)
	assert.Contains(t, err.Error(), "attempt 3")
}

func TestErrorMessages(t *testing.T) {
	assert.Contains(t, (&ConflictError{AggregateID: "user-1", Expected: 1, Actual: 2}).Error(), "user-1")
	assert.Contains(t, (&NotFoundError{Kind: "user profile", ID: "user-9"}).Error(), "user profile")
	assert.Contains(t, (&AlreadyStartedError{InstanceID: "trip-1"}).Error(), "trip-1")
	assert.Contains(t, (&ValidationError{Field: "name", Message: "cannot be empty"}).Error(), "name")
}
