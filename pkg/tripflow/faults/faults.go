// Package faults provides the error taxonomy and retry machinery shared by
// the tripflow stores, entity services, and workflow engine.
//
// Errors fall into two handling classes:
//   - Permanent: bad input, missing aggregates, duplicate starts, and
//     projection configuration mismatches. Surfaced to the caller, never
//     retried.
//   - Transient: step failures (timeouts, transport errors, unparseable
//     results). Retried up to a budget, then routed to failover.
package faults

import (
	"context"
	"errors"
	"fmt"
)

// Category represents how an error should be handled.
type Category int

const (
	// CategoryTransient indicates retry will likely help.
	// Examples: step timeouts, transport failures, result-parse failures.
	CategoryTransient Category = iota

	// CategoryPermanent indicates retry won't help.
	// Examples: validation failures, missing aggregates, duplicate starts.
	CategoryPermanent
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryTransient:
		return "transient"
	case CategoryPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// ValidationError indicates a command carried unusable input.
// It is surfaced to the caller and never retried.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// NotFoundError indicates a command or query addressed an aggregate or
// workflow instance that does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ConflictError indicates an append raced another writer on the same
// aggregate. The caller should reread state and retry the command.
type ConflictError struct {
	AggregateID string
	Expected    uint64
	Actual      uint64
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("concurrency conflict on %s: expected seq %d, store at %d",
		e.AggregateID, e.Expected, e.Actual)
}

// AlreadyStartedError indicates a duplicate workflow start.
type AlreadyStartedError struct {
	InstanceID string
}

// Error implements the error interface.
func (e *AlreadyStartedError) Error() string {
	return fmt.Sprintf("workflow already started: %s", e.InstanceID)
}

// StepFailureError wraps a transient failure inside a workflow step.
// Timeouts, transport errors, and result-parse failures all land here and
// feed the engine's retry/failover policy.
type StepFailureError struct {
	Step    string
	Attempt int
	Err     error
}

// Error implements the error interface.
func (e *StepFailureError) Error() string {
	return fmt.Sprintf("step %s failed (attempt %d): %v", e.Step, e.Attempt, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *StepFailureError) Unwrap() error {
	return e.Err
}

// ConfigurationError indicates a code/data mismatch, such as an event kind
// unknown to a projector. It is fatal for the operation and never retried.
type ConfigurationError struct {
	Message string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// ParseError indicates an external call's result could not be decoded into
// its declared type. It is transient: the call is re-issued on retry.
type ParseError struct {
	Input   string
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s", e.Message)
}

// TimeoutError indicates an external call exceeded its declared timeout.
type TimeoutError struct {
	Operation string
	Duration  string
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout after %s: %s", e.Duration, e.Operation)
}

// Categorize determines how an error should be handled.
func Categorize(err error) Category {
	if err == nil {
		return CategoryPermanent // shouldn't happen, fail safe
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return CategoryPermanent
	}

	var nfErr *NotFoundError
	if errors.As(err, &nfErr) {
		return CategoryPermanent
	}

	var startErr *AlreadyStartedError
	if errors.As(err, &startErr) {
		return CategoryPermanent
	}

	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return CategoryPermanent
	}

	// A write race resolves once the caller rereads state.
	var conflictErr *ConflictError
	if errors.As(err, &conflictErr) {
		return CategoryTransient
	}

	var parseErr *ParseError
	if errors.As(err, &parseErr) {
		return CategoryTransient // a re-issued call may produce parseable output
	}

	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return CategoryTransient
	}

	var stepErr *StepFailureError
	if errors.As(err, &stepErr) {
		return CategoryTransient
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTransient
	}
	if errors.Is(err, context.Canceled) {
		return CategoryPermanent
	}

	// Unknown errors are treated as transient step failures: the engine's
	// budget bounds them, and a crashed dependency is the common case.
	return CategoryTransient
}

// IsRetryable reports whether the error should be retried.
func IsRetryable(err error) bool {
	return Categorize(err) == CategoryTransient
}
