// Package entity provides the generic machinery shared by the event-sourced
// aggregates: a deterministic fold from events to state, and a command
// executor that projects current state, lets a decider emit at most one new
// event, and appends it with an expected-sequence check before replying.
package entity

import (
	"context"

	"github.com/randalmurphal/tripflow/pkg/tripflow/eventlog"
	"github.com/randalmurphal/tripflow/pkg/tripflow/faults"
)

// ApplyFunc folds one event into the current state for an aggregate kind.
// A nil state means the aggregate does not exist yet. An event kind unknown
// to the apply function must return *faults.ConfigurationError; it is a
// code/data mismatch, not a data error.
type ApplyFunc[S any] func(state *S, evt eventlog.Event) (*S, error)

// Project folds an ordered event sequence into current state.
// Returns nil state for an empty sequence. Folding the same sequence twice
// yields identical state: ApplyFunc implementations must be pure.
func Project[S any](events []eventlog.Event, apply ApplyFunc[S]) (*S, error) {
	var state *S
	for _, evt := range events {
		next, err := apply(state, evt)
		if err != nil {
			return nil, err
		}
		state = next
	}
	return state, nil
}

// Decision is the outcome of a decider: at most one event to persist.
// A nil Event means the command is an idempotent no-op; the reply still
// reports success, with DidPersist false.
type Decision struct {
	Event *eventlog.Event
}

// Persist returns a decision that appends one event.
func Persist(evt eventlog.Event) (Decision, error) {
	return Decision{Event: &evt}, nil
}

// NoOp returns a decision that persists nothing.
func NoOp() (Decision, error) {
	return Decision{}, nil
}

// Reply is returned to the command's caller after the decision is durable.
type Reply[S any] struct {
	// State is the aggregate state after the command (nil only for
	// commands rejected before any event existed).
	State *S
	// DidPersist reports whether the command appended an event.
	DidPersist bool
}

// DeciderFunc validates a command against current state and decides the
// next event, if any. Errors propagate directly to the caller as typed
// failures (faults package); they are never silently swallowed.
type DeciderFunc[S any] func(state *S) (Decision, error)

// Executor runs commands for one aggregate kind.
type Executor[S any] struct {
	store eventlog.Store
	apply ApplyFunc[S]
}

// NewExecutor creates an executor over the given store and fold function.
func NewExecutor[S any](store eventlog.Store, apply ApplyFunc[S]) *Executor[S] {
	return &Executor[S]{store: store, apply: apply}
}

// Load projects the current state for an aggregate.
// Returns nil state if the aggregate never existed.
func (e *Executor[S]) Load(ctx context.Context, aggregateID string) (*S, error) {
	events, err := e.store.ReadAll(ctx, aggregateID)
	if err != nil {
		return nil, err
	}
	return Project(events, e.apply)
}

// Execute runs one command: project current state, let decide emit 0 or 1
// events, durably append before replying. Two commands racing on the same
// aggregate serialize on the store's expected-sequence check; the loser
// fails with *faults.ConflictError and should be retried with fresh state.
func (e *Executor[S]) Execute(ctx context.Context, aggregateID string, decide DeciderFunc[S]) (Reply[S], error) {
	events, err := e.store.ReadAll(ctx, aggregateID)
	if err != nil {
		return Reply[S]{}, err
	}

	state, err := Project(events, e.apply)
	if err != nil {
		return Reply[S]{}, err
	}

	decision, err := decide(state)
	if err != nil {
		return Reply[S]{}, err
	}

	if decision.Event == nil {
		return Reply[S]{State: state}, nil
	}

	stored, err := e.store.Append(ctx, uint64(len(events)), *decision.Event)
	if err != nil {
		return Reply[S]{}, err
	}

	next, err := e.apply(state, stored)
	if err != nil {
		return Reply[S]{}, err
	}
	return Reply[S]{State: next, DidPersist: true}, nil
}

// Require returns the state or a typed not-found failure.
// kind names the aggregate in the error ("user profile", "trip").
func Require[S any](state *S, kind, id string) (*S, error) {
	if state == nil {
		return nil, &faults.NotFoundError{Kind: kind, ID: id}
	}
	return state, nil
}
