package eventlog

import (
	"context"
	"errors"
)

// Store persists per-aggregate event sequences.
// Implementations must be safe for concurrent use, and Append must be
// atomic per aggregate id: no two concurrent appends for the same aggregate
// may both succeed against the same expected sequence.
type Store interface {
	// Append durably appends an event for an aggregate. expectedSeq must
	// match the store's current head for the aggregate (0 for a new
	// aggregate); a mismatch fails with *faults.ConflictError. Returns the
	// stored event with Seq and Timestamp assigned.
	Append(ctx context.Context, expectedSeq uint64, evt Event) (Event, error)

	// ReadAll returns all events for an aggregate in sequence order.
	// Returns an empty slice (not an error) if the aggregate never existed.
	ReadAll(ctx context.Context, aggregateID string) ([]Event, error)

	// Head returns the current head sequence for an aggregate
	// (0 if the aggregate never existed).
	Head(ctx context.Context, aggregateID string) (uint64, error)

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for store operations.
var (
	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("event store closed")

	// ErrEmptyAggregateID indicates an append or read without an aggregate id.
	ErrEmptyAggregateID = errors.New("aggregate id is required")
)
