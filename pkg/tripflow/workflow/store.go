package workflow

import (
	"context"
	"errors"
)

// Store persists workflow instance snapshots for crash recovery.
// Implementations must be safe for concurrent use.
type Store interface {
	// Create persists a new instance. Fails with *faults.AlreadyStartedError
	// if an instance with the same id already exists.
	Create(ctx context.Context, inst Instance) error

	// Update overwrites the snapshot for an existing instance.
	// Fails with *faults.NotFoundError if the instance doesn't exist.
	Update(ctx context.Context, inst Instance) error

	// Load retrieves an instance snapshot.
	// Fails with *faults.NotFoundError if the instance doesn't exist.
	Load(ctx context.Context, id string) (Instance, error)

	// ListActive returns all non-terminal instances for a workflow name,
	// ordered by id. Returns an empty slice if there are none.
	ListActive(ctx context.Context, workflow string) ([]Instance, error)

	// Close releases any resources (connections, files).
	Close() error
}

// ErrStoreClosed indicates the store has been closed.
var ErrStoreClosed = errors.New("workflow store closed")
