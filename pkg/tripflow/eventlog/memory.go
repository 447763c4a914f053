package eventlog

import (
	"context"
	"sync"
	"time"

	"github.com/randalmurphal/tripflow/pkg/tripflow/faults"
)

// MemoryStore is an in-memory event store for testing.
// Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string][]Event // aggregateID -> events in seq order
	closed bool
}

// NewMemoryStore creates a new in-memory event store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		events: make(map[string][]Event),
	}
}

// Append implements Store.
func (m *MemoryStore) Append(ctx context.Context, expectedSeq uint64, evt Event) (Event, error) {
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}
	if evt.AggregateID == "" {
		return Event{}, ErrEmptyAggregateID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return Event{}, ErrStoreClosed
	}

	head := uint64(len(m.events[evt.AggregateID]))
	if head != expectedSeq {
		return Event{}, &faults.ConflictError{
			AggregateID: evt.AggregateID,
			Expected:    expectedSeq,
			Actual:      head,
		}
	}

	evt.Seq = head + 1
	evt.Timestamp = time.Now().UTC()

	// Copy payload to avoid retaining the caller's slice
	payload := make([]byte, len(evt.Payload))
	copy(payload, evt.Payload)
	evt.Payload = payload

	m.events[evt.AggregateID] = append(m.events[evt.AggregateID], evt)
	return evt, nil
}

// ReadAll implements Store.
func (m *MemoryStore) ReadAll(ctx context.Context, aggregateID string) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if aggregateID == "" {
		return nil, ErrEmptyAggregateID
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	stored := m.events[aggregateID]
	out := make([]Event, len(stored))
	copy(out, stored)
	return out, nil
}

// Head implements Store.
func (m *MemoryStore) Head(ctx context.Context, aggregateID string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if aggregateID == "" {
		return 0, ErrEmptyAggregateID
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return 0, ErrStoreClosed
	}

	return uint64(len(m.events[aggregateID])), nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}
