package workflow

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/randalmurphal/tripflow/pkg/tripflow/faults"
)

// MemoryStore is an in-memory instance store for testing.
// Data is lost when the process exits.
type MemoryStore struct {
	mu        sync.RWMutex
	instances map[string]Instance
	closed    bool
}

// NewMemoryStore creates a new in-memory instance store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		instances: make(map[string]Instance),
	}
}

// Create implements Store.
func (m *MemoryStore) Create(ctx context.Context, inst Instance) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	if _, exists := m.instances[inst.ID]; exists {
		return &faults.AlreadyStartedError{InstanceID: inst.ID}
	}

	inst.UpdatedAt = time.Now().UTC()
	m.instances[inst.ID] = copyInstance(inst)
	return nil
}

// Update implements Store.
func (m *MemoryStore) Update(ctx context.Context, inst Instance) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	if _, exists := m.instances[inst.ID]; !exists {
		return &faults.NotFoundError{Kind: "workflow instance", ID: inst.ID}
	}

	inst.UpdatedAt = time.Now().UTC()
	m.instances[inst.ID] = copyInstance(inst)
	return nil
}

// Load implements Store.
func (m *MemoryStore) Load(ctx context.Context, id string) (Instance, error) {
	if err := ctx.Err(); err != nil {
		return Instance{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return Instance{}, ErrStoreClosed
	}

	inst, ok := m.instances[id]
	if !ok {
		return Instance{}, &faults.NotFoundError{Kind: "workflow instance", ID: id}
	}
	return copyInstance(inst), nil
}

// ListActive implements Store.
func (m *MemoryStore) ListActive(ctx context.Context, workflow string) ([]Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	active := []Instance{}
	for _, inst := range m.instances {
		if inst.Workflow == workflow && !inst.Terminal() {
			active = append(active, copyInstance(inst))
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })
	return active, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	return nil
}

// copyInstance clones the snapshot so callers can't mutate stored state.
func copyInstance(inst Instance) Instance {
	state := make([]byte, len(inst.State))
	copy(state, inst.State)
	inst.State = state
	return inst
}
