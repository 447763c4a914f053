package workflow

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/randalmurphal/tripflow/pkg/tripflow/faults"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists workflow instances to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite instance store.
// The path should be a file path (e.g., "./workflows.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS instances (
			id TEXT PRIMARY KEY,
			workflow TEXT NOT NULL,
			step TEXT NOT NULL,
			status TEXT NOT NULL,
			state BLOB NOT NULL,
			updated_at TEXT NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_instances_workflow_status
		ON instances(workflow, status)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Create implements Store.
// The primary key on id enforces single-start: a duplicate insert fails
// with *faults.AlreadyStartedError.
func (s *SQLiteStore) Create(ctx context.Context, inst Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	inst.UpdatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO instances (id, workflow, step, status, state, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, inst.ID, inst.Workflow, inst.Step, string(inst.Status), []byte(inst.State),
		inst.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		if isUniqueViolation(err) {
			return &faults.AlreadyStartedError{InstanceID: inst.ID}
		}
		return fmt.Errorf("create instance: %w", err)
	}
	return nil
}

// Update implements Store.
func (s *SQLiteStore) Update(ctx context.Context, inst Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	inst.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE instances
		SET step = ?, status = ?, state = ?, updated_at = ?
		WHERE id = ?
	`, inst.Step, string(inst.Status), []byte(inst.State),
		inst.UpdatedAt.Format(time.RFC3339Nano), inst.ID)
	if err != nil {
		return fmt.Errorf("update instance: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update instance: %w", err)
	}
	if affected == 0 {
		return &faults.NotFoundError{Kind: "workflow instance", ID: inst.ID}
	}
	return nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context, id string) (Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Instance{}, ErrStoreClosed
	}

	inst := Instance{ID: id}
	var status, timestamp string
	var state []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT workflow, step, status, state, updated_at
		FROM instances
		WHERE id = ?
	`, id).Scan(&inst.Workflow, &inst.Step, &status, &state, &timestamp)

	if err == sql.ErrNoRows {
		return Instance{}, &faults.NotFoundError{Kind: "workflow instance", ID: id}
	}
	if err != nil {
		return Instance{}, fmt.Errorf("load instance: %w", err)
	}

	inst.Status = Status(status)
	inst.State = state
	inst.UpdatedAt, _ = time.Parse(time.RFC3339Nano, timestamp)
	return inst, nil
}

// ListActive implements Store.
func (s *SQLiteStore) ListActive(ctx context.Context, workflow string) ([]Instance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, step, status, state, updated_at
		FROM instances
		WHERE workflow = ? AND status NOT IN (?, ?)
		ORDER BY id
	`, workflow, string(StatusCompleted), string(StatusError))
	if err != nil {
		return nil, fmt.Errorf("list instances: %w", err)
	}
	defer rows.Close()

	active := []Instance{}
	for rows.Next() {
		inst := Instance{Workflow: workflow}
		var status, timestamp string
		var state []byte
		if err := rows.Scan(&inst.ID, &inst.Step, &status, &state, &timestamp); err != nil {
			return nil, fmt.Errorf("scan instance: %w", err)
		}
		inst.Status = Status(status)
		inst.State = state
		inst.UpdatedAt, _ = time.Parse(time.RFC3339Nano, timestamp)
		active = append(active, inst)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate instances: %w", err)
	}
	return active, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

// isUniqueViolation reports whether err is a primary-key conflict.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
