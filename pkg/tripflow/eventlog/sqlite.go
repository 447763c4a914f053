package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/randalmurphal/tripflow/pkg/tripflow/faults"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists events to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite event store.
// The path should be a file path (e.g., "./events.db") or ":memory:" for testing.
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
		CREATE TABLE IF NOT EXISTS events (
			aggregate_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			payload BLOB NOT NULL,
			timestamp TEXT NOT NULL,
			PRIMARY KEY (aggregate_id, seq)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append implements Store.
// The head check and insert run in one transaction; the (aggregate_id, seq)
// primary key backstops any race the transaction itself doesn't serialize.
func (s *SQLiteStore) Append(ctx context.Context, expectedSeq uint64, evt Event) (Event, error) {
	if evt.AggregateID == "" {
		return Event{}, ErrEmptyAggregateID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Event{}, ErrStoreClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Event{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var head uint64
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM events WHERE aggregate_id = ?
	`, evt.AggregateID).Scan(&head); err != nil {
		return Event{}, fmt.Errorf("read head: %w", err)
	}

	if head != expectedSeq {
		return Event{}, &faults.ConflictError{
			AggregateID: evt.AggregateID,
			Expected:    expectedSeq,
			Actual:      head,
		}
	}

	evt.Seq = head + 1
	evt.Timestamp = time.Now().UTC()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO events (aggregate_id, seq, kind, payload, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`, evt.AggregateID, evt.Seq, string(evt.Kind), []byte(evt.Payload),
		evt.Timestamp.Format(time.RFC3339Nano)); err != nil {
		return Event{}, fmt.Errorf("append event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Event{}, fmt.Errorf("commit: %w", err)
	}
	return evt, nil
}

// ReadAll implements Store.
func (s *SQLiteStore) ReadAll(ctx context.Context, aggregateID string) ([]Event, error) {
	if aggregateID == "" {
		return nil, ErrEmptyAggregateID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, payload, timestamp
		FROM events
		WHERE aggregate_id = ?
		ORDER BY seq
	`, aggregateID)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		evt := Event{AggregateID: aggregateID}
		var kind, timestamp string
		var payload []byte
		if err := rows.Scan(&evt.Seq, &kind, &payload, &timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		evt.Kind = Kind(kind)
		evt.Payload = payload
		evt.Timestamp, _ = time.Parse(time.RFC3339Nano, timestamp)
		events = append(events, evt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// Head implements Store.
func (s *SQLiteStore) Head(ctx context.Context, aggregateID string) (uint64, error) {
	if aggregateID == "" {
		return 0, ErrEmptyAggregateID
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	var head uint64
	if err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM events WHERE aggregate_id = ?
	`, aggregateID).Scan(&head); err != nil {
		return 0, fmt.Errorf("read head: %w", err)
	}
	return head, nil
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
