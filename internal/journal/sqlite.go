package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open creates or opens the journal at dbPath, creating parent directories.
// Use ":memory:" for an in-memory journal.
func Open(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to create journal directory").
				WithPath(dbPath).
				Build()
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryJournal, "could not open journal database").
			WithPath(dbPath).
			Build()
	}
	// A single connection keeps ":memory:" databases shared across queries.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, ferrors.WrapError(err, ferrors.CategoryJournal, "failed to initialize journal schema").
			WithPath(dbPath).
			Build()
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		candidate TEXT NOT NULL DEFAULT '',
		timestamp INTEGER NOT NULL,
		payload BLOB NOT NULL,
		metadata TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_run_id ON events(run_id);
	CREATE INDEX IF NOT EXISTS idx_timestamp ON events(timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append implements Store.
func (s *SQLiteStore) Append(ctx context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var metadataJSON []byte
	if e.Metadata != nil {
		var err error
		if metadataJSON, err = json.Marshal(e.Metadata); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryJournal, "failed to marshal event metadata").Build()
		}
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if e.Payload == nil {
		e.Payload = []byte("{}")
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (run_id, event_type, candidate, timestamp, payload, metadata) VALUES (?, ?, ?, ?, ?, ?)",
		e.RunID, e.Type, e.Candidate, e.Timestamp.UnixMilli(), e.Payload, metadataJSON,
	)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryJournal, "failed to append event").
			WithContext("run_id", e.RunID).
			WithContext("event_type", e.Type).
			Build()
	}
	return nil
}

// ByRun implements Store.
func (s *SQLiteStore) ByRun(ctx context.Context, runID string) ([]Event, error) {
	return s.query(ctx,
		"SELECT id, run_id, event_type, candidate, timestamp, payload, metadata FROM events WHERE run_id = ? ORDER BY id",
		runID)
}

// Range implements Store.
func (s *SQLiteStore) Range(ctx context.Context, start, end time.Time) ([]Event, error) {
	return s.query(ctx,
		"SELECT id, run_id, event_type, candidate, timestamp, payload, metadata FROM events WHERE timestamp >= ? AND timestamp <= ? ORDER BY id",
		start.UnixMilli(), end.UnixMilli())
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryJournal, "failed to query events").Build()
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var ts int64
		var metadataJSON []byte
		if err := rows.Scan(&e.ID, &e.RunID, &e.Type, &e.Candidate, &ts, &e.Payload, &metadataJSON); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryJournal, "failed to scan event rows").Build()
		}
		e.Timestamp = time.UnixMilli(ts)
		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &e.Metadata); err != nil {
				return nil, ferrors.WrapError(err, ferrors.CategoryJournal, "failed to unmarshal event metadata").Build()
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryJournal, "failed to iterate event rows").Build()
	}
	return events, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
