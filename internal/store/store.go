// Package store keeps the project event log in SQLite. Events are an
// append-only audit trail of what happened to each task: status
// changes, agent runs, recoveries. Task state itself lives in the plan
// documents; the log never competes with them as a source of truth.
package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Event types recorded in the log.
const (
	EventCreated       = "created"
	EventStatusChanged = "status_changed"
	EventRunStarted    = "run_started"
	EventRunFinished   = "run_finished"
	EventSubtask       = "subtask"
	EventRecovered     = "recovered"
	EventArchived      = "archived"
	EventQAVerdict     = "qa_verdict"
)

// Event is one entry in a task's audit trail.
type Event struct {
	ID        int64     `json:"id"`
	SpecID    string    `json:"spec_id"`
	RunID     string    `json:"run_id,omitempty"`
	Type      string    `json:"event_type"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Store provides access to the event log database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the SQLite database at the given path.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL lets the TUI read while a run appends.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		spec_id     TEXT NOT NULL,
		run_id      TEXT DEFAULT '',
		event_type  TEXT NOT NULL,
		content     TEXT DEFAULT '',
		timestamp   DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_spec ON events(spec_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// AddEvent appends an event to a task's trail. Logging is best-effort;
// a failed insert never fails the operation that triggered it.
func (s *Store) AddEvent(specID, runID, eventType, content string) {
	now := time.Now().UTC()
	s.db.Exec(
		`INSERT INTO events (spec_id, run_id, event_type, content, timestamp) VALUES (?, ?, ?, ?, ?)`,
		specID, runID, eventType, content, now,
	)
}

// Events returns all events for a task, oldest first.
func (s *Store) Events(specID string) ([]Event, error) {
	rows, err := s.db.Query(
		`SELECT id, spec_id, run_id, event_type, content, timestamp
		 FROM events WHERE spec_id = ? ORDER BY id`,
		specID,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// RecentEvents returns the newest events across all tasks, newest first.
func (s *Store) RecentEvents(limit int) ([]Event, error) {
	rows, err := s.db.Query(
		`SELECT id, spec_id, run_id, event_type, content, timestamp
		 FROM events ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.SpecID, &e.RunID, &e.Type, &e.Content, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
