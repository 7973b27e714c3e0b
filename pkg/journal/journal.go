// Package journal records every command the bridge executes in an embedded
// SQLite database, so a session can be inspected after the agent disconnects.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one executed command.
type Entry struct {
	ID        int64
	Session   string // Connection that sent the command
	CommandID string
	Action    string
	TestID    string
	Request   string // Raw command JSON
	Status    string
	Error     string
	Duration  time.Duration
	CreatedAt time.Time
}

// Store is a SQLite-backed journal.
type Store struct {
	db *sql.DB
	mu sync.Mutex // SQLite is single-writer
}

// Open opens or creates the journal database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating journal dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	// Single connection for writes to avoid SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating sqlite: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS commands (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			session     TEXT NOT NULL DEFAULT '',
			command_id  TEXT NOT NULL DEFAULT '',
			action      TEXT NOT NULL,
			test_id     TEXT NOT NULL DEFAULT '',
			request     TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL,
			error       TEXT NOT NULL DEFAULT '',
			duration_us INTEGER NOT NULL DEFAULT 0,
			created_at  DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_commands_test_id ON commands(test_id)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}
	return nil
}

// Record appends e. A zero CreatedAt is set to now.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO commands (session, command_id, action, test_id, request, status, error, duration_us, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Session, e.CommandID, e.Action, e.TestID, e.Request, e.Status, e.Error,
		e.Duration.Microseconds(), e.CreatedAt.UTC(),
	)
	return err
}

// Recent returns the newest n entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	return s.query(ctx,
		`SELECT id, session, command_id, action, test_id, request, status, error, duration_us, created_at
		 FROM commands ORDER BY id DESC LIMIT ?`, n)
}

// ForTestID returns the newest n entries that targeted testID, newest first.
func (s *Store) ForTestID(ctx context.Context, testID string, n int) ([]Entry, error) {
	return s.query(ctx,
		`SELECT id, session, command_id, action, test_id, request, status, error, duration_us, created_at
		 FROM commands WHERE test_id = ? ORDER BY id DESC LIMIT ?`, testID, n)
}

// Prune deletes entries older than cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM commands WHERE created_at < ?", cutoff.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) query(ctx context.Context, q string, args ...interface{}) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e  Entry
			us int64
		)
		if err := rows.Scan(&e.ID, &e.Session, &e.CommandID, &e.Action, &e.TestID, &e.Request, &e.Status, &e.Error, &us, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Duration = time.Duration(us) * time.Microsecond
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
