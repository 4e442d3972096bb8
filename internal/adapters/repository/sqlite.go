package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Default SQLite configuration constants.
const (
	defaultBusyTimeoutMS = 5000
	defaultMaxOpenConns  = 4
)

const schema = `
CREATE TABLE IF NOT EXISTS balloons (
    problem_id   TEXT NOT NULL,
    team_id      TEXT NOT NULL,
    volunteer_id INTEGER REFERENCES volunteers(id),
    delivered    INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (problem_id, team_id)
);

CREATE TABLE IF NOT EXISTS volunteers (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    login         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    can_access    INTEGER NOT NULL DEFAULT 0,
    can_manage    INTEGER NOT NULL DEFAULT 0
);
`

// SQLiteStore implements Store and VolunteerStore over a single SQLite file.
// Every balloon mutation is one conditional statement, so racing commands
// for the same balloon serialize in the database and the RowsAffected count
// decides the boolean outcome.
type SQLiteStore struct {
	db *sql.DB

	busyTimeoutMS int
	maxOpenConns  int
}

// Open opens (or creates) the store at path and applies the schema.
// Use ":memory:" for an ephemeral store in tests.
func Open(path string, opts ...Option) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("open store: path is required")
	}

	s := &SQLiteStore{
		busyTimeoutMS: defaultBusyTimeoutMS,
		maxOpenConns:  defaultMaxOpenConns,
	}
	for _, opt := range opts {
		opt(s)
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=foreign_keys(ON)", path, s.busyTimeoutMS)
	if path == ":memory:" {
		// A shared in-memory database keeps all pool connections on the
		// same data.
		dsn = "file::memory:?mode=memory&cache=shared"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(s.maxOpenConns)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	s.db = db
	return s, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close sqlite db: %w", err)
	}
	return nil
}

// execCount runs a statement and reports whether it touched any row.
func (s *SQLiteStore) execCount(ctx context.Context, query string, args ...any) (bool, error) {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
