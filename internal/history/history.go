// Package history records past searches in a SQLite database.
//
// History stores request metadata only (operation, target, keyword,
// counts, duration), never search results. Recording is best-effort:
// callers treat failures as non-fatal, and a persistently broken store
// trips a circuit breaker so searches stop paying for it.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	gerrors "github.com/grepmcp/grepmcp/internal/errors"
)

// Operation values for Record.Operation.
const (
	OpFile      = "file"
	OpDirectory = "directory"
)

// Record is one past search.
type Record struct {
	ID            int64     `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Operation     string    `json:"operation"`
	Target        string    `json:"target"`
	Keyword       string    `json:"keyword"`
	CaseSensitive bool      `json:"case_sensitive"`
	FilePattern   string    `json:"file_pattern,omitempty"`
	ContextLines  int       `json:"context_lines"`
	MatchCount    int       `json:"match_count"`
	FileCount     int       `json:"file_count"`
	DurationMS    int64     `json:"duration_ms"`
}

// Store is a SQLite-backed search history.
type Store struct {
	db         *sql.DB
	maxEntries int
	breaker    *gerrors.CircuitBreaker
	retry      gerrors.RetryConfig
}

// NewStore wraps an open database connection. The schema is created if it
// does not exist. maxEntries bounds the table size; older records are
// trimmed on insert.
func NewStore(db *sql.DB, maxEntries int) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if maxEntries <= 0 {
		return nil, fmt.Errorf("max entries must be positive, got %d", maxEntries)
	}

	if err := initSchema(db); err != nil {
		return nil, err
	}

	return &Store{
		db:         db,
		maxEntries: maxEntries,
		breaker:    gerrors.NewCircuitBreaker("history"),
		retry:      gerrors.DefaultRetryConfig(),
	}, nil
}

// initSchema creates the history table if it doesn't exist.
func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS searches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		operation TEXT NOT NULL,
		target TEXT NOT NULL,
		keyword TEXT NOT NULL,
		case_sensitive INTEGER NOT NULL DEFAULT 0,
		file_pattern TEXT NOT NULL DEFAULT '',
		context_lines INTEGER NOT NULL DEFAULT 0,
		match_count INTEGER NOT NULL DEFAULT 0,
		file_count INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_searches_created ON searches(created_at DESC);
	`

	if _, err := db.Exec(schema); err != nil {
		return gerrors.New(gerrors.ErrCodeHistoryFailed, "create history schema", err)
	}
	return nil
}

// Add inserts a record and trims the table to maxEntries, oldest first.
// Transient SQLite busy states are retried; repeated failures open the
// circuit breaker and later Adds fail fast until the reset timeout.
func (s *Store) Add(r Record) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	return s.breaker.Execute(func() error {
		return gerrors.Retry(context.Background(), s.retry, func() error {
			return s.insert(r)
		})
	})
}

// insert performs one insert-and-trim attempt.
func (s *Store) insert(r Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return gerrors.New(gerrors.ErrCodeHistoryFailed, "begin history transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		INSERT INTO searches
			(created_at, operation, target, keyword, case_sensitive,
			 file_pattern, context_lines, match_count, file_count, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.CreatedAt, r.Operation, r.Target, r.Keyword, boolToInt(r.CaseSensitive),
		r.FilePattern, r.ContextLines, r.MatchCount, r.FileCount, r.DurationMS)
	if err != nil {
		return gerrors.New(gerrors.ErrCodeHistoryFailed, "insert history record", err)
	}

	// Trim to maxEntries, dropping the oldest rows.
	_, err = tx.Exec(`
		DELETE FROM searches
		WHERE id NOT IN (
			SELECT id FROM searches
			ORDER BY id DESC
			LIMIT ?
		)
	`, s.maxEntries)
	if err != nil {
		return gerrors.New(gerrors.ErrCodeHistoryFailed, "trim history", err)
	}

	if err := tx.Commit(); err != nil {
		return gerrors.New(gerrors.ErrCodeHistoryFailed, "commit history transaction", err)
	}
	return nil
}

// Recent returns the newest records, most recent first.
func (s *Store) Recent(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(`
		SELECT id, created_at, operation, target, keyword, case_sensitive,
		       file_pattern, context_lines, match_count, file_count, duration_ms
		FROM searches
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, gerrors.New(gerrors.ErrCodeHistoryFailed, "query history", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var caseSensitive int
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.Operation, &r.Target, &r.Keyword,
			&caseSensitive, &r.FilePattern, &r.ContextLines,
			&r.MatchCount, &r.FileCount, &r.DurationMS); err != nil {
			return nil, gerrors.New(gerrors.ErrCodeHistoryFailed, "scan history row", err)
		}
		r.CaseSensitive = caseSensitive != 0
		records = append(records, r)
	}
	return records, rows.Err()
}

// Count returns the number of stored records.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM searches`).Scan(&n); err != nil {
		return 0, gerrors.New(gerrors.ErrCodeHistoryFailed, "count history", err)
	}
	return n, nil
}

// Clear removes all records.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM searches`); err != nil {
		return gerrors.New(gerrors.ErrCodeHistoryFailed, "clear history", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
