package history

import (
	"database/sql"
	"os"
	"path/filepath"

	gerrors "github.com/grepmcp/grepmcp/internal/errors"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// Open opens (or creates) the history database at path.
// WAL mode allows the CLI and a serving MCP process to record
// concurrently without stepping on each other.
func Open(path string, maxEntries int) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, gerrors.New(gerrors.ErrCodeHistoryFailed, "create history directory "+dir, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, gerrors.New(gerrors.ErrCodeHistoryFailed, "open history database "+path, err)
	}

	// Single writer to prevent lock contention.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// WAL mode must be set via PRAGMA for modernc.org/sqlite; DSN params
	// may be ignored.
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, gerrors.New(gerrors.ErrCodeHistoryFailed, "configure history database", err)
		}
	}

	store, err := NewStore(db, maxEntries)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}
