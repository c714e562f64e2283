package mcp

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ServeLock is a cross-process file lock on the log directory, used to
// detect a second concurrent server instance sharing the same log files.
// Works on all platforms (Unix, Linux, macOS, Windows).
type ServeLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewServeLock creates a lock for the given log directory. The lock file
// is created at <dir>/.serve.lock.
func NewServeLock(dir string) *ServeLock {
	lockPath := filepath.Join(dir, ".serve.lock")
	return &ServeLock{
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// TryLock attempts to acquire the lock without blocking.
// Returns true if the lock was acquired, false if another server holds it.
func (l *ServeLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}

	if acquired {
		l.locked = true
	}
	return acquired, nil
}

// Unlock releases the lock. Safe to call multiple times or on a lock that
// was never acquired.
func (l *ServeLock) Unlock() error {
	if !l.locked {
		return nil
	}

	if err := l.flock.Unlock(); err != nil {
		l.locked = false
		return fmt.Errorf("failed to release lock: %w", err)
	}

	l.locked = false
	return nil
}

// Path returns the path to the lock file.
func (l *ServeLock) Path() string {
	return l.path
}

// IsLocked returns true if this process currently holds the lock.
func (l *ServeLock) IsLocked() bool {
	return l.locked
}
