package index

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// fileLock guards a database against concurrent index runs from
// separate processes.
type fileLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

func newFileLock(dbPath string) *fileLock {
	lockPath := dbPath + ".lock"
	return &fileLock{path: lockPath, flock: flock.New(lockPath)}
}

// tryLock acquires the lock without blocking. It reports false when
// another process holds it.
func (l *fileLock) tryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}
	ok, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	l.locked = ok
	return ok, nil
}

// unlock is safe to call when the lock is not held.
func (l *fileLock) unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}
