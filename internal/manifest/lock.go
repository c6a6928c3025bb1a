package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	docerrors "github.com/Aman-CERP/docsync/internal/errors"
)

// PassLock is a cross-process lock guarding one manifest.
// Only one synchronization pass may hold it at a time.
type PassLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// LockPath returns the lock file used for the manifest.
func (s *Store) LockPath() string {
	return s.path + ".lock"
}

// Lock acquires the pass lock without blocking.
// If another process or pass holds it, the error matches ErrPassInProgress.
func (s *Store) Lock() (*PassLock, error) {
	path := s.LockPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	l := &PassLock{path: path, flock: flock.New(path)}
	acquired, err := l.flock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire pass lock: %w", err)
	}
	if !acquired {
		return nil, docerrors.PassInProgressError(path)
	}

	l.locked = true
	return l, nil
}

// Unlock releases the lock. Calling it more than once is safe.
func (l *PassLock) Unlock() error {
	if l == nil || !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release pass lock: %w", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *PassLock) Path() string {
	return l.path
}
