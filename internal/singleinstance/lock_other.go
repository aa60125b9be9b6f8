//go:build !windows

package singleinstance

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"notedrop/internal/userutil"
)

// Lock holds an advisory file lock. The OS drops the lock when the owning
// process exits, so a crashed instance never wedges it; the lock file
// itself is left behind and harmlessly reused.
type Lock struct {
	fl *flock.Flock
}

// TryLock attempts to acquire the advisory lock on the given file path.
// Returns ErrAlreadyRunning if another process already holds it.
func TryLock(name string) (*Lock, error) {
	if name == "" {
		return nil, errors.New("lock file path is required")
	}
	fl := flock.New(name)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", name, err)
	}
	if !locked {
		return nil, ErrAlreadyRunning
	}
	return &Lock{fl: fl}, nil
}

// Release drops the file lock. Safe on a nil receiver and idempotent.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	err := l.fl.Unlock()
	l.fl = nil
	return err
}

// DefaultLockName returns the per-user lock file path, mirroring the
// endpoint naming in ipc.DefaultEndpoint.
func DefaultLockName() string {
	name := fmt.Sprintf("notedrop-%s.lock", userutil.SanitizeUsername(lockUsername()))
	return filepath.Join(os.TempDir(), name)
}
