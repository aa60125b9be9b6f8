// Package singleinstance enforces one running notedrop per user: a named
// kernel mutex on Windows, an advisory file lock elsewhere. A second
// launch that fails to acquire the lock signals the running instance over
// ipc and exits.
package singleinstance

import (
	"errors"
	"os"
	"os/user"
	"strings"
)

// ErrAlreadyRunning is returned by TryLock when another instance holds the
// lock.
var ErrAlreadyRunning = errors.New("another instance is already running")

// lockUsername resolves the current username for per-user lock names,
// preferring environment variables so tests can pin it.
func lockUsername() string {
	for _, key := range []string{"USERNAME", "USER"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	if current, err := user.Current(); err == nil {
		return current.Username
	}
	return "default"
}
