//go:build !windows

package singleinstance

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestTryLock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "notedrop-test.lock")

	t.Run("first lock succeeds", func(t *testing.T) {
		lock, err := TryLock(lockPath)
		if err != nil {
			t.Fatalf("TryLock failed: %v", err)
		}
		if lock == nil {
			t.Fatal("TryLock returned nil lock without error")
		}
		if err := lock.Release(); err != nil {
			t.Fatalf("Release failed: %v", err)
		}
	})

	t.Run("second lock returns ErrAlreadyRunning", func(t *testing.T) {
		lock1, err := TryLock(lockPath)
		if err != nil {
			t.Fatalf("first TryLock failed: %v", err)
		}
		defer lock1.Release()

		lock2, err := TryLock(lockPath)
		if !errors.Is(err, ErrAlreadyRunning) {
			t.Fatalf("second TryLock: got err=%v, want ErrAlreadyRunning", err)
		}
		if lock2 != nil {
			t.Fatal("second TryLock returned non-nil lock on ErrAlreadyRunning")
		}
	})

	t.Run("lock reacquirable after release", func(t *testing.T) {
		lock1, err := TryLock(lockPath)
		if err != nil {
			t.Fatalf("first TryLock failed: %v", err)
		}
		if err := lock1.Release(); err != nil {
			t.Fatalf("Release failed: %v", err)
		}

		lock2, err := TryLock(lockPath)
		if err != nil {
			t.Fatalf("second TryLock after release failed: %v", err)
		}
		defer lock2.Release()
	})

	t.Run("release idempotent", func(t *testing.T) {
		lock, err := TryLock(lockPath)
		if err != nil {
			t.Fatalf("TryLock failed: %v", err)
		}
		if err := lock.Release(); err != nil {
			t.Fatalf("first Release failed: %v", err)
		}
		if err := lock.Release(); err != nil {
			t.Fatalf("second Release should be no-op, got: %v", err)
		}
	})

	t.Run("nil lock release safe", func(t *testing.T) {
		var lock *Lock
		if err := lock.Release(); err != nil {
			t.Fatalf("nil Release should be no-op, got: %v", err)
		}
	})

	t.Run("empty path returns error", func(t *testing.T) {
		lock, err := TryLock("")
		if err == nil {
			t.Fatal("TryLock with empty path should fail")
		}
		if lock != nil {
			lock.Release()
			t.Fatal("TryLock with empty path returned non-nil lock")
		}
	})
}

func TestDefaultLockName(t *testing.T) {
	t.Setenv("USERNAME", "unit user!")

	name := DefaultLockName()
	if !strings.HasSuffix(name, "notedrop-unit_user_.lock") {
		t.Fatalf("DefaultLockName = %q, want sanitized per-user lock file", name)
	}
}
