// Package focus tracks which application was frontmost before the notedrop
// window was summoned, so hiding the window can hand focus back instead of
// leaving the desktop focused on nothing. The tracker itself is pure state
// plus a platform seam; the OS calls live in the build-tagged platform
// files.
package focus

import (
	"errors"
	"fmt"
	"sync"

	"notedrop/internal/logging"
)

// ErrNotRunning is returned by Platform.ActivatePID when the saved process
// no longer has an activatable window.
var ErrNotRunning = errors.New("previous application is not running")

// Platform supplies the OS operations the tracker needs. Nil fields are
// replaced with the platform defaults by NewTracker; tests inject fakes.
type Platform struct {
	// FrontmostPID reports the PID of the currently focused application.
	// ok is false when the platform cannot determine it.
	FrontmostPID func() (pid int, ok bool)
	// ActivatePID brings the given process's window to the foreground.
	ActivatePID func(pid int) error
	// OwnPID reports this process's PID.
	OwnPID func() int
}

// Tracker remembers at most one previously frontmost application.
type Tracker struct {
	platform Platform

	mu      sync.Mutex
	prevPID int
	hasPrev bool
}

// NewTracker builds a tracker backed by platform. Any nil Platform field
// falls back to the build target's default implementation.
func NewTracker(platform Platform) *Tracker {
	defaults := defaultPlatform()
	if platform.FrontmostPID == nil {
		platform.FrontmostPID = defaults.FrontmostPID
	}
	if platform.ActivatePID == nil {
		platform.ActivatePID = defaults.ActivatePID
	}
	if platform.OwnPID == nil {
		platform.OwnPID = defaults.OwnPID
	}
	return &Tracker{platform: platform}
}

// SaveCurrent records the frontmost application as the restore target. When
// notedrop itself is frontmost the previously saved target is preserved, so
// a rapid show/hide toggle does not lose the application the user came
// from. When the frontmost application cannot be determined the state is
// left unchanged.
func (t *Tracker) SaveCurrent() {
	pid, ok := t.platform.FrontmostPID()
	if !ok {
		return
	}
	if pid == t.platform.OwnPID() {
		return
	}

	t.mu.Lock()
	t.prevPID = pid
	t.hasPrev = true
	t.mu.Unlock()
}

// RestorePrevious activates the saved application and clears the saved
// state. It is a no-op when nothing is saved. Activation failures are
// logged, not returned: by the time the window is hiding there is nobody
// to surface an error to.
func (t *Tracker) RestorePrevious() {
	t.mu.Lock()
	pid, had := t.prevPID, t.hasPrev
	t.prevPID, t.hasPrev = 0, false
	t.mu.Unlock()

	if !had {
		return
	}

	err := t.platform.ActivatePID(pid)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotRunning):
		logging.Event(logging.CategoryFocus,
			"Previous app no longer running", fmt.Sprintf("PID: %d", pid))
	default:
		logging.Event(logging.CategoryFocus,
			"Failed to activate previous app", fmt.Sprintf("PID: %d", pid))
	}
}

// Saved reports the currently saved restore target.
func (t *Tracker) Saved() (pid int, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.prevPID, t.hasPrev
}

// Clear drops any saved restore target without activating it.
func (t *Tracker) Clear() {
	t.mu.Lock()
	t.prevPID, t.hasPrev = 0, false
	t.mu.Unlock()
}
