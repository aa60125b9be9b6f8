package main

import (
	"context"
	"log/slog"
)

// SaveCurrentFrontmostApp records the currently focused application as the
// restore target for the next hide. The frontend calls this before it
// triggers any UI that steals focus.
func (a *App) SaveCurrentFrontmostApp() {
	a.tracker.SaveCurrent()
}

// ShowApp raises the window, first recording where focus came from so that
// hiding can hand it back.
func (a *App) ShowApp() {
	ctx := a.runtimeContext()
	if ctx == nil {
		return
	}
	a.tracker.SaveCurrent()
	a.raiseWindow(ctx)
	a.setWindowVisible(true)
}

// HideAppAndRestorePrevious hides the window and returns focus to the
// application recorded by the last save.
func (a *App) HideAppAndRestorePrevious() {
	ctx := a.runtimeContext()
	if ctx == nil {
		return
	}
	runtimeWindowHideFn(ctx)
	a.setWindowVisible(false)
	a.tracker.RestorePrevious()
}

// ToggleWindow flips window visibility. This is the global hotkey handler:
// visible hides and restores focus, hidden summons.
func (a *App) ToggleWindow() {
	// CAS guard prevents double-toggle when a second hotkey press fires
	// while OS window operations are still in progress.
	if !a.windowToggling.CompareAndSwap(false, true) {
		slog.Debug("[DEBUG-hotkey] toggle already in progress, skipping")
		return
	}
	defer a.windowToggling.Store(false)

	ctx := a.runtimeContext()
	if ctx == nil {
		return
	}

	// Read OS window state outside the lock; no Wails runtime API calls
	// inside a mutex.
	isMinimised := runtimeWindowIsMinimisedFn(ctx)

	a.windowMu.Lock()
	currentlyVisible := a.windowVisible && !isMinimised
	a.windowMu.Unlock()

	if currentlyVisible {
		runtimeWindowHideFn(ctx)
		a.setWindowVisible(false)
		a.tracker.RestorePrevious()
		return
	}
	a.tracker.SaveCurrent()
	a.raiseWindow(ctx)
	a.setWindowVisible(true)
}

func (a *App) raiseWindow(ctx context.Context) {
	runtimeWindowShowFn(ctx)
	runtimeWindowUnminimiseFn(ctx)
	runtimeWindowSetAlwaysOnTopFn(ctx, true)
	runtimeWindowSetAlwaysOnTopFn(ctx, false)
}

func (a *App) setWindowVisible(visible bool) {
	a.windowMu.Lock()
	a.windowVisible = visible
	a.windowMu.Unlock()
}

// bringWindowToFront shows and raises the application window. Used when a
// second instance signals the first to activate.
func (a *App) bringWindowToFront() {
	ctx := a.runtimeContext()
	if ctx == nil {
		slog.Warn("[DEBUG-IPC] bringWindowToFront dropped because runtime context is nil")
		return
	}
	a.tracker.SaveCurrent()
	a.raiseWindow(ctx)
	a.setWindowVisible(true)
}
