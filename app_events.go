package main

import (
	"context"
	"log/slog"
)

// emitRuntimeEvent emits via the app context and delegates to emitRuntimeEventWithContext.
func (a *App) emitRuntimeEvent(name string, payload any) {
	a.emitRuntimeEventWithContext(a.runtimeContext(), name, payload)
}

// emitRuntimeEventWithContext emits a runtime event only when ctx is non-nil.
// Prefer this helper for best-effort contexts that may not be initialized yet.
func (a *App) emitRuntimeEventWithContext(ctx context.Context, name string, payload any) {
	if ctx == nil {
		slog.Warn("[EVENT] runtime event dropped because app context is nil", "event", name)
		return
	}
	runtimeEventsEmitFn(ctx, name, payload)
}

// onNotesChanged runs after the watcher has re-indexed a debounced batch of
// filesystem changes. The frontend re-lists on notes:changed; an open
// preview re-renders.
func (a *App) onNotesChanged() {
	a.emitRuntimeEvent("notes:changed", nil)
	a.reloadPreview()
}
