package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"notedrop/internal/config"
	"notedrop/internal/ipc"
	"notedrop/internal/logging"
	"notedrop/internal/notes"
	"notedrop/internal/workerutil"

	"github.com/wailsapp/wails/v2/pkg/runtime"
)

type appRuntimeLogger interface {
	Warningf(context.Context, string, ...interface{})
	Infof(context.Context, string, ...interface{})
	Errorf(context.Context, string, ...interface{})
}

type wailsRuntimeLogger struct{}

func formatRuntimeLogMessage(message string, args ...interface{}) string {
	if len(args) == 0 {
		return message
	}
	return fmt.Sprintf(message, args...)
}

func (wailsRuntimeLogger) Warningf(ctx context.Context, message string, args ...interface{}) {
	if ctx == nil {
		slog.Warn(formatRuntimeLogMessage(message, args...))
		return
	}
	runtime.LogWarningf(ctx, message, args...)
}

func (wailsRuntimeLogger) Infof(ctx context.Context, message string, args ...interface{}) {
	if ctx == nil {
		slog.Info(formatRuntimeLogMessage(message, args...))
		return
	}
	runtime.LogInfof(ctx, message, args...)
}

func (wailsRuntimeLogger) Errorf(ctx context.Context, message string, args ...interface{}) {
	if ctx == nil {
		slog.Error(formatRuntimeLogMessage(message, args...))
		return
	}
	runtime.LogErrorf(ctx, message, args...)
}

var (
	runtimeEventsEmitFn                            = runtime.EventsEmit
	runtimeLogger                 appRuntimeLogger = wailsRuntimeLogger{}
	newIPCServerFn                                 = ipc.NewServer
	openIndexFn                                    = notes.OpenIndex
	runtimeWindowIsMinimisedFn                     = runtime.WindowIsMinimised
	runtimeWindowHideFn                            = runtime.WindowHide
	runtimeWindowShowFn                            = runtime.WindowShow
	runtimeWindowUnminimiseFn                      = runtime.WindowUnminimise
	runtimeWindowSetAlwaysOnTopFn                  = runtime.WindowSetAlwaysOnTop
)

const shutdownWaitTimeout = 10 * time.Second

// indexFileName is the SQLite index file, kept next to the config file
// rather than inside the notes directory so the vault stays plain
// markdown.
const indexFileName = "index.db"

func (a *App) addPendingConfigLoadWarning(message string) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return
	}
	a.startupWarnMu.Lock()
	a.configLoadWarnings = append(a.configLoadWarnings, trimmed)
	a.startupWarnMu.Unlock()
}

func (a *App) consumePendingConfigLoadWarning() string {
	a.startupWarnMu.Lock()
	defer a.startupWarnMu.Unlock()
	if len(a.configLoadWarnings) == 0 {
		return ""
	}
	message := strings.Join(a.configLoadWarnings, "\n")
	a.configLoadWarnings = nil
	return message
}

func (a *App) startup(ctx context.Context) {
	setConsoleUTF8()

	a.setRuntimeContext(ctx)
	a.setWindowVisible(true)
	a.installDiagnosticsHandler()

	a.configPath = config.DefaultPath()
	for _, message := range config.ConsumeDefaultPathWarnings() {
		a.addPendingConfigLoadWarning(message)
	}
	a.initDiagnosticsLog()

	created, err := config.EnsureFile(a.configPath)
	if err != nil {
		// A template write failure is non-fatal; Load below falls back to
		// defaults and the user gets a warning.
		a.addPendingConfigLoadWarning(
			"Failed to create default config file at startup. Error: " + err.Error(),
		)
		runtimeLogger.Warningf(ctx, "failed to create config template at %s: %v", a.configPath, err)
	}
	a.configExisted.Store(err == nil && !created)
	cfg := config.Load(a.configPath)
	a.setConfigSnapshot(cfg)
	a.notesDirAtStartup = cfg.NotesDirectory

	a.openNoteStorage(ctx, cfg.NotesDirectory)
	a.startNotesWatcher(ctx)
	a.configureGlobalHotkey()
	a.startActivationServer(ctx)
	a.flushPendingConfigLoadWarnings()
}

// openNoteStorage opens the SQLite index and the note store. Both degrade
// instead of failing startup: an unopenable index falls back to an
// in-memory one (search and history work but do not persist), and only an
// uncreatable notes directory leaves the store nil.
func (a *App) openNoteStorage(ctx context.Context, notesDir string) {
	indexPath := filepath.Join(filepath.Dir(a.configPath), indexFileName)
	idx, err := openIndexFn(indexPath)
	if err != nil {
		logging.Error(logging.CategoryNotes,
			"Failed to open note index, falling back to in-memory index", err.Error())
		idx, err = openIndexFn(":memory:")
		if err != nil {
			logging.Error(logging.CategoryNotes,
				"Failed to open in-memory note index", err.Error())
			a.addPendingConfigLoadWarning(
				"Note search and version history are unavailable this session. Error: " + err.Error(),
			)
			idx = nil
		} else {
			a.addPendingConfigLoadWarning(
				"Note index could not be opened; search and version history will not persist across restarts.",
			)
		}
	}
	a.index = idx

	store, err := notes.NewStore(notesDir, idx)
	if err != nil {
		logging.Error(logging.CategoryNotes,
			"Failed to open notes directory", err.Error())
		a.addPendingConfigLoadWarning(
			"Failed to open notes directory " + notesDir + ". Notes are unavailable. Error: " + err.Error(),
		)
		return
	}
	a.store = store

	// Initial index build runs in the background so a large vault does not
	// stall the first paint.
	workerutil.RunWithPanicRecovery(ctx, "initial-index", &a.bgWG, func(ctx context.Context) {
		if err := store.RefreshCache(ctx); err != nil {
			logging.Event(logging.CategoryNotes,
				"Initial note indexing failed", err.Error())
			return
		}
		a.emitRuntimeEvent("notes:changed", nil)
	}, workerutil.RecoveryOptions{
		MaxRetries: 1,
		IsShutdown: a.shuttingDown.Load,
	})
}

// startNotesWatcher runs the filesystem watcher under panic recovery so a
// watcher crash degrades to stale listings instead of taking the app down.
func (a *App) startNotesWatcher(parent context.Context) {
	store, err := a.requireStore()
	if err != nil {
		return
	}

	ctx, cancel := context.WithCancel(parent)
	a.watcherCancel = cancel

	watcher := notes.NewWatcher(store, a.onNotesChanged)
	workerutil.RunWithPanicRecovery(ctx, "notes-watcher", &a.bgWG, watcher.Run, workerutil.RecoveryOptions{
		OnPanic: func(worker string, attempt int) {
			a.emitRuntimeEvent("app:worker-panic", map[string]any{"worker": worker})
		},
		IsShutdown: a.shuttingDown.Load,
	})
}

func (a *App) configureGlobalHotkey() {
	if a.hotkeys == nil {
		return
	}
	logCtx := a.runtimeContext()
	cfg := a.getConfigSnapshot()
	spec := strings.TrimSpace(cfg.GlobalShortcut)
	if spec == "" {
		slog.Debug("[DEBUG-hotkey] no global shortcut configured, skipping")
		return
	}

	if err := a.hotkeys.Start(spec, a.ToggleWindow); err != nil {
		logging.Event(logging.CategoryConfigValidation,
			"Failed to register global shortcut", err.Error())
		runtimeLogger.Warningf(logCtx, "global shortcut registration failed: %v", err)
		return
	}
	runtimeLogger.Infof(logCtx, "global shortcut registered: %s", a.hotkeys.ActiveBinding())
}

// startActivationServer listens for activation requests from later
// launches of the binary; the single-instance lock in main guarantees at
// most one listener per user.
func (a *App) startActivationServer(ctx context.Context) {
	a.ipcServer = newIPCServerFn("", a.handleActivateRequest)
	if err := a.ipcServer.Start(); err != nil {
		runtimeLogger.Errorf(ctx, "activation server failed: %v", err)
		a.addPendingConfigLoadWarning(
			"Failed to start the activation endpoint. Launching the app again will not raise this window. Error: " + err.Error(),
		)
		return
	}
	runtimeLogger.Infof(ctx, "activation endpoint listening: %s", a.ipcServer.Endpoint())
}

func (a *App) handleActivateRequest(req ipc.ActivateRequest) ipc.ActivateResponse {
	slog.Info("[DEBUG-IPC] activation requested by another instance", "pid", req.PID)
	a.bringWindowToFront()
	return ipc.ActivateResponse{OK: true}
}

func (a *App) shutdown(_ context.Context) {
	// Shutdown guard: worker recovery loops stop retrying and a second
	// shutdown call becomes a no-op.
	if !a.shuttingDown.CompareAndSwap(false, true) {
		return
	}
	logCtx := a.runtimeContext()

	if a.watcherCancel != nil {
		a.watcherCancel()
		a.watcherCancel = nil
	}
	if !waitWithTimeout(a.bgWG.Wait, shutdownWaitTimeout) {
		runtimeLogger.Warningf(logCtx, "timed out waiting for background workers during shutdown")
	}

	a.StopPreview()

	if a.hotkeys != nil {
		if err := a.hotkeys.Stop(); err != nil {
			runtimeLogger.Warningf(logCtx, "hotkey stop failed: %v", err)
		}
	}
	if a.ipcServer != nil {
		if err := a.ipcServer.Stop(); err != nil {
			runtimeLogger.Warningf(logCtx, "activation server stop failed: %v", err)
		}
	}
	if a.index != nil {
		if err := a.index.Close(); err != nil {
			runtimeLogger.Warningf(logCtx, "note index close failed: %v", err)
		}
	}
	a.closeDiagnosticsLog()
}

func waitWithTimeout(waitFn func(), timeout time.Duration) bool {
	// Best effort timeout guard for shutdown paths. The waiting goroutine may
	// outlive timeout when waitFn blocks indefinitely, but this function is only
	// used during process shutdown where eventual completion is expected.
	done := make(chan struct{})
	go func() {
		waitFn()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer func() {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
