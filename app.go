package main

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"notedrop/internal/config"
	"notedrop/internal/focus"
	"notedrop/internal/hotkeys"
	"notedrop/internal/ipc"
	"notedrop/internal/notes"
	"notedrop/internal/preview"
)

// App is the Wails-bound application service.
type App struct {
	// Runtime context lifecycle.
	ctx   context.Context
	ctxMu sync.RWMutex

	// Configuration state and startup warnings.
	// Lock ordering (outer -> inner):
	//   cfgSaveMu -> cfgMu
	//
	// Nested lock ordering (one-way only):
	//   hotkeyUpdateMu -> hotkeys.Manager internals (via Stop/Start)
	//
	// Independent locks: do not assume ordering across these.
	//   windowMu, previewMu, startupWarnMu, ctxMu, diagMu
	//
	// Keep cfgSaveMu/cfgMu isolated from the independent lock set above.
	cfgMu              sync.RWMutex
	cfgSaveMu          sync.Mutex
	configEventVersion atomic.Uint64
	hotkeyUpdateMu     sync.Mutex
	hotkeyAppliedVer   uint64
	cfg                config.Config
	configPath         string
	configExisted      atomic.Bool
	startupWarnMu      sync.Mutex
	configLoadWarnings []string
	// notesDirAtStartup is the notes directory the store was opened on.
	// Read-only after startup() returns; a changed notes_directory in a
	// later SaveConfig takes effect on the next launch.
	notesDirAtStartup string

	// Backend services.
	store     *notes.Store
	index     *notes.Index
	hotkeys   *hotkeys.Manager
	tracker   *focus.Tracker
	ipcServer *ipc.Server

	// Preview server lifecycle. A stopped server cannot be restarted, so
	// StartPreview replaces the pointer and StopPreview nils it.
	previewMu     sync.Mutex
	previewServer *preview.Server

	// Window visibility state.
	windowMu       sync.Mutex
	windowVisible  bool
	windowToggling atomic.Bool // CAS guard to prevent concurrent ToggleWindow
	shuttingDown   atomic.Bool // set once at the start of shutdown(); checked by worker recovery loops

	// Diagnostics panel state (captures Warn/Error level records).
	// Protected by diagMu (RWMutex: write-lock for append/close, read-lock for get).
	//
	// diagLastEmit: time of last app:diagnostics-updated emission; throttles
	//   bursts of corrections to prevent Wails IPC saturation.
	// diagSeq: monotonically increasing counter for stable frontend deduplication.
	diagMu       sync.RWMutex
	diagFile     *os.File
	diagPath     string
	diagEntries  diagnosticsRingBuffer
	diagLastEmit time.Time
	diagSeq      uint64

	// Background worker cancellation/waits.
	watcherCancel context.CancelFunc
	bgWG          sync.WaitGroup
}

// NewApp creates the app service.
func NewApp() *App {
	return &App{
		hotkeys:     hotkeys.NewManager(),
		tracker:     focus.NewTracker(focus.Platform{}),
		diagEntries: newDiagnosticsRingBuffer(diagnosticsMaxEntries),
	}
}
