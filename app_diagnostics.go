package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"notedrop/internal/logging"
)

const (
	diagnosticsLogDirName = "logs"
	diagnosticsMaxFiles   = 30
	diagnosticsMaxEntries = 500
	// diagnosticsEmitMinInterval throttles the update ping. Config
	// sanitization can emit dozens of corrections in one load; the panel
	// fetches the full snapshot per ping, so throttling loses nothing.
	diagnosticsEmitMinInterval = 100 * time.Millisecond
)

var slogSetDefaultFn = slog.SetDefault

// DiagnosticEntry is one captured warning or error, shown in the frontend
// diagnostics panel. Seq is assigned at capture time and never resets, so
// the frontend can deduplicate across snapshot fetches.
type DiagnosticEntry struct {
	Seq       uint64 `json:"seq"`
	Timestamp string `json:"ts"` // RFC 3339
	Level     string `json:"level"` // "error", "warn"
	Category  string `json:"category"` // bracketed tag from the log message, may be empty
	Message   string `json:"msg"`
}

// diagnosticsRingBuffer is a fixed-capacity circular buffer of entries.
// It overwrites the oldest entry when full, tracking the logical window
// with a head index and a count.
//
// Not safe for concurrent use; callers must hold diagMu.
type diagnosticsRingBuffer struct {
	buf   []DiagnosticEntry
	head  int
	count int
}

func newDiagnosticsRingBuffer(capacity int) diagnosticsRingBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return diagnosticsRingBuffer{
		buf: make([]DiagnosticEntry, capacity),
	}
}

func (rb *diagnosticsRingBuffer) push(entry DiagnosticEntry) {
	bufCap := len(rb.buf)
	if bufCap == 0 {
		return
	}
	if rb.count < bufCap {
		rb.buf[(rb.head+rb.count)%bufCap] = entry
		rb.count++
		return
	}
	rb.buf[rb.head] = entry
	rb.head = (rb.head + 1) % bufCap
}

// snapshot returns all entries oldest first, independent of the internal
// storage.
func (rb *diagnosticsRingBuffer) snapshot() []DiagnosticEntry {
	if rb.count == 0 {
		return []DiagnosticEntry{}
	}

	out := make([]DiagnosticEntry, rb.count)
	bufCap := len(rb.buf)

	first := min(bufCap-rb.head, rb.count)
	copy(out, rb.buf[rb.head:rb.head+first])
	if rest := rb.count - first; rest > 0 {
		copy(out[first:], rb.buf[:rest])
	}
	return out
}

func (rb *diagnosticsRingBuffer) len() int {
	return rb.count
}

// installDiagnosticsHandler wraps the process default slog handler so
// every Warn and Error record also lands in the diagnostics buffer. All
// sanitizer corrections flow through here.
func (a *App) installDiagnosticsHandler() {
	base := slog.Default().Handler()
	slogSetDefaultFn(slog.New(logging.NewTeeHandler(base, slog.LevelWarn, a.captureDiagnostic)))
}

// initDiagnosticsLog creates the JSONL diagnostics file for the current
// run. Non-fatal: logs a warning and continues if any I/O operation fails.
func (a *App) initDiagnosticsLog() {
	dir := filepath.Join(filepath.Dir(a.configPath), diagnosticsLogDirName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		slog.Warn("[diagnostics] failed to create log directory", "dir", dir, "error", err)
		return
	}

	// PID in the name prevents a collision on sub-second restart.
	filename := fmt.Sprintf("notedrop-%s-%d.jsonl", time.Now().Format("20060102-150405"), os.Getpid())
	fullPath := filepath.Join(dir, filename)

	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		slog.Warn("[diagnostics] failed to open log file", "path", fullPath, "error", err)
		return
	}

	// Write both fields under lock so concurrent readers always observe a
	// consistent pair.
	a.diagMu.Lock()
	a.diagFile = f
	a.diagPath = fullPath
	a.diagMu.Unlock()

	a.cleanupOldDiagnosticsLogs()

	slog.Info("[diagnostics] log initialized", "path", fullPath)
}

// cleanupOldDiagnosticsLogs removes the oldest log files when the count
// exceeds diagnosticsMaxFiles.
func (a *App) cleanupOldDiagnosticsLogs() {
	a.diagMu.RLock()
	currentPath := a.diagPath
	a.diagMu.RUnlock()
	if strings.TrimSpace(currentPath) == "" {
		return
	}

	logDir := filepath.Dir(currentPath)
	currentFile := filepath.Base(currentPath)
	entries, err := os.ReadDir(logDir)
	if err != nil {
		slog.Warn("[diagnostics] failed to read log directory for cleanup", "dir", logDir, "error", err)
		return
	}

	var logFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasPrefix(name, "notedrop-") && strings.HasSuffix(name, ".jsonl") {
			logFiles = append(logFiles, name)
		}
	}

	// Lexicographic order matches creation order because of the timestamp
	// prefix; same-second files tie-break by PID string, which is close
	// enough for cleanup.
	sort.Strings(logFiles)

	excess := len(logFiles) - diagnosticsMaxFiles
	if excess <= 0 {
		return
	}

	deleted := 0
	for _, name := range logFiles {
		if deleted >= excess {
			break
		}
		if name == currentFile {
			// Never delete the active file for this process.
			continue
		}
		target := filepath.Join(logDir, name)
		if err := os.Remove(target); err != nil {
			slog.Warn("[diagnostics] failed to delete old log file", "path", target, "error", err)
			continue
		}
		deleted++
	}
}

// captureDiagnostic is the tee callback behind the default slog handler.
// It appends the record to the ring buffer and the JSONL file, then emits
// a throttled app:diagnostics-updated ping. The event is a bare
// notification; the frontend fetches the full snapshot via
// GetDiagnostics, so throttling never loses entries.
//
// slog must NOT be called anywhere on this path, directly or indirectly:
// the tee handler would re-enter this function (and deadlock on diagMu).
// Internal failures go to stderr instead.
func (a *App) captureDiagnostic(ts time.Time, level slog.Level, category, message string) {
	entry := DiagnosticEntry{
		Timestamp: ts.Format(time.RFC3339),
		Level:     diagnosticsLevel(level),
		Category:  category,
		Message:   message,
	}

	var marshalErr, writeErr error
	shouldEmit := false
	var syncFile *os.File

	a.diagMu.Lock()

	a.diagSeq++
	entry.Seq = a.diagSeq

	if a.diagFile != nil {
		raw, err := json.Marshal(entry)
		if err != nil {
			marshalErr = err
		} else {
			raw = append(raw, '\n')
			if _, err := a.diagFile.Write(raw); err != nil {
				writeErr = err
			} else if entry.Level == "error" {
				// Capture while holding the lock, sync after unlock.
				syncFile = a.diagFile
			}
		}
	}

	a.diagEntries.push(entry)

	now := time.Now()
	if now.Sub(a.diagLastEmit) >= diagnosticsEmitMinInterval {
		a.diagLastEmit = now
		shouldEmit = true
	}

	a.diagMu.Unlock()

	// Error-level entries are flushed eagerly so a crash right after still
	// leaves them on disk.
	if syncFile != nil {
		if syncErr := syncFile.Sync(); syncErr != nil && !errors.Is(syncErr, os.ErrClosed) {
			fmt.Fprintf(os.Stderr, "[diagnostics] failed to sync log file: %v\n", syncErr)
		}
	}
	if marshalErr != nil {
		fmt.Fprintf(os.Stderr, "[diagnostics] failed to marshal log entry: %v\n", marshalErr)
	}
	if writeErr != nil {
		fmt.Fprintf(os.Stderr, "[diagnostics] failed to write log entry: %v\n", writeErr)
	}

	if shouldEmit {
		// Emit directly, bypassing the slog-logging emit helpers.
		if ctx := a.runtimeContext(); ctx != nil {
			runtimeEventsEmitFn(ctx, "app:diagnostics-updated", nil)
		}
	}
}

func diagnosticsLevel(level slog.Level) string {
	if level >= slog.LevelError {
		return "error"
	}
	return "warn"
}

// closeDiagnosticsLog flushes and closes the diagnostics file handle.
func (a *App) closeDiagnosticsLog() {
	var closeErr error

	a.diagMu.Lock()
	if a.diagFile != nil {
		closeErr = a.diagFile.Close()
		a.diagFile = nil
	}
	a.diagMu.Unlock()

	if closeErr != nil {
		fmt.Fprintf(os.Stderr, "[diagnostics] failed to close log file: %v\n", closeErr)
	}
}

// GetDiagnostics returns a copy of all captured entries, oldest first.
// The frontend calls this after an app:diagnostics-updated ping.
func (a *App) GetDiagnostics() []DiagnosticEntry {
	a.diagMu.RLock()
	defer a.diagMu.RUnlock()
	return a.diagEntries.snapshot()
}

// GetDiagnosticsLogPath returns the path of this session's JSONL log file,
// empty when the file could not be created.
func (a *App) GetDiagnosticsLogPath() string {
	a.diagMu.RLock()
	defer a.diagMu.RUnlock()
	return a.diagPath
}
