package main

import (
	"log/slog"
	"strings"
	"time"

	"notedrop/internal/config"
	"notedrop/internal/logging"
)

type configUpdatedEvent struct {
	Config             config.Config `json:"config"`
	Version            uint64        `json:"version"`
	UpdatedAtUnixMilli int64         `json:"updated_at_unix_milli"`
}

// GetConfig returns the active sanitized config snapshot.
func (a *App) GetConfig() config.Config {
	return a.getConfigSnapshot()
}

// GetConfigAndFlushWarnings returns the config and emits any pending startup warnings.
func (a *App) GetConfigAndFlushWarnings() config.Config {
	a.flushPendingConfigLoadWarnings()
	return a.getConfigSnapshot()
}

func (a *App) flushPendingConfigLoadWarnings() {
	ctx := a.runtimeContext()
	if ctx == nil {
		return
	}
	if warning := a.consumePendingConfigLoadWarning(); warning != "" {
		a.emitRuntimeEventWithContext(ctx, "config:load-failed", map[string]string{
			"message": warning,
		})
	}
}

// SaveConfig persists raw config text as the user wrote it, comments and
// all, then swaps the in-memory snapshot to the sanitized parse of that
// text. Malformed text still saves; the sanitizer corrects field by field
// and the corrections surface in the diagnostics panel. The config:updated
// event carries the sanitized config, never the raw text.
func (a *App) SaveConfig(content string) error {
	event, err := a.saveConfigWithLock(content)
	if err != nil {
		return err
	}
	a.applyRuntimeHotkeyUpdate(event)
	// Event emission intentionally happens outside cfgSaveMu.
	// Concurrent saves are ordered by Version, and frontend consumers must
	// treat the highest version as authoritative.
	a.emitRuntimeEvent("config:updated", event)
	return nil
}

// saveConfigWithLock persists content, updates the in-memory snapshot, and
// bumps the event version under cfgSaveMu.
func (a *App) saveConfigWithLock(content string) (configUpdatedEvent, error) {
	a.cfgSaveMu.Lock()
	defer a.cfgSaveMu.Unlock()

	cfg := config.LoadFromContent(content)
	if err := config.WriteContent(a.configPath, content); err != nil {
		return configUpdatedEvent{}, err
	}
	a.setConfigSnapshot(cfg)
	a.configExisted.Store(true)
	version := a.configEventVersion.Add(1)

	if cfg.NotesDirectory != a.notesDirAtStartup && a.notesDirAtStartup != "" {
		logging.Event(logging.CategoryConfigIO,
			"Notes directory change takes effect after restart", cfg.NotesDirectory)
	}

	return configUpdatedEvent{
		Config:             config.Clone(cfg),
		Version:            version,
		UpdatedAtUnixMilli: time.Now().UnixMilli(),
	}, nil
}

// applyRuntimeHotkeyUpdate re-registers the global shortcut while preventing
// out-of-order writes from concurrent SaveConfig calls.
func (a *App) applyRuntimeHotkeyUpdate(event configUpdatedEvent) {
	if a.hotkeys == nil {
		return
	}

	a.hotkeyUpdateMu.Lock()
	defer a.hotkeyUpdateMu.Unlock()

	// Use <= (not <) so that a duplicate event with the same version is also
	// rejected. Only a strictly newer version should trigger an update.
	if event.Version <= a.hotkeyAppliedVer {
		slog.Debug("[DEBUG-CONFIG] skipped stale hotkey update", "received", event.Version, "applied", a.hotkeyAppliedVer)
		return
	}
	a.hotkeyAppliedVer = event.Version

	if err := a.hotkeys.Stop(); err != nil {
		slog.Warn("[DEBUG-hotkey] failed to stop previous binding", "error", err)
	}
	spec := strings.TrimSpace(event.Config.GlobalShortcut)
	if spec == "" {
		return
	}
	if err := a.hotkeys.Start(spec, a.ToggleWindow); err != nil {
		logging.Event(logging.CategoryConfigValidation,
			"Failed to register global shortcut", err.Error())
		return
	}
	slog.Info("[DEBUG-hotkey] global shortcut re-registered", "binding", a.hotkeys.ActiveBinding())
}

// GetConfigContent returns the raw on-disk config text for the settings
// editor, falling back to a fresh template when the file is unreadable.
func (a *App) GetConfigContent() string {
	return config.ContentOrTemplate(a.configPath)
}

// ConfigExists reports whether a config file existed before this session.
// It stays false for the whole first run even though startup writes the
// default template, so the frontend can keep first-run affordances up
// until the user saves settings themselves.
func (a *App) ConfigExists() bool {
	return a.configExisted.Load()
}

// GetConfigPath returns the resolved config file path.
func (a *App) GetConfigPath() string {
	return a.configPath
}

// GetAvailableUIThemes returns the closed set of UI theme names.
func (a *App) GetAvailableUIThemes() []string {
	return config.AvailableUIThemes()
}

// GetAvailableMarkdownThemes returns the closed set of markdown render themes.
func (a *App) GetAvailableMarkdownThemes() []string {
	return config.AvailableMarkdownThemes()
}

// GetAvailableCodeThemes returns the highlight.js theme catalog.
func (a *App) GetAvailableCodeThemes() []string {
	return config.AvailableCodeThemes()
}

// GetAvailableEditorModes returns the closed set of editor keybinding modes.
func (a *App) GetAvailableEditorModes() []string {
	return config.AvailableEditorModes()
}

// GetAvailableEditorThemes returns the closed set of editor color themes.
func (a *App) GetAvailableEditorThemes() []string {
	return config.AvailableEditorThemes()
}
