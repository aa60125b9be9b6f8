package main

import (
	"log/slog"

	"notedrop/internal/logging"
	"notedrop/internal/notes"
	"notedrop/internal/preview"
)

// StartPreview serves a note at a localhost URL, opens that URL in the
// default browser, and returns it. While a preview server is already
// running the call re-points it at the requested note instead of starting
// a second one; connected browser tabs reload in place.
func (a *App) StartPreview(name string) (string, error) {
	store, err := a.requireStore()
	if err != nil {
		return "", err
	}
	if _, err := store.Read(name); err != nil {
		return "", err
	}
	normalized := notes.NormalizeName(name)

	a.previewMu.Lock()
	defer a.previewMu.Unlock()

	if a.previewServer != nil {
		if a.previewServer.Note() != normalized {
			a.previewServer.SetNote(normalized)
		}
		return a.previewServer.URL(), nil
	}

	srv := preview.NewServer(normalized, preview.Options{
		Content: store.Read,
		Themes:  a.previewThemes,
	})
	if err := srv.Start(a.opContext()); err != nil {
		return "", err
	}
	a.previewServer = srv
	if err := openPathFn(srv.URL()); err != nil {
		logging.Event(logging.CategoryPreview,
			"Failed to open browser for preview", err.Error())
	}
	slog.Info("[DEBUG-PREVIEW] preview started", "note", normalized, "url", srv.URL())
	return srv.URL(), nil
}

// StopPreview shuts the preview server down. No-op when none is running.
func (a *App) StopPreview() {
	a.previewMu.Lock()
	srv := a.previewServer
	a.previewServer = nil
	a.previewMu.Unlock()
	if srv == nil {
		return
	}
	if err := srv.Stop(); err != nil {
		logging.Event(logging.CategoryPreview,
			"Failed to stop preview server", err.Error())
	}
}

func (a *App) previewThemes() (markdownTheme, codeTheme string) {
	cfg := a.getConfigSnapshot()
	return cfg.Interface.MarkdownRenderTheme, cfg.Interface.MDRenderCodeTheme
}

func (a *App) currentPreviewServer() *preview.Server {
	a.previewMu.Lock()
	defer a.previewMu.Unlock()
	return a.previewServer
}

// notifyPreviewChanged pushes a reload when name is the previewed note.
func (a *App) notifyPreviewChanged(name string) {
	if srv := a.currentPreviewServer(); srv != nil {
		srv.NotifyChanged(notes.NormalizeName(name))
	}
}

// reloadPreview pushes an unconditional reload. The notes watcher calls
// this after a debounced batch of filesystem changes, which may or may not
// have touched the previewed note; serving one fresh render is cheaper
// than working out which files the batch contained.
func (a *App) reloadPreview() {
	if srv := a.currentPreviewServer(); srv != nil {
		srv.Reload()
	}
}

// repointPreview follows a rename when the old name was being previewed.
func (a *App) repointPreview(oldName, newName string) {
	if srv := a.currentPreviewServer(); srv != nil && srv.Note() == notes.NormalizeName(oldName) {
		srv.SetNote(notes.NormalizeName(newName))
	}
}
