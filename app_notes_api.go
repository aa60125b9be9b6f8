package main

import (
	"log/slog"

	"notedrop/internal/notes"
)

// ListNotes returns every note in the notes directory, most recently
// modified first.
func (a *App) ListNotes() ([]notes.Info, error) {
	store, err := a.requireStore()
	if err != nil {
		return nil, err
	}
	return store.List()
}

// GetNoteContent returns a note's full markdown content.
func (a *App) GetNoteContent(name string) (string, error) {
	store, err := a.requireStore()
	if err != nil {
		return "", err
	}
	return store.Read(name)
}

// SaveNote writes a note's content. The previous content is snapshotted
// into the version history before the write, and an open preview of the
// note reloads.
func (a *App) SaveNote(name, content string) error {
	store, err := a.requireStore()
	if err != nil {
		return err
	}
	if err := store.Save(a.opContext(), name, content); err != nil {
		return err
	}
	a.notifyPreviewChanged(name)
	return nil
}

// CreateNote makes a new empty note.
func (a *App) CreateNote(name string) error {
	store, err := a.requireStore()
	if err != nil {
		return err
	}
	return store.Create(a.opContext(), name)
}

// RenameNote moves a note to a new name, carrying its version history
// along. A preview of the old name follows the note.
func (a *App) RenameNote(oldName, newName string) error {
	store, err := a.requireStore()
	if err != nil {
		return err
	}
	if err := store.Rename(a.opContext(), oldName, newName); err != nil {
		return err
	}
	a.repointPreview(oldName, newName)
	return nil
}

// DeleteNote moves a note into the recently-deleted area. It stays
// restorable there until the retention window expires.
func (a *App) DeleteNote(name string) error {
	store, err := a.requireStore()
	if err != nil {
		return err
	}
	return store.Delete(a.opContext(), name)
}

// SearchNotes runs a substring search over indexed note content. The
// result count is capped by the max_search_results preference.
func (a *App) SearchNotes(query string) ([]notes.SearchResult, error) {
	store, err := a.requireStore()
	if err != nil {
		return nil, err
	}
	cfg := a.getConfigSnapshot()
	return store.Search(a.opContext(), query, cfg.Preferences.MaxSearchResults)
}

// RefreshCache rescans the notes directory into the search index. The
// watcher keeps the index current for normal edits; this is the manual
// escape hatch for bulk external changes.
func (a *App) RefreshCache() error {
	store, err := a.requireStore()
	if err != nil {
		return err
	}
	return store.RefreshCache(a.opContext())
}

// ListNoteVersions lists a note's stored history, newest first.
func (a *App) ListNoteVersions(name string) ([]notes.Version, error) {
	store, err := a.requireStore()
	if err != nil {
		return nil, err
	}
	return store.ListVersions(a.opContext(), name)
}

// GetNoteVersion returns one stored version's content.
func (a *App) GetNoteVersion(versionID string) (string, error) {
	store, err := a.requireStore()
	if err != nil {
		return "", err
	}
	return store.VersionContent(a.opContext(), versionID)
}

// RestoreNoteVersion replaces a note's content with a stored version. The
// current content is snapshotted first, so the restore is itself
// reversible through the version explorer.
func (a *App) RestoreNoteVersion(name, versionID string) error {
	store, err := a.requireStore()
	if err != nil {
		return err
	}
	if err := store.RestoreVersion(a.opContext(), name, versionID); err != nil {
		return err
	}
	a.notifyPreviewChanged(name)
	return nil
}

// ListRecentlyDeleted lists notes deleted within the retention window.
func (a *App) ListRecentlyDeleted() ([]notes.DeletedNote, error) {
	store, err := a.requireStore()
	if err != nil {
		return nil, err
	}
	return store.ListRecentlyDeleted(a.opContext())
}

// RestoreDeletedNote brings a deleted note back and returns the name it
// was restored under, which gains a numbered suffix when the original
// name has since been reused.
func (a *App) RestoreDeletedNote(name string) (string, error) {
	store, err := a.requireStore()
	if err != nil {
		return "", err
	}
	return store.RestoreDeleted(a.opContext(), name)
}

// OpenNoteExternal opens a note in the system default editor.
func (a *App) OpenNoteExternal(name string) error {
	store, err := a.requireStore()
	if err != nil {
		return err
	}
	if _, err := store.Read(name); err != nil {
		return err
	}
	path, err := store.Path(name)
	if err != nil {
		return err
	}
	slog.Debug("[DEBUG-NOTES] opening note externally", "path", path)
	return openPathFn(path)
}

// OpenNotesFolder opens the notes directory in the system file manager.
func (a *App) OpenNotesFolder() error {
	store, err := a.requireStore()
	if err != nil {
		return err
	}
	return openPathFn(store.Dir())
}
