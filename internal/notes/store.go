package notes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"notedrop/internal/logging"
	"notedrop/internal/validation"
)

const (
	maxNoteFileBytes int64 = 10 << 20 // 10MB
	noteRenameRetry        = 10
	noteRenameDelay        = 10 * time.Millisecond
)

// ErrNoteExists is returned when creating or renaming onto a name that is
// already taken.
var ErrNoteExists = errors.New("a note with that name already exists")

// ErrNoteNotFound is returned for operations on a note that has no file.
var ErrNoteNotFound = errors.New("note not found")

// Store is the filesystem-backed note store. All note names pass through
// the note-name validator before touching the filesystem, so a hostile
// name can never escape the notes directory.
type Store struct {
	dir   string
	index *Index
	nowFn func() time.Time
}

// NewStore opens a store rooted at dir, creating the directory when
// missing, backed by idx for search and history.
func NewStore(dir string, idx *Index) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create notes directory: %w", err)
	}
	return &Store{dir: dir, index: idx, nowFn: time.Now}, nil
}

// Dir returns the notes directory path.
func (s *Store) Dir() string {
	return s.dir
}

// NormalizeName appends the .md extension when absent. Validation happens
// on the normalized name so "note" and "note.md" are the same note.
func NormalizeName(name string) string {
	if strings.HasSuffix(name, ".md") {
		return name
	}
	return name + ".md"
}

func (s *Store) notePath(name string) (string, error) {
	if err := validation.ValidateNoteName(name); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, name), nil
}

// Path returns the on-disk path of a note after name validation. The note
// does not have to exist.
func (s *Store) Path(name string) (string, error) {
	return s.notePath(NormalizeName(name))
}

// List returns every markdown note in the directory, most recently
// modified first.
func (s *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read notes directory: %w", err)
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, Info{
			Name:       entry.Name(),
			Title:      s.titleFromIndexOrName(entry.Name()),
			ModifiedAt: fi.ModTime(),
			Size:       fi.Size(),
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ModifiedAt.After(infos[j].ModifiedAt)
	})
	return infos, nil
}

func (s *Store) titleFromIndexOrName(name string) string {
	if s.index != nil {
		var title string
		row := s.index.db.QueryRow("SELECT title FROM notes WHERE name = ?", name)
		if err := row.Scan(&title); err == nil && title != "" {
			return title
		}
	}
	return strings.TrimSuffix(name, ".md")
}

// Read returns a note's full content.
func (s *Store) Read(name string) (string, error) {
	name = NormalizeName(name)
	path, err := s.notePath(name)
	if err != nil {
		return "", err
	}
	raw, err := readLimitedNoteFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoteNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read note: %w", err)
	}
	return string(raw), nil
}

// Save writes a note's content, snapshotting the previous content into the
// version history first. Saving a note that does not exist yet creates it
// without a version entry.
func (s *Store) Save(ctx context.Context, name, content string) error {
	name = NormalizeName(name)
	path, err := s.notePath(name)
	if err != nil {
		return err
	}
	if int64(len(content)) > maxNoteFileBytes {
		return fmt.Errorf("note exceeds %d bytes", maxNoteFileBytes)
	}

	previous, readErr := readLimitedNoteFile(path)
	hadPrevious := readErr == nil
	if hadPrevious && s.index != nil && string(previous) != content {
		if _, err := s.index.AddVersion(ctx, name, string(previous), s.nowFn()); err != nil {
			logging.Event(logging.CategoryNotes,
				"Failed to snapshot note version", err.Error())
		}
	}

	if err := atomicWriteNote(path, []byte(content)); err != nil {
		return err
	}
	s.reindex(ctx, name, content)
	return nil
}

// Create makes a new empty note. The name must not already be in use.
func (s *Store) Create(ctx context.Context, name string) error {
	name = NormalizeName(name)
	path, err := s.notePath(name)
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(path); statErr == nil {
		return ErrNoteExists
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return fmt.Errorf("create note: stat: %w", statErr)
	}
	if err := atomicWriteNote(path, nil); err != nil {
		return err
	}
	s.reindex(ctx, name, "")
	return nil
}

// Rename moves a note to a new name, carrying its version history along.
func (s *Store) Rename(ctx context.Context, oldName, newName string) error {
	oldName = NormalizeName(oldName)
	newName = NormalizeName(newName)

	oldPath, err := s.notePath(oldName)
	if err != nil {
		return err
	}
	newPath, err := s.notePath(newName)
	if err != nil {
		return err
	}
	if oldName == newName {
		return nil
	}
	if _, statErr := os.Stat(newPath); statErr == nil {
		return ErrNoteExists
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return fmt.Errorf("rename note: stat: %w", statErr)
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNoteNotFound
		}
		return fmt.Errorf("rename note: %w", err)
	}

	if s.index != nil {
		if err := s.index.RenameNote(ctx, oldName, newName); err != nil {
			logging.Event(logging.CategoryNotes,
				"Failed to rename note in index", err.Error())
		}
	}
	return nil
}

// Delete moves a note into the recently-deleted area and removes its file.
func (s *Store) Delete(ctx context.Context, name string) error {
	name = NormalizeName(name)
	path, err := s.notePath(name)
	if err != nil {
		return err
	}

	raw, err := readLimitedNoteFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return ErrNoteNotFound
	}
	if err != nil {
		return fmt.Errorf("delete note: read: %w", err)
	}

	if s.index != nil {
		if err := s.index.MoveToTrash(ctx, name, string(raw), s.nowFn()); err != nil {
			return fmt.Errorf("delete note: trash: %w", err)
		}
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete note: remove: %w", err)
	}
	if s.index != nil {
		if err := s.index.RemoveNote(ctx, name); err != nil {
			logging.Event(logging.CategoryNotes,
				"Failed to deindex deleted note", err.Error())
		}
	}
	return nil
}

// RestoreDeleted brings a note back from the recently-deleted area. When a
// new note has since taken the name, the restored copy gets a numbered
// suffix instead of overwriting it.
func (s *Store) RestoreDeleted(ctx context.Context, name string) (string, error) {
	name = NormalizeName(name)
	if _, err := s.notePath(name); err != nil {
		return "", err
	}
	if s.index == nil {
		return "", ErrNotInTrash
	}

	content, err := s.index.TakeFromTrash(ctx, name)
	if err != nil {
		return "", err
	}

	target := name
	for n := 1; ; n++ {
		path, err := s.notePath(target)
		if err != nil {
			return "", err
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			if err := atomicWriteNote(path, []byte(content)); err != nil {
				return "", err
			}
			s.reindex(ctx, target, content)
			return target, nil
		}
		target = fmt.Sprintf("%s-%d.md", strings.TrimSuffix(name, ".md"), n)
	}
}

// RestoreVersion replaces a note's content with a stored version,
// snapshotting the current content first so the restore itself is
// reversible.
func (s *Store) RestoreVersion(ctx context.Context, name, versionID string) error {
	name = NormalizeName(name)
	if s.index == nil {
		return ErrVersionNotFound
	}
	content, err := s.index.VersionContent(ctx, versionID)
	if err != nil {
		return err
	}
	return s.Save(ctx, name, content)
}

// Search queries the index, capped at maxResults.
func (s *Store) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if s.index == nil {
		return nil, nil
	}
	return s.index.Search(ctx, query, maxResults)
}

// RefreshCache rescans the notes directory into the index, adding and
// updating every file found and dropping index rows whose file is gone.
func (s *Store) RefreshCache(ctx context.Context) error {
	if s.index == nil {
		return nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("refresh cache: %w", err)
	}

	present := make(map[string]bool)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") || strings.HasPrefix(name, ".") {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		raw, err := readLimitedNoteFile(filepath.Join(s.dir, name))
		if err != nil {
			logging.Event(logging.CategoryNotes,
				"Skipping unreadable note during refresh", err.Error())
			continue
		}
		present[name] = true
		if err := s.index.UpsertNote(ctx, name, string(raw), fi.ModTime(), fi.Size()); err != nil {
			return fmt.Errorf("refresh cache: index %s: %w", name, err)
		}
	}

	known, err := s.index.KnownNames(ctx)
	if err != nil {
		return err
	}
	for _, name := range known {
		if !present[name] {
			if err := s.index.RemoveNote(ctx, name); err != nil {
				return fmt.Errorf("refresh cache: deindex %s: %w", name, err)
			}
		}
	}
	return nil
}

// ListVersions lists a note's stored history, newest first.
func (s *Store) ListVersions(ctx context.Context, name string) ([]Version, error) {
	if s.index == nil {
		return nil, nil
	}
	return s.index.ListVersions(ctx, NormalizeName(name))
}

// VersionContent returns one stored version's content.
func (s *Store) VersionContent(ctx context.Context, versionID string) (string, error) {
	if s.index == nil {
		return "", ErrVersionNotFound
	}
	return s.index.VersionContent(ctx, versionID)
}

// ListRecentlyDeleted lists restorable notes after purging expired
// entries.
func (s *Store) ListRecentlyDeleted(ctx context.Context) ([]DeletedNote, error) {
	if s.index == nil {
		return nil, nil
	}
	if _, err := s.index.PurgeExpiredTrash(ctx, s.nowFn()); err != nil {
		logging.Event(logging.CategoryNotes,
			"Failed to purge expired deleted notes", err.Error())
	}
	return s.index.ListTrash(ctx)
}

func (s *Store) reindex(ctx context.Context, name, content string) {
	if s.index == nil {
		return
	}
	now := s.nowFn()
	if err := s.index.UpsertNote(ctx, name, content, now, int64(len(content))); err != nil {
		logging.Event(logging.CategoryNotes,
			"Failed to index note", err.Error())
	}
}

func readLimitedNoteFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	limited := io.LimitReader(file, maxNoteFileBytes+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > maxNoteFileBytes {
		return nil, fmt.Errorf("note file exceeds %d bytes", maxNoteFileBytes)
	}
	return raw, nil
}

// atomicWriteNote writes note content with temp-file + rename, retrying the
// rename on Windows where transient locks from indexers are common.
func atomicWriteNote(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".note.tmp.*")
	if err != nil {
		return fmt.Errorf("save note: create temp: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			_ = tmpFile.Close()
		}
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = tmpFile.Write(data); err != nil {
		return fmt.Errorf("save note: write: %w", err)
	}
	if err = tmpFile.Sync(); err != nil {
		return fmt.Errorf("save note: sync: %w", err)
	}
	err = tmpFile.Close()
	tmpFile = nil
	if err != nil {
		return fmt.Errorf("save note: close: %w", err)
	}

	for attempt := 0; attempt < noteRenameRetry; attempt++ {
		err = os.Rename(tmpPath, path)
		if err == nil {
			return nil
		}
		if runtime.GOOS != "windows" {
			break
		}
		time.Sleep(time.Duration(attempt+1) * noteRenameDelay)
	}
	return fmt.Errorf("save note: rename: %w", err)
}
