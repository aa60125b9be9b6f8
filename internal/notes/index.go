package notes

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current index schema version. The index is a cache,
// so a mismatch is handled by dropping and rebuilding rather than
// migrating.
const schemaVersion = 1

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	// maxVersionsPerNote caps stored history per note; older versions are
	// pruned on insert.
	maxVersionsPerNote = 20

	// trashRetention is how long deleted notes stay restorable.
	trashRetention = 30 * 24 * time.Hour

	snippetRunes = 120
)

// ErrVersionNotFound is returned when a version ID has no stored content.
var ErrVersionNotFound = errors.New("version not found")

// ErrNotInTrash is returned when restoring a note that is not in the
// recently-deleted area.
var ErrNotInTrash = errors.New("note not found in recently deleted")

// Index is the SQLite cache behind listing, search, version history, and
// the recently-deleted area.
type Index struct {
	db   *sql.DB
	path string
}

// OpenIndex initializes or connects to the index database at dbPath.
func OpenIndex(dbPath string) (*Index, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	idx := &Index{db: db, path: dbPath}
	if err := idx.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return idx, nil
}

// Close closes the underlying database connection.
func (ix *Index) Close() error {
	if ix == nil || ix.db == nil {
		return nil
	}
	return ix.db.Close()
}

func (ix *Index) initSchema(ctx context.Context) error {
	var tableExists int
	err := ix.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		return ix.createSchema(ctx)
	}

	var version int
	err = ix.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		// The index is derived data: rebuild instead of failing startup.
		if err := ix.dropSchema(ctx); err != nil {
			return err
		}
		return ix.createSchema(ctx)
	}
	return nil
}

func (ix *Index) createSchema(ctx context.Context) error {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

func (ix *Index) dropSchema(ctx context.Context) error {
	for _, table := range []string{"schema_version", "notes", "versions", "trash"} {
		if _, err := ix.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("drop table %s: %w", table, err)
		}
	}
	return nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (ix *Index) execWithRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := ix.db.ExecContext(ctx, query, args...)
		return err
	})
}

// UpsertNote records or refreshes one note's index row.
func (ix *Index) UpsertNote(ctx context.Context, name, content string, mtime time.Time, size int64) error {
	title := titleFor(name, content)
	return ix.execWithRetry(ctx, `
		INSERT INTO notes (name, title, content, mtime, size) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			mtime = excluded.mtime,
			size = excluded.size`,
		name, title, content, mtime.Unix(), size)
}

// RemoveNote drops one note's index row.
func (ix *Index) RemoveNote(ctx context.Context, name string) error {
	return ix.execWithRetry(ctx, "DELETE FROM notes WHERE name = ?", name)
}

// RenameNote moves one note's index row, history, and nothing else. Trash
// entries keep their original name.
func (ix *Index) RenameNote(ctx context.Context, oldName, newName string) error {
	if err := ix.execWithRetry(ctx, "UPDATE notes SET name = ? WHERE name = ?", newName, oldName); err != nil {
		return err
	}
	return ix.execWithRetry(ctx, "UPDATE versions SET note_name = ? WHERE note_name = ?", newName, oldName)
}

// KnownNames returns every indexed note name.
func (ix *Index) KnownNames(ctx context.Context) ([]string, error) {
	ctx = ensureContext(ctx)
	rows, err := ix.db.QueryContext(ctx, "SELECT name FROM notes")
	if err != nil {
		return nil, fmt.Errorf("list indexed names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Search returns up to maxResults notes whose name, title, or content
// contains query, most recently modified first. An empty query returns no
// results.
func (ix *Index) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	ctx = ensureContext(ctx)
	query = strings.TrimSpace(query)
	if query == "" || maxResults <= 0 {
		return nil, nil
	}

	pattern := "%" + escapeLike(query) + "%"
	rows, err := ix.db.QueryContext(ctx, `
		SELECT name, title, content FROM notes
		WHERE name LIKE ? ESCAPE '\' OR title LIKE ? ESCAPE '\' OR content LIKE ? ESCAPE '\'
		ORDER BY mtime DESC
		LIMIT ?`,
		pattern, pattern, pattern, maxResults)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var name, title, content string
		if err := rows.Scan(&name, &title, &content); err != nil {
			return nil, err
		}
		results = append(results, SearchResult{
			Name:    name,
			Title:   title,
			Snippet: snippetAround(content, query),
		})
	}
	return results, rows.Err()
}

func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}

// snippetAround extracts a short window of content centered on the first
// case-insensitive occurrence of query.
func snippetAround(content, query string) string {
	runes := []rune(content)
	idx := strings.Index(strings.ToLower(content), strings.ToLower(query))
	var start int
	if idx >= 0 {
		start = len([]rune(content[:idx]))
	}
	half := snippetRunes / 2
	if start > half {
		start -= half
	} else {
		start = 0
	}
	end := start + snippetRunes
	if end > len(runes) {
		end = len(runes)
	}
	snippet := strings.TrimSpace(string(runes[start:end]))
	return strings.Join(strings.Fields(snippet), " ")
}

// AddVersion snapshots previous content for a note, pruning history beyond
// maxVersionsPerNote.
func (ix *Index) AddVersion(ctx context.Context, name, content string, createdAt time.Time) (Version, error) {
	v := Version{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: createdAt,
		Size:      int64(len(content)),
	}
	err := ix.execWithRetry(ctx,
		"INSERT INTO versions (id, note_name, content, created_at) VALUES (?, ?, ?, ?)",
		v.ID, name, content, createdAt.UnixNano())
	if err != nil {
		return Version{}, fmt.Errorf("add version: %w", err)
	}

	err = ix.execWithRetry(ctx, `
		DELETE FROM versions WHERE note_name = ? AND id NOT IN (
			SELECT id FROM versions WHERE note_name = ?
			ORDER BY created_at DESC LIMIT ?
		)`,
		name, name, maxVersionsPerNote)
	if err != nil {
		return Version{}, fmt.Errorf("prune versions: %w", err)
	}
	return v, nil
}

// ListVersions returns a note's stored versions, newest first.
func (ix *Index) ListVersions(ctx context.Context, name string) ([]Version, error) {
	ctx = ensureContext(ctx)
	rows, err := ix.db.QueryContext(ctx, `
		SELECT id, note_name, created_at, LENGTH(content) FROM versions
		WHERE note_name = ? ORDER BY created_at DESC`,
		name)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var versions []Version
	for rows.Next() {
		var v Version
		var createdAt int64
		if err := rows.Scan(&v.ID, &v.Name, &createdAt, &v.Size); err != nil {
			return nil, err
		}
		v.CreatedAt = time.Unix(0, createdAt)
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// VersionContent returns the stored content for one version ID.
func (ix *Index) VersionContent(ctx context.Context, id string) (string, error) {
	ctx = ensureContext(ctx)
	var content string
	err := ix.db.QueryRowContext(ctx,
		"SELECT content FROM versions WHERE id = ?", id).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrVersionNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read version: %w", err)
	}
	return content, nil
}

// MoveToTrash stores a deleted note's content. Deleting a note that was
// already in the trash replaces the older trash entry.
func (ix *Index) MoveToTrash(ctx context.Context, name, content string, deletedAt time.Time) error {
	return ix.execWithRetry(ctx, `
		INSERT INTO trash (name, content, deleted_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			content = excluded.content,
			deleted_at = excluded.deleted_at`,
		name, content, deletedAt.Unix())
}

// ListTrash returns restorable notes, most recently deleted first.
func (ix *Index) ListTrash(ctx context.Context) ([]DeletedNote, error) {
	ctx = ensureContext(ctx)
	rows, err := ix.db.QueryContext(ctx,
		"SELECT name, deleted_at, LENGTH(content) FROM trash ORDER BY deleted_at DESC")
	if err != nil {
		return nil, fmt.Errorf("list trash: %w", err)
	}
	defer rows.Close()

	var entries []DeletedNote
	for rows.Next() {
		var entry DeletedNote
		var deletedAt int64
		if err := rows.Scan(&entry.Name, &deletedAt, &entry.Size); err != nil {
			return nil, err
		}
		entry.DeletedAt = time.Unix(deletedAt, 0)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// TakeFromTrash removes and returns a trashed note's content.
func (ix *Index) TakeFromTrash(ctx context.Context, name string) (string, error) {
	ctx = ensureContext(ctx)
	var content string
	err := ix.db.QueryRowContext(ctx,
		"SELECT content FROM trash WHERE name = ?", name).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotInTrash
	}
	if err != nil {
		return "", fmt.Errorf("read trash entry: %w", err)
	}
	if err := ix.execWithRetry(ctx, "DELETE FROM trash WHERE name = ?", name); err != nil {
		return "", err
	}
	return content, nil
}

// PurgeExpiredTrash drops trash entries deleted before now minus the
// retention window. It returns how many entries were removed.
func (ix *Index) PurgeExpiredTrash(ctx context.Context, now time.Time) (int64, error) {
	ctx = ensureContext(ctx)
	cutoff := now.Add(-trashRetention).Unix()
	var affected int64
	err := retryOnBusy(ctx, func() error {
		res, execErr := ix.db.ExecContext(ctx, "DELETE FROM trash WHERE deleted_at < ?", cutoff)
		if execErr != nil {
			return execErr
		}
		affected, _ = res.RowsAffected()
		return nil
	})
	return affected, err
}
