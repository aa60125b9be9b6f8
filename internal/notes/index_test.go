package notes

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := OpenIndex(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	t.Cleanup(func() {
		if err := idx.Close(); err != nil {
			t.Errorf("close index: %v", err)
		}
	})
	return idx
}

func TestIndexSearchEscapesLikeWildcards(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	notes := map[string]string{
		"progress.md": "project is 100% done",
		"plain.md":    "project is 100 percent done",
		"snake.md":    "uses snake_case naming",
		"spaced.md":   "uses snake case naming",
	}
	i := 0
	for name, content := range notes {
		i++
		if err := idx.UpsertNote(ctx, name, content, base.Add(time.Duration(i)*time.Second), int64(len(content))); err != nil {
			t.Fatalf("UpsertNote(%q): %v", name, err)
		}
	}

	results, err := idx.Search(ctx, "100%", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Name != "progress.md" {
		t.Errorf("%% treated as wildcard: %+v", results)
	}

	results, err = idx.Search(ctx, "snake_case", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Name != "snake.md" {
		t.Errorf("_ treated as wildcard: %+v", results)
	}
}

func TestIndexVersionPruning(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	total := maxVersionsPerNote + 5
	for i := 0; i < total; i++ {
		content := fmt.Sprintf("revision %d", i)
		if _, err := idx.AddVersion(ctx, "busy.md", content, base.Add(time.Duration(i)*time.Second)); err != nil {
			t.Fatalf("AddVersion %d: %v", i, err)
		}
	}

	versions, err := idx.ListVersions(ctx, "busy.md")
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != maxVersionsPerNote {
		t.Fatalf("got %d versions, want %d", len(versions), maxVersionsPerNote)
	}

	// Newest first, and the oldest survivors are the ones past the prune
	// boundary.
	newest, err := idx.VersionContent(ctx, versions[0].ID)
	if err != nil {
		t.Fatalf("VersionContent: %v", err)
	}
	if want := fmt.Sprintf("revision %d", total-1); newest != want {
		t.Errorf("newest = %q, want %q", newest, want)
	}
	oldest, err := idx.VersionContent(ctx, versions[len(versions)-1].ID)
	if err != nil {
		t.Fatalf("VersionContent: %v", err)
	}
	if want := fmt.Sprintf("revision %d", total-maxVersionsPerNote); oldest != want {
		t.Errorf("oldest survivor = %q, want %q", oldest, want)
	}
}

func TestIndexVersionContentUnknownID(t *testing.T) {
	idx := newTestIndex(t)

	if _, err := idx.VersionContent(context.Background(), "bogus"); !errors.Is(err, ErrVersionNotFound) {
		t.Errorf("VersionContent = %v, want ErrVersionNotFound", err)
	}
}

func TestIndexSchemaMismatchRebuilds(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "index.db")

	idx, err := OpenIndex(dbPath)
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	ctx := context.Background()
	if err := idx.UpsertNote(ctx, "a.md", "content", time.Now(), 7); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}
	if _, err := idx.db.Exec("UPDATE schema_version SET version = 999"); err != nil {
		t.Fatalf("fake future schema: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenIndex(dbPath)
	if err != nil {
		t.Fatalf("reopen with mismatched schema: %v", err)
	}
	defer reopened.Close()

	names, err := reopened.KnownNames(ctx)
	if err != nil {
		t.Fatalf("KnownNames: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("rebuilt index still has rows: %v", names)
	}
}

func TestIndexRenameMovesHistoryNotTrash(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	if err := idx.UpsertNote(ctx, "old.md", "body", now, 4); err != nil {
		t.Fatalf("UpsertNote: %v", err)
	}
	if _, err := idx.AddVersion(ctx, "old.md", "older body", now); err != nil {
		t.Fatalf("AddVersion: %v", err)
	}
	if err := idx.MoveToTrash(ctx, "old.md", "trashed body", now); err != nil {
		t.Fatalf("MoveToTrash: %v", err)
	}

	if err := idx.RenameNote(ctx, "old.md", "new.md"); err != nil {
		t.Fatalf("RenameNote: %v", err)
	}

	versions, err := idx.ListVersions(ctx, "new.md")
	if err != nil {
		t.Fatalf("ListVersions: %v", err)
	}
	if len(versions) != 1 {
		t.Errorf("history under new name has %d entries, want 1", len(versions))
	}

	// Trash snapshots keep the name the note had when it was deleted.
	if _, err := idx.TakeFromTrash(ctx, "new.md"); !errors.Is(err, ErrNotInTrash) {
		t.Errorf("trash entry followed rename, err = %v", err)
	}
	content, err := idx.TakeFromTrash(ctx, "old.md")
	if err != nil {
		t.Fatalf("TakeFromTrash: %v", err)
	}
	if content != "trashed body" {
		t.Errorf("trash content = %q", content)
	}
}

func TestEscapeLike(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"100%", `100\%`},
		{"snake_case", `snake\_case`},
		{`back\slash`, `back\\slash`},
		{`%_\`, `\%\_\\`},
	}
	for _, tt := range tests {
		if got := escapeLike(tt.in); got != tt.want {
			t.Errorf("escapeLike(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSnippetAround(t *testing.T) {
	long := strings.Repeat("x ", 200) + "NEEDLE in the middle " + strings.Repeat("y ", 200)

	tests := []struct {
		name     string
		content  string
		query    string
		contains string
	}{
		{"match in middle", long, "needle", "NEEDLE"},
		{"match at start", "target right at the front of the note", "target", "target"},
		{"no match uses beginning", "just some ordinary text", "absent", "just some"},
		{"collapses whitespace", "a\n\nb\t\tc NEEDLE d", "needle", "a b c NEEDLE d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := snippetAround(tt.content, tt.query)
			if !strings.Contains(got, tt.contains) {
				t.Errorf("snippet %q does not contain %q", got, tt.contains)
			}
			if n := utf8.RuneCountInString(got); n > snippetRunes {
				t.Errorf("snippet is %d runes, cap is %d", n, snippetRunes)
			}
		})
	}
}
