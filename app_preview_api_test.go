package main

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

// NOTE: these tests swap openPathFn; do not use t.Parallel().

func TestStartPreviewRequiresExistingNote(t *testing.T) {
	app, opens := newNotesTestApp(t)

	if _, err := app.StartPreview("nope"); err == nil {
		t.Error("previewing a missing note should fail")
	}
	if app.currentPreviewServer() != nil {
		t.Error("no server should be left behind after a failed start")
	}
	if len(opens.opened()) != 0 {
		t.Error("browser must not open for a failed start")
	}
}

func TestStartPreviewServesNoteAndOpensBrowser(t *testing.T) {
	app, opens := newNotesTestApp(t)
	t.Cleanup(app.StopPreview)

	if err := app.SaveNote("hello", "# Hello preview\n"); err != nil {
		t.Fatal(err)
	}

	url, err := app.StartPreview("hello")
	if err != nil {
		t.Fatalf("StartPreview: %v", err)
	}
	if !strings.HasPrefix(url, "http://127.0.0.1:") {
		t.Fatalf("url = %q, want a localhost address", url)
	}
	if got := opens.opened(); len(got) != 1 || got[0] != url {
		t.Errorf("browser opens = %v, want [%s]", got, url)
	}

	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "Hello preview") {
		t.Error("rendered page should contain the note content")
	}
}

func TestStartPreviewReusesRunningServer(t *testing.T) {
	app, opens := newNotesTestApp(t)
	t.Cleanup(app.StopPreview)

	if err := app.SaveNote("one", "first\n"); err != nil {
		t.Fatal(err)
	}
	if err := app.SaveNote("two", "second\n"); err != nil {
		t.Fatal(err)
	}

	firstURL, err := app.StartPreview("one")
	if err != nil {
		t.Fatal(err)
	}
	secondURL, err := app.StartPreview("two")
	if err != nil {
		t.Fatal(err)
	}

	if firstURL != secondURL {
		t.Errorf("switching notes should reuse the server, got %q then %q", firstURL, secondURL)
	}
	if got := app.currentPreviewServer().Note(); got != "two.md" {
		t.Errorf("previewed note = %q, want two.md", got)
	}
	// Only the first start opens a browser tab; the reused server pushes a
	// reload to the already-open tab instead.
	if got := opens.opened(); len(got) != 1 {
		t.Errorf("browser opens = %d, want 1", len(got))
	}
}

func TestRenameNoteRepointsPreview(t *testing.T) {
	app, _ := newNotesTestApp(t)
	t.Cleanup(app.StopPreview)

	if err := app.SaveNote("before", "body\n"); err != nil {
		t.Fatal(err)
	}
	if _, err := app.StartPreview("before"); err != nil {
		t.Fatal(err)
	}

	if err := app.RenameNote("before", "after"); err != nil {
		t.Fatal(err)
	}
	if got := app.currentPreviewServer().Note(); got != "after.md" {
		t.Errorf("preview should follow the rename, previewing %q", got)
	}
}

func TestRenameNoteLeavesUnrelatedPreviewAlone(t *testing.T) {
	app, _ := newNotesTestApp(t)
	t.Cleanup(app.StopPreview)

	if err := app.SaveNote("watched", "a\n"); err != nil {
		t.Fatal(err)
	}
	if err := app.SaveNote("other", "b\n"); err != nil {
		t.Fatal(err)
	}
	if _, err := app.StartPreview("watched"); err != nil {
		t.Fatal(err)
	}

	if err := app.RenameNote("other", "moved"); err != nil {
		t.Fatal(err)
	}
	if got := app.currentPreviewServer().Note(); got != "watched.md" {
		t.Errorf("unrelated rename moved the preview to %q", got)
	}
}

func TestStopPreviewIsIdempotent(t *testing.T) {
	app, _ := newNotesTestApp(t)

	// Stopping with no server running is a no-op.
	app.StopPreview()

	if err := app.SaveNote("note", "x\n"); err != nil {
		t.Fatal(err)
	}
	url, err := app.StartPreview("note")
	if err != nil {
		t.Fatal(err)
	}

	app.StopPreview()
	app.StopPreview()

	if app.currentPreviewServer() != nil {
		t.Error("server reference should be cleared")
	}
	if _, err := http.Get(url); err == nil {
		t.Error("stopped preview should no longer serve")
	}
}

func TestNotifyAndReloadWithoutServerAreNoOps(t *testing.T) {
	app, _ := newNotesTestApp(t)

	// Must not panic with no preview running.
	app.notifyPreviewChanged("any")
	app.reloadPreview()
	app.repointPreview("a", "b")
}
