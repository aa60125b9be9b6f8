package preview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// waitForCondition polls fn every 10ms until it returns true or the timeout
// expires.
func waitForCondition(t *testing.T, timeout time.Duration, fn func() bool) bool {
	t.Helper()
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		select {
		case <-ticker.C:
			if fn() {
				return true
			}
		case <-deadline.C:
			return false
		}
	}
}

func waitForConnection(t *testing.T, s *Server) {
	t.Helper()
	if !waitForCondition(t, 2*time.Second, s.HasActiveConnection) {
		t.Fatal("timed out waiting for preview connection")
	}
}

// newTestServer starts a preview server over a fixed set of notes.
func newTestServer(t *testing.T, note string, notes map[string]string) *Server {
	t.Helper()

	s := NewServer(note, Options{
		Content: func(name string) (string, error) {
			content, ok := notes[name]
			if !ok {
				return "", errors.New("no such note")
			}
			return content, nil
		},
		Themes: func() (string, string) {
			return "modern-dark", "gruvbox-dark-medium"
		},
	})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Stop(); err != nil {
			t.Errorf("Stop: %v", err)
		}
	})
	return s
}

func fetchPage(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func dialPreview(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	wsURL := strings.Replace(s.URL(), "http://", "ws://", 1) + "ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	return conn
}

func readOneMessage(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline: %v", err)
	}
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	return string(msg)
}

func TestServerRendersPreviewedNote(t *testing.T) {
	s := newTestServer(t, "recipe.md", map[string]string{
		"recipe.md": "# Pancakes\n\nMix and fry.\n",
	})

	status, body := fetchPage(t, s.URL())
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	for _, want := range []string{
		"<title>recipe</title>",
		"Pancakes",
		"Mix and fry.",
		`class="theme-modern-dark code-gruvbox-dark-medium"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestServerUnknownNoteReturns404(t *testing.T) {
	s := newTestServer(t, "missing.md", map[string]string{})

	status, _ := fetchPage(t, s.URL())
	if status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", status)
	}

	status, _ = fetchPage(t, s.URL()+"favicon.ico")
	if status != http.StatusNotFound {
		t.Errorf("favicon status = %d, want 404", status)
	}
}

func TestServerPushesReloadForPreviewedNote(t *testing.T) {
	s := newTestServer(t, "watched.md", map[string]string{
		"watched.md": "watched",
	})

	conn := dialPreview(t, s)
	defer conn.Close()
	waitForConnection(t, s)

	// A change to some other note must not reach the page; the next
	// message the client sees is the reload for the previewed note.
	s.NotifyChanged("unrelated.md")
	s.NotifyChanged("watched.md")

	if msg := readOneMessage(t, conn); msg != `{"type":"reload"}` {
		t.Errorf("got message %q, want reload event", msg)
	}
}

func TestServerSetNoteSwitchesAndReloads(t *testing.T) {
	s := newTestServer(t, "a.md", map[string]string{
		"a.md": "alpha content",
		"b.md": "beta content",
	})

	conn := dialPreview(t, s)
	defer conn.Close()
	waitForConnection(t, s)

	s.SetNote("b.md")

	if s.Note() != "b.md" {
		t.Errorf("Note() = %q, want b.md", s.Note())
	}
	if msg := readOneMessage(t, conn); msg != `{"type":"reload"}` {
		t.Errorf("got message %q, want reload event", msg)
	}

	_, body := fetchPage(t, s.URL())
	if !strings.Contains(body, "beta content") {
		t.Error("page still renders the old note")
	}

	// Setting the same note again must not push another reload; verify by
	// pushing a real change afterwards and reading exactly one message.
	s.SetNote("b.md")
	s.NotifyChanged("b.md")
	if msg := readOneMessage(t, conn); msg != `{"type":"reload"}` {
		t.Errorf("got message %q, want single reload event", msg)
	}
}

func TestServerNewConnectionReplacesOld(t *testing.T) {
	s := newTestServer(t, "swap.md", map[string]string{"swap.md": "swap"})

	first := dialPreview(t, s)
	defer first.Close()
	waitForConnection(t, s)

	second := dialPreview(t, s)
	defer second.Close()

	// The first connection is closed by the replacement.
	if err := first.SetReadDeadline(time.Now().Add(2 * time.Second)); err != nil {
		t.Fatalf("SetReadDeadline: %v", err)
	}
	if _, _, err := first.ReadMessage(); err == nil {
		t.Error("first connection still readable after replacement")
	}

	// The second connection receives pushes.
	waitForConnection(t, s)
	s.Reload()
	if msg := readOneMessage(t, second); msg != `{"type":"reload"}` {
		t.Errorf("got message %q on replacement connection", msg)
	}
}

func TestServerStopIsIdempotent(t *testing.T) {
	s := NewServer("x.md", Options{
		Content: func(string) (string, error) { return "x", nil },
	})
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	conn := dialPreview(t, s)
	defer conn.Close()
	waitForConnection(t, s)

	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	if s.HasActiveConnection() {
		t.Error("connection survived Stop")
	}
	if _, err := http.Get(s.URL()); err == nil {
		t.Error("server still serving after Stop")
	}
}

func TestServerRejectsNonGet(t *testing.T) {
	s := newTestServer(t, "n.md", map[string]string{"n.md": "n"})

	resp, err := http.Post(s.URL(), "text/plain", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestServerStartTwiceFails(t *testing.T) {
	s := newTestServer(t, "n.md", map[string]string{"n.md": "n"})

	if err := s.Start(context.Background()); err == nil {
		t.Error("second Start succeeded")
	}
}

func TestServerURLShape(t *testing.T) {
	s := newTestServer(t, "n.md", map[string]string{"n.md": "n"})

	if !strings.HasPrefix(s.URL(), "http://127.0.0.1:") {
		t.Errorf("URL = %q, want localhost http URL", s.URL())
	}
	if _, err := fmt.Sscanf(s.URL(), "http://127.0.0.1:%d/", new(int)); err != nil {
		t.Errorf("URL %q does not embed a port: %v", s.URL(), err)
	}
}
