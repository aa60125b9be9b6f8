package preview

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// writeDeadline bounds a single WebSocket write. Localhost writes that take
// longer than this mean the browser tab is gone or frozen; the connection
// is treated as dead.
const writeDeadline = 5 * time.Second

// readDeadline is how long the server waits for any read activity,
// including pong responses, before dropping the connection. Allows ~3
// missed pings.
const readDeadline = 90 * time.Second

// pingInterval is the keepalive ping cadence.
const pingInterval = 30 * time.Second

// maxReadMessageSize caps incoming WebSocket messages. The preview page
// sends nothing, so anything beyond a trivial frame is a misbehaving
// client.
const maxReadMessageSize = 4 * 1024

// reloadPayload is the only message the server pushes; the page reloads on
// any message, so the body just names the event.
var reloadPayload = []byte(`{"type":"reload"}`)

// wsUpgrader is shared across connections. CheckOrigin stays permissive
// because the listener binds to 127.0.0.1 only.
var wsUpgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// ContentFunc looks up the current content of a note by name.
type ContentFunc func(name string) (string, error)

// ThemesFunc returns the configured markdown and code theme names for the
// rendered page.
type ThemesFunc func() (markdownTheme, codeTheme string)

// Options configures a preview Server.
type Options struct {
	// Addr is the listen address. Empty means "127.0.0.1:0" for an
	// OS-assigned port.
	Addr    string
	Content ContentFunc
	Themes  ThemesFunc
}

// Server is the live-preview endpoint: GET / renders the previewed note,
// GET /ws upgrades to the reload push channel.
//
// Single-connection model: a desktop app previews into one browser tab, and
// a page reload reconnects, so a new WebSocket connection replaces the old
// one.
//
// Lock ordering (never acquire in reverse): writeMu -> mu. mu protects conn
// and the previewed note name; writeMu serializes WriteMessage calls, which
// gorilla/websocket does not allow concurrently.
type Server struct {
	opts     Options
	renderer *Renderer

	mu   sync.RWMutex
	conn *websocket.Conn
	note string

	writeMu sync.Mutex

	listener net.Listener
	server   *http.Server
	url      string

	// closeOnce makes Stop idempotent. A stopped Server cannot be
	// restarted; create a new one.
	closeOnce sync.Once
}

// NewServer creates a preview server for one note. The server is not
// listening until Start is called.
func NewServer(note string, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:0"
	}
	return &Server{
		opts:     opts,
		renderer: NewRenderer(),
		note:     note,
	}
}

// Start begins listening and serving. ctx becomes the base context of
// request handlers; the server itself stops only via Stop.
func (s *Server) Start(ctx context.Context) error {
	if s.server != nil {
		return fmt.Errorf("preview: already started")
	}

	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("preview: listen: %w", err)
	}
	s.listener = ln

	port := ln.Addr().(*net.TCPAddr).Port
	s.url = fmt.Sprintf("http://127.0.0.1:%d/", port)

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRender)
	mux.HandleFunc("/ws", s.handleWS)

	s.server = &http.Server{
		Handler: mux,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if serveErr := s.server.Serve(ln); serveErr != nil && serveErr != http.ErrServerClosed {
			slog.Error("[DEBUG-PREVIEW] server error", "error", serveErr)
		}
	}()

	slog.Info("[DEBUG-PREVIEW] server started", "url", s.url, "note", s.Note())
	return nil
}

// Stop shuts the server down and closes any active connection. Safe to
// call multiple times.
func (s *Server) Stop() error {
	var stopErr error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		conn := s.conn
		s.conn = nil
		s.mu.Unlock()

		if conn != nil {
			s.closeConn(conn, "server stop")
		}

		if s.server != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := s.server.Shutdown(shutdownCtx); err != nil {
				stopErr = fmt.Errorf("preview: shutdown: %w", err)
			}
		}

		slog.Info("[DEBUG-PREVIEW] server stopped")
	})
	return stopErr
}

// URL returns the page URL, empty before Start.
func (s *Server) URL() string {
	return s.url
}

// Note returns the name of the note being previewed.
func (s *Server) Note() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.note
}

// SetNote switches the preview to another note and reloads the page when
// the note actually changed.
func (s *Server) SetNote(name string) {
	s.mu.Lock()
	changed := s.note != name
	s.note = name
	s.mu.Unlock()

	if changed {
		s.Reload()
	}
}

// NotifyChanged reloads the page if name is the previewed note.
func (s *Server) NotifyChanged(name string) {
	s.mu.RLock()
	match := s.note != "" && s.note == name
	s.mu.RUnlock()

	if match {
		s.Reload()
	}
}

// HasActiveConnection reports whether a browser tab is connected.
func (s *Server) HasActiveConnection() bool {
	s.mu.RLock()
	active := s.conn != nil
	s.mu.RUnlock()
	return active
}

// Reload pushes a reload event to the connected page. No-op without a
// connection; write failures drop the connection, and the page reconnects
// after its reload.
func (s *Server) Reload() {
	s.mu.RLock()
	conn := s.conn
	s.mu.RUnlock()

	if conn == nil {
		return
	}

	s.writeMu.Lock()
	if !s.setWriteDeadlineOrClose(conn, writeDeadline) {
		s.writeMu.Unlock()
		return
	}
	err := conn.WriteMessage(websocket.TextMessage, reloadPayload)
	s.clearWriteDeadline(conn)
	s.writeMu.Unlock()

	if err != nil {
		slog.Warn("[DEBUG-PREVIEW] reload push failed, closing connection", "error", err)
		s.clearIfCurrent(conn)
		s.closeConn(conn, "write error in Reload")
	}
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	note := s.Note()
	if note == "" || s.opts.Content == nil {
		http.Error(w, "no note is being previewed", http.StatusNotFound)
		return
	}

	content, err := s.opts.Content(note)
	if err != nil {
		slog.Warn("[DEBUG-PREVIEW] content lookup failed", "note", note, "error", err)
		http.Error(w, "note not available", http.StatusNotFound)
		return
	}

	var markdownTheme, codeTheme string
	if s.opts.Themes != nil {
		markdownTheme, codeTheme = s.opts.Themes()
	}

	page, err := s.renderer.Page(strings.TrimSuffix(note, ".md"), content, markdownTheme, codeTheme)
	if err != nil {
		slog.Warn("[DEBUG-PREVIEW] render failed", "note", note, "error", err)
		http.Error(w, "failed to render note", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(page))
}

// handleWS upgrades to WebSocket and runs the read pump. A new connection
// replaces the old one to handle page reloads.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("[DEBUG-PREVIEW] upgrade failed", "error", err)
		return
	}

	conn.SetReadLimit(maxReadMessageSize)
	if err := conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
		slog.Warn("[DEBUG-PREVIEW] SetReadDeadline failed on new connection", "error", err)
		s.closeConn(conn, "initial SetReadDeadline failure")
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	s.mu.Lock()
	oldConn := s.conn
	s.conn = conn
	s.mu.Unlock()

	if oldConn != nil {
		s.closeConn(oldConn, "replaced by new connection")
	}

	slog.Debug("[DEBUG-PREVIEW] client connected", "remoteAddr", conn.RemoteAddr())

	pingDone := make(chan struct{})
	go s.pingLoop(conn, pingDone)

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("[DEBUG-PANIC] preview handleWS recovered",
				"panic", rec,
				"stack", string(debug.Stack()),
			)
		}

		close(pingDone)
		s.clearIfCurrent(conn)
		s.closeConn(conn, "read pump exit")
		slog.Debug("[DEBUG-PREVIEW] client disconnected")
	}()

	// The page never sends application messages; the pump exists to keep
	// the connection state current and to service control frames.
	for {
		if _, _, readErr := conn.ReadMessage(); readErr != nil {
			if websocket.IsUnexpectedCloseError(readErr, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("[DEBUG-PREVIEW] read error", "error", readErr)
			}
			return
		}
	}
}

// pingLoop keeps the connection alive and detects dead tabs. Exits when
// done closes or a ping fails.
func (s *Server) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("[DEBUG-PANIC] preview pingLoop recovered",
				"panic", rec,
				"stack", string(debug.Stack()),
			)
			s.clearIfCurrent(conn)
			s.closeConn(conn, "pingLoop panic recovery")
		}
	}()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.writeMu.Lock()
			if !s.setWriteDeadlineOrClose(conn, writeDeadline) {
				s.writeMu.Unlock()
				return
			}
			pingErr := conn.WriteMessage(websocket.PingMessage, nil)
			s.clearWriteDeadline(conn)
			s.writeMu.Unlock()

			if pingErr != nil {
				slog.Debug("[DEBUG-PREVIEW] ping failed, connection likely dead", "error", pingErr)
				s.clearIfCurrent(conn)
				s.closeConn(conn, "ping failure")
				return
			}
		}
	}
}

// clearIfCurrent clears the stored connection only if conn is still the
// current one, so a stale handler cannot clear its replacement.
func (s *Server) clearIfCurrent(conn *websocket.Conn) {
	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.mu.Unlock()
}

// closeConn closes a connection; double-closes are expected during
// replacement and logged at debug level only.
func (s *Server) closeConn(conn *websocket.Conn, reason string) {
	if closeErr := conn.Close(); closeErr != nil {
		slog.Debug("[DEBUG-PREVIEW] connection close", "reason", reason, "error", closeErr)
	}
}

// setWriteDeadlineOrClose arms a write deadline. If even that fails the
// connection is unusable and gets dropped.
func (s *Server) setWriteDeadlineOrClose(conn *websocket.Conn, d time.Duration) bool {
	if err := conn.SetWriteDeadline(time.Now().Add(d)); err != nil {
		slog.Warn("[DEBUG-PREVIEW] SetWriteDeadline failed, closing connection", "error", err)
		s.clearIfCurrent(conn)
		s.closeConn(conn, "SetWriteDeadline failure")
		return false
	}
	return true
}

// clearWriteDeadline resets the deadline after a successful write. Failure
// is non-fatal; the next write arms a fresh deadline.
func (s *Server) clearWriteDeadline(conn *websocket.Conn) {
	if err := conn.SetWriteDeadline(time.Time{}); err != nil {
		slog.Debug("[DEBUG-PREVIEW] clearWriteDeadline failed", "error", err)
	}
}
