package ipc

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"
)

const (
	connDeadline       = 10 * time.Second
	maxConcurrentConns = 8
	connSlotTimeout    = 2 * time.Second
)

// ActivateHandler is invoked for each activation request. It runs on a
// connection goroutine and should return quickly; window work belongs on
// the app's own dispatch path.
type ActivateHandler func(req ActivateRequest) ActivateResponse

// Server answers activation requests from later launches. One request per
// connection, newline-delimited JSON both ways.
type Server struct {
	endpoint string
	handler  ActivateHandler

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	listener  net.Listener
	started   bool
	wg        sync.WaitGroup
	connSlots chan struct{}
}

// NewServer constructs a Server. An empty endpoint selects the per-user
// default.
func NewServer(endpoint string, handler ActivateHandler) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	if endpoint == "" {
		endpoint = DefaultEndpoint()
	}
	return &Server{
		endpoint:  endpoint,
		handler:   handler,
		ctx:       ctx,
		cancel:    cancel,
		connSlots: make(chan struct{}, maxConcurrentConns),
	}
}

// Endpoint returns the listen endpoint.
func (s *Server) Endpoint() string {
	return s.endpoint
}

// Start begins listening. The caller must already hold the single-instance
// lock; the listener assumes no other live instance owns the endpoint.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return errors.New("activation server already started")
	}
	if s.handler == nil {
		return errors.New("activation server requires a handler")
	}

	listener, err := listenEndpoint(s.endpoint)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.endpoint, err)
	}

	s.listener = listener
	s.started = true
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop()
	}()
	return nil
}

// Stop shuts the server down and waits for in-flight connections.
func (s *Server) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	s.cancel()
	listener := s.listener
	s.listener = nil
	s.mu.Unlock()

	if listener != nil {
		if err := listener.Close(); err != nil {
			slog.Warn("[DEBUG-IPC] failed to close listener during shutdown", "error", err)
		}
	}
	s.wg.Wait()
	return nil
}

func (s *Server) acceptLoop() {
	consecutiveErrors := 0
	for {
		s.mu.Lock()
		listener := s.listener
		s.mu.Unlock()
		if listener == nil {
			return
		}

		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-s.ctx.Done():
				return
			default:
				consecutiveErrors++
				if consecutiveErrors > 10 {
					slog.Warn("[DEBUG-IPC] accept loop: repeated failures, possible permanent error",
						"error", err, "count", consecutiveErrors)
					time.Sleep(500 * time.Millisecond)
				} else {
					slog.Debug("[DEBUG-IPC] accept error", "error", err)
				}
				continue
			}
		}
		consecutiveErrors = 0

		if !s.acquireConnSlot() {
			s.writeResponse(conn, ActivateResponse{OK: false, Message: "server busy"})
			if closeErr := conn.Close(); closeErr != nil {
				slog.Debug("[DEBUG-IPC] failed to close rejected connection", "error", closeErr)
			}
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.releaseConnSlot()
			s.handleConnection(conn)
		}()
	}
}

// handleConnection serves one request with a hard deadline and the frame
// size cap.
func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()
	if err := conn.SetDeadline(time.Now().Add(connDeadline)); err != nil {
		slog.Warn("[DEBUG-IPC] failed to set connection deadline", "error", err)
		return
	}

	reader := bufio.NewReaderSize(conn, maxFrameBytes+1)
	rawReq, err := readDelimitedFrame(reader, maxFrameBytes)
	if errors.Is(err, io.EOF) {
		slog.Debug("[DEBUG-IPC] client disconnected without sending data")
		return
	}
	if err != nil {
		s.writeResponse(conn, ActivateResponse{OK: false, Message: fmt.Sprintf("invalid request: %v", err)})
		return
	}

	req, err := decodeRequest(rawReq)
	if err != nil {
		s.writeResponse(conn, ActivateResponse{OK: false, Message: fmt.Sprintf("invalid request: %v", err)})
		return
	}
	if req.Action != ActionActivate {
		s.writeResponse(conn, ActivateResponse{OK: false, Message: fmt.Sprintf("unknown action %q", req.Action)})
		return
	}

	slog.Debug("[DEBUG-IPC] activation request received", "pid", req.PID)
	s.writeResponse(conn, s.handler(req))
}

func (s *Server) writeResponse(conn net.Conn, resp ActivateResponse) {
	rawResp, err := encodeResponse(resp)
	if err != nil {
		slog.Warn("[DEBUG-IPC] failed to encode response", "error", err)
		rawResp = []byte(`{"ok":false,"message":"internal encode error"}`)
	}
	if _, err := conn.Write(rawResp); err != nil {
		slog.Debug("[DEBUG-IPC] failed to write response", "error", err)
		return
	}
	if _, err := conn.Write([]byte{'\n'}); err != nil {
		slog.Debug("[DEBUG-IPC] failed to write response delimiter", "error", err)
	}
}

func (s *Server) acquireConnSlot() bool {
	timer := time.NewTimer(connSlotTimeout)
	defer timer.Stop()
	select {
	case s.connSlots <- struct{}{}:
		return true
	case <-timer.C:
		slog.Warn("[DEBUG-IPC] connection slots exhausted, rejecting client")
		return false
	case <-s.ctx.Done():
		return false
	}
}

func (s *Server) releaseConnSlot() {
	select {
	case <-s.connSlots:
	default:
		slog.Warn("[DEBUG-IPC] releaseConnSlot: no slot to release")
	}
}
