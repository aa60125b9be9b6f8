// Package ipc carries the activation handshake between a second launch and
// the already-running instance: one JSON request, one JSON response, over a
// per-user local endpoint (a named pipe on Windows, a Unix socket
// elsewhere). The second launch asks the running instance to show its
// window, then exits.
package ipc

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"
)

// maxFrameBytes caps a single request or response frame. Activation
// messages are a few dozen bytes; anything larger is not ours.
const maxFrameBytes = 4 * 1024

// ActionActivate asks the running instance to come to the foreground.
const ActionActivate = "activate"

// ActivateRequest is sent by a second launch to the running instance.
type ActivateRequest struct {
	Action string `json:"action"`
	PID    int    `json:"pid,omitempty"`
}

// ActivateResponse acknowledges an activation request.
type ActivateResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

func encodeRequest(req ActivateRequest) ([]byte, error) {
	return json.Marshal(req)
}

func decodeRequest(raw []byte) (ActivateRequest, error) {
	var req ActivateRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return ActivateRequest{}, err
	}
	return req, nil
}

func encodeResponse(resp ActivateResponse) ([]byte, error) {
	return json.Marshal(resp)
}

func decodeResponse(raw []byte) (ActivateResponse, error) {
	var resp ActivateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return ActivateResponse{}, err
	}
	return resp, nil
}

// endpointUsername resolves the current username for per-user endpoint
// names, preferring environment variables so tests can pin it.
func endpointUsername() string {
	for _, key := range []string{"USERNAME", "USER"} {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
	}
	if current, err := user.Current(); err == nil {
		return current.Username
	}
	return "default"
}

// readDelimitedFrame reads one newline-terminated frame, rejecting frames
// beyond the reader's buffer size.
func readDelimitedFrame(reader *bufio.Reader, maxBytes int) ([]byte, error) {
	raw, err := reader.ReadSlice('\n')
	if errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("frame exceeds %d bytes", maxBytes)
	}
	if errors.Is(err, io.EOF) {
		if len(raw) == 0 {
			return nil, io.EOF
		}
		return raw, nil
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}
