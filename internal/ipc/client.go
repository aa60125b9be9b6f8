package ipc

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"time"
)

const (
	dialTimeout = 3 * time.Second
	rwTimeout   = 5 * time.Second
)

// NotifyRunningInstance asks the instance listening on endpoint to show
// its window. An empty endpoint selects the per-user default.
func NotifyRunningInstance(endpoint string) error {
	resp, err := Send(endpoint, ActivateRequest{Action: ActionActivate, PID: os.Getpid()})
	if err != nil {
		return err
	}
	if !resp.OK {
		return fmt.Errorf("running instance refused activation: %s", resp.Message)
	}
	return nil
}

// Send delivers one request and waits for one response.
func Send(endpoint string, req ActivateRequest) (ActivateResponse, error) {
	if endpoint == "" {
		endpoint = DefaultEndpoint()
	}

	conn, err := dialEndpoint(endpoint, dialTimeout)
	if err != nil {
		return ActivateResponse{}, err
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(rwTimeout)); err != nil {
		return ActivateResponse{}, fmt.Errorf("set deadline: %w", err)
	}

	rawReq, err := encodeRequest(req)
	if err != nil {
		return ActivateResponse{}, err
	}
	if _, err := conn.Write(rawReq); err != nil {
		return ActivateResponse{}, err
	}
	if _, err := conn.Write([]byte{'\n'}); err != nil {
		return ActivateResponse{}, err
	}

	respRaw, err := readDelimitedFrame(bufio.NewReaderSize(conn, maxFrameBytes+1), maxFrameBytes)
	if err != nil {
		return ActivateResponse{}, err
	}

	resp, err := decodeResponse(respRaw)
	if err != nil {
		return ActivateResponse{}, fmt.Errorf("invalid response: %w", err)
	}
	return resp, nil
}

// IsConnectionError reports whether err means no instance is listening on
// the endpoint, as opposed to a protocol failure from a live one.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, fs.ErrNotExist) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return opErr.Op == "dial" || opErr.Op == "open"
	}
	return false
}
