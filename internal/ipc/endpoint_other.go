//go:build !windows

package ipc

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"notedrop/internal/userutil"
)

var endpointPattern = regexp.MustCompile(`^/[^\x00]{1,200}notedrop[^\x00]{0,64}\.sock$`)

// DefaultEndpoint returns the Unix socket path for this user. NOTEDROP_IPC
// overrides it when the value passes pattern validation.
func DefaultEndpoint() string {
	if v, ok := trustedEndpointFromEnv(); ok {
		return v
	}
	name := fmt.Sprintf("notedrop-%s.sock", userutil.SanitizeUsername(endpointUsername()))
	return filepath.Join(os.TempDir(), name)
}

func trustedEndpointFromEnv() (string, bool) {
	value := strings.TrimSpace(os.Getenv("NOTEDROP_IPC"))
	if value == "" {
		return "", false
	}
	if !endpointPattern.MatchString(value) {
		slog.Warn("[DEBUG-IPC] NOTEDROP_IPC rejected: value does not match allowed pattern", "value", value)
		return "", false
	}
	return value, true
}

// listenEndpoint creates the Unix socket and restricts it to the owner.
// The caller holds the single-instance lock, so a socket file already at
// the path is a leftover from a crashed instance and is removed.
func listenEndpoint(endpoint string) (net.Listener, error) {
	if err := os.Remove(endpoint); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}
	ln, err := net.Listen("unix", endpoint)
	if err != nil {
		return nil, err
	}
	if err := os.Chmod(endpoint, 0o600); err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("restrict socket permissions: %w", err)
	}
	return ln, nil
}

func dialEndpoint(endpoint string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout("unix", endpoint, timeout)
}
