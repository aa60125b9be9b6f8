//go:build !windows

package ipc

import (
	"path/filepath"
	"strings"
	"testing"
)

// testEndpoint returns a unique socket path for one test.
func testEndpoint(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "notedrop-test.sock")
}

func TestDefaultEndpointHonorsTrustedEnvOverride(t *testing.T) {
	t.Setenv("NOTEDROP_IPC", "/tmp/notedrop-ci.sock")

	if got := DefaultEndpoint(); got != "/tmp/notedrop-ci.sock" {
		t.Fatalf("DefaultEndpoint() = %q, want trusted env override", got)
	}
}

func TestDefaultEndpointRejectsUntrustedEnvOverride(t *testing.T) {
	t.Setenv("NOTEDROP_IPC", "/tmp/other-app.sock")
	t.Setenv("USERNAME", "unit-tester")

	got := DefaultEndpoint()
	if got == "/tmp/other-app.sock" {
		t.Fatalf("DefaultEndpoint() unexpectedly accepted untrusted env override")
	}
	if !strings.Contains(got, "notedrop-unit-tester") {
		t.Fatalf("DefaultEndpoint() = %q, want per-user default", got)
	}
}

func TestDefaultEndpointRejectsRelativeEnvOverride(t *testing.T) {
	t.Setenv("NOTEDROP_IPC", "notedrop-sneaky.sock")
	t.Setenv("USERNAME", "unit-tester")

	if got := DefaultEndpoint(); got == "notedrop-sneaky.sock" {
		t.Fatalf("DefaultEndpoint() accepted a relative path override")
	}
}

func TestDefaultEndpointSanitizesUsername(t *testing.T) {
	t.Setenv("NOTEDROP_IPC", "")
	t.Setenv("USERNAME", "unit user!")

	got := DefaultEndpoint()
	if !strings.HasSuffix(got, "notedrop-unit_user_.sock") {
		t.Fatalf("DefaultEndpoint() = %q, want sanitized username in socket name", got)
	}
}
