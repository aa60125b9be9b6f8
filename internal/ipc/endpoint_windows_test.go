//go:build windows

package ipc

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"testing"
)

var testNameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// testEndpoint returns a pipe name unique to this test and process.
func testEndpoint(t *testing.T) string {
	t.Helper()
	name := testNameSanitizer.ReplaceAllString(t.Name(), "_")
	return fmt.Sprintf(`\\.\pipe\notedrop-test-%d-%s`, os.Getpid(), name)
}

func TestDefaultEndpointHonorsTrustedEnvOverride(t *testing.T) {
	t.Setenv("NOTEDROP_IPC", `\\.\pipe\notedrop-ci_pipe`)

	if got := DefaultEndpoint(); got != `\\.\pipe\notedrop-ci_pipe` {
		t.Fatalf("DefaultEndpoint() = %q, want trusted env override", got)
	}
}

func TestDefaultEndpointRejectsUntrustedEnvOverride(t *testing.T) {
	t.Setenv("NOTEDROP_IPC", `\\.\pipe\other-app`)
	t.Setenv("USERNAME", "unit-tester")

	got := DefaultEndpoint()
	if got == `\\.\pipe\other-app` {
		t.Fatalf("DefaultEndpoint() unexpectedly accepted untrusted env override")
	}
	if !strings.HasPrefix(got, defaultEndpointPrefix) {
		t.Fatalf("DefaultEndpoint() = %q, want %q prefix", got, defaultEndpointPrefix)
	}
}

func TestDefaultEndpointSanitizesUsername(t *testing.T) {
	t.Setenv("NOTEDROP_IPC", "")
	t.Setenv("USERNAME", "unit user!")

	got := DefaultEndpoint()
	want := defaultEndpointPrefix + "unit_user_"
	if got != want {
		t.Fatalf("DefaultEndpoint() = %q, want %q", got, want)
	}
}

func TestDefaultEndpointFallbackWhenUsernameEmpty(t *testing.T) {
	t.Setenv("NOTEDROP_IPC", "")
	t.Setenv("USERNAME", "")
	t.Setenv("USER", "")

	got := DefaultEndpoint()
	if !strings.HasPrefix(got, defaultEndpointPrefix) {
		t.Fatalf("DefaultEndpoint() = %q, want prefix %q", got, defaultEndpointPrefix)
	}
	if strings.TrimPrefix(got, defaultEndpointPrefix) == "" {
		t.Fatalf("DefaultEndpoint() = %q, suffix after prefix must not be empty", got)
	}
}
