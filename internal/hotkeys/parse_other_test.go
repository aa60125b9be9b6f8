//go:build !windows

package hotkeys

import (
	"strings"
	"testing"
)

func TestParseBindingNormalizesPortably(t *testing.T) {
	tests := []struct {
		name     string
		spec     string
		wantNorm string
	}{
		{name: "basic combo", spec: "Ctrl+Shift+N", wantNorm: "Ctrl+Shift+N"},
		{name: "lowercase", spec: "ctrl+shift+n", wantNorm: "Ctrl+Shift+N"},
		{name: "control alias", spec: "Control+A", wantNorm: "Ctrl+A"},
		{name: "cmd alias", spec: "Cmd+P", wantNorm: "Win+P"},
		{name: "option alias", spec: "Option+Left", wantNorm: "Alt+LEFT"},
		{name: "dedup modifiers", spec: "Ctrl+Ctrl+X", wantNorm: "Ctrl+X"},
		{name: "whitespace padded", spec: "  Ctrl + A  ", wantNorm: "Ctrl+A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			binding, err := ParseBinding(tt.spec)
			if err != nil {
				t.Fatalf("ParseBinding(%q) returned unexpected error: %v", tt.spec, err)
			}
			if binding.Normalized() != tt.wantNorm {
				t.Errorf("Normalized() = %q, want %q", binding.Normalized(), tt.wantNorm)
			}
		})
	}
}

func TestParseBindingPortableErrors(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		wantSub string
	}{
		{name: "empty spec", spec: "", wantSub: "empty"},
		{name: "no modifier", spec: "N", wantSub: "modifiers and key"},
		{name: "unknown modifier", spec: "Hyper+A", wantSub: "unknown modifier"},
		{name: "trailing modifier", spec: "Ctrl+Shift", wantSub: "expected a key"},
		{name: "missing key", spec: "Ctrl+", wantSub: "missing hotkey key token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseBinding(tt.spec)
			if err == nil {
				t.Fatalf("ParseBinding(%q) expected error, got nil", tt.spec)
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error = %q, want substring %q", err.Error(), tt.wantSub)
			}
		})
	}
}

func TestManagerStartStoresNormalizedBinding(t *testing.T) {
	m := NewManager()
	if err := m.Start("ctrl+shift+n", func() {}); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if got := m.ActiveBinding(); got != "Ctrl+Shift+N" {
		t.Fatalf("ActiveBinding() = %q, want %q", got, "Ctrl+Shift+N")
	}
	if err := m.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}
	if got := m.ActiveBinding(); got != "" {
		t.Fatalf("ActiveBinding() after Stop = %q, want empty", got)
	}
}
