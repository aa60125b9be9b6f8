//go:build !windows

package hotkeys

import (
	"fmt"
	"strings"
)

var portableModifierNames = map[string]string{
	"CTRL":    "Ctrl",
	"CONTROL": "Ctrl",
	"SHIFT":   "Shift",
	"ALT":     "Alt",
	"OPTION":  "Alt",
	"OPT":     "Alt",
	"WIN":     "Win",
	"SUPER":   "Win",
	"CMD":     "Win",
	"COMMAND": "Win",
	"META":    "Win",
}

// ParseBinding parses a binding like "Ctrl+Shift+N". On non-Windows targets
// no virtual-key codes are resolved; parsing validates the shape and
// produces the normalized string only, so the manager stub can report what
// it would have registered.
func ParseBinding(spec string) (Binding, error) {
	raw := strings.TrimSpace(spec)
	if raw == "" {
		return Binding{}, fmt.Errorf("hotkey spec is empty")
	}

	parts := strings.Split(raw, "+")
	if len(parts) < 2 {
		return Binding{}, fmt.Errorf("hotkey must include modifiers and key: %s", raw)
	}

	seen := map[string]struct{}{}
	var normalizedMods []string
	for _, token := range parts[:len(parts)-1] {
		name, ok := portableModifierNames[strings.ToUpper(strings.TrimSpace(token))]
		if !ok {
			return Binding{}, fmt.Errorf("unknown modifier %q in hotkey %q", token, raw)
		}
		if _, exists := seen[name]; exists {
			continue
		}
		seen[name] = struct{}{}
		normalizedMods = append(normalizedMods, name)
	}

	keyToken := strings.ToUpper(strings.TrimSpace(parts[len(parts)-1]))
	if keyToken == "" {
		return Binding{}, fmt.Errorf("missing hotkey key token")
	}
	if _, isModifier := portableModifierNames[keyToken]; isModifier {
		return Binding{}, fmt.Errorf("hotkey %q ends with a modifier, expected a key", raw)
	}

	normalized := strings.Join(append(normalizedMods, keyToken), "+")
	return Binding{normalized: normalized}, nil
}
