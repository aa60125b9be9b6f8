// Package validation holds the pure domain validators for notedrop: path
// safety for the notes directory, the shortcut combo grammar, font size
// bounds, and note name rules. Validators never mutate input, never touch
// global state, and return nil on acceptance or a rejection reason.
package validation

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// MinFontSize and MaxFontSize bound the interface and editor font sizes.
	MinFontSize = 8
	MaxFontSize = 72

	// maxNotesDirectoryLen caps the notes_directory path length.
	maxNotesDirectoryLen = 4096
	// maxNoteNameLen caps note file names; filesystem name limits are
	// typically 255 bytes.
	maxNoteNameLen = 255
)

// invalidPathChars are rejected in directory paths. Separators and the
// Windows drive colon stay legal; the set covers characters no filesystem
// accepts in path components.
const invalidPathChars = `<>"|?*`

// invalidNoteNameChars additionally rejects separators and the colon: a
// note name is a single path component.
const invalidNoteNameChars = `<>:"|?*/\`

// ValidateNotesDirectory checks a configured notes directory path. It
// accepts absolute and ~-prefixed paths and performs no normalization;
// expansion happens at the point of use.
func ValidateNotesDirectory(path string) error {
	if path == "" {
		return errors.New("notes directory cannot be empty")
	}
	if strings.Contains(path, "..") {
		return errors.New("path traversal not allowed")
	}
	if strings.HasPrefix(path, ".") {
		return errors.New("notes directory cannot start with a dot")
	}
	if len(path) > maxNotesDirectoryLen {
		return errors.New("notes directory path too long")
	}
	if strings.ContainsAny(path, invalidPathChars) || containsControl(path) {
		return errors.New("notes directory contains invalid characters")
	}
	return nil
}

// ValidateShortcutFormat checks the full key-combo grammar used for the OS
// global shortcut: one or more modifiers joined by '+', terminated by
// exactly one non-modifier key. Matching is case-insensitive.
func ValidateShortcutFormat(shortcut string) error {
	return validateShortcut(shortcut, true)
}

// ValidateBasicShortcutFormat checks the looser grammar used for the
// per-action shortcuts: same combo form, but modifiers are optional, so a
// bare key like "Enter" or "F2" is legal.
func ValidateBasicShortcutFormat(shortcut string) error {
	return validateShortcut(shortcut, false)
}

func validateShortcut(shortcut string, requireModifier bool) error {
	if strings.TrimSpace(shortcut) == "" {
		return errors.New("shortcut cannot be empty")
	}
	parts := strings.Split(shortcut, "+")
	for i, part := range parts {
		parts[i] = strings.TrimSpace(part)
		if parts[i] == "" {
			return fmt.Errorf("shortcut %q has an empty component", shortcut)
		}
	}

	key := parts[len(parts)-1]
	modifiers := parts[:len(parts)-1]

	if requireModifier && len(modifiers) == 0 {
		return fmt.Errorf("shortcut %q needs at least one modifier", shortcut)
	}
	for _, mod := range modifiers {
		if !isModifierName(mod) {
			return fmt.Errorf("shortcut %q has unknown modifier %q", shortcut, mod)
		}
	}
	if isModifierName(key) {
		return fmt.Errorf("shortcut %q ends with a modifier, expected a key", shortcut)
	}
	if !isKeyName(key) {
		return fmt.Errorf("shortcut %q has unknown key %q", shortcut, key)
	}
	return nil
}

// ValidateFontSize checks size against the inclusive font range. label is
// used only to produce a specific message ("UI font size", "Editor font
// size").
func ValidateFontSize(size int, label string) error {
	if size < MinFontSize || size > MaxFontSize {
		return fmt.Errorf("%s must be between %d and %d, got %d", label, MinFontSize, MaxFontSize, size)
	}
	return nil
}

// ValidateNoteName checks a user-supplied note file name. Rejection
// messages are fixed strings surfaced directly to the UI; the offending
// value is never embedded, so oversized or hostile input cannot leak into
// logs or dialogs.
func ValidateNoteName(name string) error {
	if name == "" {
		return errors.New("Note name cannot be empty")
	}
	if strings.Contains(name, "..") {
		return errors.New("Path traversal not allowed")
	}
	if strings.HasPrefix(name, ".") {
		return errors.New("Note name cannot start with a dot")
	}
	if len(name) > maxNoteNameLen {
		return errors.New("Note name too long")
	}
	if strings.ContainsAny(name, invalidNoteNameChars) || containsControl(name) {
		return errors.New("Invalid note name")
	}
	return nil
}

// modifierNames maps lowercase modifier spellings to acceptance. The
// spellings cover the common cross-platform aliases.
var modifierNames = map[string]struct{}{
	"ctrl":    {},
	"control": {},
	"shift":   {},
	"alt":     {},
	"option":  {},
	"opt":     {},
	"cmd":     {},
	"command": {},
	"meta":    {},
	"super":   {},
	"win":     {},
}

// namedKeys lists multi-character key names accepted by the grammar in
// lowercase. Single letters and digits are handled separately.
var namedKeys = map[string]struct{}{
	"enter":     {},
	"return":    {},
	"escape":    {},
	"esc":       {},
	"space":     {},
	"tab":       {},
	"backspace": {},
	"delete":    {},
	"insert":    {},
	"home":      {},
	"end":       {},
	"pageup":    {},
	"pagedown":  {},
	"up":        {},
	"down":      {},
	"left":      {},
	"right":     {},
	"plus":      {},
	"minus":     {},
	"comma":     {},
	"period":    {},
	"semicolon": {},
	"quote":     {},
	"slash":     {},
	"backslash": {},
	"backquote": {},
	"equal":     {},
}

func isModifierName(s string) bool {
	_, ok := modifierNames[strings.ToLower(s)]
	return ok
}

func isKeyName(s string) bool {
	if len(s) == 1 {
		c := s[0]
		return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
	}
	lower := strings.ToLower(s)
	if _, ok := namedKeys[lower]; ok {
		return true
	}
	// Function keys F1-F24.
	if len(lower) >= 2 && len(lower) <= 3 && lower[0] == 'f' {
		n := 0
		for _, r := range lower[1:] {
			if r < '0' || r > '9' {
				return false
			}
			n = n*10 + int(r-'0')
		}
		return n >= 1 && n <= 24
	}
	return false
}

func containsControl(s string) bool {
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return true
		}
	}
	return false
}
