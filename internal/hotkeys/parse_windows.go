//go:build windows

package hotkeys

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	modAlt     Modifier = 0x0001
	modControl Modifier = 0x0002
	modShift   Modifier = 0x0004
	modWin     Modifier = 0x0008
)

const (
	vkBack      VKey = 0x08
	vkTab       VKey = 0x09
	vkReturn    VKey = 0x0D
	vkEscape    VKey = 0x1B
	vkSpace     VKey = 0x20
	vkPageUp    VKey = 0x21
	vkPageDown  VKey = 0x22
	vkEnd       VKey = 0x23
	vkHome      VKey = 0x24
	vkLeft      VKey = 0x25
	vkUp        VKey = 0x26
	vkRight     VKey = 0x27
	vkDown      VKey = 0x28
	vkInsert    VKey = 0x2D
	vkDelete    VKey = 0x2E
	vkOem1      VKey = 0xBA // ;
	vkOemPlus   VKey = 0xBB // = and +
	vkOemComma  VKey = 0xBC
	vkOemMinus  VKey = 0xBD
	vkOemPeriod VKey = 0xBE
	vkOem2      VKey = 0xBF // /
	vkOem3      VKey = 0xC0 // `
	vkOem5      VKey = 0xDC // \
	vkOem7      VKey = 0xDE // '
	vkF1        VKey = 0x70
)

var windowsModifierByName = map[string]Modifier{
	"CTRL":    modControl,
	"CONTROL": modControl,
	"SHIFT":   modShift,
	"ALT":     modAlt,
	"OPTION":  modAlt,
	"OPT":     modAlt,
	"WIN":     modWin,
	"SUPER":   modWin,
	"CMD":     modWin,
	"COMMAND": modWin,
	"META":    modWin,
}

var windowsKeyByName = map[string]VKey{
	"SPACE":     vkSpace,
	"TAB":       vkTab,
	"ENTER":     vkReturn,
	"RETURN":    vkReturn,
	"ESC":       vkEscape,
	"ESCAPE":    vkEscape,
	"BACKSPACE": vkBack,
	"DELETE":    vkDelete,
	"INSERT":    vkInsert,
	"HOME":      vkHome,
	"END":       vkEnd,
	"PAGEUP":    vkPageUp,
	"PAGEDOWN":  vkPageDown,
	"LEFT":      vkLeft,
	"RIGHT":     vkRight,
	"UP":        vkUp,
	"DOWN":      vkDown,
	"PLUS":      vkOemPlus,
	"EQUAL":     vkOemPlus,
	"MINUS":     vkOemMinus,
	"COMMA":     vkOemComma,
	"PERIOD":    vkOemPeriod,
	"SEMICOLON": vkOem1,
	"QUOTE":     vkOem7,
	"SLASH":     vkOem2,
	"BACKSLASH": vkOem5,
	"BACKQUOTE": vkOem3,
	"GRAVE":     vkOem3,
}

// windowsFunctionKey resolves F1-F24, which occupy a contiguous VK range.
func windowsFunctionKey(token string) (VKey, bool) {
	if len(token) < 2 || len(token) > 3 || token[0] != 'F' {
		return 0, false
	}
	n, err := strconv.Atoi(token[1:])
	if err != nil || n < 1 || n > 24 {
		return 0, false
	}
	return vkF1 + VKey(n-1), true
}

// ParseBinding parses a binding like "Ctrl+Shift+F12".
func ParseBinding(spec string) (Binding, error) {
	raw := strings.TrimSpace(spec)
	if raw == "" {
		return Binding{}, fmt.Errorf("hotkey spec is empty")
	}

	parts := strings.Split(raw, "+")
	if len(parts) < 2 {
		return Binding{}, fmt.Errorf("hotkey must include modifiers and key: %s", raw)
	}

	var modifiers Modifier
	seen := map[Modifier]struct{}{}
	var normalizedMods []string

	for _, token := range parts[:len(parts)-1] {
		name := strings.ToUpper(strings.TrimSpace(token))
		mod, ok := windowsModifierByName[name]
		if !ok {
			return Binding{}, fmt.Errorf("unknown modifier %q in hotkey %q", token, raw)
		}
		if _, exists := seen[mod]; exists {
			continue
		}
		seen[mod] = struct{}{}
		modifiers |= mod
		normalizedMods = append(normalizedMods, normalizeModifierName(mod))
	}

	keyToken := strings.TrimSpace(parts[len(parts)-1])
	key, normalizedKey, err := parseWindowsKey(keyToken)
	if err != nil {
		return Binding{}, err
	}

	if modifiers == 0 {
		return Binding{}, fmt.Errorf("at least one modifier is required: %q", raw)
	}

	normalized := strings.Join(append(normalizedMods, normalizedKey), "+")
	return Binding{
		modifiers:  modifiers,
		key:        key,
		normalized: normalized,
	}, nil
}

func parseWindowsKey(raw string) (VKey, string, error) {
	token := strings.ToUpper(strings.TrimSpace(raw))
	if token == "" {
		return 0, "", fmt.Errorf("missing hotkey key token")
	}

	if key, ok := windowsFunctionKey(token); ok {
		return key, token, nil
	}
	if key, ok := windowsKeyByName[token]; ok {
		return key, token, nil
	}

	if len(token) == 1 {
		ch := token[0]
		if ch >= 'A' && ch <= 'Z' {
			return VKey(ch), token, nil
		}
		if ch >= '0' && ch <= '9' {
			return VKey(ch), token, nil
		}
		if ch == '`' {
			return vkOem3, "`", nil
		}
	}

	if strings.HasPrefix(token, "0X") {
		value, err := strconv.ParseUint(token[2:], 16, 16)
		if err != nil {
			return 0, "", fmt.Errorf("invalid hex key %q", raw)
		}
		if value == 0 {
			return 0, "", fmt.Errorf("key code 0x0000 is not a valid virtual key")
		}
		return VKey(value), token, nil
	}

	return 0, "", fmt.Errorf("unknown key %q in hotkey spec", raw)
}

func normalizeModifierName(mod Modifier) string {
	switch mod {
	case modControl:
		return "Ctrl"
	case modShift:
		return "Shift"
	case modAlt:
		return "Alt"
	case modWin:
		return "Win"
	default:
		return "Mod"
	}
}
