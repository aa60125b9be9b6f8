package config

import (
	"fmt"
	"strings"

	"notedrop/internal/validation"
)

// Template renders the default configuration as a commented TOML document.
// It is what first-run writes to disk and what the settings editor shows
// when the file is unreadable. Values come from Default() and option lists
// from the catalogs, so the text can never drift from the code; a test
// round-trips it through LoadFromContent to enforce that.
func Template() string {
	defaults := Default()

	var b strings.Builder
	b.WriteString("# notedrop configuration\n")
	b.WriteString("# Invalid values are replaced with defaults on load and reported in the log.\n")
	b.WriteString("\n")

	b.WriteString("# Directory where notes are stored.\n")
	fmt.Fprintf(&b, "notes_directory = %s\n", tomlString(defaults.NotesDirectory))
	b.WriteString("\n")
	b.WriteString("# Global shortcut that summons the window from anywhere.\n")
	b.WriteString("# Requires at least one modifier, e.g. \"Ctrl+Shift+N\".\n")
	fmt.Fprintf(&b, "global_shortcut = %s\n", tomlString(defaults.GlobalShortcut))

	b.WriteString("\n[interface]\n")
	writeOptionsComment(&b, AvailableUIThemes())
	fmt.Fprintf(&b, "ui_theme = %s\n", tomlString(defaults.Interface.UITheme))
	writeOptionsComment(&b, AvailableMarkdownThemes())
	fmt.Fprintf(&b, "markdown_render_theme = %s\n", tomlString(defaults.Interface.MarkdownRenderTheme))
	writeOptionsComment(&b, AvailableCodeThemes())
	fmt.Fprintf(&b, "md_render_code_theme = %s\n", tomlString(defaults.Interface.MDRenderCodeTheme))
	fmt.Fprintf(&b, "# %d to %d.\n", validation.MinFontSize, validation.MaxFontSize)
	fmt.Fprintf(&b, "font_size = %d\n", defaults.Interface.FontSize)
	fmt.Fprintf(&b, "editor_font_size = %d\n", defaults.Interface.EditorFontSize)

	b.WriteString("\n[editor]\n")
	writeOptionsComment(&b, AvailableEditorModes())
	fmt.Fprintf(&b, "mode = %s\n", tomlString(defaults.Editor.Mode))
	writeOptionsComment(&b, AvailableEditorThemes())
	fmt.Fprintf(&b, "theme = %s\n", tomlString(defaults.Editor.Theme))
	b.WriteString("# 1 to 16.\n")
	fmt.Fprintf(&b, "tab_size = %d\n", defaults.Editor.TabSize)

	b.WriteString("\n[shortcuts]\n")
	b.WriteString("# Key combos for in-app actions. A bare key like \"Enter\" is allowed here.\n")
	for _, sf := range shortcutFields {
		fmt.Fprintf(&b, "%s = %s\n", sf.name, tomlString(*sf.field(&defaults.Shortcuts)))
	}

	b.WriteString("\n[preferences]\n")
	b.WriteString("# 1 to 10000.\n")
	fmt.Fprintf(&b, "max_search_results = %d\n", defaults.Preferences.MaxSearchResults)

	return b.String()
}

func writeOptionsComment(b *strings.Builder, options []string) {
	b.WriteString("# One of: ")
	b.WriteString(strings.Join(options, ", "))
	b.WriteString(".\n")
}

// tomlString renders s as a TOML basic string. Backslashes matter for
// Windows paths in notes_directory.
func tomlString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04X`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
