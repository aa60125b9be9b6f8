package config

import (
	"fmt"

	"notedrop/internal/logging"
	"notedrop/internal/validation"
)

// maxDisplayValueRunes caps how much of an invalid value is echoed into a
// validation event. Oversized values (a pasted document in a theme field,
// say) are truncated so log lines stay bounded and large user input never
// leaks wholesale into logs.
const maxDisplayValueRunes = 64

// Sanitize corrects cfg in place so that every field satisfies its
// invariant. Each invalid field is reset to its default value and reported
// with one CONFIG_VALIDATION event; valid fields are left untouched. Fields
// are checked independently, there are no cross-field constraints.
// Sanitize is idempotent and Default() is its fixed point.
func Sanitize(cfg *Config) {
	defaults := Default()

	if err := validation.ValidateNotesDirectory(cfg.NotesDirectory); err != nil {
		reportInvalid(fmt.Sprintf("Invalid notes_directory '%s'. Using default.",
			displayValue(cfg.NotesDirectory)))
		cfg.NotesDirectory = defaults.NotesDirectory
	}

	if err := validation.ValidateShortcutFormat(cfg.GlobalShortcut); err != nil {
		reportInvalid(fmt.Sprintf("Invalid global_shortcut '%s'. Using default.",
			displayValue(cfg.GlobalShortcut)))
		cfg.GlobalShortcut = defaults.GlobalShortcut
	}

	sanitizeInterface(&cfg.Interface, defaults.Interface)
	sanitizeEditor(&cfg.Editor, defaults.Editor)
	sanitizeShortcuts(&cfg.Shortcuts, defaults.Shortcuts)
	sanitizePreferences(&cfg.Preferences, defaults.Preferences)
}

func sanitizeInterface(cfg *InterfaceConfig, defaults InterfaceConfig) {
	if !isAvailableUITheme(cfg.UITheme) {
		reportInvalid(fmt.Sprintf("Invalid ui_theme '%s'. Using default.",
			displayValue(cfg.UITheme)))
		cfg.UITheme = defaults.UITheme
	}

	if !isAvailableMarkdownTheme(cfg.MarkdownRenderTheme) {
		reportInvalid(fmt.Sprintf("Invalid markdown_render_theme '%s'. Using default.",
			displayValue(cfg.MarkdownRenderTheme)))
		cfg.MarkdownRenderTheme = defaults.MarkdownRenderTheme
	}

	if !isAvailableCodeTheme(cfg.MDRenderCodeTheme) {
		reportInvalid(fmt.Sprintf("Invalid md_render_code_theme '%s'. Using default.",
			displayValue(cfg.MDRenderCodeTheme)))
		cfg.MDRenderCodeTheme = defaults.MDRenderCodeTheme
	}

	if err := validation.ValidateFontSize(cfg.FontSize, "UI font size"); err != nil {
		reportInvalid(fmt.Sprintf("Invalid font_size %d. Using default %d.",
			cfg.FontSize, defaults.FontSize))
		cfg.FontSize = defaults.FontSize
	}

	if err := validation.ValidateFontSize(cfg.EditorFontSize, "Editor font size"); err != nil {
		reportInvalid(fmt.Sprintf("Invalid editor_font_size %d. Using default %d.",
			cfg.EditorFontSize, defaults.EditorFontSize))
		cfg.EditorFontSize = defaults.EditorFontSize
	}
}

func sanitizeEditor(cfg *EditorConfig, defaults EditorConfig) {
	if !isAvailableEditorMode(cfg.Mode) {
		reportInvalid(fmt.Sprintf("Invalid editor mode '%s'. Using default.",
			displayValue(cfg.Mode)))
		cfg.Mode = defaults.Mode
	}

	if !isAvailableEditorTheme(cfg.Theme) {
		reportInvalid(fmt.Sprintf("Invalid editor theme '%s'. Using default.",
			displayValue(cfg.Theme)))
		cfg.Theme = defaults.Theme
	}

	if cfg.TabSize <= 0 || cfg.TabSize > 16 {
		reportInvalid(fmt.Sprintf("Invalid tab_size %d. Using default %d.",
			cfg.TabSize, defaults.TabSize))
		cfg.TabSize = defaults.TabSize
	}
}

// shortcutFields drives the uniform correction pass over every per-action
// shortcut. The name is the TOML key, used verbatim in event messages;
// field returns the addressed struct field so one routine can read and
// overwrite all of them.
var shortcutFields = []struct {
	name  string
	field func(*ShortcutsConfig) *string
}{
	{"create_note", func(s *ShortcutsConfig) *string { return &s.CreateNote }},
	{"rename_note", func(s *ShortcutsConfig) *string { return &s.RenameNote }},
	{"delete_note", func(s *ShortcutsConfig) *string { return &s.DeleteNote }},
	{"edit_note", func(s *ShortcutsConfig) *string { return &s.EditNote }},
	{"save_and_exit", func(s *ShortcutsConfig) *string { return &s.SaveAndExit }},
	{"open_external", func(s *ShortcutsConfig) *string { return &s.OpenExternal }},
	{"open_folder", func(s *ShortcutsConfig) *string { return &s.OpenFolder }},
	{"refresh_cache", func(s *ShortcutsConfig) *string { return &s.RefreshCache }},
	{"scroll_up", func(s *ShortcutsConfig) *string { return &s.ScrollUp }},
	{"scroll_down", func(s *ShortcutsConfig) *string { return &s.ScrollDown }},
	{"up", func(s *ShortcutsConfig) *string { return &s.Up }},
	{"down", func(s *ShortcutsConfig) *string { return &s.Down }},
	{"navigate_previous", func(s *ShortcutsConfig) *string { return &s.NavigatePrevious }},
	{"navigate_next", func(s *ShortcutsConfig) *string { return &s.NavigateNext }},
	{"navigate_code_previous", func(s *ShortcutsConfig) *string { return &s.NavigateCodePrevious }},
	{"navigate_code_next", func(s *ShortcutsConfig) *string { return &s.NavigateCodeNext }},
	{"navigate_link_previous", func(s *ShortcutsConfig) *string { return &s.NavigateLinkPrevious }},
	{"navigate_link_next", func(s *ShortcutsConfig) *string { return &s.NavigateLinkNext }},
	{"copy_current_section", func(s *ShortcutsConfig) *string { return &s.CopyCurrentSection }},
	{"open_settings", func(s *ShortcutsConfig) *string { return &s.OpenSettings }},
	{"version_explorer", func(s *ShortcutsConfig) *string { return &s.VersionExplorer }},
	{"recently_deleted", func(s *ShortcutsConfig) *string { return &s.RecentlyDeleted }},
}

func sanitizeShortcuts(cfg *ShortcutsConfig, defaults ShortcutsConfig) {
	for _, sf := range shortcutFields {
		current := sf.field(cfg)
		if err := validation.ValidateBasicShortcutFormat(*current); err != nil {
			fallback := *sf.field(&defaults)
			reportInvalid(fmt.Sprintf("Invalid shortcut '%s' for %s. Using default '%s'.",
				displayValue(*current), sf.name, fallback))
			*current = fallback
		}
	}
}

func sanitizePreferences(cfg *PreferencesConfig, defaults PreferencesConfig) {
	if cfg.MaxSearchResults <= 0 || cfg.MaxSearchResults > 10000 {
		reportInvalid(fmt.Sprintf("Invalid max_search_results %d. Using default %d.",
			cfg.MaxSearchResults, defaults.MaxSearchResults))
		cfg.MaxSearchResults = defaults.MaxSearchResults
	}
}

func reportInvalid(message string) {
	logging.Event(logging.CategoryConfigValidation, message, "")
}

func displayValue(value string) string {
	runes := []rune(value)
	if len(runes) <= maxDisplayValueRunes {
		return value
	}
	return string(runes[:maxDisplayValueRunes]) + "..."
}
