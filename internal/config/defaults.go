package config

import (
	"log/slog"
	"os"
	"path/filepath"
)

// Default values for every governed field. Defaults and catalogs live in
// this package side by side so the fixed-point invariant (sanitizing the
// default changes nothing) cannot drift when a catalog is edited; the
// config tests assert it.
const (
	defaultGlobalShortcut      = "Ctrl+Shift+N"
	defaultUITheme             = "gruvbox-dark"
	defaultMarkdownRenderTheme = "modern-dark"
	defaultCodeTheme           = "gruvbox-dark-medium"
	defaultFontSize            = 14
	defaultEditorFontSize      = 14
	defaultEditorMode          = "basic"
	defaultEditorTheme         = "gruvbox-dark"
	defaultTabSize             = 4
	defaultMaxSearchResults    = 100
)

// Default returns the canonical default configuration. Every field value is
// a member of its catalog or range, so Default() is a fixed point of
// Sanitize.
func Default() Config {
	return Config{
		NotesDirectory: defaultNotesDirectory(),
		GlobalShortcut: defaultGlobalShortcut,
		Interface: InterfaceConfig{
			UITheme:             defaultUITheme,
			MarkdownRenderTheme: defaultMarkdownRenderTheme,
			MDRenderCodeTheme:   defaultCodeTheme,
			FontSize:            defaultFontSize,
			EditorFontSize:      defaultEditorFontSize,
		},
		Editor: EditorConfig{
			Mode:    defaultEditorMode,
			Theme:   defaultEditorTheme,
			TabSize: defaultTabSize,
		},
		Shortcuts: ShortcutsConfig{
			CreateNote:           "Ctrl+Enter",
			RenameNote:           "F2",
			DeleteNote:           "Ctrl+X",
			EditNote:             "Enter",
			SaveAndExit:          "Ctrl+S",
			OpenExternal:         "Ctrl+O",
			OpenFolder:           "Ctrl+Shift+O",
			RefreshCache:         "Ctrl+R",
			ScrollUp:             "Ctrl+U",
			ScrollDown:           "Ctrl+D",
			Up:                   "Ctrl+K",
			Down:                 "Ctrl+J",
			NavigatePrevious:     "Ctrl+P",
			NavigateNext:         "Ctrl+N",
			NavigateCodePrevious: "Ctrl+Alt+P",
			NavigateCodeNext:     "Ctrl+Alt+N",
			NavigateLinkPrevious: "Alt+P",
			NavigateLinkNext:     "Alt+N",
			CopyCurrentSection:   "Ctrl+Y",
			OpenSettings:         "Ctrl+Comma",
			VersionExplorer:      "Ctrl+H",
			RecentlyDeleted:      "Ctrl+Shift+D",
		},
		Preferences: PreferencesConfig{
			MaxSearchResults: defaultMaxSearchResults,
		},
	}
}

// defaultNotesDirectory resolves ~/Documents/Notes through the home-dir
// seam. When the home directory cannot be resolved the temp dir is used so
// the default stays a usable absolute path; the condition is logged once
// per call site via the deferred warning mechanism.
func defaultNotesDirectory() string {
	home, err := userHomeDirFn()
	if err != nil {
		slog.Warn("[WARN-CONFIG] using temp dir for default notes directory", "error", err)
		recordDefaultPathWarning(
			"Notes directory fallback: failed to resolve the home directory. Using temp directory; notes persistence may be limited.",
		)
		return filepath.Join(os.TempDir(), "notedrop", "Notes")
	}
	return filepath.Join(home, "Documents", "Notes")
}
