// Package config owns the notedrop configuration: the TOML schema, the
// canonical defaults, the closed value catalogs, and the sanitizer that
// turns arbitrary on-disk text into a guaranteed-valid Config. Loading is
// total: malformed input degrades to defaults with logged events, never to
// an error, so a hand-edited config file can never prevent startup.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"notedrop/internal/logging"
)

const (
	maxConfigFileBytes int64 = 1 << 20 // 1MB
	maxRenameRetry           = 10
	// Windows file lock releases (antivirus/indexing) typically settle
	// quickly. Use a short linear backoff: baseDelay * (1..maxRenameRetry).
	renameRetryBaseDelay = 10 * time.Millisecond
)

// userHomeDirFn is a test seam; tests override it to pin the home directory
// so Default() and DefaultPath() are reproducible.
var userHomeDirFn = os.UserHomeDir

var defaultPathWarningState struct {
	mu       sync.Mutex
	messages []string
}

func recordDefaultPathWarning(message string) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return
	}
	defaultPathWarningState.mu.Lock()
	defaultPathWarningState.messages = append(defaultPathWarningState.messages, trimmed)
	defaultPathWarningState.mu.Unlock()
}

// ConsumeDefaultPathWarnings returns and clears path-resolution warnings
// accumulated during DefaultPath() and Default() calls. The app re-emits
// them once logging is fully wired.
func ConsumeDefaultPathWarnings() []string {
	defaultPathWarningState.mu.Lock()
	defer defaultPathWarningState.mu.Unlock()
	if len(defaultPathWarningState.messages) == 0 {
		return nil
	}
	out := make([]string, len(defaultPathWarningState.messages))
	copy(out, defaultPathWarningState.messages)
	defaultPathWarningState.messages = nil
	return out
}

// Config is the notedrop runtime configuration.
type Config struct {
	NotesDirectory string            `toml:"notes_directory" json:"notes_directory"`
	GlobalShortcut string            `toml:"global_shortcut" json:"global_shortcut"`
	Interface      InterfaceConfig   `toml:"interface" json:"interface"`
	Editor         EditorConfig      `toml:"editor" json:"editor"`
	Shortcuts      ShortcutsConfig   `toml:"shortcuts" json:"shortcuts"`
	Preferences    PreferencesConfig `toml:"preferences" json:"preferences"`
}

// InterfaceConfig holds appearance settings for the main window and the
// rendered markdown view.
type InterfaceConfig struct {
	UITheme             string `toml:"ui_theme" json:"ui_theme"`
	MarkdownRenderTheme string `toml:"markdown_render_theme" json:"markdown_render_theme"`
	MDRenderCodeTheme   string `toml:"md_render_code_theme" json:"md_render_code_theme"`
	FontSize            int    `toml:"font_size" json:"font_size"`
	EditorFontSize      int    `toml:"editor_font_size" json:"editor_font_size"`
}

// EditorConfig holds the embedded editor's behavior settings.
type EditorConfig struct {
	Mode    string `toml:"mode" json:"mode"`
	Theme   string `toml:"theme" json:"theme"`
	TabSize int    `toml:"tab_size" json:"tab_size"`
}

// ShortcutsConfig maps every in-app action to a key combo. Each field is
// validated with the basic shortcut grammar and corrected independently.
type ShortcutsConfig struct {
	CreateNote           string `toml:"create_note" json:"create_note"`
	RenameNote           string `toml:"rename_note" json:"rename_note"`
	DeleteNote           string `toml:"delete_note" json:"delete_note"`
	EditNote             string `toml:"edit_note" json:"edit_note"`
	SaveAndExit          string `toml:"save_and_exit" json:"save_and_exit"`
	OpenExternal         string `toml:"open_external" json:"open_external"`
	OpenFolder           string `toml:"open_folder" json:"open_folder"`
	RefreshCache         string `toml:"refresh_cache" json:"refresh_cache"`
	ScrollUp             string `toml:"scroll_up" json:"scroll_up"`
	ScrollDown           string `toml:"scroll_down" json:"scroll_down"`
	Up                   string `toml:"up" json:"up"`
	Down                 string `toml:"down" json:"down"`
	NavigatePrevious     string `toml:"navigate_previous" json:"navigate_previous"`
	NavigateNext         string `toml:"navigate_next" json:"navigate_next"`
	NavigateCodePrevious string `toml:"navigate_code_previous" json:"navigate_code_previous"`
	NavigateCodeNext     string `toml:"navigate_code_next" json:"navigate_code_next"`
	NavigateLinkPrevious string `toml:"navigate_link_previous" json:"navigate_link_previous"`
	NavigateLinkNext     string `toml:"navigate_link_next" json:"navigate_link_next"`
	CopyCurrentSection   string `toml:"copy_current_section" json:"copy_current_section"`
	OpenSettings         string `toml:"open_settings" json:"open_settings"`
	VersionExplorer      string `toml:"version_explorer" json:"version_explorer"`
	RecentlyDeleted      string `toml:"recently_deleted" json:"recently_deleted"`
}

// PreferencesConfig holds behavior preferences.
type PreferencesConfig struct {
	MaxSearchResults int `toml:"max_search_results" json:"max_search_results"`
}

// DefaultPath resolves the config file path, preferring LOCALAPPDATA over
// APPDATA, falling back to ~/.config when both are unset, and then to
// os.TempDir() if the home directory cannot be resolved.
// The temp-dir fallback is not a stable persistence location and may vary
// between sessions depending on environment configuration.
func DefaultPath() string {
	base := strings.TrimSpace(os.Getenv("LOCALAPPDATA"))
	if base == "" {
		base = strings.TrimSpace(os.Getenv("APPDATA"))
	}
	if base == "" {
		home, err := userHomeDirFn()
		if err != nil {
			// Keep config path resolvable even in restricted environments.
			slog.Warn("[WARN-CONFIG] using temp dir as config path fallback", "error", err)
			recordDefaultPathWarning(
				"Config path fallback: failed to resolve LOCALAPPDATA/APPDATA/home directory. Using temp directory; settings persistence may be limited.",
			)
			base = os.TempDir()
		} else {
			base = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(base, "notedrop", "config.toml")
}

// LoadFromContent decodes and sanitizes raw config text. Decoding starts
// from Default(), so missing fields keep their default values and unknown
// keys are ignored. Any decode failure (syntax, wrong types) emits one
// CONFIG_PARSE event and yields the full default instance; a partially
// decoded value is never returned. The result always satisfies every field
// invariant.
func LoadFromContent(content string) Config {
	cfg := Default()
	if err := toml.Unmarshal([]byte(content), &cfg); err != nil {
		logging.Event(logging.CategoryConfigParse,
			"Failed to parse config TOML. Using defaults.", err.Error())
		return Default()
	}
	Sanitize(&cfg)
	return cfg
}

// Load reads and sanitizes the config file at path. A missing file is the
// normal first-run case and yields Default() silently; unreadable or
// oversized files yield Default() with one CONFIG_IO event. Load never
// fails.
func Load(path string) Config {
	raw, err := readLimitedFile(path, maxConfigFileBytes)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default()
		}
		logging.Event(logging.CategoryConfigIO,
			"Failed to read config file. Using defaults.", err.Error())
		return Default()
	}
	if len(raw) == 0 {
		return Default()
	}
	return LoadFromContent(string(raw))
}

// ContentOrTemplate returns the raw on-disk config text when the file is
// readable, without sanitizing it: the settings editor shows exactly what
// the user wrote, corruption included, and correction happens on load. Any
// read failure falls back to a freshly generated template.
func ContentOrTemplate(path string) string {
	raw, err := readLimitedFile(path, maxConfigFileBytes)
	if err != nil {
		return Template()
	}
	return string(raw)
}

// EnsureFile writes the default template to path when no config file
// exists. It reports whether the file was created, which is how first-run
// state is detected.
func EnsureFile(path string) (created bool, err error) {
	if _, statErr := os.Stat(path); statErr == nil {
		return false, nil
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return false, fmt.Errorf("ensure config: stat: %w", statErr)
	}
	if err := atomicWrite(path, []byte(Template())); err != nil {
		return false, fmt.Errorf("ensure config: %w", err)
	}
	slog.Info("[DEBUG-CONFIG] config template created", "path", path)
	return true, nil
}

// WriteContent atomically persists raw config text as-is, preserving the
// user's formatting and comments. The content is size-capped but not
// sanitized here; callers reload through LoadFromContent for the active
// snapshot.
func WriteContent(path string, content string) error {
	if int64(len(content)) > maxConfigFileBytes {
		return fmt.Errorf("save config: content exceeds %d bytes", maxConfigFileBytes)
	}
	if err := atomicWrite(path, []byte(content)); err != nil {
		return err
	}
	slog.Debug("[DEBUG-CONFIG] config saved", "path", path)
	return nil
}

// Clone returns a copy of cfg safe to hand across goroutine or package
// boundaries. Config currently contains only value fields, so the copy is
// a plain assignment; route all snapshot copies through Clone anyway so
// reference fields added later cannot introduce sharing bugs.
func Clone(src Config) Config {
	return src
}

// atomicWrite writes config data using temp-file + rename to avoid partial
// writes and retries rename on Windows to tolerate transient file locks.
func atomicWrite(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("save config: mkdir: %w", err)
	}

	// Atomic write: temp file + rename in same directory ensures
	// same-filesystem rename and prevents partial writes on crash.
	tmpFile, err := os.CreateTemp(dir, ".config.toml.tmp.*")
	if err != nil {
		return fmt.Errorf("save config: create temp: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			if closeErr := tmpFile.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
				slog.Warn("[WARN-CONFIG] failed to close temp file", "path", tmpPath, "error", closeErr)
			}
		}
		if err != nil {
			if removeErr := os.Remove(tmpPath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
				slog.Warn("[WARN-CONFIG] failed to remove temp file", "path", tmpPath, "error", removeErr)
			}
		}
	}()

	if err = tmpFile.Chmod(0o600); err != nil {
		return fmt.Errorf("save config: chmod temp: %w", err)
	}
	if _, err = tmpFile.Write(data); err != nil {
		return fmt.Errorf("save config: write: %w", err)
	}
	if err = tmpFile.Sync(); err != nil {
		return fmt.Errorf("save config: sync: %w", err)
	}
	err = tmpFile.Close()
	tmpFile = nil
	if err != nil {
		return fmt.Errorf("save config: close: %w", err)
	}

	if err = renameFileWithRetry(tmpPath, path); err != nil {
		return fmt.Errorf("save config: rename: %w", err)
	}
	return nil
}

func readLimitedFile(path string, maxBytes int64) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	limited := io.LimitReader(file, maxBytes+1)
	raw, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > maxBytes {
		return nil, fmt.Errorf("config file exceeds %d bytes", maxBytes)
	}
	return raw, nil
}

func renameFileWithRetry(sourcePath string, targetPath string) error {
	var lastErr error
	for attempt := 0; attempt < maxRenameRetry; attempt++ {
		err := os.Rename(sourcePath, targetPath)
		if err == nil {
			return nil
		}
		lastErr = err
		if runtime.GOOS != "windows" {
			return err
		}
		time.Sleep(time.Duration(attempt+1) * renameRetryBaseDelay)
	}
	return lastErr
}
