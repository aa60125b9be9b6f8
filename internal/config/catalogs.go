package config

import "slices"

// Closed value catalogs. Sanitization replaces any value outside its
// catalog with the default, so every catalog must contain its default.

// AvailableUIThemes lists the selectable application themes.
func AvailableUIThemes() []string {
	return []string{"gruvbox-dark", "article", "modern-dark"}
}

// AvailableMarkdownThemes lists the selectable rendered-markdown themes.
func AvailableMarkdownThemes() []string {
	return []string{"modern-dark", "article", "gruvbox-dark"}
}

// AvailableEditorModes lists the selectable editor keybinding modes.
func AvailableEditorModes() []string {
	return []string{"basic", "vim", "emacs"}
}

// AvailableEditorThemes lists the selectable editor color themes.
func AvailableEditorThemes() []string {
	return []string{
		"abcdef",
		"abyss",
		"android-studio",
		"andromeda",
		"basic-dark",
		"basic-light",
		"forest",
		"github-dark",
		"github-light",
		"gruvbox-dark",
		"gruvbox-light",
		"material-dark",
		"material-light",
		"monokai",
		"nord",
		"palenight",
		"solarized-dark",
		"solarized-light",
		"tokyo-night-day",
		"tokyo-night-storm",
		"volcano",
		"vscode-dark",
		"vscode-light",
	}
}

// AvailableCodeThemes lists the selectable syntax-highlight themes for
// fenced code blocks in rendered markdown.
func AvailableCodeThemes() []string {
	return []string{
		"gruvbox-dark-hard",
		"gruvbox-dark-medium",
		"gruvbox-dark-soft",
		"gruvbox-light-hard",
		"gruvbox-light-medium",
		"atom-one-dark",
		"dracula",
		"nord",
		"monokai",
		"github-dark",
		"vs2015",
		"night-owl",
		"tokyo-night-dark",
		"atom-one-light",
		"github",
		"vs",
		"xcode",
		"tokyo-night-light",
	}
}

func isAvailableUITheme(name string) bool {
	return slices.Contains(AvailableUIThemes(), name)
}

func isAvailableMarkdownTheme(name string) bool {
	return slices.Contains(AvailableMarkdownThemes(), name)
}

func isAvailableEditorMode(name string) bool {
	return slices.Contains(AvailableEditorModes(), name)
}

func isAvailableEditorTheme(name string) bool {
	return slices.Contains(AvailableEditorThemes(), name)
}

func isAvailableCodeTheme(name string) bool {
	return slices.Contains(AvailableCodeThemes(), name)
}
