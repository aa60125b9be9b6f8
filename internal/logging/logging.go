// Package logging provides the category-tagged event sink used across
// notedrop. Every diagnostic the backend wants the user to be able to see
// goes through Event as a (category, message, detail) triple; the category
// becomes a bracketed tag on the slog message so records stay greppable in
// plain text and machine-splittable by the tee handler.
package logging

import "log/slog"

// Fixed event categories. Config events are asserted by tests; keep the
// strings stable.
const (
	CategoryConfigParse      = "CONFIG_PARSE"
	CategoryConfigValidation = "CONFIG_VALIDATION"
	CategoryConfigIO         = "CONFIG_IO"
	CategoryFocus            = "FOCUS"
	CategoryNotes            = "NOTES"
	CategoryWatcher          = "WATCHER"
	CategoryPreview          = "PREVIEW"
)

// Event emits one warning-level record tagged with category. detail is
// optional; when non-empty it is attached as a "detail" attribute rather
// than concatenated into the message, so the message text stays stable for
// the diagnostics panel.
func Event(category, message, detail string) {
	if detail == "" {
		slog.Warn("[" + category + "] " + message)
		return
	}
	slog.Warn("["+category+"] "+message, "detail", detail)
}

// Error is Event at error level, for failures that leave a feature degraded
// (as opposed to corrections that already restored a valid state).
func Error(category, message, detail string) {
	if detail == "" {
		slog.Error("[" + category + "] " + message)
		return
	}
	slog.Error("["+category+"] "+message, "detail", detail)
}
