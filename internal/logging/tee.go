package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
	"time"
)

// EntryFunc is invoked for each log record at or above the capture threshold.
// category is the bracketed tag extracted from the message ("[CONFIG_PARSE]
// ..." yields "CONFIG_PARSE"); it is empty for untagged records. message is
// the record text with the tag stripped.
type EntryFunc func(ts time.Time, level slog.Level, category, message string)

// TeeHandler wraps a base [slog.Handler] and tees records at or above
// minLevel to a callback. All records are forwarded to the base handler
// regardless of level; only the callback invocation is gated by minLevel.
// The app installs one of these at startup so the frontend diagnostics panel
// sees the same corrections and failures the log file does.
type TeeHandler struct {
	base     slog.Handler
	callback EntryFunc
	minLevel slog.Level
}

// NewTeeHandler creates a TeeHandler that delegates to base and invokes
// callback for every record whose level is >= minLevel. A nil callback is
// safe; the handler then simply delegates.
func NewTeeHandler(base slog.Handler, minLevel slog.Level, callback EntryFunc) *TeeHandler {
	return &TeeHandler{
		base:     base,
		callback: callback,
		minLevel: minLevel,
	}
}

// Enabled reports whether the base handler is enabled for the given level.
// The callback threshold does not affect visibility; the base handler
// decides what gets logged.
func (h *TeeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

// Handle forwards the record to the base handler, then conditionally invokes
// the callback. The callback runs regardless of base handler error: panel
// notification should not depend on file-sink success.
func (h *TeeHandler) Handle(ctx context.Context, record slog.Record) error {
	err := h.base.Handle(ctx, record)

	if h.callback != nil && record.Level >= h.minLevel {
		category, message := SplitCategory(record.Message)
		func() {
			defer func() {
				if r := recover(); r != nil {
					// Callback panic goes to stderr, not slog, to avoid
					// recursive TeeHandler invocation.
					fmt.Fprintf(os.Stderr, "[logging] tee callback panicked: %v\n%s\n", r, debug.Stack())
				}
			}()
			h.callback(record.Time, record.Level, category, message)
		}()
	}

	// Returning the base handler error is intentional. slog.Logger emits it
	// to stderr as an internal fallback, making handler failures visible.
	return err
}

// WithAttrs returns a new TeeHandler whose base handler has the given
// attributes applied. Callback and threshold are preserved.
func (h *TeeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	return &TeeHandler{
		base:     h.base.WithAttrs(attrs),
		callback: h.callback,
		minLevel: h.minLevel,
	}
}

// WithGroup returns a new TeeHandler whose base handler is wrapped with the
// given group name.
func (h *TeeHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &TeeHandler{
		base:     h.base.WithGroup(name),
		callback: h.callback,
		minLevel: h.minLevel,
	}
}

// SplitCategory splits a "[TAG] rest" message into its tag and remainder.
// Messages without a leading bracketed tag return ("", msg) unchanged.
func SplitCategory(msg string) (category, message string) {
	if !strings.HasPrefix(msg, "[") {
		return "", msg
	}
	end := strings.IndexByte(msg, ']')
	if end <= 1 {
		return "", msg
	}
	return msg[1:end], strings.TrimPrefix(msg[end+1:], " ")
}
