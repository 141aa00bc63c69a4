// Package sessionlog keeps the recent warnings and errors of the running
// session so the tray and frontend can show them without reading log files.
package sessionlog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
	"time"
)

// Entry is one captured log record.
type Entry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
	// Source is the bracketed tag of the message ("hotkey" for "[WARN-hotkey]"),
	// or the accumulated slog group when the message carries no tag.
	Source string `json:"source,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Sink receives captured entries.
type Sink func(Entry)

// TeeHandler forwards every record to a base [slog.Handler] and copies the
// records at or above minLevel to a sink.
type TeeHandler struct {
	base     slog.Handler
	sink     Sink
	minLevel slog.Level
	group    string
	errText  string
}

// NewTeeHandler wraps base. A nil sink makes the handler a plain passthrough.
func NewTeeHandler(base slog.Handler, minLevel slog.Level, sink Sink) *TeeHandler {
	return &TeeHandler{
		base:     base,
		sink:     sink,
		minLevel: minLevel,
	}
}

// Enabled defers to the base handler; minLevel only gates the sink.
func (h *TeeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.base.Enabled(ctx, level)
}

// Handle forwards the record, then feeds the sink. The sink still runs when
// the base handler fails.
func (h *TeeHandler) Handle(ctx context.Context, record slog.Record) error {
	err := h.base.Handle(ctx, record)

	if h.sink != nil && record.Level >= h.minLevel {
		entry := h.entryFor(record)
		func() {
			defer func() {
				if r := recover(); r != nil {
					// stderr, not slog: logging here would re-enter this handler.
					fmt.Fprintf(os.Stderr, "[session-log] sink panicked: %v\n%s\n", r, debug.Stack())
				}
			}()
			h.sink(entry)
		}()
	}
	return err
}

func (h *TeeHandler) entryFor(record slog.Record) Entry {
	source, message := splitTag(record.Message)
	if source == "" {
		source = h.group
	}
	errText := h.errText
	record.Attrs(func(a slog.Attr) bool {
		if a.Key == "error" || a.Key == "err" {
			errText = a.Value.String()
			return false
		}
		return true
	})
	return Entry{
		Time:    record.Time,
		Level:   record.Level.String(),
		Message: message,
		Source:  source,
		Error:   errText,
	}
}

// WithAttrs keeps the sink and group. A bound "error" attribute is carried
// into every entry.
func (h *TeeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := *h
	next.base = h.base.WithAttrs(attrs)
	for _, a := range attrs {
		if h.group == "" && (a.Key == "error" || a.Key == "err") {
			next.errText = a.Value.String()
		}
	}
	return &next
}

// WithGroup appends name to the dot-separated group.
func (h *TeeHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.base = h.base.WithGroup(name)
	if h.group != "" {
		next.group = h.group + "." + name
	} else {
		next.group = name
	}
	return &next
}

// splitTag separates a "[LEVEL-source] text" prefix from the message.
func splitTag(msg string) (string, string) {
	if !strings.HasPrefix(msg, "[") {
		return "", msg
	}
	end := strings.IndexByte(msg, ']')
	if end < 0 {
		return "", msg
	}
	tag := msg[1:end]
	_, source, ok := strings.Cut(tag, "-")
	if !ok || source == "" {
		return "", msg
	}
	return strings.ToLower(source), strings.TrimSpace(msg[end+1:])
}
