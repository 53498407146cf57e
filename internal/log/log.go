package log

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// NewLogger creates a text logger writing to w.
// When verbose is false only warnings and errors are logged; verbose
// enables debug output. This mirrors the CLI's --verbose flag.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level(verbose),
	}))
}

// NewJSONLogger creates a JSON logger writing to w.
// Useful when wplinks runs under a log aggregator.
func NewJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level(verbose),
	}))
}

func level(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// Record is one captured log record.
type Record struct {
	// Level is the record's severity.
	Level slog.Level

	// Message is the log message.
	Message string

	// Attrs holds the record's attributes keyed by name.
	Attrs map[string]slog.Value
}

// captureStore holds records shared between a CaptureHandler and the
// derived handlers returned by WithAttrs.
type captureStore struct {
	mu      sync.Mutex
	records []Record
}

// CaptureHandler records log output in memory for test assertions.
// It is safe for concurrent use, and handlers derived via WithAttrs
// append to the same record store.
type CaptureHandler struct {
	store *captureStore
	attrs []slog.Attr
}

// NewCaptureHandler creates an empty CaptureHandler.
func NewCaptureHandler() *CaptureHandler {
	return &CaptureHandler{store: &captureStore{}}
}

// Enabled reports true for every level; tests want all records.
func (h *CaptureHandler) Enabled(context.Context, slog.Level) bool { return true }

// Handle stores the record.
func (h *CaptureHandler) Handle(_ context.Context, r slog.Record) error {
	rec := Record{
		Level:   r.Level,
		Message: r.Message,
		Attrs:   make(map[string]slog.Value),
	}
	for _, a := range h.attrs {
		rec.Attrs[a.Key] = a.Value
	}
	r.Attrs(func(a slog.Attr) bool {
		rec.Attrs[a.Key] = a.Value
		return true
	})

	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	h.store.records = append(h.store.records, rec)
	return nil
}

// WithAttrs returns a handler that includes attrs in every stored record.
// The returned handler shares the record store with h.
func (h *CaptureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...)
	return &CaptureHandler{store: h.store, attrs: merged}
}

// WithGroup is accepted but grouping is not reproduced in stored records.
func (h *CaptureHandler) WithGroup(string) slog.Handler { return h }

// Records returns a copy of all captured records.
func (h *CaptureHandler) Records() []Record {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	out := make([]Record, len(h.store.records))
	copy(out, h.store.records)
	return out
}

// Messages returns the captured messages at or above the given level.
func (h *CaptureHandler) Messages(min slog.Level) []string {
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	var msgs []string
	for _, r := range h.store.records {
		if r.Level >= min {
			msgs = append(msgs, r.Message)
		}
	}
	return msgs
}
