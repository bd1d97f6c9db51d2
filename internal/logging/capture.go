package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// Entry is a captured log record with its attributes flattened to strings.
type Entry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]string
}

// Capture records everything logged through the default logger while it is
// installed. Tests assert on it instead of parsing stderr.
type Capture struct {
	mu      sync.Mutex
	entries []Entry

	prev      *slog.Logger
	prevLevel slog.Level
}

// CaptureForTest swaps the default logger for a capturing one at debug level.
// Restore undoes the swap.
func CaptureForTest() *Capture {
	c := &Capture{prev: slog.Default(), prevLevel: level.Level()}
	slog.SetDefault(slog.New(&captureHandler{capture: c}))
	SetLevel(slog.LevelDebug)
	return c
}

// Restore reinstates the logger and level that were active before capture.
func (c *Capture) Restore() {
	slog.SetDefault(c.prev)
	level.Set(c.prevLevel)
}

// Records returns a copy of the captured entries in logging order.
func (c *Capture) Records() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Entry(nil), c.entries...)
}

// Messages returns the messages logged at lvl.
func (c *Capture) Messages(lvl slog.Level) []string {
	var out []string
	for _, e := range c.Records() {
		if e.Level == lvl {
			out = append(out, e.Message)
		}
	}
	return out
}

// Has reports whether an entry at lvl has a message containing sub.
func (c *Capture) Has(lvl slog.Level, sub string) bool {
	return c.HasAttr(lvl, sub, "", "")
}

// HasAttr is Has restricted to entries carrying key=value. An empty key
// matches any entry.
func (c *Capture) HasAttr(lvl slog.Level, sub, key, value string) bool {
	for _, e := range c.Records() {
		if e.Level != lvl || !strings.Contains(e.Message, sub) {
			continue
		}
		if key == "" {
			return true
		}
		if v, ok := e.Attrs[key]; ok && v == value {
			return true
		}
	}
	return false
}

// Count returns how many entries were logged at lvl.
func (c *Capture) Count(lvl slog.Level) int {
	return len(c.Messages(lvl))
}

func (c *Capture) add(e Entry) {
	c.mu.Lock()
	c.entries = append(c.entries, e)
	c.mu.Unlock()
}

type captureHandler struct {
	capture *Capture
	with    []slog.Attr
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]string, len(h.with)+r.NumAttrs())
	for _, a := range h.with {
		attrs[a.Key] = a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.String()
		return true
	})
	h.capture.add(Entry{Level: r.Level, Message: r.Message, Attrs: attrs})
	return nil
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	with := append(append([]slog.Attr(nil), h.with...), attrs...)
	return &captureHandler{capture: h.capture, with: with}
}

// Groups are flattened.
func (h *captureHandler) WithGroup(string) slog.Handler { return h }
