package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestInitText(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	Init("info", "text", &buf)
	For("test").Info("hello", "key", "value")

	out := buf.String()
	if !strings.Contains(out, "msg=hello") || !strings.Contains(out, "component=test") {
		t.Fatalf("text output = %q", out)
	}
}

func TestInitJSON(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	Init("debug", "json", &buf)
	For("test").Debug("detail", "n", 3)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "detail" || rec["component"] != "test" {
		t.Fatalf("record = %v", rec)
	}
}

func TestInitAutoNonTerminalIsText(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	Init("warn", "auto", &buf)
	For("test").Warn("careful")

	if !strings.Contains(buf.String(), "level=WARN") {
		t.Fatalf("auto format on a buffer should be plain text, got %q", buf.String())
	}
}

func TestInitTintNoColorOffTerminal(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	Init("info", "tint", &buf)
	For("test").Info("tinted")

	out := buf.String()
	if !strings.Contains(out, "tinted") {
		t.Fatalf("tint output = %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("tint output to a buffer should carry no ANSI escapes: %q", out)
	}
}

func TestInitLevelFilters(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	Init("warn", "text", &buf)
	For("test").Info("quiet")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"  Error  ", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		parseLevel(tt.input)
		if level.Level() != tt.want {
			t.Errorf("parseLevel(%q): got %v, want %v", tt.input, level.Level(), tt.want)
		}
	}
}

func TestValidFormat(t *testing.T) {
	for _, f := range []string{"auto", "text", "json", "tint", " JSON "} {
		if !ValidFormat(f) {
			t.Errorf("ValidFormat(%q) = false", f)
		}
	}
	for _, f := range []string{"", "xml", "logfmt"} {
		if ValidFormat(f) {
			t.Errorf("ValidFormat(%q) = true", f)
		}
	}
}

func TestSetLevel(t *testing.T) {
	SetLevel(slog.LevelWarn)
	if level.Level() != slog.LevelWarn {
		t.Errorf("SetLevel(Warn): got %v", level.Level())
	}
	SetLevel(slog.LevelInfo)
}

func TestDynamicHandlerEnabled(t *testing.T) {
	SetLevel(slog.LevelWarn)
	defer SetLevel(slog.LevelInfo)

	h := &dynamicHandler{component: "test"}
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should not be enabled at warn level")
	}
	if !h.Enabled(context.Background(), slog.LevelError) {
		t.Error("error should be enabled at warn level")
	}
}

func TestCaptureForTest(t *testing.T) {
	c := CaptureForTest()
	defer c.Restore()

	slog.Info("hello")
	slog.Warn("warning message")
	slog.Debug("debug detail")

	if len(c.Records()) != 3 {
		t.Fatalf("expected 3 records, got %d", len(c.Records()))
	}
	if !c.Has(slog.LevelWarn, "warning") {
		t.Error("should have warn 'warning'")
	}
	if c.Has(slog.LevelError, "hello") {
		t.Error("should not match error level")
	}
	if c.Count(slog.LevelDebug) != 1 {
		t.Errorf("expected 1 debug, got %d", c.Count(slog.LevelDebug))
	}
	if got := c.Messages(slog.LevelInfo); len(got) != 1 || got[0] != "hello" {
		t.Errorf("info messages = %v, want [hello]", got)
	}
}

func TestCaptureRestore(t *testing.T) {
	prev := slog.Default()
	c := CaptureForTest()
	c.Restore()

	if slog.Default() != prev {
		t.Error("default logger not restored")
	}
}

func TestForWithCaptureTagsComponent(t *testing.T) {
	c := CaptureForTest()
	defer c.Restore()

	For("state").Warn("snapshot corrupt", "kind", "kv")

	if !c.HasAttr(slog.LevelWarn, "corrupt", "component", "state") {
		t.Error("record should carry component=state")
	}
	if !c.HasAttr(slog.LevelWarn, "corrupt", "kind", "kv") {
		t.Error("record should carry kind=kv")
	}
	if c.HasAttr(slog.LevelWarn, "corrupt", "component", "cli") {
		t.Error("HasAttr matched the wrong component")
	}
}

func TestCaptureHandlerWithAttrs(t *testing.T) {
	c := CaptureForTest()
	defer c.Restore()

	slog.Default().With("run", "1").Info("scoped")
	if !c.HasAttr(slog.LevelInfo, "scoped", "run", "1") {
		t.Error("WithAttrs attributes should be captured")
	}
}
