package logbuf

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/modoterra/devconsole/pkg/core"
)

func TestSeverityForLevel(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  core.Severity
	}{
		{slog.LevelDebug, core.SeverityLog},
		{slog.LevelInfo, core.SeverityLog},
		{slog.LevelWarn, core.SeverityWarning},
		{slog.LevelError, core.SeverityError},
		{LevelException, core.SeverityException},
		{LevelAssert, core.SeverityAssert},
	}
	for _, tt := range tests {
		if got := SeverityForLevel(tt.level); got != tt.want {
			t.Errorf("SeverityForLevel(%v) = %s, want %s", tt.level, got, tt.want)
		}
		if tt.level >= slog.LevelInfo {
			if back := LevelForSeverity(tt.want); back != tt.level {
				t.Errorf("LevelForSeverity(%s) = %v, want %v", tt.want, back, tt.level)
			}
		}
	}
}

func TestHandlerAppendsMessage(t *testing.T) {
	b := New()
	logger := slog.New(NewHandler(b, nil))

	logger.Info("> setSpeed 5")

	entries := b.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "> setSpeed 5" {
		t.Errorf("message: got %q", entries[0].Message)
	}
	if entries[0].Severity != core.SeverityLog {
		t.Errorf("severity: got %s", entries[0].Severity)
	}
	if entries[0].StackTrace != "" {
		t.Errorf("info records should carry no stack, got %q", entries[0].StackTrace)
	}
}

func TestHandlerFormatsAttrs(t *testing.T) {
	b := New()
	logger := slog.New(NewHandler(b, nil)).With("frame", 42).WithGroup("net")

	logger.Warn("lag spike", "ms", 120, "peer", "host a")

	got := b.Entries()[0].Message
	want := `lag spike frame=42 net.ms=120 net.peer="host a"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestHandlerStackAttr(t *testing.T) {
	b := New()
	logger := slog.New(NewHandler(b, nil))

	logger.Warn("custom", StackKey, "frame0\nframe1")

	e := b.Entries()[0]
	if e.StackTrace != "frame0\nframe1" {
		t.Errorf("stack: got %q", e.StackTrace)
	}
	if strings.Contains(e.Message, "stack=") {
		t.Errorf("stack attribute leaked into message: %q", e.Message)
	}
}

func TestHandlerCapturesStackForErrors(t *testing.T) {
	b := New()
	logger := slog.New(NewHandler(b, nil))

	logger.Error("boom")

	e := b.Entries()[0]
	if e.Severity != core.SeverityError {
		t.Errorf("severity: got %s", e.Severity)
	}
	if !strings.Contains(e.StackTrace, "TestHandlerCapturesStackForErrors") {
		t.Errorf("stack should include the calling test, got %q", e.StackTrace)
	}
}

func TestHandlerLevelFilter(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  []string
	}{
		{slog.LevelDebug, []string{"debug", "> noop", "warn"}},
		{slog.LevelInfo, []string{"> noop", "warn"}},
		{slog.LevelWarn, []string{"> noop", "warn"}},
		{slog.LevelError, []string{"> noop", "warn"}},
	}
	for _, tt := range tests {
		b := New()
		logger := slog.New(NewHandler(b, &HandlerOptions{Level: tt.level}))

		logger.Debug("debug")
		logger.Info("> noop")
		logger.Warn("warn")

		var got []string
		for _, e := range b.Entries() {
			got = append(got, e.Message)
		}
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("level %v: got %v, want %v", tt.level, got, tt.want)
		}
	}
}
