package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseValidConfig(t *testing.T) {
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	yaml := `
version: 1
title: Sandbox
frame_interval: 33ms
socket: "${XDG_RUNTIME_DIR}/sandbox.sock"
log_level: debug
stack_level: warn
journal: true
startup:
  - "god true"
  - "setSpeed 2.5"
follow:
  - name: server
    file: /var/log/arena/server.log
  - unit: matchmaker.service
  - name: bots
    command: ./botd --count 4
    dir: /srv/arena
    env:
      BOT_SEED: "7"
    restart: always
`
	c, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if c.Title != "Sandbox" {
		t.Errorf("title: got %q", c.Title)
	}
	if c.FrameInterval.Duration != 33*time.Millisecond {
		t.Errorf("frame_interval: got %s", c.FrameInterval)
	}
	if c.Socket != "/run/user/1000/sandbox.sock" {
		t.Errorf("socket interpolation: got %q", c.Socket)
	}
	if !c.Journal {
		t.Error("journal should be enabled")
	}
	if len(c.Startup) != 2 || c.Startup[1] != "setSpeed 2.5" {
		t.Errorf("startup: got %v", c.Startup)
	}
	if len(c.Follow) != 3 || c.Follow[2].Env["BOT_SEED"] != "7" || c.Follow[0].File != "/var/log/arena/server.log" || c.Follow[1].Unit != "matchmaker.service" {
		t.Errorf("follow: got %+v", c.Follow)
	}
	if errs := Validate(c); len(errs) != 0 {
		t.Errorf("unexpected validation errors: %v", errs)
	}
}

func TestParseKeepsDefaults(t *testing.T) {
	c, err := Parse([]byte("version: 1\n"))
	if err != nil {
		t.Fatal(err)
	}
	if c.FrameInterval.Duration != 16*time.Millisecond {
		t.Errorf("default frame_interval: got %s", c.FrameInterval)
	}
	if c.StackLevel != "error" || c.LogLevel != "info" {
		t.Errorf("default levels: got %q/%q", c.LogLevel, c.StackLevel)
	}
	if strings.Contains(c.Socket, "$") {
		t.Errorf("socket not expanded: %q", c.Socket)
	}
}

func TestParseInvalidDuration(t *testing.T) {
	_, err := Parse([]byte("version: 1\nframe_interval: soon\n"))
	if err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestValidateVersionMustBe1(t *testing.T) {
	c := Default()
	c.Version = 2
	assertHasError(t, Validate(c), "version must be 1")
}

func TestValidateFrameInterval(t *testing.T) {
	c := Default()
	c.FrameInterval.Duration = 0
	assertHasError(t, Validate(c), "frame_interval must be positive")

	c.FrameInterval.Duration = 2 * time.Second
	assertHasError(t, Validate(c), "at most 1s")
}

func TestValidateLevels(t *testing.T) {
	c := Default()
	c.LogLevel = "loud"
	c.StackLevel = "never"
	errs := Validate(c)
	assertHasError(t, errs, "log_level")
	assertHasError(t, errs, "stack_level")
}

func TestValidateLogLevelAboveInfo(t *testing.T) {
	c := Default()
	c.LogLevel = "warn"
	assertHasError(t, Validate(c), "would hide console output")

	c.LogLevel = "debug"
	if errs := Validate(c); len(errs) != 0 {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestValidateStartup(t *testing.T) {
	c := Default()
	c.Startup = []string{"god true", ""}
	assertHasError(t, Validate(c), "startup[1]")
}

func TestValidateFollow(t *testing.T) {
	c := Default()
	c.Follow = []Follow{
		{Name: "empty"},
		{File: "/tmp/a.log", Unit: "a.service"},
		{Unit: "a.service", Restart: "always"},
		{Command: "./server", Restart: "sometimes"},
	}
	errs := Validate(c)
	assertHasError(t, errs, "follow[0]: one of file, unit or command is required")
	assertHasError(t, errs, "follow[1]: file, unit and command are mutually exclusive")
	assertHasError(t, errs, "follow[2]: dir, env and restart apply to command only")
	assertHasError(t, errs, `follow[3]: invalid restart "sometimes"`)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "devconsole.yaml")
	c := Default()
	c.Socket = "/tmp/dc.sock"
	c.Startup = []string{"help"}

	if err := Save(c, path); err != nil {
		t.Fatal(err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.FilePath != path {
		t.Errorf("file path: got %q", loaded.FilePath)
	}
	if loaded.FrameInterval != c.FrameInterval || loaded.Socket != c.Socket || loaded.Startup[0] != "help" {
		t.Errorf("round trip mismatch: %+v", loaded)
	}
}

func TestLoadOrDefaultMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")
	c, err := LoadOrDefault(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Version != 1 || c.FilePath != path {
		t.Errorf("unexpected default: %+v", c)
	}
}

func TestLoadOrDefaultBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("version: [\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadOrDefault(path); err == nil {
		t.Error("expected parse error")
	}
}

func assertHasError(t *testing.T, errs []error, substr string) {
	t.Helper()
	for _, e := range errs {
		if strings.Contains(e.Error(), substr) {
			return
		}
	}
	t.Errorf("expected error containing %q, got %v", substr, errs)
}
