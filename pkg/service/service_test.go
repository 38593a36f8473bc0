package service

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestUnitContents(t *testing.T) {
	got := UnitContents("/usr/local/bin/devconsoled", "/home/dev/arena/devconsole.yaml")

	for _, want := range []string{
		"ExecStart=/usr/local/bin/devconsoled --config /home/dev/arena/devconsole.yaml",
		"Type=simple",
		"Restart=on-failure",
		"[Install]",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("unit file missing %q", want)
		}
	}
}

func TestUnitContentsWithoutConfig(t *testing.T) {
	got := UnitContents("/usr/bin/devconsoled", "")
	if !strings.Contains(got, "ExecStart=/usr/bin/devconsoled\n") {
		t.Errorf("unexpected ExecStart:\n%s", got)
	}
}

func TestUnitPath(t *testing.T) {
	path, err := UnitPath()
	if err != nil {
		t.Fatalf("UnitPath() error: %v", err)
	}
	if !strings.HasSuffix(path, "systemd/user/devconsoled.service") {
		t.Errorf("UnitPath() = %q", path)
	}
}

func TestSocketState(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.sock")
	if got := socketState(missing); !strings.Contains(got, "socket: inactive") {
		t.Errorf("got %q", got)
	}

	present := filepath.Join(t.TempDir(), "console.sock")
	if err := os.WriteFile(present, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if got := socketState(present); !strings.Contains(got, "socket: active") {
		t.Errorf("got %q", got)
	}
}

func TestDescribeState(t *testing.T) {
	tests := []struct {
		active, sub, want string
	}{
		{"active", "running", "active"},
		{"active", "exited", "active (exited)"},
		{"failed", "failed", "failed"},
		{"inactive", "dead", "inactive"},
		{"", "", "unknown"},
	}
	for _, tt := range tests {
		if got := describeState(tt.active, tt.sub); got != tt.want {
			t.Errorf("describeState(%q, %q) = %q, want %q", tt.active, tt.sub, got, tt.want)
		}
	}
}
