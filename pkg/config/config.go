// Package config loads devconsole.yaml.
package config

import (
	"time"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "devconsole.yaml"

// Config represents a devconsole.yaml file.
type Config struct {
	Version         int      `yaml:"version"          json:"version"`
	Title           string   `yaml:"title"            json:"title"`
	FrameInterval   Duration `yaml:"frame_interval"   json:"frame_interval"`
	Socket          string   `yaml:"socket"           json:"socket"`
	LogLevel        string   `yaml:"log_level"        json:"log_level"`   // debug|info
	StackLevel      string   `yaml:"stack_level"      json:"stack_level"` // debug|info|warn|error
	Journal         bool     `yaml:"journal"          json:"journal"`
	KeyboardEpsilon float64  `yaml:"keyboard_epsilon" json:"keyboard_epsilon,omitempty"`
	Startup         []string `yaml:"startup"          json:"startup,omitempty"`
	Follow          []Follow `yaml:"follow"           json:"follow,omitempty"`

	// FilePath is where the config was loaded from. Not serialized.
	FilePath string `yaml:"-" json:"-"`
}

// Follow names an external log to show in the console: a file, a systemd
// unit's journal, or the output of a companion command the console starts.
type Follow struct {
	Name    string            `yaml:"name,omitempty"    json:"name,omitempty"`
	File    string            `yaml:"file,omitempty"    json:"file,omitempty"`
	Unit    string            `yaml:"unit,omitempty"    json:"unit,omitempty"`
	Command string            `yaml:"command,omitempty" json:"command,omitempty"`
	Dir     string            `yaml:"dir,omitempty"     json:"dir,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"     json:"env,omitempty"`
	Restart string            `yaml:"restart,omitempty" json:"restart,omitempty"` // always|on-failure|never
}

// Sources counts how many of file, unit and command are set.
func (f Follow) Sources() int {
	n := 0
	for _, s := range []string{f.File, f.Unit, f.Command} {
		if s != "" {
			n++
		}
	}
	return n
}

// Duration is a time.Duration written as a Go duration string in YAML.
type Duration struct {
	time.Duration
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Version:       1,
		Title:         "Developer Console",
		FrameInterval: Duration{16 * time.Millisecond},
		Socket:        "${XDG_RUNTIME_DIR}/devconsole.sock",
		LogLevel:      "info",
		StackLevel:    "error",
	}
}
