package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads and parses a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, err
	}
	c.FilePath = path
	return c, nil
}

// LoadOrDefault loads path, falling back to Default when the file is missing.
func LoadOrDefault(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			d := Default()
			d.Socket = expand(d.Socket)
			d.FilePath = path
			return d, nil
		}
		return nil, err
	}
	return c, nil
}

// Parse decodes YAML on top of the defaults and expands environment
// variables in the socket path.
func Parse(data []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.Socket = expand(c.Socket)
	return c, nil
}

// Save writes the config as YAML.
func Save(c *Config, path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// SlogLevel converts a level name to a slog.Level.
func SlogLevel(name string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("invalid level %q", name)
	}
	return l, nil
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q", node.Line, s)
	}
	d.Duration = v
	return nil
}

// expand resolves ${VAR} references. An unset XDG_RUNTIME_DIR falls back to the temp dir.
func expand(s string) string {
	return os.Expand(s, func(key string) string {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			return v
		}
		if key == "XDG_RUNTIME_DIR" {
			return strings.TrimRight(os.TempDir(), "/")
		}
		return ""
	})
}
