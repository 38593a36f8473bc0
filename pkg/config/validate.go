package config

import (
	"fmt"
	"log/slog"
	"time"
)

// Validate checks the config for structural correctness.
func Validate(c *Config) []error {
	var errs []error

	if c.Version != 1 {
		errs = append(errs, fmt.Errorf("version must be 1, got %d", c.Version))
	}

	if c.FrameInterval.Duration <= 0 {
		errs = append(errs, fmt.Errorf("frame_interval must be positive"))
	} else if c.FrameInterval.Duration > time.Second {
		errs = append(errs, fmt.Errorf("frame_interval must be at most 1s, got %s", c.FrameInterval))
	}

	if c.Socket == "" {
		errs = append(errs, fmt.Errorf("socket is required"))
	}

	if l, err := SlogLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	} else if l > slog.LevelInfo {
		errs = append(errs, fmt.Errorf("log_level: %q would hide console output, use debug or info", c.LogLevel))
	}
	if _, err := SlogLevel(c.StackLevel); err != nil {
		errs = append(errs, fmt.Errorf("stack_level: %w", err))
	}

	if c.KeyboardEpsilon < 0 {
		errs = append(errs, fmt.Errorf("keyboard_epsilon must not be negative"))
	}

	for i, line := range c.Startup {
		if len(line) == 0 {
			errs = append(errs, fmt.Errorf("startup[%d]: empty command", i))
		}
	}

	for i, f := range c.Follow {
		switch f.Sources() {
		case 0:
			errs = append(errs, fmt.Errorf("follow[%d]: one of file, unit or command is required", i))
		case 1:
		default:
			errs = append(errs, fmt.Errorf("follow[%d]: file, unit and command are mutually exclusive", i))
		}
		if f.Command == "" && (f.Dir != "" || len(f.Env) > 0 || f.Restart != "") {
			errs = append(errs, fmt.Errorf("follow[%d]: dir, env and restart apply to command only", i))
		}
		switch f.Restart {
		case "", "always", "on-failure", "never":
		default:
			errs = append(errs, fmt.Errorf("follow[%d]: invalid restart %q", i, f.Restart))
		}
	}

	return errs
}
