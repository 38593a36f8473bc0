// Package logsource follows logs written outside the process, such as a
// dedicated server's log file or a systemd unit's journal, into a console
// buffer.
package logsource

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/modoterra/devconsole/pkg/config"
	"github.com/modoterra/devconsole/pkg/core"
)

// Sink receives followed lines. *logbuf.Buffer implements it.
type Sink interface {
	Append(sev core.Severity, message, stackTrace string) core.LogEntry
}

// Source produces log lines until ctx is cancelled.
type Source interface {
	Name() string
	Run(ctx context.Context, sink Sink) error
}

// FromConfig builds the source described by a follow entry.
func FromConfig(f config.Follow) (Source, error) {
	if f.Sources() > 1 {
		return nil, fmt.Errorf("follow %q: file, unit and command are mutually exclusive", f.Name)
	}
	switch {
	case f.File != "":
		name := f.Name
		if name == "" {
			name = filepath.Base(f.File)
		}
		return NewFile(name, f.File), nil
	case f.Unit != "":
		name := f.Name
		if name == "" {
			name = strings.TrimSuffix(f.Unit, ".service")
		}
		return NewUnit(name, f.Unit), nil
	case f.Command != "":
		parts := strings.Fields(f.Command)
		if len(parts) == 0 {
			return nil, fmt.Errorf("follow %q: empty command", f.Name)
		}
		name := f.Name
		if name == "" {
			name = filepath.Base(parts[0])
		}
		restart, err := ParseRestartPolicy(f.Restart)
		if err != nil {
			return nil, fmt.Errorf("follow %q: %w", name, err)
		}
		p := NewProcess(name, parts[0], parts[1:]...)
		p.Dir = f.Dir
		p.Env = f.Env
		p.Restart = restart
		return p, nil
	default:
		return nil, fmt.Errorf("follow %q: one of file, unit or command is required", f.Name)
	}
}

// Start runs every configured source in its own goroutine. Sources that
// fail are reported through logger and do not stop the others.
func Start(ctx context.Context, sink Sink, follows []config.Follow, logger *slog.Logger) error {
	sources := make([]Source, 0, len(follows))
	for _, f := range follows {
		src, err := FromConfig(f)
		if err != nil {
			return err
		}
		sources = append(sources, src)
	}

	for _, src := range sources {
		go func(src Source) {
			if err := src.Run(ctx, sink); err != nil && ctx.Err() == nil {
				logger.Warn("log source stopped", "source", src.Name(), "err", err)
			}
		}(src)
	}
	return nil
}

// Classify guesses a severity from the level words common in server logs.
func Classify(line string) core.Severity {
	l := strings.ToLower(line)
	switch {
	case strings.Contains(l, "panic"), strings.Contains(l, "fatal"):
		return core.SeverityException
	case strings.Contains(l, "error"), strings.Contains(l, "level=err"):
		return core.SeverityError
	case strings.Contains(l, "warn"):
		return core.SeverityWarning
	default:
		return core.SeverityLog
	}
}

func emit(sink Sink, name, line string) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return
	}
	sink.Append(Classify(line), "["+name+"] "+line, "")
}
