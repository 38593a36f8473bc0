// Package debugcmds is a small sandbox world and the debug commands that poke it.
package debugcmds

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/modoterra/devconsole/pkg/command"
	"github.com/modoterra/devconsole/pkg/logbuf"
)

// World is the state the demo commands mutate.
type World struct {
	Speed    float64
	GodMode  bool
	Entities map[string]int
	Frame    uint64
}

// NewWorld returns a world at rest.
func NewWorld() *World {
	return &World{Speed: 1, Entities: make(map[string]int)}
}

// Step advances the world by one frame.
func (w *World) Step() { w.Frame++ }

// Register adds the demo commands to reg. Output goes through logger.
func Register(reg *command.Registry, w *World, logger *slog.Logger) error {
	cmds := []struct {
		name  string
		usage string
		fn    any
	}{
		{"setSpeed", "set the simulation speed multiplier", func(v float64) {
			w.Speed = v
			logger.Info(fmt.Sprintf("speed = %g", v))
		}},
		{"god", "toggle invulnerability", func(on bool) {
			w.GodMode = on
			logger.Info(fmt.Sprintf("god mode = %t", on))
		}},
		{"spawn", "spawn <count> entities of a kind", func(kind string, count int) {
			if count <= 0 {
				logger.Warn(fmt.Sprintf("spawn: count must be positive, got %d", count))
				return
			}
			w.Entities[kind] += count
			logger.Info(fmt.Sprintf("spawned %d %s (total %d)", count, kind, w.Entities[kind]))
		}},
		{"entities", "list spawned entities", func() {
			if len(w.Entities) == 0 {
				logger.Info("no entities")
				return
			}
			kinds := make([]string, 0, len(w.Entities))
			for k := range w.Entities {
				kinds = append(kinds, k)
			}
			sort.Strings(kinds)
			parts := make([]string, len(kinds))
			for i, k := range kinds {
				parts[i] = fmt.Sprintf("%s=%d", k, w.Entities[k])
			}
			logger.Info(strings.Join(parts, " "))
		}},
		{"status", "print world state", func() {
			logger.Info(fmt.Sprintf("frame=%d speed=%g god=%t", w.Frame, w.Speed, w.GodMode))
		}},
		{"echo", "print a word", func(s string) { logger.Info(s) }},
		{"warn", "log a warning", func(s string) { logger.Warn(s) }},
		{"fail", "log an error with a stack trace", func(s string) { logger.Error(s) }},
		{"assert", "log an assertion failure when false", func(ok bool) {
			if !ok {
				logger.Log(context.Background(), logbuf.LevelAssert, "assertion failed")
			}
		}},
		{"panic", "panic inside a command", func() { panic("debug panic requested") }},
	}

	for _, c := range cmds {
		if err := reg.RegisterFunc(c.name, c.usage, c.fn); err != nil {
			return err
		}
	}
	return reg.RegisterFunc("help", "list commands", func() { help(reg, logger) })
}

func help(reg *command.Registry, logger *slog.Logger) {
	var b strings.Builder
	b.WriteString("commands:")
	for _, name := range reg.Names() {
		d, _ := reg.Lookup(name)
		fmt.Fprintf(&b, "\n  %-28s %s", d.Signature(), d.Usage)
	}
	logger.Info(b.String())
}
