package logbuf

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/modoterra/devconsole/pkg/core"
)

// Extra levels above slog.LevelError for the engine-style severities.
const (
	LevelException = slog.Level(12)
	LevelAssert    = slog.Level(16)
)

// StackKey is the attribute whose value becomes the entry's stack trace.
const StackKey = "stack"

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	// Level is the minimum level recorded. Defaults to slog.LevelInfo. It can
	// only lower the threshold: Info and above are always recorded, since echoed
	// input and command output are console lines, not diagnostics.
	Level slog.Leveler

	// StackLevel is the level at and above which a call stack is captured
	// when the record carries no stack attribute. Defaults to slog.LevelError.
	StackLevel slog.Leveler
}

// Handler is a slog.Handler that appends every record to a Buffer.
type Handler struct {
	buf    *Buffer
	opts   HandlerOptions
	attrs  []slog.Attr
	groups []string
}

// NewHandler returns a handler feeding buf.
func NewHandler(buf *Buffer, opts *HandlerOptions) *Handler {
	h := &Handler{buf: buf}
	if opts != nil {
		h.opts = *opts
	}
	if h.opts.Level == nil {
		h.opts.Level = slog.LevelInfo
	}
	if h.opts.StackLevel == nil {
		h.opts.StackLevel = slog.LevelError
	}
	return h
}

// SeverityForLevel maps a slog level onto a console severity.
func SeverityForLevel(l slog.Level) core.Severity {
	switch {
	case l >= LevelAssert:
		return core.SeverityAssert
	case l >= LevelException:
		return core.SeverityException
	case l >= slog.LevelError:
		return core.SeverityError
	case l >= slog.LevelWarn:
		return core.SeverityWarning
	default:
		return core.SeverityLog
	}
}

// LevelForSeverity is the inverse of SeverityForLevel. Log maps to Info.
func LevelForSeverity(s core.Severity) slog.Level {
	switch s {
	case core.SeverityWarning:
		return slog.LevelWarn
	case core.SeverityError:
		return slog.LevelError
	case core.SeverityException:
		return LevelException
	case core.SeverityAssert:
		return LevelAssert
	default:
		return slog.LevelInfo
	}
}

func (h *Handler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= min(h.opts.Level.Level(), slog.LevelInfo)
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var b strings.Builder
	b.WriteString(r.Message)

	stack := ""
	for _, a := range h.attrs {
		if a.Key == StackKey {
			stack = a.Value.String()
			continue
		}
		appendAttr(&b, nil, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == StackKey && len(h.groups) == 0 {
			stack = a.Value.String()
			return true
		}
		appendAttr(&b, h.groups, a)
		return true
	})

	if stack == "" && r.Level >= h.opts.StackLevel.Level() && r.PC != 0 {
		stack = callStack(r.PC)
	}

	h.buf.Append(SeverityForLevel(r.Level), b.String(), stack)
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	h2 := *h
	h2.attrs = append(append([]slog.Attr{}, h.attrs...), qualify(h.groups, attrs)...)
	return &h2
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	h2.groups = append(append([]string{}, h.groups...), name)
	return &h2
}

// qualify bakes the current groups into pre-bound attribute keys.
func qualify(groups []string, attrs []slog.Attr) []slog.Attr {
	if len(groups) == 0 {
		return attrs
	}
	prefix := strings.Join(groups, ".") + "."
	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: prefix + a.Key, Value: a.Value}
	}
	return out
}

func appendAttr(b *strings.Builder, groups []string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		sub := groups
		if a.Key != "" {
			sub = append(append([]string{}, groups...), a.Key)
		}
		for _, ga := range a.Value.Group() {
			appendAttr(b, sub, ga)
		}
		return
	}
	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}
	val := a.Value.String()
	if strings.ContainsAny(val, " \t\n\"=") {
		val = fmt.Sprintf("%q", val)
	}
	fmt.Fprintf(b, " %s=%s", key, val)
}

func callStack(pc uintptr) string {
	origin := runtime.FuncForPC(pc)

	var pcs [64]uintptr
	n := runtime.Callers(3, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])

	// Drop the slog frames above the logging call site.
	var b strings.Builder
	started := origin == nil
	for {
		f, more := frames.Next()
		if !started && f.Function == origin.Name() {
			started = true
		}
		if started {
			fmt.Fprintf(&b, "%s\n\t%s:%d\n", f.Function, f.File, f.Line)
		}
		if !more {
			break
		}
	}
	if b.Len() == 0 && origin != nil {
		file, line := origin.FileLine(pc)
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", origin.Name(), file, line)
	}
	return b.String()
}
