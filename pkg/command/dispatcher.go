package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/modoterra/devconsole/pkg/core"
	"github.com/modoterra/devconsole/pkg/logbuf"
)

var (
	ErrNotFound        = errors.New("command not found")
	ErrArity           = errors.New("wrong number of arguments")
	ErrUnsupportedType = errors.New("unsupported parameter type")
	ErrParse           = errors.New("parse error")
	ErrPanic           = errors.New("command panicked")
	ErrSealed          = errors.New("registry is sealed")
)

// Dispatcher turns a line of console input into a command invocation.
// Everything it reports, including the echoed input, goes through logger so
// it lands in the same log stream the console displays.
type Dispatcher struct {
	registry *Registry
	logger   *slog.Logger
}

// NewDispatcher creates a dispatcher over a populated registry.
func NewDispatcher(registry *Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{registry: registry, logger: logger}
}

// Registry returns the registry the dispatcher reads from.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Execute runs one line of input. Blank input is ignored. Failures are logged
// and returned; the command is never partially invoked.
func (d *Dispatcher) Execute(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	d.logger.Info(core.EchoMarker + text)

	tokens := strings.Fields(text)
	name, args := tokens[0], tokens[1:]

	cmd, ok := d.registry.Lookup(name)
	if !ok {
		d.logger.Info(name + " is not found")
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	if len(cmd.Params) != len(args) {
		d.logger.Info(fmt.Sprintf("%s requires %d %s", name, len(cmd.Params), plural(len(cmd.Params), "argument")))
		return fmt.Errorf("%w: %s takes %d, got %d", ErrArity, name, len(cmd.Params), len(args))
	}

	values := make([]any, len(args))
	for i, p := range cmd.Params {
		if !p.Supported() {
			d.logger.Error("parse error: " + p.String())
			return fmt.Errorf("%s: argument %d: %w: %s", name, i+1, ErrUnsupportedType, p)
		}
		v, err := p.Parse(args[i])
		if err != nil {
			d.logger.Error(err.Error())
			return fmt.Errorf("%s: argument %d: %w", name, i+1, err)
		}
		values[i] = v
	}

	return d.invoke(cmd, values)
}

func (d *Dispatcher) invoke(cmd Descriptor, values []any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Log(context.Background(), logbuf.LevelException, fmt.Sprintf("%s: %v", cmd.Name, r), logbuf.StackKey, string(debug.Stack()))
			err = fmt.Errorf("%w: %s: %v", ErrPanic, cmd.Name, r)
		}
	}()
	cmd.Fn(values)
	return nil
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
