// Package command parses console input and invokes registered debug commands.
package command

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Func is the callable behind a command. args holds one converted value per
// declared parameter, in order.
type Func func(args []any)

// Descriptor describes one invocable command.
type Descriptor struct {
	Name   string
	Params []ParamType
	Usage  string
	Fn     Func
}

// Registry holds the commands known to a dispatcher. It is populated once at
// startup and read-only after Seal.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Descriptor
	sealed   bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Descriptor)}
}

// Register adds a command.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return errors.New("command name is required")
	}
	if d.Fn == nil {
		return fmt.Errorf("command %q: func is required", d.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return fmt.Errorf("command %q: %w", d.Name, ErrSealed)
	}
	if _, exists := r.commands[d.Name]; exists {
		return fmt.Errorf("command %q already registered", d.Name)
	}
	r.commands[d.Name] = d
	return nil
}

// RegisterFunc registers fn under name, deriving the parameter list from its
// signature. fn must be a func; return values are ignored.
func (r *Registry) RegisterFunc(name, usage string, fn any) error {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return fmt.Errorf("command %q: expected func, got %T", name, fn)
	}
	t := v.Type()
	if t.IsVariadic() {
		return fmt.Errorf("command %q: variadic funcs are not supported", name)
	}

	params := make([]ParamType, t.NumIn())
	for i := range params {
		params[i] = paramTypeOf(t.In(i))
	}

	call := func(args []any) {
		in := make([]reflect.Value, len(args))
		for i, a := range args {
			in[i] = reflect.ValueOf(a).Convert(t.In(i))
		}
		v.Call(in)
	}

	return r.Register(Descriptor{Name: name, Params: params, Usage: usage, Fn: call})
}

// MustRegisterFunc is RegisterFunc that panics on error, for startup tables.
func (r *Registry) MustRegisterFunc(name, usage string, fn any) {
	if err := r.RegisterFunc(name, usage, fn); err != nil {
		panic(err)
	}
}

// Seal makes the registry read-only.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Lookup finds a command by exact, case-sensitive name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.commands[name]
	return d, ok
}

// Names returns all command names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Signature renders a command as "name type type".
func (d Descriptor) Signature() string {
	s := d.Name
	for _, p := range d.Params {
		s += " <" + p.String() + ">"
	}
	return s
}
