package host

import (
	"github.com/modoterra/devconsole/pkg/config"
	"github.com/modoterra/devconsole/pkg/console"
)

// FromConfig builds host options from a validated config. clip may be nil to
// use the system clipboard.
func FromConfig(cfg *config.Config, clip console.Clipboard) (Options, error) {
	logLevel, err := config.SlogLevel(cfg.LogLevel)
	if err != nil {
		return Options{}, err
	}
	stackLevel, err := config.SlogLevel(cfg.StackLevel)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Title:           cfg.Title,
		SocketPath:      cfg.Socket,
		LogLevel:        logLevel,
		StackLevel:      stackLevel,
		Clipboard:       clip,
		KeyboardEpsilon: cfg.KeyboardEpsilon,
	}, nil
}
