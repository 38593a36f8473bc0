package logsource

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
)

// Unit follows a systemd unit's journal through journalctl.
type Unit struct {
	name string
	unit string

	// Backlog is how many past lines to show before following.
	Backlog int

	command string
}

// NewUnit follows the journal of unit, labelling each line with name.
func NewUnit(name, unit string) *Unit {
	return &Unit{name: name, unit: unit, Backlog: 50, command: "journalctl"}
}

func (u *Unit) Name() string { return u.name }

func (u *Unit) args() []string {
	return []string{"-f", "-u", u.unit, "-o", "cat", "-n", strconv.Itoa(u.Backlog)}
}

// Run streams the unit's journal until ctx is done or journalctl exits.
func (u *Unit) Run(ctx context.Context, sink Sink) error {
	cmd := exec.CommandContext(ctx, u.command, u.args()...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%s pipe: %w", u.command, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s start: %w", u.command, err)
	}

	scanLines(stdout, func(l string) { emit(sink, u.name, l) })

	if err := cmd.Wait(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("%s -u %s: %w", u.command, u.unit, err)
	}
	return nil
}
