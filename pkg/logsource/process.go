package logsource

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/modoterra/devconsole/pkg/core"
)

// RestartPolicy decides whether an exited process is started again.
type RestartPolicy string

const (
	RestartAlways    RestartPolicy = "always"
	RestartOnFailure RestartPolicy = "on-failure"
	RestartNever     RestartPolicy = "never"
)

// ParseRestartPolicy accepts the config spellings; empty means on-failure.
func ParseRestartPolicy(s string) (RestartPolicy, error) {
	switch p := RestartPolicy(s); p {
	case "":
		return RestartOnFailure, nil
	case RestartAlways, RestartOnFailure, RestartNever:
		return p, nil
	}
	return "", fmt.Errorf("unknown restart policy %q", s)
}

// stopGrace is how long a process gets between SIGTERM and SIGKILL.
const stopGrace = 5 * time.Second

// Process runs a companion command, such as a local dedicated server, and
// shows its output in the console.
type Process struct {
	name    string
	command string
	args    []string

	Dir     string
	Env     map[string]string
	Restart RestartPolicy

	// backoff is replaceable so tests do not wait seconds between restarts.
	backoff func(failures int) time.Duration
}

// NewProcess runs command with args, labelling output lines with name.
func NewProcess(name, command string, args ...string) *Process {
	return &Process{
		name:    name,
		command: command,
		args:    args,
		Restart: RestartOnFailure,
		backoff: backoff,
	}
}

func (p *Process) Name() string { return p.name }

// Run starts the process and restarts it per the policy until ctx is done.
// Cancelling ctx terminates the whole process group.
func (p *Process) Run(ctx context.Context, sink Sink) error {
	failures := 0
	for {
		code, err := p.runOnce(ctx, sink)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}

		if code != 0 {
			failures++
		}
		restart := p.Restart == RestartAlways || (p.Restart == RestartOnFailure && code != 0)
		if !restart {
			sink.Append(severityForExit(code), fmt.Sprintf("[%s] exited with code %d", p.name, code), "")
			return nil
		}

		delay := p.backoff(max(failures, 1))
		sink.Append(core.SeverityWarning, fmt.Sprintf("[%s] exited with code %d, restarting in %s", p.name, code, delay), "")
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil
		}
	}
}

func (p *Process) runOnce(ctx context.Context, sink Sink) (int, error) {
	cmd := exec.Command(p.command, p.args...)
	cmd.Dir = p.Dir
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Env = os.Environ()
	for k, v := range p.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 0, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return 0, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start %s: %w", p.command, err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); scanLines(stdout, func(l string) { emit(sink, p.name, l) }) }()
	go func() { defer wg.Done(); scanLines(stderr, func(l string) { emit(sink, p.name, l) }) }()

	exited := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			terminate(cmd.Process.Pid, exited)
		case <-exited:
		}
	}()

	// Pipes must be drained before Wait closes them.
	wg.Wait()
	err = cmd.Wait()
	close(exited)

	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return 0, fmt.Errorf("wait %s: %w", p.command, err)
	}
	return cmd.ProcessState.ExitCode(), nil
}

// terminate sends SIGTERM to the process group, then SIGKILL if it is still
// running after stopGrace.
func terminate(pid int, exited <-chan struct{}) {
	_ = syscall.Kill(-pid, syscall.SIGTERM)
	select {
	case <-exited:
	case <-time.After(stopGrace):
		_ = syscall.Kill(-pid, syscall.SIGKILL)
	}
}

func scanLines(r io.Reader, fn func(string)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		fn(scanner.Text())
	}
}

func severityForExit(code int) core.Severity {
	if code == 0 {
		return core.SeverityLog
	}
	return core.SeverityError
}

// backoff returns exponential backoff delay: 1s, 2s, 4s, 8s, 16s, 30s max.
func backoff(failures int) time.Duration {
	d := time.Duration(1<<uint(min(failures-1, 5))) * time.Second
	return min(d, 30*time.Second)
}
