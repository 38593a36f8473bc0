// Package service installs devconsoled as a systemd user service.
package service

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/coreos/go-systemd/v22/dbus"
)

// UnitName is the systemd user unit that runs the headless console host.
const UnitName = "devconsoled.service"

// UnitContents returns the unit file for the given binary and config paths.
func UnitContents(binaryPath, configPath string) string {
	execStart := binaryPath
	if configPath != "" {
		execStart += " --config " + configPath
	}
	return fmt.Sprintf(`[Unit]
Description=devconsoled headless developer console host
Documentation=https://github.com/modoterra/devconsole

[Service]
Type=simple
ExecStart=%s
Restart=on-failure
RestartSec=5

[Install]
WantedBy=default.target
`, execStart)
}

// UnitPath returns the path to the systemd user unit file.
func UnitPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine user config directory: %w", err)
	}
	return filepath.Join(configDir, "systemd", "user", UnitName), nil
}

// Install writes the unit file, reloads the user manager, and enables and
// starts the service. configPath is made absolute before it is written.
func Install(ctx context.Context, configPath string) error {
	binaryPath, err := exec.LookPath("devconsoled")
	if err != nil {
		return fmt.Errorf("devconsoled not found in PATH: %w", err)
	}
	binaryPath, err = filepath.Abs(binaryPath)
	if err != nil {
		return fmt.Errorf("cannot resolve devconsoled path: %w", err)
	}
	if configPath != "" {
		if configPath, err = filepath.Abs(configPath); err != nil {
			return fmt.Errorf("cannot resolve config path: %w", err)
		}
	}

	unitPath, err := UnitPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(unitPath), 0o755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}
	if err := os.WriteFile(unitPath, []byte(UnitContents(binaryPath, configPath)), 0o644); err != nil {
		return fmt.Errorf("cannot write unit file: %w", err)
	}

	conn, err := dbus.NewUserConnectionContext(ctx)
	if err != nil {
		return fmt.Errorf("dbus connect: %w", err)
	}
	defer conn.Close()

	if err := conn.ReloadContext(ctx); err != nil {
		return fmt.Errorf("daemon-reload: %w", err)
	}
	if _, _, err := conn.EnableUnitFilesContext(ctx, []string{UnitName}, false, true); err != nil {
		return fmt.Errorf("enable %s: %w", UnitName, err)
	}
	return waitJob(ctx, "start", func(ch chan<- string) (int, error) {
		return conn.StartUnitContext(ctx, UnitName, "replace", ch)
	})
}

// Uninstall stops and disables the service, removes the unit file, and
// reloads the user manager.
func Uninstall(ctx context.Context) error {
	conn, err := dbus.NewUserConnectionContext(ctx)
	if err != nil {
		return fmt.Errorf("dbus connect: %w", err)
	}
	defer conn.Close()

	// Not running or not enabled is fine here.
	_ = waitJob(ctx, "stop", func(ch chan<- string) (int, error) {
		return conn.StopUnitContext(ctx, UnitName, "replace", ch)
	})
	_, _ = conn.DisableUnitFilesContext(ctx, []string{UnitName}, false)

	unitPath, err := UnitPath()
	if err != nil {
		return err
	}
	if err := os.Remove(unitPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot remove unit file: %w", err)
	}
	return conn.ReloadContext(ctx)
}

func waitJob(ctx context.Context, action string, submit func(chan<- string) (int, error)) error {
	ch := make(chan string, 1)
	if _, err := submit(ch); err != nil {
		return fmt.Errorf("%s %s: %w", action, UnitName, err)
	}
	select {
	case result := <-ch:
		if result != "done" {
			return fmt.Errorf("%s %s: job result %q", action, UnitName, result)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status returns a human-readable summary of the socket and the service.
func Status(ctx context.Context, socketPath string) string {
	lines := []string{socketState(socketPath)}

	unitPath, err := UnitPath()
	if err != nil {
		return lines[0]
	}
	if _, err := os.Stat(unitPath); err != nil {
		return strings.Join(append(lines, "systemd user service: not installed"), "\n")
	}

	state := "unknown"
	if conn, err := dbus.NewUserConnectionContext(ctx); err == nil {
		defer conn.Close()
		if units, err := conn.ListUnitsByNamesContext(ctx, []string{UnitName}); err == nil && len(units) == 1 {
			state = describeState(units[0].ActiveState, units[0].SubState)
		}
	}
	return strings.Join(append(lines, "systemd user service: "+state), "\n")
}

func socketState(socketPath string) string {
	if _, err := os.Stat(socketPath); err == nil {
		return "socket: active (" + socketPath + ")"
	}
	return "socket: inactive (" + socketPath + ")"
}

func describeState(active, sub string) string {
	switch {
	case active == "active" && sub != "" && sub != "running":
		return active + " (" + sub + ")"
	case active == "":
		return "unknown"
	default:
		return active
	}
}
