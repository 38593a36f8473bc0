// Package host wires the log buffer, command registry, dispatcher and console
// together and exposes them on a Unix socket.
package host

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/modoterra/devconsole/pkg/command"
	"github.com/modoterra/devconsole/pkg/console"
	"github.com/modoterra/devconsole/pkg/logbuf"
	"github.com/modoterra/devconsole/pkg/transport/uds"
)

// executeTimeout bounds how long a remote request waits for the next frame.
const executeTimeout = 5 * time.Second

// Options configures a Host.
type Options struct {
	Title           string
	SocketPath      string
	LogLevel        slog.Leveler
	StackLevel      slog.Leveler
	Clipboard       console.Clipboard
	KeyboardEpsilon float64
}

// Host owns one console session.
type Host struct {
	Buffer     *logbuf.Buffer
	Registry   *command.Registry
	Dispatcher *command.Dispatcher
	Console    *console.Console
	Logger     *slog.Logger

	title     string
	sessionID string
	server    *uds.Server
}

// New creates a host with an empty registry. Register commands on
// h.Registry, then call Seal before the first frame.
func New(opts Options) *Host {
	buf := logbuf.New()
	logger := slog.New(logbuf.NewHandler(buf, &logbuf.HandlerOptions{
		Level:      opts.LogLevel,
		StackLevel: opts.StackLevel,
	}))
	reg := command.NewRegistry()
	disp := command.NewDispatcher(reg, logger)

	h := &Host{
		Buffer:     buf,
		Registry:   reg,
		Dispatcher: disp,
		Console: console.New(buf, disp, console.Options{
			Clipboard:       opts.Clipboard,
			Logger:          logger,
			KeyboardEpsilon: opts.KeyboardEpsilon,
		}),
		Logger:    logger,
		title:     opts.Title,
		sessionID: uuid.NewString(),
	}
	if opts.SocketPath != "" {
		h.server = uds.NewServer(opts.SocketPath, logger)
		h.registerHandlers()
	}
	return h
}

// SessionID identifies this console session to remote clients.
func (h *Host) SessionID() string { return h.sessionID }

// Title is the console window title.
func (h *Host) Title() string { return h.title }

// Seal freezes the registry and runs the startup commands in order.
func (h *Host) Seal(startup []string) {
	h.Registry.Seal()
	for _, line := range startup {
		if err := h.Dispatcher.Execute(line); err != nil {
			h.Logger.Debug("startup command failed", "command", line, "err", err)
		}
	}
}

// Serve accepts remote clients and streams log entries to them until ctx is
// cancelled. It returns immediately when the host has no socket.
func (h *Host) Serve(ctx context.Context) error {
	if h.server == nil {
		return nil
	}
	go h.pumpEvents(ctx)
	return h.server.Start(ctx)
}

// Shutdown closes the socket and all remote clients.
func (h *Host) Shutdown() {
	if h.server != nil {
		h.server.Shutdown()
	}
}

func (h *Host) registerHandlers() {
	h.server.Handle(uds.MethodPing, h.handlePing)
	h.server.Handle(uds.MethodExecute, h.handleExecute)
	h.server.Handle(uds.MethodListLogs, h.handleListLogs)
}

func (h *Host) handlePing(context.Context, uds.Message) (any, error) {
	return uds.PingResponse{Pong: true, SessionID: h.sessionID, Title: h.title}, nil
}

func (h *Host) handleExecute(ctx context.Context, msg uds.Message) (any, error) {
	var req uds.ExecuteRequest
	if err := msg.UnmarshalData(&req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, executeTimeout)
	defer cancel()

	// Commands touch game state, so they run on the frame goroutine.
	var execErr error
	if err := h.Console.Do(ctx, func(*console.Console) {
		execErr = h.Dispatcher.Execute(req.Text)
	}); err != nil {
		return nil, fmt.Errorf("console did not run the command: %w", err)
	}
	if execErr != nil {
		return uds.ExecuteResponse{OK: false, Error: execErr.Error()}, nil
	}
	return uds.ExecuteResponse{OK: true}, nil
}

func (h *Host) handleListLogs(_ context.Context, msg uds.Message) (any, error) {
	var req uds.ListLogsRequest
	if len(msg.Data) > 0 {
		if err := msg.UnmarshalData(&req); err != nil {
			return nil, fmt.Errorf("invalid request: %w", err)
		}
	}
	return uds.ListLogsResponse{Entries: h.Buffer.Since(req.AfterID)}, nil
}

func (h *Host) pumpEvents(ctx context.Context) {
	ch := h.Buffer.Subscribe()
	defer h.Buffer.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-ch:
			evt, err := uds.NewEvent(uds.EventLogEntry, e)
			if err != nil {
				continue
			}
			h.server.Broadcast(evt)
		}
	}
}
