package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/modoterra/devconsole/internal/buildinfo"
	"github.com/modoterra/devconsole/pkg/config"
	"github.com/modoterra/devconsole/pkg/console"
	"github.com/modoterra/devconsole/pkg/debugcmds"
	"github.com/modoterra/devconsole/pkg/host"
	"github.com/modoterra/devconsole/pkg/logbuf"
	"github.com/modoterra/devconsole/pkg/logsource"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Println(buildinfo.String("devconsoled"))
		return
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	configPath := config.DefaultPath
	if len(os.Args) > 2 && os.Args[1] == "--config" {
		configPath = os.Args[2]
	}

	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		logger.Error("load config", "path", configPath, "err", err)
		os.Exit(1)
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		for _, e := range errs {
			logger.Error("config validation", "path", configPath, "err", e)
		}
		os.Exit(1)
	}

	// No display, so copy and paste stay inside the process.
	opts, err := host.FromConfig(cfg, &console.MemoryClipboard{})
	if err != nil {
		logger.Error("host options", "err", err)
		os.Exit(1)
	}
	h := host.New(opts)
	defer h.Shutdown()

	world := debugcmds.NewWorld()
	if err := debugcmds.Register(h.Registry, world, h.Logger); err != nil {
		logger.Error("register commands", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mirror(ctx, h.Buffer, logger)
	if cfg.Journal {
		if sink := logbuf.NewJournalSink(h.Buffer, "devconsoled", logger); sink != nil {
			go sink.Run(ctx)
		} else {
			logger.Warn("journald not available, journal mirror disabled")
		}
	}

	if err := logsource.Start(ctx, h.Buffer, cfg.Follow, logger); err != nil {
		logger.Error("follow", "err", err)
		os.Exit(1)
	}

	h.Seal(cfg.Startup)

	loop := host.NewFrameLoop(h, cfg.FrameInterval.Duration)
	loop.OnFrame(world.Step)
	go loop.Run(ctx)

	logger.Info("starting devconsoled", "version", buildinfo.Version, "socket", cfg.Socket, "session", h.SessionID())
	if err := h.Serve(ctx); err != nil {
		logger.Error("serve", "err", err)
		os.Exit(1)
	}
	logger.Info("shutting down")
}

// mirror copies console entries to the process log. It subscribes before
// returning so no entry appended afterwards is missed.
func mirror(ctx context.Context, buf *logbuf.Buffer, logger *slog.Logger) {
	ch := buf.Subscribe()
	go func() {
		defer buf.Unsubscribe(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case e := <-ch:
				logger.Log(ctx, logbuf.LevelForSeverity(e.Severity), e.Message, "console_id", e.ID)
			}
		}
	}()
}
