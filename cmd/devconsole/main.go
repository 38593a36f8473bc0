package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/modoterra/devconsole/internal/buildinfo"
	"github.com/modoterra/devconsole/pkg/config"
	"github.com/modoterra/devconsole/pkg/core"
	"github.com/modoterra/devconsole/pkg/debugcmds"
	"github.com/modoterra/devconsole/pkg/host"
	"github.com/modoterra/devconsole/pkg/logbuf"
	"github.com/modoterra/devconsole/pkg/logsource"
	"github.com/modoterra/devconsole/pkg/service"
	"github.com/modoterra/devconsole/pkg/transport/uds"
	tuimodel "github.com/modoterra/devconsole/pkg/tui/model"
)

var (
	configPath string
	socketPath string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "devconsole",
	Short: "In-game developer console",
	Long:  "devconsole runs a sandbox game loop with a developer console overlay, and attaches to running consoles over their socket.",
	RunE:  runTUI,

	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to devconsole.yaml")
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "console socket path (overrides config)")

	rootCmd.AddCommand(attachCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serviceCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}
	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", cfg.FilePath, errors.Join(errs...))
	}
	if socketPath != "" {
		cfg.Socket = socketPath
	}
	return cfg, nil
}

// --- Root: TUI ---

func runTUI(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	opts, err := host.FromConfig(cfg, nil)
	if err != nil {
		return err
	}

	h := host.New(opts)
	world := debugcmds.NewWorld()
	if err := debugcmds.Register(h.Registry, world, h.Logger); err != nil {
		return err
	}
	h.Seal(cfg.Startup)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Journal {
		if sink := logbuf.NewJournalSink(h.Buffer, "devconsole", h.Logger); sink != nil {
			go sink.Run(ctx)
		}
	}

	if err := logsource.Start(ctx, h.Buffer, cfg.Follow, h.Logger); err != nil {
		return err
	}

	go func() {
		if err := h.Serve(ctx); err != nil {
			h.Logger.Warn("remote access disabled", "socket", cfg.Socket, "err", err)
		}
	}()
	defer h.Shutdown()

	h.Logger.Info(fmt.Sprintf("%s ready, type help", cfg.Title))

	app := tuimodel.New(h.Console, tuimodel.Options{
		Title:         cfg.Title,
		FrameInterval: cfg.FrameInterval.Duration,
		OnFrame:       world.Step,
	})
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err = p.Run()
	return err
}

func dialConsole() (*uds.Client, error) {
	path := socketPath
	if path == "" {
		cfg, err := config.LoadOrDefault(configPath)
		if err != nil {
			return nil, err
		}
		path = cfg.Socket
	}
	client, err := uds.Dial(path)
	if err != nil {
		return nil, fmt.Errorf("cannot connect to console at %s: %w", path, err)
	}
	return client, nil
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

func printEntry(w io.Writer, e core.LogEntry) {
	fmt.Fprintf(w, "%s %-9s %s\n", e.Time.Format("15:04:05"), e.Severity, e.Message)
	if e.StackTrace == "" {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(e.StackTrace, "\n"), "\n") {
		fmt.Fprintf(w, "    %s\n", line)
	}
}

// --- Ping ---

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check if a console is listening",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := dialConsole()
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := requestContext()
		defer cancel()

		pong, err := client.Ping(ctx)
		if err != nil {
			return err
		}
		if pong.Pong {
			fmt.Fprintf(cmd.OutOrStdout(), "pong ✓ %s (session %s)\n", pong.Title, pong.SessionID)
		}
		return nil
	},
}

// --- Exec ---

var execCmd = &cobra.Command{
	Use:   "exec <command> [args...]",
	Short: "Run one console command and print the log entries it produced",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dialConsole()
		if err != nil {
			return err
		}
		defer client.Close()

		ctx, cancel := requestContext()
		defer cancel()

		before, err := client.ListLogs(ctx, 0)
		if err != nil {
			return err
		}
		lastID := 0
		if len(before) > 0 {
			lastID = before[len(before)-1].ID
		}

		resp, err := client.Execute(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}

		produced, err := client.ListLogs(ctx, lastID)
		if err != nil {
			return err
		}
		for _, e := range produced {
			if e.IsEcho() {
				continue
			}
			printEntry(cmd.OutOrStdout(), e)
		}

		if !resp.OK {
			return errors.New(resp.Error)
		}
		return nil
	},
}

// --- Attach ---

var attachBacklog bool

var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "Stream a console's log and send commands typed on stdin",
	RunE: func(cmd *cobra.Command, _ []string) error {
		client, err := dialConsole()
		if err != nil {
			return err
		}
		defer client.Close()

		out := cmd.OutOrStdout()
		var mu sync.Mutex
		lastID := 0
		show := func(e core.LogEntry) {
			mu.Lock()
			defer mu.Unlock()
			if e.ID <= lastID {
				return
			}
			lastID = e.ID
			printEntry(out, e)
		}
		client.OnLogEntry(show)

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		if attachBacklog {
			rctx, rcancel := requestContext()
			entries, err := client.ListLogs(rctx, 0)
			rcancel()
			if err != nil {
				return err
			}
			for _, e := range entries {
				show(e)
			}
		}

		lines := make(chan string)
		go func() {
			defer close(lines)
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				lines <- scanner.Text()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-client.Done():
				return errors.New("console closed the connection")
			case line, ok := <-lines:
				if !ok {
					return nil
				}
				if strings.TrimSpace(line) == "" {
					continue
				}
				rctx, rcancel := requestContext()
				_, err := client.Execute(rctx, line)
				rcancel()
				if err != nil {
					return err
				}
			}
		}
	},
}

func init() {
	attachCmd.Flags().BoolVar(&attachBacklog, "backlog", true, "print existing entries before streaming")
}

// --- Version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String("devconsole"))
	},
}

// --- Config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage devconsole.yaml",
}

var configInitForce bool

var configInitCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write a default devconsole.yaml",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if len(args) > 0 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		cfg := config.Default()
		cfg.Startup = []string{"status"}
		if err := config.Save(cfg, path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Generated %s\n", path)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a devconsole.yaml",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath
		if len(args) > 0 {
			path = args[0]
		}

		cfg, err := config.Load(path)
		if err != nil {
			return err
		}

		errs := config.Validate(cfg)
		if len(errs) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", path)
			return nil
		}

		w := cmd.ErrOrStderr()
		for _, e := range errs {
			fmt.Fprintf(w, "  • %s\n", e)
		}
		return fmt.Errorf("%s: %d error(s)", path, len(errs))
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)
}

// --- Service ---

var serviceCmd = &cobra.Command{
	Use:   "service",
	Short: "Manage the devconsoled systemd user service",
}

var serviceInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install, enable and start devconsoled for the current user",
	RunE: func(cmd *cobra.Command, _ []string) error {
		var cfgArg string
		if _, err := os.Stat(configPath); err == nil {
			cfgArg = configPath
		}
		ctx, cancel := requestContext()
		defer cancel()
		if err := service.Install(ctx, cfgArg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s installed and started ✓\n", service.UnitName)
		return nil
	},
}

var serviceUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Stop, disable and remove the devconsoled user service",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := requestContext()
		defer cancel()
		if err := service.Uninstall(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s removed ✓\n", service.UnitName)
		return nil
	},
}

var serviceStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show socket and service state",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := socketPath
		if path == "" {
			cfg, err := config.LoadOrDefault(configPath)
			if err != nil {
				return err
			}
			path = cfg.Socket
		}
		ctx, cancel := requestContext()
		defer cancel()
		fmt.Fprintln(cmd.OutOrStdout(), service.Status(ctx, path))
		return nil
	},
}

func init() {
	serviceCmd.AddCommand(serviceInstallCmd)
	serviceCmd.AddCommand(serviceUninstallCmd)
	serviceCmd.AddCommand(serviceStatusCmd)
}
