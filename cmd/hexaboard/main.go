package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/evanschultz/hexaboard/internal/adapters/server"
	"github.com/evanschultz/hexaboard/internal/adapters/server/common"
	"github.com/evanschultz/hexaboard/internal/adapters/storage/sqlite"
	"github.com/evanschultz/hexaboard/internal/app"
	"github.com/evanschultz/hexaboard/internal/config"
	"github.com/evanschultz/hexaboard/internal/platform"
	"github.com/evanschultz/hexaboard/internal/tui"
)

// version is stamped at build time.
var version = "dev"

// pendingMoveTTL bounds how long a proposed remote drag waits for its decision.
const pendingMoveTTL = 10 * time.Minute

// program is the slice of *tea.Program the CLI drives.
type program interface {
	Run() (tea.Model, error)
}

var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

var serveCommandRunner = server.Run

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(os.Stdout, os.Stderr)
	if err := fang.Execute(ctx, root, fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

// run executes one command line without fang styling.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	appName    string
	devMode    bool
}

// newRootCommand builds the command tree writing to stdout and stderr.
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	opts := &globalOptions{appName: "hexaboard", devMode: version == "dev"}
	if envDev, ok := parseBoolEnv("HEXABOARD_DEV_MODE"); ok {
		opts.devMode = envDev
	}
	if envApp := strings.TrimSpace(os.Getenv("HEXABOARD_APP_NAME")); envApp != "" {
		opts.appName = envApp
	}

	root := &cobra.Command{
		Use:           "hexaboard",
		Short:         "Single-board kanban in the terminal",
		Long:          "hexaboard keeps one in-memory kanban board. Moves between and within columns ask before they apply.",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), opts, stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "path to config TOML")
	flags.StringVar(&opts.appName, "app", opts.appName, "application name for config/data path resolution")
	flags.BoolVar(&opts.devMode, "dev", opts.devMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(
		newServeCommand(opts, stderr),
		newShowCommand(opts, stdout),
		newPathsCommand(opts, stdout),
		newInitCommand(opts, stdout),
	)
	return root
}

func newServeCommand(opts *globalOptions, stderr io.Writer) *cobra.Command {
	var httpBind, apiEndpoint, mcpEndpoint string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over REST and MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime(opts, stderr)
			if err != nil {
				return err
			}
			defer rt.Close()

			serverCfg := server.Config{
				HTTPBind:      firstNonEmpty(httpBind, rt.cfg.Server.HTTPBind),
				APIEndpoint:   firstNonEmpty(apiEndpoint, rt.cfg.Server.APIEndpoint),
				MCPEndpoint:   firstNonEmpty(mcpEndpoint, rt.cfg.Server.MCPEndpoint),
				ServerName:    rt.paths.AppName,
				ServerVersion: version,
			}
			board, err := rt.openBoard()
			if err != nil {
				return err
			}
			adapter := common.NewStoreAdapter(board.store, app.NewPendingMoves(uuid.NewString, pendingMoveTTL), rt.cfg.Board.Title)
			deps := server.Dependencies{Board: adapter, Logger: rt.logger.Component("server")}
			if board.journal != nil {
				deps.Activity = adapter
			}

			rt.logger.Info("command flow start", "command", "serve", "bind", serverCfg.HTTPBind)
			if err := serveCommandRunner(cmd.Context(), serverCfg, deps); err != nil {
				rt.logger.Error("command flow failed", "command", "serve", "err", err)
				return fmt.Errorf("run serve command: %w", err)
			}
			rt.logger.Info("command flow complete", "command", "serve")
			return nil
		},
	}
	cmd.Flags().StringVar(&httpBind, "http", "", "HTTP listen address (overrides server.http_bind)")
	cmd.Flags().StringVar(&apiEndpoint, "api-endpoint", "", "HTTP API base endpoint (overrides server.api_endpoint)")
	cmd.Flags().StringVar(&mcpEndpoint, "mcp-endpoint", "", "MCP streamable HTTP endpoint (overrides server.mcp_endpoint)")
	return cmd
}

func newShowCommand(opts *globalOptions, stdout io.Writer) *cobra.Command {
	var (
		width   int
		raw     bool
		summary bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the configured starting board as markdown",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, _, _, err := resolveConfig(opts)
			if err != nil {
				return err
			}
			board, err := cfg.SeedBoard()
			if err != nil {
				return fmt.Errorf("build seed board: %w", err)
			}
			var out string
			switch {
			case summary:
				out = tui.RenderBoardSummary(board) + "\n"
			case raw:
				out = app.RenderMarkdown(cfg.Board.Title, board)
			default:
				out = tui.RenderBoardMarkdown(cfg.Board.Title, board, width) + "\n"
			}
			_, err = io.WriteString(stdout, out)
			return err
		},
	}
	cmd.Flags().IntVar(&width, "width", 80, "wrap width for styled output")
	cmd.Flags().BoolVar(&raw, "raw", false, "print plain markdown without styling")
	cmd.Flags().BoolVar(&summary, "table", false, "print a per-column summary table")
	return cmd
}

func newPathsCommand(opts *globalOptions, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			paths, err := resolvePaths(opts)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(stdout, "app: %s\n", paths.AppName)
			_, _ = fmt.Fprintf(stdout, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(stdout, "config: %s\n", resolveConfigPath(opts, paths))
			_, _ = fmt.Fprintf(stdout, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(stdout, "log_dir: %s\n", paths.LogDir)
			return nil
		},
	}
}

func newInitCommand(opts *globalOptions, stdout io.Writer) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file at the resolved config path",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			paths, err := resolvePaths(opts)
			if err != nil {
				return err
			}
			configPath := resolveConfigPath(opts, paths)
			if err := config.Write(configPath, config.Default(), force); err != nil {
				if errors.Is(err, config.ErrConfigExists) {
					return fmt.Errorf("init config: %w (use --force to replace it)", err)
				}
				return fmt.Errorf("init config: %w", err)
			}
			_, _ = fmt.Fprintf(stdout, "wrote %s\n", configPath)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing config file")
	return cmd
}

// runTUI runs the interactive board until the user quits.
func runTUI(ctx context.Context, opts *globalOptions, stderr io.Writer) error {
	rt, err := loadRuntime(opts, stderr)
	if err != nil {
		return err
	}
	defer rt.Close()
	// Keep TUI rendering clean: runtime logs stay in the dev-file sink while the board is active.
	rt.logger.SetConsoleEnabled(false)

	board, err := rt.openBoard()
	if err != nil {
		return err
	}
	modelOpts := []tui.Option{
		tui.WithBoardTitle(rt.cfg.Board.Title),
		tui.WithConfirmConfig(tui.ConfirmConfig{
			Drag:         rt.cfg.Confirm.Drag,
			ColumnMove:   rt.cfg.Confirm.ColumnMove,
			DeleteTask:   rt.cfg.Confirm.DeleteTask,
			DeleteColumn: rt.cfg.Confirm.DeleteColumn,
		}),
	}
	if board.journal != nil {
		modelOpts = append(modelOpts, tui.WithActivity(board.store, rt.cfg.Activity.Limit))
	}

	rt.logger.Info("starting tui program loop")
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := programFactory(tui.NewModel(board.store, modelOpts...)).Run(); err != nil {
		rt.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	rt.logger.Info("command flow complete", "command", "tui")
	return nil
}

// runtimeState bundles what a board-serving command needs.
type runtimeState struct {
	cfg        config.Config
	paths      platform.Paths
	configPath string
	logger     *runtimeLogger
	closers    []func() error
}

// boardHandle is an opened store and its optional activity journal.
type boardHandle struct {
	store   *app.Store
	journal *sqlite.Journal
}

// loadRuntime resolves paths, config and logging for one command.
func loadRuntime(opts *globalOptions, stderr io.Writer) (*runtimeState, error) {
	cfg, paths, configPath, err := resolveConfig(opts)
	if err != nil {
		return nil, err
	}
	logger, err := newRuntimeLogger(stderr, paths.AppName, opts.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	logger.Info("configuration loaded", "config_path", configPath, "log_level", cfg.Logging.Level)
	logger.Debug("runtime paths resolved", "app", paths.AppName, "dev_mode", opts.devMode, "data_dir", paths.DataDir)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}
	return &runtimeState{cfg: cfg, paths: paths, configPath: configPath, logger: logger}, nil
}

// openBoard builds the store from the configured seed board.
func (rt *runtimeState) openBoard() (boardHandle, error) {
	seed, err := rt.cfg.SeedBoard()
	if err != nil {
		return boardHandle{}, fmt.Errorf("build seed board: %w", err)
	}
	var handle boardHandle
	var journal app.Journal
	if rt.cfg.Activity.Enabled {
		j, err := sqlite.OpenInMemory("")
		if err != nil {
			rt.logger.Error("activity journal open failed", "err", err)
			return boardHandle{}, fmt.Errorf("open activity journal: %w", err)
		}
		rt.closers = append(rt.closers, j.Close)
		handle.journal = j
		journal = j
		rt.logger.Info("activity journal ready", "limit", rt.cfg.Activity.Limit)
	}
	handle.store = app.NewStore(journal, uuid.NewString, nil, app.StoreConfig{
		DefaultColumnTitle: rt.cfg.Board.DefaultColumnTitle,
		Seed:               seed,
		Logger:             rt.logger.Component("store"),
	})
	rt.logger.Debug("board store initialized", "columns", len(seed.Columns), "tasks", seed.TaskCount())
	return handle, nil
}

// Close releases the journal and the log file.
func (rt *runtimeState) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			rt.logger.Warn("close failed", "err", err)
		}
	}
	if err := rt.logger.Close(); err != nil && !rt.logger.muted.Load() {
		rt.logger.Warn("close runtime log sink failed", "err", err)
	}
}

// resolvePaths resolves platform paths for the selected app name.
func resolvePaths(opts *globalOptions) (platform.Paths, error) {
	return platform.Resolve(platform.Options{
		AppName: opts.appName,
		DevMode: opts.devMode,
	})
}

// resolveConfigPath applies --config, then HEXABOARD_CONFIG, then the platform default.
func resolveConfigPath(opts *globalOptions, paths platform.Paths) string {
	if p := strings.TrimSpace(opts.configPath); p != "" {
		return p
	}
	if envPath := strings.TrimSpace(os.Getenv("HEXABOARD_CONFIG")); envPath != "" {
		return envPath
	}
	return paths.ConfigPath
}

// resolveConfig loads the effective configuration.
func resolveConfig(opts *globalOptions) (config.Config, platform.Paths, string, error) {
	paths, err := resolvePaths(opts)
	if err != nil {
		return config.Config{}, platform.Paths{}, "", err
	}
	configPath := resolveConfigPath(opts, paths)
	cfg, err := config.Load(configPath, config.Default())
	if err != nil {
		return config.Config{}, platform.Paths{}, "", fmt.Errorf("load config %q: %w", configPath, err)
	}
	return cfg, paths, configPath, nil
}

// parseBoolEnv reads a boolean env var; ok is false when unset or malformed.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
