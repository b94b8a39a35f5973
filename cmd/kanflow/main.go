package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/fang"
	serveradapter "github.com/evanschultz/kanflow/internal/adapters/server"
	servercommon "github.com/evanschultz/kanflow/internal/adapters/server/common"
	"github.com/evanschultz/kanflow/internal/app"
	"github.com/evanschultz/kanflow/internal/config"
	"github.com/evanschultz/kanflow/internal/domain"
	"github.com/evanschultz/kanflow/internal/platform"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// version stores a package-level helper value.
var version = "dev"

// appName names the binary, its paths, and its MCP server identity.
const appName = "kanflow"

// serveRunner starts the HTTP+MCP serve flow.
var serveRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
	return serveradapter.Run(ctx, cfg, deps)
}

// newIDGenerator supplies id suffixes for new lists and cards.
var newIDGenerator = func() domain.IDGenerator {
	return uuid.NewString
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(os.Stdout, os.Stderr)
	if err := fang.Execute(ctx, root, fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

// rootOptions holds persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	devMode    bool
}

// newRootCommand builds the command tree writing to the given streams.
func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	opts := &rootOptions{devMode: version == "dev"}
	if envDev, ok := parseBoolEnv("KANFLOW_DEV_MODE"); ok {
		opts.devMode = envDev
	}

	root := &cobra.Command{
		Use:           appName,
		Short:         "Kanban board server with drag-and-drop reconciliation",
		Long:          "kanflow keeps one in-memory kanban board and serves it over REST and MCP.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config TOML")
	root.PersistentFlags().BoolVar(&opts.devMode, "dev", opts.devMode, "use dev mode paths (<app>-dev) and enable the dev log file")

	root.AddCommand(
		newServeCommand(opts),
		newBoardCommand(opts),
		newPathsCommand(opts),
		newVersionCommand(),
	)
	return root
}

// newServeCommand builds `kanflow serve`.
func newServeCommand(opts *rootOptions) *cobra.Command {
	var bind, seed string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the board over HTTP (REST and MCP)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := resolveRuntime(opts, cmd.ErrOrStderr(), func(cfg *config.Config) {
				if strings.TrimSpace(bind) != "" {
					cfg.Server.HTTPBind = bind
				}
				if strings.TrimSpace(seed) != "" {
					cfg.Board.Seed = seed
				}
			})
			if err != nil {
				return err
			}
			defer rt.close(cmd.ErrOrStderr())
			return runServe(cmd.Context(), rt)
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "HTTP listen address (overrides server.http_bind)")
	cmd.Flags().StringVar(&seed, "seed", "", "initial board: default, empty, or a YAML seed path")
	return cmd
}

// newBoardCommand builds `kanflow board`.
func newBoardCommand(opts *rootOptions) *cobra.Command {
	var seed string
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Print the seeded board as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := resolveRuntime(opts, cmd.ErrOrStderr(), func(cfg *config.Config) {
				if strings.TrimSpace(seed) != "" {
					cfg.Board.Seed = seed
				}
			})
			if err != nil {
				return err
			}
			defer rt.close(cmd.ErrOrStderr())

			svc, err := rt.newService()
			if err != nil {
				return err
			}
			view, err := svc.Board(cmd.Context())
			if err != nil {
				return fmt.Errorf("read board: %w", err)
			}
			encoded, err := json.MarshalIndent(view, "", "  ")
			if err != nil {
				return fmt.Errorf("encode board json: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			return err
		},
	}
	cmd.Flags().StringVar(&seed, "seed", "", "initial board: default, empty, or a YAML seed path")
	return cmd
}

// newPathsCommand builds `kanflow paths`.
func newPathsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Show resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, err := platform.DefaultPaths(platform.Options{AppName: appName, DevMode: opts.devMode})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", opts.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", resolveConfigPath(opts.configPath, paths))
			_, _ = fmt.Fprintf(out, "log_dir: %s\n", paths.LogDir)
			return nil
		},
	}
}

// newVersionCommand builds `kanflow version`.
func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", appName, version)
			return err
		},
	}
}

// runtimeState is the resolved configuration and logger for one command run.
type runtimeState struct {
	cfg        config.Config
	configPath string
	paths      platform.Paths
	logger     *runtimeLogger
}

// resolveRuntime loads config, applies env and flag overrides, and builds the logger.
func resolveRuntime(opts *rootOptions, stderr io.Writer, override func(*config.Config)) (*runtimeState, error) {
	paths, err := platform.DefaultPaths(platform.Options{AppName: appName, DevMode: opts.devMode})
	if err != nil {
		return nil, err
	}
	configPath := resolveConfigPath(opts.configPath, paths)

	cfg, err := config.Load(configPath, config.Default(paths.LogDir))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	cfg = cfg.ApplyEnv(os.Getenv)
	if override != nil {
		override(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	logger, err := newRuntimeLogger(stderr, appName, opts.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	logger.Info("startup configuration resolved", "app", appName, "dev_mode", opts.devMode, "version", version)
	logger.Debug("runtime paths resolved", "config_path", configPath, "log_dir", paths.LogDir)
	logger.Info("configuration loaded", "config_path", configPath, "seed", cfg.Board.Seed, "log_level", cfg.Logging.Level)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}
	return &runtimeState{cfg: cfg, configPath: configPath, paths: paths, logger: logger}, nil
}

// newService seeds one board and wraps it in the app service.
func (rt *runtimeState) newService() (*app.Service, error) {
	board, err := app.LoadSeed(rt.cfg.Board.Seed, newIDGenerator())
	if err != nil {
		rt.logger.Error("board seed failed", "seed", rt.cfg.Board.Seed, "err", err)
		return nil, fmt.Errorf("load board seed: %w", err)
	}
	svc := app.NewService(board, app.ServiceConfig{
		Viewport: domain.Size{Width: rt.cfg.Viewport.Width, Height: rt.cfg.Viewport.Height},
		Logger:   rt.logger,
	})
	rt.logger.Debug("application service initialized", "seed", rt.cfg.Board.Seed, "lists", board.ListCount())
	return svc, nil
}

// close releases the dev-file sink.
func (rt *runtimeState) close(stderr io.Writer) {
	if closeErr := rt.logger.Close(); closeErr != nil {
		_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", closeErr)
	}
}

// runServe runs the serve subcommand flow.
func runServe(ctx context.Context, rt *runtimeState) error {
	svc, err := rt.newService()
	if err != nil {
		return err
	}
	adapter := servercommon.NewAppServiceAdapter(svc)

	rt.logger.Info("command flow start", "command", "serve", "http_bind", rt.cfg.Server.HTTPBind)
	err = serveRunner(ctx, serveradapter.Config{
		HTTPBind:      rt.cfg.Server.HTTPBind,
		APIEndpoint:   rt.cfg.Server.APIEndpoint,
		MCPEndpoint:   rt.cfg.Server.MCPEndpoint,
		ServerName:    appName,
		ServerVersion: version,
	}, serveradapter.Dependencies{
		Board:  adapter,
		Drag:   adapter,
		Logger: rt.logger,
	})
	if err != nil {
		rt.logger.Error("command flow failed", "command", "serve", "err", err)
		return fmt.Errorf("run serve command: %w", err)
	}
	rt.logger.Info("command flow complete", "command", "serve")
	return nil
}

// resolveConfigPath picks the flag value, then KANFLOW_CONFIG, then the platform default.
func resolveConfigPath(flagValue string, paths platform.Paths) string {
	if path := strings.TrimSpace(flagValue); path != "" {
		return path
	}
	if envPath := strings.TrimSpace(os.Getenv(config.EnvConfigPath)); envPath != "" {
		return envPath
	}
	return paths.ConfigPath
}

// parseBoolEnv reads one optional boolean environment value.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return value, true
}
