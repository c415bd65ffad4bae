package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/opsboard/opsboard-go/internal/api"
	"github.com/opsboard/opsboard-go/internal/config"
	"github.com/opsboard/opsboard-go/internal/tokenstore"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagConfigPath string
	flagJSON       bool
	flagVerbose    bool
	flagQuiet      bool
)

// CLIContext carries the per-invocation dependencies every command needs.
// It is stored on the command's context by the root pre-run so commands
// don't reach for globals.
type CLIContext struct {
	Config *config.Config
	Logger *slog.Logger
	JSON   bool
	Quiet  bool
}

type cliContextKey struct{}

// mustCLIContext retrieves the CLIContext installed by the root pre-run.
// Panics if called outside a cobra command tree — a programming error.
func mustCLIContext(ctx context.Context) *CLIContext {
	cc, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok {
		panic("CLIContext missing from command context")
	}

	return cc
}

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "opsboard",
		Short:   "Opsboard CLI client",
		Long:    "Command-line client for the Opsboard operations dashboard API.",
		Version: version,
		// Silence Cobra's default error/usage printing — we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath := flagConfigPath
			if cfgPath == "" {
				cfgPath = os.Getenv(config.EnvConfig)
			}

			if cfgPath == "" {
				cfgPath = config.DefaultConfigPath()
			}

			cfg, err := config.LoadOrDefault(cfgPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cc := &CLIContext{
				Config: cfg,
				Logger: buildLogger(cfg),
				JSON:   flagJSON,
				Quiet:  flagQuiet,
			}

			cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cc))

			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "config file path")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "suppress informational output")

	// Register subcommands.
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newAPICmd())
	cmd.AddCommand(newWatchCmd())

	return cmd
}

// buildLogger creates an slog.Logger configured by the resolved config and
// CLI flags. Config-file log level provides the baseline; --verbose and
// --quiet override it because CLI flags always win.
func buildLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo

	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	if flagVerbose {
		level = slog.LevelDebug
	}

	if flagQuiet {
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newStore opens the credential store selected by config. The sqlite
// backend is useful when several opsboard processes share one session.
func newStore(ctx context.Context, cc *CLIContext) (tokenstore.Store, error) {
	auth := cc.Config.Auth

	switch auth.Storage {
	case config.StorageSQLite:
		path := auth.Path
		if path == "" {
			path = config.DefaultCredentialDBPath()
		}

		return tokenstore.NewSQLite(ctx, path, cc.Logger)
	default:
		path := auth.Path
		if path == "" {
			path = config.DefaultTokenPath()
		}

		return tokenstore.NewFile(path), nil
	}
}

// newClient assembles the API client from the CLI context: config-driven
// base URL and timeout, the configured credential store, and a fresh
// event bus.
func newClient(ctx context.Context, cc *CLIContext) (*api.Client, error) {
	store, err := newStore(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("opening credential store: %w", err)
	}

	httpClient := &http.Client{Timeout: cc.Config.Timeout()}

	return api.NewClient(cc.Config.API.BaseURL, httpClient, store, api.NewBus(), cc.Logger), nil
}
