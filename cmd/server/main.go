package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/classes-lms/roomchat/internal/app"
	"github.com/classes-lms/roomchat/internal/config"
	applog "github.com/classes-lms/roomchat/internal/log"
	"github.com/classes-lms/roomchat/internal/store/sqlite"
)

type rootOptions struct {
	configPath string
	logLevel   string
	overrides  config.Config
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	serve.Flags().StringVar(&opts.overrides.Addr, "addr", "", "HTTP listen address")
	serve.Flags().StringVar(&opts.overrides.DatabasePath, "db", "", "SQLite database path")

	root := &cobra.Command{
		Use:          "chatserver",
		Short:        "Room chat server",
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to config.yaml")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.Flags().AddFlagSet(serve.Flags())

	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and print the schema version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrate(cmd, opts)
		},
	}
	migrate.Flags().StringVar(&opts.overrides.DatabasePath, "db", "", "SQLite database path")

	root.AddCommand(serve, migrate)
	return root
}

func loadConfig(opts *rootOptions) (config.Config, error) {
	bootLog := applog.New(opts.logLevel, "console")

	cfg, path, err := config.Load(bootLog, opts.configPath)
	if err != nil {
		return cfg, err
	}
	cfg.UpdateFrom(opts.overrides)
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	bootLog.Debug().Str("path", path).Msg("config loaded")
	return cfg, nil
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	logger := applog.New(cfg.LogLevel, cfg.LogFormat)
	if applog.ParseLevel(cfg.LogLevel) != zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize application")
		return err
	}

	logger.Info().Str("addr", cfg.Addr).Str("ws_prefix", cfg.WSPrefix).Msg("starting chat server")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

func runMigrate(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer st.Close()

	version, err := st.SchemaVersion(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: schema version %d\n", cfg.DatabasePath, version)
	return nil
}
