package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/example/clubhouse/internal/config"
	"github.com/example/clubhouse/internal/logging"
	"github.com/example/clubhouse/internal/persistence/sqlite"
)

type rootFlags struct {
	configFile string
	envFile    string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "clubhouse",
		Short:         "Model railroad club scheduling and roster service",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "dotenv file to load; empty to skip")

	root.AddCommand(
		newServeCmd(flags),
		newMigrateCmd(flags),
		newHoursCmd(flags),
		newUsersCmd(flags),
	)
	return root
}

func (f *rootFlags) load() (config.Config, error) {
	opts := []config.Option{config.WithEnvFile(f.envFile)}
	if f.configFile != "" {
		opts = append(opts, config.WithConfigFile(f.configFile))
	}
	return config.Load(opts...)
}

// env bundles what every storage-backed command needs.
type env struct {
	cfg     config.Config
	logger  *slog.Logger
	storage *sqlite.Storage
}

// open loads configuration, builds the logger and opens a migrated database.
func (f *rootFlags) open(ctx context.Context, logOut io.Writer) (*env, error) {
	cfg, err := f.load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(logOut, cfg.LogFormat, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	storage, err := sqlite.Open(cfg.SQLiteDSN, sqlite.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	if err := storage.Migrate(ctx); err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return &env{cfg: cfg, logger: logger, storage: storage}, nil
}

func (e *env) close() {
	if err := e.storage.Close(); err != nil {
		e.logger.Error("failed to close storage", "error", err)
	}
}
