package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"fundingScope/internal/config"
	"fundingScope/internal/storage"
	"fundingScope/internal/storage/postgres"
	"fundingScope/internal/storage/sqlite"
)

func main() {
	root := &cobra.Command{
		Use:          "fundingscope",
		Short:        "Climate startup funding analytics",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envFile, _ := cmd.Flags().GetString("env-file")
			return config.LoadDotEnv(envFile)
		},
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("env-file", ".env", "optional dotenv file loaded before config")

	root.AddCommand(newServeCmd(), newImportCmd(), newSummaryCmd(), newEventsCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// addStoreFlags registers the flags every store-backed command shares.
func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("store", config.StorePostgres, "event store backend (postgres, sqlite, none)")
	cmd.Flags().String("pg-dsn", "", "Postgres DSN")
	cmd.Flags().String("sqlite-path", "./data/funding.db", "SQLite database file")
}

// openStore connects the configured backend. An unset backend yields
// storage.ErrNotConfigured.
func openStore(ctx context.Context, cfg config.StoreConfig) (storage.EventStore, error) {
	switch cfg.Kind {
	case config.StorePostgres:
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreSQLite:
		store, err := sqlite.NewStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreNone:
		return nil, storage.ErrNotConfigured
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Kind)
	}
}

func requireStore(ctx context.Context, cfg config.StoreConfig) (storage.EventStore, error) {
	store, err := openStore(ctx, cfg)
	if errors.Is(err, storage.ErrNotConfigured) {
		return nil, fmt.Errorf("%w: set --pg-dsn or use --store=sqlite", err)
	}
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return store, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
