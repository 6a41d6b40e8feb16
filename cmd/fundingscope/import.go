package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fundingScope/internal/config"
	"fundingScope/internal/ingest"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Sanitize a JSONL file of funding events and upsert it into the store",
		RunE:  runImport,
	}

	cmd.Flags().String("in", "", "input events JSONL")
	cmd.Flags().String("rejects", "./data/rejects.jsonl", "rejected records JSONL")
	addStoreFlags(cmd)
	cmd.Flags().Int("batch-size", 500, "events per upsert batch")
	cmd.Flags().String("checkpoint", "./data/import_checkpoint.json", "checkpoint file path")
	cmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts per batch")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

func runImport(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadImport(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := requireStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	runner := ingest.NewRunner(ingest.RunConfig{
		InputPath:         cfg.Input,
		RejectsPath:       cfg.Rejects,
		BatchSize:         cfg.BatchSize,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		Retry: ingest.RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			Backoff:    cfg.RetryBackoff,
		},
	}, store, logger)

	logger.Info("import start",
		zap.String("input", cfg.Input),
		zap.String("store", cfg.Store.Kind),
		zap.String("pg_dsn", config.RedactDSN(cfg.Store.PGDSN)),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
	)

	_, err = runner.Run(ctx)
	return err
}
