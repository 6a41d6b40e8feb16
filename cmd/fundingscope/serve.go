package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fundingScope/internal/api"
	"fundingScope/internal/config"
	"fundingScope/internal/enrich"
	"fundingScope/internal/storage"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard JSON API",
		RunE:  runServe,
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	addStoreFlags(cmd)
	cmd.Flags().Int("fetch-limit", api.DefaultFetchLimit, "events loaded per dashboard request")
	cmd.Flags().Bool("enrich-runner-enabled", false, "start the enrichment command instead of answering in stub mode")
	cmd.Flags().StringSlice("enrich-command", []string{"python", "-m", "pipeline.enrich_company"}, "enrichment command; --slug <slug> is appended")
	cmd.Flags().String("enrich-dir", "", "working directory for the enrichment command")
	cmd.Flags().Duration("enrich-window", 60*time.Second, "per client and slug enrichment rate limit window")
	cmd.Flags().Duration("shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServe(cfgFile, cmd.Flags())
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

	var store storage.EventStore
	switch opened, err := openStore(ctx, cfg.Store); {
	case errors.Is(err, storage.ErrNotConfigured):
		logger.Warn("store not configured; data routes will report errors", zap.String("store", cfg.Store.Kind))
	case err != nil:
		return fmt.Errorf("open store: %w", err)
	default:
		store = opened
		defer store.Close()
	}

	limiter := enrich.NewLimiter(cfg.EnrichWindow)
	go limiter.RunSweeper(ctx, cfg.EnrichWindow)

	var launcher enrich.Launcher
	if cfg.EnrichRunnerEnabled {
		launcher = enrich.ExecLauncher{Command: cfg.EnrichCommand, Dir: cfg.EnrichDir, Logger: logger}
	}

	server := api.NewServer(api.Options{
		Store:      store,
		Enrich:     enrich.NewService(limiter, launcher, logger),
		Logger:     logger,
		FetchLimit: cfg.FetchLimit,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("serve start",
		zap.String("addr", cfg.Addr),
		zap.String("store", cfg.Store.Kind),
		zap.String("pg_dsn", config.RedactDSN(cfg.Store.PGDSN)),
		zap.Int("fetch_limit", cfg.FetchLimit),
		zap.Bool("enrich_runner_enabled", cfg.EnrichRunnerEnabled),
		zap.Duration("enrich_window", cfg.EnrichWindow),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
