package main

import (
	"context"
	"encoding/json"
	"io"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fundingScope/internal/aggregate"
	"fundingScope/internal/config"
	"fundingScope/internal/model"
	"fundingScope/internal/query"
)

func newSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print the dashboard summary as JSON",
		RunE:  runSummary,
	}

	addStoreFlags(cmd)
	cmd.Flags().Int("fetch-limit", 2000, "events loaded for the summary")
	cmd.Flags().String("log-level", "warn", "log level (debug, info, warn, error)")
	return cmd
}

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Print one filtered page of funding events as JSON",
		RunE:  runEvents,
	}

	addStoreFlags(cmd)
	cmd.Flags().String("q", "", "match startup name, sub sector or geography")
	cmd.Flags().String("sub-sector", "", "exact sub sector")
	cmd.Flags().String("investor", "", "lead investor substring")
	cmd.Flags().String("from", "", "earliest date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().String("to", "", "latest date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().Int("page", 1, "page number")
	cmd.Flags().Int("limit", query.DefaultLimit, "page size")
	cmd.Flags().String("log-level", "warn", "log level (debug, info, warn, error)")
	return cmd
}

func runSummary(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadRead(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := context.Background()
	store, err := requireStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	events, err := store.RecentEvents(ctx, cfg.FetchLimit)
	if err != nil {
		return err
	}
	dashboard, stats := aggregate.Dashboard(events, time.Now())
	logger.Info("summary computed", zap.Int("rows", stats.Rows), zap.Int("malformed", stats.Malformed))
	return printJSON(cmd.OutOrStdout(), dashboard)
}

func runEvents(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadRead(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	values := url.Values{}
	for flag, param := range map[string]string{
		"q":          "q",
		"sub-sector": "sub_sector",
		"investor":   "investor",
		"from":       "from",
		"to":         "to",
	} {
		if v, _ := cmd.Flags().GetString(flag); v != "" {
			values.Set(param, v)
		}
	}
	pageNum, _ := cmd.Flags().GetInt("page")
	limit, _ := cmd.Flags().GetInt("limit")
	values.Set("page", strconv.Itoa(pageNum))
	values.Set("limit", strconv.Itoa(limit))

	params, err := query.ParseParams(values)
	if err != nil {
		return err
	}

	ctx := context.Background()
	store, err := requireStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()

	result, err := store.QueryEvents(ctx, params)
	if err != nil {
		return err
	}
	logger.Debug("events queried", zap.Int("count", result.Count))

	return printJSON(cmd.OutOrStdout(), model.EventPage{
		Events:      result.Events,
		Count:       result.Count,
		Page:        params.Number,
		Limit:       params.Limit,
		LastUpdated: time.Now().UTC().Format(time.RFC3339),
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
