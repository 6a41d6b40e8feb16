package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"fundingScope/internal/model"
	"fundingScope/internal/storage"
)

// Sink receives sanitized events.
type Sink interface {
	UpsertEvents(ctx context.Context, events []model.FundingEvent) error
}

// RunConfig holds runtime settings for an import.
type RunConfig struct {
	InputPath         string
	RejectsPath       string
	BatchSize         int
	CheckpointPath    string
	CheckpointEnabled bool
	Retry             RetryPolicy
}

// Summary counts what one import run did with each line.
type Summary struct {
	Total    int
	Imported int
	Rejected int
	Skipped  int
	Resumed  int
}

type pending struct {
	line  int
	event model.FundingEvent
}

// Runner reads a JSONL file of raw events and writes them to a Sink.
type Runner struct {
	cfg        RunConfig
	sink       Sink
	logger     *zap.Logger
	rejects    *storage.JSONLWriter
	checkpoint *CheckpointStore
	sanitizer  Sanitizer
}

// NewRunner builds a Runner with its dependencies.
func NewRunner(cfg RunConfig, sink Sink, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{
		cfg:        cfg,
		sink:       sink,
		logger:     logger,
		rejects:    storage.NewJSONLWriter(cfg.RejectsPath),
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, cfg.CheckpointEnabled),
		sanitizer: Sanitizer{
			Now:   time.Now,
			NewID: uuid.NewString,
		},
	}
}

// Run executes the import.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	var summary Summary
	if r.sink == nil {
		return summary, fmt.Errorf("sink is nil")
	}
	if r.cfg.BatchSize <= 0 {
		return summary, fmt.Errorf("batch size must be greater than zero")
	}

	file, err := os.Open(r.cfg.InputPath)
	if err != nil {
		return summary, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	resumeAfter, err := r.resumePoint()
	if err != nil {
		return summary, err
	}
	summary.Resumed = resumeAfter

	var (
		batch    []pending
		lastLine int
		seen     = make(map[string]struct{})
		reader   = storage.NewJSONLReader(file)
	)
	for {
		line, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return summary, err
		}
		lastLine = line.Number
		if line.Number <= resumeAfter {
			continue
		}
		summary.Total++

		event, reason := r.sanitizer.Sanitize(line.Raw)
		if reason != "" {
			summary.Rejected++
			if err := r.rejects.Append(model.RejectedEvent{Line: line.Number, Reason: reason, Raw: line.Raw}); err != nil {
				return summary, fmt.Errorf("write reject: %w", err)
			}
			continue
		}
		key := model.Deref(event.SourceURL)
		if _, ok := seen[key]; ok {
			summary.Skipped++
			continue
		}
		seen[key] = struct{}{}
		batch = append(batch, pending{line: line.Number, event: event})
	}

	if len(batch) > 0 {
		spans, err := SplitSpan(0, len(batch)-1, r.cfg.BatchSize)
		if err != nil {
			return summary, err
		}
		for _, span := range spans {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			default:
			}

			chunk := batch[span.From : span.To+1]
			if err := r.upsertWithRetry(ctx, chunk); err != nil {
				return summary, fmt.Errorf("upsert events: %w", err)
			}
			summary.Imported += len(chunk)

			committed := chunk[len(chunk)-1].line
			if err := r.checkpoint.Save(r.cfg.InputPath, committed); err != nil {
				return summary, err
			}
			r.logger.Info("batch complete", zap.Int("events", len(chunk)), zap.Int("through_line", committed))
		}
	}

	if lastLine > resumeAfter {
		if err := r.checkpoint.Save(r.cfg.InputPath, lastLine); err != nil {
			return summary, err
		}
	}

	r.logger.Info("import complete",
		zap.Int("total", summary.Total),
		zap.Int("imported", summary.Imported),
		zap.Int("rejected", summary.Rejected),
		zap.Int("skipped", summary.Skipped),
	)
	return summary, nil
}

func (r *Runner) resumePoint() (int, error) {
	cp, ok, err := r.checkpoint.Load()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	if cp.Input != r.cfg.InputPath {
		r.logger.Info("checkpoint belongs to another input; starting over", zap.String("checkpoint_input", cp.Input))
		return 0, nil
	}
	r.logger.Info("resume from checkpoint", zap.Int("last_line", cp.LastLine))
	return cp.LastLine, nil
}

func (r *Runner) upsertWithRetry(ctx context.Context, chunk []pending) error {
	events := make([]model.FundingEvent, 0, len(chunk))
	for _, p := range chunk {
		events = append(events, p.event)
	}
	return r.cfg.Retry.Do(ctx, func(ctx context.Context) error {
		err := r.sink.UpsertEvents(ctx, events)
		if err != nil {
			r.logger.Warn("upsert failed", zap.Error(err), zap.Int("first_line", chunk[0].line))
		}
		return err
	})
}
