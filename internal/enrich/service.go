package enrich

import (
	"context"
	"math"

	"go.uber.org/zap"
)

// Modes reported in a queued response.
const (
	ModeLocalRunner = "local-runner"
	ModeStub        = "stub"
)

// Outcome is the result of one enrichment request.
type Outcome struct {
	Queued            bool
	Mode              string
	RetryAfterSeconds int
	Err               error
}

// Limited reports whether the request was turned away by the rate limit.
func (o Outcome) Limited() bool {
	return !o.Queued && o.Err == nil
}

// Service applies the rate limit and hands allowed requests to the launcher.
// A nil launcher answers in stub mode.
type Service struct {
	limiter  *Limiter
	launcher Launcher
	logger   *zap.Logger
}

func NewService(limiter *Limiter, launcher Launcher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{limiter: limiter, launcher: launcher, logger: logger}
}

// Trigger requests enrichment of slug on behalf of clientIP.
func (s *Service) Trigger(ctx context.Context, clientIP, slug string) Outcome {
	if allowed, wait := s.limiter.Allow(clientIP + ":" + slug); !allowed {
		return Outcome{RetryAfterSeconds: int(math.Ceil(wait.Seconds()))}
	}

	if s.launcher == nil {
		s.logger.Info("enrich request accepted", zap.String("slug", slug), zap.String("mode", ModeStub))
		return Outcome{Queued: true, Mode: ModeStub}
	}
	if err := s.launcher.Launch(ctx, slug); err != nil {
		s.logger.Error("enrich launch failed", zap.String("slug", slug), zap.Error(err))
		return Outcome{Err: err}
	}
	return Outcome{Queued: true, Mode: ModeLocalRunner}
}
