package enrich

import (
	"context"
	"fmt"
	"os/exec"

	"go.uber.org/zap"
)

// Launcher starts an enrichment run for a slug without waiting for it.
type Launcher interface {
	Launch(ctx context.Context, slug string) error
}

// ExecLauncher runs Command with "--slug <slug>" appended. Standard streams
// are left unset so the child reads from and writes to the null device.
type ExecLauncher struct {
	Command []string
	Dir     string
	Logger  *zap.Logger
}

func (l ExecLauncher) Launch(_ context.Context, slug string) error {
	if len(l.Command) == 0 {
		return fmt.Errorf("enrich command is empty")
	}
	logger := l.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	args := append(append([]string(nil), l.Command[1:]...), "--slug", slug)
	// Not bound to the request context: the run outlives the request.
	cmd := exec.Command(l.Command[0], args...)
	cmd.Dir = l.Dir
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start enrich runner: %w", err)
	}

	pid := cmd.Process.Pid
	logger.Info("enrich runner started", zap.String("slug", slug), zap.Int("pid", pid))
	go func() {
		if err := cmd.Wait(); err != nil {
			logger.Warn("enrich runner exited", zap.String("slug", slug), zap.Int("pid", pid), zap.Error(err))
		}
	}()
	return nil
}
