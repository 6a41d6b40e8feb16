package enrich

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func newTestLimiter(window time.Duration) (*Limiter, *fakeClock) {
	clock := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewLimiter(window)
	limiter.now = clock.Now
	return limiter, clock
}

type fakeLauncher struct {
	slugs []string
	err   error
}

func (f *fakeLauncher) Launch(_ context.Context, slug string) error {
	f.slugs = append(f.slugs, slug)
	return f.err
}

func TestLimiterWindow(t *testing.T) {
	limiter, clock := newTestLimiter(time.Minute)

	ok, _ := limiter.Allow("1.2.3.4:acme")
	require.True(t, ok)

	clock.now = clock.now.Add(20 * time.Second)
	ok, wait := limiter.Allow("1.2.3.4:acme")
	require.False(t, ok)
	assert.Equal(t, 40*time.Second, wait)

	ok, _ = limiter.Allow("1.2.3.4:other")
	assert.True(t, ok, "keys are independent")

	clock.now = clock.now.Add(40 * time.Second)
	ok, _ = limiter.Allow("1.2.3.4:acme")
	assert.True(t, ok, "window has passed")
}

func TestLimiterSweep(t *testing.T) {
	limiter, clock := newTestLimiter(time.Minute)
	limiter.Allow("a")
	clock.now = clock.now.Add(30 * time.Second)
	limiter.Allow("b")

	clock.now = clock.now.Add(31 * time.Second)
	assert.Equal(t, 1, limiter.Sweep())
	assert.Len(t, limiter.last, 1)
	assert.Contains(t, limiter.last, "b")
}

func TestServiceStubMode(t *testing.T) {
	limiter, _ := newTestLimiter(time.Minute)
	svc := NewService(limiter, nil, nil)

	first := svc.Trigger(context.Background(), "10.0.0.1", "test-co")
	assert.Equal(t, Outcome{Queued: true, Mode: ModeStub}, first)

	second := svc.Trigger(context.Background(), "10.0.0.1", "test-co")
	assert.True(t, second.Limited())
	assert.Equal(t, 60, second.RetryAfterSeconds)
}

func TestServiceRetryAfterRoundsUp(t *testing.T) {
	limiter, clock := newTestLimiter(time.Minute)
	svc := NewService(limiter, nil, nil)

	svc.Trigger(context.Background(), "unknown", "rl-co")
	clock.now = clock.now.Add(59*time.Second + 500*time.Millisecond)
	outcome := svc.Trigger(context.Background(), "unknown", "rl-co")
	assert.Equal(t, 1, outcome.RetryAfterSeconds)
}

func TestServiceLocalRunner(t *testing.T) {
	limiter, _ := newTestLimiter(time.Minute)
	launcher := &fakeLauncher{}
	svc := NewService(limiter, launcher, nil)

	outcome := svc.Trigger(context.Background(), "127.0.0.1", "spawn-co")
	assert.Equal(t, Outcome{Queued: true, Mode: ModeLocalRunner}, outcome)
	assert.Equal(t, []string{"spawn-co"}, launcher.slugs)
}

func TestServiceLaunchFailure(t *testing.T) {
	limiter, _ := newTestLimiter(time.Minute)
	svc := NewService(limiter, &fakeLauncher{err: errors.New("exec: not found")}, nil)

	outcome := svc.Trigger(context.Background(), "127.0.0.1", "spawn-co")
	assert.False(t, outcome.Queued)
	assert.False(t, outcome.Limited())
	assert.Error(t, outcome.Err)
}

func TestExecLauncherStartsCommand(t *testing.T) {
	truePath, err := exec.LookPath("true")
	if err != nil {
		t.Skip("true not available")
	}

	err = ExecLauncher{Command: []string{truePath}, Dir: t.TempDir()}.Launch(context.Background(), "acme")
	assert.NoError(t, err)
}

func TestExecLauncherErrors(t *testing.T) {
	err := ExecLauncher{}.Launch(context.Background(), "acme")
	assert.Error(t, err)

	err = ExecLauncher{Command: []string{"fundingscope-no-such-binary", "-m", "x"}}.Launch(context.Background(), "acme")
	assert.Error(t, err)
}
