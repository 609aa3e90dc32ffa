// Package daemon provides the tick loop runner of the ambiance player.
// It advances the layers on a wall clock and manages the loop lifecycle
// including start, stop, and graceful shutdown.
package daemon

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// Sentinel errors for the daemon runner.
var (
	// ErrAlreadyRunning is returned when Start() is called on a running loop.
	ErrAlreadyRunning = errors.New("tick loop is already running")

	// ErrNotRunning is returned when Shutdown() is called on a stopped loop.
	ErrNotRunning = errors.New("tick loop is not running")

	// ErrShutdownTimeout is returned when shutdown exceeds the configured timeout.
	ErrShutdownTimeout = errors.New("shutdown timed out")
)

const (
	// DefaultTickRate is the update rate used when Config.TickRate is unset.
	DefaultTickRate = 60

	// DefaultMaxDelta bounds the time step handed to a single update.
	DefaultMaxDelta = 250 * time.Millisecond
)

// Ticker is advanced by the runner on every tick. ambiance.Host implements it.
type Ticker interface {
	Update(dt float64)
}

// TickSource delivers wall clock ticks. *time.Ticker satisfies it through
// NewTimeTicker.
type TickSource interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTimeTicker returns a TickSource backed by time.NewTicker.
func NewTimeTicker(d time.Duration) TickSource {
	return timeTicker{t: time.NewTicker(d)}
}

// Config holds the configuration for the runner.
type Config struct {
	// TickRate is the number of updates per second.
	TickRate int

	// MaxDelta caps the measured time between two updates, so a stalled
	// process does not hand a huge step to the layers.
	MaxDelta time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// A zero value means no timeout.
	ShutdownTimeout time.Duration
}

// Interval returns the time between two ticks.
func (c *Config) Interval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// Dependencies holds the external dependencies for the runner.
// This enables dependency injection for testing.
type Dependencies struct {
	// Now reads the wall clock. If nil, time.Now is used.
	Now func() time.Time

	// NewTicker creates the tick source. If nil, NewTimeTicker is used.
	NewTicker func(d time.Duration) TickSource

	// ShutdownFunc is called during shutdown to clean up resources.
	// If nil, no cleanup function is called.
	ShutdownFunc func() error
}

// Runner drives a Ticker at a fixed rate.
type Runner struct {
	config  *Config
	deps    *Dependencies
	target  Ticker
	running bool
	mu      sync.Mutex
	cancel  context.CancelFunc
	ticks   atomic.Uint64
}

// New creates a runner updating target. Nil config or deps fall back to
// defaults.
func New(config *Config, target Ticker, deps *Dependencies) *Runner {
	return &Runner{
		config: applyConfigDefaults(config),
		deps:   applyDependencyDefaults(deps),
		target: target,
	}
}

// applyConfigDefaults returns a Config with default values applied for unset fields.
func applyConfigDefaults(config *Config) *Config {
	cfg := Config{}
	if config != nil {
		cfg = *config
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = DefaultTickRate
	}
	if cfg.MaxDelta <= 0 {
		cfg.MaxDelta = DefaultMaxDelta
	}
	return &cfg
}

// applyDependencyDefaults returns Dependencies with default values applied.
func applyDependencyDefaults(deps *Dependencies) *Dependencies {
	if deps == nil {
		deps = &Dependencies{}
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewTicker == nil {
		deps.NewTicker = NewTimeTicker
	}
	return deps
}

// Config returns the runner's configuration.
func (r *Runner) Config() *Config {
	return r.config
}

// Ticks returns the number of updates performed so far.
func (r *Runner) Ticks() uint64 {
	return r.ticks.Load()
}

// Start runs the tick loop and blocks until the context is canceled or
// Shutdown is called. Returns ErrAlreadyRunning if the loop is already started.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	ctx, r.cancel = context.WithCancel(ctx)
	ticker := r.deps.NewTicker(r.config.Interval())
	last := r.deps.Now()
	r.running = true
	r.mu.Unlock()

	defer r.cleanupOnStop(ticker)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			now := r.deps.Now()
			dt := min(max(now.Sub(last), 0), r.config.MaxDelta)
			last = now
			r.target.Update(dt.Seconds())
			r.ticks.Add(1)
		}
	}
}

// cleanupOnStop performs cleanup when the loop exits.
func (r *Runner) cleanupOnStop(ticker TickSource) {
	ticker.Stop()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
}

// Shutdown gracefully stops the loop.
// Returns ErrNotRunning if the loop is not running.
// Returns ErrShutdownTimeout if the shutdown function exceeds the configured timeout.
func (r *Runner) Shutdown() error {
	if err := r.validateRunning(); err != nil {
		return err
	}

	// Execute shutdown function if configured
	if err := r.executeShutdownFunc(); err != nil {
		return err
	}

	r.stop()
	return nil
}

// validateRunning checks if the loop is running.
func (r *Runner) validateRunning() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return ErrNotRunning
	}
	return nil
}

// executeShutdownFunc runs the shutdown function with timeout if configured.
func (r *Runner) executeShutdownFunc() error {
	if r.deps.ShutdownFunc == nil {
		return nil
	}

	if r.config.ShutdownTimeout > 0 {
		return r.executeWithTimeout(r.deps.ShutdownFunc, r.config.ShutdownTimeout)
	}

	// The shutdown must proceed regardless of cleanup errors.
	_ = r.deps.ShutdownFunc()
	return nil
}

// executeWithTimeout runs a function with a timeout.
// Returns ErrShutdownTimeout if the function exceeds the timeout.
// Returns the function's error if it completes within the timeout.
func (r *Runner) executeWithTimeout(fn func() error, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		r.stop()
		return ErrShutdownTimeout
	}
}

// stop cancels the loop context.
func (r *Runner) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.running = false
	if r.cancel != nil {
		r.cancel()
	}
}

// IsRunning returns true if the loop is currently running.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
