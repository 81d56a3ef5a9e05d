package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Ticker is one evaluation cycle. *Scheduler implements it.
type Ticker interface {
	Tick(ctx context.Context) error
}

// Runner drives a Ticker on a fixed interval.
type Runner struct {
	ticker           Ticker
	interval         time.Duration
	operationTimeout time.Duration // Timeout for one evaluation cycle
	mu               sync.Mutex    // Serializes cycles; ticks never overlap
	wg               sync.WaitGroup
}

// RunnerOption is a functional option for configuring Runner.
type RunnerOption func(*Runner)

// WithInterval sets how often the runner evaluates.
func WithInterval(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.interval = d
	}
}

// WithOperationTimeout sets the timeout for a single evaluation cycle.
func WithOperationTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		r.operationTimeout = d
	}
}

// NewRunner creates a Runner with the given ticker and options.
func NewRunner(t Ticker, opts ...RunnerOption) *Runner {
	r := &Runner{
		ticker:           t,
		interval:         1 * time.Minute,  // Default: evaluate every minute
		operationTimeout: 30 * time.Second, // Default: 30s per cycle
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Start runs an evaluation immediately, then on every interval until ctx is
// cancelled. On shutdown it waits for the in-flight cycle and returns nil.
func (r *Runner) Start(ctx context.Context) error {
	slog.InfoContext(ctx, "Notification scheduler started", "interval", r.interval)

	r.RunOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.wg.Go(func() {
				r.RunOnce(ctx)
			})
		case <-ctx.Done():
			slog.InfoContext(ctx, "Shutdown requested, waiting for in-flight evaluation...")
			r.wg.Wait()
			slog.InfoContext(ctx, "Notification scheduler stopped gracefully")
			return nil
		}
	}
}

// RunOnce executes a single evaluation cycle. A cycle still running when
// the next tick arrives makes that tick wait.
func (r *Runner) RunOnce(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.operationTimeout)
	defer cancel()

	if err := r.ticker.Tick(opCtx); err != nil {
		slog.ErrorContext(opCtx, "Error evaluating notifications", "error", err)
	}
}
