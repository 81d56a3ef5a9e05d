package main

import (
	"context"
	"io"
	"log/slog"
	"time"
)

type stopper interface {
	Stop()
}

type shutdowner interface {
	Shutdown(context.Context) error
}

// newCleanup constructs the shutdown hook: stop timers first so nothing
// fires mid-teardown, then release sinks, close the store and flush telemetry.
func newCleanup(timeout time.Duration, scheduler stopper, closeSink func(), store io.Closer, telemetry shutdowner) func() {
	return func() {
		if scheduler != nil {
			scheduler.Stop()
		}
		if closeSink != nil {
			closeSink()
		}
		if store != nil {
			if err := store.Close(); err != nil {
				slog.Error("Failed to close store", "error", err)
			}
		}
		if telemetry != nil {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			if err := telemetry.Shutdown(ctx); err != nil {
				slog.Error("Failed to shut down telemetry providers", "error", err)
			}
		}
	}
}
