package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/rezkam/reminders/internal/application/notify"
	"github.com/rezkam/reminders/internal/application/reminder"
	"github.com/rezkam/reminders/internal/clock"
	"github.com/rezkam/reminders/internal/config"
	"github.com/rezkam/reminders/internal/infrastructure/observability"
)

func main() {
	if err := run(); err != nil {
		// slog may not be initialized yet if config failed.
		fmt.Fprintf(os.Stderr, "failed to run: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	level, err := cfg.Observability.Level()
	if err != nil {
		return err
	}
	providers, logger, err := observability.Setup(ctx, observability.Config{
		Enabled:     cfg.Observability.OTelEnabled,
		ServiceName: cfg.Observability.ServiceName,
		LogLevel:    level,
	})
	if err != nil {
		return fmt.Errorf("failed to init observability: %w", err)
	}
	slog.SetDefault(logger)

	loc, err := cfg.Scheduler.Location()
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		_ = providers.Shutdown(context.Background())
		return err
	}
	slog.InfoContext(ctx, "Storage initialized", "type", cfg.Storage.Type)

	if keys, err := store.Keys(ctx); err != nil {
		slog.WarnContext(ctx, "Failed to list stored reminder lists", "error", err)
	} else {
		slog.InfoContext(ctx, "Stored reminder lists", "keys", keys, "owner_key", cfg.Scheduler.OwnerKey)
	}

	sink, closeSink, err := buildNotifier(cfg.Notifier)
	if err != nil {
		_ = store.Close()
		_ = providers.Shutdown(context.Background())
		return err
	}

	clk := clock.Real{Location: loc}
	svc := reminder.NewService(store, clk, reminder.Config{
		Key:              cfg.Scheduler.OwnerKey,
		Guard:            cfg.Scheduler.Guard,
		MaxShiftAttempts: cfg.Scheduler.MaxShiftAttempts,
	})
	scheduler := notify.New(svc, sink, store, clk, notify.Config{
		Horizon:   cfg.Scheduler.Horizon,
		DigestKey: cfg.Scheduler.DigestKey,
	})
	svc.Subscribe(scheduler)

	cleanup := newCleanup(cfg.ShutdownTimeout, scheduler, closeSink, store, providers)
	defer cleanup()

	if err := svc.Load(ctx); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Reminders loaded",
		"count", len(svc.List()),
		"armed", scheduler.Armed(),
		"timezone", loc.String(),
	)

	runner := notify.NewRunner(scheduler,
		notify.WithInterval(cfg.Scheduler.TickInterval),
		notify.WithOperationTimeout(cfg.Scheduler.OperationTimeout),
	)
	if err := runner.Start(ctx); err != nil {
		return fmt.Errorf("scheduler runner failed: %w", err)
	}

	slog.InfoContext(ctx, "Shutting down")
	return nil
}
