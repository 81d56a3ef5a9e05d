package main

import (
	"context"
	"fmt"

	"github.com/rezkam/reminders/internal/config"
	"github.com/rezkam/reminders/internal/storage"
	"github.com/rezkam/reminders/internal/storage/fs"
	"github.com/rezkam/reminders/internal/storage/gcs"
	"github.com/rezkam/reminders/internal/storage/memory"
	"github.com/rezkam/reminders/internal/storage/postgres"
	"github.com/rezkam/reminders/internal/storage/sqlite"
)

// openStore builds the backend selected by cfg.Type.
func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Backend, error) {
	var (
		store storage.Backend
		err   error
	)
	switch cfg.Type {
	case config.StorageMemory:
		store = memory.NewStore()
	case config.StorageFS:
		store, err = fs.NewStore(cfg.FSDir)
	case config.StorageSQLite:
		store, err = sqlite.NewStore(ctx, cfg.SQLitePath)
	case config.StoragePostgres:
		store, err = postgres.NewStoreWithConfig(ctx, postgres.DBConfig{
			DSN:             cfg.DSN,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		})
	case config.StorageGCS:
		store, err = gcs.NewStore(ctx, cfg.GCSBucket, cfg.GCSPrefix)
	default:
		return nil, fmt.Errorf("unknown storage type: %q", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Type, err)
	}
	return store, nil
}
