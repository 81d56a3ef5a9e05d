package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Pool defaults. One owner's reminder list needs only a handful of connections.
const (
	defaultMaxConns        = 4
	defaultMinConns        = 1
	defaultConnMaxLifetime = 30 * time.Minute
	defaultConnMaxIdleTime = 5 * time.Minute
)

// DBConfig holds PostgreSQL connection configuration. Zero values select
// the package defaults.
type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

func (c DBConfig) poolConfig() (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(c.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	pc.MaxConns = int32(orDefault(c.MaxOpenConns, defaultMaxConns))
	pc.MinConns = int32(orDefault(c.MaxIdleConns, defaultMinConns))
	pc.MaxConnLifetime = orDefault(c.ConnMaxLifetime, defaultConnMaxLifetime)
	pc.MaxConnIdleTime = orDefault(c.ConnMaxIdleTime, defaultConnMaxIdleTime)

	// updated_at columns are compared across sessions.
	pc.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, "SET TIMEZONE='UTC'")
		return err
	}
	return pc, nil
}

func orDefault[T int | time.Duration](v, def T) T {
	if v <= 0 {
		return def
	}
	return v
}

// NewStoreWithConfig connects, verifies the connection and applies pending
// migrations before returning the store.
func NewStoreWithConfig(ctx context.Context, cfg DBConfig) (*Store, error) {
	pc, err := cfg.poolConfig()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return NewStore(pool), nil
}

// NewPostgresStore creates a PostgreSQL store with default pool settings.
func NewPostgresStore(ctx context.Context, dsn string) (*Store, error) {
	return NewStoreWithConfig(ctx, DBConfig{DSN: dsn})
}

// migrate runs the embedded goose migrations over a database/sql handle
// borrowed from the pool.
func migrate(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer func() {
		if err := db.Close(); err != nil {
			slog.ErrorContext(ctx, "Failed to close migration handle", "error", err)
		}
	}()

	migrations, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, r := range results {
		slog.InfoContext(ctx, "Applied migration", "version", r.Source.Version, "duration", r.Duration)
	}
	return nil
}
