// Package sqlite is the on-device store: one embedded database file holding
// every reminder list and guard marker.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/rezkam/reminders/internal/domain"
	"github.com/rezkam/reminders/internal/storage"
	"github.com/rezkam/reminders/internal/storage/document"
	_ "modernc.org/sqlite" // SQLite driver
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// Store is a SQLite implementation of storage.Backend.
type Store struct {
	db *sql.DB
}

var _ storage.Backend = (*Store)(nil)

// NewStore opens (or creates) the database at path and runs migrations.
// Use ":memory:" for a throwaway database.
func NewStore(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	if path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection serializes writers and keeps ":memory:" databases
	// from being opened once per connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	migrations, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, r := range results {
		slog.DebugContext(ctx, "Applied migration", "version", r.Source.Version, "duration", r.Duration)
	}

	return nil
}

func (s *Store) Load(ctx context.Context, key string) ([]domain.Reminder, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty", storage.ErrInvalidKey)
	}

	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM reminder_lists WHERE list_key = ?`, key,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load reminders: %w", err)
	}

	return document.Decode([]byte(data))
}

func (s *Store) Save(ctx context.Context, key string, list []domain.Reminder) error {
	if key == "" {
		return fmt.Errorf("%w: empty", storage.ErrInvalidKey)
	}

	data, err := document.Encode(list)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO reminder_lists (list_key, document, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (list_key) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		key, string(data), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save reminders: %w", err)
	}
	return nil
}

func (s *Store) GetMarker(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM markers WHERE marker_key = ?`, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read marker: %w", err)
	}
	return value, nil
}

func (s *Store) PutMarker(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("%w: empty", storage.ErrInvalidKey)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO markers (marker_key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (marker_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to write marker: %w", err)
	}
	return nil
}

func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT list_key FROM reminder_lists ORDER BY list_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return keys, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
