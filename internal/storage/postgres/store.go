package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rezkam/reminders/internal/domain"
	"github.com/rezkam/reminders/internal/storage"
	"github.com/rezkam/reminders/internal/storage/document"
)

// Store is a PostgreSQL implementation of storage.Backend.
// Each key is one JSONB document row, so a save is a single upsert.
type Store struct {
	pool *pgxpool.Pool
}

var _ storage.Backend = (*Store)(nil)

// NewStore creates a new PostgreSQL store with the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Pool returns the underlying connection pool.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

func (s *Store) Load(ctx context.Context, key string) ([]domain.Reminder, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty", storage.ErrInvalidKey)
	}

	var data []byte
	err := s.pool.QueryRow(ctx,
		`SELECT document FROM reminder_lists WHERE list_key = $1`, key,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load reminders: %w", err)
	}

	return document.Decode(data)
}

func (s *Store) Save(ctx context.Context, key string, list []domain.Reminder) error {
	if key == "" {
		return fmt.Errorf("%w: empty", storage.ErrInvalidKey)
	}

	data, err := document.Encode(list)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO reminder_lists (list_key, document, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (list_key) DO UPDATE SET document = EXCLUDED.document, updated_at = now()`,
		key, data,
	)
	if err != nil {
		return fmt.Errorf("failed to save reminders: %w", err)
	}
	return nil
}

func (s *Store) GetMarker(ctx context.Context, key string) (string, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM markers WHERE marker_key = $1`, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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

	_, err := s.pool.Exec(ctx, `
		INSERT INTO markers (marker_key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (marker_key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("failed to write marker: %w", err)
	}
	return nil
}

func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT list_key FROM reminder_lists ORDER BY list_key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	return keys, nil
}

// Close closes the database connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
