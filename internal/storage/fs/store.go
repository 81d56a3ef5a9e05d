package fs

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/rezkam/reminders/internal/domain"
	"github.com/rezkam/reminders/internal/storage"
	"github.com/rezkam/reminders/internal/storage/document"
)

const (
	listExt    = ".json"
	markersDir = "markers"
)

// Store is a filesystem-based implementation of storage.Backend.
// Each key is one JSON document; markers live in a subdirectory.
type Store struct {
	baseDir string
	mu      sync.RWMutex
}

var _ storage.Backend = (*Store)(nil)

// NewStore creates a new filesystem store.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(baseDir, markersDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

// fileName escapes key so any opaque key maps to a single path element.
func fileName(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty", storage.ErrInvalidKey)
	}
	return url.PathEscape(key), nil
}

func (s *Store) getFilePath(key string) (string, error) {
	name, err := fileName(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, name+listExt), nil
}

func (s *Store) getMarkerPath(key string) (string, error) {
	name, err := fileName(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, markersDir, name), nil
}

// Load reads the reminder list stored under key.
func (s *Store) Load(ctx context.Context, key string) ([]domain.Reminder, error) {
	path, err := s.getFilePath(key)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return document.Decode(data)
}

// Save replaces the reminder list stored under key.
func (s *Store) Save(ctx context.Context, key string, list []domain.Reminder) error {
	path, err := s.getFilePath(key)
	if err != nil {
		return err
	}

	data, err := document.Encode(list)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return writeAtomic(path, data)
}

func (s *Store) GetMarker(ctx context.Context, key string) (string, error) {
	path, err := s.getMarkerPath(key)
	if err != nil {
		return "", err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read marker: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (s *Store) PutMarker(ctx context.Context, key, value string) error {
	path, err := s.getMarkerPath(key)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return writeAtomic(path, []byte(value))
}

// Keys scans the directory for list documents.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var keys []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, listExt) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, listExt))
		if err != nil {
			// Not written by this store.
			continue
		}
		keys = append(keys, key)
	}

	slices.Sort(keys)
	return keys, nil
}

func (s *Store) Close() error {
	return nil
}

// writeAtomic writes to a temp file in the same directory, then renames it
// over path so readers never observe a partial document.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}
