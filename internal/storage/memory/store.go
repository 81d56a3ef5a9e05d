// Package memory is an in-process store, used in tests and when nothing
// needs to survive a restart.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/rezkam/reminders/internal/domain"
	"github.com/rezkam/reminders/internal/storage"
)

// Store keeps deep copies so callers never alias stored data.
type Store struct {
	mu      sync.RWMutex
	lists   map[string][]domain.Reminder
	markers map[string]string
}

var _ storage.Backend = (*Store)(nil)

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		lists:   make(map[string][]domain.Reminder),
		markers: make(map[string]string),
	}
}

func (s *Store) Load(_ context.Context, key string) ([]domain.Reminder, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty", storage.ErrInvalidKey)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneList(s.lists[key]), nil
}

func (s *Store) Save(_ context.Context, key string, list []domain.Reminder) error {
	if key == "" {
		return fmt.Errorf("%w: empty", storage.ErrInvalidKey)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[key] = domain.CloneList(list)
	if s.lists[key] == nil {
		s.lists[key] = []domain.Reminder{}
	}
	return nil
}

func (s *Store) GetMarker(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.markers[key], nil
}

func (s *Store) PutMarker(_ context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("%w: empty", storage.ErrInvalidKey)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[key] = value
	return nil
}

func (s *Store) Keys(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.lists))
	for k := range s.lists {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

func (s *Store) Close() error {
	return nil
}
