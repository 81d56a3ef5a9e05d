package reminder

import (
	"context"

	"github.com/rezkam/reminders/internal/domain"
)

// Store persists the full reminder list under an opaque key.
// The service treats the list it holds in memory as the source of truth and
// always writes the complete set.
type Store interface {
	// Load returns the list stored under key.
	// Returns an empty list (not an error) when nothing was stored yet.
	Load(ctx context.Context, key string) ([]domain.Reminder, error)

	// Save replaces the list stored under key.
	Save(ctx context.Context, key string, list []domain.Reminder) error
}

// Snapshot is an immutable copy of the reminder list at a version.
// Versions increase monotonically with every committed mutation, so a
// listener can drop deliveries older than one it already processed.
type Snapshot struct {
	Version   uint64
	Reminders []domain.Reminder
}

// Listener is notified after every mutation that can change what should fire
// (create, edit, toggle, complete, delete, load).
type Listener interface {
	RemindersChanged(ctx context.Context, snap Snapshot)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(ctx context.Context, snap Snapshot)

func (f ListenerFunc) RemindersChanged(ctx context.Context, snap Snapshot) {
	f(ctx, snap)
}
