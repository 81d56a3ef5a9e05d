// Package storage defines the contract shared by every reminder store backend.
package storage

import (
	"context"
	"errors"
	"io"

	"github.com/rezkam/reminders/internal/application/notify"
	"github.com/rezkam/reminders/internal/application/reminder"
)

// ErrInvalidKey is returned for an empty or malformed store key.
var ErrInvalidKey = errors.New("invalid store key")

// Backend persists reminder lists and guard markers by opaque key.
// Loading a key that was never saved returns an empty list.
type Backend interface {
	reminder.Store
	notify.MarkerStore
	io.Closer

	// Keys returns every key with a saved reminder list, sorted.
	Keys(ctx context.Context) ([]string, error)
}
