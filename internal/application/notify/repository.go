package notify

import (
	"context"

	"github.com/rezkam/reminders/internal/application/reminder"
)

// Notifier delivers a notification. Delivery is fire-and-forget:
// implementations swallow (and log) their own failures.
type Notifier interface {
	Notify(ctx context.Context, title, body string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, title, body string)

func (f NotifierFunc) Notify(ctx context.Context, title, body string) {
	f(ctx, title, body)
}

// MarkerStore persists small guard keys outside the reminder list,
// such as the last digest day. A missing key reads as "".
type MarkerStore interface {
	GetMarker(ctx context.Context, key string) (string, error)
	PutMarker(ctx context.Context, key, value string) error
}

// Source is the reminder state the scheduler evaluates.
// *reminder.Service implements it.
type Source interface {
	Snapshot() reminder.Snapshot
	MarkNotified(ctx context.Context, id string, day string) error
}
