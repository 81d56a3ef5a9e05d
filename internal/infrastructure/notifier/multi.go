package notifier

import (
	"context"

	"github.com/rezkam/reminders/internal/application/notify"
)

// Multi fans a notification out to every sink, in order.
type Multi []notify.Notifier

func (m Multi) Notify(ctx context.Context, title, body string) {
	for _, n := range m {
		n.Notify(ctx, title, body)
	}
}
