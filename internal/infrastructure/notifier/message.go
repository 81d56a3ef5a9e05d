// Package notifier holds the notification sinks the scheduler delivers to.
// Every sink is fire-and-forget: delivery failures are logged, never returned.
package notifier

import (
	"time"

	"github.com/nats-io/nuid"
)

// Message is the JSON payload published by the webhook and NATS sinks.
type Message struct {
	ID     string    `json:"id"`
	Title  string    `json:"title"`
	Body   string    `json:"body"`
	SentAt time.Time `json:"sent_at"`
}

func newMessage(title, body string, now time.Time) Message {
	return Message{
		ID:     nuid.Next(),
		Title:  title,
		Body:   body,
		SentAt: now.UTC(),
	}
}
