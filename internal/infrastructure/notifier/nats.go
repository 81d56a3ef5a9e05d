package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rezkam/reminders/internal/application/notify"
)

// DefaultSubject is the NATS subject notifications are published on.
const DefaultSubject = "reminders.notifications"

// Publisher is the subset of *nats.Conn the NATS sink needs.
type Publisher interface {
	PublishMsg(m *nats.Msg) error
}

// NATS publishes each notification as a JSON Message. The message id is
// set as the Nats-Msg-Id header so JetStream consumers can de-duplicate.
type NATS struct {
	pub     Publisher
	subject string
	now     func() time.Time
}

var _ notify.Notifier = (*NATS)(nil)

// NewNATS creates a NATS sink publishing on subject.
func NewNATS(pub Publisher, subject string) *NATS {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATS{pub: pub, subject: subject, now: time.Now}
}

func (n *NATS) Notify(ctx context.Context, title, body string) {
	msg := newMessage(title, body, n.now())
	payload, err := json.Marshal(msg)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to marshal notification", "error", err)
		return
	}

	m := nats.NewMsg(n.subject)
	m.Header.Set(nats.MsgIdHdr, msg.ID)
	m.Data = payload

	if err := n.pub.PublishMsg(m); err != nil {
		slog.ErrorContext(ctx, "Failed to publish notification", "subject", n.subject, "title", title, "error", err)
	}
}

// ConnectNATS dials the server at url, retrying until timeout elapses.
func ConnectNATS(url string, timeout time.Duration) (*nats.Conn, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for {
		conn, err := nats.Connect(url,
			nats.Name("reminderd"),
			nats.MaxReconnects(-1),
		)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		if !time.Now().Before(deadline) {
			return nil, fmt.Errorf("connect nats timeout after %s: %w", timeout, lastErr)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

// CloseNATS drains pending publishes, then closes the connection.
func CloseNATS(conn *nats.Conn) {
	if conn == nil {
		return
	}
	_ = conn.Drain()
	conn.Close()
}
