package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/rezkam/reminders/internal/application/notify"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultWebhookTimeout bounds a single webhook delivery.
const DefaultWebhookTimeout = 10 * time.Second

// Webhook POSTs each notification as a JSON Message.
type Webhook struct {
	url    string
	client *http.Client
	now    func() time.Time
}

var _ notify.Notifier = (*Webhook)(nil)

// NewWebhook creates a webhook sink. The transport is instrumented so each
// delivery is a client span propagating trace context.
func NewWebhook(url string, timeout time.Duration) *Webhook {
	if timeout <= 0 {
		timeout = DefaultWebhookTimeout
	}
	return &Webhook{
		url: url,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		now: time.Now,
	}
}

func (w *Webhook) Notify(ctx context.Context, title, body string) {
	if err := w.send(ctx, newMessage(title, body, w.now())); err != nil {
		slog.ErrorContext(ctx, "Failed to deliver webhook notification", "url", w.url, "title", title, "error", err)
	}
}

func (w *Webhook) send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", msg.ID)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post notification: %w", err)
	}
	defer resp.Body.Close()
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
