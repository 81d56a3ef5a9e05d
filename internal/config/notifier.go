package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"time"
)

// Sink names accepted by REMINDERS_NOTIFY_SINKS.
const (
	SinkLog     = "log"
	SinkWebhook = "webhook"
	SinkNATS    = "nats"
)

var (
	// ErrWebhookURLRequired is returned when the webhook sink has no URL.
	ErrWebhookURLRequired = errors.New("REMINDERS_WEBHOOK_URL is required when REMINDERS_NOTIFY_SINKS includes 'webhook'")
	// ErrNATSURLRequired is returned when the nats sink has no server URL.
	ErrNATSURLRequired = errors.New("REMINDERS_NATS_URL is required when REMINDERS_NOTIFY_SINKS includes 'nats'")
)

// NotifierConfig selects the notification sinks. Every listed sink
// receives every notification.
type NotifierConfig struct {
	// Sinks is a comma-separated list, e.g. "log,webhook".
	Sinks []string `env:"REMINDERS_NOTIFY_SINKS" default:"log"`

	WebhookURL     string        `env:"REMINDERS_WEBHOOK_URL"`
	WebhookTimeout time.Duration `env:"REMINDERS_WEBHOOK_TIMEOUT" default:"10s"`

	NATSURL            string        `env:"REMINDERS_NATS_URL"`
	NATSSubject        string        `env:"REMINDERS_NATS_SUBJECT" default:"reminders.notifications"`
	NATSConnectTimeout time.Duration `env:"REMINDERS_NATS_CONNECT_TIMEOUT" default:"10s"`
}

// Enabled reports whether the named sink is listed.
func (c *NotifierConfig) Enabled(sink string) bool {
	return slices.Contains(c.Sinks, sink)
}

// Validate checks the notifier settings.
func (c *NotifierConfig) Validate() error {
	for _, s := range c.Sinks {
		switch s {
		case SinkLog, SinkWebhook, SinkNATS:
		default:
			return fmt.Errorf("unknown sink %q in REMINDERS_NOTIFY_SINKS (want %s, %s or %s)", s, SinkLog, SinkWebhook, SinkNATS)
		}
	}

	if c.WebhookURL != "" {
		u, err := url.Parse(c.WebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid REMINDERS_WEBHOOK_URL: %q", c.WebhookURL)
		}
	} else if c.Enabled(SinkWebhook) {
		return ErrWebhookURLRequired
	}

	if c.Enabled(SinkNATS) {
		if c.NATSURL == "" {
			return ErrNATSURLRequired
		}
		if c.NATSSubject == "" {
			return errors.New("REMINDERS_NATS_SUBJECT is required when REMINDERS_NOTIFY_SINKS includes 'nats'")
		}
	}
	return nil
}
