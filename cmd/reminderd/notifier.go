package main

import (
	"fmt"
	"log/slog"

	"github.com/rezkam/reminders/internal/application/notify"
	"github.com/rezkam/reminders/internal/config"
	"github.com/rezkam/reminders/internal/infrastructure/notifier"
)

// buildNotifier assembles the listed sinks in order. The returned func
// releases any connections they hold.
func buildNotifier(cfg config.NotifierConfig) (notify.Notifier, func(), error) {
	var (
		sinks   notifier.Multi
		closers []func()
	)

	for _, name := range cfg.Sinks {
		switch name {
		case config.SinkLog:
			sinks = append(sinks, notifier.NewLog(nil))
		case config.SinkWebhook:
			sinks = append(sinks, notifier.NewWebhook(cfg.WebhookURL, cfg.WebhookTimeout))
		case config.SinkNATS:
			conn, err := notifier.ConnectNATS(cfg.NATSURL, cfg.NATSConnectTimeout)
			if err != nil {
				for _, c := range closers {
					c()
				}
				return nil, nil, err
			}
			sinks = append(sinks, notifier.NewNATS(conn, cfg.NATSSubject))
			closers = append(closers, func() { notifier.CloseNATS(conn) })
		default:
			return nil, nil, fmt.Errorf("unknown notification sink %q", name)
		}
	}
	if len(sinks) == 0 {
		slog.Warn("No notification sinks enabled; reminders will fire silently")
	}

	return sinks, func() {
		for _, c := range closers {
			c()
		}
	}, nil
}
