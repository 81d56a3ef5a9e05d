package notifier

import (
	"context"
	"log/slog"

	"github.com/rezkam/reminders/internal/application/notify"
)

// Log writes notifications to a structured logger.
type Log struct {
	logger *slog.Logger
}

var _ notify.Notifier = (*Log)(nil)

// NewLog creates a log sink. A nil logger uses slog.Default().
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger}
}

func (l *Log) Notify(ctx context.Context, title, body string) {
	l.logger.InfoContext(ctx, "Reminder notification", "title", title, "body", body)
}
