package config

import (
	"fmt"
	"log/slog"
)

// ObservabilityConfig holds observability configuration.
type ObservabilityConfig struct {
	OTelEnabled bool   `env:"REMINDERS_OTEL_ENABLED" default:"false"`
	ServiceName string `env:"OTEL_SERVICE_NAME"`
	LogLevel    string `env:"REMINDERS_LOG_LEVEL" default:"info"`
}

// Level parses LogLevel (debug, info, warn, error).
func (c *ObservabilityConfig) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid REMINDERS_LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}

func (c *ObservabilityConfig) Validate() error {
	_, err := c.Level()
	return err
}
