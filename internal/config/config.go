package config

import (
	"fmt"
	"time"

	"github.com/rezkam/reminders/internal/env"
)

// Config holds all configuration for the reminderd binary.
type Config struct {
	Storage         StorageConfig
	Scheduler       SchedulerConfig
	Notifier        NotifierConfig
	Observability   ObservabilityConfig
	ShutdownTimeout time.Duration `env:"REMINDERS_SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load loads and validates configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}
