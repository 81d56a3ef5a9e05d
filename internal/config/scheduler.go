package config

import (
	"fmt"
	"time"
)

// SchedulerConfig holds the reminder engine and scheduler settings.
type SchedulerConfig struct {
	// OwnerKey is the store key of the reminder list this process manages.
	OwnerKey string `env:"REMINDERS_OWNER_KEY" default:"default"`
	// Timezone is an IANA name; all wall-clock reasoning happens in it.
	Timezone         string        `env:"REMINDERS_TIMEZONE" default:"Local"`
	TickInterval     time.Duration `env:"REMINDERS_TICK_INTERVAL" default:"1m"`
	OperationTimeout time.Duration `env:"REMINDERS_OPERATION_TIMEOUT" default:"30s"`
	Horizon          time.Duration `env:"REMINDERS_HORIZON" default:"24h"`
	Guard            time.Duration `env:"REMINDERS_GUARD" default:"60s"`
	MaxShiftAttempts int           `env:"REMINDERS_MAX_SHIFT_ATTEMPTS" default:"520"`
	DigestKey        string        `env:"REMINDERS_DIGEST_KEY" default:"last_digest_day"`
}

// Location resolves Timezone.
func (c *SchedulerConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid REMINDERS_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate checks the scheduler settings.
func (c *SchedulerConfig) Validate() error {
	if c.OwnerKey == "" {
		return fmt.Errorf("REMINDERS_OWNER_KEY must not be empty")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("REMINDERS_TICK_INTERVAL must be positive, got %s", c.TickInterval)
	}
	if c.Horizon <= 0 {
		return fmt.Errorf("REMINDERS_HORIZON must be positive, got %s", c.Horizon)
	}
	if c.Guard < 0 {
		return fmt.Errorf("REMINDERS_GUARD must not be negative, got %s", c.Guard)
	}
	if c.MaxShiftAttempts <= 0 {
		return fmt.Errorf("REMINDERS_MAX_SHIFT_ATTEMPTS must be positive, got %d", c.MaxShiftAttempts)
	}
	return nil
}
