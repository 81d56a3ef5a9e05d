package domain

import (
	"fmt"
	"strings"
)

// Kind tags which variant of the Reminder union is populated.
type Kind string

const (
	KindOneOff    Kind = "ONE_OFF"
	KindRecurring Kind = "RECURRING"
)

// Level represents how much effort a reminder takes.
// Value object - informational only, it never affects scheduling.
type Level string

const (
	LevelQuick  Level = "QUICK"
	LevelMedium Level = "MEDIUM"
	LevelLong   Level = "LONG"
)

// ConflictMode controls what happens when a candidate occurrence lands on the
// same calendar day as another active reminder.
type ConflictMode string

const (
	ConflictAllow ConflictMode = "ALLOW"
	ConflictShift ConflictMode = "SHIFT"
	ConflictBlock ConflictMode = "BLOCK"
)

// ScheduleType represents the recurrence kind of a recurring reminder.
// Value object - immutable string enum.
type ScheduleType string

const (
	ScheduleInterval    ScheduleType = "INTERVAL"
	ScheduleDaily       ScheduleType = "DAILY"
	ScheduleWeekly      ScheduleType = "WEEKLY"
	ScheduleMonthlyDay  ScheduleType = "MONTHLY_DAY"
	ScheduleAnniversary ScheduleType = "ANNIVERSARY"
	ScheduleFixedDates  ScheduleType = "FIXED_DATES"
)

// IntervalUnit is the step unit of an Interval schedule.
type IntervalUnit string

const (
	UnitDay  IntervalUnit = "DAY"
	UnitWeek IntervalUnit = "WEEK"
)

// Days returns the length of one unit in days.
func (u IntervalUnit) Days() int {
	if u == UnitWeek {
		return 7
	}
	return 1
}

// NewKind validates and creates a Kind.
func NewKind(s string) (Kind, error) {
	kind := Kind(strings.ToUpper(s))

	switch kind {
	case KindOneOff, KindRecurring:
		return kind, nil
	default:
		return "", invalid("kind", fmt.Errorf("%w: %s", ErrInvalidKind, s))
	}
}

// NewLevel validates and creates a Level.
// Empty input defaults to LevelQuick.
func NewLevel(s string) (Level, error) {
	if s == "" {
		return LevelQuick, nil
	}

	level := Level(strings.ToUpper(s))

	switch level {
	case LevelQuick, LevelMedium, LevelLong:
		return level, nil
	default:
		return "", invalid("level", fmt.Errorf("%w: %s", ErrInvalidLevel, s))
	}
}

// NewConflictMode validates and creates a ConflictMode.
// Empty input defaults to ConflictAllow.
func NewConflictMode(s string) (ConflictMode, error) {
	if s == "" {
		return ConflictAllow, nil
	}

	mode := ConflictMode(strings.ToUpper(s))

	switch mode {
	case ConflictAllow, ConflictShift, ConflictBlock:
		return mode, nil
	default:
		return "", invalid("conflict_mode", fmt.Errorf("%w: %s", ErrInvalidConflictMode, s))
	}
}

// NewScheduleType validates and creates a ScheduleType.
func NewScheduleType(s string) (ScheduleType, error) {
	st := ScheduleType(strings.ToUpper(s))

	switch st {
	case ScheduleInterval, ScheduleDaily, ScheduleWeekly,
		ScheduleMonthlyDay, ScheduleAnniversary, ScheduleFixedDates:
		return st, nil
	default:
		return "", invalid("schedule_type", fmt.Errorf("%w: %s", ErrInvalidScheduleType, s))
	}
}

// NewIntervalUnit validates and creates an IntervalUnit.
// Empty input defaults to UnitDay.
func NewIntervalUnit(s string) (IntervalUnit, error) {
	if s == "" {
		return UnitDay, nil
	}

	unit := IntervalUnit(strings.ToUpper(s))

	switch unit {
	case UnitDay, UnitWeek:
		return unit, nil
	default:
		return "", invalid("unit", fmt.Errorf("%w: %s", ErrInvalidInterval, s))
	}
}
