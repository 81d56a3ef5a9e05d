package domain

import (
	"fmt"
	"slices"
	"time"
)

// ReminderInput carries the user-editable fields of a reminder for create,
// edit and preview. Exactly one of DueAt (one-off) or Schedule (recurring) is
// meaningful, selected by Kind.
type ReminderInput struct {
	Kind         Kind
	Title        string
	Level        Level        // Empty defaults to LevelQuick
	ConflictMode ConflictMode // Empty defaults to ConflictAllow

	DueAt    time.Time // One-off only
	Schedule *Schedule // Recurring only
}

// Normalize validates the input and returns a cleaned copy: trimmed title,
// defaulted enums, sorted and de-duplicated weekday/date sets.
// All failures are *ValidationError.
func (in ReminderInput) Normalize() (ReminderInput, error) {
	out := in

	kind, err := NewKind(string(in.Kind))
	if err != nil {
		return ReminderInput{}, err
	}
	out.Kind = kind

	title, err := NewTitle(in.Title)
	if err != nil {
		return ReminderInput{}, err
	}
	out.Title = title.String()

	if out.Level, err = NewLevel(string(in.Level)); err != nil {
		return ReminderInput{}, err
	}
	if out.ConflictMode, err = NewConflictMode(string(in.ConflictMode)); err != nil {
		return ReminderInput{}, err
	}

	switch kind {
	case KindOneOff:
		if in.DueAt.IsZero() {
			return ReminderInput{}, invalid("due_at", ErrDueAtRequired)
		}
		out.Schedule = nil
	case KindRecurring:
		if in.Schedule == nil {
			return ReminderInput{}, invalid("schedule", ErrScheduleRequired)
		}
		sched, err := in.Schedule.Normalize()
		if err != nil {
			return ReminderInput{}, err
		}
		out.Schedule = &sched
		out.DueAt = time.Time{}
	}

	return out, nil
}

// Normalize validates the schedule parameters for its type and returns a
// cleaned copy with irrelevant parameters cleared.
func (s Schedule) Normalize() (Schedule, error) {
	st, err := NewScheduleType(string(s.Type))
	if err != nil {
		return Schedule{}, err
	}
	if _, err := NewTimeOfDay(s.TimeOfDay.Hour, s.TimeOfDay.Minute); err != nil {
		return Schedule{}, err
	}

	out := Schedule{Type: st, TimeOfDay: s.TimeOfDay}

	switch st {
	case ScheduleInterval:
		if s.Every <= 0 {
			return Schedule{}, invalid("every", fmt.Errorf("%w: %d", ErrInvalidInterval, s.Every))
		}
		unit, err := NewIntervalUnit(string(s.Unit))
		if err != nil {
			return Schedule{}, err
		}
		out.Every = s.Every
		out.Unit = unit

	case ScheduleDaily:
		// No parameters beyond the time of day.

	case ScheduleWeekly:
		if len(s.Weekdays) == 0 {
			return Schedule{}, invalid("weekdays", ErrWeekdaysRequired)
		}
		for _, wd := range s.Weekdays {
			if wd < time.Sunday || wd > time.Saturday {
				return Schedule{}, invalid("weekdays", fmt.Errorf("%w: %d", ErrInvalidWeekday, wd))
			}
		}
		days := slices.Clone(s.Weekdays)
		slices.Sort(days)
		out.Weekdays = slices.Compact(days)

	case ScheduleMonthlyDay:
		if s.DayOfMonth < 1 || s.DayOfMonth > 31 {
			return Schedule{}, invalid("day_of_month", fmt.Errorf("%w: %d", ErrInvalidDayOfMonth, s.DayOfMonth))
		}
		out.DayOfMonth = s.DayOfMonth

	case ScheduleAnniversary:
		if !s.BaseDate.Valid() {
			return Schedule{}, invalid("base_date", fmt.Errorf("%w: %s", ErrInvalidBaseDate, s.BaseDate))
		}
		out.BaseDate = s.BaseDate

	case ScheduleFixedDates:
		if len(s.Dates) == 0 {
			return Schedule{}, invalid("dates", ErrDatesRequired)
		}
		for _, d := range s.Dates {
			if !d.Valid() {
				return Schedule{}, invalid("dates", fmt.Errorf("%w: %s", ErrInvalidDate, d))
			}
		}
		dates := slices.Clone(s.Dates)
		slices.SortFunc(dates, compareDates)
		out.Dates = slices.Compact(dates)
	}

	return out, nil
}

func compareDates(a, b Date) int {
	switch {
	case a.Before(b):
		return -1
	case b.Before(a):
		return 1
	default:
		return 0
	}
}
