package domain

import (
	"slices"
	"time"

	"github.com/rezkam/reminders/internal/ptr"
)

// Reminder is the aggregate root of the reminder engine.
// It is a tagged union: exactly one of OneOff or Recurring is set, matching Kind.
type Reminder struct {
	ID           string
	Title        string
	Level        Level
	ConflictMode ConflictMode
	Kind         Kind

	CreatedAt time.Time
	UpdatedAt time.Time

	OneOff    *OneOff    // Set when Kind == KindOneOff
	Recurring *Recurring // Set when Kind == KindRecurring
}

// OneOff is a reminder that is due exactly once.
// State machine: Pending <-> Done via toggle.
type OneOff struct {
	DueAt  time.Time
	Done   bool
	DoneAt *time.Time
}

// Recurring is a reminder that repeats according to Schedule.
//
// NextDueAt is the cached, authoritative current occurrence. It is only ever
// written by the calculator + resolver pipeline (create, edit, complete).
type Recurring struct {
	Schedule  Schedule
	NextDueAt time.Time

	// Enabled=false pauses the reminder: it keeps its NextDueAt but is
	// invisible to conflict detection and notification firing.
	Enabled bool

	// LastNotifiedDate is the YYYY-MM-DD day an overdue alert was last fired.
	// Empty means never.
	LastNotifiedDate string

	// PaidAt is the timestamp of the last completion.
	PaidAt *time.Time
}

// Schedule describes when a recurring reminder repeats.
// Only the parameters relevant to Type are meaningful.
type Schedule struct {
	Type      ScheduleType
	TimeOfDay TimeOfDay

	// Interval
	Every int
	Unit  IntervalUnit

	// Weekly (0 = Sunday ... 6 = Saturday)
	Weekdays []time.Weekday

	// MonthlyDay (1-31, clamped to the month's last day)
	DayOfMonth int

	// Anniversary (year ignored)
	BaseDate Date

	// FixedDates (sorted ascending, unique)
	Dates []Date
}

// IsOneOff reports whether r is the one-off variant.
func (r *Reminder) IsOneOff() bool {
	return r.Kind == KindOneOff && r.OneOff != nil
}

// IsRecurring reports whether r is the recurring variant.
func (r *Reminder) IsRecurring() bool {
	return r.Kind == KindRecurring && r.Recurring != nil
}

// Occurrence returns the single upcoming due instant represented by r and
// whether r currently counts as active. Done one-offs and paused recurring
// reminders are inactive.
func (r *Reminder) Occurrence() (time.Time, bool) {
	switch {
	case r.IsOneOff():
		return r.OneOff.DueAt, !r.OneOff.Done
	case r.IsRecurring():
		return r.Recurring.NextDueAt, r.Recurring.Enabled
	default:
		return time.Time{}, false
	}
}

// Clone returns a deep copy of r so mutations never alias the caller's list.
func (r Reminder) Clone() Reminder {
	out := r
	if r.OneOff != nil {
		o := *r.OneOff
		o.DoneAt = ptr.Clone(o.DoneAt)
		out.OneOff = &o
	}
	if r.Recurring != nil {
		rec := *r.Recurring
		rec.Schedule = r.Recurring.Schedule.Clone()
		rec.PaidAt = ptr.Clone(rec.PaidAt)
		out.Recurring = &rec
	}
	return out
}

// Clone returns a deep copy of s.
func (s Schedule) Clone() Schedule {
	out := s
	out.Weekdays = slices.Clone(s.Weekdays)
	out.Dates = slices.Clone(s.Dates)
	return out
}

// CloneList deep-copies a reminder list.
func CloneList(list []Reminder) []Reminder {
	if list == nil {
		return nil
	}
	out := make([]Reminder, len(list))
	for i := range list {
		out[i] = list[i].Clone()
	}
	return out
}
