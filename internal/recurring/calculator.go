package recurring

import (
	"time"

	"github.com/rezkam/reminders/internal/domain"
)

// DefaultGuard is the minimum lead a candidate must have over "now" to be
// selected, so evaluation latency never yields an occurrence that is
// effectively already due.
const DefaultGuard = 60 * time.Second

// Window bounds a candidate search.
// A candidate is accepted when it is strictly after From and not before NotBefore.
type Window struct {
	From      time.Time
	NotBefore time.Time
}

// NewWindow builds the window for a search starting at from, evaluated at now.
func NewWindow(from, now time.Time, guard time.Duration) Window {
	return Window{From: from, NotBefore: now.Add(guard)}
}

// Accepts reports whether t is a valid candidate for w.
func (w Window) Accepts(t time.Time) bool {
	return t.After(w.From) && !t.Before(w.NotBefore)
}

// scanStart is the earliest calendar day that can hold an accepted candidate.
func (w Window) scanStart() domain.Date {
	start := w.From
	if nb := w.NotBefore.In(w.From.Location()); nb.After(start) {
		start = nb
	}
	return domain.DateOf(start)
}

// PatternCalculator calculates the next occurrence for one schedule type.
type PatternCalculator interface {
	// NextOccurrence returns the earliest occurrence accepted by w.
	// Returns nil if there is no such occurrence within the calculator's search bound.
	NextOccurrence(s domain.Schedule, w Window) *time.Time
}

// GetCalculator returns the appropriate calculator for the given schedule type.
func GetCalculator(st domain.ScheduleType) PatternCalculator {
	switch st {
	case domain.ScheduleInterval:
		return &IntervalCalculator{}
	case domain.ScheduleDaily:
		return &DailyCalculator{}
	case domain.ScheduleWeekly:
		return &WeeklyCalculator{}
	case domain.ScheduleMonthlyDay:
		return &MonthlyDayCalculator{}
	case domain.ScheduleAnniversary:
		return &AnniversaryCalculator{}
	case domain.ScheduleFixedDates:
		return &FixedDatesCalculator{}
	default:
		return nil
	}
}

// NextOccurrence is the calculator entry point: the next occurrence of s
// strictly after from and at least guard ahead of now, anchored at s.TimeOfDay
// in from's location. Returns nil for unknown schedule types or exhausted schedules.
func NextOccurrence(s domain.Schedule, from, now time.Time, guard time.Duration) *time.Time {
	calc := GetCalculator(s.Type)
	if calc == nil {
		return nil
	}
	return calc.NextOccurrence(s, NewWindow(from, now, guard))
}

// AdvanceFrom returns where the search for the next occurrence starts after
// completing the occurrence due. Interval schedules keep their cadence and
// step from the completed occurrence itself; every other type restarts at the
// beginning of the following day.
func AdvanceFrom(s domain.Schedule, due time.Time) time.Time {
	if s.Type == domain.ScheduleInterval {
		return due
	}
	return domain.DateOf(due).AddDays(1).StartOfDay(due.Location())
}
