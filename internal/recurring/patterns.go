package recurring

import (
	"slices"
	"time"

	"github.com/rezkam/reminders/internal/domain"
)

// Search bounds. They exist only to guarantee termination.
const (
	maxIntervalSteps = 40000 // > 100 years of daily steps
	weeklyScanDays   = 366
	monthlyScanCount = 36
	anniversaryYears = 10
)

// IntervalCalculator repeats every N days or weeks.
// The first candidate is From's date at the time of day; it steps by the
// interval until the window accepts it.
type IntervalCalculator struct{}

func (c *IntervalCalculator) NextOccurrence(s domain.Schedule, w Window) *time.Time {
	every := s.Every
	if every <= 0 {
		every = 1
	}
	return stepUntilAccepted(s.TimeOfDay, every*s.Unit.Days(), w)
}

// DailyCalculator repeats every day.
type DailyCalculator struct{}

func (c *DailyCalculator) NextOccurrence(s domain.Schedule, w Window) *time.Time {
	return stepUntilAccepted(s.TimeOfDay, 1, w)
}

func stepUntilAccepted(tod domain.TimeOfDay, stepDays int, w Window) *time.Time {
	loc := w.From.Location()
	next := domain.DateOf(w.From).At(tod, loc)

	for range maxIntervalSteps {
		if w.Accepts(next) {
			return &next
		}
		next = next.AddDate(0, 0, stepDays)
	}

	return nil
}

// WeeklyCalculator repeats on a set of weekdays.
type WeeklyCalculator struct{}

func (c *WeeklyCalculator) NextOccurrence(s domain.Schedule, w Window) *time.Time {
	if len(s.Weekdays) == 0 {
		return nil
	}

	loc := w.From.Location()
	day := w.scanStart()

	for range weeklyScanDays {
		next := day.At(s.TimeOfDay, loc)
		if slices.Contains(s.Weekdays, next.Weekday()) && w.Accepts(next) {
			return &next
		}
		day = day.AddDays(1)
	}

	return nil
}

// MonthlyDayCalculator repeats on a day of the month.
// Days past the end of a month clamp to its last day (31 -> Feb 28/29).
type MonthlyDayCalculator struct{}

func (c *MonthlyDayCalculator) NextOccurrence(s domain.Schedule, w Window) *time.Time {
	if s.DayOfMonth < 1 {
		return nil
	}

	loc := w.From.Location()
	start := w.scanStart()

	for i := range monthlyScanCount {
		// Normalize via time.Date so month overflow rolls the year.
		first := time.Date(start.Year, start.Month+time.Month(i), 1, 0, 0, 0, 0, time.UTC)
		y, m := first.Year(), first.Month()

		day := domain.Date{Year: y, Month: m, Day: domain.ClampDay(y, m, s.DayOfMonth)}
		next := day.At(s.TimeOfDay, loc)
		if w.Accepts(next) {
			return &next
		}
	}

	return nil
}

// AnniversaryCalculator repeats yearly on the base date's month and day.
// Feb 29 clamps to Feb 28 in common years.
type AnniversaryCalculator struct{}

func (c *AnniversaryCalculator) NextOccurrence(s domain.Schedule, w Window) *time.Time {
	base := s.BaseDate
	if base.Month < time.January || base.Month > time.December || base.Day < 1 {
		return nil
	}

	loc := w.From.Location()
	start := w.scanStart()

	for i := range anniversaryYears {
		y := start.Year + i
		day := domain.Date{Year: y, Month: base.Month, Day: domain.ClampDay(y, base.Month, base.Day)}
		next := day.At(s.TimeOfDay, loc)
		if w.Accepts(next) {
			return &next
		}
	}

	return nil
}

// FixedDatesCalculator returns the earliest listed date the window accepts.
// Dates are expected sorted ascending.
type FixedDatesCalculator struct{}

func (c *FixedDatesCalculator) NextOccurrence(s domain.Schedule, w Window) *time.Time {
	loc := w.From.Location()

	for _, d := range s.Dates {
		next := d.At(s.TimeOfDay, loc)
		if w.Accepts(next) {
			return &next
		}
	}

	return nil
}
