package recurring

import (
	"errors"
	"testing"
	"time"

	"github.com/rezkam/reminders/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func oneOff(id string, due time.Time) domain.Reminder {
	return domain.Reminder{ID: id, Kind: domain.KindOneOff, OneOff: &domain.OneOff{DueAt: due}}
}

func recurringAt(id string, due time.Time, enabled bool) domain.Reminder {
	return domain.Reminder{
		ID:   id,
		Kind: domain.KindRecurring,
		Recurring: &domain.Recurring{
			Schedule:  domain.Schedule{Type: domain.ScheduleDaily, TimeOfDay: nine},
			NextDueAt: due,
			Enabled:   enabled,
		},
	}
}

var thursdays = domain.Schedule{
	Type:      domain.ScheduleWeekly,
	TimeOfDay: nine,
	Weekdays:  []time.Weekday{time.Thursday},
}

func TestResolver_NoConflict(t *testing.T) {
	r := NewResolver()
	now := at(2026, 3, 1, 10, 0)

	got, err := r.Resolve(Request{Schedule: thursdays, Mode: domain.ConflictBlock, From: now, Now: now}, nil)
	require.NoError(t, err)
	assert.Equal(t, at(2026, 3, 5, 9, 0), got)
}

func TestResolver_Modes(t *testing.T) {
	now := at(2026, 3, 1, 10, 0)
	active := []domain.Reminder{oneOff("rent", at(2026, 3, 5, 18, 0))}

	t.Run("allow ignores conflict", func(t *testing.T) {
		got, err := NewResolver().Resolve(Request{Schedule: thursdays, Mode: domain.ConflictAllow, From: now, Now: now}, active)
		require.NoError(t, err)
		assert.Equal(t, at(2026, 3, 5, 9, 0), got)
	})

	t.Run("block returns conflict signal", func(t *testing.T) {
		_, err := NewResolver().Resolve(Request{Schedule: thursdays, Mode: domain.ConflictBlock, From: now, Now: now}, active)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrConflict)

		cerr, ok := domain.AsConflict(err)
		require.True(t, ok)
		assert.Equal(t, "2026-03-05", cerr.DateKey)
		assert.Equal(t, at(2026, 3, 5, 9, 0), cerr.Candidate)
		assert.Equal(t, []string{"rent"}, cerr.ConflictingIDs)
	})

	t.Run("shift moves to next free day", func(t *testing.T) {
		got, err := NewResolver().Resolve(Request{Schedule: thursdays, Mode: domain.ConflictShift, From: now, Now: now}, active)
		require.NoError(t, err)
		assert.Equal(t, at(2026, 3, 12, 9, 0), got)
		assert.False(t, HasDayConflict(active, domain.DateOf(got), time.UTC, ""))
	})
}

func TestResolver_ExcludesSelfAndInactive(t *testing.T) {
	now := at(2026, 3, 1, 10, 0)
	active := []domain.Reminder{
		recurringAt("self", at(2026, 3, 5, 9, 0), true),
		recurringAt("paused", at(2026, 3, 5, 9, 0), false),
		{ID: "done", Kind: domain.KindOneOff, OneOff: &domain.OneOff{DueAt: at(2026, 3, 5, 8, 0), Done: true}},
	}

	got, err := NewResolver().Resolve(Request{
		Schedule:  thursdays,
		Mode:      domain.ConflictBlock,
		From:      now,
		Now:       now,
		ExcludeID: "self",
	}, active)
	require.NoError(t, err)
	assert.Equal(t, at(2026, 3, 5, 9, 0), got)
}

func TestResolver_ShiftAcrossFixedDates(t *testing.T) {
	now := at(2026, 1, 1, 0, 0)
	s := domain.Schedule{
		Type:      domain.ScheduleFixedDates,
		TimeOfDay: nine,
		Dates:     []domain.Date{date(2026, 1, 5), date(2026, 1, 6), date(2026, 2, 1)},
	}
	active := []domain.Reminder{
		oneOff("a", at(2026, 1, 5, 12, 0)),
		recurringAt("b", at(2026, 1, 6, 7, 0), true),
	}

	got, err := NewResolver().Resolve(Request{Schedule: s, Mode: domain.ConflictShift, From: now, Now: now}, active)
	require.NoError(t, err)
	assert.Equal(t, at(2026, 2, 1, 9, 0), got)
}

func TestResolver_Unsolvable(t *testing.T) {
	now := at(2026, 12, 1, 0, 0)
	s := domain.Schedule{Type: domain.ScheduleFixedDates, TimeOfDay: nine, Dates: []domain.Date{date(2026, 1, 5)}}

	_, err := NewResolver().Resolve(Request{Schedule: s, Mode: domain.ConflictShift, From: now, Now: now}, nil)
	assert.ErrorIs(t, err, domain.ErrUnsolvableSchedule)
	assert.False(t, errors.Is(err, domain.ErrRetryExhausted))
}

func TestResolver_ShiftExhausted(t *testing.T) {
	now := at(2026, 3, 1, 10, 0)
	var active []domain.Reminder
	for i := range 10 {
		active = append(active, oneOff("busy", at(2026, 3, 2+i, 12, 0)))
	}
	daily := domain.Schedule{Type: domain.ScheduleDaily, TimeOfDay: nine}

	_, err := NewResolver(WithMaxShiftAttempts(5)).Resolve(Request{Schedule: daily, Mode: domain.ConflictShift, From: now, Now: now}, active)
	assert.ErrorIs(t, err, domain.ErrRetryExhausted)
	assert.ErrorIs(t, err, domain.ErrUnsolvableSchedule, "exhaustion is treated as unsolvable")
}

func TestResolver_Deterministic(t *testing.T) {
	now := at(2026, 3, 1, 10, 0)
	active := []domain.Reminder{oneOff("rent", at(2026, 3, 5, 18, 0))}
	req := Request{Schedule: thursdays, Mode: domain.ConflictShift, From: now, Now: now}
	r := NewResolver()

	first, err := r.Resolve(req, active)
	require.NoError(t, err)
	for range 5 {
		again, err := r.Resolve(req, active)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestNewResolver_Defaults(t *testing.T) {
	r := NewResolver(WithGuard(-time.Second), WithMaxShiftAttempts(0))
	assert.Equal(t, DefaultGuard, r.Guard())
	assert.Equal(t, DefaultMaxShiftAttempts, r.maxAttempts)
}

func TestHasDayConflict_UsesLocation(t *testing.T) {
	// 23:30 UTC on Mar 4 is Mar 5 in UTC+2.
	plus2 := time.FixedZone("UTC+2", 2*3600)
	list := []domain.Reminder{oneOff("late", at(2026, 3, 4, 23, 30))}

	assert.True(t, HasDayConflict(list, date(2026, 3, 5), plus2, ""))
	assert.False(t, HasDayConflict(list, date(2026, 3, 5), time.UTC, ""))
	assert.False(t, HasDayConflict(list, date(2026, 3, 5), plus2, "late"))
}
