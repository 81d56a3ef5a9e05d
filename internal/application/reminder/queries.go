package reminder

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rezkam/reminders/internal/domain"
	"github.com/rezkam/reminders/internal/recurring"
)

// List returns a copy of all reminders in insertion order.
func (s *Service) List() []domain.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.CloneList(s.list)
}

// Snapshot returns the current versioned list.
func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Get returns the reminder with id.
func (s *Service) Get(id string) (domain.Reminder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := indexOf(s.list, id)
	if err != nil {
		return domain.Reminder{}, err
	}
	return s.list[idx].Clone(), nil
}

// Upcoming returns active reminders whose occurrence is after now and within
// the given window, ordered by occurrence.
func (s *Service) Upcoming(within time.Duration) []domain.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	limit := now.Add(within)

	var out []domain.Reminder
	for i := range s.list {
		at, active := s.list[i].Occurrence()
		if active && at.After(now) && !at.After(limit) {
			out = append(out, s.list[i].Clone())
		}
	}
	SortByOccurrence(out)
	return out
}

// DueToday returns active reminders occurring on the local calendar day of now.
func (s *Service) DueToday() []domain.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	return DueOn(s.list, domain.DateOf(now), now.Location())
}

// PreviewNextOccurrence runs the same resolution as Create (or Edit, when
// excludeID names the reminder being edited) without mutating anything.
// It lets a UI show the slot a Shift-mode reminder would land on.
func (s *Service) PreviewNextOccurrence(ctx context.Context, in domain.ReminderInput, excludeID string) (time.Time, error) {
	_, span := s.telemetry.start(ctx, "preview", excludeID)
	defer span.End()

	in, err := in.Normalize()
	if err != nil {
		return time.Time{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock.Now()

	if in.Kind == domain.KindOneOff {
		due := in.DueAt.In(now.Location())
		if err := s.checkOneOffConflict(s.list, in.ConflictMode, due, excludeID); err != nil {
			return time.Time{}, err
		}
		return due, nil
	}

	return s.resolver.Resolve(recurring.Request{
		Schedule:  *in.Schedule,
		Mode:      in.ConflictMode,
		From:      now,
		Now:       now,
		ExcludeID: excludeID,
	}, s.list)
}

// HasDayConflict reports whether an active reminder other than excludeID
// occurs on day (YYYY-MM-DD) in the local time zone.
func (s *Service) HasDayConflict(day string, excludeID string) (bool, error) {
	d, err := domain.ParseDate(day)
	if err != nil {
		return false, fmt.Errorf("invalid day %q: %w", day, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return recurring.HasDayConflict(s.list, d, s.location(), excludeID), nil
}

// DueOn returns copies of the active reminders in list occurring on day,
// ordered by occurrence.
func DueOn(list []domain.Reminder, day domain.Date, loc *time.Location) []domain.Reminder {
	var out []domain.Reminder
	for i := range list {
		at, active := list[i].Occurrence()
		if active && domain.DateOf(at.In(loc)) == day {
			out = append(out, list[i].Clone())
		}
	}
	SortByOccurrence(out)
	return out
}

// SortByOccurrence orders reminders by occurrence, then title.
func SortByOccurrence(list []domain.Reminder) {
	slices.SortStableFunc(list, func(a, b domain.Reminder) int {
		at, _ := a.Occurrence()
		bt, _ := b.Occurrence()
		if c := at.Compare(bt); c != 0 {
			return c
		}
		return cmp.Compare(a.Title, b.Title)
	})
}
