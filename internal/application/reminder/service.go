package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rezkam/reminders/internal/clock"
	"github.com/rezkam/reminders/internal/domain"
	"github.com/rezkam/reminders/internal/ptr"
	"github.com/rezkam/reminders/internal/recurring"
)

// DefaultKey is the store key used when Config.Key is empty.
const DefaultKey = "default"

// Config holds configuration for the Service.
type Config struct {
	// Key scopes the persisted list (one per user/device).
	Key string

	// Guard is the forward guard applied to every occurrence search.
	Guard time.Duration

	// MaxShiftAttempts bounds the Shift conflict retry loop.
	MaxShiftAttempts int
}

// Service is the reminder state machine.
//
// It owns the in-memory reminder list and serializes every mutation: a
// mutation validates, resolves, commits, persists and only then releases the
// lock, so resolver retries never interleave with another write.
// Listeners are notified after the lock is released.
type Service struct {
	store    Store
	clock    clock.Clock
	resolver *recurring.Resolver
	key      string
	newID    func() (string, error)

	mu        sync.Mutex
	list      []domain.Reminder
	version   uint64
	listeners []Listener

	telemetry *telemetry
}

// Option is a functional option for configuring Service.
type Option func(*Service)

// WithIDGenerator overrides reminder id generation (UUIDv7 by default).
func WithIDGenerator(f func() (string, error)) Option {
	return func(s *Service) {
		s.newID = f
	}
}

// WithListener registers a listener at construction time.
func WithListener(l Listener) Option {
	return func(s *Service) {
		s.listeners = append(s.listeners, l)
	}
}

// NewService creates a new reminder service with an empty list.
// Call Load to read the persisted list.
func NewService(store Store, clk clock.Clock, cfg Config, opts ...Option) *Service {
	if cfg.Key == "" {
		cfg.Key = DefaultKey
	}

	resolverOpts := []recurring.ResolverOption{recurring.WithMaxShiftAttempts(cfg.MaxShiftAttempts)}
	// Zero guard means "use the default", not "no guard".
	if cfg.Guard != 0 {
		resolverOpts = append(resolverOpts, recurring.WithGuard(cfg.Guard))
	}

	s := &Service{
		store:     store,
		clock:     clk,
		resolver:  recurring.NewResolver(resolverOpts...),
		key:       cfg.Key,
		newID:     newUUID,
		telemetry: newTelemetry(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func newUUID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return id.String(), nil
}

// Subscribe registers a listener for change events.
func (s *Service) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Key returns the store key this service reads and writes.
func (s *Service) Key() string {
	return s.key
}

// Load replaces the in-memory list with the persisted one.
func (s *Service) Load(ctx context.Context) error {
	list, err := s.store.Load(ctx, s.key)
	if err != nil {
		return fmt.Errorf("failed to load reminders: %w", err)
	}

	now := s.clock.Now()
	for i := range list {
		localize(&list[i], now.Location())
		s.repairOccurrence(ctx, &list[i], now)
	}

	s.mu.Lock()
	s.list = list
	s.version++
	snap := s.snapshotLocked()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	slog.InfoContext(ctx, "Loaded reminders", "key", s.key, "count", len(list))
	s.publish(ctx, listeners, snap)
	return nil
}

// repairOccurrence computes a missing NextDueAt, as found in documents
// migrated from the legacy engine. Conflicts are not considered: the list is
// still being loaded.
func (s *Service) repairOccurrence(ctx context.Context, r *domain.Reminder, now time.Time) {
	if !r.IsRecurring() || !r.Recurring.NextDueAt.IsZero() {
		return
	}

	next := recurring.NextOccurrence(r.Recurring.Schedule, now, now, s.resolver.Guard())
	if next == nil {
		slog.WarnContext(ctx, "Recurring reminder has no upcoming occurrence", "reminder_id", r.ID)
		return
	}
	r.Recurring.NextDueAt = *next
}

// Create validates input, resolves the first occurrence for recurring
// reminders and appends the new reminder.
//
// Errors: *domain.ValidationError, *domain.ConflictError (Block mode),
// domain.ErrUnsolvableSchedule / domain.ErrRetryExhausted.
func (s *Service) Create(ctx context.Context, in domain.ReminderInput) (domain.Reminder, error) {
	return s.mutate(ctx, "create", "", true, func(list []domain.Reminder, now time.Time) ([]domain.Reminder, domain.Reminder, error) {
		in, err := in.Normalize()
		if err != nil {
			return nil, domain.Reminder{}, err
		}

		id, err := s.newID()
		if err != nil {
			return nil, domain.Reminder{}, err
		}

		r := domain.Reminder{
			ID:           id,
			Title:        in.Title,
			Level:        in.Level,
			ConflictMode: in.ConflictMode,
			Kind:         in.Kind,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		switch in.Kind {
		case domain.KindOneOff:
			due := in.DueAt.In(now.Location())
			if err := s.checkOneOffConflict(list, in.ConflictMode, due, ""); err != nil {
				return nil, domain.Reminder{}, err
			}
			r.OneOff = &domain.OneOff{DueAt: due}

		case domain.KindRecurring:
			next, err := s.resolver.Resolve(recurring.Request{
				Schedule: *in.Schedule,
				Mode:     in.ConflictMode,
				From:     now,
				Now:      now,
			}, list)
			if err != nil {
				return nil, domain.Reminder{}, err
			}
			r.Recurring = &domain.Recurring{
				Schedule:  *in.Schedule,
				NextDueAt: next,
				Enabled:   true,
			}
		}

		return append(list, r), r, nil
	})
}

// Edit replaces the editable fields of a reminder and recomputes its
// occurrence from now. The kind of a reminder cannot change.
// One-off edits only re-check conflicts in Block mode.
func (s *Service) Edit(ctx context.Context, id string, in domain.ReminderInput) (domain.Reminder, error) {
	return s.mutate(ctx, "edit", id, true, func(list []domain.Reminder, now time.Time) ([]domain.Reminder, domain.Reminder, error) {
		idx, err := indexOf(list, id)
		if err != nil {
			return nil, domain.Reminder{}, err
		}

		in, err := in.Normalize()
		if err != nil {
			return nil, domain.Reminder{}, err
		}

		r := list[idx]
		if r.Kind != in.Kind {
			return nil, domain.Reminder{}, &domain.ValidationError{Field: "kind", Err: domain.ErrKindChange}
		}

		r.Title = in.Title
		r.Level = in.Level
		r.ConflictMode = in.ConflictMode
		r.UpdatedAt = now

		switch r.Kind {
		case domain.KindOneOff:
			due := in.DueAt.In(now.Location())
			if err := s.checkOneOffConflict(list, in.ConflictMode, due, id); err != nil {
				return nil, domain.Reminder{}, err
			}
			r.OneOff.DueAt = due

		case domain.KindRecurring:
			next, err := s.resolver.Resolve(recurring.Request{
				Schedule:  *in.Schedule,
				Mode:      in.ConflictMode,
				From:      now,
				Now:       now,
				ExcludeID: id,
			}, list)
			if err != nil {
				return nil, domain.Reminder{}, err
			}
			if !next.Equal(r.Recurring.NextDueAt) {
				r.Recurring.LastNotifiedDate = ""
			}
			r.Recurring.Schedule = *in.Schedule
			r.Recurring.NextDueAt = next
		}

		list[idx] = r
		return list, r, nil
	})
}

// ToggleOneOffDone flips a one-off between Pending and Done.
// Applying it twice restores the original state.
func (s *Service) ToggleOneOffDone(ctx context.Context, id string) (domain.Reminder, error) {
	return s.mutate(ctx, "toggle_done", id, true, func(list []domain.Reminder, now time.Time) ([]domain.Reminder, domain.Reminder, error) {
		idx, err := indexOf(list, id)
		if err != nil {
			return nil, domain.Reminder{}, err
		}

		r := list[idx]
		if !r.IsOneOff() {
			return nil, domain.Reminder{}, domain.ErrNotOneOff
		}

		if r.OneOff.Done {
			r.OneOff.Done = false
			r.OneOff.DoneAt = nil
		} else {
			r.OneOff.Done = true
			r.OneOff.DoneAt = ptr.To(now)
		}
		r.UpdatedAt = now

		list[idx] = r
		return list, r, nil
	})
}

// CompleteRecurring records a completion ("Paid/Done") and advances the
// schedule strictly past the current occurrence.
//
// The search starts from the current NextDueAt, never from now. When the next
// candidate conflicts under Block mode the completion is still recorded
// (PaidAt set) but NextDueAt is left unchanged; the updated reminder is
// returned together with the *domain.ConflictError.
func (s *Service) CompleteRecurring(ctx context.Context, id string) (domain.Reminder, error) {
	return s.mutate(ctx, "complete", id, true, func(list []domain.Reminder, now time.Time) ([]domain.Reminder, domain.Reminder, error) {
		idx, err := indexOf(list, id)
		if err != nil {
			return nil, domain.Reminder{}, err
		}

		r := list[idx]
		if !r.IsRecurring() {
			return nil, domain.Reminder{}, domain.ErrNotRecurring
		}

		rec := r.Recurring
		due := rec.NextDueAt.In(now.Location())
		next, err := s.resolver.Resolve(recurring.Request{
			Schedule:  rec.Schedule,
			Mode:      r.ConflictMode,
			From:      recurring.AdvanceFrom(rec.Schedule, due),
			Now:       now,
			ExcludeID: id,
		}, list)

		var conflict *domain.ConflictError
		switch {
		case errors.As(err, &conflict):
			rec.PaidAt = ptr.To(now)
			r.UpdatedAt = now
			list[idx] = r
			return list, r, err
		case err != nil:
			return nil, domain.Reminder{}, err
		}

		rec.NextDueAt = next
		rec.PaidAt = ptr.To(now)
		rec.LastNotifiedDate = ""
		r.UpdatedAt = now

		list[idx] = r
		return list, r, nil
	})
}

// ToggleEnabled pauses or resumes a recurring reminder.
// NextDueAt is not recomputed.
func (s *Service) ToggleEnabled(ctx context.Context, id string) (domain.Reminder, error) {
	return s.mutate(ctx, "toggle_enabled", id, true, func(list []domain.Reminder, now time.Time) ([]domain.Reminder, domain.Reminder, error) {
		idx, err := indexOf(list, id)
		if err != nil {
			return nil, domain.Reminder{}, err
		}

		r := list[idx]
		if !r.IsRecurring() {
			return nil, domain.Reminder{}, domain.ErrNotRecurring
		}

		r.Recurring.Enabled = !r.Recurring.Enabled
		r.UpdatedAt = now

		list[idx] = r
		return list, r, nil
	})
}

// Delete removes a reminder. Other reminders are untouched; conflicts are
// evaluated live and never cached.
func (s *Service) Delete(ctx context.Context, id string) error {
	_, err := s.mutate(ctx, "delete", id, true, func(list []domain.Reminder, _ time.Time) ([]domain.Reminder, domain.Reminder, error) {
		idx, err := indexOf(list, id)
		if err != nil {
			return nil, domain.Reminder{}, err
		}
		removed := list[idx]
		return slices.Delete(list, idx, idx+1), removed, nil
	})
	return err
}

// MarkNotified records that the overdue alert for a recurring reminder fired
// on day (YYYY-MM-DD). It persists but emits no change event: the schedule
// is unaffected.
func (s *Service) MarkNotified(ctx context.Context, id string, day string) error {
	_, err := s.mutate(ctx, "mark_notified", id, false, func(list []domain.Reminder, _ time.Time) ([]domain.Reminder, domain.Reminder, error) {
		idx, err := indexOf(list, id)
		if err != nil {
			return nil, domain.Reminder{}, err
		}

		r := list[idx]
		if !r.IsRecurring() {
			return nil, domain.Reminder{}, domain.ErrNotRecurring
		}

		r.Recurring.LastNotifiedDate = day
		list[idx] = r
		return list, r, nil
	})
	return err
}

// mutateFunc receives a private deep copy of the list. Returning a nil list
// means nothing changed; a non-nil list is committed even when err is set.
type mutateFunc func(list []domain.Reminder, now time.Time) ([]domain.Reminder, domain.Reminder, error)

func (s *Service) mutate(ctx context.Context, op, id string, emit bool, fn mutateFunc) (domain.Reminder, error) {
	ctx, span := s.telemetry.start(ctx, op, id)
	defer span.End()

	s.mu.Lock()
	now := s.clock.Now()
	next, result, err := fn(domain.CloneList(s.list), now)
	if next == nil {
		s.mu.Unlock()
		s.telemetry.record(ctx, span, op, err)
		return domain.Reminder{}, err
	}

	s.list = next
	s.version++
	snap := s.snapshotLocked()
	listeners := slices.Clone(s.listeners)

	// Persistence failure never rolls back a committed mutation.
	if saveErr := s.store.Save(ctx, s.key, snap.Reminders); saveErr != nil {
		slog.ErrorContext(ctx, "Failed to persist reminders", "key", s.key, "op", op, "error", saveErr)
		s.telemetry.persistFailed(ctx, op)
	}
	s.mu.Unlock()

	s.telemetry.record(ctx, span, op, err)
	if emit {
		s.publish(ctx, listeners, snap)
	}

	return result.Clone(), err
}

func (s *Service) publish(ctx context.Context, listeners []Listener, snap Snapshot) {
	for _, l := range listeners {
		l.RemindersChanged(ctx, Snapshot{Version: snap.Version, Reminders: domain.CloneList(snap.Reminders)})
	}
}

// checkOneOffConflict applies the Block rule to a one-off due time.
// Shift and Allow never move a one-off.
func (s *Service) checkOneOffConflict(list []domain.Reminder, mode domain.ConflictMode, due time.Time, excludeID string) error {
	if mode != domain.ConflictBlock {
		return nil
	}

	day := domain.DateOf(due)
	ids := recurring.ConflictingIDs(list, day, due.Location(), excludeID)
	if len(ids) == 0 {
		return nil
	}

	return &domain.ConflictError{DateKey: day.String(), Candidate: due, ConflictingIDs: ids}
}

func (s *Service) snapshotLocked() Snapshot {
	return Snapshot{Version: s.version, Reminders: domain.CloneList(s.list)}
}

func (s *Service) location() *time.Location {
	return s.clock.Now().Location()
}

func indexOf(list []domain.Reminder, id string) (int, error) {
	if id == "" {
		return -1, domain.ErrNotFound
	}
	idx := slices.IndexFunc(list, func(r domain.Reminder) bool { return r.ID == id })
	if idx < 0 {
		return -1, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return idx, nil
}

// localize converts every instant of r to loc so calendar-day comparisons
// use the user's wall clock.
func localize(r *domain.Reminder, loc *time.Location) {
	r.CreatedAt = r.CreatedAt.In(loc)
	r.UpdatedAt = r.UpdatedAt.In(loc)
	if r.OneOff != nil {
		r.OneOff.DueAt = r.OneOff.DueAt.In(loc)
		if r.OneOff.DoneAt != nil {
			r.OneOff.DoneAt = ptr.To(r.OneOff.DoneAt.In(loc))
		}
	}
	if r.Recurring != nil {
		r.Recurring.NextDueAt = r.Recurring.NextDueAt.In(loc)
		if r.Recurring.PaidAt != nil {
			r.Recurring.PaidAt = ptr.To(r.Recurring.PaidAt.In(loc))
		}
	}
}
