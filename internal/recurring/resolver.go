package recurring

import (
	"time"

	"github.com/rezkam/reminders/internal/domain"
)

// DefaultMaxShiftAttempts bounds the Shift retry loop. It comfortably covers
// multi-year FixedDates lists.
const DefaultMaxShiftAttempts = 520

// Request describes one conflict-aware occurrence search.
type Request struct {
	Schedule  domain.Schedule
	Mode      domain.ConflictMode
	From      time.Time // Search start; its location anchors the time of day
	Now       time.Time // Evaluation instant for the forward guard
	ExcludeID string    // The reminder being scheduled, never a conflict with itself
}

// Resolver wraps the calculator in the conflict policy loop.
// It is pure: the result depends only on the request and the list passed in.
type Resolver struct {
	guard       time.Duration
	maxAttempts int
}

// ResolverOption is a functional option for configuring Resolver.
type ResolverOption func(*Resolver)

// WithGuard sets the forward guard.
func WithGuard(d time.Duration) ResolverOption {
	return func(r *Resolver) {
		r.guard = d
	}
}

// WithMaxShiftAttempts sets how many candidates Shift mode tries before giving up.
func WithMaxShiftAttempts(n int) ResolverOption {
	return func(r *Resolver) {
		r.maxAttempts = n
	}
}

// NewResolver creates a Resolver.
// Applies defaults for zero or invalid option values.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		guard:       DefaultGuard,
		maxAttempts: DefaultMaxShiftAttempts,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.guard < 0 {
		r.guard = DefaultGuard
	}
	if r.maxAttempts <= 0 {
		r.maxAttempts = DefaultMaxShiftAttempts
	}

	return r
}

// Guard returns the configured forward guard.
func (r *Resolver) Guard() time.Duration {
	return r.guard
}

// Resolve returns the next occurrence for req that satisfies its conflict mode
// against active.
//
// Errors:
//   - domain.ErrUnsolvableSchedule: the calculator found no occurrence
//   - *domain.ConflictError: Block mode and the candidate's day is taken
//   - domain.ErrRetryExhausted: Shift mode ran out of attempts
func (r *Resolver) Resolve(req Request, active []domain.Reminder) (time.Time, error) {
	from := req.From
	loc := from.Location()

	for range r.maxAttempts {
		next := NextOccurrence(req.Schedule, from, req.Now, r.guard)
		if next == nil {
			return time.Time{}, domain.ErrUnsolvableSchedule
		}

		day := domain.DateOf(*next)
		conflicting := ConflictingIDs(active, day, loc, req.ExcludeID)
		if len(conflicting) == 0 {
			return *next, nil
		}

		switch req.Mode {
		case domain.ConflictBlock:
			return time.Time{}, &domain.ConflictError{
				DateKey:        day.String(),
				Candidate:      *next,
				ConflictingIDs: conflicting,
			}
		case domain.ConflictShift:
			from = day.AddDays(1).StartOfDay(loc)
		default:
			// Allow: conflicts are informational only.
			return *next, nil
		}
	}

	return time.Time{}, domain.ErrRetryExhausted
}
