package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rezkam/reminders/internal/application/reminder"
	"github.com/rezkam/reminders/internal/clock"
	"github.com/rezkam/reminders/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// DefaultHorizon bounds how far ahead one-shot timers are armed.
	DefaultHorizon = 24 * time.Hour

	// DefaultDigestKey is the marker key for the last digest day.
	DefaultDigestKey = "last_digest_day"
)

// Notification kinds recorded on the reminders.notifications counter.
const (
	KindTimer   = "timer"
	KindOverdue = "overdue"
	KindDigest  = "digest"
)

// Config holds configuration for the Scheduler.
type Config struct {
	// Horizon bounds timer arming: only occurrences in (now, now+Horizon]
	// get a timer. Later ones are picked up by a later evaluation.
	Horizon time.Duration

	// DigestKey scopes the persisted last-digest-day marker (per user/device).
	DigestKey string
}

type armed struct {
	at    time.Time
	timer clock.Timer
}

// Scheduler decides which reminders fire a notification now and fires the
// once-per-day digest.
//
// It keeps one armed timer per reminder id. Every change event clears all
// timers before re-arming, so a deleted, disabled or moved reminder never
// fires from a stale timer. Change events only arm timers; overdue alerts
// and the digest are delivered from Tick, so a mutating caller never waits
// on a notification sink.
type Scheduler struct {
	source   Source
	notifier Notifier
	markers  MarkerStore
	clock    clock.Clock
	cfg      Config

	mu      sync.Mutex
	version uint64
	list    []domain.Reminder
	timers  map[string]*armed
	// notified holds the day each reminder was last alerted by this process.
	// It outlives list replacement, so a snapshot taken before the matching
	// MarkNotified landed cannot re-trigger the same alert.
	notified map[string]string

	// digestMu serializes digest evaluation, which performs marker I/O.
	digestMu   sync.Mutex
	lastDigest string

	notifications metric.Int64Counter
}

// New creates a Scheduler. It does not evaluate until Tick or
// RemindersChanged is called.
func New(source Source, notifier Notifier, markers MarkerStore, clk clock.Clock, cfg Config) *Scheduler {
	if cfg.Horizon <= 0 {
		cfg.Horizon = DefaultHorizon
	}
	if cfg.DigestKey == "" {
		cfg.DigestKey = DefaultDigestKey
	}

	// Falls back to a no-op instrument on error.
	counter, _ := otel.Meter("github.com/rezkam/reminders/internal/application/notify").
		Int64Counter("reminders.notifications",
			metric.WithDescription("Notifications fired by kind"),
		)

	return &Scheduler{
		source:        source,
		notifier:      notifier,
		markers:       markers,
		clock:         clk,
		cfg:           cfg,
		timers:        make(map[string]*armed),
		notified:      make(map[string]string),
		notifications: counter,
	}
}

// RemindersChanged implements reminder.Listener. It drops stale snapshots,
// clears every armed timer and re-arms against the new list.
func (s *Scheduler) RemindersChanged(ctx context.Context, snap reminder.Snapshot) {
	s.mu.Lock()
	if snap.Version < s.version {
		s.mu.Unlock()
		slog.DebugContext(ctx, "Dropping stale reminder snapshot", "version", snap.Version, "current", s.version)
		return
	}
	s.version = snap.Version
	s.list = snap.Reminders
	s.clearLocked()
	s.evaluateLocked(ctx, false)
	s.mu.Unlock()
}

// Tick runs one evaluation cycle: refresh from the source, re-arm timers,
// fire overdue alerts and the daily digest.
func (s *Scheduler) Tick(ctx context.Context) error {
	snap := s.source.Snapshot()

	s.mu.Lock()
	// An equal version is the list already held, possibly with local
	// markers the source has not recorded yet.
	if snap.Version > s.version {
		s.version = snap.Version
		s.list = snap.Reminders
	}
	overdue := s.evaluateLocked(ctx, true)
	list := domain.CloneList(s.list)
	s.mu.Unlock()

	s.fireOverdue(ctx, overdue)
	return s.evaluateDigest(ctx, list)
}

// Armed returns the number of currently armed timers.
func (s *Scheduler) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels every armed timer.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *Scheduler) clearLocked() {
	for id, a := range s.timers {
		a.timer.Stop()
		delete(s.timers, id)
	}
}

type overdueAlert struct {
	reminder domain.Reminder
	day      string
}

// evaluateLocked reconciles armed timers with the list. With collect set it
// also marks the overdue recurring reminders that need an alert today and
// returns them, so they can be delivered without holding the lock.
func (s *Scheduler) evaluateLocked(ctx context.Context, collect bool) []overdueAlert {
	now := s.clock.Now()
	today := domain.DateOf(now).String()
	limit := now.Add(s.cfg.Horizon)

	for id, day := range s.notified {
		if day != today {
			delete(s.notified, id)
		}
	}

	want := make(map[string]time.Time)
	var alerts []overdueAlert

	for i := range s.list {
		r := &s.list[i]
		due, active := r.Occurrence()
		if !active {
			continue
		}

		if due.After(now) && !due.After(limit) {
			want[r.ID] = due
		}

		if !collect || !r.IsRecurring() || now.Before(due) {
			continue
		}
		if r.Recurring.LastNotifiedDate == today || s.notified[r.ID] == today {
			continue
		}
		r.Recurring.LastNotifiedDate = today
		s.notified[r.ID] = today
		alerts = append(alerts, overdueAlert{reminder: r.Clone(), day: today})
	}

	for id, a := range s.timers {
		if at, ok := want[id]; !ok || !at.Equal(a.at) {
			a.timer.Stop()
			delete(s.timers, id)
		}
	}

	for id, at := range want {
		if _, ok := s.timers[id]; ok {
			continue
		}
		a := &armed{at: at}
		a.timer = s.clock.AfterFunc(at.Sub(now), func() {
			s.fire(context.WithoutCancel(ctx), id, a)
		})
		s.timers[id] = a
		slog.DebugContext(ctx, "Armed reminder timer", "reminder_id", id, "at", at)
	}

	return alerts
}

// fire runs when an armed timer expires.
func (s *Scheduler) fire(ctx context.Context, id string, a *armed) {
	s.mu.Lock()
	if s.timers[id] != a {
		s.mu.Unlock()
		return
	}
	delete(s.timers, id)

	var (
		target domain.Reminder
		found  bool
		mark   string
	)
	for i := range s.list {
		r := &s.list[i]
		if r.ID != id {
			continue
		}
		due, active := r.Occurrence()
		if active && due.Equal(a.at) {
			found = true
			// The at-due timer counts as today's alert for a recurring reminder.
			if r.IsRecurring() {
				day := domain.DateOf(s.clock.Now()).String()
				s.notified[id] = day
				if r.Recurring.LastNotifiedDate != day {
					r.Recurring.LastNotifiedDate = day
					mark = day
				}
			}
			target = r.Clone()
		}
		break
	}
	s.mu.Unlock()

	if !found {
		return
	}

	if mark != "" {
		s.markNotified(ctx, id, mark)
	}
	s.deliver(ctx, KindTimer, target.Title, dueBody(a.at))
}

func (s *Scheduler) fireOverdue(ctx context.Context, alerts []overdueAlert) {
	for _, alert := range alerts {
		s.markNotified(ctx, alert.reminder.ID, alert.day)
		due, _ := alert.reminder.Occurrence()
		s.deliver(ctx, KindOverdue, alert.reminder.Title, overdueBody(due))
	}
}

func (s *Scheduler) markNotified(ctx context.Context, id, day string) {
	if err := s.source.MarkNotified(ctx, id, day); err != nil {
		slog.ErrorContext(ctx, "Failed to record notification", "reminder_id", id, "day", day, "error", err)
	}
}

// evaluateDigest fires the once-per-day digest. An empty day does not
// consume the marker, so reminders added later that day still get a digest.
func (s *Scheduler) evaluateDigest(ctx context.Context, list []domain.Reminder) error {
	s.digestMu.Lock()
	defer s.digestMu.Unlock()

	now := s.clock.Now()
	today := domain.DateOf(now)
	key := today.String()

	if s.lastDigest == key {
		return nil
	}

	due := reminder.DueOn(list, today, now.Location())
	if len(due) == 0 {
		return nil
	}

	last, err := s.markers.GetMarker(ctx, s.cfg.DigestKey)
	if err != nil {
		// The in-memory marker still prevents duplicates in this process.
		slog.ErrorContext(ctx, "Failed to read digest marker", "key", s.cfg.DigestKey, "error", err)
	}
	if last == key {
		s.lastDigest = key
		return nil
	}

	s.lastDigest = key
	var putErr error
	if err := s.markers.PutMarker(ctx, s.cfg.DigestKey, key); err != nil {
		slog.ErrorContext(ctx, "Failed to persist digest marker", "key", s.cfg.DigestKey, "error", err)
		putErr = fmt.Errorf("failed to persist digest marker: %w", err)
	}

	s.deliver(ctx, KindDigest, digestTitle(len(due)), DigestBody(due))
	return putErr
}

func (s *Scheduler) deliver(ctx context.Context, kind, title, body string) {
	s.notifications.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	slog.InfoContext(ctx, "Firing notification", "kind", kind, "title", title)
	s.notifier.Notify(ctx, title, body)
}

func dueBody(at time.Time) string {
	return "Due at " + at.Format("15:04")
}

func overdueBody(due time.Time) string {
	return "Overdue since " + due.Format("2006-01-02 15:04")
}

func digestTitle(n int) string {
	if n == 1 {
		return "Today: 1 reminder"
	}
	return fmt.Sprintf("Today: %d reminders", n)
}

// DigestBody formats one "HH:MM title" line per reminder, in list order.
func DigestBody(due []domain.Reminder) string {
	lines := make([]string, 0, len(due))
	for i := range due {
		at, _ := due[i].Occurrence()
		lines = append(lines, at.Format("15:04")+" "+due[i].Title)
	}
	return strings.Join(lines, "\n")
}
