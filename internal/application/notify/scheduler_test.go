package notify_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rezkam/reminders/internal/application/notify"
	"github.com/rezkam/reminders/internal/application/reminder"
	"github.com/rezkam/reminders/internal/clock"
	"github.com/rezkam/reminders/internal/domain"
	"github.com/rezkam/reminders/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct {
	title string
	body  string
}

// recordingNotifier captures every Notify call.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []sent
}

func (n *recordingNotifier) Notify(_ context.Context, title, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sent{title: title, body: body})
}

func (n *recordingNotifier) all() []sent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sent(nil), n.sent...)
}

func (n *recordingNotifier) count(match func(sent) bool) int {
	c := 0
	for _, s := range n.all() {
		if match(s) {
			c++
		}
	}
	return c
}

func isDigest(s sent) bool  { return strings.HasPrefix(s.title, "Today:") }
func isOverdue(s sent) bool { return strings.HasPrefix(s.body, "Overdue") }
func isTimer(s sent) bool   { return strings.HasPrefix(s.body, "Due at") }

type failingMarkers struct{}

func (failingMarkers) GetMarker(context.Context, string) (string, error) {
	return "", errors.New("unavailable")
}

func (failingMarkers) PutMarker(context.Context, string, string) error {
	return errors.New("unavailable")
}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

type fixture struct {
	svc       *reminder.Service
	scheduler *notify.Scheduler
	notifier  *recordingNotifier
	store     *memory.Store
	clock     *clock.Fake
}

// newFixture starts on Sunday 2026-03-01 10:00 UTC.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	clk := clock.NewFake(at(2026, 3, 1, 10, 0))
	svc := reminder.NewService(store, clk, reminder.Config{Key: "test"})
	n := &recordingNotifier{}
	s := notify.New(svc, n, store, clk, notify.Config{DigestKey: "last_digest_day:test"})
	svc.Subscribe(s)
	t.Cleanup(s.Stop)
	return &fixture{svc: svc, scheduler: s, notifier: n, store: store, clock: clk}
}

func (f *fixture) oneOff(t *testing.T, title string, due time.Time) domain.Reminder {
	t.Helper()
	r, err := f.svc.Create(context.Background(), domain.ReminderInput{Kind: domain.KindOneOff, Title: title, DueAt: due})
	require.NoError(t, err)
	return r
}

func (f *fixture) daily(t *testing.T, title string) domain.Reminder {
	t.Helper()
	s := domain.Schedule{Type: domain.ScheduleDaily, TimeOfDay: domain.TimeOfDay{Hour: 9}}
	r, err := f.svc.Create(context.Background(), domain.ReminderInput{Kind: domain.KindRecurring, Title: title, Schedule: &s})
	require.NoError(t, err)
	return r
}

func TestTimer_FiresAtDueTime(t *testing.T) {
	f := newFixture(t)
	f.oneOff(t, "Dentist", at(2026, 3, 1, 12, 0))
	assert.Equal(t, 1, f.scheduler.Armed())

	f.clock.Advance(time.Hour)
	assert.Empty(t, f.notifier.all())

	f.clock.Advance(time.Hour)
	got := f.notifier.all()
	require.Len(t, got, 1)
	assert.Equal(t, sent{title: "Dentist", body: "Due at 12:00"}, got[0])
	assert.Equal(t, 0, f.scheduler.Armed())
}

func TestTimer_HorizonBound(t *testing.T) {
	f := newFixture(t)
	f.oneOff(t, "Far away", at(2026, 3, 5, 12, 0))
	assert.Equal(t, 0, f.scheduler.Armed())

	// A later evaluation arms it once it enters the horizon.
	f.clock.Set(at(2026, 3, 4, 13, 0))
	require.NoError(t, f.scheduler.Tick(context.Background()))
	assert.Equal(t, 1, f.scheduler.Armed())
}

func TestTimer_DeleteCancels(t *testing.T) {
	f := newFixture(t)
	r := f.oneOff(t, "Dentist", at(2026, 3, 1, 12, 0))
	require.Equal(t, 1, f.scheduler.Armed())

	require.NoError(t, f.svc.Delete(context.Background(), r.ID))
	assert.Equal(t, 0, f.scheduler.Armed())

	f.clock.Advance(3 * time.Hour)
	assert.Empty(t, f.notifier.all())
}

func TestTimer_DoneCancels(t *testing.T) {
	f := newFixture(t)
	r := f.oneOff(t, "Dentist", at(2026, 3, 1, 12, 0))

	_, err := f.svc.ToggleOneOffDone(context.Background(), r.ID)
	require.NoError(t, err)

	f.clock.Advance(3 * time.Hour)
	assert.Empty(t, f.notifier.all())
}

func TestTimer_EditRearms(t *testing.T) {
	f := newFixture(t)
	r := f.oneOff(t, "Dentist", at(2026, 3, 1, 12, 0))

	_, err := f.svc.Edit(context.Background(), r.ID, domain.ReminderInput{
		Kind: domain.KindOneOff, Title: "Dentist", DueAt: at(2026, 3, 1, 13, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.scheduler.Armed())

	f.clock.Set(at(2026, 3, 1, 12, 30))
	assert.Empty(t, f.notifier.all())

	f.clock.Set(at(2026, 3, 1, 13, 0))
	got := f.notifier.all()
	require.Len(t, got, 1)
	assert.Equal(t, "Due at 13:00", got[0].body)
}

func TestTimer_DisabledRecurringCancels(t *testing.T) {
	f := newFixture(t)
	r := f.daily(t, "Meds")
	require.Equal(t, 1, f.scheduler.Armed())

	_, err := f.svc.ToggleEnabled(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, f.scheduler.Armed())

	f.clock.Set(at(2026, 3, 2, 12, 0))
	require.NoError(t, f.scheduler.Tick(context.Background()))
	assert.Zero(t, f.notifier.count(isOverdue))
	assert.Zero(t, f.notifier.count(isTimer))
}

func TestOverdue_OncePerDayUntilCompleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.daily(t, "Meds")

	// Timer fires at 09:00 and counts as today's alert.
	f.clock.Set(at(2026, 3, 2, 9, 0))
	assert.Equal(t, 1, f.notifier.count(isTimer))

	f.clock.Set(at(2026, 3, 2, 9, 30))
	require.NoError(t, f.scheduler.Tick(ctx))
	require.NoError(t, f.scheduler.Tick(ctx))
	assert.Zero(t, f.notifier.count(isOverdue))

	// Still not completed the next day: one overdue alert.
	f.clock.Set(at(2026, 3, 3, 8, 0))
	require.NoError(t, f.scheduler.Tick(ctx))
	require.NoError(t, f.scheduler.Tick(ctx))
	assert.Equal(t, 1, f.notifier.count(isOverdue))

	stored, err := f.svc.Get(r.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-03", stored.Recurring.LastNotifiedDate)
	assert.Equal(t, at(2026, 3, 2, 9, 0), stored.Recurring.NextDueAt, "overdue alerts never advance the schedule")
}

func storeWithOverdueRent(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Save(context.Background(), "test", []domain.Reminder{{
		ID: "a", Title: "Rent", Kind: domain.KindRecurring, Level: domain.LevelQuick,
		Recurring: &domain.Recurring{
			Schedule:  domain.Schedule{Type: domain.ScheduleMonthlyDay, TimeOfDay: domain.TimeOfDay{Hour: 9}, DayOfMonth: 1},
			NextDueAt: at(2026, 2, 1, 9, 0),
			Enabled:   true,
		},
	}}))
	return store
}

func TestOverdue_FiresOnFirstTickAfterLoad(t *testing.T) {
	ctx := context.Background()
	store := storeWithOverdueRent(t)

	clk := clock.NewFake(at(2026, 3, 1, 10, 0))
	svc := reminder.NewService(store, clk, reminder.Config{Key: "test"})
	n := &recordingNotifier{}
	s := notify.New(svc, n, store, clk, notify.Config{})
	defer s.Stop()
	svc.Subscribe(s)

	// The change event only arms timers; delivery waits for the tick.
	require.NoError(t, svc.Load(ctx))
	assert.Empty(t, n.all())

	require.NoError(t, s.Tick(ctx))
	require.NoError(t, s.Tick(ctx))

	got := n.all()
	require.Len(t, got, 1)
	assert.Equal(t, sent{title: "Rent", body: "Overdue since 2026-02-01 09:00"}, got[0])
}

// reentrantSource runs onMark before recording a notification, standing in
// for a tick or change event that lands between the alert and its marker.
type reentrantSource struct {
	inner  notify.Source
	onMark func(ctx context.Context)
}

func (r *reentrantSource) Snapshot() reminder.Snapshot {
	return r.inner.Snapshot()
}

func (r *reentrantSource) MarkNotified(ctx context.Context, id, day string) error {
	if r.onMark != nil {
		onMark := r.onMark
		r.onMark = nil
		onMark(ctx)
	}
	return r.inner.MarkNotified(ctx, id, day)
}

func TestOverdue_SameVersionSnapshotDoesNotRealert(t *testing.T) {
	ctx := context.Background()
	store := storeWithOverdueRent(t)

	clk := clock.NewFake(at(2026, 3, 1, 10, 0))
	svc := reminder.NewService(store, clk, reminder.Config{Key: "test"})
	n := &recordingNotifier{}
	src := &reentrantSource{inner: svc}
	s := notify.New(src, n, store, clk, notify.Config{})
	defer s.Stop()
	svc.Subscribe(s)
	require.NoError(t, svc.Load(ctx))

	src.onMark = func(ctx context.Context) {
		// Both paths see the list before the marker was recorded.
		s.RemindersChanged(ctx, svc.Snapshot())
		require.NoError(t, s.Tick(ctx))
	}
	require.NoError(t, s.Tick(ctx))
	require.NoError(t, s.Tick(ctx))

	assert.Equal(t, 1, n.count(isOverdue))

	stored, err := svc.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", stored.Recurring.LastNotifiedDate)
}

func TestOverdue_TimerAlertSurvivesSameVersionSnapshot(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	clk := clock.NewFake(at(2026, 3, 1, 10, 0))
	svc := reminder.NewService(store, clk, reminder.Config{Key: "test"})
	n := &recordingNotifier{}
	src := &reentrantSource{inner: svc}
	s := notify.New(src, n, store, clk, notify.Config{})
	defer s.Stop()
	svc.Subscribe(s)

	sched := domain.Schedule{Type: domain.ScheduleDaily, TimeOfDay: domain.TimeOfDay{Hour: 9}}
	r, err := svc.Create(ctx, domain.ReminderInput{Kind: domain.KindRecurring, Title: "Meds", Schedule: &sched})
	require.NoError(t, err)
	require.Equal(t, 1, s.Armed())

	src.onMark = func(ctx context.Context) {
		s.RemindersChanged(ctx, svc.Snapshot())
		require.NoError(t, s.Tick(ctx))
	}
	clk.Set(at(2026, 3, 2, 9, 0))

	assert.Equal(t, 1, n.count(isTimer))
	assert.Zero(t, n.count(isOverdue))

	stored, err := svc.Get(r.ID)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", stored.Recurring.LastNotifiedDate)
}

func TestRemindersChanged_DoesNotDeliver(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	r := f.daily(t, "Meds")

	_, err := f.svc.ToggleEnabled(ctx, r.ID)
	require.NoError(t, err)
	f.clock.Set(at(2026, 3, 3, 10, 0))

	// Re-enabling an overdue reminder is a mutation; the alert comes from the tick.
	_, err = f.svc.ToggleEnabled(ctx, r.ID)
	require.NoError(t, err)
	assert.Empty(t, f.notifier.all())

	require.NoError(t, f.scheduler.Tick(ctx))
	assert.Equal(t, 1, f.notifier.count(isOverdue))
}

func TestDigest_OncePerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.oneOff(t, "Gym", at(2026, 3, 1, 20, 0))
	f.oneOff(t, "Dentist", at(2026, 3, 1, 12, 0))
	f.oneOff(t, "Call mom", at(2026, 3, 2, 18, 0))

	require.NoError(t, f.scheduler.Tick(ctx))
	require.NoError(t, f.scheduler.Tick(ctx))
	require.Equal(t, 1, f.notifier.count(isDigest))

	var digest sent
	for _, s := range f.notifier.all() {
		if isDigest(s) {
			digest = s
		}
	}
	assert.Equal(t, "Today: 2 reminders", digest.title)
	assert.Equal(t, "12:00 Dentist\n20:00 Gym", digest.body)

	f.clock.Set(at(2026, 3, 2, 7, 0))
	require.NoError(t, f.scheduler.Tick(ctx))
	assert.Equal(t, 2, f.notifier.count(isDigest))

	marker, err := f.store.GetMarker(ctx, "last_digest_day:test")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", marker)
}

func TestDigest_EmptyDayDoesNotConsumeMarker(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.scheduler.Tick(ctx))
	assert.Zero(t, f.notifier.count(isDigest))

	f.oneOff(t, "Dentist", at(2026, 3, 1, 18, 0))
	require.NoError(t, f.scheduler.Tick(ctx))
	assert.Equal(t, 1, f.notifier.count(isDigest))
}

func TestDigest_PersistedMarkerSurvivesRestart(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.oneOff(t, "Dentist", at(2026, 3, 1, 18, 0))
	require.NoError(t, f.scheduler.Tick(ctx))
	require.Equal(t, 1, f.notifier.count(isDigest))

	restarted := notify.New(f.svc, f.notifier, f.store, f.clock, notify.Config{DigestKey: "last_digest_day:test"})
	defer restarted.Stop()
	require.NoError(t, restarted.Tick(ctx))
	assert.Equal(t, 1, f.notifier.count(isDigest))
}

func TestDigest_MarkerFailureStillDedupes(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(at(2026, 3, 1, 10, 0))
	svc := reminder.NewService(memory.NewStore(), clk, reminder.Config{})
	n := &recordingNotifier{}
	s := notify.New(svc, n, failingMarkers{}, clk, notify.Config{})
	defer s.Stop()

	_, err := svc.Create(ctx, domain.ReminderInput{Kind: domain.KindOneOff, Title: "Dentist", DueAt: at(2026, 3, 1, 18, 0)})
	require.NoError(t, err)

	assert.Error(t, s.Tick(ctx))
	assert.NoError(t, s.Tick(ctx))
	assert.Equal(t, 1, n.count(isDigest))
}

func TestRemindersChanged_DropsStaleSnapshot(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.oneOff(t, "Dentist", at(2026, 3, 1, 12, 0))
	require.Equal(t, 1, f.scheduler.Armed())

	f.scheduler.RemindersChanged(ctx, reminder.Snapshot{Version: 0})
	assert.Equal(t, 1, f.scheduler.Armed())
}

func TestDigestBody(t *testing.T) {
	due := []domain.Reminder{
		{Title: "A", Kind: domain.KindOneOff, OneOff: &domain.OneOff{DueAt: at(2026, 3, 1, 7, 5)}},
		{Title: "B", Kind: domain.KindOneOff, OneOff: &domain.OneOff{DueAt: at(2026, 3, 1, 23, 59)}},
	}
	assert.Equal(t, "07:05 A\n23:59 B", notify.DigestBody(due))
}
