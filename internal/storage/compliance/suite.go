package compliance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rezkam/reminders/internal/domain"
	"github.com/rezkam/reminders/internal/ptr"
	"github.com/rezkam/reminders/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunStorageComplianceTest runs a standard set of tests against a storage.Backend.
// setup is a function that returns a fresh (clean) Backend instance for the test.
// cleanup is called after the test to clean up resources (if any).
func RunStorageComplianceTest(t *testing.T, setup func() (storage.Backend, func())) {
	t.Run("LoadMissingKey", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()

		list, err := store.Load(context.Background(), newKey())
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("SaveAndLoad", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()
		key := newKey()

		want := sampleList()
		require.NoError(t, store.Save(ctx, key, want))

		got, err := store.Load(ctx, key)
		require.NoError(t, err)
		require.Len(t, got, len(want))
		for i := range want {
			assertSameReminder(t, want[i], got[i])
		}
	})

	t.Run("SaveOverwrites", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()
		key := newKey()

		require.NoError(t, store.Save(ctx, key, sampleList()))
		require.NoError(t, store.Save(ctx, key, sampleList()[:1]))

		got, err := store.Load(ctx, key)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Dentist", got[0].Title)
	})

	t.Run("SaveEmptyList", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()
		key := newKey()

		require.NoError(t, store.Save(ctx, key, sampleList()))
		require.NoError(t, store.Save(ctx, key, nil))

		got, err := store.Load(ctx, key)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("KeysAreIsolated", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()
		alice, bob := newKey(), newKey()

		require.NoError(t, store.Save(ctx, alice, sampleList()))
		require.NoError(t, store.Save(ctx, bob, sampleList()[1:]))

		got, err := store.Load(ctx, bob)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Gym", got[0].Title)

		keys, err := store.Keys(ctx)
		require.NoError(t, err)
		assert.Contains(t, keys, alice)
		assert.Contains(t, keys, bob)
	})

	t.Run("Markers", func(t *testing.T) {
		store, teardown := setup()
		defer teardown()
		ctx := context.Background()
		key := "last_digest_day:" + newKey()

		got, err := store.GetMarker(ctx, key)
		require.NoError(t, err)
		assert.Empty(t, got)

		require.NoError(t, store.PutMarker(ctx, key, "2026-03-01"))
		require.NoError(t, store.PutMarker(ctx, key, "2026-03-02"))

		got, err = store.GetMarker(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, "2026-03-02", got)
	})
}

func newKey() string {
	return uuid.New().String()
}

func sampleList() []domain.Reminder {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return []domain.Reminder{
		{
			ID: uuid.New().String(), Title: "Dentist", Kind: domain.KindOneOff,
			Level: domain.LevelQuick, ConflictMode: domain.ConflictBlock,
			CreatedAt: created, UpdatedAt: created,
			OneOff: &domain.OneOff{DueAt: created.Add(4 * 24 * time.Hour)},
		},
		{
			ID: uuid.New().String(), Title: "Gym", Kind: domain.KindRecurring,
			Level: domain.LevelLong, ConflictMode: domain.ConflictShift,
			CreatedAt: created, UpdatedAt: created,
			Recurring: &domain.Recurring{
				Schedule: domain.Schedule{
					Type:      domain.ScheduleWeekly,
					TimeOfDay: domain.TimeOfDay{Hour: 9},
					Weekdays:  []time.Weekday{time.Thursday},
				},
				NextDueAt: time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC),
				Enabled:   true,
				PaidAt:    ptr.To(created),
			},
		},
	}
}

// assertSameReminder compares instants with Equal; backends may return a
// different location for the same instant.
func assertSameReminder(t *testing.T, want, got domain.Reminder) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Title, got.Title)
	assert.Equal(t, want.Kind, got.Kind)
	assert.Equal(t, want.Level, got.Level)
	assert.Equal(t, want.ConflictMode, got.ConflictMode)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))

	if want.OneOff != nil {
		require.NotNil(t, got.OneOff)
		assert.True(t, want.OneOff.DueAt.Equal(got.OneOff.DueAt))
		assert.Equal(t, want.OneOff.Done, got.OneOff.Done)
	}
	if want.Recurring != nil {
		require.NotNil(t, got.Recurring)
		assert.Equal(t, want.Recurring.Schedule, got.Recurring.Schedule)
		assert.True(t, want.Recurring.NextDueAt.Equal(got.Recurring.NextDueAt))
		assert.Equal(t, want.Recurring.Enabled, got.Recurring.Enabled)
		require.NotNil(t, got.Recurring.PaidAt)
		assert.True(t, want.Recurring.PaidAt.Equal(*got.Recurring.PaidAt))
	}
}
