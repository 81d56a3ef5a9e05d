package document

import (
	"testing"
	"time"

	"github.com/rezkam/reminders/internal/domain"
	"github.com/rezkam/reminders/internal/ptr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_PreservesBothVariants(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	list := []domain.Reminder{
		{
			ID: "a", Title: "Dentist", Kind: domain.KindOneOff,
			Level: domain.LevelMedium, ConflictMode: domain.ConflictBlock,
			CreatedAt: created, UpdatedAt: created,
			OneOff: &domain.OneOff{DueAt: created.Add(48 * time.Hour), Done: true, DoneAt: ptr.To(created)},
		},
		{
			ID: "b", Title: "Gym", Kind: domain.KindRecurring,
			Level: domain.LevelLong, ConflictMode: domain.ConflictShift,
			CreatedAt: created, UpdatedAt: created,
			Recurring: &domain.Recurring{
				Schedule: domain.Schedule{
					Type:      domain.ScheduleFixedDates,
					TimeOfDay: domain.TimeOfDay{Hour: 7, Minute: 30},
					Dates:     []domain.Date{{Year: 2026, Month: 3, Day: 5}, {Year: 2026, Month: 4, Day: 1}},
				},
				NextDueAt:        time.Date(2026, 3, 5, 7, 30, 0, 0, time.UTC),
				Enabled:          false,
				LastNotifiedDate: "2026-03-05",
			},
		},
	}

	data, err := Encode(list)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version":2`)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, list, got)
}

func TestDecode_Empty(t *testing.T) {
	got, err := Decode([]byte("  \n"))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Decode([]byte(`{"version":2,"reminders":[]}`))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecode_RejectsNewerVersion(t *testing.T) {
	_, err := Decode([]byte(`{"version":3,"reminders":[]}`))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestDecode_RejectsGarbage(t *testing.T) {
	_, err := Decode([]byte(`"hello"`))
	assert.Error(t, err)
}

func TestDecode_LegacyScheduleMode(t *testing.T) {
	legacy := `[
		{"id":"1","title":"Water plants","scheduleMode":"everyDays","everyDays":3,"time":"08:15","nextDueAt":"2026-03-02T08:15:00Z"},
		{"id":"2","title":"Rent","scheduleMode":"monthDay","monthDay":31,"time":"09:00"},
		{"id":"3","title":"Birthday","scheduleMode":"yearDate","yearDate":"02-29","time":"10:00","enabled":false},
		{"id":"4","title":"Standup","scheduleMode":"weekly","weekdays":[1,3],"time":"09:30"},
		{"id":"5","title":"Pick up parcel","dueAt":"2026-03-03T17:00:00Z"}
	]`

	got, err := Decode([]byte(legacy))
	require.NoError(t, err)
	require.Len(t, got, 5)

	interval := got[0]
	require.True(t, interval.IsRecurring())
	assert.Equal(t, domain.ScheduleInterval, interval.Recurring.Schedule.Type)
	assert.Equal(t, 3, interval.Recurring.Schedule.Every)
	assert.Equal(t, domain.UnitDay, interval.Recurring.Schedule.Unit)
	assert.Equal(t, domain.TimeOfDay{Hour: 8, Minute: 15}, interval.Recurring.Schedule.TimeOfDay)
	assert.True(t, interval.Recurring.Enabled)
	assert.Equal(t, domain.LevelQuick, interval.Level)
	assert.Equal(t, domain.ConflictAllow, interval.ConflictMode)

	assert.Equal(t, domain.ScheduleMonthlyDay, got[1].Recurring.Schedule.Type)
	assert.Equal(t, 31, got[1].Recurring.Schedule.DayOfMonth)
	assert.True(t, got[1].Recurring.NextDueAt.IsZero())

	assert.Equal(t, domain.ScheduleAnniversary, got[2].Recurring.Schedule.Type)
	assert.Equal(t, domain.Date{Year: 2000, Month: time.February, Day: 29}, got[2].Recurring.Schedule.BaseDate)
	assert.False(t, got[2].Recurring.Enabled)

	assert.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, got[3].Recurring.Schedule.Weekdays)

	require.True(t, got[4].IsOneOff())
	assert.Equal(t, time.Date(2026, 3, 3, 17, 0, 0, 0, time.UTC), got[4].OneOff.DueAt)

	// Re-encoding writes the current format only.
	data, err := Encode(got)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "scheduleMode")
	assert.Contains(t, string(data), `"scheduleType":"INTERVAL"`)
}

func TestDecode_SortsScheduleDays(t *testing.T) {
	doc := `{"version":2,"reminders":[
		{"id":"a","title":"Bins","kind":"RECURRING","scheduleType":"FIXED_DATES","timeOfDay":"07:00",
		 "dates":["2026-04-01","2026-03-05","2026-04-01"]},
		{"id":"b","title":"Standup","kind":"RECURRING","scheduleType":"WEEKLY","timeOfDay":"09:30",
		 "weekdays":[5,1,3,1]}
	]}`

	got, err := Decode([]byte(doc))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t,
		[]domain.Date{{Year: 2026, Month: 3, Day: 5}, {Year: 2026, Month: 4, Day: 1}},
		got[0].Recurring.Schedule.Dates)
	assert.Equal(t,
		[]time.Weekday{time.Monday, time.Wednesday, time.Friday},
		got[1].Recurring.Schedule.Weekdays)
}

func TestDecode_RejectsInvalidSchedule(t *testing.T) {
	_, err := Decode([]byte(`{"version":2,"reminders":[
		{"id":"a","title":"Bins","kind":"RECURRING","scheduleType":"FIXED_DATES","timeOfDay":"07:00","dates":[]}
	]}`))
	assert.ErrorIs(t, err, domain.ErrDatesRequired)
}

func TestDecode_UnknownLegacyMode(t *testing.T) {
	_, err := Decode([]byte(`[{"id":"1","title":"x","scheduleMode":"hourly"}]`))
	assert.ErrorIs(t, err, ErrUnknownScheduleMode)
}
