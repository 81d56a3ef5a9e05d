// Package document is the JSON encoding of a persisted reminder list.
//
// Current documents are an object {"version": 2, "reminders": [...]}.
// Documents written by the legacy engine are a bare array whose recurring
// entries carry "scheduleMode" instead of "scheduleType"; Decode migrates
// them once and the next Encode writes the current format.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rezkam/reminders/internal/domain"
)

// Version is the format version written by Encode.
const Version = 2

// ErrUnsupportedVersion is returned for documents newer than this build.
var ErrUnsupportedVersion = errors.New("unsupported document version")

type envelope struct {
	Version   int      `json:"version"`
	Reminders []record `json:"reminders"`
}

// record is the flat wire shape of a reminder. Variant fields are omitted
// when they do not apply.
type record struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Kind         string    `json:"kind,omitempty"`
	Level        string    `json:"level,omitempty"`
	ConflictMode string    `json:"conflictMode,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	// One-off
	DueAt  *time.Time `json:"dueAt,omitempty"`
	Done   bool       `json:"done,omitempty"`
	DoneAt *time.Time `json:"doneAt,omitempty"`

	// Recurring
	ScheduleType     string         `json:"scheduleType,omitempty"`
	TimeOfDay        string         `json:"timeOfDay,omitempty"`
	Every            int            `json:"every,omitempty"`
	Unit             string         `json:"unit,omitempty"`
	Weekdays         []time.Weekday `json:"weekdays,omitempty"`
	DayOfMonth       int            `json:"dayOfMonth,omitempty"`
	BaseDate         string         `json:"baseDate,omitempty"`
	Dates            []string       `json:"dates,omitempty"`
	NextDueAt        *time.Time     `json:"nextDueAt,omitempty"`
	Enabled          *bool          `json:"enabled,omitempty"`
	LastNotifiedDate string         `json:"lastNotifiedDate,omitempty"`
	PaidAt           *time.Time     `json:"paidAt,omitempty"`

	// Legacy engine fields, read only.
	ScheduleMode string `json:"scheduleMode,omitempty"`
	EveryDays    int    `json:"everyDays,omitempty"`
	MonthDay     int    `json:"monthDay,omitempty"`
	YearDate     string `json:"yearDate,omitempty"`
	Time         string `json:"time,omitempty"`
}

// Encode writes list in the current format.
func Encode(list []domain.Reminder) ([]byte, error) {
	env := envelope{Version: Version, Reminders: make([]record, 0, len(list))}
	for i := range list {
		env.Reminders = append(env.Reminders, toRecord(&list[i]))
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal reminders: %w", err)
	}
	return data, nil
}

// Decode reads a current or legacy document. Empty input is an empty list.
func Decode(data []byte) ([]domain.Reminder, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var records []record
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("failed to unmarshal legacy reminders: %w", err)
		}
	case '{':
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("failed to unmarshal reminders: %w", err)
		}
		if env.Version > Version {
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
		}
		records = env.Reminders
	default:
		return nil, fmt.Errorf("failed to unmarshal reminders: unexpected %q", data[0])
	}

	list := make([]domain.Reminder, 0, len(records))
	for i, rec := range records {
		r, err := fromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("reminder %d (%s): %w", i, rec.ID, err)
		}
		list = append(list, r)
	}
	return list, nil
}

func toRecord(r *domain.Reminder) record {
	rec := record{
		ID:           r.ID,
		Title:        r.Title,
		Kind:         string(r.Kind),
		Level:        string(r.Level),
		ConflictMode: string(r.ConflictMode),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}

	if r.OneOff != nil {
		due := r.OneOff.DueAt
		rec.DueAt = &due
		rec.Done = r.OneOff.Done
		rec.DoneAt = r.OneOff.DoneAt
	}

	if r.Recurring != nil {
		s := r.Recurring.Schedule
		rec.ScheduleType = string(s.Type)
		rec.TimeOfDay = s.TimeOfDay.String()
		rec.Every = s.Every
		rec.Unit = string(s.Unit)
		rec.Weekdays = s.Weekdays
		rec.DayOfMonth = s.DayOfMonth
		if !s.BaseDate.IsZero() {
			rec.BaseDate = s.BaseDate.String()
		}
		for _, d := range s.Dates {
			rec.Dates = append(rec.Dates, d.String())
		}

		next := r.Recurring.NextDueAt
		if !next.IsZero() {
			rec.NextDueAt = &next
		}
		enabled := r.Recurring.Enabled
		rec.Enabled = &enabled
		rec.LastNotifiedDate = r.Recurring.LastNotifiedDate
		rec.PaidAt = r.Recurring.PaidAt
	}

	return rec
}

func fromRecord(rec record) (domain.Reminder, error) {
	if rec.ScheduleType == "" && rec.ScheduleMode != "" {
		if err := migrateLegacy(&rec); err != nil {
			return domain.Reminder{}, err
		}
	}

	kind := domain.Kind(rec.Kind)
	if kind == "" {
		kind = domain.KindOneOff
		if rec.ScheduleType != "" {
			kind = domain.KindRecurring
		}
	}
	kind, err := domain.NewKind(string(kind))
	if err != nil {
		return domain.Reminder{}, err
	}

	r := domain.Reminder{
		ID:        rec.ID,
		Title:     rec.Title,
		Kind:      kind,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
	if r.Level, err = domain.NewLevel(rec.Level); err != nil {
		return domain.Reminder{}, err
	}
	if r.ConflictMode, err = domain.NewConflictMode(rec.ConflictMode); err != nil {
		return domain.Reminder{}, err
	}

	switch kind {
	case domain.KindOneOff:
		o := &domain.OneOff{Done: rec.Done, DoneAt: rec.DoneAt}
		if rec.DueAt != nil {
			o.DueAt = *rec.DueAt
		}
		r.OneOff = o

	case domain.KindRecurring:
		s, err := scheduleOf(rec)
		if err != nil {
			return domain.Reminder{}, err
		}
		rc := &domain.Recurring{
			Schedule:         s,
			Enabled:          rec.Enabled == nil || *rec.Enabled,
			LastNotifiedDate: rec.LastNotifiedDate,
			PaidAt:           rec.PaidAt,
		}
		if rec.NextDueAt != nil {
			rc.NextDueAt = *rec.NextDueAt
		}
		r.Recurring = rc
	}

	return r, nil
}

func scheduleOf(rec record) (domain.Schedule, error) {
	st, err := domain.NewScheduleType(rec.ScheduleType)
	if err != nil {
		return domain.Schedule{}, err
	}

	s := domain.Schedule{
		Type:       st,
		Every:      rec.Every,
		Weekdays:   rec.Weekdays,
		DayOfMonth: rec.DayOfMonth,
	}

	if rec.TimeOfDay != "" {
		if s.TimeOfDay, err = domain.ParseTimeOfDay(rec.TimeOfDay); err != nil {
			return domain.Schedule{}, err
		}
	}
	if st == domain.ScheduleInterval {
		if s.Unit, err = domain.NewIntervalUnit(rec.Unit); err != nil {
			return domain.Schedule{}, err
		}
	}
	if rec.BaseDate != "" {
		if s.BaseDate, err = domain.ParseDate(rec.BaseDate); err != nil {
			return domain.Schedule{}, err
		}
	}
	for _, raw := range rec.Dates {
		d, err := domain.ParseDate(raw)
		if err != nil {
			return domain.Schedule{}, err
		}
		s.Dates = append(s.Dates, d)
	}

	// Hand-edited or older documents may carry unsorted or repeated days.
	return s.Normalize()
}
