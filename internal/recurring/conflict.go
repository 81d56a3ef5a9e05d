package recurring

import (
	"time"

	"github.com/rezkam/reminders/internal/domain"
)

// ConflictingIDs returns the ids of active reminders, other than excludeID,
// whose current occurrence falls on day in loc. Done one-offs and paused
// recurring reminders never conflict.
func ConflictingIDs(list []domain.Reminder, day domain.Date, loc *time.Location, excludeID string) []string {
	var ids []string
	for i := range list {
		r := &list[i]
		if excludeID != "" && r.ID == excludeID {
			continue
		}
		at, active := r.Occurrence()
		if !active {
			continue
		}
		if domain.DateOf(at.In(loc)) == day {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// HasDayConflict reports whether any active reminder other than excludeID
// occurs on day.
func HasDayConflict(list []domain.Reminder, day domain.Date, loc *time.Location, excludeID string) bool {
	return len(ConflictingIDs(list, day, loc, excludeID)) > 0
}
