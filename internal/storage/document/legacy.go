package document

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rezkam/reminders/internal/domain"
)

// ErrUnknownScheduleMode is returned for a legacy scheduleMode with no
// current equivalent.
var ErrUnknownScheduleMode = errors.New("unknown legacy schedule mode")

// leapYear anchors "MM-DD" legacy anniversaries so Feb 29 stays valid.
const leapYear = 2000

// migrateLegacy rewrites a legacy scheduleMode record into scheduleType form.
//
//	daily     -> DAILY
//	weekly    -> WEEKLY (weekdays)
//	everyDays -> INTERVAL every N DAY
//	monthDay  -> MONTHLY_DAY
//	yearDate  -> ANNIVERSARY ("YYYY-MM-DD" or "MM-DD")
//	dates     -> FIXED_DATES
func migrateLegacy(rec *record) error {
	if rec.TimeOfDay == "" {
		rec.TimeOfDay = rec.Time
	}

	switch strings.ToLower(rec.ScheduleMode) {
	case "daily":
		rec.ScheduleType = string(domain.ScheduleDaily)
	case "weekly":
		rec.ScheduleType = string(domain.ScheduleWeekly)
	case "everydays":
		rec.ScheduleType = string(domain.ScheduleInterval)
		rec.Every = rec.EveryDays
		rec.Unit = string(domain.UnitDay)
	case "monthday":
		rec.ScheduleType = string(domain.ScheduleMonthlyDay)
		rec.DayOfMonth = rec.MonthDay
	case "yeardate":
		rec.ScheduleType = string(domain.ScheduleAnniversary)
		base := rec.YearDate
		if len(base) == len("01-02") {
			base = fmt.Sprintf("%d-%s", leapYear, base)
		}
		rec.BaseDate = base
	case "dates":
		rec.ScheduleType = string(domain.ScheduleFixedDates)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownScheduleMode, rec.ScheduleMode)
	}

	rec.Kind = string(domain.KindRecurring)
	rec.ScheduleMode = ""
	return nil
}
