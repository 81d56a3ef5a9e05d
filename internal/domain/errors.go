package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validation sentinels. They always reach callers wrapped in a *ValidationError.
var (
	ErrTitleRequired       = errors.New("title is required")
	ErrTitleTooLong        = errors.New("title exceeds 255 characters")
	ErrInvalidKind         = errors.New("invalid reminder kind")
	ErrKindChange          = errors.New("reminder kind cannot be changed")
	ErrInvalidLevel        = errors.New("invalid level")
	ErrInvalidConflictMode = errors.New("invalid conflict mode")
	ErrInvalidScheduleType = errors.New("invalid schedule type")
	ErrScheduleRequired    = errors.New("schedule is required for recurring reminders")
	ErrDueAtRequired       = errors.New("due time is required for one-off reminders")
	ErrInvalidTimeOfDay    = errors.New("invalid time of day")
	ErrInvalidInterval     = errors.New("interval must be a positive number of days or weeks")
	ErrWeekdaysRequired    = errors.New("at least one weekday is required")
	ErrInvalidWeekday      = errors.New("weekday must be between 0 and 6")
	ErrInvalidDayOfMonth   = errors.New("day of month must be between 1 and 31")
	ErrInvalidBaseDate     = errors.New("invalid anniversary base date")
	ErrDatesRequired       = errors.New("at least one fixed date is required")
	ErrInvalidDate         = errors.New("invalid calendar date")
)

// Lifecycle errors.
var (
	// ErrNotFound indicates no reminder with the given id exists.
	ErrNotFound = errors.New("reminder not found")

	// ErrNotRecurring indicates a recurring-only operation was applied to a one-off reminder.
	ErrNotRecurring = errors.New("reminder is not recurring")

	// ErrNotOneOff indicates a one-off-only operation was applied to a recurring reminder.
	ErrNotOneOff = errors.New("reminder is not a one-off")

	// ErrUnsolvableSchedule indicates the schedule has no future occurrence.
	ErrUnsolvableSchedule = errors.New("schedule has no upcoming occurrence")

	// ErrRetryExhausted indicates Shift mode ran out of attempts.
	// It wraps ErrUnsolvableSchedule so both can be handled with one errors.Is check.
	ErrRetryExhausted = fmt.Errorf("%w: conflict shift attempts exhausted", ErrUnsolvableSchedule)

	// ErrConflict is matched by every *ConflictError.
	ErrConflict = errors.New("day conflict")
)

// ValidationError reports malformed input for a single field.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// IsValidation returns true if err carries a *ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// ConflictError is returned when a Block-mode reminder would share a calendar
// day with another active reminder. Nothing was persisted for create and edit.
type ConflictError struct {
	DateKey        string
	Candidate      time.Time
	ConflictingIDs []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("day conflict on %s with %s", e.DateKey, strings.Join(e.ConflictingIDs, ", "))
}

// Is lets errors.Is(err, ErrConflict) match any ConflictError.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// AsConflict extracts the *ConflictError from err, if any.
func AsConflict(err error) (*ConflictError, bool) {
	var cerr *ConflictError
	if errors.As(err, &cerr) {
		return cerr, true
	}
	return nil, false
}
