/*
errors.go - Centralized error types for the timesheet engine

PURPOSE:
  All error kinds in one place for consistency and discoverability.
  Callers classify with errors.Is / errors.As; every error carries a
  human-readable message.

ERROR CATEGORIES:
  1. Clock errors      - State machine violations (double clock-in etc.)
  2. Ownership errors  - Entry access by a non-owning user
  3. Submission errors - Payroll finalization rules
  4. Validation errors - Rejected before any mutation occurs

DELIBERATE GAP:
  Webhook delivery cannot be confirmed by this transport. That is NOT an
  error here; the exporter reports it via a DeliveryConfirmed=false result
  so callers can surface the caveat instead of asserting delivery.
*/
package timesheet

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrAlreadyClockedIn is returned when a user with an open entry tries
	// to clock in again.
	ErrAlreadyClockedIn = errors.New("already clocked in")

	// ErrNotClockedIn is returned when a clock-out style operation finds no
	// open entry for the user.
	ErrNotClockedIn = errors.New("not clocked in")

	// ErrEntryNotFound is returned when an entry does not exist OR belongs
	// to a different user. The two cases are deliberately indistinguishable
	// so ownership cannot be probed.
	ErrEntryNotFound = errors.New("time entry not found or permission denied")

	// ErrExportBlockedByOpenEntry is returned when a week containing any
	// entry without a clock-out time is submitted for payroll.
	ErrExportBlockedByOpenEntry = errors.New("week contains an open entry and cannot be submitted")

	// ErrWeekAlreadySubmitted is returned when a week identifier is already
	// present in the submission ledger. Archiving is monotonic.
	ErrWeekAlreadySubmitted = errors.New("week already submitted")

	// ErrInvalidDateRange is returned when a filter or job window ends
	// before it starts. Rejected before any query or mutation.
	ErrInvalidDateRange = errors.New("invalid date range: end before start")

	// ErrClockOutBeforeClockIn is returned by manual edits that would put
	// the clock-out before the clock-in.
	ErrClockOutBeforeClockIn = errors.New("clock-out time before clock-in time")

	// ErrUserNotFound is returned when a referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrJobNotFound is returned when a referenced job does not exist.
	ErrJobNotFound = errors.New("job not found")

	// ErrSiteNotFound is returned when a referenced site does not exist.
	ErrSiteNotFound = errors.New("site not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// OpenEntryError reports which day's open entry blocked a submission.
type OpenEntryError struct {
	UserID  string
	EntryID string
	Day     time.Time
}

func (e *OpenEntryError) Error() string {
	return fmt.Sprintf("open entry %s on %s blocks submission",
		e.EntryID, e.Day.Format("2006-01-02"))
}

func (e *OpenEntryError) Unwrap() error { return ErrExportBlockedByOpenEntry }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is due to invalid client input or
// state, as opposed to an internal failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrAlreadyClockedIn) ||
		errors.Is(err, ErrNotClockedIn) ||
		errors.Is(err, ErrExportBlockedByOpenEntry) ||
		errors.Is(err, ErrWeekAlreadySubmitted) ||
		errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrClockOutBeforeClockIn)
}

// IsNotFound reports whether the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntryNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrJobNotFound) ||
		errors.Is(err, ErrSiteNotFound)
}
