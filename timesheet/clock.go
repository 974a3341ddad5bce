/*
clock.go - The clock state machine

PURPOSE:
  Drives each user's ClockedOut -> ClockedIn -> ClockedOut cycle on top of
  the EntryStore. The store provides the atomic check-then-create that
  keeps "at most one open entry per user" true under concurrency; this
  layer owns the sequencing and the timestamps.

OPERATIONS:
  ClockIn             Opens a new entry at now. ErrAlreadyClockedIn if an
                      open entry exists.
  ClockOut            Closes the open entry at now, optionally stamping a
                      job. ErrNotClockedIn without an open entry.
  LogJobAndContinue   Closes the open entry at now with the given job and
                      opens a new one at the SAME instant - zero-gap
                      session splitting for mid-shift job switches. The
                      allocation engine later treats both segments as one
                      day's work (it operates on all of a day's entries
                      together, not per open/close cycle).
*/
package timesheet

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ClockService runs the per-user clock state machine.
type ClockService struct {
	entries EntryStore
	now     func() time.Time
	newID   func() string
}

// ClockOption customizes a ClockService.
type ClockOption func(*ClockService)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) ClockOption {
	return func(s *ClockService) { s.now = now }
}

// WithIDGenerator overrides entry id generation. Used by tests.
func WithIDGenerator(newID func() string) ClockOption {
	return func(s *ClockService) { s.newID = newID }
}

// NewClockService creates a clock service over the given entry store.
func NewClockService(entries EntryStore, opts ...ClockOption) *ClockService {
	s := &ClockService{
		entries: entries,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClockIn opens a new entry for the user at the current instant.
func (s *ClockService) ClockIn(ctx context.Context, userID string) (TimeEntry, error) {
	entry := TimeEntry{
		ID:      s.newID(),
		UserID:  userID,
		ClockIn: s.now(),
	}
	if err := s.entries.CreateOpenEntry(ctx, entry); err != nil {
		return TimeEntry{}, err
	}
	return entry, nil
}

// ClockOut closes the user's open entry at the current instant. jobID, when
// non-empty, attributes the whole session to that job.
func (s *ClockService) ClockOut(ctx context.Context, userID, jobID string) (TimeEntry, error) {
	return s.entries.CloseEntry(ctx, userID, s.now(), jobID)
}

// LogJobAndContinue closes the current session against jobID and starts the
// next session at the exact same instant.
func (s *ClockService) LogJobAndContinue(ctx context.Context, userID, jobID string) (closed TimeEntry, opened TimeEntry, err error) {
	return s.entries.SwitchOpenEntry(ctx, userID, s.now(), jobID)
}

// Status returns the user's open entry, or nil when clocked out.
func (s *ClockService) Status(ctx context.Context, userID string) (*TimeEntry, error) {
	return s.entries.GetOpenEntry(ctx, userID)
}
