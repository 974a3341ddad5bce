/*
store.go - Persistence interfaces for the timesheet engine

PURPOSE:
  Defines the boundary between the domain logic and the backing store.
  Implementations: store/sqlite (production), timesheet/store (in-memory,
  for tests and dev).

ATOMICITY CONTRACT:
  CreateOpenEntry is check-THEN-create as one atomic step: if the user
  already has an open entry the call fails with ErrAlreadyClockedIn. A
  plain "is there an open entry?" read followed by a write would let a
  user clock in twice under concurrency. SwitchOpenEntry likewise closes
  the current entry and opens the next one atomically at the same instant.

OWNERSHIP:
  UpdateEntry and DeleteEntry take the acting user's id and fail with
  ErrEntryNotFound when the entry is missing OR owned by someone else.

SUBMISSION LEDGER:
  AddSubmittedWeek is an append-only set union on the user record. There
  is no removal operation: archiving is monotonic.
*/
package timesheet

import (
	"context"
	"time"
)

// =============================================================================
// ENTRY STORE - Durable log of clock events
// =============================================================================

// EntryUpdate describes a manual edit to an entry. Nil fields are left
// unchanged.
type EntryUpdate struct {
	ClockIn  *time.Time
	ClockOut *time.Time
	JobID    *string
	SiteID   *string
	Notes    *string
}

// EntryStore is the durable log of clock events, keyed by user.
type EntryStore interface {
	// GetOpenEntry returns the user's open entry, or nil when clocked out.
	GetOpenEntry(ctx context.Context, userID string) (*TimeEntry, error)

	// CreateOpenEntry atomically checks for an existing open entry and
	// creates a new one. Fails with ErrAlreadyClockedIn.
	CreateOpenEntry(ctx context.Context, entry TimeEntry) error

	// CloseEntry stamps the clock-out time (and optionally a job) on the
	// user's open entry, moving it into the closed log.
	// Fails with ErrNotClockedIn when no open entry exists.
	CloseEntry(ctx context.Context, userID string, clockOut time.Time, jobID string) (TimeEntry, error)

	// SwitchOpenEntry atomically closes the open entry at the given instant
	// with the given job and opens a new entry starting at that same
	// instant. Zero gap, zero overlap.
	SwitchOpenEntry(ctx context.Context, userID string, at time.Time, jobID string) (closed TimeEntry, opened TimeEntry, err error)

	// ListEntries returns a user's closed entries, optionally filtered by
	// clock-in date range, newest first.
	ListEntries(ctx context.Context, userID string, rng *DateRange) ([]TimeEntry, error)

	// ListAllEntries returns entries across users for admin reporting,
	// optionally filtered by range and user ids, newest first.
	ListAllEntries(ctx context.Context, rng *DateRange, userIDs []string) ([]TimeEntry, error)

	// UpdateEntry applies a manual edit to an entry owned by userID.
	UpdateEntry(ctx context.Context, userID, entryID string, upd EntryUpdate) (TimeEntry, error)

	// DeleteEntry removes an entry owned by userID.
	DeleteEntry(ctx context.Context, userID, entryID string) error
}

// =============================================================================
// SUBMISSION LEDGER - Archived week identifiers per user
// =============================================================================

// SubmissionLedger persists which weeks a user has submitted.
type SubmissionLedger interface {
	// AddSubmittedWeek records a week identifier. Append-only set union;
	// fails with ErrWeekAlreadySubmitted on a repeat.
	AddSubmittedWeek(ctx context.Context, userID, weekID string) error

	// SubmittedWeeks returns the user's archived week identifiers.
	SubmittedWeeks(ctx context.Context, userID string) ([]string, error)
}

// =============================================================================
// CATALOG STORE - Jobs and sites
// =============================================================================

// CatalogStore resolves and manages the job/site catalog.
type CatalogStore interface {
	Job(ctx context.Context, id string) (Job, error)
	Site(ctx context.Context, id string) (Site, error)
	ListJobs(ctx context.Context) ([]Job, error)
	ListSites(ctx context.Context) ([]Site, error)
	SaveJob(ctx context.Context, job Job) error
	SaveSite(ctx context.Context, site Site) error
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus) error
}

// =============================================================================
// USER STORE - Entry owners
// =============================================================================

// UserStore manages user records (the external user directory's shape,
// reduced to what the engine needs).
type UserStore interface {
	User(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	SaveUser(ctx context.Context, user User) error
}
