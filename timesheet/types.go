/*
Package timesheet provides the core timesheet aggregation engine.

PURPOSE:
  This package contains the domain types and algorithms for turning a flat
  log of clock-in/clock-out events into auditable weekly payroll data:
  week bucketing, statutory break deduction, proportional site allocation,
  and the clock state machine that produces the entries in the first place.

KEY CONCEPTS IN THIS FILE (types.go):
  - TimeEntry: A single clock-in-to-clock-out session (open while working)
  - Job/Site:  The catalog a session's time is attributed against
  - User:      Owner of entries, carries the submission ledger
  - Catalog:   Snapshot of jobs/sites used to resolve entries to sites

DESIGN PRINCIPLES:
  1. Purity: Aggregation operates on an already-fetched snapshot of entries
     and is idempotent - same entries in, same totals out.
  2. Precision: Payroll math uses decimal.Decimal; rounding happens only
     at presentation (export), never during accumulation.
  3. Safety: An open entry blocks payroll finalization for its day.

SEE ALSO:
  - week.go:       Monday-to-Sunday week bucketing
  - breaks.go:     Statutory break step function
  - allocation.go: Proportional site allocation (export-accurate path)
  - aggregate.go:  Weekly display totals (estimate path)
  - clock.go:      Clock-in/out state machine
*/
package timesheet

import (
	"time"
)

// =============================================================================
// TIME ENTRY - One clock-in-to-clock-out session
// =============================================================================

// TimeEntry records a single worked session. ClockOut is nil while the
// session is open ("currently clocked in").
//
// Invariants:
//   - At most one open entry per user at any time (enforced by the store).
//   - ClockOut, when set, is never before ClockIn.
type TimeEntry struct {
	ID      string
	UserID  string
	ClockIn time.Time
	// ClockOut is nil for the open entry.
	ClockOut *time.Time
	// JobID attributes the session to a job (and through it, a site).
	JobID string
	// SiteID attributes the session directly to a site when no job is set.
	SiteID string
	Notes  string
}

// IsOpen reports whether the entry has no clock-out time yet.
func (e TimeEntry) IsOpen() bool { return e.ClockOut == nil }

// Duration returns the gross worked duration. Zero for open entries.
func (e TimeEntry) Duration() time.Duration {
	if e.ClockOut == nil {
		return 0
	}
	return e.ClockOut.Sub(e.ClockIn)
}

// Day returns the local calendar date of the clock-in, truncated to midnight.
// The clock-in date decides which day (and week) a session belongs to, even
// when the clock-out spills past midnight.
func (e TimeEntry) Day() time.Time {
	t := e.ClockIn
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// =============================================================================
// CATALOG TYPES - Jobs and sites
// =============================================================================

type JobStatus string

const (
	JobPending    JobStatus = "Pending"
	JobInProgress JobStatus = "In Progress"
	JobCompleted  JobStatus = "Completed"
)

// Job is a unit of work at a site, assigned to one user for a date window.
// StartDate and EndDate are inclusive calendar dates.
type Job struct {
	ID             string
	SiteID         string
	Title          string
	Description    string
	AssignedUserID string
	StartDate      time.Time
	EndDate        time.Time
	Status         JobStatus
}

// Site is a physical location jobs belong to.
type Site struct {
	ID          string
	SiteNumber  string
	Title       string
	Address     string
	Description string
}

// =============================================================================
// USER - Entry owner and submission ledger
// =============================================================================

// User is the owning account for time entries. SubmittedWeeks is the
// submission ledger: the set of week identifiers already archived. A week
// identifier, once present, never leaves the set.
type User struct {
	ID             string
	Email          string
	Name           string
	Role           string
	WebhookURL     string
	Disabled       bool
	SubmittedWeeks []string
}

// HasSubmitted reports whether the given week identifier is archived.
func (u User) HasSubmitted(weekID string) bool {
	for _, w := range u.SubmittedWeeks {
		if w == weekID {
			return true
		}
	}
	return false
}

// =============================================================================
// CATALOG - Snapshot used to resolve entries to sites
// =============================================================================

// Catalog is an immutable lookup snapshot of jobs and sites. Allocation
// resolves an entry's site through its job first, then its direct site id.
type Catalog struct {
	Jobs  map[string]Job
	Sites map[string]Site
}

// NewCatalog builds a Catalog from job and site slices.
func NewCatalog(jobs []Job, sites []Site) Catalog {
	c := Catalog{
		Jobs:  make(map[string]Job, len(jobs)),
		Sites: make(map[string]Site, len(sites)),
	}
	for _, j := range jobs {
		c.Jobs[j.ID] = j
	}
	for _, s := range sites {
		c.Sites[s.ID] = s
	}
	return c
}

// ResolveSite returns the site an entry's time belongs to.
// Resolution order: JobID -> Job -> SiteID, then the entry's direct SiteID.
// A stale id (job or site deleted after the fact) resolves to nothing and
// the caller folds the time into the "Unassigned" bucket.
func (c Catalog) ResolveSite(e TimeEntry) (Site, bool) {
	if e.JobID != "" {
		if job, ok := c.Jobs[e.JobID]; ok {
			if site, ok := c.Sites[job.SiteID]; ok {
				return site, true
			}
		}
		return Site{}, false
	}
	if e.SiteID != "" {
		site, ok := c.Sites[e.SiteID]
		return site, ok
	}
	return Site{}, false
}

// =============================================================================
// DATE RANGE - Query filter for entry listings
// =============================================================================

// DateRange is an inclusive [From, To] filter on clock-in times.
type DateRange struct {
	From time.Time
	To   time.Time
}

// Validate rejects ranges whose end precedes their start.
func (r DateRange) Validate() error {
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return ErrInvalidDateRange
	}
	return nil
}

// Contains reports whether t falls inside the range. Zero bounds are open.
func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}
