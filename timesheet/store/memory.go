// Package store provides in-memory implementations of the timesheet
// persistence interfaces, for tests and development.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldwork/timesheet-engine/timesheet"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements EntryStore, SubmissionLedger, CatalogStore and
// UserStore behind a single mutex, so check-then-create is atomic the same
// way a per-document write conflict would serialize it in production.
type Memory struct {
	mu sync.RWMutex

	open    map[string]timesheet.TimeEntry // userID -> open entry
	entries map[string]timesheet.TimeEntry // entryID -> closed entry

	users map[string]timesheet.User
	jobs  map[string]timesheet.Job
	sites map[string]timesheet.Site

	submitted map[string]map[string]bool // userID -> weekID set
}

func NewMemory() *Memory {
	return &Memory{
		open:      make(map[string]timesheet.TimeEntry),
		entries:   make(map[string]timesheet.TimeEntry),
		users:     make(map[string]timesheet.User),
		jobs:      make(map[string]timesheet.Job),
		sites:     make(map[string]timesheet.Site),
		submitted: make(map[string]map[string]bool),
	}
}

var _ timesheet.EntryStore = (*Memory)(nil)
var _ timesheet.SubmissionLedger = (*Memory)(nil)
var _ timesheet.CatalogStore = (*Memory)(nil)
var _ timesheet.UserStore = (*Memory)(nil)

// =============================================================================
// ENTRY STORE
// =============================================================================

func (m *Memory) GetOpenEntry(_ context.Context, userID string) (*timesheet.TimeEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if e, ok := m.open[userID]; ok {
		copied := e
		return &copied, nil
	}
	return nil, nil
}

func (m *Memory) CreateOpenEntry(_ context.Context, entry timesheet.TimeEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Check and create under one lock: the atomic step the clock
	// state machine depends on.
	if _, ok := m.open[entry.UserID]; ok {
		return timesheet.ErrAlreadyClockedIn
	}
	entry.ClockOut = nil
	m.open[entry.UserID] = entry
	return nil
}

func (m *Memory) CloseEntry(_ context.Context, userID string, clockOut time.Time, jobID string) (timesheet.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.open[userID]
	if !ok {
		return timesheet.TimeEntry{}, timesheet.ErrNotClockedIn
	}
	out := clockOut
	entry.ClockOut = &out
	if jobID != "" {
		entry.JobID = jobID
	}
	delete(m.open, userID)
	m.entries[entry.ID] = entry
	return entry, nil
}

func (m *Memory) SwitchOpenEntry(_ context.Context, userID string, at time.Time, jobID string) (timesheet.TimeEntry, timesheet.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.open[userID]
	if !ok {
		return timesheet.TimeEntry{}, timesheet.TimeEntry{}, timesheet.ErrNotClockedIn
	}
	out := at
	entry.ClockOut = &out
	entry.JobID = jobID
	m.entries[entry.ID] = entry

	opened := timesheet.TimeEntry{
		ID:      uuid.NewString(),
		UserID:  userID,
		ClockIn: at, // new segment starts where the last one ended
	}
	m.open[userID] = opened
	return entry, opened, nil
}

func (m *Memory) ListEntries(_ context.Context, userID string, rng *timesheet.DateRange) ([]timesheet.TimeEntry, error) {
	if rng != nil {
		if err := rng.Validate(); err != nil {
			return nil, err
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []timesheet.TimeEntry
	for _, e := range m.entries {
		if e.UserID != userID {
			continue
		}
		if rng != nil && !rng.Contains(e.ClockIn) {
			continue
		}
		result = append(result, e)
	}
	sortNewestFirst(result)
	return result, nil
}

func (m *Memory) ListAllEntries(_ context.Context, rng *timesheet.DateRange, userIDs []string) ([]timesheet.TimeEntry, error) {
	if rng != nil {
		if err := rng.Validate(); err != nil {
			return nil, err
		}
	}
	wanted := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []timesheet.TimeEntry
	for _, e := range m.entries {
		if len(wanted) > 0 && !wanted[e.UserID] {
			continue
		}
		if rng != nil && !rng.Contains(e.ClockIn) {
			continue
		}
		result = append(result, e)
	}
	sortNewestFirst(result)
	return result, nil
}

func (m *Memory) UpdateEntry(_ context.Context, userID, entryID string, upd timesheet.EntryUpdate) (timesheet.TimeEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[entryID]
	if !ok || entry.UserID != userID {
		return timesheet.TimeEntry{}, timesheet.ErrEntryNotFound
	}

	if upd.ClockIn != nil {
		entry.ClockIn = *upd.ClockIn
	}
	if upd.ClockOut != nil {
		out := *upd.ClockOut
		entry.ClockOut = &out
	}
	if entry.ClockOut != nil && entry.ClockOut.Before(entry.ClockIn) {
		return timesheet.TimeEntry{}, timesheet.ErrClockOutBeforeClockIn
	}
	if upd.JobID != nil {
		entry.JobID = *upd.JobID
	}
	if upd.SiteID != nil {
		entry.SiteID = *upd.SiteID
	}
	if upd.Notes != nil {
		entry.Notes = *upd.Notes
	}

	m.entries[entryID] = entry
	return entry, nil
}

func (m *Memory) DeleteEntry(_ context.Context, userID, entryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[entryID]
	if !ok || entry.UserID != userID {
		return timesheet.ErrEntryNotFound
	}
	delete(m.entries, entryID)
	return nil
}

func sortNewestFirst(entries []timesheet.TimeEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ClockIn.After(entries[j].ClockIn)
	})
}

// =============================================================================
// SUBMISSION LEDGER
// =============================================================================

func (m *Memory) AddSubmittedWeek(_ context.Context, userID, weekID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	weeks, ok := m.submitted[userID]
	if !ok {
		weeks = make(map[string]bool)
		m.submitted[userID] = weeks
	}
	if weeks[weekID] {
		return timesheet.ErrWeekAlreadySubmitted
	}
	weeks[weekID] = true
	return nil
}

func (m *Memory) SubmittedWeeks(_ context.Context, userID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var weeks []string
	for w := range m.submitted[userID] {
		weeks = append(weeks, w)
	}
	sort.Strings(weeks)
	return weeks, nil
}

// =============================================================================
// CATALOG STORE
// =============================================================================

func (m *Memory) Job(_ context.Context, id string) (timesheet.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	job, ok := m.jobs[id]
	if !ok {
		return timesheet.Job{}, timesheet.ErrJobNotFound
	}
	return job, nil
}

func (m *Memory) Site(_ context.Context, id string) (timesheet.Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	site, ok := m.sites[id]
	if !ok {
		return timesheet.Site{}, timesheet.ErrSiteNotFound
	}
	return site, nil
}

func (m *Memory) ListJobs(_ context.Context) ([]timesheet.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	jobs := make([]timesheet.Job, 0, len(m.jobs))
	for _, j := range m.jobs {
		jobs = append(jobs, j)
	}
	sort.Slice(jobs, func(i, j int) bool { return jobs[i].ID < jobs[j].ID })
	return jobs, nil
}

func (m *Memory) ListSites(_ context.Context) ([]timesheet.Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sites := make([]timesheet.Site, 0, len(m.sites))
	for _, s := range m.sites {
		sites = append(sites, s)
	}
	sort.Slice(sites, func(i, j int) bool { return sites[i].ID < sites[j].ID })
	return sites, nil
}

func (m *Memory) SaveJob(_ context.Context, job timesheet.Job) error {
	if job.EndDate.Before(job.StartDate) {
		return timesheet.ErrInvalidDateRange
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs[job.ID] = job
	return nil
}

func (m *Memory) SaveSite(_ context.Context, site timesheet.Site) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sites[site.ID] = site
	return nil
}

func (m *Memory) UpdateJobStatus(_ context.Context, jobID string, status timesheet.JobStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return timesheet.ErrJobNotFound
	}
	job.Status = status
	m.jobs[jobID] = job
	return nil
}

// =============================================================================
// USER STORE
// =============================================================================

func (m *Memory) User(_ context.Context, id string) (timesheet.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return timesheet.User{}, timesheet.ErrUserNotFound
	}
	weeks := m.submitted[id]
	user.SubmittedWeeks = make([]string, 0, len(weeks))
	for w := range weeks {
		user.SubmittedWeeks = append(user.SubmittedWeeks, w)
	}
	sort.Strings(user.SubmittedWeeks)
	return user, nil
}

func (m *Memory) ListUsers(_ context.Context) ([]timesheet.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]timesheet.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (m *Memory) SaveUser(_ context.Context, user timesheet.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}
