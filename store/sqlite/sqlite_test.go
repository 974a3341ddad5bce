package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldwork/timesheet-engine/store/sqlite"
	"github.com/fieldwork/timesheet-engine/timesheet"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func at(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.Local)
}

func openAt(id, userID string, in time.Time) timesheet.TimeEntry {
	return timesheet.TimeEntry{ID: id, UserID: userID, ClockIn: in}
}

// =============================================================================
// ENTRY STORE
// =============================================================================

func TestCreateOpenEntry_UniqueIndexRejectsSecond(t *testing.T) {
	// GIVEN: A user with an open entry
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.CreateOpenEntry(ctx, openAt("e1", "u1", at(2025, time.June, 2, 8, 0))))

	// WHEN: Creating a second open entry for the same user
	err := store.CreateOpenEntry(ctx, openAt("e2", "u1", at(2025, time.June, 2, 9, 0)))

	// THEN: The partial unique index rejects it as a double clock-in
	assert.ErrorIs(t, err, timesheet.ErrAlreadyClockedIn)

	// AND: A different user is unaffected
	assert.NoError(t, store.CreateOpenEntry(ctx, openAt("e3", "u2", at(2025, time.June, 2, 9, 0))))
}

func TestCloseEntry_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	in := at(2025, time.June, 2, 8, 0)
	require.NoError(t, store.CreateOpenEntry(ctx, openAt("e1", "u1", in)))

	// Closing stamps the clock-out and the job.
	out := at(2025, time.June, 2, 16, 30)
	entry, err := store.CloseEntry(ctx, "u1", out, "job-a")
	require.NoError(t, err)
	assert.Equal(t, "e1", entry.ID)
	require.NotNil(t, entry.ClockOut)
	assert.True(t, entry.ClockOut.Equal(out))
	assert.Equal(t, "job-a", entry.JobID)

	// The open slot is free again.
	open, err := store.GetOpenEntry(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, open)

	// The closed entry shows up in listings.
	entries, err := store.ListEntries(ctx, "u1", nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "e1", entries[0].ID)
}

func TestCloseEntry_NotClockedIn(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.CloseEntry(ctx, "u1", at(2025, time.June, 2, 16, 0), "")
	assert.ErrorIs(t, err, timesheet.ErrNotClockedIn)
}

func TestSwitchOpenEntry_ZeroGap(t *testing.T) {
	// GIVEN: An open entry
	ctx := context.Background()
	store := newTestStore(t)
	require.NoError(t, store.CreateOpenEntry(ctx, openAt("e1", "u1", at(2025, time.June, 2, 8, 0))))

	// WHEN: Switching at noon
	noon := at(2025, time.June, 2, 12, 0)
	closed, opened, err := store.SwitchOpenEntry(ctx, "u1", noon, "job-a")
	require.NoError(t, err)

	// THEN: Closed and opened share the switch instant
	require.NotNil(t, closed.ClockOut)
	assert.True(t, closed.ClockOut.Equal(noon))
	assert.Equal(t, "job-a", closed.JobID)
	assert.True(t, opened.ClockIn.Equal(noon))

	open, err := store.GetOpenEntry(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, opened.ID, open.ID)
}

func TestListEntries_RangeFilterAndOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	// Three closed entries across three days.
	for i, id := range []string{"e1", "e2", "e3"} {
		in := at(2025, time.June, 2+i, 8, 0)
		require.NoError(t, store.CreateOpenEntry(ctx, openAt(id, "u1", in)))
		_, err := store.CloseEntry(ctx, "u1", in.Add(8*time.Hour), "")
		require.NoError(t, err)
	}

	// Newest first without a filter.
	all, err := store.ListEntries(ctx, "u1", nil)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "e3", all[0].ID)

	// Range keeps only the middle day.
	rng := &timesheet.DateRange{
		From: at(2025, time.June, 3, 0, 0),
		To:   at(2025, time.June, 3, 23, 59),
	}
	filtered, err := store.ListEntries(ctx, "u1", rng)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "e2", filtered[0].ID)

	// An inverted range is rejected before querying.
	_, err = store.ListEntries(ctx, "u1", &timesheet.DateRange{From: rng.To, To: rng.From})
	assert.ErrorIs(t, err, timesheet.ErrInvalidDateRange)
}

func TestListAllEntries_UserFilter(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, u := range []string{"u1", "u2", "u3"} {
		in := at(2025, time.June, 2, 8, 0)
		require.NoError(t, store.CreateOpenEntry(ctx, openAt("e-"+u, u, in)))
		_, err := store.CloseEntry(ctx, u, in.Add(4*time.Hour), "")
		require.NoError(t, err)
	}

	entries, err := store.ListAllEntries(ctx, nil, []string{"u1", "u3"})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.NotEqual(t, "u2", e.UserID)
	}
}

func TestUpdateEntry_OwnershipEnforced(t *testing.T) {
	// GIVEN: A closed entry owned by u1
	ctx := context.Background()
	store := newTestStore(t)
	in := at(2025, time.June, 2, 8, 0)
	require.NoError(t, store.CreateOpenEntry(ctx, openAt("e1", "u1", in)))
	_, err := store.CloseEntry(ctx, "u1", in.Add(8*time.Hour), "")
	require.NoError(t, err)

	notes := "forgot to clock out"
	// WHEN: Another user tries to edit it
	_, err = store.UpdateEntry(ctx, "u2", "e1", timesheet.EntryUpdate{Notes: &notes})
	// THEN: Indistinguishable from a missing entry
	assert.ErrorIs(t, err, timesheet.ErrEntryNotFound)

	// AND: The owner's edit goes through
	updated, err := store.UpdateEntry(ctx, "u1", "e1", timesheet.EntryUpdate{Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, notes, updated.Notes)
}

func TestUpdateEntry_RejectsInvertedTimes(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	in := at(2025, time.June, 2, 8, 0)
	require.NoError(t, store.CreateOpenEntry(ctx, openAt("e1", "u1", in)))
	_, err := store.CloseEntry(ctx, "u1", in.Add(8*time.Hour), "")
	require.NoError(t, err)

	bad := in.Add(-time.Hour)
	_, err = store.UpdateEntry(ctx, "u1", "e1", timesheet.EntryUpdate{ClockOut: &bad})
	assert.ErrorIs(t, err, timesheet.ErrClockOutBeforeClockIn)
}

func TestDeleteEntry_OwnershipEnforced(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	in := at(2025, time.June, 2, 8, 0)
	require.NoError(t, store.CreateOpenEntry(ctx, openAt("e1", "u1", in)))
	_, err := store.CloseEntry(ctx, "u1", in.Add(8*time.Hour), "")
	require.NoError(t, err)

	assert.ErrorIs(t, store.DeleteEntry(ctx, "u2", "e1"), timesheet.ErrEntryNotFound)
	assert.NoError(t, store.DeleteEntry(ctx, "u1", "e1"))
	assert.ErrorIs(t, store.DeleteEntry(ctx, "u1", "e1"), timesheet.ErrEntryNotFound)
}

// =============================================================================
// SUBMISSION LEDGER
// =============================================================================

func TestSubmittedWeeks_AppendOnly(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.AddSubmittedWeek(ctx, "u1", "2025-06-02"))
	require.NoError(t, store.AddSubmittedWeek(ctx, "u1", "2025-06-09"))

	// A repeat violates the ledger's uniqueness.
	assert.ErrorIs(t, store.AddSubmittedWeek(ctx, "u1", "2025-06-02"),
		timesheet.ErrWeekAlreadySubmitted)

	weeks, err := store.SubmittedWeeks(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-06-02", "2025-06-09"}, weeks)
}

// =============================================================================
// CATALOG AND USERS
// =============================================================================

func TestJobCatalog_RoundTripAndStatus(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	job := timesheet.Job{
		ID: "job-a", SiteID: "site-a", Title: "Fit-out",
		AssignedUserID: "u1",
		StartDate:      at(2025, time.June, 2, 0, 0),
		EndDate:        at(2025, time.June, 6, 0, 0),
		Status:         timesheet.JobPending,
	}
	require.NoError(t, store.SaveJob(ctx, job))

	got, err := store.Job(ctx, "job-a")
	require.NoError(t, err)
	assert.Equal(t, job.Title, got.Title)
	assert.True(t, got.StartDate.Equal(job.StartDate))

	require.NoError(t, store.UpdateJobStatus(ctx, "job-a", timesheet.JobCompleted))
	got, err = store.Job(ctx, "job-a")
	require.NoError(t, err)
	assert.Equal(t, timesheet.JobCompleted, got.Status)

	assert.ErrorIs(t, store.UpdateJobStatus(ctx, "missing", timesheet.JobCompleted),
		timesheet.ErrJobNotFound)
}

func TestSaveJob_RejectsInvertedWindow(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	err := store.SaveJob(ctx, timesheet.Job{
		ID: "job-a", SiteID: "site-a", Title: "Fit-out",
		StartDate: at(2025, time.June, 6, 0, 0),
		EndDate:   at(2025, time.June, 2, 0, 0),
		Status:    timesheet.JobPending,
	})
	assert.ErrorIs(t, err, timesheet.ErrInvalidDateRange)
}

func TestUser_CarriesSubmissionLedger(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SaveUser(ctx, timesheet.User{ID: "u1", Name: "Jane Doe"}))
	require.NoError(t, store.AddSubmittedWeek(ctx, "u1", "2025-06-02"))

	user, err := store.User(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", user.Name)
	assert.Equal(t, []string{"2025-06-02"}, user.SubmittedWeeks)
	assert.True(t, user.HasSubmitted("2025-06-02"))

	_, err = store.User(ctx, "missing")
	assert.ErrorIs(t, err, timesheet.ErrUserNotFound)
}
