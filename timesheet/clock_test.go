package timesheet_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldwork/timesheet-engine/timesheet"
	"github.com/fieldwork/timesheet-engine/timesheet/store"
)

// newTestClock returns a clock service with a controllable time source.
func newTestClock(mem *store.Memory, now *time.Time) *timesheet.ClockService {
	seq := 0
	return timesheet.NewClockService(mem,
		timesheet.WithClock(func() time.Time { return *now }),
		timesheet.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("entry-%d", seq)
		}),
	)
}

func TestClockIn_ThenStatus(t *testing.T) {
	// GIVEN: A clocked-out user
	ctx := context.Background()
	mem := store.NewMemory()
	now := at(2025, time.June, 2, 8, 0)
	clock := newTestClock(mem, &now)

	// WHEN: Clocking in
	entry, err := clock.ClockIn(ctx, "u1")
	require.NoError(t, err)

	// THEN: The entry is open and visible via Status
	assert.True(t, entry.IsOpen())
	assert.Equal(t, now, entry.ClockIn)

	open, err := clock.Status(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, entry.ID, open.ID)
}

func TestClockIn_TwiceFails(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	now := at(2025, time.June, 2, 8, 0)
	clock := newTestClock(mem, &now)

	_, err := clock.ClockIn(ctx, "u1")
	require.NoError(t, err)

	_, err = clock.ClockIn(ctx, "u1")
	assert.ErrorIs(t, err, timesheet.ErrAlreadyClockedIn)
}

func TestClockOut_WithoutOpenEntryFails(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	now := at(2025, time.June, 2, 8, 0)
	clock := newTestClock(mem, &now)

	_, err := clock.ClockOut(ctx, "u1", "")
	assert.ErrorIs(t, err, timesheet.ErrNotClockedIn)
}

func TestClockOut_StampsJobAndCloses(t *testing.T) {
	// GIVEN: A user clocked in at 08:00
	ctx := context.Background()
	mem := store.NewMemory()
	now := at(2025, time.June, 2, 8, 0)
	clock := newTestClock(mem, &now)

	_, err := clock.ClockIn(ctx, "u1")
	require.NoError(t, err)

	// WHEN: Clocking out at 16:30 against a job
	now = at(2025, time.June, 2, 16, 30)
	entry, err := clock.ClockOut(ctx, "u1", "job-a")
	require.NoError(t, err)

	// THEN: The entry is closed with the job attributed
	require.NotNil(t, entry.ClockOut)
	assert.Equal(t, now, *entry.ClockOut)
	assert.Equal(t, "job-a", entry.JobID)
	assert.Equal(t, 8*time.Hour+30*time.Minute, entry.Duration())

	open, err := clock.Status(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, open)
}

func TestLogJobAndContinue_ZeroGapSwitch(t *testing.T) {
	// GIVEN: A user mid-shift
	ctx := context.Background()
	mem := store.NewMemory()
	now := at(2025, time.June, 2, 8, 0)
	clock := newTestClock(mem, &now)

	_, err := clock.ClockIn(ctx, "u1")
	require.NoError(t, err)

	// WHEN: Logging a job at noon without stopping work
	now = at(2025, time.June, 2, 12, 0)
	closed, opened, err := clock.LogJobAndContinue(ctx, "u1", "job-a")
	require.NoError(t, err)

	// THEN: The old session closed and the new one opened at the same instant
	require.NotNil(t, closed.ClockOut)
	assert.Equal(t, "job-a", closed.JobID)
	assert.Equal(t, *closed.ClockOut, opened.ClockIn)
	assert.True(t, opened.IsOpen())

	open, err := clock.Status(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, opened.ID, open.ID)
}

func TestLogJobAndContinue_WithoutOpenEntryFails(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	now := at(2025, time.June, 2, 8, 0)
	clock := newTestClock(mem, &now)

	_, _, err := clock.LogJobAndContinue(ctx, "u1", "job-a")
	assert.ErrorIs(t, err, timesheet.ErrNotClockedIn)
}
