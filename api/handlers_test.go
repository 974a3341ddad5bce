package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldwork/timesheet-engine/api"
	"github.com/fieldwork/timesheet-engine/timesheet"
	"github.com/fieldwork/timesheet-engine/timesheet/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

type testEnv struct {
	mem    *store.Memory
	server *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mem := store.NewMemory()
	router := api.NewRouter(api.NewHandler(mem))
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return &testEnv{mem: mem, server: server}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func (e *testEnv) seedUser(t *testing.T, id, name string) {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/users", map[string]string{"id": id, "name": name})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
}

// =============================================================================
// CLOCK FLOW
// =============================================================================

func TestClockFlow_InStatusOut(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1", "Jane Doe")

	// Clock in
	resp := env.do(t, http.MethodPost, "/api/users/u1/clock-in", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var entry struct {
		ID   string `json:"id"`
		Open bool   `json:"open"`
	}
	decodeInto(t, resp, &entry)
	assert.True(t, entry.Open)
	assert.NotEmpty(t, entry.ID)

	// Double clock-in conflicts
	resp = env.do(t, http.MethodPost, "/api/users/u1/clock-in", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Status reports the open entry
	resp = env.do(t, http.MethodGet, "/api/users/u1/clock-status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var status struct {
		ClockedIn bool `json:"clocked_in"`
	}
	decodeInto(t, resp, &status)
	assert.True(t, status.ClockedIn)

	// Clock out
	resp = env.do(t, http.MethodPost, "/api/users/u1/clock-out", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Clock out again fails as a client error
	resp = env.do(t, http.MethodPost, "/api/users/u1/clock-out", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestLogJob_MarksJobCompleted(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1", "Jane Doe")
	ctx := context.Background()

	require.NoError(t, env.mem.SaveSite(ctx, timesheet.Site{ID: "site-a", Title: "Alpha Works"}))
	require.NoError(t, env.mem.SaveJob(ctx, timesheet.Job{
		ID: "job-a", SiteID: "site-a", Title: "Fit-out", AssignedUserID: "u1",
		StartDate: time.Now(), EndDate: time.Now().AddDate(0, 0, 5),
		Status: timesheet.JobInProgress,
	}))

	resp := env.do(t, http.MethodPost, "/api/users/u1/clock-in", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/api/users/u1/log-job", map[string]string{"job_id": "job-a"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result map[string]struct {
		Open  bool   `json:"open"`
		JobID string `json:"job_id"`
	}
	decodeInto(t, resp, &result)
	assert.False(t, result["closed"].Open)
	assert.Equal(t, "job-a", result["closed"].JobID)
	assert.True(t, result["opened"].Open)

	job, err := env.mem.Job(ctx, "job-a")
	require.NoError(t, err)
	assert.Equal(t, timesheet.JobCompleted, job.Status)
}

// =============================================================================
// ENTRY EDITS
// =============================================================================

func TestUpdateEntry_ForeignEntryLooksMissing(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1", "Jane Doe")
	env.seedUser(t, "u2", "John Roe")
	ctx := context.Background()

	// u1 works a session.
	resp := env.do(t, http.MethodPost, "/api/users/u1/clock-in", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()
	entry, err := env.mem.CloseEntry(ctx, "u1", time.Now(), "")
	require.NoError(t, err)

	// u2 cannot edit it.
	resp = env.do(t, http.MethodPut, "/api/users/u2/entries/"+entry.ID,
		map[string]string{"notes": "mine now"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// The owner can.
	resp = env.do(t, http.MethodPut, "/api/users/u1/entries/"+entry.ID,
		map[string]string{"notes": "site visit"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated struct {
		Notes string `json:"notes"`
	}
	decodeInto(t, resp, &updated)
	assert.Equal(t, "site visit", updated.Notes)
}

// =============================================================================
// TIMESHEETS AND SUBMISSION
// =============================================================================

func seedClosedEntry(t *testing.T, env *testEnv, id, userID string, in, out time.Time, jobID string) {
	t.Helper()
	require.NoError(t, env.mem.CreateOpenEntry(context.Background(),
		timesheet.TimeEntry{ID: id, UserID: userID, ClockIn: in, JobID: jobID}))
	_, err := env.mem.CloseEntry(context.Background(), userID, out, jobID)
	require.NoError(t, err)
}

func TestSubmitWeek_CSVDownloadAndArchive(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1", "Jane Doe")
	ctx := context.Background()

	require.NoError(t, env.mem.SaveSite(ctx, timesheet.Site{ID: "site-a", Title: "Alpha Works"}))
	in := time.Date(2025, time.June, 2, 8, 0, 0, 0, time.Local)
	seedClosedEntry(t, env, "e1", "u1", in, in.Add(8*time.Hour+30*time.Minute), "")

	// Submit the week: CSV comes back as a download.
	resp := env.do(t, http.MethodPost, "/api/users/u1/weeks/2025-06-02/submit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "Timesheet-Jane_Doe-")
	resp.Body.Close()

	// The week is archived now.
	resp = env.do(t, http.MethodGet, "/api/users/u1/timesheets", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sheets struct {
		Active   []struct{ WeekID string `json:"week_id"` } `json:"active"`
		Archived []struct{ WeekID string `json:"week_id"` } `json:"archived"`
	}
	decodeInto(t, resp, &sheets)
	assert.Empty(t, sheets.Active)
	require.Len(t, sheets.Archived, 1)
	assert.Equal(t, "2025-06-02", sheets.Archived[0].WeekID)

	// Resubmission conflicts.
	resp = env.do(t, http.MethodPost, "/api/users/u1/weeks/2025-06-02/submit", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Re-export still works without touching the ledger.
	resp = env.do(t, http.MethodGet, "/api/users/u1/weeks/2025-06-02/export", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	resp.Body.Close()
}

func TestSubmitWeek_OpenEntryBlocks(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1", "Jane Doe")

	in := time.Date(2025, time.June, 2, 8, 0, 0, 0, time.Local)
	require.NoError(t, env.mem.CreateOpenEntry(context.Background(),
		timesheet.TimeEntry{ID: "open", UserID: "u1", ClockIn: in}))

	resp := env.do(t, http.MethodPost, "/api/users/u1/weeks/2025-06-02/submit", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

// =============================================================================
// ADMIN REPORT
// =============================================================================

func TestAdminEntries_RangeValidation(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1", "Jane Doe")

	in := time.Date(2025, time.June, 2, 8, 0, 0, 0, time.Local)
	seedClosedEntry(t, env, "e1", "u1", in, in.Add(4*time.Hour), "")

	// An inverted range is rejected before querying.
	resp := env.do(t, http.MethodGet, "/api/admin/entries?from=2025-06-10&to=2025-06-01", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var errResp struct {
		Error string `json:"error"`
	}
	decodeInto(t, resp, &errResp)
	assert.True(t, strings.Contains(errResp.Error, "date range"))

	// A valid range returns the entry.
	resp = env.do(t, http.MethodGet, "/api/admin/entries?from=2025-06-01&to=2025-06-07&users=u1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []struct {
		ID string `json:"id"`
	}
	decodeInto(t, resp, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "e1", entries[0].ID)
}

// =============================================================================
// CATALOG
// =============================================================================

func TestSaveJob_ValidatesWindowAndSite(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/sites", map[string]string{"id": "site-a", "title": "Alpha Works"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Inverted window rejected.
	resp = env.do(t, http.MethodPost, "/api/jobs", map[string]string{
		"site_id": "site-a", "title": "Fit-out",
		"start_date": "2025-06-10", "end_date": "2025-06-02",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Unknown site rejected.
	resp = env.do(t, http.MethodPost, "/api/jobs", map[string]string{
		"site_id": "nope", "title": "Fit-out",
		"start_date": "2025-06-02", "end_date": "2025-06-10",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Valid job defaults to Pending.
	resp = env.do(t, http.MethodPost, "/api/jobs", map[string]string{
		"site_id": "site-a", "title": "Fit-out", "assigned_user_id": "u1",
		"start_date": "2025-06-02", "end_date": "2025-06-10",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var job struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeInto(t, resp, &job)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, string(timesheet.JobPending), job.Status)
}
