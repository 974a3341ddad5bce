/*
handlers.go - HTTP API handlers for the timesheet engine

PURPOSE:
  Exposes the timesheet engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Clock:
    POST   /api/users/{id}/clock-in      Open a new entry
    POST   /api/users/{id}/clock-out     Close the open entry
    POST   /api/users/{id}/log-job       Close against a job, keep working
    GET    /api/users/{id}/clock-status  Open entry, if any

  Timesheets:
    GET    /api/users/{id}/timesheets               Active/archived weeks
    POST   /api/users/{id}/weeks/{weekID}/submit    Export + archive a week
    GET    /api/users/{id}/weeks/{weekID}/export    Re-download (no ledger)
    PUT    /api/users/{id}/entries/{entryID}        Manual edit (owner only)
    DELETE /api/users/{id}/entries/{entryID}        Delete (owner only)

  Catalog:
    GET    /api/users/{id}/jobs/upcoming  Jobs the user can log against
    GET/POST /api/jobs, PUT /api/jobs/{id}/status
    GET/POST /api/sites
    GET/POST /api/users, GET /api/users/{id}

  Admin:
    GET    /api/admin/entries  Cross-user entry report (range + user filter)

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (clock service, aggregator, exporter)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (double clock-in, week already submitted)
  - 500: Internal errors

SECURITY NOTE:
  Identity is taken from the URL; authentication is the fronting proxy's
  job in this deployment. All handlers still enforce per-user ownership.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fieldwork/timesheet-engine/export"
	"github.com/fieldwork/timesheet-engine/timesheet"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is everything the HTTP layer needs from persistence.
type Store interface {
	timesheet.EntryStore
	timesheet.SubmissionLedger
	timesheet.CatalogStore
	timesheet.UserStore
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    Store
	Clock    *timesheet.ClockService
	Exporter *export.Exporter
}

// NewHandler creates a new handler over the given store.
func NewHandler(store Store) *Handler {
	return &Handler{
		Store:    store,
		Clock:    timesheet.NewClockService(store),
		Exporter: export.NewExporter(store),
	}
}

// =============================================================================
// CLOCK HANDLERS
// =============================================================================

// ClockIn opens a new entry for the user at the current instant.
func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	entry, err := h.Clock.ClockIn(r.Context(), userID)
	if err != nil {
		writeDomainError(w, "Failed to clock in", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEntryDTO(entry))
}

// ClockOut closes the user's open entry, optionally stamping a job.
func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req ClockOutRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	entry, err := h.Clock.ClockOut(r.Context(), userID, req.JobID)
	if err != nil {
		writeDomainError(w, "Failed to clock out", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(entry))
}

// LogJob closes the current session against a job and opens the next one at
// the same instant. The logged job is marked Completed.
func (h *Handler) LogJob(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req LogJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.JobID == "" {
		writeError(w, http.StatusBadRequest, "job_id is required", nil)
		return
	}
	if _, err := h.Store.Job(r.Context(), req.JobID); err != nil {
		writeDomainError(w, "Failed to resolve job", err)
		return
	}

	closed, opened, err := h.Clock.LogJobAndContinue(r.Context(), userID, req.JobID)
	if err != nil {
		writeDomainError(w, "Failed to log job", err)
		return
	}

	// Logging time against a job finishes it.
	if err := h.Store.UpdateJobStatus(r.Context(), req.JobID, timesheet.JobCompleted); err != nil {
		writeDomainError(w, "Failed to update job status", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]EntryDTO{
		"closed": toEntryDTO(closed),
		"opened": toEntryDTO(opened),
	})
}

// ClockStatus reports the user's open entry, if any.
func (h *Handler) ClockStatus(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	open, err := h.Clock.Status(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get clock status", err)
		return
	}

	status := ClockStatusDTO{ClockedIn: open != nil}
	if open != nil {
		dto := toEntryDTO(*open)
		status.Entry = &dto
	}
	writeJSON(w, http.StatusOK, status)
}

// =============================================================================
// TIMESHEET HANDLERS
// =============================================================================

// GetTimesheets returns the user's weekly buckets, split into active and
// archived by the submission ledger. The open entry, when present, appears
// in its week so clients can render the running session.
func (h *Handler) GetTimesheets(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	user, err := h.Store.User(r.Context(), userID)
	if err != nil {
		writeDomainError(w, "Failed to get user", err)
		return
	}

	entries, err := h.userEntries(r, userID)
	if err != nil {
		writeDomainError(w, "Failed to list entries", err)
		return
	}

	buckets := timesheet.Aggregate(entries)
	active, archived := timesheet.SplitActive(buckets, user.SubmittedWeeks)

	writeJSON(w, http.StatusOK, TimesheetDTO{
		Active:   toWeekDTOs(active),
		Archived: toWeekDTOs(archived),
	})
}

// SubmitWeek exports the given week and records it in the submission
// ledger. CSV users get the file back; webhook users get a JSON receipt.
func (h *Handler) SubmitWeek(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	weekID := chi.URLParam(r, "weekID")

	user, bucket, cat, err := h.weekContext(r, userID, weekID)
	if err != nil {
		writeDomainError(w, "Failed to load week", err)
		return
	}

	result, err := h.Exporter.SubmitWeek(r.Context(), user, bucket, cat)
	if err != nil {
		writeDomainError(w, "Failed to submit week", err)
		return
	}

	if result.Method == export.MethodCSV {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
		w.WriteHeader(http.StatusOK)
		w.Write(result.CSV)
		return
	}

	writeJSON(w, http.StatusOK, SubmitResultDTO{
		WeekID:            result.WeekID,
		Method:            string(result.Method),
		DeliveryConfirmed: result.DeliveryConfirmed,
	})
}

// ExportWeek re-renders a week's export without touching the ledger. Used
// to download archived weeks again; ?format=xlsx switches the rendition.
func (h *Handler) ExportWeek(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	weekID := chi.URLParam(r, "weekID")

	user, bucket, cat, err := h.weekContext(r, userID, weekID)
	if err != nil {
		writeDomainError(w, "Failed to load week", err)
		return
	}

	if r.URL.Query().Get("format") == "xlsx" {
		data, name, err := h.Exporter.ExportWeekXLSX(user, bucket, cat)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to build workbook", err)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
		w.WriteHeader(http.StatusOK)
		w.Write(data)
		return
	}

	data, name := h.Exporter.ExportWeekCSV(user, bucket, cat)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// UpdateEntry applies a manual edit to an entry the user owns.
func (h *Handler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	entryID := chi.URLParam(r, "entryID")

	var req UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	upd := timesheet.EntryUpdate{
		JobID:  req.JobID,
		SiteID: req.SiteID,
		Notes:  req.Notes,
	}
	if req.ClockIn != nil {
		t, err := time.Parse(time.RFC3339, *req.ClockIn)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid clock_in time", err)
			return
		}
		upd.ClockIn = &t
	}
	if req.ClockOut != nil {
		t, err := time.Parse(time.RFC3339, *req.ClockOut)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid clock_out time", err)
			return
		}
		upd.ClockOut = &t
	}

	entry, err := h.Store.UpdateEntry(r.Context(), userID, entryID, upd)
	if err != nil {
		writeDomainError(w, "Failed to update entry", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTO(entry))
}

// DeleteEntry removes an entry the user owns.
func (h *Handler) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	entryID := chi.URLParam(r, "entryID")

	if err := h.Store.DeleteEntry(r.Context(), userID, entryID); err != nil {
		writeDomainError(w, "Failed to delete entry", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// UpcomingJobs returns the jobs a user can currently log time against.
func (h *Handler) UpcomingJobs(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	jobs, err := h.Store.ListJobs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list jobs", err)
		return
	}

	upcoming := timesheet.UpcomingJobs(jobs, userID, time.Now())
	dtos := make([]JobDTO, len(upcoming))
	for i, j := range upcoming {
		dtos[i] = toJobDTO(j)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListJobs returns the whole job catalog.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.Store.ListJobs(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list jobs", err)
		return
	}
	dtos := make([]JobDTO, len(jobs))
	for i, j := range jobs {
		dtos[i] = toJobDTO(j)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveJob creates or replaces a job. The date window is validated before
// any write.
func (h *Handler) SaveJob(w http.ResponseWriter, r *http.Request) {
	var req SaveJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.SiteID == "" || req.Title == "" {
		writeError(w, http.StatusBadRequest, "site_id and title are required", nil)
		return
	}

	start, err := time.ParseInLocation("2006-01-02", req.StartDate, time.Local)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date", err)
		return
	}
	end, err := time.ParseInLocation("2006-01-02", req.EndDate, time.Local)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date", err)
		return
	}

	if _, err := h.Store.Site(r.Context(), req.SiteID); err != nil {
		writeDomainError(w, "Failed to resolve site", err)
		return
	}

	job := timesheet.Job{
		ID:             req.ID,
		SiteID:         req.SiteID,
		Title:          req.Title,
		Description:    req.Description,
		AssignedUserID: req.AssignedUserID,
		StartDate:      start,
		EndDate:        end,
		Status:         timesheet.JobStatus(req.Status),
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = timesheet.JobPending
	}

	if err := h.Store.SaveJob(r.Context(), job); err != nil {
		writeDomainError(w, "Failed to save job", err)
		return
	}
	writeJSON(w, http.StatusCreated, toJobDTO(job))
}

// UpdateJobStatus moves a job through its lifecycle.
func (h *Handler) UpdateJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "id")

	var req UpdateJobStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	status := timesheet.JobStatus(req.Status)
	switch status {
	case timesheet.JobPending, timesheet.JobInProgress, timesheet.JobCompleted:
	default:
		writeError(w, http.StatusBadRequest, "Invalid job status", nil)
		return
	}

	if err := h.Store.UpdateJobStatus(r.Context(), jobID, status); err != nil {
		writeDomainError(w, "Failed to update job status", err)
		return
	}

	job, err := h.Store.Job(r.Context(), jobID)
	if err != nil {
		writeDomainError(w, "Failed to get job", err)
		return
	}
	writeJSON(w, http.StatusOK, toJobDTO(job))
}

// ListSites returns the site catalog.
func (h *Handler) ListSites(w http.ResponseWriter, r *http.Request) {
	sites, err := h.Store.ListSites(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sites", err)
		return
	}
	dtos := make([]SiteDTO, len(sites))
	for i, s := range sites {
		dtos[i] = toSiteDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SaveSite creates or replaces a site.
func (h *Handler) SaveSite(w http.ResponseWriter, r *http.Request) {
	var req SaveSiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required", nil)
		return
	}

	site := timesheet.Site{
		ID:          req.ID,
		SiteNumber:  req.SiteNumber,
		Title:       req.Title,
		Address:     req.Address,
		Description: req.Description,
	}
	if site.ID == "" {
		site.ID = uuid.NewString()
	}

	if err := h.Store.SaveSite(r.Context(), site); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save site", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSiteDTO(site))
}

// =============================================================================
// USER HANDLERS
// =============================================================================

// ListUsers returns all users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list users", err)
		return
	}
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = toUserDTO(u)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetUser returns a single user with their submission ledger.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.Store.User(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get user", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// SaveUser creates or replaces a user.
func (h *Handler) SaveUser(w http.ResponseWriter, r *http.Request) {
	var req SaveUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	user := timesheet.User{
		ID:         req.ID,
		Email:      req.Email,
		Name:       req.Name,
		Role:       req.Role,
		WebhookURL: req.WebhookURL,
		Disabled:   req.Disabled,
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	if err := h.Store.SaveUser(r.Context(), user); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save user", err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(user))
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// AdminEntries returns closed entries across users for reporting.
// Query parameters: from, to (ISO dates, inclusive), users (comma list).
// An inverted range is rejected before any query runs.
func (h *Handler) AdminEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var rng *timesheet.DateRange
	if q.Get("from") != "" || q.Get("to") != "" {
		rng = &timesheet.DateRange{}
		if v := q.Get("from"); v != "" {
			t, err := time.ParseInLocation("2006-01-02", v, time.Local)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid from date", err)
				return
			}
			rng.From = t
		}
		if v := q.Get("to"); v != "" {
			t, err := time.ParseInLocation("2006-01-02", v, time.Local)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Invalid to date", err)
				return
			}
			// Inclusive through the end of the day.
			rng.To = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		if err := rng.Validate(); err != nil {
			writeDomainError(w, "Invalid date range", err)
			return
		}
	}

	var userIDs []string
	if v := q.Get("users"); v != "" {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				userIDs = append(userIDs, id)
			}
		}
	}

	entries, err := h.Store.ListAllEntries(r.Context(), rng, userIDs)
	if err != nil {
		writeDomainError(w, "Failed to list entries", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntryDTOs(entries))
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// userEntries fetches a user's closed entries plus their open entry, the
// snapshot the aggregator and exporter operate on.
func (h *Handler) userEntries(r *http.Request, userID string) ([]timesheet.TimeEntry, error) {
	entries, err := h.Store.ListEntries(r.Context(), userID, nil)
	if err != nil {
		return nil, err
	}
	open, err := h.Store.GetOpenEntry(r.Context(), userID)
	if err != nil {
		return nil, err
	}
	if open != nil {
		entries = append(entries, *open)
	}
	return entries, nil
}

// weekContext loads everything a week-level operation needs: the user, the
// requested weekly bucket, and a catalog snapshot for site resolution.
func (h *Handler) weekContext(r *http.Request, userID, weekID string) (timesheet.User, timesheet.WeeklyBucket, timesheet.Catalog, error) {
	var zero timesheet.WeeklyBucket

	user, err := h.Store.User(r.Context(), userID)
	if err != nil {
		return timesheet.User{}, zero, timesheet.Catalog{}, err
	}

	entries, err := h.userEntries(r, userID)
	if err != nil {
		return timesheet.User{}, zero, timesheet.Catalog{}, err
	}

	buckets := timesheet.GroupByWeek(entries)
	bucket, ok := buckets[weekID]
	if !ok {
		return timesheet.User{}, zero, timesheet.Catalog{}, timesheet.ErrEntryNotFound
	}

	jobs, err := h.Store.ListJobs(r.Context())
	if err != nil {
		return timesheet.User{}, zero, timesheet.Catalog{}, err
	}
	sites, err := h.Store.ListSites(r.Context())
	if err != nil {
		return timesheet.User{}, zero, timesheet.Catalog{}, err
	}

	return user, *bucket, timesheet.NewCatalog(jobs, sites), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, timesheet.ErrAlreadyClockedIn),
		errors.Is(err, timesheet.ErrWeekAlreadySubmitted):
		writeError(w, http.StatusConflict, message, err)
	case timesheet.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case timesheet.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
