/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - export/payload.go: The webhook payload (a separate, external contract)
*/
package api

import (
	"time"

	"github.com/fieldwork/timesheet-engine/timesheet"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// EntryDTO represents a time entry in API responses.
type EntryDTO struct {
	ID       string  `json:"id"`
	UserID   string  `json:"user_id"`
	ClockIn  string  `json:"clock_in"`
	ClockOut *string `json:"clock_out,omitempty"`
	JobID    string  `json:"job_id,omitempty"`
	SiteID   string  `json:"site_id,omitempty"`
	Notes    string  `json:"notes,omitempty"`
	Open     bool    `json:"open"`
}

// ClockStatusDTO reports whether a user is clocked in and since when.
type ClockStatusDTO struct {
	ClockedIn bool      `json:"clocked_in"`
	Entry     *EntryDTO `json:"entry,omitempty"`
}

// ClockOutRequest optionally attributes the closed session to a job.
type ClockOutRequest struct {
	JobID string `json:"job_id,omitempty"`
}

// LogJobRequest closes the current session against a job and continues.
type LogJobRequest struct {
	JobID string `json:"job_id"`
}

// UpdateEntryRequest is a partial edit; omitted fields are left unchanged.
type UpdateEntryRequest struct {
	ClockIn  *string `json:"clock_in,omitempty"`
	ClockOut *string `json:"clock_out,omitempty"`
	JobID    *string `json:"job_id,omitempty"`
	SiteID   *string `json:"site_id,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

// WeekDTO represents one weekly bucket in timesheet listings.
type WeekDTO struct {
	WeekID     string     `json:"week_id"`
	Start      string     `json:"start"`
	End        string     `json:"end"`
	TotalHours float64    `json:"total_hours"`
	Entries    []EntryDTO `json:"entries"`
}

// TimesheetDTO is the active/archived week split for one user.
type TimesheetDTO struct {
	Active   []WeekDTO `json:"active"`
	Archived []WeekDTO `json:"archived"`
}

// SubmitResultDTO reports the outcome of a week submission.
type SubmitResultDTO struct {
	WeekID string `json:"week_id"`
	Method string `json:"method"`

	// CSV path: the filename the client should save the download as.
	Filename string `json:"filename,omitempty"`

	// Webhook path: sent but never confirmed by this transport. Clients
	// must tell the user to verify the data downstream.
	DeliveryConfirmed bool `json:"delivery_confirmed"`
}

// UserDTO represents a user in API responses.
type UserDTO struct {
	ID             string   `json:"id"`
	Email          string   `json:"email,omitempty"`
	Name           string   `json:"name"`
	Role           string   `json:"role,omitempty"`
	WebhookURL     string   `json:"webhook_url,omitempty"`
	Disabled       bool     `json:"disabled,omitempty"`
	SubmittedWeeks []string `json:"submitted_weeks,omitempty"`
}

// SaveUserRequest creates or replaces a user.
type SaveUserRequest struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	WebhookURL string `json:"webhook_url"`
	Disabled   bool   `json:"disabled"`
}

// JobDTO represents a job in API responses.
type JobDTO struct {
	ID             string `json:"id"`
	SiteID         string `json:"site_id"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	AssignedUserID string `json:"assigned_user_id,omitempty"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	Status         string `json:"status"`
}

// SaveJobRequest creates or replaces a job. Dates are ISO calendar dates.
type SaveJobRequest struct {
	ID             string `json:"id,omitempty"`
	SiteID         string `json:"site_id"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	AssignedUserID string `json:"assigned_user_id"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	Status         string `json:"status,omitempty"`
}

// UpdateJobStatusRequest moves a job through its lifecycle.
type UpdateJobStatusRequest struct {
	Status string `json:"status"`
}

// SiteDTO represents a site in API responses.
type SiteDTO struct {
	ID          string `json:"id"`
	SiteNumber  string `json:"site_number,omitempty"`
	Title       string `json:"title"`
	Address     string `json:"address,omitempty"`
	Description string `json:"description,omitempty"`
}

// SaveSiteRequest creates or replaces a site.
type SaveSiteRequest struct {
	ID          string `json:"id,omitempty"`
	SiteNumber  string `json:"site_number"`
	Title       string `json:"title"`
	Address     string `json:"address"`
	Description string `json:"description"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toEntryDTO(e timesheet.TimeEntry) EntryDTO {
	dto := EntryDTO{
		ID:      e.ID,
		UserID:  e.UserID,
		ClockIn: e.ClockIn.Format(time.RFC3339),
		JobID:   e.JobID,
		SiteID:  e.SiteID,
		Notes:   e.Notes,
		Open:    e.IsOpen(),
	}
	if e.ClockOut != nil {
		out := e.ClockOut.Format(time.RFC3339)
		dto.ClockOut = &out
	}
	return dto
}

func toEntryDTOs(entries []timesheet.TimeEntry) []EntryDTO {
	dtos := make([]EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toEntryDTO(e)
	}
	return dtos
}

func toWeekDTO(b timesheet.WeeklyBucket) WeekDTO {
	return WeekDTO{
		WeekID:     b.WeekID,
		Start:      b.Start.Format("2006-01-02"),
		End:        b.End.Format("2006-01-02"),
		TotalHours: b.TotalHours,
		Entries:    toEntryDTOs(b.Entries),
	}
}

func toWeekDTOs(buckets []timesheet.WeeklyBucket) []WeekDTO {
	dtos := make([]WeekDTO, len(buckets))
	for i, b := range buckets {
		dtos[i] = toWeekDTO(b)
	}
	return dtos
}

func toUserDTO(u timesheet.User) UserDTO {
	return UserDTO{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		Role:           u.Role,
		WebhookURL:     u.WebhookURL,
		Disabled:       u.Disabled,
		SubmittedWeeks: u.SubmittedWeeks,
	}
}

func toJobDTO(j timesheet.Job) JobDTO {
	return JobDTO{
		ID:             j.ID,
		SiteID:         j.SiteID,
		Title:          j.Title,
		Description:    j.Description,
		AssignedUserID: j.AssignedUserID,
		StartDate:      j.StartDate.Format("2006-01-02"),
		EndDate:        j.EndDate.Format("2006-01-02"),
		Status:         string(j.Status),
	}
}

func toSiteDTO(s timesheet.Site) SiteDTO {
	return SiteDTO{
		ID:          s.ID,
		SiteNumber:  s.SiteNumber,
		Title:       s.Title,
		Address:     s.Address,
		Description: s.Description,
	}
}
