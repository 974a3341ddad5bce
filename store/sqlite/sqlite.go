/*
Package sqlite provides a SQLite-backed implementation of the timesheet
storage interfaces.

PURPOSE:
  Implements EntryStore, SubmissionLedger, CatalogStore and UserStore over
  SQLite. In production the same patterns apply to PostgreSQL - only minor
  SQL dialect differences.

KEY TABLES:
  time_entries:    Clock events; clock_out IS NULL marks the open entry
  submitted_weeks: Append-only submission ledger per user
  users:           Entry owners (webhook endpoint, disabled flag)
  sites, jobs:     The job/site catalog

THE OPEN-ENTRY INVARIANT:
  A partial unique index enforces "at most one open entry per user" at the
  database level:

    CREATE UNIQUE INDEX idx_one_open_entry_per_user
        ON time_entries(user_id) WHERE clock_out IS NULL;

  CreateOpenEntry therefore IS the atomic check-then-create: a racing
  second clock-in violates the index and maps to ErrAlreadyClockedIn. The
  same applies to the UNIQUE(user_id, week_id) constraint backing the
  monotonic submission ledger.

CONCURRENCY:
  Opened with WAL journaling; a sync.RWMutex serializes writers on top of
  the driver's own locking.

USAGE:
  store, err := sqlite.New("./data/timesheet.db")
  if err != nil { log.Fatal(err) }
  defer store.Close()

SEE ALSO:
  - timesheet/store.go: Interface definitions and contracts
  - timesheet/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/fieldwork/timesheet-engine/timesheet"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ timesheet.EntryStore = (*Store)(nil)
var _ timesheet.SubmissionLedger = (*Store)(nil)
var _ timesheet.CatalogStore = (*Store)(nil)
var _ timesheet.UserStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Clock events. clock_out IS NULL marks the user's open entry.
	CREATE TABLE IF NOT EXISTS time_entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		clock_in TEXT NOT NULL,
		clock_out TEXT,
		job_id TEXT,
		site_id TEXT,
		notes TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_entries_user_clock_in
		ON time_entries(user_id, clock_in DESC);

	-- CRITICAL: at most one open entry per user. Makes clock-in an atomic
	-- check-then-create; a racing duplicate violates this index.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_one_open_entry_per_user
		ON time_entries(user_id) WHERE clock_out IS NULL;

	-- Submission ledger (append-only; no delete path exists).
	CREATE TABLE IF NOT EXISTS submitted_weeks (
		user_id TEXT NOT NULL,
		week_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(user_id, week_id)
	);

	CREATE INDEX IF NOT EXISTS idx_submitted_weeks_user
		ON submitted_weeks(user_id);

	-- Entry owners
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT,
		name TEXT NOT NULL,
		role TEXT,
		webhook_url TEXT,
		disabled BOOLEAN DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	-- Job/site catalog
	CREATE TABLE IF NOT EXISTS sites (
		id TEXT PRIMARY KEY,
		site_number TEXT,
		title TEXT NOT NULL,
		address TEXT,
		description TEXT
	);

	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		site_id TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT,
		assigned_user_id TEXT,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_site ON jobs(site_id);
	CREATE INDEX IF NOT EXISTS idx_jobs_assigned ON jobs(assigned_user_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ENTRY STORE
// =============================================================================

func (s *Store) GetOpenEntry(ctx context.Context, userID string) (*timesheet.TimeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, clock_in, clock_out, job_id, site_id, notes
		FROM time_entries WHERE user_id = ? AND clock_out IS NULL`, userID)

	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *Store) CreateOpenEntry(ctx context.Context, entry timesheet.TimeEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO time_entries (id, user_id, clock_in, clock_out, job_id, site_id, notes, created_at)
		VALUES (?, ?, ?, NULL, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, formatTime(entry.ClockIn),
		nullable(entry.JobID), nullable(entry.SiteID), entry.Notes,
		formatTime(time.Now()))
	if err != nil {
		if isUniqueViolation(err) {
			return timesheet.ErrAlreadyClockedIn
		}
		return fmt.Errorf("create open entry: %w", err)
	}
	return nil
}

func (s *Store) CloseEntry(ctx context.Context, userID string, clockOut time.Time, jobID string) (timesheet.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return closeOpenEntry(ctx, s.db, userID, clockOut, jobID)
}

type execQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func closeOpenEntry(ctx context.Context, q execQuerier, userID string, clockOut time.Time, jobID string) (timesheet.TimeEntry, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, user_id, clock_in, clock_out, job_id, site_id, notes
		FROM time_entries WHERE user_id = ? AND clock_out IS NULL`, userID)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return timesheet.TimeEntry{}, timesheet.ErrNotClockedIn
	}
	if err != nil {
		return timesheet.TimeEntry{}, err
	}

	if jobID != "" {
		entry.JobID = jobID
	}
	entry.ClockOut = &clockOut

	_, err = q.ExecContext(ctx, `
		UPDATE time_entries SET clock_out = ?, job_id = ? WHERE id = ?`,
		formatTime(clockOut), nullable(entry.JobID), entry.ID)
	if err != nil {
		return timesheet.TimeEntry{}, fmt.Errorf("close entry: %w", err)
	}
	return entry, nil
}

func (s *Store) SwitchOpenEntry(ctx context.Context, userID string, at time.Time, jobID string) (timesheet.TimeEntry, timesheet.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return timesheet.TimeEntry{}, timesheet.TimeEntry{}, err
	}
	defer tx.Rollback()

	closed, err := closeOpenEntry(ctx, tx, userID, at, jobID)
	if err != nil {
		return timesheet.TimeEntry{}, timesheet.TimeEntry{}, err
	}

	opened := timesheet.TimeEntry{
		ID:      uuid.NewString(),
		UserID:  userID,
		ClockIn: at, // new segment starts where the last one ended
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO time_entries (id, user_id, clock_in, clock_out, job_id, site_id, notes, created_at)
		VALUES (?, ?, ?, NULL, NULL, NULL, '', ?)`,
		opened.ID, userID, formatTime(at), formatTime(time.Now()))
	if err != nil {
		return timesheet.TimeEntry{}, timesheet.TimeEntry{}, fmt.Errorf("open next entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return timesheet.TimeEntry{}, timesheet.TimeEntry{}, err
	}
	return closed, opened, nil
}

func (s *Store) ListEntries(ctx context.Context, userID string, rng *timesheet.DateRange) ([]timesheet.TimeEntry, error) {
	if rng != nil {
		if err := rng.Validate(); err != nil {
			return nil, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, user_id, clock_in, clock_out, job_id, site_id, notes
		FROM time_entries WHERE user_id = ? AND clock_out IS NOT NULL`
	args := []any{userID}
	query, args = appendRange(query, args, rng)
	query += ` ORDER BY clock_in DESC`

	return s.queryEntries(ctx, query, args...)
}

func (s *Store) ListAllEntries(ctx context.Context, rng *timesheet.DateRange, userIDs []string) ([]timesheet.TimeEntry, error) {
	if rng != nil {
		if err := rng.Validate(); err != nil {
			return nil, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, user_id, clock_in, clock_out, job_id, site_id, notes
		FROM time_entries WHERE clock_out IS NOT NULL`
	var args []any
	query, args = appendRange(query, args, rng)
	if len(userIDs) > 0 {
		query += ` AND user_id IN (?` + strings.Repeat(",?", len(userIDs)-1) + `)`
		for _, id := range userIDs {
			args = append(args, id)
		}
	}
	query += ` ORDER BY clock_in DESC`

	return s.queryEntries(ctx, query, args...)
}

func appendRange(query string, args []any, rng *timesheet.DateRange) (string, []any) {
	if rng == nil {
		return query, args
	}
	if !rng.From.IsZero() {
		query += ` AND clock_in >= ?`
		args = append(args, formatTime(rng.From))
	}
	if !rng.To.IsZero() {
		query += ` AND clock_in <= ?`
		args = append(args, formatTime(rng.To))
	}
	return query, args
}

func (s *Store) UpdateEntry(ctx context.Context, userID, entryID string, upd timesheet.EntryUpdate) (timesheet.TimeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, clock_in, clock_out, job_id, site_id, notes
		FROM time_entries WHERE id = ?`, entryID)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows || (err == nil && entry.UserID != userID) {
		// Missing and foreign entries are indistinguishable on purpose.
		return timesheet.TimeEntry{}, timesheet.ErrEntryNotFound
	}
	if err != nil {
		return timesheet.TimeEntry{}, err
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

	var clockOut any
	if entry.ClockOut != nil {
		clockOut = formatTime(*entry.ClockOut)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE time_entries SET clock_in = ?, clock_out = ?, job_id = ?, site_id = ?, notes = ?
		WHERE id = ?`,
		formatTime(entry.ClockIn), clockOut,
		nullable(entry.JobID), nullable(entry.SiteID), entry.Notes, entry.ID)
	if err != nil {
		return timesheet.TimeEntry{}, fmt.Errorf("update entry: %w", err)
	}
	return entry, nil
}

func (s *Store) DeleteEntry(ctx context.Context, userID, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM time_entries WHERE id = ? AND user_id = ?`, entryID, userID)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return timesheet.ErrEntryNotFound
	}
	return nil
}

// =============================================================================
// SUBMISSION LEDGER
// =============================================================================

func (s *Store) AddSubmittedWeek(ctx context.Context, userID, weekID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO submitted_weeks (user_id, week_id, created_at) VALUES (?, ?, ?)`,
		userID, weekID, formatTime(time.Now()))
	if err != nil {
		if isUniqueViolation(err) {
			return timesheet.ErrWeekAlreadySubmitted
		}
		return fmt.Errorf("add submitted week: %w", err)
	}
	return nil
}

func (s *Store) SubmittedWeeks(ctx context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT week_id FROM submitted_weeks WHERE user_id = ? ORDER BY week_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var weeks []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		weeks = append(weeks, w)
	}
	return weeks, rows.Err()
}

// =============================================================================
// CATALOG STORE
// =============================================================================

func (s *Store) Job(ctx context.Context, id string) (timesheet.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, site_id, title, description, assigned_user_id, start_date, end_date, status
		FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return timesheet.Job{}, timesheet.ErrJobNotFound
	}
	return job, err
}

func (s *Store) Site(ctx context.Context, id string) (timesheet.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var site timesheet.Site
	err := s.db.QueryRowContext(ctx, `
		SELECT id, site_number, title, address, description FROM sites WHERE id = ?`, id).
		Scan(&site.ID, &site.SiteNumber, &site.Title, &site.Address, &site.Description)
	if err == sql.ErrNoRows {
		return timesheet.Site{}, timesheet.ErrSiteNotFound
	}
	return site, err
}

func (s *Store) ListJobs(ctx context.Context) ([]timesheet.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, site_id, title, description, assigned_user_id, start_date, end_date, status
		FROM jobs ORDER BY start_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []timesheet.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (s *Store) ListSites(ctx context.Context) ([]timesheet.Site, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, site_number, title, address, description FROM sites ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sites []timesheet.Site
	for rows.Next() {
		var site timesheet.Site
		if err := rows.Scan(&site.ID, &site.SiteNumber, &site.Title, &site.Address, &site.Description); err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

func (s *Store) SaveJob(ctx context.Context, job timesheet.Job) error {
	// Validate the window before any write.
	if job.EndDate.Before(job.StartDate) {
		return timesheet.ErrInvalidDateRange
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (id, site_id, title, description, assigned_user_id, start_date, end_date, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			site_id = excluded.site_id, title = excluded.title,
			description = excluded.description, assigned_user_id = excluded.assigned_user_id,
			start_date = excluded.start_date, end_date = excluded.end_date,
			status = excluded.status`,
		job.ID, job.SiteID, job.Title, job.Description, job.AssignedUserID,
		job.StartDate.Format("2006-01-02"), job.EndDate.Format("2006-01-02"), string(job.Status))
	return err
}

func (s *Store) SaveSite(ctx context.Context, site timesheet.Site) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sites (id, site_number, title, address, description)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			site_number = excluded.site_number, title = excluded.title,
			address = excluded.address, description = excluded.description`,
		site.ID, site.SiteNumber, site.Title, site.Address, site.Description)
	return err
}

func (s *Store) UpdateJobStatus(ctx context.Context, jobID string, status timesheet.JobStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `UPDATE jobs SET status = ? WHERE id = ?`, string(status), jobID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return timesheet.ErrJobNotFound
	}
	return nil
}

// =============================================================================
// USER STORE
// =============================================================================

func (s *Store) User(ctx context.Context, id string) (timesheet.User, error) {
	s.mu.RLock()
	var user timesheet.User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, email, name, role, webhook_url, disabled FROM users WHERE id = ?`, id).
		Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.WebhookURL, &user.Disabled)
	s.mu.RUnlock()
	if err == sql.ErrNoRows {
		return timesheet.User{}, timesheet.ErrUserNotFound
	}
	if err != nil {
		return timesheet.User{}, err
	}

	weeks, err := s.SubmittedWeeks(ctx, id)
	if err != nil {
		return timesheet.User{}, err
	}
	user.SubmittedWeeks = weeks
	return user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]timesheet.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, email, name, role, webhook_url, disabled FROM users ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []timesheet.User
	for rows.Next() {
		var u timesheet.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &u.WebhookURL, &u.Disabled); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *Store) SaveUser(ctx context.Context, user timesheet.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, role, webhook_url, disabled, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email, name = excluded.name, role = excluded.role,
			webhook_url = excluded.webhook_url, disabled = excluded.disabled`,
		user.ID, user.Email, user.Name, user.Role, user.WebhookURL, user.Disabled,
		formatTime(time.Now()))
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Store) queryEntries(ctx context.Context, query string, args ...any) ([]timesheet.TimeEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []timesheet.TimeEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func scanEntry(row rowScanner) (timesheet.TimeEntry, error) {
	var (
		entry           timesheet.TimeEntry
		clockIn         string
		clockOut, jobID sql.NullString
		siteID, notes   sql.NullString
	)
	if err := row.Scan(&entry.ID, &entry.UserID, &clockIn, &clockOut, &jobID, &siteID, &notes); err != nil {
		return timesheet.TimeEntry{}, err
	}

	in, err := parseTime(clockIn)
	if err != nil {
		return timesheet.TimeEntry{}, err
	}
	entry.ClockIn = in

	if clockOut.Valid {
		out, err := parseTime(clockOut.String)
		if err != nil {
			return timesheet.TimeEntry{}, err
		}
		entry.ClockOut = &out
	}
	entry.JobID = jobID.String
	entry.SiteID = siteID.String
	entry.Notes = notes.String
	return entry, nil
}

func scanJob(row rowScanner) (timesheet.Job, error) {
	var (
		job                timesheet.Job
		startDate, endDate string
		status             string
	)
	if err := row.Scan(&job.ID, &job.SiteID, &job.Title, &job.Description,
		&job.AssignedUserID, &startDate, &endDate, &status); err != nil {
		return timesheet.Job{}, err
	}

	start, err := time.ParseInLocation("2006-01-02", startDate, time.Local)
	if err != nil {
		return timesheet.Job{}, err
	}
	end, err := time.ParseInLocation("2006-01-02", endDate, time.Local)
	if err != nil {
		return timesheet.Job{}, err
	}
	job.StartDate = start
	job.EndDate = end
	job.Status = timesheet.JobStatus(status)
	return job, nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
