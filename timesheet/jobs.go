/*
jobs.go - Job catalog queries

PURPOSE:
  Pure filters over the job catalog used by the API and CLI: which jobs a
  user can log time against right now. A job is "upcoming" for a user when
  it is assigned to them, not yet completed, and its date window has not
  ended before today.
*/
package timesheet

import (
	"sort"
	"time"
)

// UpcomingJobs returns the jobs the user can currently log time against:
// assigned to them, not Completed, window end on or after today. Sorted by
// start date ascending.
func UpcomingJobs(jobs []Job, userID string, now time.Time) []Job {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var out []Job
	for _, j := range jobs {
		if j.AssignedUserID != userID {
			continue
		}
		if j.Status == JobCompleted {
			continue
		}
		if j.EndDate.Before(today) {
			continue
		}
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool {
		return out[i].StartDate.Before(out[k].StartDate)
	})
	return out
}
