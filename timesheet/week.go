package timesheet

import (
	"sort"
	"time"
)

// =============================================================================
// WEEK WINDOWS - Monday 00:00 to Sunday 23:59:59.999...
// =============================================================================

// WeekStart returns the Monday 00:00:00 (local) of the week containing t.
func WeekStart(t time.Time) time.Time {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7 // Go counts Sunday as 0
	}
	monday := t.AddDate(0, 0, -(wd - 1))
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, t.Location())
}

// WeekEnd returns the last instant of the week starting at start
// (Sunday 23:59:59.999999999 local).
func WeekEnd(start time.Time) time.Time {
	return start.AddDate(0, 0, 7).Add(-time.Nanosecond)
}

// WeekIDFor returns the week identifier for a point in time: the ISO
// calendar-date string of that week's Monday.
func WeekIDFor(t time.Time) string {
	return WeekStart(t).Format("2006-01-02")
}

// =============================================================================
// WEEKLY BUCKET - Entries grouped into one calendar week
// =============================================================================

// WeeklyBucket groups a user's entries into one Monday-to-Sunday window.
// Derived, never persisted. Entries are ordered ascending by clock-in time;
// that ordering makes CSV rows deterministic and lets the allocation engine
// treat a day's sessions as one contiguous block.
type WeeklyBucket struct {
	WeekID  string
	Start   time.Time
	End     time.Time
	Entries []TimeEntry

	// TotalHours is the on-screen estimate computed with the per-entry
	// break deduction. The export-accurate figure comes from AllocateWeek.
	TotalHours float64
}

// HasOpenEntry reports whether any entry in the bucket is still open.
// Such a week cannot be submitted for payroll.
func (b WeeklyBucket) HasOpenEntry() bool {
	for _, e := range b.Entries {
		if e.IsOpen() {
			return true
		}
	}
	return false
}

// GroupByWeek buckets entries by the week of their clock-in time.
// The clock-out time never moves an entry: a session starting Sunday 23:00
// and ending Monday 01:00 belongs to the Sunday's week.
func GroupByWeek(entries []TimeEntry) map[string]*WeeklyBucket {
	buckets := make(map[string]*WeeklyBucket)
	for _, e := range entries {
		start := WeekStart(e.ClockIn)
		id := start.Format("2006-01-02")
		b, ok := buckets[id]
		if !ok {
			b = &WeeklyBucket{
				WeekID: id,
				Start:  start,
				End:    WeekEnd(start),
			}
			buckets[id] = b
		}
		b.Entries = append(b.Entries, e)
	}
	for _, b := range buckets {
		sort.Slice(b.Entries, func(i, j int) bool {
			return b.Entries[i].ClockIn.Before(b.Entries[j].ClockIn)
		})
	}
	return buckets
}
