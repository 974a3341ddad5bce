/*
aggregate.go - Weekly display aggregation (the estimate path)

PURPOSE:
  Produces the weekly buckets shown on screen: entries grouped by week,
  newest week first, with a quick per-entry total. Splits buckets into
  active and archived using the user's submission ledger.

TWO BREAK CALCULATIONS, ON PURPOSE:
  The total here deducts a break per ENTRY longer than 7 hours. The export
  path (allocation.go) deducts one break per worked DAY. The two figures
  diverge for split shifts and that divergence is intentional: a cheap
  on-screen estimate vs. the payroll-accurate export. Do not unify them.
*/
package timesheet

import (
	"sort"
	"time"
)

// EstimateHours computes the display total for a set of entries: each
// closed entry's duration, minus 30 minutes when that single entry exceeds
// 7 hours. Open entries contribute nothing.
func EstimateHours(entries []TimeEntry) float64 {
	var totalMillis int64
	for _, e := range entries {
		if e.IsOpen() {
			continue
		}
		dur := e.Duration()
		dur -= BreakFor(dur)
		totalMillis += dur.Milliseconds()
	}
	return float64(totalMillis) / float64(time.Hour.Milliseconds())
}

// Aggregate groups a user's entries into weekly buckets, newest first,
// each carrying the per-entry display estimate. Idempotent over a snapshot.
func Aggregate(entries []TimeEntry) []WeeklyBucket {
	grouped := GroupByWeek(entries)
	buckets := make([]WeeklyBucket, 0, len(grouped))
	for _, b := range grouped {
		b.TotalHours = EstimateHours(b.Entries)
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Start.After(buckets[j].Start)
	})
	return buckets
}

// SplitActive partitions buckets into active and archived using the
// submitted week identifiers. Once archived, a week never reappears in the
// active list, even if new entries land in it later.
func SplitActive(buckets []WeeklyBucket, submittedWeeks []string) (active, archived []WeeklyBucket) {
	submitted := make(map[string]bool, len(submittedWeeks))
	for _, w := range submittedWeeks {
		submitted[w] = true
	}
	for _, b := range buckets {
		if submitted[b.WeekID] {
			archived = append(archived, b)
		} else {
			active = append(active, b)
		}
	}
	return active, archived
}
