/*
allocation.go - Proportional site allocation (the export-accurate path)

PURPOSE:
  Converts one calendar day's time entries into net hours attributed to
  sites. This is the numeric core of payroll export: break time is spread
  pro-rata across the sites worked that day, never charged wholesale to
  one of them.

ALGORITHM (per day):
  1. A day with any open entry is excluded entirely - an unfinished session
     blocks payroll finalization for that day. Safety policy, not an
     oversight.
  2. Sum gross duration across the day's entries; deduct ONE break for the
     whole day (see breaks.go). Net = gross - break.
  3. Accrue each entry's gross duration under its resolved site
     (JobID -> Job -> SiteID, or a direct SiteID). Unresolvable time,
     including stale ids, accrues under the synthetic "Unassigned" bucket.
  4. siteNet = siteGross / dayGross * net, for every bucket including
     "Unassigned". Accumulation stays in full decimal precision; rounding
     to two decimals happens only at presentation.

INVARIANT:
  Sum of per-site net hours (plus Unassigned) equals the day's net worked
  hours, for every day independently and summed across the week.

PURITY:
  Everything here is a pure function over an immutable day summary -
  entries in, hours out - independently testable from store and network
  concerns, and idempotent by construction.
*/
package timesheet

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// UnassignedSite labels time that could not be resolved to a site.
const UnassignedSite = "Unassigned"

var (
	msPerHour = decimal.NewFromInt(3600_000)
)

// HoursFromDuration converts a duration to decimal hours at full precision.
func HoursFromDuration(d time.Duration) decimal.Decimal {
	return decimal.NewFromInt(d.Milliseconds()).Div(msPerHour)
}

// =============================================================================
// DAY SUMMARY - Immutable input to allocation
// =============================================================================

// DaySummary holds one calendar day's entries, ordered by clock-in time.
type DaySummary struct {
	Date    time.Time
	Entries []TimeEntry
}

// SplitByDay partitions entries by the local calendar date of their
// clock-in time, each day's entries sorted by clock-in, days ascending.
func SplitByDay(entries []TimeEntry) []DaySummary {
	byDate := make(map[string]*DaySummary)
	var keys []string
	for _, e := range entries {
		key := e.Day().Format("2006-01-02")
		d, ok := byDate[key]
		if !ok {
			d = &DaySummary{Date: e.Day()}
			byDate[key] = d
			keys = append(keys, key)
		}
		d.Entries = append(d.Entries, e)
	}
	sort.Strings(keys)
	days := make([]DaySummary, 0, len(keys))
	for _, key := range keys {
		d := byDate[key]
		sort.Slice(d.Entries, func(i, j int) bool {
			return d.Entries[i].ClockIn.Before(d.Entries[j].ClockIn)
		})
		days = append(days, *d)
	}
	return days
}

// =============================================================================
// DAY ALLOCATION - Net hours per site for one day
// =============================================================================

// DayAllocation is the allocation result for one complete worked day.
type DayAllocation struct {
	Date     time.Time
	ClockIn  time.Time // earliest clock-in of the day
	ClockOut time.Time // latest clock-out of the day

	BreakHours decimal.Decimal
	NetHours   decimal.Decimal

	// SiteHours maps site title (or UnassignedSite) to pro-rated net hours.
	SiteHours map[string]decimal.Decimal
}

// SiteNames returns the allocation's site names sorted alphabetically,
// giving export rows a stable order.
func (a DayAllocation) SiteNames() []string {
	names := make([]string, 0, len(a.SiteHours))
	for name := range a.SiteHours {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AllocateDay apportions one day's net hours across sites.
// Returns ok=false when the day is excluded: it has an open entry, or its
// total gross duration is zero.
func AllocateDay(day DaySummary, cat Catalog) (DayAllocation, bool) {
	if len(day.Entries) == 0 {
		return DayAllocation{}, false
	}

	var (
		earliestIn  time.Time
		latestOut   time.Time
		grossMillis int64
		siteGross   = make(map[string]int64)
	)

	for _, e := range day.Entries {
		if e.IsOpen() {
			// One unfinished session poisons the whole day.
			return DayAllocation{}, false
		}
		if earliestIn.IsZero() || e.ClockIn.Before(earliestIn) {
			earliestIn = e.ClockIn
		}
		if e.ClockOut.After(latestOut) {
			latestOut = *e.ClockOut
		}

		dur := e.Duration().Milliseconds()
		grossMillis += dur
		if site, ok := cat.ResolveSite(e); ok {
			siteGross[site.Title] += dur
		} else {
			siteGross[UnassignedSite] += dur
		}
	}

	if grossMillis <= 0 {
		return DayAllocation{}, false
	}

	gross := time.Duration(grossMillis) * time.Millisecond
	brk := BreakFor(gross)
	net := HoursFromDuration(gross - brk)
	total := decimal.NewFromInt(grossMillis)

	siteHours := make(map[string]decimal.Decimal, len(siteGross))
	for name, millis := range siteGross {
		if millis <= 0 {
			continue
		}
		share := decimal.NewFromInt(millis).Div(total)
		siteHours[name] = share.Mul(net)
	}

	return DayAllocation{
		Date:       day.Date,
		ClockIn:    earliestIn,
		ClockOut:   latestOut,
		BreakHours: HoursFromDuration(brk),
		NetHours:   net,
		SiteHours:  siteHours,
	}, true
}

// =============================================================================
// WEEK ALLOCATION - Aggregated days plus week-level site totals
// =============================================================================

// WeekAllocation aggregates a bucket's complete days into week-level totals.
type WeekAllocation struct {
	WeekID string
	Start  time.Time
	End    time.Time

	// Days holds one allocation per complete worked day, ascending by date.
	// Days with an open entry or zero gross duration are absent.
	Days []DayAllocation

	SiteTotals map[string]decimal.Decimal
	GrandTotal decimal.Decimal
}

// DayFor returns the allocation for the given calendar date, if present.
func (w WeekAllocation) DayFor(date time.Time) (DayAllocation, bool) {
	key := date.Format("2006-01-02")
	for _, d := range w.Days {
		if d.Date.Format("2006-01-02") == key {
			return d, true
		}
	}
	return DayAllocation{}, false
}

// SiteNames returns the week's site names sorted alphabetically.
func (w WeekAllocation) SiteNames() []string {
	names := make([]string, 0, len(w.SiteTotals))
	for name := range w.SiteTotals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AllocateWeek runs day-level allocation over every day in the bucket and
// rolls the results up into site totals and a grand total. Pure and
// idempotent: re-running on the same snapshot yields identical output.
func AllocateWeek(bucket WeeklyBucket, cat Catalog) WeekAllocation {
	alloc := WeekAllocation{
		WeekID:     bucket.WeekID,
		Start:      bucket.Start,
		End:        bucket.End,
		SiteTotals: make(map[string]decimal.Decimal),
	}

	for _, day := range SplitByDay(bucket.Entries) {
		dayAlloc, ok := AllocateDay(day, cat)
		if !ok {
			continue
		}
		alloc.Days = append(alloc.Days, dayAlloc)
		for name, hours := range dayAlloc.SiteHours {
			alloc.SiteTotals[name] = alloc.SiteTotals[name].Add(hours)
		}
		alloc.GrandTotal = alloc.GrandTotal.Add(dayAlloc.NetHours)
	}
	return alloc
}
