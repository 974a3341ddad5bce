package timesheet

import "time"

// =============================================================================
// BREAK POLICY - Statutory break deduction
// =============================================================================

const (
	// BreakThreshold is the gross duration above which a break is deducted.
	BreakThreshold = 7 * time.Hour

	// BreakDuration is the fixed deduction once the threshold is crossed.
	BreakDuration = 30 * time.Minute
)

// BreakFor returns the break deduction for a gross worked duration.
// This is a single step function: strictly more than 7 hours deducts
// exactly 30 minutes, anything up to and including 7 hours deducts nothing.
// It is never interpolated.
//
// The export path applies it once per worked day (all of a day's sessions
// together); the on-screen estimate applies it once per entry. See
// allocation.go and aggregate.go respectively.
func BreakFor(gross time.Duration) time.Duration {
	if gross > BreakThreshold {
		return BreakDuration
	}
	return 0
}
