// Package effort converts story-point style effort estimates to calendar
// durations and back. Every duration the scheduler computes goes through here.
package effort

import (
	"fmt"
	"math"
	"time"
)

// Estimate is a small discrete effort value. One unit is one hour of work.
type Estimate int

// MinHours is the floor applied to absent or non-positive estimates.
const MinHours = 1

// Points are the values offered when picking an estimate.
var Points = []Estimate{1, 2, 3, 5, 8}

// Valid returns true if e is a positive estimate.
func (e Estimate) Valid() bool {
	return e > 0
}

// String returns the estimate as "Npt".
func (e Estimate) String() string {
	return fmt.Sprintf("%dpt", int(e))
}

// HoursFor returns the number of hours an estimate occupies on the calendar.
func HoursFor(e Estimate) int {
	if !e.Valid() {
		return MinHours
	}
	return int(e)
}

// EstimateFor returns the estimate matching a number of hours.
// Fractional hours round up so the estimate always covers the span.
func EstimateFor(hours float64) Estimate {
	if hours <= 0 || math.IsNaN(hours) {
		return Estimate(MinHours)
	}
	return Estimate(math.Ceil(hours))
}

// Duration returns the calendar duration of an estimate.
func Duration(e Estimate) time.Duration {
	return time.Duration(HoursFor(e)) * time.Hour
}

// End returns start plus the duration of e.
func End(start time.Time, e Estimate) time.Time {
	return start.Add(Duration(e))
}

// Parse parses a positive integer estimate such as "3" or "3pt".
func Parse(s string) (Estimate, error) {
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid effort %q: must be a positive number of points", s)
	}
	return Estimate(n), nil
}
