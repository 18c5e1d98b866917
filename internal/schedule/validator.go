package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/javiermolinar/weekgrid/internal/slot"
)

// ErrTimeBlockOverlap is returned when a candidate span collides with a placement.
var ErrTimeBlockOverlap = errors.New("time block overlaps with existing item")

// Span is a half-open [Start, End) interval.
type Span struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two spans share any instant. Touching endpoints
// do not overlap.
func (s Span) Overlaps(o Span) bool {
	return s.Start.Before(o.End) && s.End.After(o.Start)
}

// Duration returns the length of the span.
func (s Span) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// String returns "15:04–15:04".
func (s Span) String() string {
	return slot.FormatRange(s.Start, s.End)
}

// Verdict is the result of checking a candidate span.
type Verdict struct {
	Valid    bool
	Conflict *Placement // first colliding placement when !Valid
}

// Err returns nil for a valid verdict and an ErrTimeBlockOverlap naming the
// conflict otherwise.
func (v Verdict) Err() error {
	if v.Valid {
		return nil
	}
	if v.Conflict == nil {
		return ErrTimeBlockOverlap
	}
	return fmt.Errorf("%w: %q (%s)", ErrTimeBlockOverlap, v.Conflict.Name, v.Conflict.Span())
}

// Check decides whether candidate may be placed among placements. The
// placement whose ID equals excludeID is skipped so an item being moved never
// collides with itself. Placements are compared by their persisted span, not
// the clamped visible one.
func Check(candidate Span, excludeID string, placements []Placement) Verdict {
	for i := range placements {
		p := &placements[i]
		if excludeID != "" && p.ID == excludeID {
			continue
		}
		if candidate.Overlaps(p.Span()) {
			c := *p
			return Verdict{Valid: false, Conflict: &c}
		}
	}
	return Verdict{Valid: true}
}

// FindOverlaps returns every pair of distinct placements whose spans overlap.
// An empty result means the set satisfies the non-overlap invariant.
func FindOverlaps(placements []Placement) [][2]Placement {
	var pairs [][2]Placement
	for i := range placements {
		for j := i + 1; j < len(placements); j++ {
			if placements[i].ID == placements[j].ID {
				continue
			}
			if placements[i].Span().Overlaps(placements[j].Span()) {
				pairs = append(pairs, [2]Placement{placements[i], placements[j]})
			}
		}
	}
	return pairs
}
