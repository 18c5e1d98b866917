// Package schedule projects work items and routine occurrences onto the
// weekly grid and checks candidate spans against what is already there.
package schedule

import (
	"time"

	"github.com/javiermolinar/weekgrid/internal/slot"
)

// Kind tells what a placement was projected from.
type Kind string

const (
	KindTask       Kind = "task"
	KindSubtask    Kind = "subtask"
	KindOccurrence Kind = "routine-instance"
)

// Placement is a read-only, renderable fact that a unit of work occupies a
// span on one day of the visible week. Placements are recomputed, never stored.
type Placement struct {
	ID     string // work item id, or occurrence id for KindOccurrence
	Kind   Kind
	Source string // template id for occurrences, item id otherwise

	Day         int // 0=Monday
	StartHour   int
	StartMinute int
	Hours       float64 // visible duration, clamped to 24:00

	Start time.Time
	End   time.Time // persisted end, never clamped

	Name        string
	ProjectID   string
	ProjectName string
	TaskName    string // parent task name for subtasks
	Color       string
}

// Span returns the persisted [Start, End) span.
func (p Placement) Span() Span {
	return Span{Start: p.Start, End: p.End}
}

// VisibleEnd returns the end as drawn on the grid.
func (p Placement) VisibleEnd() time.Time {
	return p.Start.Add(time.Duration(p.Hours * float64(time.Hour)))
}

// Truncated reports whether the drawn span is shorter than the persisted one.
func (p Placement) Truncated() bool {
	return p.VisibleEnd().Before(p.End)
}

// Slot returns the grid slot where the placement starts.
func (p Placement) Slot() slot.Slot {
	s, _ := slot.FromTime(p.Start)
	return s
}

// Label returns "Name" or "Task › Name" for subtasks.
func (p Placement) Label() string {
	if p.TaskName != "" && p.TaskName != p.Name {
		return p.TaskName + " › " + p.Name
	}
	return p.Name
}

// OnDay returns the placements for one day column, preserving order.
func OnDay(placements []Placement, day int) []Placement {
	var result []Placement
	for _, p := range placements {
		if p.Day == day {
			result = append(result, p)
		}
	}
	return result
}

// Find returns the placement with the given id.
func Find(placements []Placement, id string) (Placement, bool) {
	for _, p := range placements {
		if p.ID == id {
			return p, true
		}
	}
	return Placement{}, false
}

// At returns the placement covering the given day and slot, if any.
func At(placements []Placement, day int, s slot.Slot) (Placement, bool) {
	for _, p := range placements {
		if p.Day != day {
			continue
		}
		start := p.Slot().Index()
		end := start + int(p.Hours*60)/slot.SlotMinutes
		if idx := s.Index(); idx >= start && idx < max(end, start+1) {
			return p, true
		}
	}
	return Placement{}, false
}
