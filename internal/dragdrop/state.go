package dragdrop

import (
	"fmt"
	"time"

	"github.com/javiermolinar/weekgrid/internal/dateutil"
	"github.com/javiermolinar/weekgrid/internal/routine"
	"github.com/javiermolinar/weekgrid/internal/schedule"
	"github.com/javiermolinar/weekgrid/internal/slot"
)

// State is a gesture state. Committed and Cancelled are terminal: they are
// reported in an Outcome while the coordinator itself returns to Idle.
type State int

const (
	StateIdle State = iota
	StateDragging
	StateHoveringValid
	StateHoveringInvalid
	StateCommitted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StateHoveringValid:
		return "hovering-valid"
	case StateHoveringInvalid:
		return "hovering-invalid"
	case StateCommitted:
		return "committed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Target is the surface under the pointer at release.
type Target int

const (
	TargetNone Target = iota
	TargetGrid
	TargetSideList
)

// Action is the write a gesture performed.
type Action int

const (
	ActionNone Action = iota
	ActionScheduled
	ActionMoved
	ActionUnscheduled
	ActionOccurrenceCreated
	ActionOccurrenceMoved
	ActionOccurrenceDeleted
)

func (a Action) String() string {
	switch a {
	case ActionScheduled:
		return "scheduled"
	case ActionMoved:
		return "moved"
	case ActionUnscheduled:
		return "unscheduled"
	case ActionOccurrenceCreated:
		return "occurrence-created"
	case ActionOccurrenceMoved:
		return "occurrence-moved"
	case ActionOccurrenceDeleted:
		return "occurrence-deleted"
	default:
		return "none"
	}
}

// Reason explains a cancellation.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonOutside
	ReasonReturned
	ReasonInvalidSlot
	ReasonConflict
	ReasonStale
	ReasonEscape
	ReasonNotDragging
)

func (r Reason) String() string {
	switch r {
	case ReasonOutside:
		return "outside"
	case ReasonReturned:
		return "returned"
	case ReasonInvalidSlot:
		return "invalid-slot"
	case ReasonConflict:
		return "conflict"
	case ReasonStale:
		return "stale"
	case ReasonEscape:
		return "escape"
	case ReasonNotDragging:
		return "not-dragging"
	default:
		return "none"
	}
}

// Preview is the result of a hover: the candidate slot, its clock range and
// whether a drop there would commit.
type Preview struct {
	Day      int
	Slot     slot.Slot
	Date     time.Time // midnight of the hovered day
	InWindow bool      // the slot can hold a start (05:00 to 23:30)
	Stale    bool      // the dragged entity disappeared
	Name     string
	Span     schedule.Span
	Valid    bool
	Conflict *schedule.Placement
}

// Label returns the preview text, e.g. "Tue 14:00–16:00" or
// "Tue 14:00–16:00 overlaps Standup".
func (p Preview) Label() string {
	if !p.InWindow {
		return "outside scheduling window"
	}
	label := dateutil.WeekdayName(p.Day) + " " + p.Span.String()
	if p.Conflict != nil {
		label += " overlaps " + p.Conflict.Name
	}
	return label
}

// Outcome reports how a gesture ended and what it wrote. Callers persist the
// change when Changed returns true.
type Outcome struct {
	State   State
	Action  Action
	Reason  Reason
	Payload Payload
	Name    string

	ItemID     string              // work item scheduled, moved or unscheduled
	Occurrence *routine.Occurrence // occurrence created, moved or deleted
	Span       schedule.Span
	Conflict   *schedule.Placement
}

// Changed reports whether the hierarchy or the occurrence set was written.
func (o Outcome) Changed() bool {
	return o.Action != ActionNone
}

// Message returns a short user-facing description. Silent cancellations
// return an empty string.
func (o Outcome) Message() string {
	switch o.Action {
	case ActionScheduled, ActionMoved, ActionOccurrenceCreated, ActionOccurrenceMoved:
		return fmt.Sprintf("Scheduled %q on %s %s", o.Name, o.Span.Start.Format("Mon 02 Jan"), o.Span)
	case ActionUnscheduled:
		return fmt.Sprintf("Unscheduled %q", o.Name)
	case ActionOccurrenceDeleted:
		return fmt.Sprintf("Removed %q from the calendar", o.Name)
	}
	if o.Reason == ReasonConflict && o.Conflict != nil {
		return fmt.Sprintf("Cannot schedule %q: overlaps %q (%s)", o.Name, o.Conflict.Name, o.Conflict.Span())
	}
	if o.Reason == ReasonStale {
		return "Item no longer exists"
	}
	return ""
}
