package dragdrop

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/javiermolinar/weekgrid/internal/dateutil"
	"github.com/javiermolinar/weekgrid/internal/effort"
	"github.com/javiermolinar/weekgrid/internal/routine"
	"github.com/javiermolinar/weekgrid/internal/schedule"
	"github.com/javiermolinar/weekgrid/internal/slot"
	"github.com/javiermolinar/weekgrid/internal/task"
)

// Coordinator errors.
var (
	ErrDragInProgress = errors.New("a drag is already in progress")
	ErrNotDragging    = errors.New("no drag in progress")
	ErrStaleEntity    = errors.New("dragged item no longer exists")
)

// Hierarchy is the work hierarchy as seen by the coordinator: read access
// plus the two schedule mutation entry points.
type Hierarchy interface {
	schedule.Hierarchy
	Resolve(projectID, taskID, subtaskID string) (*task.WorkItem, error)
	SetSchedule(id string, start, end time.Time) error
	ClearSchedule(id string) error
}

// Routines is the routine occurrence set as seen by the coordinator.
type Routines interface {
	schedule.Occurrences
	Get(id string) (routine.Occurrence, bool)
	Create(tmpl *task.WorkItem, color string, start time.Time) (routine.Occurrence, error)
	Reposition(id string, start time.Time) (routine.Occurrence, error)
	Delete(id string) error
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the gesture event logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.log = l
	}
}

// WithWeek sets the visible week.
func WithWeek(weekStart time.Time) Option {
	return func(c *Coordinator) {
		c.weekStart = dateutil.WeekStart(weekStart)
	}
}

// Coordinator is the drag/drop state machine. It holds at most one gesture
// and writes to the hierarchy or the occurrence set only when a drop commits.
type Coordinator struct {
	board     Hierarchy
	routines  Routines
	projector *schedule.Projector
	log       zerolog.Logger
	weekStart time.Time

	state   State
	payload Payload
	hover   *Preview
}

// New creates an idle Coordinator showing the current week.
func New(board Hierarchy, routines Routines, opts ...Option) *Coordinator {
	c := &Coordinator{
		board:     board,
		routines:  routines,
		projector: schedule.NewProjector(board, routines),
		log:       zerolog.Nop(),
		weekStart: dateutil.WeekStart(time.Now()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Coordinator) State() State {
	return c.state
}

// Active reports whether a gesture is in progress.
func (c *Coordinator) Active() bool {
	return c.state != StateIdle
}

// Payload returns the payload of the gesture in progress.
func (c *Coordinator) Payload() (Payload, bool) {
	return c.payload, c.Active()
}

// Preview returns the last hover result of the gesture in progress.
func (c *Coordinator) Preview() (Preview, bool) {
	if c.hover == nil {
		return Preview{}, false
	}
	return *c.hover, true
}

// WeekStart returns the Monday of the visible week.
func (c *Coordinator) WeekStart() time.Time {
	return c.weekStart
}

// SetWeek changes the visible week. A hover already computed keeps its date.
func (c *Coordinator) SetWeek(weekStart time.Time) {
	c.weekStart = dateutil.WeekStart(weekStart)
}

// Placements returns the placements of the visible week.
func (c *Coordinator) Placements() []schedule.Placement {
	return c.projector.Week(c.weekStart)
}

// dragged is the entity a payload currently resolves to.
type dragged struct {
	item *task.WorkItem
	occ  *routine.Occurrence
}

func (d dragged) name() string {
	if d.occ != nil {
		return d.occ.Name
	}
	return d.item.Name
}

func (d dragged) effort() effort.Estimate {
	if d.occ != nil {
		return d.occ.Effort
	}
	return d.item.Effort
}

func (d dragged) template() bool {
	return d.item != nil && d.item.IsRoutine()
}

func (c *Coordinator) resolve(p Payload) (dragged, error) {
	if p.Kind == PayloadOccurrence {
		o, ok := c.routines.Get(p.OccurrenceID)
		if !ok {
			return dragged{}, fmt.Errorf("%w: occurrence %s", ErrStaleEntity, p.OccurrenceID)
		}
		return dragged{occ: &o}, nil
	}
	w, err := c.board.Resolve(p.ProjectID, p.TaskID, p.SubtaskID)
	if err != nil {
		return dragged{}, fmt.Errorf("%w: %w", ErrStaleEntity, err)
	}
	return dragged{item: w}, nil
}

// PickUp starts a gesture. A malformed payload or a missing entity leaves the
// coordinator idle.
func (c *Coordinator) PickUp(p Payload) error {
	if c.Active() {
		return ErrDragInProgress
	}
	if p.Encode() == "" {
		return fmt.Errorf("%w: unknown kind %q", ErrMalformedPayload, p.Kind)
	}
	d, err := c.resolve(p)
	if err != nil {
		return err
	}
	if d.template() && p.Moving {
		return fmt.Errorf("%w: routine templates are never placed", ErrMalformedPayload)
	}
	c.payload = p
	c.state = StateDragging
	c.hover = nil
	c.log.Debug().
		Str("event", "drag_pickup").
		Str("payload", p.String()).
		Str("name", d.name()).
		Msg("drag started")
	return nil
}

// PickUpTag decodes tag and starts a gesture.
func (c *Coordinator) PickUpTag(tag string, moving bool) error {
	p, err := ParsePayload(tag, moving)
	if err != nil {
		return err
	}
	return c.PickUp(p)
}

// Hover maps a pointer offset inside a day column to a slot and previews
// the drop there. day is the column index in the visible week.
func (c *Coordinator) Hover(day int, offsetY, columnHeight float64) (Preview, error) {
	return c.HoverSlot(day, slot.Map(offsetY, columnHeight))
}

// HoverSlot previews a drop at an already snapped slot. Nothing is written.
func (c *Coordinator) HoverSlot(day int, s slot.Slot) (Preview, error) {
	if !c.Active() {
		return Preview{}, ErrNotDragging
	}
	pv := c.preview(day, s)
	c.hover = &pv
	if pv.Valid {
		c.state = StateHoveringValid
	} else {
		c.state = StateHoveringInvalid
	}

	ev := c.log.Debug().
		Str("event", "drag_hover").
		Int("day", day).
		Str("slot", s.String()).
		Bool("valid", pv.Valid)
	if pv.Conflict != nil {
		ev = ev.Str("conflict", pv.Conflict.ID)
	}
	ev.Msg("drag hover")
	return pv, nil
}

// Leave records that the pointer left every drop surface.
func (c *Coordinator) Leave() {
	if !c.Active() {
		return
	}
	c.hover = nil
	c.state = StateDragging
}

func (c *Coordinator) preview(day int, s slot.Slot) Preview {
	pv := Preview{Day: day, Slot: s}
	if day < 0 || day >= slot.DaysPerWeek || !s.Open() {
		return pv
	}
	pv.InWindow = true
	pv.Date = c.weekStart.AddDate(0, 0, day)

	d, err := c.resolve(c.payload)
	if err != nil {
		pv.Stale = true
		return pv
	}
	pv.Name = d.name()
	start := s.On(pv.Date)
	pv.Span = schedule.Span{Start: start, End: effort.End(start, d.effort())}

	verdict := schedule.Check(pv.Span, c.payload.ID(), c.projector.Neighbourhood(pv.Date))
	pv.Valid = verdict.Valid
	pv.Conflict = verdict.Conflict
	return pv
}

// Drop ends the gesture over target. On the grid the last hover slot decides
// the commit; the span is recomputed from the current effort and checked
// again at that same slot. The coordinator is idle afterwards.
func (c *Coordinator) Drop(target Target) Outcome {
	if !c.Active() {
		return Outcome{State: StateCancelled, Reason: ReasonNotDragging}
	}
	out := c.drop(target)
	c.finish(out)
	return out
}

// Cancel aborts the gesture without writing anything.
func (c *Coordinator) Cancel() Outcome {
	if !c.Active() {
		return Outcome{State: StateCancelled, Reason: ReasonNotDragging}
	}
	out := Outcome{State: StateCancelled, Reason: ReasonEscape, Payload: c.payload}
	c.finish(out)
	return out
}

func (c *Coordinator) finish(out Outcome) {
	ev := c.log.Debug()
	event := "drag_cancel"
	if out.State == StateCommitted || out.Action != ActionNone {
		ev = c.log.Info()
		event = "drag_commit"
	}
	ev.Str("event", event).
		Str("payload", out.Payload.String()).
		Str("action", out.Action.String()).
		Str("reason", out.Reason.String()).
		Msg("drag ended")
	c.reset()
}

func (c *Coordinator) reset() {
	c.state = StateIdle
	c.payload = Payload{}
	c.hover = nil
}

func (c *Coordinator) drop(target Target) Outcome {
	out := Outcome{State: StateCancelled, Payload: c.payload}

	switch target {
	case TargetSideList:
		return c.dropOnSideList(out)
	case TargetGrid:
	default:
		out.Reason = ReasonOutside
		return out
	}

	if c.hover == nil || !c.hover.InWindow {
		out.Reason = ReasonInvalidSlot
		return out
	}
	hv := *c.hover

	d, err := c.resolve(c.payload)
	if err != nil {
		out.Reason = ReasonStale
		return out
	}
	out.Name = d.name()

	start := hv.Slot.On(hv.Date)
	span := schedule.Span{Start: start, End: effort.End(start, d.effort())}
	out.Span = span
	verdict := schedule.Check(span, c.payload.ID(), c.projector.Neighbourhood(hv.Date))
	if !verdict.Valid {
		out.Reason = ReasonConflict
		out.Conflict = verdict.Conflict
		return out
	}

	switch {
	case d.occ != nil:
		o, err := c.routines.Reposition(d.occ.ID, start)
		if err != nil {
			out.Reason = ReasonStale
			return out
		}
		out.Action = ActionOccurrenceMoved
		out.Occurrence = &o
	case d.template():
		color := ""
		if p, ok := c.board.Project(d.item.ProjectID); ok {
			color = p.Color
		}
		o, err := c.routines.Create(d.item, color, start)
		if err != nil {
			out.Reason = ReasonStale
			return out
		}
		out.Action = ActionOccurrenceCreated
		out.Occurrence = &o
	default:
		wasScheduled := d.item.IsScheduled()
		if err := c.board.SetSchedule(d.item.ID, span.Start, span.End); err != nil {
			out.Reason = ReasonStale
			return out
		}
		out.Action = ActionScheduled
		if wasScheduled {
			out.Action = ActionMoved
		}
		out.ItemID = d.item.ID
	}
	out.State = StateCommitted
	out.Reason = ReasonNone
	return out
}

// dropOnSideList handles a release over the list of unscheduled work. A placed
// item is taken off the grid; a fresh item simply goes back.
func (c *Coordinator) dropOnSideList(out Outcome) Outcome {
	out.Reason = ReasonReturned
	if !c.payload.Moving {
		return out
	}
	d, err := c.resolve(c.payload)
	if err != nil {
		out.Reason = ReasonStale
		return out
	}
	out.Name = d.name()
	if d.occ != nil {
		if err := c.routines.Delete(d.occ.ID); err != nil {
			out.Reason = ReasonStale
			return out
		}
		out.Action = ActionOccurrenceDeleted
		out.Occurrence = d.occ
		return out
	}
	if !d.item.IsScheduled() {
		return out
	}
	if err := c.board.ClearSchedule(d.item.ID); err != nil {
		out.Reason = ReasonStale
		return out
	}
	out.Action = ActionUnscheduled
	out.ItemID = d.item.ID
	return out
}
