// Package workspace ties the work hierarchy, the routine occurrences and the
// drag/drop coordinator to persistent storage.
package workspace

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/javiermolinar/weekgrid/internal/dragdrop"
	"github.com/javiermolinar/weekgrid/internal/effort"
	"github.com/javiermolinar/weekgrid/internal/routine"
	"github.com/javiermolinar/weekgrid/internal/schedule"
	"github.com/javiermolinar/weekgrid/internal/slot"
	"github.com/javiermolinar/weekgrid/internal/task"
)

// Store persists both the hierarchy and the occurrence list.
type Store interface {
	task.Repository
	routine.Store
}

// projectColors are assigned round-robin to projects created without a color.
var projectColors = []string{
	"#89b4fa", "#a6e3a1", "#f9e2af", "#f5c2e7", "#94e2d5", "#fab387", "#cba6f7", "#f38ba8",
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(w *Workspace) {
		w.log = l
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(w *Workspace) {
		if now != nil {
			w.now = now
		}
	}
}

// WithRetention sets the routine retention window.
func WithRetention(d time.Duration) Option {
	return func(w *Workspace) {
		w.retention = d
	}
}

// Workspace owns the in-memory state of one database.
type Workspace struct {
	store     Store
	log       zerolog.Logger
	now       func() time.Time
	retention time.Duration

	Board       *task.Board
	Routines    *routine.Manager
	Coordinator *dragdrop.Coordinator
}

// Open loads the hierarchy and the occurrence list from store. Occurrences
// past retention are pruned and the pruned list is written back.
func Open(ctx context.Context, store Store, opts ...Option) (*Workspace, error) {
	w := &Workspace{
		store:     store,
		log:       zerolog.Nop(),
		now:       time.Now,
		retention: routine.DefaultRetention,
	}
	for _, opt := range opts {
		opt(w)
	}

	board, err := store.LoadBoard(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading board: %w", err)
	}
	w.Board = board

	occs, err := store.LoadOccurrences(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading routine occurrences: %w", err)
	}
	w.Routines = routine.NewManager(occs, routine.WithRetention(w.retention))
	if n := w.Routines.Prune(w.now()); n > 0 {
		w.log.Info().Str("event", "routine_prune").Int("removed", n).Msg("pruned stale routine occurrences")
		if err := w.Routines.Save(ctx, store); err != nil {
			return nil, err
		}
	}

	w.Coordinator = dragdrop.New(w.Board, w.Routines,
		dragdrop.WithLogger(w.log),
		dragdrop.WithWeek(w.now()),
	)
	return w, nil
}

// Close closes the underlying store.
func (w *Workspace) Close() error {
	return w.store.Close()
}

// Now returns the workspace clock.
func (w *Workspace) Now() time.Time {
	return w.now()
}

// Week shows the week containing t and returns its placements.
func (w *Workspace) Week(t time.Time) []schedule.Placement {
	w.Coordinator.SetWeek(t)
	return w.Coordinator.Placements()
}

// Persister returns the write that makes a gesture outcome durable. The data
// is captured when Persister is called, so the returned func may run later
// on another goroutine without touching the in-memory state.
func (w *Workspace) Persister(out dragdrop.Outcome) func(ctx context.Context) error {
	switch out.Action {
	case dragdrop.ActionScheduled, dragdrop.ActionMoved:
		id, span := out.ItemID, out.Span
		return func(ctx context.Context) error {
			return w.store.SetSchedule(ctx, id, span.Start, span.End)
		}
	case dragdrop.ActionUnscheduled:
		id := out.ItemID
		return func(ctx context.Context) error {
			return w.store.ClearSchedule(ctx, id)
		}
	case dragdrop.ActionOccurrenceCreated, dragdrop.ActionOccurrenceMoved, dragdrop.ActionOccurrenceDeleted:
		return w.saveOccurrencesLater()
	default:
		return func(context.Context) error { return nil }
	}
}

func (w *Workspace) saveOccurrencesLater() func(ctx context.Context) error {
	snapshot := w.Routines.All()
	return func(ctx context.Context) error {
		if err := w.store.SaveOccurrences(ctx, snapshot); err != nil {
			return fmt.Errorf("saving routine occurrences: %w", err)
		}
		return nil
	}
}

// Persist writes a gesture outcome now.
func (w *Workspace) Persist(ctx context.Context, out dragdrop.Outcome) error {
	return w.Persister(out)(ctx)
}

// Place runs a complete gesture that drops p at the given day column and
// slot of the visible week, then persists the result. A rejected drop is
// reported through the outcome, not as an error.
func (w *Workspace) Place(ctx context.Context, p dragdrop.Payload, day int, s slot.Slot) (dragdrop.Outcome, error) {
	if err := w.Coordinator.PickUp(p); err != nil {
		return dragdrop.Outcome{}, err
	}
	if _, err := w.Coordinator.HoverSlot(day, s); err != nil {
		w.Coordinator.Cancel()
		return dragdrop.Outcome{}, err
	}
	out := w.Coordinator.Drop(dragdrop.TargetGrid)
	if err := w.Persist(ctx, out); err != nil {
		return out, err
	}
	return out, nil
}

// Unschedule runs a gesture that drags a placed unit back to the side list.
func (w *Workspace) Unschedule(ctx context.Context, p dragdrop.Payload) (dragdrop.Outcome, error) {
	p.Moving = true
	if err := w.Coordinator.PickUp(p); err != nil {
		return dragdrop.Outcome{}, err
	}
	out := w.Coordinator.Drop(dragdrop.TargetSideList)
	if err := w.Persist(ctx, out); err != nil {
		return out, err
	}
	return out, nil
}

// PayloadFor builds the drag payload for a work item or occurrence id.
// Work items that are already scheduled are marked as moving.
func (w *Workspace) PayloadFor(id string) (dragdrop.Payload, error) {
	if item, ok := w.Board.Item(id); ok {
		return dragdrop.ItemPayload(item, item.IsScheduled()), nil
	}
	if _, ok := w.Routines.Get(id); ok {
		return dragdrop.OccurrencePayload(id), nil
	}
	return dragdrop.Payload{}, fmt.Errorf("%w: %s", task.ErrItemNotFound, id)
}

// AddProject creates a project. An empty color picks the next palette entry.
func (w *Workspace) AddProject(ctx context.Context, name, color string) (*task.Project, error) {
	if color == "" {
		color = projectColors[len(w.Board.Projects())%len(projectColors)]
	}
	p, err := task.NewProject(name, color)
	if err != nil {
		return nil, err
	}
	if err := w.store.CreateProject(ctx, p); err != nil {
		return nil, err
	}
	w.Board.AddProject(p)
	return p, nil
}

// AddItem creates a task, subtask or routine template.
func (w *Workspace) AddItem(ctx context.Context, projectID, parentID, name string, e effort.Estimate, stage task.Stage) (*task.WorkItem, error) {
	item, err := task.New(projectID, parentID, name, e, stage)
	if err != nil {
		return nil, err
	}
	if err := w.store.CreateItem(ctx, item); err != nil {
		return nil, err
	}
	if err := w.Board.Add(item); err != nil {
		return nil, err
	}
	return item, nil
}

// EditItem changes an item's name and/or effort. For a routine template the
// change is pushed to every live occurrence; for a scheduled item the end is
// recomputed from its start. Returns the number of occurrences updated.
func (w *Workspace) EditItem(ctx context.Context, id string, name *string, e *effort.Estimate) (int, error) {
	item, err := w.Board.Edit(id, name, e)
	if err != nil {
		return 0, err
	}
	if err := w.store.UpdateItem(ctx, item.ID, item.Name, item.Effort); err != nil {
		return 0, err
	}
	if item.IsScheduled() && e != nil {
		if err := w.store.SetSchedule(ctx, item.ID, *item.ScheduledStart, item.End()); err != nil {
			return 0, err
		}
	}
	if !item.IsRoutine() {
		return 0, nil
	}
	n := w.Routines.Propagate(item.ID, name, e)
	if n > 0 {
		w.log.Info().Str("event", "routine_propagate").Str("template", item.ID).Int("occurrences", n).Msg("template edit propagated")
		if err := w.Routines.Save(ctx, w.store); err != nil {
			return n, err
		}
	}
	return n, nil
}

// EditOccurrence changes a single occurrence, which then diverges from its
// template until the template is edited again.
func (w *Workspace) EditOccurrence(ctx context.Context, id string, name *string, e *effort.Estimate) (routine.Occurrence, error) {
	o, err := w.Routines.Edit(id, name, e)
	if err != nil {
		return routine.Occurrence{}, err
	}
	return o, w.Routines.Save(ctx, w.store)
}

// DeleteOccurrence removes one occurrence.
func (w *Workspace) DeleteOccurrence(ctx context.Context, id string) error {
	if err := w.Routines.Delete(id); err != nil {
		return err
	}
	return w.Routines.Save(ctx, w.store)
}

// DeleteItem removes an item with its subtasks. Deleting a routine template,
// or a task holding routine subtasks, also removes every occurrence created
// from those templates. Returns the number of occurrences removed.
func (w *Workspace) DeleteItem(ctx context.Context, id string) (int, error) {
	item, ok := w.Board.Item(id)
	if !ok {
		return 0, fmt.Errorf("%w: %s", task.ErrItemNotFound, id)
	}

	var templates []string
	for _, it := range append([]*task.WorkItem{item}, item.Subtasks...) {
		if it.IsRoutine() {
			templates = append(templates, it.ID)
		}
	}
	n := 0
	for _, tid := range templates {
		removed, err := w.Routines.DeleteTemplate(tid, nil)
		if err != nil {
			return n, err
		}
		n += removed
	}

	if err := w.Board.Remove(id); err != nil {
		return n, err
	}
	if n > 0 {
		if err := w.Routines.Save(ctx, w.store); err != nil {
			return n, err
		}
	}
	return n, w.store.DeleteItem(ctx, id)
}

// Prune drops occurrences past retention and persists the result.
func (w *Workspace) Prune(ctx context.Context) (int, error) {
	n := w.Routines.Prune(w.now())
	if n == 0 {
		return 0, nil
	}
	return n, w.Routines.Save(ctx, w.store)
}
