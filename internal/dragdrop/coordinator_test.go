package dragdrop

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javiermolinar/weekgrid/internal/effort"
	"github.com/javiermolinar/weekgrid/internal/routine"
	"github.com/javiermolinar/weekgrid/internal/slot"
	"github.com/javiermolinar/weekgrid/internal/task"
)

// Column height of 20 hour rows at 64px each.
const columnHeight = 1280.0

var monday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.Local)

func at(day, hour, minute int) time.Time {
	return time.Date(2025, 3, 3+day, hour, minute, 0, 0, time.Local)
}

func ptr(t time.Time) *time.Time { return &t }

// offset returns the pointer offset of hour:minute inside a day column.
func offset(hour, minute int) float64 {
	return slot.OffsetFor(hour, minute, columnHeight)
}

type fixture struct {
	board *task.Board
	mgr   *routine.Manager
	c     *Coordinator
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	p := &task.Project{ID: "p1", Name: "Website", Color: "#89b4fa"}
	t1 := &task.WorkItem{ID: "t1", ProjectID: "p1", Name: "Launch", Effort: 3, Stage: task.StageActive}
	s1 := &task.WorkItem{ID: "s1", ProjectID: "p1", ParentID: "t1", Name: "Write copy", Effort: 2, Stage: task.StageActive}
	t1.Subtasks = []*task.WorkItem{s1}
	busy := &task.WorkItem{ID: "busy", ProjectID: "p1", Name: "Standup prep", Effort: 1, Stage: task.StageActive,
		ScheduledStart: ptr(at(1, 10, 0)), ScheduledEnd: ptr(at(1, 11, 0))}
	r1 := &task.WorkItem{ID: "r1", ProjectID: "p1", Name: "Inbox", Effort: 1, Stage: task.StageRoutine}
	p.Tasks = []*task.WorkItem{t1, busy, r1}

	n := 0
	f := &fixture{
		board: task.NewBoard([]*task.Project{p}),
		mgr: routine.NewManager(nil, routine.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("occ-%d", n)
		})),
	}
	f.c = New(f.board, f.mgr, append([]Option{WithWeek(monday)}, opts...)...)
	return f
}

func (f *fixture) item(t *testing.T, id string) *task.WorkItem {
	t.Helper()
	w, ok := f.board.Item(id)
	require.True(t, ok, "item %s", id)
	return w
}

func (f *fixture) drag(t *testing.T, p Payload, day, hour, minute int) Outcome {
	t.Helper()
	require.NoError(t, f.c.PickUp(p))
	_, err := f.c.Hover(day, offset(hour, minute), columnHeight)
	require.NoError(t, err)
	return f.c.Drop(TargetGrid)
}

func TestCoordinator_SubtaskEndToEnd(t *testing.T) {
	f := newFixture(t)
	s1 := f.item(t, "s1")

	require.NoError(t, f.c.PickUp(ItemPayload(s1, false)))
	assert.Equal(t, StateDragging, f.c.State())

	pv, err := f.c.Hover(1, 576, columnHeight)
	require.NoError(t, err)
	assert.Equal(t, StateHoveringValid, f.c.State())
	assert.True(t, pv.Valid)
	assert.Nil(t, pv.Conflict)
	assert.Equal(t, at(1, 14, 0), pv.Span.Start)
	assert.Equal(t, at(1, 16, 0), pv.Span.End)
	assert.Equal(t, 2*time.Hour, pv.Span.Duration())
	assert.Equal(t, "Tue 14:00–16:00", pv.Label())

	out := f.c.Drop(TargetGrid)
	assert.Equal(t, StateCommitted, out.State)
	assert.Equal(t, ActionScheduled, out.Action)
	assert.True(t, out.Changed())
	assert.Equal(t, "s1", out.ItemID)

	require.NotNil(t, s1.ScheduledStart)
	assert.Equal(t, "2025-03-04T14:00:00", s1.ScheduledStart.Format("2006-01-02T15:04:05"))
	assert.Equal(t, "2025-03-04T16:00:00", s1.ScheduledEnd.Format("2006-01-02T15:04:05"))

	assert.Equal(t, StateIdle, f.c.State())
	_, ok := f.c.Preview()
	assert.False(t, ok, "terminal transition clears the preview")
}

func TestCoordinator_ConflictScenario(t *testing.T) {
	f := newFixture(t)
	short := &task.WorkItem{ID: "short", ProjectID: "p1", Name: "Call", Effort: 1, Stage: task.StageActive}
	require.NoError(t, f.board.Add(short))
	require.NoError(t, f.board.SetSchedule("short", at(1, 15, 0), at(1, 15, 30)))

	before := f.board.Clone()
	s1 := f.item(t, "s1")

	require.NoError(t, f.c.PickUp(ItemPayload(s1, false)))
	pv, err := f.c.Hover(1, offset(14, 0), columnHeight)
	require.NoError(t, err)
	assert.Equal(t, StateHoveringInvalid, f.c.State())
	assert.False(t, pv.Valid)
	require.NotNil(t, pv.Conflict)
	assert.Equal(t, "short", pv.Conflict.ID)

	out := f.c.Drop(TargetGrid)
	assert.Equal(t, StateCancelled, out.State)
	assert.Equal(t, ReasonConflict, out.Reason)
	assert.False(t, out.Changed())
	require.NotNil(t, out.Conflict)
	assert.Equal(t, "short", out.Conflict.ID)
	assert.Contains(t, out.Message(), "overlaps \"Call\"")

	assert.Nil(t, s1.ScheduledStart)
	assert.Equal(t, before.Projects(), f.board.Projects())
	assert.Equal(t, StateIdle, f.c.State())
}

func TestCoordinator_CancellationPurity(t *testing.T) {
	tests := []struct {
		name string
		end  func(c *Coordinator) Outcome
	}{
		{"escape", func(c *Coordinator) Outcome { return c.Cancel() }},
		{"outside", func(c *Coordinator) Outcome { return c.Drop(TargetNone) }},
		{"fresh item back to list", func(c *Coordinator) Outcome { return c.Drop(TargetSideList) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			o, err := f.mgr.Create(f.item(t, "r1"), "", at(0, 9, 0))
			require.NoError(t, err)

			boardBefore := f.board.Clone()
			occsBefore := f.mgr.All()
			boardVersion, occVersion := f.board.Version(), f.mgr.Version()

			require.NoError(t, f.c.PickUp(ItemPayload(f.item(t, "t1"), false)))
			for h := 5; h < 23; h++ {
				_, err := f.c.Hover(h%7, offset(h, 30), columnHeight)
				require.NoError(t, err)
			}
			out := tt.end(f.c)

			assert.Equal(t, StateCancelled, out.State)
			assert.False(t, out.Changed())
			assert.Equal(t, boardBefore.Projects(), f.board.Projects())
			assert.Equal(t, occsBefore, f.mgr.All())
			assert.Equal(t, boardVersion, f.board.Version())
			assert.Equal(t, occVersion, f.mgr.Version())
			assert.Equal(t, StateIdle, f.c.State())

			got, ok := f.mgr.Get(o.ID)
			require.True(t, ok)
			assert.Equal(t, o, got)
		})
	}
}

func TestCoordinator_OneGestureAtATime(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.c.PickUp(ItemPayload(f.item(t, "t1"), false)))
	assert.ErrorIs(t, f.c.PickUp(ItemPayload(f.item(t, "s1"), false)), ErrDragInProgress)

	p, ok := f.c.Payload()
	require.True(t, ok)
	assert.Equal(t, "t1", p.TaskID, "the first gesture is kept")

	f.c.Cancel()
	assert.NoError(t, f.c.PickUp(ItemPayload(f.item(t, "s1"), false)))
}

func TestCoordinator_NotDragging(t *testing.T) {
	f := newFixture(t)
	_, err := f.c.Hover(0, 0, columnHeight)
	assert.ErrorIs(t, err, ErrNotDragging)
	assert.Equal(t, ReasonNotDragging, f.c.Drop(TargetGrid).Reason)
	assert.Equal(t, ReasonNotDragging, f.c.Cancel().Reason)
	assert.Equal(t, StateIdle, f.c.State())
}

func TestCoordinator_MalformedPayload(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.c.PickUpTag("task:p1", false), ErrMalformedPayload)
	assert.ErrorIs(t, f.c.PickUp(Payload{Kind: "habit", TaskID: "t1"}), ErrMalformedPayload)
	assert.ErrorIs(t, f.c.PickUp(ItemPayload(f.item(t, "r1"), true)), ErrMalformedPayload,
		"templates are never on the grid")
	assert.ErrorIs(t, f.c.PickUpTag("task:p1:nope", false), ErrStaleEntity)
	assert.ErrorIs(t, f.c.PickUpTag("subtask:p1:busy:s1", false), ErrStaleEntity,
		"subtask must live under the named task")
	assert.Equal(t, StateIdle, f.c.State())
}

func TestCoordinator_StaleEntityMidGesture(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.c.PickUp(ItemPayload(f.item(t, "s1"), false)))
	_, err := f.c.Hover(2, offset(9, 0), columnHeight)
	require.NoError(t, err)

	require.NoError(t, f.board.Remove("t1"))

	pv, err := f.c.Hover(2, offset(9, 30), columnHeight)
	require.NoError(t, err)
	assert.True(t, pv.Stale)
	assert.False(t, pv.Valid)

	out := f.c.Drop(TargetGrid)
	assert.Equal(t, StateCancelled, out.State)
	assert.Equal(t, ReasonStale, out.Reason)
	assert.False(t, out.Changed())
}

func TestCoordinator_BoundarySlotCancelsSilently(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.c.PickUp(ItemPayload(f.item(t, "t1"), false)))

	pv, err := f.c.Hover(0, 1279, columnHeight)
	require.NoError(t, err)
	assert.Equal(t, 24, pv.Slot.Hour)
	assert.False(t, pv.InWindow)
	assert.False(t, pv.Valid)
	assert.Nil(t, pv.Conflict)

	out := f.c.Drop(TargetGrid)
	assert.Equal(t, ReasonInvalidSlot, out.Reason)
	assert.Empty(t, out.Message())
	assert.Nil(t, f.item(t, "t1").ScheduledStart)
}

func TestCoordinator_OutOfRangeDay(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.c.PickUp(ItemPayload(f.item(t, "t1"), false)))
	pv, err := f.c.Hover(7, offset(9, 0), columnHeight)
	require.NoError(t, err)
	assert.False(t, pv.InWindow)
	assert.Equal(t, ReasonInvalidSlot, f.c.Drop(TargetGrid).Reason)
}

func TestCoordinator_LastHoverIsAuthoritative(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.c.PickUp(ItemPayload(f.item(t, "t1"), false)))
	_, _ = f.c.Hover(1, offset(14, 0), columnHeight)
	_, _ = f.c.Hover(3, offset(18, 30), columnHeight)

	out := f.c.Drop(TargetGrid)
	require.Equal(t, StateCommitted, out.State)
	assert.Equal(t, at(3, 18, 30), *f.item(t, "t1").ScheduledStart)
	assert.Equal(t, at(3, 21, 30), *f.item(t, "t1").ScheduledEnd)
}

func TestCoordinator_LeaveThenDrop(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.c.PickUp(ItemPayload(f.item(t, "t1"), false)))
	_, _ = f.c.Hover(1, offset(14, 0), columnHeight)
	f.c.Leave()
	assert.Equal(t, StateDragging, f.c.State())
	assert.Equal(t, ReasonInvalidSlot, f.c.Drop(TargetGrid).Reason)
	assert.Nil(t, f.item(t, "t1").ScheduledStart)
}

func TestCoordinator_DurationRecomputedAtDrop(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.c.PickUp(ItemPayload(f.item(t, "s1"), false)))
	pv, _ := f.c.Hover(1, offset(14, 0), columnHeight)
	assert.Equal(t, at(1, 16, 0), pv.Span.End)

	three := effort.Estimate(3)
	_, err := f.board.Edit("s1", nil, &three)
	require.NoError(t, err)

	out := f.c.Drop(TargetGrid)
	require.Equal(t, StateCommitted, out.State)
	assert.Equal(t, at(1, 17, 0), *f.item(t, "s1").ScheduledEnd)
}

func TestCoordinator_MoveScheduledItem(t *testing.T) {
	f := newFixture(t)
	busy := f.item(t, "busy")

	out := f.drag(t, ItemPayload(busy, true), 1, 10, 30)
	require.Equal(t, StateCommitted, out.State, "an item never collides with itself")
	assert.Equal(t, ActionMoved, out.Action)
	assert.Equal(t, at(1, 10, 30), *busy.ScheduledStart)
	assert.Equal(t, at(1, 11, 30), *busy.ScheduledEnd)
}

func TestCoordinator_UnscheduleOnSideList(t *testing.T) {
	f := newFixture(t)
	busy := f.item(t, "busy")

	require.NoError(t, f.c.PickUp(ItemPayload(busy, true)))
	_, _ = f.c.Hover(2, offset(9, 0), columnHeight)
	out := f.c.Drop(TargetSideList)

	assert.Equal(t, StateCancelled, out.State)
	assert.Equal(t, ActionUnscheduled, out.Action)
	assert.True(t, out.Changed())
	assert.Nil(t, busy.ScheduledStart)
	assert.Nil(t, busy.ScheduledEnd)
	assert.Equal(t, StateIdle, f.c.State())
}

func TestCoordinator_RoutineReuse(t *testing.T) {
	f := newFixture(t)
	r1 := f.item(t, "r1")

	mon := f.drag(t, ItemPayload(r1, false), 0, 9, 0)
	require.Equal(t, ActionOccurrenceCreated, mon.Action)
	wed := f.drag(t, ItemPayload(r1, false), 2, 9, 0)
	require.Equal(t, ActionOccurrenceCreated, wed.Action)

	require.Equal(t, 2, f.mgr.Len())
	assert.NotEqual(t, mon.Occurrence.ID, wed.Occurrence.ID)
	assert.Equal(t, "#89b4fa", mon.Occurrence.Color)
	assert.Nil(t, r1.ScheduledStart, "the template itself is never placed")

	// Drag the Monday occurrence back to the list: only it is deleted.
	require.NoError(t, f.c.PickUp(OccurrencePayload(mon.Occurrence.ID)))
	out := f.c.Drop(TargetSideList)
	assert.Equal(t, ActionOccurrenceDeleted, out.Action)

	_, ok := f.mgr.Get(mon.Occurrence.ID)
	assert.False(t, ok)
	got, ok := f.mgr.Get(wed.Occurrence.ID)
	require.True(t, ok)
	assert.Equal(t, *wed.Occurrence, got)
	assert.Equal(t, "Inbox", r1.Name)
	assert.Equal(t, effort.Estimate(1), r1.Effort)

	placements := f.c.Placements()
	require.Len(t, placements, 2)
	assert.Equal(t, "busy", placements[0].ID)
	assert.Equal(t, wed.Occurrence.ID, placements[1].ID)
}

func TestCoordinator_RepositionOccurrence(t *testing.T) {
	f := newFixture(t)
	created := f.drag(t, ItemPayload(f.item(t, "r1"), false), 0, 9, 0)
	require.Equal(t, StateCommitted, created.State)
	id := created.Occurrence.ID

	// Overlapping its own previous span is fine.
	out := f.drag(t, OccurrencePayload(id), 0, 9, 30)
	require.Equal(t, StateCommitted, out.State)
	assert.Equal(t, ActionOccurrenceMoved, out.Action)
	assert.Equal(t, 1, f.mgr.Len(), "moving never re-creates an occurrence")

	out = f.drag(t, OccurrencePayload(id), 1, 10, 30)
	assert.Equal(t, ReasonConflict, out.Reason)
	assert.Equal(t, "busy", out.Conflict.ID)

	o, _ := f.mgr.Get(id)
	assert.Equal(t, at(0, 9, 30), o.Start)
	assert.Equal(t, at(0, 10, 30), o.End)
}

func TestCoordinator_CrossMidnightConflict(t *testing.T) {
	f := newFixture(t)
	early := &task.WorkItem{ID: "early", ProjectID: "p1", Name: "Gym", Effort: 1, Stage: task.StageActive}
	require.NoError(t, f.board.Add(early))
	require.NoError(t, f.board.SetSchedule("early", at(3, 5, 0), at(3, 6, 0)))

	big := &task.WorkItem{ID: "big", ProjectID: "p1", Name: "Deploy", Effort: 8, Stage: task.StageActive}
	require.NoError(t, f.board.Add(big))

	out := f.drag(t, ItemPayload(big, false), 2, 22, 0)
	assert.Equal(t, ReasonConflict, out.Reason)
	assert.Equal(t, "early", out.Conflict.ID)
}

func TestCoordinator_PreviousDaySpillConflict(t *testing.T) {
	f := newFixture(t)
	big := &task.WorkItem{ID: "big", ProjectID: "p1", Name: "Deploy", Effort: 8, Stage: task.StageActive}
	short := &task.WorkItem{ID: "short", ProjectID: "p1", Name: "Gym", Effort: 1, Stage: task.StageActive}
	require.NoError(t, f.board.Add(big))
	require.NoError(t, f.board.Add(short))

	out := f.drag(t, ItemPayload(big, false), 2, 23, 0)
	require.Equal(t, StateCommitted, out.State)
	assert.Equal(t, at(3, 7, 0), f.item(t, "big").End())

	out = f.drag(t, ItemPayload(short, false), 3, 5, 0)
	assert.Equal(t, StateCancelled, out.State)
	assert.Equal(t, ReasonConflict, out.Reason)
	require.NotNil(t, out.Conflict)
	assert.Equal(t, "big", out.Conflict.ID)
	assert.False(t, f.item(t, "short").IsScheduled())

	out = f.drag(t, ItemPayload(short, false), 3, 7, 0)
	assert.Equal(t, StateCommitted, out.State, "back to back after the spill is fine")
}

func TestCoordinator_LogsGestureEvents(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	f := newFixture(t, WithLogger(logger))

	f.drag(t, ItemPayload(f.item(t, "t1"), false), 0, 9, 0)
	require.NoError(t, f.c.PickUp(ItemPayload(f.item(t, "s1"), false)))
	f.c.Cancel()

	logs := buf.String()
	assert.Contains(t, logs, `"event":"drag_pickup"`)
	assert.Contains(t, logs, `"event":"drag_hover"`)
	assert.Contains(t, logs, `"event":"drag_commit"`)
	assert.Contains(t, logs, `"event":"drag_cancel"`)
}

func TestCoordinator_SetWeek(t *testing.T) {
	f := newFixture(t)
	f.c.SetWeek(at(9, 12, 0))
	assert.Equal(t, monday.AddDate(0, 0, 7), f.c.WeekStart())

	out := f.drag(t, ItemPayload(f.item(t, "t1"), false), 1, 10, 0)
	require.Equal(t, StateCommitted, out.State, "busy sits in the previous week")
	assert.Equal(t, at(8, 10, 0), *f.item(t, "t1").ScheduledStart)
}
