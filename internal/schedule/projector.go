package schedule

import (
	"cmp"
	"slices"
	"time"

	"github.com/javiermolinar/weekgrid/internal/dateutil"
	"github.com/javiermolinar/weekgrid/internal/routine"
	"github.com/javiermolinar/weekgrid/internal/slot"
	"github.com/javiermolinar/weekgrid/internal/task"
)

// Hierarchy is the read side of the work hierarchy.
type Hierarchy interface {
	Walk(fn func(p *task.Project, w *task.WorkItem))
	Item(id string) (*task.WorkItem, bool)
	Project(id string) (*task.Project, bool)
	Version() uint64
}

// Occurrences is the read side of the routine occurrence set.
type Occurrences interface {
	Between(from, to time.Time) []routine.Occurrence
	Version() uint64
}

// Project returns every placement in the week starting at weekStart, ordered
// by start. Work items count only when they carry a scheduled start inside
// the 05:00-24:00 window of a day in that week; templates never appear.
// Neither h nor occs is modified.
func Project(h Hierarchy, occs []routine.Occurrence, weekStart time.Time) []Placement {
	weekStart = dateutil.TruncateToDay(weekStart)
	weekEnd := weekStart.AddDate(0, 0, slot.DaysPerWeek)
	var result []Placement

	h.Walk(func(p *task.Project, w *task.WorkItem) {
		if w.IsRoutine() || !w.IsScheduled() {
			return
		}
		start := *w.ScheduledStart
		if start.Before(weekStart) || !start.Before(weekEnd) {
			return
		}
		pl, ok := place(weekStart, start, w.End())
		if !ok {
			return
		}
		pl.ID = w.ID
		pl.Source = w.ID
		pl.Name = w.Name
		pl.ProjectID = p.ID
		pl.ProjectName = p.Name
		pl.Color = p.Color
		pl.Kind = KindTask
		if parent, ok := h.Item(w.ParentID); ok {
			pl.Kind = KindSubtask
			pl.TaskName = parent.Name
		}
		result = append(result, pl)
	})

	for _, o := range occs {
		if o.Start.Before(weekStart) || !o.Start.Before(weekEnd) {
			continue
		}
		pl, ok := place(weekStart, o.Start, o.End)
		if !ok {
			continue
		}
		pl.ID = o.ID
		pl.Source = o.OriginalID
		pl.Kind = KindOccurrence
		pl.Name = o.Name
		pl.ProjectID = o.ProjectID
		pl.Color = o.Color
		if p, ok := h.Project(o.ProjectID); ok {
			pl.ProjectName = p.Name
			if pl.Color == "" {
				pl.Color = p.Color
			}
		}
		if o.Kind == routine.KindSubtaskOccurrence {
			if parent, ok := h.Item(o.TaskID); ok {
				pl.TaskName = parent.Name
			}
		}
		result = append(result, pl)
	}

	slices.SortStableFunc(result, func(a, b Placement) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return result
}

// place fills the grid geometry of a span. It returns false when the span
// does not start inside the scheduling window.
func place(weekStart, start, end time.Time) (Placement, bool) {
	day := dateutil.DayIndex(weekStart, start)
	s, ok := slot.FromTime(start)
	if day < 0 || !ok {
		return Placement{}, false
	}
	if !end.After(start) {
		return Placement{}, false
	}
	visibleEnd := end
	if limit := slot.WindowEnd(start); visibleEnd.After(limit) {
		visibleEnd = limit
	}
	return Placement{
		Day:         day,
		StartHour:   s.Hour,
		StartMinute: start.Minute(),
		Hours:       visibleEnd.Sub(start).Hours(),
		Start:       start,
		End:         end,
	}, true
}

type projectionKey struct {
	boardVersion uint64
	occVersion   uint64
	weekStart    time.Time
}

// Projector caches the last projection and recomputes only when the board,
// the occurrence set or the requested week changes. The returned slice is
// shared between calls and must not be modified.
type Projector struct {
	board Hierarchy
	occs  Occurrences

	key    projectionKey
	cached []Placement
	valid  bool
}

// NewProjector creates a Projector over board and occs.
func NewProjector(board Hierarchy, occs Occurrences) *Projector {
	return &Projector{board: board, occs: occs}
}

// Week returns the placements for the week starting at weekStart.
func (p *Projector) Week(weekStart time.Time) []Placement {
	weekStart = dateutil.WeekStart(weekStart)
	key := projectionKey{
		boardVersion: p.board.Version(),
		occVersion:   p.occs.Version(),
		weekStart:    weekStart,
	}
	if p.valid && p.key == key {
		return p.cached
	}
	p.cached = p.compute(weekStart)
	p.key = key
	p.valid = true
	return p.cached
}

func (p *Projector) compute(weekStart time.Time) []Placement {
	occs := p.occs.Between(weekStart, weekStart.AddDate(0, 0, slot.DaysPerWeek))
	return Project(p.board, occs, weekStart)
}

// Invalidate drops the cached projection.
func (p *Projector) Invalidate() {
	p.valid = false
	p.cached = nil
}

// Neighbourhood returns the placements a span starting on date can collide
// with: those starting on date or on the following day, plus those starting
// on the previous day whose persisted end runs past midnight into date.
// The cache is left untouched.
func (p *Projector) Neighbourhood(date time.Time) []Placement {
	date = dateutil.TruncateToDay(date)
	prev := date.AddDate(0, 0, -1)
	var result []Placement
	for _, pl := range p.onDay(prev) {
		if pl.End.After(date) {
			result = append(result, pl)
		}
	}
	result = append(result, p.onDay(date)...)
	return append(result, p.onDay(date.AddDate(0, 0, 1))...)
}

func (p *Projector) onDay(day time.Time) []Placement {
	week := dateutil.WeekStart(day)
	idx := dateutil.DayIndex(week, day)
	occs := p.occs.Between(day, day.AddDate(0, 0, 1))
	return OnDay(Project(p.board, occs, week), idx)
}
