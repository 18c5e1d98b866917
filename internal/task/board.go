package task

import (
	"fmt"
	"time"

	"github.com/javiermolinar/weekgrid/internal/effort"
)

// Board is the in-memory project → task → subtask hierarchy.
// The scheduler reads it and writes only the scheduled span of items.
type Board struct {
	projects []*Project
	items    map[string]*WorkItem
	version  uint64
}

// NewBoard creates a Board from a list of projects.
func NewBoard(projects []*Project) *Board {
	b := &Board{projects: projects}
	b.reindex()
	return b
}

func (b *Board) reindex() {
	b.items = make(map[string]*WorkItem)
	for _, p := range b.projects {
		for _, t := range p.Tasks {
			b.items[t.ID] = t
			for _, s := range t.Subtasks {
				b.items[s.ID] = s
			}
		}
	}
}

// Projects returns the projects in display order.
func (b *Board) Projects() []*Project {
	return b.projects
}

// Version increases on every mutation. Callers use it to skip recomputation.
func (b *Board) Version() uint64 {
	return b.version
}

// Item returns the work item with the given ID.
func (b *Board) Item(id string) (*WorkItem, bool) {
	w, ok := b.items[id]
	return w, ok
}

// Project returns the project with the given ID.
func (b *Board) Project(id string) (*Project, bool) {
	for _, p := range b.projects {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// Resolve finds an item by its project, task and optional subtask ids.
// The item must actually live at that position in the hierarchy.
func (b *Board) Resolve(projectID, taskID, subtaskID string) (*WorkItem, error) {
	t, ok := b.items[taskID]
	if !ok || t.ProjectID != projectID || t.ParentID != "" {
		return nil, fmt.Errorf("%w: task %s in project %s", ErrItemNotFound, taskID, projectID)
	}
	if subtaskID == "" {
		return t, nil
	}
	s, ok := b.items[subtaskID]
	if !ok || s.ParentID != taskID {
		return nil, fmt.Errorf("%w: subtask %s of task %s", ErrItemNotFound, subtaskID, taskID)
	}
	return s, nil
}

// Parent returns the parent task of a subtask.
func (b *Board) Parent(w *WorkItem) (*WorkItem, bool) {
	if w == nil || w.ParentID == "" {
		return nil, false
	}
	return b.Item(w.ParentID)
}

// Walk calls fn for every task and subtask, in hierarchy order.
func (b *Board) Walk(fn func(p *Project, w *WorkItem)) {
	for _, p := range b.projects {
		for _, t := range p.Tasks {
			fn(p, t)
			for _, s := range t.Subtasks {
				fn(p, s)
			}
		}
	}
}

// Templates returns all routine templates.
func (b *Board) Templates() []*WorkItem {
	var result []*WorkItem
	b.Walk(func(_ *Project, w *WorkItem) {
		if w.IsRoutine() {
			result = append(result, w)
		}
	})
	return result
}

// Unscheduled returns items that can be dragged onto the grid from the side
// list: open tasks and subtasks without a scheduled start.
func (b *Board) Unscheduled() []*WorkItem {
	var result []*WorkItem
	b.Walk(func(_ *Project, w *WorkItem) {
		if w.IsRoutine() || w.Stage == StageDone || w.IsScheduled() {
			return
		}
		result = append(result, w)
	})
	return result
}

// SetSchedule places an item on the grid.
func (b *Board) SetSchedule(id string, start, end time.Time) error {
	w, ok := b.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if w.IsRoutine() {
		return ErrNotSchedulable
	}
	if !end.After(start) {
		return ErrEndBeforeStart
	}
	w.ScheduledStart = &start
	w.ScheduledEnd = &end
	b.version++
	return nil
}

// ClearSchedule removes an item from the grid.
func (b *Board) ClearSchedule(id string) error {
	w, ok := b.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	w.ScheduledStart = nil
	w.ScheduledEnd = nil
	b.version++
	return nil
}

// Edit updates an item's name and/or effort. A nil argument leaves the field
// unchanged. A scheduled item keeps its start and gets its end recomputed.
func (b *Board) Edit(id string, name *string, e *effort.Estimate) (*WorkItem, error) {
	w, ok := b.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if name != nil {
		if *name == "" {
			return nil, ErrEmptyName
		}
		w.Name = *name
	}
	if e != nil {
		w.Effort = *e
		if w.ScheduledStart != nil {
			end := effort.End(*w.ScheduledStart, w.Effort)
			w.ScheduledEnd = &end
		}
	}
	b.version++
	return w, nil
}

// AddProject appends a project.
func (b *Board) AddProject(p *Project) {
	b.projects = append(b.projects, p)
	b.reindex()
	b.version++
}

// Add inserts a task or subtask under its project or parent.
func (b *Board) Add(w *WorkItem) error {
	p, ok := b.Project(w.ProjectID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, w.ProjectID)
	}
	if w.ParentID == "" {
		p.Tasks = append(p.Tasks, w)
	} else {
		parent, ok := b.items[w.ParentID]
		if !ok {
			return fmt.Errorf("%w: parent %s", ErrItemNotFound, w.ParentID)
		}
		parent.Subtasks = append(parent.Subtasks, w)
	}
	b.items[w.ID] = w
	b.version++
	return nil
}

// Remove deletes an item and, for tasks, its subtasks.
func (b *Board) Remove(id string) error {
	w, ok := b.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if w.ParentID != "" {
		if parent, ok := b.items[w.ParentID]; ok {
			parent.Subtasks = removeItem(parent.Subtasks, id)
		}
	} else if p, ok := b.Project(w.ProjectID); ok {
		p.Tasks = removeItem(p.Tasks, id)
	}
	b.reindex()
	b.version++
	return nil
}

func removeItem(items []*WorkItem, id string) []*WorkItem {
	result := items[:0]
	for _, w := range items {
		if w.ID != id {
			result = append(result, w)
		}
	}
	return result
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	projects := make([]*Project, len(b.projects))
	for i, p := range b.projects {
		projects[i] = p.clone()
	}
	c := NewBoard(projects)
	c.version = b.version
	return c
}
