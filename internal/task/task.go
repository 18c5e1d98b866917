// Package task defines the work hierarchy the scheduler places on the grid:
// projects, tasks, subtasks and routine templates.
package task

import (
	"errors"
	"strings"
	"time"

	"github.com/javiermolinar/weekgrid/internal/effort"
)

// Validation errors.
var (
	ErrEmptyName      = errors.New("name cannot be empty")
	ErrInvalidStage   = errors.New("stage must be 'backlog', 'active', 'done' or 'routine'")
	ErrEndBeforeStart = errors.New("end time must be after start time")
)

// Domain errors.
var (
	ErrItemNotFound    = errors.New("item not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrNotSchedulable  = errors.New("routine templates cannot be scheduled directly")
)

// Stage is the lifecycle state of a work item.
type Stage string

const (
	StageBacklog Stage = "backlog"
	StageActive  Stage = "active"
	StageDone    Stage = "done"
	StageRoutine Stage = "routine"
)

// ParseStage parses a stage name, case-insensitively.
func ParseStage(s string) (Stage, error) {
	switch Stage(strings.ToLower(strings.TrimSpace(s))) {
	case StageBacklog:
		return StageBacklog, nil
	case StageActive:
		return StageActive, nil
	case StageDone:
		return StageDone, nil
	case StageRoutine:
		return StageRoutine, nil
	default:
		return "", ErrInvalidStage
	}
}

// Kind tells a task from a subtask.
type Kind string

const (
	KindTask    Kind = "task"
	KindSubtask Kind = "subtask"
)

// WorkItem is a task or a subtask.
type WorkItem struct {
	ID        string
	ProjectID string
	ParentID  string // set for subtasks
	Name      string
	Effort    effort.Estimate
	Stage     Stage

	// DueDate is a calendar date only. It never places the item on the grid.
	DueDate *time.Time

	// ScheduledStart places the item on the grid. ScheduledEnd is derived from
	// the effort when scheduling and persisted for convenience.
	ScheduledStart *time.Time
	ScheduledEnd   *time.Time

	Subtasks  []*WorkItem
	CreatedAt time.Time
}

// New creates a WorkItem with validation.
func New(projectID, parentID, name string, e effort.Estimate, stage Stage) (*WorkItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if _, err := ParseStage(string(stage)); err != nil {
		return nil, err
	}
	if !e.Valid() {
		e = effort.Estimate(effort.MinHours)
	}
	return &WorkItem{
		ProjectID: projectID,
		ParentID:  parentID,
		Name:      name,
		Effort:    e,
		Stage:     stage,
		CreatedAt: time.Now(),
	}, nil
}

// Kind returns KindSubtask when the item has a parent task.
func (w *WorkItem) Kind() Kind {
	if w.ParentID != "" {
		return KindSubtask
	}
	return KindTask
}

// IsRoutine returns true if the item is a routine template.
func (w *WorkItem) IsRoutine() bool {
	return w.Stage == StageRoutine
}

// IsScheduled returns true if the item has been placed on the grid.
func (w *WorkItem) IsScheduled() bool {
	return w.ScheduledStart != nil
}

// End returns the persisted end, or the effort-derived end when none was stored.
func (w *WorkItem) End() time.Time {
	if w.ScheduledStart == nil {
		return time.Time{}
	}
	if w.ScheduledEnd != nil && w.ScheduledEnd.After(*w.ScheduledStart) {
		return *w.ScheduledEnd
	}
	return effort.End(*w.ScheduledStart, w.Effort)
}

// clone returns a deep copy of the item and its subtasks.
func (w *WorkItem) clone() *WorkItem {
	c := *w
	c.DueDate = cloneTime(w.DueDate)
	c.ScheduledStart = cloneTime(w.ScheduledStart)
	c.ScheduledEnd = cloneTime(w.ScheduledEnd)
	if w.Subtasks != nil {
		c.Subtasks = make([]*WorkItem, len(w.Subtasks))
		for i, s := range w.Subtasks {
			c.Subtasks[i] = s.clone()
		}
	}
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// Project groups tasks under a name and a display color.
type Project struct {
	ID        string
	Name      string
	Color     string // hex, e.g. "#89b4fa"
	Tasks     []*WorkItem
	CreatedAt time.Time
}

// NewProject creates a Project with validation.
func NewProject(name, color string) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	return &Project{Name: name, Color: color, CreatedAt: time.Now()}, nil
}

func (p *Project) clone() *Project {
	c := *p
	c.Tasks = make([]*WorkItem, len(p.Tasks))
	for i, t := range p.Tasks {
		c.Tasks[i] = t.clone()
	}
	return &c
}
