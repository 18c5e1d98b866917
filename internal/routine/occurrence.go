// Package routine manages occurrences of routine templates. An occurrence is
// an independent, separately movable copy of a template placed on the grid.
package routine

import (
	"context"
	"errors"
	"time"

	"github.com/javiermolinar/weekgrid/internal/effort"
	"github.com/javiermolinar/weekgrid/internal/task"
)

// Errors.
var (
	ErrOccurrenceNotFound = errors.New("routine occurrence not found")
	ErrNotTemplate        = errors.New("item is not a routine template")
)

// DefaultRetention is how long occurrences are kept after their start.
const DefaultRetention = 14 * 24 * time.Hour

// Kind tells which kind of template an occurrence was created from.
type Kind string

const (
	KindTaskOccurrence    Kind = "task-occurrence"
	KindSubtaskOccurrence Kind = "subtask-occurrence"
)

// Occurrence is one scheduled instance of a routine template.
// Name and Effort are copies, so an occurrence edited on its own keeps its
// values until the template is edited again.
type Occurrence struct {
	ID         string          `json:"id"`
	OriginalID string          `json:"originalId"`
	ProjectID  string          `json:"projectId"`
	TaskID     string          `json:"taskId"`
	SubtaskID  string          `json:"subtaskId,omitempty"`
	Name       string          `json:"name"`
	Start      time.Time       `json:"startInstant"`
	End        time.Time       `json:"endInstant"`
	Kind       Kind            `json:"kind"`
	Effort     effort.Estimate `json:"effort"`
	Color      string          `json:"color,omitempty"`
}

// Duration returns the occurrence span.
func (o Occurrence) Duration() time.Duration {
	return o.End.Sub(o.Start)
}

// Store persists the flat occurrence list.
type Store interface {
	// LoadOccurrences reads every stored occurrence.
	LoadOccurrences(ctx context.Context) ([]Occurrence, error)

	// SaveOccurrences replaces the stored list with occs.
	SaveOccurrences(ctx context.Context, occs []Occurrence) error
}

// TemplateRemover deletes a template from the work hierarchy.
type TemplateRemover interface {
	Remove(id string) error
}

// newOccurrence copies name, effort and ownership from a template.
func newOccurrence(id string, tmpl *task.WorkItem, color string, start time.Time) Occurrence {
	o := Occurrence{
		ID:         id,
		OriginalID: tmpl.ID,
		ProjectID:  tmpl.ProjectID,
		Name:       tmpl.Name,
		Start:      start,
		End:        effort.End(start, tmpl.Effort),
		Effort:     tmpl.Effort,
		Color:      color,
		Kind:       KindTaskOccurrence,
		TaskID:     tmpl.ID,
	}
	if tmpl.Kind() == task.KindSubtask {
		o.Kind = KindSubtaskOccurrence
		o.TaskID = tmpl.ParentID
		o.SubtaskID = tmpl.ID
	}
	return o
}
