// Package dragdrop sequences drag gestures over the weekly grid: pick-up,
// hover, drop and cancel. It works on abstract events so any surface (mouse,
// keyboard or command line) can drive it.
package dragdrop

import (
	"errors"
	"fmt"
	"strings"

	"github.com/javiermolinar/weekgrid/internal/task"
)

// ErrMalformedPayload is returned when a drag tag cannot be decoded.
var ErrMalformedPayload = errors.New("malformed drag payload")

// PayloadKind is the leading tag of an encoded payload.
type PayloadKind string

const (
	PayloadTask       PayloadKind = "task"
	PayloadSubtask    PayloadKind = "subtask"
	PayloadOccurrence PayloadKind = "routine-instance"
)

// Payload identifies what is being dragged. It never carries a duration;
// the span is recomputed from the current effort at drop time.
type Payload struct {
	Kind         PayloadKind
	ProjectID    string
	TaskID       string
	SubtaskID    string
	OccurrenceID string

	// Moving is set when the dragged unit is already on the grid.
	Moving bool
}

// Encode returns the colon-delimited tag, without the Moving flag.
func (p Payload) Encode() string {
	switch p.Kind {
	case PayloadTask:
		return strings.Join([]string{string(p.Kind), p.ProjectID, p.TaskID}, ":")
	case PayloadSubtask:
		return strings.Join([]string{string(p.Kind), p.ProjectID, p.TaskID, p.SubtaskID}, ":")
	case PayloadOccurrence:
		return string(p.Kind) + ":" + p.OccurrenceID
	default:
		return ""
	}
}

// String returns the tag with a "+moving" suffix when relevant.
func (p Payload) String() string {
	if p.Moving {
		return p.Encode() + "+moving"
	}
	return p.Encode()
}

// ParsePayload decodes a tag produced by Encode. Occurrences are always
// already placed, so their payload is marked as moving.
func ParsePayload(tag string, moving bool) (Payload, error) {
	parts := strings.Split(strings.TrimSpace(tag), ":")
	for _, part := range parts {
		if part == "" {
			return Payload{}, fmt.Errorf("%w: %q", ErrMalformedPayload, tag)
		}
	}
	p := Payload{Kind: PayloadKind(parts[0]), Moving: moving}
	switch {
	case p.Kind == PayloadTask && len(parts) == 3:
		p.ProjectID, p.TaskID = parts[1], parts[2]
	case p.Kind == PayloadSubtask && len(parts) == 4:
		p.ProjectID, p.TaskID, p.SubtaskID = parts[1], parts[2], parts[3]
	case p.Kind == PayloadOccurrence && len(parts) == 2:
		p.OccurrenceID = parts[1]
		p.Moving = true
	default:
		return Payload{}, fmt.Errorf("%w: %q", ErrMalformedPayload, tag)
	}
	return p, nil
}

// ItemPayload builds the payload for a work item or routine template.
func ItemPayload(w *task.WorkItem, moving bool) Payload {
	if w.Kind() == task.KindSubtask {
		return Payload{Kind: PayloadSubtask, ProjectID: w.ProjectID, TaskID: w.ParentID, SubtaskID: w.ID, Moving: moving}
	}
	return Payload{Kind: PayloadTask, ProjectID: w.ProjectID, TaskID: w.ID, Moving: moving}
}

// OccurrencePayload builds the payload for a placed routine occurrence.
func OccurrencePayload(id string) Payload {
	return Payload{Kind: PayloadOccurrence, OccurrenceID: id, Moving: true}
}

// ID returns the id of the dragged unit: subtask, task or occurrence.
func (p Payload) ID() string {
	switch p.Kind {
	case PayloadSubtask:
		return p.SubtaskID
	case PayloadOccurrence:
		return p.OccurrenceID
	default:
		return p.TaskID
	}
}
