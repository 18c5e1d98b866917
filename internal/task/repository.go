package task

import (
	"context"
	"time"

	"github.com/javiermolinar/weekgrid/internal/effort"
)

// Repository defines the storage interface for the work hierarchy.
type Repository interface {
	// CreateProject adds a new project and assigns its ID.
	CreateProject(ctx context.Context, p *Project) error

	// CreateItem adds a task or subtask and assigns its ID.
	CreateItem(ctx context.Context, w *WorkItem) error

	// LoadBoard reads the whole hierarchy.
	LoadBoard(ctx context.Context) (*Board, error)

	// SetSchedule stores the scheduled span of an item.
	SetSchedule(ctx context.Context, id string, start, end time.Time) error

	// ClearSchedule removes the scheduled span of an item.
	ClearSchedule(ctx context.Context, id string) error

	// UpdateItem updates name and effort in place.
	UpdateItem(ctx context.Context, id, name string, e effort.Estimate) error

	// DeleteItem removes an item and its subtasks.
	DeleteItem(ctx context.Context, id string) error

	// Close releases any resources held by the repository.
	Close() error
}
