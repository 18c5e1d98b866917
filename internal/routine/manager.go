package routine

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/javiermolinar/weekgrid/internal/effort"
	"github.com/javiermolinar/weekgrid/internal/task"
)

// Manager owns the set of live occurrences. It does not validate placements;
// callers run the overlap check before Create and Reposition.
type Manager struct {
	occs      []Occurrence // sorted by Start
	retention time.Duration
	newID     func() string
	version   uint64
}

// Option configures a Manager.
type Option func(*Manager)

// WithRetention sets how long occurrences are kept. Non-positive values keep
// the default.
func WithRetention(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.retention = d
		}
	}
}

// WithIDGenerator replaces the uuid generator. Used by tests.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// NewManager creates a Manager holding occs.
func NewManager(occs []Occurrence, opts ...Option) *Manager {
	m := &Manager{
		occs:      slices.Clone(occs),
		retention: DefaultRetention,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.sort()
	return m
}

// Load reads occurrences from store and drops the ones past retention.
func Load(ctx context.Context, store Store, now time.Time, opts ...Option) (*Manager, error) {
	occs, err := store.LoadOccurrences(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading routine occurrences: %w", err)
	}
	m := NewManager(occs, opts...)
	m.Prune(now)
	return m, nil
}

func (m *Manager) sort() {
	slices.SortStableFunc(m.occs, func(a, b Occurrence) int {
		return a.Start.Compare(b.Start)
	})
}

func (m *Manager) index(id string) int {
	return slices.IndexFunc(m.occs, func(o Occurrence) bool { return o.ID == id })
}

func (m *Manager) touch() {
	m.sort()
	m.version++
}

// Version increases on every mutation.
func (m *Manager) Version() uint64 {
	return m.version
}

// Retention returns the configured retention window.
func (m *Manager) Retention() time.Duration {
	return m.retention
}

// All returns a copy of every live occurrence, ordered by start.
func (m *Manager) All() []Occurrence {
	return slices.Clone(m.occs)
}

// Len returns the number of live occurrences.
func (m *Manager) Len() int {
	return len(m.occs)
}

// Get returns the occurrence with the given ID.
func (m *Manager) Get(id string) (Occurrence, bool) {
	i := m.index(id)
	if i < 0 {
		return Occurrence{}, false
	}
	return m.occs[i], true
}

// Between returns occurrences starting in [from, to).
func (m *Manager) Between(from, to time.Time) []Occurrence {
	var result []Occurrence
	for _, o := range m.occs {
		if !o.Start.Before(from) && o.Start.Before(to) {
			result = append(result, o)
		}
	}
	return result
}

// ForTemplate returns the occurrences created from templateID.
func (m *Manager) ForTemplate(templateID string) []Occurrence {
	var result []Occurrence
	for _, o := range m.occs {
		if o.OriginalID == templateID {
			result = append(result, o)
		}
	}
	return result
}

// Create adds a new occurrence of tmpl starting at start. The end comes from
// the template's effort.
func (m *Manager) Create(tmpl *task.WorkItem, color string, start time.Time) (Occurrence, error) {
	if tmpl == nil || !tmpl.IsRoutine() {
		return Occurrence{}, ErrNotTemplate
	}
	o := newOccurrence(m.newID(), tmpl, color, start)
	m.occs = append(m.occs, o)
	m.touch()
	return o, nil
}

// Reposition moves an occurrence. The end is recomputed from the
// occurrence's own effort, not the template's.
func (m *Manager) Reposition(id string, start time.Time) (Occurrence, error) {
	i := m.index(id)
	if i < 0 {
		return Occurrence{}, fmt.Errorf("%w: %s", ErrOccurrenceNotFound, id)
	}
	m.occs[i].Start = start
	m.occs[i].End = effort.End(start, m.occs[i].Effort)
	o := m.occs[i]
	m.touch()
	return o, nil
}

// Edit changes the name and/or effort of a single occurrence. The occurrence
// diverges from its template until the next template edit.
func (m *Manager) Edit(id string, name *string, e *effort.Estimate) (Occurrence, error) {
	i := m.index(id)
	if i < 0 {
		return Occurrence{}, fmt.Errorf("%w: %s", ErrOccurrenceNotFound, id)
	}
	if name != nil {
		m.occs[i].Name = *name
	}
	if e != nil {
		m.occs[i].Effort = *e
		m.occs[i].End = effort.End(m.occs[i].Start, *e)
	}
	o := m.occs[i]
	m.version++
	return o, nil
}

// Propagate pushes a template edit to every occurrence sharing its id. Each
// occurrence keeps its start; its end is recomputed from that start.
// Returns the number of occurrences updated.
func (m *Manager) Propagate(templateID string, name *string, e *effort.Estimate) int {
	n := 0
	for i := range m.occs {
		if m.occs[i].OriginalID != templateID {
			continue
		}
		if name != nil {
			m.occs[i].Name = *name
		}
		if e != nil {
			m.occs[i].Effort = *e
			m.occs[i].End = effort.End(m.occs[i].Start, *e)
		}
		n++
	}
	if n > 0 {
		m.version++
	}
	return n
}

// Delete removes one occurrence. Siblings and the template are untouched.
func (m *Manager) Delete(id string) error {
	i := m.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrOccurrenceNotFound, id)
	}
	m.occs = slices.Delete(m.occs, i, i+1)
	m.version++
	return nil
}

// DeleteTemplate removes every occurrence of templateID, then the template.
// Returns the number of occurrences removed.
func (m *Manager) DeleteTemplate(templateID string, board TemplateRemover) (int, error) {
	before := len(m.occs)
	m.occs = slices.DeleteFunc(m.occs, func(o Occurrence) bool {
		return o.OriginalID == templateID
	})
	removed := before - len(m.occs)
	if removed > 0 {
		m.version++
	}
	if board != nil {
		if err := board.Remove(templateID); err != nil {
			return removed, fmt.Errorf("removing template: %w", err)
		}
	}
	return removed, nil
}

// Prune drops occurrences whose start is older than the retention window.
// Returns the number removed.
func (m *Manager) Prune(now time.Time) int {
	cutoff := now.Add(-m.retention)
	before := len(m.occs)
	m.occs = slices.DeleteFunc(m.occs, func(o Occurrence) bool {
		return o.Start.Before(cutoff)
	})
	removed := before - len(m.occs)
	if removed > 0 {
		m.version++
	}
	return removed
}

// Save writes the full occurrence list to store.
func (m *Manager) Save(ctx context.Context, store Store) error {
	if err := store.SaveOccurrences(ctx, m.All()); err != nil {
		return fmt.Errorf("saving routine occurrences: %w", err)
	}
	return nil
}
