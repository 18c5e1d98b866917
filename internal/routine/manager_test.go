package routine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javiermolinar/weekgrid/internal/effort"
	"github.com/javiermolinar/weekgrid/internal/task"
)

// monday is a fixed Monday used across tests.
var monday = time.Date(2025, 3, 3, 0, 0, 0, 0, time.Local)

func at(day, hour, minute int) time.Time {
	return monday.AddDate(0, 0, day).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("occ-%d", n)
	}
}

func template() *task.WorkItem {
	return &task.WorkItem{ID: "r1", ProjectID: "p1", Name: "Review inbox", Effort: 1, Stage: task.StageRoutine}
}

func newTestManager() *Manager {
	return NewManager(nil, WithIDGenerator(seqIDs()))
}

type memStore struct {
	occs    []Occurrence
	loadErr error
}

func (s *memStore) LoadOccurrences(context.Context) ([]Occurrence, error) {
	return s.occs, s.loadErr
}

func (s *memStore) SaveOccurrences(_ context.Context, occs []Occurrence) error {
	s.occs = occs
	return nil
}

type removerFunc func(id string) error

func (f removerFunc) Remove(id string) error { return f(id) }

func TestManager_Create(t *testing.T) {
	m := newTestManager()
	tmpl := template()

	o, err := m.Create(tmpl, "#f9e2af", at(0, 9, 0))
	require.NoError(t, err)

	assert.Equal(t, "occ-1", o.ID)
	assert.Equal(t, "r1", o.OriginalID)
	assert.Equal(t, "r1", o.TaskID)
	assert.Equal(t, KindTaskOccurrence, o.Kind)
	assert.Equal(t, "Review inbox", o.Name)
	assert.Equal(t, at(0, 10, 0), o.End)
	assert.Equal(t, 1, m.Len())
}

func TestManager_Create_Subtask(t *testing.T) {
	m := newTestManager()
	tmpl := &task.WorkItem{ID: "s9", ProjectID: "p1", ParentID: "t1", Name: "Stretch", Effort: 2, Stage: task.StageRoutine}

	o, err := m.Create(tmpl, "", at(1, 7, 30))
	require.NoError(t, err)
	assert.Equal(t, KindSubtaskOccurrence, o.Kind)
	assert.Equal(t, "t1", o.TaskID)
	assert.Equal(t, "s9", o.SubtaskID)
	assert.Equal(t, at(1, 9, 30), o.End)
}

func TestManager_Create_RejectsNonTemplate(t *testing.T) {
	m := newTestManager()
	_, err := m.Create(&task.WorkItem{ID: "t1", Stage: task.StageActive}, "", at(0, 9, 0))
	assert.ErrorIs(t, err, ErrNotTemplate)
	_, err = m.Create(nil, "", at(0, 9, 0))
	assert.ErrorIs(t, err, ErrNotTemplate)
}

func TestManager_Reposition_UsesOwnEffort(t *testing.T) {
	m := newTestManager()
	tmpl := template()
	o, _ := m.Create(tmpl, "", at(0, 9, 0))

	three := effort.Estimate(3)
	_, err := m.Edit(o.ID, nil, &three)
	require.NoError(t, err)

	// Template effort stays 1; the occurrence diverged to 3.
	moved, err := m.Reposition(o.ID, at(2, 13, 30))
	require.NoError(t, err)
	assert.Equal(t, at(2, 13, 30), moved.Start)
	assert.Equal(t, at(2, 16, 30), moved.End)

	_, err = m.Reposition("missing", at(2, 13, 0))
	assert.ErrorIs(t, err, ErrOccurrenceNotFound)
}

func TestManager_Propagate(t *testing.T) {
	m := newTestManager()
	tmpl := template()
	mon, _ := m.Create(tmpl, "", at(0, 9, 0))
	wed, _ := m.Create(tmpl, "", at(2, 18, 30))
	other, _ := m.Create(&task.WorkItem{ID: "r2", ProjectID: "p1", Name: "Walk", Effort: 1, Stage: task.StageRoutine}, "", at(1, 12, 0))

	name := "Inbox zero"
	two := effort.Estimate(2)
	n := m.Propagate("r1", &name, &two)
	assert.Equal(t, 2, n)

	got, _ := m.Get(mon.ID)
	assert.Equal(t, "Inbox zero", got.Name)
	assert.Equal(t, at(0, 9, 0), got.Start, "start is never altered")
	assert.Equal(t, at(0, 11, 0), got.End)

	got, _ = m.Get(wed.ID)
	assert.Equal(t, at(2, 18, 30), got.Start)
	assert.Equal(t, at(2, 20, 30), got.End)

	got, _ = m.Get(other.ID)
	assert.Equal(t, "Walk", got.Name)
	assert.Equal(t, at(1, 13, 0), got.End)
}

func TestManager_Propagate_NameOnly(t *testing.T) {
	m := newTestManager()
	o, _ := m.Create(template(), "", at(0, 9, 0))

	name := "Renamed"
	assert.Equal(t, 1, m.Propagate("r1", &name, nil))
	got, _ := m.Get(o.ID)
	assert.Equal(t, at(0, 10, 0), got.End)
	assert.Equal(t, 0, m.Propagate("gone", &name, nil))
}

func TestManager_Propagate_OverridesDivergedOccurrence(t *testing.T) {
	m := newTestManager()
	o, _ := m.Create(template(), "", at(0, 9, 0))

	own := "Custom"
	_, err := m.Edit(o.ID, &own, nil)
	require.NoError(t, err)

	tmplName := "From template"
	m.Propagate("r1", &tmplName, nil)
	got, _ := m.Get(o.ID)
	assert.Equal(t, "From template", got.Name)
}

func TestManager_Delete_Independent(t *testing.T) {
	m := newTestManager()
	tmpl := template()
	mon, _ := m.Create(tmpl, "", at(0, 9, 0))
	wed, _ := m.Create(tmpl, "", at(2, 9, 0))

	require.NoError(t, m.Delete(mon.ID))

	_, ok := m.Get(mon.ID)
	assert.False(t, ok)
	got, ok := m.Get(wed.ID)
	require.True(t, ok)
	assert.Equal(t, wed, got)
	assert.Equal(t, "Review inbox", tmpl.Name)
	assert.Equal(t, effort.Estimate(1), tmpl.Effort)

	assert.ErrorIs(t, m.Delete(mon.ID), ErrOccurrenceNotFound)
}

func TestManager_DeleteTemplate_Cascades(t *testing.T) {
	m := newTestManager()
	tmpl := template()
	_, _ = m.Create(tmpl, "", at(0, 9, 0))
	_, _ = m.Create(tmpl, "", at(2, 9, 0))
	keep, _ := m.Create(&task.WorkItem{ID: "r2", Name: "Walk", Effort: 1, Stage: task.StageRoutine}, "", at(1, 9, 0))

	var removedID string
	n, err := m.DeleteTemplate("r1", removerFunc(func(id string) error {
		removedID = id
		return nil
	}))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "r1", removedID)
	assert.Empty(t, m.ForTemplate("r1"))
	_, ok := m.Get(keep.ID)
	assert.True(t, ok)
}

func TestManager_DeleteTemplate_RemoverError(t *testing.T) {
	m := newTestManager()
	_, _ = m.Create(template(), "", at(0, 9, 0))

	boom := errors.New("boom")
	n, err := m.DeleteTemplate("r1", removerFunc(func(string) error { return boom }))
	assert.Equal(t, 1, n)
	assert.ErrorIs(t, err, boom)
}

func TestManager_Prune(t *testing.T) {
	now := at(20, 12, 0)
	m := NewManager([]Occurrence{
		{ID: "old", OriginalID: "r1", Start: now.Add(-15 * 24 * time.Hour)},
		{ID: "edge", OriginalID: "r1", Start: now.Add(-14 * 24 * time.Hour)},
		{ID: "recent", OriginalID: "r1", Start: now.Add(-24 * time.Hour)},
		{ID: "future", OriginalID: "r1", Start: now.Add(24 * time.Hour)},
	})

	assert.Equal(t, 1, m.Prune(now))
	var ids []string
	for _, o := range m.All() {
		ids = append(ids, o.ID)
	}
	assert.Equal(t, []string{"edge", "recent", "future"}, ids)
}

func TestManager_Prune_CustomRetention(t *testing.T) {
	now := at(20, 12, 0)
	m := NewManager([]Occurrence{
		{ID: "a", Start: now.Add(-3 * 24 * time.Hour)},
		{ID: "b", Start: now.Add(-time.Hour)},
	}, WithRetention(48*time.Hour))

	assert.Equal(t, 48*time.Hour, m.Retention())
	assert.Equal(t, 1, m.Prune(now))
}

func TestManager_Between(t *testing.T) {
	m := newTestManager()
	tmpl := template()
	_, _ = m.Create(tmpl, "", at(0, 9, 0))
	_, _ = m.Create(tmpl, "", at(7, 9, 0))

	assert.Len(t, m.Between(monday, monday.AddDate(0, 0, 7)), 1)
	assert.Len(t, m.Between(monday, monday.AddDate(0, 0, 14)), 2)
}

func TestManager_VersionTracksMutations(t *testing.T) {
	m := newTestManager()
	v := m.Version()

	o, _ := m.Create(template(), "", at(0, 9, 0))
	assert.Greater(t, m.Version(), v)

	v = m.Version()
	_ = m.All()
	_, _ = m.Get(o.ID)
	assert.Equal(t, v, m.Version(), "reads do not bump the version")
}

func TestLoad_PrunesAtLoad(t *testing.T) {
	now := at(20, 12, 0)
	store := &memStore{occs: []Occurrence{
		{ID: "stale", Start: now.AddDate(0, 0, -30)},
		{ID: "live", Start: now.AddDate(0, 0, -1)},
	}}

	m, err := Load(context.Background(), store, now)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())

	require.NoError(t, m.Save(context.Background(), store))
	require.Len(t, store.occs, 1)
	assert.Equal(t, "live", store.occs[0].ID)
}

func TestLoad_Error(t *testing.T) {
	_, err := Load(context.Background(), &memStore{loadErr: errors.New("disk")}, monday)
	assert.Error(t, err)
}
