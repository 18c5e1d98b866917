package task

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javiermolinar/weekgrid/internal/effort"
)

// testBoard builds one project with a task, a subtask and a routine template.
func testBoard() *Board {
	sub := &WorkItem{ID: "s1", ProjectID: "p1", ParentID: "t1", Name: "Draft outline", Effort: 2, Stage: StageActive}
	return NewBoard([]*Project{{
		ID:    "p1",
		Name:  "Thesis",
		Color: "#89b4fa",
		Tasks: []*WorkItem{
			{ID: "t1", ProjectID: "p1", Name: "Chapter 1", Effort: 3, Stage: StageActive, Subtasks: []*WorkItem{sub}},
			{ID: "r1", ProjectID: "p1", Name: "Daily review", Effort: 1, Stage: StageRoutine},
			{ID: "d1", ProjectID: "p1", Name: "Old", Effort: 1, Stage: StageDone},
		},
	}})
}

func TestBoard_Resolve(t *testing.T) {
	b := testBoard()

	t.Run("task", func(t *testing.T) {
		w, err := b.Resolve("p1", "t1", "")
		require.NoError(t, err)
		assert.Equal(t, "Chapter 1", w.Name)
	})

	t.Run("subtask", func(t *testing.T) {
		w, err := b.Resolve("p1", "t1", "s1")
		require.NoError(t, err)
		assert.Equal(t, KindSubtask, w.Kind())
	})

	t.Run("wrong project", func(t *testing.T) {
		_, err := b.Resolve("p2", "t1", "")
		assert.True(t, errors.Is(err, ErrItemNotFound))
	})

	t.Run("subtask under wrong parent", func(t *testing.T) {
		_, err := b.Resolve("p1", "r1", "s1")
		assert.ErrorIs(t, err, ErrItemNotFound)
	})
}

func TestBoard_SetAndClearSchedule(t *testing.T) {
	b := testBoard()
	start := time.Date(2025, 3, 4, 14, 0, 0, 0, time.Local)
	end := start.Add(2 * time.Hour)

	v := b.Version()
	require.NoError(t, b.SetSchedule("s1", start, end))
	assert.Greater(t, b.Version(), v)

	w, _ := b.Item("s1")
	require.True(t, w.IsScheduled())
	assert.Equal(t, end, w.End())

	require.NoError(t, b.ClearSchedule("s1"))
	assert.False(t, w.IsScheduled())
	assert.True(t, w.End().IsZero())
}

func TestBoard_SetSchedule_Errors(t *testing.T) {
	b := testBoard()
	start := time.Date(2025, 3, 4, 14, 0, 0, 0, time.Local)

	assert.ErrorIs(t, b.SetSchedule("nope", start, start.Add(time.Hour)), ErrItemNotFound)
	assert.ErrorIs(t, b.SetSchedule("r1", start, start.Add(time.Hour)), ErrNotSchedulable)
	assert.ErrorIs(t, b.SetSchedule("t1", start, start), ErrEndBeforeStart)
}

func TestBoard_Lists(t *testing.T) {
	b := testBoard()

	templates := b.Templates()
	require.Len(t, templates, 1)
	assert.Equal(t, "r1", templates[0].ID)

	var ids []string
	for _, w := range b.Unscheduled() {
		ids = append(ids, w.ID)
	}
	assert.Equal(t, []string{"t1", "s1"}, ids)
}

func TestBoard_Edit(t *testing.T) {
	b := testBoard()
	start := time.Date(2025, 3, 4, 9, 0, 0, 0, time.Local)
	require.NoError(t, b.SetSchedule("t1", start, start.Add(3*time.Hour)))

	e := effort.Estimate(1)
	w, err := b.Edit("t1", nil, &e)
	require.NoError(t, err)
	assert.Equal(t, start.Add(time.Hour), w.End())

	empty := ""
	_, err = b.Edit("t1", &empty, nil)
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestBoard_AddAndRemove(t *testing.T) {
	b := testBoard()

	require.NoError(t, b.Add(&WorkItem{ID: "s2", ProjectID: "p1", ParentID: "t1", Name: "Sources", Stage: StageBacklog}))
	_, ok := b.Item("s2")
	assert.True(t, ok)

	assert.ErrorIs(t, b.Add(&WorkItem{ID: "x", ProjectID: "nope", Name: "x"}), ErrProjectNotFound)

	require.NoError(t, b.Remove("t1"))
	_, ok = b.Item("s1")
	assert.False(t, ok, "subtasks go with their task")
	_, ok = b.Item("s2")
	assert.False(t, ok)
}

func TestBoard_Clone(t *testing.T) {
	b := testBoard()
	c := b.Clone()

	start := time.Date(2025, 3, 4, 9, 0, 0, 0, time.Local)
	require.NoError(t, c.SetSchedule("s1", start, start.Add(time.Hour)))

	orig, _ := b.Item("s1")
	assert.False(t, orig.IsScheduled(), "clone must not share items")
}
