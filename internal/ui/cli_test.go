package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/javiermolinar/weekgrid/internal/config"
	"github.com/javiermolinar/weekgrid/internal/dateutil"
	"github.com/javiermolinar/weekgrid/internal/db"
	"github.com/javiermolinar/weekgrid/internal/task"
)

// Wednesday 5 March 2025, noon.
var testNow = time.Date(2025, 3, 5, 12, 0, 0, 0, time.Local)

func newTestStore(t *testing.T) *db.SQLite {
	t.Helper()
	DisableColor()
	store, err := db.NewMemory()
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// run executes one command on a fresh App sharing store, the way separate
// invocations share the database file.
func run(t *testing.T, store *db.SQLite, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := NewApp(config.Default(),
		WithStore(store),
		WithOutput(&out),
		WithClock(func() time.Time { return testNow }),
	)
	app.SetArgs(args)
	err := app.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, store *db.SQLite, args ...string) string {
	t.Helper()
	out, err := run(t, store, args...)
	if err != nil {
		t.Fatalf("%s: %v", strings.Join(args, " "), err)
	}
	return out
}

func itemID(t *testing.T, store *db.SQLite, name string) string {
	t.Helper()
	board, err := store.LoadBoard(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var id string
	board.Walk(func(_ *task.Project, w *task.WorkItem) {
		if w.Name == name {
			id = w.ID
		}
	})
	if id == "" {
		t.Fatalf("no item named %q", name)
	}
	return id
}

func seed(t *testing.T, store *db.SQLite) {
	t.Helper()
	mustRun(t, store, "project", "add", "Website")
	mustRun(t, store, "task", "add", "Launch", "--project", "website", "--effort", "2")
	mustRun(t, store, "task", "add", "Inbox zero", "--project", "Website", "--stage", "routine")
}

func TestProjectAndTaskCommands(t *testing.T) {
	store := newTestStore(t)

	out := mustRun(t, store, "project", "add", "Website")
	if !strings.Contains(out, "Created project Website") {
		t.Errorf("project add output = %q", out)
	}
	out = mustRun(t, store, "task", "add", "Launch", "-p", "Website", "-e", "2")
	if !strings.Contains(out, `Created task "Launch" (2h)`) {
		t.Errorf("task add output = %q", out)
	}
	launch := itemID(t, store, "Launch")
	out = mustRun(t, store, "task", "add", "Proofread", "--parent", shortID(launch))
	if !strings.Contains(out, `Created subtask "Proofread" (1h)`) {
		t.Errorf("subtask add output = %q", out)
	}

	out = mustRun(t, store, "task", "list")
	for _, want := range []string{"Website", "• Launch 2h  active", "› • Proofread 1h"} {
		if !strings.Contains(out, want) {
			t.Errorf("task list missing %q:\n%s", want, out)
		}
	}

	out = mustRun(t, store, "project", "list")
	if !strings.Contains(out, "Website") || !strings.Contains(out, "#89b4fa") || !strings.Contains(out, "1 tasks") {
		t.Errorf("project list output = %q", out)
	}

	if _, err := run(t, store, "task", "add", "Orphan"); err == nil {
		t.Error("task add without a project should fail")
	}
	if _, err := run(t, store, "task", "add", "Lost", "--project", "Nope"); !errors.Is(err, task.ErrProjectNotFound) {
		t.Errorf("unknown project error = %v", err)
	}
}

func TestPlaceMoveUnschedule(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)
	launch := itemID(t, store, "Launch")

	out := mustRun(t, store, "place", launch[:6], "tue", "14:00")
	if !strings.Contains(out, `Scheduled "Launch" on Tue 04 Mar 14:00–16:00`) {
		t.Errorf("place output = %q", out)
	}

	out = mustRun(t, store, "week", "--plain")
	if !strings.Contains(out, "Tue 04 Mar\n  14:00–16:00  Launch  [Website]\n") {
		t.Errorf("agenda = %q", out)
	}

	if _, err := run(t, store, "place", launch, "wed", "09:00"); !errors.Is(err, ErrAlreadyPlaced) {
		t.Errorf("placing twice error = %v", err)
	}

	out = mustRun(t, store, "move", launch, "wednesday", "10:30")
	if !strings.Contains(out, `Scheduled "Launch" on Wed 05 Mar 10:30–12:30`) {
		t.Errorf("move output = %q", out)
	}

	out = mustRun(t, store, "unschedule", launch)
	if out != "Unscheduled \"Launch\"\n" {
		t.Errorf("unschedule output = %q", out)
	}
	if _, err := run(t, store, "unschedule", launch); !errors.Is(err, ErrNotPlaced) {
		t.Errorf("unscheduling twice error = %v", err)
	}
	if _, err := run(t, store, "move", launch, "mon", "09:00"); !errors.Is(err, ErrNotPlaced) {
		t.Errorf("moving an unscheduled task error = %v", err)
	}
}

func TestPlaceRejectsConflict(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)
	launch := itemID(t, store, "Launch")
	inbox := itemID(t, store, "Inbox zero")

	mustRun(t, store, "place", launch, "tue", "14:00")
	_, err := run(t, store, "place", inbox, "tue", "15:00")
	if err == nil || !strings.Contains(err.Error(), `overlaps "Launch"`) {
		t.Fatalf("conflicting place error = %v", err)
	}

	out := mustRun(t, store, "routine", "list")
	if !strings.Contains(out, "0 scheduled") {
		t.Errorf("rejected drop must not create an occurrence:\n%s", out)
	}

	// Back to back is fine.
	mustRun(t, store, "place", inbox, "tue", "16:00")
}

func TestPlaceInAnotherWeek(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)
	launch := itemID(t, store, "Launch")

	out := mustRun(t, store, "place", launch, "fri", "09:00", "--date", "next-week")
	if !strings.Contains(out, "Fri 14 Mar") {
		t.Errorf("place output = %q", out)
	}
	if out := mustRun(t, store, "week", "--plain"); !strings.Contains(out, "(nothing scheduled)") {
		t.Errorf("current week should be empty: %q", out)
	}
	if out := mustRun(t, store, "week", "--plain", "--date", "2025-03-12"); !strings.Contains(out, "Fri 14 Mar") {
		t.Errorf("next week agenda = %q", out)
	}
}

func TestRoutineCommands(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)
	inbox := itemID(t, store, "Inbox zero")

	mustRun(t, store, "place", inbox, "mon", "09:00")
	mustRun(t, store, "place", inbox, "tue", "09:00")

	out := mustRun(t, store, "routine", "list")
	if !strings.Contains(out, "Inbox zero") || !strings.Contains(out, "2 scheduled") {
		t.Errorf("routine list = %q", out)
	}

	out = mustRun(t, store, "routine", "edit", inbox, "--effort", "2")
	if !strings.Contains(out, "2 occurrences updated") {
		t.Errorf("routine edit output = %q", out)
	}
	out = mustRun(t, store, "week", "--plain")
	if strings.Count(out, "09:00–11:00  Inbox zero  [Website]  (routine)") != 2 {
		t.Errorf("template edit should reach every occurrence:\n%s", out)
	}

	out = mustRun(t, store, "routine", "delete", inbox)
	if !strings.Contains(out, `Deleted routine "Inbox zero"`) || !strings.Contains(out, "2 occurrences removed") {
		t.Errorf("routine delete output = %q", out)
	}
	if out := mustRun(t, store, "week", "--plain"); !strings.Contains(out, "(nothing scheduled)") {
		t.Errorf("occurrences should be gone: %q", out)
	}
}

func TestEditSingleOccurrence(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)
	inbox := itemID(t, store, "Inbox zero")
	mustRun(t, store, "place", inbox, "mon", "09:00")

	occs, err := store.LoadOccurrences(context.Background())
	if err != nil || len(occs) != 1 {
		t.Fatalf("occurrences = %v, %v", occs, err)
	}
	out := mustRun(t, store, "routine", "edit", occs[0].ID, "--name", "Inbox (short)")
	if !strings.Contains(out, `Updated occurrence "Inbox (short)" on Mon 03 Mar 09:00`) {
		t.Errorf("occurrence edit output = %q", out)
	}
	if out := mustRun(t, store, "routine", "list"); !strings.Contains(out, "(edited)") {
		t.Errorf("diverged occurrence should be marked:\n%s", out)
	}

	if _, err := run(t, store, "routine", "edit", inbox); err == nil {
		t.Error("edit without flags should fail")
	}
}

func TestRoutinePrune(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)
	out := mustRun(t, store, "routine", "prune")
	if out != "Pruned 0 occurrences older than 14 days\n" {
		t.Errorf("prune output = %q", out)
	}
}

func TestWeekTable(t *testing.T) {
	store := newTestStore(t)
	seed(t, store)
	mustRun(t, store, "place", itemID(t, store, "Launch"), "thu", "08:00")

	out := mustRun(t, store, "week")
	for _, want := range []string{"WEEK: Mon 03 Mar – Sun 09 Mar 2025", "Thu 06 Mar", "08:00–10:00", "Launch", "1 blocks, 2h scheduled"} {
		if !strings.Contains(out, want) {
			t.Errorf("week output missing %q:\n%s", want, out)
		}
	}
}

func TestVersion(t *testing.T) {
	store := newTestStore(t)
	out := mustRun(t, store, "version")
	if out != "weekgrid dev (commit: none)\n" {
		t.Errorf("version output = %q", out)
	}
}

func TestParseSlot(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr error
	}{
		{in: "05:00", want: "05:00"},
		{in: "14:30", want: "14:30"},
		{in: "23:30", want: "23:30"},
		{in: "14:15", wantErr: ErrNotHalfHour},
		{in: "04:30", wantErr: ErrOutsideWindow},
		{in: "24:00", wantErr: ErrOutsideWindow},
		{in: "noon", wantErr: dateutil.ErrInvalidClock},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseSlot(tc.in)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("parseSlot(%q) error = %v, want %v", tc.in, err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseSlot(%q): %v", tc.in, err)
			}
			if got.String() != tc.want {
				t.Errorf("parseSlot(%q) = %s, want %s", tc.in, got, tc.want)
			}
		})
	}
}

func TestFormatHours(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0h"},
		{2 * time.Hour, "2h"},
		{90 * time.Minute, "1h30m"},
	}
	for _, tc := range tests {
		if got := formatHours(tc.d); got != tc.want {
			t.Errorf("formatHours(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}
