// Package tui provides the terminal user interface for weekgrid: a side list
// of unscheduled work and routine templates next to a seven-day grid, with
// mouse and keyboard drag and drop between them.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/javiermolinar/weekgrid/internal/config"
	"github.com/javiermolinar/weekgrid/internal/dateutil"
	"github.com/javiermolinar/weekgrid/internal/dragdrop"
	"github.com/javiermolinar/weekgrid/internal/effort"
	"github.com/javiermolinar/weekgrid/internal/slot"
	"github.com/javiermolinar/weekgrid/internal/task"
	"github.com/javiermolinar/weekgrid/internal/tui/commands"
	"github.com/javiermolinar/weekgrid/internal/tui/theme"
	"github.com/javiermolinar/weekgrid/internal/workspace"
)

type focus int

const (
	focusList focus = iota
	focusGrid
)

// gridCursor is the keyboard position on the grid.
type gridCursor struct {
	Day   int // 0=Monday
	Index int // half-hour slot from 05:00
}

func (g gridCursor) Slot() slot.Slot {
	return slot.FromIndex(g.Index)
}

// sideEntry is one draggable row of the side list.
type sideEntry struct {
	Payload dragdrop.Payload
	Name    string
	Project string
	Color   string
	Effort  effort.Estimate
	Routine bool
	Subtask bool
}

// Model is the main TUI model.
type Model struct {
	// Dependencies
	ws     *workspace.Workspace
	cfg    *config.Config
	log    zerolog.Logger
	writer *commands.Writer
	now    func() time.Time

	styles *Styles
	help   help.Model

	layout     Layout
	weekStart  time.Time
	focus      focus
	listCursor int
	listOffset int
	grid       gridCursor
	keyDrag    bool // gesture started from the keyboard

	status     string
	statusErr  bool
	statusTime time.Time
}

// ModelOption configures optional model behavior.
type ModelOption func(*Model)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) ModelOption {
	return func(m *Model) {
		m.log = l
	}
}

// WithWriter queues persistence on a background writer. Without one, writes
// happen inline.
func WithWriter(w *commands.Writer) ModelOption {
	return func(m *Model) {
		m.writer = w
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ModelOption {
	return func(m *Model) {
		m.now = now
	}
}

// New creates a new TUI model.
func New(ws *workspace.Workspace, cfg *config.Config, opts ...ModelOption) Model {
	t, err := theme.Load(cfg.UI.Theme)
	if err != nil {
		t, _ = theme.Load("mocha")
	}

	m := Model{
		ws:     ws,
		cfg:    cfg,
		log:    zerolog.Nop(),
		now:    time.Now,
		styles: NewStyles(t),
		help:   help.New(),
		layout: NewLayout(0, 0),
	}
	for _, opt := range opts {
		opt(&m)
	}

	now := m.now()
	m.weekStart = dateutil.WeekStart(now)
	ws.Week(m.weekStart)
	m.grid = gridCursor{Day: max(0, dateutil.DayIndex(m.weekStart, now))}
	if s, ok := slot.FromTime(now); ok && s.Open() {
		m.grid.Index = s.Index()
	}
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	if m.writer == nil {
		return nil
	}
	return m.writer.Wait()
}

// Run starts the TUI and blocks until it exits. Pending writes are flushed
// before it returns.
func Run(ctx context.Context, ws *workspace.Workspace, cfg *config.Config, log zerolog.Logger) error {
	writer := commands.NewWriter(ctx, log)
	defer writer.Close()

	model := New(ws, cfg, WithLogger(log), WithWriter(writer))
	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if cfg.UI.Mouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	_, err := tea.NewProgram(model, opts...).Run()
	return err
}

// entries lists routine templates first, then unscheduled tasks and subtasks.
func (m Model) entries() []sideEntry {
	board := m.ws.Board
	var result []sideEntry
	add := func(w *task.WorkItem) {
		e := sideEntry{
			Payload: dragdrop.ItemPayload(w, false),
			Name:    w.Name,
			Effort:  w.Effort,
			Routine: w.IsRoutine(),
			Subtask: w.Kind() == task.KindSubtask,
		}
		if p, ok := board.Project(w.ProjectID); ok {
			e.Project = p.Name
			e.Color = p.Color
		}
		result = append(result, e)
	}
	for _, w := range board.Templates() {
		add(w)
	}
	for _, w := range board.Unscheduled() {
		add(w)
	}
	return result
}

const (
	statusTTL      = 3 * time.Second
	errorStatusTTL = 5 * time.Second
)

// setStatus shows msg in the footer and schedules its removal.
func (m *Model) setStatus(msg string, isErr bool) tea.Cmd {
	ttl := statusTTL
	if isErr {
		ttl = errorStatusTTL
	}
	m.status = msg
	m.statusErr = isErr
	m.statusTime = m.now().Add(ttl)
	return tea.Tick(ttl, func(time.Time) tea.Msg {
		return commands.ClearStatusMsg{}
	})
}
