package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/javiermolinar/weekgrid/internal/dateutil"
	"github.com/javiermolinar/weekgrid/internal/dragdrop"
	"github.com/javiermolinar/weekgrid/internal/schedule"
	"github.com/javiermolinar/weekgrid/internal/slot"
	"github.com/javiermolinar/weekgrid/internal/tui/commands"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = NewLayout(msg.Width, msg.Height)
		m.help.Width = msg.Width
		m.clampList()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.MouseMsg:
		return m.handleMouseMsg(msg)

	case commands.PersistedMsg:
		var cmd tea.Cmd
		if msg.Err != nil {
			m.log.Error().Err(msg.Err).Str("event", "persist_failed").Str("write", msg.Label).Msg("write failed")
			cmd = m.setStatus("Error: "+msg.Err.Error(), true)
		}
		return m, tea.Batch(cmd, m.wait())

	case commands.ErrMsg:
		m.log.Error().Err(msg.Err).Msg("tui error")
		return m, m.setStatus("Error: "+msg.Err.Error(), true)

	case commands.StatusMsgCmd:
		return m, m.setStatus(msg.Msg, false)

	case commands.ClearStatusMsg:
		if !m.now().Before(m.statusTime) {
			m.status = ""
			m.statusErr = false
		}
		return m, nil
	}
	return m, nil
}

func (m Model) wait() tea.Cmd {
	if m.writer == nil {
		return nil
	}
	return m.writer.Wait()
}

// handleKeyMsg handles keyboard input.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		if m.ws.Coordinator.Active() {
			m.ws.Coordinator.Cancel()
		}
		return m, tea.Quit
	}
	if m.ws.Coordinator.Active() {
		return m.handleDragKeys(msg)
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, keys.Focus):
		if m.focus == focusList {
			m.focus = focusGrid
		} else {
			m.focus = focusList
		}
	case key.Matches(msg, keys.Up):
		if m.focus == focusList {
			m.listCursor--
			m.clampList()
		} else {
			m.grid.Index = max(0, m.grid.Index-1)
		}
	case key.Matches(msg, keys.Down):
		if m.focus == focusList {
			m.listCursor++
			m.clampList()
		} else {
			m.grid.Index = min(slot.SlotsPerDay-1, m.grid.Index+1)
		}
	case key.Matches(msg, keys.Left):
		if m.focus == focusGrid {
			m.moveDay(-1)
		}
	case key.Matches(msg, keys.Right):
		if m.focus == focusList {
			m.focus = focusGrid
		} else {
			m.moveDay(1)
		}
	case key.Matches(msg, keys.PrevWeek):
		m.shiftWeek(-1)
	case key.Matches(msg, keys.NextWeek):
		m.shiftWeek(1)
	case key.Matches(msg, keys.Today):
		m.setWeek(dateutil.WeekStart(m.now()))
	case key.Matches(msg, keys.Copy):
		return m, commands.CopyToClipboard(m.ws.Agenda(m.weekStart), "agenda")
	case key.Matches(msg, keys.Grab):
		return m.grabAtCursor()
	case key.Matches(msg, keys.Return):
		if m.focus == focusGrid {
			return m.unscheduleAtCursor()
		}
	}
	return m, nil
}

// handleDragKeys drives a gesture in progress. Arrow keys move the preview,
// enter drops on the grid, x drops on the side list and esc cancels.
func (m Model) handleDragKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.ws.Coordinator
	switch {
	case key.Matches(msg, keys.Cancel):
		out := c.Cancel()
		m.keyDrag = false
		return m, m.finish(out)
	case key.Matches(msg, keys.Drop):
		out := c.Drop(dragdrop.TargetGrid)
		m.keyDrag = false
		return m, m.finish(out)
	case key.Matches(msg, keys.Return):
		out := c.Drop(dragdrop.TargetSideList)
		m.keyDrag = false
		return m, m.finish(out)
	case key.Matches(msg, keys.Up):
		m.grid.Index = max(0, m.grid.Index-1)
	case key.Matches(msg, keys.Down):
		m.grid.Index = min(slot.SlotsPerDay-1, m.grid.Index+1)
	case key.Matches(msg, keys.Left):
		m.moveDay(-1)
	case key.Matches(msg, keys.Right):
		m.moveDay(1)
	case key.Matches(msg, keys.PrevWeek):
		m.shiftWeek(-1)
	case key.Matches(msg, keys.NextWeek):
		m.shiftWeek(1)
	default:
		return m, nil
	}
	m.hoverCursor()
	return m, nil
}

// handleMouseMsg maps press, motion and release of the left button to a
// gesture. A press on a side list row or a placed block picks it up; motion
// previews; release drops on whatever surface is under the pointer.
func (m Model) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	c := m.ws.Coordinator
	hit := m.layout.Hit(msg.X, msg.Y)
	colHeight := float64(m.layout.ColumnHeight())

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			if hit.Area == AreaList {
				m.listCursor--
				m.clampList()
			}
			return m, nil
		case tea.MouseButtonWheelDown:
			if hit.Area == AreaList {
				m.listCursor++
				m.clampList()
			}
			return m, nil
		case tea.MouseButtonLeft:
		default:
			return m, nil
		}
		if c.Active() {
			return m, nil
		}
		switch hit.Area {
		case AreaList:
			entries := m.entries()
			idx := m.listOffset + hit.Row
			if hit.Row < 0 || idx >= len(entries) {
				return m, nil
			}
			m.focus = focusList
			m.listCursor = idx
			return m, m.pickUp(entries[idx].Payload, false)
		case AreaGrid:
			s := slot.Map(hit.OffsetY, colHeight)
			p, ok := schedule.At(c.Placements(), hit.Day, s)
			if !ok {
				return m, nil
			}
			m.focus = focusGrid
			m.grid = gridCursor{Day: hit.Day, Index: min(s.Index(), slot.SlotsPerDay-1)}
			return m, m.pickUpPlacement(p, false)
		}

	case tea.MouseActionMotion:
		if !c.Active() {
			return m, nil
		}
		if hit.Area != AreaGrid {
			c.Leave()
			return m, nil
		}
		pv, err := c.Hover(hit.Day, hit.OffsetY, colHeight)
		if err != nil {
			return m, m.setStatus("Error: "+err.Error(), true)
		}
		if pv.InWindow {
			m.grid = gridCursor{Day: pv.Day, Index: pv.Slot.Index()}
		}

	case tea.MouseActionRelease:
		if !c.Active() || m.keyDrag {
			return m, nil
		}
		target := dragdrop.TargetNone
		switch hit.Area {
		case AreaGrid:
			target = dragdrop.TargetGrid
		case AreaList:
			target = dragdrop.TargetSideList
		}
		return m, m.finish(c.Drop(target))
	}
	return m, nil
}

// grabAtCursor starts a keyboard gesture with the selected list entry or the
// block under the grid cursor.
func (m Model) grabAtCursor() (tea.Model, tea.Cmd) {
	if m.focus == focusList {
		entries := m.entries()
		if m.listCursor < 0 || m.listCursor >= len(entries) {
			return m, nil
		}
		m.focus = focusGrid
		cmd := m.pickUp(entries[m.listCursor].Payload, true)
		m.hoverCursor()
		return m, cmd
	}
	p, ok := schedule.At(m.ws.Coordinator.Placements(), m.grid.Day, m.grid.Slot())
	if !ok {
		return m, nil
	}
	if s, ok := slot.FromTime(p.Start); ok {
		m.grid.Index = s.Index()
	}
	cmd := m.pickUpPlacement(p, true)
	m.hoverCursor()
	return m, cmd
}

// unscheduleAtCursor sends the block under the grid cursor back to the side
// list in one step.
func (m Model) unscheduleAtCursor() (tea.Model, tea.Cmd) {
	p, ok := schedule.At(m.ws.Coordinator.Placements(), m.grid.Day, m.grid.Slot())
	if !ok {
		return m, nil
	}
	if cmd := m.pickUpPlacement(p, true); cmd != nil {
		return m, cmd
	}
	out := m.ws.Coordinator.Drop(dragdrop.TargetSideList)
	m.keyDrag = false
	return m, m.finish(out)
}

func (m *Model) pickUp(p dragdrop.Payload, fromKeyboard bool) tea.Cmd {
	if err := m.ws.Coordinator.PickUp(p); err != nil {
		return m.setStatus("Error: "+err.Error(), true)
	}
	m.keyDrag = fromKeyboard
	return nil
}

func (m *Model) pickUpPlacement(p schedule.Placement, fromKeyboard bool) tea.Cmd {
	var payload dragdrop.Payload
	if p.Kind == schedule.KindOccurrence {
		payload = dragdrop.OccurrencePayload(p.ID)
	} else {
		var err error
		if payload, err = m.ws.PayloadFor(p.ID); err != nil {
			return m.setStatus("Error: "+err.Error(), true)
		}
	}
	return m.pickUp(payload, fromKeyboard)
}

// hoverCursor previews a keyboard gesture at the grid cursor.
func (m *Model) hoverCursor() {
	if m.ws.Coordinator.Active() {
		_, _ = m.ws.Coordinator.HoverSlot(m.grid.Day, m.grid.Slot())
	}
}

// finish reports a finished gesture and persists it.
func (m *Model) finish(out dragdrop.Outcome) tea.Cmd {
	m.clampList()
	var cmds []tea.Cmd
	if out.Changed() {
		cmds = append(cmds, m.persist(out))
	}
	if text := out.Message(); text != "" {
		cmds = append(cmds, m.setStatus(text, out.Reason == dragdrop.ReasonConflict || out.Reason == dragdrop.ReasonStale))
	}
	return tea.Batch(cmds...)
}

// persist makes an outcome durable. With a writer the write is queued in
// order; otherwise it runs now.
func (m *Model) persist(out dragdrop.Outcome) tea.Cmd {
	write := m.ws.Persister(out)
	if m.writer != nil {
		m.writer.Enqueue(out.Action.String(), write)
		return nil
	}
	if err := write(context.Background()); err != nil {
		m.log.Error().Err(err).Str("event", "persist_failed").Str("write", out.Action.String()).Msg("write failed")
		return m.setStatus("Error: "+err.Error(), true)
	}
	return nil
}

func (m *Model) moveDay(delta int) {
	day := m.grid.Day + delta
	switch {
	case day < 0:
		m.shiftWeek(-1)
		day = slot.DaysPerWeek - 1
	case day >= slot.DaysPerWeek:
		m.shiftWeek(1)
		day = 0
	}
	m.grid.Day = day
}

func (m *Model) shiftWeek(delta int) {
	m.setWeek(m.weekStart.AddDate(0, 0, 7*delta))
}

func (m *Model) setWeek(weekStart time.Time) {
	m.weekStart = dateutil.WeekStart(weekStart)
	m.ws.Week(m.weekStart)
}

// clampList keeps the list cursor on an entry and inside the visible rows.
func (m *Model) clampList() {
	n := len(m.entries())
	m.listCursor = max(0, min(m.listCursor, n-1))
	rows := max(1, m.layout.ListRows())
	if m.listCursor < m.listOffset {
		m.listOffset = m.listCursor
	}
	if m.listCursor >= m.listOffset+rows {
		m.listOffset = m.listCursor - rows + 1
	}
	m.listOffset = max(0, min(m.listOffset, max(0, n-rows)))
}
