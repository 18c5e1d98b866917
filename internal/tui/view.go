package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/javiermolinar/weekgrid/internal/dateutil"
	"github.com/javiermolinar/weekgrid/internal/dragdrop"
	"github.com/javiermolinar/weekgrid/internal/effort"
	"github.com/javiermolinar/weekgrid/internal/schedule"
	"github.com/javiermolinar/weekgrid/internal/slot"
)

// View renders the side list, the week grid and the footer.
func (m Model) View() string {
	l := m.layout
	if l.Width == 0 {
		return "Loading..."
	}
	if !l.Fits() {
		return "Terminal too small"
	}

	lines := make([]string, 0, headerLines+l.ColumnHeight()+footerLines)
	lines = append(lines, m.renderTitle(), m.renderDayHeader())
	list := m.renderList()
	grid := m.renderGrid()
	for i := range l.ColumnHeight() {
		lines = append(lines, list[i]+grid[i])
	}
	lines = append(lines, m.renderFooter(), m.help.View(keys))
	return strings.Join(lines, "\n")
}

func (m Model) renderTitle() string {
	monday, sunday := dateutil.WeekRange(m.weekStart)
	title := m.styles.Title.Render("weekgrid")
	week := m.styles.WeekRange.Render(fmt.Sprintf("  %s – %s", monday.Format("Mon 02 Jan"), sunday.Format("Mon 02 Jan 2006")))
	return fit(title+week, m.layout.Width)
}

func (m Model) renderDayHeader() string {
	l := m.layout
	var b strings.Builder
	b.WriteString(pad(m.styles.ListTitle, "Unscheduled", l.ListWidth))
	b.WriteString(strings.Repeat(" ", gutterWidth))

	today := m.now()
	for day := range slot.DaysPerWeek {
		date := m.weekStart.AddDate(0, 0, day)
		style := m.styles.DayHeader
		if dateutil.SameDay(date, today) {
			style = m.styles.DayHeaderToday
		}
		b.WriteString(pad(style, date.Format("Mon 02"), l.ColWidth))
	}
	return b.String()
}

// renderList returns one line per grid line for the side list.
func (m Model) renderList() []string {
	l := m.layout
	rows := l.ListRows()
	lines := make([]string, rows)
	entries := m.entries()

	payload, dragging := m.ws.Coordinator.Payload()
	dropHint := dragging && payload.Moving

	for row := range rows {
		idx := m.listOffset + row
		switch {
		case dropHint && row == rows-1:
			lines[row] = pad(m.styles.ListDrop, "⇐ drop here to unschedule", l.ListWidth)
		case idx < len(entries):
			lines[row] = m.renderEntry(entries[idx], idx == m.listCursor && m.focus == focusList)
		case row == 0 && len(entries) == 0:
			lines[row] = pad(m.styles.HourLabel, "(nothing to schedule)", l.ListWidth)
		default:
			lines[row] = strings.Repeat(" ", l.ListWidth)
		}
	}
	return lines
}

func (m Model) renderEntry(e sideEntry, selected bool) string {
	marker := "• "
	style := m.styles.ListItem
	switch {
	case e.Routine:
		marker = "↻ "
		style = m.styles.ListRoutine
	case e.Subtask:
		marker = "  › "
	}
	if selected {
		style = m.styles.ListSelected
	}
	swatch := m.styles.Swatch(e.Color).Render("▌")
	text := fmt.Sprintf("%s%s %dh", marker, e.Name, effort.HoursFor(e.Effort))
	return swatch + pad(style, text, m.layout.ListWidth-1)
}

// renderGrid returns the hour gutter and the seven day columns, one string
// per column line.
func (m Model) renderGrid() []string {
	l := m.layout
	placements := m.ws.Coordinator.Placements()
	pv, hovering := m.ws.Coordinator.Preview()

	lines := make([]string, l.ColumnHeight())
	for line := range l.ColumnHeight() {
		s := l.SlotAt(line)
		var b strings.Builder
		if line%l.RowLines == 0 {
			b.WriteString(pad(m.styles.HourLabel, fmt.Sprintf("%02d:00", s.Hour), gutterWidth))
		} else {
			b.WriteString(strings.Repeat(" ", gutterWidth))
		}
		for day := range slot.DaysPerWeek {
			b.WriteString(m.renderCell(day, line, s, placements, pv, hovering))
		}
		lines[line] = b.String()
	}
	return lines
}

func (m Model) renderCell(day, line int, s slot.Slot, placements []schedule.Placement, pv dragdrop.Preview, hovering bool) string {
	l := m.layout
	w := l.ColWidth

	if !s.Open() {
		return m.styles.Boundary.Render(strings.Repeat("─", w))
	}

	if hovering && pv.InWindow && pv.Day == day && covers(pv.Slot, pv.Span.Duration(), s) {
		style := m.styles.PreviewValid
		if !pv.Valid {
			style = m.styles.PreviewInvalid
		}
		text := ""
		switch line - l.LineFor(pv.Slot) {
		case 0:
			text = pv.Name
		case 1:
			text = pv.Span.String()
		}
		return pad(style, text, w)
	}

	if p, ok := schedule.At(placements, day, s); ok {
		text := ""
		switch line - l.LineFor(p.Slot()) {
		case 0:
			text = p.Label()
		case 1:
			text = slot.FormatRange(p.Start, p.End)
		}
		return pad(m.styles.Block(p.Color), text, w)
	}

	if m.focus == focusGrid && day == m.grid.Day && line == l.LineFor(m.grid.Slot()) {
		return pad(m.styles.Cursor, "", w)
	}
	if (s.Hour-slot.WindowStartHour)%2 == 1 {
		return pad(m.styles.EmptyAlt, "", w)
	}
	return pad(m.styles.Empty, "", w)
}

// covers reports whether a span of length d starting at start includes s.
func covers(start slot.Slot, d time.Duration, s slot.Slot) bool {
	n := max(1, int((d+slot.SlotMinutes*time.Minute-1)/(slot.SlotMinutes*time.Minute)))
	return s.Index() >= start.Index() && s.Index() < start.Index()+n
}

func (m Model) renderFooter() string {
	if pv, ok := m.ws.Coordinator.Preview(); ok {
		style := m.styles.PreviewValid
		if !pv.Valid {
			style = m.styles.PreviewInvalid
		}
		return fit(style.Render(" "+pv.Label()+" ")+m.styles.HourLabel.Render("  esc to cancel"), m.layout.Width)
	}
	if m.ws.Coordinator.Active() {
		return fit(m.styles.HourLabel.Render("Drag onto a day column, or back to the list"), m.layout.Width)
	}
	if m.status != "" {
		style := m.styles.Status
		if m.statusErr {
			style = m.styles.StatusError
		}
		return fit(style.Render(m.status), m.layout.Width)
	}
	return ""
}

// pad truncates text to width and renders it in a cell of exactly width.
func pad(style lipgloss.Style, text string, width int) string {
	if width <= 0 {
		return ""
	}
	if text != "" {
		text = " " + ansi.Truncate(text, width-1, "…")
	}
	return style.Width(width).MaxWidth(width).Render(text)
}

// fit truncates a rendered line to the terminal width.
func fit(line string, width int) string {
	return ansi.Truncate(line, width, "")
}
