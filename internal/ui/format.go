package ui

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/javiermolinar/weekgrid/internal/effort"
	"github.com/javiermolinar/weekgrid/internal/schedule"
	"github.com/javiermolinar/weekgrid/internal/slot"
	"github.com/javiermolinar/weekgrid/internal/task"
	"github.com/javiermolinar/weekgrid/internal/workspace"
)

// shortIDLen is the length of the id prefix printed in listings.
const shortIDLen = 8

// Lookup errors.
var (
	ErrAmbiguousID      = errors.New("id prefix matches more than one entry")
	ErrAmbiguousProject = errors.New("project name matches more than one project")
)

func shortID(id string) string {
	if len(id) <= shortIDLen {
		return id
	}
	return id[:shortIDLen]
}

// resolveID expands an id or a unique id prefix to a work item or
// occurrence id.
func resolveID(ws *workspace.Workspace, arg string) (string, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", fmt.Errorf("%w: empty id", task.ErrItemNotFound)
	}
	if _, ok := ws.Board.Item(arg); ok {
		return arg, nil
	}
	if _, ok := ws.Routines.Get(arg); ok {
		return arg, nil
	}

	var matches []string
	ws.Board.Walk(func(_ *task.Project, w *task.WorkItem) {
		if strings.HasPrefix(w.ID, arg) {
			matches = append(matches, w.ID)
		}
	})
	for _, o := range ws.Routines.All() {
		if strings.HasPrefix(o.ID, arg) {
			matches = append(matches, o.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", task.ErrItemNotFound, arg)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %s", ErrAmbiguousID, arg)
	}
}

// resolveProject finds a project by id, id prefix or name.
func resolveProject(board *task.Board, arg string) (*task.Project, error) {
	arg = strings.TrimSpace(arg)
	if p, ok := board.Project(arg); ok {
		return p, nil
	}
	var matches []*task.Project
	for _, p := range board.Projects() {
		if strings.EqualFold(p.Name, arg) || (arg != "" && strings.HasPrefix(p.ID, arg)) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", task.ErrProjectNotFound, arg)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousProject, arg)
	}
}

// printWeek prints the placements of one week grouped by day, followed by a
// one-line total.
func printWeek(w io.Writer, weekStart time.Time, placements []schedule.Placement, width int) {
	sunday := weekStart.AddDate(0, 0, 6)
	header := fmt.Sprintf("WEEK: %s – %s", weekStart.Format("Mon 02 Jan"), sunday.Format("Mon 02 Jan 2006"))
	fmt.Fprintf(w, "\n  %s\n", formatHeader(header))
	rule := strings.Repeat("─", min(74, width))
	fmt.Fprintln(w, rule)

	if len(placements) == 0 {
		fmt.Fprintln(w, "  Nothing scheduled this week.")
		fmt.Fprintln(w)
		return
	}

	// "    HH:MM–HH:MM  ↻ " plus the id column
	nameWidth := max(16, width-32)
	var total time.Duration
	for day := range slot.DaysPerWeek {
		items := schedule.OnDay(placements, day)
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(w, "  %s\n", formatHeader(weekStart.AddDate(0, 0, day).Format("Mon 02 Jan")))
		for _, p := range items {
			total += p.End.Sub(p.Start)
			printPlacementRow(w, p, nameWidth)
		}
	}

	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  %d blocks, %s scheduled\n\n", len(placements), formatHours(total))
}

func printPlacementRow(w io.Writer, p schedule.Placement, nameWidth int) {
	marker := "• "
	if p.Kind == schedule.KindOccurrence {
		marker = formatRoutine("↻ ")
	}
	label := p.Label()
	if p.ProjectName != "" {
		label += "  " + formatMuted("["+p.ProjectName+"]")
	}
	label = ansi.Truncate(label, nameWidth, "…")
	pad := max(0, nameWidth-ansi.StringWidth(label))
	fmt.Fprintf(w, "    %s  %s%s%s  %s\n",
		formatTime(slot.FormatRange(p.Start, p.End)),
		marker,
		label,
		strings.Repeat(" ", pad),
		formatMuted(shortID(p.ID)),
	)
}

// printBoard prints every project with its tasks, subtasks and templates.
func printBoard(w io.Writer, board *task.Board, all bool) {
	projects := board.Projects()
	if len(projects) == 0 {
		fmt.Fprintln(w, "No projects yet. Create one with: weekgrid project add <name>")
		return
	}
	for i, p := range projects {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s %s\n", formatHeader(p.Name), formatMuted(shortID(p.ID)))
		printed := 0
		for _, t := range p.Tasks {
			if printItem(w, t, "  ", all) {
				printed++
			}
			for _, s := range t.Subtasks {
				if printItem(w, s, "    › ", all) {
					printed++
				}
			}
		}
		if printed == 0 {
			fmt.Fprintf(w, "  %s\n", formatMuted("(empty)"))
		}
	}
}

func printItem(w io.Writer, item *task.WorkItem, indent string, all bool) bool {
	if item.Stage == task.StageDone && !all {
		return false
	}
	marker := "• "
	if item.IsRoutine() {
		marker = formatRoutine("↻ ")
	}
	fmt.Fprintf(w, "%s%s%s %s  %s  %s",
		indent,
		marker,
		item.Name,
		formatMuted(fmt.Sprintf("%dh", effort.HoursFor(item.Effort))),
		formatMuted(string(item.Stage)),
		formatMuted(shortID(item.ID)),
	)
	if item.IsScheduled() {
		fmt.Fprintf(w, "  %s %s",
			item.ScheduledStart.Format("Mon 02 Jan"),
			formatTime(slot.FormatRange(*item.ScheduledStart, item.End())),
		)
	}
	fmt.Fprintln(w)
	return true
}

// formatHours renders a duration as "3h" or "2h30m".
func formatHours(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh%02dm", h, m)
}

// sortedTemplates returns the routine templates ordered by name.
func sortedTemplates(board *task.Board) []*task.WorkItem {
	templates := board.Templates()
	sort.SliceStable(templates, func(i, j int) bool {
		return strings.ToLower(templates[i].Name) < strings.ToLower(templates[j].Name)
	})
	return templates
}
