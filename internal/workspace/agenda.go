package workspace

import (
	"fmt"
	"strings"
	"time"

	"github.com/javiermolinar/weekgrid/internal/dateutil"
	"github.com/javiermolinar/weekgrid/internal/schedule"
	"github.com/javiermolinar/weekgrid/internal/slot"
)

// Agenda renders the week containing t as plain text, one section per day
// with at least one placement.
func (w *Workspace) Agenda(t time.Time) string {
	weekStart := dateutil.WeekStart(t)
	return FormatAgenda(weekStart, w.Week(weekStart))
}

// FormatAgenda renders placements of the week starting at weekStart.
func FormatAgenda(weekStart time.Time, placements []schedule.Placement) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Week of %s\n", weekStart.Format("Mon 02 Jan 2006"))
	if len(placements) == 0 {
		b.WriteString("\n(nothing scheduled)\n")
		return b.String()
	}

	for day := range slot.DaysPerWeek {
		items := schedule.OnDay(placements, day)
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s\n", weekStart.AddDate(0, 0, day).Format("Mon 02 Jan"))
		for _, p := range items {
			fmt.Fprintf(&b, "  %s  %s", slot.FormatRange(p.Start, p.End), p.Label())
			if p.ProjectName != "" {
				fmt.Fprintf(&b, "  [%s]", p.ProjectName)
			}
			if p.Kind == schedule.KindOccurrence {
				b.WriteString("  (routine)")
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
