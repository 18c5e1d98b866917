package ui

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/weekgrid/internal/dateutil"
	"github.com/javiermolinar/weekgrid/internal/workspace"
)

func (a *App) weekCmd() *cobra.Command {
	var date string
	var plain bool

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Show the blocks scheduled in a week",
		Long: `Display the tasks and routine occurrences placed on the grid for one
week, Monday through Sunday, grouped by day.

With --plain the week is printed as the same text agenda the TUI copies to
the clipboard.`,
		Example: `  weekgrid week
  weekgrid week --date next-week
  weekgrid week --date 2025-03-05 --plain`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := a.open(cmd)
			if err != nil {
				return err
			}
			weekStart, err := a.weekOf(date)
			if err != nil {
				return err
			}

			placements := ws.Week(weekStart)
			if plain {
				fmt.Fprint(a.out, workspace.FormatAgenda(weekStart, placements))
				return nil
			}
			printWeek(a.out, weekStart, placements, termWidth())
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Any date in the week (YYYY-MM-DD, today, next-week, last-week)")
	cmd.Flags().BoolVar(&plain, "plain", false, "Print a plain text agenda")
	return cmd
}

// weekOf returns the Monday of the week containing the --date value.
func (a *App) weekOf(date string) (time.Time, error) {
	t, err := dateutil.ParseDateAt(date, a.now())
	if err != nil {
		return time.Time{}, err
	}
	return dateutil.WeekStart(t), nil
}
