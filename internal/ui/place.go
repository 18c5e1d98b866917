package ui

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/weekgrid/internal/dateutil"
	"github.com/javiermolinar/weekgrid/internal/dragdrop"
	"github.com/javiermolinar/weekgrid/internal/slot"
)

// Placement errors.
var (
	ErrAlreadyPlaced = errors.New("already on the grid, use move")
	ErrNotPlaced     = errors.New("not on the grid")
	ErrNotHalfHour   = errors.New("start must be on the hour or the half hour")
	ErrOutsideWindow = errors.New("start must be between 05:00 and 23:30")
)

func (a *App) placeCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "place <id> <day> <HH:MM>",
		Short: "Drop a task or routine template on the grid",
		Long: `Drop an unscheduled task, subtask or routine template on a day of the
week at a half-hour start. The block lasts one hour per effort point and
may not overlap anything already on the grid. Dropping a routine template
creates a new occurrence.`,
		Example: `  weekgrid place 3f2a9c1e tue 14:00
  weekgrid place 3f2a9c1e friday 09:30 --date next-week`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.drop(cmd, args, date, false)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Any date in the target week (YYYY-MM-DD, today, next-week, last-week)")
	return cmd
}

func (a *App) moveCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "move <id> <day> <HH:MM>",
		Short: "Move a scheduled block to another slot",
		Long: `Move a scheduled task or a routine occurrence. The block keeps its
effort, and is checked against everything else on the grid except itself.`,
		Example: `  weekgrid move 3f2a9c1e wed 10:00`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.drop(cmd, args, date, true)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Any date in the target week (YYYY-MM-DD, today, next-week, last-week)")
	return cmd
}

func (a *App) unscheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unschedule <id>",
		Short: "Send a block back to the side list",
		Long: `Remove a task from the grid, back to the list of unscheduled work.
Unscheduling a routine occurrence deletes it; the template is untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.open(cmd)
			if err != nil {
				return err
			}
			id, err := resolveID(ws, args[0])
			if err != nil {
				return err
			}
			p, err := ws.PayloadFor(id)
			if err != nil {
				return err
			}
			if !p.Moving {
				return fmt.Errorf("%s: %w", args[0], ErrNotPlaced)
			}
			out, err := ws.Unschedule(cmd.Context(), p)
			if err != nil {
				return err
			}
			return a.report(out)
		},
	}
}

// drop runs the gesture behind place and move.
func (a *App) drop(cmd *cobra.Command, args []string, date string, moving bool) error {
	ws, err := a.open(cmd)
	if err != nil {
		return err
	}
	id, err := resolveID(ws, args[0])
	if err != nil {
		return err
	}
	p, err := ws.PayloadFor(id)
	if err != nil {
		return err
	}
	switch {
	case moving && !p.Moving:
		return fmt.Errorf("%s: %w, use place", args[0], ErrNotPlaced)
	case !moving && p.Moving:
		return fmt.Errorf("%s: %w", args[0], ErrAlreadyPlaced)
	}

	day, err := dateutil.ParseWeekday(args[1])
	if err != nil {
		return err
	}
	s, err := parseSlot(args[2])
	if err != nil {
		return err
	}
	weekStart, err := a.weekOf(date)
	if err != nil {
		return err
	}
	ws.Week(weekStart)

	out, err := ws.Place(cmd.Context(), p, day, s)
	if err != nil {
		return err
	}
	return a.report(out)
}

// parseSlot parses a start time that can hold a block.
func parseSlot(s string) (slot.Slot, error) {
	hour, minute, err := dateutil.ParseClock(s)
	if err != nil {
		return slot.Slot{}, err
	}
	if minute%slot.SlotMinutes != 0 {
		return slot.Slot{}, fmt.Errorf("%s: %w", s, ErrNotHalfHour)
	}
	sl := slot.Slot{Hour: hour, Minute: minute, Lower: minute == 30}
	if !sl.Open() {
		return slot.Slot{}, fmt.Errorf("%s: %w", s, ErrOutsideWindow)
	}
	return sl, nil
}

// report prints a committed outcome, or turns a rejected one into an error.
func (a *App) report(out dragdrop.Outcome) error {
	if out.Changed() {
		fmt.Fprintln(a.out, formatOK(out.Message()))
		return nil
	}
	if msg := out.Message(); msg != "" {
		return errors.New(msg)
	}
	return fmt.Errorf("nothing changed (%s)", out.Reason)
}
