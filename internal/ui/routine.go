package ui

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/weekgrid/internal/slot"
)

func (a *App) routineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routine",
		Short: "Manage routine templates and their occurrences",
		Long: `Routines are templates created with "task add --stage routine". Each time a
template is dropped on the grid an occurrence is created. Occurrences older
than the retention window are pruned when the calendar is opened.`,
	}
	cmd.AddCommand(a.routineListCmd(), a.routineEditCmd(), a.routineDeleteCmd(), a.routinePruneCmd())
	return cmd
}

func (a *App) routineListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List templates with their occurrences",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := a.open(cmd)
			if err != nil {
				return err
			}
			templates := sortedTemplates(ws.Board)
			if len(templates) == 0 {
				fmt.Fprintln(a.out, "No routines yet. Create one with: weekgrid task add <name> --stage routine")
				return nil
			}
			for _, t := range templates {
				occs := ws.Routines.ForTemplate(t.ID)
				fmt.Fprintf(a.out, "%s %s %s\n",
					formatRoutine("↻"),
					formatHeader(t.Name),
					formatMuted(fmt.Sprintf("%dpt  %s  %d scheduled", int(t.Effort), shortID(t.ID), len(occs))),
				)
				for _, o := range occs {
					line := fmt.Sprintf("    %s %s  %s", o.Start.Format("Mon 02 Jan"), formatTime(slot.FormatRange(o.Start, o.End)), o.Name)
					if o.Name != t.Name || o.Effort != t.Effort {
						line += "  " + formatWarn("(edited)")
					}
					fmt.Fprintf(a.out, "%s  %s\n", line, formatMuted(shortID(o.ID)))
				}
			}
			return nil
		},
	}
}

func (a *App) routineEditCmd() *cobra.Command {
	var (
		name   string
		points string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a template or a single occurrence",
		Long: `Edit a routine template or one of its occurrences.

Editing the template copies the new name and effort to every occurrence,
including occurrences edited on their own. Editing an occurrence changes
only that block.`,
		Example: `  weekgrid routine edit 3f2a9c1e --effort 2
  weekgrid routine edit 9b01d7aa --name "Inbox zero (short)"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editItem(cmd, args[0], name, points)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVarP(&points, "effort", "e", "", "New effort in points")
	return cmd
}

func (a *App) routineDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a template with all its occurrences, or one occurrence",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.deleteEntry(cmd, args[0])
		},
	}
}

func (a *App) routinePruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove occurrences older than the retention window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := a.open(cmd)
			if err != nil {
				return err
			}
			n, err := ws.Prune(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Pruned %d occurrences older than %d days\n", n, a.config.Routines.RetentionDays)
			return nil
		},
	}
}
