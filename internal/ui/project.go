package ui

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *App) projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	cmd.AddCommand(a.projectAddCmd(), a.projectListCmd())
	return cmd
}

func (a *App) projectAddCmd() *cobra.Command {
	var color string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a project",
		Long: `Create a project. Its color tints every block of its tasks and routines.
Without --color the next color of the palette is used.`,
		Example: `  weekgrid project add Website
  weekgrid project add "Home admin" --color "#a6e3a1"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.open(cmd)
			if err != nil {
				return err
			}
			p, err := ws.AddProject(cmd.Context(), args[0], color)
			if err != nil {
				return fmt.Errorf("creating project: %w", err)
			}
			fmt.Fprintf(a.out, "Created project %s %s\n", formatHeader(p.Name), formatMuted(shortID(p.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&color, "color", "", "Hex color, e.g. #89b4fa")
	return cmd
}

func (a *App) projectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := a.open(cmd)
			if err != nil {
				return err
			}
			projects := ws.Board.Projects()
			if len(projects) == 0 {
				fmt.Fprintln(a.out, "No projects yet.")
				return nil
			}
			for _, p := range projects {
				fmt.Fprintf(a.out, "%s  %-24s %s  %d tasks\n", formatMuted(shortID(p.ID)), p.Name, p.Color, len(p.Tasks))
			}
			return nil
		},
	}
}
