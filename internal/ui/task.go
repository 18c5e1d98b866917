package ui

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javiermolinar/weekgrid/internal/effort"
	"github.com/javiermolinar/weekgrid/internal/task"
)

func (a *App) taskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks, subtasks and routine templates",
	}
	cmd.AddCommand(a.taskAddCmd(), a.taskListCmd(), a.taskEditCmd(), a.taskDeleteCmd())
	return cmd
}

func (a *App) taskAddCmd() *cobra.Command {
	var (
		project   string
		parent    string
		points    string
		stageName string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a task, subtask or routine template",
		Long: `Create a task in a project, or a subtask under --parent.

Effort is in points; one point occupies one hour on the grid. A task with
--stage routine is a routine template: dropping it on the grid creates an
occurrence and the template stays available for reuse.`,
		Example: `  weekgrid task add "Write launch post" --project Website --effort 2
  weekgrid task add "Proofread" --parent 3f2a9c1e
  weekgrid task add "Inbox zero" --project Admin --stage routine`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.open(cmd)
			if err != nil {
				return err
			}

			e, err := effort.Parse(points)
			if err != nil {
				return err
			}
			stage, err := task.ParseStage(stageName)
			if err != nil {
				return err
			}

			var projectID, parentID string
			switch {
			case parent != "":
				id, err := resolveID(ws, parent)
				if err != nil {
					return err
				}
				p, ok := ws.Board.Item(id)
				if !ok {
					return fmt.Errorf("%w: %s is not a task", task.ErrItemNotFound, parent)
				}
				projectID, parentID = p.ProjectID, p.ID
			case project != "":
				p, err := resolveProject(ws.Board, project)
				if err != nil {
					return err
				}
				projectID = p.ID
			default:
				return fmt.Errorf("either --project or --parent is required")
			}

			item, err := ws.AddItem(cmd.Context(), projectID, parentID, args[0], e, stage)
			if err != nil {
				return fmt.Errorf("creating item: %w", err)
			}
			fmt.Fprintf(a.out, "Created %s %q (%dh) %s\n", describeItem(item), item.Name, effort.HoursFor(item.Effort), formatMuted(shortID(item.ID)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "Project name or id")
	cmd.Flags().StringVar(&parent, "parent", "", "Parent task id, creates a subtask")
	cmd.Flags().StringVarP(&points, "effort", "e", "1", "Effort in points (1 point = 1 hour)")
	cmd.Flags().StringVar(&stageName, "stage", string(task.StageActive), "backlog, active, done or routine")
	return cmd
}

func (a *App) taskListCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects with their tasks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := a.open(cmd)
			if err != nil {
				return err
			}
			printBoard(a.out, ws.Board, all)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include done tasks")
	return cmd
}

func (a *App) taskEditCmd() *cobra.Command {
	var (
		name   string
		points string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Rename a task or change its effort",
		Long: `Rename a task or change its effort. A scheduled task keeps its start and
its end moves with the new effort. Editing a routine template updates every
occurrence on the calendar.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.editItem(cmd, args[0], name, points)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVarP(&points, "effort", "e", "", "New effort in points")
	return cmd
}

func (a *App) taskDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task and its subtasks",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.deleteEntry(cmd, args[0])
		},
	}
}

// editItem applies the --name and --effort flags to a work item, or to a
// single routine occurrence.
func (a *App) editItem(cmd *cobra.Command, arg, name, points string) error {
	ws, err := a.open(cmd)
	if err != nil {
		return err
	}
	id, err := resolveID(ws, arg)
	if err != nil {
		return err
	}

	var namePtr *string
	if cmd.Flags().Changed("name") {
		namePtr = &name
	}
	var effortPtr *effort.Estimate
	if cmd.Flags().Changed("effort") {
		e, err := effort.Parse(points)
		if err != nil {
			return err
		}
		effortPtr = &e
	}
	if namePtr == nil && effortPtr == nil {
		return fmt.Errorf("nothing to change: pass --name or --effort")
	}

	if _, ok := ws.Routines.Get(id); ok {
		o, err := ws.EditOccurrence(cmd.Context(), id, namePtr, effortPtr)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Updated occurrence %q on %s %s\n", o.Name, o.Start.Format("Mon 02 Jan"), formatTime(o.Start.Format("15:04")))
		return nil
	}

	n, err := ws.EditItem(cmd.Context(), id, namePtr, effortPtr)
	if err != nil {
		return err
	}
	item, _ := ws.Board.Item(id)
	fmt.Fprintf(a.out, "Updated %s %q\n", describeItem(item), item.Name)
	if n > 0 {
		fmt.Fprintf(a.out, "  %s\n", formatMuted(fmt.Sprintf("%d occurrences updated", n)))
	}
	return nil
}

// deleteEntry removes a work item, a routine template with its occurrences,
// or a single occurrence.
func (a *App) deleteEntry(cmd *cobra.Command, arg string) error {
	ws, err := a.open(cmd)
	if err != nil {
		return err
	}
	id, err := resolveID(ws, arg)
	if err != nil {
		return err
	}

	if o, ok := ws.Routines.Get(id); ok {
		if err := ws.DeleteOccurrence(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Removed %q from %s\n", o.Name, o.Start.Format("Mon 02 Jan 15:04"))
		return nil
	}

	item, _ := ws.Board.Item(id)
	kind, name := describeItem(item), item.Name
	n, err := ws.DeleteItem(cmd.Context(), id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s %q\n", kind, name)
	if n > 0 {
		fmt.Fprintf(a.out, "  %s\n", formatMuted(fmt.Sprintf("%d occurrences removed", n)))
	}
	return nil
}

func describeItem(w *task.WorkItem) string {
	if w.IsRoutine() {
		return "routine"
	}
	return string(w.Kind())
}
