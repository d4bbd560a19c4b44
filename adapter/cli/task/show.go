package task

import (
	"fmt"

	"github.com/felixgeelhaar/recurra/adapter/cli"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/queries"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var upcoming int

var showCmd = &cobra.Command{
	Use:   "show [task-id]",
	Short: "Show task details",
	Long: `Display a task, its recurrence rule and its next dates.

Examples:
  recurra task show 550e8400-e29b-41d4-a716-446655440000
  recurra task show 550e8400-e29b-41d4-a716-446655440000 --next 10`,
	Aliases: []string{"get", "view"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetTaskHandler == nil {
			return cli.ErrNotInitialized
		}

		taskID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid task ID: %w", err)
		}

		task, err := app.GetTaskHandler.Handle(cmd.Context(), queries.GetTaskQuery{
			TaskID:   taskID,
			Upcoming: upcoming,
		})
		if err != nil {
			return fmt.Errorf("failed to get task: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Task: %s\n", task.ID)
		fmt.Fprintf(out, "  Title:       %s\n", task.Title)
		if task.Description != "" {
			fmt.Fprintf(out, "  Description: %s\n", task.Description)
		}
		if task.DueDate != nil {
			fmt.Fprintf(out, "  Due:         %s\n", cli.FormatDate(*task.DueDate))
		}
		if task.IsRecurring {
			fmt.Fprintf(out, "  Repeats:     %s\n", task.RecurrenceText)
		} else {
			fmt.Fprintf(out, "  Repeats:     never\n")
		}
		fmt.Fprintf(out, "  Created:     %s\n", task.CreatedAt.Format("2006-01-02 15:04"))

		if len(task.NextDates) > 0 {
			fmt.Fprintln(out, "  Next:")
			for _, d := range task.NextDates {
				fmt.Fprintf(out, "    %s\n", cli.FormatDate(d))
			}
		}
		return nil
	},
}

func init() {
	showCmd.Flags().IntVarP(&upcoming, "next", "n", 0, "number of upcoming dates to show")
}
