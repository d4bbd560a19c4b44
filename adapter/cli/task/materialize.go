package task

import (
	"fmt"

	"github.com/felixgeelhaar/recurra/adapter/cli"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/commands"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var materializeToday string

var materializeCmd = &cobra.Command{
	Use:   "materialize [task-id]",
	Short: "Generate upcoming occurrences",
	Long: `Store the occurrences inside the materialization window for one task,
or for every recurring task when no ID is given. Running it twice is safe.

Examples:
  recurra task materialize
  recurra task materialize 550e8400-e29b-41d4-a716-446655440000
  recurra task materialize --today 2025-06-01`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.MaterializeOccurrencesHandler == nil {
			return cli.ErrNotInitialized
		}

		command := commands.MaterializeOccurrencesCommand{UserID: app.CurrentUserID}
		if len(args) == 1 {
			taskID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid task ID: %w", err)
			}
			command.TaskID = &taskID
		}
		today, err := cli.ParseDate(materializeToday)
		if err != nil {
			return err
		}
		if today != nil {
			command.Today = *today
		}

		result, err := app.MaterializeOccurrencesHandler.Handle(cmd.Context(), command)
		if err != nil {
			return fmt.Errorf("failed to materialize occurrences: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Materialized %s through %s\n",
			result.Today.Format("2006-01-02"), result.Through.Format("2006-01-02"))
		fmt.Fprintf(out, "  tasks: %d, created: %d, failed: %d\n", result.TasksProcessed, result.Created, result.Failed)
		return nil
	},
}

func init() {
	materializeCmd.Flags().StringVar(&materializeToday, "today", "", "treat this date as today (YYYY-MM-DD)")
}
