package task

import (
	"fmt"

	"github.com/felixgeelhaar/recurra/adapter/cli"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/commands"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	updateTitle       string
	updateDescription string
	updateDue         string
	clearDue          bool
)

var updateCmd = &cobra.Command{
	Use:   "update [task-id]",
	Short: "Edit a task's title, description or due date",
	Long: `Edit a task. Only the flags you pass are changed. Moving the due date
moves a one-off task's occurrence, or the start of a recurring task.

Examples:
  recurra task update <id> --title "Pay the rent"
  recurra task update <id> --due 2025-04-02
  recurra task update <id> --clear-due`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.UpdateTaskHandler == nil {
			return cli.ErrNotInitialized
		}

		taskID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid task ID: %w", err)
		}

		command := commands.UpdateTaskCommand{
			UserID:       app.CurrentUserID,
			TaskID:       taskID,
			ClearDueDate: clearDue,
		}
		flags := cmd.Flags()
		if flags.Changed("title") {
			command.Title = &updateTitle
		}
		if flags.Changed("description") {
			command.Description = &updateDescription
		}
		if flags.Changed("due") {
			command.DueDate, err = cli.ParseDate(updateDue)
			if err != nil {
				return err
			}
		}

		result, err := app.UpdateTaskHandler.Handle(cmd.Context(), command)
		if err != nil {
			return fmt.Errorf("failed to update task: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Task updated: %s\n", result.TaskID)
		if result.DueChanged {
			fmt.Fprintf(out, "  removed: %d, created: %d\n", result.Removed, result.Materialized)
		}
		return nil
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateTitle, "title", "", "new title")
	updateCmd.Flags().StringVar(&updateDescription, "description", "", "new description")
	updateCmd.Flags().StringVar(&updateDue, "due", "", "new due date (YYYY-MM-DD)")
	updateCmd.Flags().BoolVar(&clearDue, "clear-due", false, "drop the due date of a recurring task")
}
