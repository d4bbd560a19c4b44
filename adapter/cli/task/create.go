package task

import (
	"fmt"

	"github.com/felixgeelhaar/recurra/adapter/cli"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/commands"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/recurrence"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	listID      string
	description string
	dueDate     string
	createRule  cli.RuleFlags
)

var createCmd = &cobra.Command{
	Use:   "create [title]",
	Short: "Create a new task",
	Long: `Create a task in a list. One-off tasks need a due date; recurring
tasks start from their due date, or today when none is given.

Examples:
  recurra task create "Pay rent" --list <id> --due 2025-04-01
  recurra task create "Take out bins" --list <id> --every weekly --days tue
  recurra task create "Board meeting" --list <id> --every monthly --nth 1mon
  recurra task create "Water plants" --list <id> --every daily --interval 3`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CreateTaskHandler == nil {
			return cli.ErrNotInitialized
		}

		list, err := uuid.Parse(listID)
		if err != nil {
			return fmt.Errorf("invalid list ID: %w", err)
		}
		due, err := cli.ParseDate(dueDate)
		if err != nil {
			return err
		}
		spec, err := createRule.Spec()
		if err != nil {
			return err
		}

		result, err := app.CreateTaskHandler.Handle(cmd.Context(), commands.CreateTaskCommand{
			UserID:      app.CurrentUserID,
			ListID:      list,
			Title:       args[0],
			Description: description,
			DueDate:     due,
			Recurrence:  spec,
		})
		if err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Task created: %s\n", result.TaskID)
		fmt.Fprintf(out, "  title: %s\n", args[0])
		if spec != nil {
			rule, _ := spec.Build()
			fmt.Fprintf(out, "  repeats: %s\n", recurrence.Describe(rule))
		}
		fmt.Fprintf(out, "  occurrences: %d\n", result.Materialized)
		if result.Unproducible {
			fmt.Fprintln(out, "  warning: this rule never produces a date")
		}
		return nil
	},
}

func init() {
	createCmd.Flags().StringVarP(&listID, "list", "l", "", "task list ID (required)")
	createCmd.Flags().StringVar(&description, "description", "", "task description")
	createCmd.Flags().StringVar(&dueDate, "due", "", "due date (YYYY-MM-DD)")
	createRule.Register(createCmd)
	_ = createCmd.MarkFlagRequired("list")
}
