package task

import (
	"fmt"

	"github.com/felixgeelhaar/recurra/adapter/cli"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/commands"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	repeatRule cli.RuleFlags
	noRepeat   bool
)

var repeatCmd = &cobra.Command{
	Use:   "repeat [task-id]",
	Short: "Change or clear a task's recurrence",
	Long: `Replace a task's recurrence rule. Open occurrences from today on are
regenerated; completed ones are kept.

Examples:
  recurra task repeat <id> --every weekly --days mon,thu
  recurra task repeat <id> --never`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.UpdateRecurrenceHandler == nil {
			return cli.ErrNotInitialized
		}

		taskID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid task ID: %w", err)
		}
		spec, err := repeatRule.Spec()
		if err != nil {
			return err
		}
		if spec == nil && !noRepeat {
			return fmt.Errorf("pass --every to set a rule or --never to clear it")
		}
		if spec != nil && noRepeat {
			return fmt.Errorf("--every and --never are mutually exclusive")
		}

		result, err := app.UpdateRecurrenceHandler.Handle(cmd.Context(), commands.UpdateRecurrenceCommand{
			UserID:     app.CurrentUserID,
			TaskID:     taskID,
			Recurrence: spec,
		})
		if err != nil {
			return fmt.Errorf("failed to update recurrence: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Recurrence updated: %s\n", result.Description)
		fmt.Fprintf(out, "  removed: %d, created: %d\n", result.Removed, result.Materialized)
		return nil
	},
}

func init() {
	repeatRule.Register(repeatCmd)
	repeatCmd.Flags().BoolVar(&noRepeat, "never", false, "make the task one-off")
}
