package task

import (
	"fmt"

	"github.com/felixgeelhaar/recurra/adapter/cli"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/commands"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var completeCmd = &cobra.Command{
	Use:   "complete [occurrence-id]",
	Short: "Mark an occurrence as done",
	Long: `Mark one occurrence of a task as done. Use "recurra occurrences" to
find occurrence IDs.

Examples:
  recurra task complete 550e8400-e29b-41d4-a716-446655440000`,
	Aliases: []string{"done"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setCompletion(cmd, args[0], true)
	},
}

var reopenCmd = &cobra.Command{
	Use:   "reopen [occurrence-id]",
	Short: "Mark a completed occurrence as not done",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setCompletion(cmd, args[0], false)
	},
}

func setCompletion(cmd *cobra.Command, rawID string, complete bool) error {
	app := cli.GetApp()
	if app == nil || app.ToggleOccurrenceHandler == nil {
		return cli.ErrNotInitialized
	}

	occurrenceID, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid occurrence ID: %w", err)
	}

	result, err := app.ToggleOccurrenceHandler.Handle(cmd.Context(), commands.ToggleOccurrenceCommand{
		UserID:       app.CurrentUserID,
		OccurrenceID: occurrenceID,
		Complete:     &complete,
	})
	if err != nil {
		return fmt.Errorf("failed to update occurrence: %w", err)
	}

	if result.Completed {
		fmt.Fprintf(cmd.OutOrStdout(), "Completed: %s (due %s)\n", result.OccurrenceID, cli.FormatDate(result.DueDate))
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Reopened: %s (due %s)\n", result.OccurrenceID, cli.FormatDate(result.DueDate))
	}
	return nil
}
