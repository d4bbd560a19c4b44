package export

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/recurra/adapter/cli"
	"github.com/felixgeelhaar/recurra/internal/shared/infrastructure/security"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/queries"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// Cmd is the export command group
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export task lists",
}

var (
	listID     string
	outputPath string
)

var icalCmd = &cobra.Command{
	Use:   "ical",
	Short: "Export a task list as an iCalendar feed",
	Long: `Write a task list as VTODO components. Recurring tasks carry their
RRULE; completed occurrences are exported as overrides.

Examples:
  recurra export ical --list <id> > household.ics
  recurra export ical --list <id> --output ~/calendars/household.ics`,
	Aliases: []string{"ics"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ExportCalendarHandler == nil {
			return cli.ErrNotInitialized
		}

		id, err := uuid.Parse(listID)
		if err != nil {
			return fmt.Errorf("invalid list ID: %w", err)
		}

		var w io.Writer = cmd.OutOrStdout()
		if outputPath != "" {
			f, err := security.CreateFile(outputPath)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			w = f
		}

		query := queries.ExportCalendarQuery{ListID: id, UserID: app.CurrentUserID}
		if err := app.ExportCalendarHandler.Handle(cmd.Context(), query, w); err != nil {
			return fmt.Errorf("failed to export calendar: %w", err)
		}
		if outputPath != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Calendar written to %s\n", outputPath)
		}
		return nil
	},
}

func init() {
	icalCmd.Flags().StringVarP(&listID, "list", "l", "", "task list ID (required)")
	icalCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write to this file instead of stdout")
	_ = icalCmd.MarkFlagRequired("list")

	Cmd.AddCommand(icalCmd)
}
