package rule

import (
	"fmt"

	"github.com/felixgeelhaar/recurra/adapter/cli"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/queries"
	"github.com/spf13/cobra"
)

// Cmd is the rule command group
var Cmd = &cobra.Command{
	Use:   "rule",
	Short: "Work with recurrence rules",
}

var (
	ruleFlags cli.RuleFlags
	anchor    string
	count     int
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Describe a rule and preview its next dates",
	Long: `Print a rule in plain English together with its next dates, without
creating a task.

Examples:
  recurra rule describe --every weekly --days mon,wed,fri
  recurra rule describe --every monthly --dates 31 --anchor 2025-01-31 --count 6
  recurra rule describe --every yearly --months feb --dates 29 --anchor 2024-02-29`,
	Aliases: []string{"preview"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.PreviewRecurrenceHandler == nil {
			return cli.ErrNotInitialized
		}

		spec, err := ruleFlags.Spec()
		if err != nil {
			return err
		}
		if spec == nil {
			return fmt.Errorf("--every is required")
		}
		start, err := cli.ParseDate(anchor)
		if err != nil {
			return err
		}

		query := queries.PreviewRecurrenceQuery{Recurrence: *spec, Count: count}
		if start != nil {
			query.Anchor = *start
		}
		preview, err := app.PreviewRecurrenceHandler.Handle(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("failed to preview rule: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, preview.Description)
		fmt.Fprintf(out, "Starting %s:\n", cli.FormatDate(preview.Anchor))
		for _, d := range preview.Dates {
			fmt.Fprintf(out, "  %s\n", cli.FormatDate(d))
		}
		return nil
	},
}

func init() {
	ruleFlags.Register(describeCmd)
	describeCmd.Flags().StringVar(&anchor, "anchor", "", "first date of the series (YYYY-MM-DD, default today)")
	describeCmd.Flags().IntVarP(&count, "count", "n", 5, "number of dates to preview")

	Cmd.AddCommand(describeCmd)
}
