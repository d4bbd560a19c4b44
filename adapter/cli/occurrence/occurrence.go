package occurrence

import (
	"fmt"
	"io"

	"github.com/felixgeelhaar/recurra/adapter/cli"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/queries"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	listID           string
	taskID           string
	includeCompleted bool
	today            string
)

// Cmd lists occurrences grouped into overdue, today and upcoming.
var Cmd = &cobra.Command{
	Use:   "occurrences",
	Short: "Show overdue, today's and upcoming occurrences",
	Long: `List stored occurrences grouped into Overdue, Today and Upcoming.

Examples:
  recurra occurrences
  recurra occurrences --list <id> --all
  recurra occurrences --task <id> --today 2025-06-01`,
	Aliases: []string{"occ", "agenda"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListOccurrencesHandler == nil {
			return cli.ErrNotInitialized
		}

		query := queries.ListOccurrencesQuery{IncludeCompleted: includeCompleted}
		if listID != "" {
			id, err := uuid.Parse(listID)
			if err != nil {
				return fmt.Errorf("invalid list ID: %w", err)
			}
			query.ListID = &id
		}
		if taskID != "" {
			id, err := uuid.Parse(taskID)
			if err != nil {
				return fmt.Errorf("invalid task ID: %w", err)
			}
			query.TaskID = &id
		}
		d, err := cli.ParseDate(today)
		if err != nil {
			return err
		}
		if d != nil {
			query.Today = *d
		}

		buckets, err := app.ListOccurrencesHandler.Handle(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("failed to list occurrences: %w", err)
		}

		out := cmd.OutOrStdout()
		if buckets.Len() == 0 {
			fmt.Fprintln(out, "Nothing due.")
			return nil
		}
		printBucket(out, "Overdue", buckets.Overdue)
		printBucket(out, "Today", buckets.DueToday)
		printBucket(out, "Upcoming", buckets.Upcoming)
		return nil
	},
}

func printBucket(out io.Writer, title string, items []queries.OccurrenceDTO) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "%s (%d):\n", title, len(items))
	for _, o := range items {
		mark := "[ ]"
		if o.Completed {
			mark = "[x]"
		}
		fmt.Fprintf(out, "%s %s  %s\n", mark, cli.FormatDate(o.Due), o.TaskTitle)
		fmt.Fprintf(out, "    ID: %s\n", o.ID)
	}
	fmt.Fprintln(out)
}

func init() {
	Cmd.Flags().StringVarP(&listID, "list", "l", "", "only occurrences of this task list")
	Cmd.Flags().StringVarP(&taskID, "task", "t", "", "only occurrences of this task")
	Cmd.Flags().BoolVarP(&includeCompleted, "all", "a", false, "include completed occurrences")
	Cmd.Flags().StringVar(&today, "today", "", "treat this date as today (YYYY-MM-DD)")
}
