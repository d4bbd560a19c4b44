package tasklist

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/recurra/adapter/cli"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/commands"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/queries"
	"github.com/spf13/cobra"
)

// Cmd is the tasklist command group
var Cmd = &cobra.Command{
	Use:     "tasklist",
	Aliases: []string{"lists"},
	Short:   "Manage task lists",
	Long:    `Create, edit and share the task lists that hold your tasks.`,
}

var description string

var createCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a task list",
	Long: `Create a task list. You become its owner.

Examples:
  recurra tasklist create "Household"
  recurra tasklist create Work --description "Recurring work chores"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CreateTaskListHandler == nil {
			return cli.ErrNotInitialized
		}

		result, err := app.CreateTaskListHandler.Handle(cmd.Context(), commands.CreateTaskListCommand{
			UserID:      app.CurrentUserID,
			Name:        args[0],
			Description: description,
		})
		if err != nil {
			return fmt.Errorf("failed to create task list: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Task list created: %s\n", result.ListID)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List your task lists",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.ListTaskListsHandler == nil {
			return cli.ErrNotInitialized
		}

		lists, err := app.ListTaskListsHandler.Handle(cmd.Context(), queries.ListTaskListsQuery{UserID: app.CurrentUserID})
		if err != nil {
			return fmt.Errorf("failed to list task lists: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(lists) == 0 {
			fmt.Fprintln(out, "No task lists found.")
			return nil
		}

		fmt.Fprintf(out, "Task lists (%d):\n", len(lists))
		fmt.Fprintln(out, strings.Repeat("-", 60))
		for _, l := range lists {
			fmt.Fprintf(out, "%s  %s (%s)\n", l.ID, l.Name, l.Role)
			if l.Description != "" {
				fmt.Fprintf(out, "   %s\n", l.Description)
			}
		}
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&description, "description", "", "list description")

	Cmd.AddCommand(createCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(updateCmd)
	Cmd.AddCommand(addMemberCmd)
	Cmd.AddCommand(removeMemberCmd)
}
