package tasklist

import (
	"fmt"

	"github.com/felixgeelhaar/recurra/adapter/cli"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/commands"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/tasklist"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	updateName        string
	updateDescription string
	memberRole        string
)

var updateCmd = &cobra.Command{
	Use:   "update [list-id]",
	Short: "Rename a task list or change its description",
	Long: `Edit a task list. Only owners and admins may do this.

Examples:
  recurra tasklist update <id> --name "Household"
  recurra tasklist update <id> --description ""`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.UpdateTaskListHandler == nil {
			return cli.ErrNotInitialized
		}

		listID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid list ID: %w", err)
		}
		command := commands.UpdateTaskListCommand{UserID: app.CurrentUserID, ListID: listID}
		if cmd.Flags().Changed("name") {
			command.Name = &updateName
		}
		if cmd.Flags().Changed("description") {
			command.Description = &updateDescription
		}

		if err := app.UpdateTaskListHandler.Handle(cmd.Context(), command); err != nil {
			return fmt.Errorf("failed to update task list: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Task list updated: %s\n", listID)
		return nil
	},
}

var addMemberCmd = &cobra.Command{
	Use:   "add-member [list-id] [user-id]",
	Short: "Share a task list with a user",
	Long: `Add a user to a task list. Roles are owner, admin and member.

Examples:
  recurra tasklist add-member <list-id> <user-id>
  recurra tasklist add-member <list-id> <user-id> --role admin`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.AddListMemberHandler == nil {
			return cli.ErrNotInitialized
		}

		listID, memberID, err := parseListAndUser(args)
		if err != nil {
			return err
		}
		err = app.AddListMemberHandler.Handle(cmd.Context(), commands.AddListMemberCommand{
			UserID:   app.CurrentUserID,
			ListID:   listID,
			MemberID: memberID,
			Role:     tasklist.Role(memberRole),
		})
		if err != nil {
			return fmt.Errorf("failed to add member: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s as %s\n", memberID, memberRole)
		return nil
	},
}

var removeMemberCmd = &cobra.Command{
	Use:     "remove-member [list-id] [user-id]",
	Aliases: []string{"rm-member"},
	Short:   "Remove a user from a task list",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.RemoveListMemberHandler == nil {
			return cli.ErrNotInitialized
		}

		listID, memberID, err := parseListAndUser(args)
		if err != nil {
			return err
		}
		err = app.RemoveListMemberHandler.Handle(cmd.Context(), commands.RemoveListMemberCommand{
			UserID:   app.CurrentUserID,
			ListID:   listID,
			MemberID: memberID,
		})
		if err != nil {
			return fmt.Errorf("failed to remove member: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", memberID)
		return nil
	},
}

func parseListAndUser(args []string) (uuid.UUID, uuid.UUID, error) {
	listID, err := uuid.Parse(args[0])
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid list ID: %w", err)
	}
	userID, err := uuid.Parse(args[1])
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid user ID: %w", err)
	}
	return listID, userID, nil
}

func init() {
	updateCmd.Flags().StringVar(&updateName, "name", "", "new name")
	updateCmd.Flags().StringVar(&updateDescription, "description", "", "new description")
	addMemberCmd.Flags().StringVar(&memberRole, "role", string(tasklist.RoleMember), "member role (owner, admin, member)")
}
