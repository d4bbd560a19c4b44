package mcp

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/recurra/adapter/cli"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/commands"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/queries"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/recurrence"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/tasklist"
)

type taskListCreateInput struct {
	Name        string `json:"name" jsonschema:"required"`
	Description string `json:"description,omitempty"`
}

type taskListUpdateInput struct {
	ListID      string  `json:"list_id" jsonschema:"required"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

type taskListMemberInput struct {
	ListID string `json:"list_id" jsonschema:"required"`
	UserID string `json:"user_id" jsonschema:"required"`
	Role   string `json:"role,omitempty"`
}

// listChange reports the list a tool changed.
type listChange struct {
	ListID string `json:"list_id"`
	UserID string `json:"user_id,omitempty"`
	Role   string `json:"role,omitempty"`
}

type taskCreateInput struct {
	ListID      string               `json:"list_id" jsonschema:"required"`
	Title       string               `json:"title" jsonschema:"required"`
	Description string               `json:"description,omitempty"`
	DueDate     string               `json:"due_date,omitempty"`
	Recurrence  *recurrence.RuleSpec `json:"recurrence,omitempty"`
}

type taskGetInput struct {
	TaskID   string `json:"task_id" jsonschema:"required"`
	Upcoming int    `json:"upcoming,omitempty"`
}

type taskUpdateInput struct {
	TaskID       string  `json:"task_id" jsonschema:"required"`
	Title        *string `json:"title,omitempty"`
	Description  *string `json:"description,omitempty"`
	DueDate      *string `json:"due_date,omitempty"`
	ClearDueDate bool    `json:"clear_due_date,omitempty"`
}

type taskRepeatInput struct {
	TaskID     string               `json:"task_id" jsonschema:"required"`
	Recurrence *recurrence.RuleSpec `json:"recurrence,omitempty"`
}

type taskMaterializeInput struct {
	TaskID string `json:"task_id,omitempty"`
	Today  string `json:"today,omitempty"`
}

func registerTaskListTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("tasklist.list").
		Description("List the task lists you belong to").
		Handler(func(ctx context.Context, _ struct{}) ([]queries.TaskListDTO, error) {
			return listTaskLists(ctx, app)
		})

	srv.Tool("tasklist.create").
		Description("Create a task list owned by you").
		Handler(func(ctx context.Context, input taskListCreateInput) (*commands.CreateTaskListResult, error) {
			return createTaskList(ctx, app, input)
		})

	srv.Tool("tasklist.update").
		Description("Rename a task list or change its description; owners and admins only").
		Handler(func(ctx context.Context, input taskListUpdateInput) (*listChange, error) {
			return updateTaskList(ctx, app, input)
		})

	srv.Tool("tasklist.add_member").
		Description("Share a task list with a user as owner, admin or member").
		Handler(func(ctx context.Context, input taskListMemberInput) (*listChange, error) {
			return addListMember(ctx, app, input)
		})

	srv.Tool("tasklist.remove_member").
		Description("Remove a user from a task list, or leave it yourself").
		Handler(func(ctx context.Context, input taskListMemberInput) (*listChange, error) {
			return removeListMember(ctx, app, input)
		})

	return nil
}

func registerTaskTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("task.create").
		Description("Create a task; pass recurrence to make it repeat").
		Handler(func(ctx context.Context, input taskCreateInput) (*commands.CreateTaskResult, error) {
			return createTask(ctx, app, input)
		})

	srv.Tool("task.get").
		Description("Get a task with its recurrence and next dates").
		Handler(func(ctx context.Context, input taskGetInput) (*queries.TaskDTO, error) {
			return getTask(ctx, app, input)
		})

	srv.Tool("task.update").
		Description("Edit a task's title, description or due date; omitted fields stay as they are").
		Handler(func(ctx context.Context, input taskUpdateInput) (*commands.UpdateTaskResult, error) {
			return updateTask(ctx, app, input)
		})

	srv.Tool("task.repeat").
		Description("Replace a task's recurrence; omit recurrence to stop repeating").
		Handler(func(ctx context.Context, input taskRepeatInput) (*commands.UpdateRecurrenceResult, error) {
			return repeatTask(ctx, app, input)
		})

	srv.Tool("task.materialize").
		Description("Store occurrences through the rolling horizon").
		Handler(func(ctx context.Context, input taskMaterializeInput) (*commands.MaterializeOccurrencesResult, error) {
			return materializeTasks(ctx, app, input)
		})

	return nil
}

func listTaskLists(ctx context.Context, app *cli.App) ([]queries.TaskListDTO, error) {
	if app.ListTaskListsHandler == nil {
		return nil, errNoDatabase
	}
	return app.ListTaskListsHandler.Handle(ctx, queries.ListTaskListsQuery{UserID: app.CurrentUserID})
}

func createTaskList(ctx context.Context, app *cli.App, input taskListCreateInput) (*commands.CreateTaskListResult, error) {
	if app.CreateTaskListHandler == nil {
		return nil, errNoDatabase
	}
	if input.Name == "" {
		return nil, errors.New("name is required")
	}
	return app.CreateTaskListHandler.Handle(ctx, commands.CreateTaskListCommand{
		UserID:      app.CurrentUserID,
		Name:        input.Name,
		Description: input.Description,
	})
}

func updateTaskList(ctx context.Context, app *cli.App, input taskListUpdateInput) (*listChange, error) {
	if app.UpdateTaskListHandler == nil {
		return nil, errNoDatabase
	}
	listID, err := parseUUID(input.ListID)
	if err != nil {
		return nil, err
	}
	err = app.UpdateTaskListHandler.Handle(ctx, commands.UpdateTaskListCommand{
		UserID:      app.CurrentUserID,
		ListID:      listID,
		Name:        input.Name,
		Description: input.Description,
	})
	if err != nil {
		return nil, err
	}
	app.Flush(ctx)
	return &listChange{ListID: listID.String()}, nil
}

func addListMember(ctx context.Context, app *cli.App, input taskListMemberInput) (*listChange, error) {
	if app.AddListMemberHandler == nil {
		return nil, errNoDatabase
	}
	listID, err := parseUUID(input.ListID)
	if err != nil {
		return nil, err
	}
	memberID, err := parseUUID(input.UserID)
	if err != nil {
		return nil, err
	}
	role := tasklist.Role(input.Role)
	if role == "" {
		role = tasklist.RoleMember
	}
	err = app.AddListMemberHandler.Handle(ctx, commands.AddListMemberCommand{
		UserID:   app.CurrentUserID,
		ListID:   listID,
		MemberID: memberID,
		Role:     role,
	})
	if err != nil {
		return nil, err
	}
	app.Flush(ctx)
	return &listChange{ListID: listID.String(), UserID: memberID.String(), Role: string(role)}, nil
}

func removeListMember(ctx context.Context, app *cli.App, input taskListMemberInput) (*listChange, error) {
	if app.RemoveListMemberHandler == nil {
		return nil, errNoDatabase
	}
	listID, err := parseUUID(input.ListID)
	if err != nil {
		return nil, err
	}
	memberID, err := parseUUID(input.UserID)
	if err != nil {
		return nil, err
	}
	err = app.RemoveListMemberHandler.Handle(ctx, commands.RemoveListMemberCommand{
		UserID:   app.CurrentUserID,
		ListID:   listID,
		MemberID: memberID,
	})
	if err != nil {
		return nil, err
	}
	app.Flush(ctx)
	return &listChange{ListID: listID.String(), UserID: memberID.String()}, nil
}

func createTask(ctx context.Context, app *cli.App, input taskCreateInput) (*commands.CreateTaskResult, error) {
	if app.CreateTaskHandler == nil {
		return nil, errNoDatabase
	}
	listID, err := parseUUID(input.ListID)
	if err != nil {
		return nil, err
	}
	due, err := parseDate(input.DueDate)
	if err != nil {
		return nil, err
	}

	result, err := app.CreateTaskHandler.Handle(ctx, commands.CreateTaskCommand{
		UserID:      app.CurrentUserID,
		ListID:      listID,
		Title:       input.Title,
		Description: input.Description,
		DueDate:     due,
		Recurrence:  input.Recurrence,
	})
	if err != nil {
		return nil, err
	}
	app.Flush(ctx)
	return result, nil
}

func updateTask(ctx context.Context, app *cli.App, input taskUpdateInput) (*commands.UpdateTaskResult, error) {
	if app.UpdateTaskHandler == nil {
		return nil, errNoDatabase
	}
	taskID, err := parseUUID(input.TaskID)
	if err != nil {
		return nil, err
	}
	cmd := commands.UpdateTaskCommand{
		UserID:       app.CurrentUserID,
		TaskID:       taskID,
		Title:        input.Title,
		Description:  input.Description,
		ClearDueDate: input.ClearDueDate,
	}
	if input.DueDate != nil {
		if cmd.DueDate, err = parseDate(*input.DueDate); err != nil {
			return nil, err
		}
	}

	result, err := app.UpdateTaskHandler.Handle(ctx, cmd)
	if err != nil {
		return nil, err
	}
	app.Flush(ctx)
	return result, nil
}

func getTask(ctx context.Context, app *cli.App, input taskGetInput) (*queries.TaskDTO, error) {
	if app.GetTaskHandler == nil {
		return nil, errNoDatabase
	}
	taskID, err := parseUUID(input.TaskID)
	if err != nil {
		return nil, err
	}
	upcoming := input.Upcoming
	if upcoming <= 0 {
		upcoming = 5
	}
	return app.GetTaskHandler.Handle(ctx, queries.GetTaskQuery{TaskID: taskID, Upcoming: upcoming})
}

func repeatTask(ctx context.Context, app *cli.App, input taskRepeatInput) (*commands.UpdateRecurrenceResult, error) {
	if app.UpdateRecurrenceHandler == nil {
		return nil, errNoDatabase
	}
	taskID, err := parseUUID(input.TaskID)
	if err != nil {
		return nil, err
	}

	result, err := app.UpdateRecurrenceHandler.Handle(ctx, commands.UpdateRecurrenceCommand{
		UserID:     app.CurrentUserID,
		TaskID:     taskID,
		Recurrence: input.Recurrence,
	})
	if err != nil {
		return nil, err
	}
	app.Flush(ctx)
	return result, nil
}

func materializeTasks(ctx context.Context, app *cli.App, input taskMaterializeInput) (*commands.MaterializeOccurrencesResult, error) {
	if app.MaterializeOccurrencesHandler == nil {
		return nil, errNoDatabase
	}
	taskID, err := parseOptionalUUID(input.TaskID)
	if err != nil {
		return nil, err
	}
	cmd := commands.MaterializeOccurrencesCommand{UserID: app.CurrentUserID, TaskID: taskID}
	today, err := parseDate(input.Today)
	if err != nil {
		return nil, err
	}
	if today != nil {
		cmd.Today = *today
	}
	return app.MaterializeOccurrencesHandler.Handle(ctx, cmd)
}
