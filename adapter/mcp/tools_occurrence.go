package mcp

import (
	"context"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/recurra/adapter/cli"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/commands"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/queries"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/recurrence"
)

type occurrenceListInput struct {
	ListID           string `json:"list_id,omitempty"`
	TaskID           string `json:"task_id,omitempty"`
	IncludeCompleted bool   `json:"include_completed,omitempty"`
	Today            string `json:"today,omitempty"`
}

type occurrenceToggleInput struct {
	OccurrenceID string `json:"occurrence_id" jsonschema:"required"`
	Complete     *bool  `json:"complete,omitempty"`
}

type rulePreviewInput struct {
	Recurrence recurrence.RuleSpec `json:"recurrence" jsonschema:"required"`
	Anchor     string              `json:"anchor,omitempty"`
	Count      int                 `json:"count,omitempty"`
}

func registerOccurrenceTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("occurrence.list").
		Description("List occurrences grouped as overdue, due today and upcoming").
		Handler(func(ctx context.Context, input occurrenceListInput) (*queries.OccurrenceBuckets, error) {
			return listOccurrences(ctx, app, input)
		})

	srv.Tool("occurrence.toggle").
		Description("Toggle an occurrence, or set complete to force a state").
		Handler(func(ctx context.Context, input occurrenceToggleInput) (*commands.ToggleOccurrenceResult, error) {
			return toggleOccurrence(ctx, app, input)
		})

	return nil
}

func registerRuleTools(srv *mcp.Server, deps ToolDependencies) error {
	app := deps.App

	srv.Tool("rule.preview").
		Description("Describe a recurrence rule and list its next dates").
		Handler(func(ctx context.Context, input rulePreviewInput) (*queries.RecurrencePreview, error) {
			return previewRule(ctx, app, input)
		})

	return nil
}

func listOccurrences(ctx context.Context, app *cli.App, input occurrenceListInput) (*queries.OccurrenceBuckets, error) {
	if app.ListOccurrencesHandler == nil {
		return nil, errNoDatabase
	}
	listID, err := parseOptionalUUID(input.ListID)
	if err != nil {
		return nil, err
	}
	taskID, err := parseOptionalUUID(input.TaskID)
	if err != nil {
		return nil, err
	}
	query := queries.ListOccurrencesQuery{
		ListID:           listID,
		TaskID:           taskID,
		IncludeCompleted: input.IncludeCompleted,
	}
	today, err := parseDate(input.Today)
	if err != nil {
		return nil, err
	}
	if today != nil {
		query.Today = *today
	}
	return app.ListOccurrencesHandler.Handle(ctx, query)
}

func toggleOccurrence(ctx context.Context, app *cli.App, input occurrenceToggleInput) (*commands.ToggleOccurrenceResult, error) {
	if app.ToggleOccurrenceHandler == nil {
		return nil, errNoDatabase
	}
	id, err := parseUUID(input.OccurrenceID)
	if err != nil {
		return nil, err
	}

	result, err := app.ToggleOccurrenceHandler.Handle(ctx, commands.ToggleOccurrenceCommand{
		UserID:       app.CurrentUserID,
		OccurrenceID: id,
		Complete:     input.Complete,
	})
	if err != nil {
		return nil, err
	}
	app.Flush(ctx)
	return result, nil
}

func previewRule(ctx context.Context, app *cli.App, input rulePreviewInput) (*queries.RecurrencePreview, error) {
	if app.PreviewRecurrenceHandler == nil {
		return nil, errNoDatabase
	}
	query := queries.PreviewRecurrenceQuery{Recurrence: input.Recurrence, Count: input.Count}
	anchor, err := parseDate(input.Anchor)
	if err != nil {
		return nil, err
	}
	if anchor != nil {
		query.Anchor = *anchor
	}
	return app.PreviewRecurrenceHandler.Handle(ctx, query)
}
