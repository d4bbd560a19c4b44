package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/recurra/adapter/cli"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/queries"
)

// RegisterResources registers MCP resources that expose task list data.
func RegisterResources(srv *mcp.Server, deps ToolDependencies) error {
	if srv == nil {
		return fmt.Errorf("server is required")
	}
	app := deps.App

	srv.Resource("recurra://lists").
		Name("Task Lists").
		Description("Task lists the current user belongs to").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			lists, err := listTaskLists(ctx, app)
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, lists)
		})

	srv.Resource("recurra://occurrences").
		Name("Agenda").
		Description("Open occurrences grouped as overdue, due today and upcoming").
		MimeType("application/json").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			buckets, err := listOccurrences(ctx, app, occurrenceListInput{})
			if err != nil {
				return nil, err
			}
			return jsonResource(uri, buckets)
		})

	srv.Resource("recurra://lists/{list_id}/calendar.ics").
		Name("List Calendar").
		Description("iCalendar export of one task list").
		MimeType("text/calendar").
		Handler(func(ctx context.Context, uri string, params map[string]string) (*mcp.ResourceContent, error) {
			text, err := exportCalendar(ctx, app, params["list_id"])
			if err != nil {
				return nil, err
			}
			return &mcp.ResourceContent{
				URI:      uri,
				MimeType: "text/calendar",
				Text:     text,
			}, nil
		})

	return nil
}

func exportCalendar(ctx context.Context, app *cli.App, rawListID string) (string, error) {
	if app.ExportCalendarHandler == nil {
		return "", errNoDatabase
	}
	listID, err := parseUUID(rawListID)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := app.ExportCalendarHandler.Handle(ctx, queries.ExportCalendarQuery{
		ListID: listID,
		UserID: app.CurrentUserID,
	}, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func jsonResource(uri string, v any) (*mcp.ResourceContent, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.ResourceContent{
		URI:      uri,
		MimeType: "application/json",
		Text:     string(data),
	}, nil
}
