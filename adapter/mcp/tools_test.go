package mcp

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/testutil"
	"github.com/felixgeelhaar/recurra/adapter/cli"
	"github.com/felixgeelhaar/recurra/adapter/cli/clitest"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/recurrence"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/task"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/tasklist"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterCLITools_ListTools(t *testing.T) {
	srv := mcp.NewServer(mcp.ServerInfo{
		Name:    "test",
		Version: "1.0.0",
		Capabilities: mcp.Capabilities{
			Tools: true,
		},
	})

	app := &cli.App{}
	require.NoError(t, RegisterCLITools(srv, ToolDependencies{App: app}))

	tc := testutil.NewTestClient(t, srv)
	defer tc.Close()

	tools, err := tc.ListTools()
	require.NoError(t, err)

	names := make(map[any]bool)
	for _, tool := range tools {
		names[tool["name"]] = true
	}
	for _, want := range []string{
		"recurra.health",
		"tasklist.list", "tasklist.create", "tasklist.update",
		"tasklist.add_member", "tasklist.remove_member",
		"task.create", "task.get", "task.update", "task.repeat", "task.materialize",
		"occurrence.list", "occurrence.toggle",
		"rule.preview",
	} {
		assert.True(t, names[want], "%s tool should be registered", want)
	}
}

func TestRegisterCLITools_RequiresApp(t *testing.T) {
	srv := mcp.NewServer(mcp.ServerInfo{Name: "test", Version: "1.0.0"})
	assert.Error(t, RegisterCLITools(srv, ToolDependencies{}))
	assert.Error(t, RegisterCLITools(nil, ToolDependencies{App: &cli.App{}}))
}

func TestTools_WithoutDatabase(t *testing.T) {
	ctx := context.Background()
	app := &cli.App{}

	_, err := listTaskLists(ctx, app)
	assert.ErrorIs(t, err, errNoDatabase)
	_, err = createTask(ctx, app, taskCreateInput{})
	assert.ErrorIs(t, err, errNoDatabase)
	_, err = previewRule(ctx, app, rulePreviewInput{})
	assert.ErrorIs(t, err, errNoDatabase)
	_, err = exportCalendar(ctx, app, "")
	assert.ErrorIs(t, err, errNoDatabase)
	_, err = updateTask(ctx, app, taskUpdateInput{})
	assert.ErrorIs(t, err, errNoDatabase)
	_, err = addListMember(ctx, app, taskListMemberInput{})
	assert.ErrorIs(t, err, errNoDatabase)
}

func TestTools_TaskLifecycle(t *testing.T) {
	ctx := context.Background()
	app := clitest.NewApp(t)

	list, err := createTaskList(ctx, app, taskListCreateInput{Name: "Home"})
	require.NoError(t, err)

	lists, err := listTaskLists(ctx, app)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, "owner", lists[0].Role)

	created, err := createTask(ctx, app, taskCreateInput{
		ListID:  list.ListID.String(),
		Title:   "Take out bins",
		DueDate: "2025-03-11",
		Recurrence: &recurrence.RuleSpec{
			Frequency:  recurrence.FrequencyWeekly,
			Interval:   1,
			DaysOfWeek: []int{2},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 9, created.Materialized)

	dto, err := getTask(ctx, app, taskGetInput{TaskID: created.TaskID.String(), Upcoming: 2})
	require.NoError(t, err)
	assert.Equal(t, "Every week on Tuesday", dto.RecurrenceText)
	assert.Equal(t, []string{"2025-03-11", "2025-03-18"}, dateStrings(dto.NextDates))

	buckets, err := listOccurrences(ctx, app, occurrenceListInput{ListID: list.ListID.String()})
	require.NoError(t, err)
	require.Len(t, buckets.Upcoming, 9)

	done := true
	toggled, err := toggleOccurrence(ctx, app, occurrenceToggleInput{
		OccurrenceID: buckets.Upcoming[0].ID.String(),
		Complete:     &done,
	})
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	_, err = toggleOccurrence(ctx, app, occurrenceToggleInput{
		OccurrenceID: buckets.Upcoming[0].ID.String(),
		Complete:     &done,
	})
	assert.ErrorIs(t, err, task.ErrAlreadyCompleted)

	repeated, err := repeatTask(ctx, app, taskRepeatInput{TaskID: created.TaskID.String()})
	require.NoError(t, err)
	assert.Empty(t, repeated.Description)

	ics, err := exportCalendar(ctx, app, list.ListID.String())
	require.NoError(t, err)
	assert.Contains(t, ics, "Take out bins")
}

func TestTools_EditAndShare(t *testing.T) {
	ctx := context.Background()
	app := clitest.NewApp(t)

	list, err := createTaskList(ctx, app, taskListCreateInput{Name: "Home"})
	require.NoError(t, err)
	created, err := createTask(ctx, app, taskCreateInput{ListID: list.ListID.String(), Title: "Dentist", DueDate: "2025-03-12"})
	require.NoError(t, err)

	title, due := "Dentist checkup", "2025-03-19"
	updated, err := updateTask(ctx, app, taskUpdateInput{TaskID: created.TaskID.String(), Title: &title, DueDate: &due})
	require.NoError(t, err)
	assert.True(t, updated.DueChanged)

	dto, err := getTask(ctx, app, taskGetInput{TaskID: created.TaskID.String()})
	require.NoError(t, err)
	assert.Equal(t, "Dentist checkup", dto.Title)
	assert.Equal(t, []string{"2025-03-19"}, dateStrings(dto.NextDates))

	name := "Household"
	_, err = updateTaskList(ctx, app, taskListUpdateInput{ListID: list.ListID.String(), Name: &name})
	require.NoError(t, err)

	friend := uuid.NewString()
	added, err := addListMember(ctx, app, taskListMemberInput{ListID: list.ListID.String(), UserID: friend})
	require.NoError(t, err)
	assert.Equal(t, "member", added.Role)

	_, err = addListMember(ctx, app, taskListMemberInput{ListID: list.ListID.String(), UserID: friend})
	assert.ErrorIs(t, err, tasklist.ErrAlreadyMember)

	_, err = removeListMember(ctx, app, taskListMemberInput{ListID: list.ListID.String(), UserID: friend})
	require.NoError(t, err)

	_, err = removeListMember(ctx, app, taskListMemberInput{ListID: list.ListID.String(), UserID: app.CurrentUserID.String()})
	assert.ErrorIs(t, err, tasklist.ErrLastOwner)

	lists, err := listTaskLists(ctx, app)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, "Household", lists[0].Name)
}

func TestTools_InputValidation(t *testing.T) {
	ctx := context.Background()
	app := clitest.NewApp(t)

	_, err := createTaskList(ctx, app, taskListCreateInput{})
	assert.Error(t, err)

	_, err = createTask(ctx, app, taskCreateInput{ListID: "nope", Title: "x"})
	assert.Error(t, err)

	_, err = getTask(ctx, app, taskGetInput{TaskID: ""})
	assert.Error(t, err)

	_, err = listOccurrences(ctx, app, occurrenceListInput{Today: "10/03/2025"})
	assert.Error(t, err)
}

func TestTools_PreviewAndMaterialize(t *testing.T) {
	ctx := context.Background()
	app := clitest.NewApp(t)

	preview, err := previewRule(ctx, app, rulePreviewInput{
		Recurrence: recurrence.RuleSpec{Frequency: recurrence.FrequencyDaily, Interval: 3},
		Anchor:     "2025-03-10",
		Count:      3,
	})
	require.NoError(t, err)
	assert.Equal(t, "Every 3 days", preview.Description)
	assert.Equal(t, []string{"2025-03-10", "2025-03-13", "2025-03-16"}, dateStrings(preview.Dates))

	_, err = previewRule(ctx, app, rulePreviewInput{
		Recurrence: recurrence.RuleSpec{Frequency: "hourly", Interval: 1},
	})
	assert.ErrorIs(t, err, recurrence.ErrInvalidRule)

	result, err := materializeTasks(ctx, app, taskMaterializeInput{Today: "2025-04-01"})
	require.NoError(t, err)
	assert.Zero(t, result.TasksProcessed)
	assert.Equal(t, "2025-04-01", result.Today.Format(dateLayout))
}

func TestRegisterResourcesAndPrompts(t *testing.T) {
	srv := mcp.NewServer(mcp.ServerInfo{
		Name:    "test",
		Version: "1.0.0",
		Capabilities: mcp.Capabilities{
			Resources: true,
			Prompts:   true,
		},
	})
	deps := ToolDependencies{App: &cli.App{}}
	require.NoError(t, RegisterResources(srv, deps))
	require.NoError(t, RegisterPrompts(srv, deps))
	assert.Error(t, RegisterResources(nil, deps))
}

func dateStrings(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(dateLayout)
	}
	return out
}
