package occurrence

import (
	"context"
	"testing"
	"time"

	"github.com/felixgeelhaar/recurra/adapter/cli/clitest"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/commands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reset() {
	listID, taskID, today = "", "", ""
	includeCompleted = false
}

func TestCmd_GroupsOccurrences(t *testing.T) {
	reset()
	app := clitest.NewApp(t)
	ctx := context.Background()

	list, err := app.CreateTaskListHandler.Handle(ctx, commands.CreateTaskListCommand{UserID: app.CurrentUserID, Name: "Home"})
	require.NoError(t, err)

	for _, tc := range []struct {
		title string
		due   time.Time
	}{
		{"Call plumber", time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)},
		{"Pay rent", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)},
		{"Dentist", time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)},
	} {
		due := tc.due
		_, err := app.CreateTaskHandler.Handle(ctx, commands.CreateTaskCommand{
			UserID: app.CurrentUserID, ListID: list.ListID, Title: tc.title, DueDate: &due,
		})
		require.NoError(t, err)
	}

	listID = list.ListID.String()
	out, err := clitest.Run(t, Cmd)
	require.NoError(t, err)
	assert.Contains(t, out, "Overdue (1):")
	assert.Contains(t, out, "[ ] Fri 2025-03-07  Call plumber")
	assert.Contains(t, out, "Today (1):")
	assert.Contains(t, out, "Upcoming (1):")

	today = "2025-03-20"
	out, err = clitest.Run(t, Cmd)
	require.NoError(t, err)
	assert.Contains(t, out, "Overdue (3):")
	assert.NotContains(t, out, "Upcoming")
}

func TestCmd_Empty(t *testing.T) {
	reset()
	clitest.NewApp(t)

	out, err := clitest.Run(t, Cmd)
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing due.")
}

func TestCmd_InvalidFlags(t *testing.T) {
	reset()
	clitest.NewApp(t)

	listID = "nope"
	_, err := clitest.Run(t, Cmd)
	assert.ErrorContains(t, err, "invalid list ID")

	reset()
	today = "tomorrow"
	_, err = clitest.Run(t, Cmd)
	assert.ErrorContains(t, err, "YYYY-MM-DD")
}
