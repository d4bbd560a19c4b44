package cli

import (
	"context"
	"errors"

	internalApp "github.com/felixgeelhaar/recurra/internal/app"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/commands"
	"github.com/felixgeelhaar/recurra/internal/tasks/application/queries"
	"github.com/felixgeelhaar/recurra/pkg/observability"
	"github.com/google/uuid"
)

// ErrNotInitialized is returned when a command runs without a database.
var ErrNotInitialized = errors.New("application not initialized - database connection required")

// App holds the CLI application dependencies.
type App struct {
	// Command Handlers
	CreateTaskListHandler         *commands.CreateTaskListHandler
	UpdateTaskListHandler         *commands.UpdateTaskListHandler
	AddListMemberHandler          *commands.AddListMemberHandler
	RemoveListMemberHandler       *commands.RemoveListMemberHandler
	CreateTaskHandler             *commands.CreateTaskHandler
	UpdateTaskHandler             *commands.UpdateTaskHandler
	UpdateRecurrenceHandler       *commands.UpdateRecurrenceHandler
	ToggleOccurrenceHandler       *commands.ToggleOccurrenceHandler
	MaterializeOccurrencesHandler *commands.MaterializeOccurrencesHandler

	// Query Handlers
	ListTaskListsHandler     *queries.ListTaskListsHandler
	GetTaskHandler           *queries.GetTaskHandler
	ListOccurrencesHandler   *queries.ListOccurrencesHandler
	PreviewRecurrenceHandler *queries.PreviewRecurrenceHandler
	ExportCalendarHandler    *queries.ExportCalendarHandler

	Health *observability.HealthRegistry

	// Container is set when the app was built from a full container. The
	// serve commands need it to start long-running servers.
	Container *internalApp.Container

	// CurrentUserID is the acting user.
	CurrentUserID uuid.UUID
}

var currentApp *App

// NewApp creates a CLI application from the container's handlers.
func NewApp(container *internalApp.Container) *App {
	return &App{
		CreateTaskListHandler:         container.CreateTaskListHandler,
		UpdateTaskListHandler:         container.UpdateTaskListHandler,
		AddListMemberHandler:          container.AddListMemberHandler,
		RemoveListMemberHandler:       container.RemoveListMemberHandler,
		CreateTaskHandler:             container.CreateTaskHandler,
		UpdateTaskHandler:             container.UpdateTaskHandler,
		UpdateRecurrenceHandler:       container.UpdateRecurrenceHandler,
		ToggleOccurrenceHandler:       container.ToggleOccurrenceHandler,
		MaterializeOccurrencesHandler: container.MaterializeOccurrencesHandler,
		ListTaskListsHandler:          container.ListTaskListsHandler,
		GetTaskHandler:                container.GetTaskHandler,
		ListOccurrencesHandler:        container.ListOccurrencesHandler,
		PreviewRecurrenceHandler:      container.PreviewRecurrenceHandler,
		ExportCalendarHandler:         container.ExportCalendarHandler,
		Health:                        container.Health,
		Container:                     container,
		CurrentUserID:                 container.UserID(),
	}
}

// SetCurrentUserID updates the current user ID.
func (a *App) SetCurrentUserID(id uuid.UUID) {
	a.CurrentUserID = id
}

// Flush relays events recorded by the command so subscribers run before the
// process exits.
func (a *App) Flush(ctx context.Context) {
	if a.Container != nil {
		a.Container.FlushOutbox(ctx)
	}
}

// SetApp sets the global CLI application.
func SetApp(app *App) {
	currentApp = app
}

// GetApp returns the global CLI application.
func GetApp() *App {
	return currentApp
}
