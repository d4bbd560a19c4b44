package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/felixgeelhaar/recurra/adapter/api"
	"github.com/felixgeelhaar/recurra/adapter/caldav"
	"github.com/felixgeelhaar/recurra/adapter/cli"
	internalApp "github.com/felixgeelhaar/recurra/internal/app"
	"github.com/spf13/cobra"
)

var addr string

// Cmd starts the HTTP API.
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serve the task list, task, occurrence and rule endpoints over HTTP
until interrupted. Lists are also published read-only over CalDAV under
/caldav/. The outbox processor runs alongside the server.

Examples:
  recurra serve
  recurra serve --addr 0.0.0.0:9000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.Container == nil {
			return cli.ErrNotInitialized
		}
		c := app.Container

		cfg := api.DefaultServerConfig()
		cfg.Addr = c.Config.APIAddr
		if addr != "" {
			cfg.Addr = addr
		}
		server := api.NewServer(cfg, NewTaskHandler(c), c.Health, c.Logger)
		server.MountCalDAV(caldav.Prefix+"/", NewCalDAVHandler(c))

		ctx := cmd.Context()
		c.StartOutbox(ctx)

		errCh := make(chan error, 1)
		go func() {
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("API server failed: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

// NewTaskHandler wires the API handler to the container's handlers.
func NewTaskHandler(c *internalApp.Container) *api.TaskHandler {
	return api.NewTaskHandler(api.TaskHandlerConfig{
		CreateTaskList:    c.CreateTaskListHandler,
		UpdateTaskList:    c.UpdateTaskListHandler,
		AddListMember:     c.AddListMemberHandler,
		RemoveListMember:  c.RemoveListMemberHandler,
		CreateTask:        c.CreateTaskHandler,
		UpdateTask:        c.UpdateTaskHandler,
		UpdateRecurrence:  c.UpdateRecurrenceHandler,
		ToggleOccurrence:  c.ToggleOccurrenceHandler,
		ListTaskLists:     c.ListTaskListsHandler,
		GetTask:           c.GetTaskHandler,
		ListOccurrences:   c.ListOccurrencesHandler,
		PreviewRecurrence: c.PreviewRecurrenceHandler,
		ExportCalendar:    c.ExportCalendarHandler,
		UserID:            c.UserID(),
		Logger:            c.Logger,
	})
}

// NewCalDAVHandler wires the read-only CalDAV backend to the container.
func NewCalDAVHandler(c *internalApp.Container) http.Handler {
	return caldav.NewHandler(caldav.Config{
		Lists:     c.ListTaskListsHandler,
		Feeds:     c.ExportCalendarHandler,
		Calendars: c.CalendarExporter,
		UserID:    c.UserID(),
		Logger:    c.Logger,
	})
}

func init() {
	Cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from API_ADDR)")
}
