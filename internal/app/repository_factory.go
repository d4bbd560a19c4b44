package app

import (
	"fmt"

	"github.com/felixgeelhaar/recurra/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/recurra/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/task"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/tasklist"
	"github.com/felixgeelhaar/recurra/internal/tasks/infrastructure/persistence"
)

// Repositories groups every repository the container needs.
type Repositories struct {
	Tasks       task.Repository
	TaskLists   tasklist.Repository
	Occurrences task.OccurrenceRepository
	Completions task.CompletionRepository
	Outbox      outbox.Repository
}

// RepositoryFactory creates repositories based on the database driver.
type RepositoryFactory struct {
	conn   database.Connection
	driver database.Driver
}

// NewRepositoryFactory creates a new repository factory.
func NewRepositoryFactory(conn database.Connection) *RepositoryFactory {
	return &RepositoryFactory{
		conn:   conn,
		driver: conn.Driver(),
	}
}

// Repositories creates the repositories for the configured driver.
func (f *RepositoryFactory) Repositories() (*Repositories, error) {
	switch f.driver {
	case database.DriverPostgres:
		return &Repositories{
			Tasks:       persistence.NewPostgresTaskRepository(f.conn),
			TaskLists:   persistence.NewPostgresTaskListRepository(f.conn),
			Occurrences: persistence.NewPostgresOccurrenceRepository(f.conn),
			Completions: persistence.NewPostgresCompletionRepository(f.conn),
			Outbox:      outbox.NewPostgresRepository(f.conn),
		}, nil

	case database.DriverSQLite:
		return &Repositories{
			Tasks:       persistence.NewSQLiteTaskRepository(f.conn),
			TaskLists:   persistence.NewSQLiteTaskListRepository(f.conn),
			Occurrences: persistence.NewSQLiteOccurrenceRepository(f.conn),
			Completions: persistence.NewSQLiteCompletionRepository(f.conn),
			Outbox:      outbox.NewSQLiteRepository(f.conn),
		}, nil

	default:
		return nil, fmt.Errorf("unsupported driver: %s", f.driver)
	}
}

// Driver returns the database driver.
func (f *RepositoryFactory) Driver() database.Driver {
	return f.driver
}

// Connection returns the underlying connection.
func (f *RepositoryFactory) Connection() database.Connection {
	return f.conn
}
