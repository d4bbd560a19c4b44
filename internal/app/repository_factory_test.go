package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/recurra/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/recurra/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/recurra/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/recurra/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/tasklist"
	"github.com/felixgeelhaar/recurra/internal/tasks/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) database.Connection {
	t.Helper()
	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "recurra.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, migrations.Run(ctx, conn))
	return conn
}

func TestRepositoryFactory_SQLite(t *testing.T) {
	conn := openSQLite(t)
	factory := NewRepositoryFactory(conn)

	assert.Equal(t, database.DriverSQLite, factory.Driver())
	assert.Same(t, conn, factory.Connection())

	repos, err := factory.Repositories()
	require.NoError(t, err)
	assert.IsType(t, &persistence.SQLiteTaskRepository{}, repos.Tasks)
	assert.IsType(t, &persistence.SQLiteTaskListRepository{}, repos.TaskLists)
	assert.IsType(t, &persistence.SQLiteOccurrenceRepository{}, repos.Occurrences)
	assert.IsType(t, &persistence.SQLiteCompletionRepository{}, repos.Completions)
	assert.IsType(t, &outbox.SQLiteRepository{}, repos.Outbox)
}

func TestRepositoryFactory_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repos, err := NewRepositoryFactory(openSQLite(t)).Repositories()
	require.NoError(t, err)

	owner := uuid.New()
	list, err := tasklist.NewTaskList(owner, "Chores", "")
	require.NoError(t, err)
	require.NoError(t, repos.TaskLists.Save(ctx, list))

	found, err := repos.TaskLists.FindByMember(ctx, owner)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Chores", found[0].Name())
}

type unknownConnection struct {
	database.Connection
}

func (unknownConnection) Driver() database.Driver { return "mysql" }

func TestRepositoryFactory_UnsupportedDriver(t *testing.T) {
	_, err := NewRepositoryFactory(unknownConnection{}).Repositories()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}
