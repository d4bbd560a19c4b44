package persistence_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/felixgeelhaar/recurra/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/recurra/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/recurra/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/recurrence"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/task"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/tasklist"
	"github.com/felixgeelhaar/recurra/internal/tasks/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSQLite(t *testing.T) database.Connection {
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

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func saveList(t *testing.T, conn database.Connection, owner uuid.UUID) *tasklist.TaskList {
	t.Helper()
	list, err := tasklist.NewTaskList(owner, "Household", "chores")
	require.NoError(t, err)
	require.NoError(t, persistence.NewSQLiteTaskListRepository(conn).Save(context.Background(), list))
	return list
}

func TestSQLiteTaskListRepository_Members(t *testing.T) {
	ctx := context.Background()
	conn := setupSQLite(t)
	repo := persistence.NewSQLiteTaskListRepository(conn)

	owner, member := uuid.New(), uuid.New()
	list := saveList(t, conn, owner)
	require.NoError(t, list.AddMember(member, tasklist.RoleMember))
	require.NoError(t, repo.Save(ctx, list))

	found, err := repo.FindByID(ctx, list.ID())
	require.NoError(t, err)
	assert.Equal(t, "Household", found.Name())
	assert.Equal(t, "chores", found.Description())
	role, ok := found.RoleOf(member)
	require.True(t, ok)
	assert.Equal(t, tasklist.RoleMember, role)

	lists, err := repo.FindByMember(ctx, member)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, list.ID(), lists[0].ID())
	assert.Len(t, lists[0].Members(), 2)

	require.NoError(t, found.RemoveMember(member))
	require.NoError(t, repo.Save(ctx, found))
	lists, err = repo.FindByMember(ctx, member)
	require.NoError(t, err)
	assert.Empty(t, lists)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, tasklist.ErrTaskListNotFound)
}

func TestSQLiteTaskRepository_RoundTripsRules(t *testing.T) {
	ctx := context.Background()
	conn := setupSQLite(t)
	owner := uuid.New()
	list := saveList(t, conn, owner)
	repo := persistence.NewSQLiteTaskRepository(conn)

	start := d(2025, 3, 1)
	rules := []recurrence.Rule{
		recurrence.MustRule(recurrence.NewDailyRule(3)),
		recurrence.MustRule(recurrence.NewWeeklyRule(2, time.Monday, time.Friday)),
		recurrence.MustRule(recurrence.NewMonthlyRule(1, []int{1, 15},
			[]recurrence.OrdinalWeekday{{Ordinal: 2, Weekday: time.Tuesday}})),
		recurrence.MustRule(recurrence.NewYearlyRule(1, []time.Month{time.February}, []int{29})),
	}
	for _, rule := range rules {
		rule := rule
		tk, err := task.NewTask(list.ID(), owner, "Recurring "+string(rule.Frequency()), &start, &rule)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, tk))

		found, err := repo.FindByID(ctx, tk.ID())
		require.NoError(t, err)
		got, ok := found.Rule()
		require.True(t, ok)
		assert.True(t, rule.Equal(got), "rule %s", recurrence.Describe(rule))
		require.NotNil(t, found.DueDate())
		assert.Equal(t, start, *found.DueDate())
		assert.Equal(t, tk.Title(), found.Title())
		assert.Equal(t, owner, found.CreatedBy())
		assert.WithinDuration(t, tk.CreatedAt(), found.CreatedAt(), time.Millisecond)
	}
}

func TestSQLiteTaskRepository_Queries(t *testing.T) {
	ctx := context.Background()
	conn := setupSQLite(t)
	owner := uuid.New()
	list := saveList(t, conn, owner)
	repo := persistence.NewSQLiteTaskRepository(conn)

	due := d(2025, 4, 1)
	oneOff, err := task.NewTask(list.ID(), owner, "File taxes", &due, nil)
	require.NoError(t, err)
	rule := recurrence.MustRule(recurrence.NewDailyRule(1))
	daily, err := task.NewTask(list.ID(), owner, "Water plants", nil, &rule)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, oneOff))
	require.NoError(t, repo.Save(ctx, daily))

	all, err := repo.FindByListID(ctx, list.ID())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	recurring, err := repo.FindRecurring(ctx)
	require.NoError(t, err)
	require.Len(t, recurring, 1)
	assert.Equal(t, daily.ID(), recurring[0].ID())
	assert.Nil(t, recurring[0].DueDate())

	found, err := repo.FindByID(ctx, oneOff.ID())
	require.NoError(t, err)
	assert.False(t, found.IsRecurring())

	weekly := recurrence.MustRule(recurrence.NewWeeklyRule(1, time.Tuesday))
	require.NoError(t, found.SetRecurrence(weekly))
	require.NoError(t, repo.Save(ctx, found))
	recurring, err = repo.FindRecurring(ctx)
	require.NoError(t, err)
	assert.Len(t, recurring, 2)

	require.NoError(t, repo.Delete(ctx, daily.ID()))
	_, err = repo.FindByID(ctx, daily.ID())
	assert.ErrorIs(t, err, task.ErrTaskNotFound)
}

func TestSQLiteOccurrenceRepository(t *testing.T) {
	ctx := context.Background()
	conn := setupSQLite(t)
	owner := uuid.New()
	list := saveList(t, conn, owner)

	start := d(2025, 3, 1)
	rule := recurrence.MustRule(recurrence.NewDailyRule(1))
	tk, err := task.NewTask(list.ID(), owner, "Stretch", &start, &rule)
	require.NoError(t, err)
	require.NoError(t, persistence.NewSQLiteTaskRepository(conn).Save(ctx, tk))

	occurrences, err := tk.Occurrences(recurrence.NewGenerator(nil), recurrence.NextN(5))
	require.NoError(t, err)

	repo := persistence.NewSQLiteOccurrenceRepository(conn)
	n, err := repo.SaveNew(ctx, occurrences)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = repo.SaveNew(ctx, occurrences)
	require.NoError(t, err)
	assert.Zero(t, n)

	from, to := d(2025, 3, 2), d(2025, 3, 3)
	window, err := repo.Find(ctx, task.OccurrenceFilter{ListID: ptr(list.ID()), From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, from, window[0].DueDate())
	assert.Equal(t, to, window[1].DueDate())

	user := uuid.New()
	occ, err := repo.FindByID(ctx, task.OccurrenceID(tk.ID(), d(2025, 3, 4)))
	require.NoError(t, err)
	completion, err := occ.Complete(user, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, occ))

	completions := persistence.NewSQLiteCompletionRepository(conn)
	require.NoError(t, completions.Append(ctx, completion))
	history, err := completions.FindByOccurrenceID(ctx, occ.ID())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, user, history[0].UserID())
	assert.Equal(t, tk.ID(), history[0].TaskID())

	reloaded, err := repo.FindByID(ctx, occ.ID())
	require.NoError(t, err)
	assert.True(t, reloaded.IsCompleted())
	require.NotNil(t, reloaded.CompletedAt())

	deleted, err := repo.DeleteOpenFrom(ctx, tk.ID(), d(2025, 3, 3))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	remaining, err := repo.Find(ctx, task.OccurrenceFilter{TaskID: ptr(tk.ID())})
	require.NoError(t, err)
	require.Len(t, remaining, 3)
	assert.Equal(t, d(2025, 3, 4), remaining[2].DueDate())

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, task.ErrOccurrenceNotFound)
}

func TestSQLiteRepositories_RollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	conn := setupSQLite(t)
	repo := persistence.NewSQLiteTaskListRepository(conn)
	uow := database.NewUnitOfWork(conn)

	list, err := tasklist.NewTaskList(uuid.New(), "Scratch", "")
	require.NoError(t, err)

	txCtx, err := uow.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.Save(txCtx, list))
	_, err = repo.FindByID(txCtx, list.ID())
	require.NoError(t, err)
	require.NoError(t, uow.Rollback(txCtx))

	_, err = repo.FindByID(ctx, list.ID())
	assert.ErrorIs(t, err, tasklist.ErrTaskListNotFound)
}

func ptr[T any](v T) *T { return &v }
