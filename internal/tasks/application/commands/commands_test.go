package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/recurra/internal/tasks/application/services"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/recurrence"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/task"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/tasklist"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newMaterializer(repo task.OccurrenceRepository) *services.OccurrenceMaterializer {
	return services.NewOccurrenceMaterializer(repo, recurrence.NewGenerator(nil),
		services.MaterializeConfig{HorizonDays: 30, Count: 4}, nil)
}

func TestCreateTaskListHandler_Handle(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("creates list owned by caller", func(t *testing.T) {
		repo := new(mockListRepo)
		outbox := new(mockOutbox)
		uow := &passthroughUnitOfWork{}
		repo.On("Save", ctx, mock.MatchedBy(func(l *tasklist.TaskList) bool {
			role, ok := l.RoleOf(userID)
			return l.Name() == "Groceries" && ok && role == tasklist.RoleOwner
		})).Return(nil)
		outbox.On("Record", ctx, mock.Anything).Return(nil)

		result, err := NewCreateTaskListHandler(repo, outbox, uow).Handle(ctx, CreateTaskListCommand{
			UserID: userID,
			Name:   "Groceries",
		})

		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, result.ListID)
		assert.Equal(t, []string{tasklist.RoutingKeyCreated}, outbox.recordedKeys())
		assert.Equal(t, 1, uow.commits)
		repo.AssertExpectations(t)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewCreateTaskListHandler(new(mockListRepo), new(mockOutbox), &passthroughUnitOfWork{}).
			Handle(ctx, CreateTaskListCommand{UserID: userID, Name: "  "})
		assert.ErrorIs(t, err, tasklist.ErrEmptyName)
	})
}

func TestCreateTaskHandler_Handle(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	list, err := tasklist.NewTaskList(userID, "Home", "")
	require.NoError(t, err)
	today := d(2025, 3, 3)

	setup := func() (*mockTaskRepo, *mockListRepo, *memOccurrenceRepo, *mockOutbox, *passthroughUnitOfWork, *CreateTaskHandler) {
		taskRepo := new(mockTaskRepo)
		listRepo := new(mockListRepo)
		occRepo := newMemOccurrenceRepo()
		outbox := new(mockOutbox)
		uow := &passthroughUnitOfWork{}
		h := NewCreateTaskHandler(taskRepo, listRepo, newMaterializer(occRepo), outbox, uow, fixedClock(today))
		listRepo.On("FindByID", ctx, list.ID()).Return(list, nil)
		outbox.On("Record", ctx, mock.Anything).Return(nil)
		return taskRepo, listRepo, occRepo, outbox, uow, h
	}

	t.Run("recurring task materializes window", func(t *testing.T) {
		taskRepo, _, occRepo, outbox, uow, h := setup()
		taskRepo.On("Save", ctx, mock.AnythingOfType("*task.Task")).Return(nil)

		due := today
		result, err := h.Handle(ctx, CreateTaskCommand{
			UserID:      userID,
			ListID:      list.ID(),
			Title:       "Standup",
			Description: "daily sync",
			DueDate:     &due,
			Recurrence:  &recurrence.RuleSpec{Frequency: recurrence.FrequencyWeekly, Interval: 1, DaysOfWeek: []int{1, 3}},
		})

		require.NoError(t, err)
		assert.Equal(t, 4, result.Materialized)
		assert.False(t, result.Unproducible)
		occs := occRepo.forTask(result.TaskID)
		require.Len(t, occs, 4)
		assert.Equal(t, d(2025, 3, 3), occs[0].DueDate())
		assert.Equal(t, d(2025, 3, 5), occs[1].DueDate())
		assert.Equal(t, []string{task.RoutingKeyCreated, task.RoutingKeyMaterialized}, outbox.recordedKeys())
		assert.Equal(t, 1, uow.commits)
	})

	t.Run("rule that never fires is flagged", func(t *testing.T) {
		taskRepo, _, occRepo, _, _, h := setup()
		taskRepo.On("Save", ctx, mock.AnythingOfType("*task.Task")).Return(nil)

		due := d(2025, 2, 1)
		result, err := h.Handle(ctx, CreateTaskCommand{
			UserID:     userID,
			ListID:     list.ID(),
			Title:      "Leap paperwork",
			DueDate:    &due,
			Recurrence: &recurrence.RuleSpec{Frequency: recurrence.FrequencyMonthly, Interval: 12, DaysOfMonth: []int{31}},
		})

		require.NoError(t, err)
		assert.True(t, result.Unproducible)
		assert.Zero(t, result.Materialized)
		assert.Empty(t, occRepo.forTask(result.TaskID))
	})

	t.Run("one-off task needs due date", func(t *testing.T) {
		_, _, _, _, _, h := setup()
		_, err := h.Handle(ctx, CreateTaskCommand{UserID: userID, ListID: list.ID(), Title: "Call mom"})
		assert.ErrorIs(t, err, task.ErrMissingDueDate)
	})

	t.Run("invalid rule is rejected before saving", func(t *testing.T) {
		taskRepo, _, _, _, _, h := setup()
		_, err := h.Handle(ctx, CreateTaskCommand{
			UserID:     userID,
			ListID:     list.ID(),
			Title:      "Bad",
			Recurrence: &recurrence.RuleSpec{Frequency: recurrence.FrequencyDaily, Interval: 0},
		})
		assert.ErrorIs(t, err, recurrence.ErrInvalidRule)
		taskRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("non-member is refused", func(t *testing.T) {
		taskRepo, _, _, _, uow, h := setup()
		due := today
		_, err := h.Handle(ctx, CreateTaskCommand{UserID: uuid.New(), ListID: list.ID(), Title: "Sneaky", DueDate: &due})
		assert.ErrorIs(t, err, tasklist.ErrNotMember)
		assert.Equal(t, 1, uow.rollbacks)
		taskRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("unknown list", func(t *testing.T) {
		_, listRepo, _, _, _, h := setup()
		missing := uuid.New()
		listRepo.On("FindByID", ctx, missing).Return(nil, tasklist.ErrTaskListNotFound)
		due := today
		_, err := h.Handle(ctx, CreateTaskCommand{UserID: userID, ListID: missing, Title: "x", DueDate: &due})
		assert.ErrorIs(t, err, tasklist.ErrTaskListNotFound)
	})
}

func recurringTask(t *testing.T, rule recurrence.Rule, due time.Time) *task.Task {
	t.Helper()
	tk, err := task.NewTask(uuid.New(), uuid.New(), "Water plants", &due, &rule)
	require.NoError(t, err)
	tk.ClearDomainEvents()
	return tk
}

func TestUpdateRecurrenceHandler_Handle(t *testing.T) {
	ctx := context.Background()
	today := d(2025, 3, 3)

	t.Run("replaces rule and regenerates open occurrences", func(t *testing.T) {
		tk := recurringTask(t, recurrence.MustRule(recurrence.NewDailyRule(1)), today)
		taskRepo := new(mockTaskRepo)
		occRepo := newMemOccurrenceRepo()
		outbox := new(mockOutbox)
		m := newMaterializer(occRepo)
		_, err := m.Materialize(ctx, tk, today)
		require.NoError(t, err)
		tk.ClearDomainEvents()

		taskRepo.On("FindByID", ctx, tk.ID()).Return(tk, nil)
		taskRepo.On("Save", ctx, tk).Return(nil)
		outbox.On("Record", ctx, mock.Anything).Return(nil)

		h := NewUpdateRecurrenceHandler(taskRepo, m, outbox, &passthroughUnitOfWork{}, fixedClock(today))
		result, err := h.Handle(ctx, UpdateRecurrenceCommand{
			TaskID:     tk.ID(),
			Recurrence: &recurrence.RuleSpec{Frequency: recurrence.FrequencyMonthly, Interval: 1, DaysOfMonth: []int{15}},
		})

		require.NoError(t, err)
		assert.Equal(t, "Every month on the 15th", result.Description)
		assert.Equal(t, int64(4), result.Removed)
		assert.Equal(t, 1, result.Materialized)
		occs := occRepo.forTask(tk.ID())
		require.Len(t, occs, 1)
		assert.Equal(t, d(2025, 3, 15), occs[0].DueDate())
		assert.Equal(t, []string{task.RoutingKeyRecurrenceChanged, task.RoutingKeyMaterialized}, outbox.recordedKeys())
	})

	t.Run("clearing makes the task one-off", func(t *testing.T) {
		tk := recurringTask(t, recurrence.MustRule(recurrence.NewDailyRule(1)), today)
		taskRepo := new(mockTaskRepo)
		occRepo := newMemOccurrenceRepo()
		outbox := new(mockOutbox)
		taskRepo.On("FindByID", ctx, tk.ID()).Return(tk, nil)
		taskRepo.On("Save", ctx, tk).Return(nil)
		outbox.On("Record", ctx, mock.Anything).Return(nil)

		h := NewUpdateRecurrenceHandler(taskRepo, newMaterializer(occRepo), outbox, &passthroughUnitOfWork{}, fixedClock(today))
		result, err := h.Handle(ctx, UpdateRecurrenceCommand{TaskID: tk.ID()})

		require.NoError(t, err)
		assert.False(t, tk.IsRecurring())
		assert.Empty(t, result.Description)
		assert.Equal(t, 1, result.Materialized)
	})

	t.Run("clearing drops past occurrences of the old rule", func(t *testing.T) {
		anchor := d(2025, 3, 1)
		tk := recurringTask(t, recurrence.MustRule(recurrence.NewDailyRule(1)), anchor)
		taskRepo := new(mockTaskRepo)
		occRepo := newMemOccurrenceRepo()
		outbox := new(mockOutbox)
		m := newMaterializer(occRepo)
		_, err := m.Materialize(ctx, tk, anchor)
		require.NoError(t, err)
		first := occRepo.forTask(tk.ID())[0]
		_, err = first.Complete(uuid.New(), anchor)
		require.NoError(t, err)
		tk.ClearDomainEvents()

		taskRepo.On("FindByID", ctx, tk.ID()).Return(tk, nil)
		taskRepo.On("Save", ctx, tk).Return(nil)
		outbox.On("Record", ctx, mock.Anything).Return(nil)

		h := NewUpdateRecurrenceHandler(taskRepo, m, outbox, &passthroughUnitOfWork{}, fixedClock(today))
		result, err := h.Handle(ctx, UpdateRecurrenceCommand{TaskID: tk.ID()})

		require.NoError(t, err)
		assert.False(t, tk.IsRecurring())
		assert.Equal(t, int64(3), result.Removed)
		occs := occRepo.forTask(tk.ID())
		require.Len(t, occs, 1)
		assert.Equal(t, anchor, occs[0].DueDate())
		assert.True(t, occs[0].IsCompleted())
	})

	t.Run("missing task", func(t *testing.T) {
		taskRepo := new(mockTaskRepo)
		id := uuid.New()
		taskRepo.On("FindByID", ctx, id).Return(nil, task.ErrTaskNotFound)

		h := NewUpdateRecurrenceHandler(taskRepo, newMaterializer(newMemOccurrenceRepo()), new(mockOutbox), &passthroughUnitOfWork{}, nil)
		_, err := h.Handle(ctx, UpdateRecurrenceCommand{TaskID: id})
		assert.ErrorIs(t, err, task.ErrTaskNotFound)
	})
}

func TestToggleOccurrenceHandler_Handle(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	now := time.Date(2025, 3, 3, 9, 30, 0, 0, time.UTC)

	occRepo := newMemOccurrenceRepo()
	occ := task.NewOccurrence(uuid.New(), d(2025, 3, 3))
	require.NoError(t, occRepo.Save(ctx, occ))

	completions := new(mockCompletionRepo)
	completions.On("Append", ctx, mock.MatchedBy(func(c *task.Completion) bool {
		return c.OccurrenceID() == occ.ID() && c.UserID() == userID && c.CompletedAt().Equal(now)
	})).Return(nil).Once()
	outbox := new(mockOutbox)
	outbox.On("Record", ctx, mock.Anything).Return(nil)

	h := NewToggleOccurrenceHandler(occRepo, completions, outbox, &passthroughUnitOfWork{}, fixedClock(now))

	result, err := h.Handle(ctx, ToggleOccurrenceCommand{UserID: userID, OccurrenceID: occ.ID()})
	require.NoError(t, err)
	assert.True(t, result.Completed)
	require.NotNil(t, result.CompletedAt)
	assert.Equal(t, now, *result.CompletedAt)

	result, err = h.Handle(ctx, ToggleOccurrenceCommand{UserID: userID, OccurrenceID: occ.ID()})
	require.NoError(t, err)
	assert.False(t, result.Completed)
	assert.Nil(t, result.CompletedAt)

	completions.AssertNumberOfCalls(t, "Append", 1)
	assert.Equal(t, []string{task.RoutingKeyOccurrenceCompleted, task.RoutingKeyOccurrenceReopened}, outbox.recordedKeys())

	_, err = h.Handle(ctx, ToggleOccurrenceCommand{UserID: userID, OccurrenceID: uuid.New()})
	assert.ErrorIs(t, err, task.ErrOccurrenceNotFound)
}

func TestToggleOccurrenceHandler_ExplicitState(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	now := time.Date(2025, 3, 3, 9, 30, 0, 0, time.UTC)

	occRepo := newMemOccurrenceRepo()
	occ := task.NewOccurrence(uuid.New(), d(2025, 3, 3))
	require.NoError(t, occRepo.Save(ctx, occ))

	completions := new(mockCompletionRepo)
	completions.On("Append", ctx, mock.Anything).Return(nil)
	outbox := new(mockOutbox)
	outbox.On("Record", ctx, mock.Anything).Return(nil)

	h := NewToggleOccurrenceHandler(occRepo, completions, outbox, &passthroughUnitOfWork{}, fixedClock(now))
	complete, reopen := true, false

	_, err := h.Handle(ctx, ToggleOccurrenceCommand{UserID: userID, OccurrenceID: occ.ID(), Complete: &reopen})
	assert.ErrorIs(t, err, task.ErrNotCompleted)

	result, err := h.Handle(ctx, ToggleOccurrenceCommand{UserID: userID, OccurrenceID: occ.ID(), Complete: &complete})
	require.NoError(t, err)
	assert.True(t, result.Completed)

	_, err = h.Handle(ctx, ToggleOccurrenceCommand{UserID: userID, OccurrenceID: occ.ID(), Complete: &complete})
	assert.ErrorIs(t, err, task.ErrAlreadyCompleted)

	result, err = h.Handle(ctx, ToggleOccurrenceCommand{UserID: userID, OccurrenceID: occ.ID(), Complete: &reopen})
	require.NoError(t, err)
	assert.False(t, result.Completed)
	completions.AssertNumberOfCalls(t, "Append", 1)
}

func TestMaterializeOccurrencesHandler_Handle(t *testing.T) {
	ctx := context.Background()
	today := d(2025, 3, 3)

	good := recurringTask(t, recurrence.MustRule(recurrence.NewDailyRule(1)), today)
	broken := recurringTask(t, recurrence.MustRule(recurrence.NewDailyRule(1)), today)

	taskRepo := new(mockTaskRepo)
	taskRepo.On("FindRecurring", ctx).Return([]*task.Task{good, broken}, nil)
	taskRepo.On("FindByID", ctx, good.ID()).Return(good, nil)
	taskRepo.On("FindByID", ctx, broken.ID()).Return(nil, errors.New("corrupt row"))
	occRepo := newMemOccurrenceRepo()
	outbox := new(mockOutbox)
	outbox.On("Record", ctx, mock.Anything).Return(nil)
	uow := &passthroughUnitOfWork{}

	h := NewMaterializeOccurrencesHandler(taskRepo, newMaterializer(occRepo), outbox, uow, fixedClock(today), nil)

	t.Run("all recurring tasks", func(t *testing.T) {
		result, err := h.Handle(ctx, MaterializeOccurrencesCommand{})
		require.NoError(t, err)
		assert.Equal(t, 2, result.TasksProcessed)
		assert.Equal(t, 4, result.Created)
		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, d(2025, 4, 2), result.Through)
		assert.Equal(t, 1, uow.rollbacks)
	})

	t.Run("rerun creates nothing", func(t *testing.T) {
		result, err := h.Handle(ctx, MaterializeOccurrencesCommand{TaskID: ptr(good.ID())})
		require.NoError(t, err)
		assert.Equal(t, 1, result.TasksProcessed)
		assert.Zero(t, result.Created)
	})

	t.Run("explicit day moves the window", func(t *testing.T) {
		result, err := h.Handle(ctx, MaterializeOccurrencesCommand{TaskID: ptr(good.ID()), Today: d(2025, 3, 5)})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Created)
	})

	t.Run("single task error surfaces", func(t *testing.T) {
		_, err := h.Handle(ctx, MaterializeOccurrencesCommand{TaskID: ptr(broken.ID())})
		assert.EqualError(t, err, "corrupt row")
	})
}

func ptr[T any](v T) *T { return &v }

func TestUpdateTaskHandler_Handle(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	list, err := tasklist.NewTaskList(userID, "Home", "")
	require.NoError(t, err)
	today := d(2025, 3, 3)
	title := func(s string) *string { return &s }

	setup := func(tk *task.Task) (*mockTaskRepo, *memOccurrenceRepo, *mockOutbox, *UpdateTaskHandler) {
		taskRepo := new(mockTaskRepo)
		listRepo := new(mockListRepo)
		occRepo := newMemOccurrenceRepo()
		outbox := new(mockOutbox)
		taskRepo.On("FindByID", ctx, tk.ID()).Return(tk, nil)
		taskRepo.On("Save", ctx, tk).Return(nil)
		listRepo.On("FindByID", ctx, list.ID()).Return(list, nil)
		outbox.On("Record", ctx, mock.Anything).Return(nil)
		h := NewUpdateTaskHandler(taskRepo, listRepo, newMaterializer(occRepo), outbox, &passthroughUnitOfWork{}, fixedClock(today))
		return taskRepo, occRepo, outbox, h
	}

	t.Run("rename keeps occurrences", func(t *testing.T) {
		due := today
		tk, err := task.NewTask(list.ID(), userID, "Pay rent", &due, nil)
		require.NoError(t, err)
		tk.ClearDomainEvents()
		_, occRepo, outbox, h := setup(tk)
		_, err = newMaterializer(occRepo).Materialize(ctx, tk, today)
		require.NoError(t, err)
		tk.ClearDomainEvents()

		result, err := h.Handle(ctx, UpdateTaskCommand{UserID: userID, TaskID: tk.ID(), Title: title("Pay the rent")})

		require.NoError(t, err)
		assert.False(t, result.DueChanged)
		assert.Equal(t, "Pay the rent", tk.Title())
		assert.Len(t, occRepo.forTask(tk.ID()), 1)
		assert.Equal(t, []string{task.RoutingKeyUpdated}, outbox.recordedKeys())
	})

	t.Run("moving a one-off due date moves its occurrence", func(t *testing.T) {
		due := today
		tk, err := task.NewTask(list.ID(), userID, "Dentist", &due, nil)
		require.NoError(t, err)
		_, occRepo, _, h := setup(tk)
		_, err = newMaterializer(occRepo).Materialize(ctx, tk, today)
		require.NoError(t, err)
		tk.ClearDomainEvents()

		moved := d(2025, 3, 10)
		result, err := h.Handle(ctx, UpdateTaskCommand{UserID: userID, TaskID: tk.ID(), DueDate: &moved})

		require.NoError(t, err)
		assert.True(t, result.DueChanged)
		assert.Equal(t, int64(1), result.Removed)
		assert.Equal(t, 1, result.Materialized)
		occs := occRepo.forTask(tk.ID())
		require.Len(t, occs, 1)
		assert.Equal(t, moved, occs[0].DueDate())
	})

	t.Run("moving the anchor regenerates a recurring task", func(t *testing.T) {
		rule := recurrence.MustRule(recurrence.NewDailyRule(7))
		due := today
		tk, err := task.NewTask(list.ID(), userID, "Water plants", &due, &rule)
		require.NoError(t, err)
		_, occRepo, _, h := setup(tk)
		_, err = newMaterializer(occRepo).Materialize(ctx, tk, today)
		require.NoError(t, err)
		tk.ClearDomainEvents()

		anchor := d(2025, 3, 5)
		result, err := h.Handle(ctx, UpdateTaskCommand{UserID: userID, TaskID: tk.ID(), DueDate: &anchor})

		require.NoError(t, err)
		assert.Equal(t, int64(4), result.Removed)
		occs := occRepo.forTask(tk.ID())
		require.Len(t, occs, 4)
		assert.Equal(t, anchor, occs[0].DueDate())
		assert.Equal(t, d(2025, 3, 12), occs[1].DueDate())
	})

	t.Run("non-member is refused", func(t *testing.T) {
		due := today
		tk, err := task.NewTask(list.ID(), userID, "Dentist", &due, nil)
		require.NoError(t, err)
		taskRepo, _, _, h := setup(tk)

		_, err = h.Handle(ctx, UpdateTaskCommand{UserID: uuid.New(), TaskID: tk.ID(), Title: title("Mine now")})
		assert.ErrorIs(t, err, tasklist.ErrNotMember)
		assert.Equal(t, "Dentist", tk.Title())
		taskRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("one-off cannot lose its due date", func(t *testing.T) {
		due := today
		tk, err := task.NewTask(list.ID(), userID, "Dentist", &due, nil)
		require.NoError(t, err)
		_, _, _, h := setup(tk)

		_, err = h.Handle(ctx, UpdateTaskCommand{UserID: userID, TaskID: tk.ID(), ClearDueDate: true})
		assert.ErrorIs(t, err, task.ErrMissingDueDate)
	})
}

func TestUpdateTaskListHandler_Handle(t *testing.T) {
	ctx := context.Background()
	owner, member := uuid.New(), uuid.New()
	list, err := tasklist.NewTaskList(owner, "Home", "")
	require.NoError(t, err)
	require.NoError(t, list.AddMember(member, tasklist.RoleMember))
	list.ClearDomainEvents()

	listRepo := new(mockListRepo)
	listRepo.On("FindByID", ctx, list.ID()).Return(list, nil)
	listRepo.On("Save", ctx, list).Return(nil)
	outbox := new(mockOutbox)
	outbox.On("Record", ctx, mock.Anything).Return(nil)
	h := NewUpdateTaskListHandler(listRepo, outbox, &passthroughUnitOfWork{})

	name := "Household"
	require.NoError(t, h.Handle(ctx, UpdateTaskListCommand{UserID: owner, ListID: list.ID(), Name: &name}))
	assert.Equal(t, "Household", list.Name())
	assert.Equal(t, []string{tasklist.RoutingKeyUpdated}, outbox.recordedKeys())

	other := "Mine"
	err = h.Handle(ctx, UpdateTaskListCommand{UserID: member, ListID: list.ID(), Name: &other})
	assert.ErrorIs(t, err, tasklist.ErrNotPermitted)
	assert.Equal(t, "Household", list.Name())
}

func TestListMemberHandlers(t *testing.T) {
	ctx := context.Background()
	owner, alice, bob := uuid.New(), uuid.New(), uuid.New()
	list, err := tasklist.NewTaskList(owner, "Team", "")
	require.NoError(t, err)
	list.ClearDomainEvents()

	listRepo := new(mockListRepo)
	listRepo.On("FindByID", ctx, list.ID()).Return(list, nil)
	listRepo.On("Save", ctx, list).Return(nil)
	outbox := new(mockOutbox)
	outbox.On("Record", ctx, mock.Anything).Return(nil)
	add := NewAddListMemberHandler(listRepo, outbox, &passthroughUnitOfWork{})
	remove := NewRemoveListMemberHandler(listRepo, outbox, &passthroughUnitOfWork{})

	require.NoError(t, add.Handle(ctx, AddListMemberCommand{UserID: owner, ListID: list.ID(), MemberID: alice}))
	role, ok := list.RoleOf(alice)
	require.True(t, ok)
	assert.Equal(t, tasklist.RoleMember, role)

	err = add.Handle(ctx, AddListMemberCommand{UserID: alice, ListID: list.ID(), MemberID: bob})
	assert.ErrorIs(t, err, tasklist.ErrNotPermitted)
	assert.False(t, list.IsMember(bob))

	err = add.Handle(ctx, AddListMemberCommand{UserID: owner, ListID: list.ID(), MemberID: bob, Role: "guest"})
	assert.ErrorIs(t, err, tasklist.ErrInvalidRole)

	require.NoError(t, add.Handle(ctx, AddListMemberCommand{UserID: owner, ListID: list.ID(), MemberID: bob, Role: tasklist.RoleAdmin}))

	err = remove.Handle(ctx, RemoveListMemberCommand{UserID: alice, ListID: list.ID(), MemberID: bob})
	assert.ErrorIs(t, err, tasklist.ErrNotPermitted)

	require.NoError(t, remove.Handle(ctx, RemoveListMemberCommand{UserID: alice, ListID: list.ID(), MemberID: alice}))
	assert.False(t, list.IsMember(alice))

	err = remove.Handle(ctx, RemoveListMemberCommand{UserID: bob, ListID: list.ID(), MemberID: owner})
	assert.ErrorIs(t, err, tasklist.ErrLastOwner)

	assert.Equal(t, []string{
		tasklist.RoutingKeyMemberAdded,
		tasklist.RoutingKeyMemberAdded,
		tasklist.RoutingKeyMemberRemoved,
	}, outbox.recordedKeys())
}
