package commands

import (
	"context"
	"sort"
	"time"

	"github.com/felixgeelhaar/recurra/internal/shared/domain"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/task"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/tasklist"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// mockTaskRepo is a mock implementation of task.Repository.
type mockTaskRepo struct {
	mock.Mock
}

func (m *mockTaskRepo) Save(ctx context.Context, t *task.Task) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockTaskRepo) FindByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*task.Task), args.Error(1)
}

func (m *mockTaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockTaskRepo) FindByListID(ctx context.Context, listID uuid.UUID) ([]*task.Task, error) {
	args := m.Called(ctx, listID)
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *mockTaskRepo) FindAll(ctx context.Context) ([]*task.Task, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*task.Task), args.Error(1)
}

func (m *mockTaskRepo) FindRecurring(ctx context.Context) ([]*task.Task, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*task.Task), args.Error(1)
}

// mockListRepo is a mock implementation of tasklist.Repository.
type mockListRepo struct {
	mock.Mock
}

func (m *mockListRepo) Save(ctx context.Context, l *tasklist.TaskList) error {
	return m.Called(ctx, l).Error(0)
}

func (m *mockListRepo) FindByID(ctx context.Context, id uuid.UUID) (*tasklist.TaskList, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tasklist.TaskList), args.Error(1)
}

func (m *mockListRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockListRepo) FindByMember(ctx context.Context, userID uuid.UUID) ([]*tasklist.TaskList, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]*tasklist.TaskList), args.Error(1)
}

// mockCompletionRepo is a mock implementation of task.CompletionRepository.
type mockCompletionRepo struct {
	mock.Mock
}

func (m *mockCompletionRepo) Append(ctx context.Context, c *task.Completion) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockCompletionRepo) FindByOccurrenceID(ctx context.Context, id uuid.UUID) ([]*task.Completion, error) {
	args := m.Called(ctx, id)
	return args.Get(0).([]*task.Completion), args.Error(1)
}

// mockOutbox is a mock implementation of application.EventOutbox.
type mockOutbox struct {
	mock.Mock
}

func (m *mockOutbox) Record(ctx context.Context, events []domain.DomainEvent) error {
	return m.Called(ctx, events).Error(0)
}

// recordedKeys returns the routing keys of every recorded event.
func (m *mockOutbox) recordedKeys() []string {
	var keys []string
	for _, call := range m.Calls {
		if call.Method != "Record" {
			continue
		}
		for _, ev := range call.Arguments.Get(1).([]domain.DomainEvent) {
			keys = append(keys, ev.RoutingKey())
		}
	}
	return keys
}

// passthroughUnitOfWork runs the function on the caller's context.
type passthroughUnitOfWork struct {
	commits, rollbacks int
}

func (u *passthroughUnitOfWork) Begin(ctx context.Context) (context.Context, error) { return ctx, nil }
func (u *passthroughUnitOfWork) Commit(context.Context) error                       { u.commits++; return nil }
func (u *passthroughUnitOfWork) Rollback(context.Context) error                     { u.rollbacks++; return nil }

// memOccurrenceRepo is an in-memory task.OccurrenceRepository.
type memOccurrenceRepo struct {
	items map[uuid.UUID]*task.Occurrence
}

func newMemOccurrenceRepo() *memOccurrenceRepo {
	return &memOccurrenceRepo{items: map[uuid.UUID]*task.Occurrence{}}
}

func (r *memOccurrenceRepo) Save(_ context.Context, o *task.Occurrence) error {
	r.items[o.ID()] = o
	return nil
}

func (r *memOccurrenceRepo) FindByID(_ context.Context, id uuid.UUID) (*task.Occurrence, error) {
	if o, ok := r.items[id]; ok {
		return o, nil
	}
	return nil, task.ErrOccurrenceNotFound
}

func (r *memOccurrenceRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.items, id)
	return nil
}

func (r *memOccurrenceRepo) SaveNew(_ context.Context, occurrences []*task.Occurrence) (int, error) {
	n := 0
	for _, o := range occurrences {
		if _, ok := r.items[o.ID()]; !ok {
			r.items[o.ID()] = o
			n++
		}
	}
	return n, nil
}

func (r *memOccurrenceRepo) Find(_ context.Context, f task.OccurrenceFilter) ([]*task.Occurrence, error) {
	var out []*task.Occurrence
	for _, o := range r.items {
		if f.TaskID != nil && o.TaskID() != *f.TaskID {
			continue
		}
		if f.From != nil && o.DueDate().Before(*f.From) {
			continue
		}
		if f.To != nil && o.DueDate().After(*f.To) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate().Before(out[j].DueDate()) })
	return out, nil
}

func (r *memOccurrenceRepo) DeleteOpenFrom(_ context.Context, taskID uuid.UUID, from time.Time) (int64, error) {
	var n int64
	for id, o := range r.items {
		if o.TaskID() == taskID && !o.IsCompleted() && !o.DueDate().Before(from) {
			delete(r.items, id)
			n++
		}
	}
	return n, nil
}

func (r *memOccurrenceRepo) forTask(taskID uuid.UUID) []*task.Occurrence {
	out, _ := r.Find(context.Background(), task.OccurrenceFilter{TaskID: &taskID})
	return out
}

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func fixedClock(t time.Time) domain.Clock {
	return func() time.Time { return t }
}
