package services

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/felixgeelhaar/recurra/internal/tasks/domain/recurrence"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/task"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

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

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func recurringTask(t *testing.T, rule recurrence.Rule, due time.Time) *task.Task {
	t.Helper()
	tk, err := task.NewTask(uuid.New(), uuid.New(), "Water plants", &due, &rule)
	require.NoError(t, err)
	tk.ClearDomainEvents()
	return tk
}

func newMaterializer(repo task.OccurrenceRepository, cfg MaterializeConfig) *OccurrenceMaterializer {
	return NewOccurrenceMaterializer(repo, recurrence.NewGenerator(nil), cfg, nil)
}

func TestOccurrenceMaterializer_Materialize(t *testing.T) {
	ctx := context.Background()
	repo := newMemOccurrenceRepo()
	m := newMaterializer(repo, MaterializeConfig{HorizonDays: 30, Count: 5})
	tk := recurringTask(t, recurrence.MustRule(recurrence.NewDailyRule(2)), d(2025, 1, 1))

	created, err := m.Materialize(ctx, tk, d(2025, 3, 2))
	require.NoError(t, err)
	assert.Equal(t, 5, created)

	all, _ := repo.Find(ctx, task.OccurrenceFilter{})
	require.Len(t, all, 5)
	assert.Equal(t, d(2025, 3, 2), all[0].DueDate())
	assert.Equal(t, d(2025, 3, 10), all[4].DueDate())

	events := tk.DomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, task.RoutingKeyMaterialized, events[0].RoutingKey())

	t.Run("rerun is idempotent", func(t *testing.T) {
		tk.ClearDomainEvents()
		created, err := m.Materialize(ctx, tk, d(2025, 3, 2))
		require.NoError(t, err)
		assert.Zero(t, created)
		assert.Empty(t, tk.DomainEvents())
	})

	t.Run("completion makes room for one more", func(t *testing.T) {
		first := all[0]
		_, err := first.Complete(uuid.New(), time.Now())
		require.NoError(t, err)

		created, err := m.Materialize(ctx, tk, d(2025, 3, 2))
		require.NoError(t, err)
		assert.Equal(t, 1, created)
		_, err = repo.FindByID(ctx, task.OccurrenceID(tk.ID(), d(2025, 3, 12)))
		assert.NoError(t, err)
	})
}

func TestOccurrenceMaterializer_HorizonBound(t *testing.T) {
	ctx := context.Background()
	repo := newMemOccurrenceRepo()
	m := newMaterializer(repo, MaterializeConfig{HorizonDays: 14})
	tk := recurringTask(t, recurrence.MustRule(recurrence.NewWeeklyRule(1, time.Monday)), d(2025, 3, 3))

	created, err := m.Materialize(ctx, tk, d(2025, 3, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, created)
	assert.Equal(t, d(2025, 3, 17), m.Horizon(d(2025, 3, 3)))
}

func TestOccurrenceMaterializer_OneOffTask(t *testing.T) {
	ctx := context.Background()
	repo := newMemOccurrenceRepo()
	m := newMaterializer(repo, DefaultMaterializeConfig())

	due := d(2024, 12, 24)
	tk, err := task.NewTask(uuid.New(), uuid.New(), "Buy gifts", &due, nil)
	require.NoError(t, err)

	created, err := m.Materialize(ctx, tk, d(2025, 3, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	_, err = repo.FindByID(ctx, task.OccurrenceID(tk.ID(), due))
	assert.NoError(t, err)
}

func TestOccurrenceMaterializer_Rematerialize(t *testing.T) {
	ctx := context.Background()
	repo := newMemOccurrenceRepo()
	m := newMaterializer(repo, MaterializeConfig{HorizonDays: 30, Count: 3})
	today := d(2025, 3, 3)
	tk := recurringTask(t, recurrence.MustRule(recurrence.NewDailyRule(1)), today)

	_, err := m.Materialize(ctx, tk, today)
	require.NoError(t, err)
	done, err := repo.FindByID(ctx, task.OccurrenceID(tk.ID(), today))
	require.NoError(t, err)
	_, err = done.Complete(uuid.New(), time.Now())
	require.NoError(t, err)

	require.NoError(t, tk.SetRecurrence(recurrence.MustRule(recurrence.NewWeeklyRule(1, time.Friday))))
	removed, created, err := m.Rematerialize(ctx, tk, today)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)
	assert.Equal(t, 4, created)

	all, _ := repo.Find(ctx, task.OccurrenceFilter{TaskID: ptr(tk.ID())})
	require.Len(t, all, 5)
	assert.True(t, all[0].IsCompleted())
	assert.Equal(t, d(2025, 3, 7), all[1].DueDate())
}

func ptr[T any](v T) *T { return &v }
