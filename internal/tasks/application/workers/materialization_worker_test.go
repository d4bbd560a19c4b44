package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/felixgeelhaar/recurra/internal/tasks/application/commands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockMaterializer struct {
	mock.Mock
}

func (m *mockMaterializer) Handle(ctx context.Context, cmd commands.MaterializeOccurrencesCommand) (*commands.MaterializeOccurrencesResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commands.MaterializeOccurrencesResult), args.Error(1)
}

func TestMaterializationWorker_RunOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("records success", func(t *testing.T) {
		m := new(mockMaterializer)
		m.On("Handle", ctx, mock.MatchedBy(func(cmd commands.MaterializeOccurrencesCommand) bool {
			return cmd.TaskID == nil
		})).Return(&commands.MaterializeOccurrencesResult{TasksProcessed: 2, Created: 5}, nil)

		w := NewMaterializationWorker(m, DefaultMaterializationWorkerConfig(), nil)
		w.RunOnce(ctx)

		status := w.Status()
		assert.Equal(t, 1, status.RunCount)
		assert.Empty(t, status.LastErr)
		assert.False(t, status.LastRun.IsZero())
	})

	t.Run("records failure", func(t *testing.T) {
		m := new(mockMaterializer)
		m.On("Handle", ctx, mock.Anything).Return(nil, errors.New("db down"))

		w := NewMaterializationWorker(m, DefaultMaterializationWorkerConfig(), nil)
		w.RunOnce(ctx)

		assert.Equal(t, "db down", w.Status().LastErr)
	})
}

func TestMaterializationWorker_Run(t *testing.T) {
	m := new(mockMaterializer)
	m.On("Handle", mock.Anything, mock.Anything).Return(&commands.MaterializeOccurrencesResult{}, nil)

	var jobRuns atomic.Int32
	job := Job{
		Name:     "tick",
		Schedule: "@every 1s",
		Run: func(context.Context) error {
			jobRuns.Add(1)
			return errors.New("ignored")
		},
	}

	w := NewMaterializationWorker(m, DefaultMaterializationWorkerConfig(), nil, job)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	assert.Eventually(t, w.IsRunning, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return jobRuns.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	assert.Equal(t, 1, w.Status().RunCount)

	cancel()
	require.NoError(t, <-done)
	assert.False(t, w.IsRunning())
}

func TestMaterializationWorker_InvalidSchedule(t *testing.T) {
	w := NewMaterializationWorker(new(mockMaterializer), MaterializationWorkerConfig{Schedule: "not a schedule"}, nil)
	err := w.Run(context.Background())
	assert.ErrorContains(t, err, "schedule materialization")
}
