// Package workers runs the scheduled jobs of the worker binary.
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/recurra/internal/tasks/application/commands"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// DefaultSchedule runs materialization shortly after midnight UTC.
const DefaultSchedule = "5 0 * * *"

// Materializer runs a materialization over every recurring task.
type Materializer interface {
	Handle(ctx context.Context, cmd commands.MaterializeOccurrencesCommand) (*commands.MaterializeOccurrencesResult, error)
}

// Job is an extra scheduled function, such as outbox cleanup.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// MaterializationWorkerConfig configures the worker.
type MaterializationWorkerConfig struct {
	Schedule string
	// RunOnStart materializes once before waiting for the first tick.
	RunOnStart bool
	// SystemUserID is recorded as the actor of scheduled runs.
	SystemUserID uuid.UUID
}

// DefaultMaterializationWorkerConfig returns the default configuration.
func DefaultMaterializationWorkerConfig() MaterializationWorkerConfig {
	return MaterializationWorkerConfig{Schedule: DefaultSchedule, RunOnStart: true}
}

// MaterializationWorker rolls every recurring task's window forward on a
// cron schedule.
type MaterializationWorker struct {
	materializer Materializer
	config       MaterializationWorkerConfig
	logger       *slog.Logger
	cron         *cron.Cron
	jobs         []Job

	running  atomic.Bool
	mu       sync.Mutex
	lastRun  time.Time
	lastErr  error
	runCount int
}

// NewMaterializationWorker creates a worker. Extra jobs share its scheduler.
func NewMaterializationWorker(materializer Materializer, config MaterializationWorkerConfig, logger *slog.Logger, jobs ...Job) *MaterializationWorker {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Schedule == "" {
		config.Schedule = DefaultSchedule
	}
	return &MaterializationWorker{
		materializer: materializer,
		config:       config,
		logger:       logger,
		cron:         cron.New(cron.WithLocation(time.UTC)),
		jobs:         jobs,
	}
}

// Run schedules the jobs and blocks until ctx is cancelled.
func (w *MaterializationWorker) Run(ctx context.Context) error {
	if _, err := w.cron.AddFunc(w.config.Schedule, func() { w.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule materialization %q: %w", w.config.Schedule, err)
	}
	for _, job := range w.jobs {
		if _, err := w.cron.AddFunc(job.Schedule, func() { w.runJob(ctx, job) }); err != nil {
			return fmt.Errorf("schedule %s %q: %w", job.Name, job.Schedule, err)
		}
	}

	w.running.Store(true)
	defer w.running.Store(false)
	w.logger.Info("materialization worker started",
		"schedule", w.config.Schedule,
		"jobs", len(w.jobs),
	)

	if w.config.RunOnStart {
		w.RunOnce(ctx)
	}

	w.cron.Start()
	<-ctx.Done()
	stopped := w.cron.Stop()
	<-stopped.Done()

	w.logger.Info("materialization worker stopped")
	return nil
}

// IsRunning returns true while Run is active.
func (w *MaterializationWorker) IsRunning() bool {
	return w.running.Load()
}

// RunOnce materializes all recurring tasks for today.
func (w *MaterializationWorker) RunOnce(ctx context.Context) {
	start := time.Now()
	result, err := w.materializer.Handle(ctx, commands.MaterializeOccurrencesCommand{UserID: w.config.SystemUserID})

	w.mu.Lock()
	w.lastRun = start
	w.lastErr = err
	w.runCount++
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("scheduled materialization failed", "error", err)
		return
	}
	w.logger.Info("scheduled materialization completed",
		"tasks", result.TasksProcessed,
		"created", result.Created,
		"failed", result.Failed,
		"through", result.Through.Format(time.DateOnly),
		"duration", time.Since(start),
	)
}

func (w *MaterializationWorker) runJob(ctx context.Context, job Job) {
	if err := job.Run(ctx); err != nil {
		w.logger.Error("scheduled job failed", "job", job.Name, "error", err)
	}
}

// Status reports the last materialization run.
type Status struct {
	Running  bool      `json:"running"`
	LastRun  time.Time `json:"last_run"`
	LastErr  string    `json:"last_error,omitempty"`
	RunCount int       `json:"run_count"`
}

// Status returns a snapshot for health endpoints.
func (w *MaterializationWorker) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := Status{Running: w.IsRunning(), LastRun: w.lastRun, RunCount: w.runCount}
	if w.lastErr != nil {
		s.LastErr = w.lastErr.Error()
	}
	return s
}
