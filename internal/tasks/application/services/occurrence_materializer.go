// Package services holds application services shared by the task commands.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/recurra/internal/tasks/domain/recurrence"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/task"
)

const (
	// DefaultHorizonDays is how far ahead occurrences are stored.
	DefaultHorizonDays = 60
	// DefaultLookAheadCount caps how many open occurrences a task keeps ahead.
	DefaultLookAheadCount = 30
)

// MaterializeConfig bounds the stored window of each recurring task.
// A zero Count leaves the horizon as the only bound.
type MaterializeConfig struct {
	HorizonDays int
	Count       int
}

// DefaultMaterializeConfig returns the default window.
func DefaultMaterializeConfig() MaterializeConfig {
	return MaterializeConfig{
		HorizonDays: DefaultHorizonDays,
		Count:       DefaultLookAheadCount,
	}
}

// OccurrenceMaterializer stores the occurrences of a task inside the rolling
// window [today, today+horizon]. Re-running it for the same day inserts
// nothing new.
type OccurrenceMaterializer struct {
	occurrences task.OccurrenceRepository
	generator   *recurrence.Generator
	config      MaterializeConfig
	logger      *slog.Logger
}

// NewOccurrenceMaterializer creates a materializer.
func NewOccurrenceMaterializer(
	occurrences task.OccurrenceRepository,
	generator *recurrence.Generator,
	config MaterializeConfig,
	logger *slog.Logger,
) *OccurrenceMaterializer {
	if logger == nil {
		logger = slog.Default()
	}
	if config.HorizonDays <= 0 {
		config.HorizonDays = DefaultHorizonDays
	}
	return &OccurrenceMaterializer{
		occurrences: occurrences,
		generator:   generator,
		config:      config,
		logger:      logger,
	}
}

// Horizon returns the last day of the window that starts on today.
func (m *OccurrenceMaterializer) Horizon(today time.Time) time.Time {
	return recurrence.DateOf(today).AddDate(0, 0, m.config.HorizonDays)
}

// Materialize inserts the task's missing occurrences and returns how many were
// created. One-off tasks get their single occurrence whatever the window.
// Completed occurrences inside the window do not count against the cap, so
// completing one makes room for the next.
func (m *OccurrenceMaterializer) Materialize(ctx context.Context, t *task.Task, today time.Time) (int, error) {
	today = recurrence.DateOf(today)
	horizon := m.Horizon(today)

	window := recurrence.Until(horizon).Starting(today)
	if t.IsRecurring() && m.config.Count > 0 {
		completed, err := m.completedInWindow(ctx, t, today, horizon)
		if err != nil {
			return 0, err
		}
		window.Count = m.config.Count + completed
	}

	occurrences, err := t.Occurrences(m.generator, window)
	if err != nil {
		return 0, err
	}
	if len(occurrences) == 0 {
		return 0, nil
	}

	created, err := m.occurrences.SaveNew(ctx, occurrences)
	if err != nil {
		return 0, err
	}
	through := occurrences[len(occurrences)-1].DueDate()
	t.RecordMaterialized(created, through)

	m.logger.Debug("occurrences materialized",
		"task_id", t.ID(),
		"generated", len(occurrences),
		"created", created,
		"through", through.Format(time.DateOnly),
	)
	return created, nil
}

// Rematerialize drops the task's open occurrences from today on and stores
// the window again. Used after the rule changes. A task that is no longer
// recurring keeps only the occurrence on its due date; completion records
// live in their own log and survive the pruning.
func (m *OccurrenceMaterializer) Rematerialize(ctx context.Context, t *task.Task, today time.Time) (removed int64, created int, err error) {
	today = recurrence.DateOf(today)
	if t.IsRecurring() {
		removed, err = m.occurrences.DeleteOpenFrom(ctx, t.ID(), today)
	} else {
		removed, err = m.pruneOneOff(ctx, t)
	}
	if err != nil {
		return 0, 0, err
	}
	created, err = m.Materialize(ctx, t, today)
	return removed, created, err
}

// CheckProducible reports recurrence.ErrUnproducibleRule when the task's rule never
// yields a date. One-off tasks always produce their due date.
func (m *OccurrenceMaterializer) CheckProducible(t *task.Task) error {
	rule, ok := t.Rule()
	if !ok {
		return nil
	}
	return m.generator.CheckProducible(rule, t.Anchor())
}

func (m *OccurrenceMaterializer) pruneOneOff(ctx context.Context, t *task.Task) (int64, error) {
	due := t.DueDate()
	if due == nil {
		return 0, task.ErrMissingDueDate
	}
	keep := task.OccurrenceID(t.ID(), *due)
	taskID := t.ID()
	existing, err := m.occurrences.Find(ctx, task.OccurrenceFilter{TaskID: &taskID})
	if err != nil {
		return 0, err
	}
	var removed int64
	for _, o := range existing {
		if o.ID() == keep {
			continue
		}
		if err := m.occurrences.Delete(ctx, o.ID()); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (m *OccurrenceMaterializer) completedInWindow(ctx context.Context, t *task.Task, from, to time.Time) (int, error) {
	taskID := t.ID()
	existing, err := m.occurrences.Find(ctx, task.OccurrenceFilter{TaskID: &taskID, From: &from, To: &to})
	if err != nil {
		return 0, err
	}
	n := 0
	for _, o := range existing {
		if o.IsCompleted() {
			n++
		}
	}
	return n, nil
}
