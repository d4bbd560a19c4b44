package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	sharedDomain "github.com/felixgeelhaar/recurra/internal/shared/domain"
	"github.com/felixgeelhaar/recurra/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/recurrence"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/task"
	"github.com/google/uuid"
)

const postgresTaskColumns = `id, list_id, created_by, title, description, due_date,
	recurrence_frequency, recurrence_interval, recurrence_days_of_week,
	recurrence_days_of_month, recurrence_months_of_year, recurrence_ordinal_weekdays,
	created_at, updated_at`

// PostgresTaskRepository implements task.Repository using PostgreSQL.
type PostgresTaskRepository struct {
	conn database.Connection
}

// NewPostgresTaskRepository creates a new PostgreSQL task repository.
func NewPostgresTaskRepository(conn database.Connection) *PostgresTaskRepository {
	return &PostgresTaskRepository{conn: conn}
}

// Save inserts or updates a task.
func (r *PostgresTaskRepository) Save(ctx context.Context, t *task.Task) error {
	cols := ruleToColumns(t.Rule())
	var ordinals []byte
	if len(cols.ordinals) > 0 {
		b, err := json.Marshal(cols.ordinals)
		if err != nil {
			return err
		}
		ordinals = b
	}

	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO tasks (`+postgresTaskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			due_date = EXCLUDED.due_date,
			recurrence_frequency = EXCLUDED.recurrence_frequency,
			recurrence_interval = EXCLUDED.recurrence_interval,
			recurrence_days_of_week = EXCLUDED.recurrence_days_of_week,
			recurrence_days_of_month = EXCLUDED.recurrence_days_of_month,
			recurrence_months_of_year = EXCLUDED.recurrence_months_of_year,
			recurrence_ordinal_weekdays = EXCLUDED.recurrence_ordinal_weekdays,
			updated_at = EXCLUDED.updated_at`,
		t.ID(), t.ListID(), t.CreatedBy(), t.Title(), t.Description(), t.DueDate(),
		cols.frequency, cols.interval,
		nullableArray(cols.daysOfWeek), nullableArray(cols.daysOfMonth), nullableArray(cols.monthsOfYear),
		ordinals, t.CreatedAt(), t.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

// FindByID retrieves a task by its ID.
func (r *PostgresTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT `+postgresTaskColumns+` FROM tasks WHERE id = $1`, id)
	t, err := scanPostgresTask(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, task.ErrTaskNotFound
		}
		return nil, err
	}
	return t, nil
}

// FindByListID retrieves all tasks in a list.
func (r *PostgresTaskRepository) FindByListID(ctx context.Context, listID uuid.UUID) ([]*task.Task, error) {
	return r.query(ctx, `SELECT `+postgresTaskColumns+` FROM tasks WHERE list_id = $1 ORDER BY created_at, id`, listID)
}

// FindAll retrieves every task.
func (r *PostgresTaskRepository) FindAll(ctx context.Context) ([]*task.Task, error) {
	return r.query(ctx, `SELECT `+postgresTaskColumns+` FROM tasks ORDER BY created_at, id`)
}

// FindRecurring retrieves tasks that carry a recurrence rule.
func (r *PostgresTaskRepository) FindRecurring(ctx context.Context) ([]*task.Task, error) {
	return r.query(ctx, `SELECT `+postgresTaskColumns+` FROM tasks WHERE recurrence_frequency IS NOT NULL ORDER BY created_at, id`)
}

// Delete removes a task and, by cascade, its occurrences.
func (r *PostgresTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return err
}

func (r *PostgresTaskRepository) query(ctx context.Context, query string, args ...any) ([]*task.Task, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*task.Task
	for rows.Next() {
		t, err := scanPostgresTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func scanPostgresTask(row database.Row) (*task.Task, error) {
	var (
		id, listID, createdBy           uuid.UUID
		title, description              string
		dueDate                         *time.Time
		cols                            ruleColumns
		daysOfWeek, daysOfMonth, months []int64
		ordinals                        []byte
		createdAt, updatedAt            time.Time
	)
	if err := row.Scan(&id, &listID, &createdBy, &title, &description, &dueDate,
		&cols.frequency, &cols.interval,
		pq.Array(&daysOfWeek), pq.Array(&daysOfMonth), pq.Array(&months), &ordinals,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}

	cols.daysOfWeek = toInts(daysOfWeek)
	cols.daysOfMonth = toInts(daysOfMonth)
	cols.monthsOfYear = toInts(months)
	if len(ordinals) > 0 {
		if err := json.Unmarshal(ordinals, &cols.ordinals); err != nil {
			return nil, fmt.Errorf("invalid recurrence_ordinal_weekdays: %w", err)
		}
	}
	rule, err := cols.rule()
	if err != nil {
		return nil, err
	}

	entity := sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt)
	return task.RehydrateTask(entity, listID, createdBy, title, description, utcDate(dueDate), rule), nil
}

// nullableArray stores an empty list as NULL.
func nullableArray(values []int) any {
	if len(values) == 0 {
		return nil
	}
	return pq.Array(toInt64s(values))
}

// utcDate reinterprets a DATE value as midnight UTC.
func utcDate(d *time.Time) *time.Time {
	if d == nil {
		return nil
	}
	v := recurrence.Date(d.Year(), d.Month(), d.Day())
	return &v
}
