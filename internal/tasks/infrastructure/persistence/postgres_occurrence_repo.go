package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	sharedDomain "github.com/felixgeelhaar/recurra/internal/shared/domain"
	"github.com/felixgeelhaar/recurra/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/recurrence"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/task"
	"github.com/google/uuid"
)

const postgresOccurrenceColumns = `o.id, o.task_id, o.due_date, o.completed, o.completed_at, o.created_at, o.updated_at`

// PostgresOccurrenceRepository implements task.OccurrenceRepository using PostgreSQL.
type PostgresOccurrenceRepository struct {
	conn database.Connection
}

// NewPostgresOccurrenceRepository creates a new PostgreSQL occurrence repository.
func NewPostgresOccurrenceRepository(conn database.Connection) *PostgresOccurrenceRepository {
	return &PostgresOccurrenceRepository{conn: conn}
}

// Save inserts an occurrence or updates its completion state.
func (r *PostgresOccurrenceRepository) Save(ctx context.Context, o *task.Occurrence) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO task_occurrences (id, task_id, due_date, completed, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			completed = EXCLUDED.completed,
			completed_at = EXCLUDED.completed_at,
			updated_at = EXCLUDED.updated_at`,
		o.ID(), o.TaskID(), o.DueDate(), o.IsCompleted(), o.CompletedAt(), o.CreatedAt(), o.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save occurrence: %w", err)
	}
	return nil
}

// SaveNew inserts occurrences that are not stored yet.
func (r *PostgresOccurrenceRepository) SaveNew(ctx context.Context, occurrences []*task.Occurrence) (int, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	inserted := 0
	for _, o := range occurrences {
		res, err := exec.Exec(ctx, `
			INSERT INTO task_occurrences (id, task_id, due_date, completed, completed_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT DO NOTHING`,
			o.ID(), o.TaskID(), o.DueDate(), o.IsCompleted(), o.CompletedAt(), o.CreatedAt(), o.UpdatedAt(),
		)
		if err != nil {
			return inserted, fmt.Errorf("insert occurrence: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return inserted, err
		}
		inserted += int(n)
	}
	return inserted, nil
}

// FindByID retrieves an occurrence by its ID.
func (r *PostgresOccurrenceRepository) FindByID(ctx context.Context, id uuid.UUID) (*task.Occurrence, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT `+postgresOccurrenceColumns+` FROM task_occurrences o WHERE o.id = $1`, id)
	o, err := scanPostgresOccurrence(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, task.ErrOccurrenceNotFound
		}
		return nil, err
	}
	return o, nil
}

// Find lists occurrences matching filter ordered by due date.
func (r *PostgresOccurrenceRepository) Find(ctx context.Context, filter task.OccurrenceFilter) ([]*task.Occurrence, error) {
	var (
		where []string
		args  []any
	)
	add := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if filter.ListID != nil {
		add("t.list_id = $%d", *filter.ListID)
	}
	if filter.TaskID != nil {
		add("o.task_id = $%d", *filter.TaskID)
	}
	if filter.From != nil {
		add("o.due_date >= $%d", recurrence.DateOf(*filter.From))
	}
	if filter.To != nil {
		add("o.due_date <= $%d", recurrence.DateOf(*filter.To))
	}

	query := `SELECT ` + postgresOccurrenceColumns + ` FROM task_occurrences o JOIN tasks t ON t.id = o.task_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY o.due_date, o.task_id"

	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*task.Occurrence
	for rows.Next() {
		o, err := scanPostgresOccurrence(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// DeleteOpenFrom removes incomplete occurrences of a task due on or after from.
func (r *PostgresOccurrenceRepository) DeleteOpenFrom(ctx context.Context, taskID uuid.UUID, from time.Time) (int64, error) {
	res, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`DELETE FROM task_occurrences WHERE task_id = $1 AND due_date >= $2 AND NOT completed`,
		taskID, recurrence.DateOf(from))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes an occurrence.
func (r *PostgresOccurrenceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `DELETE FROM task_occurrences WHERE id = $1`, id)
	return err
}

func scanPostgresOccurrence(row database.Row) (*task.Occurrence, error) {
	var (
		id, taskID           uuid.UUID
		dueDate              time.Time
		completed            bool
		completedAt          *time.Time
		createdAt, updatedAt time.Time
	)
	if err := row.Scan(&id, &taskID, &dueDate, &completed, &completedAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if completedAt != nil {
		v := completedAt.UTC()
		completedAt = &v
	}
	entity := sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt)
	return task.RehydrateOccurrence(entity, taskID, *utcDate(&dueDate), completed, completedAt), nil
}

// PostgresCompletionRepository implements task.CompletionRepository using PostgreSQL.
type PostgresCompletionRepository struct {
	conn database.Connection
}

// NewPostgresCompletionRepository creates a new PostgreSQL completion repository.
func NewPostgresCompletionRepository(conn database.Connection) *PostgresCompletionRepository {
	return &PostgresCompletionRepository{conn: conn}
}

// Append records a completion.
func (r *PostgresCompletionRepository) Append(ctx context.Context, c *task.Completion) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO task_completions (id, occurrence_id, task_id, user_id, completed_at)
		VALUES ($1, $2, $3, $4, $5)`,
		c.ID(), c.OccurrenceID(), c.TaskID(), c.UserID(), c.CompletedAt(),
	)
	if err != nil {
		return fmt.Errorf("append completion: %w", err)
	}
	return nil
}

// FindByOccurrenceID lists completions of an occurrence, oldest first.
func (r *PostgresCompletionRepository) FindByOccurrenceID(ctx context.Context, occurrenceID uuid.UUID) ([]*task.Completion, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT id, occurrence_id, task_id, user_id, completed_at
		FROM task_completions WHERE occurrence_id = $1 ORDER BY completed_at, id`,
		occurrenceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*task.Completion
	for rows.Next() {
		var (
			id, occID, taskID, userID uuid.UUID
			at                        time.Time
		)
		if err := rows.Scan(&id, &occID, &taskID, &userID, &at); err != nil {
			return nil, err
		}
		out = append(out, task.RehydrateCompletion(id, occID, taskID, userID, at.UTC()))
	}
	return out, rows.Err()
}
