package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/recurra/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/recurra/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/task"
	"github.com/google/uuid"
)

const sqliteOccurrenceColumns = `o.id, o.task_id, o.due_date, o.completed, o.completed_at, o.created_at, o.updated_at`

// SQLiteOccurrenceRepository implements task.OccurrenceRepository using SQLite.
type SQLiteOccurrenceRepository struct {
	conn database.Connection
}

// NewSQLiteOccurrenceRepository creates a new SQLite occurrence repository.
func NewSQLiteOccurrenceRepository(conn database.Connection) *SQLiteOccurrenceRepository {
	return &SQLiteOccurrenceRepository{conn: conn}
}

// Save inserts an occurrence or updates its completion state.
func (r *SQLiteOccurrenceRepository) Save(ctx context.Context, o *task.Occurrence) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO task_occurrences (id, task_id, due_date, completed, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			completed = excluded.completed,
			completed_at = excluded.completed_at,
			updated_at = excluded.updated_at`,
		sqliteOccurrenceArgs(o)...,
	)
	if err != nil {
		return fmt.Errorf("save occurrence: %w", err)
	}
	return nil
}

// SaveNew inserts occurrences that are not stored yet.
func (r *SQLiteOccurrenceRepository) SaveNew(ctx context.Context, occurrences []*task.Occurrence) (int, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	inserted := 0
	for _, o := range occurrences {
		res, err := exec.Exec(ctx, `
			INSERT INTO task_occurrences (id, task_id, due_date, completed, completed_at, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT DO NOTHING`,
			sqliteOccurrenceArgs(o)...,
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
func (r *SQLiteOccurrenceRepository) FindByID(ctx context.Context, id uuid.UUID) (*task.Occurrence, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT `+sqliteOccurrenceColumns+` FROM task_occurrences o WHERE o.id = ?`, id.String())
	o, err := scanSQLiteOccurrence(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, task.ErrOccurrenceNotFound
		}
		return nil, err
	}
	return o, nil
}

// Find lists occurrences matching filter ordered by due date.
func (r *SQLiteOccurrenceRepository) Find(ctx context.Context, filter task.OccurrenceFilter) ([]*task.Occurrence, error) {
	var (
		where []string
		args  []any
	)
	if filter.ListID != nil {
		where = append(where, "t.list_id = ?")
		args = append(args, filter.ListID.String())
	}
	if filter.TaskID != nil {
		where = append(where, "o.task_id = ?")
		args = append(args, filter.TaskID.String())
	}
	if filter.From != nil {
		where = append(where, "o.due_date >= ?")
		args = append(args, sqlite.FormatDate(*filter.From))
	}
	if filter.To != nil {
		where = append(where, "o.due_date <= ?")
		args = append(args, sqlite.FormatDate(*filter.To))
	}

	query := `SELECT ` + sqliteOccurrenceColumns + ` FROM task_occurrences o JOIN tasks t ON t.id = o.task_id`
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
		o, err := scanSQLiteOccurrence(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// DeleteOpenFrom removes incomplete occurrences of a task due on or after from.
func (r *SQLiteOccurrenceRepository) DeleteOpenFrom(ctx context.Context, taskID uuid.UUID, from time.Time) (int64, error) {
	res, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx,
		`DELETE FROM task_occurrences WHERE task_id = ? AND due_date >= ? AND completed = 0`,
		taskID.String(), sqlite.FormatDate(from))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes an occurrence.
func (r *SQLiteOccurrenceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `DELETE FROM task_occurrences WHERE id = ?`, id.String())
	return err
}

func sqliteOccurrenceArgs(o *task.Occurrence) []any {
	return []any{
		o.ID().String(), o.TaskID().String(), sqlite.FormatDate(o.DueDate()),
		o.IsCompleted(), sqlite.NullableTime(o.CompletedAt()),
		sqlite.FormatTime(o.CreatedAt()), sqlite.FormatTime(o.UpdatedAt()),
	}
}

func scanSQLiteOccurrence(row database.Row) (*task.Occurrence, error) {
	var (
		id, taskID, dueDate  string
		completed            bool
		completedAt          sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(&id, &taskID, &dueDate, &completed, &completedAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	entity, err := sqliteEntity(id, createdAt, updatedAt)
	if err != nil {
		return nil, err
	}
	tid, err := uuid.Parse(taskID)
	if err != nil {
		return nil, fmt.Errorf("invalid task_id: %w", err)
	}
	due, err := sqlite.ParseDate(dueDate)
	if err != nil {
		return nil, fmt.Errorf("invalid due_date: %w", err)
	}
	at, err := sqlite.ParseNullableTime(completedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid completed_at: %w", err)
	}
	return task.RehydrateOccurrence(entity, tid, due, completed, at), nil
}

// SQLiteCompletionRepository implements task.CompletionRepository using SQLite.
type SQLiteCompletionRepository struct {
	conn database.Connection
}

// NewSQLiteCompletionRepository creates a new SQLite completion repository.
func NewSQLiteCompletionRepository(conn database.Connection) *SQLiteCompletionRepository {
	return &SQLiteCompletionRepository{conn: conn}
}

// Append records a completion.
func (r *SQLiteCompletionRepository) Append(ctx context.Context, c *task.Completion) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO task_completions (id, occurrence_id, task_id, user_id, completed_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID().String(), c.OccurrenceID().String(), c.TaskID().String(), c.UserID().String(),
		sqlite.FormatTime(c.CompletedAt()),
	)
	if err != nil {
		return fmt.Errorf("append completion: %w", err)
	}
	return nil
}

// FindByOccurrenceID lists completions of an occurrence, oldest first.
func (r *SQLiteCompletionRepository) FindByOccurrenceID(ctx context.Context, occurrenceID uuid.UUID) ([]*task.Completion, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, `
		SELECT id, occurrence_id, task_id, user_id, completed_at
		FROM task_completions WHERE occurrence_id = ? ORDER BY completed_at, id`,
		occurrenceID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*task.Completion
	for rows.Next() {
		var id, occID, taskID, userID, at string
		if err := rows.Scan(&id, &occID, &taskID, &userID, &at); err != nil {
			return nil, err
		}
		ids, err := parseUUIDs(id, occID, taskID, userID)
		if err != nil {
			return nil, err
		}
		completedAt, err := sqlite.ParseTime(at)
		if err != nil {
			return nil, fmt.Errorf("invalid completed_at: %w", err)
		}
		out = append(out, task.RehydrateCompletion(ids[0], ids[1], ids[2], ids[3], completedAt))
	}
	return out, rows.Err()
}

func parseUUIDs(values ...string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(values))
	for i, s := range values {
		v, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid identifier %q: %w", s, err)
		}
		ids[i] = v
	}
	return ids, nil
}
