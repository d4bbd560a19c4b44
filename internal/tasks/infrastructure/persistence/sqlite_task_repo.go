package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sharedDomain "github.com/felixgeelhaar/recurra/internal/shared/domain"
	"github.com/felixgeelhaar/recurra/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/recurra/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/recurrence"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/task"
	"github.com/google/uuid"
)

const sqliteTaskColumns = `id, list_id, created_by, title, description, due_date,
	recurrence_frequency, recurrence_interval, recurrence_days_of_week,
	recurrence_days_of_month, recurrence_months_of_year, recurrence_ordinal_weekdays,
	created_at, updated_at`

// SQLiteTaskRepository implements task.Repository using SQLite.
type SQLiteTaskRepository struct {
	conn database.Connection
}

// NewSQLiteTaskRepository creates a new SQLite task repository.
func NewSQLiteTaskRepository(conn database.Connection) *SQLiteTaskRepository {
	return &SQLiteTaskRepository{conn: conn}
}

// Save inserts or updates a task.
func (r *SQLiteTaskRepository) Save(ctx context.Context, t *task.Task) error {
	cols := ruleToColumns(t.Rule())
	daysOfWeek, err := encodeJSONList(cols.daysOfWeek)
	if err != nil {
		return err
	}
	daysOfMonth, err := encodeJSONList(cols.daysOfMonth)
	if err != nil {
		return err
	}
	months, err := encodeJSONList(cols.monthsOfYear)
	if err != nil {
		return err
	}
	ordinals, err := encodeJSONList(cols.ordinals)
	if err != nil {
		return err
	}

	var dueDate sql.NullString
	if d := t.DueDate(); d != nil {
		dueDate = sql.NullString{String: sqlite.FormatDate(*d), Valid: true}
	}

	_, err = database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `
		INSERT INTO tasks (`+sqliteTaskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			due_date = excluded.due_date,
			recurrence_frequency = excluded.recurrence_frequency,
			recurrence_interval = excluded.recurrence_interval,
			recurrence_days_of_week = excluded.recurrence_days_of_week,
			recurrence_days_of_month = excluded.recurrence_days_of_month,
			recurrence_months_of_year = excluded.recurrence_months_of_year,
			recurrence_ordinal_weekdays = excluded.recurrence_ordinal_weekdays,
			updated_at = excluded.updated_at`,
		t.ID().String(), t.ListID().String(), t.CreatedBy().String(), t.Title(), t.Description(), dueDate,
		cols.frequency, cols.interval, daysOfWeek, daysOfMonth, months, ordinals,
		sqlite.FormatTime(t.CreatedAt()), sqlite.FormatTime(t.UpdatedAt()),
	)
	if err != nil {
		return fmt.Errorf("save task: %w", err)
	}
	return nil
}

// FindByID retrieves a task by its ID.
func (r *SQLiteTaskRepository) FindByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	row := database.ExecutorFromContext(ctx, r.conn).QueryRow(ctx,
		`SELECT `+sqliteTaskColumns+` FROM tasks WHERE id = ?`, id.String())
	t, err := scanSQLiteTask(row)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, task.ErrTaskNotFound
		}
		return nil, err
	}
	return t, nil
}

// FindByListID retrieves all tasks in a list.
func (r *SQLiteTaskRepository) FindByListID(ctx context.Context, listID uuid.UUID) ([]*task.Task, error) {
	return r.query(ctx, `SELECT `+sqliteTaskColumns+` FROM tasks WHERE list_id = ? ORDER BY created_at, id`, listID.String())
}

// FindAll retrieves every task.
func (r *SQLiteTaskRepository) FindAll(ctx context.Context) ([]*task.Task, error) {
	return r.query(ctx, `SELECT `+sqliteTaskColumns+` FROM tasks ORDER BY created_at, id`)
}

// FindRecurring retrieves tasks that carry a recurrence rule.
func (r *SQLiteTaskRepository) FindRecurring(ctx context.Context) ([]*task.Task, error) {
	return r.query(ctx, `SELECT `+sqliteTaskColumns+` FROM tasks WHERE recurrence_frequency IS NOT NULL ORDER BY created_at, id`)
}

// Delete removes a task and, by cascade, its occurrences.
func (r *SQLiteTaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `DELETE FROM tasks WHERE id = ?`, id.String())
	return err
}

func (r *SQLiteTaskRepository) query(ctx context.Context, query string, args ...any) ([]*task.Task, error) {
	rows, err := database.ExecutorFromContext(ctx, r.conn).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []*task.Task
	for rows.Next() {
		t, err := scanSQLiteTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func scanSQLiteTask(row database.Row) (*task.Task, error) {
	var (
		id, listID, createdBy, title, description string
		dueDate                                   sql.NullString
		cols                                      ruleColumns
		daysOfWeek, daysOfMonth, months, ordinals sql.NullString
		createdAt, updatedAt                      string
	)
	if err := row.Scan(&id, &listID, &createdBy, &title, &description, &dueDate,
		&cols.frequency, &cols.interval, &daysOfWeek, &daysOfMonth, &months, &ordinals,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if cols.daysOfWeek, err = decodeJSONList[int](daysOfWeek); err != nil {
		return nil, fmt.Errorf("invalid recurrence_days_of_week: %w", err)
	}
	if cols.daysOfMonth, err = decodeJSONList[int](daysOfMonth); err != nil {
		return nil, fmt.Errorf("invalid recurrence_days_of_month: %w", err)
	}
	if cols.monthsOfYear, err = decodeJSONList[int](months); err != nil {
		return nil, fmt.Errorf("invalid recurrence_months_of_year: %w", err)
	}
	if cols.ordinals, err = decodeJSONList[recurrence.OrdinalWeekday](ordinals); err != nil {
		return nil, fmt.Errorf("invalid recurrence_ordinal_weekdays: %w", err)
	}
	rule, err := cols.rule()
	if err != nil {
		return nil, err
	}

	entity, err := sqliteEntity(id, createdAt, updatedAt)
	if err != nil {
		return nil, err
	}
	list, err := uuid.Parse(listID)
	if err != nil {
		return nil, fmt.Errorf("invalid list_id: %w", err)
	}
	creator, err := uuid.Parse(createdBy)
	if err != nil {
		return nil, fmt.Errorf("invalid created_by: %w", err)
	}

	var due *time.Time
	if dueDate.Valid {
		d, err := sqlite.ParseDate(dueDate.String)
		if err != nil {
			return nil, fmt.Errorf("invalid due_date: %w", err)
		}
		due = &d
	}

	return task.RehydrateTask(entity, list, creator, title, description, due, rule), nil
}

func sqliteEntity(id, createdAt, updatedAt string) (sharedDomain.BaseEntity, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return sharedDomain.BaseEntity{}, fmt.Errorf("invalid id: %w", err)
	}
	created, err := sqlite.ParseTime(createdAt)
	if err != nil {
		return sharedDomain.BaseEntity{}, fmt.Errorf("invalid created_at: %w", err)
	}
	updated, err := sqlite.ParseTime(updatedAt)
	if err != nil {
		return sharedDomain.BaseEntity{}, fmt.Errorf("invalid updated_at: %w", err)
	}
	return sharedDomain.RehydrateBaseEntity(uid, created, updated), nil
}
