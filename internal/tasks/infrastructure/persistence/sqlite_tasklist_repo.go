package persistence

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/recurra/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/recurra/internal/shared/infrastructure/database/sqlite"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/tasklist"
	"github.com/google/uuid"
)

// SQLiteTaskListRepository implements tasklist.Repository using SQLite.
type SQLiteTaskListRepository struct {
	conn database.Connection
}

// NewSQLiteTaskListRepository creates a new SQLite task list repository.
func NewSQLiteTaskListRepository(conn database.Connection) *SQLiteTaskListRepository {
	return &SQLiteTaskListRepository{conn: conn}
}

// Save upserts the list and replaces its membership rows.
func (r *SQLiteTaskListRepository) Save(ctx context.Context, l *tasklist.TaskList) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, `
		INSERT INTO task_lists (id, name, description, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			updated_at = excluded.updated_at`,
		l.ID().String(), l.Name(), l.Description(),
		sqlite.FormatTime(l.CreatedAt()), sqlite.FormatTime(l.UpdatedAt()),
	)
	if err != nil {
		return fmt.Errorf("save task list: %w", err)
	}

	if _, err := exec.Exec(ctx, `DELETE FROM task_list_members WHERE list_id = ?`, l.ID().String()); err != nil {
		return fmt.Errorf("clear members: %w", err)
	}
	for _, m := range l.Members() {
		_, err := exec.Exec(ctx, `
			INSERT INTO task_list_members (list_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)`,
			l.ID().String(), m.UserID.String(), string(m.Role), sqlite.FormatTime(m.JoinedAt),
		)
		if err != nil {
			return fmt.Errorf("save member: %w", err)
		}
	}
	return nil
}

// FindByID retrieves a list with its members.
func (r *SQLiteTaskListRepository) FindByID(ctx context.Context, id uuid.UUID) (*tasklist.TaskList, error) {
	lists, err := r.query(ctx, `SELECT id, name, description, created_at, updated_at FROM task_lists WHERE id = ?`, id.String())
	if err != nil {
		return nil, err
	}
	if len(lists) == 0 {
		return nil, tasklist.ErrTaskListNotFound
	}
	return lists[0], nil
}

// FindByMember retrieves the lists userID belongs to.
func (r *SQLiteTaskListRepository) FindByMember(ctx context.Context, userID uuid.UUID) ([]*tasklist.TaskList, error) {
	return r.query(ctx, `
		SELECT l.id, l.name, l.description, l.created_at, l.updated_at
		FROM task_lists l
		JOIN task_list_members m ON m.list_id = l.id
		WHERE m.user_id = ?
		ORDER BY l.name, l.id`, userID.String())
}

// Delete removes a list; its tasks and members cascade.
func (r *SQLiteTaskListRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `DELETE FROM task_lists WHERE id = ?`, id.String())
	return err
}

type sqliteListRow struct {
	id, name, description, createdAt, updatedAt string
}

func (r *SQLiteTaskListRepository) query(ctx context.Context, query string, args ...any) ([]*tasklist.TaskList, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var listRows []sqliteListRow
	for rows.Next() {
		var lr sqliteListRow
		if err := rows.Scan(&lr.id, &lr.name, &lr.description, &lr.createdAt, &lr.updatedAt); err != nil {
			_ = rows.Close()
			return nil, err
		}
		listRows = append(listRows, lr)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	// Members are read after the cursor is closed; SQLite runs on one connection.
	if err := rows.Close(); err != nil {
		return nil, err
	}

	lists := make([]*tasklist.TaskList, 0, len(listRows))
	for _, lr := range listRows {
		entity, err := sqliteEntity(lr.id, lr.createdAt, lr.updatedAt)
		if err != nil {
			return nil, err
		}
		members, err := r.members(ctx, exec, lr.id)
		if err != nil {
			return nil, err
		}
		lists = append(lists, tasklist.RehydrateTaskList(entity, lr.name, lr.description, members))
	}
	return lists, nil
}

func (r *SQLiteTaskListRepository) members(ctx context.Context, exec database.Executor, listID string) ([]tasklist.Member, error) {
	rows, err := exec.Query(ctx, `
		SELECT user_id, role, joined_at FROM task_list_members
		WHERE list_id = ? ORDER BY joined_at, user_id`, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []tasklist.Member
	for rows.Next() {
		var userID, role, joinedAt string
		if err := rows.Scan(&userID, &role, &joinedAt); err != nil {
			return nil, err
		}
		uid, err := uuid.Parse(userID)
		if err != nil {
			return nil, fmt.Errorf("invalid user_id: %w", err)
		}
		joined, err := sqlite.ParseTime(joinedAt)
		if err != nil {
			return nil, fmt.Errorf("invalid joined_at: %w", err)
		}
		members = append(members, tasklist.Member{UserID: uid, Role: tasklist.Role(role), JoinedAt: joined})
	}
	return members, rows.Err()
}
