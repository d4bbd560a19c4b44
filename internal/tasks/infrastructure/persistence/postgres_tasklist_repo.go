package persistence

import (
	"context"
	"fmt"
	"time"

	sharedDomain "github.com/felixgeelhaar/recurra/internal/shared/domain"
	"github.com/felixgeelhaar/recurra/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/recurra/internal/tasks/domain/tasklist"
	"github.com/google/uuid"
)

// PostgresTaskListRepository implements tasklist.Repository using PostgreSQL.
type PostgresTaskListRepository struct {
	conn database.Connection
}

// NewPostgresTaskListRepository creates a new PostgreSQL task list repository.
func NewPostgresTaskListRepository(conn database.Connection) *PostgresTaskListRepository {
	return &PostgresTaskListRepository{conn: conn}
}

// Save upserts the list and replaces its membership rows.
func (r *PostgresTaskListRepository) Save(ctx context.Context, l *tasklist.TaskList) error {
	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, `
		INSERT INTO task_lists (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			updated_at = EXCLUDED.updated_at`,
		l.ID(), l.Name(), l.Description(), l.CreatedAt(), l.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("save task list: %w", err)
	}

	if _, err := exec.Exec(ctx, `DELETE FROM task_list_members WHERE list_id = $1`, l.ID()); err != nil {
		return fmt.Errorf("clear members: %w", err)
	}
	for _, m := range l.Members() {
		_, err := exec.Exec(ctx,
			`INSERT INTO task_list_members (list_id, user_id, role, joined_at) VALUES ($1, $2, $3, $4)`,
			l.ID(), m.UserID, string(m.Role), m.JoinedAt,
		)
		if err != nil {
			return fmt.Errorf("save member: %w", err)
		}
	}
	return nil
}

// FindByID retrieves a list with its members.
func (r *PostgresTaskListRepository) FindByID(ctx context.Context, id uuid.UUID) (*tasklist.TaskList, error) {
	lists, err := r.query(ctx, `SELECT id, name, description, created_at, updated_at FROM task_lists WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(lists) == 0 {
		return nil, tasklist.ErrTaskListNotFound
	}
	return lists[0], nil
}

// FindByMember retrieves the lists userID belongs to.
func (r *PostgresTaskListRepository) FindByMember(ctx context.Context, userID uuid.UUID) ([]*tasklist.TaskList, error) {
	return r.query(ctx, `
		SELECT l.id, l.name, l.description, l.created_at, l.updated_at
		FROM task_lists l
		JOIN task_list_members m ON m.list_id = l.id
		WHERE m.user_id = $1
		ORDER BY l.name, l.id`, userID)
}

// Delete removes a list; its tasks and members cascade.
func (r *PostgresTaskListRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := database.ExecutorFromContext(ctx, r.conn).Exec(ctx, `DELETE FROM task_lists WHERE id = $1`, id)
	return err
}

type postgresListRow struct {
	id                   uuid.UUID
	name, description    string
	createdAt, updatedAt time.Time
}

func (r *PostgresTaskListRepository) query(ctx context.Context, query string, args ...any) ([]*tasklist.TaskList, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var listRows []postgresListRow
	for rows.Next() {
		var lr postgresListRow
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
	// A transaction's connection cannot run a second query with a cursor open.
	if err := rows.Close(); err != nil {
		return nil, err
	}

	lists := make([]*tasklist.TaskList, 0, len(listRows))
	for _, lr := range listRows {
		members, err := r.members(ctx, exec, lr.id)
		if err != nil {
			return nil, err
		}
		entity := sharedDomain.RehydrateBaseEntity(lr.id, lr.createdAt, lr.updatedAt)
		lists = append(lists, tasklist.RehydrateTaskList(entity, lr.name, lr.description, members))
	}
	return lists, nil
}

func (r *PostgresTaskListRepository) members(ctx context.Context, exec database.Executor, listID uuid.UUID) ([]tasklist.Member, error) {
	rows, err := exec.Query(ctx, `
		SELECT user_id, role, joined_at FROM task_list_members
		WHERE list_id = $1 ORDER BY joined_at, user_id`, listID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []tasklist.Member
	for rows.Next() {
		var (
			m    tasklist.Member
			role string
		)
		if err := rows.Scan(&m.UserID, &role, &m.JoinedAt); err != nil {
			return nil, err
		}
		m.Role = tasklist.Role(role)
		m.JoinedAt = m.JoinedAt.UTC()
		members = append(members, m)
	}
	return members, rows.Err()
}
