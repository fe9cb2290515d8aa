package subtask

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed subtask store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the sub_tasks table. The tasks table must exist first.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS sub_tasks (
			id         TEXT PRIMARY KEY,
			task_id    TEXT NOT NULL REFERENCES tasks(id),
			title      TEXT NOT NULL,
			completed  BOOLEAN,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_sub_tasks_task ON sub_tasks(task_id)`)
	return err
}

// Create inserts a new subtask.
func (s *PgStore) Create(ctx context.Context, st *SubTask) (*SubTask, error) {
	st.ID = uuid.Must(uuid.NewV7()).String()
	if st.CreatedAt == nil {
		now := time.Now().Truncate(time.Microsecond)
		st.CreatedAt = &now
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO sub_tasks (id, task_id, title, completed, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		st.ID, st.TaskID, st.Title, st.Completed, st.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create subtask: %w", err)
	}
	return st, nil
}

// List returns every subtask in creation order.
func (s *PgStore) List(ctx context.Context) ([]SubTask, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, task_id, title, completed, created_at
		FROM sub_tasks ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	defer rows.Close()

	var out []SubTask
	for rows.Next() {
		var st SubTask
		if err := rows.Scan(&st.ID, &st.TaskID, &st.Title, &st.Completed, &st.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Update modifies subtask fields.
func (s *PgStore) Update(ctx context.Context, id string, updates map[string]any) (*SubTask, error) {
	var setClauses string
	var args []any
	argIdx := 1

	for k, v := range updates {
		switch k {
		case "title", "completed":
			if setClauses != "" {
				setClauses += ", "
			}
			setClauses += fmt.Sprintf("%s = $%d", k, argIdx)
			args = append(args, v)
			argIdx++
		}
	}
	if setClauses == "" {
		// Nothing to write; echo the current row.
		setClauses = "title = title"
	}

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE sub_tasks SET %s WHERE id = $%d
		RETURNING id, task_id, title, completed, created_at`, setClauses, argIdx)

	var st SubTask
	err := s.pool.QueryRow(ctx, query, args...).Scan(&st.ID, &st.TaskID, &st.Title, &st.Completed, &st.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("update subtask %s: %w", id, err)
	}
	return &st, nil
}

// Delete removes one subtask.
func (s *PgStore) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM sub_tasks WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete subtask %s: %w", id, err)
	}
	return nil
}

// DeleteByTask removes every subtask of a task.
func (s *PgStore) DeleteByTask(ctx context.Context, taskID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM sub_tasks WHERE task_id = $1`, taskID); err != nil {
		return fmt.Errorf("delete subtasks of task %s: %w", taskID, err)
	}
	return nil
}
