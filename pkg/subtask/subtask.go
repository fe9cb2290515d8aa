package subtask

import (
	"context"
	"time"
)

// SubTask is the remote sub_tasks row.
type SubTask struct {
	ID        string     `json:"id"`
	TaskID    string     `json:"task_id"`
	Title     string     `json:"title"`
	Completed *bool      `json:"completed,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Store is the contract for subtask persistence.
type Store interface {
	List(ctx context.Context) ([]SubTask, error)
	Create(ctx context.Context, st *SubTask) (*SubTask, error)
	// Update applies a partial patch. Supported keys: title, completed.
	Update(ctx context.Context, id string, updates map[string]any) (*SubTask, error)
	Delete(ctx context.Context, id string) error
	DeleteByTask(ctx context.Context, taskID string) error
	EnsureTable(ctx context.Context) error
}
