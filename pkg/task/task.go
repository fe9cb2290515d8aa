package task

import (
	"context"
	"time"
)

// Task is the remote tasks row. Optional columns are pointers: nil means the
// row never had a value and the reader applies its own default.
type Task struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      *string   `json:"status,omitempty"`   // todo, progress, review, done
	Priority    *string   `json:"priority,omitempty"` // low, medium, high
	Assignee    *string   `json:"assignee,omitempty"`
	DueDate     *string   `json:"due_date,omitempty"` // YYYY-MM-DD
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store is the contract for task persistence.
type Store interface {
	List(ctx context.Context) ([]Task, error)
	Create(ctx context.Context, t *Task) (*Task, error)
	// Update applies a partial patch keyed by column name. Supported keys:
	// title, description, status, priority, assignee, due_date.
	Update(ctx context.Context, id string, updates map[string]any) (*Task, error)
	Delete(ctx context.Context, id string) error
	DeleteByProject(ctx context.Context, projectID string) error
	EnsureTable(ctx context.Context) error
}
