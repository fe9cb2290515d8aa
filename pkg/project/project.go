// Package project defines the remote projects record and its persistence.
package project

import (
	"context"
	"time"
)

// Project is the remote projects row. Color, Status and Members were added to
// the schema after the first rows were written, so they may be absent.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Color       *string   `json:"color,omitempty"`
	Members     []string  `json:"members,omitempty"`
	Status      *string   `json:"status,omitempty"` // active, completed, archived
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store is the contract for project persistence.
type Store interface {
	List(ctx context.Context) ([]Project, error)
	Create(ctx context.Context, p *Project) (*Project, error)
	// Update applies a partial patch. Supported keys: name, description,
	// color, members, status.
	Update(ctx context.Context, id string, updates map[string]any) (*Project, error)
	// Delete removes the project row only; callers delete dependent tasks first.
	Delete(ctx context.Context, id string) error
	EnsureTable(ctx context.Context) error
}
