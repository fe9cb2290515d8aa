// Package activity defines the append-only activity log record and its
// persistence.
package activity

import (
	"context"
	"time"
)

// Activity is one row of the remote activities log.
type Activity struct {
	ID        string    `json:"id"`         // UUID v7 (time-ordered)
	Action    string    `json:"action"`     // e.g. "Created new project"
	Project   string    `json:"project"`    // label of the thing acted on
	CreatedAt time.Time `json:"created_at"` // when the action happened
}

// Store is the contract for activity persistence. Rows are never updated.
type Store interface {
	Create(ctx context.Context, a *Activity) (*Activity, error)
	// Recent returns the newest rows first.
	Recent(ctx context.Context, limit int) ([]Activity, error)
	EnsureTable(ctx context.Context) error
}
