package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed activity log.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the activities table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS activities (
			id         TEXT PRIMARY KEY,
			action     TEXT NOT NULL,
			project    TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_activities_created_id ON activities(created_at, id)`)
	return err
}

// Create appends an entry. A zero CreatedAt is stamped with the current time;
// otherwise the client timestamp is kept so the feed order survives a reload.
func (s *PgStore) Create(ctx context.Context, a *Activity) (*Activity, error) {
	a.ID = uuid.Must(uuid.NewV7()).String()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	a.CreatedAt = a.CreatedAt.Truncate(time.Microsecond)

	_, err := s.pool.Exec(ctx, `
		INSERT INTO activities (id, action, project, created_at)
		VALUES ($1, $2, $3, $4)`,
		a.ID, a.Action, a.Project, a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}
	return a, nil
}

// Recent returns the most recent entries in reverse chronological order.
func (s *PgStore) Recent(ctx context.Context, limit int) ([]Activity, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, action, project, created_at
		FROM activities ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent activities: %w", err)
	}
	defer rows.Close()

	var out []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.Action, &a.Project, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return out, nil
}
