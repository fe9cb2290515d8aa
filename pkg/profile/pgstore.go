package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed profile store.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

const profileColumns = `id, email, full_name, role, focus_hours, avatar_initials, avatar_color, avatar_url, created_at, updated_at`

// EnsureTable creates the user_profiles table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS user_profiles (
			id              TEXT PRIMARY KEY,
			email           TEXT NOT NULL DEFAULT '',
			full_name       TEXT NOT NULL DEFAULT '',
			role            TEXT,
			focus_hours     INTEGER,
			avatar_initials TEXT,
			avatar_color    TEXT,
			avatar_url      TEXT,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return err
}

// Get returns the profile of a user, or ErrNotFound.
func (s *PgStore) Get(ctx context.Context, userID string) (*Profile, error) {
	p, err := s.scanOne(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE id = $1`, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", userID, err)
	}
	return p, nil
}

// Create inserts a profile row for p.ID.
func (s *PgStore) Create(ctx context.Context, p *Profile) (*Profile, error) {
	now := time.Now().Truncate(time.Microsecond)
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_profiles (`+profileColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		p.ID, p.Email, p.FullName, p.Role, p.FocusHours, p.AvatarInitials, p.AvatarColor, p.AvatarURL, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create profile %s: %w", p.ID, err)
	}
	return p, nil
}

// Update modifies profile fields and stamps updated_at.
func (s *PgStore) Update(ctx context.Context, userID string, updates map[string]any) (*Profile, error) {
	now := time.Now().Truncate(time.Microsecond)

	setClauses := "updated_at = $1"
	args := []any{now}
	argIdx := 2

	for k, v := range updates {
		switch k {
		case "email", "full_name", "role", "focus_hours", "avatar_initials", "avatar_color", "avatar_url":
			setClauses += fmt.Sprintf(", %s = $%d", k, argIdx)
			args = append(args, v)
			argIdx++
		}
	}

	args = append(args, userID)
	query := fmt.Sprintf("UPDATE user_profiles SET %s WHERE id = $%d RETURNING %s", setClauses, argIdx, profileColumns)
	p, err := s.scanOne(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update profile %s: %w", userID, err)
	}
	return p, nil
}

func (s *PgStore) scanOne(ctx context.Context, query string, args ...any) (*Profile, error) {
	var p Profile
	err := s.pool.QueryRow(ctx, query, args...).
		Scan(&p.ID, &p.Email, &p.FullName, &p.Role, &p.FocusHours, &p.AvatarInitials, &p.AvatarColor, &p.AvatarURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
