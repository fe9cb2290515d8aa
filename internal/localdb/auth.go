package localdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taskhive/pkg/auth"
)

// AuthStore implements auth.Store.
type AuthStore struct{ db *DB }

var _ auth.Store = (*AuthStore)(nil)

type userRow struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	FullName     string    `db:"full_name"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

func (s *AuthStore) EnsureTable(ctx context.Context) error { return s.db.Migrate(ctx) }

func (s *AuthStore) CreateUser(ctx context.Context, email, fullName, passwordHash string) (*auth.User, error) {
	u := &auth.User{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Email:     email,
		FullName:  fullName,
		CreatedAt: now(),
	}
	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO users (id, email, full_name, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.FullName, passwordHash, u.CreatedAt)
	if isUniqueViolation(err) {
		return nil, auth.ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("create user %s: %w", email, err)
	}
	return u, nil
}

func (s *AuthStore) UserByEmail(ctx context.Context, email string) (*auth.User, string, error) {
	var r userRow
	err := s.db.conn.GetContext(ctx, &r, `SELECT * FROM users WHERE email = ?`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", auth.ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("get user %s: %w", email, err)
	}
	return &auth.User{ID: r.ID, Email: r.Email, FullName: r.FullName, CreatedAt: r.CreatedAt}, r.PasswordHash, nil
}

func (s *AuthStore) SetPassword(ctx context.Context, userID, passwordHash string) error {
	res, err := s.db.conn.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("set password %s: %w", userID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return auth.ErrNotFound
	}
	return nil
}

func (s *AuthStore) CreateSession(ctx context.Context, token, userID string, expiresAt time.Time) error {
	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		token, userID, expiresAt.UTC())
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *AuthStore) SessionUser(ctx context.Context, token string) (*auth.User, time.Time, error) {
	var row struct {
		userRow
		ExpiresAt time.Time `db:"expires_at"`
	}
	err := s.db.conn.GetContext(ctx, &row, `
		SELECT u.id, u.email, u.full_name, u.password_hash, u.created_at, s.expires_at
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.token = ?`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, auth.ErrNotFound
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("get session: %w", err)
	}
	u := &auth.User{ID: row.ID, Email: row.Email, FullName: row.FullName, CreatedAt: row.CreatedAt}
	return u, row.ExpiresAt, nil
}

func (s *AuthStore) DeleteSession(ctx context.Context, token string) error {
	if _, err := s.db.conn.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
