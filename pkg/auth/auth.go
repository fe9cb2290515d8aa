// Package auth provides the session collaborator: email/password sign-up and
// sign-in, a current session with change notifications, sign-out and password
// change. Users and sessions are persisted through Store.
package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrEmailTaken         = errors.New("user already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password should be at least 6 characters")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrNoSession          = errors.New("no active session")
	ErrSessionExpired     = errors.New("session expired")
	ErrNotFound           = errors.New("not found")
)

// MinPasswordLength is the shortest password SignUp and UpdateUser accept.
const MinPasswordLength = 6

// User is an authenticated identity.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is the credential state of a signed-in user.
type Session struct {
	AccessToken string    `json:"access_token"`
	User        User      `json:"user"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// UserUpdate changes the signed-in user. Password must equal ConfirmPassword.
type UserUpdate struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Store is the contract for user and session persistence.
type Store interface {
	// CreateUser returns ErrEmailTaken when the email is registered.
	CreateUser(ctx context.Context, email, fullName, passwordHash string) (*User, error)
	// UserByEmail returns the user and its password hash, or ErrNotFound.
	UserByEmail(ctx context.Context, email string) (*User, string, error)
	SetPassword(ctx context.Context, userID, passwordHash string) error

	CreateSession(ctx context.Context, token, userID string, expiresAt time.Time) error
	// SessionUser resolves a token, or returns ErrNotFound.
	SessionUser(ctx context.Context, token string) (*User, time.Time, error)
	DeleteSession(ctx context.Context, token string) error

	EnsureTable(ctx context.Context) error
}
