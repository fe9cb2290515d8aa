package profile

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the user has no profile row yet.
var ErrNotFound = errors.New("profile not found")

// Profile is the remote user_profiles row, keyed by the auth user ID.
type Profile struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	Role           *string   `json:"role,omitempty"`
	FocusHours     *int      `json:"focus_hours,omitempty"`
	AvatarInitials *string   `json:"avatar_initials,omitempty"`
	AvatarColor    *string   `json:"avatar_color,omitempty"`
	AvatarURL      *string   `json:"avatar_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Store is the contract for profile persistence.
type Store interface {
	Get(ctx context.Context, userID string) (*Profile, error)
	// Create inserts a profile; the ID must already be set to the user ID.
	Create(ctx context.Context, p *Profile) (*Profile, error)
	// Update applies a partial patch. Supported keys: email, full_name, role,
	// focus_hours, avatar_initials, avatar_color, avatar_url.
	Update(ctx context.Context, userID string, updates map[string]any) (*Profile, error)
	EnsureTable(ctx context.Context) error
}
