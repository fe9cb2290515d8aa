package store

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"taskhive/internal/mapper"
	"taskhive/internal/model"
	"taskhive/pkg/auth"
	"taskhive/pkg/profile"
)

// profileKey is the SyncState id of the profile record.
const profileKey = "profile"

// LoadProfile reads the signed-in user's profile, creating the row on first
// use. Failures are logged and leave a profile built from the user alone.
func (s *Store) LoadProfile(ctx context.Context, user auth.User) {
	row, err := s.remote.Profiles.Get(ctx, user.ID)
	if errors.Is(err, profile.ErrNotFound) {
		row, err = s.remote.Profiles.Create(ctx, mapper.NewProfileRecord(user.ID, user.Email, user.FullName))
	}

	var p model.UserProfile
	if err != nil {
		s.log.Warn("load profile", zap.String("user", user.ID), zap.Error(err))
		p = mapper.ToLocalProfile(*mapper.NewProfileRecord(user.ID, user.Email, user.FullName))
	} else {
		p = mapper.ToLocalProfile(*row)
	}

	s.mu.Lock()
	s.profile = p
	s.userID = user.ID
	s.mu.Unlock()
	s.bus.publish(Change{Kind: ChangeProfile, Op: "load", ID: profileKey})
}

// UpdateProfile merges patch into the profile. A new name re-derives the
// avatar initials.
func (s *Store) UpdateProfile(patch model.ProfilePatch) error {
	return s.updateProfile("", patch)
}

// UpdateProfileAs is UpdateProfile on behalf of userID. It returns
// ErrNotOwner, changing nothing, unless userID's profile is the one loaded.
func (s *Store) UpdateProfileAs(userID string, patch model.ProfilePatch) error {
	if userID == "" {
		return ErrNotOwner
	}
	return s.updateProfile(userID, patch)
}

func (s *Store) updateProfile(actor string, patch model.ProfilePatch) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return ErrEmptyName
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if actor != "" && actor != s.userID {
		return ErrNotOwner
	}
	patch.Apply(&s.profile)

	userID := s.userID
	if updates := mapper.ProfilePatchToRemote(patch); len(updates) > 0 && userID != "" {
		s.coord.run("update profile", profileKey, func(ctx context.Context) error {
			_, err := s.remote.Profiles.Update(ctx, userID, updates)
			return err
		})
	}
	s.bus.publish(Change{Kind: ChangeProfile, Op: "update", ID: profileKey})
	s.addActivityLocked("Updated profile", "Profile")
	s.analytics.Track("profile_updated", "profile", nil)
	return nil
}
