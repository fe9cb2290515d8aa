package store

import (
	"context"

	"go.uber.org/zap"

	"taskhive/pkg/auth"
)

// SessionSource is the part of auth.Client the store follows.
type SessionSource interface {
	Session() *auth.Session
	Subscribe() chan *auth.Session
	Unsubscribe(ch chan *auth.Session)
}

// Attach makes user the owner of the store's data. The first Attach for a
// user loads everything and returns once the load is done, resetting first
// when another user's workspace was loaded. Attaching the current owner
// again returns at once.
func (s *Store) Attach(ctx context.Context, user auth.User) {
	s.attachMu.Lock()
	defer s.attachMu.Unlock()
	cur := s.attachedUser()
	if cur == user.ID {
		return
	}
	if cur != "" {
		s.Reset()
	}
	s.log.Info("session started", zap.String("user", user.ID))
	s.LoadAll(ctx)
	s.LoadProfile(ctx, user)

	s.mu.Lock()
	s.attached = user.ID
	s.mu.Unlock()
}

// Detach resets the store if a user is attached.
func (s *Store) Detach() {
	s.attachMu.Lock()
	defer s.attachMu.Unlock()
	cur := s.attachedUser()
	if cur == "" {
		return
	}
	s.log.Info("session ended", zap.String("user", cur))
	s.Reset()
}

func (s *Store) attachedUser() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached
}

// Owner returns the id of the user whose profile is loaded, or "" when none
// is.
func (s *Store) Owner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// WatchSession attaches the store to every session that appears and detaches
// it when the session goes away. It returns when ctx is done or the source
// closes its channel.
func (s *Store) WatchSession(ctx context.Context, src SessionSource) {
	ch := src.Subscribe()
	defer src.Unsubscribe(ch)

	handle := func(sess *auth.Session) {
		if sess == nil {
			s.Detach()
			return
		}
		s.Attach(ctx, sess.User)
	}

	handle(src.Session())
	for {
		select {
		case <-ctx.Done():
			return
		case sess, ok := <-ch:
			if !ok {
				return
			}
			handle(sess)
		}
	}
}
