package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Client holds the current session and fans out session changes to
// subscribers. A nil *Session on a subscriber channel means signed out.
type Client struct {
	store Store
	ttl   time.Duration
	cost  int
	now   func() time.Time

	mu      sync.Mutex
	current *Session
	subs    map[chan *Session]struct{}
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithSessionTTL sets how long a new session stays valid.
func WithSessionTTL(d time.Duration) ClientOption {
	return func(c *Client) { c.ttl = d }
}

// WithBcryptCost sets the password hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) ClientOption {
	return func(c *Client) { c.cost = cost }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) { c.now = now }
}

// NewClient creates a Client with no current session.
func NewClient(store Store, opts ...ClientOption) *Client {
	c := &Client{
		store: store,
		ttl:   7 * 24 * time.Hour,
		cost:  bcrypt.DefaultCost,
		now:   time.Now,
		subs:  make(map[chan *Session]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns a copy of the current session, or nil when signed out. A
// session past its expiry is dropped and subscribers are told nil.
func (c *Client) Session() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	if !c.now().Before(c.current.ExpiresAt) {
		c.setSessionLocked(nil)
		return nil
	}
	s := *c.current
	return &s
}

// Subscribe returns a buffered channel that receives every session change.
func (c *Client) Subscribe() chan *Session {
	ch := make(chan *Session, 8)
	c.mu.Lock()
	c.subs[ch] = struct{}{}
	c.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (c *Client) Unsubscribe(ch chan *Session) {
	c.mu.Lock()
	if _, ok := c.subs[ch]; ok {
		delete(c.subs, ch)
		close(ch)
	}
	c.mu.Unlock()
}

// SignUp registers a new user. It does not sign the user in.
func (c *Client) SignUp(ctx context.Context, email, password, fullName string) (*User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), c.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return c.store.CreateUser(ctx, email, strings.TrimSpace(fullName), string(hash))
}

// SignIn checks the credentials, opens a session and notifies subscribers.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	user, hash, err := c.store.UserByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("sign in %s: %w", email, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	sess := &Session{
		AccessToken: uuid.NewString(),
		User:        *user,
		ExpiresAt:   c.now().Add(c.ttl).Truncate(time.Microsecond),
	}
	if err := c.store.CreateSession(ctx, sess.AccessToken, user.ID, sess.ExpiresAt); err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	c.setSession(sess)
	return c.Session(), nil
}

// Restore adopts an existing access token as the current session.
func (c *Client) Restore(ctx context.Context, token string) (*Session, error) {
	user, expiresAt, err := c.store.SessionUser(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("restore session: %w", err)
	}
	if !c.now().Before(expiresAt) {
		_ = c.store.DeleteSession(ctx, token)
		return nil, ErrSessionExpired
	}
	c.setSession(&Session{AccessToken: token, User: *user, ExpiresAt: expiresAt})
	return c.Session(), nil
}

// SignOut drops the current session. Signing out while signed out is a no-op.
func (c *Client) SignOut(ctx context.Context) error {
	sess := c.Session()
	if sess == nil {
		return nil
	}
	err := c.store.DeleteSession(ctx, sess.AccessToken)
	c.setSession(nil)
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// UpdateUser changes the signed-in user's password. The confirmation is
// checked before anything is sent to the store.
func (c *Client) UpdateUser(ctx context.Context, u UserUpdate) error {
	if u.Password != u.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if len(u.Password) < MinPasswordLength {
		return ErrWeakPassword
	}
	sess := c.Session()
	if sess == nil {
		return ErrNoSession
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), c.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return c.store.SetPassword(ctx, sess.User.ID, string(hash))
}

func (c *Client) setSession(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setSessionLocked(s)
}

func (c *Client) setSessionLocked(s *Session) {
	c.current = s
	for ch := range c.subs {
		var out *Session
		if s != nil {
			cp := *s
			out = &cp
		}
		select {
		case ch <- out:
		default:
			// subscriber is behind; it will read Session() on its next turn
		}
	}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}
