package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"taskhive/internal/store"
	"taskhive/pkg/analytics"
	"taskhive/pkg/auth"
)

// Server is the HTTP API server.
type Server struct {
	store     *store.Store
	auth      *auth.Client
	analytics *analytics.Log
	ping      func(context.Context) error
	log       *zap.Logger
	started   time.Time
	mux       *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l.Named("api")
		}
	}
}

// WithPing sets the backend health check reported by /health.
func WithPing(fn func(context.Context) error) Option {
	return func(s *Server) { s.ping = fn }
}

// WithAnalytics sets the log served under /api/analytics. Defaults to
// analytics.Default().
func WithAnalytics(l *analytics.Log) Option {
	return func(s *Server) { s.analytics = l }
}

// New creates a new Server.
func New(st *store.Store, client *auth.Client, opts ...Option) *Server {
	s := &Server{
		store:   st,
		auth:    client,
		log:     zap.NewNop(),
		ping:    func(context.Context) error { return nil },
		started: time.Now(),
		mux:     http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.analytics == nil {
		s.analytics = analytics.Default()
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	// Auth
	s.mux.HandleFunc("POST /api/auth/signup", s.handleSignUp)
	s.mux.HandleFunc("POST /api/auth/signin", s.handleSignIn)
	s.mux.HandleFunc("POST /api/auth/signout", s.requireSession(s.handleSignOut))
	s.mux.HandleFunc("GET /api/auth/session", s.requireSession(s.handleSession))
	s.mux.HandleFunc("PUT /api/auth/password", s.requireSession(s.handlePasswordChange))

	// Projects
	s.mux.HandleFunc("GET /api/projects", s.requireSession(s.handleProjectList))
	s.mux.HandleFunc("POST /api/projects", s.requireSession(s.handleProjectCreate))
	s.mux.HandleFunc("GET /api/projects/{id}", s.requireSession(s.handleProjectGet))
	s.mux.HandleFunc("PATCH /api/projects/{id}", s.requireSession(s.handleProjectUpdate))
	s.mux.HandleFunc("DELETE /api/projects/{id}", s.requireSession(s.handleProjectDelete))
	s.mux.HandleFunc("GET /api/projects/{id}/stats", s.requireSession(s.handleProjectStats))
	s.mux.HandleFunc("GET /api/projects/{id}/board", s.requireSession(s.handleProjectBoard))

	// Tasks
	s.mux.HandleFunc("GET /api/tasks", s.requireSession(s.handleTaskList))
	s.mux.HandleFunc("POST /api/tasks", s.requireSession(s.handleTaskCreate))
	s.mux.HandleFunc("GET /api/tasks/{id}", s.requireSession(s.handleTaskGet))
	s.mux.HandleFunc("PATCH /api/tasks/{id}", s.requireSession(s.handleTaskUpdate))
	s.mux.HandleFunc("DELETE /api/tasks/{id}", s.requireSession(s.handleTaskDelete))
	s.mux.HandleFunc("GET /api/tasks/{id}/progress", s.requireSession(s.handleTaskProgress))
	s.mux.HandleFunc("POST /api/tasks/{id}/subtasks", s.requireSession(s.handleSubTaskCreate))

	// Subtasks
	s.mux.HandleFunc("PATCH /api/subtasks/{id}", s.requireSession(s.handleSubTaskUpdate))
	s.mux.HandleFunc("DELETE /api/subtasks/{id}", s.requireSession(s.handleSubTaskDelete))

	// Views
	s.mux.HandleFunc("GET /api/dashboard", s.requireSession(s.handleDashboard))
	s.mux.HandleFunc("GET /api/activities", s.requireSession(s.handleActivityList))
	s.mux.HandleFunc("POST /api/activities", s.requireSession(s.handleActivityCreate))
	s.mux.HandleFunc("GET /api/profile", s.requireSession(s.handleProfileGet))
	s.mux.HandleFunc("PATCH /api/profile", s.requireSession(s.handleProfileUpdate))
	s.mux.HandleFunc("GET /api/sync/{id}", s.requireSession(s.handleSyncState))
	s.mux.HandleFunc("GET /api/stream", s.requireSession(s.handleStream))

	// Analytics
	s.mux.HandleFunc("GET /api/analytics", s.requireSession(s.handleAnalyticsStats))
	s.mux.HandleFunc("GET /api/analytics/history", s.requireSession(s.handleAnalyticsHistory))
	s.mux.HandleFunc("POST /api/analytics/events", s.requireSession(s.handleAnalyticsTrack))
	s.mux.HandleFunc("DELETE /api/analytics", s.requireSession(s.handleAnalyticsClear))

	// System
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/status", s.handleStatus)
}

// requireSession admits requests whose bearer token is the current session.
// When nobody is signed in, a stored session can be restored. The store is
// attached to the session user before next runs, so handlers never see
// another user's workspace. Anything else gets 401.
func (s *Server) requireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		sess := s.auth.Session()
		switch {
		case sess == nil:
			restored, err := s.auth.Restore(r.Context(), token)
			if err != nil {
				if !errors.Is(err, auth.ErrNoSession) && !errors.Is(err, auth.ErrSessionExpired) {
					s.log.Warn("restore session", zap.Error(err))
				}
				writeError(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}
			sess = restored
		case sess.AccessToken != token:
			writeError(w, http.StatusUnauthorized, "token is not the signed-in session")
			return
		}

		s.store.Attach(context.WithoutCancel(r.Context()), sess.User)
		next(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	}
}

type sessionKey struct{}

// sessionFrom returns the session requireSession admitted the request with.
func sessionFrom(r *http.Request) *auth.Session {
	sess, _ := r.Context().Value(sessionKey{}).(*auth.Session)
	return sess
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(h, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"uptime":     time.Since(s.started).Round(time.Second).String(),
		"signedIn":   s.auth.Session() != nil,
		"loading":    snap.Loading,
		"projects":   len(snap.Projects),
		"tasks":      len(snap.Tasks),
		"subTasks":   len(snap.SubTasks),
		"activities": len(snap.Activities),
	})
}

// writeStoreError maps domain errors to status codes.
func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrProjectNotFound),
		errors.Is(err, store.ErrTaskNotFound),
		errors.Is(err, store.ErrSubTaskNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrEmptyName),
		errors.Is(err, store.ErrEmptyTitle),
		errors.Is(err, store.ErrInvalidStatus),
		errors.Is(err, store.ErrInvalidPriority),
		errors.Is(err, store.ErrSubTaskConflict):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotOwner):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}

func queryBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}
