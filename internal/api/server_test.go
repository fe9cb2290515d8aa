package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"taskhive/internal/localdb"
	"taskhive/internal/model"
	"taskhive/internal/store"
	"taskhive/internal/views"
	"taskhive/pkg/analytics"
	"taskhive/pkg/auth"
)

type testEnv struct {
	srv   *Server
	store *store.Store
	db    *localdb.DB
	token string
}

// newTestEnv signs up and signs in ada@example.com and attaches the store to
// that session.
func newTestEnv(t *testing.T, opts ...auth.ClientOption) *testEnv {
	t.Helper()
	db, err := localdb.Open(":memory:")
	require.NoError(t, err)

	st := store.New(store.Remote{
		Projects:   db.Projects(),
		Tasks:      db.Tasks(),
		SubTasks:   db.SubTasks(),
		Activities: db.Activities(),
		Profiles:   db.Profiles(),
	}, store.WithRefreshInterval(0), store.WithAnalytics(analytics.New(100)))
	t.Cleanup(func() {
		st.Close()
		db.Close()
	})

	client := auth.NewClient(db.Auth(), append([]auth.ClientOption{auth.WithBcryptCost(bcrypt.MinCost)}, opts...)...)
	env := &testEnv{
		srv:   New(st, client, WithAnalytics(analytics.New(100)), WithPing(db.Ping)),
		store: st,
		db:    db,
	}

	env.token = env.signUpAndIn(t, "ada@example.com", "Ada Lovelace")
	require.Equal(t, http.StatusOK, env.do(t, "GET", "/api/auth/session", nil).Code)
	return env
}

// signUpAndIn registers email and signs it in, returning its access token.
// The env token is left untouched.
func (e *testEnv) signUpAndIn(t *testing.T, email, name string) string {
	t.Helper()
	keep := e.token
	defer func() { e.token = keep }()

	rec := e.do(t, "POST", "/api/auth/signup", map[string]string{
		"email": email, "password": "secret1", "full_name": name,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(t, "POST", "/api/auth/signin", map[string]string{
		"email": email, "password": "secret1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sess auth.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	return sess.AccessToken
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	rec := httptest.NewRecorder()
	e.srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestDataRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t)

	token := env.token
	env.token = ""
	assert.Equal(t, http.StatusUnauthorized, env.do(t, "GET", "/api/projects", nil).Code)

	env.token = "not-a-token"
	assert.Equal(t, http.StatusUnauthorized, env.do(t, "GET", "/api/projects", nil).Code)

	env.token = token
	assert.Equal(t, http.StatusOK, env.do(t, "GET", "/api/projects", nil).Code)

	// System routes stay open.
	env.token = ""
	assert.Equal(t, http.StatusOK, env.do(t, "GET", "/health", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, "GET", "/api/status", nil).Code)
}

func TestSignInRejectsBadPassword(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, "POST", "/api/auth/signin", map[string]string{
		"email": "ada@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, "POST", "/api/auth/signup", map[string]string{
		"email": "ada@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPasswordChangeMismatch(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, "PUT", "/api/auth/password", map[string]string{
		"password": "newsecret", "confirm_password": "other",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, "PUT", "/api/auth/password", map[string]string{
		"password": "newsecret", "confirm_password": "newsecret",
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestProjectTaskSubTaskFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/projects", model.ProjectInput{Name: "Website"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decode[model.Project](t, rec)
	assert.Equal(t, model.ProjectActive, p.Status)

	rec = env.do(t, "POST", "/api/tasks", model.TaskInput{ProjectID: p.ID, Title: "Homepage"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	task := decode[model.Task](t, rec)
	assert.Equal(t, model.TaskTodo, task.Status)

	rec = env.do(t, "POST", "/api/tasks/"+task.ID+"/subtasks", map[string]string{"title": "Hero"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sub := decode[model.SubTask](t, rec)

	rec = env.do(t, "GET", "/api/tasks/"+task.ID+"/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0.0, decode[map[string]any](t, rec)["percent"])

	rec = env.do(t, "PATCH", "/api/subtasks/"+sub.ID, map[string]bool{"completed": true})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = env.do(t, "GET", "/api/tasks/"+task.ID+"/progress", nil)
	assert.Equal(t, 100.0, decode[map[string]any](t, rec)["percent"])

	rec = env.do(t, "PATCH", "/api/tasks/"+task.ID, map[string]string{"status": "done"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[model.Task](t, rec)
	assert.Equal(t, model.TaskDone, updated.Status)
	assert.Len(t, updated.SubTasks, 1)

	rec = env.do(t, "GET", "/api/projects/"+p.ID+"/stats", nil)
	assert.Equal(t, views.Stats{Total: 1, Completed: 1}, decode[views.Stats](t, rec))

	rec = env.do(t, "GET", "/api/dashboard", nil)
	dash := decode[views.DashboardStats](t, rec)
	assert.Equal(t, 1, dash.TotalProjects)
	assert.Equal(t, 100, dash.CompletionPercent)

	env.store.Wait()
	rec = env.do(t, "GET", "/api/sync/"+p.ID, nil)
	state := decode[map[string]string](t, rec)
	assert.Equal(t, "confirmed", state["state"])

	rec = env.do(t, "GET", "/api/activities?limit=2", nil)
	acts := decode[[]model.Activity](t, rec)
	require.Len(t, acts, 2)
	assert.Equal(t, "Moved task to done", acts[0].Action)

	rec = env.do(t, "DELETE", "/api/projects/"+p.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, "GET", "/api/tasks/"+task.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidationErrors(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusBadRequest, env.do(t, "POST", "/api/projects", model.ProjectInput{}).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, "PATCH", "/api/projects/missing", map[string]string{"name": "x"}).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, "POST", "/api/tasks", model.TaskInput{ProjectID: "missing", Title: "T"}).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, "DELETE", "/api/subtasks/missing", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, "PATCH", "/api/profile", map[string]string{"name": "  "}).Code)

	req := httptest.NewRequest("POST", "/api/projects", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+env.token)
	rec := httptest.NewRecorder()
	env.srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTaskSearch(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.store.AddProject(model.ProjectInput{Name: "P"})
	require.NoError(t, err)
	for _, in := range []model.TaskInput{
		{ProjectID: p.ID, Title: "Write API docs", Priority: model.PriorityHigh, DueDate: "2024-01-10"},
		{ProjectID: p.ID, Title: "Fix login", Priority: model.PriorityLow, DueDate: "2024-01-20"},
		{ProjectID: p.ID, Title: "API rate limits", Priority: model.PriorityHigh, DueDate: "2024-02-01"},
	} {
		_, err := env.store.AddTask(in)
		require.NoError(t, err)
	}

	rec := env.do(t, "GET", "/api/tasks?q=api&sort=dueDate&desc=true", nil)
	got := decode[[]model.Task](t, rec)
	require.Len(t, got, 2)
	assert.Equal(t, "API rate limits", got[0].Title)

	rec = env.do(t, "GET", "/api/tasks?filter=dueDate:between:2024-01-01:2024-01-31&filter=priority:equals:high", nil)
	got = decode[[]model.Task](t, rec)
	require.Len(t, got, 1)
	assert.Equal(t, "Write API docs", got[0].Title)

	rec = env.do(t, "GET", "/api/tasks?filter=title:sounds:x", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyticsRoutes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, "POST", "/api/analytics/events", map[string]string{"event": "opened_board", "category": "navigation"})
	require.Equal(t, http.StatusCreated, rec.Code)

	stats := decode[analytics.Stats](t, env.do(t, "GET", "/api/analytics", nil))
	assert.Equal(t, 1, stats.EventsByCategory["navigation"])
	assert.GreaterOrEqual(t, stats.TotalEvents, 2) // sign-up and sign-in are tracked too

	assert.Equal(t, http.StatusNoContent, env.do(t, "DELETE", "/api/analytics", nil).Code)
	assert.Empty(t, decode[[]analytics.Event](t, env.do(t, "GET", "/api/analytics/history", nil)))
}

func TestStreamDeliversChanges(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.srv)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", ts.URL+"/api/stream", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+env.token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// The subscription is registered before the headers are flushed.
	_, err = env.store.AddProject(model.ProjectInput{Name: "Streamed"})
	require.NoError(t, err)

	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		if sc.Text() == "event: project" {
			require.True(t, sc.Scan())
			assert.Contains(t, sc.Text(), `"op":"create"`)
			return
		}
	}
	t.Fatalf("stream ended without a project event: %v", sc.Err())
}

func TestOtherUsersTokenCannotWriteProfile(t *testing.T) {
	env := newTestEnv(t)
	ada := env.token
	rec := env.do(t, "GET", "/api/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	adaID := env.store.Owner()
	require.NotEmpty(t, adaID)

	grace := env.signUpAndIn(t, "grace@example.com", "Grace Hopper")
	env.token = ada
	rec = env.do(t, "POST", "/api/auth/signin", map[string]string{"email": "ada@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	ada = decode[auth.Session](t, rec).AccessToken

	env.token = grace
	rec = env.do(t, "PATCH", "/api/profile", map[string]string{"role": "Admiral"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, "GET", "/api/profile", nil).Code)

	env.token = ada
	rec = env.do(t, "GET", "/api/profile", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	prof := decode[model.UserProfile](t, rec)
	assert.Equal(t, "ada@example.com", prof.Email)
	assert.NotEqual(t, "Admiral", prof.Role)

	env.store.Wait()
	row, err := env.db.Profiles().Get(context.Background(), adaID)
	require.NoError(t, err)
	if row.Role != nil {
		assert.NotEqual(t, "Admiral", *row.Role)
	}
}

func TestSignOutHandsOverToStoredSession(t *testing.T) {
	env := newTestEnv(t)
	ada := env.token
	_, err := env.store.AddProject(model.ProjectInput{Name: "Ada's"})
	require.NoError(t, err)
	env.store.Wait()

	grace := env.signUpAndIn(t, "grace@example.com", "Grace Hopper")
	env.token = ada
	rec := env.do(t, "POST", "/api/auth/signin", map[string]string{"email": "ada@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	env.token = decode[auth.Session](t, rec).AccessToken
	require.Equal(t, http.StatusNoContent, env.do(t, "POST", "/api/auth/signout", nil).Code)
	assert.Empty(t, env.store.Projects(), "sign-out clears the workspace")

	env.token = grace
	rec = env.do(t, "PATCH", "/api/profile", map[string]string{"role": "Admiral"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	prof := decode[model.UserProfile](t, rec)
	assert.Equal(t, "grace@example.com", prof.Email)
	assert.Equal(t, "Admiral", prof.Role)
	assert.Equal(t, "Grace Hopper", prof.Name)
}

func TestExpiredSessionIsRejected(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	env := newTestEnv(t, auth.WithClock(clock), auth.WithSessionTTL(time.Hour))
	assert.Equal(t, http.StatusOK, env.do(t, "GET", "/api/projects", nil).Code)

	mu.Lock()
	now = now.Add(48 * time.Hour)
	mu.Unlock()
	assert.Equal(t, http.StatusUnauthorized, env.do(t, "GET", "/api/projects", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, "GET", "/api/projects", nil).Code, "expired token stays rejected")
}
