package localdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhive/internal/model"
	"taskhive/pkg/activity"
	"taskhive/pkg/auth"
	"taskhive/pkg/profile"
	"taskhive/pkg/project"
	"taskhive/pkg/subtask"
	"taskhive/pkg/task"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "data", "taskhive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestProjectLifecycle(t *testing.T) {
	ctx := context.Background()
	projects := openTest(t).Projects()

	created, err := projects.Create(ctx, &project.Project{
		Name:    "Website",
		Members: []string{"AZ", "JD"},
		Status:  model.Ptr("active"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	list, err := projects.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Website", list[0].Name)
	assert.Equal(t, []string{"AZ", "JD"}, list[0].Members)
	assert.Nil(t, list[0].Color)
	assert.True(t, created.CreatedAt.Equal(list[0].CreatedAt))

	updated, err := projects.Update(ctx, created.ID, map[string]any{
		"name":    "Site",
		"members": []string{"AZ"},
		"bogus":   "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, "Site", updated.Name)
	assert.Equal(t, []string{"AZ"}, updated.Members)
	assert.Equal(t, "active", *updated.Status)

	require.NoError(t, projects.Delete(ctx, created.ID))
	list, err = projects.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateMissingRow(t *testing.T) {
	_, err := openTest(t).Tasks().Update(context.Background(), "nope", map[string]any{"title": "x"})
	assert.ErrorIs(t, err, ErrNoRow)
}

func TestTasksAndSubTasksRespectForeignKeys(t *testing.T) {
	ctx := context.Background()
	db := openTest(t)

	_, err := db.Tasks().Create(ctx, &task.Task{ProjectID: "missing", Title: "orphan"})
	require.Error(t, err)

	p, err := db.Projects().Create(ctx, &project.Project{Name: "P"})
	require.NoError(t, err)
	tk, err := db.Tasks().Create(ctx, &task.Task{ProjectID: p.ID, Title: "T", Status: model.Ptr("todo")})
	require.NoError(t, err)

	st, err := db.SubTasks().Create(ctx, &subtask.SubTask{TaskID: tk.ID, Title: "S", Completed: model.Ptr(false)})
	require.NoError(t, err)

	// The parent cannot go while children remain.
	require.Error(t, db.Tasks().Delete(ctx, tk.ID))

	got, err := db.SubTasks().Update(ctx, st.ID, map[string]any{"completed": true})
	require.NoError(t, err)
	require.NotNil(t, got.Completed)
	assert.True(t, *got.Completed)

	movedTask, err := db.Tasks().Update(ctx, tk.ID, map[string]any{"status": "done", "due_date": "2024-05-01"})
	require.NoError(t, err)
	assert.Equal(t, "done", *movedTask.Status)
	assert.Equal(t, "2024-05-01", *movedTask.DueDate)
	assert.Nil(t, movedTask.Priority)

	require.NoError(t, db.SubTasks().DeleteByTask(ctx, tk.ID))
	require.NoError(t, db.Tasks().DeleteByProject(ctx, p.ID))
	require.NoError(t, db.Projects().Delete(ctx, p.ID))

	subs, err := db.SubTasks().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestActivitiesRecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	acts := openTest(t).Activities()
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	for i, action := range []string{"first", "second", "third"} {
		_, err := acts.Create(ctx, &activity.Activity{
			Action:    action,
			Project:   "P",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	recent, err := acts.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "third", recent[0].Action)
	assert.Equal(t, "second", recent[1].Action)
	assert.True(t, recent[0].CreatedAt.Equal(base.Add(2*time.Minute)))
}

func TestProfileGetCreateUpdate(t *testing.T) {
	ctx := context.Background()
	profiles := openTest(t).Profiles()

	_, err := profiles.Get(ctx, "u1")
	require.ErrorIs(t, err, profile.ErrNotFound)

	_, err = profiles.Create(ctx, &profile.Profile{ID: "u1", Email: "a@b.co", FullName: "Ada Lovelace"})
	require.NoError(t, err)

	p, err := profiles.Update(ctx, "u1", map[string]any{"focus_hours": 6, "avatar_initials": "AL"})
	require.NoError(t, err)
	require.NotNil(t, p.FocusHours)
	assert.Equal(t, 6, *p.FocusHours)
	assert.Equal(t, "AL", *p.AvatarInitials)
	assert.Nil(t, p.Role)
}

func TestAuthStore(t *testing.T) {
	ctx := context.Background()
	store := openTest(t).Auth()

	u, err := store.CreateUser(ctx, "a@b.co", "Ada", "hash1")
	require.NoError(t, err)

	_, err = store.CreateUser(ctx, "a@b.co", "Other", "hash2")
	require.ErrorIs(t, err, auth.ErrEmailTaken)

	got, hash, err := store.UserByEmail(ctx, "a@b.co")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash1", hash)

	require.NoError(t, store.SetPassword(ctx, u.ID, "hash3"))
	_, hash, err = store.UserByEmail(ctx, "a@b.co")
	require.NoError(t, err)
	assert.Equal(t, "hash3", hash)
	assert.ErrorIs(t, store.SetPassword(ctx, "ghost", "x"), auth.ErrNotFound)

	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.CreateSession(ctx, "tok", u.ID, exp))
	su, gotExp, err := store.SessionUser(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "Ada", su.FullName)
	assert.True(t, exp.Equal(gotExp))

	require.NoError(t, store.DeleteSession(ctx, "tok"))
	_, _, err = store.SessionUser(ctx, "tok")
	assert.ErrorIs(t, err, auth.ErrNotFound)
}

func TestSignInThroughClient(t *testing.T) {
	ctx := context.Background()
	client := auth.NewClient(openTest(t).Auth(), auth.WithBcryptCost(4))

	_, err := client.SignUp(ctx, "Ada@Example.com", "secret1", "Ada")
	require.NoError(t, err)
	sess, err := client.SignIn(ctx, "ada@example.com", "secret1")
	require.NoError(t, err)

	restored, err := client.Restore(ctx, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, restored.User.ID)
}
