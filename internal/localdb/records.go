package localdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"taskhive/pkg/activity"
	"taskhive/pkg/profile"
	"taskhive/pkg/project"
	"taskhive/pkg/subtask"
	"taskhive/pkg/task"
)

// stringList stores a []string as a JSON array in a TEXT column. NULL scans
// to nil.
type stringList []string

func (l stringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	b, err := json.Marshal([]string(l))
	return string(b), err
}

func (l *stringList) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case string:
		return json.Unmarshal([]byte(v), (*[]string)(l))
	case []byte:
		return json.Unmarshal(v, (*[]string)(l))
	default:
		return fmt.Errorf("scan members: unsupported type %T", src)
	}
}

// Projects

type projectRow struct {
	ID          string     `db:"id"`
	Name        string     `db:"name"`
	Description string     `db:"description"`
	Color       *string    `db:"color"`
	Members     stringList `db:"members"`
	Status      *string    `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

func (r projectRow) record() project.Project {
	return project.Project{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Color:       r.Color,
		Members:     []string(r.Members),
		Status:      r.Status,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// ProjectStore implements project.Store.
type ProjectStore struct{ db *DB }

var _ project.Store = (*ProjectStore)(nil)

func (s *ProjectStore) EnsureTable(ctx context.Context) error { return s.db.Migrate(ctx) }

func (s *ProjectStore) Create(ctx context.Context, p *project.Project) (*project.Project, error) {
	p.ID = uuid.Must(uuid.NewV7()).String()
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO projects (id, name, description, color, members, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Color, stringList(p.Members), p.Status, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

func (s *ProjectStore) List(ctx context.Context) ([]project.Project, error) {
	var rows []projectRow
	if err := s.db.conn.SelectContext(ctx, &rows, `SELECT * FROM projects ORDER BY created_at DESC, id DESC`); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	out := make([]project.Project, len(rows))
	for i, r := range rows {
		out[i] = r.record()
	}
	return out, nil
}

func (s *ProjectStore) get(ctx context.Context, id string) (*project.Project, error) {
	var r projectRow
	if err := s.db.conn.GetContext(ctx, &r, `SELECT * FROM projects WHERE id = ?`, id); err != nil {
		return nil, err
	}
	p := r.record()
	return &p, nil
}

func (s *ProjectStore) Update(ctx context.Context, id string, updates map[string]any) (*project.Project, error) {
	ok, err := s.db.update(ctx, "projects", id, true,
		[]string{"name", "description", "color", "members", "status"}, updates,
		func(col string, v any) (any, error) {
			if col != "members" {
				return v, nil
			}
			members, ok := v.([]string)
			if !ok {
				return nil, fmt.Errorf("members: unexpected type %T", v)
			}
			return stringList(members), nil
		})
	if err == nil && !ok {
		err = ErrNoRow
	}
	if err != nil {
		return nil, fmt.Errorf("update project %s: %w", id, err)
	}
	return s.get(ctx, id)
}

func (s *ProjectStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.conn.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	return nil
}

// Tasks

type taskRow struct {
	ID          string    `db:"id"`
	ProjectID   string    `db:"project_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Status      *string   `db:"status"`
	Priority    *string   `db:"priority"`
	Assignee    *string   `db:"assignee"`
	DueDate     *string   `db:"due_date"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r taskRow) record() task.Task {
	return task.Task(r)
}

// TaskStore implements task.Store.
type TaskStore struct{ db *DB }

var _ task.Store = (*TaskStore)(nil)

func (s *TaskStore) EnsureTable(ctx context.Context) error { return s.db.Migrate(ctx) }

func (s *TaskStore) Create(ctx context.Context, t *task.Task) (*task.Task, error) {
	t.ID = uuid.Must(uuid.NewV7()).String()
	t.CreatedAt = now()
	t.UpdatedAt = t.CreatedAt

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO tasks (id, project_id, title, description, status, priority, assignee, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProjectID, t.Title, t.Description, t.Status, t.Priority, t.Assignee, t.DueDate, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

func (s *TaskStore) List(ctx context.Context) ([]task.Task, error) {
	var rows []taskRow
	if err := s.db.conn.SelectContext(ctx, &rows, `SELECT * FROM tasks ORDER BY created_at DESC, id DESC`); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	out := make([]task.Task, len(rows))
	for i, r := range rows {
		out[i] = r.record()
	}
	return out, nil
}

func (s *TaskStore) Update(ctx context.Context, id string, updates map[string]any) (*task.Task, error) {
	ok, err := s.db.update(ctx, "tasks", id, true,
		[]string{"title", "description", "status", "priority", "assignee", "due_date"}, updates, nil)
	if err == nil && !ok {
		err = ErrNoRow
	}
	if err != nil {
		return nil, fmt.Errorf("update task %s: %w", id, err)
	}
	var r taskRow
	if err := s.db.conn.GetContext(ctx, &r, `SELECT * FROM tasks WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("update task %s: %w", id, err)
	}
	t := r.record()
	return &t, nil
}

func (s *TaskStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.conn.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	return nil
}

func (s *TaskStore) DeleteByProject(ctx context.Context, projectID string) error {
	if _, err := s.db.conn.ExecContext(ctx, `DELETE FROM tasks WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("delete tasks of project %s: %w", projectID, err)
	}
	return nil
}

// Subtasks

type subTaskRow struct {
	ID        string     `db:"id"`
	TaskID    string     `db:"task_id"`
	Title     string     `db:"title"`
	Completed *bool      `db:"completed"`
	CreatedAt *time.Time `db:"created_at"`
}

// SubTaskStore implements subtask.Store.
type SubTaskStore struct{ db *DB }

var _ subtask.Store = (*SubTaskStore)(nil)

func (s *SubTaskStore) EnsureTable(ctx context.Context) error { return s.db.Migrate(ctx) }

func (s *SubTaskStore) Create(ctx context.Context, st *subtask.SubTask) (*subtask.SubTask, error) {
	st.ID = uuid.Must(uuid.NewV7()).String()
	if st.CreatedAt == nil {
		t := now()
		st.CreatedAt = &t
	}

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO sub_tasks (id, task_id, title, completed, created_at) VALUES (?, ?, ?, ?, ?)`,
		st.ID, st.TaskID, st.Title, st.Completed, st.CreatedAt.UTC())
	if err != nil {
		return nil, fmt.Errorf("create subtask: %w", err)
	}
	return st, nil
}

func (s *SubTaskStore) List(ctx context.Context) ([]subtask.SubTask, error) {
	var rows []subTaskRow
	if err := s.db.conn.SelectContext(ctx, &rows, `SELECT * FROM sub_tasks ORDER BY created_at ASC, id ASC`); err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	out := make([]subtask.SubTask, len(rows))
	for i, r := range rows {
		out[i] = subtask.SubTask(r)
	}
	return out, nil
}

func (s *SubTaskStore) Update(ctx context.Context, id string, updates map[string]any) (*subtask.SubTask, error) {
	ok, err := s.db.update(ctx, "sub_tasks", id, false, []string{"title", "completed"}, updates, nil)
	if err == nil && !ok {
		err = ErrNoRow
	}
	if err != nil {
		return nil, fmt.Errorf("update subtask %s: %w", id, err)
	}
	var r subTaskRow
	if err := s.db.conn.GetContext(ctx, &r, `SELECT * FROM sub_tasks WHERE id = ?`, id); err != nil {
		return nil, fmt.Errorf("update subtask %s: %w", id, err)
	}
	st := subtask.SubTask(r)
	return &st, nil
}

func (s *SubTaskStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.conn.ExecContext(ctx, `DELETE FROM sub_tasks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete subtask %s: %w", id, err)
	}
	return nil
}

func (s *SubTaskStore) DeleteByTask(ctx context.Context, taskID string) error {
	if _, err := s.db.conn.ExecContext(ctx, `DELETE FROM sub_tasks WHERE task_id = ?`, taskID); err != nil {
		return fmt.Errorf("delete subtasks of task %s: %w", taskID, err)
	}
	return nil
}

// Activities

type activityRow struct {
	ID        string    `db:"id"`
	Action    string    `db:"action"`
	Project   string    `db:"project"`
	CreatedAt time.Time `db:"created_at"`
}

// ActivityStore implements activity.Store.
type ActivityStore struct{ db *DB }

var _ activity.Store = (*ActivityStore)(nil)

func (s *ActivityStore) EnsureTable(ctx context.Context) error { return s.db.Migrate(ctx) }

func (s *ActivityStore) Create(ctx context.Context, a *activity.Activity) (*activity.Activity, error) {
	a.ID = uuid.Must(uuid.NewV7()).String()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now()
	}
	a.CreatedAt = a.CreatedAt.UTC().Truncate(time.Microsecond)

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO activities (id, action, project, created_at) VALUES (?, ?, ?, ?)`,
		a.ID, a.Action, a.Project, a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert activity: %w", err)
	}
	return a, nil
}

func (s *ActivityStore) Recent(ctx context.Context, limit int) ([]activity.Activity, error) {
	var rows []activityRow
	err := s.db.conn.SelectContext(ctx, &rows, `
		SELECT * FROM activities ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent activities: %w", err)
	}
	out := make([]activity.Activity, len(rows))
	for i, r := range rows {
		out[i] = activity.Activity(r)
	}
	return out, nil
}

// Profiles

type profileRow struct {
	ID             string    `db:"id"`
	Email          string    `db:"email"`
	FullName       string    `db:"full_name"`
	Role           *string   `db:"role"`
	FocusHours     *int      `db:"focus_hours"`
	AvatarInitials *string   `db:"avatar_initials"`
	AvatarColor    *string   `db:"avatar_color"`
	AvatarURL      *string   `db:"avatar_url"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// ProfileStore implements profile.Store.
type ProfileStore struct{ db *DB }

var _ profile.Store = (*ProfileStore)(nil)

func (s *ProfileStore) EnsureTable(ctx context.Context) error { return s.db.Migrate(ctx) }

func (s *ProfileStore) Get(ctx context.Context, userID string) (*profile.Profile, error) {
	var r profileRow
	err := s.db.conn.GetContext(ctx, &r, `SELECT * FROM user_profiles WHERE id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, profile.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", userID, err)
	}
	p := profile.Profile(r)
	return &p, nil
}

func (s *ProfileStore) Create(ctx context.Context, p *profile.Profile) (*profile.Profile, error) {
	p.CreatedAt = now()
	p.UpdatedAt = p.CreatedAt

	_, err := s.db.conn.ExecContext(ctx, `
		INSERT INTO user_profiles (id, email, full_name, role, focus_hours, avatar_initials, avatar_color, avatar_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Email, p.FullName, p.Role, p.FocusHours, p.AvatarInitials, p.AvatarColor, p.AvatarURL, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create profile %s: %w", p.ID, err)
	}
	return p, nil
}

func (s *ProfileStore) Update(ctx context.Context, userID string, updates map[string]any) (*profile.Profile, error) {
	ok, err := s.db.update(ctx, "user_profiles", userID, true,
		[]string{"email", "full_name", "role", "focus_hours", "avatar_initials", "avatar_color", "avatar_url"}, updates, nil)
	if err == nil && !ok {
		err = ErrNoRow
	}
	if err != nil {
		return nil, fmt.Errorf("update profile %s: %w", userID, err)
	}
	return s.Get(ctx, userID)
}
