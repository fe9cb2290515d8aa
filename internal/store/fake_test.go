package store

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"taskhive/pkg/activity"
	"taskhive/pkg/profile"
	"taskhive/pkg/project"
	"taskhive/pkg/subtask"
	"taskhive/pkg/task"
)

// --- Fake remote ---

// fakeRemote is an in-memory backend for all record stores. Operations are
// named "<table>.<method>"; fail and gate are keyed by that name.
type fakeRemote struct {
	mu         sync.Mutex
	projects   map[string]project.Project
	tasks      map[string]task.Task
	subTasks   map[string]subtask.SubTask
	activities []activity.Activity
	profiles   map[string]profile.Profile
	calls      []string
	fail       map[string]error
	gates      map[string]chan struct{}
	next       int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		projects: make(map[string]project.Project),
		tasks:    make(map[string]task.Task),
		subTasks: make(map[string]subtask.SubTask),
		profiles: make(map[string]profile.Profile),
		fail:     make(map[string]error),
		gates:    make(map[string]chan struct{}),
	}
}

func (f *fakeRemote) remote() Remote {
	return Remote{
		Projects:   fakeProjects{f},
		Tasks:      fakeTasks{f},
		SubTasks:   fakeSubTasks{f},
		Activities: fakeActivities{f},
		Profiles:   fakeProfiles{f},
	}
}

// failOn makes every call of op return err.
func (f *fakeRemote) failOn(op string, err error) {
	f.mu.Lock()
	f.fail[op] = err
	f.mu.Unlock()
}

// hold blocks calls of op until the returned func is called.
func (f *fakeRemote) hold(op string) (release func()) {
	ch := make(chan struct{})
	f.mu.Lock()
	f.gates[op] = ch
	f.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// enter records a call, waits on its gate and returns the injected error.
func (f *fakeRemote) enter(ctx context.Context, op, arg string) error {
	f.mu.Lock()
	gate := f.gates[op]
	err := f.fail[op]
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, op+" "+arg)
	f.mu.Unlock()
	return err
}

func (f *fakeRemote) newID() string {
	f.next++
	return fmt.Sprintf("srv-%d", f.next)
}

func (f *fakeRemote) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeRemote) taskRows() []task.Task {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []task.Task
	for _, t := range f.tasks {
		out = append(out, t)
	}
	return out
}

type fakeProjects struct{ f *fakeRemote }

func (s fakeProjects) List(ctx context.Context) ([]project.Project, error) {
	if err := s.f.enter(ctx, "projects.List", ""); err != nil {
		return nil, err
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	var out []project.Project
	for _, p := range s.f.projects {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b project.Project) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (s fakeProjects) Create(ctx context.Context, p *project.Project) (*project.Project, error) {
	if err := s.f.enter(ctx, "projects.Create", p.Name); err != nil {
		return nil, err
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	p.ID = s.f.newID()
	p.CreatedAt = time.Now()
	s.f.projects[p.ID] = *p
	cp := *p
	return &cp, nil
}

func (s fakeProjects) Update(ctx context.Context, id string, updates map[string]any) (*project.Project, error) {
	if err := s.f.enter(ctx, "projects.Update", id); err != nil {
		return nil, err
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	p, ok := s.f.projects[id]
	if !ok {
		return nil, fmt.Errorf("update project %s: not found", id)
	}
	if v, ok := updates["name"]; ok {
		p.Name = v.(string)
	}
	if v, ok := updates["status"]; ok {
		st := v.(string)
		p.Status = &st
	}
	s.f.projects[id] = p
	return &p, nil
}

func (s fakeProjects) Delete(ctx context.Context, id string) error {
	if err := s.f.enter(ctx, "projects.Delete", id); err != nil {
		return err
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	for _, t := range s.f.tasks {
		if t.ProjectID == id {
			return fmt.Errorf("delete project %s: tasks still reference it", id)
		}
	}
	delete(s.f.projects, id)
	return nil
}

func (s fakeProjects) EnsureTable(context.Context) error { return nil }

type fakeTasks struct{ f *fakeRemote }

func (s fakeTasks) List(ctx context.Context) ([]task.Task, error) {
	if err := s.f.enter(ctx, "tasks.List", ""); err != nil {
		return nil, err
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	var out []task.Task
	for _, t := range s.f.tasks {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b task.Task) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (s fakeTasks) Create(ctx context.Context, t *task.Task) (*task.Task, error) {
	if err := s.f.enter(ctx, "tasks.Create", t.Title); err != nil {
		return nil, err
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if _, ok := s.f.projects[t.ProjectID]; !ok {
		return nil, fmt.Errorf("create task: project %s does not exist", t.ProjectID)
	}
	t.ID = s.f.newID()
	t.CreatedAt = time.Now()
	s.f.tasks[t.ID] = *t
	cp := *t
	return &cp, nil
}

func (s fakeTasks) Update(ctx context.Context, id string, updates map[string]any) (*task.Task, error) {
	if err := s.f.enter(ctx, "tasks.Update", id); err != nil {
		return nil, err
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	t, ok := s.f.tasks[id]
	if !ok {
		return nil, fmt.Errorf("update task %s: not found", id)
	}
	if v, ok := updates["status"]; ok {
		st := v.(string)
		t.Status = &st
	}
	if v, ok := updates["title"]; ok {
		t.Title = v.(string)
	}
	s.f.tasks[id] = t
	return &t, nil
}

func (s fakeTasks) Delete(ctx context.Context, id string) error {
	if err := s.f.enter(ctx, "tasks.Delete", id); err != nil {
		return err
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	delete(s.f.tasks, id)
	return nil
}

func (s fakeTasks) DeleteByProject(ctx context.Context, projectID string) error {
	if err := s.f.enter(ctx, "tasks.DeleteByProject", projectID); err != nil {
		return err
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	for id, t := range s.f.tasks {
		if t.ProjectID == projectID {
			for _, st := range s.f.subTasks {
				if st.TaskID == id {
					return fmt.Errorf("delete tasks of %s: subtasks still reference %s", projectID, id)
				}
			}
			delete(s.f.tasks, id)
		}
	}
	return nil
}

func (s fakeTasks) EnsureTable(context.Context) error { return nil }

type fakeSubTasks struct{ f *fakeRemote }

func (s fakeSubTasks) List(ctx context.Context) ([]subtask.SubTask, error) {
	if err := s.f.enter(ctx, "subtasks.List", ""); err != nil {
		return nil, err
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	var out []subtask.SubTask
	for _, st := range s.f.subTasks {
		out = append(out, st)
	}
	slices.SortFunc(out, func(a, b subtask.SubTask) int { return a.CreatedAt.Compare(*b.CreatedAt) })
	return out, nil
}

func (s fakeSubTasks) Create(ctx context.Context, st *subtask.SubTask) (*subtask.SubTask, error) {
	if err := s.f.enter(ctx, "subtasks.Create", st.Title); err != nil {
		return nil, err
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	if _, ok := s.f.tasks[st.TaskID]; !ok {
		return nil, fmt.Errorf("create subtask: task %s does not exist", st.TaskID)
	}
	st.ID = s.f.newID()
	if st.CreatedAt == nil {
		now := time.Now()
		st.CreatedAt = &now
	}
	s.f.subTasks[st.ID] = *st
	cp := *st
	return &cp, nil
}

func (s fakeSubTasks) Update(ctx context.Context, id string, updates map[string]any) (*subtask.SubTask, error) {
	if err := s.f.enter(ctx, "subtasks.Update", id); err != nil {
		return nil, err
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	st, ok := s.f.subTasks[id]
	if !ok {
		return nil, fmt.Errorf("update subtask %s: not found", id)
	}
	if v, ok := updates["completed"]; ok {
		c := v.(bool)
		st.Completed = &c
	}
	if v, ok := updates["title"]; ok {
		st.Title = v.(string)
	}
	s.f.subTasks[id] = st
	return &st, nil
}

func (s fakeSubTasks) Delete(ctx context.Context, id string) error {
	if err := s.f.enter(ctx, "subtasks.Delete", id); err != nil {
		return err
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	delete(s.f.subTasks, id)
	return nil
}

func (s fakeSubTasks) DeleteByTask(ctx context.Context, taskID string) error {
	if err := s.f.enter(ctx, "subtasks.DeleteByTask", taskID); err != nil {
		return err
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	for id, st := range s.f.subTasks {
		if st.TaskID == taskID {
			delete(s.f.subTasks, id)
		}
	}
	return nil
}

func (s fakeSubTasks) EnsureTable(context.Context) error { return nil }

type fakeActivities struct{ f *fakeRemote }

func (s fakeActivities) Create(ctx context.Context, a *activity.Activity) (*activity.Activity, error) {
	if err := s.f.enter(ctx, "activities.Create", a.Action); err != nil {
		return nil, err
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	a.ID = s.f.newID()
	s.f.activities = append(s.f.activities, *a)
	cp := *a
	return &cp, nil
}

func (s fakeActivities) Recent(ctx context.Context, limit int) ([]activity.Activity, error) {
	if err := s.f.enter(ctx, "activities.Recent", ""); err != nil {
		return nil, err
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	out := slices.Clone(s.f.activities)
	slices.SortStableFunc(out, func(a, b activity.Activity) int { return b.CreatedAt.Compare(a.CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s fakeActivities) EnsureTable(context.Context) error { return nil }

type fakeProfiles struct{ f *fakeRemote }

func (s fakeProfiles) Get(ctx context.Context, userID string) (*profile.Profile, error) {
	if err := s.f.enter(ctx, "profiles.Get", userID); err != nil {
		return nil, err
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	p, ok := s.f.profiles[userID]
	if !ok {
		return nil, profile.ErrNotFound
	}
	return &p, nil
}

func (s fakeProfiles) Create(ctx context.Context, p *profile.Profile) (*profile.Profile, error) {
	if err := s.f.enter(ctx, "profiles.Create", p.ID); err != nil {
		return nil, err
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	s.f.profiles[p.ID] = *p
	cp := *p
	return &cp, nil
}

func (s fakeProfiles) Update(ctx context.Context, userID string, updates map[string]any) (*profile.Profile, error) {
	if err := s.f.enter(ctx, "profiles.Update", userID); err != nil {
		return nil, err
	}
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	p, ok := s.f.profiles[userID]
	if !ok {
		return nil, profile.ErrNotFound
	}
	if v, ok := updates["full_name"]; ok {
		p.FullName = v.(string)
	}
	if v, ok := updates["avatar_initials"]; ok {
		in := v.(string)
		p.AvatarInitials = &in
	}
	if v, ok := updates["role"]; ok {
		role := v.(string)
		p.Role = &role
	}
	s.f.profiles[userID] = p
	return &p, nil
}

func (s fakeProfiles) EnsureTable(context.Context) error { return nil }
