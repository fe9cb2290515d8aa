// Package store is the in-memory domain store. It owns the project, task,
// subtask, activity and profile collections, applies every mutation locally
// first and persists it through the remote record stores in the background.
package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"taskhive/internal/mapper"
	"taskhive/internal/model"
	"taskhive/internal/views"
	"taskhive/pkg/activity"
	"taskhive/pkg/analytics"
	"taskhive/pkg/profile"
	"taskhive/pkg/project"
	"taskhive/pkg/subtask"
	"taskhive/pkg/task"
)

// Remote bundles the record stores the domain store persists to.
type Remote struct {
	Projects   project.Store
	Tasks      task.Store
	SubTasks   subtask.Store
	Activities activity.Store
	Profiles   profile.Store
}

// Snapshot is a deep copy of the store state at one instant.
type Snapshot struct {
	Projects   []model.Project   `json:"projects"`
	Tasks      []model.Task      `json:"tasks"`
	SubTasks   []model.SubTask   `json:"subTasks"`
	Activities []model.Activity  `json:"activities"`
	Profile    model.UserProfile `json:"profile"`
	Loading    bool              `json:"loading"`
}

// Store is safe for concurrent use. Mutations are applied in call order;
// their remote writes complete in any order.
type Store struct {
	remote    Remote
	log       *zap.Logger
	now       func() time.Time
	analytics *analytics.Log

	activityLimit int
	refreshEvery  time.Duration
	writeTimeout  time.Duration

	mu         sync.Mutex
	projects   []model.Project
	tasks      []model.Task
	subTasks   []model.SubTask
	activities []model.Activity
	profile    model.UserProfile
	userID     string
	attached   string
	loading    bool

	ids   *idTable
	coord *coordinator
	bus   *bus

	// attachMu serializes Attach and Detach.
	attachMu sync.Mutex

	cancel    context.CancelFunc
	stop      chan struct{}
	refreshWG sync.WaitGroup
	closeOnce sync.Once
}

// New creates a Store and starts the activity time refresher. Call Close to
// stop it.
func New(remote Remote, opts ...Option) *Store {
	s := &Store{
		remote:        remote,
		log:           zap.NewNop(),
		now:           time.Now,
		activityLimit: DefaultActivityLimit,
		refreshEvery:  DefaultRefreshInterval,
		writeTimeout:  DefaultWriteTimeout,
		projects:      []model.Project{},
		tasks:         []model.Task{},
		subTasks:      []model.SubTask{},
		activities:    []model.Activity{},
		ids:           newIDTable(),
		bus:           newBus(),
		stop:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.analytics == nil {
		s.analytics = analytics.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.coord = newCoordinator(ctx, s.writeTimeout, s.log, func(id string) {
		s.bus.publish(Change{Kind: ChangeSync, ID: id})
	})

	if s.refreshEvery > 0 {
		s.refreshWG.Add(1)
		go s.refreshLoop()
	}
	return s
}

// Wait blocks until every remote write issued so far has finished.
func (s *Store) Wait() { s.coord.wait() }

// Close stops the refresher, cancels in-flight remote writes, waits for them
// and closes subscriber channels. The store must not be mutated afterwards.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		close(s.stop)
		s.refreshWG.Wait()
		s.cancel()
		s.coord.wait()
		s.bus.closeAll()
	})
}

// Subscribe returns a channel that receives a Change after every local state
// transition. Slow subscribers miss changes rather than block the store.
func (s *Store) Subscribe() chan Change { return s.bus.subscribe() }

// Unsubscribe removes a subscriber and closes its channel.
func (s *Store) Unsubscribe(ch chan Change) { s.bus.unsubscribe(ch) }

// LoadAll fetches projects, tasks, subtasks and recent activities
// concurrently and replaces the local collections. A failed fetch is logged
// and leaves its collection empty. Subtasks whose task was not loaded are
// dropped.
func (s *Store) LoadAll(ctx context.Context) {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	s.bus.publish(Change{Kind: ChangeLoad, Op: "start"})

	var (
		projectRows  []project.Project
		taskRows     []task.Task
		subTaskRows  []subtask.SubTask
		activityRows []activity.Activity
	)
	var g errgroup.Group
	g.Go(func() error {
		rows, err := s.remote.Projects.List(ctx)
		if err != nil {
			s.log.Warn("load projects", zap.Error(err))
			return nil
		}
		projectRows = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.remote.Tasks.List(ctx)
		if err != nil {
			s.log.Warn("load tasks", zap.Error(err))
			return nil
		}
		taskRows = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.remote.SubTasks.List(ctx)
		if err != nil {
			s.log.Warn("load subtasks", zap.Error(err))
			return nil
		}
		subTaskRows = rows
		return nil
	})
	g.Go(func() error {
		rows, err := s.remote.Activities.Recent(ctx, s.activityLimit)
		if err != nil {
			s.log.Warn("load activities", zap.Error(err))
			return nil
		}
		activityRows = rows
		return nil
	})
	_ = g.Wait()

	projects := make([]model.Project, 0, len(projectRows))
	for _, r := range projectRows {
		projects = append(projects, mapper.ToLocalProject(r))
	}

	tasks := make([]model.Task, 0, len(taskRows))
	byID := make(map[string]int, len(taskRows))
	for _, r := range taskRows {
		byID[r.ID] = len(tasks)
		tasks = append(tasks, mapper.ToLocalTask(r))
	}

	subTasks := make([]model.SubTask, 0, len(subTaskRows))
	orphans := 0
	for _, r := range subTaskRows {
		st := mapper.ToLocalSubTask(r)
		i, ok := byID[st.TaskID]
		if !ok {
			orphans++
			continue
		}
		tasks[i].SubTasks = append(tasks[i].SubTasks, st)
		subTasks = append(subTasks, st)
	}

	now := s.now()
	activities := make([]model.Activity, 0, len(activityRows))
	for _, r := range activityRows {
		activities = append(activities, mapper.ToLocalActivity(r, now))
	}
	if len(activities) > s.activityLimit {
		activities = activities[:s.activityLimit]
	}

	s.mu.Lock()
	s.projects = projects
	s.tasks = tasks
	s.subTasks = subTasks
	s.activities = activities
	s.loading = false
	s.mu.Unlock()

	s.log.Info("loaded",
		zap.Int("projects", len(projects)),
		zap.Int("tasks", len(tasks)),
		zap.Int("subtasks", len(subTasks)),
		zap.Int("activities", len(activities)),
		zap.Int("orphan_subtasks", orphans))
	s.bus.publish(Change{Kind: ChangeLoad, Op: "done"})
}

// Reset clears every collection and forgets pending id mappings and sync
// states. In-flight writes still run to completion.
func (s *Store) Reset() {
	s.mu.Lock()
	s.projects = []model.Project{}
	s.tasks = []model.Task{}
	s.subTasks = []model.SubTask{}
	s.activities = []model.Activity{}
	s.profile = model.UserProfile{}
	s.userID = ""
	s.attached = ""
	s.loading = false
	s.ids.reset()
	s.coord.forget()
	s.mu.Unlock()
	s.bus.publish(Change{Kind: ChangeReset})
}

// Snapshot returns a deep copy of the whole state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Projects:   s.copyProjects(),
		Tasks:      s.copyTasks(),
		SubTasks:   slices.Clone(s.subTasks),
		Activities: slices.Clone(s.activities),
		Profile:    s.profile,
		Loading:    s.loading,
	}
}

func (s *Store) Projects() []model.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyProjects()
}

func (s *Store) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyTasks()
}

func (s *Store) SubTasks() []model.SubTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.subTasks)
}

// Activities returns the feed, newest first.
func (s *Store) Activities() []model.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.activities)
}

func (s *Store) Profile() model.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Project looks up a project by server or temporary id.
func (s *Store) Project(id string) (model.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.projectIndex(id)
	if i < 0 {
		return model.Project{}, false
	}
	return s.projects[i].Clone(), true
}

// Task looks up a task by server or temporary id.
func (s *Store) Task(id string) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.taskIndex(id)
	if i < 0 {
		return model.Task{}, false
	}
	return s.tasks[i].Clone(), true
}

// Loading reports whether LoadAll is in progress.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// SyncState reports the remote write state of a record.
func (s *Store) SyncState(id string) SyncState {
	return s.coord.state(s.ids.resolve(id))
}

// Resolve returns the server id for a temporary id once its creation has
// completed, or id unchanged.
func (s *Store) Resolve(id string) string { return s.ids.resolve(id) }

func (s *Store) copyProjects() []model.Project {
	out := make([]model.Project, len(s.projects))
	for i, p := range s.projects {
		out[i] = p.Clone()
	}
	return out
}

func (s *Store) copyTasks() []model.Task {
	out := make([]model.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

// The index helpers accept a temporary id before or after its creation
// settles, as well as the server id.
func (s *Store) projectIndex(id string) int {
	alias := s.ids.resolve(id)
	return slices.IndexFunc(s.projects, func(p model.Project) bool { return p.ID == id || p.ID == alias })
}

func (s *Store) taskIndex(id string) int {
	alias := s.ids.resolve(id)
	return slices.IndexFunc(s.tasks, func(t model.Task) bool { return t.ID == id || t.ID == alias })
}

func (s *Store) subTaskIndex(id string) int {
	alias := s.ids.resolve(id)
	return slices.IndexFunc(s.subTasks, func(st model.SubTask) bool { return st.ID == id || st.ID == alias })
}

// projectLabel is the activity label for work inside a project.
func (s *Store) projectLabel(projectID string) string {
	if i := s.projectIndex(projectID); i >= 0 {
		return s.projects[i].Name
	}
	return "Unknown"
}

func (s *Store) refreshLoop() {
	defer s.refreshWG.Done()
	ticker := time.NewTicker(s.refreshEvery)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.RefreshTimes()
		}
	}
}

// RefreshTimes recomputes every activity's Time label from its Timestamp.
func (s *Store) RefreshTimes() {
	now := s.now()
	s.mu.Lock()
	changed := false
	for i, a := range s.activities {
		label := views.FormatTimeAgo(now, a.Timestamp)
		if label != a.Time {
			a.Time = label
			s.activities[i] = a
			changed = true
		}
	}
	s.mu.Unlock()
	if changed {
		s.bus.publish(Change{Kind: ChangeActivity, Op: "refresh"})
	}
}
