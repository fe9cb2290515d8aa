package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskhive/internal/mapper"
	"taskhive/internal/model"
)

// AddProject creates a project under a temporary id and persists it. The
// returned project carries the temporary id; it stays valid for lookups after
// the server id is known.
func (s *Store) AddProject(in model.ProjectInput) (model.Project, error) {
	if strings.TrimSpace(in.Name) == "" {
		return model.Project{}, ErrEmptyName
	}
	if in.Status == "" {
		in.Status = model.ProjectActive
	}
	if !in.Status.Valid() {
		return model.Project{}, fmt.Errorf("%w: %q", ErrInvalidStatus, in.Status)
	}
	if in.Color == "" {
		in.Color = model.DefaultProjectColor
	}

	p := model.Project{
		ID:          newTempID(),
		Name:        in.Name,
		Description: in.Description,
		Color:       in.Color,
		Members:     append([]string{}, in.Members...),
		Status:      in.Status,
	}
	rec := mapper.NewProjectRecord(p)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = prepend(s.projects, p)
	s.ids.reserve(p.ID)
	s.coord.run("create project", p.ID, func(ctx context.Context) error {
		created, err := s.remote.Projects.Create(ctx, rec)
		if err != nil {
			s.ids.fail(p.ID, err)
			return err
		}
		s.reconcileProject(p.ID, created.ID)
		return nil
	})
	s.bus.publish(Change{Kind: ChangeProject, Op: "create", ID: p.ID})
	s.addActivityLocked("Created new project", p.Name)
	s.analytics.Track("project_created", "project", map[string]any{"id": p.ID})
	return p.Clone(), nil
}

// UpdateProject merges patch into the project.
func (s *Store) UpdateProject(id string, patch model.ProjectPatch) error {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return ErrEmptyName
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, *patch.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id = s.ids.resolve(id)
	i := s.projectIndex(id)
	if i < 0 {
		return ErrProjectNotFound
	}
	label := s.projects[i].Name
	patch.Apply(&s.projects[i])

	if updates := mapper.ProjectPatchToRemote(patch); len(updates) > 0 {
		s.coord.run("update project", id, func(ctx context.Context) error {
			sid, err := s.ids.await(ctx, id)
			if err != nil {
				return err
			}
			_, err = s.remote.Projects.Update(ctx, sid, updates)
			return err
		})
	}
	s.bus.publish(Change{Kind: ChangeProject, Op: "update", ID: id})
	s.addActivityLocked("Updated project", label)
	s.analytics.Track("project_updated", "project", map[string]any{"id": id})
	return nil
}

// DeleteProject removes the project with its tasks and their subtasks.
// Remotely the subtasks go first, then the tasks, then the project.
func (s *Store) DeleteProject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id = s.ids.resolve(id)
	i := s.projectIndex(id)
	if i < 0 {
		return ErrProjectNotFound
	}
	name := s.projects[i].Name
	s.projects = append(s.projects[:i:i], s.projects[i+1:]...)

	var taskIDs []string
	doomed := make(map[string]bool)
	kept := s.tasks[:0:0]
	for _, t := range s.tasks {
		if t.ProjectID == id {
			taskIDs = append(taskIDs, t.ID)
			doomed[t.ID] = true
			continue
		}
		kept = append(kept, t)
	}
	s.tasks = kept

	var subTaskIDs []string
	keptSubs := s.subTasks[:0:0]
	for _, st := range s.subTasks {
		if doomed[st.TaskID] {
			subTaskIDs = append(subTaskIDs, st.ID)
			continue
		}
		keptSubs = append(keptSubs, st)
	}
	s.subTasks = keptSubs

	s.coord.run("delete project", id, func(ctx context.Context) error {
		// Creations still in flight must land before their parents go.
		for _, sid := range subTaskIDs {
			_, _ = s.ids.await(ctx, sid)
		}
		for _, tid := range taskIDs {
			serverID, err := s.ids.await(ctx, tid)
			if err != nil {
				continue
			}
			if err := s.remote.SubTasks.DeleteByTask(ctx, serverID); err != nil {
				return err
			}
		}
		pid, err := s.ids.await(ctx, id)
		if errors.Is(err, errCreationFailed) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.remote.Tasks.DeleteByProject(ctx, pid); err != nil {
			return err
		}
		return s.remote.Projects.Delete(ctx, pid)
	})
	s.bus.publish(Change{Kind: ChangeProject, Op: "delete", ID: id})
	s.addActivityLocked("Deleted project", name)
	s.analytics.Track("project_deleted", "project", map[string]any{"id": id, "tasks": len(taskIDs)})
	return nil
}

// reconcileProject swaps a temporary project id for the server id in the
// project and in every task that references it.
func (s *Store) reconcileProject(tmp, serverID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.projectIndex(tmp); i >= 0 {
		s.projects[i].ID = serverID
	}
	for i := range s.tasks {
		if s.tasks[i].ProjectID == tmp {
			s.tasks[i].ProjectID = serverID
		}
	}
	s.coord.rename(tmp, serverID)
	s.ids.settle(tmp, serverID)
	s.bus.publish(Change{Kind: ChangeProject, Op: "reconcile", ID: serverID})
}

// prepend returns a new slice with v in front of list.
func prepend[T any](list []T, v T) []T {
	out := make([]T, 0, len(list)+1)
	out = append(out, v)
	return append(out, list...)
}
