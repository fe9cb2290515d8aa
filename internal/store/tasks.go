package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"taskhive/internal/mapper"
	"taskhive/internal/model"
)

// AddTask creates a task in an existing project. Empty status, priority and
// assignee get the defaults.
func (s *Store) AddTask(in model.TaskInput) (model.Task, error) {
	if strings.TrimSpace(in.Title) == "" {
		return model.Task{}, ErrEmptyTitle
	}
	if in.Status == "" {
		in.Status = model.TaskTodo
	}
	if !in.Status.Valid() {
		return model.Task{}, fmt.Errorf("%w: %q", ErrInvalidStatus, in.Status)
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}
	if !in.Priority.Valid() {
		return model.Task{}, fmt.Errorf("%w: %q", ErrInvalidPriority, in.Priority)
	}
	if in.Assignee == "" {
		in.Assignee = model.DefaultAssignee
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	projectID := s.ids.resolve(in.ProjectID)
	if s.projectIndex(projectID) < 0 {
		return model.Task{}, ErrProjectNotFound
	}

	t := model.Task{
		ID:          newTempID(),
		ProjectID:   projectID,
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		Assignee:    in.Assignee,
		DueDate:     in.DueDate,
		SubTasks:    []model.SubTask{},
	}
	rec := mapper.NewTaskRecord(t)

	s.tasks = prepend(s.tasks, t)
	s.ids.reserve(t.ID)
	s.coord.run("create task", t.ID, func(ctx context.Context) error {
		pid, err := s.ids.await(ctx, projectID)
		if err != nil {
			s.ids.fail(t.ID, err)
			return err
		}
		rec.ProjectID = pid
		created, err := s.remote.Tasks.Create(ctx, rec)
		if err != nil {
			s.ids.fail(t.ID, err)
			return err
		}
		s.reconcileTask(t.ID, created.ID)
		return nil
	})
	s.bus.publish(Change{Kind: ChangeTask, Op: "create", ID: t.ID})
	s.addActivityLocked("Created new task", s.projectLabel(projectID))
	s.analytics.Track("task_created", "task", map[string]any{"id": t.ID, "project": projectID})
	return t.Clone(), nil
}

// UpdateTask merges patch into the task. The task's subtasks are untouched
// unless the patch carries SubTasks, in which case they replace the task's
// subtasks in both the nested list and the flat collection and the
// difference is written remotely. Subtasks without a known id are created.
// A subtask owned by another task, or listed twice, fails the update with
// ErrSubTaskConflict.
func (s *Store) UpdateTask(id string, patch model.TaskPatch) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return ErrEmptyTitle
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, *patch.Status)
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, *patch.Priority)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id = s.ids.resolve(id)
	i := s.taskIndex(id)
	if i < 0 {
		return ErrTaskNotFound
	}

	var plan subTaskPlan
	if patch.SubTasks != nil {
		subs, p, err := s.planSubTasksLocked(id, *patch.SubTasks)
		if err != nil {
			return err
		}
		plan = p
		patch.SubTasks = &subs
		s.replaceSubTasksLocked(id, subs)
	}
	patch.Apply(&s.tasks[i])

	if updates := mapper.TaskPatchToRemote(patch); len(updates) > 0 {
		s.coord.run("update task", id, func(ctx context.Context) error {
			sid, err := s.ids.await(ctx, id)
			if err != nil {
				return err
			}
			_, err = s.remote.Tasks.Update(ctx, sid, updates)
			return err
		})
	}
	for _, st := range plan.created {
		s.persistSubTaskCreate(st)
	}
	for _, st := range plan.updated {
		s.persistSubTaskUpdate(st.ID, model.SubTaskPatch{Title: &st.Title, Completed: &st.Completed})
	}
	for _, sid := range plan.removed {
		s.persistSubTaskDelete(sid)
	}
	s.bus.publish(Change{Kind: ChangeTask, Op: "update", ID: id})

	label := s.projectLabel(s.tasks[i].ProjectID)
	if patch.Status != nil {
		s.addActivityLocked("Moved task to "+string(*patch.Status), label)
	} else {
		s.addActivityLocked("Updated task", label)
	}
	s.analytics.Track("task_updated", "task", map[string]any{"id": id})
	return nil
}

// DeleteTask removes the task and its subtasks.
func (s *Store) DeleteTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id = s.ids.resolve(id)
	i := s.taskIndex(id)
	if i < 0 {
		return ErrTaskNotFound
	}
	projectID := s.tasks[i].ProjectID
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)

	var subTaskIDs []string
	kept := s.subTasks[:0:0]
	for _, st := range s.subTasks {
		if st.TaskID == id {
			subTaskIDs = append(subTaskIDs, st.ID)
			continue
		}
		kept = append(kept, st)
	}
	s.subTasks = kept

	s.coord.run("delete task", id, func(ctx context.Context) error {
		for _, sid := range subTaskIDs {
			_, _ = s.ids.await(ctx, sid)
		}
		tid, err := s.ids.await(ctx, id)
		if errors.Is(err, errCreationFailed) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.remote.SubTasks.DeleteByTask(ctx, tid); err != nil {
			return err
		}
		return s.remote.Tasks.Delete(ctx, tid)
	})
	s.bus.publish(Change{Kind: ChangeTask, Op: "delete", ID: id})
	s.addActivityLocked("Deleted task", s.projectLabel(projectID))
	s.analytics.Track("task_deleted", "task", map[string]any{"id": id})
	return nil
}

// reconcileTask swaps a temporary task id for the server id in the task and
// in every subtask, flat and nested.
func (s *Store) reconcileTask(tmp, serverID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.taskIndex(tmp); i >= 0 {
		t := &s.tasks[i]
		t.ID = serverID
		for j := range t.SubTasks {
			t.SubTasks[j].TaskID = serverID
		}
	}
	for i := range s.subTasks {
		if s.subTasks[i].TaskID == tmp {
			s.subTasks[i].TaskID = serverID
		}
	}
	s.coord.rename(tmp, serverID)
	s.ids.settle(tmp, serverID)
	s.bus.publish(Change{Kind: ChangeTask, Op: "reconcile", ID: serverID})
}

// replaceSubTasksLocked makes subs the complete subtask list of taskID in the
// flat collection. The caller updates the nested list.
func (s *Store) replaceSubTasksLocked(taskID string, subs []model.SubTask) {
	kept := s.subTasks[:0:0]
	for _, st := range s.subTasks {
		if st.TaskID != taskID {
			kept = append(kept, st)
		}
	}
	s.subTasks = append(kept, subs...)
}

// subTaskPlan is the remote side of replacing a task's subtasks.
type subTaskPlan struct {
	created []model.SubTask
	updated []model.SubTask
	removed []string
}

// planSubTasksLocked validates in as the new subtask list of taskID without
// changing state. It returns the list to store and the writes that persist
// it.
func (s *Store) planSubTasksLocked(taskID string, in []model.SubTask) ([]model.SubTask, subTaskPlan, error) {
	var plan subTaskPlan
	owned := make(map[string]model.SubTask)
	for _, st := range s.subTasks {
		if st.TaskID == taskID {
			owned[st.ID] = st
		}
	}

	out := make([]model.SubTask, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, st := range in {
		if strings.TrimSpace(st.Title) == "" {
			return nil, plan, ErrEmptyTitle
		}
		st.TaskID = taskID
		if st.ID != "" {
			st.ID = s.ids.resolve(st.ID)
		}
		old, mine := owned[st.ID]
		switch {
		case st.ID != "" && seen[st.ID]:
			return nil, plan, fmt.Errorf("%w: %s listed twice", ErrSubTaskConflict, st.ID)
		case mine:
			st.CreatedAt = old.CreatedAt
			if st.Title != old.Title || st.Completed != old.Completed {
				plan.updated = append(plan.updated, st)
			}
		case st.ID != "" && s.subTaskIndex(st.ID) >= 0:
			return nil, plan, fmt.Errorf("%w: %s", ErrSubTaskConflict, st.ID)
		default:
			st.ID = newTempID()
			if st.CreatedAt.IsZero() {
				st.CreatedAt = s.now().UTC()
			}
			plan.created = append(plan.created, st)
		}
		seen[st.ID] = true
		out = append(out, st)
	}

	for _, st := range s.subTasks {
		if st.TaskID == taskID && !seen[st.ID] {
			plan.removed = append(plan.removed, st.ID)
		}
	}
	return out, plan, nil
}
