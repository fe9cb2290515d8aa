package store

import (
	"context"
	"errors"
	"strings"

	"taskhive/internal/mapper"
	"taskhive/internal/model"
)

// AddSubTask appends an incomplete subtask to a task. If the task itself is
// still being created, the remote insert waits for its server id.
func (s *Store) AddSubTask(taskID, title string) (model.SubTask, error) {
	if strings.TrimSpace(title) == "" {
		return model.SubTask{}, ErrEmptyTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	taskID = s.ids.resolve(taskID)
	i := s.taskIndex(taskID)
	if i < 0 {
		return model.SubTask{}, ErrTaskNotFound
	}

	st := model.SubTask{
		ID:        newTempID(),
		TaskID:    taskID,
		Title:     title,
		CreatedAt: s.now().UTC(),
	}
	s.subTasks = append(s.subTasks, st)
	s.tasks[i].SubTasks = append(s.tasks[i].SubTasks, st)
	s.persistSubTaskCreate(st)
	s.bus.publish(Change{Kind: ChangeSubTask, Op: "create", ID: st.ID})
	s.addActivityLocked("Added subtask", s.projectLabel(s.tasks[i].ProjectID))
	s.analytics.Track("subtask_created", "subtask", map[string]any{"id": st.ID, "task": taskID})
	return st, nil
}

// UpdateSubTask merges patch into the subtask in both the flat collection and
// its task's list.
func (s *Store) UpdateSubTask(id string, patch model.SubTaskPatch) error {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return ErrEmptyTitle
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	id = s.ids.resolve(id)
	fi := s.subTaskIndex(id)
	if fi < 0 {
		return ErrSubTaskNotFound
	}
	patch.Apply(&s.subTasks[fi])
	updated := s.subTasks[fi]

	label := "Unknown"
	allDone := false
	if ti := s.taskIndex(updated.TaskID); ti >= 0 {
		t := &s.tasks[ti]
		for j := range t.SubTasks {
			if t.SubTasks[j].ID == id {
				t.SubTasks[j] = updated
			}
		}
		label = s.projectLabel(t.ProjectID)
		allDone = true
		for _, st := range t.SubTasks {
			allDone = allDone && st.Completed
		}
	}

	s.persistSubTaskUpdate(id, patch)
	s.bus.publish(Change{Kind: ChangeSubTask, Op: "update", ID: id})

	switch {
	case patch.Completed != nil && *patch.Completed && allDone:
		s.addActivityLocked("Completed all subtasks", label)
	case patch.Completed != nil && *patch.Completed:
		s.addActivityLocked("Completed subtask", label)
	default:
		s.addActivityLocked("Updated subtask", label)
	}
	s.analytics.Track("subtask_updated", "subtask", map[string]any{"id": id})
	return nil
}

// DeleteSubTask removes the subtask from the flat collection and its task.
func (s *Store) DeleteSubTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id = s.ids.resolve(id)
	fi := s.subTaskIndex(id)
	if fi < 0 {
		return ErrSubTaskNotFound
	}
	taskID := s.subTasks[fi].TaskID
	s.subTasks = append(s.subTasks[:fi:fi], s.subTasks[fi+1:]...)

	label := "Unknown"
	if ti := s.taskIndex(taskID); ti >= 0 {
		t := &s.tasks[ti]
		kept := t.SubTasks[:0:0]
		for _, st := range t.SubTasks {
			if st.ID != id {
				kept = append(kept, st)
			}
		}
		t.SubTasks = kept
		label = s.projectLabel(t.ProjectID)
	}

	s.persistSubTaskDelete(id)
	s.bus.publish(Change{Kind: ChangeSubTask, Op: "delete", ID: id})
	s.addActivityLocked("Deleted subtask", label)
	s.analytics.Track("subtask_deleted", "subtask", map[string]any{"id": id})
	return nil
}

// persistSubTaskCreate inserts st remotely once its task has a server id.
func (s *Store) persistSubTaskCreate(st model.SubTask) {
	rec := mapper.NewSubTaskRecord(st)
	s.ids.reserve(st.ID)
	s.coord.run("create subtask", st.ID, func(ctx context.Context) error {
		tid, err := s.ids.await(ctx, st.TaskID)
		if err != nil {
			s.ids.fail(st.ID, err)
			return err
		}
		rec.TaskID = tid
		created, err := s.remote.SubTasks.Create(ctx, rec)
		if err != nil {
			s.ids.fail(st.ID, err)
			return err
		}
		s.reconcileSubTask(st.ID, created.ID)
		return nil
	})
}

func (s *Store) persistSubTaskUpdate(id string, patch model.SubTaskPatch) {
	updates := mapper.SubTaskPatchToRemote(patch)
	if len(updates) == 0 {
		return
	}
	s.coord.run("update subtask", id, func(ctx context.Context) error {
		sid, err := s.ids.await(ctx, id)
		if err != nil {
			return err
		}
		_, err = s.remote.SubTasks.Update(ctx, sid, updates)
		return err
	})
}

// persistSubTaskDelete removes id remotely. A subtask whose creation failed
// has nothing to delete.
func (s *Store) persistSubTaskDelete(id string) {
	s.coord.run("delete subtask", id, func(ctx context.Context) error {
		sid, err := s.ids.await(ctx, id)
		if errors.Is(err, errCreationFailed) {
			return nil
		}
		if err != nil {
			return err
		}
		return s.remote.SubTasks.Delete(ctx, sid)
	})
}

func (s *Store) reconcileSubTask(tmp, serverID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fi := s.subTaskIndex(tmp); fi >= 0 {
		s.subTasks[fi].ID = serverID
		if ti := s.taskIndex(s.subTasks[fi].TaskID); ti >= 0 {
			t := &s.tasks[ti]
			for j := range t.SubTasks {
				if t.SubTasks[j].ID == tmp {
					t.SubTasks[j].ID = serverID
				}
			}
		}
	}
	s.coord.rename(tmp, serverID)
	s.ids.settle(tmp, serverID)
	s.bus.publish(Change{Kind: ChangeSubTask, Op: "reconcile", ID: serverID})
}
