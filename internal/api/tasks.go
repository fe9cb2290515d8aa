package api

import (
	"net/http"

	"taskhive/internal/model"
	"taskhive/internal/views"
	"taskhive/pkg/search"
)

var taskFields = []search.Field[model.Task]{
	{Name: "title", Get: func(t model.Task) any { return t.Title }},
	{Name: "description", Get: func(t model.Task) any { return t.Description }},
	{Name: "status", Get: func(t model.Task) any { return string(t.Status) }},
	{Name: "priority", Get: func(t model.Task) any { return string(t.Priority) }},
	{Name: "assignee", Get: func(t model.Task) any { return t.Assignee }},
	{Name: "projectId", Get: func(t model.Task) any { return t.ProjectID }},
	{Name: "dueDate", Get: func(t model.Task) any { return t.DueDate }},
	{Name: "subTasks", Get: func(t model.Task) any { return len(t.SubTasks) }},
}

// GET /api/tasks?q=api&filter=priority:equals:high&filter=dueDate:between:2024-01-01:2024-01-31&sort=dueDate
func (s *Server) handleTaskList(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r, []string{"title", "description"})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if pid := r.URL.Query().Get("project"); pid != "" {
		q.Filters = append([]search.Filter{{Field: "projectId", Op: search.Equals, Value: s.store.Resolve(pid)}}, q.Filters...)
	}
	tasks, err := search.Run(s.store.Tasks(), taskFields, q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if limit := queryInt(r, "limit", 0); limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleTaskGet(w http.ResponseWriter, r *http.Request) {
	t, ok := s.store.Task(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleTaskCreate(w http.ResponseWriter, r *http.Request) {
	var in model.TaskInput
	if !decodeJSON(w, r, &in) {
		return
	}
	t, err := s.store.AddTask(in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleTaskUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var patch model.TaskPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	if err := s.store.UpdateTask(id, patch); err != nil {
		writeStoreError(w, err)
		return
	}
	t, _ := s.store.Task(id)
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleTaskDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTask(r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTaskProgress(w http.ResponseWriter, r *http.Request) {
	t, ok := s.store.Task(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	p := views.SubTaskProgress(t)
	writeJSON(w, http.StatusOK, map[string]any{
		"completed": p.Completed,
		"total":     p.Total,
		"percent":   p.Percent(),
	})
}

func (s *Server) handleSubTaskCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	st, err := s.store.AddSubTask(r.PathValue("id"), req.Title)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleSubTaskUpdate(w http.ResponseWriter, r *http.Request) {
	var patch model.SubTaskPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	if err := s.store.UpdateSubTask(r.PathValue("id"), patch); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSubTaskDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteSubTask(r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
