package api

import (
	"net/http"

	"taskhive/internal/model"
	"taskhive/internal/views"
	"taskhive/pkg/search"
)

var projectFields = []search.Field[model.Project]{
	{Name: "name", Get: func(p model.Project) any { return p.Name }},
	{Name: "description", Get: func(p model.Project) any { return p.Description }},
	{Name: "status", Get: func(p model.Project) any { return string(p.Status) }},
	{Name: "members", Get: func(p model.Project) any { return len(p.Members) }},
}

// GET /api/projects?q=web&filter=status:equals:active&sort=name&desc=true
func (s *Server) handleProjectList(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r, []string{"name", "description"})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	projects, err := search.Run(s.store.Projects(), projectFields, q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleProjectGet(w http.ResponseWriter, r *http.Request) {
	p, ok := s.store.Project(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleProjectCreate(w http.ResponseWriter, r *http.Request) {
	var in model.ProjectInput
	if !decodeJSON(w, r, &in) {
		return
	}
	p, err := s.store.AddProject(in)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleProjectUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var patch model.ProjectPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	if err := s.store.UpdateProject(id, patch); err != nil {
		writeStoreError(w, err)
		return
	}
	p, _ := s.store.Project(id)
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleProjectDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteProject(r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProjectStats(w http.ResponseWriter, r *http.Request) {
	p, ok := s.store.Project(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, views.ProjectStats(s.store.Tasks(), p.ID))
}

func (s *Server) handleProjectBoard(w http.ResponseWriter, r *http.Request) {
	p, ok := s.store.Project(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "project not found")
		return
	}
	writeJSON(w, http.StatusOK, views.Board(s.store.Tasks(), p.ID))
}
