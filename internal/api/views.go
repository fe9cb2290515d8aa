package api

import (
	"net/http"

	"taskhive/internal/model"
	"taskhive/internal/views"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	snap := s.store.Snapshot()
	writeJSON(w, http.StatusOK, views.Dashboard(snap.Projects, snap.Tasks))
}

func (s *Server) handleActivityList(w http.ResponseWriter, r *http.Request) {
	acts := s.store.Activities()
	if limit := queryInt(r, "limit", 0); limit > 0 && len(acts) > limit {
		acts = acts[:limit]
	}
	writeJSON(w, http.StatusOK, acts)
}

func (s *Server) handleActivityCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action  string `json:"action"`
		Project string `json:"project"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Action == "" {
		writeError(w, http.StatusBadRequest, "action is required")
		return
	}
	writeJSON(w, http.StatusCreated, s.store.AddActivity(req.Action, req.Project))
}

func (s *Server) handleProfileGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Profile())
}

func (s *Server) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	var patch model.ProfilePatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	if err := s.store.UpdateProfileAs(sessionFrom(r).User.ID, patch); err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.store.Profile())
}

// handleSyncState reports whether the writes for a record reached the
// backend. Temporary ids resolve to their server id once known.
func (s *Server) handleSyncState(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	writeJSON(w, http.StatusOK, map[string]string{
		"id":    s.store.Resolve(id),
		"state": s.store.SyncState(id).String(),
	})
}

func (s *Server) handleAnalyticsStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.analytics.Stats())
}

func (s *Server) handleAnalyticsHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.analytics.History())
}

func (s *Server) handleAnalyticsTrack(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Event    string         `json:"event"`
		Category string         `json:"category"`
		Metadata map[string]any `json:"metadata"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Event == "" || req.Category == "" {
		writeError(w, http.StatusBadRequest, "event and category are required")
		return
	}
	writeJSON(w, http.StatusCreated, s.analytics.Track(req.Event, req.Category, req.Metadata))
}

func (s *Server) handleAnalyticsClear(w http.ResponseWriter, r *http.Request) {
	s.analytics.Clear()
	w.WriteHeader(http.StatusNoContent)
}
