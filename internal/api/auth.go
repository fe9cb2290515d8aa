package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"taskhive/pkg/auth"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := s.auth.SignUp(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	s.analytics.Track("sign_up", "auth", nil)
	writeJSON(w, http.StatusCreated, u)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decodeJSON(w, r, &req) {
		return
	}
	sess, err := s.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	s.analytics.Track("sign_in", "auth", nil)
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.SignOut(r.Context()); err != nil {
		s.log.Warn("sign out", zap.Error(err))
	}
	s.store.Detach()
	s.analytics.Track("sign_out", "auth", nil)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.auth.Session())
}

func (s *Server) handlePasswordChange(w http.ResponseWriter, r *http.Request) {
	var req auth.UserUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := s.auth.UpdateUser(r.Context(), req); err != nil {
		writeAuthError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrNoSession),
		errors.Is(err, auth.ErrSessionExpired):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrPasswordMismatch):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
