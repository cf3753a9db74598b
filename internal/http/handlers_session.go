package http

import (
	"net/http"
	"strings"
)

type loginRequest struct {
	BusinessName string `json:"businessName"`
	Phone        string `json:"phone"`
}

// handleLogin opens a session and marks it current for command-line tools.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req, maxBodyBytes); err != nil {
		s.fail(w, r, err)
		return
	}
	token, sess, err := s.sessions.Login(r.Context(), req.BusinessName, req.Phone)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.sessions.SetCurrent(r.Context(), sess); err != nil {
		s.logger.WarnContext(r.Context(), "Failed to mark session current", "error", err)
	}
	writeJSON(w, http.StatusCreated, map[string]any{"token": token, "session": sess})
}

// handleLogout ends the token's session. The current marker is released
// only if no other business has logged in since.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.Header.Get(SessionHeader))
	sess, lookupErr := s.sessions.Get(r.Context(), token)
	if err := s.sessions.Logout(r.Context(), token); err != nil {
		s.fail(w, r, err)
		return
	}
	if lookupErr == nil {
		if _, err := s.sessions.ReleaseCurrent(r.Context(), sess); err != nil {
			s.logger.WarnContext(r.Context(), "Failed to release current session", "error", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWhoAmI(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sessionFrom(r.Context()))
}
