package web

import (
	"net/http"

	"github.com/gorilla/csrf"

	"churchconsole/internal/adapters/http/middleware"
)

// handleHealth handles GET /health
func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLogin handles POST /login
// A fresh workspace is created for every sign-in; it is kept only if the backend accepts the credentials.
func (s *server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := strictDecode(w, r, &input); err != nil {
		badJSON(w)
		return
	}

	ws := s.workspaces.Create()
	id, err := ws.Login(r.Context(), input.Username, input.Password)
	if err != nil {
		s.workspaces.Discard(ws.Key)
		writeError(w, err)
		return
	}
	middleware.SetSessionCookie(w, ws.Key, s.sessionMaxAge)
	writeJSON(w, http.StatusOK, id)
}

// handleLogout handles POST /logout
func (s *server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ws := currentWorkspace(r)
	if err := s.workspaces.Logout(r.Context(), ws); err != nil {
		// The workspace is gone either way; a stale token row expires with the purge.
		middleware.ClearSessionCookie(w)
		internalError(w, err)
		return
	}
	middleware.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleMe handles GET /api/me
// The CSRF token is needed for multipart uploads, which are not JSON-exempt.
func handleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{
		"username":   id.Username,
		"role":       id.Role,
		"csrf_token": csrf.Token(r),
	})
}
