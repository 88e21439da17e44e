package web

import (
	"net/http"

	"churchconsole/internal/application/projections"
)

// handleDashboard handles GET /api/dashboard
func handleDashboard(w http.ResponseWriter, r *http.Request) {
	ws := currentWorkspace(r)
	stats, err := projections.QueryGetDashboard(r.Context(), ws.API)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleGlobalSearch handles GET /api/search?q=
func handleGlobalSearch(w http.ResponseWriter, r *http.Request) {
	ws := currentWorkspace(r)
	hits, err := projections.QueryGlobalSearch(r.Context(), r.URL.Query().Get("q"), ws.API)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": hits})
}
