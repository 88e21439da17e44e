package web

import (
	"net/http"

	"churchconsole/internal/application/orchestrators"
	"churchconsole/internal/application/projections"
	"churchconsole/internal/domain/deletion"
	"churchconsole/internal/domain/ministry"
)

// handleMinistryList handles GET /api/ministries?q=
func handleMinistryList(w http.ResponseWriter, r *http.Request) {
	ws := currentWorkspace(r)
	list, err := projections.QueryGetMinistryList(r.Context(), r.URL.Query().Get("q"), ws.API)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ministries": list})
}

// handleCreateMinistry handles POST /api/ministries
func handleCreateMinistry(w http.ResponseWriter, r *http.Request) {
	var input ministry.NewMinistry
	if err := strictDecode(w, r, &input); err != nil {
		badJSON(w)
		return
	}
	ws := currentWorkspace(r)
	m, err := orchestrators.ExecuteCreateMinistry(r.Context(), input, ws.API)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// handleRequestMinistryDeletion handles POST /api/ministries/{id}/deletion
func handleRequestMinistryDeletion(w http.ResponseWriter, r *http.Request) {
	requestDeletion(w, r, deletion.TargetMinistry)
}
