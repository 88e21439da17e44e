package web

import (
	"net/http"

	"churchconsole/internal/application/listutil"
	"churchconsole/internal/application/orchestrators"
	"churchconsole/internal/application/projections"
	"churchconsole/internal/domain/deletion"
)

// handleMemberList handles GET /api/members
// Query: q, type, sort, dir, page, per_page
func handleMemberList(w http.ResponseWriter, r *http.Request) {
	ws := currentWorkspace(r)
	q := r.URL.Query()
	result, err := projections.QueryGetMemberList(r.Context(), projections.GetMemberListQuery{
		List: listutil.Parse(q, projections.MemberSortKeys),
		Type: q.Get("type"),
	}, projections.GetMemberListDeps{Members: ws.API})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleMemberProfile handles GET /api/members/{id}
func handleMemberProfile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	ws := currentWorkspace(r)
	profile, err := projections.QueryGetMemberProfile(r.Context(), id, ws.API)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// handleAssignMinistry handles PUT /api/members/{id}/ministry
// Body: {"ministry_id": 3} or {"ministry_id": null} to clear.
func handleAssignMinistry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	var input struct {
		MinistryID *int `json:"ministry_id"`
	}
	if err := strictDecode(w, r, &input); err != nil {
		badJSON(w)
		return
	}
	ws := currentWorkspace(r)
	m, err := orchestrators.ExecuteAssignMinistry(r.Context(), orchestrators.AssignMinistryInput{
		MemberID:   id,
		MinistryID: input.MinistryID,
	}, ws.API)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// handleRequestMemberDeletion handles POST /api/members/{id}/deletion
func handleRequestMemberDeletion(w http.ResponseWriter, r *http.Request) {
	requestDeletion(w, r, deletion.TargetMember)
}
