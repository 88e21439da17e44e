package web

import (
	"net/http"

	"churchconsole/internal/domain/deletion"
)

// deletionView is a deletion request with the confirmation text shown to the operator.
type deletionView struct {
	deletion.Request
	Prompt  string `json:"prompt"`
	Warning string `json:"warning"`
}

func newDeletionView(req deletion.Request) deletionView {
	return deletionView{Request: req, Prompt: req.Prompt(), Warning: deletion.Warning}
}

// requestDeletion stores a pending confirmation for the {id} path value.
// Nothing is deleted until the returned request is confirmed.
func requestDeletion(w http.ResponseWriter, r *http.Request, target string) {
	id, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	ws := currentWorkspace(r)
	req, err := ws.RequestDeletion(r.Context(), target, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, newDeletionView(req))
}

// handleConfirmDeletion handles POST /api/deletions/{rid}/confirm
func handleConfirmDeletion(w http.ResponseWriter, r *http.Request) {
	ws := currentWorkspace(r)
	req, err := ws.ConfirmDeletion(r.Context(), r.PathValue("rid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newDeletionView(req))
}

// handleCancelDeletion handles POST /api/deletions/{rid}/cancel
func handleCancelDeletion(w http.ResponseWriter, r *http.Request) {
	ws := currentWorkspace(r)
	req, err := ws.CancelDeletion(r.Context(), r.PathValue("rid"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newDeletionView(req))
}
