package web

import (
	"net/http"

	"churchconsole/internal/domain/attendance"
	"churchconsole/internal/domain/event"
	"churchconsole/internal/domain/visitor"
)

// handleEventList handles GET /api/events
func handleEventList(w http.ResponseWriter, r *http.Request) {
	ws := currentWorkspace(r)
	if err := ws.SignIn.Refresh(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": ws.SignIn.Snapshot("").Events})
}

// handleCreateEvent handles POST /api/events
// Creating an event does not open it for sign-in.
func handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var input event.NewEvent
	if err := strictDecode(w, r, &input); err != nil {
		badJSON(w)
		return
	}
	ws := currentWorkspace(r)
	ev, err := ws.SignIn.CreateEvent(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

// handleSignInView handles GET /api/signin?q=
// The search filters the loaded roster locally; no backend call is made.
func handleSignInView(w http.ResponseWriter, r *http.Request) {
	ws := currentWorkspace(r)
	writeJSON(w, http.StatusOK, ws.SignIn.Snapshot(r.URL.Query().Get("q")))
}

// handleEndSignIn handles DELETE /api/signin
func handleEndSignIn(w http.ResponseWriter, r *http.Request) {
	ws := currentWorkspace(r)
	ws.SignIn.End()
	writeJSON(w, http.StatusOK, ws.SignIn.Snapshot(""))
}

// handleOpenSignIn handles POST /api/signin/event
// Body: {"event_id": 7}
func handleOpenSignIn(w http.ResponseWriter, r *http.Request) {
	var input struct {
		EventID int `json:"event_id"`
	}
	if err := strictDecode(w, r, &input); err != nil {
		badJSON(w)
		return
	}
	ws := currentWorkspace(r)
	if err := ws.SignIn.Open(r.Context(), input.EventID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.SignIn.Snapshot(""))
}

// handleStartSunday handles POST /api/signin/sunday
// The backend finds or creates today's service; it refuses on other weekdays.
func handleStartSunday(w http.ResponseWriter, r *http.Request) {
	ws := currentWorkspace(r)
	if err := ws.SignIn.StartSunday(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.SignIn.Snapshot(""))
}

// handleToggleAttendance handles POST /api/signin/toggle
// Body: {"member_id": 12}. rolled_back is set when the backend refused and the
// optimistic flip was undone.
func handleToggleAttendance(w http.ResponseWriter, r *http.Request) {
	var input struct {
		MemberID int `json:"member_id"`
	}
	if err := strictDecode(w, r, &input); err != nil {
		badJSON(w)
		return
	}
	ws := currentWorkspace(r)
	outcome, err := ws.SignIn.Toggle(r.Context(), input.MemberID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// handleRecordVisitor handles POST /api/signin/visitors
// The visitor is recorded against the open event; any event in the body is ignored.
func handleRecordVisitor(w http.ResponseWriter, r *http.Request) {
	var input visitor.NewVisitor
	if err := strictDecode(w, r, &input); err != nil {
		badJSON(w)
		return
	}
	ws := currentWorkspace(r)
	v, err := ws.SignIn.RecordVisitor(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

// handleSignInTab handles PUT /api/signin/tab
// Body: {"tab": "members"} or {"tab": "visitors"}
func handleSignInTab(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Tab attendance.Tab `json:"tab"`
	}
	if err := strictDecode(w, r, &input); err != nil {
		badJSON(w)
		return
	}
	ws := currentWorkspace(r)
	if err := ws.SignIn.SetTab(input.Tab); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.SignIn.Snapshot(""))
}
