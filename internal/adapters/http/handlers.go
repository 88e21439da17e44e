package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"churchconsole/internal/adapters/api"
	"churchconsole/internal/adapters/http/middleware"
	"churchconsole/internal/adapters/photo"
	"churchconsole/internal/application/orchestrators"
	"churchconsole/internal/application/workspace"
	"churchconsole/internal/domain/account"
	"churchconsole/internal/domain/attendance"
	"churchconsole/internal/domain/deletion"
	"churchconsole/internal/domain/event"
	"churchconsole/internal/domain/member"
	"churchconsole/internal/domain/ministry"
	"churchconsole/internal/domain/registration"
	"churchconsole/internal/domain/visitor"
)

// maxJSONBody caps decoded request bodies.
const maxJSONBody = 1 << 20

// errInvalidBody marks a request body that decoded but does not fit its target.
var errInvalidBody = errors.New("invalid JSON")

// fieldErrorer is implemented by validation failures that carry per-field messages.
type fieldErrorer interface {
	FieldErrors() map[string]string
}

// backendError is implemented by errors carrying the backend's own answer.
type backendError interface {
	HTTPStatus() int
	RawBody() []byte
}

// statusFor maps domain sentinels to console status codes.
var statusFor = []struct {
	status int
	errs   []error
}{
	{http.StatusUnauthorized, []error{orchestrators.ErrInvalidCredentials, account.ErrNotSignedIn}},
	{http.StatusNotFound, []error{
		workspace.ErrWizardNotFound, event.ErrNotFound, member.ErrNotFound, deletion.ErrNotFound,
	}},
	{http.StatusConflict, []error{
		attendance.ErrNoActiveSession, attendance.ErrStaleSession, attendance.ErrNotSunday, attendance.ErrSessionLoading,
		deletion.ErrInFlight, deletion.ErrWindowExpired, deletion.ErrInvalidStatus,
	}},
	{http.StatusRequestEntityTooLarge, []error{photo.ErrTooLarge}},
	{http.StatusBadRequest, []error{
		account.ErrEmptyUsername, account.ErrEmptyPassword,
		event.ErrEmptyName, event.ErrNameTooLong, event.ErrEmptyDate, event.ErrInvalidDate,
		visitor.ErrEmptyFullName, visitor.ErrNoEvent,
		ministry.ErrEmptyName, ministry.ErrNameTooLong, ministry.ErrInvalidID,
		member.ErrInvalidMemberID, workspace.ErrInvalidMember,
		attendance.ErrInvalidMemberID, attendance.ErrInvalidTab,
		registration.ErrInvalidStep, registration.ErrChildIndex,
		deletion.ErrInvalidTarget, deletion.ErrInvalidTargetID, deletion.ErrEmptyRequestID,
		photo.ErrEmpty, photo.ErrNotImage, errInvalidBody,
	}},
}

// writeJSON encodes v with status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// internalError logs the real error and returns a generic message to the client.
// This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

// writeError answers err with the status the operator needs to act on it.
// Backend refusals are passed through with the raw body so field messages
// reach the operator exactly as the backend wrote them.
func writeError(w http.ResponseWriter, err error) {
	var fe fieldErrorer
	if errors.As(err, &fe) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": fe.FieldErrors()})
		return
	}
	for _, group := range statusFor {
		for _, target := range group.errs {
			if errors.Is(err, target) {
				writeJSON(w, group.status, map[string]string{"error": target.Error()})
				return
			}
		}
	}
	if errors.Is(err, api.ErrUnavailable) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": api.ErrUnavailable.Error()})
		return
	}
	var be backendError
	if errors.As(err, &be) {
		status := http.StatusBadGateway
		switch be.HTTPStatus() {
		case http.StatusNotFound:
			status = http.StatusNotFound
		case http.StatusBadRequest:
			status = http.StatusUnprocessableEntity
		}
		body := be.RawBody()
		if len(body) == 0 || !json.Valid(body) {
			writeJSON(w, status, map[string]any{"error": "backend returned " + strconv.Itoa(be.HTTPStatus()), "detail": string(body)})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Backend-Status", strconv.Itoa(be.HTTPStatus()))
		w.WriteHeader(status)
		w.Write(bytes.TrimSpace(body))
		return
	}
	internalError(w, err)
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// badJSON answers a body that could not be decoded.
func badJSON(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
}

// pathInt parses the named path segment as a positive int.
func pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(r.PathValue(name))
	if err != nil || n <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": name + " must be a positive integer"})
		return 0, false
	}
	return n, true
}

// currentWorkspace returns the operator's workspace. Routes behind RequireAuth always have one.
func currentWorkspace(r *http.Request) *workspace.Workspace {
	ws, _ := middleware.WorkspaceFromContext(r.Context())
	return ws
}
