package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"churchconsole/internal/adapters/photo"
	"churchconsole/internal/application/projections"
	"churchconsole/internal/domain/registration"
)

// photoField is the multipart field carrying the passport photo.
const photoField = "passport_photo"

// wizardView is the JSON shape of an open registration.
type wizardView struct {
	ID                  string                         `json:"id"`
	Mode                registration.Mode              `json:"mode"`
	MemberID            int                            `json:"member_id,omitempty"`
	Step                registration.Step              `json:"step"`
	StepTitle           string                         `json:"step_title"`
	Draft               registration.Draft             `json:"draft"`
	Pledge              registration.PledgeAttestation `json:"pledge"`
	Errors              registration.ErrorSet          `json:"errors"`
	SpouseFieldsVisible bool                           `json:"spouse_fields_visible"`
	SavedFieldsVisible  bool                           `json:"saved_fields_visible"`
	HasPhoto            bool                           `json:"has_photo"`
	PhotoName           string                         `json:"photo_name,omitempty"`
	MinistrySuggestions []string                       `json:"ministry_suggestions,omitempty"`
}

func newWizardView(wiz *registration.Wizard) wizardView {
	v := wizardView{
		ID:                  wiz.ID,
		Mode:                wiz.Mode,
		MemberID:            wiz.MemberID,
		Step:                wiz.Step,
		StepTitle:           wiz.Step.Title(),
		Draft:               wiz.Draft,
		Pledge:              wiz.Pledge,
		Errors:              wiz.Errors,
		SpouseFieldsVisible: wiz.SpouseFieldsVisible(),
		SavedFieldsVisible:  wiz.SavedFieldsVisible(),
	}
	if v.Errors == nil {
		v.Errors = registration.ErrorSet{}
	}
	if wiz.Photo != nil {
		v.HasPhoto = true
		v.PhotoName = wiz.Photo.Filename
	}
	return v
}

// ministrySuggestions lists ministry names for the desired ministry field.
// A listing failure leaves the list empty; the wizard still opens.
func ministrySuggestions(ctx context.Context, lister projections.MinistryLister) []string {
	names, err := projections.QueryMinistrySuggestions(ctx, lister)
	if err != nil {
		slog.Warn("registration_event", "event", "ministry_suggestions_failed", "error", err)
		return nil
	}
	return names
}

// editWizard runs fn on the {id} wizard and writes its state.
func editWizard(w http.ResponseWriter, r *http.Request, fn func(*registration.Wizard) error) {
	ws := currentWorkspace(r)
	var view wizardView
	err := ws.WithWizard(r.PathValue("id"), func(wiz *registration.Wizard) error {
		if err := fn(wiz); err != nil {
			return err
		}
		view = newWizardView(wiz)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleOpenRegistration handles POST /api/registrations
// Body: {} for a new member, {"member_id": 12} to edit one.
func handleOpenRegistration(w http.ResponseWriter, r *http.Request) {
	var input struct {
		MemberID int `json:"member_id"`
	}
	if err := strictDecode(w, r, &input); err != nil && !errors.Is(err, io.EOF) {
		badJSON(w)
		return
	}
	ws := currentWorkspace(r)
	wiz, err := ws.OpenWizard(r.Context(), input.MemberID)
	if err != nil {
		writeError(w, err)
		return
	}
	// The wizard is not shared yet, so it is safe to read without its lock.
	view := newWizardView(wiz)
	view.MinistrySuggestions = ministrySuggestions(r.Context(), ws.API)
	writeJSON(w, http.StatusCreated, view)
}

// handleGetRegistration handles GET /api/registrations/{id}
func handleGetRegistration(w http.ResponseWriter, r *http.Request) {
	ws := currentWorkspace(r)
	var view wizardView
	err := ws.WithWizard(r.PathValue("id"), func(wiz *registration.Wizard) error {
		view = newWizardView(wiz)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	view.MinistrySuggestions = ministrySuggestions(r.Context(), ws.API)
	writeJSON(w, http.StatusOK, view)
}

// handleEditRegistration handles PATCH /api/registrations/{id}
// Body: {"draft": {...}, "pledge": {...}}; either part may be omitted.
func handleEditRegistration(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Draft  json.RawMessage `json:"draft"`
		Pledge json.RawMessage `json:"pledge"`
	}
	if err := strictDecode(w, r, &input); err != nil {
		badJSON(w)
		return
	}
	editWizard(w, r, func(wiz *registration.Wizard) error {
		if err := wiz.Apply(input.Draft, input.Pledge); err != nil {
			return fmt.Errorf("%w: %v", errInvalidBody, err)
		}
		return nil
	})
}

// handleCancelRegistration handles DELETE /api/registrations/{id}
func handleCancelRegistration(w http.ResponseWriter, r *http.Request) {
	ws := currentWorkspace(r)
	if err := ws.CancelWizard(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRegistrationNext handles POST /api/registrations/{id}/next
// A step with failing fields answers 422 and leaves the wizard where it was.
func handleRegistrationNext(w http.ResponseWriter, r *http.Request) {
	ws := currentWorkspace(r)
	var (
		view     wizardView
		advanced bool
	)
	err := ws.WithWizard(r.PathValue("id"), func(wiz *registration.Wizard) error {
		advanced = wiz.Next()
		view = newWizardView(wiz)
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if !advanced {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"errors": view.Errors, "wizard": view})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleRegistrationBack handles POST /api/registrations/{id}/back
func handleRegistrationBack(w http.ResponseWriter, r *http.Request) {
	editWizard(w, r, func(wiz *registration.Wizard) error {
		wiz.Back()
		return nil
	})
}

// handleRegistrationGoTo handles POST /api/registrations/{id}/step/{n}
func handleRegistrationGoTo(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil {
		writeError(w, registration.ErrInvalidStep)
		return
	}
	editWizard(w, r, func(wiz *registration.Wizard) error {
		return wiz.GoTo(registration.Step(n))
	})
}

// handleAppendChild handles POST /api/registrations/{id}/children
func handleAppendChild(w http.ResponseWriter, r *http.Request) {
	editWizard(w, r, func(wiz *registration.Wizard) error {
		wiz.AppendChild()
		return nil
	})
}

// handleRemoveChild handles DELETE /api/registrations/{id}/children/{i}
func handleRemoveChild(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(r.PathValue("i"))
	if err != nil {
		writeError(w, registration.ErrChildIndex)
		return
	}
	editWizard(w, r, func(wiz *registration.Wizard) error {
		return wiz.RemoveChild(i)
	})
}

// handleRegistrationPhoto handles PUT /api/registrations/{id}/photo
// The upload is normalized to a bounded JPEG and held until submit.
func (s *server) handleRegistrationPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, photo.MaxUploadBytes+1<<16)
	file, header, err := r.FormFile(photoField)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, photo.ErrTooLarge)
			return
		}
		writeError(w, photo.ErrEmpty)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, photo.MaxUploadBytes+1))
	if err != nil {
		internalError(w, err)
		return
	}

	name, jpeg, err := s.photos.Normalize(header.Filename, data)
	if err != nil {
		writeError(w, err)
		return
	}
	editWizard(w, r, func(wiz *registration.Wizard) error {
		wiz.SetPhoto(&registration.Photo{Filename: name, ContentType: photo.ContentType, Data: jpeg})
		return nil
	})
}

// handleSubmitRegistration handles POST /api/registrations/{id}/submit
// 201 for a new member, 200 for an update. photo_error is set when the member
// was saved but the photo upload failed.
func handleSubmitRegistration(w http.ResponseWriter, r *http.Request) {
	ws := currentWorkspace(r)
	res, err := ws.SubmitWizard(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}
