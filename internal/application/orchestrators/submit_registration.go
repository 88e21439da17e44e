package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"churchconsole/internal/domain/member"
	"churchconsole/internal/domain/registration"
)

// RegistrationAPI is the backend surface needed to persist a registration.
type RegistrationAPI interface {
	CreateMember(ctx context.Context, p member.Payload) (member.Member, error)
	UpdateMember(ctx context.Context, id int, p member.Payload) (member.Member, error)
	UploadMemberPhoto(ctx context.Context, id int, filename, contentType string, data []byte) error
}

// SubmitRegistrationInput carries input for the submit orchestrator.
type SubmitRegistrationInput struct {
	Wizard *registration.Wizard
}

// SubmitRegistrationDeps holds dependencies for SubmitRegistration.
type SubmitRegistrationDeps struct {
	API RegistrationAPI
}

// SubmitRegistrationResult is the saved member and any photo upload failure.
type SubmitRegistrationResult struct {
	Member     member.Member `json:"member"`
	Created    bool          `json:"created"`
	PhotoError string        `json:"photo_error,omitempty"`
}

// Submit errors
var (
	ErrNoWizard       = errors.New("no registration in progress")
	ErrSavedWithoutID = errors.New("backend saved the member without returning its id; photo not uploaded")
)

// ExecuteSubmitRegistration saves the wizard's draft as a member.
// PRE: Wizard is non-nil
// POST: On *registration.ValidationError no backend call was made.
// POST: The photo, if any, is uploaded only after the member record was saved;
// a failed upload is reported in PhotoError and the member is kept.
func ExecuteSubmitRegistration(ctx context.Context, input SubmitRegistrationInput, deps SubmitRegistrationDeps) (SubmitRegistrationResult, error) {
	w := input.Wizard
	if w == nil {
		return SubmitRegistrationResult{}, ErrNoWizard
	}
	if err := w.CheckSubmittable(); err != nil {
		return SubmitRegistrationResult{}, err
	}

	payload := registration.BuildPayload(w.Draft)
	var (
		saved member.Member
		err   error
	)
	if w.IsEdit() {
		saved, err = deps.API.UpdateMember(ctx, w.MemberID, payload)
	} else {
		saved, err = deps.API.CreateMember(ctx, payload)
	}
	if err != nil {
		slog.Info("registration_event", "event", "save_failed", "wizard_id", w.ID, "mode", w.Mode, "error", err)
		return SubmitRegistrationResult{}, err
	}
	res := SubmitRegistrationResult{Member: saved, Created: !w.IsEdit()}
	slog.Info("registration_event", "event", "member_saved", "wizard_id", w.ID, "mode", w.Mode, "member_id", saved.MemberID)

	if w.Photo == nil {
		return res, nil
	}
	target := photoTarget(w, saved)
	if target <= 0 {
		res.PhotoError = ErrSavedWithoutID.Error()
		slog.Warn("registration_event", "event", "photo_upload_skipped", "wizard_id", w.ID, "member_id", saved.MemberID, "error", ErrSavedWithoutID)
		return res, nil
	}
	p := w.Photo
	if err := deps.API.UploadMemberPhoto(ctx, target, p.Filename, p.ContentType, p.Data); err != nil {
		res.PhotoError = err.Error()
		slog.Warn("registration_event", "event", "photo_upload_failed", "member_id", saved.MemberID, "error", err)
	}
	return res, nil
}

// photoTarget is the record id the photo belongs to. An edit falls back to
// the member being edited when the update response carries no id.
func photoTarget(w *registration.Wizard, saved member.Member) int {
	if saved.ID > 0 {
		return saved.ID
	}
	if w.IsEdit() {
		return w.MemberID
	}
	return 0
}
