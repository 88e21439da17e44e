package orchestrators

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"churchconsole/internal/domain/deletion"
	"churchconsole/internal/domain/member"
	"churchconsole/internal/domain/ministry"
)

// DeletionStore persists confirmation requests per console session.
type DeletionStore interface {
	GetByID(ctx context.Context, sessionKey, id string) (deletion.Request, error)
	Save(ctx context.Context, sessionKey string, r deletion.Request) error
}

// DeletionAPI is the backend surface needed to label and delete targets.
type DeletionAPI interface {
	GetMember(ctx context.Context, id int) (member.Member, error)
	ListMinistries(ctx context.Context) ([]ministry.Ministry, error)
	DeleteMember(ctx context.Context, id int) error
	DeleteMinistry(ctx context.Context, id int) error
}

// DeletionDeps holds dependencies for the deletion orchestrators.
type DeletionDeps struct {
	Store      DeletionStore
	API        DeletionAPI
	Now        func() time.Time
	GenerateID func() string
}

// RequestDeletionInput names what the operator wants to delete.
type RequestDeletionInput struct {
	SessionKey string
	Target     string
	TargetID   int
}

// ExecuteRequestDeletion creates a pending confirmation carrying the prompt text.
// PRE: Target is member or ministry, TargetID > 0
// POST: a pending request is stored; nothing is deleted yet
func ExecuteRequestDeletion(ctx context.Context, input RequestDeletionInput, deps DeletionDeps) (deletion.Request, error) {
	label, err := deletionLabel(ctx, input.Target, input.TargetID, deps.API)
	if err != nil {
		return deletion.Request{}, err
	}
	r := deletion.NewRequest(deps.GenerateID(), input.Target, input.TargetID, label, deps.Now())
	if err := r.Validate(); err != nil {
		return deletion.Request{}, err
	}
	if err := deps.Store.Save(ctx, input.SessionKey, *r); err != nil {
		return deletion.Request{}, err
	}
	slog.Info("deletion_event", "event", "deletion_requested", "request_id", r.ID, "target", r.Target, "target_id", r.TargetID)
	return *r, nil
}

func deletionLabel(ctx context.Context, target string, id int, api DeletionAPI) (string, error) {
	if id <= 0 {
		return "", deletion.ErrInvalidTargetID
	}
	switch target {
	case deletion.TargetMember:
		m, err := api.GetMember(ctx, id)
		if err != nil {
			return "", err
		}
		return m.FullName, nil
	case deletion.TargetMinistry:
		ms, err := api.ListMinistries(ctx)
		if err != nil {
			return "", err
		}
		for _, m := range ms {
			if m.ID == id {
				return m.Name, nil
			}
		}
		return "", deletion.ErrNotFound
	}
	return "", deletion.ErrInvalidTarget
}

// DeletionDecisionInput identifies a pending confirmation.
type DeletionDecisionInput struct {
	SessionKey string
	RequestID  string
}

// ExecuteConfirmDeletion performs the irreversible delete.
// PRE: the caller serializes decisions for one session
// POST: on success the request is processed; on backend failure it returns to
// pending with LastError set so the operator can retry or cancel
func ExecuteConfirmDeletion(ctx context.Context, input DeletionDecisionInput, deps DeletionDeps) (deletion.Request, error) {
	if input.RequestID == "" {
		return deletion.Request{}, deletion.ErrEmptyRequestID
	}
	r, err := deps.Store.GetByID(ctx, input.SessionKey, input.RequestID)
	if err != nil {
		return deletion.Request{}, err
	}
	if err := r.BeginConfirm(deps.Now()); err != nil {
		if errors.Is(err, deletion.ErrWindowExpired) {
			_ = deps.Store.Save(ctx, input.SessionKey, r)
		}
		return r, err
	}
	if err := deps.Store.Save(ctx, input.SessionKey, r); err != nil {
		return r, err
	}

	var callErr error
	switch r.Target {
	case deletion.TargetMember:
		callErr = deps.API.DeleteMember(ctx, r.TargetID)
	case deletion.TargetMinistry:
		callErr = deps.API.DeleteMinistry(ctx, r.TargetID)
	}
	if callErr != nil && !isGone(callErr) {
		_ = r.MarkFailed(callErr.Error())
		_ = deps.Store.Save(ctx, input.SessionKey, r)
		slog.Warn("deletion_event", "event", "deletion_failed", "request_id", r.ID, "target", r.Target, "target_id", r.TargetID, "error", callErr)
		return r, callErr
	}
	_ = r.MarkProcessed()
	if err := deps.Store.Save(ctx, input.SessionKey, r); err != nil {
		return r, err
	}
	slog.Info("deletion_event", "event", "deleted", "request_id", r.ID, "target", r.Target, "target_id", r.TargetID)
	return r, nil
}

// ExecuteCancelDeletion abandons a pending confirmation.
// POST: the request is cancelled, or deletion.ErrInFlight if its delete is running
func ExecuteCancelDeletion(ctx context.Context, input DeletionDecisionInput, deps DeletionDeps) (deletion.Request, error) {
	if input.RequestID == "" {
		return deletion.Request{}, deletion.ErrEmptyRequestID
	}
	r, err := deps.Store.GetByID(ctx, input.SessionKey, input.RequestID)
	if err != nil {
		return deletion.Request{}, err
	}
	if err := r.MarkCancelled(); err != nil {
		return r, err
	}
	if err := deps.Store.Save(ctx, input.SessionKey, r); err != nil {
		return r, err
	}
	slog.Info("deletion_event", "event", "deletion_cancelled", "request_id", r.ID)
	return r, nil
}

// isGone reports whether the backend says the target no longer exists.
func isGone(err error) bool {
	var sc statusCoder
	return errors.As(err, &sc) && sc.HTTPStatus() == http.StatusNotFound
}
