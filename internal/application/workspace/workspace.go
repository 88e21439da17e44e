// Package workspace holds the console state of each signed-in operator.
package workspace

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"churchconsole/internal/adapters/api"
	"churchconsole/internal/adapters/identity"
	"churchconsole/internal/application/orchestrators"
	"churchconsole/internal/application/signin"
	"churchconsole/internal/domain/account"
	"churchconsole/internal/domain/deletion"
	"churchconsole/internal/domain/member"
	"churchconsole/internal/domain/registration"
)

// Errors
var (
	ErrWizardNotFound = errors.New("registration not found")
	ErrInvalidMember  = errors.New("member id must be positive")
)

// wizardSlot serializes edits of one wizard.
type wizardSlot struct {
	mu sync.Mutex
	w  *registration.Wizard
}

// Workspace is one operator's console: identity, an authenticated backend
// client and everything they have open.
type Workspace struct {
	Key      string
	Identity *identity.Provider
	API      *api.Client
	SignIn   *signin.Manager

	deletions  orchestrators.DeletionStore
	now        func() time.Time
	generateID func() string

	mu       sync.Mutex
	wizards  map[string]*wizardSlot
	lastSeen time.Time

	decideMu sync.Mutex
}

func newWorkspace(key string, deps Deps) *Workspace {
	provider := identity.NewProvider(key, deps.Backend, deps.Tokens)
	client := deps.Backend.WithTokens(provider)
	ws := &Workspace{
		Key:        key,
		Identity:   provider,
		API:        client,
		SignIn:     signin.NewManager(client),
		deletions:  deps.Deletions,
		now:        deps.Now,
		generateID: deps.GenerateID,
		wizards:    make(map[string]*wizardSlot),
		lastSeen:   deps.Now(),
	}
	ws.SignIn.Now = deps.Now
	return ws
}

func (w *Workspace) touch() {
	w.mu.Lock()
	w.lastSeen = w.now()
	w.mu.Unlock()
}

func (w *Workspace) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}

// CurrentIdentity returns the signed-in operator, if any.
func (w *Workspace) CurrentIdentity() (account.Identity, bool) {
	return w.Identity.CurrentIdentity()
}

// Login signs the operator in.
func (w *Workspace) Login(ctx context.Context, username, password string) (account.Identity, error) {
	return orchestrators.ExecuteLogin(ctx, orchestrators.LoginInput{Username: username, Password: password}, orchestrators.LoginDeps{
		Identity: w.Identity,
	})
}

// reset drops every wizard and the sign-in state.
func (w *Workspace) reset() {
	w.mu.Lock()
	w.wizards = make(map[string]*wizardSlot)
	w.mu.Unlock()
	w.SignIn.End()
}

// OpenWizard starts a registration. memberID 0 opens add mode; otherwise the
// member is fetched and the wizard edits it.
// POST: the wizard is stored under its returned id
func (w *Workspace) OpenWizard(ctx context.Context, memberID int) (*registration.Wizard, error) {
	var initial *member.Member
	if memberID < 0 {
		return nil, ErrInvalidMember
	}
	if memberID > 0 {
		m, err := w.API.GetMember(ctx, memberID)
		if err != nil {
			return nil, err
		}
		initial = &m
	}
	wiz, err := registration.Open(w.generateID(), initial)
	if err != nil {
		return nil, err
	}
	w.mu.Lock()
	w.wizards[wiz.ID] = &wizardSlot{w: wiz}
	w.mu.Unlock()
	slog.Info("registration_event", "event", "wizard_opened", "wizard_id", wiz.ID, "mode", wiz.Mode, "member", memberID)
	return wiz, nil
}

// WithWizard runs fn on wizard id. Calls for the same wizard run one at a time.
func (w *Workspace) WithWizard(id string, fn func(*registration.Wizard) error) error {
	w.mu.Lock()
	slot, ok := w.wizards[id]
	w.mu.Unlock()
	if !ok {
		return ErrWizardNotFound
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return fn(slot.w)
}

// CancelWizard discards wizard id and its pending photo.
func (w *Workspace) CancelWizard(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.wizards[id]; !ok {
		return ErrWizardNotFound
	}
	delete(w.wizards, id)
	slog.Info("registration_event", "event", "wizard_cancelled", "wizard_id", id)
	return nil
}

// SubmitWizard saves wizard id. A saved wizard is closed; a wizard that failed
// validation or was refused by the backend stays open for correction.
func (w *Workspace) SubmitWizard(ctx context.Context, id string) (orchestrators.SubmitRegistrationResult, error) {
	var res orchestrators.SubmitRegistrationResult
	err := w.WithWizard(id, func(wiz *registration.Wizard) error {
		var err error
		res, err = orchestrators.ExecuteSubmitRegistration(ctx, orchestrators.SubmitRegistrationInput{Wizard: wiz}, orchestrators.SubmitRegistrationDeps{
			API: w.API,
		})
		return err
	})
	if err != nil {
		return res, err
	}
	w.mu.Lock()
	delete(w.wizards, id)
	w.mu.Unlock()
	return res, nil
}

func (w *Workspace) deletionDeps() orchestrators.DeletionDeps {
	return orchestrators.DeletionDeps{
		Store:      w.deletions,
		API:        w.API,
		Now:        w.now,
		GenerateID: w.generateID,
	}
}

// RequestDeletion stores a pending confirmation for target.
func (w *Workspace) RequestDeletion(ctx context.Context, target string, targetID int) (deletion.Request, error) {
	return orchestrators.ExecuteRequestDeletion(ctx, orchestrators.RequestDeletionInput{
		SessionKey: w.Key,
		Target:     target,
		TargetID:   targetID,
	}, w.deletionDeps())
}

// ConfirmDeletion performs the delete behind requestID. Confirmations of one
// workspace run one at a time.
func (w *Workspace) ConfirmDeletion(ctx context.Context, requestID string) (deletion.Request, error) {
	w.decideMu.Lock()
	defer w.decideMu.Unlock()
	return orchestrators.ExecuteConfirmDeletion(ctx, orchestrators.DeletionDecisionInput{
		SessionKey: w.Key,
		RequestID:  requestID,
	}, w.deletionDeps())
}

// CancelDeletion abandons requestID.
// POST: deletion.ErrInFlight while a confirmation is running
func (w *Workspace) CancelDeletion(ctx context.Context, requestID string) (deletion.Request, error) {
	if !w.decideMu.TryLock() {
		return deletion.Request{}, deletion.ErrInFlight
	}
	defer w.decideMu.Unlock()
	return orchestrators.ExecuteCancelDeletion(ctx, orchestrators.DeletionDecisionInput{
		SessionKey: w.Key,
		RequestID:  requestID,
	}, w.deletionDeps())
}

// Deps holds what every workspace is built from.
type Deps struct {
	Backend    *api.Client
	Tokens     identity.TokenStore
	Deletions  orchestrators.DeletionStore
	Now        func() time.Time
	GenerateID func() string
}

// Registry maps console session keys to workspaces.
type Registry struct {
	deps Deps

	mu     sync.Mutex
	spaces map[string]*Workspace
}

// NewRegistry creates an empty registry. Nil Now and GenerateID default to
// time.Now and random UUIDs.
func NewRegistry(deps Deps) *Registry {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.GenerateID == nil {
		deps.GenerateID = func() string { return uuid.New().String() }
	}
	return &Registry{deps: deps, spaces: make(map[string]*Workspace)}
}

// Create opens a workspace under a fresh key.
// POST: the workspace has no identity until Login succeeds
func (r *Registry) Create() *Workspace {
	ws := newWorkspace(r.deps.GenerateID(), r.deps)
	r.mu.Lock()
	r.spaces[ws.Key] = ws
	r.mu.Unlock()
	return ws
}

// Get returns the workspace for key. A key unknown in memory is restored from
// the token store, so a restart keeps operators signed in.
// POST: ok is false if key has neither a live workspace nor stored tokens
func (r *Registry) Get(ctx context.Context, key string) (*Workspace, bool) {
	if key == "" {
		return nil, false
	}
	r.mu.Lock()
	ws, ok := r.spaces[key]
	r.mu.Unlock()
	if ok {
		ws.touch()
		return ws, true
	}

	ws = newWorkspace(key, r.deps)
	if err := ws.Identity.Restore(ctx); err != nil {
		if !errors.Is(err, identity.ErrNoTokens) {
			slog.Warn("auth_event", "event", "restore_failed", "error", err)
		}
		return nil, false
	}
	r.mu.Lock()
	if existing, ok := r.spaces[key]; ok {
		ws = existing
	} else {
		r.spaces[key] = ws
	}
	r.mu.Unlock()
	slog.Info("auth_event", "event", "session_restored")
	return ws, true
}

// Logout signs the operator out and discards the workspace.
// POST: key no longer resolves, even if the token store failed
func (r *Registry) Logout(ctx context.Context, ws *Workspace) error {
	return orchestrators.ExecuteLogout(ctx, orchestrators.LogoutDeps{
		Identity: ws.Identity,
		Discard: func() {
			ws.reset()
			r.mu.Lock()
			delete(r.spaces, ws.Key)
			r.mu.Unlock()
		},
	})
}

// Discard forgets the workspace for key. Stored tokens are not touched.
func (r *Registry) Discard(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.spaces, key)
}

// Sweep drops in-memory workspaces idle since before cutoff. Their stored
// tokens are kept, so the operator is restored on the next request.
func (r *Registry) Sweep(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for key, ws := range r.spaces {
		if ws.idleSince().Before(cutoff) {
			delete(r.spaces, key)
			n++
		}
	}
	if n > 0 {
		slog.Info("workspace_event", "event", "swept", "count", n)
	}
	return n
}

// Len returns the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.spaces)
}
