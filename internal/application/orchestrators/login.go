package orchestrators

import (
	"context"
	"errors"
	"log/slog"

	"churchconsole/internal/domain/account"
)

// LoginIdentity is the identity provider surface needed by Login and Logout.
type LoginIdentity interface {
	Login(ctx context.Context, creds account.Credentials) (account.Identity, error)
	Logout(ctx context.Context) error
}

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Username string
	Password string
}

// LoginDeps holds dependencies for Login.
type LoginDeps struct {
	Identity LoginIdentity
}

// ErrInvalidCredentials hides why the backend refused a sign-in.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ExecuteLogin signs the operator in against the backend.
// PRE: Username and Password are non-empty
// POST: Returns the identity decoded from the issued access token
func ExecuteLogin(ctx context.Context, input LoginInput, deps LoginDeps) (account.Identity, error) {
	creds := account.Credentials{Username: input.Username, Password: input.Password}
	if err := creds.Validate(); err != nil {
		return account.Identity{}, err
	}
	id, err := deps.Identity.Login(ctx, creds)
	if err != nil {
		if isRejected(err) {
			slog.Info("auth_event", "event", "login_failed", "username", input.Username)
			return account.Identity{}, ErrInvalidCredentials
		}
		return account.Identity{}, err
	}
	return id, nil
}

// LogoutDeps holds dependencies for Logout.
type LogoutDeps struct {
	Identity LoginIdentity
	// Discard drops the operator's in-memory console state.
	Discard func()
}

// ExecuteLogout clears the tokens and every piece of console state.
// POST: the operator is signed out even if token removal failed
func ExecuteLogout(ctx context.Context, deps LogoutDeps) error {
	err := deps.Identity.Logout(ctx)
	if deps.Discard != nil {
		deps.Discard()
	}
	slog.Info("auth_event", "event", "signed_out")
	return err
}
