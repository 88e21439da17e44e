package identity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"churchconsole/internal/adapters/api/apitest"
	"churchconsole/internal/adapters/identity"
	"churchconsole/internal/domain/account"
)

type mockAuthenticator struct {
	pair  account.TokenPair
	err   error
	calls int
}

func (m *mockAuthenticator) Login(_ context.Context, _ account.Credentials) (account.TokenPair, error) {
	m.calls++
	return m.pair, m.err
}

func validPair(username, role string) account.TokenPair {
	exp := time.Now().Add(time.Hour)
	return account.TokenPair{
		Access:  apitest.IssueToken(username, role, exp),
		Refresh: apitest.IssueToken(username, role, exp.Add(time.Hour)),
	}
}

// TestDecodeIdentity tests decoding of the access token payload.
func TestDecodeIdentity(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		want    account.Identity
		wantErr bool
	}{
		{"valid", apitest.IssueToken("pastor", account.RoleBishop, time.Now().Add(time.Hour)), account.Identity{Username: "pastor", Role: account.RoleBishop}, false},
		{"expired still decodes", apitest.IssueToken("clerk", account.RoleDataEntry, time.Now().Add(-time.Hour)), account.Identity{Username: "clerk", Role: account.RoleDataEntry}, false},
		{"empty", "", account.Identity{}, true},
		{"garbage", "not.a.jwt", account.Identity{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := identity.DecodeIdentity(tt.token)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeIdentity err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DecodeIdentity = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestProvider_LoginLogout walks sign-in and sign-out.
func TestProvider_LoginLogout(t *testing.T) {
	ctx := context.Background()
	store := identity.NewMemoryTokenStore()
	auth := &mockAuthenticator{pair: validPair("pastor", account.RoleBishop)}
	p := identity.NewProvider("sess-1", auth, store)

	if _, ok := p.CurrentIdentity(); ok {
		t.Fatal("new provider should not be signed in")
	}
	id, err := p.Login(ctx, account.Credentials{Username: "pastor", Password: "secret"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if id.Username != "pastor" || id.Role != account.RoleBishop {
		t.Errorf("identity = %+v", id)
	}
	if got, ok := p.CurrentIdentity(); !ok || got != id {
		t.Errorf("CurrentIdentity = %+v, %v", got, ok)
	}
	if p.AccessToken() == "" {
		t.Error("AccessToken empty after login")
	}
	if _, err := store.Load(ctx, "sess-1"); err != nil {
		t.Errorf("tokens not persisted: %v", err)
	}

	if err := p.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, ok := p.CurrentIdentity(); ok {
		t.Error("still signed in after logout")
	}
	if _, err := store.Load(ctx, "sess-1"); !errors.Is(err, identity.ErrNoTokens) {
		t.Errorf("store after logout = %v, want ErrNoTokens", err)
	}
}

// TestProvider_LoginFailureKeepsSignedOut verifies nothing is stored on failure.
func TestProvider_LoginFailureKeepsSignedOut(t *testing.T) {
	ctx := context.Background()
	store := identity.NewMemoryTokenStore()
	p := identity.NewProvider("sess-1", &mockAuthenticator{err: errors.New("401")}, store)
	if _, err := p.Login(ctx, account.Credentials{Username: "x", Password: "y"}); err == nil {
		t.Fatal("Login should fail")
	}
	if _, ok := p.CurrentIdentity(); ok {
		t.Error("signed in after failed login")
	}

	bad := identity.NewProvider("sess-2", &mockAuthenticator{pair: account.TokenPair{Access: "garbage"}}, store)
	if _, err := bad.Login(ctx, account.Credentials{Username: "x", Password: "y"}); !errors.Is(err, account.ErrMalformedToken) {
		t.Errorf("malformed token err = %v", err)
	}
}

// TestProvider_Restore verifies a session survives a console restart.
func TestProvider_Restore(t *testing.T) {
	ctx := context.Background()
	store := identity.NewMemoryTokenStore()
	_ = store.Save(ctx, "sess-1", validPair("clerk", account.RoleDataEntry))
	_ = store.Save(ctx, "sess-bad", account.TokenPair{Access: "garbage"})

	p := identity.NewProvider("sess-1", &mockAuthenticator{}, store)
	if err := p.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if id, ok := p.CurrentIdentity(); !ok || id.Username != "clerk" {
		t.Errorf("restored identity = %+v, %v", id, ok)
	}

	bad := identity.NewProvider("sess-bad", &mockAuthenticator{}, store)
	if err := bad.Restore(ctx); !errors.Is(err, identity.ErrNoTokens) {
		t.Errorf("Restore(bad) = %v, want ErrNoTokens", err)
	}
	if _, err := store.Load(ctx, "sess-bad"); !errors.Is(err, identity.ErrNoTokens) {
		t.Error("unreadable tokens should be discarded")
	}

	none := identity.NewProvider("sess-none", &mockAuthenticator{}, store)
	if err := none.Restore(ctx); !errors.Is(err, identity.ErrNoTokens) {
		t.Errorf("Restore(none) = %v", err)
	}
}
