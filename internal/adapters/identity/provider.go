package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"churchconsole/internal/domain/account"
)

// ErrNoTokens is returned by a TokenStore that holds nothing for a key.
var ErrNoTokens = errors.New("no tokens stored")

// TokenStore persists the token pair of one console session.
type TokenStore interface {
	Load(ctx context.Context, key string) (account.TokenPair, error)
	Save(ctx context.Context, key string, pair account.TokenPair) error
	Delete(ctx context.Context, key string) error
}

// Authenticator exchanges credentials for tokens.
type Authenticator interface {
	Login(ctx context.Context, creds account.Credentials) (account.TokenPair, error)
}

// Provider holds one operator's tokens and answers who they are.
// It satisfies api.TokenSource.
type Provider struct {
	key   string
	auth  Authenticator
	store TokenStore

	mu     sync.RWMutex
	tokens account.TokenPair
}

// NewProvider creates a provider for the console session identified by key.
// PRE: key is non-empty
func NewProvider(key string, auth Authenticator, store TokenStore) *Provider {
	return &Provider{key: key, auth: auth, store: store}
}

// Restore loads previously saved tokens for this session.
// POST: returns ErrNoTokens if nothing was saved or the token is unreadable
func (p *Provider) Restore(ctx context.Context) error {
	pair, err := p.store.Load(ctx, p.key)
	if err != nil {
		return err
	}
	if _, err := DecodeIdentity(pair.Access); err != nil {
		_ = p.store.Delete(ctx, p.key)
		return ErrNoTokens
	}
	p.mu.Lock()
	p.tokens = pair
	p.mu.Unlock()
	return nil
}

// Login signs in and stores the token pair.
// PRE: creds are complete
// POST: CurrentIdentity reports the signed-in operator
func (p *Provider) Login(ctx context.Context, creds account.Credentials) (account.Identity, error) {
	pair, err := p.auth.Login(ctx, creds)
	if err != nil {
		return account.Identity{}, err
	}
	id, err := DecodeIdentity(pair.Access)
	if err != nil {
		return account.Identity{}, err
	}
	if err := p.store.Save(ctx, p.key, pair); err != nil {
		return account.Identity{}, fmt.Errorf("save tokens: %w", err)
	}
	p.mu.Lock()
	p.tokens = pair
	p.mu.Unlock()
	slog.Info("auth_event", "event", "signed_in", "username", id.Username, "role", id.Role)
	return id, nil
}

// Logout discards the tokens. It always clears local state even if the
// store fails.
func (p *Provider) Logout(ctx context.Context) error {
	p.mu.Lock()
	p.tokens = account.TokenPair{}
	p.mu.Unlock()
	return p.store.Delete(ctx, p.key)
}

// CurrentIdentity decodes the held access token. It makes no network call.
func (p *Provider) CurrentIdentity() (account.Identity, bool) {
	p.mu.RLock()
	access := p.tokens.Access
	p.mu.RUnlock()
	if access == "" {
		return account.Identity{}, false
	}
	id, err := DecodeIdentity(access)
	if err != nil {
		return account.Identity{}, false
	}
	return id, true
}

// AccessToken returns the bearer token for backend calls.
func (p *Provider) AccessToken() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.tokens.Access
}

// DecodeIdentity reads username and role from the token payload.
// The signature is not checked here; the backend verifies it on every call.
func DecodeIdentity(access string) (account.Identity, error) {
	if access == "" {
		return account.Identity{}, account.ErrNotSignedIn
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(access, claims); err != nil {
		return account.Identity{}, fmt.Errorf("%w: %v", account.ErrMalformedToken, err)
	}
	username, _ := claims["username"].(string)
	role, _ := claims["role"].(string)
	if username == "" {
		return account.Identity{}, account.ErrMalformedToken
	}
	return account.Identity{Username: username, Role: role}, nil
}

// MemoryTokenStore keeps tokens in process memory.
type MemoryTokenStore struct {
	mu    sync.Mutex
	pairs map[string]account.TokenPair
}

// NewMemoryTokenStore creates an empty store.
func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{pairs: make(map[string]account.TokenPair)}
}

// Load implements TokenStore.
func (m *MemoryTokenStore) Load(_ context.Context, key string) (account.TokenPair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pair, ok := m.pairs[key]
	if !ok {
		return account.TokenPair{}, ErrNoTokens
	}
	return pair, nil
}

// Save implements TokenStore.
func (m *MemoryTokenStore) Save(_ context.Context, key string, pair account.TokenPair) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairs[key] = pair
	return nil
}

// Delete implements TokenStore.
func (m *MemoryTokenStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pairs, key)
	return nil
}
