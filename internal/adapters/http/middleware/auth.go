package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"churchconsole/internal/application/workspace"
	"churchconsole/internal/domain/account"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const workspaceContextKey contextKey = "workspace"

// SessionCookieName names the cookie carrying the console session key.
const SessionCookieName = "church_console_session"

// Auth returns middleware that resolves the session cookie to the operator's
// workspace and puts it in the context.
// It does NOT block unauthenticated requests; use RequireAuth for that.
func Auth(workspaces *workspace.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err == nil && cookie.Value != "" {
				if ws, ok := workspaces.Get(r.Context(), cookie.Value); ok {
					if _, signedIn := ws.CurrentIdentity(); signedIn {
						r = r.WithContext(ContextWithWorkspace(r.Context(), ws))
					}
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth blocks requests without a signed-in workspace.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := WorkspaceFromContext(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "not signed in"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WorkspaceFromContext extracts the operator's workspace from the request context.
func WorkspaceFromContext(ctx context.Context) (*workspace.Workspace, bool) {
	ws, ok := ctx.Value(workspaceContextKey).(*workspace.Workspace)
	return ws, ok
}

// ContextWithWorkspace returns a context carrying ws.
func ContextWithWorkspace(ctx context.Context, ws *workspace.Workspace) context.Context {
	return context.WithValue(ctx, workspaceContextKey, ws)
}

// IdentityFromContext returns the signed-in operator.
func IdentityFromContext(ctx context.Context) (account.Identity, bool) {
	ws, ok := WorkspaceFromContext(ctx)
	if !ok {
		return account.Identity{}, false
	}
	return ws.CurrentIdentity()
}

// SecureCookies marks the session cookie Secure. Set in production.
var SecureCookies bool

// SetSessionCookie sets the session cookie on the response.
func SetSessionCookie(w http.ResponseWriter, key string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    key,
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
		MaxAge:   -1,
	})
}
