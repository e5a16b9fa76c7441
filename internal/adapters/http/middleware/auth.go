package middleware

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const sessionContextKey contextKey = "admin_session"

// SessionCookieName is the cookie carrying the admin session token.
const SessionCookieName = "admin_session"

// SessionMaxAge bounds how long the browser keeps the session cookie.
const SessionMaxAge = 7 * 24 * time.Hour

// Guard issues and verifies admin session tokens derived from a shared secret.
// A token is valid for as long as the secret is unchanged; there is no server-side revocation.
type Guard struct {
	secret string
	secure bool
}

// NewGuard creates a guard for the given secret. secure marks cookies Secure (production).
// PRE: secret is non-empty for the guard to accept any token
func NewGuard(secret string, secure bool) *Guard {
	return &Guard{secret: secret, secure: secure}
}

// Token builds the opaque token for a login at now.
func (g *Guard) Token(now time.Time) string {
	raw := strconv.FormatInt(now.UnixMilli(), 10) + "-" + g.secret
	return base64.StdEncoding.EncodeToString([]byte(raw))
}

// Issue returns the session cookie for a login at now.
// POST: Cookie is HttpOnly, SameSite=Lax, scoped to / and expires after SessionMaxAge
func (g *Guard) Issue(now time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    g.Token(now),
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(SessionMaxAge / time.Second),
	}
}

// Clear returns a cookie that deletes the session.
func (g *Guard) Clear() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	}
}

// Verify reports whether token decodes to a string containing the secret.
// INVARIANT: An empty secret verifies nothing
func (g *Guard) Verify(token string) bool {
	if g.secret == "" || token == "" {
		return false
	}
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return false
	}
	return strings.Contains(string(decoded), g.secret)
}

// Auth returns middleware that verifies the session cookie and records the result in context.
// It does NOT block unauthenticated requests; use RequireSession for that.
func Auth(guard *Guard) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok := false
			if cookie, err := r.Cookie(SessionCookieName); err == nil {
				ok = guard.Verify(cookie.Value)
			}
			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), ok)))
		})
	}
}

// RequireSession blocks requests without a verified session with a JSON 401.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !HasSession(r.Context()) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HasSession reports whether Auth verified a session for this request.
func HasSession(ctx context.Context) bool {
	ok, _ := ctx.Value(sessionContextKey).(bool)
	return ok
}

// ContextWithSession returns a context carrying the verification result.
// Intended for Auth and for tests.
func ContextWithSession(ctx context.Context, ok bool) context.Context {
	return context.WithValue(ctx, sessionContextKey, ok)
}
