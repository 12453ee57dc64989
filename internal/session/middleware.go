package session

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"
)

type contextKey struct{}

// WithID returns a copy of ctx carrying the session id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IDFromContext returns the session id placed by Require.
func IDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}

// Cookies reads and writes the session cookie.
type Cookies struct {
	Name   string
	Secure bool
}

// Set writes token as the session cookie.
func (c Cookies) Set(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// Clear expires the session cookie.
func (c Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// Token returns the session token from the cookie or a bearer
// Authorization header.
func (c Cookies) Token(r *http.Request) string {
	if cookie, err := r.Cookie(c.Name); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// Require returns middleware that rejects requests without a valid session
// token for a live session. onError writes the rejection.
func Require(
	auth *Authenticator,
	store *Store,
	cookies Cookies,
	onError func(http.ResponseWriter, error),
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := cookies.Token(r)
			if token == "" {
				onError(w, ErrUnauthenticated)
				return
			}

			id, err := auth.Verify(token)
			if err != nil {
				onError(w, err)
				return
			}

			if _, err := store.Get(id); err != nil {
				cookies.Clear(w)
				onError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithID(r.Context(), id)))
		})
	}
}

// RemoteHost returns the client host used to throttle logins.
func RemoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
