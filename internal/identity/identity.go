// Package identity assigns every browser an anonymous session id.
//
// The id lives in an HttpOnly cookie and is attached to the request context,
// where handlers pick it up with SessionIDFromContext.
package identity

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// SessionCookieName is the cookie holding the session id.
const SessionCookieName = "shopmarketer_session"

type contextKey int

const sessionIDKey contextKey = iota

// SessionIDFromContext extracts the session id from the request context.
func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return ""
}

// WithSessionID returns a context carrying id.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

func isValidSessionID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func setSessionCookie(w http.ResponseWriter, id string, maxAge time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		Expires:  time.Now().Add(maxAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	})
}

// Middleware reuses a valid session cookie or issues a new one, refreshing
// its lifetime on every request.
func Middleware(maxAge time.Duration, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(SessionCookieName); err == nil && isValidSessionID(c.Value) {
				id = c.Value
			} else {
				id = uuid.NewString()
				slog.Debug("identity.Middleware: issued new session", "path", r.URL.Path)
			}
			setSessionCookie(w, id, maxAge, secure)
			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), id)))
		})
	}
}
