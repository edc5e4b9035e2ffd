package middleware

import (
	"context"
	"net/http"

	goSession "github.com/MrEthical07/goSession"
)

type sessionContextKey struct{}

// SessionFromContext returns the session injected by [RequireSession].
func SessionFromContext(ctx context.Context) (*goSession.Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*goSession.Session)
	return sess, ok
}

// RequireSession rejects any request whose session cookie does not
// resolve to a live session. The sliding window is renewed by the read,
// so passing a guard keeps the session alive.
func RequireSession(core *goSession.Core, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if core == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			sess, err := core.GetSession(r.Context(), cookie.Value)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
