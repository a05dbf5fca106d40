package middleware

import (
	"net/http"

	"github.com/ayush/consciousday/backend/internal/auth"
	apperrors "github.com/ayush/consciousday/backend/internal/errors"
	"github.com/ayush/consciousday/backend/internal/logger"
	"github.com/ayush/consciousday/backend/internal/render"
)

var (
	errNotAuthenticated = apperrors.NewHTTPError(http.StatusUnauthorized, "not authenticated", "NOT_AUTHENTICATED")
	errSessionExpired   = apperrors.NewHTTPError(http.StatusUnauthorized, "session expired", "SESSION_EXPIRED")
)

// RequireAuth validates the session cookie and injects the username into
// the request context. Sessions of users removed from the credential file
// are rejected.
func RequireAuth(sessions auth.Sessions, creds *auth.CredentialStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(creds.CookieName())
			if err != nil {
				render.Error(w, errNotAuthenticated)
				return
			}

			username, err := sessions.Get(r.Context(), cookie.Value)
			if err != nil {
				logger.Error("session lookup failed", "error", err)
				render.Error(w, errSessionExpired)
				return
			}
			if username == "" || !creds.Exists(username) {
				render.Error(w, errSessionExpired)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithUsername(r.Context(), username)))
		})
	}
}

// RequireAdmin rejects requests whose user is not an admin. It must run
// after RequireAuth.
func RequireAdmin(creds *auth.CredentialStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username := auth.UsernameFrom(r.Context())
			if !creds.IsAdmin(username) {
				logger.Warn("admin route denied", "user", username, "path", r.URL.Path)
				render.Error(w, apperrors.ErrPermissionDenied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
