package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/consciousday/backend/internal/auth"
	"github.com/ayush/consciousday/backend/internal/models"
)

type staticSessions map[string]string

func (s staticSessions) Create(context.Context, string) (string, error) { return "", nil }
func (s staticSessions) Get(_ context.Context, sid string) (string, error) {
	return s[sid], nil
}
func (s staticSessions) Delete(context.Context, string) error { return nil }

func setup(t *testing.T) (*auth.CredentialStore, staticSessions) {
	t.Helper()
	creds, err := auth.LoadCredentials(filepath.Join(t.TempDir(), "config.yaml"), false)
	require.NoError(t, err)
	_, err = creds.Register(models.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	return creds, staticSessions{"s-demo": "demo", "s-alice": "alice", "s-gone": "gone"}
}

func echoUser(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte(auth.UsernameFrom(r.Context())))
}

func TestRequireAuth(t *testing.T) {
	creds, sessions := setup(t)
	h := RequireAuth(sessions, creds)(http.HandlerFunc(echoUser))

	tests := []struct {
		name   string
		cookie string
		status int
		body   string
	}{
		{"no cookie", "", http.StatusUnauthorized, ""},
		{"unknown session", "s-missing", http.StatusUnauthorized, ""},
		{"user removed from credentials", "s-gone", http.StatusUnauthorized, ""},
		{"valid session", "s-alice", http.StatusOK, "alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/entries", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: creds.CookieName(), Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	creds, sessions := setup(t)
	h := RequireAuth(sessions, creds)(RequireAdmin(creds)(http.HandlerFunc(echoUser)))

	for sid, want := range map[string]int{"s-demo": http.StatusOK, "s-alice": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
		req.AddCookie(&http.Cookie{Name: creds.CookieName(), Value: sid})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, sid)
	}
}

func TestRevocationFromAnotherInstance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	server, err := auth.LoadCredentials(path, false)
	require.NoError(t, err)
	_, err = server.Register(models.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	require.NoError(t, err)
	require.NoError(t, server.SetRole("demo", "alice", models.RoleAdmin))

	sessions := staticSessions{"s-alice": "alice"}
	h := RequireAuth(sessions, server)(RequireAdmin(server)(http.HandlerFunc(echoUser)))
	call := func() int {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
		req.AddCookie(&http.Cookie{Name: server.CookieName(), Value: "s-alice"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	require.Equal(t, http.StatusOK, call())

	cli, err := auth.LoadCredentials(path, false)
	require.NoError(t, err)
	require.NoError(t, cli.SetRole("demo", "alice", models.RoleUser))
	assert.Equal(t, http.StatusForbidden, call())

	_, err = cli.ClearAllUsers("demo")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, call())
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
