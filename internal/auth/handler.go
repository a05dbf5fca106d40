package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/ayush/consciousday/backend/internal/errors"
	"github.com/ayush/consciousday/backend/internal/logger"
	"github.com/ayush/consciousday/backend/internal/models"
	"github.com/ayush/consciousday/backend/internal/render"
)

type ctxKey struct{}

// WithUsername returns a context carrying the authenticated username.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, ctxKey{}, username)
}

// UsernameFrom returns the authenticated username, or "" outside RequireAuth.
func UsernameFrom(ctx context.Context) string {
	u, _ := ctx.Value(ctxKey{}).(string)
	return u
}

// Handler holds auth and user-administration HTTP handlers.
type Handler struct {
	creds    *CredentialStore
	sessions Sessions
}

func NewHandler(creds *CredentialStore, sessions Sessions) *Handler {
	return &Handler{creds: creds, sessions: sessions}
}

// Register creates a new user.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, err)
		return
	}

	user, err := h.creds.Register(req)
	if err != nil {
		render.Error(w, err)
		return
	}
	render.JSON(w, http.StatusCreated, user)
}

// Login authenticates a user and creates a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := render.Decode(r, &req); err != nil {
		render.Error(w, err)
		return
	}

	user, err := h.creds.Authenticate(req.Username, req.Password)
	if err != nil {
		logger.Warn("login failed", "user", req.Username)
		render.Error(w, err)
		return
	}

	sid, err := h.sessions.Create(r.Context(), user.Username)
	if err != nil {
		logger.Error("session creation failed", "user", user.Username, "error", err)
		render.Error(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.creds.CookieName(),
		Value:    sid,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.creds.SessionTTL().Seconds()),
	})
	render.JSON(w, http.StatusOK, user)
}

// Logout destroys the current session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(h.creds.CookieName())
	if err == nil {
		if err := h.sessions.Delete(r.Context(), cookie.Value); err != nil {
			logger.Warn("session delete failed", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.creds.CookieName(),
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	render.Message(w, "logged out")
}

// Me returns the currently authenticated user with their role.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.creds.User(UsernameFrom(r.Context()))
	if err != nil {
		render.Error(w, err)
		return
	}
	render.JSON(w, http.StatusOK, user)
}

// ListUsers returns every credential record without password hashes.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, http.StatusOK, h.creds.Users())
}

// SetRole changes the role of the user named in the path.
func (h *Handler) SetRole(w http.ResponseWriter, r *http.Request) {
	var req models.SetRoleRequest
	if err := render.Decode(r, &req); err != nil {
		var httpErr *apperrors.HTTPError
		if errors.As(err, &httpErr) && httpErr.Code == "VALIDATION_ERROR" {
			err = apperrors.ErrInvalidRole
		}
		render.Error(w, err)
		return
	}

	username := chi.URLParam(r, "username")
	if err := h.creds.SetRole(UsernameFrom(r.Context()), username, req.Role); err != nil {
		render.Error(w, err)
		return
	}
	user, err := h.creds.User(username)
	if err != nil {
		render.Error(w, err)
		return
	}
	render.JSON(w, http.StatusOK, user)
}

// ClearUsers removes every user except demo.
func (h *Handler) ClearUsers(w http.ResponseWriter, r *http.Request) {
	removed, err := h.creds.ClearAllUsers(UsernameFrom(r.Context()))
	if err != nil {
		render.Error(w, err)
		return
	}
	render.JSON(w, http.StatusOK, map[string]int{"removed": removed})
}
