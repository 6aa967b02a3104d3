package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/atinyakov/alphabase/internal/middleware"
	"github.com/atinyakov/alphabase/internal/models"
	"github.com/atinyakov/alphabase/internal/service"
)

// AuthService defines the interface for authentication operations
// required by the HTTP handlers.
type AuthService interface {
	// Register creates an account and returns its first token.
	Register(ctx context.Context, req models.Registration) (models.Token, error)
	// Login exchanges credentials for a token.
	Login(ctx context.Context, req models.Credentials) (models.Token, error)
	// Me returns the account of a signed-in user.
	Me(ctx context.Context, login string) (*models.User, error)
}

// AuthHandler handles HTTP requests for user registration and login.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
}

// Register handles POST /auth/register. On success the response carries an
// access token, so no separate login is needed.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.Registration
	if err := decodeJSON(w, r, &req); err != nil {
		httpError(w, err.Error(), http.StatusBadRequest)
		return
	}

	tok, err := h.AuthService.Register(r.Context(), req)
	switch {
	case errors.Is(err, service.ErrUsernameTaken):
		httpError(w, "Username already exists", http.StatusBadRequest)
	case errors.Is(err, service.ErrEmailTaken):
		httpError(w, "Email already registered", http.StatusBadRequest)
	case errors.Is(err, service.ErrInvalidEmail):
		httpError(w, "Invalid email address", http.StatusBadRequest)
	case errors.Is(err, service.ErrInvalidInput):
		httpError(w, detailOf(err), http.StatusBadRequest)
	case err != nil:
		httpError(w, "internal error", http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, tok)
	}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.Credentials
	if err := decodeJSON(w, r, &req); err != nil {
		httpError(w, err.Error(), http.StatusBadRequest)
		return
	}

	tok, err := h.AuthService.Login(r.Context(), req)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		httpError(w, "Invalid username or password", http.StatusUnauthorized)
	case err != nil:
		httpError(w, "internal error", http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, tok)
	}
}

type meResponse struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// Me handles GET /auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.AuthService.Me(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		httpError(w, "User not found", http.StatusNotFound)
	case err != nil:
		httpError(w, "internal error", http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, meResponse{
			Username:  u.Username,
			Email:     u.Email,
			CreatedAt: u.CreatedAt.Format(time.RFC3339),
		})
	}
}

// detailOf strips the sentinel prefix from a wrapped service error.
func detailOf(err error) string {
	return strings.TrimPrefix(err.Error(), service.ErrInvalidInput.Error()+": ")
}
