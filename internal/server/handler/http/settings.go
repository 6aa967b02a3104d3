package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/atinyakov/alphabase/internal/middleware"
	"github.com/atinyakov/alphabase/internal/models"
	"github.com/atinyakov/alphabase/internal/service"
	"github.com/go-chi/chi/v5"
)

// SettingsService manages the signed-in user's email settings and
// recipients.
type SettingsService interface {
	GetEmailConfig(ctx context.Context, login string) (models.EmailConfig, error)
	SaveEmailConfig(ctx context.Context, login string, cfg models.EmailConfig) error
	ListRecipients(ctx context.Context, login string) ([]string, error)
	AddRecipient(ctx context.Context, login, email string) error
	RemoveRecipient(ctx context.Context, login, email string) error
}

// SettingsHandler serves /settings.
type SettingsHandler struct {
	SettingsService SettingsService
}

// GetEmail handles GET /settings/email. The password is never returned.
func (h *SettingsHandler) GetEmail(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.SettingsService.GetEmailConfig(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		httpError(w, "internal error", http.StatusInternalServerError)
		return
	}
	cfg.SenderPassword = ""
	writeJSON(w, http.StatusOK, cfg)
}

// SaveEmail handles POST /settings/email.
func (h *SettingsHandler) SaveEmail(w http.ResponseWriter, r *http.Request) {
	var cfg models.EmailConfig
	if err := decodeJSON(w, r, &cfg); err != nil {
		httpError(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := h.SettingsService.SaveEmailConfig(r.Context(), middleware.GetUserIDFromContext(r.Context()), cfg)
	if writeValidation(w, err) {
		return
	}
	if err != nil {
		httpError(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, models.Result{Success: true, Message: "Email settings updated"})
}

// ListRecipients handles GET /settings/recipients.
func (h *SettingsHandler) ListRecipients(w http.ResponseWriter, r *http.Request) {
	list, err := h.SettingsService.ListRecipients(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		httpError(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// AddRecipient handles POST /settings/recipients.
func (h *SettingsHandler) AddRecipient(w http.ResponseWriter, r *http.Request) {
	var req models.RecipientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httpError(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := h.SettingsService.AddRecipient(r.Context(), middleware.GetUserIDFromContext(r.Context()), req.Email)
	if writeValidation(w, err) {
		return
	}
	if err != nil {
		httpError(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, models.Result{Success: true, Message: "Recipient added"})
}

// RemoveRecipient handles DELETE /settings/recipients/{email}.
func (h *SettingsHandler) RemoveRecipient(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	err := h.SettingsService.RemoveRecipient(r.Context(), middleware.GetUserIDFromContext(r.Context()), email)
	switch {
	case errors.Is(err, service.ErrRecipientNotFound):
		httpError(w, "Recipient not found", http.StatusNotFound)
	case err != nil:
		httpError(w, "internal error", http.StatusInternalServerError)
	default:
		writeJSON(w, http.StatusOK, models.Result{Success: true, Message: "Recipient removed"})
	}
}

// writeValidation answers 400 for input errors and reports whether it did.
func writeValidation(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, service.ErrInvalidEmail):
		httpError(w, "Invalid email address", http.StatusBadRequest)
	case errors.Is(err, service.ErrInvalidInput):
		httpError(w, detailOf(err), http.StatusBadRequest)
	default:
		return false
	}
	return true
}
