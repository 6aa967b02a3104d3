package http

import (
	"context"
	"net/http"

	"github.com/atinyakov/alphabase/internal/middleware"
	"github.com/atinyakov/alphabase/internal/models"
)

// NotificationService sends emails for a user.
type NotificationService interface {
	SendAlert(ctx context.Context, login string, req models.AlertRequest) (models.Result, error)
	SendEmail(ctx context.Context, login string, req models.EmailRequest) (models.Result, error)
}

// NotificationHandler serves /notifications.
type NotificationHandler struct {
	NotificationService NotificationService
}

// SendAlert handles POST /notifications/send-alert. A delivery failure is a
// 200 with success=false.
func (h *NotificationHandler) SendAlert(w http.ResponseWriter, r *http.Request) {
	var req models.AlertRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httpError(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.NotificationService.SendAlert(r.Context(), middleware.GetUserIDFromContext(r.Context()), req)
	if writeValidation(w, err) {
		return
	}
	if err != nil {
		httpError(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SendEmail handles POST /notifications/send-email.
func (h *NotificationHandler) SendEmail(w http.ResponseWriter, r *http.Request) {
	var req models.EmailRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httpError(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.NotificationService.SendEmail(r.Context(), middleware.GetUserIDFromContext(r.Context()), req)
	if writeValidation(w, err) {
		return
	}
	if err != nil {
		httpError(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
