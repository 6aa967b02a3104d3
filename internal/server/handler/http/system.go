package http

import (
	"net/http"
	"time"

	"github.com/atinyakov/alphabase/internal/middleware"
	"github.com/atinyakov/alphabase/internal/models"
)

// Version is reported by the root and status endpoints.
const Version = "4.0.0"

// Realtime is the websocket hub seen by the handlers.
type Realtime interface {
	ClientCount() int
	ServeWS(w http.ResponseWriter, r *http.Request, user string)
}

// SystemHandler serves the root, status and websocket endpoints.
type SystemHandler struct {
	Realtime Realtime
	Now      func() time.Time
}

func (h *SystemHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

type rootResponse struct {
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// Root handles GET /.
func (h *SystemHandler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, rootResponse{
		Message:   "Welcome to AlphaBase v4.0!",
		Status:    "running",
		Version:   Version,
		Timestamp: h.now(),
	})
}

// Status handles GET /system/status.
func (h *SystemHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.SystemStatus{
		WebsocketClients: h.Realtime.ClientCount(),
		Timestamp:        h.now(),
		Version:          Version,
	})
}

// WebSocket handles GET /ws for the authenticated user.
func (h *SystemHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	h.Realtime.ServeWS(w, r, middleware.GetUserIDFromContext(r.Context()))
}
