// Package http provides HTTP routing and handlers for the AlphaBase API.
package http

import (
	"net/http"

	"github.com/atinyakov/alphabase/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Auth          *AuthHandler
	Settings      *SettingsHandler
	Notifications *NotificationHandler
	System        *SystemHandler
	Data          *DataHandler
}

// NewRouter constructs the HTTP handler serving the AlphaBase API.
//
// Routes:
//
//	GET    /                             → System.Root
//	POST   /auth/register                → Auth.Register (rate limited)
//	POST   /auth/login                   → Auth.Login (rate limited)
//	GET    /auth/me                      → Auth.Me
//	GET    /system/status                → System.Status
//	GET    /data/collections             → Data.Collections
//	POST   /data/set                     → Data.Set
//	GET    /data/get/{collection}/{key}  → Data.Get
//	GET    /data/list/{collection}       → Data.List
//	DELETE /data/delete/{collection}/{key} → Data.Delete
//	GET    /settings/email               → Settings.GetEmail
//	POST   /settings/email               → Settings.SaveEmail
//	GET    /settings/recipients          → Settings.ListRecipients
//	POST   /settings/recipients          → Settings.AddRecipient
//	DELETE /settings/recipients/{email}  → Settings.RemoveRecipient
//	POST   /notifications/send-alert     → Notifications.SendAlert
//	POST   /notifications/send-email     → Notifications.SendEmail
//	GET    /ws                           → System.WebSocket
//
// Everything except the root and the two /auth entry points requires a
// bearer token. Requests with a body must be JSON.
func NewRouter(
	h Handlers,
	tokens middleware.TokenParser,
	limiter *middleware.RateLimiter,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.WithRequestLogging(logger))
	// Bodiless requests (GET, DELETE, the websocket handshake) pass through.
	r.Use(chiMiddleware.AllowContentType("application/json"))

	r.Get("/", h.System.Root)

	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if limiter != nil {
				r.Use(limiter.Handler)
			}
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
		})
		r.With(middleware.BearerAuth(tokens)).Get("/me", h.Auth.Me)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(tokens))

		r.Get("/system/status", h.System.Status)

		r.Route("/data", func(r chi.Router) {
			r.Get("/collections", h.Data.Collections)
			r.Post("/set", h.Data.Set)
			r.Get("/get/{collection}/{key}", h.Data.Get)
			r.Get("/list/{collection}", h.Data.List)
			r.Delete("/delete/{collection}/{key}", h.Data.Delete)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/email", h.Settings.GetEmail)
			r.Post("/email", h.Settings.SaveEmail)
			r.Get("/recipients", h.Settings.ListRecipients)
			r.Post("/recipients", h.Settings.AddRecipient)
			r.Delete("/recipients/{email}", h.Settings.RemoveRecipient)
		})

		r.Post("/notifications/send-alert", h.Notifications.SendAlert)
		r.Post("/notifications/send-email", h.Notifications.SendEmail)
		r.Get("/ws", h.System.WebSocket)
	})

	return r
}
