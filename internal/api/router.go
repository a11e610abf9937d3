package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medisync/medisync/internal/auth"
	"github.com/medisync/medisync/internal/push"
)

// NewRouter wires the booking API: appointment commands and queries behind
// bearer auth, plus unauthenticated health probes.
func NewRouter(appts *AppointmentHandler, health *HealthHandler, verifier *auth.Verifier) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	r.Get("/healthz", health.live)
	r.Get("/readyz", health.ready)

	r.Route("/api/appointments", func(r chi.Router) {
		r.Use(auth.Middleware(verifier))

		r.Post("/", appts.create)
		r.Get("/", appts.listAll)
		r.Get("/my", appts.listMine)
		r.Get("/{id}", appts.getByID)
		r.Patch("/{id}/approve", appts.approve)
		r.Patch("/{id}/reject", appts.reject)
		r.Patch("/{id}/complete", appts.complete)
		r.Patch("/{id}/cancel", appts.cancel)
		r.Delete("/{id}", appts.hardDelete)
	})

	return r
}

// NewNotifierRouter wires the notification surface: the in-app notification
// API, the WebSocket endpoint and health probes. The WebSocket handshake does
// its own token check so browser clients can pass ?token=.
func NewNotifierRouter(notifs *NotificationHandler, gateway *push.Gateway, health *HealthHandler, verifier *auth.Verifier) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	r.Get("/healthz", health.live)
	r.Get("/readyz", health.ready)

	r.Get("/ws", gateway.ServeWS)

	r.Route("/api/notifications", func(r chi.Router) {
		r.Use(auth.Middleware(verifier))

		r.Get("/", notifs.list)
		r.Patch("/{id}/read", notifs.markRead)
		r.Patch("/read-all", notifs.markAllRead)
		r.Post("/mark-all-read", notifs.markAllRead)
		r.Delete("/{id}", notifs.delete)
	})

	return r
}
