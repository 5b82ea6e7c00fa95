package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// OAuth provider redirect; the state parameter identifies the link.
		r.Get("/account/redirect", s.handleAccountRedirect)

		// WebSocket (auth via ticket, validated in handler)
		r.Get("/ws", s.handleWebSocket)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Route("/user", func(r chi.Router) {
				r.Get("/", s.handleGetUser)
				r.Post("/channel_auth", s.handleChannelAuth)
				r.Post("/ws-ticket", s.handleWSTicket)
			})

			r.Get("/events", s.handleEvents)
			r.Get("/drivers", s.handleListDrivers)

			r.Route("/devices", func(r chi.Router) {
				r.Get("/", s.handleListDevices)
				r.Post("/", s.handleCreateDevice)
				r.Post("/kinds/{kind}/command", s.handleStaticCommand)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetDevice)
					r.Delete("/", s.handleDeleteDevice)
					r.Post("/command", s.handleDeviceCommand)
				})
			})

			r.Route("/rooms", func(r chi.Router) {
				r.Get("/", s.handleListRooms)
				r.Post("/", s.handleCreateRoom)
				r.Get("/{id}", s.handleGetRoom)
				r.Patch("/{id}", s.handleUpdateRoom)
				r.Delete("/{id}", s.handleDeleteRoom)
				r.Post("/{id}/command", s.handleRoomCommand)
			})

			r.Get("/account/start_flow", s.handleAccountStart)
			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", s.handleListAccounts)
				r.Post("/{id}/command", s.handleAccountCommand)
			})

			r.Post("/proxy/events", s.handleProxyEvent)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
