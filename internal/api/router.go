package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/door-core/internal/auth"
)

// buildRouter assembles the chi route tree: the middleware chain every
// request passes through, the small unauthenticated surface, and the
// token-protected rest.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.withRequestID)
	r.Use(s.withRequestLog)
	r.Use(s.withRecovery)
	r.Use(s.withCORS)
	r.Use(s.withBodyLimit)

	r.Route("/api/v1", func(r chi.Router) {
		// Reachable without a token: probes and login.
		r.Get("/health", s.handleHealth)
		r.Post("/auth/login", s.handleLogin)

		// WebSocket upgrade. Browsers cannot set an Authorization header on
		// the upgrade request, so this sits outside the JWT group and the
		// handler validates a single-use ticket instead.
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(s.withAuth)

			// Tickets are minted only for authenticated sessions.
			r.Post("/auth/ws-ticket", s.handleWSTicket)

			// Door endpoints
			r.Route("/doors", func(r chi.Router) {
				r.Use(s.requirePermission(auth.PermDoorRead))

				r.Get("/", s.handleListDoors)

				r.Route("/{doorID}", func(r chi.Router) {
					r.Get("/", s.handleGetDoor)
					r.Get("/report", s.handleDoorReport)
					r.Post("/commands", s.handleDoorCommand)
					r.With(s.requirePermission(auth.PermHistoryRead)).
						Get("/history", s.handleDoorHistory)
					r.With(s.requirePermission(auth.PermMetricsRead)).
						Get("/metrics", s.handleDoorMetrics)
				})
			})

			// System internals (admin only)
			r.With(s.requirePermission(auth.PermSystemAdmin)).
				Get("/system/info", s.handleSystemInfo)
		})
	})

	return r
}

// handleHealth returns the server health status along with the state of
// each backing component. Optional components report "disabled" when not
// configured, so a monitoring probe can tell degraded from broken.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := make(map[string]string, 3)

	if s.db != nil {
		if err := s.db.HealthCheck(r.Context()); err != nil {
			components["database"] = "error"
		} else {
			components["database"] = "ok"
		}
	} else {
		components["database"] = "disabled"
	}

	if s.mqtt != nil {
		if s.mqtt.IsConnected() {
			components["mqtt"] = "connected"
		} else {
			components["mqtt"] = "disconnected"
		}
	} else {
		components["mqtt"] = "disabled"
	}

	if s.influx != nil {
		if s.influx.IsConnected() {
			components["influxdb"] = "connected"
		} else {
			components["influxdb"] = "disconnected"
		}
	} else {
		components["influxdb"] = "disabled"
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"version":    s.version,
		"components": components,
	})
}
