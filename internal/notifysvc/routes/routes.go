package routes

import (
	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"

	"github.com/romcheg/offline-cards/internal/notifysvc/handlers"
)

// SetRoutes mounts the socket endpoint behind JWT. Browsers cannot set
// headers on a websocket handshake, so the token may also come as ?jwt=.
func SetRoutes(r chi.Router, h *handlers.Handler, tokenAuth *jwtauth.JWTAuth) {
	r.Route("/v1", func(r chi.Router) {

		// public routes here
		r.Get("/health", h.HealthHandler)

		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verify(tokenAuth, jwtauth.TokenFromQuery, jwtauth.TokenFromHeader))
			r.Use(jwtauth.Authenticator)

			r.Get("/ws", h.HandleWebSocket)
		})
	})
}
