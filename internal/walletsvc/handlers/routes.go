package handlers

import (
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) SetRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {

		// public routes here
		r.Get("/health", h.HealthHandler)

		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(jwtauth.Authenticator)

			r.Route("/cards", func(r chi.Router) {
				r.Get("/", h.ListCards)
				r.Post("/", h.CreateCard)
				r.Get("/{number}", h.GetCard)
				r.Put("/{number}", h.UpdateCard)
				r.Delete("/{number}", h.DeleteCard)
				r.Get("/{number}/code", h.CardCode)
			})

			r.Post("/render", h.Render)
			r.Get("/export", h.Export)

			r.Route("/imports", func(r chi.Router) {
				r.Post("/", h.BeginImport)
				r.Get("/{id}", h.GetImport)
				r.Post("/{id}/erase", h.DecideErase)
				r.Post("/{id}/duplicates", h.DecideDuplicates)
				r.Delete("/{id}", h.CancelImport)
			})
		})
	})
}

// InitAuth sets up HS256 verification with secret. When debug is set a
// week-long token is logged for manual testing.
func (h *Handler) InitAuth(secret string, debug bool) {
	h.tokenAuth = jwtauth.New("HS256", []byte(secret), nil)
	if !debug {
		return
	}

	expirationTime := time.Now().Add(7 * 24 * time.Hour).Unix()
	_, tokenString, err := h.tokenAuth.Encode(map[string]interface{}{
		"service_id": "cardctl",
		"exp":        expirationTime,
	})
	if err != nil {
		log.Errorf("failed to issue debug token: %s", err)
		return
	}
	log.Infof("DEBUG: JWT for testing expires soon : %s", tokenString)
}
