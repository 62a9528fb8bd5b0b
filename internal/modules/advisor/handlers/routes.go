package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all advisor routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/advisor", func(r chi.Router) {
		r.Post("/analyze", h.HandleAnalyze)
		r.Post("/ask", h.HandleAsk)
	})
}
