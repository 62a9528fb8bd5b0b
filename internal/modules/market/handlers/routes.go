package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all market data routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/market", func(r chi.Router) {
		r.Get("/quote/{symbol}", h.HandleGetQuote)
		r.Get("/analysis/{symbol}", h.HandleGetAnalysis)
		r.Get("/search", h.HandleSearch)
		r.Get("/news/{symbol}", h.HandleGetNews)
	})
}
