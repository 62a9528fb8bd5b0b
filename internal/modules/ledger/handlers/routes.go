package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all lot ledger routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/lots", func(r chi.Router) {
		r.Get("/", h.HandleListLots)
		r.Post("/", h.HandleCreateLot)
		r.Get("/symbols", h.HandleListSymbols)
		r.Get("/{id}", h.HandleGetLot)
		r.Patch("/{id}", h.HandleUpdateLot)
		r.Delete("/{id}", h.HandleDeleteLot)
	})
}
