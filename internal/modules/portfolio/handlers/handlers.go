// Package handlers provides HTTP handlers for portfolio valuation,
// history, and performance attribution.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/modules/portfolio"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	service *portfolio.Service
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(service *portfolio.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// HandleGetPortfolio handles GET /api/portfolio
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetPortfolio()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build portfolio")
		http.Error(w, "Failed to build portfolio", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": p,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetPerformance handles GET /api/portfolio/performance
func (h *Handler) HandleGetPerformance(w http.ResponseWriter, r *http.Request) {
	perf, err := h.service.GetPerformance()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to compute performance")
		http.Error(w, "Failed to compute performance", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": perf,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleGetHistory handles GET /api/portfolio/history?days=30
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	days := 30
	if param := r.URL.Query().Get("days"); param != "" {
		parsed, err := strconv.Atoi(param)
		if err != nil || parsed <= 0 {
			http.Error(w, "days must be a positive integer", http.StatusBadRequest)
			return
		}
		days = parsed
	}

	history, err := h.service.GetHistory(days)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load history")
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": history,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleSaveSnapshot handles POST /api/portfolio/snapshot
func (h *Handler) HandleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.SaveSnapshot()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to save snapshot")
		http.Error(w, "Failed to save snapshot", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": snap,
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
