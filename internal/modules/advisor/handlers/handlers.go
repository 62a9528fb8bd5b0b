// Package handlers provides HTTP handlers for the advisory service.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/modules/advisor"
)

// Handler handles advisory HTTP requests
type Handler struct {
	service *advisor.Service
	log     zerolog.Logger
}

// NewHandler creates a new advisor handler
func NewHandler(service *advisor.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "advisor").Logger(),
	}
}

// HandleAnalyze handles POST /api/advisor/analyze
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if !h.service.IsConfigured() {
		h.writeError(w, http.StatusServiceUnavailable, "advisor is not configured")
		return
	}

	analysis, err := h.service.AnalyzePortfolio(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Portfolio analysis failed")
		h.writeError(w, http.StatusBadGateway, "analysis unavailable")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": analysis,
	})
}

// HandleAsk handles POST /api/advisor/ask
func (h *Handler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	if !h.service.IsConfigured() {
		h.writeError(w, http.StatusServiceUnavailable, "advisor is not configured")
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Question == "" {
		h.writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := h.service.Ask(r.Context(), req.Question)
	if err != nil {
		h.log.Error().Err(err).Msg("Advisory question failed")
		h.writeError(w, http.StatusBadGateway, "advisor unavailable")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"answer": answer,
		},
	})
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]interface{}{
		"error": msg,
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
