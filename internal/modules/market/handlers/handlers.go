// Package handlers provides HTTP handlers for market data lookups.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/ledger"
	"github.com/aristath/folio/internal/modules/market"
)

// Handler handles market data HTTP requests
type Handler struct {
	service *market.Service
	log     zerolog.Logger
}

// NewHandler creates a new market handler
func NewHandler(service *market.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "market").Logger(),
	}
}

// HandleGetQuote handles GET /api/market/quote/{symbol}
func (h *Handler) HandleGetQuote(w http.ResponseWriter, r *http.Request) {
	symbol, err := ledger.NormalizeSymbol(chi.URLParam(r, "symbol"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	get := h.service.GetQuote
	if r.URL.Query().Get("fresh") == "1" {
		get = h.service.GetQuoteFresh
	}

	quote, err := get(symbol)
	if err != nil {
		h.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote lookup failed")
		h.writeError(w, http.StatusBadGateway, "quote unavailable for "+symbol)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": quote,
	})
}

// HandleGetAnalysis handles GET /api/market/analysis/{symbol}
func (h *Handler) HandleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	analysis, err := h.service.GetAnalysis(chi.URLParam(r, "symbol"))
	if err != nil {
		if domain.IsValidation(err) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Warn().Err(err).Msg("Analysis lookup failed")
		h.writeError(w, http.StatusBadGateway, "analysis unavailable")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": analysis,
	})
}

// HandleSearch handles GET /api/market/search?q=...
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		h.writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	limit := 8
	if param := r.URL.Query().Get("limit"); param != "" {
		if parsed, err := strconv.Atoi(param); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	results, err := h.service.Search(query, limit)
	if err != nil {
		h.log.Warn().Err(err).Str("query", query).Msg("Symbol search failed")
		h.writeError(w, http.StatusBadGateway, "symbol search unavailable")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": results,
	})
}

// HandleGetNews handles GET /api/market/news/{symbol}
func (h *Handler) HandleGetNews(w http.ResponseWriter, r *http.Request) {
	limit := 5
	if param := r.URL.Query().Get("limit"); param != "" {
		if parsed, err := strconv.Atoi(param); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	items, err := h.service.GetNews(chi.URLParam(r, "symbol"), limit)
	if err != nil {
		if domain.IsValidation(err) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Warn().Err(err).Msg("News lookup failed")
		h.writeError(w, http.StatusBadGateway, "news unavailable")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": items,
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
