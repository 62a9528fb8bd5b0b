// Package handlers provides HTTP handlers for lot ledger operations.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/domain"
	"github.com/aristath/folio/internal/modules/ledger"
)

// Handler handles lot ledger HTTP requests
type Handler struct {
	service *ledger.Service
	log     zerolog.Logger
}

// NewHandler creates a new ledger handler
func NewHandler(service *ledger.Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "ledger").Logger(),
	}
}

// HandleListLots handles GET /api/lots
func (h *Handler) HandleListLots(w http.ResponseWriter, r *http.Request) {
	var lots []ledger.Lot
	var err error

	if symbol := r.URL.Query().Get("symbol"); symbol != "" {
		lots, err = h.service.ListLotsBySymbol(symbol)
	} else {
		lots, err = h.service.ListLots()
	}

	if err != nil {
		h.writeError(w, err)
		return
	}

	if lots == nil {
		lots = []ledger.Lot{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": lots,
	})
}

// HandleGetLot handles GET /api/lots/{id}
func (h *Handler) HandleGetLot(w http.ResponseWriter, r *http.Request) {
	id, err := h.lotID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	lot, err := h.service.GetLot(id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": lot,
	})
}

// HandleCreateLot handles POST /api/lots
func (h *Handler) HandleCreateLot(w http.ResponseWriter, r *http.Request) {
	var req ledger.CreateLotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, domain.NewValidationError("body", "invalid JSON"))
		return
	}

	lot, err := h.service.AddLot(req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]interface{}{
		"data": lot,
	})
}

// HandleUpdateLot handles PATCH /api/lots/{id}
func (h *Handler) HandleUpdateLot(w http.ResponseWriter, r *http.Request) {
	id, err := h.lotID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var req ledger.UpdateLotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, domain.NewValidationError("body", "invalid JSON"))
		return
	}

	lot, err := h.service.UpdateLot(id, req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": lot,
	})
}

// HandleDeleteLot handles DELETE /api/lots/{id}
func (h *Handler) HandleDeleteLot(w http.ResponseWriter, r *http.Request) {
	id, err := h.lotID(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.service.DeleteLot(id); err != nil {
		h.writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleListSymbols handles GET /api/lots/symbols
func (h *Handler) HandleListSymbols(w http.ResponseWriter, r *http.Request) {
	symbols, err := h.service.Symbols()
	if err != nil {
		h.writeError(w, err)
		return
	}

	if symbols == nil {
		symbols = []string{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": symbols,
	})
}

func (h *Handler) lotID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, domain.NewValidationError("id", "must be an integer")
	}
	return id, nil
}

// writeError maps domain errors to HTTP status codes
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case domain.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Request failed")
	}

	h.writeJSON(w, status, map[string]interface{}{
		"error": err.Error(),
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
