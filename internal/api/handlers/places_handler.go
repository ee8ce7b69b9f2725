package handlers

import (
	"net/http"

	"github.com/skylane/flightsearch/backend/internal/adapters/geo"
)

// PlacesHandler serves lookups against the static geo dataset
type PlacesHandler struct {
	places *geo.Dataset
}

// NewPlacesHandler creates a new places handler
func NewPlacesHandler(places *geo.Dataset) *PlacesHandler {
	return &PlacesHandler{places: places}
}

// GetByID handles GET /api/places/{id}
func (h *PlacesHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "place id is required")
		return
	}

	place, err := h.places.ByEntityID(id)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "place not found")
		return
	}
	respondWithJSON(w, http.StatusOK, place)
}

// Lookup handles GET /api/places?iata=LHR
func (h *PlacesHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	iata := r.URL.Query().Get("iata")
	if iata == "" {
		respondWithError(w, http.StatusBadRequest, "iata query parameter is required")
		return
	}

	place, err := h.places.ByIata(iata)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "place not found")
		return
	}
	respondWithJSON(w, http.StatusOK, place)
}
