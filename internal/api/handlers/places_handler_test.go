package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylane/flightsearch/backend/internal/adapters/geo"
	"github.com/skylane/flightsearch/backend/internal/domain/entities"
)

func newPlacesHandler(t *testing.T) *PlacesHandler {
	t.Helper()
	dataset, err := geo.NewDataset([]byte(`{"places": [
		{"entity_id": "95565050", "name": "London Heathrow", "type": "airport", "iata": "LHR", "coordinates": {"lat": 51.47, "lng": -0.45}}
	]}`))
	require.NoError(t, err)
	return NewPlacesHandler(dataset)
}

func TestGetByID_ReturnsPlace(t *testing.T) {
	handler := newPlacesHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/places/95565050", nil)
	req.SetPathValue("id", "95565050")
	rec := httptest.NewRecorder()
	handler.GetByID(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var place entities.Place
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &place))
	assert.Equal(t, "London Heathrow", place.Name)
	assert.Equal(t, "LHR", place.Iata)
}

func TestGetByID_UnknownPlaceIs404(t *testing.T) {
	handler := newPlacesHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/places/0", nil)
	req.SetPathValue("id", "0")
	rec := httptest.NewRecorder()
	handler.GetByID(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLookup_MatchesIataCaseInsensitively(t *testing.T) {
	handler := newPlacesHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/places?iata=lhr", nil)
	rec := httptest.NewRecorder()
	handler.Lookup(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var place entities.Place
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &place))
	assert.Equal(t, "95565050", place.EntityID)
}

func TestLookup_RequiresIata(t *testing.T) {
	handler := newPlacesHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/places", nil)
	rec := httptest.NewRecorder()
	handler.Lookup(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
