package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skylane/flightsearch/backend/internal/application/services"
	"github.com/skylane/flightsearch/backend/internal/domain/entities"
	"github.com/skylane/flightsearch/backend/internal/infrastructure/clients/fareengine"
)

type stubIndicativeClient struct {
	envelope *fareengine.IndicativeEnvelope
	err      error
	gotReq   fareengine.IndicativeRequest
}

func (c *stubIndicativeClient) Indicative(ctx context.Context, req fareengine.IndicativeRequest) (*fareengine.IndicativeEnvelope, error) {
	c.gotReq = req
	return c.envelope, c.err
}

func monthEnvelope() *fareengine.IndicativeEnvelope {
	return &fareengine.IndicativeEnvelope{
		Content: fareengine.IndicativeContent{
			Results: fareengine.IndicativeResults{
				Quotes: map[string]fareengine.Quote{
					"q1": {
						MinPrice: fareengine.Price{Amount: "45", Unit: fareengine.PriceUnitWhole},
						IsDirect: true,
						OutboundLeg: fareengine.QuoteLeg{
							OriginPlaceID:      "p1",
							DestinationPlaceID: "p2",
							DepartureDate:      "2025-06-02",
							MarketingCarrierID: "c1",
						},
					},
					"q2": {
						MinPrice: fareengine.Price{Amount: "90", Unit: fareengine.PriceUnitWhole},
						OutboundLeg: fareengine.QuoteLeg{
							OriginPlaceID:      "p1",
							DestinationPlaceID: "p2",
							DepartureDate:      "2025-06-10",
							MarketingCarrierID: "c1",
						},
					},
				},
				Places: map[string]fareengine.Place{
					"p1": {EntityID: "95565050", Name: "London Heathrow", Type: "airport", Iata: "LHR"},
					"p2": {EntityID: "95565041", Name: "Paris Charles de Gaulle", Type: "airport", Iata: "CDG"},
				},
				Carriers: map[string]fareengine.Carrier{
					"c1": {Name: "British Airways", Iata: "BA"},
				},
			},
		},
	}
}

func newIndicativeHandler(client *stubIndicativeClient) *IndicativeHandler {
	return NewIndicativeHandler(services.NewIndicativeService(client, services.NewNormalizer("£")))
}

func TestGetQuotes_GroupsByDate(t *testing.T) {
	client := &stubIndicativeClient{envelope: monthEnvelope()}
	handler := newIndicativeHandler(client)

	req := httptest.NewRequest(http.MethodGet, "/api/indicative?from=LHR&to=CDG&month=06&year=2025", nil)
	rec := httptest.NewRecorder()
	handler.GetQuotes(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "LHR", client.gotReq.From)

	var payload struct {
		GroupType string                `json:"group_type"`
		Groups    []entities.QuoteGroup `json:"groups"`
		Bars      []entities.QuoteBar   `json:"bars"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "date", payload.GroupType)
	require.Len(t, payload.Groups, 2)
	assert.Equal(t, "2025-06-02", payload.Groups[0].Key)
	assert.Equal(t, "2025-06-10", payload.Groups[1].Key)
	require.Len(t, payload.Bars, 2)
}

func TestGetQuotes_GroupsByMonth(t *testing.T) {
	handler := newIndicativeHandler(&stubIndicativeClient{envelope: monthEnvelope()})

	req := httptest.NewRequest(http.MethodGet, "/api/indicative?from=LHR&to=CDG&groupType=month", nil)
	rec := httptest.NewRecorder()
	handler.GetQuotes(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Groups []entities.QuoteGroup `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Groups, 1)
	assert.Equal(t, "2025-06", payload.Groups[0].Key)
	assert.Len(t, payload.Groups[0].Quotes, 2)
}

func TestGetQuotes_FillsCalendarRange(t *testing.T) {
	handler := newIndicativeHandler(&stubIndicativeClient{envelope: monthEnvelope()})

	req := httptest.NewRequest(http.MethodGet,
		"/api/indicative?from=LHR&to=CDG&fillStart=2025-06-01&fillEnd=2025-06-03", nil)
	rec := httptest.NewRecorder()
	handler.GetQuotes(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Calendar []entities.CalendarDay `json:"calendar"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Calendar, 3)
	assert.Nil(t, payload.Calendar[0].Quote)
	require.NotNil(t, payload.Calendar[1].Quote)
	assert.Equal(t, "£45.00", payload.Calendar[1].Quote.Price)
}

func TestGetQuotes_RejectsInvertedFillRange(t *testing.T) {
	handler := newIndicativeHandler(&stubIndicativeClient{envelope: monthEnvelope()})

	req := httptest.NewRequest(http.MethodGet,
		"/api/indicative?from=LHR&to=CDG&fillStart=2025-06-03&fillEnd=2025-06-01", nil)
	rec := httptest.NewRecorder()
	handler.GetQuotes(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetQuotes_RequiresRoute(t *testing.T) {
	handler := newIndicativeHandler(&stubIndicativeClient{envelope: monthEnvelope()})

	req := httptest.NewRequest(http.MethodGet, "/api/indicative?from=LHR", nil)
	rec := httptest.NewRecorder()
	handler.GetQuotes(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetQuotes_RejectsUnknownGroupType(t *testing.T) {
	handler := newIndicativeHandler(&stubIndicativeClient{envelope: monthEnvelope()})

	req := httptest.NewRequest(http.MethodGet, "/api/indicative?from=LHR&to=CDG&groupType=week", nil)
	rec := httptest.NewRecorder()
	handler.GetQuotes(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
