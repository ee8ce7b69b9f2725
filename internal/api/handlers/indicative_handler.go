package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/skylane/flightsearch/backend/internal/application/services"
	"github.com/skylane/flightsearch/backend/internal/domain/entities"
	"github.com/skylane/flightsearch/backend/internal/infrastructure/clients/fareengine"
	"github.com/skylane/flightsearch/backend/internal/infrastructure/observability"
)

// IndicativeHandler handles indicative price queries used by the
// date and month browse views
type IndicativeHandler struct {
	indicative *services.IndicativeService
}

// NewIndicativeHandler creates a new indicative price handler
func NewIndicativeHandler(indicative *services.IndicativeService) *IndicativeHandler {
	return &IndicativeHandler{indicative: indicative}
}

// GetQuotes handles GET /api/indicative
func (h *IndicativeHandler) GetQuotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := fareengine.IndicativeRequest{
		From:      q.Get("from"),
		To:        q.Get("to"),
		TripType:  q.Get("tripType"),
		GroupType: q.Get("groupType"),
	}
	if req.From == "" || req.To == "" {
		respondWithError(w, http.StatusBadRequest, "from and to are required")
		return
	}

	for param, target := range map[string]*int{
		"month":    &req.Month,
		"year":     &req.Year,
		"endMonth": &req.EndMonth,
		"endYear":  &req.EndYear,
	} {
		if value := q.Get(param); value != "" {
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				respondWithError(w, http.StatusBadRequest, param+" must be a non-negative integer")
				return
			}
			*target = n
		}
	}

	groupType := q.Get("groupType")
	if groupType == "" {
		groupType = "date"
	}
	if groupType != "date" && groupType != "month" {
		respondWithError(w, http.StatusBadRequest, "groupType must be date or month")
		return
	}

	quotes, err := h.indicative.Quotes(r.Context(), req)
	if err != nil {
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("indicative fetch failed")
		respondWithError(w, http.StatusBadGateway, "could not fetch indicative prices")
		return
	}

	// Calendar fill is only meaningful for day-level grouping
	if fillStart, fillEnd := q.Get("fillStart"), q.Get("fillEnd"); groupType == "date" && fillStart != "" && fillEnd != "" {
		if err := validateDate(fillStart); err != nil {
			respondWithError(w, http.StatusBadRequest, "fillStart must be YYYY-MM-DD")
			return
		}
		if err := validateDate(fillEnd); err != nil {
			respondWithError(w, http.StatusBadRequest, "fillEnd must be YYYY-MM-DD")
			return
		}
		days, err := h.indicative.FillDateRange(fillStart, fillEnd, quotes)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondWithJSON(w, http.StatusOK, map[string]interface{}{
			"group_type": groupType,
			"calendar":   days,
			"bars":       h.indicative.BarHeights(quotes),
		})
		return
	}

	var groups []entities.QuoteGroup
	if groupType == "month" {
		groups = h.indicative.GroupByMonth(quotes)
	} else {
		groups = h.indicative.GroupByDate(quotes)
	}
	groups = services.SortGroupsByDate(groups)

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"group_type": groupType,
		"groups":     groups,
		"bars":       h.indicative.BarHeights(quotes),
	})
}

func validateDate(value string) error {
	_, err := time.Parse("2006-01-02", value)
	return err
}
