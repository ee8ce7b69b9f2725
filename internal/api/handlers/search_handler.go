package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/skylane/flightsearch/backend/internal/adapters/cache"
	"github.com/skylane/flightsearch/backend/internal/adapters/geo"
	"github.com/skylane/flightsearch/backend/internal/application/services"
	"github.com/skylane/flightsearch/backend/internal/domain/entities"
	"github.com/skylane/flightsearch/backend/internal/infrastructure/observability"
	apperrors "github.com/skylane/flightsearch/backend/pkg/errors"
)

// SearchRunner defines the handler dependency for running searches
type SearchRunner interface {
	SearchUntilComplete(ctx context.Context, query entities.SearchQuery, opts services.SearchOptions) (*entities.SearchResult, error)
}

// SearchHandler handles flight search requests
type SearchHandler struct {
	searcher SearchRunner
	sessions *cache.SessionStore
	places   *geo.Dataset
	filters  *services.FilterService
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searcher SearchRunner, sessions *cache.SessionStore, places *geo.Dataset, filters *services.FilterService) *SearchHandler {
	return &SearchHandler{
		searcher: searcher,
		sessions: sessions,
		places:   places,
		filters:  filters,
	}
}

type searchRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Depart  string `json:"depart"`
	Return  string `json:"return,omitempty"`
	Precall bool   `json:"precall,omitempty"`
}

// RunSearch handles POST /api/search: it drives the upstream session to
// completion, stores the normalized result under its session token and
// returns it
func (h *SearchHandler) RunSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	query, err := h.buildQuery(req)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.searcher.SearchUntilComplete(r.Context(), query, services.SearchOptions{Precall: req.Precall})
	if err != nil {
		logger := observability.LoggerFromContext(r.Context())
		logger.Error().Err(err).Msg("search failed")
		if apperrors.IsType(err, apperrors.ErrorTypeMalformed) {
			respondWithError(w, http.StatusBadGateway, "fare engine returned malformed data")
			return
		}
		respondWithError(w, http.StatusBadGateway, "search did not complete")
		return
	}

	if err := h.sessions.Put(r.Context(), result); err != nil {
		// the search itself succeeded; follow-up filter calls will 404
		observability.LoggerFromContext(r.Context()).Warn().Err(err).Msg("failed to store search session")
	}

	respondWithJSON(w, http.StatusOK, result)
}

// FilterItineraries handles GET /api/search/{token}/itineraries: it applies
// the filter engine to a stored result without re-running the search
func (h *SearchHandler) FilterItineraries(w http.ResponseWriter, r *http.Request) {
	token := r.PathValue("token")
	if token == "" {
		respondWithError(w, http.StatusBadRequest, "session token is required")
		return
	}

	result, err := h.sessions.Get(r.Context(), token)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "search session not found or expired")
		return
	}

	ranking := r.URL.Query().Get("ranking")
	var itineraries []entities.Itinerary
	switch ranking {
	case "", "best":
		ranking = "best"
		itineraries = result.Best
	case "cheapest":
		itineraries = result.Cheapest
	case "fastest":
		itineraries = result.Fastest
	default:
		respondWithError(w, http.StatusBadRequest, "ranking must be one of best, cheapest, fastest")
		return
	}

	filter, err := parseItineraryFilter(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	filtered := h.filters.Apply(itineraries, filter)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"session_token": token,
		"ranking":       ranking,
		"results":       filtered.Results,
		"total":         filtered.Total,
	})
}

func (h *SearchHandler) buildQuery(req searchRequest) (entities.SearchQuery, error) {
	if req.From == "" || req.To == "" {
		return entities.SearchQuery{}, apperrors.NewValidationError("from and to are required")
	}
	if _, err := time.Parse("2006-01-02", req.Depart); err != nil {
		return entities.SearchQuery{}, apperrors.NewValidationError("depart must be YYYY-MM-DD")
	}

	from, err := h.places.Resolve(req.From)
	if err != nil {
		return entities.SearchQuery{}, apperrors.NewValidationError("unknown origin place " + req.From)
	}
	to, err := h.places.Resolve(req.To)
	if err != nil {
		return entities.SearchQuery{}, apperrors.NewValidationError("unknown destination place " + req.To)
	}

	query := entities.SearchQuery{From: *from, To: *to, Depart: req.Depart}
	if req.Return != "" {
		if _, err := time.Parse("2006-01-02", req.Return); err != nil {
			return entities.SearchQuery{}, apperrors.NewValidationError("return must be YYYY-MM-DD")
		}
		ret := req.Return
		query.Return = &ret
	}
	return query, nil
}

func parseItineraryFilter(r *http.Request) (services.ItineraryFilter, error) {
	var filter services.ItineraryFilter
	q := r.URL.Query()

	if stops := q.Get("stops"); stops != "" {
		for _, part := range strings.Split(stops, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				return filter, apperrors.NewValidationError("stops must be a comma-separated list of integers")
			}
			filter.NumberOfStops = append(filter.NumberOfStops, n)
		}
	}

	if agentTypes := q.Get("agentTypes"); agentTypes != "" {
		for _, part := range strings.Split(agentTypes, ",") {
			filter.AgentTypes = append(filter.AgentTypes, entities.AgentType(strings.TrimSpace(part)))
		}
	}

	if mashup := q.Get("mashup"); mashup != "" {
		value, err := strconv.ParseBool(mashup)
		if err != nil {
			return filter, apperrors.NewValidationError("mashup must be a boolean")
		}
		filter.Mashup = &value
	}

	for param, target := range map[string]**services.HourRange{
		"outboundTime": &filter.OutboundTime,
		"returnTime":   &filter.ReturnTime,
	} {
		if window := q.Get(param); window != "" {
			parsed, err := parseHourRange(window)
			if err != nil {
				return filter, apperrors.NewValidationError(param + " must be min-max hours, e.g. 8-12")
			}
			*target = parsed
		}
	}

	if duration := q.Get("duration"); duration != "" {
		hours, err := strconv.Atoi(duration)
		if err != nil {
			return filter, apperrors.NewValidationError("duration must be a whole number of hours")
		}
		filter.MaxDurationHours = &hours
	}

	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return filter, apperrors.NewValidationError("limit must be a non-negative integer")
		}
		filter.NumberOfResultsToShow = n
	}

	return filter, nil
}

func parseHourRange(value string) (*services.HourRange, error) {
	parts := strings.SplitN(value, "-", 2)
	if len(parts) != 2 {
		return nil, apperrors.NewValidationError("expected min-max")
	}
	min, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil, err
	}
	max, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, err
	}
	return &services.HourRange{Min: min, Max: max}, nil
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
