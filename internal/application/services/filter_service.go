package services

import (
	"github.com/skylane/flightsearch/backend/internal/domain/entities"
)

// HourRange is an inclusive departure-hour window
type HourRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether the hour falls inside the window
func (r HourRange) Contains(hour int) bool {
	return hour >= r.Min && hour <= r.Max
}

// ItineraryFilter is the filter specification applied to one normalized
// itinerary list. All fields are optional and compose by logical AND; a nil
// or zero field is no constraint. No predicate can fail.
type ItineraryFilter struct {
	NumberOfStops         []int                `json:"number_of_stops,omitempty"`
	AgentTypes            []entities.AgentType `json:"agent_types,omitempty"`
	Mashup                *bool                `json:"mashup,omitempty"`
	OutboundTime          *HourRange           `json:"outbound_time,omitempty"`
	ReturnTime            *HourRange           `json:"return_time,omitempty"`
	MaxDurationHours      *int                 `json:"max_duration_hours,omitempty"`
	NumberOfResultsToShow int                  `json:"number_of_results_to_show,omitempty"`
}

// FilterResult is the bounded, filtered subset plus the true match count
// before truncation
type FilterResult struct {
	Results []entities.Itinerary `json:"results"`
	Total   int                  `json:"total"`
}

// FilterService applies filter specifications to normalized itineraries.
// Pure: no side effects, and the input ordering (whichever of the ranked
// lists was passed in) is preserved.
type FilterService struct{}

// NewFilterService creates a filter service
func NewFilterService() *FilterService {
	return &FilterService{}
}

// Apply runs all predicates, counts the full match set, then truncates to
// the requested page size
func (s *FilterService) Apply(itineraries []entities.Itinerary, filter ItineraryFilter) FilterResult {
	matched := make([]entities.Itinerary, 0, len(itineraries))
	for _, itinerary := range itineraries {
		if s.matches(itinerary, filter) {
			matched = append(matched, itinerary)
		}
	}

	total := len(matched)
	if filter.NumberOfResultsToShow > 0 && len(matched) > filter.NumberOfResultsToShow {
		matched = matched[:filter.NumberOfResultsToShow]
	}

	return FilterResult{Results: matched, Total: total}
}

func (s *FilterService) matches(itinerary entities.Itinerary, filter ItineraryFilter) bool {
	if !matchesStops(itinerary, filter.NumberOfStops) {
		return false
	}
	if !matchesAgentTypes(itinerary, filter.AgentTypes) {
		return false
	}
	if filter.Mashup != nil && *filter.Mashup && !hasMashup(itinerary) {
		return false
	}
	if filter.OutboundTime != nil && !matchesDepartureHour(itinerary, 0, *filter.OutboundTime) {
		return false
	}
	// The return window only constrains itineraries that have a second leg
	if filter.ReturnTime != nil && len(itinerary.Legs) > 1 && !matchesDepartureHour(itinerary, 1, *filter.ReturnTime) {
		return false
	}
	if filter.MaxDurationHours != nil && !anyLegWithin(itinerary, *filter.MaxDurationHours) {
		return false
	}
	return true
}

// matchesStops keeps an itinerary only if every leg's stop count is in the set
func matchesStops(itinerary entities.Itinerary, stops []int) bool {
	if len(stops) == 0 {
		return true
	}
	for _, leg := range itinerary.Legs {
		found := false
		for _, stop := range stops {
			if leg.StopCount == stop {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// matchesAgentTypes keeps an itinerary if any deep link of any price option
// is sold by one of the wanted agent types
func matchesAgentTypes(itinerary entities.Itinerary, agentTypes []entities.AgentType) bool {
	if len(agentTypes) == 0 {
		return true
	}
	for _, option := range itinerary.Prices {
		for _, deepLink := range option.DeepLinks {
			for _, agentType := range agentTypes {
				if deepLink.AgentType == agentType {
					return true
				}
			}
		}
	}
	return false
}

// hasMashup reports whether any single price option combines more than one
// booking link
func hasMashup(itinerary entities.Itinerary) bool {
	for _, option := range itinerary.Prices {
		if option.IsMashup() {
			return true
		}
	}
	return false
}

func matchesDepartureHour(itinerary entities.Itinerary, legIndex int, window HourRange) bool {
	if legIndex >= len(itinerary.Legs) {
		return true
	}
	return window.Contains(itinerary.Legs[legIndex].Departure.Hour())
}

// anyLegWithin keeps an itinerary if at least one leg's duration, floored to
// whole hours, is under the cap
func anyLegWithin(itinerary entities.Itinerary, maxHours int) bool {
	for _, leg := range itinerary.Legs {
		if leg.DurationMinutes/60 <= maxHours {
			return true
		}
	}
	return false
}
