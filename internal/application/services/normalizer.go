package services

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/skylane/flightsearch/backend/internal/domain/entities"
	"github.com/skylane/flightsearch/backend/internal/infrastructure/clients/fareengine"
	apperrors "github.com/skylane/flightsearch/backend/pkg/errors"
)

// wireTimeLayout is the local datetime format used by the fare engine
const wireTimeLayout = "2006-01-02T15:04:05"

// Normalizer resolves the fare engine's reference-keyed payloads into
// self-contained domain records. Resolution is a traversal over acyclic
// reference maps: itineraries point at legs, legs at segments and carriers,
// segments at places. A dangling id is a MALFORMED error for the whole
// envelope, never a silently substituted default.
type Normalizer struct {
	currencySymbol string
}

// NewNormalizer creates a normalizer that formats prices with the given
// display currency symbol
func NewNormalizer(currencySymbol string) *Normalizer {
	return &Normalizer{currencySymbol: currencySymbol}
}

// NormalizeSearch resolves a create/poll envelope into a SearchResult.
// Each itinerary is normalized once into a shared pool; the best, cheapest
// and fastest orderings all index into that pool.
func (n *Normalizer) NormalizeSearch(envelope *fareengine.SearchEnvelope) (*entities.SearchResult, error) {
	res := resolver{results: envelope.Content.Results}

	pool := make(map[string]entities.Itinerary)
	normalize := func(rankings []fareengine.Ranking) ([]entities.Itinerary, error) {
		ordered := make([]entities.Itinerary, 0, len(rankings))
		for _, ranking := range rankings {
			if cached, ok := pool[ranking.ItineraryID]; ok {
				ordered = append(ordered, cached)
				continue
			}
			itinerary, err := n.normalizeItinerary(res, ranking.ItineraryID)
			if err != nil {
				return nil, err
			}
			pool[ranking.ItineraryID] = itinerary
			ordered = append(ordered, itinerary)
		}
		return ordered, nil
	}

	best, err := normalize(envelope.Content.SortingOptions.Best)
	if err != nil {
		return nil, err
	}
	cheapest, err := normalize(envelope.Content.SortingOptions.Cheapest)
	if err != nil {
		return nil, err
	}
	fastest, err := normalize(envelope.Content.SortingOptions.Fastest)
	if err != nil {
		return nil, err
	}

	return &entities.SearchResult{
		SessionToken: envelope.SessionToken,
		Status:       entities.SearchStatus(envelope.Status),
		Action:       envelope.Action,
		Best:         best,
		Cheapest:     cheapest,
		Fastest:      fastest,
		Stats:        n.normalizeStats(envelope.Content.Stats, pool),
	}, nil
}

func (n *Normalizer) normalizeStats(stats fareengine.Stats, pool map[string]entities.Itinerary) entities.SearchStats {
	out := entities.SearchStats{
		Total:            stats.Itineraries.Total,
		HasDirectFlights: stats.Itineraries.HasDirectFlights,
	}
	if stats.Itineraries.MinPrice.Amount != "" {
		out.MinPrice = n.formatPrice(priceValue(stats.Itineraries.MinPrice))
	}

	// Upstream stats are occasionally absent on early-complete responses;
	// derive them from the normalized pool in that case.
	if out.Total == 0 {
		out.Total = len(pool)
	}
	if out.MinPrice == "" && len(pool) > 0 {
		min := -1.0
		for _, itinerary := range pool {
			if min < 0 || itinerary.RawPrice < min {
				min = itinerary.RawPrice
			}
			if itinerary.IsDirectFlights {
				out.HasDirectFlights = true
			}
		}
		out.MinPrice = n.formatPrice(min)
	}
	return out
}

func (n *Normalizer) normalizeItinerary(res resolver, itineraryID string) (entities.Itinerary, error) {
	wire, err := res.itinerary(itineraryID)
	if err != nil {
		return entities.Itinerary{}, err
	}

	legs := make([]entities.Leg, 0, len(wire.LegIDs))
	direct := true
	for _, legID := range wire.LegIDs {
		leg, err := n.normalizeLeg(res, legID)
		if err != nil {
			return entities.Itinerary{}, err
		}
		if !leg.IsDirect {
			direct = false
		}
		legs = append(legs, leg)
	}

	prices := make([]entities.PriceOption, 0, len(wire.PricingOptions))
	cheapestIdx := -1
	for _, option := range wire.PricingOptions {
		normalized, err := n.normalizePriceOption(res, option)
		if err != nil {
			return entities.Itinerary{}, err
		}
		prices = append(prices, normalized)
		if cheapestIdx < 0 || normalized.RawPrice < prices[cheapestIdx].RawPrice {
			cheapestIdx = len(prices) - 1
		}
	}

	itinerary := entities.Itinerary{
		ItineraryID:     itineraryID,
		Legs:            legs,
		Prices:          prices,
		IsDirectFlights: direct,
	}
	if cheapestIdx >= 0 {
		cheapest := prices[cheapestIdx]
		itinerary.Price = cheapest.Price
		itinerary.RawPrice = cheapest.RawPrice
		if len(cheapest.DeepLinks) > 0 {
			itinerary.DeepLink = cheapest.DeepLinks[0].Link
		}
	}
	return itinerary, nil
}

func (n *Normalizer) normalizeLeg(res resolver, legID string) (entities.Leg, error) {
	wire, err := res.leg(legID)
	if err != nil {
		return entities.Leg{}, err
	}

	origin, err := res.place(wire.OriginPlaceID)
	if err != nil {
		return entities.Leg{}, err
	}
	destination, err := res.place(wire.DestinationPlaceID)
	if err != nil {
		return entities.Leg{}, err
	}

	departure, err := parseWireTime(wire.DepartureDateTime)
	if err != nil {
		return entities.Leg{}, malformedTime("leg", legID, err)
	}
	arrival, err := parseWireTime(wire.ArrivalDateTime)
	if err != nil {
		return entities.Leg{}, malformedTime("leg", legID, err)
	}

	segments := make([]entities.Segment, 0, len(wire.SegmentIDs))
	for _, segmentID := range wire.SegmentIDs {
		segment, err := n.normalizeSegment(res, segmentID)
		if err != nil {
			return entities.Leg{}, err
		}
		segments = append(segments, segment)
	}

	carriers := make([]entities.Carrier, 0, len(wire.OperatingCarrierIDs))
	for _, carrierID := range wire.OperatingCarrierIDs {
		carrier, err := res.carrier(carrierID)
		if err != nil {
			return entities.Leg{}, err
		}
		carriers = append(carriers, entities.Carrier{
			Name:       carrier.Name,
			Iata:       carrier.Iata,
			AllianceID: carrier.AllianceID,
			ImageURL:   carrier.ImageURL,
		})
	}

	// Stop count is derived from the segments, not trusted from the wire
	stopCount := len(segments) - 1
	if stopCount < 0 {
		stopCount = 0
	}

	return entities.Leg{
		ID:              legID,
		From:            origin.Name,
		To:              destination.Name,
		FromIata:        origin.Iata,
		ToIata:          destination.Iata,
		FromEntityID:    origin.EntityID,
		ToEntityID:      destination.EntityID,
		DurationMinutes: wire.DurationInMinutes,
		Departure:       departure,
		Arrival:         arrival,
		StopCount:       stopCount,
		IsDirect:        stopCount == 0,
		Segments:        segments,
		Carriers:        carriers,
	}, nil
}

func (n *Normalizer) normalizeSegment(res resolver, segmentID string) (entities.Segment, error) {
	wire, err := res.segment(segmentID)
	if err != nil {
		return entities.Segment{}, err
	}

	origin, err := res.place(wire.OriginPlaceID)
	if err != nil {
		return entities.Segment{}, err
	}
	destination, err := res.place(wire.DestinationPlaceID)
	if err != nil {
		return entities.Segment{}, err
	}

	departure, err := parseWireTime(wire.DepartureDateTime)
	if err != nil {
		return entities.Segment{}, malformedTime("segment", segmentID, err)
	}
	arrival, err := parseWireTime(wire.ArrivalDateTime)
	if err != nil {
		return entities.Segment{}, malformedTime("segment", segmentID, err)
	}

	return entities.Segment{
		ID:              segmentID,
		From:            origin.Name,
		FromIata:        origin.Iata,
		To:              destination.Name,
		ToIata:          destination.Iata,
		DurationMinutes: wire.DurationInMinutes,
		Departure:       departure,
		Arrival:         arrival,
	}, nil
}

func (n *Normalizer) normalizePriceOption(res resolver, option fareengine.PricingOption) (entities.PriceOption, error) {
	raw := priceValue(option.Price)

	deepLinks := make([]entities.DeepLink, 0, len(option.Items))
	for _, item := range option.Items {
		agent, err := res.agent(item.AgentID)
		if err != nil {
			return entities.PriceOption{}, err
		}
		deepLinks = append(deepLinks, entities.DeepLink{
			Link:          item.DeepLink,
			AgentType:     entities.AgentType(agent.Type),
			AgentImageURL: agent.ImageURL,
			AgentName:     agent.Name,
		})
	}

	return entities.PriceOption{
		Price:     n.formatPrice(raw),
		RawPrice:  raw,
		DeepLinks: deepLinks,
	}, nil
}

// NormalizeIndicative resolves a quotes/places/carriers envelope into
// self-contained quotes, ordered by quote id for determinism
func (n *Normalizer) NormalizeIndicative(envelope *fareengine.IndicativeEnvelope) ([]entities.Quote, error) {
	results := envelope.Content.Results

	ids := make([]string, 0, len(results.Quotes))
	for id := range results.Quotes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	quotes := make([]entities.Quote, 0, len(ids))
	for _, id := range ids {
		wire := results.Quotes[id]

		outbound, err := n.normalizeQuoteLeg(results, id, wire.OutboundLeg)
		if err != nil {
			return nil, err
		}

		quote := entities.Quote{
			ID:       id,
			Price:    n.formatPrice(priceValue(wire.MinPrice)),
			RawPrice: priceValue(wire.MinPrice),
			Direct:   wire.IsDirect,
			Outbound: outbound,
		}
		if wire.InboundLeg != nil {
			inbound, err := n.normalizeQuoteLeg(results, id, *wire.InboundLeg)
			if err != nil {
				return nil, err
			}
			quote.Inbound = &inbound
		}
		quotes = append(quotes, quote)
	}
	return quotes, nil
}

func (n *Normalizer) normalizeQuoteLeg(results fareengine.IndicativeResults, quoteID string, leg fareengine.QuoteLeg) (entities.QuoteLeg, error) {
	origin, ok := results.Places[leg.OriginPlaceID]
	if !ok {
		return entities.QuoteLeg{}, apperrors.NewMalformedError(
			fmt.Sprintf("quote %s references place %s not present in results", quoteID, leg.OriginPlaceID))
	}
	destination, ok := results.Places[leg.DestinationPlaceID]
	if !ok {
		return entities.QuoteLeg{}, apperrors.NewMalformedError(
			fmt.Sprintf("quote %s references place %s not present in results", quoteID, leg.DestinationPlaceID))
	}
	carrier, ok := results.Carriers[leg.MarketingCarrierID]
	if !ok {
		return entities.QuoteLeg{}, apperrors.NewMalformedError(
			fmt.Sprintf("quote %s references carrier %s not present in results", quoteID, leg.MarketingCarrierID))
	}

	return entities.QuoteLeg{
		Origin:        wirePlace(origin),
		Destination:   wirePlace(destination),
		DepartureDate: leg.DepartureDate,
		Carrier: entities.Carrier{
			Name:       carrier.Name,
			Iata:       carrier.Iata,
			AllianceID: carrier.AllianceID,
			ImageURL:   carrier.ImageURL,
		},
	}, nil
}

// formatPrice renders a numeric price as a display string, e.g. "£120.00"
func (n *Normalizer) formatPrice(value float64) string {
	return fmt.Sprintf("%s%.2f", n.currencySymbol, value)
}

// priceValue converts an upstream {amount, unit} price to a float
func priceValue(price fareengine.Price) float64 {
	amount, err := strconv.ParseFloat(price.Amount, 64)
	if err != nil {
		return 0
	}
	switch price.Unit {
	case fareengine.PriceUnitCenti:
		return amount / 100
	case fareengine.PriceUnitMilli:
		return amount / 1000
	case fareengine.PriceUnitMicro:
		return amount / 1000000
	default:
		return amount
	}
}

func parseWireTime(value string) (time.Time, error) {
	return time.Parse(wireTimeLayout, value)
}

func malformedTime(kind, id string, err error) error {
	return apperrors.NewMalformedError(fmt.Sprintf("%s %s has an unparseable datetime: %v", kind, id, err))
}

func wirePlace(place fareengine.Place) entities.Place {
	return entities.Place{
		EntityID: place.EntityID,
		ParentID: place.ParentID,
		Name:     place.Name,
		Type:     entities.PlaceType(place.Type),
		Iata:     place.Iata,
	}
}

// resolver wraps the envelope dictionaries with resolve-or-fail accessors
type resolver struct {
	results fareengine.Results
}

func (r resolver) itinerary(id string) (fareengine.Itinerary, error) {
	if itinerary, ok := r.results.Itineraries[id]; ok {
		return itinerary, nil
	}
	return fareengine.Itinerary{}, r.dangling("itinerary", id)
}

func (r resolver) leg(id string) (fareengine.Leg, error) {
	if leg, ok := r.results.Legs[id]; ok {
		return leg, nil
	}
	return fareengine.Leg{}, r.dangling("leg", id)
}

func (r resolver) segment(id string) (fareengine.Segment, error) {
	if segment, ok := r.results.Segments[id]; ok {
		return segment, nil
	}
	return fareengine.Segment{}, r.dangling("segment", id)
}

func (r resolver) place(id string) (fareengine.Place, error) {
	if place, ok := r.results.Places[id]; ok {
		return place, nil
	}
	return fareengine.Place{}, r.dangling("place", id)
}

func (r resolver) carrier(id string) (fareengine.Carrier, error) {
	if carrier, ok := r.results.Carriers[id]; ok {
		return carrier, nil
	}
	return fareengine.Carrier{}, r.dangling("carrier", id)
}

func (r resolver) agent(id string) (fareengine.Agent, error) {
	if agent, ok := r.results.Agents[id]; ok {
		return agent, nil
	}
	return fareengine.Agent{}, r.dangling("agent", id)
}

func (r resolver) dangling(kind, id string) error {
	return apperrors.NewMalformedError(fmt.Sprintf("dangling reference: %s %s not present in results", kind, id))
}
