package entities

import "time"

// AgentType classifies who sells a deep link
type AgentType string

const (
	AgentTypeAirline     AgentType = "AGENT_TYPE_AIRLINE"
	AgentTypeTravelAgent AgentType = "AGENT_TYPE_TRAVEL_AGENT"
	AgentTypeUnspecified AgentType = "AGENT_TYPE_UNSPECIFIED"
)

// Carrier represents an operating or marketing airline
type Carrier struct {
	Name       string `json:"name"`
	Iata       string `json:"iata,omitempty"`
	AllianceID string `json:"alliance_id,omitempty"`
	ImageURL   string `json:"image_url,omitempty"`
}

// Agent represents a seller resolved from a pricing item
type Agent struct {
	Name     string    `json:"name"`
	Type     AgentType `json:"type"`
	ImageURL string    `json:"image_url,omitempty"`
	Rating   float64   `json:"rating,omitempty"`
}

// Segment represents one physically flown hop. Owned by exactly one Leg.
type Segment struct {
	ID              string    `json:"id"`
	From            string    `json:"from"`
	FromIata        string    `json:"from_iata"`
	To              string    `json:"to"`
	ToIata          string    `json:"to_iata"`
	DurationMinutes int       `json:"duration_minutes"`
	Departure       time.Time `json:"departure"`
	Arrival         time.Time `json:"arrival"`
}

// Leg represents one direction of travel, composed of one or more segments.
// StopCount is always len(Segments)-1 and IsDirect holds iff StopCount is 0.
type Leg struct {
	ID              string    `json:"id"`
	From            string    `json:"from"`
	To              string    `json:"to"`
	FromIata        string    `json:"from_iata"`
	ToIata          string    `json:"to_iata"`
	FromEntityID    string    `json:"from_entity_id"`
	ToEntityID      string    `json:"to_entity_id"`
	DurationMinutes int       `json:"duration_minutes"`
	Departure       time.Time `json:"departure"`
	Arrival         time.Time `json:"arrival"`
	StopCount       int       `json:"stop_count"`
	IsDirect        bool      `json:"is_direct"`
	Segments        []Segment `json:"segments"`
	Carriers        []Carrier `json:"carriers"`
}

// DeepLink is one bookable link inside a price option
type DeepLink struct {
	Link          string    `json:"link"`
	AgentType     AgentType `json:"agent_type"`
	AgentImageURL string    `json:"agent_image_url,omitempty"`
	AgentName     string    `json:"agent_name"`
}

// PriceOption is one upstream pricing bucket. More than one deep link means
// the price is a mashup of separately ticketed bookings.
type PriceOption struct {
	Price     string     `json:"price"`
	RawPrice  float64    `json:"raw_price"`
	DeepLinks []DeepLink `json:"deep_links"`
}

// IsMashup reports whether this option combines more than one booking link
func (p PriceOption) IsMashup() bool {
	return len(p.DeepLinks) > 1
}

// Itinerary is one bookable trip: one leg for one-way, two for return.
// Price is the cheapest formatted price across Prices.
type Itinerary struct {
	ItineraryID     string        `json:"itinerary_id"`
	Legs            []Leg         `json:"legs"`
	Prices          []PriceOption `json:"prices"`
	Price           string        `json:"price"`
	RawPrice        float64       `json:"raw_price"`
	DeepLink        string        `json:"deep_link"`
	IsDirectFlights bool          `json:"is_direct_flights"`
}
