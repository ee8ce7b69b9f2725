package fareengine

// Wire types for the fare engine's compact, reference-keyed payloads.
// Everything inside Results is a dictionary keyed by opaque ids; legs and
// itineraries only ever reference smaller entities, never each other.

// Price is a raw upstream price
type Price struct {
	Amount string `json:"amount"`
	Unit   string `json:"unit"`
}

// Price units
const (
	PriceUnitWhole = "PRICE_UNIT_WHOLE"
	PriceUnitCenti = "PRICE_UNIT_CENTI"
	PriceUnitMilli = "PRICE_UNIT_MILLI"
	PriceUnitMicro = "PRICE_UNIT_MICRO"
)

// Search session statuses
const (
	StatusComplete   = "COMPLETE"
	StatusIncomplete = "INCOMPLETE"
)

// SearchEnvelope is the response shape shared by the create and poll endpoints
type SearchEnvelope struct {
	SessionToken string  `json:"sessionToken"`
	Status       string  `json:"status"`
	Action       string  `json:"action,omitempty"`
	Content      Content `json:"content"`
}

// Content carries the results dictionaries, ranking arrays and stats
type Content struct {
	Results        Results        `json:"results"`
	SortingOptions SortingOptions `json:"sortingOptions"`
	Stats          Stats          `json:"stats"`
}

// Results holds the independent id-keyed dictionaries of one search response
type Results struct {
	Itineraries map[string]Itinerary `json:"itineraries"`
	Legs        map[string]Leg       `json:"legs"`
	Segments    map[string]Segment   `json:"segments"`
	Places      map[string]Place     `json:"places"`
	Carriers    map[string]Carrier   `json:"carriers"`
	Agents      map[string]Agent     `json:"agents"`
}

// Ranking is one entry of an upstream-ordered itinerary list
type Ranking struct {
	Score       float64 `json:"score"`
	ItineraryID string  `json:"itineraryId"`
}

// SortingOptions holds the three upstream orderings over one itinerary pool
type SortingOptions struct {
	Best     []Ranking `json:"best"`
	Cheapest []Ranking `json:"cheapest"`
	Fastest  []Ranking `json:"fastest"`
}

// Stats summarizes the itinerary pool of a response
type Stats struct {
	Itineraries ItineraryStats `json:"itineraries"`
}

// ItineraryStats carries upstream aggregate numbers
type ItineraryStats struct {
	Total            int   `json:"total"`
	MinPrice         Price `json:"minPrice"`
	HasDirectFlights bool  `json:"hasDirectFlights"`
}

// Itinerary references its legs by id and carries the pricing buckets
type Itinerary struct {
	PricingOptions []PricingOption `json:"pricingOptions"`
	LegIDs         []string        `json:"legIds"`
}

// PricingOption is one pricing bucket; more than one item means the price
// combines separately ticketed bookings
type PricingOption struct {
	Price Price         `json:"price"`
	Items []PricingItem `json:"items"`
}

// PricingItem is one bookable link inside a pricing bucket
type PricingItem struct {
	Price    Price  `json:"price"`
	AgentID  string `json:"agentId"`
	DeepLink string `json:"deepLink"`
}

// Leg references its segments, endpoints and carriers by id
type Leg struct {
	OriginPlaceID       string   `json:"originPlaceId"`
	DestinationPlaceID  string   `json:"destinationPlaceId"`
	DurationInMinutes   int      `json:"durationInMinutes"`
	DepartureDateTime   string   `json:"departureDateTime"`
	ArrivalDateTime     string   `json:"arrivalDateTime"`
	StopCount           int      `json:"stopCount"`
	SegmentIDs          []string `json:"segmentIds"`
	OperatingCarrierIDs []string `json:"operatingCarrierIds"`
}

// Segment references its endpoints by id
type Segment struct {
	OriginPlaceID      string `json:"originPlaceId"`
	DestinationPlaceID string `json:"destinationPlaceId"`
	DurationInMinutes  int    `json:"durationInMinutes"`
	DepartureDateTime  string `json:"departureDateTime"`
	ArrivalDateTime    string `json:"arrivalDateTime"`
}

// Place is the payload-local place record segments and legs point at
type Place struct {
	EntityID string `json:"entityId"`
	ParentID string `json:"parentId,omitempty"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Iata     string `json:"iata,omitempty"`
}

// Carrier is referenced by id from legs
type Carrier struct {
	Name       string `json:"name"`
	Iata       string `json:"iata,omitempty"`
	AllianceID string `json:"allianceId,omitempty"`
	ImageURL   string `json:"imageUrl,omitempty"`
}

// Agent is referenced by id from pricing items
type Agent struct {
	Name     string  `json:"name"`
	Type     string  `json:"type"`
	ImageURL string  `json:"imageUrl,omitempty"`
	Rating   float64 `json:"rating,omitempty"`
}

// IndicativeEnvelope is the response shape of the indicative price endpoint:
// quotes, places and carriers only, no itineraries
type IndicativeEnvelope struct {
	Content IndicativeContent `json:"content"`
}

// IndicativeContent carries the indicative results dictionaries
type IndicativeContent struct {
	Results IndicativeResults `json:"results"`
}

// IndicativeResults holds the id-keyed dictionaries of an indicative response
type IndicativeResults struct {
	Quotes   map[string]Quote   `json:"quotes"`
	Places   map[string]Place   `json:"places"`
	Carriers map[string]Carrier `json:"carriers"`
}

// Quote is one origin/destination/date price sample
type Quote struct {
	MinPrice    Price     `json:"minPrice"`
	IsDirect    bool      `json:"isDirect"`
	OutboundLeg QuoteLeg  `json:"outboundLeg"`
	InboundLeg  *QuoteLeg `json:"inboundLeg,omitempty"`
}

// QuoteLeg is one direction of a quote
type QuoteLeg struct {
	OriginPlaceID      string `json:"originPlaceId"`
	DestinationPlaceID string `json:"destinationPlaceId"`
	DepartureDate      string `json:"departureDate"` // YYYY-MM-DD
	MarketingCarrierID string `json:"marketingCarrierId"`
}
