package entities

// QuoteLeg is one direction of an indicative price sample
type QuoteLeg struct {
	Origin        Place   `json:"origin"`
	Destination   Place   `json:"destination"`
	DepartureDate string  `json:"departure_date"` // YYYY-MM-DD
	Carrier       Carrier `json:"carrier"`
}

// Quote is a single origin/destination/date-pair indicative price sample.
// Coarser than an Itinerary: no segment or pricing-option detail.
type Quote struct {
	ID       string    `json:"id"`
	Price    string    `json:"price"`
	RawPrice float64   `json:"raw_price"`
	Direct   bool      `json:"direct"`
	Outbound QuoteLeg  `json:"outbound"`
	Inbound  *QuoteLeg `json:"inbound,omitempty"`
}

// QuoteGroup is a set of quotes sharing one bucket (route, date or month)
type QuoteGroup struct {
	Key    string  `json:"key"`
	Quotes []Quote `json:"quotes"`
}

// CalendarDay pairs one calendar day of a filled range with its quote, if
// the upstream returned one for that day
type CalendarDay struct {
	Date  string `json:"date"` // YYYY-MM-DD
	Quote *Quote `json:"quote,omitempty"`
}

// QuoteBar is a quote with its bar height for heatmap rendering,
// as a percentage of the most expensive quote in the group
type QuoteBar struct {
	Quote   Quote `json:"quote"`
	Percent int   `json:"percent"`
}
