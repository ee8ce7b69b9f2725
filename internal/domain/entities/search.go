package entities

// SearchStatus is the upstream session status
type SearchStatus string

const (
	SearchStatusComplete   SearchStatus = "COMPLETE"
	SearchStatusIncomplete SearchStatus = "INCOMPLETE"
)

// SearchQuery is a fully resolved search request. Return being nil selects
// one-way mode.
type SearchQuery struct {
	From   Place   `json:"from"`
	To     Place   `json:"to"`
	Depart string  `json:"depart"`           // YYYY-MM-DD
	Return *string `json:"return,omitempty"` // YYYY-MM-DD
}

// OneWay reports whether the query has no return date
func (q SearchQuery) OneWay() bool {
	return q.Return == nil || *q.Return == ""
}

// SearchStats summarizes a completed search
type SearchStats struct {
	Total            int    `json:"total"`
	MinPrice         string `json:"min_price"`
	HasDirectFlights bool   `json:"has_direct_flights"`
}

// SearchResult is the normalized outcome of a completed search session.
// Best, Cheapest and Fastest are three upstream-ranked orderings over one
// shared itinerary set; the same itinerary id may appear in all three.
type SearchResult struct {
	SessionToken string       `json:"session_token"`
	Status       SearchStatus `json:"status"`
	Action       string       `json:"action,omitempty"`
	Best         []Itinerary  `json:"best"`
	Cheapest     []Itinerary  `json:"cheapest"`
	Fastest      []Itinerary  `json:"fastest"`
	Stats        SearchStats  `json:"stats"`
}

// SearchSession is the ephemeral coordination state of one create/poll
// exchange. Never persisted.
type SearchSession struct {
	SessionToken string       `json:"session_token"`
	Status       SearchStatus `json:"status"`
}
