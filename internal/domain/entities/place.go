package entities

// PlaceType classifies a place in the geo hierarchy
type PlaceType string

const (
	PlaceTypeContinent PlaceType = "continent"
	PlaceTypeCountry   PlaceType = "country"
	PlaceTypeIsland    PlaceType = "island"
	PlaceTypeCity      PlaceType = "city"
	PlaceTypeAirport   PlaceType = "airport"
)

// Place represents a node of the static geo dataset. Loaded once at process
// start and never mutated afterwards, so it is safe for concurrent reads.
type Place struct {
	EntityID    string      `json:"entity_id"`
	ParentID    string      `json:"parent_id,omitempty"`
	Name        string      `json:"name"`
	Type        PlaceType   `json:"type"`
	Iata        string      `json:"iata,omitempty"`
	Coordinates Coordinates `json:"coordinates"`
}

// Coordinates represents geographical coordinates
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
