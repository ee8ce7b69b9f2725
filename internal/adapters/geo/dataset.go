package geo

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/skylane/flightsearch/backend/internal/domain/entities"
	apperrors "github.com/skylane/flightsearch/backend/pkg/errors"
)

// Dataset is the immutable place lookup service. It is built once at process
// start from a static JSON file and indexed by entity id and IATA code; after
// construction it is read-only and safe for concurrent use from any number of
// search chains.
type Dataset struct {
	places     []entities.Place
	byEntityID map[string]*entities.Place
	byIata     map[string]*entities.Place
}

// LoadDataset reads the place dataset from a JSON file and builds the indexes
func LoadDataset(path string) (*Dataset, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read place dataset: %w", err)
	}
	return NewDataset(payload)
}

// NewDataset builds the lookup service from raw JSON: either a flat array of
// places or an object with a top-level "places" array
func NewDataset(payload []byte) (*Dataset, error) {
	var places []entities.Place
	if err := json.Unmarshal(payload, &places); err != nil {
		var wrapped struct {
			Places []entities.Place `json:"places"`
		}
		if err := json.Unmarshal(payload, &wrapped); err != nil {
			return nil, fmt.Errorf("failed to parse place dataset: %w", err)
		}
		places = wrapped.Places
	}

	d := &Dataset{
		places:     places,
		byEntityID: make(map[string]*entities.Place, len(places)),
		byIata:     make(map[string]*entities.Place),
	}
	for i := range d.places {
		p := &d.places[i]
		if p.EntityID == "" {
			return nil, fmt.Errorf("place dataset entry %d has no entity id", i)
		}
		d.byEntityID[p.EntityID] = p
		if p.Iata != "" {
			d.byIata[strings.ToUpper(p.Iata)] = p
		}
	}
	return d, nil
}

// ByEntityID looks a place up by its entity id
func (d *Dataset) ByEntityID(entityID string) (*entities.Place, error) {
	if p, ok := d.byEntityID[entityID]; ok {
		return p, nil
	}
	return nil, apperrors.NewNotFoundError(fmt.Sprintf("place %s not found", entityID))
}

// ByIata looks a place up by its IATA code, case-insensitively
func (d *Dataset) ByIata(iata string) (*entities.Place, error) {
	if p, ok := d.byIata[strings.ToUpper(iata)]; ok {
		return p, nil
	}
	return nil, apperrors.NewNotFoundError(fmt.Sprintf("place %s not found", iata))
}

// Resolve accepts either an entity id or an IATA code
func (d *Dataset) Resolve(ref string) (*entities.Place, error) {
	if p, ok := d.byEntityID[ref]; ok {
		return p, nil
	}
	if p, ok := d.byIata[strings.ToUpper(ref)]; ok {
		return p, nil
	}
	return nil, apperrors.NewNotFoundError(fmt.Sprintf("place %s not found", ref))
}

// Len returns the number of loaded places
func (d *Dataset) Len() int {
	return len(d.places)
}
