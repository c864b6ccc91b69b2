package geo

import (
	"fmt"
	"strings"
)

// Place is a resolved destination.
type Place struct {
	Name   string
	Region string
	Lat    float64
	Lng    float64
}

// Resolver maps free-form destinations to coordinates and a planning region.
// Implementations are injected so the geocoding source stays configurable.
type Resolver interface {
	Resolve(destination string) (Place, error)
}

// ErrUnknownDestination is returned when a destination is absent from the
// resolver's table.
type ErrUnknownDestination struct{ Destination string }

func (e ErrUnknownDestination) Error() string {
	return fmt.Sprintf("unknown destination %q", e.Destination)
}

// Gazetteer is a static Resolver backed by a city table. Lookups are
// case-insensitive on the place name.
type Gazetteer struct {
	places map[string]Place
}

// NewGazetteer builds a Gazetteer from the given places.
func NewGazetteer(places ...Place) *Gazetteer {
	m := make(map[string]Place, len(places))
	for _, p := range places {
		m[strings.ToLower(p.Name)] = p
	}
	return &Gazetteer{places: m}
}

// Resolve implements Resolver.
func (g *Gazetteer) Resolve(destination string) (Place, error) {
	p, ok := g.places[strings.ToLower(strings.TrimSpace(destination))]
	if !ok {
		return Place{}, ErrUnknownDestination{Destination: destination}
	}
	return p, nil
}

// Add registers or replaces a place. Useful for tests and config overrides.
func (g *Gazetteer) Add(p Place) {
	g.places[strings.ToLower(p.Name)] = p
}
