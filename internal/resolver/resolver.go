// Package resolver turns the device position or a typed place name into the
// origin of a proximity search.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"crechespots/internal/models"
	"crechespots/pkg/geo"
	"crechespots/pkg/location"
)

var (
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrBlankQuery          = errors.New("location query is blank")
	ErrLocationNotFound    = errors.New("location not found")
	ErrGeocodeLookupFailed = errors.New("geocode lookup failed")
)

const (
	UnknownLocation = "Unknown Location"
	unknownRoad     = "Unknown Road"
	unknownCity     = "Unknown City"

	suggestionLimit = 5
)

// DefaultLocation is used when the device position is unavailable.
var DefaultLocation = models.NamedLocation{
	Name:   "Cape Town Central",
	Coords: geo.Coordinate{Latitude: -33.9249, Longitude: 18.4241},
}

// Locator reports where the device is.
type Locator interface {
	CurrentPosition(ctx context.Context) (geo.Coordinate, error)
}

// StaticLocator reports a fixed position. A nil Coord behaves like a refused
// location permission.
type StaticLocator struct {
	Coord *geo.Coordinate
}

func (l StaticLocator) CurrentPosition(ctx context.Context) (geo.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return geo.Coordinate{}, err
	}
	if l.Coord == nil {
		return geo.Coordinate{}, ErrPermissionDenied
	}
	if !l.Coord.Valid() {
		return geo.Coordinate{}, fmt.Errorf("device position %v out of range", *l.Coord)
	}
	return *l.Coord, nil
}

// Geocoder is the forward and reverse lookup service.
type Geocoder interface {
	Search(ctx context.Context, query string, limit int) ([]location.Place, error)
	Reverse(ctx context.Context, at geo.Coordinate) (*location.Place, error)
}

// Saver records successfully resolved locations.
type Saver interface {
	Save(ctx context.Context, loc models.NamedLocation) ([]models.NamedLocation, error)
}

// Resolution is the outcome of resolving the device position. Err carries a
// non-fatal failure; Location is always usable.
type Resolution struct {
	Location models.NamedLocation
	Fallback bool
	Err      error
}

type Resolver struct {
	geocoder Geocoder
	saver    Saver
	fallback models.NamedLocation
}

func New(geocoder Geocoder, saver Saver) *Resolver {
	return &Resolver{geocoder: geocoder, saver: saver, fallback: DefaultLocation}
}

// ResolveDevice asks locator for the current position and labels it with the
// road and city found by a reverse lookup. A labelled position is saved. When
// the position is unavailable the default location is returned with Fallback
// set; when only the lookup fails the position is kept as "Unknown Location".
func (r *Resolver) ResolveDevice(ctx context.Context, locator Locator) Resolution {
	at, err := locator.CurrentPosition(ctx)
	if err != nil {
		return Resolution{Location: r.fallback, Fallback: true, Err: err}
	}

	place, err := r.geocoder.Reverse(ctx, at)
	if err != nil {
		return Resolution{
			Location: models.NamedLocation{Name: UnknownLocation, Coords: at},
			Err:      fmt.Errorf("%w: %w", ErrGeocodeLookupFailed, err),
		}
	}
	if place.Address == nil || place.Address.Empty() {
		return Resolution{
			Location: models.NamedLocation{Name: UnknownLocation, Coords: at},
			Err:      fmt.Errorf("%w: no address at %v", ErrGeocodeLookupFailed, at),
		}
	}

	loc := models.NamedLocation{Name: label(place.Address), Coords: at}
	r.save(ctx, loc)
	return Resolution{Location: loc}
}

// ResolveManual forward-geocodes text and takes the first match. The match is
// saved under its display name.
func (r *Resolver) ResolveManual(ctx context.Context, text string) (models.NamedLocation, error) {
	query := strings.TrimSpace(text)
	if query == "" {
		return models.NamedLocation{}, ErrBlankQuery
	}

	places, err := r.geocoder.Search(ctx, query, 1)
	if err != nil {
		if errors.Is(err, location.ErrNoResults) {
			return models.NamedLocation{}, fmt.Errorf("%w: %q", ErrLocationNotFound, query)
		}
		return models.NamedLocation{}, fmt.Errorf("%w: %w", ErrGeocodeLookupFailed, err)
	}

	first := places[0]
	at, err := first.Coordinate()
	if err != nil {
		return models.NamedLocation{}, fmt.Errorf("%w: %w", ErrGeocodeLookupFailed, err)
	}
	name := first.DisplayName
	if name == "" {
		name = query
	}

	loc := models.NamedLocation{Name: name, Coords: at}
	r.save(ctx, loc)
	return loc, nil
}

// Suggest returns type-ahead matches for partially typed text.
func (r *Resolver) Suggest(ctx context.Context, text string) ([]location.Place, error) {
	query := strings.TrimSpace(text)
	if query == "" {
		return []location.Place{}, nil
	}
	places, err := r.geocoder.Search(ctx, query, suggestionLimit)
	if err != nil {
		if errors.Is(err, location.ErrNoResults) {
			return []location.Place{}, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrGeocodeLookupFailed, err)
	}
	return places, nil
}

func (r *Resolver) save(ctx context.Context, loc models.NamedLocation) {
	if r.saver == nil {
		return
	}
	if _, err := r.saver.Save(ctx, loc); err != nil {
		log.Printf("Could not save location %q: %v", loc.Name, err)
	}
}

func label(addr *location.Address) string {
	road := addr.Road
	if road == "" {
		road = unknownRoad
	}
	city := addr.Locality()
	if city == "" {
		city = unknownCity
	}
	return road + ", " + city
}
