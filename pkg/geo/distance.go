// Package geo holds the coordinate type shared by the geocoder, the catalog
// and the proximity search, plus great-circle distance helpers.
package geo

import (
	"fmt"

	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the mean Earth radius used for haversine distances.
const EarthRadiusKm = 6371.0

// Coordinate is a latitude/longitude pair in degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the latitude is within [-90, 90] and the longitude
// within [-180, 180].
func (c Coordinate) Valid() bool {
	return c.latLng().IsValid()
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", c.Latitude, c.Longitude)
}

func (c Coordinate) latLng() s2.LatLng {
	return s2.LatLngFromDegrees(c.Latitude, c.Longitude)
}

// Haversine returns the great-circle distance between a and b in kilometers.
func Haversine(a, b Coordinate) float64 {
	return a.latLng().Distance(b.latLng()).Radians() * EarthRadiusKm
}
