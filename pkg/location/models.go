package location

import (
	"fmt"
	"strconv"

	"crechespots/pkg/geo"
)

// Address is the address breakdown Nominatim returns for a place.
type Address struct {
	Road         string `json:"road"`
	Suburb       string `json:"suburb"`
	CityDistrict string `json:"city_district"`
	City         string `json:"city"`
	Town         string `json:"town"`
	Village      string `json:"village"`
	Region       string `json:"region"`
	State        string `json:"state"`
	Postcode     string `json:"postcode"`
	Country      string `json:"country"`
	CountryCode  string `json:"country_code"`
}

// Locality returns the city, falling back to town and then village.
func (a Address) Locality() string {
	if a.City != "" {
		return a.City
	}
	if a.Town != "" {
		return a.Town
	}
	return a.Village
}

// Empty reports whether no address component was returned.
func (a Address) Empty() bool {
	return a == Address{}
}

// Place is a single match of a forward search or the result of a reverse lookup.
type Place struct {
	PlaceID     int64    `json:"place_id"`
	OsmType     string   `json:"osm_type"`
	OsmID       int64    `json:"osm_id"`
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	Class       string   `json:"class"`
	Type        string   `json:"type"`
	Importance  float64  `json:"importance"`
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Address     *Address `json:"address,omitempty"`
	BoundingBox []string `json:"boundingbox"`
}

// Coordinate parses the string lat/lon pair Nominatim returns.
func (p Place) Coordinate() (geo.Coordinate, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("parsing latitude %q: %w", p.Lat, err)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return geo.Coordinate{}, fmt.Errorf("parsing longitude %q: %w", p.Lon, err)
	}
	c := geo.Coordinate{Latitude: lat, Longitude: lon}
	if !c.Valid() {
		return geo.Coordinate{}, fmt.Errorf("coordinate out of range: %v", c)
	}
	return c, nil
}

// reverseResponse is shaped for the /reverse endpoint. A lookup that finds
// nothing comes back with status 200 and only Error set.
type reverseResponse struct {
	Place
	Error string `json:"error"`
}
