package models

import "crechespots/pkg/geo"

// Centre is a childcare centre as stored by the backend. Latitude and
// Longitude are nil when the backend has no coordinate for the centre.
type Centre struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	PhoneNumber  string   `json:"phone_number"`
	Capacity     int      `json:"capacity"`
	Logo         string   `json:"logo"`
	Registered   bool     `json:"registered"`
	MonthlyPrice float64  `json:"monthly_price"`
	WeeklyPrice  float64  `json:"weekly_price"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Gallery      []string `json:"gallery"`
}

// Coordinate returns the centre's position and whether it is present and in range.
func (c Centre) Coordinate() (geo.Coordinate, bool) {
	if c.Latitude == nil || c.Longitude == nil {
		return geo.Coordinate{}, false
	}
	coord := geo.Coordinate{Latitude: *c.Latitude, Longitude: *c.Longitude}
	return coord, coord.Valid()
}

// AnnotatedCentre is a Centre with its distance in kilometers from the search
// origin. Distance is nil when either coordinate is missing.
type AnnotatedCentre struct {
	Centre
	Distance *float64 `json:"distance"`
}
