package models

import "crechespots/pkg/geo"

// NamedLocation is a resolved place the user can search from again.
// Names are unique within a saved list.
type NamedLocation struct {
	Name   string         `json:"name"`
	Coords geo.Coordinate `json:"coords"`
}
