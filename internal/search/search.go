// Package search turns the catalog into the list shown to the user: it
// annotates every centre with its distance from the search origin, keeps the
// ones whose name matches the query and orders them nearest first.
//
// Everything here is pure. The same inputs always give the same order.
package search

import (
	"sort"
	"strings"

	"crechespots/internal/models"
	"crechespots/pkg/geo"
)

// Annotate computes each centre's haversine distance from origin. Centres
// without a valid coordinate, or every centre when origin is nil, get a nil
// distance. Input order is kept.
func Annotate(origin *geo.Coordinate, centres []models.Centre) []models.AnnotatedCentre {
	out := make([]models.AnnotatedCentre, len(centres))
	for i, c := range centres {
		out[i] = models.AnnotatedCentre{Centre: c}
		if origin == nil {
			continue
		}
		if at, ok := c.Coordinate(); ok {
			d := geo.Haversine(*origin, at)
			out[i].Distance = &d
		}
	}
	return out
}

// FilterSort keeps the items whose name contains query, ignoring case, and
// sorts them by ascending distance. Items with no distance go last. Ties keep
// their input order. items is not modified.
func FilterSort(items []models.AnnotatedCentre, query string) []models.AnnotatedCentre {
	needle := strings.ToLower(query)

	out := make([]models.AnnotatedCentre, 0, len(items))
	for _, item := range items {
		if needle == "" || strings.Contains(strings.ToLower(item.Name), needle) {
			out = append(out, item)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Distance, out[j].Distance
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
	return out
}

// Run annotates centres from origin, then filters and sorts them by query.
func Run(origin *geo.Coordinate, centres []models.Centre, query string) []models.AnnotatedCentre {
	return FilterSort(Annotate(origin, centres), query)
}
