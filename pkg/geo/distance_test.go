package geo

import (
	"math"
	"testing"
)

func TestHaversine(t *testing.T) {
	capeTown := Coordinate{Latitude: -33.9249, Longitude: 18.4241}
	johannesburg := Coordinate{Latitude: -26.2041, Longitude: 28.0473}

	cases := []struct {
		name    string
		a, b    Coordinate
		want    float64
		epsilon float64
	}{
		{"same point", capeTown, capeTown, 0, 0},
		{"cape town to johannesburg", capeTown, johannesburg, 1262, 5},
		{"quarter meridian", Coordinate{0, 0}, Coordinate{90, 0}, math.Pi / 2 * EarthRadiusKm, 1e-6},
		{"antimeridian neighbours", Coordinate{0, 179.5}, Coordinate{0, -179.5}, math.Pi / 180 * EarthRadiusKm, 1e-6},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Haversine(tc.a, tc.b)
			if math.Abs(got-tc.want) > tc.epsilon {
				t.Fatalf("Haversine(%v, %v) = %.6f; want %.6f ± %g", tc.a, tc.b, got, tc.want, tc.epsilon)
			}
		})
	}
}

func TestHaversine_Symmetric(t *testing.T) {
	points := []Coordinate{
		{-33.9249, 18.4241},
		{-33.9300, 18.4300},
		{-33.9000, 18.5000},
		{51.5074, -0.1278},
		{-90, 180},
		{89.9, -45},
	}
	for _, a := range points {
		if d := Haversine(a, a); d != 0 {
			t.Errorf("Haversine(%v, %v) = %g; want 0", a, a, d)
		}
		for _, b := range points {
			ab, ba := Haversine(a, b), Haversine(b, a)
			if math.Abs(ab-ba) > 1e-9 {
				t.Errorf("Haversine not symmetric for %v, %v: %.12f vs %.12f", a, b, ab, ba)
			}
		}
	}
}

func TestCoordinate_Valid(t *testing.T) {
	cases := []struct {
		name  string
		input Coordinate
		want  bool
	}{
		{"cape town", Coordinate{-33.9249, 18.4241}, true},
		{"poles and antimeridian", Coordinate{90, -180}, true},
		{"latitude too large", Coordinate{90.5, 0}, false},
		{"longitude too small", Coordinate{0, -180.5}, false},
		{"not a number", Coordinate{math.NaN(), 0}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.input.Valid(); got != tc.want {
				t.Fatalf("%v.Valid() = %v; want %v", tc.input, got, tc.want)
			}
		})
	}
}
