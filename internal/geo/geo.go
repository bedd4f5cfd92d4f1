// Package geo implements great-circle distances between WGS84 points.
package geo

import (
	"fmt"
	"math"

	"stoprouter/internal/errs"
)

// EarthDiameterKm is twice the mean Earth radius (6371 km).
const EarthDiameterKm = 12742.0

const degToRad = math.Pi / 180

// Point is a (latitude, longitude) pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p Point) String() string { return fmt.Sprintf("(%g,%g)", p.Lat, p.Lng) }

// Validate rejects non-finite or out-of-range coordinates.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsInf(p.Lat, 0) || p.Lat < -90 || p.Lat > 90 {
		return errs.NewValueIsInvalidErrorWithCause("lat", fmt.Errorf("latitude %v outside [-90,90]", p.Lat))
	}
	if math.IsNaN(p.Lng) || math.IsInf(p.Lng, 0) || p.Lng < -180 || p.Lng > 180 {
		return errs.NewValueIsInvalidErrorWithCause("lng", fmt.Errorf("longitude %v outside [-180,180]", p.Lng))
	}
	return nil
}

// DistanceKm returns the haversine distance between a and b in kilometers.
func DistanceKm(a, b Point) float64 {
	h := 0.5 - math.Cos((b.Lat-a.Lat)*degToRad)/2 +
		math.Cos(a.Lat*degToRad)*math.Cos(b.Lat*degToRad)*(1-math.Cos((b.Lng-a.Lng)*degToRad))/2
	// rounding can push h just outside [0,1] for coincident or antipodal points
	if h < 0 {
		h = 0
	} else if h > 1 {
		h = 1
	}
	return EarthDiameterKm * math.Asin(math.Sqrt(h))
}

// DistancesKm returns DistanceKm(from, to[i]) for every i.
func DistancesKm(from Point, to []Point) []float64 {
	out := make([]float64, len(to))
	for i, p := range to {
		out[i] = DistanceKm(from, p)
	}
	return out
}

// PathKm sums the distances between consecutive points.
func PathKm(points []Point) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += DistanceKm(points[i-1], points[i])
	}
	return total
}
