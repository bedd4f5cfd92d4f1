// Package opt orders delivery stops into a route.
package opt

import (
	"math"
	"strconv"

	"stoprouter/internal/errs"
	"stoprouter/internal/geo"
	"stoprouter/internal/model"
)

// Stats describes one sequencing run.
type Stats struct {
	Stops       int
	Evaluations int
	// StraightKm is the straight-line length of the produced order.
	StraightKm float64
}

// NearestNeighbor orders stops greedily: start at the first input stop,
// then repeatedly move to the closest unvisited stop. Ties go to the stop
// that came first in the input.
func NearestNeighbor(stops []model.Stop) (model.Route, error) {
	r, _, err := Sequence(stops)
	return r, err
}

// Sequence is NearestNeighbor with run statistics.
func Sequence(stops []model.Stop) (model.Route, Stats, error) {
	if len(stops) == 0 {
		return model.Route{}, Stats{}, errs.ErrEmptyRoute
	}
	if err := validateStops(stops); err != nil {
		return model.Route{}, Stats{}, err
	}

	points := make([]geo.Point, len(stops))
	for i, s := range stops {
		points[i] = s.Point()
	}

	// remaining holds input indices in input order, so a strict < comparison
	// keeps the smallest index on ties
	remaining := make([]int, 0, len(stops)-1)
	for i := 1; i < len(stops); i++ {
		remaining = append(remaining, i)
	}
	order := make([]int, 0, len(stops))
	order = append(order, 0)
	st := Stats{Stops: len(stops)}

	current := 0
	for len(remaining) > 0 {
		bestPos, bestDist := -1, math.MaxFloat64
		for pos, idx := range remaining {
			d := geo.DistanceKm(points[current], points[idx])
			st.Evaluations++
			if d < bestDist {
				bestPos, bestDist = pos, d
			}
		}
		current = remaining[bestPos]
		st.StraightKm += bestDist
		order = append(order, current)
		remaining = append(remaining[:bestPos], remaining[bestPos+1:]...)
	}

	out := make([]model.Stop, len(order))
	for i, idx := range order {
		out[i] = stops[idx]
	}
	return model.Route{Stops: model.Renumbered(out)}, st, nil
}

func validateStops(stops []model.Stop) error {
	seen := make(map[string]struct{}, len(stops))
	for i, s := range stops {
		param := "stops[" + strconv.Itoa(i) + "]"
		if s.UID == "" {
			return errs.NewValueIsRequiredError(param + ".uid")
		}
		if _, dup := seen[s.UID]; dup {
			return errs.NewValueIsInvalidError(param + ".uid")
		}
		seen[s.UID] = struct{}{}
		if err := s.Point().Validate(); err != nil {
			return errs.NewValueIsInvalidErrorWithCause(param, err)
		}
	}
	return nil
}
