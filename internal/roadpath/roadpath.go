// Package roadpath turns an ordered list of stop coordinates into a
// road-following polyline using an OSRM-compatible routing service.
//
// A Strategy fetches the path; WithRetry and WithCache decorate it; the
// Resolver applies the straight-line fallback so callers never see an error.
package roadpath

import (
	"context"
	"strconv"
	"strings"

	"stoprouter/internal/geo"
)

// Strategy fetches a road path through pts, in order.
type Strategy interface {
	Path(ctx context.Context, pts []geo.Point) ([]geo.Point, error)
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(ctx context.Context, pts []geo.Point) ([]geo.Point, error)

func (f StrategyFunc) Path(ctx context.Context, pts []geo.Point) ([]geo.Point, error) {
	return f(ctx, pts)
}

// Key renders pts exactly, so equal keys mean identical coordinate sequences.
func Key(pts []geo.Point) string {
	var b strings.Builder
	b.Grow(len(pts) * 24)
	for i, p := range pts {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(strconv.FormatFloat(p.Lat, 'g', -1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(p.Lng, 'g', -1, 64))
	}
	return b.String()
}

func clonePoints(pts []geo.Point) []geo.Point {
	if pts == nil {
		return nil
	}
	return append(make([]geo.Point, 0, len(pts)), pts...)
}
