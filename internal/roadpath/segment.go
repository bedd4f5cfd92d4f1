package roadpath

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"stoprouter/internal/geo"
)

// Segment resolves each consecutive pair separately and stitches the legs.
// It costs one request per leg but follows sharp turns more closely than a
// single batched request.
type Segment struct {
	Leg Strategy
	// Limiter paces leg requests; nil means unpaced.
	Limiter *rate.Limiter
}

// NewSegment paces legs at rps requests per second (burst 1). rps <= 0 disables pacing.
func NewSegment(leg Strategy, rps float64) *Segment {
	s := &Segment{Leg: leg}
	if rps > 0 {
		s.Limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return s
}

func (s *Segment) Path(ctx context.Context, pts []geo.Point) ([]geo.Point, error) {
	if len(pts) < 2 {
		return clonePoints(pts), nil
	}
	var out []geo.Point
	for i := 1; i < len(pts); i++ {
		if s.Limiter != nil {
			if err := s.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		leg, err := s.Leg.Path(ctx, pts[i-1:i+1])
		if err != nil {
			return nil, fmt.Errorf("leg %d: %w", i, err)
		}
		// consecutive legs share their joint point
		if len(out) > 0 && len(leg) > 0 && out[len(out)-1] == leg[0] {
			leg = leg[1:]
		}
		out = append(out, leg...)
	}
	return out, nil
}
