package roadpath

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"stoprouter/internal/geo"
	"stoprouter/internal/metrics"
)

// Resolver is the entry point used by the session layer.
type Resolver struct {
	strategy Strategy
	timeout  time.Duration
	logger   *slog.Logger
}

// NewResolver wraps s with the straight-line fallback. timeout bounds a whole
// Resolve call, retries included; zero means no extra bound.
func NewResolver(s Strategy, timeout time.Duration, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{strategy: s, timeout: timeout, logger: logger}
}

// Resolve returns a road path through pts. With fewer than two points, or
// when the routing service cannot produce a path, it returns a copy of pts.
func (r *Resolver) Resolve(ctx context.Context, pts []geo.Point) (out []geo.Point) {
	if len(pts) < 2 || r == nil || r.strategy == nil {
		return clonePoints(pts)
	}
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("roadpath_panic", "panic", fmt.Sprint(p), "points", len(pts))
			metrics.RoutingFallbacks.Inc()
			out = clonePoints(pts)
		}
	}()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	start := time.Now()
	path, err := r.strategy.Path(ctx, pts)
	if err == nil && len(path) == 0 {
		err = ErrMalformedResponse
	}
	if err != nil {
		metrics.RoutingFallbacks.Inc()
		r.logger.Warn("roadpath_fallback", "error", err, "points", len(pts), "duration_ms", time.Since(start).Milliseconds())
		return clonePoints(pts)
	}
	r.logger.Debug("roadpath_resolved", "points", len(pts), "path_points", len(path), "duration_ms", time.Since(start).Milliseconds())
	return path
}

// Options configures New.
type Options struct {
	BaseURL string
	Profile string
	// Strategy is "batch" or "segment".
	Strategy       string
	RequestTimeout time.Duration
	ResolveTimeout time.Duration
	Attempts       int
	Backoff        time.Duration
	SegmentRPS     float64
}

// New assembles cache(retry(strategy(client))) behind a Resolver. cache may be nil.
func New(o Options, cache Cache, logger *slog.Logger) (*Resolver, error) {
	client := NewClient(o.BaseURL, o.Profile, o.RequestTimeout)
	var s Strategy
	switch strings.ToLower(strings.TrimSpace(o.Strategy)) {
	case "", "batch":
		s = client
	case "segment":
		s = NewSegment(client, o.SegmentRPS)
	default:
		return nil, fmt.Errorf("unknown routing strategy %q (allowed: batch, segment)", o.Strategy)
	}
	s = WithRetry(s, o.Attempts, o.Backoff)
	s = WithCache(s, cache)
	return NewResolver(s, o.ResolveTimeout, logger), nil
}
