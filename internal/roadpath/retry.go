package roadpath

import (
	"context"
	"fmt"
	"time"

	"stoprouter/internal/geo"
)

const maxBackoff = 30 * time.Second

type retrying struct {
	next     Strategy
	attempts int
	base     time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

// WithRetry retries next up to attempts times in total, waiting base, 2·base,
// 4·base, ... between tries. Waiting stops early when ctx is done.
func WithRetry(next Strategy, attempts int, base time.Duration) Strategy {
	if attempts < 1 {
		attempts = 1
	}
	return &retrying{next: next, attempts: attempts, base: base, sleep: sleepCtx}
}

func (r *retrying) Path(ctx context.Context, pts []geo.Point) ([]geo.Point, error) {
	var lastErr error
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			if err := r.sleep(ctx, backoff(r.base, attempt-1)); err != nil {
				return nil, fmt.Errorf("retry aborted after %d attempts: %w (last: %v)", attempt, err, lastErr)
			}
		}
		out, err := r.next.Path(ctx, pts)
		if err == nil {
			return out, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("after %d attempts: %w", r.attempts, lastErr)
}

func backoff(base time.Duration, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	if attempt > 10 {
		attempt = 10
	}
	d := base * time.Duration(1<<attempt)
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
