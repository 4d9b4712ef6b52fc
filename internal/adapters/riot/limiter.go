package riot

import (
	"context"
	"sync"
	"time"
)

// limiter is a two-window sliding limiter matching development key limits
// (per second and per two minutes).
type limiter struct {
	mu          sync.Mutex
	perSecond   int
	perTwoMin   int
	shortWindow []time.Time
	longWindow  []time.Time
	now         func() time.Time
}

func newLimiter(perSecond, perTwoMin int) *limiter {
	return &limiter{
		perSecond: perSecond,
		perTwoMin: perTwoMin,
		now:       time.Now,
	}
}

// Wait blocks until a request may be sent or ctx is done. It returns how
// long the caller was held back.
func (l *limiter) Wait(ctx context.Context) (time.Duration, error) {
	var waited time.Duration
	for {
		d := l.reserve()
		if d == 0 {
			return waited, nil
		}
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return waited, ctx.Err()
		case <-t.C:
			waited += d
		}
	}
}

// reserve records a request and returns 0, or returns how long to wait.
func (l *limiter) reserve() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.shortWindow = prune(l.shortWindow, now.Add(-time.Second))
	l.longWindow = prune(l.longWindow, now.Add(-2*time.Minute))

	if l.perSecond > 0 && len(l.shortWindow) >= l.perSecond {
		return l.shortWindow[0].Add(time.Second).Sub(now) + time.Millisecond
	}
	if l.perTwoMin > 0 && len(l.longWindow) >= l.perTwoMin {
		return l.longWindow[0].Add(2*time.Minute).Sub(now) + time.Millisecond
	}

	l.shortWindow = append(l.shortWindow, now)
	l.longWindow = append(l.longWindow, now)
	return 0
}

// prune drops timestamps not after cutoff. Windows are ordered oldest first.
func prune(window []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(window) && !window[i].After(cutoff) {
		i++
	}
	return window[i:]
}
