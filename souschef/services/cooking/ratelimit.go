package cooking

import (
	"sync"
	"time"
)

// Limiter bounds request throughput per client key with a trailing window of
// request timestamps. Entries age out lazily on the next Allow call for the
// same key, so an abandoned key costs at most one stale slice.
type Limiter struct {
	max    int
	window time.Duration

	mu      sync.Mutex
	history map[string][]time.Time

	now func() time.Time // swapped out in tests
}

func NewLimiter(max int, window time.Duration) *Limiter {
	return &Limiter{
		max:     max,
		window:  window,
		history: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow reports whether the key may issue another request now, recording the
// request when it is allowed. Denied requests leave no trace in the window.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	windowStart := now.Add(-l.window)

	kept := l.history[key][:0]
	for _, ts := range l.history[key] {
		if ts.After(windowStart) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= l.max {
		l.history[key] = kept
		return false
	}

	l.history[key] = append(kept, now)
	return true
}
