package http

import (
	"sync"

	"github.com/artpar/hoops/ports"
	"golang.org/x/time/rate"
)

// maxThrottleKeys bounds the limiter table; it is reset when full.
const maxThrottleKeys = 10000

// Throttle is a token bucket per key (consumer or client address).
type Throttle struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
	clock    ports.Clock
}

// NewThrottle allows perSecond requests per key with the given burst.
func NewThrottle(perSecond float64, burst int, clock ports.Clock) *Throttle {
	if burst < 1 {
		burst = 1
	}
	return &Throttle{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Limit(perSecond),
		burst:    burst,
		clock:    clock,
	}
}

// Allow reports whether one more request for key may proceed now.
func (t *Throttle) Allow(key string) bool {
	return t.limiter(key).AllowN(t.clock.Now(), 1)
}

func (t *Throttle) limiter(key string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	lim, ok := t.limiters[key]
	if !ok {
		if len(t.limiters) >= maxThrottleKeys {
			t.limiters = make(map[string]*rate.Limiter)
		}
		lim = rate.NewLimiter(t.limit, t.burst)
		t.limiters[key] = lim
	}
	return lim
}
