// Package ratelimit provides a keyed token bucket limiter.
// Signup and signin use it with client addresses as keys.
package ratelimit

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// KeyedRateLimiter manages per-key rate limiting.
// Each unique key gets its own independent limiter. Keys idle longer than
// the idle TTL are evicted by a background sweeper.
type KeyedRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*entry
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// DefaultIdleTTL is how long an unused key is remembered.
const DefaultIdleTTL = 10 * time.Minute

// New creates a new keyed rate limiter.
// rps is the sustained rate per key; burst is the bucket size.
func New(rps float64, burst int) *KeyedRateLimiter {
	krl := newLimiter(rps, burst, DefaultIdleTTL, time.Now)
	go krl.sweep(DefaultIdleTTL / 2)
	return krl
}

// PerMinute creates a limiter allowing perMinute requests per key per minute.
func PerMinute(perMinute, burst int) *KeyedRateLimiter {
	return New(float64(perMinute)/time.Minute.Seconds(), burst)
}

func newLimiter(rps float64, burst int, idleTTL time.Duration, now func() time.Time) *KeyedRateLimiter {
	return &KeyedRateLimiter{
		limiters: make(map[string]*entry),
		limit:    rate.Limit(rps),
		burst:    burst,
		idleTTL:  idleTTL,
		now:      now,
		done:     make(chan struct{}),
	}
}

// Allow reports whether a request for key may proceed, consuming a token
// when it does. It never blocks.
func (krl *KeyedRateLimiter) Allow(key string) bool {
	krl.mu.Lock()
	now := krl.now()
	e, ok := krl.limiters[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(krl.limit, krl.burst)}
		krl.limiters[key] = e
	}
	e.lastSeen = now
	krl.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

// Len returns how many keys are currently tracked.
func (krl *KeyedRateLimiter) Len() int {
	krl.mu.Lock()
	defer krl.mu.Unlock()
	return len(krl.limiters)
}

// Stop shuts down the sweeper.
func (krl *KeyedRateLimiter) Stop() {
	krl.stopOnce.Do(func() {
		close(krl.done)
	})
}

func (krl *KeyedRateLimiter) sweep(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-krl.done:
			return
		case <-ticker.C:
			krl.evictIdle()
		}
	}
}

// evictIdle drops keys not seen within idleTTL.
func (krl *KeyedRateLimiter) evictIdle() {
	krl.mu.Lock()
	defer krl.mu.Unlock()

	cutoff := krl.now().Add(-krl.idleTTL)
	for key, e := range krl.limiters {
		if e.lastSeen.Before(cutoff) {
			delete(krl.limiters, key)
		}
	}
}
