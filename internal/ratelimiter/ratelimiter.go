// Package ratelimiter throttles expensive requests with token buckets.
package ratelimiter

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter is a single token bucket. A zero rate means unlimited.
//
// Thread safety:
// All methods are safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a RateLimiter allowing requestsPerSecond sustained and burst
// at once. A burst below 1 is raised to 1 so the limiter can admit anything.
func New(requestsPerSecond, burst uint) *RateLimiter {
	if requestsPerSecond == 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst == 0 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), int(burst))}
}

// Allow consumes a token if one is available.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until a token is available or ctx is done.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// Tokens returns the tokens currently in the bucket.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}

// Unlimited reports whether the limiter admits everything.
func (r *RateLimiter) Unlimited() bool {
	return r.limiter.Limit() == rate.Inf
}

type keyedEntry struct {
	limiter  *RateLimiter
	lastSeen time.Time
}

// Keyed hands out one bucket per key, typically the acting user or the
// client address. Buckets idle for longer than the idle timeout are evicted
// on the next sweep.
type Keyed struct {
	requestsPerSecond uint
	burst             uint
	idle              time.Duration
	now               func() time.Time

	mu        sync.Mutex
	buckets   map[string]*keyedEntry
	lastSweep time.Time
}

// NewKeyed creates a per-key limiter. A zero rate disables limiting and a
// zero idle timeout defaults to ten minutes.
func NewKeyed(requestsPerSecond, burst uint, idle time.Duration) *Keyed {
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	return &Keyed{
		requestsPerSecond: requestsPerSecond,
		burst:             burst,
		idle:              idle,
		now:               time.Now,
		buckets:           make(map[string]*keyedEntry),
	}
}

// Allow consumes a token from key's bucket.
func (k *Keyed) Allow(key string) bool {
	if k.requestsPerSecond == 0 {
		return true
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()
	if now.Sub(k.lastSweep) >= k.idle {
		k.sweep(now)
	}

	e, ok := k.buckets[key]
	if !ok {
		e = &keyedEntry{limiter: New(k.requestsPerSecond, k.burst)}
		k.buckets[key] = e
	}
	e.lastSeen = now
	return e.limiter.limiter.AllowN(now, 1)
}

// Len returns the number of live buckets.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}

func (k *Keyed) sweep(now time.Time) {
	for key, e := range k.buckets {
		if now.Sub(e.lastSeen) >= k.idle {
			delete(k.buckets, key)
		}
	}
	k.lastSweep = now
}
