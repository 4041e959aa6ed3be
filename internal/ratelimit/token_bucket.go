// Package ratelimit implements token bucket rate limiting for report
// submissions.
//
// The token bucket algorithm allows a burst of submissions up to the bucket
// capacity while holding the sustained rate down. Crowdsourced intake is
// bursty around real events, so the burst allowance matters; the sustained
// cap is what keeps a single principal from flooding the intake.
package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket is a thread-safe token bucket.
//
// The bucket has a fixed capacity and refills at a constant rate. Each
// submission consumes one token; an empty bucket rejects until refill.
type TokenBucket struct {
	capacity   int
	tokens     int
	refillRate int // tokens added per second
	lastRefill time.Time
	mu         sync.Mutex
	hitCount   int64 // submissions that were rate limited
	totalCount int64
}

// NewTokenBucket creates a bucket with the given burst capacity and
// per-second refill rate. The bucket starts full.
func NewTokenBucket(capacity, refillRate int) *TokenBucket {
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow attempts to consume one token. It returns false when the bucket is
// empty, counting the rejection; refill happens lazily on each call from the
// elapsed time since the last refill.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.totalCount++

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill)

	tokensToAdd := int(elapsed.Seconds() * float64(tb.refillRate))
	if tokensToAdd > 0 {
		tb.tokens = min(tb.capacity, tb.tokens+tokensToAdd)
		tb.lastRefill = now
	}

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}

	tb.hitCount++
	return false
}

// Stats returns how many submissions were rejected and how many were seen in
// total.
func (tb *TokenBucket) Stats() (hits, total int64) {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return tb.hitCount, tb.totalCount
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
