package ratelimit

import (
	"fmt"
	"sync"

	"github.com/crisisworks/openreportserve/internal/observability"
)

// ReporterLimiter rate limits report submissions per reporter.
//
// Each reporter gets its own token bucket, created lazily on first
// submission. Anonymous principals share whatever id the intake assigned
// them, so a flood from one anonymous session still lands in one bucket.
type ReporterLimiter struct {
	buckets map[string]*TokenBucket
	mu      sync.RWMutex
	config  Config
	metrics observability.MetricsRegistry
}

// Config holds the rate limiting configuration.
type Config struct {
	Capacity   int  // burst allowance per reporter
	RefillRate int  // tokens added per second
	Enabled    bool // whether rate limiting is active
}

// NewReporterLimiter creates a per-reporter rate limiter.
func NewReporterLimiter(config Config, metrics observability.MetricsRegistry) *ReporterLimiter {
	return &ReporterLimiter{
		buckets: make(map[string]*TokenBucket),
		config:  config,
		metrics: metrics,
	}
}

// Allow checks whether a submission from the given reporter should proceed.
// Disabled limiting always allows.
func (rl *ReporterLimiter) Allow(reporterID string) bool {
	if !rl.config.Enabled {
		return true
	}

	rl.metrics.IncrementRateLimitRequests(reporterID)

	rl.mu.RLock()
	bucket, exists := rl.buckets[reporterID]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		bucket, exists = rl.buckets[reporterID]
		if !exists {
			bucket = NewTokenBucket(rl.config.Capacity, rl.config.RefillRate)
			rl.buckets[reporterID] = bucket
		}
		rl.mu.Unlock()
	}

	allowed := bucket.Allow()
	if !allowed {
		rl.metrics.IncrementRateLimitHits(reporterID)
	}

	return allowed
}

// GetStats returns a snapshot of rate limiting activity for every reporter
// that has submitted since startup.
func (rl *ReporterLimiter) GetStats() map[string]Stats {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	stats := make(map[string]Stats)
	for reporterID, bucket := range rl.buckets {
		hits, total := bucket.Stats()
		hitRate := 0.0
		if total > 0 {
			hitRate = float64(hits) / float64(total)
		}
		stats[reporterID] = Stats{
			ReporterID: reporterID,
			Hits:       hits,
			Total:      total,
			HitRate:    hitRate,
		}
	}

	return stats
}

// Stats describes rate limiting activity for a single reporter.
type Stats struct {
	ReporterID string  `json:"reporter_id"`
	Hits       int64   `json:"hits"`
	Total      int64   `json:"total"`
	HitRate    float64 `json:"hit_rate"` // fraction of submissions rejected, 0.0-1.0
}

// String returns a human-readable representation of the stats.
func (s Stats) String() string {
	return fmt.Sprintf("Reporter %s: %d/%d hits (%.2f%%)",
		s.ReporterID, s.Hits, s.Total, s.HitRate*100)
}
