package observability

import (
	"sync"
	"time"
)

// MockMetricsRegistry counts calls so tests can assert which metrics fired.
type MockMetricsRegistry struct {
	mu     sync.Mutex
	Counts map[string]int
}

// NewMockMetricsRegistry creates a MockMetricsRegistry.
func NewMockMetricsRegistry() *MockMetricsRegistry {
	return &MockMetricsRegistry{Counts: make(map[string]int)}
}

func (m *MockMetricsRegistry) inc(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Counts == nil {
		m.Counts = make(map[string]int)
	}
	m.Counts[key]++
}

// Count returns how many times the keyed metric was recorded.
func (m *MockMetricsRegistry) Count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Counts[key]
}

func (m *MockMetricsRegistry) IncrementRequests(endpoint, method, status string) {
	m.inc("requests")
	m.inc("requests:" + endpoint + ":" + status)
}
func (m *MockMetricsRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {
	m.inc("request_latency")
}
func (m *MockMetricsRegistry) IncrementSubmissions(reportType, priority string) {
	m.inc("submissions")
}
func (m *MockMetricsRegistry) IncrementVotes(kind string)          { m.inc("votes:" + kind) }
func (m *MockMetricsRegistry) IncrementFlags(flagType string)      { m.inc("flags") }
func (m *MockMetricsRegistry) IncrementQuarantines()               { m.inc("quarantines") }
func (m *MockMetricsRegistry) IncrementVerifications(method string) {
	m.inc("verifications:" + method)
}
func (m *MockMetricsRegistry) IncrementMerges()                      { m.inc("merges") }
func (m *MockMetricsRegistry) IncrementTrends(action string)         { m.inc("trends:" + action) }
func (m *MockMetricsRegistry) IncrementAlerts(alertType string)      { m.inc("alerts:" + alertType) }
func (m *MockMetricsRegistry) IncrementRateLimitRequests(rep string) { m.inc("ratelimit_requests") }
func (m *MockMetricsRegistry) IncrementRateLimitHits(rep string)     { m.inc("ratelimit_hits") }
func (m *MockMetricsRegistry) IncrementPersistErrors(sink string)    { m.inc("persist_errors:" + sink) }
