package observability

import "time"

// MetricsRegistry is the metrics surface handed to components via
// dependency injection instead of direct access to the global collectors.
type MetricsRegistry interface {
	// HTTP request metrics
	IncrementRequests(endpoint, method, status string)
	RecordRequestLatency(endpoint, method string, duration time.Duration)

	// Report pipeline metrics
	IncrementSubmissions(reportType, priority string)
	IncrementVotes(kind string)
	IncrementFlags(flagType string)
	IncrementQuarantines()
	IncrementVerifications(method string)
	IncrementMerges()
	IncrementTrends(action string)
	IncrementAlerts(alertType string)

	// Rate limiting metrics
	IncrementRateLimitRequests(reporterID string)
	IncrementRateLimitHits(reporterID string)

	// Persistence metrics
	IncrementPersistErrors(sink string)
}

// PrometheusRegistry implements MetricsRegistry over the package collectors.
type PrometheusRegistry struct{}

// NewPrometheusRegistry creates a new PrometheusRegistry.
func NewPrometheusRegistry() *PrometheusRegistry {
	return &PrometheusRegistry{}
}

func (r *PrometheusRegistry) IncrementRequests(endpoint, method, status string) {
	RequestCount.WithLabelValues(endpoint, method, status).Inc()
}

func (r *PrometheusRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {
	RequestLatency.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

func (r *PrometheusRegistry) IncrementSubmissions(reportType, priority string) {
	SubmissionCount.WithLabelValues(reportType, priority).Inc()
}

func (r *PrometheusRegistry) IncrementVotes(kind string) {
	VoteCount.WithLabelValues(kind).Inc()
}

func (r *PrometheusRegistry) IncrementFlags(flagType string) {
	FlagCount.WithLabelValues(flagType).Inc()
}

func (r *PrometheusRegistry) IncrementQuarantines() {
	QuarantineCount.Inc()
}

func (r *PrometheusRegistry) IncrementVerifications(method string) {
	VerificationCount.WithLabelValues(method).Inc()
}

func (r *PrometheusRegistry) IncrementMerges() {
	MergeCount.Inc()
}

func (r *PrometheusRegistry) IncrementTrends(action string) {
	TrendCount.WithLabelValues(action).Inc()
}

func (r *PrometheusRegistry) IncrementAlerts(alertType string) {
	AlertCount.WithLabelValues(alertType).Inc()
}

func (r *PrometheusRegistry) IncrementRateLimitRequests(reporterID string) {
	RateLimitRequests.WithLabelValues(reporterID).Inc()
}

func (r *PrometheusRegistry) IncrementRateLimitHits(reporterID string) {
	RateLimitHits.WithLabelValues(reporterID).Inc()
}

func (r *PrometheusRegistry) IncrementPersistErrors(sink string) {
	PersistErrors.WithLabelValues(sink).Inc()
}

// NoOpRegistry implements MetricsRegistry with no-op methods for testing.
type NoOpRegistry struct{}

// NewNoOpRegistry creates a new NoOpRegistry.
func NewNoOpRegistry() *NoOpRegistry {
	return &NoOpRegistry{}
}

func (r *NoOpRegistry) IncrementRequests(endpoint, method, status string)                    {}
func (r *NoOpRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}
func (r *NoOpRegistry) IncrementSubmissions(reportType, priority string)                     {}
func (r *NoOpRegistry) IncrementVotes(kind string)                                           {}
func (r *NoOpRegistry) IncrementFlags(flagType string)                                       {}
func (r *NoOpRegistry) IncrementQuarantines()                                                {}
func (r *NoOpRegistry) IncrementVerifications(method string)                                 {}
func (r *NoOpRegistry) IncrementMerges()                                                     {}
func (r *NoOpRegistry) IncrementTrends(action string)                                        {}
func (r *NoOpRegistry) IncrementAlerts(alertType string)                                     {}
func (r *NoOpRegistry) IncrementRateLimitRequests(reporterID string)                         {}
func (r *NoOpRegistry) IncrementRateLimitHits(reporterID string)                             {}
func (r *NoOpRegistry) IncrementPersistErrors(sink string)                                   {}
