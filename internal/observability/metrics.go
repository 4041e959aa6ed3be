package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// total requests per endpoint, method and status code
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reportserve_requests_total",
			Help: "Total API requests received",
		},
		[]string{"endpoint", "method", "status"},
	)

	// request latency in seconds per endpoint/method
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reportserve_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	// reports submitted, labelled by type and detected priority
	SubmissionCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reportserve_submissions_total",
			Help: "Total reports submitted",
		},
		[]string{"type", "priority"},
	)

	// community votes cast, labelled by kind
	VoteCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reportserve_votes_total",
			Help: "Total community votes cast",
		},
		[]string{"kind"},
	)

	// flags raised against reports, labelled by flag type
	FlagCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reportserve_flags_total",
			Help: "Total flags raised against reports",
		},
		[]string{"type"},
	)

	// reports forced under review by the flag quorum
	QuarantineCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reportserve_quarantines_total",
			Help: "Total reports quarantined by unresolved flags",
		},
	)

	// verifications, labelled auto or official
	VerificationCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reportserve_verifications_total",
			Help: "Total report verifications",
		},
		[]string{"method"},
	)

	// merge operations performed
	MergeCount = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "reportserve_merges_total",
			Help: "Total duplicate merge operations",
		},
	)

	// trends opened or extended by the detector
	TrendCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reportserve_trends_total",
			Help: "Total trend detector matches",
		},
		[]string{"action"},
	)

	// alerts triggered, labelled by type
	AlertCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reportserve_alerts_total",
			Help: "Total alerts triggered",
		},
		[]string{"type"},
	)

	// rate limit requests per reporter
	RateLimitRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reportserve_ratelimit_requests_total",
			Help: "Total rate limit checks per reporter",
		},
		[]string{"reporter_id"},
	)

	// rate limit hits per reporter
	RateLimitHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reportserve_ratelimit_hits_total",
			Help: "Total rate limit rejections per reporter",
		},
		[]string{"reporter_id"},
	)

	// number of errors persisting reports or events to a sink
	PersistErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reportserve_persist_errors_total",
			Help: "Total persistence errors per sink",
		},
		[]string{"sink"},
	)
)

func init() {
	// register all metrics
	prometheus.MustRegister(
		RequestCount,
		RequestLatency,
		SubmissionCount,
		VoteCount,
		FlagCount,
		QuarantineCount,
		VerificationCount,
		MergeCount,
		TrendCount,
		AlertCount,
		RateLimitRequests,
		RateLimitHits,
		PersistErrors,
	)
}
