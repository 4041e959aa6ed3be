package api

import (
	"net/http"
	"time"
)

// AnalyticsHandler handles GET /api/analytics. The period defaults to the
// trailing 30 days.
func (s *Server) AnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	now := time.Now()
	startTS := time.Now()
	const endpoint = "analytics"

	q := r.URL.Query()
	periodStart := now.AddDate(0, 0, -30)
	periodEnd := now

	if v := q.Get("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.instrument(endpoint, "GET", "400", startTS)
			writeError(w, http.StatusBadRequest, "start must be RFC3339")
			return
		}
		periodStart = t
	}
	if v := q.Get("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			s.instrument(endpoint, "GET", "400", startTS)
			writeError(w, http.StatusBadRequest, "end must be RFC3339")
			return
		}
		periodEnd = t
	}

	s.instrument(endpoint, "GET", "200", startTS)
	writeJSON(w, s.Engine.GetAnalytics(periodStart, periodEnd))
}

// StatisticsHandler handles GET /api/stats.
func (s *Server) StatisticsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "stats"

	s.instrument(endpoint, "GET", "200", start)
	writeJSON(w, s.Engine.GetStatistics())
}
