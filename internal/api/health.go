package api

import (
	"net/http"
	"time"
)

// HealthResponse carries liveness plus a few engine counters so operators
// can tell an empty store from a broken one at a glance.
type HealthResponse struct {
	Status           string `json:"status"`
	Redis            string `json:"redis"`
	TotalReports     int    `json:"total_reports"`
	TotalReporters   int    `json:"total_reporters"`
	UnresolvedAlerts int    `json:"unresolved_alerts"`
}

// HealthHandler responds with the service status and live counters.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "health"
	const method = "GET"

	stats := s.Engine.GetStatistics()
	resp := HealthResponse{
		Status:           "ok",
		Redis:            "disabled",
		TotalReports:     stats.TotalReports,
		TotalReporters:   stats.TotalReporters,
		UnresolvedAlerts: stats.UnresolvedAlerts,
	}
	if s.Store != nil {
		resp.Redis = "ok"
		if err := s.Store.Client.Ping(r.Context()).Err(); err != nil {
			resp.Redis = "unavailable"
		}
	}

	writeJSON(w, resp)
	s.instrument(endpoint, method, "200", start)
}
