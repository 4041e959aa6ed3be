package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/crisisworks/openreportserve/internal/engine"
	"github.com/crisisworks/openreportserve/internal/models"
)

// ListTrendsHandler handles GET /api/trends.
func (s *Server) ListTrendsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "list_trends"

	q := r.URL.Query()
	trends := s.Engine.GetTrends(engine.TrendFilter{
		Category:    q.Get("category"),
		Status:      models.TrendStatus(q.Get("status")),
		MinSeverity: q.Get("min_severity"),
	})

	s.instrument(endpoint, "GET", "200", start)
	writeJSON(w, trends)
}

// TrendStatusBody is an operator's lifecycle transition.
type TrendStatusBody struct {
	Status models.TrendStatus `json:"status"`
	Actor  string             `json:"actor"`
}

// UpdateTrendStatusHandler handles PATCH /api/trends/{id}/status.
func (s *Server) UpdateTrendStatusHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "trend_status"

	var body TrendStatusBody
	if err := decodeBody(r, &body); err != nil {
		s.instrument(endpoint, "PATCH", "400", start)
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	trend, err := s.Engine.UpdateTrendStatus(r.Context(), mux.Vars(r)["id"], body.Status, body.Actor)
	if err != nil {
		s.engineError(w, endpoint, "PATCH", start, err)
		return
	}
	s.instrument(endpoint, "PATCH", "200", start)
	writeJSON(w, trend)
}

// ListAlertsHandler handles GET /api/alerts.
func (s *Server) ListAlertsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "list_alerts"

	unresolved := false
	if v := r.URL.Query().Get("unresolved"); v != "" {
		unresolved, _ = strconv.ParseBool(v)
	}

	s.instrument(endpoint, "GET", "200", start)
	writeJSON(w, s.Engine.GetAlerts(unresolved))
}

// AcknowledgeBody names who takes ownership of an alert.
type AcknowledgeBody struct {
	Actor string `json:"actor"`
}

// AcknowledgeAlertHandler handles POST /api/alerts/{id}/acknowledge.
func (s *Server) AcknowledgeAlertHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "ack_alert"

	var body AcknowledgeBody
	if err := decodeBody(r, &body); err != nil {
		s.instrument(endpoint, "POST", "400", start)
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	alert, err := s.Engine.AcknowledgeAlert(r.Context(), mux.Vars(r)["id"], body.Actor)
	if err != nil {
		s.engineError(w, endpoint, "POST", start, err)
		return
	}
	s.instrument(endpoint, "POST", "200", start)
	writeJSON(w, alert)
}

// ResolveAlertHandler handles POST /api/alerts/{id}/resolve.
func (s *Server) ResolveAlertHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "resolve_alert"

	alert, err := s.Engine.ResolveAlert(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.engineError(w, endpoint, "POST", start, err)
		return
	}
	s.instrument(endpoint, "POST", "200", start)
	writeJSON(w, alert)
}

// CampaignBody is a new reporting campaign.
type CampaignBody struct {
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Type          models.ReportType   `json:"type"`
	Center        *models.Coordinates `json:"center"`
	RadiusKm      float64             `json:"radius_km"`
	TargetReports int                 `json:"target_reports"`
	StartDate     time.Time           `json:"start_date"`
	EndDate       *time.Time          `json:"end_date"`
	CreatedBy     string              `json:"created_by"`
}

// CreateCampaignHandler handles POST /api/campaigns.
func (s *Server) CreateCampaignHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "create_campaign"

	var body CampaignBody
	if err := decodeBody(r, &body); err != nil {
		s.instrument(endpoint, "POST", "400", start)
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	campaign, err := s.Engine.CreateCampaign(r.Context(), engine.CampaignRequest{
		Name:          body.Name,
		Description:   body.Description,
		Type:          body.Type,
		Center:        body.Center,
		RadiusKm:      body.RadiusKm,
		TargetReports: body.TargetReports,
		StartDate:     body.StartDate,
		EndDate:       body.EndDate,
		CreatedBy:     body.CreatedBy,
	})
	if err != nil {
		s.engineError(w, endpoint, "POST", start, err)
		return
	}
	s.instrument(endpoint, "POST", "201", start)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, campaign)
}

// ListCampaignsHandler handles GET /api/campaigns.
func (s *Server) ListCampaignsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "list_campaigns"

	status := models.CampaignStatus(r.URL.Query().Get("status"))
	s.instrument(endpoint, "GET", "200", start)
	writeJSON(w, s.Engine.GetCampaigns(status))
}
