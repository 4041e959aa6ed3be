package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/crisisworks/openreportserve/internal/engine"
	"github.com/crisisworks/openreportserve/internal/models"
	"github.com/crisisworks/openreportserve/internal/token"
)

// ListResponse is a page of reports plus the total match count.
type ListResponse struct {
	Reports []*models.Report `json:"reports"`
	Total   int              `json:"total"`
	Limit   int              `json:"limit"`
	Offset  int              `json:"offset"`
}

// ListReportsHandler handles GET /api/reports.
func (s *Server) ListReportsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "list_reports"

	f, err := filterFromQuery(r)
	if err != nil {
		s.instrument(endpoint, "GET", "400", start)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reports, total := s.Engine.ListReports(f)
	s.instrument(endpoint, "GET", "200", start)
	writeJSON(w, ListResponse{Reports: reports, Total: total, Limit: f.Limit, Offset: f.Offset})
}

func filterFromQuery(r *http.Request) (models.ReportFilter, error) {
	q := r.URL.Query()
	f := models.ReportFilter{
		Type:       models.ReportType(q.Get("type")),
		Category:   q.Get("category"),
		Status:     models.ReportStatus(q.Get("status")),
		Priority:   models.ReportPriority(q.Get("priority")),
		ReporterID: q.Get("reporter_id"),
		CampaignID: q.Get("campaign_id"),
		Search:     q.Get("q"),
		SortBy:     q.Get("sort"),
	}
	if v := q.Get("verified"); v != "" {
		f.VerifiedOnly, _ = strconv.ParseBool(v)
	}
	if v := q.Get("tags"); v != "" {
		f.Tags = strings.Split(v, ",")
	}
	if v := q.Get("lat"); v != "" {
		lat, errLat := strconv.ParseFloat(v, 64)
		lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
		radius, errRad := strconv.ParseFloat(q.Get("radius_km"), 64)
		if errLat != nil || errLon != nil || errRad != nil || radius <= 0 {
			return f, &engine.ValidationError{Field: "near", Reason: "lat, lon and radius_km must all be set"}
		}
		f.Near = &models.GeoFilter{Lat: lat, Lon: lon, RadiusKm: radius}
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, &engine.ValidationError{Field: "since", Reason: "must be RFC3339"}
		}
		f.Since = t
	}
	if v := q.Get("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, &engine.ValidationError{Field: "until", Reason: "must be RFC3339"}
		}
		f.Until = t
	}
	if v := q.Get("limit"); v != "" {
		f.Limit, _ = strconv.Atoi(v)
	}
	if v := q.Get("offset"); v != "" {
		f.Offset, _ = strconv.Atoi(v)
	}
	return f, nil
}

// GetReportHandler handles GET /api/reports/{id}.
func (s *Server) GetReportHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "get_report"

	report, err := s.Engine.GetReport(mux.Vars(r)["id"])
	if err != nil {
		s.engineError(w, endpoint, "GET", start, err)
		return
	}
	s.instrument(endpoint, "GET", "200", start)
	writeJSON(w, report)
}

// UpdateReportBody is the wire shape of a partial report update.
type UpdateReportBody struct {
	Status      *models.ReportStatus   `json:"status"`
	Priority    *models.ReportPriority `json:"priority"`
	Description *string                `json:"description"`
	Tags        []string               `json:"tags"`
	Actor       string                 `json:"actor"`
	ActorType   string                 `json:"actor_type"`
	Notes       string                 `json:"notes"`
}

// UpdateReportHandler handles PATCH /api/reports/{id}. Reporter-initiated
// updates must present the manage token issued at submission; there is no
// other identity to hold them to. Moderator and official actors pass.
func (s *Server) UpdateReportHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "update_report"

	var body UpdateReportBody
	if err := decodeBody(r, &body); err != nil {
		s.instrument(endpoint, "PATCH", "400", start)
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	id := mux.Vars(r)["id"]
	if body.ActorType == "reporter" && len(s.TokenSecret) > 0 {
		pl, err := s.verifyManageToken(r, id)
		if err != nil {
			s.instrument(endpoint, "PATCH", "401", start)
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		// the token, not the body, says who the reporter is
		body.Actor = pl.ReporterID
	}

	report, err := s.Engine.UpdateReport(r.Context(), id, engine.UpdateRequest{
		Status:      body.Status,
		Priority:    body.Priority,
		Description: body.Description,
		Tags:        body.Tags,
		Actor:       body.Actor,
		ActorType:   body.ActorType,
		Notes:       body.Notes,
	})
	if err != nil {
		s.engineError(w, endpoint, "PATCH", start, err)
		return
	}
	s.instrument(endpoint, "PATCH", "200", start)
	writeJSON(w, report)
}

// verifyManageToken checks the self-service token from the X-Report-Token
// header (or ?token=). It must verify, carry the manage scope and name the
// report being changed.
func (s *Server) verifyManageToken(r *http.Request, reportID string) (token.Payload, error) {
	tok := r.Header.Get("X-Report-Token")
	if tok == "" {
		tok = r.URL.Query().Get("token")
	}
	pl, err := token.Verify(tok, s.TokenSecret, s.TokenTTL)
	if err != nil {
		return pl, err
	}
	if pl.Scope != token.ScopeManage || pl.ReportID != reportID {
		return pl, token.ErrInvalid
	}
	return pl, nil
}

// GetReporterHandler handles GET /api/reporters/{id}.
func (s *Server) GetReporterHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "get_reporter"

	rep, err := s.Engine.GetReporter(mux.Vars(r)["id"])
	if err != nil {
		s.engineError(w, endpoint, "GET", start, err)
		return
	}
	s.instrument(endpoint, "GET", "200", start)
	writeJSON(w, rep)
}
