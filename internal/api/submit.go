package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/crisisworks/openreportserve/internal/engine"
	"github.com/crisisworks/openreportserve/internal/middleware"
	"github.com/crisisworks/openreportserve/internal/models"
	"github.com/crisisworks/openreportserve/internal/token"
)

// SubmitRequestBody is the wire shape of a report submission.
type SubmitRequestBody struct {
	Type        models.ReportType   `json:"type"`
	Category    string              `json:"category"`
	Subcategory string              `json:"subcategory"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Location    models.Location     `json:"location"`
	Reporter    models.ReporterInfo `json:"reporter"`
	Media       []models.Media      `json:"media"`
	Tags        []string            `json:"tags"`
	Source      string              `json:"source"`
	Language    string              `json:"language_code"`
}

// SubmitResponse returns the stored report plus a manage token the submitter
// can use to follow up without an account.
type SubmitResponse struct {
	Report *models.Report `json:"report"`
	Token  string         `json:"token,omitempty"`
}

// SubmitReportHandler handles POST /api/reports.
func (s *Server) SubmitReportHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "submit"
	const method = "POST"
	logger := middleware.LoggerFromRequest(r, s.Logger)

	var body SubmitRequestBody
	if err := decodeBody(r, &body); err != nil {
		s.instrument(endpoint, method, "400", start)
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	limitKey := body.Reporter.ID
	if limitKey == "" {
		if ip := clientIP(r); ip != nil {
			limitKey = ip.String()
		} else {
			limitKey = "unknown"
		}
	}
	if s.Limiter != nil && !s.Limiter.Allow(limitKey) {
		logger.Warn("submission rate limited", zap.String("reporter_id", limitKey))
		s.instrument(endpoint, method, "429", start)
		writeError(w, http.StatusTooManyRequests, "submission rate limit exceeded")
		return
	}

	req := engine.SubmitRequest{
		Type:        body.Type,
		Category:    body.Category,
		Subcategory: body.Subcategory,
		Title:       body.Title,
		Description: body.Description,
		Location:    body.Location,
		Reporter:    body.Reporter,
		Media:       body.Media,
		Tags:        body.Tags,
		Metadata: s.requestMetadata(r, models.Metadata{
			Source:       body.Source,
			LanguageCode: body.Language,
		}),
	}

	report, err := s.Engine.SubmitReport(r.Context(), req)
	if err != nil {
		s.engineError(w, endpoint, method, start, err)
		return
	}

	if s.Store != nil {
		if _, err := s.Store.IncrementSubmission(report.Reporter.ID, time.Hour); err != nil {
			logger.Warn("submission counter", zap.Error(err))
		}
		if err := s.Store.IncrementDailyCount(report.Category); err != nil {
			logger.Warn("daily counter", zap.Error(err))
		}
	}

	resp := SubmitResponse{Report: report}
	if len(s.TokenSecret) > 0 {
		tok, err := token.Generate(report.ID, report.Reporter.ID, token.ScopeManage, s.TokenSecret)
		if err != nil {
			logger.Warn("issue manage token", zap.Error(err))
		} else {
			resp.Token = tok
		}
	}

	s.instrument(endpoint, method, "201", start)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, resp)
}
