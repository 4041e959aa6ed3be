package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/crisisworks/openreportserve/internal/config"
	"github.com/crisisworks/openreportserve/internal/engine"
	"github.com/crisisworks/openreportserve/internal/models"
	"github.com/crisisworks/openreportserve/internal/observability"
	"github.com/crisisworks/openreportserve/internal/ratelimit"
	"github.com/crisisworks/openreportserve/internal/token"
)

func newTestServer() *Server {
	store := models.NewInMemoryReportStore()
	eng := engine.New(store, config.DefaultLexicon(), config.DefaultPolicy(), engine.Options{
		Logger: zap.NewNop(),
	})
	return &Server{
		Logger:      zap.NewNop(),
		Engine:      eng,
		TokenSecret: []byte("secret"),
		TokenTTL:    time.Minute,
		Metrics:     observability.NewNoOpRegistry(),
	}
}

func submitBody() map[string]interface{} {
	return map[string]interface{}{
		"type":        "incident",
		"title":       "Tree down on Elm Street",
		"description": "A large oak fell across both lanes.",
		"location":    map[string]interface{}{"lat": 37.7749, "lon": -122.4194},
		"reporter":    map[string]interface{}{"id": "rep-1", "name": "Ada"},
	}
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func doJSONToken(t *testing.T, handler http.Handler, method, path, tok string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Report-Token", tok)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func submitOne(t *testing.T, srv *Server, mut func(map[string]interface{})) SubmitResponse {
	t.Helper()
	body := submitBody()
	if mut != nil {
		mut(body)
	}
	rec := doJSON(t, srv.Routes(), http.MethodPost, "/api/reports", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp SubmitResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestSubmitReportHandler(t *testing.T) {
	srv := newTestServer()

	resp := submitOne(t, srv, nil)
	require.NotNil(t, resp.Report)
	assert.Equal(t, models.StatusSubmitted, resp.Report.Status)
	assert.NotEmpty(t, resp.Token)

	// the token binds this report to its submitter
	p, err := token.Verify(resp.Token, srv.TokenSecret, srv.TokenTTL)
	require.NoError(t, err)
	assert.Equal(t, resp.Report.ID, p.ReportID)
	assert.Equal(t, "rep-1", p.ReporterID)
	assert.Equal(t, token.ScopeManage, p.Scope)
}

func TestSubmitReportHandler_InvalidJSON(t *testing.T) {
	srv := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/reports", bytes.NewBufferString("{nope"))
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitReportHandler_Validation(t *testing.T) {
	srv := newTestServer()

	body := submitBody()
	body["title"] = ""
	rec := doJSON(t, srv.Routes(), http.MethodPost, "/api/reports", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitReportHandler_RateLimited(t *testing.T) {
	srv := newTestServer()
	srv.Limiter = ratelimit.NewReporterLimiter(
		ratelimit.Config{Capacity: 2, RefillRate: 1, Enabled: true},
		observability.NewMockMetricsRegistry())

	router := srv.Routes()
	for i := 0; i < 2; i++ {
		rec := doJSON(t, router, http.MethodPost, "/api/reports", submitBody())
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	rec := doJSON(t, router, http.MethodPost, "/api/reports", submitBody())
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestGetReportHandler(t *testing.T) {
	srv := newTestServer()
	resp := submitOne(t, srv, nil)

	rec := doJSON(t, srv.Routes(), http.MethodGet, "/api/reports/"+resp.Report.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, resp.Report.ID, got.ID)

	rec = doJSON(t, srv.Routes(), http.MethodGet, "/api/reports/report-missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListReportsHandler(t *testing.T) {
	srv := newTestServer()
	router := srv.Routes()

	submitOne(t, srv, nil)
	submitOne(t, srv, func(b map[string]interface{}) {
		b["type"] = "hazard"
		b["title"] = "Gas leak near the school"
		b["reporter"] = map[string]interface{}{"id": "rep-2"}
		b["location"] = map[string]interface{}{"lat": 38.2, "lon": -122.0}
	})

	rec := doJSON(t, router, http.MethodGet, "/api/reports", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Total)

	rec = doJSON(t, router, http.MethodGet, "/api/reports?type=hazard", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)

	rec = doJSON(t, router, http.MethodGet, "/api/reports?priority=high", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)

	// geo filter needs all three parameters
	rec = doJSON(t, router, http.MethodGet, "/api/reports?lat=37.7", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/reports?lat=37.7749&lon=-122.4194&radius_km=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, 1, list.Total)
}

func TestUpdateReportHandler(t *testing.T) {
	srv := newTestServer()
	resp := submitOne(t, srv, nil)

	rec := doJSON(t, srv.Routes(), http.MethodPatch, "/api/reports/"+resp.Report.ID, map[string]interface{}{
		"status": "actionable",
		"actor":  "mod-1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, models.StatusActionable, got.Status)
}

func TestUpdateReportHandler_ReporterToken(t *testing.T) {
	srv := newTestServer()
	resp := submitOne(t, srv, nil)
	router := srv.Routes()
	path := "/api/reports/" + resp.Report.ID
	body := map[string]interface{}{
		"status":     "resolved",
		"actor_type": "reporter",
		"notes":      "crew cleared the tree this morning",
	}

	// no token at all
	rec := doJSON(t, router, http.MethodPatch, path, body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// a manage token for a different report
	other := submitOne(t, srv, func(m map[string]interface{}) {
		m["title"] = "Streetlight out on 3rd"
		m["description"] = "The corner light has been dark for a week."
		m["reporter"] = map[string]interface{}{"id": "rep-2", "name": "Grace"}
	})
	rec = doJSONToken(t, router, http.MethodPatch, path, other.Token, body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// a view-scope token for the right report
	view, err := token.Generate(resp.Report.ID, resp.Report.Reporter.ID, token.ScopeView, srv.TokenSecret)
	require.NoError(t, err)
	rec = doJSONToken(t, router, http.MethodPatch, path, view, body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// the manage token issued at submission passes, and the token decides
	// who the acting reporter is
	rec = doJSONToken(t, router, http.MethodPatch, path, resp.Token, body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, models.StatusResolved, got.Status)
	last := got.Timeline[len(got.Timeline)-1]
	assert.Equal(t, resp.Report.Reporter.ID, last.Actor)
}

func TestVoteHandler(t *testing.T) {
	srv := newTestServer()
	resp := submitOne(t, srv, nil)
	router := srv.Routes()
	path := "/api/reports/" + resp.Report.ID + "/vote"

	rec := doJSON(t, router, http.MethodPost, path, VoteBody{PrincipalID: "user-1", Kind: models.VoteUp})
	require.Equal(t, http.StatusOK, rec.Code)

	// duplicate vote conflicts
	rec = doJSON(t, router, http.MethodPost, path, VoteBody{PrincipalID: "user-1", Kind: models.VoteUp})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// unknown kind is a bad request
	rec = doJSON(t, router, http.MethodPost, path, VoteBody{PrincipalID: "user-2", Kind: "meh"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyReportHandler(t *testing.T) {
	srv := newTestServer()
	resp := submitOne(t, srv, nil)

	rec := doJSON(t, srv.Routes(), http.MethodPost, "/api/reports/"+resp.Report.ID+"/verify", VerifyBody{
		VerifierID:  "official-1",
		VerifierOrg: "City Public Works",
		Status:      models.VerificationVerified,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, models.StatusVerified, got.Status)
	assert.Equal(t, 100.0, got.Verification.Score)
}

func TestFlagAndResolveHandlers(t *testing.T) {
	srv := newTestServer()
	resp := submitOne(t, srv, nil)
	router := srv.Routes()
	id := resp.Report.ID

	for i := 0; i < 3; i++ {
		rec := doJSON(t, router, http.MethodPost, "/api/reports/"+id+"/flags", FlagBody{
			Type: "spam", ReportedBy: fmt.Sprintf("user-%d", i),
		})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, router, http.MethodGet, "/api/reports/"+id, nil)
	var got models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, models.StatusUnderReview, got.Status)

	rec = doJSON(t, router, http.MethodPost, "/api/reports/"+id+"/flags/0/resolve", ResolveFlagBody{
		Resolution: "legitimate report", Actor: "mod-1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/reports/"+id+"/flags/9/resolve", ResolveFlagBody{})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAssignmentHandlers(t *testing.T) {
	srv := newTestServer()
	resp := submitOne(t, srv, nil)
	router := srv.Routes()
	id := resp.Report.ID

	// updating before assigning conflicts
	rec := doJSON(t, router, http.MethodPatch, "/api/reports/"+id+"/assignment", AssignmentStatusBody{Status: "in_progress"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/reports/"+id+"/assign", AssignBody{
		AssignedTo: "crew-7", Organization: "Public Works",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPatch, "/api/reports/"+id+"/assignment", AssignmentStatusBody{Status: "completed"})
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, models.StatusResolved, got.Status)
}

func TestCommentHandler(t *testing.T) {
	srv := newTestServer()
	resp := submitOne(t, srv, nil)

	rec := doJSON(t, srv.Routes(), http.MethodPost, "/api/reports/"+resp.Report.ID+"/comments", CommentBody{
		AuthorID: "user-1", AuthorName: "Sam", Content: "still there this morning",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var got models.Comment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.NotEmpty(t, got.ID)
}

func TestMergeReportsHandler(t *testing.T) {
	srv := newTestServer()
	primary := submitOne(t, srv, nil)
	dup := submitOne(t, srv, func(b map[string]interface{}) {
		b["reporter"] = map[string]interface{}{"id": "rep-2"}
	})

	rec := doJSON(t, srv.Routes(), http.MethodPost, "/api/reports/merge", MergeBody{
		PrimaryID: primary.Report.ID, DuplicateIDs: []string{dup.Report.ID}, Actor: "mod-1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Contains(t, got.RelatedReports, dup.Report.ID)
}

func TestReporterHandler(t *testing.T) {
	srv := newTestServer()
	submitOne(t, srv, nil)

	rec := doJSON(t, srv.Routes(), http.MethodGet, "/api/reporters/rep-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var rep models.Reporter
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, 1, rep.Activity.TotalReports)

	rec = doJSON(t, srv.Routes(), http.MethodGet, "/api/reporters/rep-none", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTrendAndAlertHandlers(t *testing.T) {
	srv := newTestServer()
	router := srv.Routes()

	// a critical report raises an alert immediately
	submitOne(t, srv, func(b map[string]interface{}) {
		b["title"] = "Building fire downtown"
	})

	rec := doJSON(t, router, http.MethodGet, "/api/alerts?unresolved=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var alerts []models.Alert
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &alerts))
	require.Len(t, alerts, 1)

	rec = doJSON(t, router, http.MethodPost, "/api/alerts/"+alerts[0].ID+"/acknowledge", AcknowledgeBody{Actor: "ops-1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/alerts/"+alerts[0].ID+"/resolve", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/trends", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestCampaignHandlers(t *testing.T) {
	srv := newTestServer()
	router := srv.Routes()

	rec := doJSON(t, router, http.MethodPost, "/api/campaigns", CampaignBody{
		Name: "Storm damage survey", Type: models.ReportTypeDamage,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/campaigns", CampaignBody{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/campaigns?status=active", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var campaigns []models.Campaign
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &campaigns))
	assert.Len(t, campaigns, 1)
}

func TestStatsAndAnalyticsHandlers(t *testing.T) {
	srv := newTestServer()
	router := srv.Routes()
	submitOne(t, srv, nil)

	rec := doJSON(t, router, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var st engine.Statistics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, 1, st.TotalReports)

	rec = doJSON(t, router, http.MethodGet, "/api/analytics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/analytics?start=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReloadHandler(t *testing.T) {
	srv := newTestServer()

	rec := doJSON(t, srv.Routes(), http.MethodPost, "/reload", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	srv.Config.LexiconPath = "/nonexistent/lexicon.json"
	rec = doJSON(t, srv.Routes(), http.MethodPost, "/reload", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	srv := newTestServer()
	submitOne(t, srv, nil)

	rec := doJSON(t, srv.Routes(), http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ok", got.Status)
	assert.Equal(t, "disabled", got.Redis)
	assert.Equal(t, 1, got.TotalReports)
	assert.Equal(t, 1, got.TotalReporters)
}

func TestErrorMetricsCarryMappedStatus(t *testing.T) {
	srv := newTestServer()
	metrics := observability.NewMockMetricsRegistry()
	srv.Metrics = metrics
	router := srv.Routes()

	// a vote on a missing report responds 404, and the counter must say so
	rec := doJSON(t, router, http.MethodPost, "/api/reports/nope/vote", VoteBody{PrincipalID: "user-1", Kind: models.VoteUp})
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 1, metrics.Count("requests:vote:404"))
	assert.Equal(t, 0, metrics.Count("requests:vote:500"))

	// a duplicate vote responds 409
	resp := submitOne(t, srv, nil)
	path := "/api/reports/" + resp.Report.ID + "/vote"
	doJSON(t, router, http.MethodPost, path, VoteBody{PrincipalID: "user-1", Kind: models.VoteUp})
	rec = doJSON(t, router, http.MethodPost, path, VoteBody{PrincipalID: "user-1", Kind: models.VoteUp})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 1, metrics.Count("requests:vote:409"))
}
