package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/crisisworks/openreportserve/internal/config"
	"github.com/crisisworks/openreportserve/internal/db"
	"github.com/crisisworks/openreportserve/internal/engine"
	"github.com/crisisworks/openreportserve/internal/geoip"
	"github.com/crisisworks/openreportserve/internal/middleware"
	"github.com/crisisworks/openreportserve/internal/observability"
	"github.com/crisisworks/openreportserve/internal/ratelimit"
)

// Server groups dependencies for HTTP handlers.
type Server struct {
	Logger      *zap.Logger
	Engine      *engine.Engine
	Store       *db.RedisStore
	GeoIP       *geoip.GeoIP
	Limiter     *ratelimit.ReporterLimiter
	TokenSecret []byte
	TokenTTL    time.Duration
	Metrics     observability.MetricsRegistry
	Config      config.Config
}

// NewServer constructs a Server.
func NewServer(logger *zap.Logger, eng *engine.Engine, store *db.RedisStore, geo *geoip.GeoIP, limiter *ratelimit.ReporterLimiter, secret []byte, ttl time.Duration, metrics observability.MetricsRegistry, cfg config.Config) *Server {
	if metrics == nil {
		metrics = observability.NewNoOpRegistry()
	}
	return &Server{
		Logger:      logger,
		Engine:      eng,
		Store:       store,
		GeoIP:       geo,
		Limiter:     limiter,
		TokenSecret: secret,
		TokenTTL:    ttl,
		Metrics:     metrics,
		Config:      cfg,
	}
}

// Routes builds the HTTP router. Handlers are wrapped with trace-aware
// logging; the caller mounts /metrics itself.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.WithTraceLogger(s.Logger))

	r.HandleFunc("/health", s.HealthHandler).Methods("GET")
	r.HandleFunc("/reload", s.ReloadHandler).Methods("POST")

	a := r.PathPrefix("/api").Subrouter()
	a.HandleFunc("/reports", s.SubmitReportHandler).Methods("POST")
	a.HandleFunc("/reports", s.ListReportsHandler).Methods("GET")
	a.HandleFunc("/reports/merge", s.MergeReportsHandler).Methods("POST")
	a.HandleFunc("/reports/{id}", s.GetReportHandler).Methods("GET")
	a.HandleFunc("/reports/{id}", s.UpdateReportHandler).Methods("PATCH")
	a.HandleFunc("/reports/{id}/verify", s.VerifyReportHandler).Methods("POST")
	a.HandleFunc("/reports/{id}/vote", s.VoteHandler).Methods("POST")
	a.HandleFunc("/reports/{id}/flags", s.FlagReportHandler).Methods("POST")
	a.HandleFunc("/reports/{id}/flags/{index}/resolve", s.ResolveFlagHandler).Methods("POST")
	a.HandleFunc("/reports/{id}/assign", s.AssignReportHandler).Methods("POST")
	a.HandleFunc("/reports/{id}/assignment", s.UpdateAssignmentHandler).Methods("PATCH")
	a.HandleFunc("/reports/{id}/comments", s.AddCommentHandler).Methods("POST")

	a.HandleFunc("/reporters/{id}", s.GetReporterHandler).Methods("GET")

	a.HandleFunc("/trends", s.ListTrendsHandler).Methods("GET")
	a.HandleFunc("/trends/{id}/status", s.UpdateTrendStatusHandler).Methods("PATCH")

	a.HandleFunc("/alerts", s.ListAlertsHandler).Methods("GET")
	a.HandleFunc("/alerts/{id}/acknowledge", s.AcknowledgeAlertHandler).Methods("POST")
	a.HandleFunc("/alerts/{id}/resolve", s.ResolveAlertHandler).Methods("POST")

	a.HandleFunc("/campaigns", s.ListCampaignsHandler).Methods("GET")
	a.HandleFunc("/campaigns", s.CreateCampaignHandler).Methods("POST")

	a.HandleFunc("/analytics", s.AnalyticsHandler).Methods("GET")
	a.HandleFunc("/stats", s.StatisticsHandler).Methods("GET")

	return r
}

// Handler wraps a router built by Routes with OpenTelemetry HTTP
// instrumentation.
func (s *Server) Handler(r *mux.Router) http.Handler {
	return otelhttp.NewHandler(r, "reportserve")
}
