package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/crisisworks/openreportserve/internal/config"
	"github.com/crisisworks/openreportserve/internal/db"
	"github.com/crisisworks/openreportserve/internal/engine"
	"github.com/crisisworks/openreportserve/internal/models"
)

// SearchReportsInput filters the report index.
type SearchReportsInput struct {
	Type       string  `json:"type,omitempty"`
	Category   string  `json:"category,omitempty"`
	Status     string  `json:"status,omitempty"`
	Priority   string  `json:"priority,omitempty"`
	Query      string  `json:"query,omitempty"`
	Lat        float64 `json:"lat,omitempty"`
	Lon        float64 `json:"lon,omitempty"`
	RadiusKm   float64 `json:"radius_km,omitempty"`
	Limit      int     `json:"limit,omitempty"`
	SortBy     string  `json:"sort_by,omitempty"`
	Verified   bool    `json:"verified_only,omitempty"`
	ReporterID string  `json:"reporter_id,omitempty"`
}

// ReportSummary is the condensed report shape returned to MCP clients. The
// full document carries timelines and vote ledgers that only clutter a
// situational-awareness query.
type ReportSummary struct {
	ID           string  `json:"id"`
	Type         string  `json:"type"`
	Category     string  `json:"category"`
	Title        string  `json:"title"`
	Status       string  `json:"status"`
	Priority     string  `json:"priority"`
	UrgencyScore int     `json:"urgency_score"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	VerifyScore  float64 `json:"verification_score"`
	CreatedAt    string  `json:"created_at"`
}

type SearchReportsOutput struct {
	Reports []ReportSummary `json:"reports"`
	Total   int             `json:"total"`
}

type GetReportInput struct {
	ID string `json:"id"`
}

type GetReportOutput struct {
	Report *models.Report `json:"report"`
}

type SubmitReportInput struct {
	Type        string  `json:"type,omitempty"`
	Category    string  `json:"category,omitempty"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	ReporterID  string  `json:"reporter_id,omitempty"`
}

type SubmitReportOutput struct {
	ReportID string `json:"report_id"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
	Message  string `json:"message"`
}

type GetTrendsInput struct {
	Category    string `json:"category,omitempty"`
	Status      string `json:"status,omitempty"`
	MinSeverity string `json:"min_severity,omitempty"`
}

type GetTrendsOutput struct {
	Trends []*models.Trend `json:"trends"`
}

type GetAlertsInput struct {
	UnresolvedOnly bool `json:"unresolved_only,omitempty"`
}

type GetAlertsOutput struct {
	Alerts []*models.Alert `json:"alerts"`
}

type GetStatisticsInput struct{}

type GetStatisticsOutput struct {
	Statistics *engine.Statistics `json:"statistics"`
}

// ReportMCPServer holds the dependencies shared by the tool handlers.
type ReportMCPServer struct {
	eng    *engine.Engine
	logger *zap.Logger
}

// SearchReports implements the search_reports tool.
func (s *ReportMCPServer) SearchReports(ctx context.Context, req *mcp.CallToolRequest, input SearchReportsInput) (*mcp.CallToolResult, SearchReportsOutput, error) {
	f := models.ReportFilter{
		Type:         models.ReportType(input.Type),
		Category:     input.Category,
		Status:       models.ReportStatus(input.Status),
		Priority:     models.ReportPriority(input.Priority),
		ReporterID:   input.ReporterID,
		VerifiedOnly: input.Verified,
		Search:       input.Query,
		SortBy:       input.SortBy,
		Limit:        input.Limit,
	}
	if input.RadiusKm > 0 {
		f.Near = &models.GeoFilter{Lat: input.Lat, Lon: input.Lon, RadiusKm: input.RadiusKm}
	}

	reports, total := s.eng.ListReports(f)
	s.logger.Info("search_reports",
		zap.Int("matched", total),
		zap.Int("returned", len(reports)))

	out := SearchReportsOutput{Total: total, Reports: make([]ReportSummary, 0, len(reports))}
	for _, r := range reports {
		out.Reports = append(out.Reports, ReportSummary{
			ID:           r.ID,
			Type:         string(r.Type),
			Category:     r.Category,
			Title:        r.Title,
			Status:       string(r.Status),
			Priority:     string(r.Priority),
			UrgencyScore: r.UrgencyScore,
			Lat:          r.Location.Lat,
			Lon:          r.Location.Lon,
			VerifyScore:  r.Verification.Score,
			CreatedAt:    r.CreatedAt.Format(time.RFC3339),
		})
	}
	return nil, out, nil
}

// GetReport implements the get_report tool.
func (s *ReportMCPServer) GetReport(ctx context.Context, req *mcp.CallToolRequest, input GetReportInput) (*mcp.CallToolResult, GetReportOutput, error) {
	r, err := s.eng.GetReport(input.ID)
	if err != nil {
		return nil, GetReportOutput{}, fmt.Errorf("report %s: %w", input.ID, err)
	}
	return nil, GetReportOutput{Report: r}, nil
}

// SubmitReport implements the submit_report tool. Reports submitted over MCP
// run the same triage, verification and trend pipeline as API submissions.
func (s *ReportMCPServer) SubmitReport(ctx context.Context, req *mcp.CallToolRequest, input SubmitReportInput) (*mcp.CallToolResult, SubmitReportOutput, error) {
	subReq := engine.SubmitRequest{
		Type:        models.ReportType(input.Type),
		Category:    input.Category,
		Title:       input.Title,
		Description: input.Description,
		Location:    models.Location{Lat: input.Lat, Lon: input.Lon},
	}
	if input.ReporterID != "" {
		subReq.Reporter = models.ReporterInfo{ID: input.ReporterID}
	}

	r, err := s.eng.SubmitReport(ctx, subReq)
	if err != nil {
		return nil, SubmitReportOutput{}, fmt.Errorf("submit report: %w", err)
	}

	s.logger.Info("submit_report",
		zap.String("report_id", r.ID),
		zap.String("priority", string(r.Priority)))

	return nil, SubmitReportOutput{
		ReportID: r.ID,
		Status:   string(r.Status),
		Priority: string(r.Priority),
		Message:  fmt.Sprintf("Report '%s' accepted", r.Title),
	}, nil
}

// GetTrends implements the get_trends tool.
func (s *ReportMCPServer) GetTrends(ctx context.Context, req *mcp.CallToolRequest, input GetTrendsInput) (*mcp.CallToolResult, GetTrendsOutput, error) {
	trends := s.eng.GetTrends(engine.TrendFilter{
		Category:    input.Category,
		Status:      models.TrendStatus(input.Status),
		MinSeverity: input.MinSeverity,
	})
	return nil, GetTrendsOutput{Trends: trends}, nil
}

// GetAlerts implements the get_alerts tool.
func (s *ReportMCPServer) GetAlerts(ctx context.Context, req *mcp.CallToolRequest, input GetAlertsInput) (*mcp.CallToolResult, GetAlertsOutput, error) {
	return nil, GetAlertsOutput{Alerts: s.eng.GetAlerts(input.UnresolvedOnly)}, nil
}

// GetStatistics implements the get_statistics tool.
func (s *ReportMCPServer) GetStatistics(ctx context.Context, req *mcp.CallToolRequest, input GetStatisticsInput) (*mcp.CallToolResult, GetStatisticsOutput, error) {
	return nil, GetStatisticsOutput{Statistics: s.eng.GetStatistics()}, nil
}

func main() {
	// Log to stderr so stdout stays clean for the MCP stdio transport.
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.MessageKey = "msg"

	logger, err := zcfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger = logger.Named("reportserve-mcp").With(zap.String("service", "reportserve-mcp"))

	logger.Info("Starting reportserve MCP server")

	cfg := config.Load()

	store := models.NewInMemoryReportStore()

	var persister engine.Persister
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		pg, err := db.InitPostgres(dsn, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns, cfg.DBConnMaxLifetime, cfg.DBConnMaxIdleTime)
		if err != nil {
			logger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		defer pg.Close()
		if err := db.WarmStore(pg, store); err != nil {
			logger.Fatal("Failed to warm report store", zap.Error(err))
		}
		persister = pg
		logger.Info("Connected to PostgreSQL",
			zap.Int("reports", store.CountReports()))
	} else {
		logger.Warn("POSTGRES_DSN not set, running on an empty in-memory store")
	}

	lex := config.DefaultLexicon()
	if cfg.LexiconPath != "" {
		lex, err = config.LoadLexicon(cfg.LexiconPath)
		if err != nil {
			logger.Fatal("Failed to load lexicon", zap.Error(err))
		}
	}

	eng := engine.New(store, lex, cfg.Policy, engine.Options{
		Persister: persister,
		Logger:    logger,
	})

	mcpSrv := &ReportMCPServer{eng: eng, logger: logger}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "reportserve",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_reports",
		Description: "Search incident reports by type, category, status, priority, text or geographic area",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"type": map[string]interface{}{
					"type":        "string",
					"description": "Report type (incident, hazard, damage, missing_person, resource_need, infrastructure, other)",
				},
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Report category",
				},
				"status": map[string]interface{}{
					"type":        "string",
					"description": "Report status (submitted, under_review, verified, actionable, assigned, resolved, rejected, duplicate)",
				},
				"priority": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"critical", "high", "medium", "low"},
					"description": "Priority tier",
				},
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Free-text search over title, description and tags",
				},
				"lat": map[string]interface{}{
					"type":        "number",
					"description": "Latitude of the search center (requires lon and radius_km)",
				},
				"lon": map[string]interface{}{
					"type":        "number",
					"description": "Longitude of the search center",
				},
				"radius_km": map[string]interface{}{
					"type":        "number",
					"description": "Search radius in kilometers",
				},
				"verified_only": map[string]interface{}{
					"type":        "boolean",
					"description": "Only return officially or automatically verified reports",
				},
				"reporter_id": map[string]interface{}{
					"type":        "string",
					"description": "Only return reports from this reporter",
				},
				"sort_by": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"priority", "created_at", "urgency", "votes"},
					"description": "Sort order (defaults to created_at descending)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of reports to return",
				},
			},
		},
	}, mcpSrv.SearchReports)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_report",
		Description: "Fetch a single incident report with its full verification, timeline and vote detail",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Report ID",
				},
			},
			"required": []string{"id"},
		},
	}, mcpSrv.GetReport)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "submit_report",
		Description: "Submit a new incident report through the triage and verification pipeline",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"type": map[string]interface{}{
					"type":        "string",
					"description": "Report type (defaults to other)",
				},
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Report category (defaults to the type)",
				},
				"title": map[string]interface{}{
					"type":        "string",
					"description": "Short report title",
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "Full description of the incident",
				},
				"lat": map[string]interface{}{
					"type":        "number",
					"description": "Incident latitude",
				},
				"lon": map[string]interface{}{
					"type":        "number",
					"description": "Incident longitude",
				},
				"reporter_id": map[string]interface{}{
					"type":        "string",
					"description": "Reporter ID (omit for an anonymous submission)",
				},
			},
			"required": []string{"title", "description", "lat", "lon"},
		},
	}, mcpSrv.SubmitReport)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_trends",
		Description: "List detected incident trends, optionally filtered by category, status or minimum severity",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"category": map[string]interface{}{
					"type":        "string",
					"description": "Trend category",
				},
				"status": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"new", "acknowledged", "investigating", "action_taken", "closed"},
					"description": "Trend status",
				},
				"min_severity": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"low", "medium", "high", "critical"},
					"description": "Minimum severity to include",
				},
			},
		},
	}, mcpSrv.GetTrends)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_alerts",
		Description: "List cluster and critical-report alerts",
		InputSchema: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"unresolved_only": map[string]interface{}{
					"type":        "boolean",
					"description": "Only return alerts that have not been resolved",
				},
			},
		},
	}, mcpSrv.GetAlerts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_statistics",
		Description: "Get platform-wide report, reporter, trend and alert counts",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{},
		},
	}, mcpSrv.GetStatistics)

	stdioTransport := &mcp.StdioTransport{}

	var logBuffer bytes.Buffer
	loggingTransport := &mcp.LoggingTransport{
		Transport: stdioTransport,
		Writer:    &logBuffer,
	}

	logger.Info("MCP server running via stdio")

	if err := server.Run(context.Background(), loggingTransport); err != nil {
		logger.Fatal("Server error", zap.Error(err), zap.String("mcp_logs", logBuffer.String()))
	}
}
