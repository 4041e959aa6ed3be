package main

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/crisisworks/openreportserve/internal/config"
	"github.com/crisisworks/openreportserve/internal/engine"
	"github.com/crisisworks/openreportserve/internal/models"
)

func newMCPServer() *ReportMCPServer {
	store := models.NewInMemoryReportStore()
	eng := engine.New(store, config.DefaultLexicon(), config.DefaultPolicy(), engine.Options{
		Logger: zap.NewNop(),
	})
	return &ReportMCPServer{eng: eng, logger: zap.NewNop()}
}

func TestSubmitAndSearchReports(t *testing.T) {
	s := newMCPServer()
	ctx := context.Background()

	_, out, err := s.SubmitReport(ctx, nil, SubmitReportInput{
		Type:        "hazard",
		Title:       "Downed power line on Oak Avenue",
		Description: "Line is sparking near the sidewalk.",
		Lat:         37.77,
		Lon:         -122.41,
		ReporterID:  "rep-1",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if out.Status != "submitted" {
		t.Fatalf("expected submitted, got %s", out.Status)
	}
	if out.Priority != "high" {
		t.Fatalf("expected high priority, got %s", out.Priority)
	}

	_, res, err := s.SearchReports(ctx, nil, SearchReportsInput{Type: "hazard"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Total != 1 {
		t.Fatalf("expected 1 report, got %d", res.Total)
	}
	if res.Reports[0].ID != out.ReportID {
		t.Fatalf("expected %s, got %s", out.ReportID, res.Reports[0].ID)
	}

	_, full, err := s.GetReport(ctx, nil, GetReportInput{ID: out.ReportID})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if full.Report.Title != "Downed power line on Oak Avenue" {
		t.Fatalf("unexpected title %q", full.Report.Title)
	}
}

func TestSubmitReportInvalid(t *testing.T) {
	s := newMCPServer()

	_, _, err := s.SubmitReport(context.Background(), nil, SubmitReportInput{
		Title: "No description",
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

func TestGetReportMissing(t *testing.T) {
	s := newMCPServer()

	_, _, err := s.GetReport(context.Background(), nil, GetReportInput{ID: "report-missing"})
	if err == nil {
		t.Fatal("expected error for missing report")
	}
}

func TestGetStatistics(t *testing.T) {
	s := newMCPServer()
	ctx := context.Background()

	_, _, err := s.SubmitReport(ctx, nil, SubmitReportInput{
		Title:       "Flooded underpass",
		Description: "Water is two feet deep under the rail bridge.",
		Lat:         37.7,
		Lon:         -122.4,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, out, err := s.GetStatistics(ctx, nil, GetStatisticsInput{})
	if err != nil {
		t.Fatalf("statistics: %v", err)
	}
	if out.Statistics.TotalReports != 1 {
		t.Fatalf("expected 1 report, got %d", out.Statistics.TotalReports)
	}
}
