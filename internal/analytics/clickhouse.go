package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	_ "github.com/ClickHouse/clickhouse-go/v2"

	"github.com/crisisworks/openreportserve/internal/models"
	"github.com/crisisworks/openreportserve/internal/observability"
)

// AnalyticsService is the write side of the report event pipeline.
// Implementations should return ErrUnavailable when the underlying storage
// is not configured rather than failing the calling operation.
type AnalyticsService interface {
	// RecordReportEvent records one lifecycle event for a report.
	RecordReportEvent(ctx context.Context, ev ReportEvent) error
}

// ErrUnavailable is returned when the analytics DB is not configured.
var ErrUnavailable = fmt.Errorf("analytics unavailable")

// Analytics wraps a ClickHouse connection used as the append-only event sink
// for report lifecycle events. The in-memory store stays authoritative;
// ClickHouse exists for offline aggregation and dashboarding.
type Analytics struct {
	DB      *sql.DB
	Metrics observability.MetricsRegistry
}

// ReportEvent mirrors a row in the report_events table.
type ReportEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	EventType  string    `json:"event_type"` // submitted, verified, voted, flagged, merged, resolved, trend, alert
	ReportID   string    `json:"report_id"`
	ReporterID string    `json:"reporter_id"`
	ReportType string    `json:"report_type"`
	Category   string    `json:"category"`
	Priority   string    `json:"priority"`
	Status     string    `json:"status"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	Score      float64   `json:"score"`
	DeviceType string    `json:"device_type"`
	Country    string    `json:"country"`
	Actor      string    `json:"actor"`
	Detail     string    `json:"detail"`
}

// InitClickHouse connects to ClickHouse and ensures the report_events table
// exists.
func InitClickHouse(dsn string, metrics observability.MetricsRegistry) (*Analytics, error) {
	ch, err := sql.Open("clickhouse", dsn)
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	ch.SetMaxOpenConns(25)
	if err := ch.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}

	create := `CREATE TABLE IF NOT EXISTS report_events (
       timestamp   DateTime,
       event_type  String,
       report_id   String,
       reporter_id String,
       report_type String,
       category    String,
       priority    String,
       status      String,
       lat         Float64,
       lon         Float64,
       score       Float64,
       device_type Nullable(String),
       country     Nullable(String),
       actor       Nullable(String),
       detail      Nullable(String)
   ) ENGINE=MergeTree() ORDER BY (event_type, timestamp)`
	if _, err := ch.ExecContext(context.Background(), create); err != nil {
		return nil, fmt.Errorf("clickhouse create table: %w", err)
	}

	zap.L().Info("Connected to ClickHouse")
	return &Analytics{DB: ch, Metrics: metrics}, nil
}

// RecordReportEvent inserts a single event row into report_events.
func (a *Analytics) RecordReportEvent(ctx context.Context, ev ReportEvent) error {
	if a == nil || a.DB == nil {
		return ErrUnavailable
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	var dt, co, actor, detail sql.NullString
	if ev.DeviceType != "" {
		dt = sql.NullString{String: ev.DeviceType, Valid: true}
	}
	if ev.Country != "" {
		co = sql.NullString{String: ev.Country, Valid: true}
	}
	if ev.Actor != "" {
		actor = sql.NullString{String: ev.Actor, Valid: true}
	}
	if ev.Detail != "" {
		detail = sql.NullString{String: ev.Detail, Valid: true}
	}

	stmt := `INSERT INTO report_events (timestamp, event_type, report_id, reporter_id, report_type, category, priority, status, lat, lon, score, device_type, country, actor, detail) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := a.DB.ExecContext(ctx, stmt,
		ev.Timestamp, ev.EventType, ev.ReportID, ev.ReporterID, ev.ReportType,
		ev.Category, ev.Priority, ev.Status, ev.Lat, ev.Lon, ev.Score,
		dt, co, actor, detail,
	); err != nil {
		zap.L().Error("clickhouse insert failed", zap.Error(err), zap.String("event_type", ev.EventType))
		if a.Metrics != nil {
			a.Metrics.IncrementPersistErrors("clickhouse")
		}
		return fmt.Errorf("insert %s event: %w", ev.EventType, err)
	}
	return nil
}

// EventFromReport builds the common event fields for a report.
func EventFromReport(eventType string, r *models.Report) ReportEvent {
	ev := ReportEvent{
		EventType:  eventType,
		ReportID:   r.ID,
		ReporterID: r.Reporter.ID,
		ReportType: string(r.Type),
		Category:   r.Category,
		Priority:   string(r.Priority),
		Status:     string(r.Status),
		Lat:        r.Location.Lat,
		Lon:        r.Location.Lon,
		Score:      r.Verification.Score,
		Country:    r.Metadata.Country,
	}
	if r.Metadata.Device != nil {
		ev.DeviceType = r.Metadata.Device.DeviceType
	}
	return ev
}

// Close closes the underlying connection.
func (a *Analytics) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}
