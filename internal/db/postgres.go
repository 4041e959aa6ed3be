package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/crisisworks/openreportserve/internal/models"
)

// Postgres wraps a postgres DB connection. Reports and the other aggregates
// are persisted write-through as JSONB documents with key columns broken out
// for querying; the in-memory store remains the authoritative read path.
type Postgres struct {
	DB *sql.DB
}

// schemaSQL sets up the necessary tables if they don't exist.
const schemaSQL = `CREATE TABLE IF NOT EXISTS reports (
    id TEXT PRIMARY KEY,
    report_type TEXT NOT NULL,
    category TEXT NOT NULL,
    status TEXT NOT NULL,
    priority TEXT NOT NULL,
    reporter_id TEXT NOT NULL,
    lat DOUBLE PRECISION NOT NULL,
    lon DOUBLE PRECISION NOT NULL,
    created_at TIMESTAMPTZ NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    doc JSONB NOT NULL
);

CREATE INDEX IF NOT EXISTS reports_category_created_idx ON reports (category, created_at);
CREATE INDEX IF NOT EXISTS reports_reporter_idx ON reports (reporter_id);
CREATE INDEX IF NOT EXISTS reports_status_idx ON reports (status);

CREATE TABLE IF NOT EXISTS reporters (
    id TEXT PRIMARY KEY,
    tier TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    doc JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS trends (
    id TEXT PRIMARY KEY,
    category TEXT NOT NULL,
    status TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    doc JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS alerts (
    id TEXT PRIMARY KEY,
    alert_type TEXT NOT NULL,
    triggered_at TIMESTAMPTZ NOT NULL,
    doc JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS campaigns (
    id TEXT PRIMARY KEY,
    status TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL,
    doc JSONB NOT NULL
);`

// InitPostgres opens an instrumented connection, configures pooling and
// ensures the schema exists.
func InitPostgres(dsn string, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (*Postgres, error) {
	// Register the otelsql wrapper for postgres
	driverName, err := otelsql.Register("postgres",
		otelsql.WithAttributes(
			attribute.String("db.system", "postgresql"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("register otelsql: %w", err)
	}

	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres open: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	if err := sqlDB.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	p := &Postgres{DB: sqlDB}
	if err := p.ensureSchema(); err != nil {
		return nil, err
	}
	zap.L().Info("Connected to Postgres with connection pooling",
		zap.Int("max_open_conns", maxOpenConns),
		zap.Int("max_idle_conns", maxIdleConns),
		zap.Duration("conn_max_lifetime", connMaxLifetime))
	return p, nil
}

// Close terminates the Postgres connection.
func (p *Postgres) Close() {
	if p != nil && p.DB != nil {
		if err := p.DB.Close(); err != nil {
			zap.L().Error("postgres close", zap.Error(err))
		}
	}
}

// ensureSchema creates the required tables if they do not exist.
func (p *Postgres) ensureSchema() error {
	if _, err := p.DB.ExecContext(context.Background(), schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// UpsertReport persists the full report document with its key columns.
func (p *Postgres) UpsertReport(ctx context.Context, r *models.Report) error {
	doc, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report %s: %w", r.ID, err)
	}
	_, err = p.DB.ExecContext(ctx, `INSERT INTO reports (id, report_type, category, status, priority, reporter_id, lat, lon, created_at, updated_at, doc)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        ON CONFLICT (id) DO UPDATE SET status=EXCLUDED.status, priority=EXCLUDED.priority, updated_at=EXCLUDED.updated_at, doc=EXCLUDED.doc`,
		r.ID, string(r.Type), r.Category, string(r.Status), string(r.Priority), r.Reporter.ID,
		r.Location.Lat, r.Location.Lon, r.CreatedAt, r.UpdatedAt, doc)
	if err != nil {
		return fmt.Errorf("upsert report %s: %w", r.ID, err)
	}
	return nil
}

// LoadReports retrieves every persisted report, oldest first, so the
// in-memory indexes rebuild in submission order.
func (p *Postgres) LoadReports() ([]*models.Report, error) {
	rows, err := p.DB.QueryContext(context.Background(), `SELECT doc FROM reports ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []*models.Report
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		var r models.Report
		if err := json.Unmarshal(doc, &r); err != nil {
			return nil, fmt.Errorf("unmarshal report: %w", err)
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}

// UpsertReporter persists the reporter aggregate.
func (p *Postgres) UpsertReporter(ctx context.Context, rep *models.Reporter) error {
	doc, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal reporter %s: %w", rep.ID, err)
	}
	_, err = p.DB.ExecContext(ctx, `INSERT INTO reporters (id, tier, updated_at, doc) VALUES ($1,$2,$3,$4)
        ON CONFLICT (id) DO UPDATE SET tier=EXCLUDED.tier, updated_at=EXCLUDED.updated_at, doc=EXCLUDED.doc`,
		rep.ID, string(rep.Reputation.Tier), rep.UpdatedAt, doc)
	if err != nil {
		return fmt.Errorf("upsert reporter %s: %w", rep.ID, err)
	}
	return nil
}

// LoadReporters retrieves every persisted reporter aggregate.
func (p *Postgres) LoadReporters() ([]*models.Reporter, error) {
	return loadDocs[models.Reporter](p, `SELECT doc FROM reporters`)
}

// UpsertTrend persists the trend document.
func (p *Postgres) UpsertTrend(ctx context.Context, t *models.Trend) error {
	doc, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal trend %s: %w", t.ID, err)
	}
	_, err = p.DB.ExecContext(ctx, `INSERT INTO trends (id, category, status, updated_at, doc) VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (id) DO UPDATE SET status=EXCLUDED.status, updated_at=EXCLUDED.updated_at, doc=EXCLUDED.doc`,
		t.ID, t.Category, string(t.Status), t.UpdatedAt, doc)
	if err != nil {
		return fmt.Errorf("upsert trend %s: %w", t.ID, err)
	}
	return nil
}

// LoadTrends retrieves every persisted trend.
func (p *Postgres) LoadTrends() ([]*models.Trend, error) {
	return loadDocs[models.Trend](p, `SELECT doc FROM trends`)
}

// UpsertAlert persists the alert document.
func (p *Postgres) UpsertAlert(ctx context.Context, a *models.Alert) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal alert %s: %w", a.ID, err)
	}
	_, err = p.DB.ExecContext(ctx, `INSERT INTO alerts (id, alert_type, triggered_at, doc) VALUES ($1,$2,$3,$4)
        ON CONFLICT (id) DO UPDATE SET doc=EXCLUDED.doc`,
		a.ID, string(a.Type), a.TriggeredAt, doc)
	if err != nil {
		return fmt.Errorf("upsert alert %s: %w", a.ID, err)
	}
	return nil
}

// LoadAlerts retrieves every persisted alert.
func (p *Postgres) LoadAlerts() ([]*models.Alert, error) {
	return loadDocs[models.Alert](p, `SELECT doc FROM alerts`)
}

// UpsertCampaign persists the campaign document.
func (p *Postgres) UpsertCampaign(ctx context.Context, c *models.Campaign) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal campaign %s: %w", c.ID, err)
	}
	_, err = p.DB.ExecContext(ctx, `INSERT INTO campaigns (id, status, updated_at, doc) VALUES ($1,$2,$3,$4)
        ON CONFLICT (id) DO UPDATE SET status=EXCLUDED.status, updated_at=EXCLUDED.updated_at, doc=EXCLUDED.doc`,
		c.ID, string(c.Status), c.UpdatedAt, doc)
	if err != nil {
		return fmt.Errorf("upsert campaign %s: %w", c.ID, err)
	}
	return nil
}

// LoadCampaigns retrieves every persisted campaign.
func (p *Postgres) LoadCampaigns() ([]*models.Campaign, error) {
	return loadDocs[models.Campaign](p, `SELECT doc FROM campaigns`)
}

func loadDocs[T any](p *Postgres, query string) ([]*T, error) {
	rows, err := p.DB.QueryContext(context.Background(), query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var out []*T
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		var v T
		if err := json.Unmarshal(doc, &v); err != nil {
			return nil, fmt.Errorf("unmarshal: %w", err)
		}
		out = append(out, &v)
	}
	return out, rows.Err()
}
