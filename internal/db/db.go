package db

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/crisisworks/openreportserve/internal/models"
)

// WarmStore loads every persisted aggregate from Postgres into the in-memory
// store. Called once at startup before the server accepts traffic, so the
// store's indexes are rebuilt from durable state.
func WarmStore(pg *Postgres, store *models.InMemoryReportStore) error {
	reports, err := pg.LoadReports()
	if err != nil {
		return fmt.Errorf("load reports: %w", err)
	}
	for _, r := range reports {
		if err := store.InsertReport(r); err != nil {
			return fmt.Errorf("restore report %s: %w", r.ID, err)
		}
	}

	reporters, err := pg.LoadReporters()
	if err != nil {
		return fmt.Errorf("load reporters: %w", err)
	}
	for _, rep := range reporters {
		loaded := rep
		store.UpsertReporter(loaded.ID, func(dst *models.Reporter) {
			*dst = *loaded.Clone()
		})
	}

	trends, err := pg.LoadTrends()
	if err != nil {
		return fmt.Errorf("load trends: %w", err)
	}
	for _, t := range trends {
		if err := store.InsertTrend(t); err != nil {
			return fmt.Errorf("restore trend %s: %w", t.ID, err)
		}
	}

	alerts, err := pg.LoadAlerts()
	if err != nil {
		return fmt.Errorf("load alerts: %w", err)
	}
	for _, a := range alerts {
		if err := store.InsertAlert(a); err != nil {
			return fmt.Errorf("restore alert %s: %w", a.ID, err)
		}
	}

	campaigns, err := pg.LoadCampaigns()
	if err != nil {
		return fmt.Errorf("load campaigns: %w", err)
	}
	for _, c := range campaigns {
		if err := store.InsertCampaign(c); err != nil {
			return fmt.Errorf("restore campaign %s: %w", c.ID, err)
		}
	}

	zap.L().Info("Warmed in-memory store from Postgres",
		zap.Int("reports", len(reports)),
		zap.Int("reporters", len(reporters)),
		zap.Int("trends", len(trends)),
		zap.Int("alerts", len(alerts)),
		zap.Int("campaigns", len(campaigns)))
	return nil
}
