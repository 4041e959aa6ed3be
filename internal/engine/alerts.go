package engine

import (
	"fmt"
	"time"

	"github.com/crisisworks/openreportserve/internal/config"
	"github.com/crisisworks/openreportserve/internal/models"
)

// checkAlertConditions inspects a just-persisted report for the two alert
// triggers: a dense cluster of recent reports around its location, and
// critical priority on the report itself. Triggered alerts are stored and
// returned.
func checkAlertConditions(store models.ReportDataStore, policy config.Policy, ids IDGenerator, r *models.Report, now time.Time) []*models.Alert {
	var alerts []*models.Alert

	nearby := store.ReportsNear(r.Location.Lat, r.Location.Lon, policy.ClusterRadiusKm, now.Add(-policy.ClusterWindow))
	if len(nearby) >= policy.ClusterMinReports {
		reportIDs := make([]string, 0, len(nearby))
		for _, n := range nearby {
			reportIDs = append(reportIDs, n.ID)
		}
		alert := &models.Alert{
			ID:          ids.NewID("alert"),
			Type:        models.AlertCluster,
			Severity:    "warning",
			Title:       "Report cluster detected",
			Description: fmt.Sprintf("%d reports in a %.1f km area within the last hour", len(nearby), policy.ClusterRadiusKm),
			Area:        &models.Area{Lat: r.Location.Lat, Lon: r.Location.Lon, RadiusKm: policy.ClusterRadiusKm},
			ReportIDs:   reportIDs,
			TriggeredAt: now,
		}
		if err := store.InsertAlert(alert); err == nil {
			alerts = append(alerts, alert)
		}
	}

	if r.Priority == models.PriorityCritical {
		alert := &models.Alert{
			ID:          ids.NewID("alert"),
			Type:        models.AlertCritical,
			Severity:    "critical",
			Title:       "Critical report submitted",
			Description: r.Title,
			ReportIDs:   []string{r.ID},
			TriggeredAt: now,
		}
		if err := store.InsertAlert(alert); err == nil {
			alerts = append(alerts, alert)
		}
	}

	return alerts
}
