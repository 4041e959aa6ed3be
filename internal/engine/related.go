package engine

import (
	"github.com/crisisworks/openreportserve/internal/config"
	"github.com/crisisworks/openreportserve/internal/models"
)

// findRelatedReports returns the ids of existing reports that plausibly
// describe the same event: within the duplicate radius, created inside the
// duplicate window, and sharing the new report's type or category. The
// result is best effort; a report inserted concurrently may be missed and
// linked by a later merge instead.
func findRelatedReports(store models.ReportDataStore, policy config.Policy, r *models.Report) []string {
	since := r.CreatedAt.Add(-policy.DuplicateWindow)
	nearby := store.ReportsNear(r.Location.Lat, r.Location.Lon, policy.DuplicateRadiusKm, since)

	var related []string
	for _, other := range nearby {
		if other.ID == r.ID {
			continue
		}
		if other.Type != r.Type && other.Category != r.Category {
			continue
		}
		related = append(related, other.ID)
	}
	return related
}
