package engine

import (
	"math"
	"sort"
	"time"

	"github.com/crisisworks/openreportserve/internal/models"
)

// Analytics summarizes report activity over a period.
type Analytics struct {
	PeriodStart             time.Time                     `json:"period_start"`
	PeriodEnd               time.Time                     `json:"period_end"`
	TotalReports            int                           `json:"total_reports"`
	ByType                  map[models.ReportType]int     `json:"by_type"`
	ByStatus                map[models.ReportStatus]int   `json:"by_status"`
	ByPriority              map[models.ReportPriority]int `json:"by_priority"`
	VerificationRate        float64                       `json:"verification_rate"`
	AvgVerificationMinutes  float64                       `json:"avg_verification_minutes"`
	AvgResolutionHours      float64                       `json:"avg_resolution_hours"`
	TopReporters            []ReporterRank                `json:"top_reporters"`
	Hotspots                []Hotspot                     `json:"hotspots"`
}

// ReporterRank is one entry in the top-reporter leaderboard.
type ReporterRank struct {
	ReporterID string `json:"reporter_id"`
	Name       string `json:"name,omitempty"`
	Reports    int    `json:"reports"`
	Verified   int    `json:"verified"`
}

// Hotspot is a geographic cell with elevated report density. Cells are
// rounded to two decimal places, roughly a kilometre at mid latitudes.
type Hotspot struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Reports int     `json:"reports"`
}

// Statistics is the live dashboard snapshot.
type Statistics struct {
	TotalReports     int `json:"total_reports"`
	VerifiedReports  int `json:"verified_reports"`
	ResolvedReports  int `json:"resolved_reports"`
	PendingReports   int `json:"pending_reports"`
	ReportsToday     int `json:"reports_today"`
	ReportsThisWeek  int `json:"reports_this_week"`
	TotalReporters   int `json:"total_reporters"`
	ActiveTrends     int `json:"active_trends"`
	ActiveCampaigns  int `json:"active_campaigns"`
	UnresolvedAlerts int `json:"unresolved_alerts"`
}

// GetAnalytics aggregates all reports created inside [start, end).
func (e *Engine) GetAnalytics(start, end time.Time) *Analytics {
	out := &Analytics{
		PeriodStart: start,
		PeriodEnd:   end,
		ByType:      make(map[models.ReportType]int),
		ByStatus:    make(map[models.ReportStatus]int),
		ByPriority:  make(map[models.ReportPriority]int),
	}

	var verified int
	var verifyMinutes, resolveHours float64
	var verifyN, resolveN int
	perReporter := make(map[string]*ReporterRank)
	hotspots := make(map[[2]float64]int)

	for _, r := range e.store.ReportsSince(start) {
		if !r.CreatedAt.Before(end) {
			continue
		}
		out.TotalReports++
		out.ByType[r.Type]++
		out.ByStatus[r.Status]++
		out.ByPriority[r.Priority]++

		isVerified := r.Verification.Status == models.VerificationVerified
		if isVerified {
			verified++
			if r.Verification.VerifiedAt != nil {
				verifyMinutes += r.Verification.VerifiedAt.Sub(r.CreatedAt).Minutes()
				verifyN++
			}
		}
		if r.Status == models.StatusResolved {
			resolveHours += r.UpdatedAt.Sub(r.CreatedAt).Hours()
			resolveN++
		}

		rank, ok := perReporter[r.Reporter.ID]
		if !ok {
			rank = &ReporterRank{ReporterID: r.Reporter.ID, Name: r.Reporter.Name}
			perReporter[r.Reporter.ID] = rank
		}
		rank.Reports++
		if isVerified {
			rank.Verified++
		}

		if r.Location.Lat != 0 || r.Location.Lon != 0 {
			cell := [2]float64{roundCoord(r.Location.Lat), roundCoord(r.Location.Lon)}
			hotspots[cell]++
		}
	}

	if out.TotalReports > 0 {
		out.VerificationRate = math.Round(float64(verified)/float64(out.TotalReports)*10000) / 100
	}
	if verifyN > 0 {
		out.AvgVerificationMinutes = math.Round(verifyMinutes/float64(verifyN)*100) / 100
	}
	if resolveN > 0 {
		out.AvgResolutionHours = math.Round(resolveHours/float64(resolveN)*100) / 100
	}

	for _, rank := range perReporter {
		out.TopReporters = append(out.TopReporters, *rank)
	}
	sort.Slice(out.TopReporters, func(i, j int) bool {
		a, b := out.TopReporters[i], out.TopReporters[j]
		if a.Reports != b.Reports {
			return a.Reports > b.Reports
		}
		return a.ReporterID < b.ReporterID
	})
	if len(out.TopReporters) > 10 {
		out.TopReporters = out.TopReporters[:10]
	}

	for cell, n := range hotspots {
		if n < 2 {
			continue
		}
		out.Hotspots = append(out.Hotspots, Hotspot{Lat: cell[0], Lon: cell[1], Reports: n})
	}
	sort.Slice(out.Hotspots, func(i, j int) bool {
		a, b := out.Hotspots[i], out.Hotspots[j]
		if a.Reports != b.Reports {
			return a.Reports > b.Reports
		}
		if a.Lat != b.Lat {
			return a.Lat < b.Lat
		}
		return a.Lon < b.Lon
	})

	return out
}

// GetStatistics computes the live counters. Today starts at local midnight
// of the engine clock; the week window is the trailing seven days.
func (e *Engine) GetStatistics() *Statistics {
	now := e.clock.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekAgo := now.Add(-7 * 24 * time.Hour)

	st := &Statistics{
		TotalReports:   e.store.CountReports(),
		TotalReporters: e.store.CountReporters(),
	}

	for _, r := range e.store.AllReports() {
		switch {
		case r.Verification.Status == models.VerificationVerified:
			st.VerifiedReports++
		case r.Status == models.StatusSubmitted || r.Status == models.StatusUnderReview:
			st.PendingReports++
		}
		if r.Status == models.StatusResolved {
			st.ResolvedReports++
		}
		if !r.CreatedAt.Before(midnight) {
			st.ReportsToday++
		}
		if !r.CreatedAt.Before(weekAgo) {
			st.ReportsThisWeek++
		}
	}

	for _, t := range e.store.AllTrends() {
		if t.Status != models.TrendClosed {
			st.ActiveTrends++
		}
	}
	for _, c := range e.store.AllCampaigns() {
		if c.Status == models.CampaignActive {
			st.ActiveCampaigns++
		}
	}
	for _, a := range e.store.AllAlerts() {
		if a.ResolvedAt == nil {
			st.UnresolvedAlerts++
		}
	}

	return st
}

func roundCoord(v float64) float64 {
	return math.Round(v*100) / 100
}

func sortTrendsByLastSeen(trends []*models.Trend) {
	sort.Slice(trends, func(i, j int) bool {
		if !trends[i].LastSeen.Equal(trends[j].LastSeen) {
			return trends[i].LastSeen.After(trends[j].LastSeen)
		}
		return trends[i].ID < trends[j].ID
	})
}

var alertSeverityRank = map[string]int{"critical": 0, "warning": 1, "info": 2}

func sortAlertsBySeverity(alerts []*models.Alert) {
	sort.Slice(alerts, func(i, j int) bool {
		ri, rj := alertSeverityRank[alerts[i].Severity], alertSeverityRank[alerts[j].Severity]
		if ri != rj {
			return ri < rj
		}
		if !alerts[i].TriggeredAt.Equal(alerts[j].TriggeredAt) {
			return alerts[i].TriggeredAt.After(alerts[j].TriggeredAt)
		}
		return alerts[i].ID < alerts[j].ID
	})
}
