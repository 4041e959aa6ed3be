package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseTime() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func testReport(id string, opts ...func(*Report)) *Report {
	r := &Report{
		ID:       id,
		Type:     ReportTypeIncident,
		Category: "incident",
		Status:   StatusSubmitted,
		Priority: PriorityMedium,
		Title:    "Flooded underpass",
		Description: "Water rising near the 5th street underpass",
		Location: Location{Lat: 37.7749, Lon: -122.4194, GeocodeSource: "gps"},
		Reporter: ReporterInfo{ID: "rep-1", Type: "registered", CredibilityTier: TierNew},
		Verification: Verification{Status: VerificationPending},
		CreatedAt: baseTime(),
		UpdatedAt: baseTime(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func TestInsertAndGetReport(t *testing.T) {
	s := NewInMemoryReportStore()
	require.NoError(t, s.InsertReport(testReport("r1")))

	got, err := s.GetReport("r1")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ID)
	assert.Equal(t, StatusSubmitted, got.Status)

	err = s.InsertReport(testReport("r1"))
	assert.Error(t, err)

	_, err = s.GetReport("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetReportReturnsClone(t *testing.T) {
	s := NewInMemoryReportStore()
	require.NoError(t, s.InsertReport(testReport("r1")))

	a, err := s.GetReport("r1")
	require.NoError(t, err)
	a.Title = "mutated"
	a.Tags = append(a.Tags, "x")

	b, err := s.GetReport("r1")
	require.NoError(t, err)
	assert.Equal(t, "Flooded underpass", b.Title)
	assert.Empty(t, b.Tags)
}

func TestUpdateReport(t *testing.T) {
	s := NewInMemoryReportStore()
	require.NoError(t, s.InsertReport(testReport("r1")))

	updated, err := s.UpdateReport("r1", func(r *Report) error {
		r.Status = StatusVerified
		r.Votes.Upvotes++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, updated.Status)
	assert.Equal(t, 1, updated.Votes.Upvotes)

	got, err := s.GetReport("r1")
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, got.Status)

	_, err = s.UpdateReport("missing", func(r *Report) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReportsByReporter(t *testing.T) {
	s := NewInMemoryReportStore()
	require.NoError(t, s.InsertReport(testReport("r1")))
	require.NoError(t, s.InsertReport(testReport("r2", func(r *Report) {
		r.Reporter.ID = "rep-2"
	})))
	require.NoError(t, s.InsertReport(testReport("r3")))

	mine := s.ReportsByReporter("rep-1")
	require.Len(t, mine, 2)
	assert.Equal(t, "r1", mine[0].ID)
	assert.Equal(t, "r3", mine[1].ID)

	assert.Empty(t, s.ReportsByReporter("nobody"))
}

func TestReportsByCategorySince(t *testing.T) {
	s := NewInMemoryReportStore()
	require.NoError(t, s.InsertReport(testReport("old", func(r *Report) {
		r.CreatedAt = baseTime().Add(-48 * time.Hour)
	})))
	require.NoError(t, s.InsertReport(testReport("new")))
	require.NoError(t, s.InsertReport(testReport("other", func(r *Report) {
		r.Category = "hazard"
	})))

	got := s.ReportsByCategorySince("incident", baseTime().Add(-time.Hour))
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)
}

func TestReportsNear(t *testing.T) {
	s := NewInMemoryReportStore()
	// ~300 m east of the base point
	require.NoError(t, s.InsertReport(testReport("close", func(r *Report) {
		r.Location.Lon = -122.4160
	})))
	// ~5 km away
	require.NoError(t, s.InsertReport(testReport("far", func(r *Report) {
		r.Location.Lat = 37.8200
	})))
	// nearby but too old
	require.NoError(t, s.InsertReport(testReport("stale", func(r *Report) {
		r.CreatedAt = baseTime().Add(-72 * time.Hour)
	})))

	got := s.ReportsNear(37.7749, -122.4194, 0.5, baseTime().Add(-24*time.Hour))
	ids := make([]string, 0, len(got))
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{"close"}, ids)
}

func TestQueryReportsFilterSortAndPage(t *testing.T) {
	s := NewInMemoryReportStore()
	require.NoError(t, s.InsertReport(testReport("a", func(r *Report) {
		r.Priority = PriorityLow
		r.CreatedAt = baseTime().Add(-3 * time.Hour)
	})))
	require.NoError(t, s.InsertReport(testReport("b", func(r *Report) {
		r.Priority = PriorityCritical
		r.CreatedAt = baseTime().Add(-2 * time.Hour)
	})))
	require.NoError(t, s.InsertReport(testReport("c", func(r *Report) {
		r.Priority = PriorityCritical
		r.CreatedAt = baseTime().Add(-1 * time.Hour)
		r.Tags = []string{"flooding"}
	})))
	require.NoError(t, s.InsertReport(testReport("d", func(r *Report) {
		r.Priority = PriorityLow
		r.CreatedAt = baseTime()
		r.Tags = []string{"road"}
	})))

	// default ordering is priority then recency: the freshest low-priority
	// report still lands behind the older critical ones
	got, total := s.QueryReports(ReportFilter{})
	require.Equal(t, 4, total)
	require.Len(t, got, 4)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "d", got[2].ID)
	assert.Equal(t, "a", got[3].ID)

	got, _ = s.QueryReports(ReportFilter{SortBy: "created_at"})
	require.Len(t, got, 4)
	assert.Equal(t, "d", got[0].ID)
	assert.Equal(t, "c", got[1].ID)

	got, total = s.QueryReports(ReportFilter{Priority: PriorityCritical, Limit: 1, Offset: 1})
	assert.Equal(t, 2, total)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)

	got, total = s.QueryReports(ReportFilter{Tags: []string{"FLOODING"}})
	assert.Equal(t, 1, total)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)

	// multi-tag queries match any requested tag
	got, total = s.QueryReports(ReportFilter{Tags: []string{"flooding", "road"}})
	assert.Equal(t, 2, total)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "d", got[1].ID)

	got, _ = s.QueryReports(ReportFilter{Search: "underpass"})
	assert.Len(t, got, 4)
	got, _ = s.QueryReports(ReportFilter{Search: "earthquake"})
	assert.Empty(t, got)

	got, total = s.QueryReports(ReportFilter{Offset: 10})
	assert.Equal(t, 4, total)
	assert.Empty(t, got)
}

func TestQueryReportsVerifiedOnly(t *testing.T) {
	s := NewInMemoryReportStore()
	require.NoError(t, s.InsertReport(testReport("pending")))
	require.NoError(t, s.InsertReport(testReport("verified", func(r *Report) {
		r.Verification.Status = VerificationVerified
	})))

	got, total := s.QueryReports(ReportFilter{VerifiedOnly: true})
	assert.Equal(t, 1, total)
	require.Len(t, got, 1)
	assert.Equal(t, "verified", got[0].ID)
}

func TestUpsertReporter(t *testing.T) {
	s := NewInMemoryReportStore()

	rep := s.UpsertReporter("rep-1", func(r *Reporter) {
		r.Activity.TotalReports++
	})
	assert.Equal(t, 1, rep.Activity.TotalReports)
	assert.Equal(t, TierNew, rep.Reputation.Tier)

	rep = s.UpsertReporter("rep-1", func(r *Reporter) {
		r.Activity.TotalReports++
	})
	assert.Equal(t, 2, rep.Activity.TotalReports)
	assert.Equal(t, 1, s.CountReporters())

	got, err := s.GetReporter("rep-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Activity.TotalReports)

	_, err = s.GetReporter("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTrendLifecycle(t *testing.T) {
	s := NewInMemoryReportStore()
	trend := &Trend{ID: "t1", Category: "incident", Status: TrendNew, ReportIDs: []string{"r1"}}
	require.NoError(t, s.InsertTrend(trend))

	_, err := s.UpdateTrend("t1", func(tr *Trend) error {
		tr.Status = TrendAcknowledged
		tr.ReportIDs = append(tr.ReportIDs, "r2")
		return nil
	})
	require.NoError(t, err)

	got, err := s.GetTrend("t1")
	require.NoError(t, err)
	assert.Equal(t, TrendAcknowledged, got.Status)
	assert.Len(t, got.ReportIDs, 2)
	assert.Len(t, s.AllTrends(), 1)
}

func TestHaversineKm(t *testing.T) {
	// SF to LA is roughly 559 km
	d := HaversineKm(37.7749, -122.4194, 34.0522, -118.2437)
	assert.InDelta(t, 559, d, 10)

	assert.InDelta(t, 0, HaversineKm(37.7749, -122.4194, 37.7749, -122.4194), 0.001)
}
