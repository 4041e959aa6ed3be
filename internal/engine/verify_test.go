package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crisisworks/openreportserve/internal/config"
	"github.com/crisisworks/openreportserve/internal/models"
)

func verifiableReport(tier models.CredibilityTier) *models.Report {
	return &models.Report{
		ID:          "report-v1",
		Status:      models.StatusSubmitted,
		Description: strings.Repeat("detailed account of the event ", 3),
		Location:    models.Location{Lat: 37.77, Lon: -122.41, AccuracyM: 10},
		Reporter:    models.ReporterInfo{ID: "rep-1", CredibilityScore: 80, CredibilityTier: tier},
		Media: []models.Media{
			{ID: "attach-1", Type: models.MediaPhoto, Captured: &models.CaptureMeta{Geotagged: true, Lat: 37.77, Lon: -122.41}},
		},
		Verification: models.Verification{Status: models.VerificationPending},
	}
}

func TestRunAutoVerificationPromotes(t *testing.T) {
	policy := config.DefaultPolicy()
	r := verifiableReport(models.TierBronze)

	promoted := runAutoVerification(policy, r)

	require.True(t, promoted)
	// 20 location + 25 media + 24 credibility + 10 text
	assert.Equal(t, 79.0, r.Verification.Score)
	assert.Equal(t, models.VerificationVerified, r.Verification.Status)
	assert.Equal(t, models.StatusVerified, r.Status)
	assert.True(t, r.Verification.Auto.LocationMatch)
	assert.True(t, r.Verification.Auto.MediaAnalysis)
	assert.True(t, r.Verification.Auto.TextAnalysis)
	assert.Equal(t, []string{"location", "media", "text"}, r.Verification.Methods)
}

func TestRunAutoVerificationNewReporterNeverPromoted(t *testing.T) {
	policy := config.DefaultPolicy()
	r := verifiableReport(models.TierNew)

	promoted := runAutoVerification(policy, r)

	assert.False(t, promoted)
	// the score is still computed and recorded
	assert.Equal(t, 79.0, r.Verification.Score)
	assert.Equal(t, models.VerificationPending, r.Verification.Status)
	assert.Equal(t, models.StatusSubmitted, r.Status)
}

func TestRunAutoVerificationBelowThreshold(t *testing.T) {
	policy := config.DefaultPolicy()
	r := verifiableReport(models.TierGold)
	r.Location.AccuracyM = 500 // coarse fix earns nothing
	r.Media = nil

	promoted := runAutoVerification(policy, r)

	assert.False(t, promoted)
	// 24 credibility + 10 text
	assert.Equal(t, 34.0, r.Verification.Score)
	assert.False(t, r.Verification.Auto.LocationMatch)
	assert.Equal(t, []string{"text"}, r.Verification.Methods)
}

func TestRunAutoVerificationZeroAccuracyIsUnknown(t *testing.T) {
	policy := config.DefaultPolicy()
	r := verifiableReport(models.TierGold)
	r.Location.AccuracyM = 0

	runAutoVerification(policy, r)
	assert.False(t, r.Verification.Auto.LocationMatch)
}

func TestApplyCommunityAdjustment(t *testing.T) {
	tests := []struct {
		name  string
		tally models.CommunityTally
		start float64
		want  float64
	}{
		{"single upvote", models.CommunityTally{Upvotes: 1}, 50, 50.4},
		{"corroboration outweighs upvote", models.CommunityTally{Corroborations: 1}, 50, 50.6},
		{"downvotes subtract", models.CommunityTally{Upvotes: 2, Downvotes: 5}, 50, 49.8},
		{"clamped low", models.CommunityTally{Downvotes: 300}, 10, 0},
		{"clamped high", models.CommunityTally{Corroborations: 100}, 80, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &models.Report{Verification: models.Verification{Score: tt.start, Community: tt.tally}}
			applyCommunityAdjustment(r)
			assert.InDelta(t, tt.want, r.Verification.Score, 1e-9)
		})
	}
}

func TestCredibilityTier(t *testing.T) {
	tests := []struct {
		score, reports int
		want           models.CredibilityTier
	}{
		{100, 0, models.TierNew},
		{199, 10, models.TierNew},
		{200, 5, models.TierBronze},
		{500, 20, models.TierSilver},
		{700, 50, models.TierGold},
		{900, 100, models.TierPlatinum},
		{900, 99, models.TierGold},   // score alone is not enough
		{499, 40, models.TierBronze}, // falls back to the highest tier both gates pass
	}

	for _, tt := range tests {
		got := CredibilityTier(tt.score, tt.reports)
		assert.Equal(t, tt.want, got, "score=%d reports=%d", tt.score, tt.reports)
	}
}

func TestApplyReporterOutcome(t *testing.T) {
	policy := config.DefaultPolicy()
	now := baseEngineTime()

	rep := &models.Reporter{
		ID:         "rep-1",
		Reputation: models.Reputation{Score: 100, Tier: models.TierNew},
	}

	applyReporterOutcome(policy, rep, outcomeSubmitted, models.ReportTypeIncident, now)
	assert.Equal(t, 1, rep.Activity.TotalReports)
	assert.Equal(t, 1, rep.Activity.ReportsByType["incident"])
	assert.Equal(t, 100, rep.Reputation.Score)

	applyReporterOutcome(policy, rep, outcomeVerified, models.ReportTypeIncident, now)
	assert.Equal(t, 1, rep.Activity.VerifiedReports)
	assert.Equal(t, 110, rep.Reputation.Score)
	assert.InDelta(t, 100.0, rep.Reputation.AccuracyFactor, 1e-9)

	applyReporterOutcome(policy, rep, outcomeSubmitted, models.ReportTypeDamage, now)
	applyReporterOutcome(policy, rep, outcomeRejected, models.ReportTypeDamage, now)
	assert.Equal(t, 1, rep.Activity.RejectedReports)
	assert.Equal(t, 105, rep.Reputation.Score)
}

func TestApplyReporterOutcomeScoreFloor(t *testing.T) {
	policy := config.DefaultPolicy()
	rep := &models.Reporter{Reputation: models.Reputation{Score: 3, Tier: models.TierNew}}

	applyReporterOutcome(policy, rep, outcomeRejected, models.ReportTypeOther, baseEngineTime())
	assert.Zero(t, rep.Reputation.Score)
}

func TestApplyReporterOutcomeOfficialTierKept(t *testing.T) {
	policy := config.DefaultPolicy()
	rep := &models.Reporter{
		Reputation: models.Reputation{Score: 50, Tier: models.TierVerifiedOfficial},
	}

	applyReporterOutcome(policy, rep, outcomeRejected, models.ReportTypeOther, baseEngineTime())
	assert.Equal(t, models.TierVerifiedOfficial, rep.Reputation.Tier)
}
