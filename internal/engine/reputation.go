package engine

import (
	"time"

	"github.com/crisisworks/openreportserve/internal/config"
	"github.com/crisisworks/openreportserve/internal/models"
)

// reportOutcome is the reputation-relevant event for a reporter's report.
type reportOutcome string

const (
	outcomeSubmitted reportOutcome = "submitted"
	outcomeVerified  reportOutcome = "verified"
	outcomeRejected  reportOutcome = "rejected"
)

// applyReporterOutcome mutates the reporter's counters and reputation for
// one outcome and recomputes the credibility tier. Callers hold the
// reporter's lock via the store upsert.
func applyReporterOutcome(policy config.Policy, rep *models.Reporter, outcome reportOutcome, reportType models.ReportType, now time.Time) {
	rep.Activity.LastActive = now
	rep.UpdatedAt = now

	switch outcome {
	case outcomeSubmitted:
		rep.Activity.TotalReports++
		if rep.Activity.ReportsByType == nil {
			rep.Activity.ReportsByType = make(map[string]int)
		}
		rep.Activity.ReportsByType[string(reportType)]++
	case outcomeVerified:
		rep.Activity.VerifiedReports++
		rep.Reputation.Score += policy.VerifiedReward
		if rep.Activity.TotalReports > 0 {
			rep.Reputation.AccuracyFactor = float64(rep.Activity.VerifiedReports) / float64(rep.Activity.TotalReports) * 100
			if rep.Reputation.AccuracyFactor > 100 {
				rep.Reputation.AccuracyFactor = 100
			}
		}
	case outcomeRejected:
		rep.Activity.RejectedReports++
		rep.Reputation.Score -= policy.RejectedPenalty
		if rep.Reputation.Score < 0 {
			rep.Reputation.Score = 0
		}
	}

	// Administratively granted official status is never downgraded by the
	// counter-based recompute.
	if rep.Reputation.Tier != models.TierVerifiedOfficial {
		rep.Reputation.Tier = CredibilityTier(rep.Reputation.Score, rep.Activity.TotalReports)
	}
}

// CredibilityTier maps a reputation score and report count to a tier. Both
// thresholds must hold; the tier can fall as well as rise.
func CredibilityTier(score, totalReports int) models.CredibilityTier {
	switch {
	case totalReports >= 100 && score >= 900:
		return models.TierPlatinum
	case totalReports >= 50 && score >= 700:
		return models.TierGold
	case totalReports >= 20 && score >= 500:
		return models.TierSilver
	case totalReports >= 5 && score >= 200:
		return models.TierBronze
	default:
		return models.TierNew
	}
}
