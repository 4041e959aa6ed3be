package models

import "time"

// CredibilityTier is the reputation class a reporter has earned. Tiers are
// recomputed from score and verified-report count after every outcome;
// verified_official is assigned administratively and never downgraded by the
// recompute.
type CredibilityTier string

const (
	TierNew              CredibilityTier = "new"
	TierBronze           CredibilityTier = "bronze"
	TierSilver           CredibilityTier = "silver"
	TierGold             CredibilityTier = "gold"
	TierPlatinum         CredibilityTier = "platinum"
	TierVerifiedOfficial CredibilityTier = "verified_official"
)

// TierRank orders tiers from new (0) upward.
func TierRank(t CredibilityTier) int {
	switch t {
	case TierBronze:
		return 1
	case TierSilver:
		return 2
	case TierGold:
		return 3
	case TierPlatinum:
		return 4
	case TierVerifiedOfficial:
		return 5
	default:
		return 0
	}
}

// Reporter is the long-lived reputation aggregate for one submitting
// principal. Anonymous submissions get a synthetic reporter so their track
// record still accumulates.
type Reporter struct {
	ID           string           `json:"id"`
	Type         string           `json:"type"` // anonymous, registered, verified, official
	Name         string           `json:"name,omitempty"`
	Organization string           `json:"organization,omitempty"`
	Activity     ReporterActivity `json:"activity"`
	Reputation   Reputation       `json:"reputation"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// ReporterActivity counts what the reporter has done on the platform.
type ReporterActivity struct {
	TotalReports    int            `json:"total_reports"`
	VerifiedReports int            `json:"verified_reports"`
	RejectedReports int            `json:"rejected_reports"`
	TotalVotes      int            `json:"total_votes"`
	CommentsPosted  int            `json:"comments_posted"`
	LastActive      time.Time      `json:"last_active"`
	ReportsByType   map[string]int `json:"reports_by_type,omitempty"`
}

// Reputation is the score-and-tier pair driving trust decisions. Score never
// goes below zero.
type Reputation struct {
	Score int             `json:"score"`
	Tier  CredibilityTier `json:"tier"`
	// AccuracyFactor is verified/total as a percentage, in [0,100].
	AccuracyFactor float64 `json:"accuracy_factor"`
}

// Clone returns a deep copy of the reporter.
func (r *Reporter) Clone() *Reporter {
	cp := *r
	if r.Activity.ReportsByType != nil {
		cp.Activity.ReportsByType = make(map[string]int, len(r.Activity.ReportsByType))
		for k, v := range r.Activity.ReportsByType {
			cp.Activity.ReportsByType[k] = v
		}
	}
	return &cp
}
