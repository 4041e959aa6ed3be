package engine

import (
	"github.com/crisisworks/openreportserve/internal/config"
	"github.com/crisisworks/openreportserve/internal/models"
)

// runAutoVerification computes the automatic plausibility sub-score on r in
// place: location accuracy, geotagged media, reporter credibility and text
// length each contribute a fixed slice. When the sum clears the policy
// threshold and the reporter has any track record, the report is promoted to
// verified without human review. This is the only automatic promotion path.
func runAutoVerification(policy config.Policy, r *models.Report) bool {
	score := 0.0
	var methods []string

	if r.Location.AccuracyM > 0 && r.Location.AccuracyM < 50 {
		r.Verification.Auto.LocationMatch = true
		score += 20
		methods = append(methods, "location")
	}

	for _, m := range r.Media {
		if m.Captured != nil && m.Captured.Geotagged {
			r.Verification.Auto.MediaAnalysis = true
			score += 25
			methods = append(methods, "media")
			break
		}
	}

	score += float64(r.Reporter.CredibilityScore) / 100 * 30

	if len(r.Description) > 50 {
		r.Verification.Auto.TextAnalysis = true
		score += 10
		methods = append(methods, "text")
	}

	r.Verification.Score = clampScore(score)
	r.Verification.Methods = methods

	if score >= float64(policy.AutoVerifyThreshold) && r.Reporter.CredibilityTier != models.TierNew {
		r.Verification.Status = models.VerificationVerified
		r.Status = models.StatusVerified
		return true
	}
	return false
}

// applyCommunityAdjustment nudges the verification score after a vote. The
// delta is recomputed from the cumulative community tally and added to the
// current score, then clamped. Disputes never reach this function.
func applyCommunityAdjustment(r *models.Report) {
	cv := r.Verification.Community
	delta := float64(cv.Upvotes*2+cv.Corroborations*3-cv.Downvotes) * 2 / 10
	r.Verification.Score = clampScore(r.Verification.Score + delta)
}

func clampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}
