package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/crisisworks/openreportserve/internal/config"
	"github.com/crisisworks/openreportserve/internal/models"
)

// detectTrend scans the trailing detection window of the report's category
// for repeated sentiment keywords and either appends the report to an open
// matching trend or creates a new one. Returns the affected trend, or nil
// when the window has too few reports or no keyword reaches the repetition
// floor.
func detectTrend(store models.ReportDataStore, policy config.Policy, ids IDGenerator, r *models.Report, now time.Time) *models.Trend {
	window := store.ReportsByCategorySince(r.Category, now.Add(-policy.TrendWindow))
	if len(window) < policy.TrendMinReports {
		return nil
	}

	counts := make(map[string]int)
	for _, member := range window {
		for _, kw := range member.Sentiment.Keywords {
			counts[kw.Word]++
		}
	}

	var common []string
	for word, n := range counts {
		if n >= policy.TrendKeywordMin {
			common = append(common, word)
		}
	}
	if len(common) == 0 {
		return nil
	}
	// highest-frequency keyword first so the trend name is stable
	sort.Slice(common, func(i, j int) bool {
		if counts[common[i]] != counts[common[j]] {
			return counts[common[i]] > counts[common[j]]
		}
		return common[i] < common[j]
	})

	if existing := findOpenTrend(store, r.Category, common); existing != nil {
		updated, err := store.UpdateTrend(existing.ID, func(t *models.Trend) error {
			for _, id := range t.ReportIDs {
				if id == r.ID {
					return nil
				}
			}
			t.ReportIDs = append(t.ReportIDs, r.ID)
			t.ReportCount++
			t.LastSeen = now
			t.UpdatedAt = now
			return nil
		})
		if err != nil {
			return nil
		}
		return updated
	}

	var sentimentSum float64
	memberIDs := make([]string, 0, len(window))
	firstSeen := window[0].CreatedAt
	for _, member := range window {
		sentimentSum += member.Sentiment.Score
		memberIDs = append(memberIDs, member.ID)
		if member.CreatedAt.Before(firstSeen) {
			firstSeen = member.CreatedAt
		}
	}
	mean := sentimentSum / float64(len(window))

	severity := "low"
	if mean < -0.3 {
		severity = "high"
	} else if mean < 0 {
		severity = "medium"
	}
	sentiment := "neutral"
	if mean >= 0.2 {
		sentiment = "positive"
	} else if mean <= -0.2 {
		sentiment = "negative"
	}

	trend := &models.Trend{
		ID:          ids.NewID("trend"),
		Name:        fmt.Sprintf("%s - %s", r.Category, common[0]),
		Category:    r.Category,
		Type:        "emerging",
		Severity:    severity,
		Description: fmt.Sprintf("Emerging trend in %s reports with keywords: %s", r.Category, strings.Join(common, ", ")),
		ReportIDs:   memberIDs,
		ReportCount: len(window),
		Sentiment:   sentiment,
		Keywords:    common,
		Status:      models.TrendNew,
		FirstSeen:   firstSeen,
		LastSeen:    now,
		UpdatedAt:   now,
	}
	if err := store.InsertTrend(trend); err != nil {
		return nil
	}
	return trend
}

// findOpenTrend returns a non-closed trend of the category sharing at least
// one of the given keywords.
func findOpenTrend(store models.ReportDataStore, category string, keywords []string) *models.Trend {
	for _, t := range store.AllTrends() {
		if t.Category != category || t.Status == models.TrendClosed {
			continue
		}
		for _, kw := range keywords {
			for _, have := range t.Keywords {
				if have == kw {
					return t
				}
			}
		}
	}
	return nil
}
