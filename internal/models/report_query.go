package models

import (
	"sort"
	"strings"
	"time"
)

// GeoFilter restricts a query to a circle.
type GeoFilter struct {
	Lat      float64
	Lon      float64
	RadiusKm float64
}

// ReportFilter selects and pages reports. Zero values mean "no constraint".
type ReportFilter struct {
	Type         ReportType
	Category     string
	Status       ReportStatus
	Priority     ReportPriority
	ReporterID   string
	CampaignID   string
	VerifiedOnly bool
	Tags         []string
	Search       string
	Near         *GeoFilter
	Since        time.Time
	Until        time.Time

	SortBy string // created_at, urgency, votes; anything else sorts priority then recency
	Limit  int
	Offset int
}

// QueryReports evaluates the filter in a single pass over the narrowest
// candidate set, sorts, then pages. The returned total is the match count
// before paging.
func (s *InMemoryReportStore) QueryReports(f ReportFilter) ([]*Report, int) {
	var candidates []*Report
	switch {
	case f.ReporterID != "":
		candidates = s.ReportsByReporter(f.ReporterID)
	case f.Near != nil:
		since := f.Since
		candidates = s.ReportsNear(f.Near.Lat, f.Near.Lon, f.Near.RadiusKm, since)
	case f.Category != "" && !f.Since.IsZero():
		candidates = s.ReportsByCategorySince(f.Category, f.Since)
	default:
		candidates = s.AllReports()
	}

	matched := candidates[:0]
	for _, r := range candidates {
		if !f.matches(r) {
			continue
		}
		matched = append(matched, r)
	}

	sortReports(matched, f.SortBy)
	total := len(matched)

	if f.Offset > 0 {
		if f.Offset >= total {
			return []*Report{}, total
		}
		matched = matched[f.Offset:]
	}
	if f.Limit > 0 && len(matched) > f.Limit {
		matched = matched[:f.Limit]
	}
	return matched, total
}

func (f *ReportFilter) matches(r *Report) bool {
	if f.Type != "" && r.Type != f.Type {
		return false
	}
	if f.Category != "" && r.Category != f.Category {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Priority != "" && r.Priority != f.Priority {
		return false
	}
	if f.CampaignID != "" && r.CampaignID != f.CampaignID {
		return false
	}
	if f.VerifiedOnly && r.Verification.Status != VerificationVerified {
		return false
	}
	if !f.Since.IsZero() && r.CreatedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && r.CreatedAt.After(f.Until) {
		return false
	}
	if f.Near != nil {
		if HaversineKm(f.Near.Lat, f.Near.Lon, r.Location.Lat, r.Location.Lon) > f.Near.RadiusKm {
			return false
		}
	}
	if len(f.Tags) > 0 {
		// any-of: a report matches when it carries at least one requested tag
		found := false
	tags:
		for _, want := range f.Tags {
			for _, have := range r.Tags {
				if strings.EqualFold(have, want) {
					found = true
					break tags
				}
			}
		}
		if !found {
			return false
		}
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(r.Title), q) &&
			!strings.Contains(strings.ToLower(r.Description), q) {
			return false
		}
	}
	return true
}

// sortReports orders by priority (critical first) breaking ties by recency.
// That is the default: an old critical report always outranks a fresh
// low-priority one. Explicit sort values override it.
func sortReports(rs []*Report, by string) {
	switch by {
	case "created_at":
		sort.SliceStable(rs, func(i, j int) bool {
			return rs[i].CreatedAt.After(rs[j].CreatedAt)
		})
	case "urgency":
		sort.SliceStable(rs, func(i, j int) bool {
			if rs[i].UrgencyScore != rs[j].UrgencyScore {
				return rs[i].UrgencyScore > rs[j].UrgencyScore
			}
			return rs[i].CreatedAt.After(rs[j].CreatedAt)
		})
	case "votes":
		sort.SliceStable(rs, func(i, j int) bool {
			vi := rs[i].Votes.Upvotes - rs[i].Votes.Downvotes
			vj := rs[j].Votes.Upvotes - rs[j].Votes.Downvotes
			if vi != vj {
				return vi > vj
			}
			return rs[i].CreatedAt.After(rs[j].CreatedAt)
		})
	default:
		sort.SliceStable(rs, func(i, j int) bool {
			ri, rj := PriorityRank(rs[i].Priority), PriorityRank(rs[j].Priority)
			if ri != rj {
				return ri < rj
			}
			return rs[i].CreatedAt.After(rs[j].CreatedAt)
		})
	}
}
