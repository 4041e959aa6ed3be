package models

import (
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when a looked-up entity does not exist.
var ErrNotFound = errors.New("not found")

// ReportDataStore is the storage surface the engine and handlers operate
// against. The in-memory implementation is authoritative; database and
// analytics sinks trail it asynchronously.
type ReportDataStore interface {
	InsertReport(r *Report) error
	GetReport(id string) (*Report, error)
	// UpdateReport applies fn to the live record under its lock and returns
	// a clone of the result. If fn returns an error the record is left as fn
	// left it, so mutating fns must fail before touching the report.
	UpdateReport(id string, fn func(*Report) error) (*Report, error)
	AllReports() []*Report
	CountReports() int
	ReportsByReporter(reporterID string) []*Report
	ReportsByCategorySince(category string, since time.Time) []*Report
	ReportsNear(lat, lon, radiusKm float64, since time.Time) []*Report
	ReportsSince(since time.Time) []*Report
	QueryReports(f ReportFilter) ([]*Report, int)

	UpsertReporter(id string, fn func(*Reporter)) *Reporter
	GetReporter(id string) (*Reporter, error)
	CountReporters() int

	InsertTrend(t *Trend) error
	GetTrend(id string) (*Trend, error)
	UpdateTrend(id string, fn func(*Trend) error) (*Trend, error)
	AllTrends() []*Trend

	InsertAlert(a *Alert) error
	GetAlert(id string) (*Alert, error)
	UpdateAlert(id string, fn func(*Alert) error) (*Alert, error)
	AllAlerts() []*Alert

	InsertCampaign(c *Campaign) error
	GetCampaign(id string) (*Campaign, error)
	UpdateCampaign(id string, fn func(*Campaign) error) (*Campaign, error)
	AllCampaigns() []*Campaign
}

// reportRecord wraps one report with its own lock so counter mutations on
// different reports never contend.
type reportRecord struct {
	mu sync.Mutex
	r  *Report
}

type timeEntry struct {
	id string
	at time.Time
}

// InMemoryReportStore keeps every entity in maps guarded by a structure
// lock, with per-record locks for report mutation. Secondary indexes are
// keyed on fields that never change after insert (reporter, category,
// coordinates, creation time), so updates never touch them.
type InMemoryReportStore struct {
	mu sync.RWMutex

	reports    map[string]*reportRecord
	byReporter map[string][]string
	byCategory map[string][]timeEntry
	byTime     []timeEntry
	byCell     map[geoCell][]string

	reporters map[string]*Reporter
	repMu     sync.RWMutex

	trends    map[string]*Trend
	alerts    map[string]*Alert
	campaigns map[string]*Campaign
	auxMu     sync.RWMutex
}

// NewInMemoryReportStore returns an empty store.
func NewInMemoryReportStore() *InMemoryReportStore {
	return &InMemoryReportStore{
		reports:    make(map[string]*reportRecord),
		byReporter: make(map[string][]string),
		byCategory: make(map[string][]timeEntry),
		byCell:     make(map[geoCell][]string),
		reporters:  make(map[string]*Reporter),
		trends:     make(map[string]*Trend),
		alerts:     make(map[string]*Alert),
		campaigns:  make(map[string]*Campaign),
	}
}

// InsertReport stores a clone of r and indexes it. Duplicate ids are
// rejected.
func (s *InMemoryReportStore) InsertReport(r *Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[r.ID]; ok {
		return errors.New("report id already exists")
	}

	stored := r.Clone()
	s.reports[r.ID] = &reportRecord{r: stored}
	s.byReporter[r.Reporter.ID] = append(s.byReporter[r.Reporter.ID], r.ID)
	entry := timeEntry{id: r.ID, at: r.CreatedAt}
	s.byCategory[r.Category] = append(s.byCategory[r.Category], entry)
	s.byTime = append(s.byTime, entry)
	cell := cellFor(r.Location.Lat, r.Location.Lon)
	s.byCell[cell] = append(s.byCell[cell], r.ID)
	return nil
}

// GetReport returns a clone of the report or ErrNotFound.
func (s *InMemoryReportStore) GetReport(id string) (*Report, error) {
	s.mu.RLock()
	rec, ok := s.reports[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.r.Clone(), nil
}

// UpdateReport applies fn under the record lock.
func (s *InMemoryReportStore) UpdateReport(id string, fn func(*Report) error) (*Report, error) {
	s.mu.RLock()
	rec, ok := s.reports[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if err := fn(rec.r); err != nil {
		return nil, err
	}
	return rec.r.Clone(), nil
}

// AllReports returns clones of every report, unordered.
func (s *InMemoryReportStore) AllReports() []*Report {
	s.mu.RLock()
	recs := make([]*reportRecord, 0, len(s.reports))
	for _, rec := range s.reports {
		recs = append(recs, rec)
	}
	s.mu.RUnlock()

	out := make([]*Report, 0, len(recs))
	for _, rec := range recs {
		rec.mu.Lock()
		out = append(out, rec.r.Clone())
		rec.mu.Unlock()
	}
	return out
}

// CountReports returns the number of stored reports.
func (s *InMemoryReportStore) CountReports() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}

// ReportsByReporter returns clones of the reporter's reports in submission
// order.
func (s *InMemoryReportStore) ReportsByReporter(reporterID string) []*Report {
	s.mu.RLock()
	ids := append([]string(nil), s.byReporter[reporterID]...)
	s.mu.RUnlock()
	return s.cloneByIDs(ids)
}

// ReportsByCategorySince returns clones of reports in the category created
// at or after since.
func (s *InMemoryReportStore) ReportsByCategorySince(category string, since time.Time) []*Report {
	s.mu.RLock()
	entries := s.byCategory[category]
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.at.Before(since) {
			ids = append(ids, e.id)
		}
	}
	s.mu.RUnlock()
	return s.cloneByIDs(ids)
}

// ReportsSince returns clones of reports created at or after since.
func (s *InMemoryReportStore) ReportsSince(since time.Time) []*Report {
	s.mu.RLock()
	ids := make([]string, 0)
	for _, e := range s.byTime {
		if !e.at.Before(since) {
			ids = append(ids, e.id)
		}
	}
	s.mu.RUnlock()
	return s.cloneByIDs(ids)
}

// ReportsNear returns clones of reports within radiusKm of the point created
// at or after since. The cell index narrows candidates; an exact haversine
// check filters them.
func (s *InMemoryReportStore) ReportsNear(lat, lon, radiusKm float64, since time.Time) []*Report {
	cells := cellsInRadius(lat, lon, radiusKm)

	s.mu.RLock()
	ids := make([]string, 0)
	for _, c := range cells {
		ids = append(ids, s.byCell[c]...)
	}
	s.mu.RUnlock()

	candidates := s.cloneByIDs(ids)
	out := candidates[:0]
	for _, r := range candidates {
		if r.CreatedAt.Before(since) {
			continue
		}
		if HaversineKm(lat, lon, r.Location.Lat, r.Location.Lon) > radiusKm {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (s *InMemoryReportStore) cloneByIDs(ids []string) []*Report {
	out := make([]*Report, 0, len(ids))
	for _, id := range ids {
		s.mu.RLock()
		rec, ok := s.reports[id]
		s.mu.RUnlock()
		if !ok {
			continue
		}
		rec.mu.Lock()
		out = append(out, rec.r.Clone())
		rec.mu.Unlock()
	}
	return out
}
