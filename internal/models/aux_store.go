package models

import "errors"

// UpsertReporter fetches or creates the reporter, applies fn under the lock
// and returns a clone of the result.
func (s *InMemoryReportStore) UpsertReporter(id string, fn func(*Reporter)) *Reporter {
	s.repMu.Lock()
	defer s.repMu.Unlock()

	rep, ok := s.reporters[id]
	if !ok {
		// new reporters start at score 100, well below the bronze floor
		rep = &Reporter{
			ID:         id,
			Type:       "registered",
			Reputation: Reputation{Score: 100, Tier: TierNew},
			Activity:   ReporterActivity{ReportsByType: make(map[string]int)},
		}
		s.reporters[id] = rep
	}
	if fn != nil {
		fn(rep)
	}
	return rep.Clone()
}

// GetReporter returns a clone of the reporter or ErrNotFound.
func (s *InMemoryReportStore) GetReporter(id string) (*Reporter, error) {
	s.repMu.RLock()
	defer s.repMu.RUnlock()
	rep, ok := s.reporters[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rep.Clone(), nil
}

// CountReporters returns the number of known reporters.
func (s *InMemoryReportStore) CountReporters() int {
	s.repMu.RLock()
	defer s.repMu.RUnlock()
	return len(s.reporters)
}

// InsertTrend stores a clone of t.
func (s *InMemoryReportStore) InsertTrend(t *Trend) error {
	s.auxMu.Lock()
	defer s.auxMu.Unlock()
	if _, ok := s.trends[t.ID]; ok {
		return errors.New("trend id already exists")
	}
	s.trends[t.ID] = t.Clone()
	return nil
}

// GetTrend returns a clone of the trend or ErrNotFound.
func (s *InMemoryReportStore) GetTrend(id string) (*Trend, error) {
	s.auxMu.RLock()
	defer s.auxMu.RUnlock()
	t, ok := s.trends[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t.Clone(), nil
}

// UpdateTrend applies fn to the trend under the lock.
func (s *InMemoryReportStore) UpdateTrend(id string, fn func(*Trend) error) (*Trend, error) {
	s.auxMu.Lock()
	defer s.auxMu.Unlock()
	t, ok := s.trends[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := fn(t); err != nil {
		return nil, err
	}
	return t.Clone(), nil
}

// AllTrends returns clones of every trend.
func (s *InMemoryReportStore) AllTrends() []*Trend {
	s.auxMu.RLock()
	defer s.auxMu.RUnlock()
	out := make([]*Trend, 0, len(s.trends))
	for _, t := range s.trends {
		out = append(out, t.Clone())
	}
	return out
}

// InsertAlert stores a clone of a.
func (s *InMemoryReportStore) InsertAlert(a *Alert) error {
	s.auxMu.Lock()
	defer s.auxMu.Unlock()
	if _, ok := s.alerts[a.ID]; ok {
		return errors.New("alert id already exists")
	}
	s.alerts[a.ID] = a.Clone()
	return nil
}

// GetAlert returns a clone of the alert or ErrNotFound.
func (s *InMemoryReportStore) GetAlert(id string) (*Alert, error) {
	s.auxMu.RLock()
	defer s.auxMu.RUnlock()
	a, ok := s.alerts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a.Clone(), nil
}

// UpdateAlert applies fn to the alert under the lock.
func (s *InMemoryReportStore) UpdateAlert(id string, fn func(*Alert) error) (*Alert, error) {
	s.auxMu.Lock()
	defer s.auxMu.Unlock()
	a, ok := s.alerts[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := fn(a); err != nil {
		return nil, err
	}
	return a.Clone(), nil
}

// AllAlerts returns clones of every alert.
func (s *InMemoryReportStore) AllAlerts() []*Alert {
	s.auxMu.RLock()
	defer s.auxMu.RUnlock()
	out := make([]*Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		out = append(out, a.Clone())
	}
	return out
}

// InsertCampaign stores a clone of c.
func (s *InMemoryReportStore) InsertCampaign(c *Campaign) error {
	s.auxMu.Lock()
	defer s.auxMu.Unlock()
	if _, ok := s.campaigns[c.ID]; ok {
		return errors.New("campaign id already exists")
	}
	s.campaigns[c.ID] = c.Clone()
	return nil
}

// GetCampaign returns a clone of the campaign or ErrNotFound.
func (s *InMemoryReportStore) GetCampaign(id string) (*Campaign, error) {
	s.auxMu.RLock()
	defer s.auxMu.RUnlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

// UpdateCampaign applies fn to the campaign under the lock.
func (s *InMemoryReportStore) UpdateCampaign(id string, fn func(*Campaign) error) (*Campaign, error) {
	s.auxMu.Lock()
	defer s.auxMu.Unlock()
	c, ok := s.campaigns[id]
	if !ok {
		return nil, ErrNotFound
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	return c.Clone(), nil
}

// AllCampaigns returns clones of every campaign.
func (s *InMemoryReportStore) AllCampaigns() []*Campaign {
	s.auxMu.RLock()
	defer s.auxMu.RUnlock()
	out := make([]*Campaign, 0, len(s.campaigns))
	for _, c := range s.campaigns {
		out = append(out, c.Clone())
	}
	return out
}
