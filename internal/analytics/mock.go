package analytics

import (
	"context"
	"sync"
)

var _ AnalyticsService = (*MockAnalytics)(nil)

// MockAnalytics records events in memory for testing.
type MockAnalytics struct {
	mu     sync.Mutex
	Events []ReportEvent
	Err    error
}

// NewMockAnalytics creates a new mock analytics instance.
func NewMockAnalytics() *MockAnalytics {
	return &MockAnalytics{}
}

// RecordReportEvent appends the event, or returns the configured error.
func (m *MockAnalytics) RecordReportEvent(ctx context.Context, ev ReportEvent) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, ev)
	return nil
}

// EventTypes returns the recorded event types in order.
func (m *MockAnalytics) EventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]string, 0, len(m.Events))
	for _, ev := range m.Events {
		types = append(types, ev.EventType)
	}
	return types
}
