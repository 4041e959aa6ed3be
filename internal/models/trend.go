package models

import "time"

// TrendStatus is the operator-driven lifecycle state of a detected trend.
// The detector only ever creates trends in the new state and appends
// members to open ones; every other transition is an explicit operator
// action.
type TrendStatus string

const (
	TrendNew           TrendStatus = "new"
	TrendAcknowledged  TrendStatus = "acknowledged"
	TrendInvestigating TrendStatus = "investigating"
	TrendActionTaken   TrendStatus = "action_taken"
	TrendClosed        TrendStatus = "closed"
)

// Trend is a cluster of same-category reports sharing frequent keywords
// inside the rolling detection window.
type Trend struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Type        string `json:"type"` // emerging, recurring, escalating
	Severity    string `json:"severity"` // low, medium, high, critical
	Description string `json:"description"`
	ReportIDs   []string `json:"report_ids"`
	ReportCount int      `json:"report_count"`
	// Sentiment buckets the mean sentiment score of the member set at
	// creation time: positive, neutral or negative.
	Sentiment string      `json:"sentiment"`
	Keywords  []string    `json:"keywords"`
	Status    TrendStatus `json:"status"`
	FirstSeen time.Time   `json:"first_seen"`
	LastSeen  time.Time   `json:"last_seen"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Clone returns a deep copy of the trend.
func (t *Trend) Clone() *Trend {
	cp := *t
	cp.ReportIDs = append([]string(nil), t.ReportIDs...)
	cp.Keywords = append([]string(nil), t.Keywords...)
	return &cp
}

// AlertType distinguishes the two alert triggers.
type AlertType string

const (
	AlertCluster  AlertType = "cluster"
	AlertCritical AlertType = "critical_report"
)

// Area is a circle on the map.
type Area struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	RadiusKm float64 `json:"radius_km"`
}

// Alert is raised when report activity crosses a trigger threshold: a dense
// spatial cluster inside the cluster window, or a single critical-priority
// report.
type Alert struct {
	ID             string     `json:"id"`
	Type           AlertType  `json:"type"`
	Severity       string     `json:"severity"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Area           *Area      `json:"area,omitempty"`
	ReportIDs      []string   `json:"report_ids"`
	TriggeredAt    time.Time  `json:"triggered_at"`
	AcknowledgedBy string     `json:"acknowledged_by,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
}

// Clone returns a deep copy of the alert.
func (a *Alert) Clone() *Alert {
	cp := *a
	cp.ReportIDs = append([]string(nil), a.ReportIDs...)
	if a.Area != nil {
		area := *a.Area
		cp.Area = &area
	}
	if a.AcknowledgedAt != nil {
		at := *a.AcknowledgedAt
		cp.AcknowledgedAt = &at
	}
	if a.ResolvedAt != nil {
		at := *a.ResolvedAt
		cp.ResolvedAt = &at
	}
	return &cp
}

// Coordinates is a bare lat/lon pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CampaignStatus is the lifecycle state of a reporting campaign.
type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
)

// Campaign is an organized call for reports of a given type, optionally
// scoped to a geographic circle. Submissions matching an active campaign's
// type and area are attributed to it.
type Campaign struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Type           ReportType     `json:"type"`
	Status         CampaignStatus `json:"status"`
	Center         *Coordinates   `json:"center,omitempty"`
	RadiusKm       float64        `json:"radius_km,omitempty"`
	TargetReports  int            `json:"target_reports,omitempty"`
	CurrentReports int            `json:"current_reports"`
	StartDate      time.Time      `json:"start_date"`
	EndDate        *time.Time     `json:"end_date,omitempty"`
	CreatedBy      string         `json:"created_by"`
	Participants   []string       `json:"participants"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Clone returns a deep copy of the campaign.
func (c *Campaign) Clone() *Campaign {
	cp := *c
	cp.Participants = append([]string(nil), c.Participants...)
	if c.Center != nil {
		center := *c.Center
		cp.Center = &center
	}
	if c.EndDate != nil {
		end := *c.EndDate
		cp.EndDate = &end
	}
	return &cp
}
