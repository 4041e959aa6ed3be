package models

import "time"

// ReportType classifies what a report is about.
type ReportType string

const (
	ReportTypeIncident       ReportType = "incident"
	ReportTypeDamage         ReportType = "damage"
	ReportTypeHazard         ReportType = "hazard"
	ReportTypeResourceNeed   ReportType = "resource_need"
	ReportTypeMissingPerson  ReportType = "missing_person"
	ReportTypeInfrastructure ReportType = "infrastructure"
	ReportTypeSafety         ReportType = "safety"
	ReportTypeWildlife       ReportType = "wildlife"
	ReportTypeEnvironmental  ReportType = "environmental"
	ReportTypeOther          ReportType = "other"
)

// ReportStatus is the lifecycle state of a report. The forward path is
// submitted → under_review/verified → actionable → assigned → resolved;
// rejected and duplicate are terminal side branches reachable from any
// non-terminal state.
type ReportStatus string

const (
	StatusSubmitted   ReportStatus = "submitted"
	StatusUnderReview ReportStatus = "under_review"
	StatusVerified    ReportStatus = "verified"
	StatusActionable  ReportStatus = "actionable"
	StatusAssigned    ReportStatus = "assigned"
	StatusResolved    ReportStatus = "resolved"
	StatusRejected    ReportStatus = "rejected"
	StatusDuplicate   ReportStatus = "duplicate"
)

// ReportPriority is the urgency class derived from the report text at
// creation. It is never silently recomputed; changing it requires an
// explicit update.
type ReportPriority string

const (
	PriorityLow      ReportPriority = "low"
	PriorityMedium   ReportPriority = "medium"
	PriorityHigh     ReportPriority = "high"
	PriorityCritical ReportPriority = "critical"
)

// PriorityRank orders priorities for sorting: critical sorts first.
func PriorityRank(p ReportPriority) int {
	switch p {
	case PriorityCritical:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	default:
		return 3
	}
}

// VerificationStatus tracks how confident the platform is in a report.
type VerificationStatus string

const (
	VerificationPending     VerificationStatus = "pending"
	VerificationVerified    VerificationStatus = "verified"
	VerificationPartial     VerificationStatus = "partially_verified"
	VerificationUnverified  VerificationStatus = "unverified"
	VerificationConflicting VerificationStatus = "conflicting"
)

// MediaType identifies the kind of an attachment.
type MediaType string

const (
	MediaPhoto    MediaType = "photo"
	MediaVideo    MediaType = "video"
	MediaAudio    MediaType = "audio"
	MediaDocument MediaType = "document"
)

// Report is the central entity: a single crowdsourced field report together
// with its classification, verification state, engagement and history.
type Report struct {
	ID          string         `json:"id"`
	Type        ReportType     `json:"type"`
	Category    string         `json:"category"`
	Subcategory string         `json:"subcategory,omitempty"`
	Status      ReportStatus   `json:"status"`
	Priority    ReportPriority `json:"priority"`
	Title       string         `json:"title"`
	Description string         `json:"description"`

	Location Location     `json:"location"`
	Reporter ReporterInfo `json:"reporter"`
	Media    []Media      `json:"media"`

	// UrgencyScore and ImpactScore are computed once at submission from the
	// category and text; both are clamped to [0,100].
	UrgencyScore int              `json:"urgency_score"`
	ImpactScore  int              `json:"impact_score"`
	Sentiment    SentimentProfile `json:"sentiment"`

	Verification Verification `json:"verification"`
	Assignment   *Assignment  `json:"assignment,omitempty"`

	// RelatedReports lists duplicate/related report ids. Links recorded at
	// submission are one-directional; a merge makes them bidirectional.
	RelatedReports []string `json:"related_reports"`

	Tags     []string        `json:"tags"`
	Votes    Votes           `json:"votes"`
	Comments []Comment       `json:"comments"`
	Timeline []TimelineEvent `json:"timeline"`
	Metadata Metadata        `json:"metadata"`

	CampaignID string `json:"campaign_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Location describes where the reported event is. GeocodeSource records how
// the coordinates were obtained: "gps", "manual", "geocoded" or "ip".
type Location struct {
	Lat           float64 `json:"lat"`
	Lon           float64 `json:"lon"`
	AccuracyM     float64 `json:"accuracy_m"`
	Address       string  `json:"address,omitempty"`
	City          string  `json:"city,omitempty"`
	State         string  `json:"state,omitempty"`
	ZipCode       string  `json:"zip_code,omitempty"`
	Landmark      string  `json:"landmark,omitempty"`
	Description   string  `json:"description,omitempty"`
	GeocodeSource string  `json:"geocode_source"`
}

// ReporterInfo is a denormalized snapshot of the submitter at submission
// time. Historical reports keep the credibility the reporter had when they
// filed, not a live reference.
type ReporterInfo struct {
	ID               string          `json:"id"`
	Type             string          `json:"type"` // anonymous, registered, verified, official
	Name             string          `json:"name,omitempty"`
	Phone            string          `json:"phone,omitempty"`
	Email            string          `json:"email,omitempty"`
	CredibilityScore int             `json:"credibility_score"`
	CredibilityTier  CredibilityTier `json:"credibility_tier"`
	TotalReports     int             `json:"total_reports"`
	VerifiedReports  int             `json:"verified_reports"`
	Organization     string          `json:"organization,omitempty"`
	Role             string          `json:"role,omitempty"`
}

// Media is an attachment on a report. Verified is set only by official
// review; attachments are trusted metadata, their content is never analyzed.
type Media struct {
	ID           string       `json:"id"`
	Type         MediaType    `json:"type"`
	URL          string       `json:"url"`
	ThumbnailURL string       `json:"thumbnail_url,omitempty"`
	Filename     string       `json:"filename"`
	Size         int64        `json:"size"`
	MimeType     string       `json:"mime_type"`
	DurationS    int          `json:"duration_s,omitempty"`
	Width        int          `json:"width,omitempty"`
	Height       int          `json:"height,omitempty"`
	Captured     *CaptureMeta `json:"captured,omitempty"`
	Verified     bool         `json:"verified"`
	UploadedAt   time.Time    `json:"uploaded_at"`
}

// CaptureMeta carries device capture metadata for an attachment.
type CaptureMeta struct {
	CapturedAt time.Time `json:"captured_at,omitempty"`
	Device     string    `json:"device,omitempty"`
	Geotagged  bool      `json:"geotagged"`
	Lat        float64   `json:"lat,omitempty"`
	Lon        float64   `json:"lon,omitempty"`
}

// SentimentProfile is the lexicon-derived sentiment of the report text.
type SentimentProfile struct {
	// Overall is one of very_positive, positive, neutral, negative,
	// very_negative, mapped from Score via fixed cut points.
	Overall string `json:"overall"`
	// Score is the normalized signed sentiment in [-1,1].
	Score float64 `json:"score"`
	// Confidence grows with the number of lexicon hits, capped at 95.
	Confidence int                `json:"confidence"`
	Emotions   map[string]float64 `json:"emotions,omitempty"`
	Keywords   []SentimentKeyword `json:"keywords,omitempty"`
	Topics     []string           `json:"topics,omitempty"`
}

// SentimentKeyword is a single lexicon hit found in the report text.
type SentimentKeyword struct {
	Word      string `json:"word"`
	Sentiment string `json:"sentiment"`
	Frequency int    `json:"frequency"`
}

// Verification aggregates every signal about a report's accuracy.
type Verification struct {
	Status VerificationStatus `json:"status"`
	// Score is the 0-100 confidence measure combining automatic signals,
	// official review and community votes.
	Score      float64    `json:"score"`
	Methods    []string   `json:"methods"`
	VerifiedBy []string   `json:"verified_by,omitempty"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`

	Auto      AutoSignals           `json:"auto"`
	Community CommunityTally        `json:"community"`
	Official  *OfficialVerification `json:"official,omitempty"`
	Flags     []Flag                `json:"flags"`
}

// AutoSignals records which automatic plausibility checks passed.
type AutoSignals struct {
	LocationMatch  bool `json:"location_match"`
	MediaAnalysis  bool `json:"media_analysis"`
	TextAnalysis   bool `json:"text_analysis"`
	CrossReference bool `json:"cross_reference"`
}

// CommunityTally counts verification-relevant community signals. It is kept
// separate from the generic vote tally: only up/down/confirm feed it.
type CommunityTally struct {
	Upvotes        int `json:"upvotes"`
	Downvotes      int `json:"downvotes"`
	Corroborations int `json:"corroborations"`
}

// OfficialVerification records an authorized reviewer's decision.
type OfficialVerification struct {
	VerifierID   string    `json:"verifier_id"`
	VerifierName string    `json:"verifier_name"`
	VerifierOrg  string    `json:"verifier_org"`
	Timestamp    time.Time `json:"timestamp"`
	Notes        string    `json:"notes"`
}

// Flag is a community complaint about a report. Flags are never
// auto-resolved; only an explicit resolve action flips Resolved.
type Flag struct {
	Type       string    `json:"type"` // spam, misinformation, duplicate, inappropriate, location_mismatch, outdated
	ReportedBy string    `json:"reported_by"`
	ReportedAt time.Time `json:"reported_at"`
	Reason     string    `json:"reason"`
	Resolved   bool      `json:"resolved"`
	Resolution string    `json:"resolution,omitempty"`
}

// VoteKind is one of the four community vote types.
type VoteKind string

const (
	VoteUp      VoteKind = "up"
	VoteDown    VoteKind = "down"
	VoteConfirm VoteKind = "confirm"
	VoteDispute VoteKind = "dispute"
)

// Votes is the engagement tally plus the deduplicated voter ledger. Exactly
// one VoteRecord ever exists per (report, principal) pair.
type Votes struct {
	Upvotes       int          `json:"upvotes"`
	Downvotes     int          `json:"downvotes"`
	Confirmations int          `json:"confirmations"`
	Disputations  int          `json:"disputations"`
	Voters        []VoteRecord `json:"voters"`
}

// VoteRecord is one principal's vote on a report.
type VoteRecord struct {
	PrincipalID string    `json:"principal_id"`
	Kind        VoteKind  `json:"kind"`
	Timestamp   time.Time `json:"timestamp"`
}

// HasVoted reports whether the principal already voted.
func (v *Votes) HasVoted(principalID string) bool {
	for _, rec := range v.Voters {
		if rec.PrincipalID == principalID {
			return true
		}
	}
	return false
}

// Comment is one entry in a report's discussion thread.
type Comment struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	AuthorType string    `json:"author_type"` // citizen, official, responder, moderator
	Content    string    `json:"content"`
	IsOfficial bool      `json:"is_official"`
	CreatedAt  time.Time `json:"created_at"`
	Replies    []Comment `json:"replies,omitempty"`
	Likes      int       `json:"likes"`
	FlagCount  int       `json:"flag_count"`
}

// TimelineEvent is one entry in a report's append-only history. Every status
// transition appends exactly one event.
type TimelineEvent struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"` // created, updated, verified, assigned, status_change, comment, merged, resolved
	Timestamp   time.Time `json:"timestamp"`
	Actor       string    `json:"actor"`
	ActorType   string    `json:"actor_type"` // system, reporter, official, responder, moderator
	Description string    `json:"description"`
}

// Assignment tracks hand-off of a report to a response team.
type Assignment struct {
	AssignedTo   string         `json:"assigned_to"`
	AssignedBy   string         `json:"assigned_by"`
	AssignedAt   time.Time      `json:"assigned_at"`
	Organization string         `json:"organization"`
	Team         string         `json:"team,omitempty"`
	Priority     ReportPriority `json:"priority"`
	Deadline     *time.Time     `json:"deadline,omitempty"`
	Status       string         `json:"status"` // pending, acknowledged, in_progress, completed, escalated
	Notes        string         `json:"notes"`
}

// Metadata captures how the report reached the platform.
type Metadata struct {
	Source       string      `json:"source"` // mobile_app, web, sms, voice, social_media, api
	Device       *DeviceInfo `json:"device,omitempty"`
	LanguageCode string      `json:"language_code"`
	Country      string      `json:"country,omitempty"`
}

// DeviceInfo is parsed from the submitting client's User-Agent.
type DeviceInfo struct {
	Platform   string `json:"platform,omitempty"`
	OS         string `json:"os,omitempty"`
	Browser    string `json:"browser,omitempty"`
	DeviceType string `json:"device_type,omitempty"`
	IsBot      bool   `json:"is_bot,omitempty"`
}

// UnresolvedFlags counts flags still awaiting moderator action.
func (r *Report) UnresolvedFlags() int {
	n := 0
	for _, f := range r.Verification.Flags {
		if !f.Resolved {
			n++
		}
	}
	return n
}

// Terminal reports whether the status is one of the terminal side branches.
func (s ReportStatus) Terminal() bool {
	return s == StatusResolved || s == StatusRejected || s == StatusDuplicate
}

// Clone returns a deep copy of the report so callers can hand it out without
// exposing store-internal state.
func (r *Report) Clone() *Report {
	cp := *r

	cp.Media = make([]Media, len(r.Media))
	copy(cp.Media, r.Media)
	for i := range cp.Media {
		if r.Media[i].Captured != nil {
			captured := *r.Media[i].Captured
			cp.Media[i].Captured = &captured
		}
	}

	cp.RelatedReports = append([]string(nil), r.RelatedReports...)
	cp.Tags = append([]string(nil), r.Tags...)

	cp.Verification.Methods = append([]string(nil), r.Verification.Methods...)
	cp.Verification.VerifiedBy = append([]string(nil), r.Verification.VerifiedBy...)
	cp.Verification.Flags = append([]Flag(nil), r.Verification.Flags...)
	if r.Verification.VerifiedAt != nil {
		at := *r.Verification.VerifiedAt
		cp.Verification.VerifiedAt = &at
	}
	if r.Verification.Official != nil {
		official := *r.Verification.Official
		cp.Verification.Official = &official
	}

	if r.Assignment != nil {
		assignment := *r.Assignment
		if r.Assignment.Deadline != nil {
			deadline := *r.Assignment.Deadline
			assignment.Deadline = &deadline
		}
		cp.Assignment = &assignment
	}

	cp.Votes.Voters = append([]VoteRecord(nil), r.Votes.Voters...)
	cp.Comments = cloneComments(r.Comments)
	cp.Timeline = append([]TimelineEvent(nil), r.Timeline...)

	if r.Sentiment.Emotions != nil {
		cp.Sentiment.Emotions = make(map[string]float64, len(r.Sentiment.Emotions))
		for k, v := range r.Sentiment.Emotions {
			cp.Sentiment.Emotions[k] = v
		}
	}
	cp.Sentiment.Keywords = append([]SentimentKeyword(nil), r.Sentiment.Keywords...)
	cp.Sentiment.Topics = append([]string(nil), r.Sentiment.Topics...)

	if r.Metadata.Device != nil {
		device := *r.Metadata.Device
		cp.Metadata.Device = &device
	}

	return &cp
}

func cloneComments(in []Comment) []Comment {
	if in == nil {
		return nil
	}
	out := make([]Comment, len(in))
	copy(out, in)
	for i := range out {
		out[i].Replies = cloneComments(in[i].Replies)
	}
	return out
}
