package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/crisisworks/openreportserve/internal/analytics"
	"github.com/crisisworks/openreportserve/internal/config"
	"github.com/crisisworks/openreportserve/internal/models"
	"github.com/crisisworks/openreportserve/internal/observability"
)

// Persister is the write-through durability surface. All methods are called
// after the in-memory store has already accepted the mutation; failures are
// logged and counted, never surfaced to the caller.
type Persister interface {
	UpsertReport(ctx context.Context, r *models.Report) error
	UpsertReporter(ctx context.Context, rep *models.Reporter) error
	UpsertTrend(ctx context.Context, t *models.Trend) error
	UpsertAlert(ctx context.Context, a *models.Alert) error
	UpsertCampaign(ctx context.Context, c *models.Campaign) error
}

// Notifier publishes lifecycle updates for downstream consumers.
type Notifier interface {
	PublishUpdate(kind, id, event string)
}

// Engine sequences the classifier, verification scorer, duplicate finder,
// reputation ledger, trend detector and alert checks. It is the only
// component that calls them; handlers talk to the engine, never to the parts.
type Engine struct {
	store   models.ReportDataStore
	lexMu   sync.RWMutex
	lex     *config.Lexicon
	policy  config.Policy
	clock   Clock
	ids     IDGenerator
	metrics observability.MetricsRegistry
	events  analytics.AnalyticsService
	persist Persister
	notify  Notifier
	logger  *zap.Logger
}

// Options carries the engine's optional collaborators. Zero values get safe
// defaults: real clock, uuid ids, no-op metrics, no sinks.
type Options struct {
	Clock     Clock
	IDs       IDGenerator
	Metrics   observability.MetricsRegistry
	Events    analytics.AnalyticsService
	Persister Persister
	Notifier  Notifier
	Logger    *zap.Logger
}

// New constructs an engine over the given store, lexicon and policy.
func New(store models.ReportDataStore, lex *config.Lexicon, policy config.Policy, opts Options) *Engine {
	e := &Engine{
		store:   store,
		lex:     lex,
		policy:  policy,
		clock:   opts.Clock,
		ids:     opts.IDs,
		metrics: opts.Metrics,
		events:  opts.Events,
		persist: opts.Persister,
		notify:  opts.Notifier,
		logger:  opts.Logger,
	}
	if e.clock == nil {
		e.clock = SystemClock()
	}
	if e.ids == nil {
		e.ids = UUIDGenerator()
	}
	if e.metrics == nil {
		e.metrics = observability.NewNoOpRegistry()
	}
	if e.logger == nil {
		e.logger = zap.L()
	}
	return e
}

func (e *Engine) lexicon() *config.Lexicon {
	e.lexMu.RLock()
	defer e.lexMu.RUnlock()
	return e.lex
}

// ReloadLexicon swaps the classification lexicon. Reports already classified
// keep their scores; only submissions after the swap see the new keywords.
func (e *Engine) ReloadLexicon(lex *config.Lexicon) {
	e.lexMu.Lock()
	e.lex = lex
	e.lexMu.Unlock()
	e.logger.Info("lexicon reloaded")
}

// SubmitRequest carries everything a submission endpoint collects.
type SubmitRequest struct {
	Type        models.ReportType
	Category    string
	Subcategory string
	Title       string
	Description string
	Location    models.Location
	Reporter    models.ReporterInfo
	Media       []models.Media
	Tags        []string
	Metadata    models.Metadata
}

func (req *SubmitRequest) validate() error {
	if strings.TrimSpace(req.Title) == "" {
		return &ValidationError{Field: "title", Reason: "required"}
	}
	if strings.TrimSpace(req.Description) == "" {
		return &ValidationError{Field: "description", Reason: "required"}
	}
	loc := req.Location
	if loc.Lat == 0 && loc.Lon == 0 && loc.Address == "" {
		return &ValidationError{Field: "location", Reason: "coordinates or address required"}
	}
	if loc.Lat < -90 || loc.Lat > 90 {
		return &ValidationError{Field: "location", Reason: "latitude out of range"}
	}
	if loc.Lon < -180 || loc.Lon > 180 {
		return &ValidationError{Field: "location", Reason: "longitude out of range"}
	}
	return nil
}

// SubmitReport runs the full submission pipeline: classify, persist,
// auto-verify, link related reports, credit the reporter, check trends and
// alert conditions. Classification never fails on arbitrary text; a report
// with no keyword matches simply lands at low priority with a neutral
// sentiment.
func (e *Engine) SubmitReport(ctx context.Context, req SubmitRequest) (*models.Report, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	now := e.clock.Now()

	if req.Type == "" {
		req.Type = models.ReportTypeOther
	}
	if req.Category == "" {
		req.Category = string(req.Type)
	}
	if req.Location.GeocodeSource == "" {
		req.Location.GeocodeSource = "manual"
	}

	reporter := req.Reporter
	if reporter.ID == "" {
		reporter.ID = fmt.Sprintf("anon-%d", now.Unix())
		reporter.Type = "anonymous"
	}
	// snapshot the reporter's standing as of this submission
	if agg, err := e.store.GetReporter(reporter.ID); err == nil {
		score := agg.Reputation.Score
		if score > 100 {
			score = 100
		}
		reporter.CredibilityScore = score
		reporter.CredibilityTier = agg.Reputation.Tier
		reporter.TotalReports = agg.Activity.TotalReports
		reporter.VerifiedReports = agg.Activity.VerifiedReports
	} else if reporter.CredibilityTier == "" {
		reporter.CredibilityTier = models.TierNew
	}

	lex := e.lexicon()
	priority := DetectPriority(lex, req.Title, req.Description)

	r := &models.Report{
		ID:           e.ids.NewID("report"),
		Type:         req.Type,
		Category:     req.Category,
		Subcategory:  req.Subcategory,
		Status:       models.StatusSubmitted,
		Priority:     priority,
		Title:        req.Title,
		Description:  req.Description,
		Location:     req.Location,
		Reporter:     reporter,
		Media:        e.stampMedia(req.Media, now),
		UrgencyScore: UrgencyScore(lex, req.Category, priority),
		ImpactScore:  ImpactScore(lex, req.Description),
		Sentiment:    AnalyzeSentiment(lex, req.Title, req.Description),
		Verification: models.Verification{Status: models.VerificationPending},
		Tags:         req.Tags,
		Metadata:     req.Metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if r.Metadata.Source == "" {
		r.Metadata.Source = "api"
	}
	if r.Metadata.LanguageCode == "" {
		r.Metadata.LanguageCode = "en"
	}
	e.appendTimeline(r, "created", "System", "system", "Report submitted", now)

	if campaign := e.matchCampaign(r, now); campaign != nil {
		r.CampaignID = campaign.ID
	}

	if runAutoVerification(e.policy, r) {
		at := now
		r.Verification.VerifiedAt = &at
		e.appendTimeline(r, "verified", "System", "system", "Automatically verified", now)
		e.metrics.IncrementVerifications("auto")
	}

	r.RelatedReports = findRelatedReports(e.store, e.policy, r)

	if err := e.store.InsertReport(r); err != nil {
		return nil, fmt.Errorf("persist report: %w", err)
	}

	rep := e.store.UpsertReporter(r.Reporter.ID, func(agg *models.Reporter) {
		if agg.Type == "registered" && reporter.Type != "" {
			agg.Type = reporter.Type
		}
		if agg.Name == "" {
			agg.Name = reporter.Name
		}
		if agg.CreatedAt.IsZero() {
			agg.CreatedAt = now
		}
		applyReporterOutcome(e.policy, agg, outcomeSubmitted, r.Type, now)
	})

	if trend := detectTrend(e.store, e.policy, e.ids, r, now); trend != nil {
		e.metrics.IncrementTrends("matched")
		e.persistTrend(ctx, trend)
		e.publish("trend", trend.ID, "detected")
	}

	for _, alert := range checkAlertConditions(e.store, e.policy, e.ids, r, now) {
		e.metrics.IncrementAlerts(string(alert.Type))
		e.persistAlert(ctx, alert)
		e.publish("alert", alert.ID, "triggered")
	}

	if r.CampaignID != "" {
		if c, err := e.store.UpdateCampaign(r.CampaignID, func(c *models.Campaign) error {
			c.CurrentReports++
			c.Participants = appendUnique(c.Participants, r.Reporter.ID)
			c.UpdatedAt = now
			return nil
		}); err == nil {
			e.persistCampaign(ctx, c)
		}
	}

	e.metrics.IncrementSubmissions(string(r.Type), string(r.Priority))
	e.persistReport(ctx, r)
	e.persistReporter(ctx, rep)
	e.recordEvent(ctx, "submitted", r)
	e.publish("report", r.ID, "submitted")

	e.logger.Info("report submitted",
		zap.String("report_id", r.ID),
		zap.String("type", string(r.Type)),
		zap.String("priority", string(r.Priority)),
		zap.Int("related", len(r.RelatedReports)))
	return r, nil
}

// stampMedia assigns ids and upload timestamps to submitted attachments.
func (e *Engine) stampMedia(media []models.Media, now time.Time) []models.Media {
	out := make([]models.Media, len(media))
	copy(out, media)
	for i := range out {
		if out[i].ID == "" {
			out[i].ID = e.ids.NewID("attach")
		}
		out[i].UploadedAt = now
	}
	return out
}

// matchCampaign returns the first active campaign whose type and area cover
// the report.
func (e *Engine) matchCampaign(r *models.Report, now time.Time) *models.Campaign {
	for _, c := range e.store.AllCampaigns() {
		if c.Status != models.CampaignActive || c.Type != r.Type {
			continue
		}
		if now.Before(c.StartDate) {
			continue
		}
		if c.EndDate != nil && now.After(*c.EndDate) {
			continue
		}
		if c.Center != nil && c.RadiusKm > 0 {
			if models.HaversineKm(c.Center.Lat, c.Center.Lon, r.Location.Lat, r.Location.Lon) > c.RadiusKm {
				continue
			}
		}
		return c
	}
	return nil
}

// GetReport returns the report or models.ErrNotFound.
func (e *Engine) GetReport(id string) (*models.Report, error) {
	return e.store.GetReport(id)
}

// ListReports evaluates the filter and returns a page plus the total match
// count.
func (e *Engine) ListReports(f models.ReportFilter) ([]*models.Report, int) {
	if f.Limit <= 0 {
		f.Limit = e.policy.DefaultPageSize
	}
	return e.store.QueryReports(f)
}

// UpdateRequest carries a partial report update. Nil fields are untouched.
type UpdateRequest struct {
	Status      *models.ReportStatus
	Priority    *models.ReportPriority
	Description *string
	Tags        []string
	Actor       string
	ActorType   string
	Notes       string
}

// UpdateReport applies the changed fields, appends one timeline event
// summarizing them, and settles reputation when the status lands on rejected.
func (e *Engine) UpdateReport(ctx context.Context, id string, req UpdateRequest) (*models.Report, error) {
	now := e.clock.Now()
	var rejected bool
	var reporterID string
	var reportType models.ReportType

	r, err := e.store.UpdateReport(id, func(r *models.Report) error {
		var changes []string
		if req.Status != nil && *req.Status != r.Status {
			changes = append(changes, fmt.Sprintf("Status: %s to %s", r.Status, *req.Status))
			if *req.Status == models.StatusRejected && r.Status != models.StatusRejected {
				rejected = true
				reporterID = r.Reporter.ID
				reportType = r.Type
			}
			r.Status = *req.Status
		}
		if req.Priority != nil && *req.Priority != r.Priority {
			changes = append(changes, fmt.Sprintf("Priority: %s to %s", r.Priority, *req.Priority))
			r.Priority = *req.Priority
		}
		if req.Description != nil {
			r.Description = *req.Description
			changes = append(changes, "Description updated")
		}
		if req.Tags != nil {
			r.Tags = req.Tags
			changes = append(changes, "Tags updated")
		}
		if len(changes) == 0 {
			return nil
		}
		desc := strings.Join(changes, "; ")
		if req.Notes != "" {
			desc += " - " + req.Notes
		}
		r.UpdatedAt = now
		e.appendTimeline(r, "status_change", req.Actor, req.ActorType, desc, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if rejected {
		rep := e.store.UpsertReporter(reporterID, func(agg *models.Reporter) {
			applyReporterOutcome(e.policy, agg, outcomeRejected, reportType, now)
		})
		e.persistReporter(ctx, rep)
	}

	e.persistReport(ctx, r)
	e.recordEvent(ctx, "updated", r)
	e.publish("report", r.ID, "updated")
	return r, nil
}

// VerifyRequest is an official reviewer's decision.
type VerifyRequest struct {
	VerifierID   string
	VerifierName string
	VerifierOrg  string
	Status       models.VerificationStatus
	Notes        string
}

// VerifyReport applies an official verification. A verified decision also
// promotes the report status and credits the reporter; the official decision
// overrides the automatic score outright.
func (e *Engine) VerifyReport(ctx context.Context, id string, req VerifyRequest) (*models.Report, error) {
	if req.Status == "" {
		return nil, &ValidationError{Field: "status", Reason: "required"}
	}
	now := e.clock.Now()
	var reporterID string
	var reportType models.ReportType

	r, err := e.store.UpdateReport(id, func(r *models.Report) error {
		r.Verification.Status = req.Status
		r.Verification.VerifiedBy = []string{req.VerifierID}
		at := now
		r.Verification.VerifiedAt = &at
		r.Verification.Official = &models.OfficialVerification{
			VerifierID:   req.VerifierID,
			VerifierName: req.VerifierName,
			VerifierOrg:  req.VerifierOrg,
			Timestamp:    now,
			Notes:        req.Notes,
		}
		if req.Status == models.VerificationVerified {
			r.Verification.Score = 100
			r.Status = models.StatusVerified
			reporterID = r.Reporter.ID
			reportType = r.Type
		} else {
			r.Verification.Score = 50
		}
		r.UpdatedAt = now
		e.appendTimeline(r, "verified", req.VerifierName, "official",
			fmt.Sprintf("Verified by %s: %s", req.VerifierOrg, req.Notes), now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if reporterID != "" {
		rep := e.store.UpsertReporter(reporterID, func(agg *models.Reporter) {
			applyReporterOutcome(e.policy, agg, outcomeVerified, reportType, now)
		})
		e.persistReporter(ctx, rep)
	}

	e.metrics.IncrementVerifications("official")
	e.persistReport(ctx, r)
	e.recordEvent(ctx, "verified", r)
	e.publish("report", r.ID, "verified")
	return r, nil
}

// VoteOnReport records one community vote. A principal may vote once per
// report ever; up, down and confirm also nudge the verification score.
func (e *Engine) VoteOnReport(ctx context.Context, id, principalID string, kind models.VoteKind) (*models.Report, error) {
	if principalID == "" {
		return nil, &ValidationError{Field: "principal_id", Reason: "required"}
	}
	switch kind {
	case models.VoteUp, models.VoteDown, models.VoteConfirm, models.VoteDispute:
	default:
		return nil, &ValidationError{Field: "kind", Reason: "unknown vote kind"}
	}
	now := e.clock.Now()

	r, err := e.store.UpdateReport(id, func(r *models.Report) error {
		if r.Votes.HasVoted(principalID) {
			return ErrDuplicateVote
		}
		r.Votes.Voters = append(r.Votes.Voters, models.VoteRecord{
			PrincipalID: principalID,
			Kind:        kind,
			Timestamp:   now,
		})
		switch kind {
		case models.VoteUp:
			r.Votes.Upvotes++
			r.Verification.Community.Upvotes++
		case models.VoteDown:
			r.Votes.Downvotes++
			r.Verification.Community.Downvotes++
		case models.VoteConfirm:
			r.Votes.Confirmations++
			r.Verification.Community.Corroborations++
		case models.VoteDispute:
			r.Votes.Disputations++
		}
		if kind != models.VoteDispute {
			applyCommunityAdjustment(r)
		}
		r.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.store.UpsertReporter(principalID, func(agg *models.Reporter) {
		agg.Activity.TotalVotes++
		agg.Activity.LastActive = now
		agg.UpdatedAt = now
	})

	e.metrics.IncrementVotes(string(kind))
	e.persistReport(ctx, r)
	e.recordEvent(ctx, "voted", r)
	e.publish("report", r.ID, "voted")
	return r, nil
}

// FlagRequest describes a community complaint.
type FlagRequest struct {
	Type       string
	ReportedBy string
	Reason     string
}

// FlagReport appends a flag. Reaching the unresolved-flag quorum forces the
// report under review regardless of its verification score.
func (e *Engine) FlagReport(ctx context.Context, id string, req FlagRequest) (*models.Report, error) {
	if req.Type == "" {
		return nil, &ValidationError{Field: "type", Reason: "required"}
	}
	now := e.clock.Now()
	quarantined := false

	r, err := e.store.UpdateReport(id, func(r *models.Report) error {
		r.Verification.Flags = append(r.Verification.Flags, models.Flag{
			Type:       req.Type,
			ReportedBy: req.ReportedBy,
			ReportedAt: now,
			Reason:     req.Reason,
		})
		if r.UnresolvedFlags() >= e.policy.QuarantineFlagCount && r.Status != models.StatusUnderReview {
			r.Status = models.StatusUnderReview
			quarantined = true
			e.appendTimeline(r, "status_change", "System", "system",
				"Moved under review: unresolved flag threshold reached", now)
		}
		r.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.metrics.IncrementFlags(req.Type)
	if quarantined {
		e.metrics.IncrementQuarantines()
	}
	e.persistReport(ctx, r)
	e.recordEvent(ctx, "flagged", r)
	e.publish("report", r.ID, "flagged")
	return r, nil
}

// ResolveFlag marks the indexed flag resolved with a resolution note.
func (e *Engine) ResolveFlag(ctx context.Context, id string, index int, resolution, actor string) (*models.Report, error) {
	now := e.clock.Now()
	r, err := e.store.UpdateReport(id, func(r *models.Report) error {
		if index < 0 || index >= len(r.Verification.Flags) {
			return models.ErrNotFound
		}
		r.Verification.Flags[index].Resolved = true
		r.Verification.Flags[index].Resolution = resolution
		r.UpdatedAt = now
		e.appendTimeline(r, "updated", actor, "moderator",
			fmt.Sprintf("Flag resolved: %s", resolution), now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.persistReport(ctx, r)
	return r, nil
}

// AssignRequest hands a report to a response team.
type AssignRequest struct {
	AssignedTo   string
	AssignedBy   string
	Organization string
	Team         string
	Priority     models.ReportPriority
	Deadline     *time.Time
	Notes        string
}

// AssignReport records the assignment and moves the report to assigned.
func (e *Engine) AssignReport(ctx context.Context, id string, req AssignRequest) (*models.Report, error) {
	if req.AssignedTo == "" {
		return nil, &ValidationError{Field: "assigned_to", Reason: "required"}
	}
	now := e.clock.Now()
	r, err := e.store.UpdateReport(id, func(r *models.Report) error {
		r.Assignment = &models.Assignment{
			AssignedTo:   req.AssignedTo,
			AssignedBy:   req.AssignedBy,
			AssignedAt:   now,
			Organization: req.Organization,
			Team:         req.Team,
			Priority:     req.Priority,
			Deadline:     req.Deadline,
			Status:       "pending",
			Notes:        req.Notes,
		}
		r.Status = models.StatusAssigned
		r.UpdatedAt = now
		desc := "Assigned to " + req.Organization
		if req.Team != "" {
			desc += " - " + req.Team
		}
		e.appendTimeline(r, "assigned", req.AssignedBy, "official", desc, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.persistReport(ctx, r)
	e.recordEvent(ctx, "assigned", r)
	e.publish("report", r.ID, "assigned")
	return r, nil
}

// UpdateAssignmentStatus advances the assignment; completion resolves the
// report. Returns ErrNoAssignment for reports that were never assigned.
func (e *Engine) UpdateAssignmentStatus(ctx context.Context, id, status, notes string) (*models.Report, error) {
	now := e.clock.Now()
	resolved := false
	r, err := e.store.UpdateReport(id, func(r *models.Report) error {
		if r.Assignment == nil {
			return ErrNoAssignment
		}
		r.Assignment.Status = status
		if notes != "" {
			r.Assignment.Notes = notes
		}
		if status == "completed" {
			r.Status = models.StatusResolved
			resolved = true
		}
		r.UpdatedAt = now
		desc := "Assignment status: " + status
		if notes != "" {
			desc += " - " + notes
		}
		e.appendTimeline(r, "status_change", r.Assignment.AssignedTo, "responder", desc, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.persistReport(ctx, r)
	if resolved {
		e.recordEvent(ctx, "resolved", r)
		e.publish("report", r.ID, "resolved")
	}
	return r, nil
}

// CommentRequest is one new discussion entry.
type CommentRequest struct {
	AuthorID   string
	AuthorName string
	AuthorType string
	Content    string
	IsOfficial bool
}

// AddComment appends a comment to the report's thread and returns it.
func (e *Engine) AddComment(ctx context.Context, id string, req CommentRequest) (*models.Comment, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, &ValidationError{Field: "content", Reason: "required"}
	}
	now := e.clock.Now()
	comment := models.Comment{
		ID:         e.ids.NewID("comment"),
		AuthorID:   req.AuthorID,
		AuthorName: req.AuthorName,
		AuthorType: req.AuthorType,
		Content:    req.Content,
		IsOfficial: req.IsOfficial,
		CreatedAt:  now,
	}

	r, err := e.store.UpdateReport(id, func(r *models.Report) error {
		r.Comments = append(r.Comments, comment)
		r.UpdatedAt = now
		desc := "Comment added"
		if req.IsOfficial {
			desc = "Official response added"
		}
		actorType := req.AuthorType
		if actorType == "citizen" || actorType == "" {
			actorType = "reporter"
		}
		e.appendTimeline(r, "comment", req.AuthorName, actorType, desc, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.AuthorID != "" {
		e.store.UpsertReporter(req.AuthorID, func(agg *models.Reporter) {
			agg.Activity.CommentsPosted++
			agg.Activity.LastActive = now
			agg.UpdatedAt = now
		})
	}

	e.persistReport(ctx, r)
	return &comment, nil
}

// MergeReports folds duplicates into the primary: each duplicate turns
// terminal with a back-link, while the primary absorbs media and positive
// votes. Duplicates stay queryable by id.
func (e *Engine) MergeReports(ctx context.Context, primaryID string, duplicateIDs []string, actor string) (*models.Report, error) {
	if len(duplicateIDs) == 0 {
		return nil, &ValidationError{Field: "duplicate_ids", Reason: "required"}
	}
	if _, err := e.store.GetReport(primaryID); err != nil {
		return nil, err
	}
	now := e.clock.Now()

	var absorbedMedia []models.Media
	absorbedUp, absorbedConfirm := 0, 0
	var merged []string

	for _, dupID := range duplicateIDs {
		if dupID == primaryID {
			continue
		}
		dup, err := e.store.UpdateReport(dupID, func(d *models.Report) error {
			d.Status = models.StatusDuplicate
			d.RelatedReports = appendUnique(d.RelatedReports, primaryID)
			d.UpdatedAt = now
			e.appendTimeline(d, "merged", actor, "moderator",
				fmt.Sprintf("Merged into %s", primaryID), now)
			return nil
		})
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				continue
			}
			return nil, err
		}
		absorbedMedia = append(absorbedMedia, dup.Media...)
		absorbedUp += dup.Votes.Upvotes
		absorbedConfirm += dup.Votes.Confirmations
		merged = append(merged, dupID)
		e.persistReport(ctx, dup)
		e.recordEvent(ctx, "merged", dup)
	}

	r, err := e.store.UpdateReport(primaryID, func(r *models.Report) error {
		for _, id := range merged {
			r.RelatedReports = appendUnique(r.RelatedReports, id)
		}
		r.Media = append(r.Media, absorbedMedia...)
		r.Votes.Upvotes += absorbedUp
		r.Votes.Confirmations += absorbedConfirm
		r.UpdatedAt = now
		e.appendTimeline(r, "merged", actor, "moderator",
			fmt.Sprintf("Merged %d duplicate reports", len(merged)), now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.metrics.IncrementMerges()
	e.persistReport(ctx, r)
	e.publish("report", r.ID, "merged")
	return r, nil
}

// GetReporter returns the reporter aggregate or models.ErrNotFound.
func (e *Engine) GetReporter(id string) (*models.Reporter, error) {
	return e.store.GetReporter(id)
}

// TrendFilter narrows GetTrends.
type TrendFilter struct {
	Category    string
	Status      models.TrendStatus
	MinSeverity string
}

var severityRank = map[string]int{"low": 0, "medium": 1, "high": 2, "critical": 3}

// GetTrends returns trends matching the filter, most recently seen first.
func (e *Engine) GetTrends(f TrendFilter) []*models.Trend {
	trends := e.store.AllTrends()
	out := trends[:0]
	for _, t := range trends {
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.MinSeverity != "" && severityRank[t.Severity] < severityRank[f.MinSeverity] {
			continue
		}
		out = append(out, t)
	}
	sortTrendsByLastSeen(out)
	return out
}

// UpdateTrendStatus applies an explicit operator transition.
func (e *Engine) UpdateTrendStatus(ctx context.Context, id string, status models.TrendStatus, actor string) (*models.Trend, error) {
	switch status {
	case models.TrendNew, models.TrendAcknowledged, models.TrendInvestigating, models.TrendActionTaken, models.TrendClosed:
	default:
		return nil, &ValidationError{Field: "status", Reason: "unknown trend status"}
	}
	now := e.clock.Now()
	t, err := e.store.UpdateTrend(id, func(t *models.Trend) error {
		t.Status = status
		t.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.persistTrend(ctx, t)
	e.publish("trend", t.ID, string(status))
	e.logger.Info("trend status updated",
		zap.String("trend_id", id), zap.String("status", string(status)), zap.String("actor", actor))
	return t, nil
}

// GetAlerts returns alerts, optionally only unresolved ones, ordered
// critical first.
func (e *Engine) GetAlerts(unresolvedOnly bool) []*models.Alert {
	alerts := e.store.AllAlerts()
	out := alerts[:0]
	for _, a := range alerts {
		if unresolvedOnly && a.ResolvedAt != nil {
			continue
		}
		out = append(out, a)
	}
	sortAlertsBySeverity(out)
	return out
}

// AcknowledgeAlert records who took ownership of an alert.
func (e *Engine) AcknowledgeAlert(ctx context.Context, id, actor string) (*models.Alert, error) {
	now := e.clock.Now()
	a, err := e.store.UpdateAlert(id, func(a *models.Alert) error {
		a.AcknowledgedBy = actor
		at := now
		a.AcknowledgedAt = &at
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.persistAlert(ctx, a)
	return a, nil
}

// ResolveAlert closes an alert.
func (e *Engine) ResolveAlert(ctx context.Context, id string) (*models.Alert, error) {
	now := e.clock.Now()
	a, err := e.store.UpdateAlert(id, func(a *models.Alert) error {
		at := now
		a.ResolvedAt = &at
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.persistAlert(ctx, a)
	return a, nil
}

// CampaignRequest describes a new reporting campaign.
type CampaignRequest struct {
	Name          string
	Description   string
	Type          models.ReportType
	Center        *models.Coordinates
	RadiusKm      float64
	TargetReports int
	StartDate     time.Time
	EndDate       *time.Time
	CreatedBy     string
}

// CreateCampaign opens a campaign in the active state.
func (e *Engine) CreateCampaign(ctx context.Context, req CampaignRequest) (*models.Campaign, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, &ValidationError{Field: "name", Reason: "required"}
	}
	now := e.clock.Now()
	start := req.StartDate
	if start.IsZero() {
		start = now
	}
	c := &models.Campaign{
		ID:            e.ids.NewID("campaign"),
		Name:          req.Name,
		Description:   req.Description,
		Type:          req.Type,
		Status:        models.CampaignActive,
		Center:        req.Center,
		RadiusKm:      req.RadiusKm,
		TargetReports: req.TargetReports,
		StartDate:     start,
		EndDate:       req.EndDate,
		CreatedBy:     req.CreatedBy,
		Participants:  []string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := e.store.InsertCampaign(c); err != nil {
		return nil, fmt.Errorf("persist campaign: %w", err)
	}
	e.persistCampaign(ctx, c)
	return c, nil
}

// GetCampaigns returns campaigns, optionally filtered by status.
func (e *Engine) GetCampaigns(status models.CampaignStatus) []*models.Campaign {
	campaigns := e.store.AllCampaigns()
	if status == "" {
		return campaigns
	}
	out := campaigns[:0]
	for _, c := range campaigns {
		if c.Status == status {
			out = append(out, c)
		}
	}
	return out
}

// appendTimeline adds one event to the report's history.
func (e *Engine) appendTimeline(r *models.Report, eventType, actor, actorType, description string, now time.Time) {
	r.Timeline = append(r.Timeline, models.TimelineEvent{
		ID:          e.ids.NewID("event"),
		Type:        eventType,
		Timestamp:   now,
		Actor:       actor,
		ActorType:   actorType,
		Description: description,
	})
}

func appendUnique(ids []string, id string) []string {
	for _, have := range ids {
		if have == id {
			return ids
		}
	}
	return append(ids, id)
}

func (e *Engine) persistReport(ctx context.Context, r *models.Report) {
	if e.persist == nil {
		return
	}
	if err := e.persist.UpsertReport(ctx, r); err != nil {
		e.metrics.IncrementPersistErrors("postgres")
		e.logger.Error("persist report failed", zap.Error(err), zap.String("report_id", r.ID))
	}
}

func (e *Engine) persistReporter(ctx context.Context, rep *models.Reporter) {
	if e.persist == nil || rep == nil {
		return
	}
	if err := e.persist.UpsertReporter(ctx, rep); err != nil {
		e.metrics.IncrementPersistErrors("postgres")
		e.logger.Error("persist reporter failed", zap.Error(err), zap.String("reporter_id", rep.ID))
	}
}

func (e *Engine) persistTrend(ctx context.Context, t *models.Trend) {
	if e.persist == nil {
		return
	}
	if err := e.persist.UpsertTrend(ctx, t); err != nil {
		e.metrics.IncrementPersistErrors("postgres")
		e.logger.Error("persist trend failed", zap.Error(err), zap.String("trend_id", t.ID))
	}
}

func (e *Engine) persistAlert(ctx context.Context, a *models.Alert) {
	if e.persist == nil {
		return
	}
	if err := e.persist.UpsertAlert(ctx, a); err != nil {
		e.metrics.IncrementPersistErrors("postgres")
		e.logger.Error("persist alert failed", zap.Error(err), zap.String("alert_id", a.ID))
	}
}

func (e *Engine) persistCampaign(ctx context.Context, c *models.Campaign) {
	if e.persist == nil {
		return
	}
	if err := e.persist.UpsertCampaign(ctx, c); err != nil {
		e.metrics.IncrementPersistErrors("postgres")
		e.logger.Error("persist campaign failed", zap.Error(err), zap.String("campaign_id", c.ID))
	}
}

func (e *Engine) recordEvent(ctx context.Context, eventType string, r *models.Report) {
	if e.events == nil {
		return
	}
	ev := analytics.EventFromReport(eventType, r)
	ev.Timestamp = e.clock.Now()
	if err := e.events.RecordReportEvent(ctx, ev); err != nil && !errors.Is(err, analytics.ErrUnavailable) {
		e.logger.Warn("record event failed", zap.Error(err), zap.String("event_type", eventType))
	}
}

func (e *Engine) publish(kind, id, event string) {
	if e.notify == nil {
		return
	}
	e.notify.PublishUpdate(kind, id, event)
}
