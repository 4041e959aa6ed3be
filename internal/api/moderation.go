package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/crisisworks/openreportserve/internal/engine"
	"github.com/crisisworks/openreportserve/internal/models"
)

// VerifyBody is an official verification decision.
type VerifyBody struct {
	VerifierID   string                    `json:"verifier_id"`
	VerifierName string                    `json:"verifier_name"`
	VerifierOrg  string                    `json:"verifier_org"`
	Status       models.VerificationStatus `json:"status"`
	Notes        string                    `json:"notes"`
}

// VerifyReportHandler handles POST /api/reports/{id}/verify.
func (s *Server) VerifyReportHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "verify"

	var body VerifyBody
	if err := decodeBody(r, &body); err != nil {
		s.instrument(endpoint, "POST", "400", start)
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	report, err := s.Engine.VerifyReport(r.Context(), mux.Vars(r)["id"], engine.VerifyRequest{
		VerifierID:   body.VerifierID,
		VerifierName: body.VerifierName,
		VerifierOrg:  body.VerifierOrg,
		Status:       body.Status,
		Notes:        body.Notes,
	})
	if err != nil {
		s.engineError(w, endpoint, "POST", start, err)
		return
	}
	s.instrument(endpoint, "POST", "200", start)
	writeJSON(w, report)
}

// VoteBody is one community vote.
type VoteBody struct {
	PrincipalID string          `json:"principal_id"`
	Kind        models.VoteKind `json:"kind"`
}

// VoteHandler handles POST /api/reports/{id}/vote.
func (s *Server) VoteHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "vote"

	var body VoteBody
	if err := decodeBody(r, &body); err != nil {
		s.instrument(endpoint, "POST", "400", start)
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	report, err := s.Engine.VoteOnReport(r.Context(), mux.Vars(r)["id"], body.PrincipalID, body.Kind)
	if err != nil {
		s.engineError(w, endpoint, "POST", start, err)
		return
	}
	s.instrument(endpoint, "POST", "200", start)
	writeJSON(w, report)
}

// FlagBody is a community complaint about a report.
type FlagBody struct {
	Type       string `json:"type"`
	ReportedBy string `json:"reported_by"`
	Reason     string `json:"reason"`
}

// FlagReportHandler handles POST /api/reports/{id}/flags.
func (s *Server) FlagReportHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "flag"

	var body FlagBody
	if err := decodeBody(r, &body); err != nil {
		s.instrument(endpoint, "POST", "400", start)
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	report, err := s.Engine.FlagReport(r.Context(), mux.Vars(r)["id"], engine.FlagRequest{
		Type:       body.Type,
		ReportedBy: body.ReportedBy,
		Reason:     body.Reason,
	})
	if err != nil {
		s.engineError(w, endpoint, "POST", start, err)
		return
	}
	s.instrument(endpoint, "POST", "200", start)
	writeJSON(w, report)
}

// ResolveFlagBody carries a moderator's flag resolution.
type ResolveFlagBody struct {
	Resolution string `json:"resolution"`
	Actor      string `json:"actor"`
}

// ResolveFlagHandler handles POST /api/reports/{id}/flags/{index}/resolve.
func (s *Server) ResolveFlagHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "resolve_flag"

	vars := mux.Vars(r)
	index, err := strconv.Atoi(vars["index"])
	if err != nil {
		s.instrument(endpoint, "POST", "400", start)
		writeError(w, http.StatusBadRequest, "invalid flag index")
		return
	}

	var body ResolveFlagBody
	if err := decodeBody(r, &body); err != nil {
		s.instrument(endpoint, "POST", "400", start)
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	report, err := s.Engine.ResolveFlag(r.Context(), vars["id"], index, body.Resolution, body.Actor)
	if err != nil {
		s.engineError(w, endpoint, "POST", start, err)
		return
	}
	s.instrument(endpoint, "POST", "200", start)
	writeJSON(w, report)
}

// AssignBody hands a report to a response team.
type AssignBody struct {
	AssignedTo   string                `json:"assigned_to"`
	AssignedBy   string                `json:"assigned_by"`
	Organization string                `json:"organization"`
	Team         string                `json:"team"`
	Priority     models.ReportPriority `json:"priority"`
	Deadline     *time.Time            `json:"deadline"`
	Notes        string                `json:"notes"`
}

// AssignReportHandler handles POST /api/reports/{id}/assign.
func (s *Server) AssignReportHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "assign"

	var body AssignBody
	if err := decodeBody(r, &body); err != nil {
		s.instrument(endpoint, "POST", "400", start)
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	report, err := s.Engine.AssignReport(r.Context(), mux.Vars(r)["id"], engine.AssignRequest{
		AssignedTo:   body.AssignedTo,
		AssignedBy:   body.AssignedBy,
		Organization: body.Organization,
		Team:         body.Team,
		Priority:     body.Priority,
		Deadline:     body.Deadline,
		Notes:        body.Notes,
	})
	if err != nil {
		s.engineError(w, endpoint, "POST", start, err)
		return
	}
	s.instrument(endpoint, "POST", "200", start)
	writeJSON(w, report)
}

// AssignmentStatusBody advances an assignment.
type AssignmentStatusBody struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// UpdateAssignmentHandler handles PATCH /api/reports/{id}/assignment.
func (s *Server) UpdateAssignmentHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "assignment_status"

	var body AssignmentStatusBody
	if err := decodeBody(r, &body); err != nil {
		s.instrument(endpoint, "PATCH", "400", start)
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	report, err := s.Engine.UpdateAssignmentStatus(r.Context(), mux.Vars(r)["id"], body.Status, body.Notes)
	if err != nil {
		s.engineError(w, endpoint, "PATCH", start, err)
		return
	}
	s.instrument(endpoint, "PATCH", "200", start)
	writeJSON(w, report)
}

// CommentBody is a new discussion entry.
type CommentBody struct {
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	AuthorType string `json:"author_type"`
	Content    string `json:"content"`
	IsOfficial bool   `json:"is_official"`
}

// AddCommentHandler handles POST /api/reports/{id}/comments.
func (s *Server) AddCommentHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "comment"

	var body CommentBody
	if err := decodeBody(r, &body); err != nil {
		s.instrument(endpoint, "POST", "400", start)
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	comment, err := s.Engine.AddComment(r.Context(), mux.Vars(r)["id"], engine.CommentRequest{
		AuthorID:   body.AuthorID,
		AuthorName: body.AuthorName,
		AuthorType: body.AuthorType,
		Content:    body.Content,
		IsOfficial: body.IsOfficial,
	})
	if err != nil {
		s.engineError(w, endpoint, "POST", start, err)
		return
	}
	s.instrument(endpoint, "POST", "201", start)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	writeJSON(w, comment)
}

// MergeBody names the surviving report and its duplicates.
type MergeBody struct {
	PrimaryID    string   `json:"primary_id"`
	DuplicateIDs []string `json:"duplicate_ids"`
	Actor        string   `json:"actor"`
}

// MergeReportsHandler handles POST /api/reports/merge.
func (s *Server) MergeReportsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "merge"

	var body MergeBody
	if err := decodeBody(r, &body); err != nil {
		s.instrument(endpoint, "POST", "400", start)
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	report, err := s.Engine.MergeReports(r.Context(), body.PrimaryID, body.DuplicateIDs, body.Actor)
	if err != nil {
		s.engineError(w, endpoint, "POST", start, err)
		return
	}
	s.instrument(endpoint, "POST", "200", start)
	writeJSON(w, report)
}
