package api

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/crisisworks/openreportserve/internal/engine"
	"github.com/crisisworks/openreportserve/internal/models"
)

// helper function to write JSON response
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg})
}

// engineErrorStatus maps an engine error onto the HTTP status
// writeEngineError responds with, so metric labels match the response.
func engineErrorStatus(err error) int {
	if _, ok := engine.IsValidation(err); ok {
		return http.StatusBadRequest
	}
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, engine.ErrDuplicateVote), errors.Is(err, engine.ErrNoAssignment):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeEngineError maps engine errors onto HTTP statuses.
func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch status := engineErrorStatus(err); status {
	case http.StatusNotFound:
		writeError(w, status, "not found")
	case http.StatusInternalServerError:
		s.Logger.Error("handler error", zap.Error(err))
		writeError(w, status, "internal error")
	default:
		writeError(w, status, err.Error())
	}
}

// engineError instruments the request with the status the mapped response
// actually carries, then writes the error body.
func (s *Server) engineError(w http.ResponseWriter, endpoint, method string, start time.Time, err error) {
	s.instrument(endpoint, method, strconv.Itoa(engineErrorStatus(err)), start)
	s.writeEngineError(w, err)
}

// instrument records the request counter and latency for one handler call.
func (s *Server) instrument(endpoint, method, status string, start time.Time) {
	s.Metrics.IncrementRequests(endpoint, method, status)
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
}

func decodeBody(r *http.Request, v interface{}) error {
	defer func() { _ = r.Body.Close() }()
	return json.NewDecoder(r.Body).Decode(v)
}

// clientIP extracts the originating address, honouring X-Forwarded-For.
func clientIP(r *http.Request) net.IP {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first := strings.TrimSpace(strings.Split(fwd, ",")[0])
		if ip := net.ParseIP(first); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return net.ParseIP(r.RemoteAddr)
	}
	return net.ParseIP(host)
}
