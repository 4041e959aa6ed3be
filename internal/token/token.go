// Package token issues signed access tokens for reports. Anonymous
// submitters receive one with their submission response so they can check
// status and add media later without an account; share links carry a
// view-only token.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalid = errors.New("invalid token")
	ErrExpired = errors.New("token expired")
)

// Token scopes. Manage permits status checks plus follow-up edits by the
// original submitter; view permits read access only.
const (
	ScopeView   = "view"
	ScopeManage = "manage"
)

// payload structure for encoding/decoding
type payload struct {
	ReportID   string `json:"r"`
	ReporterID string `json:"u"`
	Scope      string `json:"s"`
	TS         int64  `json:"t"`
}

// Generate creates a signed token binding a report, the principal it was
// issued to and a scope.
func Generate(reportID, reporterID, scope string, secret []byte) (string, error) {
	if scope != ScopeView && scope != ScopeManage {
		return "", fmt.Errorf("unknown scope %q", scope)
	}
	pl := payload{
		ReportID:   reportID,
		ReporterID: reporterID,
		Scope:      scope,
		TS:         time.Now().Unix(),
	}
	data, err := json.Marshal(pl)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(data)
	sig := mac.Sum(nil)

	enc := base64.RawURLEncoding
	return enc.EncodeToString(data) + "." + enc.EncodeToString(sig), nil
}

// Payload holds the verified token claims.
type Payload struct {
	ReportID   string
	ReporterID string
	Scope      string
	IssuedAt   time.Time
}

// Verify checks the token integrity and expiry and returns the claims. A ttl
// of zero disables the expiry check.
func Verify(tok string, secret []byte, ttl time.Duration) (Payload, error) {
	var out Payload

	parts := strings.Split(tok, ".")
	if len(parts) != 2 {
		return out, ErrInvalid
	}
	enc := base64.RawURLEncoding
	data, err := enc.DecodeString(parts[0])
	if err != nil {
		return out, ErrInvalid
	}
	sig, err := enc.DecodeString(parts[1])
	if err != nil {
		return out, ErrInvalid
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(data)
	if !hmac.Equal(mac.Sum(nil), sig) {
		return out, ErrInvalid
	}

	var pl payload
	if err := json.Unmarshal(data, &pl); err != nil {
		return out, ErrInvalid
	}
	if ttl > 0 && time.Since(time.Unix(pl.TS, 0)) > ttl {
		return out, ErrExpired
	}

	out.ReportID = pl.ReportID
	out.ReporterID = pl.ReporterID
	out.Scope = pl.Scope
	out.IssuedAt = time.Unix(pl.TS, 0)
	return out, nil
}
