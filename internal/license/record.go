// Package license owns the license record, its entitlement evaluation, and
// the controller that keeps it fresh.
package license

import (
	"encoding/json"
	"strings"
)

// Status is the server-reported license status.
type Status string

const (
	StatusNotActivated Status = "not_activated"
	StatusActive       Status = "active"
	StatusExpired      Status = "expired"
	StatusRevoked      Status = "revoked"
)

// Record is the current license as reported by the agent backend. It is
// replaced wholesale on every successful check; a failed check keeps the
// previous record.
type Record struct {
	Status     Status `json:"status"`
	Plan       string `json:"plan,omitempty"`
	ExpiryDate string `json:"expiry_date,omitempty"`
	DaysLeft   *int   `json:"days_left,omitempty"`
	SteamID    string `json:"steamid,omitempty"`
	Online     bool   `json:"online"`

	// Key is the canonical credential, normalized from the several field
	// names the backend may deliver it under.
	Key string `json:"cd_key,omitempty"`
}

// recordWire mirrors every field name the backend has ever used for the
// credential, top-level and nested under a license sub-object.
type recordWire struct {
	Status     Status `json:"status"`
	Plan       string `json:"plan"`
	ExpiryDate string `json:"expiry_date"`
	DaysLeft   *int   `json:"days_left"`
	SteamID    string `json:"steamid"`
	Online     *bool  `json:"online"`

	CDKey  string `json:"cd_key"`
	CdKey  string `json:"cdkey"`
	Key    string `json:"key"`
	Nested *struct {
		CDKey string `json:"cd_key"`
		CdKey string `json:"cdkey"`
		Key   string `json:"key"`
	} `json:"license"`
}

// UnmarshalJSON decodes a backend payload, resolving the credential through
// the fixed candidate priority order (see ResolveKeyCandidates).
func (r *Record) UnmarshalJSON(data []byte) error {
	var wire recordWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	candidates := []string{wire.CDKey, wire.CdKey, wire.Key}
	if wire.Nested != nil {
		candidates = append(candidates, wire.Nested.CDKey, wire.Nested.CdKey, wire.Nested.Key)
	}

	*r = Record{
		Status:     wire.Status,
		Plan:       wire.Plan,
		ExpiryDate: wire.ExpiryDate,
		DaysLeft:   wire.DaysLeft,
		SteamID:    wire.SteamID,
		Online:     wire.Online == nil || *wire.Online,
		Key:        ResolveKeyCandidates(candidates...),
	}
	return nil
}

// ResolveKeyCandidates returns the first non-blank candidate. Callers pass
// candidates in priority order: cd_key, cdkey, key, each top-level before
// the same names nested under a license sub-object.
func ResolveKeyCandidates(candidates ...string) string {
	for _, c := range candidates {
		if strings.TrimSpace(c) != "" {
			return c
		}
	}
	return ""
}

// HasKey reports whether the record carries a usable credential.
func (r *Record) HasKey() bool {
	return r != nil && strings.TrimSpace(r.Key) != ""
}

// PromptContext describes why the activation dialog is being surfaced.
type PromptContext struct {
	Expired    bool   `json:"expired,omitempty"`
	Revoked    bool   `json:"revoked,omitempty"`
	ExpiryDate string `json:"expiry_date,omitempty"`
}

// PromptContext derives the dialog context flags from the record's status.
func (r *Record) PromptContext() PromptContext {
	if r == nil {
		return PromptContext{}
	}
	return PromptContext{
		Expired:    r.Status == StatusExpired,
		Revoked:    r.Status == StatusRevoked,
		ExpiryDate: r.ExpiryDate,
	}
}
