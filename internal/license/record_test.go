package license

import (
	"encoding/json"
	"testing"
)

func TestResolveKeyCandidates(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		want       string
	}{
		{"first wins", []string{"AAA", "BBB"}, "AAA"},
		{"blank skipped", []string{"", "BBB"}, "BBB"},
		{"whitespace skipped", []string{"   ", "BBB"}, "BBB"},
		{"all blank", []string{"", "  ", ""}, ""},
		{"none", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveKeyCandidates(tt.candidates...); got != tt.want {
				t.Errorf("ResolveKeyCandidates(%v) = %q, want %q", tt.candidates, got, tt.want)
			}
		})
	}
}

func TestRecordUnmarshalKeyPriority(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantKey string
	}{
		{
			"top-level cd_key preferred",
			`{"status":"active","cd_key":"TOP-CDKEY","cdkey":"TOP-CDK","key":"TOP-KEY","license":{"cd_key":"NESTED"}}`,
			"TOP-CDKEY",
		},
		{
			"cdkey before key",
			`{"status":"active","cdkey":"TOP-CDK","key":"TOP-KEY"}`,
			"TOP-CDK",
		},
		{
			"top-level before nested",
			`{"status":"active","key":"TOP-KEY","license":{"cd_key":"NESTED-CDKEY"}}`,
			"TOP-KEY",
		},
		{
			"nested fallback in priority order",
			`{"status":"active","license":{"cdkey":"NESTED-CDK","key":"NESTED-KEY"}}`,
			"NESTED-CDK",
		},
		{
			"blank top-level falls through to nested",
			`{"status":"active","cd_key":"  ","license":{"key":"NESTED-KEY"}}`,
			"NESTED-KEY",
		},
		{
			"no key anywhere",
			`{"status":"active"}`,
			"",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Record
			if err := json.Unmarshal([]byte(tt.payload), &r); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if r.Key != tt.wantKey {
				t.Errorf("Key = %q, want %q", r.Key, tt.wantKey)
			}
		})
	}
}

func TestRecordUnmarshalFields(t *testing.T) {
	payload := `{"status":"active","plan":"1y","expiry_date":"2027-01-31","days_left":153,"steamid":"76561198000000000","online":false,"cd_key":"ABCD-1234"}`

	var r Record
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if r.Status != StatusActive {
		t.Errorf("Status = %q", r.Status)
	}
	if r.Plan != "1y" {
		t.Errorf("Plan = %q", r.Plan)
	}
	if r.ExpiryDate != "2027-01-31" {
		t.Errorf("ExpiryDate = %q", r.ExpiryDate)
	}
	if r.DaysLeft == nil || *r.DaysLeft != 153 {
		t.Errorf("DaysLeft = %v", r.DaysLeft)
	}
	if r.SteamID != "76561198000000000" {
		t.Errorf("SteamID = %q", r.SteamID)
	}
	if r.Online {
		t.Error("Online should be false when explicitly false")
	}
	if !r.HasKey() {
		t.Error("HasKey should be true")
	}

	// Online defaults to true when absent: an omitted flag means the check
	// was a live one.
	var r2 Record
	if err := json.Unmarshal([]byte(`{"status":"active"}`), &r2); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !r2.Online {
		t.Error("Online should default to true")
	}
}

func TestPromptContext(t *testing.T) {
	expired := &Record{Status: StatusExpired, ExpiryDate: "2025-06-01"}
	pc := expired.PromptContext()
	if !pc.Expired || pc.Revoked || pc.ExpiryDate != "2025-06-01" {
		t.Errorf("expired PromptContext = %+v", pc)
	}

	revoked := &Record{Status: StatusRevoked}
	pc = revoked.PromptContext()
	if pc.Expired || !pc.Revoked {
		t.Errorf("revoked PromptContext = %+v", pc)
	}

	var nilRecord *Record
	pc = nilRecord.PromptContext()
	if pc.Expired || pc.Revoked || pc.ExpiryDate != "" {
		t.Errorf("nil PromptContext = %+v", pc)
	}
}
