package session

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/keydeck/keydeck/internal/accounts"
	"github.com/keydeck/keydeck/internal/license"
	"github.com/keydeck/keydeck/internal/metrics"
)

// ModalMode selects which face the dialog shows.
type ModalMode string

const (
	// ModalModeActivate collects a CD-Key plus account and submits.
	ModalModeActivate ModalMode = "activate"
	// ModalModeDetails shows the bound key and plan summary read-only.
	ModalModeDetails ModalMode = "details"
)

// AccountOption is one entry in the dialog's account selector.
type AccountOption struct {
	SteamID string `json:"steamid"`
	Label   string `json:"label"`
}

// ModalState is the activation/details dialog.
type ModalState struct {
	Open            bool            `json:"open"`
	Mode            ModalMode       `json:"mode"`
	Title           string          `json:"title"`
	Warning         string          `json:"warning,omitempty"`
	Key             string          `json:"key"`
	KeyEditable     bool            `json:"key_editable"`
	Accounts        []AccountOption `json:"accounts"`
	SelectedAccount string          `json:"selected_account"`
	AccountLocked   bool            `json:"account_locked"`
	SubmitVisible   bool            `json:"submit_visible"`
	SubmitEnabled   bool            `json:"submit_enabled"`
	DismissLabel    string          `json:"dismiss_label"`
	Message         string          `json:"message"`
}

// OpenModal surfaces the dialog. An active license with no expiry or
// revocation flags opens it in details mode; anything else opens the
// activation form seeded with the last key the user entered.
//
// The account roster is fetched fresh on every open; a stale roster is
// worse than a short delay here.
func (s *Session) OpenModal(ctx context.Context, pc license.PromptContext) {
	record := s.lic.Current()
	detailsMode := license.IsActive(record) && !pc.Expired && !pc.Revoked

	// Details mode shows the bound key; if the poller's record lacks one,
	// ask the agent once more before rendering.
	if detailsMode && !record.HasKey() {
		s.lic.EnsureKeyPresent(ctx)
		record = s.lic.Current()
	}

	prevKey, _ := s.keys.Load()

	roster, err := s.backend.ListAccounts(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Account roster load failed")
		roster = nil
	}

	boundID := ""
	if record != nil {
		boundID = record.SteamID
	}

	modal := ModalState{
		Open:            true,
		KeyEditable:     true,
		SubmitVisible:   true,
		SubmitEnabled:   true,
		SelectedAccount: accounts.DefaultSelection(boundID, roster),
		DismissLabel:    "Cancel",
	}
	for _, a := range roster {
		modal.Accounts = append(modal.Accounts, AccountOption{
			SteamID: a.SteamID,
			Label:   a.DisplayName(),
		})
	}

	if detailsMode {
		modal.Mode = ModalModeDetails
		modal.Title = "License Details"
		modal.Warning = detailsSummary(record)
		modal.Key = record.Key
		if modal.Key == "" {
			modal.Key = prevKey
		}
		modal.KeyEditable = false
		modal.AccountLocked = true
		modal.SubmitVisible = false
		modal.SubmitEnabled = false
		modal.DismissLabel = "Close"
	} else {
		modal.Mode = ModalModeActivate
		modal.Title = "Activate License"
		modal.Key = prevKey
		switch {
		case pc.Revoked:
			modal.Warning = "Your previous key " + parenKey(prevKey) + "is no longer valid on the server. Please enter a new key."
		case pc.Expired:
			expired := "has expired"
			if pc.ExpiryDate != "" {
				expired += " on " + pc.ExpiryDate
			}
			modal.Warning = "Your previous key " + parenKey(prevKey) + expired + ". Please enter a new key."
		}
	}

	s.mu.Lock()
	s.modal = modal
	s.mu.Unlock()
	s.notify()
}

// SubmitActivation validates and posts the activation form. Validation
// failures never reach the network; the dialog stays open with a message.
// On success the key is persisted, the dialog closes, and the license is
// re-checked immediately instead of waiting for the next poll.
func (s *Session) SubmitActivation(ctx context.Context, cdKey, steamID string) {
	s.mu.Lock()
	if !s.modal.Open || !s.modal.SubmitVisible || !s.modal.SubmitEnabled {
		s.mu.Unlock()
		return
	}
	cdKey = strings.TrimSpace(cdKey)
	steamID = strings.TrimSpace(steamID)
	if cdKey == "" || steamID == "" {
		s.modal.Message = "Please enter both CD-Key and SteamID."
		s.mu.Unlock()
		s.notify()
		return
	}
	s.modal.SubmitEnabled = false
	s.modal.Message = "Activating…"
	s.mu.Unlock()
	s.notify()

	result, err := s.backend.ActivateLicense(ctx, cdKey, steamID)
	if err != nil {
		metrics.ActivationsTotal.WithLabelValues("transport_error").Inc()
		s.mu.Lock()
		s.modal.Message = "Activation error: " + err.Error()
		s.modal.SubmitEnabled = true
		s.mu.Unlock()
		s.notify()
		return
	}

	if result.Succeeded() {
		metrics.ActivationsTotal.WithLabelValues("success").Inc()
		if err := s.keys.Save(cdKey); err != nil {
			log.Warn().Err(err).Msg("Could not persist last key")
		}
		s.mu.Lock()
		s.modal = ModalState{}
		s.mu.Unlock()
		s.setStatus("Activated.")
		s.lic.Refresh(ctx)
		return
	}

	metrics.ActivationsTotal.WithLabelValues("rejected").Inc()
	msg := result.MessageText()
	if msg == "" {
		msg = "Activation failed."
	}
	s.mu.Lock()
	s.modal.Message = msg
	s.modal.SubmitEnabled = true
	s.mu.Unlock()
	s.notify()
}

// CloseModal dismisses the dialog without side effects.
func (s *Session) CloseModal() {
	s.mu.Lock()
	s.modal = ModalState{}
	s.mu.Unlock()
	s.notify()
}

// Modal returns a copy of the dialog state.
func (s *Session) Modal() ModalState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modal
}

func detailsSummary(r *license.Record) string {
	plan := r.Plan
	if plan == "" {
		plan = "-"
	}
	summary := "Plan: " + plan
	if r.ExpiryDate != "" {
		summary += " • Expires: " + r.ExpiryDate
	}
	if r.DaysLeft != nil {
		summary += " • " + daysWord(*r.DaysLeft) + " left"
	}
	return summary
}

func parenKey(key string) string {
	if key == "" {
		return ""
	}
	return "(" + key + ") "
}
