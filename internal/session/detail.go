package session

import (
	"context"
	"strconv"

	"github.com/keydeck/keydeck/internal/license"
	"github.com/rs/zerolog/log"
)

const codePlaceholder = "— — — — —"

// DetailState is the right-hand detail panel.
type DetailState struct {
	Selected     bool   `json:"selected"`
	RecordID     string `json:"record_id,omitempty"`
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle"`
	HeaderURL    string `json:"header_url,omitempty"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	ShowPassword bool   `json:"show_password"`
	Notes        string `json:"notes,omitempty"`
	Code         string `json:"code"`
}

func appIDLabel(id int64) string {
	if id == 0 {
		return ""
	}
	return "AppID " + strconv.FormatInt(id, 10)
}

func placeholderDetail() DetailState {
	return DetailState{
		Title: "Select a game",
		Code:  codePlaceholder,
	}
}

// Select loads the detail payload for a record id and makes it the single
// highlighted selection. Any fetch error or not-found response resets the
// panel to its placeholder and clears the selection.
func (s *Session) Select(ctx context.Context, recordID string) {
	record := s.lic.Current()
	if !license.IsActive(record) {
		// Inactive license: the click opens the activation dialog instead.
		s.OpenModal(ctx, record.PromptContext())
		return
	}
	if s.engine.Locked() {
		// A foreground action is in flight; ignore the click entirely.
		return
	}

	item, err := s.backend.GetGame(ctx, recordID)
	if err != nil {
		log.Debug().Err(err).Str("recordID", recordID).Msg("Detail load failed, resetting panel")
		s.clearSelection()
		return
	}
	if item.OnlineSupported && !license.IsOnlineTier(record) {
		// Tier-locked card: just explain, never open the dialog.
		s.setStatus(reasonTierLocked)
		return
	}

	s.mu.Lock()
	s.detail = DetailState{
		Selected:  true,
		RecordID:  item.RecordID,
		Title:     item.Name,
		Subtitle:  appIDLabel(item.AppID),
		HeaderURL: item.HeaderURL(),
		Username:  item.Username,
		Password:  item.Password,
		Notes:     item.Notes,
		Code:      codePlaceholder,
	}
	if s.detail.Title == "" {
		s.detail.Title = "(Untitled)"
	}
	s.status = "Ready."
	s.mu.Unlock()
	s.notify()
}

// TogglePassword flips the password visibility in the detail panel.
func (s *Session) TogglePassword() {
	s.mu.Lock()
	s.detail.ShowPassword = !s.detail.ShowPassword
	s.mu.Unlock()
	s.notify()
}

// Detail returns a copy of the panel state.
func (s *Session) Detail() DetailState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.detail
}

func (s *Session) clearSelection() {
	s.mu.Lock()
	s.detail = placeholderDetail()
	s.status = ""
	s.mu.Unlock()
	s.notify()
}

func (s *Session) setCode(code string) {
	s.mu.Lock()
	s.detail.Code = code
	s.mu.Unlock()
	s.notify()
}
