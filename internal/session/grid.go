package session

import (
	"github.com/keydeck/keydeck/internal/catalog"
	"github.com/keydeck/keydeck/internal/license"
)

// CardAction tells the frontend what a card click should do.
type CardAction string

const (
	// CardActionSelect selects the item and loads its detail payload.
	CardActionSelect CardAction = "select"
	// CardActionActivate opens the activation dialog seeded with the
	// current status's context flags.
	CardActionActivate CardAction = "activate"
	// CardActionNotice only updates the status line; the item requires an
	// entitlement tier the license lacks.
	CardActionNotice CardAction = "notice"
)

const (
	reasonNotActivated = "Activate your license to view details"
	reasonTierLocked   = "This game needs online support. Upgrade to a yearly or lifetime plan."
)

// CardState is one rendered grid card.
type CardState struct {
	RecordID        string     `json:"record_id"`
	AppID           int64      `json:"appid"`
	Name            string     `json:"name"`
	CoverURL        string     `json:"cover_url"`
	OnlineSupported bool       `json:"online_supported"`
	Enabled         bool       `json:"enabled"`
	Reason          string     `json:"reason,omitempty"`
	Action          CardAction `json:"action"`
	Selected        bool       `json:"selected"`
}

// Classify applies the per-card gating precedence: an inactive license
// disables every card and routes clicks to the activation dialog; an active
// license without the online tier disables online-only items with a notice;
// everything else is selectable.
func Classify(item catalog.Item, record *license.Record) CardState {
	card := CardState{
		RecordID:        item.RecordID,
		AppID:           item.AppID,
		Name:            item.Name,
		CoverURL:        item.CoverURL(),
		OnlineSupported: item.OnlineSupported,
	}

	switch {
	case !license.IsActive(record):
		card.Reason = reasonNotActivated
		card.Action = CardActionActivate
	case item.OnlineSupported && !license.IsOnlineTier(record):
		card.Reason = reasonTierLocked
		card.Action = CardActionNotice
	default:
		card.Enabled = true
		card.Action = CardActionSelect
	}
	return card
}

// Cards classifies the engine's visible page against the current license,
// marking the selected record. Exactly one card can be selected at a time
// because selection is keyed on the unique record id.
func (s *Session) Cards() []CardState {
	record := s.lic.Current()

	s.mu.RLock()
	selectedID := ""
	if s.detail.Selected {
		selectedID = s.detail.RecordID
	}
	s.mu.RUnlock()

	page := s.engine.VisiblePage()
	cards := make([]CardState, len(page))
	for i, item := range page {
		cards[i] = Classify(item, record)
		cards[i].Selected = selectedID != "" && item.RecordID == selectedID
	}
	return cards
}
