package session

import "github.com/keydeck/keydeck/internal/catalog"

// ViewState is the complete render payload pushed to connected clients.
// The browser is a dumb renderer; everything it shows is in here.
type ViewState struct {
	Strip  StripState       `json:"strip"`
	Cards  []CardState      `json:"cards"`
	Page   catalog.PageInfo `json:"page"`
	Search string           `json:"search"`
	Locked bool             `json:"locked"`
	Modal  ModalState       `json:"modal"`
	Detail DetailState      `json:"detail"`
	Status string           `json:"status"`
	Events []Event          `json:"events"`
}

// View assembles the current view state.
func (s *Session) View() ViewState {
	record := s.lic.Current()

	s.mu.RLock()
	modal := s.modal
	detail := s.detail
	status := s.status
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	view := ViewState{
		Strip:  Strip(record),
		Cards:  s.Cards(),
		Page:   s.engine.PageInfo(),
		Search: s.engine.Search(),
		Locked: s.engine.Locked(),
		Modal:  modal,
		Detail: detail,
		Status: status,
		Events: events,
	}
	return view
}
