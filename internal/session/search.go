package session

import (
	"sync"
	"time"

	"github.com/keydeck/keydeck/internal/catalog"
)

// searchBox coalesces keystrokes so only the last one inside the debounce
// window recomputes the filter.
type searchBox struct {
	mu      sync.Mutex
	pending string
	deb     *catalog.Debouncer
}

// EnableSearchDebounce installs a debounce window for search input. Without
// one, SearchInput applies immediately.
func (s *Session) EnableSearchDebounce(delay time.Duration) {
	s.search.deb = catalog.NewDebouncer(delay, s.applySearch)
}

// SearchInput records a keystroke. The filter recompute runs after the
// debounce window, against whatever text arrived last.
func (s *Session) SearchInput(text string) {
	s.search.mu.Lock()
	s.search.pending = text
	deb := s.search.deb
	s.search.mu.Unlock()

	if deb == nil {
		s.applySearch()
		return
	}
	deb.Trigger()
}

// applySearch is the debouncer's payload. A recompute drops the current
// selection: the selected card may no longer be on any visible page, so the
// detail panel goes back to its placeholder.
func (s *Session) applySearch() {
	s.search.mu.Lock()
	text := s.search.pending
	s.search.mu.Unlock()

	s.engine.SetSearch(text)
	s.clearSelection()
}

// ClearSearch wipes the filter immediately; the clear button is not a
// keystroke and never waits out the window.
func (s *Session) ClearSearch() {
	s.search.mu.Lock()
	s.search.pending = ""
	if s.search.deb != nil {
		s.search.deb.Stop()
	}
	s.search.mu.Unlock()

	s.engine.ClearSearch()
	s.clearSelection()
}
