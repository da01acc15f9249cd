package session

import (
	"sync"
	"time"

	"github.com/keydeck/keydeck/internal/catalog"
)

// SetOnlineOnly toggles the online-only filter and re-renders.
func (s *Session) SetOnlineOnly(on bool) {
	s.engine.SetOnlineOnly(on)
	s.notify()
}

// NextPage advances the page cursor if a next page exists.
func (s *Session) NextPage() bool {
	moved := s.engine.GoNext()
	if moved {
		s.notify()
	}
	return moved
}

// PrevPage moves the page cursor back if a previous page exists.
func (s *Session) PrevPage() bool {
	moved := s.engine.GoPrev()
	if moved {
		s.notify()
	}
	return moved
}

// viewportBox coalesces resize bursts the same way searchBox coalesces
// keystrokes.
type viewportBox struct {
	mu      sync.Mutex
	pending catalog.Viewport
	deb     *catalog.Debouncer
}

// EnableResizeDebounce installs a debounce window for viewport updates.
func (s *Session) EnableResizeDebounce(delay time.Duration) {
	s.viewport.deb = catalog.NewDebouncer(delay, s.applyViewport)
}

// ViewportInput records fresh window dimensions. With a debounce window
// installed, only the last burst entry triggers the page-size recompute.
func (s *Session) ViewportInput(vp catalog.Viewport) {
	s.viewport.mu.Lock()
	s.viewport.pending = vp
	deb := s.viewport.deb
	s.viewport.mu.Unlock()

	if deb == nil {
		s.applyViewport()
		return
	}
	deb.Trigger()
}

func (s *Session) applyViewport() {
	s.viewport.mu.Lock()
	vp := s.viewport.pending
	s.viewport.mu.Unlock()

	s.engine.SetViewport(vp)
	s.notify()
}
