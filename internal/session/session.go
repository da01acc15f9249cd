// Package session owns the UI-facing state machine: the license gate, the
// visible catalog page, the activation/details dialog, the detail panel, and
// the status line. All of it lives server-side; the browser renders whatever
// view state the session broadcasts.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog/log"

	"github.com/keydeck/keydeck/internal/accounts"
	"github.com/keydeck/keydeck/internal/catalog"
	"github.com/keydeck/keydeck/internal/license"
	"github.com/keydeck/keydeck/internal/metrics"
	"github.com/keydeck/keydeck/pkg/agent"
)

// Backend is the collaborator contract the session consumes. The production
// implementation is the agent HTTP client; tests and mock mode use fakes.
type Backend interface {
	CheckLicense(ctx context.Context) (*license.Record, error)
	ActivateLicense(ctx context.Context, cdKey, steamID string) (*agent.ActivateResult, error)
	ListGames(ctx context.Context) ([]catalog.Item, error)
	GetGame(ctx context.Context, recordID string) (*catalog.Item, error)
	RefreshGames(ctx context.Context) (*agent.RefreshResult, error)
	ListAccounts(ctx context.Context) ([]accounts.Account, error)
	FetchLatestCode(ctx context.Context, username string) (*agent.CodeResult, error)
	Login(ctx context.Context, recordID string) (*agent.ActionResult, error)
	AddToPlatform(ctx context.Context, recordID string) (*agent.ActionResult, error)
	RemoveFromPlatform(ctx context.Context, recordID string) (*agent.ActionResult, error)
}

// Event is one entry in the bounded status feed.
type Event struct {
	ID   string    `json:"id"`
	Time time.Time `json:"time"`
	Text string    `json:"text"`
}

const maxEvents = 50

// Session is the aggregate owning all view state.
type Session struct {
	backend Backend
	lic     *license.Controller
	engine  *catalog.Engine
	keys    *license.LastKeyStore

	search   searchBox
	viewport viewportBox

	mu     sync.RWMutex
	modal  ModalState
	detail DetailState
	status string
	events []Event

	// onChange is invoked after every state mutation so the transport
	// layer can broadcast the fresh view state.
	onChange func()
}

// New assembles a session around its collaborators. The license controller's
// callbacks are wired here: a gate flip re-renders the grid, a status
// transition auto-pops the activation dialog.
func New(backend Backend, lic *license.Controller, engine *catalog.Engine, keys *license.LastKeyStore) *Session {
	s := &Session{
		backend: backend,
		lic:     lic,
		engine:  engine,
		keys:    keys,
		detail:  placeholderDetail(),
	}

	lic.SetCheckObserver(metrics.RecordLicenseCheck)
	lic.SetGateChangeCallback(func(active bool) {
		metrics.LicenseGateChangesTotal.Inc()
		s.notify()
	})
	lic.SetPromptCallback(func(pc license.PromptContext) {
		status := "not_activated"
		switch {
		case pc.Revoked:
			status = "revoked"
		case pc.Expired:
			status = "expired"
		}
		metrics.RecordPrompt(status)
		s.OpenModal(context.Background(), pc)
	})

	return s
}

// SetChangeListener registers the broadcast hook.
func (s *Session) SetChangeListener(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *Session) notify() {
	s.mu.RLock()
	fn := s.onChange
	s.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

// setStatus updates the status line and appends to the event feed. Callers
// must not hold s.mu.
func (s *Session) setStatus(text string) {
	s.mu.Lock()
	s.status = text
	if text != "" {
		s.events = append(s.events, Event{
			ID:   ulid.Make().String(),
			Time: time.Now(),
			Text: text,
		})
		if len(s.events) > maxEvents {
			s.events = s.events[len(s.events)-maxEvents:]
		}
	}
	s.mu.Unlock()
	s.notify()
}

// Status returns the current status line.
func (s *Session) Status() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// ReloadCatalog fetches the full catalog and replaces the engine's copy
// wholesale. The selection is cleared and the detail panel reset regardless
// of whether the previously selected item survived the reload.
func (s *Session) ReloadCatalog(ctx context.Context) error {
	items, err := s.backend.ListGames(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Catalog load failed, keeping previous list")
		return err
	}

	s.engine.Replace(items)
	metrics.CatalogSize.Set(float64(len(items)))

	s.mu.Lock()
	s.detail = placeholderDetail()
	s.status = ""
	s.mu.Unlock()
	s.notify()
	return nil
}

// RefreshCatalog asks the agent to re-scan its sources, then reloads.
// Returns the agent-reported item count.
func (s *Session) RefreshCatalog(ctx context.Context) (int, error) {
	result, err := s.backend.RefreshGames(ctx)
	if err != nil {
		s.setStatus("Refresh failed.")
		return 0, err
	}
	if err := s.ReloadCatalog(ctx); err != nil {
		return 0, err
	}
	return result.Count, nil
}

// Engine exposes the filter/page engine for view operations.
func (s *Session) Engine() *catalog.Engine {
	return s.engine
}

// License exposes the license controller.
func (s *Session) License() *license.Controller {
	return s.lic
}

// Backend exposes the agent collaborator for pass-through endpoints.
func (s *Session) Backend() Backend {
	return s.backend
}
