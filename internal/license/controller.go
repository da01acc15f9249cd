package license

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// Checker fetches the current license record from the agent backend.
type Checker interface {
	CheckLicense(ctx context.Context) (*Record, error)
}

// Controller owns the single current license record, refreshes it on a fixed
// interval, and notifies listeners about the two kinds of change that matter:
// the active/inactive gate flipping, and a status transition that should
// surface the activation dialog.
type Controller struct {
	checker  Checker
	interval time.Duration

	mu      sync.RWMutex
	current *Record

	// lastObserved tracks the last status seen by the transition policy,
	// independently of the gate flag, so repeated polls returning the same
	// non-active status pop the dialog only once. It starts at not_activated,
	// the same baseline the controller synthesizes when no record exists, so
	// a first poll confirming that baseline is not a transition.
	lastObserved Status

	onGateChange func(active bool)
	onPrompt     func(PromptContext)
	onCheck      func(ok bool)

	// group collapses overlapping refreshes so at most one check is in
	// flight at a time; the last completed response wins.
	group singleflight.Group
}

// NewController creates a license controller polling at the given interval.
func NewController(checker Checker, interval time.Duration) *Controller {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Controller{
		checker:      checker,
		interval:     interval,
		lastObserved: StatusNotActivated,
	}
}

// SetGateChangeCallback registers the listener fired when the active boolean
// flips. It fires only on flips, never on refreshes that leave the gate
// unchanged, so background polling cannot cause listing rebuilds.
func (c *Controller) SetGateChangeCallback(cb func(active bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onGateChange = cb
}

// SetPromptCallback registers the listener fired when a status transition
// should surface the activation dialog.
func (c *Controller) SetPromptCallback(cb func(PromptContext)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPrompt = cb
}

// SetCheckObserver registers a hook fired after every completed check
// attempt, successful or not. Used for instrumentation.
func (c *Controller) SetCheckObserver(cb func(ok bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onCheck = cb
}

func (c *Controller) observeCheck(ok bool) {
	c.mu.RLock()
	cb := c.onCheck
	c.mu.RUnlock()
	if cb != nil {
		cb(ok)
	}
}

// Current returns the current record, or nil before the first check.
func (c *Controller) Current() *Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Active reports the current gate state.
func (c *Controller) Active() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return IsActive(c.current)
}

// Refresh fetches the license once and applies the result. A transport
// failure keeps the previous record, or synthesizes a not-activated one if
// none exists yet. Concurrent callers share a single in-flight check.
func (c *Controller) Refresh(ctx context.Context) *Record {
	result, _, _ := c.group.Do("check", func() (interface{}, error) {
		record, err := c.checker.CheckLicense(ctx)
		c.observeCheck(err == nil && record != nil)
		if err != nil || record == nil {
			if err != nil {
				log.Warn().Err(err).Msg("License check failed, keeping previous state")
			}
			c.mu.RLock()
			prev := c.current
			c.mu.RUnlock()
			if prev != nil {
				return prev, nil
			}
			record = &Record{Status: StatusNotActivated}
		}
		return c.apply(record), nil
	})
	return result.(*Record)
}

// EnsureKeyPresent performs one extra check when the current record lacks a
// credential. The fast polling path may omit the key while an explicit check
// includes it. Failures are swallowed.
func (c *Controller) EnsureKeyPresent(ctx context.Context) {
	if c.Current().HasKey() {
		return
	}
	record, err := c.checker.CheckLicense(ctx)
	c.observeCheck(err == nil && record != nil)
	if err != nil || record == nil {
		log.Debug().Err(err).Msg("Key refresh attempt failed, falling back to cached key")
		return
	}
	c.apply(record)
}

// apply installs a freshly fetched record and runs the transition policies.
// Whichever apply runs last wins; there is no merging of concurrent results.
func (c *Controller) apply(record *Record) *Record {
	c.mu.Lock()
	prevActive := IsActive(c.current)
	c.current = record
	nowActive := IsActive(record)

	gateCb := c.onGateChange
	fireGate := prevActive != nowActive

	promptCb := c.onPrompt
	firePrompt := record.Status != StatusActive && c.lastObserved != record.Status
	c.lastObserved = record.Status
	c.mu.Unlock()

	if fireGate && gateCb != nil {
		log.Info().Bool("active", nowActive).Msg("License gate changed")
		gateCb(nowActive)
	}
	if firePrompt && promptCb != nil {
		log.Info().Str("status", string(record.Status)).Msg("License status transition, surfacing activation dialog")
		promptCb(record.PromptContext())
	}
	return record
}

// Run polls the license on a fixed interval until the context is cancelled.
// An immediate refresh happens on start. Ticks that land while a refresh is
// still in flight join it instead of starting a second one.
func (c *Controller) Run(ctx context.Context) {
	c.Refresh(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			go c.Refresh(ctx)
		case <-ctx.Done():
			log.Info().Msg("License polling stopped")
			return
		}
	}
}
