package session

import (
	"context"
	"strings"

	"github.com/keydeck/keydeck/internal/license"
	"github.com/keydeck/keydeck/internal/metrics"
)

// promptFromErrorCode maps a license error code from the agent to the dialog
// context it should open with. ok reports whether the code was a license
// rejection at all.
func (s *Session) promptFromErrorCode(code string) (license.PromptContext, bool) {
	switch code {
	case "license_expired":
		pc := license.PromptContext{Expired: true}
		if r := s.lic.Current(); r != nil {
			pc.ExpiryDate = r.ExpiryDate
		}
		return pc, true
	case "license_not_activated":
		return license.PromptContext{}, true
	case "license_revoked":
		return license.PromptContext{Revoked: true}, true
	}
	return license.PromptContext{}, false
}

// FetchCode asks the agent for the newest Guard code for a username. The
// grid stays locked for the duration so a click cannot start a second
// foreground action on the same selection; the lock is released on every
// path out.
func (s *Session) FetchCode(ctx context.Context, username string) {
	username = strings.TrimSpace(username)
	if username == "" {
		s.setCode(codePlaceholder)
		s.setStatus("Please enter username.")
		return
	}

	record := s.lic.Current()
	if !license.IsActive(record) {
		s.OpenModal(ctx, record.PromptContext())
		return
	}

	s.setStatus("Fetching code…")
	s.engine.SetLocked(true)
	defer func() {
		s.engine.SetLocked(false)
		s.notify()
	}()

	result, err := s.backend.FetchLatestCode(ctx, username)
	if err != nil {
		metrics.CodeFetchesTotal.WithLabelValues("error").Inc()
		s.setCode(codePlaceholder)
		s.setStatus("Request failed.")
		return
	}

	switch {
	case result.Status == "ok":
		metrics.CodeFetchesTotal.WithLabelValues("ok").Inc()
		s.setCode(result.Code)
		s.setStatus("Latest code loaded.")
	case result.Status == "too_old" || result.Status == "no_match":
		metrics.CodeFetchesTotal.WithLabelValues(result.Status).Inc()
		s.setCode(codePlaceholder)
		s.setStatus("No New Code found, please try login again.")
	case result.Error != "":
		if pc, isLicense := s.promptFromErrorCode(result.Error); isLicense {
			metrics.CodeFetchesTotal.WithLabelValues("license_error").Inc()
			s.OpenModal(ctx, pc)
			return
		}
		metrics.CodeFetchesTotal.WithLabelValues("error").Inc()
		s.setStatus("Error: " + result.Error)
	default:
		metrics.CodeFetchesTotal.WithLabelValues("error").Inc()
		s.setStatus("Unknown response.")
	}
}

// runPlatformAction wraps login/add/remove: all three lock the grid, call
// one agent endpoint, and map the shared status/error vocabulary to a
// status line.
func (s *Session) runPlatformAction(ctx context.Context, verb string, call func(context.Context, string) (status, errCode string, err error), recordID string) {
	record := s.lic.Current()
	if !license.IsActive(record) {
		s.OpenModal(ctx, record.PromptContext())
		return
	}
	if s.engine.Locked() {
		return
	}

	s.setStatus(verb + "…")
	s.engine.SetLocked(true)
	defer func() {
		s.engine.SetLocked(false)
		s.notify()
	}()

	status, errCode, err := call(ctx, recordID)
	if err != nil {
		s.setStatus("Request failed.")
		return
	}
	switch {
	case status == "ok" || status == "success":
		s.setStatus(verb + " done.")
	case errCode != "":
		if pc, isLicense := s.promptFromErrorCode(errCode); isLicense {
			s.OpenModal(ctx, pc)
			return
		}
		s.setStatus("Error: " + errCode)
	default:
		s.setStatus("Unknown response.")
	}
}

// Login triggers the agent-side login automation for a record.
func (s *Session) Login(ctx context.Context, recordID string) {
	s.runPlatformAction(ctx, "Login", func(ctx context.Context, id string) (string, string, error) {
		r, err := s.backend.Login(ctx, id)
		if err != nil {
			return "", "", err
		}
		status := r.Status
		if r.OK && status == "" {
			status = "ok"
		}
		return status, r.Error, nil
	}, recordID)
}

// AddToPlatform adds the record's product to the local platform library.
func (s *Session) AddToPlatform(ctx context.Context, recordID string) {
	s.runPlatformAction(ctx, "Add", func(ctx context.Context, id string) (string, string, error) {
		r, err := s.backend.AddToPlatform(ctx, id)
		if err != nil {
			return "", "", err
		}
		status := r.Status
		if r.OK && status == "" {
			status = "ok"
		}
		return status, r.Error, nil
	}, recordID)
}

// RemoveFromPlatform removes the record's product from the local platform
// library.
func (s *Session) RemoveFromPlatform(ctx context.Context, recordID string) {
	s.runPlatformAction(ctx, "Remove", func(ctx context.Context, id string) (string, string, error) {
		r, err := s.backend.RemoveFromPlatform(ctx, id)
		if err != nil {
			return "", "", err
		}
		status := r.Status
		if r.OK && status == "" {
			status = "ok"
		}
		return status, r.Error, nil
	}, recordID)
}
