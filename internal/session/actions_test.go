package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keydeck/keydeck/internal/license"
	"github.com/keydeck/keydeck/pkg/agent"
)

func TestFetchCodeEmptyUsername(t *testing.T) {
	backend := &fakeBackend{}
	s := newTestSession(t, backend)
	seedLicense(t, s, backend, activeRecord("lifetime"))

	s.FetchCode(context.Background(), "   ")
	assert.Equal(t, "Please enter username.", s.Status())
	assert.Equal(t, codePlaceholder, s.Detail().Code)
}

func TestFetchCodeInactiveOpensActivation(t *testing.T) {
	backend := &fakeBackend{
		codeResult: &agent.CodeResult{Status: "ok", Code: "ABCDE"},
	}
	s := newTestSession(t, backend)
	seedLicense(t, s, backend, &license.Record{Status: license.StatusNotActivated})

	s.FetchCode(context.Background(), "alice")
	assert.True(t, s.Modal().Open)
	assert.Equal(t, codePlaceholder, s.Detail().Code)
}

func TestFetchCodeSuccess(t *testing.T) {
	backend := &fakeBackend{
		codeResult: &agent.CodeResult{Status: "ok", Code: "K7Q2X"},
	}
	s := newTestSession(t, backend)
	seedLicense(t, s, backend, activeRecord("lifetime"))

	s.FetchCode(context.Background(), "alice")
	assert.Equal(t, "K7Q2X", s.Detail().Code)
	assert.Equal(t, "Latest code loaded.", s.Status())
	assert.False(t, s.Engine().Locked())
}

func TestFetchCodeTooOld(t *testing.T) {
	backend := &fakeBackend{
		codeResult: &agent.CodeResult{Status: "too_old"},
	}
	s := newTestSession(t, backend)
	seedLicense(t, s, backend, activeRecord("lifetime"))

	s.FetchCode(context.Background(), "alice")
	assert.Equal(t, codePlaceholder, s.Detail().Code)
	assert.Equal(t, "No New Code found, please try login again.", s.Status())
}

func TestFetchCodeNoMatch(t *testing.T) {
	backend := &fakeBackend{
		codeResult: &agent.CodeResult{Status: "no_match"},
	}
	s := newTestSession(t, backend)
	seedLicense(t, s, backend, activeRecord("lifetime"))

	s.FetchCode(context.Background(), "alice")
	assert.Equal(t, "No New Code found, please try login again.", s.Status())
}

func TestFetchCodeLicenseExpiredRoutesToDialog(t *testing.T) {
	// The poller still believes the license is active; the agent's
	// authoritative rejection on the fetch path wins.
	backend := &fakeBackend{
		codeResult: &agent.CodeResult{Error: "license_expired"},
	}
	s := newTestSession(t, backend)
	seedLicense(t, s, backend, activeRecord("lifetime"))

	s.FetchCode(context.Background(), "alice")
	modal := s.Modal()
	require.True(t, modal.Open)
	assert.Equal(t, ModalModeActivate, modal.Mode)
	assert.Contains(t, modal.Warning, "has expired on 2027-01-31")
	assert.False(t, s.Engine().Locked())
}

func TestFetchCodeLicenseRevokedRoutesToDialog(t *testing.T) {
	backend := &fakeBackend{
		codeResult: &agent.CodeResult{Error: "license_revoked"},
	}
	s := newTestSession(t, backend)
	seedLicense(t, s, backend, activeRecord("lifetime"))
	require.NoError(t, s.keys.Save("OLD-KEY"))

	s.FetchCode(context.Background(), "alice")
	modal := s.Modal()
	require.True(t, modal.Open)
	assert.Equal(t, ModalModeActivate, modal.Mode)
	assert.Contains(t, modal.Warning, "no longer valid")
}

func TestFetchCodeUnknownError(t *testing.T) {
	backend := &fakeBackend{
		codeResult: &agent.CodeResult{Error: "inbox_unreachable"},
	}
	s := newTestSession(t, backend)
	seedLicense(t, s, backend, activeRecord("lifetime"))

	s.FetchCode(context.Background(), "alice")
	assert.Equal(t, "Error: inbox_unreachable", s.Status())
	assert.False(t, s.Modal().Open)
}

func TestFetchCodeUnlocksOnTransportFailure(t *testing.T) {
	backend := &fakeBackend{codeErr: errors.New("timeout")}
	s := newTestSession(t, backend)
	seedLicense(t, s, backend, activeRecord("lifetime"))

	s.FetchCode(context.Background(), "alice")
	assert.Equal(t, "Request failed.", s.Status())
	assert.Equal(t, codePlaceholder, s.Detail().Code)
	assert.False(t, s.Engine().Locked())
}

func TestFetchCodeEmptyResponse(t *testing.T) {
	backend := &fakeBackend{codeResult: &agent.CodeResult{}}
	s := newTestSession(t, backend)
	seedLicense(t, s, backend, activeRecord("lifetime"))

	s.FetchCode(context.Background(), "alice")
	assert.Equal(t, "Unknown response.", s.Status())
}

func TestLoginSuccess(t *testing.T) {
	backend := &fakeBackend{actionResult: &agent.ActionResult{OK: true}}
	s := newTestSession(t, backend)
	seedLicense(t, s, backend, activeRecord("lifetime"))

	s.Login(context.Background(), "rec-1")
	assert.Equal(t, "Login done.", s.Status())
	assert.False(t, s.Engine().Locked())
}

func TestLoginInactiveOpensActivation(t *testing.T) {
	backend := &fakeBackend{actionResult: &agent.ActionResult{OK: true}}
	s := newTestSession(t, backend)
	seedLicense(t, s, backend, &license.Record{Status: license.StatusExpired})
	s.CloseModal()

	s.Login(context.Background(), "rec-1")
	assert.True(t, s.Modal().Open)
}

func TestLoginLicenseErrorRoutesToDialog(t *testing.T) {
	backend := &fakeBackend{actionResult: &agent.ActionResult{Error: "license_not_activated"}}
	s := newTestSession(t, backend)
	seedLicense(t, s, backend, activeRecord("lifetime"))

	s.Login(context.Background(), "rec-1")
	assert.True(t, s.Modal().Open)
	assert.False(t, s.Engine().Locked())
}

func TestAddToPlatformErrorMessage(t *testing.T) {
	backend := &fakeBackend{actionResult: &agent.ActionResult{Error: "steam_not_running"}}
	s := newTestSession(t, backend)
	seedLicense(t, s, backend, activeRecord("lifetime"))

	s.AddToPlatform(context.Background(), "rec-1")
	assert.Equal(t, "Error: steam_not_running", s.Status())
}

func TestRemoveFromPlatformTransportFailure(t *testing.T) {
	backend := &fakeBackend{actionErr: errors.New("refused")}
	s := newTestSession(t, backend)
	seedLicense(t, s, backend, activeRecord("lifetime"))

	s.RemoveFromPlatform(context.Background(), "rec-1")
	assert.Equal(t, "Request failed.", s.Status())
	assert.False(t, s.Engine().Locked())
}

func TestActionIgnoredWhileLocked(t *testing.T) {
	backend := &fakeBackend{actionResult: &agent.ActionResult{OK: true}}
	s := newTestSession(t, backend)
	seedLicense(t, s, backend, activeRecord("lifetime"))

	s.Engine().SetLocked(true)
	s.Login(context.Background(), "rec-1")
	assert.Empty(t, s.Status())
	s.Engine().SetLocked(false)
}
