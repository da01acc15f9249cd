package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keydeck/keydeck/internal/catalog"
	"github.com/keydeck/keydeck/internal/config"
	"github.com/keydeck/keydeck/internal/license"
	"github.com/keydeck/keydeck/internal/mock"
	"github.com/keydeck/keydeck/internal/session"
	"github.com/keydeck/keydeck/internal/websocket"
)

func newTestServer(t *testing.T, mockCfg mock.Config) (*httptest.Server, *session.Session) {
	t.Helper()

	backend := mock.NewBackend(mockCfg)
	lic := license.NewController(backend, time.Minute)
	engine := catalog.NewEngine(10)
	keys, err := license.NewLastKeyStore(t.TempDir())
	require.NoError(t, err)

	sess := session.New(backend, lic, engine, keys)
	hub := websocket.NewHub(func() interface{} { return sess.View() })
	go hub.Run()

	cfg := config.Defaults()
	router := NewRouter(cfg, sess, hub, "test")
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, sess
}

func getJSON(t *testing.T, srv *httptest.Server, path string, into interface{}) *http.Response {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if into != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
	}
	return resp
}

func postJSON(t *testing.T, srv *httptest.Server, path string, body interface{}, into interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	resp, err := http.Post(srv.URL+path, "application/json", &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	if into != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, mock.Config{GameCount: 1})

	var health map[string]interface{}
	resp := getJSON(t, srv, "/api/health", &health)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", health["status"])
}

func TestVersionEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, mock.Config{GameCount: 1})

	var body map[string]string
	getJSON(t, srv, "/api/version", &body)
	assert.Equal(t, "test", body["version"])
}

func TestStateCarriesFullView(t *testing.T) {
	srv, sess := newTestServer(t, mock.Config{GameCount: 5, StartActivated: true})
	require.NoError(t, sess.ReloadCatalog(context.Background()))
	sess.License().Refresh(context.Background())

	var view session.ViewState
	getJSON(t, srv, "/api/state", &view)
	assert.Equal(t, "ACTIVE", view.Strip.Badge)
	assert.Len(t, view.Cards, 5)
	assert.Equal(t, 1, view.Page.Current)
}

func TestLicenseCheckRefreshes(t *testing.T) {
	srv, _ := newTestServer(t, mock.Config{GameCount: 1, StartActivated: true})

	var record license.Record
	getJSON(t, srv, "/api/license/check", &record)
	assert.Equal(t, license.StatusActive, record.Status)
}

func TestGamesEndpoints(t *testing.T) {
	srv, sess := newTestServer(t, mock.Config{GameCount: 12, StartActivated: true})
	require.NoError(t, sess.ReloadCatalog(context.Background()))

	var list struct {
		Items []catalog.Item `json:"items"`
	}
	getJSON(t, srv, "/api/games", &list)
	require.Len(t, list.Items, 12)

	var item catalog.Item
	resp := getJSON(t, srv, "/api/game/"+list.Items[0].RecordID, &item)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, list.Items[0].Name, item.Name)

	resp = getJSON(t, srv, "/api/game/does-not-exist", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGamesRefresh(t *testing.T) {
	srv, _ := newTestServer(t, mock.Config{GameCount: 7})

	var body struct {
		OK    bool `json:"ok"`
		Count int  `json:"count"`
	}
	postJSON(t, srv, "/api/games/refresh", nil, &body)
	assert.True(t, body.OK)
	assert.Equal(t, 7, body.Count)
}

func TestSteamUsers(t *testing.T) {
	srv, _ := newTestServer(t, mock.Config{GameCount: 1})

	var body struct {
		Users []map[string]interface{} `json:"users"`
	}
	getJSON(t, srv, "/api/steam-users", &body)
	assert.Len(t, body.Users, 3)
}

func TestSearchFiltersImmediately(t *testing.T) {
	srv, sess := newTestServer(t, mock.Config{GameCount: 20, StartActivated: true})
	require.NoError(t, sess.ReloadCatalog(context.Background()))

	var info catalog.PageInfo
	postJSON(t, srv, "/api/view/search", map[string]string{"text": "zzz-no-such-game"}, &info)
	assert.Equal(t, 0, info.Filtered)
	assert.Equal(t, 1, info.Current)

	postJSON(t, srv, "/api/view/clear-search", nil, &info)
	assert.Equal(t, 20, info.Filtered)
}

func TestPagination(t *testing.T) {
	srv, sess := newTestServer(t, mock.Config{GameCount: 25, StartActivated: true})
	require.NoError(t, sess.ReloadCatalog(context.Background()))

	var move struct {
		Moved bool             `json:"moved"`
		Page  catalog.PageInfo `json:"page"`
	}
	postJSON(t, srv, "/api/view/page/next", nil, &move)
	assert.True(t, move.Moved)
	assert.Equal(t, 2, move.Page.Current)

	postJSON(t, srv, "/api/view/page/prev", nil, &move)
	assert.True(t, move.Moved)
	assert.Equal(t, 1, move.Page.Current)

	postJSON(t, srv, "/api/view/page/prev", nil, &move)
	assert.False(t, move.Moved)
}

func TestViewportUpdatesPageSize(t *testing.T) {
	srv, sess := newTestServer(t, mock.Config{GameCount: 30, StartActivated: true})
	require.NoError(t, sess.ReloadCatalog(context.Background()))

	var info catalog.PageInfo
	postJSON(t, srv, "/api/view/viewport", catalog.Viewport{GridWidth: 800, ViewportHeight: 900, HeaderHeight: 56}, &info)
	assert.Equal(t, 10, info.PageSize)
}

func TestSelectAndTogglePassword(t *testing.T) {
	srv, sess := newTestServer(t, mock.Config{GameCount: 3, StartActivated: true})
	require.NoError(t, sess.ReloadCatalog(context.Background()))
	sess.License().Refresh(context.Background())

	recordID := sess.Engine().Items()[0].RecordID

	var view session.ViewState
	postJSON(t, srv, "/api/view/select", map[string]string{"record_id": recordID}, &view)
	assert.True(t, view.Detail.Selected)

	var detail session.DetailState
	postJSON(t, srv, "/api/view/toggle-password", nil, &detail)
	assert.True(t, detail.ShowPassword)
}

func TestActivationRoundTrip(t *testing.T) {
	srv, sess := newTestServer(t, mock.Config{GameCount: 1})
	sess.License().Refresh(context.Background())

	var modal session.ModalState
	postJSON(t, srv, "/api/modal/open", nil, &modal)
	require.True(t, modal.Open)
	assert.Equal(t, session.ModalModeActivate, modal.Mode)

	postJSON(t, srv, "/api/modal/submit", map[string]string{
		"cd_key":  "AAAA-BBBB-CCCC",
		"steamid": modal.SelectedAccount,
	}, &modal)
	assert.False(t, modal.Open)
	assert.True(t, sess.License().Active())

	postJSON(t, srv, "/api/modal/open", nil, &modal)
	assert.Equal(t, session.ModalModeDetails, modal.Mode)

	postJSON(t, srv, "/api/modal/close", nil, &modal)
	assert.False(t, modal.Open)
}

func TestActionValidation(t *testing.T) {
	srv, _ := newTestServer(t, mock.Config{GameCount: 1, StartActivated: true})

	resp := postJSON(t, srv, "/api/login", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t, mock.Config{GameCount: 1})

	resp, err := http.Get(srv.URL + "/api/modal/close")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp = postJSON(t, srv, "/api/health", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestLatestCodeEndpoint(t *testing.T) {
	srv, sess := newTestServer(t, mock.Config{GameCount: 1, StartActivated: true})
	sess.License().Refresh(context.Background())

	var body struct {
		Code   string `json:"code"`
		Status string `json:"status"`
	}
	getJSON(t, srv, "/api/latest-code?username=mainacct", &body)
	assert.Len(t, body.Code, 5)
	assert.Equal(t, "Latest code loaded.", body.Status)
}

func TestUnknownAPIPath(t *testing.T) {
	srv, _ := newTestServer(t, mock.Config{GameCount: 1})

	resp, err := http.Get(srv.URL + fmt.Sprintf("/api/nope-%d", time.Now().Unix()))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
