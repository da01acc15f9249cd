package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keydeck/keydeck/internal/license"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{URL: server.URL})
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresURL(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	assert.Error(t, err)
}

func TestNewClientDefaultsProtocol(t *testing.T) {
	client, err := NewClient(ClientConfig{URL: "127.0.0.1:7811"})
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:7811", client.baseURL)
}

func TestCheckLicenseNormalizesKey(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/license/check", r.URL.Path)
		w.Write([]byte(`{"status":"active","plan":"1y","license":{"cdkey":"NESTED-KEY"}}`))
	}))

	record, err := client.CheckLicense(context.Background())
	require.NoError(t, err)
	assert.Equal(t, license.StatusActive, record.Status)
	assert.Equal(t, "NESTED-KEY", record.Key)
}

func TestActivateLicense(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ABCD-1234", body["cd_key"])
		assert.Equal(t, "7656", body["steamid"])
		w.Write([]byte(`{"ok":true}`))
	}))

	result, err := client.ActivateLicense(context.Background(), "ABCD-1234", "7656")
	require.NoError(t, err)
	assert.True(t, result.Succeeded())
}

func TestActivateResultMessagePriority(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"nested detail wins", `{"error":"code","message":"general","detail":{"message":"specific"}}`, "specific"},
		{"message before error code", `{"error":"code","message":"general"}`, "general"},
		{"error code last", `{"error":"code"}`, "code"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var result ActivateResult
			require.NoError(t, json.Unmarshal([]byte(tt.body), &result))
			assert.False(t, result.Succeeded())
			assert.Equal(t, tt.want, result.MessageText())
		})
	}
}

func TestGetGame(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/game/rec-001":
			w.Write([]byte(`{"record_id":"rec-001","appid":440,"name":"Team Fortress 2","username":"user1"}`))
		case "/api/game/rec-404":
			w.Write([]byte(`{"error":"not found"}`))
		default:
			http.NotFound(w, r)
		}
	}))

	item, err := client.GetGame(context.Background(), "rec-001")
	require.NoError(t, err)
	assert.Equal(t, int64(440), item.AppID)
	assert.Equal(t, "user1", item.Username)

	_, err = client.GetGame(context.Background(), "rec-404")
	assert.Error(t, err)
}

func TestFetchLatestCodeDomainRejection(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "user one", r.URL.Query().Get("username"))
		// Domain rejections arrive with a non-2xx status and a JSON body;
		// the client must still surface the body, not a transport error.
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"license_expired"}`))
	}))

	result, err := client.FetchLatestCode(context.Background(), "user one")
	require.NoError(t, err)
	assert.Equal(t, "license_expired", result.Error)
}

func TestDoTransportErrors(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))

	_, err := client.CheckLicense(context.Background())
	assert.Error(t, err)
}

func TestListGamesAndAccounts(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/games":
			w.Write([]byte(`{"items":[{"record_id":"a","appid":1,"name":"One"},{"record_id":"b","appid":2,"name":"Two"}]}`))
		case "/api/steam-users":
			w.Write([]byte(`{"items":[{"steamid":"100","account_name":"alpha","most_recent":true}]}`))
		default:
			http.NotFound(w, r)
		}
	}))

	games, err := client.ListGames(context.Background())
	require.NoError(t, err)
	assert.Len(t, games, 2)

	roster, err := client.ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.True(t, roster[0].MostRecent)
}
