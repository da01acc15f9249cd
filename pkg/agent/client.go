// Package agent is the HTTP client for the local keydeck agent, the backend
// process that performs license checks, catalog scans, Steam Guard code
// retrieval, and desktop automation. This package only speaks the agent's
// request/response contract; the automation itself lives in the agent.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/keydeck/keydeck/internal/accounts"
	"github.com/keydeck/keydeck/internal/catalog"
	"github.com/keydeck/keydeck/internal/license"
)

// Client talks to the keydeck agent API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// ClientConfig holds configuration for the agent client.
type ClientConfig struct {
	URL     string
	Timeout time.Duration
}

// NewClient creates an agent API client.
func NewClient(cfg ClientConfig) (*Client, error) {
	host := strings.TrimSpace(cfg.URL)
	if host == "" {
		return nil, fmt.Errorf("agent URL is required")
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
		log.Debug().Str("url", host).Msg("No protocol specified in agent URL, defaulting to HTTP")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimSuffix(host, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// CheckLicense fetches the current license record.
func (c *Client) CheckLicense(ctx context.Context) (*license.Record, error) {
	var record license.Record
	if err := c.get(ctx, "/api/license/check", &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// ActivateResult is the agent's response to an activation attempt. Error
// details may arrive at several depths; MessageText resolves them.
type ActivateResult struct {
	OK      bool   `json:"ok"`
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Detail  *ActivateDetail `json:"detail,omitempty"`
}

// ActivateDetail carries the server's structured rejection payload.
type ActivateDetail struct {
	Message string `json:"message,omitempty"`
}

// Succeeded reports whether the agent confirmed the activation explicitly.
func (r *ActivateResult) Succeeded() bool {
	return r.OK || r.Status == "ok" || r.Status == "success"
}

// MessageText returns the most specific error message available: the nested
// detail message, then the general message, then the raw error code.
func (r *ActivateResult) MessageText() string {
	if r.Detail != nil && r.Detail.Message != "" {
		return r.Detail.Message
	}
	if r.Message != "" {
		return r.Message
	}
	return r.Error
}

// ActivateLicense submits a credential and account id for activation.
func (c *Client) ActivateLicense(ctx context.Context, cdKey, steamID string) (*ActivateResult, error) {
	payload := map[string]string{"cd_key": cdKey, "steamid": steamID}
	var result ActivateResult
	if err := c.post(ctx, "/api/license/activate", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type itemsEnvelope struct {
	Items []catalog.Item `json:"items"`
}

// ListGames fetches the full catalog in the agent's order.
func (c *Client) ListGames(ctx context.Context) ([]catalog.Item, error) {
	var envelope itemsEnvelope
	if err := c.get(ctx, "/api/games", &envelope); err != nil {
		return nil, err
	}
	return envelope.Items, nil
}

type itemDetailEnvelope struct {
	catalog.Item
	Error string `json:"error,omitempty"`
}

// GetGame fetches one catalog item by its stable record id. A missing item
// is reported as an error, never as an empty item.
func (c *Client) GetGame(ctx context.Context, recordID string) (*catalog.Item, error) {
	var envelope itemDetailEnvelope
	path := "/api/game/" + url.PathEscape(recordID)
	if err := c.get(ctx, path, &envelope); err != nil {
		return nil, err
	}
	if envelope.Error != "" {
		return nil, fmt.Errorf("agent: game lookup failed: %s", envelope.Error)
	}
	return &envelope.Item, nil
}

// RefreshResult reports a completed catalog re-scan.
type RefreshResult struct {
	OK    bool `json:"ok"`
	Count int  `json:"count"`
}

// RefreshGames asks the agent to re-scan its catalog sources.
func (c *Client) RefreshGames(ctx context.Context) (*RefreshResult, error) {
	var result RefreshResult
	if err := c.post(ctx, "/api/games/refresh", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type accountsEnvelope struct {
	Items []accounts.Account `json:"items"`
}

// ListAccounts fetches the local platform account roster.
func (c *Client) ListAccounts(ctx context.Context) ([]accounts.Account, error) {
	var envelope accountsEnvelope
	if err := c.get(ctx, "/api/steam-users", &envelope); err != nil {
		return nil, err
	}
	return envelope.Items, nil
}

// CodeResult is the agent's response to a Steam Guard code fetch.
// Status is one of "ok", "too_old", or "no_match"; Error carries a license
// error code when the agent rejects the request outright.
type CodeResult struct {
	Status string `json:"status,omitempty"`
	Code   string `json:"code,omitempty"`
	Error  string `json:"error,omitempty"`
}

// FetchLatestCode retrieves the newest guard code for a login name.
func (c *Client) FetchLatestCode(ctx context.Context, username string) (*CodeResult, error) {
	path := "/api/latest-code?username=" + url.QueryEscape(username)
	var result CodeResult
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ActionResult is the agent's response to a login/add/remove automation
// request.
type ActionResult struct {
	OK     bool   `json:"ok"`
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Login asks the agent to drive a platform login for the item.
func (c *Client) Login(ctx context.Context, recordID string) (*ActionResult, error) {
	return c.action(ctx, "/api/login", recordID)
}

// AddToPlatform asks the agent to install/add the item on the platform.
func (c *Client) AddToPlatform(ctx context.Context, recordID string) (*ActionResult, error) {
	return c.action(ctx, "/api/add", recordID)
}

// RemoveFromPlatform asks the agent to remove the item from the platform.
func (c *Client) RemoveFromPlatform(ctx context.Context, recordID string) (*ActionResult, error) {
	return c.action(ctx, "/api/remove", recordID)
}

func (c *Client) action(ctx context.Context, path, recordID string) (*ActionResult, error) {
	payload := map[string]string{"record_id": recordID}
	var result ActionResult
	if err := c.post(ctx, path, payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("agent: create request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-store")
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("agent: encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("agent: create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("agent: request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("agent: read response %s: %w", req.URL.Path, err)
	}

	// Domain rejections ride inside JSON bodies regardless of HTTP status;
	// decode whatever arrived and let callers inspect it. Only undecodable
	// payloads on error statuses are surfaced as transport failures.
	if err := json.Unmarshal(data, out); err != nil {
		if resp.StatusCode >= 400 {
			return fmt.Errorf("agent: %s returned status %d", req.URL.Path, resp.StatusCode)
		}
		return fmt.Errorf("agent: decode response %s: %w", req.URL.Path, err)
	}
	return nil
}
