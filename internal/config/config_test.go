package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Equal(t, 7810, cfg.FrontendPort)
	assert.Equal(t, 15*time.Second, cfg.PollInterval)
	assert.Equal(t, 0, cfg.PageSize)
	assert.Equal(t, 200*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, 120*time.Millisecond, cfg.ResizeDebounce)
	assert.False(t, cfg.MockMode)
	require.NoError(t, cfg.Validate())
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("KEYDECK_FRONTEND_PORT", "8080")
	t.Setenv("KEYDECK_AGENT_URL", "http://localhost:9999/")
	t.Setenv("KEYDECK_POLL_INTERVAL", "30")
	t.Setenv("KEYDECK_PAGE_SIZE", "20")
	t.Setenv("KEYDECK_SEARCH_DEBOUNCE_MS", "50")
	t.Setenv("KEYDECK_LOG_LEVEL", "debug")
	t.Setenv("KEYDECK_MOCK_MODE", "TRUE")

	cfg := Defaults()
	cfg.applyEnv()

	assert.Equal(t, 8080, cfg.FrontendPort)
	assert.Equal(t, "http://localhost:9999", cfg.AgentURL)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, 20, cfg.PageSize)
	assert.Equal(t, 50*time.Millisecond, cfg.SearchDebounce)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.MockMode)
}

func TestApplyEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("KEYDECK_FRONTEND_PORT", "not-a-number")
	t.Setenv("KEYDECK_POLL_INTERVAL", "-5")
	t.Setenv("KEYDECK_PAGE_SIZE", "-1")

	cfg := Defaults()
	cfg.applyEnv()

	assert.Equal(t, 7810, cfg.FrontendPort)
	assert.Equal(t, 15*time.Second, cfg.PollInterval)
	assert.Equal(t, 0, cfg.PageSize)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults ok", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.FrontendPort = 0 }, true},
		{"bad metrics port", func(c *Config) { c.MetricsPort = 70000 }, true},
		{"missing agent url", func(c *Config) { c.AgentURL = "" }, true},
		{"missing agent url in mock mode", func(c *Config) { c.AgentURL = ""; c.MockMode = true }, false},
		{"zero poll interval", func(c *Config) { c.PollInterval = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
