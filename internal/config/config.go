// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

const envPrefix = "KEYDECK_"

// Config holds all runtime settings for the keydeck server.
type Config struct {
	// Server
	FrontendPort int
	FrontendHost string
	MetricsPort  int

	// Agent backend (license check, catalog scan, code fetch, automation)
	AgentURL     string
	AgentTimeout time.Duration

	// License polling
	PollInterval time.Duration

	// View engine
	PageSize       int // fixed page size; 0 means derive from viewport
	SearchDebounce time.Duration
	ResizeDebounce time.Duration

	// Persistence
	DataPath string

	// Logging
	LogLevel  string
	LogFormat string

	// Mock mode replaces the agent backend with in-memory fakes
	MockMode bool
}

// Defaults returns a Config with the built-in defaults applied.
func Defaults() *Config {
	return &Config{
		FrontendPort:   7810,
		FrontendHost:   "0.0.0.0",
		MetricsPort:    9191,
		AgentURL:       "http://127.0.0.1:7811",
		AgentTimeout:   30 * time.Second,
		PollInterval:   15 * time.Second,
		PageSize:       0,
		SearchDebounce: 200 * time.Millisecond,
		ResizeDebounce: 120 * time.Millisecond,
		DataPath:       defaultDataPath(),
		LogLevel:       "info",
		LogFormat:      "auto",
	}
}

func defaultDataPath() string {
	if _, err := os.Stat("/data"); err == nil {
		return "/data"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".keydeck")
}

// Load builds the configuration from defaults, an optional .env file, and
// process environment variables, in that order of precedence.
func Load() (*Config, error) {
	cfg := Defaults()

	if envPath := EnvFilePath(cfg.DataPath); envPath != "" {
		if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", envPath).Msg("Failed to load .env file, continuing with process environment")
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// EnvFilePath returns the .env path the loader and watcher agree on, or ""
// if none exists yet and no data path is known.
func EnvFilePath(dataPath string) string {
	if override := os.Getenv(envPrefix + "ENV_FILE"); override != "" {
		return override
	}
	if dataPath == "" {
		return ""
	}
	return filepath.Join(dataPath, ".env")
}

func (c *Config) applyEnv() {
	if val := os.Getenv(envPrefix + "FRONTEND_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.FrontendPort = port
		}
	}
	if val := os.Getenv(envPrefix + "FRONTEND_HOST"); val != "" {
		c.FrontendHost = val
	}
	if val := os.Getenv(envPrefix + "METRICS_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.MetricsPort = port
		}
	}
	if val := os.Getenv(envPrefix + "AGENT_URL"); val != "" {
		c.AgentURL = strings.TrimSuffix(val, "/")
	}
	if val := os.Getenv(envPrefix + "AGENT_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			c.AgentTimeout = d
		}
	}
	if val := os.Getenv(envPrefix + "POLL_INTERVAL"); val != "" {
		if secs, err := strconv.Atoi(val); err == nil && secs > 0 {
			c.PollInterval = time.Duration(secs) * time.Second
		}
	}
	if val := os.Getenv(envPrefix + "PAGE_SIZE"); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size >= 0 {
			c.PageSize = size
		}
	}
	if val := os.Getenv(envPrefix + "SEARCH_DEBOUNCE_MS"); val != "" {
		if ms, err := strconv.Atoi(val); err == nil && ms > 0 {
			c.SearchDebounce = time.Duration(ms) * time.Millisecond
		}
	}
	if val := os.Getenv(envPrefix + "RESIZE_DEBOUNCE_MS"); val != "" {
		if ms, err := strconv.Atoi(val); err == nil && ms > 0 {
			c.ResizeDebounce = time.Duration(ms) * time.Millisecond
		}
	}
	if val := os.Getenv(envPrefix + "DATA_PATH"); val != "" {
		c.DataPath = val
	}
	if val := os.Getenv(envPrefix + "LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
	if val := os.Getenv(envPrefix + "LOG_FORMAT"); val != "" {
		c.LogFormat = val
	}
	if val := os.Getenv(envPrefix + "MOCK_MODE"); val != "" {
		c.MockMode = strings.EqualFold(val, "true")
	}
}

// Validate checks the configuration for values that cannot work at runtime.
func (c *Config) Validate() error {
	if c.FrontendPort <= 0 || c.FrontendPort > 65535 {
		return fmt.Errorf("invalid frontend port %d", c.FrontendPort)
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		return fmt.Errorf("invalid metrics port %d", c.MetricsPort)
	}
	if !c.MockMode && c.AgentURL == "" {
		return fmt.Errorf("agent URL is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.PageSize < 0 {
		return fmt.Errorf("page size must not be negative")
	}
	return nil
}
