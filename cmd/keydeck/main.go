package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/keydeck/keydeck/internal/api"
	"github.com/keydeck/keydeck/internal/catalog"
	"github.com/keydeck/keydeck/internal/config"
	"github.com/keydeck/keydeck/internal/license"
	"github.com/keydeck/keydeck/internal/logging"
	"github.com/keydeck/keydeck/internal/mock"
	"github.com/keydeck/keydeck/internal/session"
	"github.com/keydeck/keydeck/internal/websocket"
	"github.com/keydeck/keydeck/pkg/agent"
)

// Version information (set at build time with -ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:     "keydeck",
	Short:   "Keydeck - license-gated game catalog server",
	Long:    `Keydeck serves a browser dashboard for a license-gated Steam game catalog: activation, Guard code fetching, and platform automation through a local desktop agent`,
	Version: Version,
	Run: func(cmd *cobra.Command, args []string) {
		runServer()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Keydeck %s\n", Version)
		if BuildTime != "unknown" {
			fmt.Printf("Built: %s\n", BuildTime)
		}
		if GitCommit != "unknown" {
			fmt.Printf("Commit: %s\n", GitCommit)
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServer() {
	// Baseline logger for early startup logs
	logging.Init(logging.Config{
		Format:    "auto",
		Level:     "info",
		Component: "keydeck",
	})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Re-initialize logging with configuration-driven settings
	logging.Init(logging.Config{
		Format:    cfg.LogFormat,
		Level:     cfg.LogLevel,
		Component: "keydeck",
	})

	log.Info().Msg("Starting Keydeck server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveMetrics(ctx, fmt.Sprintf("%s:%d", cfg.FrontendHost, cfg.MetricsPort))

	var backend session.Backend
	if cfg.MockMode {
		log.Warn().Msg("Mock mode enabled, agent calls are served in-memory")
		backend = mock.NewBackend(mock.DefaultConfig)
	} else {
		client, err := agent.NewClient(agent.ClientConfig{
			URL:     cfg.AgentURL,
			Timeout: cfg.AgentTimeout,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create agent client")
		}
		backend = client
	}

	keys, err := license.NewLastKeyStore(cfg.DataPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DataPath).Msg("Failed to open key store")
	}

	lic := license.NewController(backend, cfg.PollInterval)
	engine := catalog.NewEngine(cfg.PageSize)
	sess := session.New(backend, lic, engine, keys)
	sess.EnableSearchDebounce(cfg.SearchDebounce)
	sess.EnableResizeDebounce(cfg.ResizeDebounce)

	wsHub := websocket.NewHub(func() interface{} { return sess.View() })
	go wsHub.Run()
	sess.SetChangeListener(func() { wsHub.BroadcastView(sess.View()) })

	// Initial catalog load; the agent may not be up yet, the UI can refresh.
	if err := sess.ReloadCatalog(ctx); err != nil {
		log.Warn().Err(err).Msg("Initial catalog load failed, starting with an empty grid")
	}

	// License poller: immediate check, then every interval
	go lic.Run(ctx)

	router := api.NewRouter(cfg, sess, wsHub, Version)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.FrontendHost, cfg.FrontendPort),
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      0, // WebSocket connections manage their own deadlines
		IdleTimeout:       120 * time.Second,
	}

	configWatcher, err := config.NewWatcher(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create config watcher, .env changes will require restart")
	} else {
		configWatcher.SetReloadCallback(func(updated *config.Config) {
			logging.SetLevel(updated.LogLevel)
			log.Info().Msg("Runtime configuration reloaded")
		})
		if err := configWatcher.Start(); err != nil {
			log.Warn().Err(err).Msg("Failed to start config watcher")
		}
		defer configWatcher.Stop()
	}

	go func() {
		log.Info().
			Str("host", cfg.FrontendHost).
			Int("port", cfg.FrontendPort).
			Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	cancel()
	log.Info().Msg("Server stopped")
}

// serveMetrics exposes /metrics on its own listener so scrape traffic never
// shares the dashboard port. The listener drains when ctx is cancelled.
func serveMetrics(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Metrics endpoint listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn().Err(err).Msg("Metrics listener stopped")
		}
	}()
	go func() {
		<-ctx.Done()
		stopCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := srv.Shutdown(stopCtx); err != nil {
			log.Warn().Err(err).Msg("Metrics listener shutdown error")
		}
	}()
}
