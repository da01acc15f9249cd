// Package api exposes the HTTP surface consumed by the browser shell.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/keydeck/keydeck/internal/config"
	"github.com/keydeck/keydeck/internal/session"
	"github.com/keydeck/keydeck/internal/websocket"
)

// Router handles HTTP routing.
type Router struct {
	mux     *http.ServeMux
	config  *config.Config
	session *session.Session
	wsHub   *websocket.Hub
	started time.Time
	version string
}

// NewRouter creates the router around the session aggregate.
func NewRouter(cfg *config.Config, sess *session.Session, wsHub *websocket.Hub, version string) http.Handler {
	r := &Router{
		mux:     http.NewServeMux(),
		config:  cfg,
		session: sess,
		wsHub:   wsHub,
		started: time.Now(),
		version: version,
	}
	r.setupRoutes()
	return r
}

func (r *Router) setupRoutes() {
	r.mux.HandleFunc("/api/health", r.handleHealth)
	r.mux.HandleFunc("/api/state", r.handleState)
	r.mux.HandleFunc("/api/version", r.handleVersion)

	r.mux.HandleFunc("/api/license/check", r.handleLicenseCheck)
	r.mux.HandleFunc("/api/license/activate", r.handleLicenseActivate)

	r.mux.HandleFunc("/api/games", r.handleGames)
	r.mux.HandleFunc("/api/game/", r.handleGameDetail)
	r.mux.HandleFunc("/api/games/refresh", r.handleGamesRefresh)

	r.mux.HandleFunc("/api/steam-users", r.handleSteamUsers)
	r.mux.HandleFunc("/api/latest-code", r.handleLatestCode)

	r.mux.HandleFunc("/api/login", r.handleLogin)
	r.mux.HandleFunc("/api/add", r.handleAdd)
	r.mux.HandleFunc("/api/remove", r.handleRemove)

	r.mux.HandleFunc("/api/view/search", r.handleViewSearch)
	r.mux.HandleFunc("/api/view/clear-search", r.handleViewClearSearch)
	r.mux.HandleFunc("/api/view/online-only", r.handleViewOnlineOnly)
	r.mux.HandleFunc("/api/view/page/next", r.handleViewPageNext)
	r.mux.HandleFunc("/api/view/page/prev", r.handleViewPagePrev)
	r.mux.HandleFunc("/api/view/viewport", r.handleViewViewport)
	r.mux.HandleFunc("/api/view/select", r.handleViewSelect)
	r.mux.HandleFunc("/api/view/toggle-password", r.handleViewTogglePassword)

	r.mux.HandleFunc("/api/modal/open", r.handleModalOpen)
	r.mux.HandleFunc("/api/modal/submit", r.handleModalSubmit)
	r.mux.HandleFunc("/api/modal/close", r.handleModalClose)

	r.mux.HandleFunc("/ws", r.wsHub.HandleWebSocket)
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if strings.HasPrefix(req.URL.Path, "/api/") {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	}

	start := time.Now()
	r.mux.ServeHTTP(w, req)
	log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Dur("duration", time.Since(start)).
		Msg("Request handled")
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func requireMethod(w http.ResponseWriter, req *http.Request, method string) bool {
	if req.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func decodeBody(w http.ResponseWriter, req *http.Request, into interface{}) bool {
	if err := json.NewDecoder(req.Body).Decode(into); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
