package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/keydeck/keydeck/internal/catalog"
	"github.com/keydeck/keydeck/internal/license"
)

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	if !requireMethod(w, req, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"uptime":    time.Since(r.started).Seconds(),
	})
}

func (r *Router) handleState(w http.ResponseWriter, req *http.Request) {
	if !requireMethod(w, req, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, r.session.View())
}

func (r *Router) handleVersion(w http.ResponseWriter, req *http.Request) {
	if !requireMethod(w, req, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"version": r.version})
}

func (r *Router) handleLicenseCheck(w http.ResponseWriter, req *http.Request) {
	if !requireMethod(w, req, http.MethodGet) {
		return
	}
	record := r.session.License().Refresh(req.Context())
	writeJSON(w, http.StatusOK, record)
}

func (r *Router) handleLicenseActivate(w http.ResponseWriter, req *http.Request) {
	if !requireMethod(w, req, http.MethodPost) {
		return
	}
	var body struct {
		CDKey   string `json:"cd_key"`
		SteamID string `json:"steamid"`
	}
	if !decodeBody(w, req, &body) {
		return
	}
	r.session.SubmitActivation(req.Context(), body.CDKey, body.SteamID)
	writeJSON(w, http.StatusOK, r.session.Modal())
}

func (r *Router) handleGames(w http.ResponseWriter, req *http.Request) {
	if !requireMethod(w, req, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": r.session.Engine().Items(),
	})
}

func (r *Router) handleGameDetail(w http.ResponseWriter, req *http.Request) {
	if !requireMethod(w, req, http.MethodGet) {
		return
	}
	recordID := strings.TrimPrefix(req.URL.Path, "/api/game/")
	if recordID == "" {
		writeError(w, http.StatusBadRequest, "missing record id")
		return
	}
	item, err := r.session.Backend().GetGame(req.Context(), recordID)
	if err != nil {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (r *Router) handleGamesRefresh(w http.ResponseWriter, req *http.Request) {
	if !requireMethod(w, req, http.MethodPost) {
		return
	}
	count, err := r.session.RefreshCatalog(req.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "refresh failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "count": count})
}

func (r *Router) handleSteamUsers(w http.ResponseWriter, req *http.Request) {
	if !requireMethod(w, req, http.MethodGet) {
		return
	}
	roster, err := r.session.Backend().ListAccounts(req.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "roster unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": roster})
}

func (r *Router) handleLatestCode(w http.ResponseWriter, req *http.Request) {
	if !requireMethod(w, req, http.MethodGet) {
		return
	}
	username := req.URL.Query().Get("username")
	r.session.FetchCode(req.Context(), username)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"code":   r.session.Detail().Code,
		"status": r.session.Status(),
	})
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	r.handleAction(w, req, r.session.Login)
}

func (r *Router) handleAdd(w http.ResponseWriter, req *http.Request) {
	r.handleAction(w, req, r.session.AddToPlatform)
}

func (r *Router) handleRemove(w http.ResponseWriter, req *http.Request) {
	r.handleAction(w, req, r.session.RemoveFromPlatform)
}

func (r *Router) handleAction(w http.ResponseWriter, req *http.Request, action func(ctx context.Context, recordID string)) {
	if !requireMethod(w, req, http.MethodPost) {
		return
	}
	var body struct {
		RecordID string `json:"record_id"`
	}
	if !decodeBody(w, req, &body) {
		return
	}
	if body.RecordID == "" {
		writeError(w, http.StatusBadRequest, "missing record id")
		return
	}
	action(req.Context(), body.RecordID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": r.session.Status(),
		"modal":  r.session.Modal(),
	})
}

func (r *Router) handleViewSearch(w http.ResponseWriter, req *http.Request) {
	if !requireMethod(w, req, http.MethodPost) {
		return
	}
	var body struct {
		Text string `json:"text"`
	}
	if !decodeBody(w, req, &body) {
		return
	}
	r.session.SearchInput(body.Text)
	writeJSON(w, http.StatusOK, r.session.Engine().PageInfo())
}

func (r *Router) handleViewClearSearch(w http.ResponseWriter, req *http.Request) {
	if !requireMethod(w, req, http.MethodPost) {
		return
	}
	r.session.ClearSearch()
	writeJSON(w, http.StatusOK, r.session.Engine().PageInfo())
}

func (r *Router) handleViewOnlineOnly(w http.ResponseWriter, req *http.Request) {
	if !requireMethod(w, req, http.MethodPost) {
		return
	}
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if !decodeBody(w, req, &body) {
		return
	}
	r.session.SetOnlineOnly(body.Enabled)
	writeJSON(w, http.StatusOK, r.session.Engine().PageInfo())
}

func (r *Router) handleViewPageNext(w http.ResponseWriter, req *http.Request) {
	if !requireMethod(w, req, http.MethodPost) {
		return
	}
	moved := r.session.NextPage()
	writeJSON(w, http.StatusOK, map[string]interface{}{"moved": moved, "page": r.session.Engine().PageInfo()})
}

func (r *Router) handleViewPagePrev(w http.ResponseWriter, req *http.Request) {
	if !requireMethod(w, req, http.MethodPost) {
		return
	}
	moved := r.session.PrevPage()
	writeJSON(w, http.StatusOK, map[string]interface{}{"moved": moved, "page": r.session.Engine().PageInfo()})
}

func (r *Router) handleViewViewport(w http.ResponseWriter, req *http.Request) {
	if !requireMethod(w, req, http.MethodPost) {
		return
	}
	var vp catalog.Viewport
	if !decodeBody(w, req, &vp) {
		return
	}
	r.session.ViewportInput(vp)
	writeJSON(w, http.StatusOK, r.session.Engine().PageInfo())
}

func (r *Router) handleViewSelect(w http.ResponseWriter, req *http.Request) {
	if !requireMethod(w, req, http.MethodPost) {
		return
	}
	var body struct {
		RecordID string `json:"record_id"`
	}
	if !decodeBody(w, req, &body) {
		return
	}
	r.session.Select(req.Context(), body.RecordID)
	writeJSON(w, http.StatusOK, r.session.View())
}

func (r *Router) handleViewTogglePassword(w http.ResponseWriter, req *http.Request) {
	if !requireMethod(w, req, http.MethodPost) {
		return
	}
	r.session.TogglePassword()
	writeJSON(w, http.StatusOK, r.session.Detail())
}

func (r *Router) handleModalOpen(w http.ResponseWriter, req *http.Request) {
	if !requireMethod(w, req, http.MethodPost) {
		return
	}
	var pc license.PromptContext
	if req.ContentLength > 0 && !decodeBody(w, req, &pc) {
		return
	}
	r.session.OpenModal(req.Context(), pc)
	writeJSON(w, http.StatusOK, r.session.Modal())
}

func (r *Router) handleModalSubmit(w http.ResponseWriter, req *http.Request) {
	if !requireMethod(w, req, http.MethodPost) {
		return
	}
	var body struct {
		CDKey   string `json:"cd_key"`
		SteamID string `json:"steamid"`
	}
	if !decodeBody(w, req, &body) {
		return
	}
	r.session.SubmitActivation(req.Context(), body.CDKey, body.SteamID)
	writeJSON(w, http.StatusOK, r.session.Modal())
}

func (r *Router) handleModalClose(w http.ResponseWriter, req *http.Request) {
	if !requireMethod(w, req, http.MethodPost) {
		return
	}
	r.session.CloseModal()
	writeJSON(w, http.StatusOK, r.session.Modal())
}
