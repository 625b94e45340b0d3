package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"mistakebook/internal/ai"
	"mistakebook/internal/ctxkeys"
	"mistakebook/internal/model"
	"mistakebook/internal/settings"
	"mistakebook/internal/store"
)

type SettingsHandler struct {
	store    *settings.Store
	mirror   *store.Mirror
	gateway  *ai.Gateway
	dbDriver string
}

func NewSettingsHandler(st *settings.Store, mirror *store.Mirror, gateway *ai.Gateway, dbDriver string) *SettingsHandler {
	return &SettingsHandler{store: st, mirror: mirror, gateway: gateway, dbDriver: dbDriver}
}

// Get returns the resolved settings. With a signed-in user, the cloud blob is
// merged over the local one first so settings follow the user across devices.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	resolved := h.store.Resolve()

	user := ctxkeys.User(r.Context())
	if user != nil {
		cloud, err := h.mirror.LoadSettings(r.Context(), user.ID)
		if err != nil {
			slog.Warn("failed to load cloud settings, using local", "error", err, "user_id", user.ID)
		} else if cloud != nil {
			resolved = mergeCloudSettings(resolved, *cloud)
		}
	}

	writeJSON(w, http.StatusOK, resolved)
}

// mergeCloudSettings applies the synced blob on top of the local resolution,
// leaving the cloud coordinates untouched (those are local-only) and keeping
// the one-way mode override intact.
func mergeCloudSettings(local model.AppSettings, cloud model.AppSettings) model.AppSettings {
	cloud.Cloud = local.Cloud
	cloud.UseCloud = local.UseCloud
	if cloud.Username == "" {
		cloud.Username = local.Username
	}
	if cloud.AIModel == "" {
		cloud.AIModel = local.AIModel
	}
	if cloud.Language == "" {
		cloud.Language = local.Language
	}
	if cloud.OpenRouterBaseURL == "" {
		cloud.OpenRouterBaseURL = local.OpenRouterBaseURL
	}
	return cloud
}

type settingsResponse struct {
	Settings      model.AppSettings `json:"settings"`
	CloudReverted bool              `json:"cloudReverted,omitempty"`
}

// Put persists user-edited settings. Enabling cloud mode without both
// coordinates is rejected by force-reverting the flag; the response says so.
// With a signed-in user the blob is also mirrored to the cloud, best effort.
func (h *SettingsHandler) Put(w http.ResponseWriter, r *http.Request) {
	var incoming model.AppSettings
	err := json.NewDecoder(r.Body).Decode(&incoming)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, reverted, err := h.store.Save(incoming)
	if err != nil {
		slog.Error("failed to save settings", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save settings")
		return
	}

	user := ctxkeys.User(r.Context())
	if user != nil {
		err = h.mirror.SaveSettings(r.Context(), user.ID, saved)
		if err != nil {
			slog.Warn("failed to mirror settings to cloud", "error", err, "user_id", user.ID)
		}
	}

	writeJSON(w, http.StatusOK, settingsResponse{Settings: saved, CloudReverted: reverted})
}

type checkRequest struct {
	URL string `json:"url"`
	Key string `json:"anonKey"`
}

type checkResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CheckConnection probes the cloud coordinates before they are saved.
func (h *SettingsHandler) CheckConnection(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ok, message := store.CheckConnection(r.Context(), h.dbDriver, req.URL, req.Key)
	writeJSON(w, http.StatusOK, checkResponse{Success: ok, Message: message})
}

// Models lists the OpenRouter model catalog for the custom-model picker.
func (h *SettingsHandler) Models(w http.ResponseWriter, r *http.Request) {
	resolved := h.store.Resolve()

	models, err := h.gateway.ListModels(r.Context(), resolved.OpenRouterAPIKey, resolved.OpenRouterBaseURL)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, models)
}
