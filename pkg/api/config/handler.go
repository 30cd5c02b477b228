// Package config serves the AI configuration endpoints.
package config

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"

	"labqc/pkg/api/respond"
	"labqc/pkg/core/agent"
	"labqc/pkg/core/settings"
)

// SettingsService reads and updates AI settings.
type SettingsService interface {
	Snapshot() settings.Snapshot
	UpdateAI(ctx context.Context, in agent.Settings) agent.Settings
}

// Gateway reports the catalog and whether a key is available.
type Gateway interface {
	Catalog() agent.Catalog
	HasCredential(s agent.Settings) bool
}

// Ensure interface compliance
var (
	_ SettingsService = (*settings.Service)(nil)
	_ Gateway         = (*agent.Manager)(nil)
)

// Response is the redacted AI configuration.
type Response struct {
	Settings       agent.Settings `json:"ai_settings"`
	ActiveProvider string         `json:"active_provider"`
	Available      []string       `json:"available"`
	HasCredential  bool           `json:"has_credential"`
}

// Handler holds dependencies for config endpoints
type Handler struct {
	Settings SettingsService
	Gateway  Gateway
}

// NewHandler creates a new config handler
func NewHandler(svc SettingsService, gw Gateway) *Handler {
	return &Handler{
		Settings: svc,
		Gateway:  gw,
	}
}

func (h *Handler) response(s agent.Settings) Response {
	catalog := h.Gateway.Catalog()
	available := make([]string, 0, len(catalog.Providers))
	for name := range catalog.Providers {
		available = append(available, name)
	}
	sort.Strings(available)

	return Response{
		Settings:       s.Redacted(),
		ActiveProvider: s.Provider,
		Available:      available,
		HasCredential:  h.Gateway.HasCredential(s),
	}
}

// HandleConfig returns the current settings with keys redacted.
func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, h.response(h.Settings.Snapshot().AI))
}

// HandleUpdate replaces the AI settings. A redacted key sent back keeps the
// stored key; an empty key clears it.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var in agent.Settings
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if _, ok := h.Gateway.Catalog().Providers[in.Provider]; in.Provider != "" && !ok {
		respond.Error(w, http.StatusBadRequest, "unknown provider: "+in.Provider)
		return
	}
	out := h.Settings.UpdateAI(r.Context(), in)
	respond.JSON(w, http.StatusOK, h.response(out))
}

// HandleModels returns the model catalog.
func (h *Handler) HandleModels(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, h.Gateway.Catalog())
}
