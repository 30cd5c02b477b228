// Package prompts manages prompt versions over HTTP.
package prompts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"labqc/pkg/api/respond"
	"labqc/pkg/core/prompt"
	"labqc/pkg/core/settings"
)

// Service is the prompt half of the settings service.
type Service interface {
	Snapshot() settings.Snapshot
	SavePrompt(ctx context.Context, name, content, description string) (prompt.Version, error)
	ActivatePrompt(ctx context.Context, id string) error
	DeletePrompt(ctx context.Context, id string) prompt.State
	ResetPrompts(ctx context.Context) prompt.State
}

// Ensure interface compliance
var _ Service = (*settings.Service)(nil)

// SaveRequest is the body of POST /api/prompts.
type SaveRequest struct {
	Name        string `json:"name"`
	Content     string `json:"content"`
	Description string `json:"description"`
}

// Handler holds dependencies for prompt endpoints
type Handler struct {
	Service Service
}

// NewHandler creates a new prompt handler
func NewHandler(svc Service) *Handler {
	return &Handler{Service: svc}
}

// HandleList returns every version and the active id.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, h.Service.Snapshot().Prompts)
}

// HandleSave stores a new version and activates it.
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	v, err := h.Service.SavePrompt(r.Context(), req.Name, req.Content, req.Description)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	respond.JSON(w, http.StatusCreated, v)
}

// HandleActivate makes {id} the active version.
func (h *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	err := h.Service.ActivatePrompt(r.Context(), r.PathValue("id"))
	if errors.Is(err, prompt.ErrVersionNotFound) {
		respond.Error(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond.JSON(w, http.StatusOK, h.Service.Snapshot().Prompts)
}

// HandleDelete removes {id}. The last remaining version is kept.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, h.Service.DeletePrompt(r.Context(), r.PathValue("id")))
}

// HandleReset restores the seed versions.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, h.Service.ResetPrompts(r.Context()))
}
