// Package bulk exposes batch control and the live job stream.
package bulk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"labqc/pkg/api/respond"
	"labqc/pkg/core/bulk"
	"labqc/pkg/core/settings"
)

// Runner controls the background batch. bulk.Runner implements it.
type Runner interface {
	Start(req bulk.Request) (bulk.RunInfo, error)
	Stop() bool
	Reset() error
	Status() bulk.RunInfo
	Subscribe() (chan bulk.Event, []bulk.Job)
	Unsubscribe(ch chan bulk.Event)
}

// SettingsProvider hands out the configuration a batch captures at start.
type SettingsProvider interface {
	Snapshot() settings.Snapshot
}

// Ensure interface compliance
var (
	_ Runner           = (*bulk.Runner)(nil)
	_ SettingsProvider = (*settings.Service)(nil)
)

// StartRequest is the body of POST /api/bulk/start.
type StartRequest struct {
	StartID         string `json:"start_id"`
	EndID           string `json:"end_id"`
	ForceRegenerate bool   `json:"force_regenerate"`
}

// HeartbeatInterval is how often an idle stream sends a keep-alive comment.
var HeartbeatInterval = 15 * time.Second

// Handler holds dependencies for bulk endpoints
type Handler struct {
	Runner   Runner
	Settings SettingsProvider
	logger   zerolog.Logger
}

// NewHandler creates a new bulk handler
func NewHandler(runner Runner, sp SettingsProvider, logger zerolog.Logger) *Handler {
	return &Handler{
		Runner:   runner,
		Settings: sp,
		logger:   logger.With().Str("component", "api_bulk").Logger(),
	}
}

// HandleStart captures the current settings and active prompt and starts a
// batch over [start_id, end_id].
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.StartID == "" || req.EndID == "" {
		respond.Error(w, http.StatusBadRequest, "start_id and end_id are required")
		return
	}

	snap := h.Settings.Snapshot()
	active := snap.ActivePrompt()
	info, err := h.Runner.Start(bulk.Request{
		StartID:         req.StartID,
		EndID:           req.EndID,
		Settings:        snap.AI,
		PromptTemplate:  active.Content,
		PromptID:        active.ID,
		ForceRegenerate: req.ForceRegenerate,
	})
	switch {
	case errors.Is(err, bulk.ErrBatchRunning):
		respond.Error(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, bulk.ErrEmptyRange):
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		respond.Error(w, http.StatusInternalServerError, fmt.Sprintf("Failed to start batch: %v", err))
		return
	}
	respond.JSON(w, http.StatusAccepted, info)
}

// HandleStop requests cancellation of the running batch.
func (h *Handler) HandleStop(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]bool{"stopping": h.Runner.Stop()})
}

// HandleReset clears the job list when no batch is running.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.Runner.Reset(); err != nil {
		respond.Error(w, http.StatusConflict, err.Error())
		return
	}
	respond.JSON(w, http.StatusOK, h.Runner.Status())
}

// HandleStatus returns progress and the job list.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, h.Runner.Status())
}

// HandleStream provides an SSE stream of job events. The current job list
// is sent first as a "snapshot" event.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respond.Error(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Content-Type", "text/event-stream")

	ch, jobs := h.Runner.Subscribe()
	defer h.Runner.Unsubscribe(ch)

	if err := sendSSE(w, flusher, "snapshot", jobs); err != nil {
		return
	}

	ticker := time.NewTicker(HeartbeatInterval)
	defer ticker.Stop()

	notify := r.Context().Done()
	for {
		select {
		case ev, open := <-ch:
			if !open {
				return
			}
			if err := sendSSE(w, flusher, string(ev.Type), ev); err != nil {
				return
			}
		case <-ticker.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case <-notify:
			return
		}
	}
}

// sendSSE writes one named event with a JSON payload.
func sendSSE(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
