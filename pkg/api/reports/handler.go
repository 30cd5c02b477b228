// Package reports serves report lookup and single-report analysis.
package reports

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"labqc/pkg/api/respond"
	"labqc/pkg/core/agent"
	"labqc/pkg/core/labid"
	"labqc/pkg/core/llm"
	"labqc/pkg/core/report"
	"labqc/pkg/core/settings"
	"labqc/pkg/core/store"
)

// Archive is the part of the archive gateway the handlers need.
type Archive interface {
	FindLatestByKey(ctx context.Context, labID string) *store.AIReport
	Insert(ctx context.Context, r *store.AIReport) *store.AIReport
}

// Analyzer compiles a template against a report and runs inference.
type Analyzer interface {
	Analyze(ctx context.Context, s agent.Settings, template string, r *report.Report) (string, error)
}

// SettingsProvider hands out the current configuration.
type SettingsProvider interface {
	Snapshot() settings.Snapshot
}

// Ensure interface compliance
var (
	_ Archive          = (*store.Gateway)(nil)
	_ Analyzer         = (*agent.Manager)(nil)
	_ SettingsProvider = (*settings.Service)(nil)
)

// Neighbors are the adjacent identifiers of a lab id.
type Neighbors struct {
	LabID   string `json:"lab_id"`
	Counter int    `json:"counter"`
	Next    string `json:"next"`
	Prev    string `json:"prev"`
	Valid   bool   `json:"valid"`
}

// SearchResponse is a report with its cached analysis, if any.
type SearchResponse struct {
	Report    *report.Report  `json:"report"`
	Analysis  *store.AIReport `json:"analysis,omitempty"`
	Abnormal  []report.Flag   `json:"abnormal"`
	Neighbors Neighbors       `json:"neighbors"`
}

// AnalyzeResponse is the result of a fresh analysis.
type AnalyzeResponse struct {
	LabID     string          `json:"lab_id"`
	Analysis  string          `json:"analysis"`
	Provider  string          `json:"provider"`
	Model     string          `json:"model"`
	PromptID  string          `json:"prompt_id"`
	Record    *store.AIReport `json:"record,omitempty"`
	Persisted bool            `json:"persisted"`
}

// Handler holds dependencies for report endpoints
type Handler struct {
	Source   report.Source
	Archive  Archive
	Analyzer Analyzer
	Settings SettingsProvider
	logger   zerolog.Logger
}

// NewHandler creates a new report handler
func NewHandler(src report.Source, archive Archive, analyzer Analyzer, sp SettingsProvider, logger zerolog.Logger) *Handler {
	return &Handler{
		Source:   src,
		Archive:  archive,
		Analyzer: analyzer,
		Settings: sp,
		logger:   logger.With().Str("component", "api_reports").Logger(),
	}
}

func neighbors(id string) Neighbors {
	return Neighbors{
		LabID:   id,
		Counter: labid.Counter(id),
		Next:    labid.Next(id),
		Prev:    labid.Prev(id),
		Valid:   labid.Valid(id),
	}
}

// HandleGet returns the report for {labID} and its latest archived analysis.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("labID")
	rep, err := h.Source.Fetch(r.Context(), id)
	if err != nil || rep == nil {
		respond.Error(w, http.StatusNotFound, "Report not found")
		return
	}

	resp := SearchResponse{
		Report:    rep,
		Abnormal:  rep.AbnormalParameters(),
		Neighbors: neighbors(id),
	}
	if cached := h.Archive.FindLatestByKey(r.Context(), id); cached != nil {
		c := *cached
		c.ReportSnapshot = nil
		resp.Analysis = &c
	}
	respond.JSON(w, http.StatusOK, resp)
}

// HandleNeighbors returns the next and previous identifiers of {labID}.
func (h *Handler) HandleNeighbors(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, neighbors(r.PathValue("labID")))
}

// HandleAnalyze runs a fresh analysis of {labID} with the settings and
// active prompt current at request time, then archives it.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("labID")
	ctx := r.Context()

	rep, err := h.Source.Fetch(ctx, id)
	if err != nil || rep == nil {
		respond.Error(w, http.StatusNotFound, "Report not found")
		return
	}

	snap := h.Settings.Snapshot()
	active := snap.ActivePrompt()

	analysis, err := h.Analyzer.Analyze(ctx, snap.AI, active.Content, rep)
	if err != nil {
		h.logger.Warn().Err(err).Str("lab_id", id).Msg("analysis failed")
		respond.Error(w, analyzeStatus(err), err.Error())
		return
	}

	record := h.Archive.Insert(ctx, &store.AIReport{
		LabID:          id,
		Analysis:       analysis,
		Model:          snap.AI.Model,
		Provider:       snap.AI.Provider,
		PromptID:       active.ID,
		ReportSnapshot: rep,
	})
	resp := AnalyzeResponse{
		LabID:     id,
		Analysis:  analysis,
		Provider:  snap.AI.Provider,
		Model:     snap.AI.Model,
		PromptID:  active.ID,
		Persisted: record != nil,
	}
	if record != nil {
		c := *record
		c.ReportSnapshot = nil
		resp.Record = &c
	}
	respond.JSON(w, http.StatusOK, resp)
}

// analyzeStatus maps inference errors: configuration problems are the
// caller's to fix, everything else is an upstream failure.
func analyzeStatus(err error) int {
	switch {
	case errors.Is(err, llm.ErrMissingCredential), errors.Is(err, llm.ErrUnknownProvider):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}
