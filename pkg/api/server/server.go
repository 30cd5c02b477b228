// Package server wires the API handlers onto one mux.
package server

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"labqc/pkg/api/bulk"
	"labqc/pkg/api/config"
	"labqc/pkg/api/dashboard"
	"labqc/pkg/api/labid"
	"labqc/pkg/api/prompts"
	"labqc/pkg/api/reports"
	"labqc/pkg/api/respond"
)

// Handlers groups the endpoint handlers the server exposes.
type Handlers struct {
	Reports   *reports.Handler
	Bulk      *bulk.Handler
	Config    *config.Handler
	Prompts   *prompts.Handler
	Dashboard *dashboard.Handler
	Metrics   http.Handler
}

// Routes builds the mux with CORS, recovery and request logging applied.
func Routes(h Handlers, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/reports/{labID}", h.Reports.HandleGet)
	mux.HandleFunc("GET /api/reports/{labID}/neighbors", h.Reports.HandleNeighbors)
	mux.HandleFunc("POST /api/reports/{labID}/analyze", h.Reports.HandleAnalyze)

	mux.HandleFunc("POST /api/bulk/start", h.Bulk.HandleStart)
	mux.HandleFunc("POST /api/bulk/stop", h.Bulk.HandleStop)
	mux.HandleFunc("POST /api/bulk/reset", h.Bulk.HandleReset)
	mux.HandleFunc("GET /api/bulk/status", h.Bulk.HandleStatus)
	mux.HandleFunc("GET /api/bulk/stream", h.Bulk.HandleStream)

	mux.HandleFunc("GET /api/labid/range", labid.HandleRange)

	mux.HandleFunc("GET /api/config", h.Config.HandleConfig)
	mux.HandleFunc("PUT /api/config", h.Config.HandleUpdate)
	mux.HandleFunc("GET /api/config/models", h.Config.HandleModels)

	mux.HandleFunc("GET /api/prompts", h.Prompts.HandleList)
	mux.HandleFunc("POST /api/prompts", h.Prompts.HandleSave)
	mux.HandleFunc("POST /api/prompts/reset", h.Prompts.HandleReset)
	mux.HandleFunc("POST /api/prompts/{id}/activate", h.Prompts.HandleActivate)
	mux.HandleFunc("DELETE /api/prompts/{id}", h.Prompts.HandleDelete)

	mux.HandleFunc("GET /api/dashboard", h.Dashboard.HandleDashboard)

	if h.Metrics != nil {
		mux.Handle("GET /metrics", h.Metrics)
	}
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return CORS(Recovery(logger)(Logger(logger)(mux)))
}

// New returns an http.Server for addr. WriteTimeout is left unset so event
// streams stay open.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
