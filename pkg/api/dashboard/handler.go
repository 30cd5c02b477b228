// Package dashboard serves the QC register and overview figures.
package dashboard

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"labqc/pkg/api/respond"
	"labqc/pkg/core/dashboard"
	"labqc/pkg/core/store"
)

// MaxDays bounds the look-back window.
const MaxDays = 365

// Archive lists archived analyses.
type Archive interface {
	GetByDateRange(ctx context.Context, start, end time.Time) []store.AIReport
	Stats(ctx context.Context, now time.Time) store.SystemStats
}

// Ensure interface compliance
var _ Archive = (*store.Gateway)(nil)

// Response is the register view.
type Response struct {
	Summary dashboard.Summary `json:"summary"`
	Entries []dashboard.Entry `json:"entries"`
	Stats   store.SystemStats `json:"stats"`
}

// Handler holds dependencies for dashboard endpoints
type Handler struct {
	Archive  Archive
	Location *time.Location
	now      func() time.Time
}

// NewHandler creates a new dashboard handler. Calendar days are computed
// in loc; nil means UTC.
func NewHandler(archive Archive, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{Archive: archive, Location: loc, now: time.Now}
}

// HandleDashboard answers GET /api/dashboard?days=&day=&status=&q=.
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days := int(dashboard.DefaultWindow / (24 * time.Hour))
	if v := q.Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > MaxDays {
			respond.Error(w, http.StatusBadRequest, "days must be between 1 and 365")
			return
		}
		days = n
	}

	now := h.now()
	day := q.Get("day")
	if day == "" {
		day = now.In(h.Location).Format(dashboard.DayLayout)
	} else if _, err := time.Parse(dashboard.DayLayout, day); err != nil {
		respond.Error(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
		return
	}

	ctx := r.Context()
	records := h.Archive.GetByDateRange(ctx, now.Add(-time.Duration(days)*24*time.Hour), now)
	entries := dashboard.Entries(records, h.Location)

	respond.JSON(w, http.StatusOK, Response{
		Summary: dashboard.Summarize(entries, day),
		Entries: dashboard.Filter(entries, day, dashboard.ParseStatus(q.Get("status")), q.Get("q")),
		Stats:   h.Archive.Stats(ctx, now),
	})
}
