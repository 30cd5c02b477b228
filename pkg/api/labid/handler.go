// Package labid previews identifier ranges before a batch starts.
package labid

import (
	"net/http"

	"labqc/pkg/api/respond"
	"labqc/pkg/core/bulk"
	"labqc/pkg/core/labid"
)

// RangeResponse describes the identifiers a batch over [start, end] covers.
type RangeResponse struct {
	Start            string   `json:"start"`
	End              string   `json:"end"`
	Count            int      `json:"count"`
	Capped           bool     `json:"capped"`
	EstimatedSeconds float64  `json:"estimated_seconds"`
	IDs              []string `json:"ids"`
}

// HandleRange expands ?start=&end= into identifiers with a time estimate.
func HandleRange(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if start == "" || end == "" {
		respond.Error(w, http.StatusBadRequest, "start and end are required")
		return
	}

	ids := labid.Range(start, end)
	n := len(ids)
	respond.JSON(w, http.StatusOK, RangeResponse{
		Start:            start,
		End:              end,
		Count:            n,
		Capped:           n == labid.MaxRange && ids[n-1] != end,
		EstimatedSeconds: bulk.EstimateRemaining(n).Seconds(),
		IDs:              ids,
	})
}
