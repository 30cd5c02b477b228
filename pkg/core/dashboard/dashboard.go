// Package dashboard derives the QC register and its summary figures from
// archived analyses.
package dashboard

import (
	"math"
	"sort"
	"strings"
	"time"

	"labqc/pkg/core/store"
	"labqc/pkg/core/utils"
)

// DayLayout is the calendar day format used for filtering.
const DayLayout = "2006-01-02"

// DefaultWindow is how far back the register looks.
const DefaultWindow = 60 * 24 * time.Hour

// Status is the register classification of an analysis.
type Status string

const (
	StatusAll       Status = "all"
	StatusPass      Status = "pass"
	StatusAttention Status = "attention"
)

// Verdict is the decision stated on the analysis "Status:" line.
type Verdict string

const (
	VerdictPass     Verdict = "PASS"
	VerdictReturn   Verdict = "RETURN FOR CORRECTION"
	VerdictEscalate Verdict = "HOLD & ESCALATE"
	VerdictUnknown  Verdict = ""
)

var attentionKeywords = []string{
	"critical",
	"error",
	"attention required",
	"discrepancy",
	"missing",
	"key",
}

// Attention classifies an analysis by keyword. Any of the attention
// keywords anywhere in the text, case-insensitively, marks it for attention.
func Attention(analysis string) Status {
	low := strings.ToLower(analysis)
	for _, kw := range attentionKeywords {
		if strings.Contains(low, kw) {
			return StatusAttention
		}
	}
	return StatusPass
}

// Classify reads the verdict from the first "Status:" line of a markdown
// analysis. Emphasis around the label or the value is ignored.
func Classify(analysis string) Verdict {
	for _, line := range utils.MarkdownLines(analysis) {
		line = strings.TrimLeft(line, "-*• ")
		label, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(label), "status") {
			continue
		}
		v := strings.ToUpper(strings.TrimSpace(value))
		v = strings.ReplaceAll(v, "&AMP;", "&")
		switch {
		case strings.HasPrefix(v, string(VerdictReturn)):
			return VerdictReturn
		case strings.HasPrefix(v, string(VerdictEscalate)), strings.HasPrefix(v, "HOLD AND ESCALATE"):
			return VerdictEscalate
		case strings.HasPrefix(v, string(VerdictPass)):
			return VerdictPass
		}
		return VerdictUnknown
	}
	return VerdictUnknown
}

// Entry is one register row.
type Entry struct {
	store.AIReport
	Day     string  `json:"day"`
	Status  Status  `json:"status"`
	Verdict Verdict `json:"verdict"`
}

// LatestPerLab keeps the newest record for each lab id, newest first.
func LatestPerLab(records []store.AIReport) []store.AIReport {
	latest := make(map[string]store.AIReport, len(records))
	for _, r := range records {
		existing, ok := latest[r.LabID]
		if !ok || r.CreatedAt.After(existing.CreatedAt) {
			latest[r.LabID] = r
		}
	}
	out := make([]store.AIReport, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].LabID < out[j].LabID
	})
	return out
}

// Entries deduplicates records and classifies each one. Days are computed
// in loc; a nil loc means UTC.
func Entries(records []store.AIReport, loc *time.Location) []Entry {
	if loc == nil {
		loc = time.UTC
	}
	latest := LatestPerLab(records)
	out := make([]Entry, len(latest))
	for i, r := range latest {
		out[i] = Entry{
			AIReport: r,
			Day:      r.CreatedAt.In(loc).Format(DayLayout),
			Status:   Attention(r.Analysis),
			Verdict:  Classify(r.Analysis),
		}
	}
	return out
}

// Summary holds the overview figures.
type Summary struct {
	Total          int            `json:"total"`
	Pass           int            `json:"pass"`
	Attention      int            `json:"attention"`
	QualityScore   int            `json:"quality_score"`
	Day            string         `json:"day"`
	DayTotal       int            `json:"day_total"`
	DayAttention   int            `json:"day_attention"`
	Verdicts       map[string]int `json:"verdicts"`
	ProviderCounts map[string]int `json:"provider_counts"`
}

// Summarize computes global figures over entries and the figures for day.
// The quality score is the rounded pass percentage, 0 when empty.
func Summarize(entries []Entry, day string) Summary {
	s := Summary{
		Day:            day,
		Verdicts:       map[string]int{},
		ProviderCounts: map[string]int{},
	}
	for _, e := range entries {
		s.Total++
		if e.Status == StatusAttention {
			s.Attention++
		}
		if e.Verdict != VerdictUnknown {
			s.Verdicts[string(e.Verdict)]++
		}
		if e.Provider != "" {
			s.ProviderCounts[e.Provider]++
		}
		if e.Day == day {
			s.DayTotal++
			if e.Status == StatusAttention {
				s.DayAttention++
			}
		}
	}
	s.Pass = s.Total - s.Attention
	if s.Total > 0 {
		s.QualityScore = int(math.Round(float64(s.Pass) / float64(s.Total) * 100))
	}
	return s
}

// Filter selects register rows for day (empty matches all days), status
// ("all" or empty matches both) and a case-insensitive lab id substring.
func Filter(entries []Entry, day string, status Status, query string) []Entry {
	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if day != "" && e.Day != day {
			continue
		}
		if status != "" && status != StatusAll && e.Status != status {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(e.LabID), query) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// ParseStatus maps a query value to a Status, defaulting to StatusAll.
func ParseStatus(s string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPass:
		return StatusPass
	case StatusAttention:
		return StatusAttention
	}
	return StatusAll
}
