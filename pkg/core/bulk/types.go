// Package bulk runs QC analysis over a range of lab identifiers, one at a
// time, with per-item state, cooperative cancellation and pacing.
package bulk

import (
	"errors"
	"time"

	"labqc/pkg/core/agent"
)

// Status is a job's position in the pipeline.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusSkipped    Status = "skipped"
)

// Done reports whether a rerun leaves the job alone.
func (s Status) Done() bool {
	return s == StatusCompleted || s == StatusSkipped
}

// Terminal reports whether the job has finished this pass.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusSkipped || s == StatusFailed
}

// Job is one identifier's progress.
type Job struct {
	LabID    string `json:"lab_id"`
	Status   Status `json:"status"`
	Error    string `json:"error,omitempty"`
	Analysis string `json:"analysis,omitempty"`
}

// ErrReportNotFound marks an identifier the report source could not deliver.
var ErrReportNotFound = errors.New("Report not found")

var (
	// ErrBatchRunning is returned when a batch is already in flight.
	ErrBatchRunning = errors.New("a batch is already running")
	// ErrEmptyRange is returned when start and end produce no identifiers.
	ErrEmptyRange = errors.New("identifier range is empty")
)

// Request is everything a batch needs, captured once at start. Later
// settings or prompt edits do not reach a running batch.
type Request struct {
	StartID         string         `json:"start_id"`
	EndID           string         `json:"end_id"`
	Settings        agent.Settings `json:"-"`
	PromptTemplate  string         `json:"-"`
	PromptID        string         `json:"prompt_id"`
	ForceRegenerate bool           `json:"force_regenerate"`
}

// EventType distinguishes stream events.
type EventType string

const (
	EventJob           EventType = "job"
	EventBatchStarted  EventType = "batch_started"
	EventBatchFinished EventType = "batch_finished"
)

// Event is pushed to subscribers on every job transition and at batch
// boundaries. Index and Job are set for EventJob.
type Event struct {
	Type    EventType `json:"type"`
	Index   int       `json:"index"`
	Job     Job       `json:"job"`
	Summary *Summary  `json:"summary,omitempty"`
}

// Summary describes a finished pass.
type Summary struct {
	Total     int            `json:"total"`
	Counts    map[Status]int `json:"counts"`
	Cancelled bool           `json:"cancelled"`
	Elapsed   time.Duration  `json:"elapsed"`
}

// CountJobs tallies jobs by status.
func CountJobs(jobs []Job) map[Status]int {
	counts := map[Status]int{
		StatusPending:    0,
		StatusProcessing: 0,
		StatusCompleted:  0,
		StatusFailed:     0,
		StatusSkipped:    0,
	}
	for _, j := range jobs {
		counts[j.Status]++
	}
	return counts
}
