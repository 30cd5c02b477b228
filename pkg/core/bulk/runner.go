package bulk

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"labqc/pkg/core/labid"
	"labqc/pkg/core/metrics"
)

// SecondsPerReport is the historical average used for time estimates.
const SecondsPerReport = 3.5

// State is the runner's lifecycle.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

// RunInfo describes the current or last batch.
type RunInfo struct {
	RunID              string         `json:"run_id,omitempty"`
	State              State          `json:"state"`
	StartID            string         `json:"start_id,omitempty"`
	EndID              string         `json:"end_id,omitempty"`
	Total              int            `json:"total"`
	Done               int            `json:"done"`
	Counts             map[Status]int `json:"counts"`
	Progress           float64        `json:"progress"`
	EstimatedRemaining time.Duration  `json:"estimated_remaining"`
	StartedAt          *time.Time     `json:"started_at,omitempty"`
	FinishedAt         *time.Time     `json:"finished_at,omitempty"`
	Cancelled          bool           `json:"cancelled"`
	Jobs               []Job          `json:"jobs"`
}

// EstimateRemaining approximates the time left for n reports.
func EstimateRemaining(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(float64(n) * SecondsPerReport * float64(time.Second))
}

// Runner runs at most one batch at a time in the background.
type Runner struct {
	orch    *Orchestrator
	ctx     context.Context
	logger  zerolog.Logger
	metrics *metrics.Metrics

	mu         sync.Mutex
	state      State
	runID      string
	req        Request
	flag       *Flag
	done       chan struct{}
	startedAt  *time.Time
	finishedAt *time.Time
	cancelled  bool
}

// NewRunner returns an idle runner. ctx bounds every batch; cancelling it
// stops the current batch at the next item boundary.
func NewRunner(ctx context.Context, orch *Orchestrator, logger zerolog.Logger, m *metrics.Metrics) *Runner {
	return &Runner{
		orch:    orch,
		ctx:     ctx,
		logger:  logger.With().Str("component", "bulk_runner").Logger(),
		metrics: m,
		state:   StateIdle,
	}
}

// Start launches a batch in the background.
func (r *Runner) Start(req Request) (RunInfo, error) {
	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		return RunInfo{}, ErrBatchRunning
	}
	if len(labid.Range(req.StartID, req.EndID)) == 0 {
		r.mu.Unlock()
		return RunInfo{}, ErrEmptyRange
	}

	now := time.Now()
	r.state = StateRunning
	r.runID = uuid.NewString()
	r.req = req
	r.flag = &Flag{}
	r.done = make(chan struct{})
	r.startedAt = &now
	r.finishedAt = nil
	r.cancelled = false

	flag, done, runID := r.flag, r.done, r.runID
	r.mu.Unlock()

	r.logger.Info().Str("run_id", runID).Str("start_id", req.StartID).Str("end_id", req.EndID).Msg("starting batch")

	go func() {
		defer close(done)
		summary, err := r.orch.Run(r.ctx, req, flag)

		r.mu.Lock()
		finished := time.Now()
		r.state = StateIdle
		r.finishedAt = &finished
		r.cancelled = summary.Cancelled
		r.mu.Unlock()

		switch {
		case err != nil:
			r.metrics.BatchFinished("error")
			r.logger.Error().Err(err).Str("run_id", runID).Msg("batch did not run")
		case summary.Cancelled:
			r.metrics.BatchFinished("cancelled")
		default:
			r.metrics.BatchFinished("finished")
		}
	}()

	return r.Status(), nil
}

// Stop asks the running batch to halt before its next item. It reports
// whether a batch was running.
func (r *Runner) Stop() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateRunning {
		return false
	}
	r.flag.Raise()
	r.state = StateStopping
	r.logger.Info().Str("run_id", r.runID).Msg("stop requested")
	return true
}

// Reset clears the job list so the next start begins fresh.
func (r *Runner) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateIdle {
		return ErrBatchRunning
	}
	if err := r.orch.Reset(); err != nil {
		return err
	}
	r.runID = ""
	r.req = Request{}
	r.startedAt = nil
	r.finishedAt = nil
	r.cancelled = false
	return nil
}

// Status reports the current state and job list.
func (r *Runner) Status() RunInfo {
	jobs := r.orch.Snapshot()
	counts := CountJobs(jobs)
	done := counts[StatusCompleted] + counts[StatusSkipped]

	r.mu.Lock()
	defer r.mu.Unlock()

	info := RunInfo{
		RunID:              r.runID,
		State:              r.state,
		StartID:            r.req.StartID,
		EndID:              r.req.EndID,
		Total:              len(jobs),
		Done:               done,
		Counts:             counts,
		EstimatedRemaining: EstimateRemaining(len(jobs) - done),
		StartedAt:          r.startedAt,
		FinishedAt:         r.finishedAt,
		Cancelled:          r.cancelled,
		Jobs:               jobs,
	}
	if info.Total > 0 {
		info.Progress = float64(done) / float64(info.Total) * 100
	}
	return info
}

// Wait blocks until the current batch, if any, has finished.
func (r *Runner) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Subscribe streams job events; see Orchestrator.Subscribe.
func (r *Runner) Subscribe() (chan Event, []Job) {
	return r.orch.Subscribe()
}

// Unsubscribe stops a stream.
func (r *Runner) Unsubscribe(ch chan Event) {
	r.orch.Unsubscribe(ch)
}
