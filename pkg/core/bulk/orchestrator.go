package bulk

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"labqc/pkg/core/agent"
	"labqc/pkg/core/labid"
	"labqc/pkg/core/metrics"
	"labqc/pkg/core/prompt"
	"labqc/pkg/core/report"
	"labqc/pkg/core/store"
)

// ReportSource fetches a report; (nil, nil) means not found.
type ReportSource interface {
	Fetch(ctx context.Context, labID string) (*report.Report, error)
}

// Archive is the best-effort cache and sink for analyses.
type Archive interface {
	FindLatestByKey(ctx context.Context, labID string) *store.AIReport
	Insert(ctx context.Context, r *store.AIReport) *store.AIReport
}

// Analyzer runs a compiled prompt against the configured model.
type Analyzer interface {
	Infer(ctx context.Context, settings agent.Settings, compiled string) (string, error)
}

// Ensure interface compliance
var (
	_ ReportSource = (*report.HTTPSource)(nil)
	_ Archive      = (*store.Gateway)(nil)
	_ Analyzer     = (*agent.Manager)(nil)
)

// Orchestrator owns the job list for the current range. Jobs survive between
// runs so rerunning the same range only retries pending and failed items.
type Orchestrator struct {
	source   ReportSource
	archive  Archive
	analyzer Analyzer
	pacer    Pacer
	logger   zerolog.Logger
	metrics  *metrics.Metrics

	running     atomic.Bool
	jobs        []Job
	subscribers []chan Event
	mu          sync.RWMutex
}

func NewOrchestrator(source ReportSource, archive Archive, analyzer Analyzer, pacer Pacer, logger zerolog.Logger, m *metrics.Metrics) *Orchestrator {
	if pacer == nil {
		pacer = FixedDelay{Delay: DefaultDelay}
	}
	return &Orchestrator{
		source:   source,
		archive:  archive,
		analyzer: analyzer,
		pacer:    pacer,
		logger:   logger.With().Str("component", "bulk").Logger(),
		metrics:  m,
	}
}

// Run processes the range in req strictly in order. It stops early only when
// cancel is raised or ctx is done, checked before each item. Per-item
// failures are recorded on the job and never abort the batch.
func (o *Orchestrator) Run(ctx context.Context, req Request, cancel *Flag) (Summary, error) {
	if !o.running.CompareAndSwap(false, true) {
		return Summary{}, ErrBatchRunning
	}
	defer o.running.Store(false)

	start := time.Now()
	ids := labid.Range(req.StartID, req.EndID)
	if len(ids) == 0 {
		return Summary{Counts: CountJobs(nil)}, nil
	}
	o.reconcile(ids)

	log := o.logger.With().
		Str("start_id", req.StartID).
		Str("end_id", req.EndID).
		Str("provider", req.Settings.Provider).
		Str("model", req.Settings.Model).
		Bool("force", req.ForceRegenerate).
		Logger()
	log.Info().Int("total", len(ids)).Msg("batch started")
	o.broadcast(Event{Type: EventBatchStarted})

	cancelled := false
	for i, id := range ids {
		if cancel.Raised() || ctx.Err() != nil {
			cancelled = true
			break
		}
		if o.status(i).Done() {
			continue
		}

		itemStart := time.Now()
		paced := o.process(ctx, i, id, req)
		o.metrics.ObserveItem(time.Since(itemStart).Seconds())

		if paced && !cancel.Raised() {
			if err := o.pacer.Wait(ctx); err != nil {
				log.Debug().Err(err).Msg("pacing interrupted")
			}
		}
	}

	jobs := o.Snapshot()
	summary := Summary{
		Total:     len(jobs),
		Counts:    CountJobs(jobs),
		Cancelled: cancelled,
		Elapsed:   time.Since(start),
	}
	log.Info().
		Bool("cancelled", cancelled).
		Int("completed", summary.Counts[StatusCompleted]).
		Int("skipped", summary.Counts[StatusSkipped]).
		Int("failed", summary.Counts[StatusFailed]).
		Int("pending", summary.Counts[StatusPending]).
		Dur("elapsed", summary.Elapsed).
		Msg("batch finished")
	o.broadcast(Event{Type: EventBatchFinished, Summary: &summary})
	return summary, nil
}

// process runs one identifier and reports whether pacing applies, which is
// whenever the item went past the cache.
func (o *Orchestrator) process(ctx context.Context, i int, id string, req Request) bool {
	log := o.logger.With().Str("lab_id", id).Logger()
	o.transition(i, Job{LabID: id, Status: StatusProcessing})

	if !req.ForceRegenerate {
		if cached := o.archive.FindLatestByKey(ctx, id); cached != nil {
			log.Debug().Str("record_id", cached.ID).Msg("cache hit")
			o.transition(i, Job{LabID: id, Status: StatusSkipped})
			return false
		}
	}

	rep, err := o.source.Fetch(ctx, id)
	if err == nil && rep == nil {
		err = ErrReportNotFound
	}
	if err != nil {
		o.fail(i, id, err, log)
		return true
	}

	analysis, err := o.analyzer.Infer(ctx, req.Settings, prompt.Compile(req.PromptTemplate, rep))
	if err != nil {
		o.fail(i, id, err, log)
		return true
	}

	// Best effort: a failed write is logged and counted by the archive and
	// the job still completes.
	o.archive.Insert(ctx, &store.AIReport{
		LabID:          id,
		Analysis:       analysis,
		Model:          req.Settings.Model,
		Provider:       req.Settings.Provider,
		PromptID:       req.PromptID,
		ReportSnapshot: rep,
	})
	o.transition(i, Job{LabID: id, Status: StatusCompleted, Analysis: analysis})
	log.Debug().Int("parameters", rep.ParameterCount()).Int("chars", len(analysis)).Msg("job completed")
	return true
}

func (o *Orchestrator) fail(i int, id string, err error, log zerolog.Logger) {
	log.Warn().Err(err).Msg("job failed")
	o.transition(i, Job{LabID: id, Status: StatusFailed, Error: err.Error()})
}

// reconcile keeps the current jobs when they describe the same range (same
// length and endpoints) and otherwise starts over with every job pending.
func (o *Orchestrator) reconcile(ids []string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	n := len(o.jobs)
	if n == len(ids) && n > 0 && o.jobs[0].LabID == ids[0] && o.jobs[n-1].LabID == ids[n-1] {
		// An interrupted item is retried.
		for i := range o.jobs {
			if o.jobs[i].Status == StatusProcessing {
				o.jobs[i].Status = StatusPending
			}
		}
		return
	}
	o.jobs = make([]Job, len(ids))
	for i, id := range ids {
		o.jobs[i] = Job{LabID: id, Status: StatusPending}
	}
}

func (o *Orchestrator) status(i int) Status {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.jobs[i].Status
}

// transition replaces job i and notifies subscribers.
func (o *Orchestrator) transition(i int, job Job) {
	o.mu.Lock()
	o.jobs[i] = job
	o.mu.Unlock()

	if job.Status.Terminal() {
		o.metrics.JobFinished(string(job.Status))
	}
	o.broadcast(Event{Type: EventJob, Index: i, Job: job})
}

// Snapshot returns a copy of the job list.
func (o *Orchestrator) Snapshot() []Job {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]Job, len(o.jobs))
	copy(out, o.jobs)
	return out
}

// Reset drops all jobs. It fails while a batch is running.
func (o *Orchestrator) Reset() error {
	if o.running.Load() {
		return ErrBatchRunning
	}
	o.mu.Lock()
	o.jobs = nil
	o.mu.Unlock()
	return nil
}

// Running reports whether Run is in progress.
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

// Subscribe adds a client channel for real-time updates and returns the
// current jobs for replay.
func (o *Orchestrator) Subscribe() (chan Event, []Job) {
	o.mu.Lock()
	defer o.mu.Unlock()

	// Buffered so a slow reader does not stall the loop.
	ch := make(chan Event, 100)
	o.subscribers = append(o.subscribers, ch)

	jobs := make([]Job, len(o.jobs))
	copy(jobs, o.jobs)
	return ch, jobs
}

// Unsubscribe removes and closes a client channel.
func (o *Orchestrator) Unsubscribe(ch chan Event) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, sub := range o.subscribers {
		if sub == ch {
			o.subscribers = append(o.subscribers[:i], o.subscribers[i+1:]...)
			close(sub)
			break
		}
	}
}

// broadcast sends ev to every subscriber without blocking.
func (o *Orchestrator) broadcast(ev Event) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	for _, ch := range o.subscribers {
		select {
		case ch <- ev:
		default:
			// Drop the event if the client is too slow.
		}
	}
}
