// Package jobs owns the pending queue, the running set and the drain loop
// that advances queued verification work into execution.
package jobs

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/sevigo/constraint-warden/internal/core"
	"github.com/sevigo/constraint-warden/internal/storage"
)

// queuedJob wraps a core.Job with dispatcher-internal bookkeeping.
type queuedJob struct {
	core.Job
	// markedQueued is set once isQueued has been upserted for this job, so
	// repeated drain passes do not re-write the record.
	markedQueued bool
}

// dispatcher implements core.Dispatcher. Queue and running-set mutations are
// a critical section guarded by mu; the runner itself executes on its own
// goroutine and never holds the lock.
type dispatcher struct {
	ctx     context.Context
	runner  core.Runner
	store   storage.Store
	history *History
	maxJobs int
	logger  *slog.Logger

	mu       sync.Mutex
	queue    []*queuedJob
	running  map[string]core.Job
	inflight map[string]struct{}
	stopped  bool
	wg       sync.WaitGroup
}

// NewDispatcher creates a dispatcher with the given concurrency ceiling.
// maxJobs <= 0 means unbounded.
func NewDispatcher(ctx context.Context, runner core.Runner, store storage.Store, maxJobs int, logger *slog.Logger) core.Dispatcher {
	return &dispatcher{
		ctx:      ctx,
		runner:   runner,
		store:    store,
		history:  NewHistory(historyCapacity),
		maxJobs:  maxJobs,
		logger:   logger,
		running:  make(map[string]core.Job),
		inflight: make(map[string]struct{}),
	}
}

// Submit validates and queues a commit event, then drains the queue. Events
// of the wrong kind, malformed events and duplicates of an in-flight commit
// are dropped with a warning; the caller always gets an acknowledgement.
func (d *dispatcher) Submit(_ context.Context, event core.CommitEvent) (string, bool) {
	if err := event.Validate(); err != nil {
		d.logger.Warn("ignoring event", "reason", err, "event", event.Event)
		return "", false
	}

	key := flightKey(event)

	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		d.logger.Warn("dispatcher is stopped, dropping event", "project", event.ProjectID())
		return "", false
	}
	if _, dup := d.inflight[key]; dup {
		d.mu.Unlock()
		d.logger.Warn("commit already queued or running, dropping duplicate event",
			"project", event.ProjectID(), "commit", event.Data.CommitHash)
		return "", false
	}

	job := &queuedJob{Job: core.Job{ID: uuid.NewString(), Payload: event}}
	d.queue = append(d.queue, job)
	d.inflight[key] = struct{}{}
	d.mu.Unlock()

	d.logger.Info("queuing verification job",
		"job", job.ID, "project", event.ProjectID(), "commit", event.Data.CommitHash)

	d.drain()
	return job.ID, true
}

// drain admits queued jobs while the running set is under the ceiling, then
// marks every job still waiting as queued in the status store. The mark is
// written while mu is held: a marked job cannot be admitted until the write
// returns, so its queued record never lands after the runner's terminal
// record for the same commit.
func (d *dispatcher) drain() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for len(d.queue) > 0 && (d.maxJobs <= 0 || len(d.running) < d.maxJobs) {
		job := d.queue[0]
		d.queue = d.queue[1:]
		d.running[job.ID] = job.Job

		d.wg.Add(1)
		go d.execute(job.Job)
	}

	for _, job := range d.queue {
		if job.markedQueued {
			continue
		}
		job.markedQueued = true
		err := d.store.Upsert(d.ctx, job.Payload.ProjectID(), job.Payload.Data.CommitHash,
			core.StatusRecord{IsQueued: true})
		if err != nil {
			// The job still runs; only the poller's view is degraded.
			d.logger.Error("failed to mark job as queued",
				"project", job.Payload.ProjectID(), "commit", job.Payload.Data.CommitHash, "error", err)
		}
	}
}

// execute runs one admitted job to completion and processes its outcome
// exactly once, whatever that outcome is.
func (d *dispatcher) execute(job core.Job) {
	defer d.wg.Done()

	d.logger.Info("job started", "job", job.ID, "project", job.Payload.ProjectID())

	attempt := core.Attempt{Payload: job.Payload}
	record, err := d.runner.Run(d.ctx, job)
	if err != nil {
		attempt.Fault = err.Error()
		d.logger.Error("verification job failed",
			"job", job.ID, "project", job.Payload.ProjectID(), "error", err)
	} else {
		attempt.Result = record
		d.logger.Info("job finished", "job", job.ID, "hasViolation", record.HasViolation)
	}

	d.mu.Lock()
	delete(d.running, job.ID)
	delete(d.inflight, flightKey(job.Payload))
	d.mu.Unlock()

	d.history.Record(attempt)
	d.drain()
}

// Snapshot reports the current queue, running set and attempt history.
func (d *dispatcher) Snapshot() core.DispatcherStatus {
	d.mu.Lock()
	status := core.DispatcherStatus{
		JobQueue: make([]core.Job, 0, len(d.queue)),
		Running:  make([]core.Job, 0, len(d.running)),
	}
	for _, job := range d.queue {
		status.JobQueue = append(status.JobQueue, job.Job)
	}
	for _, job := range d.running {
		status.Running = append(status.Running, job)
	}
	d.mu.Unlock()

	status.Results = d.history.Snapshot()
	return status
}

// Stop discards the pending queue and waits for running jobs to finish.
// Lost work is logged; events are redelivered at least once by the caller.
func (d *dispatcher) Stop() {
	d.mu.Lock()
	d.stopped = true
	lostQueued := len(d.queue)
	stillRunning := len(d.running)
	d.queue = nil
	d.mu.Unlock()

	if lostQueued > 0 || stillRunning > 0 {
		d.logger.Warn("running and queued jobs will be lost",
			"running", stillRunning, "queued", lostQueued)
	}

	d.logger.Info("stopping dispatcher and waiting for running jobs to finish")
	d.wg.Wait()
	d.logger.Info("all verification jobs have finished")
}

func flightKey(event core.CommitEvent) string {
	return event.ProjectID() + "/" + core.CommitKey(event.Data.CommitHash)
}
