// Package core defines the essential interfaces and data structures that form the
// backbone of the application. These components are designed to be abstract,
// allowing for flexible and decoupled implementations of the application's logic.
package core

import (
	"context"
)

// Job is one unit of dispatchable work derived from a CommitEvent. Jobs are
// immutable once created; a job lives in either the pending queue or the
// running set until its execution reaches a terminal outcome.
type Job struct {
	ID      string      `json:"id"`
	Payload CommitEvent `json:"payload"`
}

// Attempt is the bounded-history log entry of one finished job execution,
// kept for operational introspection via the aggregate status endpoint.
type Attempt struct {
	Payload CommitEvent   `json:"payload"`
	Result  *StatusRecord `json:"result"`
	Fault   string        `json:"fault,omitempty"`
}

// DispatcherStatus is a point-in-time snapshot of the dispatcher's queue,
// running set and recent attempt history.
type DispatcherStatus struct {
	JobQueue []Job     `json:"jobQueue"`
	Running  []Job     `json:"running"`
	Results  []Attempt `json:"results"`
}

// Dispatcher defines the contract for a system that accepts commit events and
// queues them for asynchronous verification. This interface decouples the
// event source (the webhook handler) from the job execution mechanism.
type Dispatcher interface {
	// Submit validates and queues an event. It returns the assigned job ID
	// and whether a job was created; unsupported or duplicate events are
	// dropped with a warning rather than surfaced as errors.
	Submit(ctx context.Context, event CommitEvent) (string, bool)

	// Snapshot reports the pending queue, running set and attempt history.
	Snapshot() DispatcherStatus

	// Stop waits for running jobs to finish. Queued jobs are discarded.
	Stop()
}

// Runner executes one admitted job to completion and returns the terminal
// record that was persisted for it. A returned error is a fault: it is
// recorded on the job's attempt and never retried.
type Runner interface {
	Run(ctx context.Context, job Job) (*StatusRecord, error)
}

// Checker is the external capability that evaluates meta-model consistency
// and constraints for a given commit. Implementations are expected to be
// long-running; the dispatcher invokes them out-of-line.
type Checker interface {
	Check(ctx context.Context, event CommitEvent) (*CheckResult, error)
}
