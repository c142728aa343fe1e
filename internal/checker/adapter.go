// Package checker invokes the external constraint checker for a job and
// normalizes its outcome into the status store.
package checker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sevigo/constraint-warden/internal/core"
	"github.com/sevigo/constraint-warden/internal/storage"
)

// Adapter implements core.Runner. For each job it marks the commit's record
// as running, invokes the checker capability, normalizes the verdict and
// upserts the terminal record.
type Adapter struct {
	checker core.Checker
	store   storage.Store
	logger  *slog.Logger
}

// NewAdapter creates an Adapter around the given checker capability.
func NewAdapter(checker core.Checker, store storage.Store, logger *slog.Logger) *Adapter {
	return &Adapter{checker: checker, store: store, logger: logger}
}

// Run executes the checker for one job. A returned error is a fault; the
// commit's record may then be left in an incomplete state, which the poller
// surfaces as a run that never terminates.
func (a *Adapter) Run(ctx context.Context, job core.Job) (*core.StatusRecord, error) {
	projectID := job.Payload.ProjectID()
	commit := job.Payload.Data.CommitHash

	err := a.store.Upsert(ctx, projectID, commit, core.StatusRecord{IsRunning: true})
	if err != nil {
		return nil, fmt.Errorf("failed to mark commit %s as running: %w", commit, err)
	}

	a.logger.Debug("invoking checker", "project", projectID, "commit", commit)
	result, err := a.checker.Check(ctx, job.Payload)
	if err != nil {
		return nil, fmt.Errorf("checker failed for commit %s: %w", commit, err)
	}

	record, err := Normalize(result)
	if err != nil {
		return nil, fmt.Errorf("invalid checker outcome for commit %s: %w", commit, err)
	}

	if err := a.store.Upsert(ctx, projectID, commit, record); err != nil {
		return nil, fmt.Errorf("failed to store verdict for commit %s: %w", commit, err)
	}
	return &record, nil
}

// Normalize turns a raw checker outcome into the terminal status record.
// Meta inconsistencies win over constraint results; sub-results without a
// violation are dropped from the stored detail, and the violation flag is
// recomputed from what remains.
func Normalize(result *core.CheckResult) (core.StatusRecord, error) {
	if result == nil {
		return core.StatusRecord{}, fmt.Errorf("checker returned no result")
	}

	if len(result.Inconsistencies) > 0 {
		return core.StatusRecord{
			MetaInconsistent: true,
			Result:           result.Inconsistencies,
		}, nil
	}

	report := result.Report
	if report == nil {
		return core.StatusRecord{}, fmt.Errorf("checker returned neither inconsistencies nor a report")
	}

	retained := make(map[string]*core.NodeResult)
	if report.HasViolation {
		for path, node := range report.Nodes {
			if node != nil && node.HasViolation {
				retained[path] = node
			}
		}
	}

	if len(retained) == 0 {
		return core.StatusRecord{
			Result: core.CleanResult{
				Commit:       report.Commit,
				Info:         report.Info,
				HasViolation: false,
			},
		}, nil
	}

	return core.StatusRecord{
		HasViolation: true,
		Result: &core.ConstraintReport{
			Commit:       report.Commit,
			Info:         report.Info,
			HasViolation: true,
			Nodes:        retained,
		},
	}, nil
}
