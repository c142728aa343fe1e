package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sevigo/constraint-warden/internal/core"
	"github.com/sevigo/constraint-warden/internal/storage"
)

type runnerFunc func(ctx context.Context, job core.Job) (*core.StatusRecord, error)

func (f runnerFunc) Run(ctx context.Context, job core.Job) (*core.StatusRecord, error) {
	return f(ctx, job)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func commitEvent(project, commit string) core.CommitEvent {
	return core.CommitEvent{
		Event: core.EventCommit,
		Owner: "guest",
		Data: core.CommitData{
			CommitHash: commit,
			UserID:     "guest",
			ProjectID:  project,
		},
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition never met: %s", msg)
}

func TestDispatcherConcurrencyCeiling(t *testing.T) {
	const maxJobs = 2
	const submissions = 10

	store := storage.NewMemoryStore()
	release := make(chan struct{})

	var current, peak, finished atomic.Int64
	runner := runnerFunc(func(_ context.Context, _ core.Job) (*core.StatusRecord, error) {
		n := current.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		<-release
		current.Add(-1)
		finished.Add(1)
		return &core.StatusRecord{Result: core.CleanResult{}}, nil
	})

	d := NewDispatcher(context.Background(), runner, store, maxJobs, testLogger())

	for i := 0; i < submissions; i++ {
		_, ok := d.Submit(context.Background(), commitEvent("guest+p1", string(rune('a'+i))))
		require.True(t, ok)
	}

	waitFor(t, func() bool { return current.Load() == maxJobs }, "ceiling not reached")
	assert.EqualValues(t, maxJobs, peak.Load())

	close(release)
	waitFor(t, func() bool { return finished.Load() == submissions }, "jobs did not finish")

	assert.EqualValues(t, maxJobs, peak.Load(), "running set exceeded the concurrency ceiling")
	d.Stop()
}

func TestDispatcherOneAttemptPerSubmission(t *testing.T) {
	store := storage.NewMemoryStore()

	var runs atomic.Int64
	runner := runnerFunc(func(_ context.Context, _ core.Job) (*core.StatusRecord, error) {
		runs.Add(1)
		return &core.StatusRecord{Result: core.CleanResult{}}, nil
	})

	d := NewDispatcher(context.Background(), runner, store, 1, testLogger())

	const submissions = 5
	for i := 0; i < submissions; i++ {
		_, ok := d.Submit(context.Background(), commitEvent("guest+p1", string(rune('a'+i))))
		require.True(t, ok)
	}

	waitFor(t, func() bool { return runs.Load() == submissions }, "not all jobs ran")
	d.Stop()

	snapshot := d.Snapshot()
	assert.Len(t, snapshot.Results, submissions)
	assert.Empty(t, snapshot.JobQueue)
	assert.Empty(t, snapshot.Running)
}

func TestDispatcherFIFOOrder(t *testing.T) {
	store := storage.NewMemoryStore()

	var mu sync.Mutex
	var order []string
	runner := runnerFunc(func(_ context.Context, job core.Job) (*core.StatusRecord, error) {
		mu.Lock()
		order = append(order, job.Payload.Data.CommitHash)
		mu.Unlock()
		return &core.StatusRecord{Result: core.CleanResult{}}, nil
	})

	d := NewDispatcher(context.Background(), runner, store, 1, testLogger())

	commits := []string{"c1", "c2", "c3", "c4"}
	for _, c := range commits {
		_, ok := d.Submit(context.Background(), commitEvent("guest+p1", c))
		require.True(t, ok)
	}

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == len(commits)
	}, "not all jobs ran")
	d.Stop()

	assert.Equal(t, commits, order)
}

func TestDispatcherMarksWaitingJobsQueued(t *testing.T) {
	store := storage.NewMemoryStore()
	release := make(chan struct{})

	runner := runnerFunc(func(_ context.Context, _ core.Job) (*core.StatusRecord, error) {
		<-release
		return &core.StatusRecord{Result: core.CleanResult{}}, nil
	})

	d := NewDispatcher(context.Background(), runner, store, 1, testLogger())

	_, ok := d.Submit(context.Background(), commitEvent("guest+p1", "first"))
	require.True(t, ok)
	_, ok = d.Submit(context.Background(), commitEvent("guest+p1", "second"))
	require.True(t, ok)
	_, ok = d.Submit(context.Background(), commitEvent("guest+p1", "third"))
	require.True(t, ok)

	// Every job still waiting gets its record marked, not only the newest one.
	for _, commit := range []string{"second", "third"} {
		commit := commit
		waitFor(t, func() bool {
			rec, err := store.Get(context.Background(), "guest+p1", commit)
			return err == nil && rec.IsQueued
		}, "waiting job was not marked as queued")
	}

	rec, err := store.Get(context.Background(), "guest+p1", "first")
	assert.ErrorIs(t, err, storage.ErrNotFound, "admitted job must not be marked queued: %v", rec)

	close(release)
	d.Stop()
}

// slowMarkStore delays queued-mark writes. A terminal record written by the
// runner must still never be overwritten by a queued mark that was computed
// earlier.
type slowMarkStore struct {
	*storage.MemoryStore
}

func (s slowMarkStore) Upsert(ctx context.Context, projectID, commitHash string, rec core.StatusRecord) error {
	if rec.IsQueued {
		time.Sleep(2 * time.Millisecond)
	}
	return s.MemoryStore.Upsert(ctx, projectID, commitHash, rec)
}

func TestDispatcherQueuedMarkNeverClobbersTerminalRecord(t *testing.T) {
	store := slowMarkStore{MemoryStore: storage.NewMemoryStore()}

	var runs atomic.Int64
	runner := runnerFunc(func(ctx context.Context, job core.Job) (*core.StatusRecord, error) {
		rec := core.StatusRecord{Result: core.CleanResult{}}
		if err := store.Upsert(ctx, job.Payload.ProjectID(), job.Payload.Data.CommitHash, rec); err != nil {
			return nil, err
		}
		runs.Add(1)
		return &rec, nil
	})

	d := NewDispatcher(context.Background(), runner, store, 1, testLogger())

	const submissions = 5
	commits := make([]string, 0, submissions)
	for i := 0; i < submissions; i++ {
		commit := fmt.Sprintf("c%d", i)
		commits = append(commits, commit)
		_, ok := d.Submit(context.Background(), commitEvent("guest+p1", commit))
		require.True(t, ok)
	}

	waitFor(t, func() bool { return runs.Load() == submissions }, "not all jobs ran")
	d.Stop()

	for _, commit := range commits {
		rec, err := store.Get(context.Background(), "guest+p1", commit)
		require.NoError(t, err)
		require.False(t, rec.IsQueued, "terminal record for commit %s was overwritten by a stale queued mark", commit)
		assert.NotNil(t, rec.Result)
	}
}

func TestDispatcherFaultFreesSlot(t *testing.T) {
	store := storage.NewMemoryStore()

	var runs atomic.Int64
	runner := runnerFunc(func(_ context.Context, job core.Job) (*core.StatusRecord, error) {
		runs.Add(1)
		if job.Payload.Data.CommitHash == "boom" {
			return nil, assert.AnError
		}
		return &core.StatusRecord{Result: core.CleanResult{}}, nil
	})

	d := NewDispatcher(context.Background(), runner, store, 1, testLogger())

	_, ok := d.Submit(context.Background(), commitEvent("guest+p1", "boom"))
	require.True(t, ok)
	_, ok = d.Submit(context.Background(), commitEvent("guest+p1", "fine"))
	require.True(t, ok)

	waitFor(t, func() bool { return runs.Load() == 2 }, "fault did not free the slot")
	d.Stop()

	snapshot := d.Snapshot()
	require.Len(t, snapshot.Results, 2)

	// Most recent first.
	assert.Equal(t, "fine", snapshot.Results[0].Payload.Data.CommitHash)
	assert.Empty(t, snapshot.Results[0].Fault)
	assert.Equal(t, "boom", snapshot.Results[1].Payload.Data.CommitHash)
	assert.NotEmpty(t, snapshot.Results[1].Fault)
	assert.Nil(t, snapshot.Results[1].Result)
}

func TestDispatcherDropsDuplicateInFlightCommit(t *testing.T) {
	store := storage.NewMemoryStore()
	release := make(chan struct{})

	var runs atomic.Int64
	runner := runnerFunc(func(_ context.Context, _ core.Job) (*core.StatusRecord, error) {
		runs.Add(1)
		<-release
		return &core.StatusRecord{Result: core.CleanResult{}}, nil
	})

	d := NewDispatcher(context.Background(), runner, store, 1, testLogger())

	_, ok := d.Submit(context.Background(), commitEvent("guest+p1", "abc123"))
	require.True(t, ok)

	waitFor(t, func() bool { return runs.Load() == 1 }, "first job did not start")

	// Redelivery of the same commit while it runs is dropped.
	_, ok = d.Submit(context.Background(), commitEvent("guest+p1", "abc123"))
	assert.False(t, ok)

	// Same bare hash with the marker applied is the same commit.
	_, ok = d.Submit(context.Background(), commitEvent("guest+p1", "#abc123"))
	assert.False(t, ok)

	// A different project may carry the same hash.
	_, ok = d.Submit(context.Background(), commitEvent("guest+p2", "abc123"))
	assert.True(t, ok)

	close(release)
	d.Stop()
}

func TestDispatcherIgnoresUnsupportedEvents(t *testing.T) {
	store := storage.NewMemoryStore()
	runner := runnerFunc(func(_ context.Context, _ core.Job) (*core.StatusRecord, error) {
		t.Error("runner must not be invoked for unsupported events")
		return nil, nil
	})

	d := NewDispatcher(context.Background(), runner, store, 1, testLogger())
	defer d.Stop()

	event := commitEvent("guest+p1", "abc123")
	event.Event = "TAG"
	_, ok := d.Submit(context.Background(), event)
	assert.False(t, ok)

	missingHash := commitEvent("guest+p1", "")
	_, ok = d.Submit(context.Background(), missingHash)
	assert.False(t, ok)

	assert.Empty(t, d.Snapshot().JobQueue)
}

func TestDispatcherStopDiscardsQueue(t *testing.T) {
	store := storage.NewMemoryStore()
	release := make(chan struct{})

	var runs atomic.Int64
	runner := runnerFunc(func(_ context.Context, _ core.Job) (*core.StatusRecord, error) {
		runs.Add(1)
		<-release
		return &core.StatusRecord{Result: core.CleanResult{}}, nil
	})

	d := NewDispatcher(context.Background(), runner, store, 1, testLogger())

	_, _ = d.Submit(context.Background(), commitEvent("guest+p1", "running"))
	_, _ = d.Submit(context.Background(), commitEvent("guest+p1", "queued"))

	waitFor(t, func() bool { return runs.Load() == 1 }, "first job did not start")

	done := make(chan struct{})
	go func() {
		d.Stop()
		close(done)
	}()

	// Only release the running job once Stop has discarded the queue;
	// submissions are refused from that point on.
	late := 0
	waitFor(t, func() bool {
		late++
		_, ok := d.Submit(context.Background(), commitEvent("guest+p1", fmt.Sprintf("late-%d", late)))
		return !ok
	}, "dispatcher kept accepting work")

	close(release)
	<-done

	// The queued job never ran; only the running one finished.
	assert.EqualValues(t, 1, runs.Load())

	_, ok := d.Submit(context.Background(), commitEvent("guest+p1", "after-stop"))
	assert.False(t, ok, "stopped dispatcher must not accept work")
}

func TestDispatcherUnboundedConcurrency(t *testing.T) {
	store := storage.NewMemoryStore()
	release := make(chan struct{})

	var current atomic.Int64
	runner := runnerFunc(func(_ context.Context, _ core.Job) (*core.StatusRecord, error) {
		current.Add(1)
		<-release
		return &core.StatusRecord{Result: core.CleanResult{}}, nil
	})

	d := NewDispatcher(context.Background(), runner, store, 0, testLogger())

	for i := 0; i < 5; i++ {
		_, ok := d.Submit(context.Background(), commitEvent("guest+p1", string(rune('a'+i))))
		require.True(t, ok)
	}

	waitFor(t, func() bool { return current.Load() == 5 }, "all jobs should run at once")
	close(release)
	d.Stop()
}
