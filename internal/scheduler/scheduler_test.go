package scheduler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fisherhq/fisher/internal/jobs"
	"github.com/fisherhq/fisher/internal/requests"
	"github.com/fisherhq/fisher/internal/scripts"
)

type recordingObserver struct {
	NopObserver
	dispatched chan string
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{dispatched: make(chan string, 16)}
}

func (o *recordingObserver) OnDispatch(scriptName string, workerID int) {
	o.dispatched <- scriptName
}

func expectDispatch(t *testing.T, ch chan string, want string) {
	t.Helper()
	select {
	case got := <-ch:
		if got != want {
			t.Fatalf("expected dispatch of %q, got %q", want, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for dispatch of %q", want)
	}
}

func expectNoDispatch(t *testing.T, ch chan string) {
	t.Helper()
	select {
	case got := <-ch:
		t.Fatalf("expected no dispatch, got %q", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func quickScript(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "job.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\nsleep 0.2\nexit 0\n"), 0o700); err != nil {
		t.Fatal(err)
	}
	return path
}

func testJob(name, exec string, parallel bool) *jobs.Job {
	return &jobs.Job{
		Script: &scripts.Script{Name: name, Exec: exec, Parallel: parallel},
		Request: requests.NewWeb(nil, nil, nil, ""),
	}
}

func TestSchedulerDispatchesInPriorityOrder(t *testing.T) {
	exec := quickScript(t)
	repo := scripts.NewRepository()
	obs := newRecordingObserver()

	cfg := DefaultConfig()
	cfg.MaxThreads = 3
	sched := New(repo, cfg, obs)
	sched.Start()
	defer sched.Stop()

	sched.Lock()
	sched.Submit(testJob("low", exec, true), 1)
	sched.Submit(testJob("high", exec, true), 10)
	sched.Submit(testJob("mid", exec, true), 5)
	sched.Unlock()

	// Synchronous round trip: guarantees Unlock (and the tryDispatch it
	// triggers) has already been processed by the actor.
	sched.Health()

	expectDispatch(t, obs.dispatched, "high")
	expectDispatch(t, obs.dispatched, "mid")
	expectDispatch(t, obs.dispatched, "low")
}

func TestSchedulerSerializesNonParallelScript(t *testing.T) {
	exec := quickScript(t)
	repo := scripts.NewRepository()
	obs := newRecordingObserver()

	script := &scripts.Script{Name: "exclusive", Exec: exec, Parallel: false}

	cfg := DefaultConfig()
	cfg.MaxThreads = 2
	sched := New(repo, cfg, obs)
	sched.Start()
	defer sched.Stop()

	job1 := &jobs.Job{Script: script, Request: requests.NewWeb(nil, nil, nil, "")}
	job2 := &jobs.Job{Script: script, Request: requests.NewWeb(nil, nil, nil, "")}

	sched.Lock()
	sched.Submit(job1, 0)
	sched.Submit(job2, 0)
	sched.Unlock()
	sched.Health()

	expectDispatch(t, obs.dispatched, "exclusive")
	// The second job for the same non-parallel script must not dispatch
	// until the first has ended, even though a second worker is idle.
	expectNoDispatch(t, obs.dispatched)

	// Once the first finishes (quickScript sleeps ~200ms), the second
	// should be promoted and dispatched.
	expectDispatch(t, obs.dispatched, "exclusive")
}

func TestSchedulerHealthReflectsQueueAndBusy(t *testing.T) {
	exec := quickScript(t)
	repo := scripts.NewRepository()

	cfg := DefaultConfig()
	cfg.MaxThreads = 1
	sched := New(repo, cfg, NopObserver{})
	sched.Start()
	defer sched.Stop()

	sched.Lock()
	sched.Submit(testJob("a", exec, true), 0)
	sched.Submit(testJob("b", exec, true), 0)

	h := sched.Health()
	if h.Queued != 2 || h.Busy != 0 || h.Max != 1 {
		t.Fatalf("unexpected locked health: %+v", h)
	}

	sched.Unlock()
	h = sched.Health()
	if h.Busy != 1 || h.Queued != 1 {
		t.Fatalf("expected one dispatched and one still queued, got %+v", h)
	}
}
