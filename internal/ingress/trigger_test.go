package ingress

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fisherhq/fisher/internal/requests"
	"github.com/fisherhq/fisher/internal/scheduler"
	"github.com/fisherhq/fisher/internal/scripts"
)

func newTestAdapter(t *testing.T) (*Adapter, *scheduler.Scheduler) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "deploy")
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o700); err != nil {
		t.Fatal(err)
	}

	repo := scripts.NewRepository()
	repo.AddPath(dir, false)
	if err := repo.Reload(); err != nil {
		t.Fatal(err)
	}

	cfg := scheduler.DefaultConfig()
	cfg.MaxThreads = 1
	sched := scheduler.New(repo, cfg, nil)
	sched.Start()
	t.Cleanup(sched.Stop)

	return NewAdapter(repo, sched), sched
}

func TestTriggerUnknownScript(t *testing.T) {
	adapter, _ := newTestAdapter(t)
	req := requests.NewWeb(nil, nil, nil, "")
	if v := adapter.Trigger("does-not-exist", req); v != VerdictUnknownScript {
		t.Fatalf("expected VerdictUnknownScript, got %v", v)
	}
}

func TestTriggerExecutesKnownScript(t *testing.T) {
	adapter, _ := newTestAdapter(t)
	req := requests.NewWeb(nil, nil, nil, "")
	if v := adapter.Trigger("deploy", req); v != VerdictExecuted {
		t.Fatalf("expected VerdictExecuted, got %v", v)
	}
}

func TestTriggerRejectsWhenLocked(t *testing.T) {
	adapter, sched := newTestAdapter(t)
	sched.Lock()
	sched.Health() // synchronous barrier: guarantees Lock has been applied

	req := requests.NewWeb(nil, nil, nil, "")
	if v := adapter.Trigger("deploy", req); v != VerdictLocked {
		t.Fatalf("expected VerdictLocked, got %v", v)
	}
}
