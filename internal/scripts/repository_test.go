package scripts

import (
	"testing"

	"github.com/fisherhq/fisher/internal/requests"
)

func TestRepositoryReloadIsAllOrNothing(t *testing.T) {
	root := t.TempDir()
	write(t, root, "good", "#!/bin/sh\n", 0o755)

	repo := NewRepository()
	repo.AddPath(root, false)
	if err := repo.Reload(); err != nil {
		t.Fatal(err)
	}
	if _, ok := repo.ByName("good"); !ok {
		t.Fatal("expected first reload to have collected good")
	}

	write(t, root, "bad", "#!/bin/sh\n## Fisher: {not json}\n", 0o755)
	if err := repo.Reload(); err == nil {
		t.Fatal("expected reload to fail on a malformed script")
	}

	// Previous snapshot must remain untouched.
	if _, ok := repo.ByName("good"); !ok {
		t.Fatal("expected snapshot to be preserved after a failed reload")
	}
}

func TestRepositoryCascadeTargetsRespectAllowlist(t *testing.T) {
	root := t.TempDir()
	write(t, root, "build", "#!/bin/sh\n", 0o755)
	statusBody := "#!/bin/sh\n## Fisher-Status: {\"events\": [\"job-completed\"], \"scripts\": [\"build\"]}\n"
	write(t, root, "notify", statusBody, 0o755)
	otherStatusBody := "#!/bin/sh\n## Fisher-Status: {\"events\": [\"job-completed\"], \"scripts\": [\"other\"]}\n"
	write(t, root, "notify-other", otherStatusBody, 0o755)

	repo := NewRepository()
	repo.AddPath(root, false)
	if err := repo.Reload(); err != nil {
		t.Fatal(err)
	}

	targets := repo.CascadeTargets(requests.JobCompleted, "build")
	if len(targets) != 1 {
		t.Fatalf("expected exactly 1 cascade target, got %d", len(targets))
	}
	if targets[0].Script.Name != "notify" {
		t.Fatalf("expected notify, got %s", targets[0].Script.Name)
	}
}

func TestRepositoryHasIDTracksGeneration(t *testing.T) {
	root := t.TempDir()
	write(t, root, "hook", "#!/bin/sh\n", 0o755)

	repo := NewRepository()
	repo.AddPath(root, false)
	if err := repo.Reload(); err != nil {
		t.Fatal(err)
	}
	s, _ := repo.ByName("hook")
	if !repo.HasID(s.ID) {
		t.Fatal("expected current generation's ID to be present")
	}

	if err := repo.Reload(); err != nil {
		t.Fatal(err)
	}
	if repo.HasID(s.ID) {
		t.Fatal("expected a stale ID from a previous generation to no longer be present")
	}
}
