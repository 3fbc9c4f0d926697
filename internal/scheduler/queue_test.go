package scheduler

import (
	"testing"

	"github.com/fisherhq/fisher/internal/jobs"
	"github.com/fisherhq/fisher/internal/scripts"
)

func sj(priority int, serial Serial, name string) *ScheduledJob {
	return &ScheduledJob{
		Job:      &jobs.Job{Script: &scripts.Script{Name: name}},
		Priority: priority,
		Serial:   serial,
	}
}

func TestPriorityQueueOrdersByPriorityThenSerial(t *testing.T) {
	q := newPriorityQueue()

	s0 := ZeroSerial()
	s1 := s0.Next()
	s2 := s1.Next()

	q.Push(sj(0, s0, "low-first"))
	q.Push(sj(5, s1, "high"))
	q.Push(sj(0, s2, "low-second"))

	first := q.Pop()
	if first.Job.Script.Name != "high" {
		t.Fatalf("expected highest priority first, got %s", first.Job.Script.Name)
	}

	second := q.Pop()
	if second.Job.Script.Name != "low-first" {
		t.Fatalf("expected FIFO within equal priority, got %s", second.Job.Script.Name)
	}

	third := q.Pop()
	if third.Job.Script.Name != "low-second" {
		t.Fatalf("expected low-second last, got %s", third.Job.Script.Name)
	}

	if q.Pop() != nil {
		t.Fatal("expected empty queue to return nil")
	}
}

func TestPriorityQueueRemoveAllDrains(t *testing.T) {
	q := newPriorityQueue()
	q.Push(sj(0, ZeroSerial(), "a"))
	q.Push(sj(1, ZeroSerial().Next(), "b"))

	all := q.RemoveAll()
	if len(all) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(all))
	}
	if q.Len() != 0 {
		t.Fatal("expected queue empty after RemoveAll")
	}
}
