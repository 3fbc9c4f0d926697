package scheduler

import "container/heap"

// jobHeap implements container/heap.Interface over ScheduledJobs ordered
// by (priority desc, serial asc). It backs both the main queue and every
// per-script waiting heap; it is only ever touched from the scheduler's
// single goroutine, so unlike the donor's ThreadSafeQueue it carries no
// mutex of its own.
type jobHeap []*ScheduledJob

func (h jobHeap) Len() int { return len(h) }

func (h jobHeap) Less(i, j int) bool { return h[i].before(h[j]) }

func (h jobHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *jobHeap) Push(x interface{}) {
	*h = append(*h, x.(*ScheduledJob))
}

func (h *jobHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// priorityQueue is a thin heap.Interface wrapper giving callers Push/Pop/
// Peek/Len without reaching for container/heap directly at every call
// site.
type priorityQueue struct {
	h jobHeap
}

func newPriorityQueue() *priorityQueue {
	return &priorityQueue{h: jobHeap{}}
}

func (q *priorityQueue) Push(job *ScheduledJob) {
	heap.Push(&q.h, job)
}

func (q *priorityQueue) Pop() *ScheduledJob {
	if len(q.h) == 0 {
		return nil
	}
	return heap.Pop(&q.h).(*ScheduledJob)
}

func (q *priorityQueue) Peek() *ScheduledJob {
	if len(q.h) == 0 {
		return nil
	}
	return q.h[0]
}

func (q *priorityQueue) Len() int { return len(q.h) }

// RemoveAll drains and returns every entry, in no particular order; used
// when discarding queue contents at shutdown.
func (q *priorityQueue) RemoveAll() []*ScheduledJob {
	out := make([]*ScheduledJob, 0, len(q.h))
	for len(q.h) > 0 {
		out = append(out, q.Pop())
	}
	return out
}
