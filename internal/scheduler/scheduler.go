// Package scheduler implements Fisher's priority-scheduled worker pool as
// a single logical actor: every piece of mutable scheduling state is
// owned by one goroutine and touched only while draining its input
// channel, so there is exactly one synchronization point for the whole
// component and no shared locks across it.
package scheduler

import (
	"sync/atomic"
	"time"

	"github.com/fisherhq/fisher/internal/jobs"
	"github.com/fisherhq/fisher/internal/requests"
	"github.com/fisherhq/fisher/internal/scripts"
)

type workerHandle struct {
	w             *worker
	busy          bool
	runningScript scripts.ID
}

// Scheduler owns the queue, the per-script waiting heaps, the worker
// pool, and the lock/stop flags. Every exported method either sends a
// command on the single input channel or reads an atomic snapshot value
// that is only ever written by the actor goroutine.
type Scheduler struct {
	repo   *scripts.Repository
	ctxRef *jobs.ContextRef
	config Config

	input chan command

	locked atomic.Bool
	health atomic.Pointer[HealthStatus]

	observer Observer

	// actor-owned state; touched only inside run().
	queue        *priorityQueue
	waiting      map[scripts.ID]*priorityQueue
	workers      map[int]*workerHandle
	nextWorkerID int
	nextSerial   Serial
	shouldStop   bool
	stopDone     chan struct{}
}

// New constructs a Scheduler. Call Start to begin processing; until then
// commands are buffered on the input channel (up to cfg.InputBuffer) but
// none is applied.
func New(repo *scripts.Repository, cfg Config, observer Observer) *Scheduler {
	if observer == nil {
		observer = NopObserver{}
	}
	s := &Scheduler{
		repo:     repo,
		ctxRef:   jobs.NewContextRef(),
		config:   cfg,
		input:    make(chan command, cfg.InputBuffer),
		observer: observer,
		queue:    newPriorityQueue(),
		waiting:  make(map[scripts.ID]*priorityQueue),
		workers:  make(map[int]*workerHandle),
	}
	s.health.Store(&HealthStatus{Max: cfg.MaxThreads})
	return s
}

// Start spawns the actor goroutine and the initial worker pool, and
// arms the periodic cleanup timer.
func (s *Scheduler) Start() {
	for i := 0; i < s.config.MaxThreads; i++ {
		s.spawnWorker()
	}
	go s.run()
}

func (s *Scheduler) spawnWorker() {
	id := s.nextWorkerID
	s.nextWorkerID++
	w := newWorker(id)
	s.workers[id] = &workerHandle{w: w}
	go w.run(s)
}

// Submit enqueues job at priority. Non-blocking from the caller's point
// of view as long as the input channel has spare buffer capacity.
func (s *Scheduler) Submit(job *jobs.Job, priority int) {
	s.input <- cmdSubmit{job: job, priority: priority}
}

// Health synchronously reports {queued, busy, max}.
func (s *Scheduler) Health() HealthStatus {
	reply := make(chan HealthStatus, 1)
	s.input <- cmdHealthStatus{reply: reply}
	return <-reply
}

func (s *Scheduler) Lock()   { s.input <- cmdLock{} }
func (s *Scheduler) Unlock() { s.input <- cmdUnlock{} }

// IsLocked is a lock-free read for the ingress adapter, which must reject
// requests while locked without waiting on the scheduler's own channel.
func (s *Scheduler) IsLocked() bool { return s.locked.Load() }

func (s *Scheduler) UpdateContext(ctx *jobs.Context) {
	s.input <- cmdUpdateContext{ctx: ctx}
}

func (s *Scheduler) SetThreadsCount(n int) {
	s.input <- cmdSetThreadsCount{n: n}
}

func (s *Scheduler) Cleanup() { s.input <- cmdCleanup{} }

// Stop drains in-flight jobs, discards anything still queued, and blocks
// until the actor goroutine has exited.
func (s *Scheduler) Stop() {
	done := make(chan struct{})
	s.input <- cmdStop{done: done}
	<-done
}

func (s *Scheduler) run() {
	ticker := time.NewTicker(s.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case cmd := <-s.input:
			if s.handle(cmd) {
				return
			}
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// handle applies one command and returns true once the actor should
// exit (only ever true after a Stop whose last worker has reported in).
func (s *Scheduler) handle(cmd command) bool {
	switch c := cmd.(type) {
	case cmdSubmit:
		s.doSubmit(c.job, c.priority)
	case cmdHealthStatus:
		c.reply <- s.snapshotHealth()
	case cmdProcessOutput:
		s.doProcessOutput(c.output)
	case cmdCleanup:
		s.cleanup()
	case cmdLock:
		s.locked.Store(true)
	case cmdUnlock:
		s.locked.Store(false)
		s.tryDispatch()
	case cmdUpdateContext:
		s.ctxRef.Store(c.ctx)
	case cmdSetThreadsCount:
		s.doSetThreadsCount(c.n)
	case cmdJobEnded:
		return s.doJobEnded(c)
	case cmdStop:
		return s.doStop(c.done)
	}
	s.publishHealth()
	return false
}

func (s *Scheduler) doSubmit(job *jobs.Job, priority int) {
	s.nextSerial = s.nextSerial.Next()
	sj := &ScheduledJob{Job: job, Priority: priority, Serial: s.nextSerial}
	s.queue.Push(sj)
	s.observer.OnSubmit(job.Script.Name, priority, s.snapshotHealth().Queued)
	s.tryDispatch()
}

// tryDispatch matches queue entries to idle workers in strict
// (priority desc, serial asc) order, applying the non-parallel gate: a
// job whose script is non-parallel and already running elsewhere is
// re-routed to that script's waiting heap instead of being dispatched.
func (s *Scheduler) tryDispatch() {
	if s.locked.Load() || s.shouldStop {
		return
	}

	for {
		idle := s.findIdleWorker()
		if idle == nil {
			return
		}

		sj := s.queue.Pop()
		if sj == nil {
			return
		}

		scriptID := sj.Job.Script.ID
		if !sj.Job.Script.Parallel && s.scriptRunning(scriptID) {
			s.waitingHeap(scriptID).Push(sj)
			continue
		}

		idle.busy = true
		idle.runningScript = scriptID
		s.observer.OnDispatch(sj.Job.Script.Name, idle.w.id)
		idle.w.dispatch <- sj
	}
}

func (s *Scheduler) findIdleWorker() *workerHandle {
	for _, wh := range s.workers {
		if !wh.busy {
			return wh
		}
	}
	return nil
}

func (s *Scheduler) scriptRunning(id scripts.ID) bool {
	for _, wh := range s.workers {
		if wh.busy && wh.runningScript == id {
			return true
		}
	}
	return false
}

func (s *Scheduler) waitingHeap(id scripts.ID) *priorityQueue {
	q, ok := s.waiting[id]
	if !ok {
		q = newPriorityQueue()
		s.waiting[id] = q
	}
	return q
}

// doProcessOutput consults the repository for status-cascade targets and
// submits a fresh Job for each, at the fixed elevated cascade priority.
func (s *Scheduler) doProcessOutput(output *jobs.Output) {
	s.observer.OnJobEnded(output.ScriptName, output)

	if !output.TriggerStatusHooks {
		return
	}

	kind := requests.JobCompleted
	if !output.Success {
		kind = requests.JobFailed
	}

	for _, target := range s.repo.CascadeTargets(kind, output.ScriptName) {
		req := requests.NewStatus(kind, output.View())
		job := jobs.NewJob(target.Script, target.Provider, req)
		s.doSubmit(job, StatusEventsPriority)
		s.observer.OnCascade(output.ScriptName, target.Script.Name)
	}
}

// doJobEnded marks the reporting worker idle, promotes the next waiting
// job for its script (if any) back into the main queue, and, once a stop
// has been requested, checks whether this was the last busy worker.
func (s *Scheduler) doJobEnded(c cmdJobEnded) bool {
	wh, ok := s.workers[c.workerID]
	if ok {
		wh.busy = false
		wh.runningScript = 0
	}

	if c.nonParallel {
		if q, ok := s.waiting[c.scriptID]; ok {
			if next := q.Pop(); next != nil {
				s.queue.Push(next)
			}
		}
	}

	if s.shouldStop {
		s.retireIdleWorkers()
		if s.busyCount() == 0 {
			s.finishStop()
			return true
		}
		return false
	}

	s.tryDispatch()
	return false
}

func (s *Scheduler) doStop(done chan struct{}) bool {
	s.shouldStop = true
	s.stopDone = done
	s.queue.RemoveAll()
	s.retireIdleWorkers()
	if s.busyCount() == 0 {
		s.finishStop()
		return true
	}
	return false
}

func (s *Scheduler) finishStop() {
	if s.stopDone != nil {
		close(s.stopDone)
		s.stopDone = nil
	}
}

func (s *Scheduler) retireIdleWorkers() {
	for id, wh := range s.workers {
		if !wh.busy {
			wh.w.stop()
			delete(s.workers, id)
		}
	}
}

func (s *Scheduler) busyCount() int {
	n := 0
	for _, wh := range s.workers {
		if wh.busy {
			n++
		}
	}
	return n
}

func (s *Scheduler) doSetThreadsCount(n int) {
	s.config.MaxThreads = n
	for len(s.workers) < n {
		s.spawnWorker()
	}
	s.retireExcessIdleWorkers()
	s.tryDispatch()
}

func (s *Scheduler) retireExcessIdleWorkers() {
	for len(s.workers) > s.config.MaxThreads {
		victim := s.anyIdleWorker()
		if victim == -1 {
			return
		}
		s.workers[victim].w.stop()
		delete(s.workers, victim)
	}
}

func (s *Scheduler) anyIdleWorker() int {
	for id, wh := range s.workers {
		if !wh.busy {
			return id
		}
	}
	return -1
}

// cleanup retires excess idle workers, prunes waiting entries for script
// generations no longer present in the repository with nothing pending,
// and seeds empty waiting entries for newly-discovered non-parallel
// scripts so promotion has somewhere to land on their first JobEnded.
func (s *Scheduler) cleanup() {
	s.retireExcessIdleWorkers()

	for id, q := range s.waiting {
		if q.Len() == 0 && !s.repo.HasID(id) && !s.scriptRunning(id) {
			delete(s.waiting, id)
		}
	}

	for _, script := range s.repo.All() {
		if !script.Parallel {
			s.waitingHeap(script.ID)
		}
	}
}

func (s *Scheduler) snapshotHealth() HealthStatus {
	queued := s.queue.Len()
	for _, q := range s.waiting {
		queued += q.Len()
	}
	return HealthStatus{Queued: queued, Busy: s.busyCount(), Max: s.config.MaxThreads}
}

func (s *Scheduler) publishHealth() {
	h := s.snapshotHealth()
	s.health.Store(&h)
}

// HealthSnapshot is a lock-free, possibly-one-step-stale read of the last
// published health status, for callers (like an HTTP health endpoint)
// that would rather not round-trip the scheduler's channel on every poll.
func (s *Scheduler) HealthSnapshot() HealthStatus {
	return *s.health.Load()
}
