package scheduler

import (
	"fmt"

	"github.com/fisherhq/fisher/internal/jobs"
)

// worker is a single execution context accepting dispatched jobs over its
// own channel and reporting completion back through the scheduler's
// shared input channel, never touching scheduler state directly.
type worker struct {
	id       int
	dispatch chan *ScheduledJob
	quit     chan struct{}
}

func newWorker(id int) *worker {
	return &worker{
		id:       id,
		dispatch: make(chan *ScheduledJob),
		quit:     make(chan struct{}),
	}
}

func (w *worker) run(sched *Scheduler) {
	executor := jobs.NewExecutor()
	for {
		select {
		case sj, ok := <-w.dispatch:
			if !ok {
				return
			}
			w.execute(sched, executor, sj)
		case <-w.quit:
			return
		}
	}
}

func (w *worker) execute(sched *Scheduler, executor *jobs.Executor, sj *ScheduledJob) {
	scriptID := sj.Job.Script.ID
	nonParallel := !sj.Job.Script.Parallel

	output, err := w.runSafely(executor, sj, sched)
	if err != nil {
		sched.input <- cmdJobEnded{workerID: w.id, scriptID: scriptID, nonParallel: nonParallel}
		return
	}

	sched.input <- cmdProcessOutput{output: output}
	sched.input <- cmdJobEnded{workerID: w.id, scriptID: scriptID, nonParallel: nonParallel}
}

// runSafely isolates a worker panic from the scheduler: the panic is
// turned into an error, the worker goroutine continues (it never
// terminated its loop), and the caller reports JobEnded as if the job had
// failed to spawn, so the pool is never short a worker over it.
func (w *worker) runSafely(executor *jobs.Executor, sj *ScheduledJob, sched *Scheduler) (out *jobs.Output, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job execution panicked: %v", r)
		}
	}()
	return executor.Execute(sj.Job, sched.ctxRef.Load())
}

func (w *worker) stop() {
	close(w.quit)
}
