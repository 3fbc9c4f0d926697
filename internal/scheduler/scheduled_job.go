package scheduler

import "github.com/fisherhq/fisher/internal/jobs"

// ScheduledJob pairs a Job with the (priority, serial) the scheduler
// dispatches it by.
type ScheduledJob struct {
	Job      *jobs.Job
	Priority int
	Serial   Serial
}

// before reports whether a must be dispatched before b: higher priority
// first, and within equal priority, earlier serial first (FIFO).
func (a *ScheduledJob) before(b *ScheduledJob) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	return a.Serial.Less(b.Serial)
}

// StatusEventsPriority is the fixed elevated priority status-cascade jobs
// are submitted at, so a failing build's cleanup hook always preempts
// ordinary user traffic.
const StatusEventsPriority = 1000
