package scheduler

import "time"

// Config bundles the scheduler's tunables. DefaultConfig mirrors the
// donor's DefaultSchedulerConfig pattern of one function producing sane
// defaults rather than scattering magic numbers across call sites.
type Config struct {
	MaxThreads      int
	CleanupInterval time.Duration
	InputBuffer     int
}

func DefaultConfig() Config {
	return Config{
		MaxThreads:      4,
		CleanupInterval: 30 * time.Second,
		InputBuffer:     64,
	}
}

// HealthStatus is the reply to a HealthStatus command: how many jobs are
// queued or waiting, how many workers are currently busy, and the
// configured worker pool size.
type HealthStatus struct {
	Queued int
	Busy   int
	Max    int
}
