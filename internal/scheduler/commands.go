package scheduler

import (
	"github.com/fisherhq/fisher/internal/jobs"
	"github.com/fisherhq/fisher/internal/scripts"
)

// command is the closed set of messages the scheduler's single input
// channel accepts. All scheduler state mutation happens while handling
// one of these, in the order they are received, which is what gives the
// whole component its total order on state transitions.
type command interface{ isCommand() }

type cmdSubmit struct {
	job      *jobs.Job
	priority int
}

type cmdHealthStatus struct {
	reply chan HealthStatus
}

type cmdProcessOutput struct {
	output *jobs.Output
}

type cmdCleanup struct{}

type cmdLock struct{}

type cmdUnlock struct{}

type cmdUpdateContext struct {
	ctx *jobs.Context
}

type cmdSetThreadsCount struct {
	n int
}

type cmdJobEnded struct {
	workerID int
	scriptID scripts.ID
	nonParallel bool
}

type cmdStop struct {
	done chan struct{}
}

func (cmdSubmit) isCommand()          {}
func (cmdHealthStatus) isCommand()    {}
func (cmdProcessOutput) isCommand()   {}
func (cmdCleanup) isCommand()         {}
func (cmdLock) isCommand()            {}
func (cmdUnlock) isCommand()          {}
func (cmdUpdateContext) isCommand()   {}
func (cmdSetThreadsCount) isCommand() {}
func (cmdJobEnded) isCommand()        {}
func (cmdStop) isCommand()            {}
