package jobs

import (
	"github.com/google/uuid"

	"github.com/fisherhq/fisher/internal/providers"
	"github.com/fisherhq/fisher/internal/requests"
	"github.com/fisherhq/fisher/internal/scripts"
)

// Job is a scheduled unit of work: one script, an optional provider (the
// one that validated the request), and the request itself. ID is
// assigned once at submission and flows through to the executed
// process's environment and to the audit trail, so a single invocation
// can be correlated end to end.
type Job struct {
	ID       uuid.UUID
	Script   *scripts.Script
	Provider providers.Provider
	Request  *requests.Request
}

// NewJob assigns a fresh ID to a job about to be submitted.
func NewJob(script *scripts.Script, provider providers.Provider, req *requests.Request) *Job {
	return &Job{ID: uuid.New(), Script: script, Provider: provider, Request: req}
}

// Output is the result of executing a Job. Signal and ExitCode are
// mutually exclusive: a process that exited normally sets ExitCode and
// leaves Signal nil; one killed by a signal does the reverse.
type Output struct {
	JobID              uuid.UUID
	Stdout             []byte
	Stderr             []byte
	Success            bool
	ExitCode           *int
	Signal             *int
	ScriptName         string
	RequestIP          string
	TriggerStatusHooks bool
}

// View adapts Output to the narrower shape the requests package needs to
// build a Status request, without requests importing jobs.
func (o *Output) View() *requests.JobOutputView {
	return &requests.JobOutputView{
		ScriptName: o.ScriptName,
		Success:    o.Success,
		ExitCode:   o.ExitCode,
		Signal:     o.Signal,
		Stdout:     o.Stdout,
		Stderr:     o.Stderr,
		RequestIP:  o.RequestIP,
	}
}
