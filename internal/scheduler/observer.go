package scheduler

import "github.com/fisherhq/fisher/internal/jobs"

// Observer receives best-effort notifications of scheduler lifecycle
// events. Implementations back the metrics, audit and live-event-feed
// components; none of them may block or alter scheduling decisions, so
// every call here happens after the relevant state transition has already
// been committed.
type Observer interface {
	OnSubmit(scriptName string, priority int, queued int)
	OnDispatch(scriptName string, workerID int)
	OnJobEnded(scriptName string, output *jobs.Output)
	OnCascade(sourceScript, targetScript string)
	OnReload(ok bool)
}

// NopObserver implements Observer with no-ops; embed it to implement only
// the callbacks a given observer cares about.
type NopObserver struct{}

func (NopObserver) OnSubmit(string, int, int)          {}
func (NopObserver) OnDispatch(string, int)              {}
func (NopObserver) OnJobEnded(string, *jobs.Output)      {}
func (NopObserver) OnCascade(string, string)             {}
func (NopObserver) OnReload(bool)                        {}

// multiObserver fans out to several observers so the scheduler always has
// exactly one Observer to call regardless of how many are configured.
type multiObserver []Observer

func (m multiObserver) OnSubmit(name string, priority, queued int) {
	for _, o := range m {
		o.OnSubmit(name, priority, queued)
	}
}

func (m multiObserver) OnDispatch(name string, workerID int) {
	for _, o := range m {
		o.OnDispatch(name, workerID)
	}
}

func (m multiObserver) OnJobEnded(name string, output *jobs.Output) {
	for _, o := range m {
		o.OnJobEnded(name, output)
	}
}

func (m multiObserver) OnCascade(source, target string) {
	for _, o := range m {
		o.OnCascade(source, target)
	}
}

func (m multiObserver) OnReload(ok bool) {
	for _, o := range m {
		o.OnReload(ok)
	}
}
