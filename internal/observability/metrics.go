// Package observability exposes the scheduler's Prometheus metrics. It
// implements scheduler.Observer directly so the metric set stays in lock
// step with the lifecycle events the scheduler actually emits, instead of
// being polled.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fisherhq/fisher/internal/jobs"
)

var (
	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fisher_queue_depth",
		Help: "Number of jobs currently queued, including those gated on non-parallel scripts",
	})

	busyWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fisher_busy_workers",
		Help: "Number of worker threads currently executing a job",
	})

	jobsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fisher_jobs_dispatched_total",
		Help: "Total number of jobs handed to a worker, by script",
	}, []string{"script"})

	jobsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fisher_jobs_completed_total",
		Help: "Total number of jobs that finished, by script and outcome",
	}, []string{"script", "outcome"}) // outcome: success, failure

	cascadeJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fisher_cascade_jobs_total",
		Help: "Total number of status-hook jobs emitted as a cascade of a completed job",
	}, []string{"source_script", "target_script"})

	reloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fisher_reloads_total",
		Help: "Total number of script repository reloads, by outcome",
	}, []string{"outcome"}) // outcome: success, failure

	dedupHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fisher_dedup_hits_total",
		Help: "Total number of inbound deliveries recognized as retries of an already-handled delivery",
	})
)

// Collector implements scheduler.Observer, translating lifecycle callbacks
// into Prometheus series registered on the default registry.
type Collector struct{}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) OnSubmit(scriptName string, priority int, queued int) {
	queueDepth.Set(float64(queued))
}

func (c *Collector) OnDispatch(scriptName string, workerID int) {
	jobsDispatched.WithLabelValues(scriptName).Inc()
	queueDepth.Dec()
	busyWorkers.Inc()
}

func (c *Collector) OnJobEnded(scriptName string, output *jobs.Output) {
	busyWorkers.Dec()
	outcome := "failure"
	if output.Success {
		outcome = "success"
	}
	jobsCompleted.WithLabelValues(scriptName, outcome).Inc()
}

func (c *Collector) OnCascade(sourceScript, targetScript string) {
	cascadeJobs.WithLabelValues(sourceScript, targetScript).Inc()
}

func (c *Collector) OnReload(ok bool) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	reloads.WithLabelValues(outcome).Inc()
}

// RecordDedupHit is called directly by the ingress layer, which sits
// outside the scheduler.Observer lifecycle (dedup happens before a job is
// ever submitted).
func RecordDedupHit() {
	dedupHits.Inc()
}
