// Package metrics counts crawl activity in a private prometheus registry and
// exports it in the node-exporter textfile format at the end of a run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the crawler's collectors. A nil *Recorder is valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	fetchAttempts  *prometheus.CounterVec
	fetchResults   *prometheus.CounterVec
	taskOutcomes   *prometheus.CounterVec
	recordsWritten *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	runsTotal      *prometheus.CounterVec
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		fetchAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_fetch_attempts_total",
				Help: "HTTP attempts made, retries included, by final outcome",
			},
			[]string{"outcome"},
		),
		fetchResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_fetches_total",
				Help: "Fetches settled, by final outcome",
			},
			[]string{"outcome"},
		),
		taskOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_items_total",
				Help: "Items settled per job: records produced (ok) and tasks given up on (failed)",
			},
			[]string{"job", "result"},
		),
		recordsWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_records_written_total",
				Help: "Rows written to the output table by job",
			},
			[]string{"job"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "crawler_run_duration_seconds",
				Help:    "Duration of one crawl job run",
				Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~68min
			},
			[]string{"job"},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawler_runs_total",
				Help: "Crawl job runs by status",
			},
			[]string{"job", "status"},
		),
	}
	r.registry.MustRegister(r.fetchAttempts, r.fetchResults, r.taskOutcomes, r.recordsWritten, r.runDuration, r.runsTotal)
	return r
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveFetch records one settled fetch and the attempts it took.
func (r *Recorder) ObserveFetch(outcome string, attempts int) {
	if r == nil {
		return
	}
	r.fetchResults.WithLabelValues(outcome).Inc()
	r.fetchAttempts.WithLabelValues(outcome).Add(float64(attempts))
}

// ObserveItems records the records a job produced and the tasks it gave up on.
func (r *Recorder) ObserveItems(job string, records, failed int) {
	if r == nil {
		return
	}
	r.taskOutcomes.WithLabelValues(job, "ok").Add(float64(records))
	r.taskOutcomes.WithLabelValues(job, "failed").Add(float64(failed))
}

// ObserveRun records the end of a job run.
func (r *Recorder) ObserveRun(job, status string, records int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.runsTotal.WithLabelValues(job, status).Inc()
	r.recordsWritten.WithLabelValues(job).Add(float64(records))
	r.runDuration.WithLabelValues(job).Observe(elapsed.Seconds())
}

// WriteTextfile writes all metrics to path atomically. Empty path is a no-op.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
