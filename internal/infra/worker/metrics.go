package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job run statuses.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics tracks scheduled job execution.
//
//   - {job}_job_runs_total: runs by status (success/failure)
//   - {job}_job_duration_seconds: run duration
//   - {job}_job_last_success_timestamp: Unix time of the last successful run
type Metrics struct {
	JobRunsTotal            *prometheus.CounterVec
	JobDurationSeconds      prometheus.Histogram
	JobLastSuccessTimestamp prometheus.Gauge
}

// NewMetrics creates job metrics registered with reg. A nil reg means the
// default registerer.
func NewMetrics(job string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		JobRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: job + "_job_runs_total",
			Help: "Total number of scheduled job runs by status (success/failure)",
		}, []string{"status"}),
		JobDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    job + "_job_duration_seconds",
			Help:    "Duration of scheduled job runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		JobLastSuccessTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: job + "_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful scheduled job run",
		}),
	}
}

// RecordJobRun increments the run counter for status.
func (m *Metrics) RecordJobRun(status string) {
	m.JobRunsTotal.WithLabelValues(status).Inc()
}

// RecordJobDuration observes a run duration in seconds.
func (m *Metrics) RecordJobDuration(seconds float64) {
	m.JobDurationSeconds.Observe(seconds)
}

// RecordLastSuccess sets the last-success gauge to the current time.
func (m *Metrics) RecordLastSuccess() {
	m.JobLastSuccessTimestamp.SetToCurrentTime()
}
