package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// JobMetrics records runs of the maintenance worker's scheduled jobs.
type JobMetrics struct {
	duration *prometheus.HistogramVec
	runs     *prometheus.CounterVec
}

func NewJobMetrics(reg prometheus.Registerer) *JobMetrics {
	if reg == nil {
		return &JobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "job_duration_seconds",
		Help:      "Duration of scheduled jobs in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"job"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_runs_total",
		Help:      "Scheduled job runs by result.",
	}, []string{"job", "result"})
	reg.MustRegister(duration, runs)
	return &JobMetrics{duration: duration, runs: runs}
}

// Observe records one run. A nil err counts as success.
func (j *JobMetrics) Observe(job string, duration time.Duration, err error) {
	if j == nil || j.duration == nil {
		return
	}
	job = normalizeLabel(job)
	j.duration.WithLabelValues(job).Observe(duration.Seconds())
	result := "success"
	if err != nil {
		result = "failure"
	}
	j.runs.WithLabelValues(job, result).Inc()
}
