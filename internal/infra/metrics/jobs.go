package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		jobSubmissionsTotal,
		jobStatusChecksTotal,
		jobOutcomesTotal,
		jobDurationSeconds,
		jobStaleCallbacksTotal,
	)
}

var (
	jobSubmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_job_submissions_total",
			Help: "Job submissions by result (accepted/invalid/failed).",
		},
		[]string{"result"},
	)

	jobStatusChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_job_status_checks_total",
			Help: "Status checks by outcome (ok/error).",
		},
		[]string{"outcome"},
	)

	jobOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analysis_job_outcomes_total",
			Help: "Terminal job outcomes by kind and remote status.",
		},
		[]string{"kind", "status"},
	)

	jobDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analysis_job_duration_seconds",
			Help:    "Wall-clock time from submission to terminal outcome.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 3600},
		},
		[]string{"kind"},
	)

	jobStaleCallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "analysis_job_stale_callbacks_total",
			Help: "Callbacks discarded because their job was superseded or finished.",
		},
	)
)

func IncSubmission(result string) {
	jobSubmissionsTotal.WithLabelValues(norm(result)).Inc()
}

func IncStatusCheck(outcome string) {
	jobStatusChecksTotal.WithLabelValues(norm(outcome)).Inc()
}

func ObserveOutcome(kind, status string, elapsed time.Duration) {
	jobOutcomesTotal.WithLabelValues(norm(kind), norm(status)).Inc()
	jobDurationSeconds.WithLabelValues(norm(kind)).Observe(elapsed.Seconds())
}

func IncStaleCallback() {
	jobStaleCallbacksTotal.Inc()
}
