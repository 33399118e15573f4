// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// Loan scoring metrics
var (
	ApplicantsScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_applicants_scored_total",
			Help: "Applicants scored, by decision band",
		},
		[]string{"band"},
	)

	ApplicantsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_applicants_skipped_total",
			Help: "Applicants seen but not scored, by error code",
		},
		[]string{"error_code"},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "loan_batch_duration_seconds",
			Help:    "Wall-clock duration of a scoring batch",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
	)

	BatchesEvaluated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_batches_evaluated_total",
			Help: "Scoring batches, by report status",
		},
		[]string{"status"},
	)
)
