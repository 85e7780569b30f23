package metrics

import (
	"time"

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

	ChurnPredictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "churn_predictions_total",
			Help: "Churn predictions by risk tier",
		},
		[]string{"risk_tier"},
	)

	RetentionStrategies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retention_strategies_total",
			Help: "Retention probes by rule and outcome",
		},
		[]string{"rule", "outcome"},
	)

	ScoringDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "churn_scoring_duration_seconds",
			Help:    "Latency of a single churn scoring call",
			Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"outcome"},
	)
)

func JobCompleted(taskType string) {
	WorkerJobsCompleted.WithLabelValues(taskType).Inc()
}

func JobFailed(taskType, errorCode string) {
	WorkerJobsFailed.WithLabelValues(taskType, errorCode).Inc()
}

// JobStarted marks a job active and returns a func that records its duration
// and clears the active mark.
func JobStarted(taskType string) func() {
	start := time.Now()
	WorkerJobsActive.WithLabelValues(taskType).Inc()
	return func() {
		WorkerJobsActive.WithLabelValues(taskType).Dec()
		WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
	}
}

func PredictionRecorded(riskTier string) {
	ChurnPredictions.WithLabelValues(riskTier).Inc()
}

// ProbeRecorded counts one probe; outcome is triggered, not_triggered or skipped.
func ProbeRecorded(rule, outcome string) {
	RetentionStrategies.WithLabelValues(rule, outcome).Inc()
}

func ScoringObserved(d time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ScoringDuration.WithLabelValues(outcome).Observe(d.Seconds())
}
