package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	askRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datapilot_ask_requests_total",
			Help: "Total number of ask runs by terminal outcome.",
		},
		[]string{"outcome"},
	)
	askAttemptsPerRun = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "datapilot_ask_attempts_per_run",
			Help:    "Generation attempts consumed per ask run.",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)
	validationRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datapilot_validation_rejections_total",
			Help: "Candidate queries rejected by the sanitizer, by reason.",
		},
		[]string{"reason"},
	)
	oracleCallSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datapilot_oracle_call_seconds",
			Help:    "Oracle completion latency by purpose.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"purpose"},
	)
	warehouseQuerySeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "datapilot_warehouse_query_seconds",
			Help:    "Warehouse execution latency for validated queries.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
	retryBudgetExceededTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "datapilot_retry_budget_exceeded_total",
			Help: "Ask runs that exhausted the self-correction attempt budget.",
		},
	)
	trainingRecordsSavedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "datapilot_training_records_saved_total",
			Help: "Successful question/SQL pairs persisted to the memory store.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		askRequestsTotal,
		askAttemptsPerRun,
		validationRejectionsTotal,
		oracleCallSeconds,
		warehouseQuerySeconds,
		retryBudgetExceededTotal,
		trainingRecordsSavedTotal,
	)
}

func ObserveAskRun(outcome string, attempts int) {
	askRequestsTotal.WithLabelValues(outcome).Inc()
	askAttemptsPerRun.Observe(float64(attempts))
}

func IncrementValidationRejection(reason string) {
	validationRejectionsTotal.WithLabelValues(reason).Inc()
}

func ObserveOracleCall(purpose string, elapsed time.Duration) {
	oracleCallSeconds.WithLabelValues(purpose).Observe(elapsed.Seconds())
}

func ObserveWarehouseQuery(elapsed time.Duration) {
	warehouseQuerySeconds.Observe(elapsed.Seconds())
}

func IncrementRetryBudgetExceeded() {
	retryBudgetExceededTotal.Inc()
}

func IncrementTrainingRecordSaved() {
	trainingRecordsSavedTotal.Inc()
}
