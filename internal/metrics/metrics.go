package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels runs that completed with no failed step.
	OutcomeSuccess = "success"
	// OutcomeError labels runs with at least one failed step.
	OutcomeError = "error"
	// OutcomeRejected labels runs refused before starting (busy city, bad input).
	OutcomeRejected = "rejected"
)

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "surgecast",
			Name:      "pipeline_runs_total",
			Help:      "Total number of pipeline runs handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	runDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "surgecast",
			Name:      "pipeline_run_seconds",
			Help:      "Pipeline run latency in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 13, 21},
		},
	)

	stepFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "surgecast",
			Name:      "pipeline_step_failures_total",
			Help:      "Failed pipeline steps, partitioned by step and error kind.",
		},
		[]string{"step", "kind"},
	)

	alertsRaisedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "surgecast",
			Name:      "alerts_raised_total",
			Help:      "Alerts raised by the evaluator, partitioned by type.",
		},
		[]string{"type"},
	)

	oracleRequestSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "surgecast",
			Name:      "oracle_request_seconds",
			Help:      "Signal oracle request latency in seconds, partitioned by operation and outcome.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"op", "outcome"},
	)
)

// Register attaches surgecast collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		runsTotal,
		runDurationSeconds,
		stepFailuresTotal,
		alertsRaisedTotal,
		oracleRequestSeconds,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveRun records a pipeline run duration and outcome label.
func ObserveRun(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError && label != OutcomeRejected {
		label = OutcomeSuccess
	}
	runsTotal.WithLabelValues(label).Inc()
	if label == OutcomeRejected {
		return
	}
	if duration < 0 {
		duration = 0
	}
	runDurationSeconds.Observe(duration.Seconds())
}

// RecordStepFailure counts one failed step by name and error kind.
func RecordStepFailure(step, kind string) {
	if kind == "" {
		kind = "internal"
	}
	stepFailuresTotal.WithLabelValues(step, kind).Inc()
}

// RecordAlert counts one raised alert by type.
func RecordAlert(alertType string) {
	alertsRaisedTotal.WithLabelValues(alertType).Inc()
}

// ObserveOracleRequest records one upstream oracle request.
func ObserveOracleRequest(op string, duration time.Duration, ok bool) {
	outcome := OutcomeSuccess
	if !ok {
		outcome = OutcomeError
	}
	if duration < 0 {
		duration = 0
	}
	oracleRequestSeconds.WithLabelValues(op, outcome).Observe(duration.Seconds())
}
