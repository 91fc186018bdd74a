package mint

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this
	// package.
	MetricsSubsystem = "mint"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Number of mint submissions accepted by the ledger.
	Submissions metrics.Counter
	// Number of mint submissions rejected before or at dispatch.
	SubmissionsRejected metrics.Counter
	// Number of transactions confirmed on the ledger.
	Confirmations metrics.Counter
	// Number of transactions that failed confirmation.
	ConfirmationFailures metrics.Counter
	// Number of batch runs started.
	BatchRuns metrics.Counter

	// Candidates currently awaiting resolution.
	InFlightCount metrics.Gauge
	// Candidates whose certificate has been issued.
	CompletedCount metrics.Gauge

	// Time from submission to confirmation.
	ConfirmationDelay metrics.Histogram
	// Duration of one submission call, including the signature request.
	SubmitTime metrics.Histogram
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
// Optionally, labels can be provided along with their values ("foo",
// "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	return &Metrics{
		Submissions: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "submissions_total",
			Help:      "Number of mint submissions accepted by the ledger.",
		}, labels).With(labelsAndValues...),
		SubmissionsRejected: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "submissions_rejected_total",
			Help:      "Number of mint submissions rejected before or at dispatch.",
		}, labels).With(labelsAndValues...),
		Confirmations: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "confirmations_total",
			Help:      "Number of transactions confirmed on the ledger.",
		}, labels).With(labelsAndValues...),
		ConfirmationFailures: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "confirmation_failures_total",
			Help:      "Number of transactions that failed confirmation.",
		}, labels).With(labelsAndValues...),
		BatchRuns: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "batch_runs_total",
			Help:      "Number of batch runs started.",
		}, labels).With(labelsAndValues...),
		InFlightCount: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "in_flight_count",
			Help:      "Candidates currently awaiting resolution.",
		}, labels).With(labelsAndValues...),
		CompletedCount: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "completed_count",
			Help:      "Candidates whose certificate has been issued.",
		}, labels).With(labelsAndValues...),
		ConfirmationDelay: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "confirmation_delay_seconds",
			Help:      "Time from submission to confirmation.",
		}, labels).With(labelsAndValues...),
		SubmitTime: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "submit_time_seconds",
			Help:      "Duration of one submission call, including the signature request.",
		}, labels).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		Submissions:          discard.NewCounter(),
		SubmissionsRejected:  discard.NewCounter(),
		Confirmations:        discard.NewCounter(),
		ConfirmationFailures: discard.NewCounter(),
		BatchRuns:            discard.NewCounter(),
		InFlightCount:        discard.NewGauge(),
		CompletedCount:       discard.NewGauge(),
		ConfirmationDelay:    discard.NewHistogram(),
		SubmitTime:           discard.NewHistogram(),
	}
}
