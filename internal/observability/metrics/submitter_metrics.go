package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	SubmitterOutcomeSubmitted   = "submitted"
	SubmitterOutcomeReconciled  = "reconciled"
	SubmitterOutcomeUnchanged   = "unchanged"
	SubmitterOutcomePaid        = "paid"
	SubmitterOutcomeFailed      = "failed"
)

// SubmitterMetrics captures submission worker health signals.
type SubmitterMetrics struct {
	iterations        prometheus.Counter
	iterationErrors   prometheus.Counter
	iterationDuration prometheus.Observer
	recordsProcessed  *prometheus.CounterVec
	recordsParked     prometheus.Counter
	partnerCallDur    *prometheus.HistogramVec
}

var (
	submitterMetricsOnce sync.Once
	submitterMetrics     *SubmitterMetrics
)

// Submitter returns the singleton submission worker metrics registry.
func Submitter() *SubmitterMetrics {
	return SubmitterWithConfig(Config{})
}

// SubmitterWithConfig returns the singleton worker metrics using config labels.
func SubmitterWithConfig(cfg Config) *SubmitterMetrics {
	submitterMetricsOnce.Do(func() {
		submitterMetrics = newSubmitterMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return submitterMetrics
}

// ResetSubmitterMetricsForTest resets the worker metrics singleton for tests.
func ResetSubmitterMetricsForTest() {
	submitterMetricsOnce = sync.Once{}
	submitterMetrics = nil
}

func newSubmitterMetrics(registerer prometheus.Registerer, cfg Config) *SubmitterMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "reclaim"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	iterations := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "reclaim_submitter_iterations_total",
		Help:        "Submission worker loop iterations.",
		ConstLabels: constLabels,
	})
	iterationErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "reclaim_submitter_iteration_errors_total",
		Help:        "Iterations that failed before completing the batch.",
		ConstLabels: constLabels,
	})
	iterationDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "reclaim_submitter_iteration_duration_seconds",
		Help:        "Duration of one submission worker iteration.",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: constLabels,
	})
	recordsProcessed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "reclaim_submitter_records_total",
		Help:        "Submission records processed by outcome.",
		ConstLabels: constLabels,
	}, []string{"provider", "outcome"})
	recordsParked := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "reclaim_submitter_records_parked_total",
		Help:        "Records that exhausted their retry budget.",
		ConstLabels: constLabels,
	})
	partnerCallDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "reclaim_partner_call_duration_seconds",
		Help:        "Latency of outbound partner API calls.",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: constLabels,
	}, []string{"provider", "operation"})

	registerer.MustRegister(
		iterations,
		iterationErrors,
		iterationDuration,
		recordsProcessed,
		recordsParked,
		partnerCallDur,
	)

	return &SubmitterMetrics{
		iterations:        iterations,
		iterationErrors:   iterationErrors,
		iterationDuration: iterationDuration,
		recordsProcessed:  recordsProcessed,
		recordsParked:     recordsParked,
		partnerCallDur:    partnerCallDur,
	}
}

// IncIteration counts one worker loop iteration.
func (m *SubmitterMetrics) IncIteration() {
	if m == nil {
		return
	}
	m.iterations.Inc()
}

// IncIterationError counts one failed iteration.
func (m *SubmitterMetrics) IncIterationError() {
	if m == nil {
		return
	}
	m.iterationErrors.Inc()
}

// ObserveIterationDuration records the wall time of one iteration.
func (m *SubmitterMetrics) ObserveIterationDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.iterationDuration.Observe(d.Seconds())
}

// IncRecordProcessed counts one processed record with its outcome.
func (m *SubmitterMetrics) IncRecordProcessed(provider, outcome string) {
	if m == nil {
		return
	}
	m.recordsProcessed.WithLabelValues(provider, outcome).Inc()
}

// IncRecordParked counts a record whose attempts reached the cap.
func (m *SubmitterMetrics) IncRecordParked() {
	if m == nil {
		return
	}
	m.recordsParked.Inc()
}

// ObservePartnerCall records the latency of a partner API call.
func (m *SubmitterMetrics) ObservePartnerCall(provider, operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.partnerCallDur.WithLabelValues(provider, operation).Observe(d.Seconds())
}
