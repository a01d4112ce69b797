// Package metrics holds the Prometheus collectors of the evidence ledger.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeAccepted = "accepted"
	OutcomeReplayed = "replayed"
)

// Metrics groups the ledger's collectors.
type Metrics struct {
	// Ingestion attempts by method and outcome (accepted, replayed or a rejection code).
	IngestTotal *prometheus.CounterVec

	// Lifecycle operations (seal, quarantine, update) by outcome.
	TransitionTotal *prometheus.CounterVec

	// Compliance gate evaluations by result (pass, fail).
	GateEvaluations *prometheus.CounterVec

	// HTTP latency by method, route pattern and status.
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg. A nil reg gets a private registry
// that is never scraped.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		IngestTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_ingest_total",
			Help: "Evidence ingestion attempts by method and outcome.",
		}, []string{"method", "outcome"}),

		TransitionTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_transition_total",
			Help: "Evidence lifecycle operations by operation and outcome.",
		}, []string{"operation", "outcome"}),

		GateEvaluations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_compliance_gate_evaluations_total",
			Help: "Compliance gate evaluations by result.",
		}, []string{"result"}),

		RequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "route", "status"}),
	}
}

// ObserveIngest counts one ingestion attempt.
func (m *Metrics) ObserveIngest(method, outcome string) {
	m.IngestTotal.WithLabelValues(method, outcome).Inc()
}

// ObserveTransition counts one lifecycle operation.
func (m *Metrics) ObserveTransition(operation, outcome string) {
	m.TransitionTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveGate counts one compliance gate evaluation.
func (m *Metrics) ObserveGate(pass bool) {
	result := "fail"
	if pass {
		result = "pass"
	}
	m.GateEvaluations.WithLabelValues(result).Inc()
}

// ObserveRequest records one HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
