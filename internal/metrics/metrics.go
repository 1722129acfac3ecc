package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "scoretree"

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
)

// Metrics holds the process collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	NodesDiscovered prometheus.Counter
	Records         *prometheus.CounterVec
	BranchFailures  *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Remote API requests by endpoint family and outcome.",
		}, []string{"endpoint", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Remote API request latency by endpoint family.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
		NodesDiscovered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nodes_discovered_total",
			Help:      "Node entries emitted by discovery.",
		}),
		Records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Final records emitted, by whether comments were fetched.",
		}, []string{"comments"}),
		BranchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "branch_failures_total",
			Help:      "Abandoned pipeline branches by stage.",
		}, []string{"stage"}),
	}

	m.registry.MustRegister(
		m.Requests,
		m.RequestDuration,
		m.NodesDiscovered,
		m.Records,
		m.BranchFailures,
	)
	return m
}

// ObserveRequest records one remote request.
func (m *Metrics) ObserveRequest(endpoint, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(endpoint, outcome).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// NodeDiscovered counts one discovered node entry.
func (m *Metrics) NodeDiscovered() {
	if m == nil {
		return
	}
	m.NodesDiscovered.Inc()
}

// RecordEmitted counts one final record.
func (m *Metrics) RecordEmitted(withComments bool) {
	if m == nil {
		return
	}
	label := "skipped"
	if withComments {
		label = "fetched"
	}
	m.Records.WithLabelValues(label).Inc()
}

// BranchFailed counts one abandoned branch.
func (m *Metrics) BranchFailed(stage string) {
	if m == nil {
		return
	}
	m.BranchFailures.WithLabelValues(stage).Inc()
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
