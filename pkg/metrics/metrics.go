package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mockd_contract"

// Response sources.
const (
	SourceFixture = "fixture"
	SourceExample = "example"
	SourceError   = "error"
)

// Flush kinds.
const (
	KindInteractions = "interactions"
	KindFixtures     = "fixtures"
)

// Unmatched is the operation label for requests no operation resolved.
const Unmatched = "unmatched"

// Metrics holds the collectors for one process component.
type Metrics struct {
	registry *prometheus.Registry

	MockRequests          *prometheus.CounterVec
	MockDuration          *prometheus.HistogramVec
	InteractionsRecorded  prometheus.Counter
	InteractionsDuplicate prometheus.Counter
	FlushFailures         *prometheus.CounterVec
	VerificationResults   *prometheus.CounterVec
}

// New creates Metrics registered on a fresh registry that also carries the
// Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		MockRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mock_requests_total",
				Help:      "Total number of requests served by the contract mock",
			},
			[]string{"operation", "source", "status"},
		),
		MockDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "mock_request_duration_seconds",
				Help:      "Duration of mock request handling in seconds",
				Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation"},
		),
		InteractionsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interactions_recorded_total",
			Help:      "Total number of interactions queued for upload",
		}),
		InteractionsDuplicate: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "interactions_duplicate_total",
			Help:      "Total number of interactions dropped as duplicates",
		}),
		FlushFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "flush_failures_total",
				Help:      "Total number of batch uploads that failed after retries",
			},
			[]string{"kind"},
		),
		VerificationResults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "verification_results_total",
				Help:      "Total number of replayed interactions by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one served mock request.
func (m *Metrics) ObserveRequest(operation, source string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if operation == "" {
		operation = Unmatched
	}
	m.MockRequests.WithLabelValues(operation, source, strconv.Itoa(status)).Inc()
	m.MockDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveRecorded records an interaction offered to the recorder.
func (m *Metrics) ObserveRecorded(duplicate bool) {
	if m == nil {
		return
	}
	if duplicate {
		m.InteractionsDuplicate.Inc()
		return
	}
	m.InteractionsRecorded.Inc()
}

// ObserveFlushFailure records a batch upload that failed after retries.
func (m *Metrics) ObserveFlushFailure(kind string) {
	if m == nil {
		return
	}
	m.FlushFailures.WithLabelValues(kind).Inc()
}

// ObserveVerification records one verification result outcome.
func (m *Metrics) ObserveVerification(outcome string) {
	if m == nil {
		return
	}
	m.VerificationResults.WithLabelValues(outcome).Inc()
}
