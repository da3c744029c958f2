package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dukerupert/addressd/internal/address"
)

// BusinessMetrics holds Prometheus metrics for validation outcomes and
// upstream lookups.
type BusinessMetrics struct {
	// Outcomes
	Validations *prometheus.CounterVec
	Corrections *prometheus.CounterVec

	// External lookups
	ProviderRequests *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec
}

// Compile-time check that BusinessMetrics can observe the engine.
var _ address.Recorder = (*BusinessMetrics)(nil)

// NewBusinessMetrics creates the business metrics and registers them with reg.
func NewBusinessMetrics(namespace string, reg prometheus.Registerer) *BusinessMetrics {
	if namespace == "" {
		namespace = "addressd"
	}

	factory := promauto.With(reg)

	return &BusinessMetrics{
		Validations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validations_total",
				Help:      "Total validated addresses by outcome",
			},
			[]string{"status"}, // status: valid, corrected, unverifiable
		),
		Corrections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "corrections_total",
				Help:      "Total corrected fields",
			},
			[]string{"field"}, // field: city, state, zip
		),
		ProviderRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_requests_total",
				Help:      "Total lookups against authoritative sources",
			},
			[]string{"provider", "outcome"}, // outcome: hit, miss, error
		),
		ProviderLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_request_duration_seconds",
				Help:      "Lookup duration (helps differentiate app slowness from upstream issues)",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"provider"},
		),
	}
}

// ObserveLookup records one lookup against an authoritative source.
func (m *BusinessMetrics) ObserveLookup(source, outcome string, elapsed time.Duration) {
	m.ProviderRequests.WithLabelValues(source, outcome).Inc()
	m.ProviderLatency.WithLabelValues(source).Observe(elapsed.Seconds())
}

// ObserveResult records a completed validation.
func (m *BusinessMetrics) ObserveResult(status address.Status, corrections map[string]string) {
	m.Validations.WithLabelValues(string(status)).Inc()
	for field := range corrections {
		m.Corrections.WithLabelValues(field).Inc()
	}
}
