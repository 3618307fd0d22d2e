// Package metrics exposes Prometheus instruments for itinerary generation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "itinerary"

// Generation outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeRateLimit = "rate_limit"
	OutcomeQuota     = "quota"
	OutcomeInvalid   = "validation"
	OutcomeCanceled  = "canceled"
)

// Provider call results.
const (
	ResultOK      = "ok"
	ResultInvalid = "invalid_output"
	ResultError   = "error"
)

type Metrics struct {
	generations   *prometheus.CounterVec
	providerCalls *prometheus.CounterVec
	tokens        *prometheus.CounterVec
	duration      prometheus.Histogram
}

// New registers the instruments on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		generations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Generation runs by final outcome.",
		}, []string{"outcome"}),
		providerCalls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_calls_total",
			Help:      "Model backend calls by provider and result.",
		}, []string{"provider", "result"}),
		tokens: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_total",
			Help:      "Tokens recorded for accepted generations.",
		}, []string{"provider", "direction"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_seconds",
			Help:      "Wall time of a generation run.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}),
	}
}

// Nil-receiver methods are no-ops so callers may omit metrics.

func (m *Metrics) Generation(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(outcome).Inc()
	m.duration.Observe(seconds)
}

func (m *Metrics) ProviderCall(provider, result string) {
	if m == nil {
		return
	}
	m.providerCalls.WithLabelValues(provider, result).Inc()
}

func (m *Metrics) Tokens(provider string, input, output int64) {
	if m == nil {
		return
	}
	m.tokens.WithLabelValues(provider, "input").Add(float64(input))
	m.tokens.WithLabelValues(provider, "output").Add(float64(output))
}
