// Package metrics exposes Prometheus instruments for the turn pipeline. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"time"

	contractx "github.com/AvinoamNukrai/LLM-Travel-Assistant/agent/contract"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "travel_assistant"

const (
	OutcomeFetched     = "fetched"
	OutcomeCached      = "cached"
	OutcomeUnavailable = "unavailable"
)

type Metrics struct {
	turns          *prometheus.CounterVec
	clarifications *prometheus.CounterVec
	toolFetches    *prometheus.CounterVec
	llmLatency     prometheus.Histogram
	llmFailures    prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		turns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Answered turns by routed intent.",
		}, []string{"intent"}),
		clarifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clarifications_total",
			Help:      "Clarifying questions by kind.",
		}, []string{"kind"}),
		toolFetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_lookups_total",
			Help:      "Weather lookups by outcome.",
		}, []string{"outcome"}),
		llmLatency: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_generate_seconds",
			Help:      "Latency of reply generation including retries.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}),
		llmFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_failures_total",
			Help:      "Turns answered with the apology because generation failed.",
		}),
	}
}

func (m *Metrics) ObserveTurn(intent contractx.Intent) {
	if m == nil {
		return
	}
	label := string(intent)
	if label == "" {
		label = "unknown"
	}
	m.turns.WithLabelValues(label).Inc()
}

func (m *Metrics) ObserveClarification(kind string) {
	if m == nil {
		return
	}
	m.clarifications.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveToolFetch(outcome string) {
	if m == nil {
		return
	}
	m.toolFetches.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveGeneration(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.llmLatency.Observe(d.Seconds())
	if err != nil {
		m.llmFailures.Inc()
	}
}
