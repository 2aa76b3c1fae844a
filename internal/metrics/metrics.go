// Package metrics counts resolution outcomes and ingestion volume with
// Prometheus collectors on a private registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mesh-intelligence/tally/pkg/types"
)

// Metrics provides observability for party resolution and poll ingestion.
// It implements types.ResolveObserver.
type Metrics struct {
	registry *prometheus.Registry

	// Keyed lookups by outcome: exact, fuzzy, miss
	ResolveOutcome *prometheus.CounterVec

	// Polls read from tables by source format
	PollsIngested *prometheus.CounterVec

	// Time spent building series for a batch of parties
	SeriesLatency prometheus.Histogram
}

// New creates a Metrics instance with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		ResolveOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tally_resolve_outcomes_total",
			Help: "Party lookups by outcome",
		}, []string{"outcome"}),

		PollsIngested: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tally_polls_ingested_total",
			Help: "Polls read from tables by source format",
		}, []string{"source"}), // source: "html", "xlsx"

		SeriesLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "tally_series_duration_seconds",
			Help:    "Duration of series computation for a batch of parties",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
}

// ObserveResolve records a lookup outcome.
func (m *Metrics) ObserveResolve(outcome types.ResolveOutcome) {
	if m != nil {
		m.ResolveOutcome.WithLabelValues(string(outcome)).Inc()
	}
}

// AddIngested records n polls read from a source format.
func (m *Metrics) AddIngested(source string, n int) {
	if m != nil {
		m.PollsIngested.WithLabelValues(source).Add(float64(n))
	}
}

// ObserveSeriesLatency records the duration of a series computation.
func (m *Metrics) ObserveSeriesLatency(d time.Duration) {
	if m != nil {
		m.SeriesLatency.Observe(d.Seconds())
	}
}

// Summary flattens every counter into "name{label}" keys, for logging at
// the end of a run. Histograms report their sample count.
func (m *Metrics) Summary() (map[string]float64, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			key := mf.GetName()
			for _, lp := range metric.GetLabel() {
				key += "{" + lp.GetValue() + "}"
			}
			switch {
			case metric.GetCounter() != nil:
				out[key] = metric.GetCounter().GetValue()
			case metric.GetHistogram() != nil:
				out[key+"_count"] = float64(metric.GetHistogram().GetSampleCount())
			}
		}
	}
	return out, nil
}

// Registry exposes the registry for exporters and tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

var _ types.ResolveObserver = (*Metrics)(nil)
