package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tally/pkg/types"
)

func TestObserveResolveThroughPartySet(t *testing.T) {
	m := New()
	a, err := types.NewParty("Party A")
	require.NoError(t, err)
	set := types.NewPartySet("test", types.WithObserver(m))
	set.Add(a)

	set.Get("Party A")
	set.Get("Partyy A")
	set.Get("Party A")
	set.Get("Completely Unrelated Text")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ResolveOutcome.WithLabelValues("exact")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ResolveOutcome.WithLabelValues("fuzzy")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ResolveOutcome.WithLabelValues("miss")))
}

func TestSummary(t *testing.T) {
	m := New()
	m.AddIngested("html", 12)
	m.AddIngested("xlsx", 3)
	m.ObserveSeriesLatency(20 * time.Millisecond)
	m.ObserveResolve(types.OutcomeExact)

	got, err := m.Summary()
	require.NoError(t, err)
	assert.Equal(t, 12.0, got["tally_polls_ingested_total{html}"])
	assert.Equal(t, 3.0, got["tally_polls_ingested_total{xlsx}"])
	assert.Equal(t, 1.0, got["tally_resolve_outcomes_total{exact}"])
	assert.Equal(t, 1.0, got["tally_series_duration_seconds_count"])
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveResolve(types.OutcomeMiss)
		m.AddIngested("html", 1)
		m.ObserveSeriesLatency(time.Second)
	})
}

func TestRegistriesAreIndependent(t *testing.T) {
	first, second := New(), New()
	first.AddIngested("html", 1)
	assert.Equal(t, 1, testutil.CollectAndCount(first.PollsIngested))
	assert.Equal(t, 0, testutil.CollectAndCount(second.PollsIngested))
}
