package metrics

import (
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/nbodyquad/internal/barneshut"
	"github.com/san-kum/nbodyquad/internal/sim"
)

func TestFilterClipsAndDropsOutliers(t *testing.T) {
	x := []float64{10, 11, 9, 10, 10, 11, 9, 10, 40, 30000}

	clipped := Filter{Clip: 25000}.Apply(x)
	assert.Len(t, clipped, 9)

	kept := DefaultFilter.Apply(x)
	assert.NotContains(t, kept, 40.0)
	assert.NotContains(t, kept, 30000.0)
	assert.Len(t, kept, 8)

	assert.Equal(t, x, Filter{}.Apply(x))
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{1, 2, 3, 4, 5}, Filter{})
	assert.Equal(t, 5, s.N)
	assert.Zero(t, s.Dropped)
	assert.InDelta(t, 3.0, s.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(2.5), s.Std, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.Equal(t, 3.0, s.P50)
	assert.Equal(t, 5.0, s.P95)
	assert.Equal(t, 15.0, s.Total)

	one := Summarize([]float64{7}, DefaultFilter)
	assert.Equal(t, 1, one.N)
	assert.Zero(t, one.Std)

	assert.Zero(t, Summarize(nil, DefaultFilter).N)
}

func TestTimingCollector(t *testing.T) {
	tm := NewTiming()
	tm.OnPhase(sim.PhaseBuild, 2*time.Millisecond)
	tm.AddStats([]sim.StepStats{{Build: time.Millisecond, Evaluate: 3 * time.Millisecond}})

	assert.Equal(t, []float64{2000, 1000}, tm.Samples(sim.PhaseBuild))
	assert.Equal(t, []float64{3000}, tm.Samples(sim.PhaseEvaluate))
	assert.InDelta(t, 1500.0, tm.Summary(sim.PhaseBuild, Filter{}).Mean, 1e-9)

	tm.Reset()
	assert.Empty(t, tm.Samples(sim.PhaseBuild))
}

func TestHistogram(t *testing.T) {
	counts, dividers := Histogram([]float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 10}, 5)
	require.Len(t, counts, 5)
	require.Len(t, dividers, 6)
	assert.Equal(t, 0.0, dividers[0])
	assert.Equal(t, 10.0, counts[0]+counts[1]+counts[2]+counts[3]+counts[4])
	assert.Equal(t, 2.0, counts[0])
	assert.Equal(t, 2.0, counts[4], "maximum lands in the last bin")

	counts, _ = Histogram([]float64{3, 3, 3}, 4)
	assert.Equal(t, []float64{3}, counts)

	counts, dividers = Histogram(nil, 4)
	assert.Nil(t, counts)
	assert.Nil(t, dividers)
}

func TestMeanAcross(t *testing.T) {
	got := MeanAcross([][]float64{{1, 2, 3}, {3, 4}, {2, 3, 10}})
	assert.Equal(t, []float64{2, 3}, got)
	assert.Nil(t, MeanAcross(nil))
}

func TestPrometheusCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.OnPhase(sim.PhaseBuild, time.Millisecond)
	p.OnStepStats(sim.StepStats{Nodes: 12, Work: barneshut.Traversal{Interactions: 40}})
	p.OnStepStats(sim.StepStats{Nodes: 15, Work: barneshut.Traversal{Interactions: 60}})
	p.OnStep(2, 0.5, barneshut.NewParticleStore(4))

	assert.Equal(t, 2.0, testutil.ToFloat64(p.steps))
	assert.Equal(t, 100.0, testutil.ToFloat64(p.interactions))
	assert.Equal(t, 15.0, testutil.ToFloat64(p.nodes))
	assert.Equal(t, 0.5, testutil.ToFloat64(p.simTime))
	assert.Equal(t, 1, testutil.CollectAndCount(p.phaseDuration))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}
