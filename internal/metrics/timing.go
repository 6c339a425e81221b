package metrics

import (
	"math"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/nbodyquad/internal/sim"
)

// Timing collects phase durations in microseconds.
type Timing struct {
	mu      sync.Mutex
	samples map[sim.Phase][]float64
}

func NewTiming() *Timing {
	return &Timing{samples: make(map[sim.Phase][]float64)}
}

func (t *Timing) OnPhase(p sim.Phase, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples[p] = append(t.samples[p], float64(d.Nanoseconds())/1e3)
}

// AddStats records stored per-step timings.
func (t *Timing) AddStats(stats []sim.StepStats) {
	for _, s := range stats {
		t.OnPhase(sim.PhaseBuild, s.Build)
		t.OnPhase(sim.PhaseEvaluate, s.Evaluate)
		t.OnPhase(sim.PhaseIntegrate, s.Integrate)
	}
}

// Samples returns a copy of the recorded durations for p.
func (t *Timing) Samples(p sim.Phase) []float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]float64(nil), t.samples[p]...)
}

func (t *Timing) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.samples = make(map[sim.Phase][]float64)
}

// Filter drops samples above Clip, then samples further than Sigma
// standard deviations from the mean of what remains. Zero disables either
// step.
type Filter struct {
	Clip  float64
	Sigma float64
}

// DefaultFilter clips at 25ms and drops 2σ outliers.
var DefaultFilter = Filter{Clip: 25000, Sigma: 2}

func (f Filter) Apply(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if f.Clip > 0 && v > f.Clip {
			continue
		}
		out = append(out, v)
	}
	if f.Sigma <= 0 || len(out) < 2 {
		return out
	}

	mean, std := stat.MeanStdDev(out, nil)
	kept := out[:0]
	for _, v := range out {
		if math.Abs(v-mean) <= f.Sigma*std {
			kept = append(kept, v)
		}
	}
	return kept
}

type Summary struct {
	N       int
	Dropped int
	Mean    float64
	Std     float64
	Min     float64
	Max     float64
	P50     float64
	P95     float64
	Total   float64
}

// Summarize filters x and describes what remains.
func Summarize(x []float64, f Filter) Summary {
	kept := f.Apply(x)
	s := Summary{N: len(kept), Dropped: len(x) - len(kept)}
	if len(kept) == 0 {
		return s
	}

	sorted := append([]float64(nil), kept...)
	sort.Float64s(sorted)

	s.Mean, s.Std = stat.MeanStdDev(sorted, nil)
	if len(sorted) == 1 {
		s.Std = 0
	}
	s.Min = sorted[0]
	s.Max = floats.Max(sorted)
	s.P50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	s.P95 = stat.Quantile(0.95, stat.Empirical, sorted, nil)
	s.Total = floats.Sum(sorted)
	return s
}

func (t *Timing) Summary(p sim.Phase, f Filter) Summary {
	return Summarize(t.Samples(p), f)
}

// Histogram bins x into bins equal-width buckets spanning its range and
// returns the counts and the bins+1 dividers.
func Histogram(x []float64, bins int) ([]float64, []float64) {
	if len(x) == 0 || bins <= 0 {
		return nil, nil
	}
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)

	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		return []float64{float64(len(sorted))}, []float64{lo, math.Nextafter(hi, math.Inf(1))}
	}

	dividers := make([]float64, bins+1)
	floats.Span(dividers, lo, hi)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	return stat.Histogram(nil, dividers, sorted, nil), dividers
}

// MeanAcross averages aligned series element-wise, truncating to the
// shortest one.
func MeanAcross(runs [][]float64) []float64 {
	if len(runs) == 0 {
		return nil
	}
	n := len(runs[0])
	for _, r := range runs[1:] {
		n = min(n, len(r))
	}
	out := make([]float64, n)
	for _, r := range runs {
		floats.Add(out, r[:n])
	}
	floats.Scale(1/float64(len(runs)), out)
	return out
}
