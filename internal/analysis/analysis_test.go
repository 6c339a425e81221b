package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/nbodyquad/internal/barneshut"
	"github.com/san-kum/nbodyquad/internal/sim"
)

func TestPowerSpectrumPeak(t *testing.T) {
	const n, dt, f0 = 256, 0.01, 12.5
	data := make([]float64, n)
	for i := range data {
		data[i] = 3 + math.Sin(2*math.Pi*f0*float64(i)*dt)
	}

	s := PowerSpectrum(data, dt)
	require.Len(t, s.Freq, n/2+1)
	freq, power := s.Dominant()
	assert.InDelta(t, f0, freq, 1/(n*dt))
	assert.InDelta(t, n/2.0, power, 1e-6)
	assert.InDelta(t, 0, s.Power[0], 1e-9, "mean removed")
}

func TestPowerSpectrumOddLength(t *testing.T) {
	s := PowerSpectrum([]float64{1, 2, 1, 2, 1}, 1)
	assert.Len(t, s.Power, 3)
	assert.Empty(t, PowerSpectrum([]float64{1}, 1).Power)
}

func TestDivergenceAndGrowthRate(t *testing.T) {
	const lambda = 3.0
	times := []float64{0, 0.1, 0.2, 0.3, 0.4}
	var a, b []sim.Frame
	for _, tm := range times {
		d := 1e-6 * math.Exp(lambda*tm)
		a = append(a, sim.Frame{Time: tm, Positions: []barneshut.Vec{{0.5, 0.5}, {0.2, 0.2}}})
		b = append(b, sim.Frame{Time: tm, Positions: []barneshut.Vec{{0.5 + d, 0.5}, {0.2, 0.2 + d}}})
	}

	sep := Divergence(a, b)
	require.Len(t, sep, len(times))
	assert.InDelta(t, 1e-6, sep[0], 1e-12)
	assert.InDelta(t, lambda, GrowthRate(times, sep), 1e-6)

	assert.Len(t, Divergence(a, b[:2]), 2)
	assert.Zero(t, GrowthRate(times[:1], sep[:1]))
}

func TestRadialPortrait(t *testing.T) {
	pos := []barneshut.Vec{{1, 0}, {0, 2}, {0, 0}}
	vel := []barneshut.Vec{{-1, 0}, {1, 0}, {5, 5}}
	p := RadialPortrait(pos, vel, barneshut.Vec{})

	require.Len(t, p.Points, 3)
	assert.Equal(t, Point{X: 1, Y: -1}, p.Points[0])
	assert.Equal(t, Point{X: 2, Y: 0}, p.Points[1])
	assert.Equal(t, Point{X: 0, Y: 0}, p.Points[2])

	art := PhasePortraitToASCII(p, 20, 8)
	assert.Equal(t, 8, strings.Count(art, "\n"))
	assert.Contains(t, art, "·")
	assert.Contains(t, art, "─")
	assert.Empty(t, PhasePortraitToASCII(nil, 20, 8))
}

func TestPhasePortraitDensity(t *testing.T) {
	p := &PhasePortrait2D{Points: []Point{{1, 1}, {1, 1}, {1, 1}, {2, 3}}}
	art := PhasePortraitToASCII(p, 10, 5)

	assert.Equal(t, 1, strings.Count(art, "o"))
	assert.Equal(t, 1, strings.Count(art, "·"))
	assert.NotContains(t, art, "─")
}
