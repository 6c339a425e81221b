package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/nbodyquad/internal/sim"
)

// Divergence returns the RMS particle separation between aligned frames of
// two runs. It stops at the shorter run or the first frame where the
// particle counts differ.
func Divergence(a, b []sim.Frame) []float64 {
	n := min(len(a), len(b))
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		pa, pb := a[i].Positions, b[i].Positions
		if len(pa) != len(pb) || len(pa) == 0 {
			break
		}
		sum := 0.0
		for j := range pa {
			sum += pa[j].Sub(pb[j]).Norm2()
		}
		out = append(out, math.Sqrt(sum/float64(len(pa))))
	}
	return out
}

// GrowthRate fits ln d(t) = c + λt over the positive separations and
// returns λ. A positive value means the runs diverge exponentially.
func GrowthRate(times, sep []float64) float64 {
	n := min(len(times), len(sep))
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if sep[i] > 0 {
			xs = append(xs, times[i])
			ys = append(ys, math.Log(sep[i]))
		}
	}
	if len(xs) < 2 {
		return 0
	}
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	return beta
}
