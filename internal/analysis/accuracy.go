package analysis

import (
	"fmt"
	"sort"

	gbh "gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/nbodyquad/internal/barneshut"
)

// Accuracy compares the tree evaluation of a built tree against direct
// summation and against gonum's planar Barnes-Hut. All errors are relative
// to our direct sum.
type Accuracy struct {
	ShapeFactor float64
	Samples     int

	TreeMean float64
	TreeP95  float64
	TreeMax  float64

	// Direct sum through gonum with theta 0; should sit at rounding level.
	ReferenceMax float64

	// gonum Barnes-Hut with the equivalent opening rule, see Theta. Zero
	// when ShapeFactor is zero.
	GonumMean float64
	GonumMax  float64

	Work barneshut.Traversal
}

// InteractionsPerSample is the mean kernel evaluation count of the tree
// walks.
func (a Accuracy) InteractionsPerSample() float64 {
	if a.Samples == 0 {
		return 0
	}
	return float64(a.Work.Interactions) / float64(a.Samples)
}

// Theta maps a shape factor to gonum's opening parameter. gonum uses a
// tile of width s as one body when s/d < theta; the evaluator does so when
// shapeFactor·d > 4·half, and a tile's width is 2·half.
func Theta(shapeFactor float64) float64 { return shapeFactor / 2 }

type body struct {
	x r2.Vec
	m float64
}

func (b body) Coord2() r2.Vec { return b.x }
func (b body) Mass() float64  { return b.m }

func relErr(got, want barneshut.Vec) float64 {
	n := want.Norm()
	if n == 0 {
		return got.Sub(want).Norm()
	}
	return got.Sub(want).Norm() / n
}

// CompareAccuracy evaluates every stride-th particle. The tree held by e
// must be current for store.
func CompareAccuracy(store *barneshut.ParticleStore, e *barneshut.Evaluator, shapeFactor float64, stride int, stack *barneshut.WorkQueue) (Accuracy, error) {
	if stride <= 0 {
		stride = 1
	}
	n := store.Len()
	if n == 0 {
		return Accuracy{}, fmt.Errorf("no particles to compare")
	}

	bodies := make([]gbh.Particle2, n)
	for i, x := range store.Positions() {
		bodies[i] = body{x: r2.Vec{X: x[0], Y: x[1]}, m: store.Mass(i)}
	}
	plane, err := gbh.NewPlane(bodies)
	if err != nil {
		return Accuracy{}, fmt.Errorf("gonum plane: %w", err)
	}
	soft, g := e.Softening, e.Gravity
	plummer := func(_, _ gbh.Particle2, _, m2 float64, v r2.Vec) r2.Vec {
		k := barneshut.Kernel(barneshut.Vec{v.X, v.Y}, soft).Scale(g * m2)
		return r2.Vec{X: k[0], Y: k[1]}
	}

	acc := Accuracy{ShapeFactor: shapeFactor}
	var treeErr, gonumErr []float64
	for i := 0; i < n; i += stride {
		q := store.Position(i)
		exact := e.BruteForceAt(q)

		got, work, err := e.AccelerationAt(q, shapeFactor, stack)
		if err != nil {
			return acc, err
		}
		acc.Work.Add(work)
		treeErr = append(treeErr, relErr(got, exact))

		ref := plane.ForceOn(bodies[i], 0, plummer)
		acc.ReferenceMax = max(acc.ReferenceMax, relErr(barneshut.Vec{ref.X, ref.Y}, exact))

		if shapeFactor > 0 {
			approx := plane.ForceOn(bodies[i], Theta(shapeFactor), plummer)
			gonumErr = append(gonumErr, relErr(barneshut.Vec{approx.X, approx.Y}, exact))
		}
	}

	acc.Samples = len(treeErr)
	acc.TreeMean, acc.TreeP95, acc.TreeMax = describe(treeErr)
	if len(gonumErr) > 0 {
		acc.GonumMean, _, acc.GonumMax = describe(gonumErr)
	}
	return acc, nil
}

func describe(x []float64) (mean, p95, maxv float64) {
	sort.Float64s(x)
	mean = stat.Mean(x, nil)
	p95 = stat.Quantile(0.95, stat.Empirical, x, nil)
	return mean, p95, x[len(x)-1]
}
