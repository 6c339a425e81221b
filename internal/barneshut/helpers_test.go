package barneshut_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/gomega"

	bh "github.com/san-kum/nbodyquad/internal/barneshut"
)

var unit = bh.Domain{Center: bh.Vec{0.5, 0.5}, Half: 0.5}

type tree struct {
	store *bh.ParticleStore
	pool  *bh.NodePool
	b     *bh.Builder
	e     *bh.Evaluator
	stack *bh.WorkQueue
}

func newTree(capacity, maxDepth int) *tree {
	store := bh.NewParticleStore(capacity)
	pool := bh.NewNodePool(bh.NodeCapacity(maxDepth))
	return &tree{
		store: store,
		pool:  pool,
		b:     bh.NewBuilder(store, pool, unit, maxDepth),
		e:     bh.NewEvaluator(store, pool, unit),
		stack: bh.NewWorkQueue(bh.StackCapacity(maxDepth)),
	}
}

// disc fills t with n particles uniformly placed in a disc of radius r
// around the unit-square centre.
func (t *tree) disc(rng *rand.Rand, n int, r float64) {
	for i := 0; i < n; i++ {
		a := rng.Float64() * 2 * math.Pi
		d := math.Sqrt(rng.Float64()) * r
		pos := bh.Vec{0.5 + d*math.Cos(a), 0.5 + d*math.Sin(a)}
		_, err := t.store.Add(pos, bh.Vec{}, rng.Float64()*1.4+0.1)
		Expect(err).NotTo(HaveOccurred())
	}
}

func relErr(got, want bh.Vec) float64 {
	n := want.Norm()
	if n == 0 {
		return got.Norm()
	}
	return got.Sub(want).Norm() / n
}
