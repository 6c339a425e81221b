package barneshut_test

import (
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gbh "gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r2"

	bh "github.com/san-kum/nbodyquad/internal/barneshut"
)

type body struct {
	x r2.Vec
	m float64
}

func (b body) Coord2() r2.Vec { return b.x }
func (b body) Mass() float64  { return b.m }

var _ = Describe("Kernel", func() {
	It("is zero at zero separation without softening", func() {
		Expect(bh.Kernel(bh.Vec{}, 0)).To(Equal(bh.Vec{}))
	})

	It("follows the inverse square law", func() {
		k := bh.Kernel(bh.Vec{2, 0}, 0)
		Expect(k[0]).To(BeNumerically("~", 0.25, 1e-15))
		Expect(k[1]).To(BeZero())
	})
})

var _ = Describe("Evaluator", func() {
	var t *tree

	BeforeEach(func() {
		t = newTree(2048, 2048)
	})

	DescribeTable("matches brute force with a zero shape factor",
		func(n int) {
			rng := rand.New(rand.NewSource(int64(n)))
			t.disc(rng, n, 0.4)
			Expect(t.b.Build()).To(Succeed())

			for i := 0; i < n; i++ {
				q := t.store.Position(i)
				got, tr, err := t.e.AccelerationAt(q, 0, t.stack)
				Expect(err).NotTo(HaveOccurred())
				Expect(tr.Aggregated).To(BeZero())
				Expect(relErr(got, t.e.BruteForceAt(q))).To(BeNumerically("<", 1e-4))
			}
		},
		Entry("one particle", 1),
		Entry("two particles", 2),
		Entry("seventeen particles", 17),
		Entry("three hundred particles", 300),
	)

	It("does monotonically less work as the shape factor grows", func() {
		rng := rand.New(rand.NewSource(42))
		t.disc(rng, 800, 0.4)
		Expect(t.b.Build()).To(Succeed())

		probes := []bh.Vec{{0.5, 0.5}, t.store.Position(0), {0.05, 0.95}}
		for _, q := range probes {
			prev := bh.Traversal{Opened: math.MaxInt, Interactions: math.MaxInt}
			for _, sf := range []float64{0, 0.25, 0.5, 0.75, 1, 1.5, 2, 4} {
				_, tr, err := t.e.AccelerationAt(q, sf, t.stack)
				Expect(err).NotTo(HaveOccurred())
				Expect(tr.Opened).To(BeNumerically("<=", prev.Opened), "sf=%g", sf)
				Expect(tr.Interactions).To(BeNumerically("<=", prev.Interactions), "sf=%g", sf)
				prev = tr
			}
		}
	})

	DescribeTable("stays within five percent of brute force at shape factor one",
		func(seed int64) {
			const n, r = 500, 0.5
			rng := rand.New(rand.NewSource(seed))
			t.disc(rng, n, r)
			Expect(t.b.Build()).To(Succeed())

			// The farthest particle plus the first few in the outer annulus,
			// where the net pull is strong enough for a relative bound.
			far, farthest := 0, 0.0
			var probes []int
			for i, x := range t.store.Positions() {
				d := x.Sub(unit.Center).Norm()
				if d > farthest {
					far, farthest = i, d
				}
				if d > 0.6*r && len(probes) < 4 {
					probes = append(probes, i)
				}
			}
			probes = append(probes, far)

			aggregated := 0
			for _, i := range probes {
				q := t.store.Position(i)
				got, tr, err := t.e.AccelerationAt(q, 1, t.stack)
				Expect(err).NotTo(HaveOccurred())
				aggregated += tr.Aggregated
				Expect(relErr(got, t.e.BruteForceAt(q))).To(BeNumerically("<", 0.05), "seed %d particle %d", seed, i)
			}
			Expect(aggregated).To(BeNumerically(">", 0))
		},
		Entry("seed 1", int64(1)),
		Entry("seed 2", int64(2)),
		Entry("seed 3", int64(3)),
		Entry("seed 7", int64(7)),
		Entry("seed 11", int64(11)),
		Entry("seed 23", int64(23)),
		Entry("seed 42", int64(42)),
		Entry("seed 99", int64(99)),
	)

	It("scales by the gravitational constant", func() {
		_, _ = t.store.Add(bh.Vec{0.25, 0.5}, bh.Vec{}, 1)
		_, _ = t.store.Add(bh.Vec{0.75, 0.5}, bh.Vec{}, 1)
		Expect(t.b.Build()).To(Succeed())

		t.e.Softening = 0
		a1, _, err := t.e.AccelerationAt(bh.Vec{0.25, 0.5}, 1, t.stack)
		Expect(err).NotTo(HaveOccurred())
		t.e.Gravity = 3
		a3, _, _ := t.e.AccelerationAt(bh.Vec{0.25, 0.5}, 1, t.stack)

		Expect(a1[0]).To(BeNumerically("~", 4, 1e-12))
		Expect(a3[0]).To(BeNumerically("~", 12, 1e-12))
	})

	It("returns zero on an empty tree", func() {
		Expect(t.b.Build()).To(Succeed())
		acc, tr, err := t.e.AccelerationAt(bh.Vec{0.5, 0.5}, 1, t.stack)
		Expect(err).NotTo(HaveOccurred())
		Expect(acc).To(Equal(bh.Vec{}))
		Expect(tr.Interactions).To(BeZero())
	})

	It("reports a too-small traversal stack", func() {
		rng := rand.New(rand.NewSource(5))
		t.disc(rng, 100, 0.4)
		Expect(t.b.Build()).To(Succeed())

		_, _, err := t.e.AccelerationAt(bh.Vec{0.5, 0.5}, 0, bh.NewWorkQueue(1))
		Expect(err).To(MatchError(bh.ErrCapacityExceeded))
	})

	It("agrees with the gonum reference for direct summation", func() {
		rng := rand.New(rand.NewSource(9))
		t.disc(rng, 250, 0.4)
		Expect(t.b.Build()).To(Succeed())

		bodies := make([]gbh.Particle2, t.store.Len())
		for i, x := range t.store.Positions() {
			bodies[i] = body{x: r2.Vec{X: x[0], Y: x[1]}, m: t.store.Mass(i)}
		}
		plane, err := gbh.NewPlane(bodies)
		Expect(err).NotTo(HaveOccurred())

		soft := t.e.Softening
		plummer := func(_, _ gbh.Particle2, _, m2 float64, v r2.Vec) r2.Vec {
			k := bh.Kernel(bh.Vec{v.X, v.Y}, soft).Scale(m2)
			return r2.Vec{X: k[0], Y: k[1]}
		}

		for i := 0; i < len(bodies); i += 10 {
			ref := plane.ForceOn(bodies[i], 0, plummer)
			got, _, err := t.e.AccelerationAt(t.store.Position(i), 0, t.stack)
			Expect(err).NotTo(HaveOccurred())
			Expect(relErr(got, bh.Vec{ref.X, ref.Y})).To(BeNumerically("<", 1e-8))
		}
	})
})

var _ = Describe("ParseMode", func() {
	It("accepts known names", func() {
		m, err := bh.ParseMode("brute")
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(bh.ModeBruteForce))
		m, err = bh.ParseMode("tree")
		Expect(err).NotTo(HaveOccurred())
		Expect(m.String()).To(Equal("tree"))
		_, err = bh.ParseMode("fmm")
		Expect(err).To(HaveOccurred())
	})
})
