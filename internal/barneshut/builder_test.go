package barneshut_test

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	bh "github.com/san-kum/nbodyquad/internal/barneshut"
)

var _ = Describe("Builder", func() {
	var t *tree

	BeforeEach(func() {
		t = newTree(1024, 1024)
	})

	It("builds a single-particle tree as an occupied root", func() {
		_, err := t.store.Add(bh.Vec{0.3, 0.6}, bh.Vec{}, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(t.b.Build()).To(Succeed())

		Expect(t.pool.Len()).To(Equal(1))
		root := t.pool.Node(bh.Root)
		id, ok := root.Occupancy().Particle()
		Expect(ok).To(BeTrue())
		Expect(id).To(Equal(0))
		Expect(root.Mass()).To(Equal(2.0))
		Expect(root.Centroid()).To(Equal(bh.Vec{0.6, 1.2}))
		for q := bh.Quadrant(0); q < bh.Branch; q++ {
			_, has := root.Child(q)
			Expect(has).To(BeFalse())
		}
	})

	It("splits two particles into separate children", func() {
		_, _ = t.store.Add(bh.Vec{0.25, 0.25}, bh.Vec{}, 1)
		_, _ = t.store.Add(bh.Vec{0.75, 0.75}, bh.Vec{}, 3)
		Expect(t.b.Build()).To(Succeed())

		Expect(t.pool.Len()).To(Equal(3))
		root := t.pool.Node(bh.Root)
		Expect(root.Occupancy().Tag()).To(Equal(bh.TagInternal))
		Expect(root.Mass()).To(Equal(4.0))
		com, ok := root.CenterOfMass()
		Expect(ok).To(BeTrue())
		Expect(com[0]).To(BeNumerically("~", 0.625, 1e-12))
		Expect(com[1]).To(BeNumerically("~", 0.625, 1e-12))

		low, ok := root.Child(0)
		Expect(ok).To(BeTrue())
		high, ok := root.Child(3)
		Expect(ok).To(BeTrue())

		p, _ := t.pool.Node(low).Occupancy().Particle()
		Expect(p).To(Equal(0))
		p, _ = t.pool.Node(high).Occupancy().Particle()
		Expect(p).To(Equal(1))

		_, ok = root.Child(1)
		Expect(ok).To(BeFalse())
		_, ok = root.Child(2)
		Expect(ok).To(BeFalse())
	})

	It("relocates transitively when particles share a deep quadrant", func() {
		_, _ = t.store.Add(bh.Vec{0.100, 0.100}, bh.Vec{}, 1)
		_, _ = t.store.Add(bh.Vec{0.101, 0.100}, bh.Vec{}, 1)
		_, _ = t.store.Add(bh.Vec{0.100, 0.101}, bh.Vec{}, 1)
		Expect(t.b.Build()).To(Succeed())
		Expect(bh.CheckInvariants(t.store, t.pool, 1e-12)).To(Succeed())

		leaves := map[int]bool{}
		internal := 0
		for id := 0; id < t.pool.Len(); id++ {
			n := t.pool.Node(bh.NodeID(id))
			switch n.Occupancy().Tag() {
			case bh.TagOccupied:
				p, _ := n.Occupancy().Particle()
				leaves[p] = true
			case bh.TagInternal:
				internal++
			}
		}
		Expect(leaves).To(HaveLen(3))
		// The three points only separate below 1/512 of the domain.
		Expect(internal).To(BeNumerically(">", 8))
	})

	It("conserves mass and centroid over random inputs", func() {
		rng := rand.New(rand.NewSource(7))
		t.disc(rng, 1000, 0.45)
		Expect(t.b.Build()).To(Succeed())
		Expect(bh.CheckInvariants(t.store, t.pool, 1e-9)).To(Succeed())

		var want bh.Vec
		for i, x := range t.store.Positions() {
			want = want.Add(x.Scale(t.store.Mass(i)))
		}
		root := t.pool.Node(bh.Root)
		Expect(root.Mass()).To(BeNumerically("~", t.store.TotalMass(), 1e-9))
		Expect(root.Centroid().Sub(want).Norm()).To(BeNumerically("<", 1e-9))
	})

	It("rebuilds from scratch after particles move", func() {
		rng := rand.New(rand.NewSource(11))
		t.disc(rng, 200, 0.3)
		Expect(t.b.Build()).To(Succeed())
		first := t.pool.Len()

		for i, x := range t.store.Positions() {
			t.store.SetPosition(i, bh.Vec{1 - x[0], x[1]})
		}
		Expect(t.b.Build()).To(Succeed())
		Expect(t.pool.Len()).To(BeNumerically("<=", 2*first+1))
		Expect(bh.CheckInvariants(t.store, t.pool, 1e-9)).To(Succeed())
	})

	It("reports duplicate positions as degenerate", func() {
		t = newTree(4, 32)
		_, _ = t.store.Add(bh.Vec{0.4, 0.4}, bh.Vec{}, 1)
		_, _ = t.store.Add(bh.Vec{0.4, 0.4}, bh.Vec{}, 1)
		err := t.b.Build()
		Expect(err).To(MatchError(bh.ErrDegenerateInput))
		Expect(err).NotTo(MatchError(bh.ErrCapacityExceeded))
	})

	It("rejects positions outside the root domain", func() {
		_, _ = t.store.Add(bh.Vec{0.5, 0.5}, bh.Vec{}, 1)
		_, _ = t.store.Add(bh.Vec{1.5, 0.5}, bh.Vec{}, 1)
		Expect(t.b.Build()).To(MatchError(bh.ErrDegenerateInput))
	})

	It("fails with a node capacity error when the pool is too small", func() {
		store := bh.NewParticleStore(16)
		pool := bh.NewNodePool(3)
		b := bh.NewBuilder(store, pool, unit, 16)
		rng := rand.New(rand.NewSource(3))
		for i := 0; i < 16; i++ {
			_, _ = store.Add(bh.Vec{rng.Float64(), rng.Float64()}, bh.Vec{}, 1)
		}

		err := b.Build()
		Expect(err).To(MatchError(bh.ErrCapacityExceeded))
		Expect(err.Error()).To(ContainSubstring("node"))
		Expect(pool.Len()).To(Equal(3))
	})

	It("rejects a non-positive root size", func() {
		_, _ = t.store.Add(bh.Vec{0.5, 0.5}, bh.Vec{}, 1)
		t.b.SetDomain(bh.Domain{Center: bh.Vec{0.5, 0.5}})
		Expect(t.b.Build()).To(MatchError(bh.ErrDegenerateInput))
	})
})
