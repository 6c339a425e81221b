package barneshut_test

import (
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	bh "github.com/san-kum/nbodyquad/internal/barneshut"
)

var _ = Describe("ParticleStore", func() {
	It("hands out dense ids and zeroes fresh entries", func() {
		s := bh.NewParticleStore(4)
		for want := 0; want < 4; want++ {
			id, err := s.Allocate()
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal(want))
			Expect(s.Position(id)).To(Equal(bh.Vec{}))
			Expect(s.Mass(id)).To(BeZero())
		}
		Expect(s.Len()).To(Equal(4))
	})

	It("fails deterministically at capacity and leaves the store unchanged", func() {
		s := bh.NewParticleStore(2)
		_, err := s.Add(bh.Vec{0.1, 0.2}, bh.Vec{1, 0}, 1)
		Expect(err).NotTo(HaveOccurred())
		_, err = s.Add(bh.Vec{0.3, 0.4}, bh.Vec{0, 1}, 2)
		Expect(err).NotTo(HaveOccurred())

		for i := 0; i < 3; i++ {
			id, err := s.Add(bh.Vec{0.9, 0.9}, bh.Vec{}, 5)
			Expect(id).To(Equal(-1))
			Expect(err).To(MatchError(bh.ErrCapacityExceeded))

			var ce *bh.CapacityError
			Expect(errors.As(err, &ce)).To(BeTrue())
			Expect(ce.Resource).To(Equal("particle"))
			Expect(ce.Limit).To(Equal(2))
		}

		Expect(s.Len()).To(Equal(2))
		Expect(s.Positions()).To(Equal([]bh.Vec{{0.1, 0.2}, {0.3, 0.4}}))
		Expect(s.Masses()).To(Equal([]float64{1, 2}))
		Expect(s.TotalMass()).To(Equal(3.0))
	})

	It("never overshoots under concurrent allocation", func() {
		const capacity = 1000
		s := bh.NewParticleStore(capacity)

		var mu sync.Mutex
		seen := make(map[int]bool)
		failures := 0

		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				for i := 0; i < 200; i++ {
					id, err := s.Allocate()
					mu.Lock()
					if err != nil {
						failures++
					} else {
						Expect(seen[id]).To(BeFalse())
						seen[id] = true
					}
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		Expect(s.Len()).To(Equal(capacity))
		Expect(seen).To(HaveLen(capacity))
		Expect(failures).To(Equal(8*200 - capacity))
	})
})

var _ = Describe("NodePool", func() {
	It("resets in bulk and reallocates zeroed nodes", func() {
		p := bh.NewNodePool(2)
		a, err := p.Allocate()
		Expect(err).NotTo(HaveOccurred())
		Expect(a).To(Equal(bh.Root))
		_, err = p.Allocate()
		Expect(err).NotTo(HaveOccurred())

		_, err = p.Allocate()
		Expect(err).To(MatchError(bh.ErrCapacityExceeded))
		Expect(p.Len()).To(Equal(2))

		p.Reset()
		Expect(p.Len()).To(BeZero())
		id, err := p.Allocate()
		Expect(err).NotTo(HaveOccurred())
		n := p.Node(id)
		Expect(n.Occupancy().Tag()).To(Equal(bh.TagEmpty))
		Expect(n.Mass()).To(BeZero())
		_, ok := n.CenterOfMass()
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("WorkQueue", func() {
	It("is LIFO and bounded", func() {
		q := bh.NewWorkQueue(2)
		Expect(q.Push(bh.WorkItem{Subject: 1})).To(Succeed())
		Expect(q.Push(bh.WorkItem{Subject: 2})).To(Succeed())
		Expect(q.Push(bh.WorkItem{Subject: 3})).To(MatchError(bh.ErrCapacityExceeded))

		it, ok := q.Pop()
		Expect(ok).To(BeTrue())
		Expect(it.Subject).To(Equal(2))
		it, _ = q.Pop()
		Expect(it.Subject).To(Equal(1))
		_, ok = q.Pop()
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Quadrant", func() {
	It("maps points above the centre to the high bit and frames children", func() {
		c := bh.Vec{0.5, 0.5}
		Expect(bh.QuadrantOf(c, bh.Vec{0.2, 0.2})).To(Equal(bh.Quadrant(0)))
		Expect(bh.QuadrantOf(c, bh.Vec{0.7, 0.2})).To(Equal(bh.Quadrant(1)))
		Expect(bh.QuadrantOf(c, bh.Vec{0.2, 0.7})).To(Equal(bh.Quadrant(2)))
		Expect(bh.QuadrantOf(c, bh.Vec{0.7, 0.7})).To(Equal(bh.Quadrant(3)))
		Expect(bh.QuadrantOf(c, c)).To(Equal(bh.Quadrant(0)))

		center, half := bh.Quadrant(1).Frame(c, 0.5)
		Expect(half).To(Equal(0.25))
		Expect(center).To(Equal(bh.Vec{0.75, 0.25}))
	})
})
