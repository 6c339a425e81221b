package metrics

import "github.com/san-kum/nbodyquad/internal/barneshut"

// Containment is the fraction of samples in which every particle lay
// inside the domain.
type Containment struct {
	name       string
	domain     barneshut.Domain
	violations int
	samples    int
}

func NewContainment(domain barneshut.Domain) *Containment {
	return &Containment{
		name:   "containment",
		domain: domain,
	}
}

func (c *Containment) Name() string {
	return c.name
}

func (c *Containment) Observe(store *barneshut.ParticleStore, _ barneshut.Traversal, _ float64) {
	c.samples++
	for _, x := range store.Positions() {
		if !c.domain.Contains(x) {
			c.violations++
			break
		}
	}
}

func (c *Containment) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(c.violations)/float64(c.samples)
}

func (c *Containment) Reset() {
	c.violations = 0
	c.samples = 0
}

// Work is the mean number of kernel evaluations per particle per sampled
// step.
type Work struct {
	name    string
	sum     float64
	samples int
}

func NewWork() *Work {
	return &Work{
		name: "interactions_per_particle",
	}
}

func (w *Work) Name() string {
	return w.name
}

func (w *Work) Observe(store *barneshut.ParticleStore, work barneshut.Traversal, _ float64) {
	if work.Interactions == 0 || store.Len() == 0 {
		return
	}
	w.sum += float64(work.Interactions) / float64(store.Len())
	w.samples++
}

func (w *Work) Value() float64 {
	if w.samples == 0 {
		return 0
	}
	return w.sum / float64(w.samples)
}

func (w *Work) Reset() {
	w.sum = 0
	w.samples = 0
}
