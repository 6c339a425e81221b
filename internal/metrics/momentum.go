package metrics

import "github.com/san-kum/nbodyquad/internal/barneshut"

// Momentum returns the total linear momentum and the mass-weighted centroid.
func Momentum(store *barneshut.ParticleStore) (p, com barneshut.Vec) {
	pos, vel, mass := store.Positions(), store.Velocities(), store.Masses()
	total := 0.0
	for i, m := range mass {
		p = p.Add(vel[i].Scale(m))
		com = com.Add(pos[i].Scale(m))
		total += m
	}
	if total > 0 {
		com = com.Scale(1 / total)
	}
	return p, com
}

// MomentumDrift tracks |P - P0|. Pairwise forces cancel exactly only in
// direct summation, so tree runs show a small nonzero drift.
type MomentumDrift struct {
	name     string
	initial  barneshut.Vec
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift {
	return &MomentumDrift{name: "momentum_drift"}
}

func (m *MomentumDrift) Name() string { return m.name }

func (m *MomentumDrift) Observe(store *barneshut.ParticleStore, _ barneshut.Traversal, _ float64) {
	p, _ := Momentum(store)
	if m.samples == 0 {
		m.initial = p
	}
	m.samples++
	if d := p.Sub(m.initial).Norm(); d > m.maxDrift {
		m.maxDrift = d
	}
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.initial = barneshut.Vec{}
	m.maxDrift = 0
	m.samples = 0
}

// CentroidDrift is the distance the centre of mass has moved since the
// first sample.
type CentroidDrift struct {
	name    string
	initial barneshut.Vec
	current float64
	samples int
}

func NewCentroidDrift() *CentroidDrift {
	return &CentroidDrift{name: "centroid_drift"}
}

func (c *CentroidDrift) Name() string { return c.name }

func (c *CentroidDrift) Observe(store *barneshut.ParticleStore, _ barneshut.Traversal, _ float64) {
	_, com := Momentum(store)
	if c.samples == 0 {
		c.initial = com
	}
	c.samples++
	c.current = com.Sub(c.initial).Norm()
}

func (c *CentroidDrift) Value() float64 { return c.current }

func (c *CentroidDrift) Reset() {
	c.initial = barneshut.Vec{}
	c.current = 0
	c.samples = 0
}
