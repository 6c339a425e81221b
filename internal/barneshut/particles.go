package barneshut

import "sync/atomic"

// ParticleStore is a fixed-capacity structure-of-arrays particle table.
// Ids are dense in [0, Len()) and are never released.
type ParticleStore struct {
	pos  []Vec
	vel  []Vec
	mass []float64
	n    atomic.Int32
}

func NewParticleStore(capacity int) *ParticleStore {
	return &ParticleStore{
		pos:  make([]Vec, capacity),
		vel:  make([]Vec, capacity),
		mass: make([]float64, capacity),
	}
}

// Allocate reserves the next particle id and zeroes its entry. It is safe
// for concurrent use. A full store returns a *CapacityError and leaves the
// counter and every existing entry untouched.
func (s *ParticleStore) Allocate() (int, error) {
	for {
		n := s.n.Load()
		if int(n) >= len(s.mass) {
			return -1, &CapacityError{Resource: "particle", Limit: len(s.mass)}
		}
		if s.n.CompareAndSwap(n, n+1) {
			i := int(n)
			s.pos[i], s.vel[i], s.mass[i] = Vec{}, Vec{}, 0
			return i, nil
		}
	}
}

// Add allocates a particle and sets its state.
func (s *ParticleStore) Add(pos, vel Vec, mass float64) (int, error) {
	i, err := s.Allocate()
	if err != nil {
		return -1, err
	}
	s.pos[i], s.vel[i], s.mass[i] = pos, vel, mass
	return i, nil
}

func (s *ParticleStore) Len() int { return int(s.n.Load()) }
func (s *ParticleStore) Cap() int { return len(s.mass) }

func (s *ParticleStore) Position(i int) Vec { return s.pos[i] }
func (s *ParticleStore) Velocity(i int) Vec { return s.vel[i] }
func (s *ParticleStore) Mass(i int) float64 { return s.mass[i] }

func (s *ParticleStore) SetPosition(i int, v Vec) { s.pos[i] = v }
func (s *ParticleStore) SetVelocity(i int, v Vec) { s.vel[i] = v }
func (s *ParticleStore) SetMass(i int, m float64) { s.mass[i] = m }

// Positions, Velocities and Masses return views over the allocated entries.
// Writes through them are visible to the store.
func (s *ParticleStore) Positions() []Vec  { return s.pos[:s.Len()] }
func (s *ParticleStore) Velocities() []Vec { return s.vel[:s.Len()] }
func (s *ParticleStore) Masses() []float64 { return s.mass[:s.Len()] }

// TotalMass sums the allocated masses.
func (s *ParticleStore) TotalMass() float64 {
	total := 0.0
	for _, m := range s.Masses() {
		total += m
	}
	return total
}
