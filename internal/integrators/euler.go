package integrators

import (
	"github.com/san-kum/nbodyquad/internal/barneshut"
	"github.com/san-kum/nbodyquad/internal/compute"
)

// SemiImplicitEuler updates every velocity from the accelerations first and
// then moves every particle with its new velocity. The two passes are
// separate launches, so no position changes before all velocities are
// final.
type SemiImplicitEuler struct {
	backend compute.Backend
}

func NewSemiImplicitEuler(backend compute.Backend) *SemiImplicitEuler {
	if backend == nil {
		backend = compute.GetBackend()
	}
	return &SemiImplicitEuler{backend: backend}
}

func (s *SemiImplicitEuler) Name() string { return "semi-implicit" }

func (s *SemiImplicitEuler) Step(store *barneshut.ParticleStore, acc []barneshut.Vec, dt float64, boundary *Boundary) error {
	if err := checkStep(store, acc, dt); err != nil {
		return err
	}
	if dt == 0 {
		return nil
	}

	pos, vel := store.Positions(), store.Velocities()

	s.backend.For(len(vel), func(i, _ int) {
		v := vel[i].Add(acc[i].Scale(dt))
		if boundary != nil {
			v = boundary.Reflect(pos[i], v, dt)
		}
		vel[i] = v
	})

	s.backend.For(len(pos), func(i, _ int) {
		pos[i] = pos[i].Add(vel[i].Scale(dt))
	})
	return nil
}

// Euler is the explicit variant: positions move with the velocities from
// before the step.
type Euler struct {
	backend compute.Backend
}

func NewEuler(backend compute.Backend) *Euler {
	if backend == nil {
		backend = compute.GetBackend()
	}
	return &Euler{backend: backend}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Step(store *barneshut.ParticleStore, acc []barneshut.Vec, dt float64, boundary *Boundary) error {
	if err := checkStep(store, acc, dt); err != nil {
		return err
	}
	if dt == 0 {
		return nil
	}

	pos, vel := store.Positions(), store.Velocities()

	e.backend.For(len(pos), func(i, _ int) {
		v := vel[i]
		if boundary != nil {
			v = boundary.Reflect(pos[i], v, dt)
		}
		pos[i] = pos[i].Add(v.Scale(dt))
		vel[i] = v.Add(acc[i].Scale(dt))
	})
	return nil
}
