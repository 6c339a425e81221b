package integrators

import (
	"fmt"

	"github.com/san-kum/nbodyquad/internal/barneshut"
	"github.com/san-kum/nbodyquad/internal/compute"
)

// Integrator advances every particle in a store by one time step using
// precomputed accelerations, one per particle.
type Integrator interface {
	Name() string
	Step(store *barneshut.ParticleStore, acc []barneshut.Vec, dt float64, boundary *Boundary) error
}

func New(name string, backend compute.Backend) (Integrator, error) {
	switch name {
	case "", "semi-implicit", "symplectic-euler", "semi_implicit_euler":
		return NewSemiImplicitEuler(backend), nil
	case "euler":
		return NewEuler(backend), nil
	}
	return nil, fmt.Errorf("unknown integrator: %s", name)
}

func checkStep(store *barneshut.ParticleStore, acc []barneshut.Vec, dt float64) error {
	if len(acc) != store.Len() {
		return fmt.Errorf("acceleration count %d does not match particle count %d", len(acc), store.Len())
	}
	if dt < 0 {
		return fmt.Errorf("dt must be non-negative, got %f", dt)
	}
	return nil
}
