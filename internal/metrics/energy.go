package metrics

import (
	"math"

	"github.com/san-kum/nbodyquad/internal/barneshut"
)

// TotalEnergy returns the kinetic and Plummer-softened potential energy of
// the stored particles. The potential is a direct pair sum.
func TotalEnergy(store *barneshut.ParticleStore, gravity, softening float64) (ke, pe float64) {
	pos, vel, mass := store.Positions(), store.Velocities(), store.Masses()
	for i := range mass {
		ke += 0.5 * mass[i] * vel[i].Norm2()
		for j := i + 1; j < len(mass); j++ {
			r2 := pos[j].Sub(pos[i]).Norm2() + softening
			if r2 == 0 {
				continue
			}
			pe -= gravity * mass[i] * mass[j] / math.Sqrt(r2)
		}
	}
	return ke, pe
}

type Energy struct {
	name      string
	gravity   float64
	softening float64
	current   float64
}

func NewEnergy(gravity, softening float64) *Energy {
	return &Energy{
		name:      "energy",
		gravity:   gravity,
		softening: softening,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(store *barneshut.ParticleStore, _ barneshut.Traversal, _ float64) {
	ke, pe := TotalEnergy(store, e.gravity, e.softening)
	e.current = ke + pe
}

func (e *Energy) Value() float64 { return e.current }
func (e *Energy) Reset()         { e.current = 0 }

// EnergyDrift is the largest relative deviation from the first sampled
// total energy.
type EnergyDrift struct {
	name          string
	gravity       float64
	softening     float64
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift(gravity, softening float64) *EnergyDrift {
	return &EnergyDrift{
		name:      "energy_drift",
		gravity:   gravity,
		softening: softening,
	}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(store *barneshut.ParticleStore, _ barneshut.Traversal, _ float64) {
	ke, pe := TotalEnergy(store, e.gravity, e.softening)
	energy := ke + pe

	if e.samples == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}
