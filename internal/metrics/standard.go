package metrics

import "github.com/san-kum/nbodyquad/internal/sim"

// Standard returns the metrics recorded for every stored run.
func Standard(cfg sim.Config) []sim.Metric {
	return []sim.Metric{
		NewEnergy(cfg.Gravity, cfg.Softening),
		NewEnergyDrift(cfg.Gravity, cfg.Softening),
		NewMomentumDrift(),
		NewCentroidDrift(),
		NewContainment(cfg.Domain),
		NewWork(),
	}
}
