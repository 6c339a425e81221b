package config

import "sort"

var Presets = map[string]*Config{
	// 1600 particles in a resting disc collapsing to a single star.
	"star": DefaultConfig(),
	"small": with(func(c *Config) {
		c.Particles.Count = 200
		c.Particles.Capacity = 512
		c.Integrator.Steps = 200
	}),
	"galaxy": with(func(c *Config) {
		c.Particles.Count = 3000
		c.Particles.Radius = 0.4
		c.Particles.Spin = 25
		c.Tree.ShapeFactor = 0.7
		c.Integrator.Dt = 5e-5
		c.Integrator.Steps = 2000
		c.Integrator.SampleEvery = 20
	}),
	"bounce": with(func(c *Config) {
		c.Particles.Count = 400
		c.Particles.Radius = 0.45
		c.Particles.Spin = 60
		c.Integrator.Dt = 1e-4
		c.Integrator.Boundary.Enabled = true
		c.Integrator.Boundary.Restitution = 0.9
		c.Integrator.Boundary.CrossRestitution = 0.95
	}),
	"bench": with(func(c *Config) {
		c.Particles.Count = 8192
		c.Particles.Radius = 0.45
		c.Integrator.Steps = 50
		c.Integrator.SampleEvery = 50
	}),
}

func with(f func(*Config)) *Config {
	c := DefaultConfig()
	f(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
