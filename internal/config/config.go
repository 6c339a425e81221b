package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/nbodyquad/internal/barneshut"
	"github.com/san-kum/nbodyquad/internal/integrators"
	"github.com/san-kum/nbodyquad/internal/sim"
)

const (
	DefaultCapacity    = 8192
	DefaultCount       = 1600
	DefaultRadius      = 0.3
	DefaultMassMin     = 0.1
	DefaultMassMax     = 1.5
	DefaultHalfSize    = 0.5
	DefaultShapeFactor = 1.0
	DefaultSoftening   = 1e-3
	DefaultGravity     = 1.0
	DefaultDt          = 1e-5
	DefaultSteps       = 1000
	DefaultSampleEvery = 10
)

type Config struct {
	Particles  ParticleConfig   `yaml:"particles"`
	Tree       TreeConfig       `yaml:"tree"`
	Integrator IntegratorConfig `yaml:"integrator"`
	Workers    int              `yaml:"workers"`
	Seed       int64            `yaml:"seed"`
}

type ParticleConfig struct {
	Count    int        `yaml:"count"`
	Capacity int        `yaml:"capacity"`
	Radius   float64    `yaml:"radius"`
	Center   [2]float64 `yaml:"center,flow"`
	MassMin  float64    `yaml:"mass_min"`
	MassMax  float64    `yaml:"mass_max"`
	Spin     float64    `yaml:"spin"`
}

type TreeConfig struct {
	Center       [2]float64 `yaml:"center,flow"`
	HalfSize     float64    `yaml:"half_size"`
	MaxDepth     int        `yaml:"max_depth"`
	NodeCapacity int        `yaml:"node_capacity"`
	ShapeFactor  float64    `yaml:"shape_factor"`
	Softening    float64    `yaml:"softening"`
	Gravity      float64    `yaml:"gravity"`
	Mode         string     `yaml:"mode"`
}

type IntegratorConfig struct {
	Method      string         `yaml:"method"`
	Dt          float64        `yaml:"dt"`
	Steps       int            `yaml:"steps"`
	SampleEvery int            `yaml:"sample_every"`
	Boundary    BoundaryConfig `yaml:"boundary"`
}

type BoundaryConfig struct {
	Enabled          bool       `yaml:"enabled"`
	Min              [2]float64 `yaml:"min,flow"`
	Max              [2]float64 `yaml:"max,flow"`
	Restitution      float64    `yaml:"restitution"`
	CrossRestitution float64    `yaml:"cross_restitution"`
}

func DefaultConfig() *Config {
	return &Config{
		Particles: ParticleConfig{
			Count:    DefaultCount,
			Capacity: DefaultCapacity,
			Radius:   DefaultRadius,
			Center:   [2]float64{0.5, 0.5},
			MassMin:  DefaultMassMin,
			MassMax:  DefaultMassMax,
		},
		Tree: TreeConfig{
			Center:      [2]float64{0.5, 0.5},
			HalfSize:    DefaultHalfSize,
			ShapeFactor: DefaultShapeFactor,
			Softening:   DefaultSoftening,
			Gravity:     DefaultGravity,
			Mode:        "tree",
		},
		Integrator: IntegratorConfig{
			Method:      "semi-implicit",
			Dt:          DefaultDt,
			Steps:       DefaultSteps,
			SampleEvery: DefaultSampleEvery,
			Boundary: BoundaryConfig{
				Min:              [2]float64{0, 0},
				Max:              [2]float64{1, 1},
				Restitution:      1,
				CrossRestitution: 1,
			},
		},
		Seed: 1,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	p, t, in := c.Particles, c.Tree, c.Integrator
	if p.Capacity <= 0 {
		return fmt.Errorf("capacity must be positive, got %d", p.Capacity)
	}
	if p.Count < 0 || p.Count > p.Capacity {
		return fmt.Errorf("count must be in [0, %d], got %d", p.Capacity, p.Count)
	}
	if p.Radius < 0 {
		return fmt.Errorf("radius must be non-negative, got %f", p.Radius)
	}
	if p.MassMin < 0 || p.MassMax < p.MassMin {
		return fmt.Errorf("mass range must satisfy 0 <= min <= max, got [%f, %f]", p.MassMin, p.MassMax)
	}
	if t.HalfSize <= 0 {
		return fmt.Errorf("half_size must be positive, got %f", t.HalfSize)
	}
	for a := 0; a < 2; a++ {
		if math.Abs(p.Center[a]-t.Center[a])+p.Radius > t.HalfSize {
			return fmt.Errorf("disc of radius %f at %v leaves the tree domain", p.Radius, p.Center)
		}
	}
	if t.ShapeFactor < 0 {
		return fmt.Errorf("shape_factor must be non-negative, got %f", t.ShapeFactor)
	}
	if t.Softening < 0 {
		return fmt.Errorf("softening must be non-negative, got %f", t.Softening)
	}
	if t.MaxDepth < 0 {
		return fmt.Errorf("max_depth must be non-negative, got %d", t.MaxDepth)
	}
	if _, err := barneshut.ParseMode(t.Mode); err != nil {
		return err
	}
	if in.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", in.Dt)
	}
	if in.Steps < 0 {
		return fmt.Errorf("steps must be non-negative, got %d", in.Steps)
	}
	if b := in.Boundary; b.Enabled {
		if b.Min[0] >= b.Max[0] || b.Min[1] >= b.Max[1] {
			return fmt.Errorf("boundary min %v must be below max %v", b.Min, b.Max)
		}
		if b.Restitution < 0 || b.CrossRestitution < 0 {
			return fmt.Errorf("restitution must be non-negative")
		}
		if !c.Boundary().Within(c.Domain()) {
			return fmt.Errorf("boundary %v-%v leaves the tree domain %v±%f", b.Min, b.Max, t.Center, t.HalfSize)
		}
	}
	if t.MaxDepth > 0 && t.MaxDepth < p.Count {
		return fmt.Errorf("max_depth %d is below the particle count %d", t.MaxDepth, p.Count)
	}
	return nil
}

func (c *Config) Domain() barneshut.Domain {
	return barneshut.Domain{Center: barneshut.Vec(c.Tree.Center), Half: c.Tree.HalfSize}
}

func (c *Config) Disc() sim.DiscParams {
	return sim.DiscParams{
		Center:  barneshut.Vec(c.Particles.Center),
		Radius:  c.Particles.Radius,
		MassMin: c.Particles.MassMin,
		MassMax: c.Particles.MassMax,
		Spin:    c.Particles.Spin,
	}
}

func (c *Config) Boundary() *integrators.Boundary {
	b := c.Integrator.Boundary
	if !b.Enabled {
		return nil
	}
	return &integrators.Boundary{
		Min:              barneshut.Vec(b.Min),
		Max:              barneshut.Vec(b.Max),
		Restitution:      b.Restitution,
		CrossRestitution: b.CrossRestitution,
	}
}

// SimConfig converts the file layout into the simulator's configuration.
func (c *Config) SimConfig() (sim.Config, error) {
	mode, err := barneshut.ParseMode(c.Tree.Mode)
	if err != nil {
		return sim.Config{}, err
	}
	return sim.Config{
		Capacity:     c.Particles.Capacity,
		MaxDepth:     c.Tree.MaxDepth,
		NodeCapacity: c.Tree.NodeCapacity,
		Domain:       c.Domain(),
		ShapeFactor:  c.Tree.ShapeFactor,
		Softening:    c.Tree.Softening,
		Gravity:      c.Tree.Gravity,
		Mode:         mode,
		Integrator:   c.Integrator.Method,
		Dt:           c.Integrator.Dt,
		Steps:        c.Integrator.Steps,
		SampleEvery:  c.Integrator.SampleEvery,
		Boundary:     c.Boundary(),
		Workers:      c.Workers,
	}, nil
}

// Clone returns a deep copy; Config holds no pointers or slices.
func (c *Config) Clone() *Config {
	cp := *c
	return &cp
}
