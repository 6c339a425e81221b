package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/nbodyquad/internal/config"
	"github.com/san-kum/nbodyquad/internal/metrics"
	"github.com/san-kum/nbodyquad/internal/sim"
)

// Scenario defines a scripted sequence of runs
type Scenario struct {
	Name   string         `yaml:"name"`
	Preset string         `yaml:"preset"`
	Steps  []ScenarioStep `yaml:"steps"`
}

// ScenarioStep overrides the scenario base for a single run. Zero values
// keep the base setting.
type ScenarioStep struct {
	Name        string   `yaml:"name"`
	Preset      string   `yaml:"preset"`
	Particles   int      `yaml:"particles"`
	Steps       int      `yaml:"steps"`
	Dt          float64  `yaml:"dt"`
	ShapeFactor *float64 `yaml:"shape_factor"`
	Mode        string   `yaml:"mode"`
	Integrator  string   `yaml:"integrator"`
	Spin        *float64 `yaml:"spin"`
	Seed        int64    `yaml:"seed"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}
	if scenario.Name == "" {
		scenario.Name = "scenario"
	}
	return &scenario, nil
}

// StepName is the scene name a step's run is stored under.
func (s *Scenario) StepName(i int) string {
	if s.Steps[i].Name != "" {
		return s.Steps[i].Name
	}
	return fmt.Sprintf("%s_%d", s.Name, i+1)
}

// Configs resolves every step against base, or against the scenario preset
// when one is named. Each returned config is validated.
func (s *Scenario) Configs(base *config.Config) ([]*config.Config, error) {
	if s.Preset != "" {
		base = config.GetPreset(s.Preset)
		if base == nil {
			return nil, fmt.Errorf("unknown preset: %s", s.Preset)
		}
	}
	cfgs := make([]*config.Config, 0, len(s.Steps))
	for i, step := range s.Steps {
		cfg, err := step.apply(base)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		cfgs = append(cfgs, cfg)
	}
	return cfgs, nil
}

func (st ScenarioStep) apply(base *config.Config) (*config.Config, error) {
	cfg := base.Clone()
	if st.Preset != "" {
		cfg = config.GetPreset(st.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", st.Preset)
		}
	}
	if st.Particles > 0 {
		cfg.Particles.Count = st.Particles
		cfg.Particles.Capacity = max(cfg.Particles.Capacity, st.Particles)
	}
	if st.Steps > 0 {
		cfg.Integrator.Steps = st.Steps
	}
	if st.Dt > 0 {
		cfg.Integrator.Dt = st.Dt
	}
	if st.ShapeFactor != nil {
		cfg.Tree.ShapeFactor = *st.ShapeFactor
	}
	if st.Mode != "" {
		cfg.Tree.Mode = st.Mode
	}
	if st.Integrator != "" {
		cfg.Integrator.Method = st.Integrator
	}
	if st.Spin != nil {
		cfg.Particles.Spin = *st.Spin
	}
	if st.Seed != 0 {
		cfg.Seed = st.Seed
	}
	return cfg, nil
}

// StepResult is one finished scenario step.
type StepResult struct {
	Name      string
	Config    *config.Config
	Simulator *sim.Simulator
	Result    *sim.Result
}

// NewSimulator builds a seeded simulator for cfg with the standard metrics
// attached.
func NewSimulator(cfg *config.Config, opts ...sim.Option) (*sim.Simulator, error) {
	simCfg, err := cfg.SimConfig()
	if err != nil {
		return nil, err
	}
	s, err := sim.New(simCfg, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Initialize(cfg.Particles.Count, cfg.Disc(), rand.New(rand.NewSource(cfg.Seed))); err != nil {
		return nil, err
	}
	for _, m := range metrics.Standard(s.Config()) {
		s.AddMetric(m)
	}
	return s, nil
}

// RunScenario executes all steps in a scenario. Results of the steps that
// finished are returned alongside the first error.
func RunScenario(ctx context.Context, scenario *Scenario, base *config.Config, logger *slog.Logger, opts ...sim.Option) ([]StepResult, error) {
	cfgs, err := scenario.Configs(base)
	if err != nil {
		return nil, err
	}

	results := make([]StepResult, 0, len(cfgs))
	for i, cfg := range cfgs {
		name := scenario.StepName(i)
		logger.Info("scenario step", "step", i+1, "of", len(cfgs), "name", name,
			"particles", cfg.Particles.Count, "shape_factor", cfg.Tree.ShapeFactor, "mode", cfg.Tree.Mode)

		s, err := NewSimulator(cfg, opts...)
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		result, err := s.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}
		results = append(results, StepResult{Name: name, Config: cfg, Simulator: s, Result: result})
	}
	return results, nil
}

// ParameterSweep runs one scene across evenly spaced values of a parameter
type ParameterSweep struct {
	Param  string
	Min    float64
	Max    float64
	Points int
}

// Params lists the parameters a sweep can vary.
var Params = []string{"shape_factor", "softening", "dt", "spin"}

func (p ParameterSweep) Values() []float64 {
	if p.Points <= 1 {
		return []float64{p.Min}
	}
	step := (p.Max - p.Min) / float64(p.Points-1)
	vals := make([]float64, p.Points)
	for i := range vals {
		vals[i] = p.Min + float64(i)*step
	}
	return vals
}

func setParam(cfg *config.Config, name string, v float64) error {
	switch name {
	case "shape_factor":
		cfg.Tree.ShapeFactor = v
	case "softening":
		cfg.Tree.Softening = v
	case "dt":
		cfg.Integrator.Dt = v
	case "spin":
		cfg.Particles.Spin = v
	default:
		return fmt.Errorf("unknown sweep parameter: %s", name)
	}
	return nil
}

// SweepResult holds the conserved-quantity drift of one sweep point
type SweepResult struct {
	Value         float64
	EnergyDrift   float64
	MomentumDrift float64
	Containment   float64
	Work          float64
	StepsTaken    int
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, sweep ParameterSweep, base *config.Config, logger *slog.Logger, opts ...sim.Option) ([]SweepResult, error) {
	if sweep.Points < 1 {
		return nil, fmt.Errorf("sweep needs at least one point, got %d", sweep.Points)
	}
	vals := sweep.Values()
	results := make([]SweepResult, 0, len(vals))

	for i, v := range vals {
		cfg := base.Clone()
		if err := setParam(cfg, sweep.Param, v); err != nil {
			return nil, err
		}
		if err := cfg.Validate(); err != nil {
			return results, fmt.Errorf("%s=%g: %w", sweep.Param, v, err)
		}

		s, err := NewSimulator(cfg, opts...)
		if err != nil {
			return results, err
		}
		result, err := s.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("%s=%g: %w", sweep.Param, v, err)
		}

		results = append(results, SweepResult{
			Value:         v,
			EnergyDrift:   result.Metrics["energy_drift"],
			MomentumDrift: result.Metrics["momentum_drift"],
			Containment:   result.Metrics["containment"],
			Work:          result.Metrics["interactions_per_particle"],
			StepsTaken:    result.StepsTaken,
		})
		logger.Info("sweep point", "point", i+1, "of", len(vals), sweep.Param, v,
			"energy_drift", result.Metrics["energy_drift"])
	}
	return results, nil
}
