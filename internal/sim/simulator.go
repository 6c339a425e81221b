package sim

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/san-kum/nbodyquad/internal/barneshut"
	"github.com/san-kum/nbodyquad/internal/compute"
	"github.com/san-kum/nbodyquad/internal/integrators"
)

// Simulator owns the particle store and node pool of one run and sequences
// build, evaluate and integrate for every step. The tree is read-only
// between the end of a build and the start of the next integration.
type Simulator struct {
	cfg Config

	store     *barneshut.ParticleStore
	nodes     *barneshut.NodePool
	builder   *barneshut.Builder
	evaluator *barneshut.Evaluator
	stacks    *QueuePool
	acc       []barneshut.Vec

	backend    compute.Backend
	integrator integrators.Integrator
	hooks      []Hooks
	metrics    []Metric
	observers  []Observer
	logger     *slog.Logger

	step int
	t    float64
}

type Option func(*Simulator)

func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

func WithBackend(b compute.Backend) Option {
	return func(s *Simulator) { s.backend = b }
}

func WithIntegrator(i integrators.Integrator) Option {
	return func(s *Simulator) { s.integrator = i }
}

func WithHooks(h Hooks) Option {
	return func(s *Simulator) { s.hooks = append(s.hooks, h) }
}

func New(cfg Config, opts ...Option) (*Simulator, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.MaxDepth == 0 {
		cfg.MaxDepth = cfg.Capacity
	}
	if cfg.NodeCapacity == 0 {
		cfg.NodeCapacity = barneshut.NodeCapacity(cfg.MaxDepth)
	}
	if cfg.SampleEvery <= 0 {
		cfg.SampleEvery = 1
	}

	s := &Simulator{
		cfg:     cfg,
		store:   barneshut.NewParticleStore(cfg.Capacity),
		nodes:   barneshut.NewNodePool(cfg.NodeCapacity),
		stacks:  NewQueuePool(barneshut.StackCapacity(cfg.MaxDepth)),
		metrics: make([]Metric, 0),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	s.builder = barneshut.NewBuilder(s.store, s.nodes, cfg.Domain, cfg.MaxDepth)
	s.evaluator = barneshut.NewEvaluator(s.store, s.nodes, cfg.Domain)
	s.evaluator.Softening = cfg.Softening
	s.evaluator.Gravity = cfg.Gravity

	for _, opt := range opts {
		opt(s)
	}
	if s.backend == nil {
		b, err := compute.NewBackend("cpu", cfg.Workers)
		if err != nil {
			return nil, err
		}
		s.backend = b
	}
	if s.integrator == nil {
		integ, err := integrators.New(cfg.Integrator, s.backend)
		if err != nil {
			return nil, err
		}
		s.integrator = integ
	}
	return s, nil
}

func validateConfig(cfg Config) error {
	if cfg.Capacity <= 0 {
		return fmt.Errorf("capacity must be positive, got %d", cfg.Capacity)
	}
	if cfg.Domain.Half <= 0 {
		return fmt.Errorf("half size must be positive, got %f", cfg.Domain.Half)
	}
	if cfg.Dt < 0 {
		return fmt.Errorf("dt must be non-negative, got %f", cfg.Dt)
	}
	if cfg.ShapeFactor < 0 {
		return fmt.Errorf("shape factor must be non-negative, got %f", cfg.ShapeFactor)
	}
	if cfg.Softening < 0 {
		return fmt.Errorf("softening must be non-negative, got %f", cfg.Softening)
	}
	if cfg.MaxDepth < 0 {
		return fmt.Errorf("max depth must be non-negative, got %d", cfg.MaxDepth)
	}
	if cfg.Boundary != nil && !cfg.Boundary.Within(cfg.Domain) {
		return fmt.Errorf("boundary %v-%v leaves the tree domain", cfg.Boundary.Min, cfg.Boundary.Max)
	}
	if cfg.NodeCapacity != 0 && cfg.MaxDepth != 0 && cfg.NodeCapacity < barneshut.NodeCapacity(cfg.MaxDepth) {
		return fmt.Errorf("node capacity %d below %d for max depth %d",
			cfg.NodeCapacity, barneshut.NodeCapacity(cfg.MaxDepth), cfg.MaxDepth)
	}
	return nil
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }
func (s *Simulator) AddHooks(h Hooks)       { s.hooks = append(s.hooks, h) }

func (s *Simulator) Config() Config                      { return s.cfg }
func (s *Simulator) Store() *barneshut.ParticleStore     { return s.store }
func (s *Simulator) Nodes() *barneshut.NodePool          { return s.nodes }
func (s *Simulator) Evaluator() *barneshut.Evaluator     { return s.evaluator }
func (s *Simulator) Backend() compute.Backend            { return s.backend }
func (s *Simulator) Integrator() integrators.Integrator  { return s.integrator }
func (s *Simulator) Accelerations() []barneshut.Vec      { return s.acc }
func (s *Simulator) Time() float64                       { return s.t }
func (s *Simulator) StepCount() int                      { return s.step }
func (s *Simulator) SetShapeFactor(sf float64)           { s.cfg.ShapeFactor = sf }
func (s *Simulator) SetMode(m barneshut.Mode)            { s.cfg.Mode = m }
func (s *Simulator) SetBoundary(b *integrators.Boundary) { s.cfg.Boundary = b }

// Initialize appends count particles placed uniformly in a disc: angle
// U(0, 2π), radius sqrt(U)·R, mass U(MassMin, MassMax). The store is left
// untouched when count does not fit.
func (s *Simulator) Initialize(count int, disc DiscParams, rng *rand.Rand) error {
	if count < 0 {
		return fmt.Errorf("particle count must be non-negative, got %d", count)
	}
	if s.store.Len()+count > s.store.Cap() {
		return &barneshut.CapacityError{Resource: "particle", Limit: s.store.Cap()}
	}
	if n := s.store.Len() + count; n > s.cfg.MaxDepth {
		return fmt.Errorf("max depth %d is below the particle count %d", s.cfg.MaxDepth, n)
	}
	if disc.MassMax < disc.MassMin {
		return fmt.Errorf("mass range [%f, %f] is empty", disc.MassMin, disc.MassMax)
	}

	for i := 0; i < count; i++ {
		a := rng.Float64() * 2 * math.Pi
		r := math.Sqrt(rng.Float64()) * disc.Radius
		m := disc.MassMin + rng.Float64()*(disc.MassMax-disc.MassMin)

		sin, cos := math.Sincos(a)
		pos := barneshut.Vec{disc.Center[0] + r*cos, disc.Center[1] + r*sin}
		vel := barneshut.Vec{-disc.Spin * r * sin, disc.Spin * r * cos}
		if _, err := s.store.Add(pos, vel, m); err != nil {
			return err
		}
	}

	s.logger.Debug("initialized disc", "count", count, "radius", disc.Radius, "spin", disc.Spin)
	return nil
}

// BuildTree rebuilds the quadtree over the given root square.
func (s *Simulator) BuildTree(center barneshut.Vec, half float64) error {
	d := barneshut.Domain{Center: center, Half: half}
	s.cfg.Domain = d
	s.builder.SetDomain(d)
	s.evaluator.SetDomain(d)
	if err := s.builder.Build(); err != nil {
		return fmt.Errorf("build tree: %w", err)
	}
	return nil
}

// EvaluateForces computes one acceleration per particle against the
// current tree. It must follow a successful BuildTree.
func (s *Simulator) EvaluateForces(mode barneshut.Mode, shapeFactor float64) ([]barneshut.Vec, error) {
	acc, _, err := s.evaluate(mode, shapeFactor)
	return acc, err
}

func (s *Simulator) evaluate(mode barneshut.Mode, shapeFactor float64) ([]barneshut.Vec, barneshut.Traversal, error) {
	n := s.store.Len()
	if cap(s.acc) < n {
		s.acc = make([]barneshut.Vec, n)
	}
	s.acc = s.acc[:n]
	pos := s.store.Positions()

	workers := s.backend.Workers()
	work := make([]barneshut.Traversal, workers)

	if mode == barneshut.ModeBruteForce {
		s.backend.For(n, func(i, w int) {
			s.acc[i] = s.evaluator.BruteForceAt(pos[i])
			work[w].Interactions += n
		})
		return s.acc, sum(work), nil
	}

	stacks := s.stacks.GetN(workers)
	defer s.stacks.PutAll(stacks)

	var once sync.Once
	var firstErr error
	s.backend.For(n, func(i, w int) {
		a, tr, err := s.evaluator.AccelerationAt(pos[i], shapeFactor, stacks[w])
		if err != nil {
			once.Do(func() { firstErr = fmt.Errorf("evaluate particle %d: %w", i, err) })
			return
		}
		s.acc[i] = a
		work[w].Add(tr)
	})
	if firstErr != nil {
		return nil, barneshut.Traversal{}, firstErr
	}
	return s.acc, sum(work), nil
}

func sum(ts []barneshut.Traversal) barneshut.Traversal {
	var total barneshut.Traversal
	for _, t := range ts {
		total.Add(t)
	}
	return total
}

// Integrate advances the particles with the accelerations of the last
// evaluation.
func (s *Simulator) Integrate(dt float64, boundary *integrators.Boundary) error {
	if err := s.integrator.Step(s.store, s.acc, dt, boundary); err != nil {
		return fmt.Errorf("integrate: %w", err)
	}
	return nil
}

// Step runs one full build, evaluate, integrate cycle.
func (s *Simulator) Step(ctx context.Context) (StepStats, error) {
	stats := StepStats{Step: s.step}
	if err := ctx.Err(); err != nil {
		return stats, err
	}

	start := time.Now()
	if err := s.BuildTree(s.cfg.Domain.Center, s.cfg.Domain.Half); err != nil {
		return stats, err
	}
	stats.Build = time.Since(start)
	stats.Nodes = s.nodes.Len()
	s.phase(PhaseBuild, stats.Build)

	start = time.Now()
	_, work, err := s.evaluate(s.cfg.Mode, s.cfg.ShapeFactor)
	if err != nil {
		return stats, err
	}
	stats.Evaluate = time.Since(start)
	stats.Work = work
	s.phase(PhaseEvaluate, stats.Evaluate)

	start = time.Now()
	if err := s.Integrate(s.cfg.Dt, s.cfg.Boundary); err != nil {
		return stats, err
	}
	stats.Integrate = time.Since(start)
	s.phase(PhaseIntegrate, stats.Integrate)

	s.step++
	s.t += s.cfg.Dt
	for _, h := range s.hooks {
		if sh, ok := h.(StepHooks); ok {
			sh.OnStepStats(stats)
		}
	}

	s.logger.Debug("step",
		"step", stats.Step,
		"nodes", stats.Nodes,
		"interactions", stats.Work.Interactions,
		"build", stats.Build,
		"evaluate", stats.Evaluate,
		"integrate", stats.Integrate,
	)
	return stats, nil
}

func (s *Simulator) phase(p Phase, d time.Duration) {
	for _, h := range s.hooks {
		h.OnPhase(p, d)
	}
}

// Run performs cfg.Steps steps, sampling frames, metrics and observers
// every cfg.SampleEvery steps and after the last one. Cancellation is
// checked between steps; the partial result is returned with ctx.Err().
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	steps := s.cfg.Steps
	result := &Result{
		Frames:  make([]Frame, 0, steps/s.cfg.SampleEvery+2),
		Stats:   make([]StepStats, 0, steps),
		Times:   make([]float64, 0, steps/s.cfg.SampleEvery+2),
		Series:  make(map[string][]float64),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	s.logger.Info("run started",
		"particles", s.store.Len(),
		"steps", steps,
		"dt", s.cfg.Dt,
		"mode", s.cfg.Mode,
		"shape_factor", s.cfg.ShapeFactor,
		"workers", s.backend.Workers(),
	)

	s.sample(result, barneshut.Traversal{})

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			s.finish(result)
			return result, ctx.Err()
		default:
		}

		stats, err := s.Step(ctx)
		if err != nil {
			s.finish(result)
			return result, err
		}
		result.Stats = append(result.Stats, stats)
		result.StepsTaken++

		if s.step%s.cfg.SampleEvery == 0 || i == steps-1 {
			if !finite(s.store.Positions()) {
				err := SimError{Time: s.t, Step: s.step, Message: "invalid state (NaN/Inf)"}
				s.finish(result)
				return result, err
			}
			s.sample(result, stats.Work)
		}
	}

	s.finish(result)
	s.logger.Info("run finished", "steps", result.StepsTaken, "frames", len(result.Frames))
	return result, nil
}

func (s *Simulator) sample(result *Result, work barneshut.Traversal) {
	pos := make([]barneshut.Vec, s.store.Len())
	copy(pos, s.store.Positions())
	result.Frames = append(result.Frames, Frame{Step: s.step, Time: s.t, Positions: pos})
	result.Times = append(result.Times, s.t)

	for _, m := range s.metrics {
		m.Observe(s.store, work, s.t)
		result.Series[m.Name()] = append(result.Series[m.Name()], m.Value())
	}
	for _, obs := range s.observers {
		obs.OnStep(s.step, s.t, s.store)
	}
}

func (s *Simulator) finish(result *Result) {
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func finite(xs []barneshut.Vec) bool {
	for _, x := range xs {
		if !x.IsFinite() {
			return false
		}
	}
	return true
}
