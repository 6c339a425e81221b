package sim

import (
	"fmt"
	"time"

	"github.com/san-kum/nbodyquad/internal/barneshut"
	"github.com/san-kum/nbodyquad/internal/integrators"
)

type Phase uint8

const (
	PhaseBuild Phase = iota
	PhaseEvaluate
	PhaseIntegrate
)

func (p Phase) String() string {
	switch p {
	case PhaseBuild:
		return "build"
	case PhaseEvaluate:
		return "evaluate"
	case PhaseIntegrate:
		return "integrate"
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

var Phases = []Phase{PhaseBuild, PhaseEvaluate, PhaseIntegrate}

// Hooks receives the wall time of every phase of every step.
type Hooks interface {
	OnPhase(p Phase, d time.Duration)
}

// StepHooks additionally receives the summary of every completed step.
type StepHooks interface {
	Hooks
	OnStepStats(s StepStats)
}

type HooksFunc func(p Phase, d time.Duration)

func (f HooksFunc) OnPhase(p Phase, d time.Duration) { f(p, d) }

// Metric accumulates a scalar over the sampled steps of a run.
type Metric interface {
	Name() string
	Observe(store *barneshut.ParticleStore, work barneshut.Traversal, t float64)
	Value() float64
	Reset()
}

// Observer is called on every sampled step after integration.
type Observer interface {
	OnStep(step int, t float64, store *barneshut.ParticleStore)
}

// DiscParams describes the uniform random disc used by Initialize.
type DiscParams struct {
	Center  barneshut.Vec
	Radius  float64
	MassMin float64
	MassMax float64

	// Spin is the angular velocity of an initial rigid rotation about
	// Center. Zero starts every particle at rest.
	Spin float64
}

type Config struct {
	Capacity     int
	MaxDepth     int
	NodeCapacity int

	Domain      barneshut.Domain
	ShapeFactor float64
	Softening   float64
	Gravity     float64
	Mode        barneshut.Mode

	Integrator  string
	Dt          float64
	Steps       int
	SampleEvery int
	Boundary    *integrators.Boundary

	Workers int
}

// DefaultConfig is the single-star scene: 8192 slots on the unit square.
func DefaultConfig() Config {
	return Config{
		Capacity:    8192,
		Domain:      barneshut.Domain{Center: barneshut.Vec{0.5, 0.5}, Half: 0.5},
		ShapeFactor: 1.0,
		Softening:   1e-3,
		Gravity:     1.0,
		Mode:        barneshut.ModeTree,
		Dt:          1e-5,
		Steps:       1000,
		SampleEvery: 10,
	}
}

type StepStats struct {
	Step      int
	Build     time.Duration
	Evaluate  time.Duration
	Integrate time.Duration
	Nodes     int
	Work      barneshut.Traversal
}

func (s StepStats) Total() time.Duration { return s.Build + s.Evaluate + s.Integrate }

// Frame is a sampled copy of every particle position.
type Frame struct {
	Step      int
	Time      float64
	Positions []barneshut.Vec
}

type Result struct {
	Frames     []Frame
	Stats      []StepStats
	Times      []float64
	Series     map[string][]float64
	Metrics    map[string]float64
	StepsTaken int
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.6f): %s", e.Step, e.Time, e.Message)
}
