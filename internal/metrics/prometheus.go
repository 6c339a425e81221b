package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/nbodyquad/internal/barneshut"
	"github.com/san-kum/nbodyquad/internal/sim"
)

// Prometheus exports phase histograms and per-step work counters. It is
// both sim.StepHooks and sim.Observer.
type Prometheus struct {
	phaseDuration *prometheus.HistogramVec
	steps         prometheus.Counter
	interactions  prometheus.Counter
	nodes         prometheus.Gauge
	particles     prometheus.Gauge
	simTime       prometheus.Gauge
}

func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	f := promauto.With(reg)
	return &Prometheus{
		phaseDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "nbodyquad_phase_duration_seconds",
			Help:    "Wall time of each step phase",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 16), // 10µs to ~330ms
		}, []string{"phase"}),
		steps: f.NewCounter(prometheus.CounterOpts{
			Name: "nbodyquad_steps_total",
			Help: "Completed simulation steps",
		}),
		interactions: f.NewCounter(prometheus.CounterOpts{
			Name: "nbodyquad_interactions_total",
			Help: "Kernel evaluations across all force evaluations",
		}),
		nodes: f.NewGauge(prometheus.GaugeOpts{
			Name: "nbodyquad_tree_nodes",
			Help: "Nodes allocated by the last tree build",
		}),
		particles: f.NewGauge(prometheus.GaugeOpts{
			Name: "nbodyquad_particles",
			Help: "Particles in the store",
		}),
		simTime: f.NewGauge(prometheus.GaugeOpts{
			Name: "nbodyquad_sim_time",
			Help: "Simulated time at the last sampled step",
		}),
	}
}

func (p *Prometheus) OnPhase(ph sim.Phase, d time.Duration) {
	p.phaseDuration.WithLabelValues(ph.String()).Observe(d.Seconds())
}

func (p *Prometheus) OnStepStats(s sim.StepStats) {
	p.steps.Inc()
	p.interactions.Add(float64(s.Work.Interactions))
	p.nodes.Set(float64(s.Nodes))
}

func (p *Prometheus) OnStep(_ int, t float64, store *barneshut.ParticleStore) {
	p.particles.Set(float64(store.Len()))
	p.simTime.Set(t)
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
