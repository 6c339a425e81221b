package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/san-kum/nbodyquad/internal/config"
	"github.com/san-kum/nbodyquad/internal/metrics"
	"github.com/san-kum/nbodyquad/internal/sim"
	"github.com/san-kum/nbodyquad/internal/storage"
	"github.com/san-kum/nbodyquad/internal/viz"
)

var (
	frameRate     int
	stepsPerFrame int
	gifPath       string
	theme         string
)

func liveFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&frameRate, "fps", 30, "frame rate")
	cmd.Flags().IntVar(&stepsPerFrame, "steps-per-frame", 5, "simulation steps per frame")
	cmd.Flags().StringVar(&gifPath, "gif", "simulation.gif", "path for recorded gifs")
	cmd.Flags().StringVar(&theme, "theme", viz.CurrentTheme.Name, "color theme")
}

// serveMetrics exposes reg on addr until the returned stop func is called.
func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) (func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "err", err)
		}
	}()
	logger.Info("serving metrics", "addr", ln.Addr().String())
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}, nil
}

// withPrometheus registers a collector on a fresh registry and serves it
// on addr. An empty addr returns a nil collector.
func withPrometheus(addr string, logger *slog.Logger) (*metrics.Prometheus, func(), error) {
	if addr == "" {
		return nil, func() {}, nil
	}
	reg := prometheus.NewRegistry()
	prom := metrics.NewPrometheus(reg)
	stop, err := serveMetrics(addr, reg, logger)
	if err != nil {
		return nil, nil, err
	}
	return prom, stop, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, scene, err := loadScene(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	prom, stop, err := withPrometheus(metricsAddr, logger)
	if err != nil {
		return err
	}
	defer stop()

	var opts []sim.Option
	if prom != nil {
		opts = append(opts, sim.WithHooks(prom))
	}
	s, err := newSimulator(cfg, logger, opts...)
	if err != nil {
		return err
	}
	if prom != nil {
		s.AddObserver(prom)
	}
	for _, m := range metrics.Standard(s.Config()) {
		s.AddMetric(m)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	fmt.Printf("running %s: %d particles, %d steps...\n", scene, s.Store().Len(), cfg.Integrator.Steps)
	start := time.Now()
	result, runErr := s.Run(ctx)
	elapsed := time.Since(start)

	if runErr != nil {
		if result == nil || result.StepsTaken == 0 || !errors.Is(runErr, context.Canceled) {
			return runErr
		}
		fmt.Println(viz.Warn.Render(fmt.Sprintf("interrupted after %d steps, saving partial run", result.StepsTaken)))
	}

	runID, err := st.Save(runMetadata(cfg, scene, s), result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("frames: %d\n", len(result.Frames))
	printMetrics(result.Metrics)

	timing := metrics.NewTiming()
	timing.AddStats(result.Stats)
	fmt.Println()
	return printTimings(timing, metrics.DefaultFilter)
}

func runMetadata(cfg *config.Config, scene string, s *sim.Simulator) storage.RunMetadata {
	sc := s.Config()
	return storage.RunMetadata{
		Scene:       scene,
		Seed:        cfg.Seed,
		Particles:   s.Store().Len(),
		Capacity:    sc.Capacity,
		Dt:          sc.Dt,
		Steps:       sc.Steps,
		SampleEvery: sc.SampleEvery,
		ShapeFactor: sc.ShapeFactor,
		Softening:   sc.Softening,
		Mode:        sc.Mode.String(),
		Integrator:  s.Integrator().Name(),
		Workers:     s.Backend().Workers(),
		Boundary:    sc.Boundary != nil,
	}
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, m[name])
	}
}

func printTimings(t *metrics.Timing, f metrics.Filter) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PHASE\tN\tDROPPED\tMEAN(µs)\tSTD\tP50\tP95\tMAX")
	for _, p := range sim.Phases {
		s := t.Summary(p, f)
		fmt.Fprintf(w, "%s\t%d\t%d\t%.1f\t%.1f\t%.1f\t%.1f\t%.1f\n",
			p, s.N, s.Dropped, s.Mean, s.Std, s.P50, s.P95, s.Max)
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, scene, err := loadScene(cmd)
	if err != nil {
		return err
	}
	if _, err := newLogger(); err != nil {
		return err
	}
	viz.SetTheme(theme)

	// Logs would tear the alternate screen, so the live view runs quiet.
	factory := func() (*sim.Simulator, error) {
		return newSimulator(cfg, discardLogger())
	}
	m, err := viz.NewModel(factory, viz.Options{
		Name:          scene,
		StepsPerFrame: stepsPerFrame,
		FPS:           frameRate,
		GIFPath:       gifPath,
	})
	if err != nil {
		return err
	}
	return viz.Run(m)
}
