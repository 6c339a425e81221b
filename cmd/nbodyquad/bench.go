package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/nbodyquad/internal/barneshut"
	"github.com/san-kum/nbodyquad/internal/config"
	"github.com/san-kum/nbodyquad/internal/metrics"
	"github.com/san-kum/nbodyquad/internal/sim"
	"github.com/san-kum/nbodyquad/internal/viz"
)

var (
	benchCounts  []int
	benchShapes  []float64
	benchSteps   int
	benchRuns    int
	benchClip    float64
	benchSigma   float64
	benchBrute   bool
	benchVerbose bool
)

func benchFlags(cmd *cobra.Command) {
	cmd.Flags().IntSliceVar(&benchCounts, "counts", []int{500, 1000, 2000, 4000}, "particle counts")
	cmd.Flags().Float64SliceVar(&benchShapes, "shape-factors", []float64{0.5, 1, 2}, "shape factors")
	cmd.Flags().IntVar(&benchSteps, "bench-steps", 10, "steps per configuration")
	cmd.Flags().IntVar(&benchRuns, "runs", 1, "ensemble runs from consecutive seeds")
	cmd.Flags().Float64Var(&benchClip, "clip", metrics.DefaultFilter.Clip, "drop samples above this many µs (0 disables)")
	cmd.Flags().Float64Var(&benchSigma, "sigma", metrics.DefaultFilter.Sigma, "drop samples beyond this many standard deviations (0 disables)")
	cmd.Flags().BoolVar(&benchBrute, "brute", false, "also time brute force evaluation")
	cmd.Flags().BoolVar(&benchVerbose, "progress", true, "show progress on stderr")
}

type benchRow struct {
	count    int
	mode     barneshut.Mode
	sf       float64
	build    metrics.Summary
	evaluate metrics.Summary
	nodes    int
	work     float64
	elapsed  time.Duration
}

func benchScene(cmd *cobra.Command, args []string) error {
	base, scene, err := loadScene(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	if benchRuns < 1 {
		return fmt.Errorf("runs must be at least 1, got %d", benchRuns)
	}
	if benchSteps < 1 {
		return fmt.Errorf("bench-steps must be at least 1, got %d", benchSteps)
	}

	prom, stop, err := withPrometheus(metricsAddr, logger)
	if err != nil {
		return err
	}
	defer stop()

	type job struct {
		count int
		mode  barneshut.Mode
		sf    float64
	}
	var jobs []job
	for _, n := range benchCounts {
		for _, sf := range benchShapes {
			jobs = append(jobs, job{n, barneshut.ModeTree, sf})
		}
		if benchBrute {
			jobs = append(jobs, job{n, barneshut.ModeBruteForce, 0})
		}
	}

	filter := metrics.Filter{Clip: benchClip, Sigma: benchSigma}
	fmt.Printf("benchmarking %s: %d steps, %d run(s) per configuration\n\n", scene, benchSteps, benchRuns)

	rows := make([]benchRow, 0, len(jobs))
	for i, j := range jobs {
		if benchVerbose {
			fmt.Fprintf(os.Stderr, "\r%s %d/%d", viz.ProgressBar(float64(i)/float64(len(jobs)), 30), i, len(jobs))
		}
		cfg := base.Clone()
		cfg.Particles.Count = j.count
		cfg.Particles.Capacity = max(cfg.Particles.Capacity, j.count)
		cfg.Tree.ShapeFactor = j.sf
		cfg.Tree.Mode = j.mode.String()
		cfg.Integrator.Steps = benchSteps
		cfg.Integrator.SampleEvery = benchSteps

		row, err := benchOne(cfg, prom, filter)
		if err != nil {
			return fmt.Errorf("n=%d sf=%g: %w", j.count, j.sf, err)
		}
		rows = append(rows, row)
	}
	if benchVerbose {
		fmt.Fprintf(os.Stderr, "\r%s %d/%d\n", viz.ProgressBar(1, 30), len(jobs), len(jobs))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "N\tMODE\tSF\tBUILD(µs)\tEVAL(µs)\tEVAL P95\tNODES\tWORK/PARTICLE\tWALL")
	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%s\t%.2f\t%.1f\t%.1f\t%.1f\t%d\t%.1f\t%v\n",
			r.count, r.mode, r.sf, r.build.Mean, r.evaluate.Mean, r.evaluate.P95, r.nodes, r.work, r.elapsed.Round(time.Millisecond))
	}
	return w.Flush()
}

// benchOne runs cfg benchRuns times from consecutive seeds and averages the
// per-step phase times across runs before filtering.
func benchOne(cfg *config.Config, prom *metrics.Prometheus, filter metrics.Filter) (benchRow, error) {
	simCfg, err := cfg.SimConfig()
	if err != nil {
		return benchRow{}, err
	}
	var opts []sim.Option
	opts = append(opts, sim.WithLogger(discardLogger()))
	if prom != nil {
		opts = append(opts, sim.WithHooks(prom))
	}

	start := time.Now()
	results, err := sim.NewEnsemble(simCfg, cfg.Particles.Count, cfg.Disc(), benchRuns, cfg.Seed, opts...).Run(context.Background(), nil)
	if err != nil {
		return benchRow{}, err
	}
	elapsed := time.Since(start)

	builds := make([][]float64, len(results))
	evals := make([][]float64, len(results))
	row := benchRow{count: cfg.Particles.Count, mode: simCfg.Mode, sf: simCfg.ShapeFactor, elapsed: elapsed}
	interactions, samples := 0, 0
	for i, r := range results {
		for _, s := range r.Stats {
			builds[i] = append(builds[i], float64(s.Build.Nanoseconds())/1e3)
			evals[i] = append(evals[i], float64(s.Evaluate.Nanoseconds())/1e3)
			row.nodes = max(row.nodes, s.Nodes)
			interactions += s.Work.Interactions
			samples++
		}
	}
	row.build = metrics.Summarize(metrics.MeanAcross(builds), filter)
	row.evaluate = metrics.Summarize(metrics.MeanAcross(evals), filter)
	if samples > 0 && row.count > 0 {
		row.work = float64(interactions) / float64(samples*row.count)
	}
	return row, nil
}
