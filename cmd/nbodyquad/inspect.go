package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/nbodyquad/internal/analysis"
	"github.com/san-kum/nbodyquad/internal/barneshut"
	"github.com/san-kum/nbodyquad/internal/config"
	"github.com/san-kum/nbodyquad/internal/metrics"
	"github.com/san-kum/nbodyquad/internal/sim"
	"github.com/san-kum/nbodyquad/internal/storage"
	"github.com/san-kum/nbodyquad/internal/viz"
)

var (
	seriesName   string
	againstRun   string
	timingsClip  float64
	timingsSigma float64
	timingsBins  int
)

// domainFlag lets read-only commands pick up a custom tree domain.
func domainFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file the run was made with")
}

func analyzeFlags(cmd *cobra.Command) {
	domainFlag(cmd)
	cmd.Flags().StringVar(&seriesName, "series", "energy", "metric series for the spectrum")
	cmd.Flags().StringVar(&againstRun, "against", "", "second run to measure divergence against")
}

func timingsFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&timingsClip, "clip", metrics.DefaultFilter.Clip, "drop samples above this many µs (0 disables)")
	cmd.Flags().Float64Var(&timingsSigma, "sigma", metrics.DefaultFilter.Sigma, "drop samples beyond this many standard deviations (0 disables)")
	cmd.Flags().IntVar(&timingsBins, "bins", 12, "histogram bins")
}

// sceneDomain is the tree domain runs are drawn in. Stored runs always use
// the default unit square unless a config file says otherwise.
func sceneDomain() (barneshut.Domain, error) {
	if configFile == "" {
		return config.DefaultConfig().Domain(), nil
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return barneshut.Domain{}, err
	}
	return cfg.Domain(), nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tPARTICLES\tSTEPS\tDT\tSF\tMODE\tFRAMES")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%g\t%.2f\t%s\t%d\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Particles,
			run.Steps,
			run.Dt,
			run.ShapeFactor,
			run.Mode,
			run.Frames,
		)
	}
	return w.Flush()
}

func sortedSeries(series map[string][]float64) []string {
	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	times, series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(times) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s (%d particles)\n", meta.Scene, meta.Particles)
	fmt.Printf("samples: %d\n\n", len(times))

	for _, name := range sortedSeries(series) {
		data := series[name]
		if len(data) < 2 {
			continue
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name+" vs time"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return nil
	}
	d, err := sceneDomain()
	if err != nil {
		return err
	}
	last := frames[len(frames)-1]
	c := viz.NewCanvas(60, 30)
	drawn := c.Plot(last.Positions, d)
	fmt.Printf("final frame (step %d, t=%.5f, %d of %d in view)\n", last.Step, last.Time, drawn, len(last.Positions))
	fmt.Print(c.String())
	return nil
}

// velocities estimates per-particle velocities from the last two frames.
func velocities(frames []sim.Frame) ([]barneshut.Vec, bool) {
	if len(frames) < 2 {
		return nil, false
	}
	a, b := frames[len(frames)-2], frames[len(frames)-1]
	h := b.Time - a.Time
	if h <= 0 || len(a.Positions) != len(b.Positions) {
		return nil, false
	}
	vel := make([]barneshut.Vec, len(b.Positions))
	for i := range vel {
		vel[i] = b.Positions[i].Sub(a.Positions[i]).Scale(1 / h)
	}
	return vel, true
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	times, series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	data, ok := series[seriesName]
	if !ok {
		return fmt.Errorf("run %s has no series %q (available: %s)", runID, seriesName, strings.Join(sortedSeries(series), ", "))
	}
	if len(data) < 4 {
		return fmt.Errorf("series %q has only %d samples", seriesName, len(data))
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("scene: %s\n\n", meta.Scene)

	spec := analysis.PowerSpectrum(data, times[1]-times[0])
	graph := asciigraph.Plot(spec.Power[1:],
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("power spectrum ("+seriesName+")"),
	)
	fmt.Println(graph)
	fmt.Println()

	freq, power := spec.Dominant()
	fmt.Printf("dominant frequency: %.4g (power %.4g)\n", freq, power)
	if freq > 0 {
		fmt.Printf("period: %.4g\n", 1/freq)
	}

	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if vel, ok := velocities(frames); ok {
		d, err := sceneDomain()
		if err != nil {
			return err
		}
		last := frames[len(frames)-1]
		portrait := analysis.RadialPortrait(last.Positions, vel, d.Center)
		fmt.Printf("\nradial phase portrait at t=%.5f (x: %s, y: %s)\n", last.Time, portrait.XLabel, portrait.YLabel)
		fmt.Print(analysis.PhasePortraitToASCII(portrait, 60, 20))
	}

	if againstRun != "" {
		other, err := st.LoadFrames(againstRun)
		if err != nil {
			return err
		}
		sep := analysis.Divergence(frames, other)
		if len(sep) == 0 {
			return fmt.Errorf("runs %s and %s have no comparable frames", runID, againstRun)
		}
		ft := make([]float64, len(sep))
		for i := range sep {
			ft[i] = frames[i].Time
		}
		fmt.Printf("\ndivergence from %s over %d frames\n", againstRun, len(sep))
		if len(sep) > 1 {
			fmt.Println(asciigraph.Plot(sep, asciigraph.Height(8), asciigraph.Width(80), asciigraph.Caption("rms separation")))
		}
		fmt.Printf("final separation: %.4g\n", sep[len(sep)-1])
		fmt.Printf("growth rate: %.4g\n", analysis.GrowthRate(ft, sep))
	}
	return nil
}

func timingsRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	stats, err := st.LoadTimings(runID)
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		return fmt.Errorf("run %s has no timings", runID)
	}

	t := metrics.NewTiming()
	t.AddStats(stats)
	f := metrics.Filter{Clip: timingsClip, Sigma: timingsSigma}

	fmt.Printf("timings: %s (%d steps)\n\n", runID, len(stats))
	if err := printTimings(t, f); err != nil {
		return err
	}

	eval := f.Apply(t.Samples(sim.PhaseEvaluate))
	if len(eval) == 0 {
		return nil
	}
	fmt.Println()
	fmt.Println(viz.KeyValue("evaluate µs", viz.Sparkline(eval, 60)))
	fmt.Println()

	counts, dividers := metrics.Histogram(eval, timingsBins)
	peak := 0.0
	for _, c := range counts {
		peak = max(peak, c)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EVALUATE(µs)\tCOUNT\t")
	for i, c := range counts {
		fmt.Fprintf(w, "%.1f-%.1f\t%d\t%s\n", dividers[i], dividers[i+1], int(c), viz.ProgressBar(c/peak, 30))
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPARTICLES\tRADIUS\tSPIN\tSF\tDT\tSTEPS\tBOUNDARY")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%.2f\t%g\t%.2f\t%g\t%d\t%v\n",
			name,
			p.Particles.Count,
			p.Particles.Radius,
			p.Particles.Spin,
			p.Tree.ShapeFactor,
			p.Integrator.Dt,
			p.Integrator.Steps,
			p.Integrator.Boundary.Enabled,
		)
	}
	return w.Flush()
}
