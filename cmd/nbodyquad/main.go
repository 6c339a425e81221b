package main

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/nbodyquad/internal/config"
	"github.com/san-kum/nbodyquad/internal/sim"
	"github.com/san-kum/nbodyquad/internal/storage"
)

var (
	dataDir     string
	logLevel    string
	configFile  string
	preset      string
	metricsAddr string

	particles   int
	steps       int
	dt          float64
	shapeFactor float64
	softening   float64
	mode        string
	integrator  string
	workers     int
	seed        int64
	sampleEvery int
	spin        float64
	boundary    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "nbodyquad",
		Short:         "barnes-hut quadtree n-body simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".nbodyquad", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a batch simulation and store the result",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	sceneFlags(runCmd)
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while running")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulation with live terminal visualization",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	sceneFlags(liveCmd)
	liveFlags(liveCmd)

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "time tree build and force evaluation",
		Args:  cobra.NoArgs,
		RunE:  benchScene,
	}
	sceneFlags(benchCmd)
	benchFlags(benchCmd)
	benchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address while running")

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "check tree invariants and force accuracy against direct summation",
		Args:  cobra.NoArgs,
		RunE:  verifyScene,
	}
	sceneFlags(verifyCmd)
	verifyFlags(verifyCmd)

	scenarioCmd := &cobra.Command{
		Use:   "scenario <file.yaml>",
		Short: "run and store every step of a scripted scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	sceneFlags(scenarioCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "measure conservation across values of one parameter",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	sceneFlags(sweepCmd)
	sweepFlags(sweepCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot metric series and the final frame of a run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}
	domainFlag(plotCmd)

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "spectrum, phase portrait and divergence of a run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzeRun,
	}
	analyzeFlags(analyzeCmd)

	timingsCmd := &cobra.Command{
		Use:   "timings [run_id]",
		Short: "filtered phase timing statistics of a run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  timingsRun,
	}
	timingsFlags(timingsCmd)

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run series or frames to CSV",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().BoolVar(&withFrames, "frames", false, "export particle frames instead of metric series")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().BoolVar(&withFrames, "frames", false, "include particle frames")
	exportJSONCmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "render a stored frame or particle trails as SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportSVG,
	}
	svgFlags(exportSVGCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available scene presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	rootCmd.AddCommand(runCmd, liveCmd, benchCmd, verifyCmd, scenarioCmd, sweepCmd, listCmd, plotCmd, analyzeCmd, timingsCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// sceneFlags registers the flags that override preset and config values.
func sceneFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().IntVar(&particles, "particles", d.Particles.Count, "number of particles")
	cmd.Flags().IntVar(&steps, "steps", d.Integrator.Steps, "number of steps")
	cmd.Flags().Float64Var(&dt, "dt", d.Integrator.Dt, "timestep")
	cmd.Flags().Float64Var(&shapeFactor, "shape-factor", d.Tree.ShapeFactor, "opening criterion, 0 for exact")
	cmd.Flags().Float64Var(&softening, "softening", d.Tree.Softening, "plummer softening")
	cmd.Flags().StringVar(&mode, "mode", d.Tree.Mode, "force evaluation (tree, brute)")
	cmd.Flags().StringVar(&integrator, "integrator", d.Integrator.Method, "integrator (semi-implicit, euler)")
	cmd.Flags().IntVar(&workers, "workers", d.Workers, "worker goroutines, 0 for all cpus")
	cmd.Flags().Int64Var(&seed, "seed", d.Seed, "random seed")
	cmd.Flags().IntVar(&sampleEvery, "sample-every", d.Integrator.SampleEvery, "steps between sampled frames")
	cmd.Flags().Float64Var(&spin, "spin", d.Particles.Spin, "initial angular velocity of the disc")
	cmd.Flags().BoolVar(&boundary, "boundary", d.Integrator.Boundary.Enabled, "reflect particles at the boundary box")
}

// loadScene resolves preset, then config file, then explicitly set flags.
// It returns the scene name stored with runs.
func loadScene(cmd *cobra.Command) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	scene := "star"

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %s)", preset, strings.Join(config.ListPresets(), ", "))
		}
		cfg, scene = p, preset
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg, scene = loaded, "custom"
	}

	f := cmd.Flags()
	if f.Changed("particles") {
		cfg.Particles.Count = particles
		if cfg.Particles.Capacity < particles {
			cfg.Particles.Capacity = particles
		}
	}
	if f.Changed("steps") {
		cfg.Integrator.Steps = steps
	}
	if f.Changed("dt") {
		cfg.Integrator.Dt = dt
	}
	if f.Changed("shape-factor") {
		cfg.Tree.ShapeFactor = shapeFactor
	}
	if f.Changed("softening") {
		cfg.Tree.Softening = softening
	}
	if f.Changed("mode") {
		cfg.Tree.Mode = mode
	}
	if f.Changed("integrator") {
		cfg.Integrator.Method = integrator
	}
	if f.Changed("workers") {
		cfg.Workers = workers
	}
	if f.Changed("seed") {
		cfg.Seed = seed
	}
	if f.Changed("sample-every") {
		cfg.Integrator.SampleEvery = sampleEvery
	}
	if f.Changed("spin") {
		cfg.Particles.Spin = spin
	}
	if f.Changed("boundary") {
		cfg.Integrator.Boundary.Enabled = boundary
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, scene, nil
}

func newLogger() (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newSimulator builds a simulator for cfg and seeds its disc.
func newSimulator(cfg *config.Config, logger *slog.Logger, opts ...sim.Option) (*sim.Simulator, error) {
	simCfg, err := cfg.SimConfig()
	if err != nil {
		return nil, err
	}
	s, err := sim.New(simCfg, append([]sim.Option{sim.WithLogger(logger)}, opts...)...)
	if err != nil {
		return nil, err
	}
	if err := s.Initialize(cfg.Particles.Count, cfg.Disc(), rand.New(rand.NewSource(cfg.Seed))); err != nil {
		return nil, err
	}
	return s, nil
}

// resolveRun returns the explicit run id or the latest stored run.
func resolveRun(st *storage.Store, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return st.Latest()
}
