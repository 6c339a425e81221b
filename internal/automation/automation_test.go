package automation

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/nbodyquad/internal/config"
)

const scenarioYAML = `
name: sweep
preset: small
steps:
  - name: exact
    shape_factor: 0
    steps: 5
  - particles: 64
    mode: brute
    steps: 3
  - preset: bounce
    particles: 50
    spin: 0
    steps: 2
`

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func tiny() *config.Config {
	cfg := config.GetPreset("small")
	cfg.Particles.Count = 40
	cfg.Integrator.Steps = 4
	cfg.Integrator.SampleEvery = 2
	return cfg
}

func TestParseScenario(t *testing.T) {
	sc, err := ParseScenario([]byte(scenarioYAML))
	require.NoError(t, err)

	assert.Equal(t, "sweep", sc.Name)
	require.Len(t, sc.Steps, 3)
	require.NotNil(t, sc.Steps[0].ShapeFactor)
	assert.Equal(t, 0.0, *sc.Steps[0].ShapeFactor)
	assert.Nil(t, sc.Steps[1].ShapeFactor)
	assert.Equal(t, "exact", sc.StepName(0))
	assert.Equal(t, "sweep_2", sc.StepName(1))
}

func TestParseScenarioRejectsEmpty(t *testing.T) {
	_, err := ParseScenario([]byte("name: nothing\n"))
	assert.Error(t, err)
}

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenarioYAML), 0644))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Len(t, sc.Steps, 3)

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConfigsApplyOverrides(t *testing.T) {
	sc, err := ParseScenario([]byte(scenarioYAML))
	require.NoError(t, err)

	cfgs, err := sc.Configs(config.DefaultConfig())
	require.NoError(t, err)
	require.Len(t, cfgs, 3)

	small := config.GetPreset("small")
	assert.Equal(t, 0.0, cfgs[0].Tree.ShapeFactor)
	assert.Equal(t, small.Particles.Count, cfgs[0].Particles.Count)
	assert.Equal(t, 5, cfgs[0].Integrator.Steps)

	assert.Equal(t, 64, cfgs[1].Particles.Count)
	assert.Equal(t, "brute", cfgs[1].Tree.Mode)
	assert.Equal(t, small.Tree.ShapeFactor, cfgs[1].Tree.ShapeFactor)

	assert.True(t, cfgs[2].Integrator.Boundary.Enabled)
	assert.Equal(t, 0.0, cfgs[2].Particles.Spin)

	// Overrides never leak into the preset table.
	assert.Equal(t, small.Tree.ShapeFactor, config.GetPreset("small").Tree.ShapeFactor)
}

func TestConfigsRejectsInvalidStep(t *testing.T) {
	sc := &Scenario{Name: "bad", Steps: []ScenarioStep{{Mode: "octree"}}}
	_, err := sc.Configs(config.DefaultConfig())
	assert.ErrorContains(t, err, "step 1")

	sc = &Scenario{Name: "bad", Steps: []ScenarioStep{{Preset: "nebula"}}}
	_, err = sc.Configs(config.DefaultConfig())
	assert.ErrorContains(t, err, "unknown preset")
}

func TestRunScenario(t *testing.T) {
	sf := 0.0
	sc := &Scenario{Name: "pair", Steps: []ScenarioStep{
		{Steps: 3},
		{Steps: 2, ShapeFactor: &sf},
	}}

	results, err := RunScenario(context.Background(), sc, tiny(), quiet())
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "pair_1", results[0].Name)
	assert.Equal(t, 3, results[0].Result.StepsTaken)
	assert.Equal(t, 2, results[1].Result.StepsTaken)
	assert.Equal(t, 0.0, results[1].Simulator.Config().ShapeFactor)
	assert.Contains(t, results[0].Result.Metrics, "energy_drift")
}

func TestRunScenarioCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sc := &Scenario{Name: "stop", Steps: []ScenarioStep{{Steps: 3}}}
	results, err := RunScenario(ctx, sc, tiny(), quiet())
	assert.Error(t, err)
	assert.Empty(t, results)
}

func TestSweepValues(t *testing.T) {
	assert.Equal(t, []float64{0, 0.5, 1}, ParameterSweep{Min: 0, Max: 1, Points: 3}.Values())
	assert.Equal(t, []float64{2}, ParameterSweep{Min: 2, Max: 5, Points: 1}.Values())
}

func TestRunSweep(t *testing.T) {
	sweep := ParameterSweep{Param: "shape_factor", Min: 0, Max: 1, Points: 2}
	results, err := RunSweep(context.Background(), sweep, tiny(), quiet())
	require.NoError(t, err)
	require.Len(t, results, 2)

	for i, r := range results {
		assert.Equal(t, float64(i), r.Value)
		assert.Equal(t, 4, r.StepsTaken)
		assert.Greater(t, r.Work, 0.0)
		assert.Equal(t, 1.0, r.Containment)
	}
}

func TestRunSweepRejectsUnknownParam(t *testing.T) {
	_, err := RunSweep(context.Background(), ParameterSweep{Param: "mass", Points: 2}, tiny(), quiet())
	assert.ErrorContains(t, err, "unknown sweep parameter")

	_, err = RunSweep(context.Background(), ParameterSweep{Param: "dt", Points: 0}, tiny(), quiet())
	assert.Error(t, err)
}
