package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/nbodyquad/internal/barneshut"
	"github.com/san-kum/nbodyquad/internal/sim"
)

func testResult() *sim.Result {
	return &sim.Result{
		Frames: []sim.Frame{
			{Step: 0, Time: 0, Positions: []barneshut.Vec{{0.1, 0.2}, {0.3, 0.4}}},
			{Step: 10, Time: 1e-4, Positions: []barneshut.Vec{{0.11, 0.21}, {0.29, 0.39}}},
		},
		Stats: []sim.StepStats{
			{Step: 0, Build: 1500 * time.Nanosecond, Evaluate: 3 * time.Microsecond, Integrate: 200, Nodes: 3,
				Work: barneshut.Traversal{Opened: 2, Aggregated: 0, Interactions: 4}},
		},
		Times:   []float64{0, 1e-4},
		Series:  map[string][]float64{"energy": {-1.5, -1.49}, "momentum": {0, 1e-9}},
		Metrics: map[string]float64{"energy": -1.49},
	}
}

func saveTest(t *testing.T, st *Store) string {
	t.Helper()
	runID, err := st.Save(RunMetadata{Scene: "test", Seed: 42, Particles: 2, Dt: 1e-5}, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	return runID
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID := saveTest(t, st)
	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Scene != "test" || meta.Seed != 42 {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Frames != 2 {
		t.Errorf("expected 2 frames, got %d", meta.Frames)
	}
	if meta.Metrics["energy"] != -1.49 {
		t.Errorf("expected energy -1.49, got %f", meta.Metrics["energy"])
	}

	frames, err := st.LoadFrames(runID)
	if err != nil {
		t.Fatalf("load frames failed: %v", err)
	}
	want := testResult().Frames
	if len(frames) != len(want) {
		t.Fatalf("expected %d frames, got %d", len(want), len(frames))
	}
	for i := range want {
		if frames[i].Step != want[i].Step || frames[i].Time != want[i].Time {
			t.Errorf("frame %d header mismatch", i)
		}
		for j := range want[i].Positions {
			if frames[i].Positions[j] != want[i].Positions[j] {
				t.Errorf("frame %d particle %d: %v != %v", i, j, frames[i].Positions[j], want[i].Positions[j])
			}
		}
	}

	times, series, err := st.LoadSeries(runID)
	if err != nil {
		t.Fatalf("load series failed: %v", err)
	}
	if len(times) != 2 || series["momentum"][1] != 1e-9 || series["energy"][0] != -1.5 {
		t.Errorf("series mismatch: %v %v", times, series)
	}

	stats, err := st.LoadTimings(runID)
	if err != nil {
		t.Fatalf("load timings failed: %v", err)
	}
	if len(stats) != 1 || stats[0] != testResult().Stats[0] {
		t.Errorf("timings mismatch: %+v", stats)
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}
	if _, err := st.Latest(); err == nil {
		t.Error("Latest on an empty store should fail")
	}

	first := saveTest(t, st)
	second := saveTest(t, st)
	if first == second {
		t.Fatal("run ids collided")
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}
	latest, err := st.Latest()
	if err != nil || latest != second {
		t.Errorf("latest = %s (%v), want %s", latest, err, second)
	}
}

func TestStoreMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Errorf("List on missing dir = %v, %v", runs, err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID := saveTest(t, st)
	for _, name := range []string{"metadata.json", "frames.csv", "series.csv", "timings.csv"} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestExport(t *testing.T) {
	st := New(t.TempDir())
	runID := saveTest(t, st)

	data, err := st.Export(runID, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(data.Frames) != 2 || data.Frames[1].Positions[0] != [2]float64{0.11, 0.21} {
		t.Errorf("unexpected frames %+v", data.Frames)
	}

	var buf bytes.Buffer
	if err := EncodeJSON(&buf, data); err != nil {
		t.Fatal(err)
	}
	var decoded ExportData
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Run.ID != runID || len(decoded.Series["energy"]) != 2 {
		t.Errorf("decoded export mismatch: %+v", decoded.Run)
	}

	path := filepath.Join(t.TempDir(), "out.json")
	if err := ExportJSON(path, data); err != nil {
		t.Fatal(err)
	}
}
