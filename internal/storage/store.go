package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/nbodyquad/internal/barneshut"
	"github.com/san-kum/nbodyquad/internal/sim"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"
	seriesFile   = "series.csv"
	timingsFile  = "timings.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string { return filepath.Join(s.baseDir, runID) }

type RunMetadata struct {
	ID          string             `json:"id"`
	Scene       string             `json:"scene"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Particles   int                `json:"particles"`
	Capacity    int                `json:"capacity"`
	Dt          float64            `json:"dt"`
	Steps       int                `json:"steps"`
	SampleEvery int                `json:"sample_every"`
	ShapeFactor float64            `json:"shape_factor"`
	Softening   float64            `json:"softening"`
	Mode        string             `json:"mode"`
	Integrator  string             `json:"integrator"`
	Workers     int                `json:"workers"`
	Boundary    bool               `json:"boundary"`
	Frames      int                `json:"frames"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Save writes a run directory holding meta, every sampled frame, the metric
// series and the per-step timings. meta.ID and meta.Timestamp are filled in.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", meta.Scene, now.Unix())
	for i := 1; ; i++ {
		if _, err := os.Stat(s.Dir(runID)); os.IsNotExist(err) {
			break
		}
		runID = fmt.Sprintf("%s_%d_%d", meta.Scene, now.Unix(), i)
	}
	runDir := s.Dir(runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Frames = len(result.Frames)
	meta.Metrics = result.Metrics

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeFrames(filepath.Join(runDir, framesFile), result.Frames); err != nil {
		return "", err
	}
	if err := writeSeries(filepath.Join(runDir, seriesFile), result.Times, result.Series); err != nil {
		return "", err
	}
	if err := writeTimings(filepath.Join(runDir, timingsFile), result.Stats); err != nil {
		return "", err
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(path string, header []string, rows func(w *csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := rows(w); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func writeFrames(path string, frames []sim.Frame) error {
	return writeCSV(path, []string{"step", "time", "id", "x", "y"}, func(w *csv.Writer) error {
		for _, f := range frames {
			step, t := strconv.Itoa(f.Step), ftoa(f.Time)
			for id, x := range f.Positions {
				if err := w.Write([]string{step, t, strconv.Itoa(id), ftoa(x[0]), ftoa(x[1])}); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func seriesNames(series map[string][]float64) []string {
	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func writeSeries(path string, times []float64, series map[string][]float64) error {
	names := seriesNames(series)
	return writeCSV(path, append([]string{"time"}, names...), func(w *csv.Writer) error {
		for i, t := range times {
			row := []string{ftoa(t)}
			for _, name := range names {
				v := 0.0
				if i < len(series[name]) {
					v = series[name][i]
				}
				row = append(row, ftoa(v))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeTimings(path string, stats []sim.StepStats) error {
	header := []string{"step", "build_ns", "evaluate_ns", "integrate_ns", "nodes", "opened", "aggregated", "interactions"}
	return writeCSV(path, header, func(w *csv.Writer) error {
		for _, st := range stats {
			row := []string{
				strconv.Itoa(st.Step),
				strconv.FormatInt(st.Build.Nanoseconds(), 10),
				strconv.FormatInt(st.Evaluate.Nanoseconds(), 10),
				strconv.FormatInt(st.Integrate.Nanoseconds(), 10),
				strconv.Itoa(st.Nodes),
				strconv.Itoa(st.Work.Opened),
				strconv.Itoa(st.Work.Aggregated),
				strconv.Itoa(st.Work.Interactions),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		if runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].ID < runs[j].ID
		}
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

// Latest returns the id of the most recent run.
func (s *Store) Latest() (string, error) {
	runs, err := s.List()
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", fmt.Errorf("no runs in %s", s.baseDir)
	}
	return runs[len(runs)-1].ID, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: missing header", path)
	}
	return records, nil
}

func (s *Store) LoadFrames(runID string) ([]sim.Frame, error) {
	records, err := readCSV(filepath.Join(s.Dir(runID), framesFile))
	if err != nil {
		return nil, err
	}

	frames := make([]sim.Frame, 0)
	for i, rec := range records[1:] {
		if len(rec) != 5 {
			return nil, fmt.Errorf("frames.csv line %d: expected 5 fields, got %d", i+2, len(rec))
		}
		step, err1 := strconv.Atoi(rec[0])
		t, err2 := strconv.ParseFloat(rec[1], 64)
		x, err3 := strconv.ParseFloat(rec[3], 64)
		y, err4 := strconv.ParseFloat(rec[4], 64)
		for _, err := range []error{err1, err2, err3, err4} {
			if err != nil {
				return nil, fmt.Errorf("frames.csv line %d: %w", i+2, err)
			}
		}

		if n := len(frames); n == 0 || frames[n-1].Step != step {
			frames = append(frames, sim.Frame{Step: step, Time: t})
		}
		f := &frames[len(frames)-1]
		f.Positions = append(f.Positions, barneshut.Vec{x, y})
	}
	return frames, nil
}

// LoadSeries returns the sample times and every metric series by name.
func (s *Store) LoadSeries(runID string) ([]float64, map[string][]float64, error) {
	records, err := readCSV(filepath.Join(s.Dir(runID), seriesFile))
	if err != nil {
		return nil, nil, err
	}

	header := records[0]
	times := make([]float64, 0, len(records)-1)
	series := make(map[string][]float64, len(header)-1)
	for _, name := range header[1:] {
		series[name] = make([]float64, 0, len(records)-1)
	}

	for _, rec := range records[1:] {
		t, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			continue
		}
		times = append(times, t)
		for j := 1; j < len(header); j++ {
			v := 0.0
			if j < len(rec) {
				v, _ = strconv.ParseFloat(rec[j], 64)
			}
			series[header[j]] = append(series[header[j]], v)
		}
	}
	return times, series, nil
}

func (s *Store) LoadTimings(runID string) ([]sim.StepStats, error) {
	records, err := readCSV(filepath.Join(s.Dir(runID), timingsFile))
	if err != nil {
		return nil, err
	}

	stats := make([]sim.StepStats, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != 8 {
			return nil, fmt.Errorf("timings.csv line %d: expected 8 fields, got %d", i+2, len(rec))
		}
		v := make([]int64, len(rec))
		for j, field := range rec {
			n, err := strconv.ParseInt(field, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("timings.csv line %d: %w", i+2, err)
			}
			v[j] = n
		}
		stats = append(stats, sim.StepStats{
			Step:      int(v[0]),
			Build:     time.Duration(v[1]),
			Evaluate:  time.Duration(v[2]),
			Integrate: time.Duration(v[3]),
			Nodes:     int(v[4]),
			Work: barneshut.Traversal{
				Opened:       int(v[5]),
				Aggregated:   int(v[6]),
				Interactions: int(v[7]),
			},
		})
	}
	return stats, nil
}
