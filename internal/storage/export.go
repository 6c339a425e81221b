package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/nbodyquad/internal/sim"
)

type ExportData struct {
	Run     RunMetadata          `json:"run"`
	Times   []float64            `json:"times"`
	Series  map[string][]float64 `json:"series"`
	Frames  []ExportFrame        `json:"frames,omitempty"`
	Metrics map[string]float64   `json:"metrics"`
}

type ExportFrame struct {
	Step      int          `json:"step"`
	Time      float64      `json:"time"`
	Positions [][2]float64 `json:"positions"`
}

// Export collects a stored run into one document. Frames are included only
// when withFrames is set, since they dominate the size.
func (s *Store) Export(runID string, withFrames bool) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	times, series, err := s.LoadSeries(runID)
	if err != nil {
		return nil, err
	}

	data := &ExportData{Run: *meta, Times: times, Series: series, Metrics: meta.Metrics}
	if withFrames {
		frames, err := s.LoadFrames(runID)
		if err != nil {
			return nil, err
		}
		data.Frames = exportFrames(frames)
	}
	return data, nil
}

func exportFrames(frames []sim.Frame) []ExportFrame {
	out := make([]ExportFrame, len(frames))
	for i, f := range frames {
		pos := make([][2]float64, len(f.Positions))
		for j, x := range f.Positions {
			pos[j] = [2]float64(x)
		}
		out[i] = ExportFrame{Step: f.Step, Time: f.Time, Positions: pos}
	}
	return out
}

func ExportJSON(path string, data *ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return EncodeJSON(file, data)
}

func ExportJSONStdout(data *ExportData) error {
	return EncodeJSON(os.Stdout, data)
}

func EncodeJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
