package main

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/san-kum/nbodyquad/internal/export"
	"github.com/san-kum/nbodyquad/internal/storage"
)

var (
	withFrames  bool
	outPath     string
	frameIndex  int
	trailStride int
	svgSize     int
)

func svgFlags(cmd *cobra.Command) {
	domainFlag(cmd)
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default <run_id>.svg)")
	cmd.Flags().IntVar(&frameIndex, "frame", -1, "frame index, negative counts from the end")
	cmd.Flags().IntVar(&trailStride, "trails", 0, "draw the path of every n-th particle instead of one frame")
	cmd.Flags().IntVar(&svgSize, "size", export.DefaultOptions().Size, "image size in pixels")
}

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if withFrames {
		frames, err := st.LoadFrames(runID)
		if err != nil {
			return err
		}
		if len(frames) == 0 {
			return fmt.Errorf("no data to export")
		}
		if err := w.Write([]string{"step", "time", "id", "x", "y"}); err != nil {
			return err
		}
		for _, f := range frames {
			for id, p := range f.Positions {
				row := []string{strconv.Itoa(f.Step), ftoa(f.Time), strconv.Itoa(id), ftoa(p[0]), ftoa(p[1])}
				if err := w.Write(row); err != nil {
					return err
				}
			}
		}
		return w.Error()
	}

	times, series, err := st.LoadSeries(runID)
	if err != nil {
		return err
	}
	if len(times) == 0 {
		return fmt.Errorf("no data to export")
	}
	names := sortedSeries(series)
	if err := w.Write(append([]string{"time"}, names...)); err != nil {
		return err
	}
	for i, t := range times {
		row := []string{ftoa(t)}
		for _, name := range names {
			v := ""
			if i < len(series[name]) {
				v = ftoa(series[name][i])
			}
			row = append(row, v)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	data, err := st.Export(runID, withFrames)
	if err != nil {
		return err
	}
	if outPath != "" {
		if err := storage.ExportJSON(outPath, data); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outPath)
		return nil
	}
	return storage.ExportJSONStdout(data)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("run %s has no frames", runID)
	}
	d, err := sceneDomain()
	if err != nil {
		return err
	}

	o := export.DefaultOptions()
	o.Size = svgSize

	var buf bytes.Buffer
	if trailStride > 0 {
		if err := export.Trails(&buf, frames, d, trailStride, o); err != nil {
			return err
		}
	} else {
		idx := frameIndex
		if idx < 0 {
			idx += len(frames)
		}
		if idx < 0 || idx >= len(frames) {
			return fmt.Errorf("frame %d out of range [0, %d)", frameIndex, len(frames))
		}
		n, err := export.Snapshot(&buf, frames[idx], d, o)
		if err != nil {
			return err
		}
		fmt.Printf("frame %d (step %d): %d particles drawn\n", idx, frames[idx].Step, n)
	}

	path := outPath
	if path == "" {
		path = runID + ".svg"
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
