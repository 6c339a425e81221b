package export

import (
	"strings"
	"testing"

	"github.com/san-kum/nbodyquad/internal/barneshut"
	"github.com/san-kum/nbodyquad/internal/sim"
	"github.com/san-kum/nbodyquad/internal/viz"
)

var unit = barneshut.Domain{Center: barneshut.Vec{0.5, 0.5}, Half: 0.5}

func TestSnapshot(t *testing.T) {
	frame := sim.Frame{Step: 3, Time: 0.5, Positions: []barneshut.Vec{{0, 0}, {1, 1}, {0.5, 0.25}, {3, 3}}}
	o := DefaultOptions()
	o.Size = 100

	var sb strings.Builder
	n, err := Snapshot(&sb, frame, unit, o)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 circles, got %d", n)
	}
	svg := sb.String()
	if got := strings.Count(svg, "<circle"); got != 3 {
		t.Errorf("expected 3 circle elements, got %d", got)
	}
	for _, want := range []string{
		`cx="0.0" cy="100.0"`,
		`cx="100.0" cy="0.0"`,
		`cx="50.0" cy="75.0"`,
		"<!-- step 3 t=0.5 -->",
		"</svg>",
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg missing %q", want)
		}
	}
}

func TestSnapshotInvalid(t *testing.T) {
	var sb strings.Builder
	if _, err := Snapshot(&sb, sim.Frame{}, barneshut.Domain{}, DefaultOptions()); err == nil {
		t.Error("expected error for zero domain")
	}
	o := DefaultOptions()
	o.Size = 0
	if _, err := Snapshot(&sb, sim.Frame{}, unit, o); err == nil {
		t.Error("expected error for zero size")
	}
}

func TestTrails(t *testing.T) {
	frames := []sim.Frame{
		{Positions: []barneshut.Vec{{0.1, 0.1}, {0.9, 0.9}}},
		{Positions: []barneshut.Vec{{0.2, 0.2}, {2, 2}}},
		{Positions: []barneshut.Vec{{0.3, 0.3}, {0.8, 0.8}}},
	}
	var sb strings.Builder
	if err := Trails(&sb, frames, unit, 1, DefaultOptions()); err != nil {
		t.Fatalf("trails: %v", err)
	}
	// Particle 1 leaves the domain in the middle frame, splitting its path.
	if got := strings.Count(sb.String(), "<path"); got != 3 {
		t.Errorf("expected 3 paths, got %d", got)
	}

	if err := Trails(&sb, nil, unit, 1, DefaultOptions()); err == nil {
		t.Error("expected error without frames")
	}
}

func TestCanvasToSVG(t *testing.T) {
	if CanvasToSVG(nil, 1) != "" {
		t.Error("nil canvas should render empty")
	}
	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	svg := CanvasToSVG(c, 2)
	if got := strings.Count(svg, "<circle"); got != 2 {
		t.Errorf("expected 2 dots, got %d", got)
	}
}
