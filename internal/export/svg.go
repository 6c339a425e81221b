package export

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/san-kum/nbodyquad/internal/barneshut"
	"github.com/san-kum/nbodyquad/internal/sim"
	"github.com/san-kum/nbodyquad/internal/viz"
)

type Options struct {
	Size       int // output width and height in pixels
	Radius     float64
	Background string
	Fill       string
	Stroke     string
}

func DefaultOptions() Options {
	return Options{
		Size:       800,
		Radius:     1.2,
		Background: "#05070f",
		Fill:       "#cad7ff",
		Stroke:     "#7f9cf5",
	}
}

// scale maps world coordinates inside d onto a Size x Size viewport with y
// pointing up.
type scale struct {
	lo   barneshut.Vec
	k    float64
	size float64
}

func newScale(d barneshut.Domain, size int) scale {
	return scale{lo: d.Min(), k: float64(size) / (2 * d.Half), size: float64(size)}
}

func (s scale) point(p barneshut.Vec) (x, y float64) {
	return (p[0] - s.lo[0]) * s.k, s.size - (p[1]-s.lo[1])*s.k
}

func header(w io.Writer, size int, bg string) {
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, size, size, size, size, bg)
}

func validate(d barneshut.Domain, o Options) error {
	if d.Half <= 0 {
		return fmt.Errorf("domain half size must be positive, got %g", d.Half)
	}
	if o.Size <= 0 {
		return fmt.Errorf("svg size must be positive, got %d", o.Size)
	}
	return nil
}

// Snapshot writes one circle per particle of frame. Particles outside d are
// skipped; the count written is returned.
func Snapshot(w io.Writer, frame sim.Frame, d barneshut.Domain, o Options) (int, error) {
	if err := validate(d, o); err != nil {
		return 0, err
	}
	bw := bufio.NewWriter(w)
	sc := newScale(d, o.Size)

	header(bw, o.Size, o.Background)
	fmt.Fprintf(bw, "<!-- step %d t=%g -->\n<g fill=\"%s\">\n", frame.Step, frame.Time, o.Fill)
	n := 0
	for _, p := range frame.Positions {
		if !d.Contains(p) {
			continue
		}
		x, y := sc.point(p)
		fmt.Fprintf(bw, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", x, y, o.Radius)
		n++
	}
	bw.WriteString("</g>\n</svg>\n")
	return n, bw.Flush()
}

// Trails writes the path of every stride-th particle across frames as a
// polyline. Segments leaving the domain break the line.
func Trails(w io.Writer, frames []sim.Frame, d barneshut.Domain, stride int, o Options) error {
	if err := validate(d, o); err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no frames")
	}
	if stride <= 0 {
		stride = 1
	}
	n := len(frames[0].Positions)
	for _, f := range frames {
		n = min(n, len(f.Positions))
	}

	bw := bufio.NewWriter(w)
	sc := newScale(d, o.Size)
	header(bw, o.Size, o.Background)
	fmt.Fprintf(bw, "<g fill=\"none\" stroke=\"%s\" stroke-width=\"0.8\" stroke-opacity=\"0.7\">\n", o.Stroke)
	for id := 0; id < n; id += stride {
		open := false
		for _, f := range frames {
			p := f.Positions[id]
			if !d.Contains(p) {
				if open {
					bw.WriteString("\"/>\n")
					open = false
				}
				continue
			}
			x, y := sc.point(p)
			if !open {
				fmt.Fprintf(bw, "<path d=\"M%.1f,%.1f", x, y)
				open = true
				continue
			}
			fmt.Fprintf(bw, " L%.1f,%.1f", x, y)
		}
		if open {
			bw.WriteString("\"/>\n")
		}
	}
	bw.WriteString("</g>\n</svg>\n")
	return bw.Flush()
}

// CanvasToSVG renders the lit dots of a braille canvas, scale pixels per
// sub-pixel.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil || scale <= 0 {
		return ""
	}
	size := int(math.Ceil(math.Max(float64(canvas.Width*2), float64(canvas.Height*4)) * scale))

	var sb strings.Builder
	o := DefaultOptions()
	header(&sb, size, o.Background)
	fmt.Fprintf(&sb, "<g fill=\"%s\">\n", o.Fill)
	r := scale * 0.4
	for y := 0; y < canvas.Height*4; y++ {
		for x := 0; x < canvas.Width*2; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n",
				float64(x)*scale+scale/2, float64(y)*scale+scale/2, r)
		}
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}
