package analysis

import (
	"strings"

	"github.com/san-kum/nbodyquad/internal/barneshut"
)

type Point struct{ X, Y float64 }

// PhasePortrait2D holds data for a 2D phase space plot
type PhasePortrait2D struct {
	XLabel, YLabel string
	Points         []Point
}

// RadialPortrait plots each particle's distance from center against its
// radial velocity. A collapsing disc shows up below the axis.
func RadialPortrait(pos, vel []barneshut.Vec, center barneshut.Vec) *PhasePortrait2D {
	portrait := &PhasePortrait2D{
		XLabel: "r",
		YLabel: "v_r",
		Points: make([]Point, 0, len(pos)),
	}
	for i := range pos {
		d := pos[i].Sub(center)
		r := d.Norm()
		vr := 0.0
		if r > 0 {
			vr = vel[i].Dot(d) / r
		}
		portrait.Points = append(portrait.Points, Point{X: r, Y: vr})
	}
	return portrait
}

// densityGlyphs shade a cell by how many points fall into it.
var densityGlyphs = []rune{'·', ':', 'o', 'O', '@'}

type bounds struct{ lo, span float64 }

func padded(lo, hi float64) bounds {
	span := hi - lo
	if span == 0 {
		span = 1
	}
	return bounds{lo: lo - span*0.1, span: span * 1.2}
}

func (b bounds) cell(v float64, n int) int { return int((v - b.lo) / b.span * float64(n-1)) }

// PhasePortraitToASCII renders the portrait as a density plot with the
// v = 0 axis drawn when it is in range.
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	first := portrait.Points[0]
	minX, maxX, minY, maxY := first.X, first.X, first.Y, first.Y
	for _, p := range portrait.Points[1:] {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	bx, by := padded(minX, maxX), padded(minY, maxY)

	counts := make([]int, width*height)
	for _, p := range portrait.Points {
		col, row := bx.cell(p.X, width), height-1-by.cell(p.Y, height)
		if row >= 0 && row < height && col >= 0 && col < width {
			counts[row*width+col]++
		}
	}

	axis := -1
	if minY <= 0 && maxY >= 0 {
		axis = height - 1 - by.cell(0, height)
	}

	var sb strings.Builder
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			switch n := counts[row*width+col]; {
			case n > 0:
				sb.WriteRune(densityGlyphs[min(n, len(densityGlyphs))-1])
			case row == axis:
				sb.WriteRune('─')
			default:
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
