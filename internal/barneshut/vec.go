package barneshut

import "math"

// Dim is the spatial dimension. Branch is the number of children per node.
const (
	Dim    = 2
	Branch = 1 << Dim
)

type Vec [Dim]float64

func Splat(s float64) Vec {
	var v Vec
	for a := range v {
		v[a] = s
	}
	return v
}

func (v Vec) Add(w Vec) Vec {
	for a := range v {
		v[a] += w[a]
	}
	return v
}

func (v Vec) Sub(w Vec) Vec {
	for a := range v {
		v[a] -= w[a]
	}
	return v
}

func (v Vec) Scale(s float64) Vec {
	for a := range v {
		v[a] *= s
	}
	return v
}

func (v Vec) Dot(w Vec) float64 {
	d := 0.0
	for a := range v {
		d += v[a] * w[a]
	}
	return d
}

func (v Vec) Norm2() float64 { return v.Dot(v) }
func (v Vec) Norm() float64  { return math.Sqrt(v.Norm2()) }

// IsFinite reports whether no component is NaN or infinite.
func (v Vec) IsFinite() bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// Quadrant selects one of the Branch children. Bit a is set when the point
// lies above the node center along axis a; a point on the center goes low.
type Quadrant uint8

func QuadrantOf(center, x Vec) Quadrant {
	var q Quadrant
	for a := 0; a < Dim; a++ {
		if x[a] > center[a] {
			q |= 1 << a
		}
	}
	return q
}

// Frame returns the geometric center and half-size of the child quadrant q
// of a node with the given center and half-size.
func (q Quadrant) Frame(center Vec, half float64) (Vec, float64) {
	h := half * 0.5
	for a := 0; a < Dim; a++ {
		if q&(1<<a) != 0 {
			center[a] += h
		} else {
			center[a] -= h
		}
	}
	return center, h
}

// Domain is an axis-aligned square (cube for Dim > 2) region.
type Domain struct {
	Center Vec
	Half   float64
}

// Contains reports whether x lies in the closed region.
func (d Domain) Contains(x Vec) bool {
	for a := 0; a < Dim; a++ {
		if math.Abs(x[a]-d.Center[a]) > d.Half || math.IsNaN(x[a]) {
			return false
		}
	}
	return true
}

func (d Domain) Min() Vec { return d.Center.Sub(Splat(d.Half)) }
func (d Domain) Max() Vec { return d.Center.Add(Splat(d.Half)) }
