package integrators

import "github.com/san-kum/nbodyquad/internal/barneshut"

// Boundary reflects particles off the walls of an axis-aligned box.
type Boundary struct {
	Min, Max barneshut.Vec

	// Restitution scales the reflected velocity component.
	Restitution float64
	// CrossRestitution scales the other components on each bounce.
	CrossRestitution float64
}

// BoundaryFor returns a boundary on the walls of d with the given
// coefficients.
func BoundaryFor(d barneshut.Domain, restitution, cross float64) *Boundary {
	return &Boundary{Min: d.Min(), Max: d.Max(), Restitution: restitution, CrossRestitution: cross}
}

// Within reports whether the reflection box lies inside d, so that a
// reflected particle never leaves the tree domain.
func (b *Boundary) Within(d barneshut.Domain) bool {
	lo, hi := d.Min(), d.Max()
	for a := 0; a < barneshut.Dim; a++ {
		if b.Min[a] < lo[a] || b.Max[a] > hi[a] {
			return false
		}
	}
	return true
}

// Reflect returns v adjusted so that a particle at x moving with v for dt
// does not cross a wall it is heading towards.
func (b *Boundary) Reflect(x, v barneshut.Vec, dt float64) barneshut.Vec {
	for a := 0; a < barneshut.Dim; a++ {
		next := x[a] + v[a]*dt
		if (next < b.Min[a] && v[a] < 0) || (next > b.Max[a] && v[a] > 0) {
			for o := 0; o < barneshut.Dim; o++ {
				if o == a {
					v[o] = -v[o] * b.Restitution
				} else {
					v[o] *= b.CrossRestitution
				}
			}
		}
	}
	return v
}
