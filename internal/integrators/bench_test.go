package integrators

import (
	"testing"

	"github.com/san-kum/nbodyquad/internal/barneshut"
	"github.com/san-kum/nbodyquad/internal/compute"
)

func benchStore(n int) (*barneshut.ParticleStore, []barneshut.Vec) {
	s := barneshut.NewParticleStore(n)
	acc := make([]barneshut.Vec, n)
	for i := 0; i < n; i++ {
		f := float64(i) / float64(n)
		s.Add(barneshut.Vec{f, 1 - f}, barneshut.Vec{0.1, -0.1}, 1)
		acc[i] = barneshut.Vec{-f, f}
	}
	return s, acc
}

func BenchmarkSemiImplicitEuler(b *testing.B) {
	s, acc := benchStore(8192)
	integ := NewSemiImplicitEuler(compute.NewCPUBackend(0))
	bound := &Boundary{Max: barneshut.Vec{1, 1}, Restitution: 1, CrossRestitution: 1}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		integ.Step(s, acc, 1e-5, bound)
	}
}

func BenchmarkSemiImplicitEulerSerial(b *testing.B) {
	s, acc := benchStore(8192)
	integ := NewSemiImplicitEuler(compute.NewSerialBackend())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		integ.Step(s, acc, 1e-5, nil)
	}
}
