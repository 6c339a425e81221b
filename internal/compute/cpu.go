package compute

import (
	"runtime"

	"github.com/dgravesa/go-parallel/parallel"
)

// minParallel is the loop length below which CPUBackend runs inline.
const minParallel = 16

type CPUBackend struct {
	workers int
}

func NewCPUBackend(workers int) *CPUBackend {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &CPUBackend{workers: workers}
}

func (c *CPUBackend) Name() string { return "cpu" }
func (c *CPUBackend) Workers() int { return c.workers }

func (c *CPUBackend) For(n int, body func(i, worker int)) {
	if n < minParallel || c.workers == 1 {
		for i := 0; i < n; i++ {
			body(i, 0)
		}
		return
	}
	parallel.WithNumGoroutines(c.workers).For(n, body)
}

type SerialBackend struct{}

func NewSerialBackend() *SerialBackend { return &SerialBackend{} }

func (SerialBackend) Name() string { return "serial" }
func (SerialBackend) Workers() int { return 1 }

func (SerialBackend) For(n int, body func(i, worker int)) {
	for i := 0; i < n; i++ {
		body(i, 0)
	}
}
